package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// AppOptions holds the locations of the configuration sources.
type AppOptions struct {
	ConfigFile string
	EnvFile    string
}

type App struct {
	logger   *zap.Logger
	config   *Config
	store    *PersistenceStore
	lock     *flock.Flock
	cleanups []func()
}

// NewApp loads the configuration, sets up logging, takes the session lock
// and opens the configured storage. Call Clean once done.
func NewApp(opts AppOptions, console io.Writer) (*App, error) {
	config, err := LoadAndInitConfigs(opts.ConfigFile, opts.EnvFile, GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %s", err)
	}

	clock := NewClock(config.IsProduction)
	logWriter, err := NewRSyncWriter(config, clock)
	if err != nil {
		return nil, err
	}
	app := &App{config: config}
	app.cleanups = append(app.cleanups, func() {
		if cerr := logWriter.Close(); cerr != nil {
			fmt.Fprintln(console, "error during closing of log file: ", cerr)
		}
	})

	logger, flusher := SetupLogging(config, logWriter, console, clock)
	app.logger = logger.With(zap.String("session.id", GenerateID(SessionIDPrefix)))
	// cleanups run in reverse order so the logs are flushed before the file closes.
	app.cleanups = append(app.cleanups, func() {
		if ferr := flusher(); ferr != nil {
			fmt.Fprintln(console, "error during flushing any buffered log entries:", ferr)
		}
	})

	// the storage target may not exist yet, its folder neither.
	if err = os.MkdirAll(filepath.Dir(config.LockFile), 0o700); err != nil {
		app.Clean()
		return nil, fmt.Errorf("failed to create catalog lock folder: %w", err)
	}
	app.lock = flock.New(config.LockFile)
	ok, err := app.lock.TryLock()
	if err != nil {
		app.Clean()
		return nil, fmt.Errorf("failed to acquire catalog lock: %w", err)
	}
	if !ok {
		app.Clean()
		return nil, fmt.Errorf("another bookshelf session is using %s", config.StorageTarget())
	}
	app.cleanups = append(app.cleanups, func() {
		if uerr := app.lock.Unlock(); uerr != nil {
			app.logger.Warn("failed to release catalog lock", zap.String("lock", config.LockFile), zap.Error(uerr))
		}
	})

	backend, err := NewBookStorage(app.logger, &config.Storage)
	if err != nil {
		app.Clean()
		return nil, err
	}
	app.store = NewPersistenceStore(app.logger, backend)
	app.cleanups = append(app.cleanups, func() {
		if cerr := app.store.Close(); cerr != nil {
			app.logger.Warn("failed to close storage", zap.String("storage", backend.Name()), zap.Error(cerr))
		}
	})

	app.logger.Info("session starting",
		zap.String("storage", backend.Name()),
		zap.String("lock", config.LockFile),
	)
	return app, nil
}

// Clean calls all registered cleanups functions, latest first.
func (app *App) Clean() {
	for i := len(app.cleanups) - 1; i >= 0; i-- {
		app.cleanups[i]()
	}
	app.cleanups = nil
}

// WithCatalog runs fn against the catalog of this app. The catalog is
// flushed when fn returns, fails or panics.
func (app *App) WithCatalog(ctx context.Context, fn func(*Catalog) error) error {
	err := WithCatalog(ctx, app.logger, app.store, fn)
	switch {
	case err == nil:
		app.logger.Info("session stopped")
	case errors.Is(err, context.Canceled):
		app.logger.Info("session stopped. reason: requested to stop")
	default:
		app.logger.Error("session stopped. reason: errored at running", zap.Error(err))
	}
	return err
}

// RunSession drives the interactive menu until the user exits, the
// input ends or ctx is cancelled.
func (app *App) RunSession(ctx context.Context, in io.Reader, out io.Writer) error {
	return app.WithCatalog(ctx, func(catalog *Catalog) error {
		return NewSession(app.logger, catalog, in, out, isTerminal(out)).Run(ctx)
	})
}
