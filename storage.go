package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Supported storage drivers.
const (
	DriverFile  = "file"
	DriverBolt  = "bolt"
	DriverRedis = "redis"
)

// ErrStorageNotFound is returned by a backend when its target does not exist yet.
var ErrStorageNotFound = errors.New("storage target not found")

// BookStorage defines the raw operations of a catalog backend. It always
// reads and writes the whole ordered list of books.
type BookStorage interface {
	Load(ctx context.Context) ([]BookRecord, error)
	Save(ctx context.Context, books []BookRecord) error
	Close() error
	Name() string
}

// PersistenceStore translates catalog state to and from a backend. Backend
// failures never reach the caller as fatal errors: they are logged as
// warnings and replaced by a safe default.
type PersistenceStore struct {
	logger  *zap.Logger
	backend BookStorage
}

// NewPersistenceStore provides a store on top of the given backend.
func NewPersistenceStore(logger *zap.Logger, backend BookStorage) *PersistenceStore {
	return &PersistenceStore{logger: logger, backend: backend}
}

// Load returns the stored books. A missing target gives an empty list
// without warning. Any other failure, including a single invalid record,
// discards the whole content and gives an empty list with one warning.
func (ps *PersistenceStore) Load(ctx context.Context) []BookRecord {
	books, err := ps.backend.Load(ctx)
	if errors.Is(err, ErrStorageNotFound) {
		ps.logger.Debug("storage: nothing stored yet, starting empty", zap.String("storage", ps.backend.Name()))
		return []BookRecord{}
	}
	if err != nil {
		ps.logger.Warn("storage: failed to load catalog, starting empty",
			zap.String("storage", ps.backend.Name()),
			zap.Error(err),
		)
		return []BookRecord{}
	}
	ps.logger.Debug("storage: catalog loaded", zap.String("storage", ps.backend.Name()), zap.Int("books", len(books)))
	return books
}

// Save overwrites the stored content with books. On failure a warning is
// logged and the error is returned for display purpose only.
func (ps *PersistenceStore) Save(ctx context.Context, books []BookRecord) error {
	if err := ps.backend.Save(ctx, books); err != nil {
		ps.logger.Warn("storage: failed to save catalog",
			zap.String("storage", ps.backend.Name()),
			zap.Int("books", len(books)),
			zap.Error(err),
		)
		return fmt.Errorf("save catalog to %s: %w", ps.backend.Name(), err)
	}
	ps.logger.Debug("storage: catalog saved", zap.String("storage", ps.backend.Name()), zap.Int("books", len(books)))
	return nil
}

// Close releases the backend resources.
func (ps *PersistenceStore) Close() error {
	return ps.backend.Close()
}

// decodeBooks validates every mapping. The first invalid one fails the
// whole batch.
func decodeBooks(mappings []BookMapping) ([]BookRecord, error) {
	books := make([]BookRecord, 0, len(mappings))
	for i, m := range mappings {
		book, err := BookRecordFromMapping(m)
		if err != nil {
			return nil, fmt.Errorf("record #%d: %w", i+1, err)
		}
		books = append(books, book)
	}
	return books, nil
}

func encodeBooks(books []BookRecord) []BookMapping {
	mappings := make([]BookMapping, 0, len(books))
	for _, b := range books {
		mappings = append(mappings, b.ToMapping())
	}
	return mappings
}

// NewBookStorage provides the backend selected by the configuration.
func NewBookStorage(logger *zap.Logger, config *StorageConfig) (BookStorage, error) {
	switch config.Driver {
	case DriverFile, "":
		return NewFileBookStorage(logger, &config.File), nil
	case DriverBolt:
		client, err := GetBoltDBClient(&config.BoltDB)
		if IsDamagedBoltFile(err) {
			// reported once as a load failure.
			return NewDamagedBoltBookStorage(logger, &config.BoltDB, err), nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to connect to boltDB: %w", err)
		}
		return NewBoltBookStorage(logger, &config.BoltDB, client), nil
	case DriverRedis:
		client, err := GetRedisClient(&config.Redis)
		if err != nil {
			// the server may come back, each load and save reports its own failure.
			logger.Debug("storage: redis server not reachable", zap.Error(err))
		}
		return NewRedisBookStorage(logger, &config.Redis, client), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", config.Driver)
	}
}
