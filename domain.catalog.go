package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrCatalogClosed is returned by mutations issued after the catalog was closed.
var ErrCatalogClosed = errors.New("catalog is closed")

// SearchField selects the book field a search query applies to.
type SearchField string

const (
	SearchByTitle  SearchField = "title"
	SearchByAuthor SearchField = "author"
	SearchByGenre  SearchField = "genre"
)

// ParseSearchField maps user input to a search field. An empty
// input selects the title.
func ParseSearchField(s string) (SearchField, error) {
	switch f := SearchField(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return SearchByTitle, nil
	case SearchByTitle, SearchByAuthor, SearchByGenre:
		return f, nil
	default:
		return "", fmt.Errorf("invalid search field %q: expected title, author or genre", s)
	}
}

func (f SearchField) value(b BookRecord) string {
	switch f {
	case SearchByAuthor:
		return b.author
	case SearchByGenre:
		return b.genre
	default:
		return b.title
	}
}

type catalogState int

const (
	catalogOpen catalogState = iota
	catalogClosed
)

// Catalog holds the ordered collection of unique books of a session.
// It is not safe for concurrent use.
type Catalog struct {
	logger *zap.Logger
	store  *PersistenceStore
	books  []BookRecord
	state  catalogState
}

// OpenCatalog loads the stored books and returns an open catalog.
func OpenCatalog(ctx context.Context, logger *zap.Logger, store *PersistenceStore) *Catalog {
	return &Catalog{
		logger: logger,
		store:  store,
		books:  store.Load(ctx),
		state:  catalogOpen,
	}
}

// Add appends book at the end of the catalog unless the same book
// is already present.
func (c *Catalog) Add(book BookRecord) error {
	if c.state == catalogClosed {
		return ErrCatalogClosed
	}
	for _, b := range c.books {
		if SameBook(b, book) {
			return &DuplicateError{Title: book.title, Author: book.author}
		}
	}
	c.books = append(c.books, book)
	c.logger.Info("catalog: book added",
		zap.String("book.title", book.title),
		zap.String("book.author", book.author),
		zap.Int("catalog.size", len(c.books)),
	)
	return nil
}

// RemoveByTitle removes the first book whose title equals title under
// case folding. It reports whether a book was removed.
func (c *Catalog) RemoveByTitle(title string) bool {
	if c.state == catalogClosed {
		return false
	}
	for i, b := range c.books {
		if foldEqual(b.title, title) {
			c.books = append(c.books[:i:i], c.books[i+1:]...)
			c.logger.Info("catalog: book removed", zap.String("book.title", b.title), zap.Int("catalog.size", len(c.books)))
			return true
		}
	}
	c.logger.Debug("catalog: no book to remove", zap.String("book.title", title))
	return false
}

// Search returns, in catalog order, the books whose field contains
// query under case folding. An empty query matches every book. Callers
// obtain field from ParseSearchField or the SearchBy constants; any other
// value searches the title, the same as an empty field in ParseSearchField.
func (c *Catalog) Search(query string, field SearchField) []BookRecord {
	results := []BookRecord{}
	for _, b := range c.books {
		if foldContains(field.value(b), query) {
			results = append(results, b)
		}
	}
	return results
}

// ListAll returns a copy of all books in insertion order.
func (c *Catalog) ListAll() []BookRecord {
	return append([]BookRecord{}, c.books...)
}

// Len returns the number of books.
func (c *Catalog) Len() int {
	return len(c.books)
}

// Flush writes the current books to the store. A returned error has already
// been reported by the store and is informative only.
func (c *Catalog) Flush(ctx context.Context) error {
	return c.store.Save(ctx, c.books)
}

// Close performs the terminal flush. Only the first call has an effect.
func (c *Catalog) Close(ctx context.Context) error {
	if c.state == catalogClosed {
		return nil
	}
	c.state = catalogClosed
	return c.Flush(ctx)
}

// WithCatalog opens the catalog, runs fn with it and guarantees the
// terminal flush on every exit path of fn, panics included.
func WithCatalog(ctx context.Context, logger *zap.Logger, store *PersistenceStore, fn func(*Catalog) error) (err error) {
	catalog := OpenCatalog(ctx, logger, store)
	defer func() {
		r := recover()
		// the store already reported a failed flush.
		_ = catalog.Close(context.WithoutCancel(ctx))
		if r != nil {
			panic(r)
		}
	}()
	return fn(catalog)
}
