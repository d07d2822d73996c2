package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCatalog(t *testing.T, books ...BookRecord) (*Catalog, *[]BookRecord, *int) {
	t.Helper()
	mock, stored, saves := NewMemoryBookStorage()
	store := NewPersistenceStore(zap.NewNop(), mock)
	c := OpenCatalog(context.Background(), zap.NewNop(), store)
	for _, b := range books {
		require.NoError(t, c.Add(b))
	}
	return c, stored, saves
}

func TestCatalogAdd(t *testing.T) {
	t.Run("should pass: appends in order", func(t *testing.T) {
		c, _, _ := newTestCatalog(t)
		require.NoError(t, c.Add(mustBook("Dune", "Frank Herbert", 1965, "Sci-Fi")))
		require.NoError(t, c.Add(mustBook("Emma", "Jane Austen", 1815, "Romance")))
		books := c.ListAll()
		require.Len(t, books, 2)
		assert.Equal(t, "Dune", books[0].Title())
		assert.Equal(t, "Emma", books[1].Title())
	})

	t.Run("should fail: same title and author differing by case", func(t *testing.T) {
		c, _, _ := newTestCatalog(t, mustBook("Dune", "Frank Herbert", 1965, "Sci-Fi"))
		err := c.Add(mustBook("dUNE", "FRANK HERBERT", 2001, "Classic"))
		require.Error(t, err)
		var derr *DuplicateError
		require.True(t, errors.As(err, &derr))
		assert.ErrorIs(t, err, ErrDuplicateBook)
		assert.Equal(t, 1, c.Len())
		assert.Equal(t, 1965, c.ListAll()[0].PublicationYear())
	})

	t.Run("should pass: same title other author", func(t *testing.T) {
		c, _, _ := newTestCatalog(t, mustBook("Dune", "Frank Herbert", 1965, "Sci-Fi"))
		assert.NoError(t, c.Add(mustBook("Dune", "Someone Else", 1965, "Sci-Fi")))
		assert.Equal(t, 2, c.Len())
	})
}

func TestCatalogRemoveByTitle(t *testing.T) {
	t.Run("should pass: case insensitive exact match", func(t *testing.T) {
		c, _, _ := newTestCatalog(t,
			mustBook("Dune", "Frank Herbert", 1965, "Sci-Fi"),
			mustBook("Emma", "Jane Austen", 1815, "Romance"),
			mustBook("Ulysses", "James Joyce", 1922, "Modernism"),
		)
		assert.True(t, c.RemoveByTitle("EMMA"))
		books := c.ListAll()
		require.Len(t, books, 2)
		assert.Equal(t, "Dune", books[0].Title())
		assert.Equal(t, "Ulysses", books[1].Title())
	})

	t.Run("should pass: only the first match is removed", func(t *testing.T) {
		c, _, _ := newTestCatalog(t,
			mustBook("Dune", "Frank Herbert", 1965, "Sci-Fi"),
			mustBook("dune", "Other Author", 2000, "Sci-Fi"),
		)
		assert.True(t, c.RemoveByTitle("DUNE"))
		books := c.ListAll()
		require.Len(t, books, 1)
		assert.Equal(t, "Other Author", books[0].Author())
	})

	t.Run("should fail: substring is not a match", func(t *testing.T) {
		c, _, _ := newTestCatalog(t, mustBook("Dune", "Frank Herbert", 1965, "Sci-Fi"))
		assert.False(t, c.RemoveByTitle("Dun"))
		assert.False(t, c.RemoveByTitle("Missing"))
		assert.Equal(t, 1, c.Len())
	})
}

func TestCatalogSearch(t *testing.T) {
	c, _, _ := newTestCatalog(t,
		mustBook("Dune", "Frank Herbert", 1965, "Sci-Fi"),
		mustBook("Emma", "Jane Austen", 1815, "Romance"),
		mustBook("Dune Messiah", "Frank Herbert", 1969, "Sci-Fi"),
		mustBook("Persuasion", "Jane Austen", 1817, "Romance"),
	)

	t.Run("by author keeps catalog order", func(t *testing.T) {
		results := c.Search("AUSTEN", SearchByAuthor)
		require.Len(t, results, 2)
		assert.Equal(t, "Emma", results[0].Title())
		assert.Equal(t, "Persuasion", results[1].Title())
	})

	t.Run("by title substring", func(t *testing.T) {
		results := c.Search("une", SearchByTitle)
		require.Len(t, results, 2)
		assert.Equal(t, "Dune", results[0].Title())
		assert.Equal(t, "Dune Messiah", results[1].Title())
	})

	t.Run("by genre", func(t *testing.T) {
		assert.Len(t, c.Search("sci", SearchByGenre), 2)
		assert.Empty(t, c.Search("horror", SearchByGenre))
	})

	t.Run("empty query matches every book", func(t *testing.T) {
		for _, f := range []SearchField{SearchByTitle, SearchByAuthor, SearchByGenre} {
			assert.Equal(t, c.ListAll(), c.Search("", f))
		}
	})

	t.Run("unknown field searches the title", func(t *testing.T) {
		assert.Equal(t, c.Search("dune", SearchByTitle), c.Search("dune", SearchField("year")))
	})
}

func TestParseSearchField(t *testing.T) {
	for input, expected := range map[string]SearchField{
		"":         SearchByTitle,
		"title":    SearchByTitle,
		" Author ": SearchByAuthor,
		"GENRE":    SearchByGenre,
	} {
		f, err := ParseSearchField(input)
		assert.NoError(t, err)
		assert.Equal(t, expected, f)
	}
	_, err := ParseSearchField("year")
	assert.Error(t, err)
}

func TestCatalogListAllIsACopy(t *testing.T) {
	c, _, _ := newTestCatalog(t)
	assert.Empty(t, c.ListAll())
	require.NoError(t, c.Add(mustBook("Dune", "Frank Herbert", 1965, "Sci-Fi")))
	books := c.ListAll()
	books[0] = mustBook("Other", "Other", 1, "Other")
	assert.Equal(t, "Dune", c.ListAll()[0].Title())
}

func TestCatalogFlushAndClose(t *testing.T) {
	c, stored, saves := newTestCatalog(t, mustBook("Dune", "Frank Herbert", 1965, "Sci-Fi"))

	require.NoError(t, c.Flush(context.Background()))
	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, 2, *saves)
	assert.Len(t, *stored, 1)

	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, 3, *saves)

	assert.ErrorIs(t, c.Add(mustBook("Emma", "Jane Austen", 1815, "Romance")), ErrCatalogClosed)
	assert.False(t, c.RemoveByTitle("Dune"))
	assert.Equal(t, 1, c.Len())
}

func TestCatalogFlushFailureIsContained(t *testing.T) {
	logger, logs := newObservedLogger()
	mock := &MockBookStorage{
		LoadFunc: func(context.Context) ([]BookRecord, error) { return nil, ErrStorageNotFound },
		SaveFunc: func(context.Context, []BookRecord) error { return errors.New("disk full") },
	}
	c := OpenCatalog(context.Background(), logger, NewPersistenceStore(logger, mock))
	require.NoError(t, c.Add(mustBook("Dune", "Frank Herbert", 1965, "Sci-Fi")))

	err := c.Flush(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("storage: failed to save catalog").Len())
	assert.Equal(t, 1, c.Len())
}

func TestWithCatalog(t *testing.T) {
	t.Run("flushes on normal return", func(t *testing.T) {
		mock, stored, saves := NewMemoryBookStorage()
		store := NewPersistenceStore(zap.NewNop(), mock)
		err := WithCatalog(context.Background(), zap.NewNop(), store, func(c *Catalog) error {
			return c.Add(mustBook("Dune", "Frank Herbert", 1965, "Sci-Fi"))
		})
		require.NoError(t, err)
		assert.Equal(t, 1, *saves)
		assert.Len(t, *stored, 1)
	})

	t.Run("flushes on returned error", func(t *testing.T) {
		mock, stored, saves := NewMemoryBookStorage()
		store := NewPersistenceStore(zap.NewNop(), mock)
		failure := errors.New("caller failure")
		err := WithCatalog(context.Background(), zap.NewNop(), store, func(c *Catalog) error {
			if err := c.Add(mustBook("Dune", "Frank Herbert", 1965, "Sci-Fi")); err != nil {
				return err
			}
			return failure
		})
		assert.ErrorIs(t, err, failure)
		assert.Equal(t, 1, *saves)
		assert.Len(t, *stored, 1)
	})

	t.Run("flushes on panic then panics again", func(t *testing.T) {
		mock, stored, saves := NewMemoryBookStorage()
		store := NewPersistenceStore(zap.NewNop(), mock)
		assert.PanicsWithValue(t, "boom", func() {
			_ = WithCatalog(context.Background(), zap.NewNop(), store, func(c *Catalog) error {
				_ = c.Add(mustBook("Dune", "Frank Herbert", 1965, "Sci-Fi"))
				panic("boom")
			})
		})
		assert.Equal(t, 1, *saves)
		assert.Len(t, *stored, 1)
	})

	t.Run("flushes with a cancelled context", func(t *testing.T) {
		mock, _, saves := NewMemoryBookStorage()
		store := NewPersistenceStore(zap.NewNop(), mock)
		ctx, cancel := context.WithCancel(context.Background())
		err := WithCatalog(ctx, zap.NewNop(), store, func(c *Catalog) error {
			cancel()
			return ctx.Err()
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, *saves)
	})
}

// TestCatalogScenario runs the add, duplicate, remove and search sequence.
func TestCatalogScenario(t *testing.T) {
	c, _, _ := newTestCatalog(t)
	require.NoError(t, c.Add(mustBook("Dune", "Frank Herbert", 1965, "Sci-Fi")))

	err := c.Add(mustBook("Dune", "Frank Herbert", 1965, "Sci-Fi"))
	assert.ErrorIs(t, err, ErrDuplicateBook)
	assert.Equal(t, 1, c.Len())

	assert.True(t, c.RemoveByTitle("dune"))
	assert.Equal(t, 0, c.Len())

	assert.Empty(t, c.Search("dune", SearchByTitle))
}
