package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const menu = `
--- Bookshelf Menu ---
1. Add a new book
2. Remove a book
3. Search books
4. List all books
5. Exit
----------------------`

// Session is the interactive console loop on top of a catalog.
type Session struct {
	logger   *zap.Logger
	catalog  *Catalog
	lines    <-chan string
	done     chan struct{}
	stopOnce sync.Once
	out      io.Writer
	asTable  bool
}

// NewSession provides a session reading user input line by line from in.
// The reader goroutine ends with the input, or with the first line read
// once Run has returned.
func NewSession(logger *zap.Logger, catalog *Catalog, in io.Reader, out io.Writer, asTable bool) *Session {
	lines := make(chan string)
	done := make(chan struct{})
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case <-done:
				return
			default:
			}
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Error("session: failed to read input", zap.Error(err))
		}
	}()
	return &Session{
		logger:  logger,
		catalog: catalog,
		lines:   lines,
		done:    done,
		out:     out,
		asTable: asTable,
	}
}

// Run shows the menu and dispatches choices until exit. The end of the
// input is a normal exit.
func (s *Session) Run(ctx context.Context) error {
	defer s.stopOnce.Do(func() { close(s.done) })
	for {
		fmt.Fprintln(s.out, menu)
		choice, err := s.prompt(ctx, "Choose an option (1-5): ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = s.addBook(ctx)
		case "2":
			err = s.removeBook(ctx)
		case "3":
			err = s.searchBooks(ctx)
		case "4":
			s.listBooks()
		case "5":
			fmt.Fprintln(s.out, "Thanks for using the bookshelf. Goodbye!")
			return nil
		default:
			fmt.Fprintln(s.out, "Invalid choice. Try again.")
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// prompt prints label and returns the next trimmed input line.
func (s *Session) prompt(ctx context.Context, label string) (string, error) {
	fmt.Fprint(s.out, label)
	select {
	case <-ctx.Done():
		fmt.Fprintln(s.out)
		return "", ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			fmt.Fprintln(s.out)
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	}
}

// promptUntil asks again until check accepts the input.
func (s *Session) promptUntil(ctx context.Context, label string, check func(string) error) (string, error) {
	for {
		value, err := s.prompt(ctx, label)
		if err != nil {
			return "", err
		}
		if err = check(value); err != nil {
			fmt.Fprintf(s.out, "Error: %v. Try again.\n", err)
			continue
		}
		return value, nil
	}
}

func notBlank(field string) func(string) error {
	return func(v string) error {
		if isBlank(v) {
			return &ValidationError{Field: field, Reason: "must not be empty"}
		}
		return nil
	}
}

func positiveYear(v string) error {
	year, err := strconv.Atoi(v)
	if err != nil || year <= 0 {
		return &ValidationError{Field: "publicationYear", Reason: "must be a positive integer"}
	}
	return nil
}

func (s *Session) addBook(ctx context.Context) error {
	title, err := s.promptUntil(ctx, "Book title: ", notBlank("title"))
	if err != nil {
		return err
	}
	author, err := s.promptUntil(ctx, "Book author: ", notBlank("author"))
	if err != nil {
		return err
	}
	yearText, err := s.promptUntil(ctx, "Publication year: ", positiveYear)
	if err != nil {
		return err
	}
	genre, err := s.promptUntil(ctx, "Book genre: ", notBlank("genre"))
	if err != nil {
		return err
	}

	year, _ := strconv.Atoi(yearText)
	book, err := NewBookRecord(title, author, year, genre)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return nil
	}
	if err = s.catalog.Add(book); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return nil
	}
	fmt.Fprintf(s.out, "Book '%s' added.\n", book.Title())
	return nil
}

func (s *Session) removeBook(ctx context.Context) error {
	title, err := s.prompt(ctx, "Title of the book to remove: ")
	if err != nil {
		return err
	}
	if title == "" {
		fmt.Fprintln(s.out, "The title must not be empty.")
		return nil
	}
	if s.catalog.RemoveByTitle(title) {
		fmt.Fprintf(s.out, "Book '%s' removed.\n", title)
	} else {
		fmt.Fprintf(s.out, "Book '%s' not found.\n", title)
	}
	return nil
}

func (s *Session) searchBooks(ctx context.Context) error {
	query, err := s.prompt(ctx, "Search term: ")
	if err != nil {
		return err
	}
	if query == "" {
		fmt.Fprintln(s.out, "The search term must not be empty.")
		return nil
	}
	fieldText, err := s.prompt(ctx, "Search by (title, author, genre) [default: title]: ")
	if err != nil {
		return err
	}
	field, err := ParseSearchField(fieldText)
	if err != nil {
		fmt.Fprintln(s.out, "Invalid field. Using 'title'.")
		field = SearchByTitle
	}

	results := s.catalog.Search(query, field)
	if len(results) == 0 {
		fmt.Fprintf(s.out, "No book found for '%s' by %s.\n", query, field)
		return nil
	}
	fmt.Fprintf(s.out, "\n--- Search results (%s: '%s') ---\n", field, query)
	renderBooks(s.out, results, s.asTable)
	return nil
}

func (s *Session) listBooks() {
	books := s.catalog.ListAll()
	if len(books) == 0 {
		fmt.Fprintln(s.out, "The catalog is empty.")
		return
	}
	fmt.Fprintln(s.out, "\n--- Books in the catalog ---")
	renderBooks(s.out, books, s.asTable)
}
