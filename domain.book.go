package main

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

var (
	ErrInvalidBook   = errors.New("invalid book")
	ErrDuplicateBook = errors.New("book already in catalog")
)

// ValidationError reports the field of a book which failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidBook
}

// DuplicateError is returned when adding a book whose title and author
// already identify another book of the catalog.
type DuplicateError struct {
	Title  string
	Author string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("book %q by %s is already in the catalog", e.Title, e.Author)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicateBook
}

// BookRecord represents a validated book entity. Fields are only readable.
type BookRecord struct {
	title           string
	author          string
	publicationYear int
	genre           string
}

// BookMapping is the field-named form of a book used for serialization.
type BookMapping struct {
	Title           string `json:"title" yaml:"title"`
	Author          string `json:"author" yaml:"author"`
	PublicationYear int    `json:"publicationYear" yaml:"publicationYear"`
	Genre           string `json:"genre" yaml:"genre"`
}

// NewBookRecord validates the provided values and builds a book. Values
// are kept as given, trimming user input is up to the caller.
func NewBookRecord(title, author string, publicationYear int, genre string) (BookRecord, error) {
	if title == "" {
		return BookRecord{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if author == "" {
		return BookRecord{}, &ValidationError{Field: "author", Reason: "must not be empty"}
	}
	if publicationYear <= 0 {
		return BookRecord{}, &ValidationError{Field: "publicationYear", Reason: "must be a positive integer"}
	}
	if genre == "" {
		return BookRecord{}, &ValidationError{Field: "genre", Reason: "must not be empty"}
	}
	return BookRecord{
		title:           title,
		author:          author,
		publicationYear: publicationYear,
		genre:           genre,
	}, nil
}

// BookRecordFromMapping builds a book from its serialized form. Missing
// keys decode to zero values and are rejected like any other invalid value.
func BookRecordFromMapping(m BookMapping) (BookRecord, error) {
	return NewBookRecord(m.Title, m.Author, m.PublicationYear, m.Genre)
}

func (b BookRecord) Title() string        { return b.title }
func (b BookRecord) Author() string       { return b.author }
func (b BookRecord) PublicationYear() int { return b.publicationYear }
func (b BookRecord) Genre() string        { return b.genre }

// ToMapping converts the book into its serializable form.
func (b BookRecord) ToMapping() BookMapping {
	return BookMapping{
		Title:           b.title,
		Author:          b.author,
		PublicationYear: b.publicationYear,
		Genre:           b.genre,
	}
}

// String provides the four lines display form of the book.
func (b BookRecord) String() string {
	return fmt.Sprintf("Title: %s\nAuthor: %s\nYear: %d\nGenre: %s", b.title, b.author, b.publicationYear, b.genre)
}

// SameBook reports whether a and b identify the same book: title and
// author are equal under case folding. Year and genre are ignored.
func SameBook(a, b BookRecord) bool {
	return foldEqual(a.title, b.title) && foldEqual(a.author, b.author)
}

// fold returns the case folded form of s. A Caser keeps state
// so a fresh one is used on each call.
func fold(s string) string {
	return cases.Fold().String(s)
}

func foldEqual(a, b string) bool {
	return fold(a) == fold(b)
}

func foldContains(s, substr string) bool {
	return strings.Contains(fold(s), fold(substr))
}

func isBlank(s string) bool {
	return len(strings.TrimSpace(s)) == 0
}
