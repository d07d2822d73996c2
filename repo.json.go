package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

var errNotAnArray = errors.New("catalog content is not an array of books")

type fileBookStorage struct {
	logger *zap.Logger
	config *FileConfig
}

// NewFileBookStorage provides an instance of json file based book storage.
func NewFileBookStorage(logger *zap.Logger, config *FileConfig) BookStorage {
	return &fileBookStorage{
		logger: logger,
		config: config,
	}
}

func (fbs *fileBookStorage) Name() string {
	return "file:" + fbs.config.Path
}

// Close is a no-op, the file is only open during Load and Save.
func (fbs *fileBookStorage) Close() error {
	return nil
}

// Load reads the json array of books from the file.
func (fbs *fileBookStorage) Load(_ context.Context) ([]BookRecord, error) {
	data, err := os.ReadFile(fbs.config.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrStorageNotFound
	}
	if err != nil {
		return nil, err
	}
	return unmarshalBooks(data)
}

// Save rewrites the whole file with the json array of books. The file
// is truncated in place: an interrupted write leaves it incomplete.
func (fbs *fileBookStorage) Save(_ context.Context, books []BookRecord) error {
	if dir := filepath.Dir(fbs.config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create catalog folder: %w", err)
		}
	}

	data, err := marshalBooks(books)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(fbs.config.Path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err = file.Write(data); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// marshalBooks encodes books as an indented json array. Non-ASCII
// text and html characters are kept as is.
func marshalBooks(books []BookRecord) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "    ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(encodeBooks(books)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unmarshalBooks decodes a json array of books. Any malformed or
// invalid element fails the whole content.
func unmarshalBooks(data []byte) ([]BookRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errNotAnArray
	}
	var mappings []BookMapping
	if err := json.Unmarshal(trimmed, &mappings); err != nil {
		return nil, fmt.Errorf("malformed catalog content: %w", err)
	}
	return decodeBooks(mappings)
}
