package main

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	LoadFunc  func(ctx context.Context) ([]BookRecord, error)
	SaveFunc  func(ctx context.Context, books []BookRecord) error
	CloseFunc func() error
}

// Load mocks the behavior of reading all books by the repository.
func (m *MockBookStorage) Load(ctx context.Context) ([]BookRecord, error) {
	return m.LoadFunc(ctx)
}

// Save mocks the behavior of writing all books by the repository.
func (m *MockBookStorage) Save(ctx context.Context, books []BookRecord) error {
	return m.SaveFunc(ctx, books)
}

// Close mocks the release of the repository.
func (m *MockBookStorage) Close() error {
	if m.CloseFunc == nil {
		return nil
	}
	return m.CloseFunc()
}

func (m *MockBookStorage) Name() string {
	return "mock"
}

// NewMemoryBookStorage returns a mock keeping saved books in memory. It
// starts as not found and counts the number of saves.
func NewMemoryBookStorage() (*MockBookStorage, *[]BookRecord, *int) {
	var stored []BookRecord
	saves := 0
	found := false
	m := &MockBookStorage{
		LoadFunc: func(context.Context) ([]BookRecord, error) {
			if !found {
				return nil, ErrStorageNotFound
			}
			return append([]BookRecord{}, stored...), nil
		},
		SaveFunc: func(_ context.Context, books []BookRecord) error {
			stored = append([]BookRecord{}, books...)
			found = true
			saves++
			return nil
		},
	}
	return m, &stored, &saves
}

// newObservedLogger returns a logger recording entries from warn level.
func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	return zap.New(core), logs
}

// mustBook builds a valid book or panics.
func mustBook(title, author string, year int, genre string) BookRecord {
	b, err := NewBookRecord(title, author, year, genre)
	if err != nil {
		panic(err)
	}
	return b
}
