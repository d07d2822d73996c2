package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/boltdb/bolt"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// damagedBoltSuffix is appended to a database file that bolt refuses to
// open, once it is moved aside to make room for a fresh one.
const damagedBoltSuffix = ".damaged"

type boltBookStorage struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
	// openErr is set when the file exists but is not a usable database.
	openErr error
}

// GetBoltDBClient opens the database file and provides a ready to use client.
// The bucket is created on first Save so that an untouched database reads
// as not found.
func GetBoltDBClient(config *BoltDBConfig) (*bolt.DB, error) {
	db, err := bolt.Open(config.FilePath, 0o600, &bolt.Options{Timeout: config.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %w", err)
	}
	return db, nil
}

// NewBoltBookStorage provides an instance of bolt-based book storage.
func NewBoltBookStorage(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB) BookStorage {
	return &boltBookStorage{
		logger: logger,
		client: client,
		config: boltConfig,
	}
}

// NewDamagedBoltBookStorage provides a bolt storage over a file which could
// not be opened. Loading reports openErr and the first Save moves the file
// aside before writing a fresh database.
func NewDamagedBoltBookStorage(logger *zap.Logger, boltConfig *BoltDBConfig, openErr error) BookStorage {
	return &boltBookStorage{
		logger:  logger,
		config:  boltConfig,
		openErr: openErr,
	}
}

// IsDamagedBoltFile reports whether err means the file is not a bolt
// database, as opposed to a lock timeout or a permission problem.
func IsDamagedBoltFile(err error) bool {
	return errors.Is(err, bolt.ErrInvalid) || errors.Is(err, bolt.ErrVersionMismatch) || errors.Is(err, bolt.ErrChecksum)
}

func (bs *boltBookStorage) Name() string {
	return "bolt:" + bs.config.FilePath + "#" + bs.config.BucketName
}

// Close shuts down the bolt-based book storage.
func (bs *boltBookStorage) Close() error {
	if bs.client == nil {
		return nil
	}
	return bs.client.Close()
}

// reopen moves the damaged file aside and opens a fresh database.
func (bs *boltBookStorage) reopen() error {
	aside := bs.config.FilePath + damagedBoltSuffix
	if err := os.Rename(bs.config.FilePath, aside); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to move damaged database aside: %w", err)
	}
	client, err := GetBoltDBClient(bs.config)
	if err != nil {
		return err
	}
	bs.logger.Info("storage: damaged boltDB file moved aside", zap.String("file", aside))
	bs.client = client
	bs.openErr = nil
	return nil
}

// Load retrieves all books in their stored order. Keys are big-endian
// positions so the cursor walks them in catalog order.
func (bs *boltBookStorage) Load(_ context.Context) ([]BookRecord, error) {
	if bs.openErr != nil {
		return nil, bs.openErr
	}
	tx, err := bs.client.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	bucket := tx.Bucket([]byte(bs.config.BucketName))
	if bucket == nil {
		return nil, ErrStorageNotFound
	}

	mappings := []BookMapping{}
	c := bucket.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var m BookMapping
		if err = json.Unmarshal(v, &m); err != nil {
			return nil, fmt.Errorf("malformed book at position %d: %w", binary.BigEndian.Uint64(k), err)
		}
		mappings = append(mappings, m)
	}
	return decodeBooks(mappings)
}

// Save replaces the bucket content with books inside a single transaction.
func (bs *boltBookStorage) Save(_ context.Context, books []BookRecord) error {
	if bs.openErr != nil {
		if err := bs.reopen(); err != nil {
			return err
		}
	}
	name := []byte(bs.config.BucketName)
	return bs.client.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(name) != nil {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("failed to reset %s bucket: %v", bs.config.BucketName, err)
			}
		}
		bucket, err := tx.CreateBucket(name)
		if err != nil {
			return fmt.Errorf("failed to create %s bucket: %v", bs.config.BucketName, err)
		}
		for i, m := range encodeBooks(books) {
			bookBytes, err := json.Marshal(m)
			if err != nil {
				return err
			}
			if err = bucket.Put(positionKey(i), bookBytes); err != nil {
				return err
			}
		}
		return nil
	})
}

func positionKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}
