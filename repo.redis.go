package main

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultRedisKey string = "bookshelf:books"

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
	key    string
}

// NewRedisBookStorage provides an instance of redis-based book storage.
// Books are kept in a list so that their order survives.
func NewRedisBookStorage(logger *zap.Logger, config *RedisConfig, client *redis.Client) BookStorage {
	key := config.Key
	if key == "" {
		key = defaultRedisKey
	}
	return &redisBookStorage{
		logger: logger,
		client: client,
		key:    key,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Host, config.Port),
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		PoolSize:     config.PoolSize,
		PoolTimeout:  config.PoolTimeout,
		Password:     config.Password,
		Username:     config.Username,
		DB:           config.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

func (rs *redisBookStorage) Name() string {
	return "redis:" + rs.key
}

// Close closes the redis client.
func (rs *redisBookStorage) Close() error {
	return rs.client.Close()
}

// Load retrieves the whole list of books.
func (rs *redisBookStorage) Load(ctx context.Context) ([]BookRecord, error) {
	n, err := rs.client.Exists(ctx, rs.key).Result()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrStorageNotFound
	}

	values, err := rs.client.LRange(ctx, rs.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	mappings := make([]BookMapping, 0, len(values))
	for i, bookJSONString := range values {
		var m BookMapping
		if err = json.Unmarshal([]byte(bookJSONString), &m); err != nil {
			return nil, fmt.Errorf("malformed book at position %d: %w", i, err)
		}
		mappings = append(mappings, m)
	}
	return decodeBooks(mappings)
}

// Save replaces the list content atomically on the redis side.
func (rs *redisBookStorage) Save(ctx context.Context, books []BookRecord) error {
	values := make([]interface{}, 0, len(books))
	for _, m := range encodeBooks(books) {
		bookBytes, err := json.Marshal(m)
		if err != nil {
			return err
		}
		values = append(values, bookBytes)
	}
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, rs.key)
		if len(values) > 0 {
			pipe.RPush(ctx, rs.key, values...)
		}
		return nil
	})
	return err
}
