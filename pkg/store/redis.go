package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/riglink/pkg/errors"
)

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`

	// Prefix namespaces the keys. Defaults to "riglink".
	Prefix string `toml:"prefix"`
}

// RedisStore keeps each record under its own key and the scene names in a
// set, so List does not need SCAN.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "riglink"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ping := func() error { return transient(client.Ping(ctx).Err()) }
	if err := retry(ctx, connectAttempts, connectDelay, ping); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return &RedisStore{client: client, prefix: cfg.Prefix}, nil
}

func (s *RedisStore) key(name string) string { return s.prefix + ":scene:" + name }

func (s *RedisStore) indexKey() string { return s.prefix + ":scenes" }

func (s *RedisStore) Get(ctx context.Context, name string) (*Record, error) {
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err == redis.Nil {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode scene %s", name)
	}
	return &rec, nil
}

func (s *RedisStore) Put(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key(rec.Name), data, 0)
		p.SAdd(ctx, s.indexKey(), rec.Name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, s.key(name))
		p.SRem(ctx, s.indexKey(), name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	if del.Val() == 0 {
		return notFound(name)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
