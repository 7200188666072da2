package store

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/reoring/goserde"
)

const (
	fieldData   = "data"
	fieldFormat = "format"

	defaultKeyPrefix = "goserde::"
)

// RedisOption configures a RedisBackend.
type RedisOption func(*redisConfig)

type redisConfig struct {
	prefix string
	ttl    time.Duration
}

// WithKeyPrefix overrides the prefix prepended to every key.
func WithKeyPrefix(prefix string) RedisOption {
	return func(c *redisConfig) { c.prefix = prefix }
}

// WithTTL expires artifacts ttl after they were last written.
func WithTTL(ttl time.Duration) RedisOption {
	return func(c *redisConfig) { c.ttl = ttl }
}

// RedisBackend stores each artifact as a hash holding its data and format.
type RedisBackend struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Backend = (*RedisBackend)(nil)

// NewRedisBackend wraps an existing client.
func NewRedisBackend(client redis.UniversalClient, opts ...RedisOption) (*RedisBackend, error) {
	if client == nil {
		return nil, errors.New("store: redis client is nil")
	}
	cfg := redisConfig{prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &RedisBackend{client: client, prefix: cfg.prefix, ttl: cfg.ttl}, nil
}

// NewRedisBackendWithOptions creates the client from go-redis options.
func NewRedisBackendWithOptions(options *redis.Options, opts ...RedisOption) (*RedisBackend, error) {
	if options == nil {
		return nil, errors.New("store: redis options are required")
	}
	return NewRedisBackend(redis.NewClient(options), opts...)
}

func (b *RedisBackend) key(k string) string { return b.prefix + k }

func (b *RedisBackend) Put(ctx context.Context, key string, a Artifact) error {
	k := b.key(key)
	pipe := b.client.TxPipeline()
	pipe.HSet(ctx, k, map[string]any{
		fieldData:   a.Data,
		fieldFormat: a.Format.String(),
	})
	if b.ttl > 0 {
		pipe.Expire(ctx, k, b.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (b *RedisBackend) Get(ctx context.Context, key string) (Artifact, error) {
	fields, err := b.client.HGetAll(ctx, b.key(key)).Result()
	if err != nil {
		return Artifact{}, err
	}
	data, ok := fields[fieldData]
	if !ok {
		return Artifact{}, ErrNotFound
	}
	format, err := goserde.ParseFormat(fields[fieldFormat])
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Format: format, Data: []byte(data)}, nil
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	return b.client.Del(ctx, b.key(key)).Err()
}

// Close closes the underlying client.
func (b *RedisBackend) Close() error { return b.client.Close() }
