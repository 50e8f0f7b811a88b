package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the durable key-value cache behind browser sessions. It knows
// nothing about tokens or users; values are opaque strings.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes every key in one operation. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

type StoreType string

const (
	StoreTypeFile     StoreType = "file"
	StoreTypeMemory   StoreType = "memory"
	StoreTypeRedis    StoreType = "redis"
	StoreTypePostgres StoreType = "postgres"
)

var (
	ErrInvalidStoreType = errors.New("invalid session store type")
	ErrInvalidConfig    = errors.New("invalid session store config")
)

// StoreOption configures NewStore.
type StoreOption func(*storeConfig)

type storeConfig struct {
	filePath    string
	redisClient *redis.Client
	redisTTL    time.Duration
	databaseURL string
}

// WithFilePath sets the JSON document used by the file store.
func WithFilePath(path string) StoreOption {
	return func(c *storeConfig) {
		c.filePath = path
	}
}

// WithRedisClient sets the client used by the redis store.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisTTL sets the expiry applied to every redis key on write.
func WithRedisTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.redisTTL = ttl
	}
}

// WithDatabaseURL sets the connection string used by the postgres store.
func WithDatabaseURL(url string) StoreOption {
	return func(c *storeConfig) {
		c.databaseURL = url
	}
}

// NewStore creates the store selected by storeType.
func NewStore(ctx context.Context, storeType StoreType, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch StoreType(strings.ToLower(strings.TrimSpace(string(storeType)))) {
	case StoreTypeMemory:
		return NewMemoryStore(), nil
	case StoreTypeFile:
		if strings.TrimSpace(cfg.filePath) == "" {
			return nil, fmt.Errorf("%w: file path is required", ErrInvalidConfig)
		}
		return OpenFileStore(cfg.filePath)
	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, fmt.Errorf("%w: redis client is required", ErrInvalidConfig)
		}
		return NewRedisStore(cfg.redisClient, cfg.redisTTL), nil
	case StoreTypePostgres:
		if strings.TrimSpace(cfg.databaseURL) == "" {
			return nil, fmt.Errorf("%w: database url is required", ErrInvalidConfig)
		}
		return NewPostgresStore(ctx, cfg.databaseURL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStoreType, storeType)
	}
}
