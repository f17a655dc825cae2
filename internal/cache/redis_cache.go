package cache

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"go-creative-analyzer/internal/logger"
	"go-creative-analyzer/pkg/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const keyPrefix = "creative:analysis:"

// Options configures the Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
	// Namespace separates entries written by differently configured pipelines
	Namespace string
}

// RedisCache stores completed analyses keyed by image digest
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a cache and pings the server once. A failed ping is
// logged; the cache still works once the server becomes reachable.
func NewRedisCache(opts Options) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).WithField("addr", opts.Addr).Warn("Redis is not reachable, analysis cache is cold")
	} else {
		logger.WithField("addr", opts.Addr).Info("Connected to Redis analysis cache")
	}

	return &RedisCache{client: client, prefix: prefixFor(opts.Namespace)}
}

func prefixFor(namespace string) string {
	if namespace == "" {
		return keyPrefix
	}
	return keyPrefix + namespace + ":"
}

// Get returns the cached analysis for key. Any failure reads as a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (*models.Analysis, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.WithRequestID(ctx).WithError(err).Warn("Analysis cache lookup failed")
		}
		return nil, false
	}

	a, err := Decode(data)
	if err != nil {
		logger.WithRequestID(ctx).WithError(err).WithField("image_digest", key).Warn("Discarding unreadable cache entry")
		return nil, false
	}
	return a, true
}

// Set stores a under key for ttl
func (c *RedisCache) Set(ctx context.Context, key string, a *models.Analysis, ttl time.Duration) error {
	data, err := Encode(a)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, data, ttl).Err()
}

// Ping checks the connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Encode serialises an analysis for storage
func Encode(a *models.Analysis) ([]byte, error) {
	return json.Marshal(a)
}

// Decode reads an analysis written by Encode
func Decode(data []byte) (*models.Analysis, error) {
	var a models.Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
