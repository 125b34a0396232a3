package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/upb/room-qa/services/providers"
	"go.uber.org/zap"
)

const defaultCachePrefix = "room-qa:embedding:"

// CacheRecorder receives embedding cache hit and miss events
type CacheRecorder interface {
	RecordEmbeddingCache(hit bool)
}

// CachedEmbedder keeps provider embeddings in Redis.
// Cache failures are logged and fall through to the provider.
type CachedEmbedder struct {
	inner    providers.EmbeddingProvider
	client   redis.UniversalClient
	ttl      time.Duration
	prefix   string
	logger   *zap.Logger
	recorder CacheRecorder

	// dimension and taskType change the vector a provider returns for the same text
	dimension int
	taskType  string
}

// CachedEmbedderOption configures a CachedEmbedder
type CachedEmbedderOption func(*CachedEmbedder)

// WithCacheTTL sets the expiry of cached vectors. Zero keeps them forever.
func WithCacheTTL(ttl time.Duration) CachedEmbedderOption {
	return func(c *CachedEmbedder) { c.ttl = ttl }
}

// WithCachePrefix sets the key prefix
func WithCachePrefix(prefix string) CachedEmbedderOption {
	return func(c *CachedEmbedder) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithCacheDimension scopes keys to an output dimension.
// Cached vectors of any other length are treated as misses.
func WithCacheDimension(dim int) CachedEmbedderOption {
	return func(c *CachedEmbedder) { c.dimension = dim }
}

// WithCacheTaskType scopes keys to an embedding task type
func WithCacheTaskType(taskType string) CachedEmbedderOption {
	return func(c *CachedEmbedder) { c.taskType = taskType }
}

// WithCacheRecorder reports hits and misses
func WithCacheRecorder(r CacheRecorder) CachedEmbedderOption {
	return func(c *CachedEmbedder) { c.recorder = r }
}

// NewCachedEmbedder decorates inner with a Redis cache
func NewCachedEmbedder(inner providers.EmbeddingProvider, client redis.UniversalClient, logger *zap.Logger, opts ...CachedEmbedderOption) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &CachedEmbedder{
		inner:  inner,
		client: client,
		prefix: defaultCachePrefix,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the wrapped provider name
func (c *CachedEmbedder) Name() string {
	return c.inner.Name()
}

// Model returns the wrapped provider model
func (c *CachedEmbedder) Model() string {
	return c.inner.Model()
}

// Embed returns the cached vector for text or asks the wrapped provider
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)

	if vector, ok := c.lookup(ctx, key); ok {
		c.record(true)
		return vector, nil
	}
	c.record(false)

	vector, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vector) > 0 {
		c.store(ctx, key, vector)
	}
	return vector, nil
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("embedding cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var vector []float32
	if err := json.Unmarshal(data, &vector); err != nil || len(vector) == 0 {
		c.logger.Warn("discarding corrupt embedding cache entry", zap.String("key", key))
		return nil, false
	}
	if c.dimension > 0 && len(vector) != c.dimension {
		c.logger.Warn("discarding embedding cache entry with stale dimension",
			zap.String("key", key),
			zap.Int("expected", c.dimension),
			zap.Int("got", len(vector)))
		return nil, false
	}
	return vector, true
}

func (c *CachedEmbedder) store(ctx context.Context, key string, vector []float32) {
	data, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + c.inner.Model() + ":" + strconv.Itoa(c.dimension) + ":" + c.taskType + ":" + hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) record(hit bool) {
	if c.recorder != nil {
		c.recorder.RecordEmbeddingCache(hit)
	}
}
