// Package cache provides a Redis-backed lookaside cache for non-streaming
// summarization results.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/raaihank/hybrid-summarizer/internal/config"
	"github.com/raaihank/hybrid-summarizer/internal/pipeline"
	"go.uber.org/zap"
)

// SummaryCache handles Redis-based caching for completed summarization runs
type SummaryCache struct {
	client *redis.Client
	config *config.CacheConfig
	logger *zap.Logger
	stats  *cacheStats
}

// cacheStats tracks cache performance counters
type cacheStats struct {
	hits   int64
	misses int64
}

// New creates a new Redis-based summary cache
func New(cfg *config.CacheConfig, logger *zap.Logger) (*SummaryCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = cfg.MaxConnections
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	cache := &SummaryCache{
		client: client,
		config: cfg,
		logger: logger,
		stats:  &cacheStats{},
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Summary cache initialized",
		zap.String("redis_url", maskRedisURL(cfg.RedisURL)),
		zap.Int("max_connections", cfg.MaxConnections),
		zap.Duration("default_ttl", cfg.DefaultTTL))

	return cache, nil
}

// Lookup returns a cached result for the given mode and input, if present
func (c *SummaryCache) Lookup(ctx context.Context, mode, input string) (*pipeline.SummarizationResult, bool) {
	key := c.key(mode, input)

	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		c.stats.misses++
		c.logger.Debug("Cache miss", zap.String("key", key))
		return nil, false
	} else if err != nil {
		c.logger.Error("Cache lookup failed", zap.Error(err))
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.logger.Error("Failed to unmarshal cached entry", zap.Error(err))
		// Delete corrupted cache entry
		c.client.Del(ctx, key)
		return nil, false
	}

	c.stats.hits++
	c.logger.Debug("Cache hit", zap.String("key", key), zap.String("mode", entry.Mode))
	return &entry.Result, true
}

// Store caches a completed result. Only successful runs are worth caching.
func (c *SummaryCache) Store(ctx context.Context, mode, input string, result pipeline.SummarizationResult) error {
	if !result.Success {
		return nil
	}

	entry := Entry{
		Result:   result,
		Mode:     mode,
		CachedAt: time.Now(),
		TTL:      int64(c.config.DefaultTTL.Seconds()),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry for caching: %w", err)
	}

	key := c.key(mode, input)
	if err := c.client.Set(ctx, key, data, c.config.DefaultTTL).Err(); err != nil {
		c.logger.Error("Failed to cache result", zap.Error(err))
		return fmt.Errorf("failed to cache result: %w", err)
	}

	c.logger.Debug("Result cached", zap.String("key", key), zap.String("mode", mode))
	return nil
}

// GetStats returns cache performance statistics
func (c *SummaryCache) GetStats(ctx context.Context) (*Stats, error) {
	info, err := c.client.Info(ctx, "memory").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get Redis info: %w", err)
	}

	stats := &Stats{
		Hits:   c.stats.hits,
		Misses: c.stats.misses,
	}

	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}

	for _, line := range strings.Split(info, "\r\n") {
		if strings.HasPrefix(line, "used_memory:") {
			if mem, err := strconv.ParseInt(strings.TrimPrefix(line, "used_memory:"), 10, 64); err == nil {
				stats.MemoryUsage = mem
			}
		}
	}

	if keys, err := c.client.DBSize(ctx).Result(); err == nil {
		stats.TotalKeys = keys
	}

	return stats, nil
}

// Clear removes all cached summaries under this cache's prefix
func (c *SummaryCache) Clear(ctx context.Context) error {
	pattern := c.config.KeyPrefix + ":sum:*"

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	// Delete keys in batches
	batchSize := 100
	for i := 0; i < len(keys); i += batchSize {
		end := i + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := c.client.Del(ctx, keys[i:end]...).Err(); err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
	}

	c.logger.Info("Cache cleared", zap.Int("deleted_keys", len(keys)))
	return nil
}

// Close closes the Redis connection
func (c *SummaryCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// key derives a stable cache key from the mode and the full input text
func (c *SummaryCache) key(mode, input string) string {
	hasher := sha256.New()
	hasher.Write([]byte(mode))
	hasher.Write([]byte{0})
	hasher.Write([]byte(input))
	hash := hex.EncodeToString(hasher.Sum(nil))
	return fmt.Sprintf("%s:sum:%s", c.config.KeyPrefix, hash[:16])
}

// maskRedisURL masks credentials in a Redis URL for logging
func maskRedisURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			userPart := parts[0]
			if strings.Contains(userPart, ":") {
				userParts := strings.Split(userPart, ":")
				if len(userParts) >= 3 {
					userParts[len(userParts)-1] = "***"
					parts[0] = strings.Join(userParts, ":")
				}
			}
			return strings.Join(parts, "@")
		}
	}
	return url
}
