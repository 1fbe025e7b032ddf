package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")
)

// CacheConfig pairs a key prefix with a TTL for one class of cached data.
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

// Invite and report listings change whenever a teacher issues invites or a
// student submits, so they get short TTLs.
var (
	InviteCacheConfig = CacheConfig{TTL: 2 * time.Minute, Prefix: "invite:"}
	ReportCacheConfig = CacheConfig{TTL: 1 * time.Minute, Prefix: "report:"}
	TestCacheConfig   = CacheConfig{TTL: 5 * time.Minute, Prefix: "test:"}
	ExistsCacheConfig = CacheConfig{TTL: 2 * time.Minute, Prefix: "exists:"}
)

// CacheHelper provides cache-aside operations for one key prefix. A nil
// client degrades to pass-through so the service runs without Redis.
type CacheHelper struct {
	client *redis.Client
	prefix string
}

func NewCacheHelper(client *redis.Client, prefix string) *CacheHelper {
	return &CacheHelper{client: client, prefix: prefix}
}

func (c *CacheHelper) key(k string) string {
	return c.prefix + k
}

// Get retrieves and unmarshals data from cache.
func (c *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	data, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}
	return nil
}

// Set marshals and stores data in cache.
func (c *CacheHelper) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

// Delete removes keys from cache.
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}

	cacheKeys := make([]string, len(keys))
	for i, k := range keys {
		cacheKeys[i] = c.key(k)
	}
	return c.client.Del(ctx, cacheKeys...).Err()
}

// InvalidatePattern removes all keys matching a pattern. Uses SCAN rather
// than KEYS so a large keyspace does not block Redis.
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if c.client == nil {
		return nil
	}

	fullPattern := c.key(pattern)
	var cursor uint64
	var keys []string

	for {
		scanKeys, next, err := c.client.Scan(ctx, cursor, fullPattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan error: %w", err)
		}
		keys = append(keys, scanKeys...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// CacheOrExecute implements the cache-aside pattern: return the cached value
// if present, otherwise run fetchFunc and cache its result.
func (c *CacheHelper) CacheOrExecute(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetchFunc func() (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if err != ErrCacheNotFound && err != ErrCacheNotAvailable {
		slog.Info("cache get error, proceeding to fetch", "error", err, "key", key)
	}

	value, err := fetchFunc()
	if err != nil {
		return err
	}

	if err := c.Set(ctx, key, value, ttl); err != nil {
		slog.Error("cache set error", "error", err, "key", key)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal result error: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// CacheManager bundles the cache helpers used across repositories.
type CacheManager struct {
	Invite *CacheHelper
	Report *CacheHelper
	Test   *CacheHelper
	Exists *CacheHelper
}

func NewCacheManager(client *redis.Client) *CacheManager {
	if client == nil {
		return &CacheManager{
			Invite: NewCacheHelper(nil, ""),
			Report: NewCacheHelper(nil, ""),
			Test:   NewCacheHelper(nil, ""),
			Exists: NewCacheHelper(nil, ""),
		}
	}
	return &CacheManager{
		Invite: NewCacheHelper(client, InviteCacheConfig.Prefix),
		Report: NewCacheHelper(client, ReportCacheConfig.Prefix),
		Test:   NewCacheHelper(client, TestCacheConfig.Prefix),
		Exists: NewCacheHelper(client, ExistsCacheConfig.Prefix),
	}
}

// HealthCheck verifies cache connectivity.
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.Invite.client == nil {
		return ErrCacheNotAvailable
	}
	if _, err := cm.Invite.client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}
	return nil
}

// InvalidateInvites drops cached invite listings for a student email.
func (cm *CacheManager) InvalidateInvites(ctx context.Context, email string) error {
	return cm.Invite.InvalidatePattern(ctx, fmt.Sprintf("email:%s*", email))
}

// InvalidateTestReports drops cached attendance and ranking views for a test.
func (cm *CacheManager) InvalidateTestReports(ctx context.Context, testID uint) error {
	return cm.Report.InvalidatePattern(ctx, fmt.Sprintf("test:%d:*", testID))
}
