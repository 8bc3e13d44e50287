package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/metrics"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
)

// Cache TTLs.
const (
	ProductCacheTTL    = 5 * time.Minute
	TrendingCacheTTL   = time.Minute
	CategoriesCacheTTL = 10 * time.Minute
)

// CacheService provides a Redis cache-aside layer for product detail,
// trending and category lookups. Viewer-specific fields are never cached.
type CacheService struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewCacheService creates a new CacheService. If redisURL is empty or the
// connection fails, the client stays nil and every operation is a no-op.
func NewCacheService(ctx context.Context, redisURL string, log zerolog.Logger) *CacheService {
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, caching disabled")
		return &CacheService{log: log}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &CacheService{log: log}
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		_ = rdb.Close()
		return &CacheService{log: log}
	}

	log.Info().Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb, log: log}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

func (c *CacheService) enabled() bool { return c != nil && c.rdb != nil }

// get decodes key into dst. It reports false on a miss, a disabled cache, or
// an undecodable entry; errors are logged, never returned.
func (c *CacheService) get(ctx context.Context, key string, dst any) bool {
	if !c.enabled() {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.Inc()
		return false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache: get failed")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache: corrupt entry")
		return false
	}
	metrics.CacheHits.Inc()
	return true
}

func (c *CacheService) set(ctx context.Context, key string, v any, ttl time.Duration) {
	if !c.enabled() {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache: encode failed")
		return
	}
	if err := c.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache: set failed")
	}
}

// GetProduct returns a cached product, if present.
func (c *CacheService) GetProduct(ctx context.Context, id string) (*model.Product, bool) {
	var p model.Product
	if !c.get(ctx, productKey(id), &p) {
		return nil, false
	}
	return &p, true
}

// SetProduct stores a product.
func (c *CacheService) SetProduct(ctx context.Context, p *model.Product) {
	c.set(ctx, productKey(p.ID), p, ProductCacheTTL)
}

// GetTrending returns a cached trending list for limit, if present.
func (c *CacheService) GetTrending(ctx context.Context, limit int) ([]model.Product, bool) {
	var ps []model.Product
	if !c.get(ctx, trendingKey(limit), &ps) {
		return nil, false
	}
	return ps, true
}

// SetTrending stores a trending list.
func (c *CacheService) SetTrending(ctx context.Context, limit int, ps []model.Product) {
	c.set(ctx, trendingKey(limit), ps, TrendingCacheTTL)
}

// GetCategories returns the cached category list, if present.
func (c *CacheService) GetCategories(ctx context.Context) ([]model.Category, bool) {
	var cs []model.Category
	if !c.get(ctx, categoriesKey, &cs) {
		return nil, false
	}
	return cs, true
}

// SetCategories stores the category list.
func (c *CacheService) SetCategories(ctx context.Context, cs []model.Category) {
	c.set(ctx, categoriesKey, cs, CategoriesCacheTTL)
}

// InvalidateProducts drops the cached detail of each product id. Trending
// lists expire on their own TTL.
func (c *CacheService) InvalidateProducts(ctx context.Context, ids ...string) error {
	if !c.enabled() || len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// InvalidateCategories drops the cached category list.
func (c *CacheService) InvalidateCategories(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.rdb.Del(ctx, categoriesKey).Err()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.rdb.Close()
}

const categoriesKey = "categories"

func productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

func trendingKey(limit int) string {
	return fmt.Sprintf("trending:%d", limit)
}
