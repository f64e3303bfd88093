// Package boxcache caches the two pieces of portal state that are
// expensive to re-derive but rarely change: per-box metadata (short
// name and SSE base URL, scraped once from the box home page) and the
// day-schedule JSON returned by LoadClass.ashx for a given box/epoch.
//
// Redis is the shared tier so a pool of worker processes does not each
// re-scrape the same box home page; an in-process go-cache instance
// sits in front of it so the common case (same process asking twice
// inside a TTL window) never leaves memory.
package boxcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const (
	metadataTTL = 24 * time.Hour
	scheduleTTL = 2 * time.Minute

	localCleanupInterval = 10 * time.Minute
)

// Metadata is what a box home page yields once it has been scraped:
// the short name used in the JoinRoom SSE frame, and the base URL of
// its SignalR hub.
type Metadata struct {
	ShortName string `json:"short_name"`
	SSEBase   string `json:"sse_base"`
}

// Cache is a two-tier cache over box Metadata and day-schedule JSON
// blobs. A nil Redis client degrades it to local-only, which is the
// default when Redis is disabled in configuration.
type Cache struct {
	redis *redis.Client
	local *gocache.Cache
}

// New creates a Cache. redisClient may be nil, in which case only the
// in-process tier is used.
func New(redisClient *redis.Client) *Cache {
	return &Cache{
		redis: redisClient,
		local: gocache.New(metadataTTL, localCleanupInterval),
	}
}

func metadataKey(boxURL string) string   { return "boxcache:meta:" + boxURL }
func scheduleKey(boxURL string, epoch int64) string {
	return fmt.Sprintf("boxcache:schedule:%s:%d", boxURL, epoch)
}

// GetMetadata returns cached box metadata, or (zero, false) on a miss
// in both tiers.
func (c *Cache) GetMetadata(ctx context.Context, boxURL string) (Metadata, bool) {
	key := metadataKey(boxURL)

	if v, found := c.local.Get(key); found {
		return v.(Metadata), true
	}

	if c.redis == nil {
		return Metadata{}, false
	}
	raw, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return Metadata{}, false
	}
	var m Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Metadata{}, false
	}
	c.local.Set(key, m, metadataTTL)
	return m, true
}

// SetMetadata stores box metadata in both tiers.
func (c *Cache) SetMetadata(ctx context.Context, boxURL string, m Metadata) {
	key := metadataKey(boxURL)
	c.local.Set(key, m, metadataTTL)

	if c.redis == nil {
		return
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return
	}
	c.redis.Set(ctx, key, raw, metadataTTL)
}

// GetSchedule returns the cached raw schedule JSON for a box/epoch
// pair, or (nil, false) on a miss. The TTL is short: a published
// window or a seat taken by another athlete must become visible
// quickly.
func (c *Cache) GetSchedule(ctx context.Context, boxURL string, epoch int64) ([]byte, bool) {
	key := scheduleKey(boxURL, epoch)

	if v, found := c.local.Get(key); found {
		return v.([]byte), true
	}

	if c.redis == nil {
		return nil, false
	}
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	c.local.Set(key, raw, scheduleTTL)
	return raw, true
}

// SetSchedule stores a raw schedule JSON payload in both tiers.
func (c *Cache) SetSchedule(ctx context.Context, boxURL string, epoch int64, raw []byte) {
	key := scheduleKey(boxURL, epoch)
	c.local.Set(key, raw, scheduleTTL)

	if c.redis == nil {
		return
	}
	c.redis.Set(ctx, key, raw, scheduleTTL)
}

// InvalidateSchedule drops a cached schedule, used after a booking
// attempt changes seat counts so the next read is fresh.
func (c *Cache) InvalidateSchedule(ctx context.Context, boxURL string, epoch int64) {
	key := scheduleKey(boxURL, epoch)
	c.local.Delete(key)
	if c.redis != nil {
		c.redis.Del(ctx, key)
	}
}
