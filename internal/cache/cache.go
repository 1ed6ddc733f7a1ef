package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache wraps Redis helpers for JSON payloads. A nil cache or nil client is a
// no-op, so callers never need to branch.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New constructs a cache helper.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the
// key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// KeyProductList is the cache key for the unfiltered front page of products.
const KeyProductList = "catalog:products:list:front"

// KeyRegions is the cache key for the region list.
const KeyRegions = "catalog:regions"

// KeyProductDetail returns the region-scoped key for a product detail page.
func KeyProductDetail(handle string, regionID uuid.UUID) string {
	return "catalog:products:detail:" + handle + ":" + regionID.String()
}

// KeyBundleList returns the region-scoped key for the bundle listing.
func KeyBundleList(regionID uuid.UUID) string {
	return "bundles:list:" + regionID.String()
}

// LockBundleList returns the refresh lock key paired with KeyBundleList.
func LockBundleList(regionID uuid.UUID) string {
	return "lock:" + KeyBundleList(regionID)
}
