package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/empaques/backoffice/internal/domain/catalog"
)

const snapshotKey = "catalog:active_products"

// snapshotEntry is the serialized form of a cached product
type snapshotEntry struct {
	ID        string  `json:"id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	UnitPrice float64 `json:"unit_price"`
	Stock     int     `json:"stock"`
	ImageURL  string  `json:"image_url"`
}

// CatalogSnapshotCache keeps a short-lived Redis copy of the active product
// list so the public storefront does not hit the data service on every
// page view. It is nil-safe: a cache constructed without a Redis client
// always misses, and callers fall through to the data service.
//
// The editor's in-session catalog cache does NOT read from here; edit-mode
// reconciliation always works against a fresh load.
type CatalogSnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

// NewCatalogSnapshotCache creates a snapshot cache. rdb may be nil to
// disable caching.
func NewCatalogSnapshotCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CatalogSnapshotCache {
	return &CatalogSnapshotCache{rdb: rdb, ttl: ttl, log: log.Named("catalog-cache")}
}

// Get returns the cached product list, or ok=false on a miss or any cache
// error. Cache errors are logged and swallowed: the snapshot is an
// optimization, never a source of failure.
func (c *CatalogSnapshotCache) Get(ctx context.Context) ([]catalog.Product, bool) {
	if c.rdb == nil {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("Snapshot read failed", zap.Error(err))
		}
		return nil, false
	}

	var entries []snapshotEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.log.Warn("Snapshot unmarshal failed", zap.Error(err))
		return nil, false
	}

	products := make([]catalog.Product, 0, len(entries))
	for _, e := range entries {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return nil, false
		}
		products = append(products, catalog.Product{
			ID:        id,
			Code:      e.Code,
			Name:      e.Name,
			Category:  e.Category,
			UnitPrice: decimal.NewFromFloat(e.UnitPrice),
			Stock:     e.Stock,
			ImageURL:  e.ImageURL,
			Active:    true,
		})
	}
	return products, true
}

// Set stores the product list with the configured TTL
func (c *CatalogSnapshotCache) Set(ctx context.Context, products []catalog.Product) {
	if c.rdb == nil {
		return
	}

	entries := make([]snapshotEntry, 0, len(products))
	for _, p := range products {
		entries = append(entries, snapshotEntry{
			ID:        p.ID.String(),
			Code:      p.Code,
			Name:      p.Name,
			Category:  p.Category,
			UnitPrice: p.UnitPrice.InexactFloat64(),
			Stock:     p.Stock,
			ImageURL:  p.ImageURL,
		})
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		c.log.Warn("Snapshot marshal failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, snapshotKey, raw, c.ttl).Err(); err != nil {
		c.log.Warn("Snapshot write failed", zap.Error(err))
	}
}

// Invalidate drops the cached snapshot
func (c *CatalogSnapshotCache) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, snapshotKey).Err(); err != nil {
		c.log.Warn("Snapshot invalidation failed", zap.Error(err))
	}
}
