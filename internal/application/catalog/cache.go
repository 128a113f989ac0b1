package catalog

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/empaques/backoffice/internal/domain/catalog"
)

// Cache holds the sellable product set for one editing session. It is
// loaded once per session view and read-only to the rest of the engine.
//
// A failed load leaves the cache not-ready rather than empty-by-design:
// the readiness channel only closes after a successful load, which is the
// guard edit-mode reconciliation waits on.
type Cache struct {
	reader catalog.Reader
	log    *zap.Logger

	mu       sync.RWMutex
	products []catalog.Product
	byID     map[uuid.UUID]catalog.Product

	ready     chan struct{}
	closeOnce sync.Once
}

// NewCache creates an unloaded catalog cache
func NewCache(reader catalog.Reader, log *zap.Logger) *Cache {
	return &Cache{
		reader: reader,
		log:    log.Named("catalog"),
		ready:  make(chan struct{}),
	}
}

// Load fetches all active products ordered by name and marks the cache
// ready. It may be called again after a failure; readiness latches on the
// first success.
func (c *Cache) Load(ctx context.Context) error {
	products, err := c.reader.ListActive(ctx)
	if err != nil {
		c.log.Error("Catalog load failed", zap.Error(err))
		return err
	}

	byID := make(map[uuid.UUID]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	c.mu.Lock()
	c.products = products
	c.byID = byID
	c.mu.Unlock()

	c.closeOnce.Do(func() { close(c.ready) })
	c.log.Debug("Catalog loaded", zap.Int("products", len(products)))
	return nil
}

// Ready returns a channel closed once the catalog has loaded successfully
func (c *Cache) Ready() <-chan struct{} {
	return c.ready
}

// WaitReady blocks until the catalog is ready or the context is done
func (c *Cache) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsReady reports whether a load has completed successfully
func (c *Cache) IsReady() bool {
	select {
	case <-c.ready:
		return true
	default:
		return false
	}
}

// Products returns the loaded product list in catalog order
func (c *Cache) Products() []catalog.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]catalog.Product, len(c.products))
	copy(out, c.products)
	return out
}

// FindByID returns the cached product for the given ID
func (c *Cache) FindByID(id uuid.UUID) (catalog.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[id]
	return p, ok
}

// Len returns the number of cached products
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}
