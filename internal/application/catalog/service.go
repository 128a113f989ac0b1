package catalog

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/empaques/backoffice/internal/domain/catalog"
	"github.com/empaques/backoffice/internal/infrastructure/cache"
)

// Service serves catalog reads for the public storefront. Reads go through
// the Redis snapshot when one is available; the editor's session cache
// always loads fresh and does not use the snapshot.
type Service struct {
	reader    catalog.Reader
	snapshots *cache.CatalogSnapshotCache
	log       *zap.Logger
}

// NewService creates a catalog service
func NewService(reader catalog.Reader, snapshots *cache.CatalogSnapshotCache, log *zap.Logger) *Service {
	return &Service{
		reader:    reader,
		snapshots: snapshots,
		log:       log.Named("catalog-service"),
	}
}

// ListActive returns all active products, read-through cached
func (s *Service) ListActive(ctx context.Context) ([]catalog.Product, error) {
	if products, ok := s.snapshots.Get(ctx); ok {
		return products, nil
	}

	products, err := s.reader.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	s.snapshots.Set(ctx, products)
	return products, nil
}

// GetProduct returns a single product by ID, bypassing the snapshot so
// deactivated products remain reachable for historical quotations
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return s.reader.FindByID(ctx, id)
}
