package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry. The quotation engine treats products
// as read-only for the duration of an editing session; prices flowing into
// carts are snapshots, never live references.
type Product struct {
	ID        uuid.UUID
	Code      string
	Name      string
	Category  string
	UnitPrice decimal.Decimal
	Stock     int
	ImageURL  string
	Active    bool
}

// Reader is the read-side port over the remote product table.
type Reader interface {
	// ListActive returns all products flagged active, ordered by name.
	ListActive(ctx context.Context) ([]Product, error)
	// FindByID returns a single product regardless of its active flag.
	// Used to resolve quotation lines whose product has since been
	// deactivated.
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
}
