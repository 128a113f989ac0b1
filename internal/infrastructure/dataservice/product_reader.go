package dataservice

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/empaques/backoffice/internal/domain/catalog"
	"github.com/empaques/backoffice/internal/domain/shared"
)

// productRecord is the wire shape of a row in the product table
type productRecord struct {
	ID             string  `json:"id"`
	Codigo         string  `json:"codigo"`
	Nombre         string  `json:"nombre"`
	Categoria      string  `json:"categoria"`
	PrecioUnitario float64 `json:"precio_unitario"`
	Stock          int     `json:"stock"`
	ImagenURL      string  `json:"imagen_url"`
	Activo         bool    `json:"activo"`
}

// ProductReader reads the remote product table. It implements
// catalog.Reader.
type ProductReader struct {
	client *Client
}

// NewProductReader creates a ProductReader backed by the data service
func NewProductReader(client *Client) *ProductReader {
	return &ProductReader{client: client}
}

// ListActive fetches all products flagged active, ordered by name. Any
// transport or decode failure surfaces as CatalogUnavailable so dependent
// components treat the catalog as not yet ready rather than empty.
func (r *ProductReader) ListActive(ctx context.Context) ([]catalog.Product, error) {
	query := url.Values{}
	query.Set("activo", "eq.true")
	query.Set("order", "nombre.asc")

	raw, err := r.client.do(ctx, http.MethodGet, "/productos", query, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCatalogUnavailable, err)
	}

	var records []productRecord
	if err := decodeRows(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCatalogUnavailable, err)
	}

	products := make([]catalog.Product, 0, len(records))
	for _, rec := range records {
		p, err := rec.toProduct()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrCatalogUnavailable, err)
		}
		products = append(products, p)
	}
	return products, nil
}

// FindByID fetches a single product regardless of its active flag
func (r *ProductReader) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	query := url.Values{}
	query.Set("id", "eq."+id.String())

	raw, err := r.client.do(ctx, http.MethodGet, "/productos", query, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCatalogUnavailable, err)
	}

	var records []productRecord
	if err := decodeRows(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCatalogUnavailable, err)
	}
	if len(records) == 0 {
		return nil, shared.ErrNotFound
	}

	p, err := records[0].toProduct()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCatalogUnavailable, err)
	}
	return &p, nil
}

func (rec productRecord) toProduct() (catalog.Product, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("invalid product id %q: %v", rec.ID, err)
	}
	return catalog.Product{
		ID:        id,
		Code:      rec.Codigo,
		Name:      rec.Nombre,
		Category:  rec.Categoria,
		UnitPrice: decimal.NewFromFloat(rec.PrecioUnitario),
		Stock:     rec.Stock,
		ImageURL:  rec.ImagenURL,
		Active:    rec.Activo,
	}, nil
}
