package dataservice

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/empaques/backoffice/internal/domain/partner"
	"github.com/empaques/backoffice/internal/domain/shared"
)

// clientRecord is the wire shape of a row in the customer directory table
type clientRecord struct {
	TipoDocumento   string `json:"tipo_documento"`
	NumeroDocumento string `json:"numero_documento"`
	Nombre          string `json:"nombre"`
	Email           string `json:"email"`
	Telefono        string `json:"telefono"`
	Direccion       string `json:"direccion"`
	Empresa         string `json:"empresa"`
	Activo          bool   `json:"activo"`
}

// ClientDirectory reads the remote customer directory. It implements
// partner.Directory.
type ClientDirectory struct {
	client *Client
}

// NewClientDirectory creates a ClientDirectory backed by the data service
func NewClientDirectory(client *Client) *ClientDirectory {
	return &ClientDirectory{client: client}
}

// FindByTaxID looks up the active client whose tax identifier value matches
// exactly. The identifier type is not part of the lookup key.
func (d *ClientDirectory) FindByTaxID(ctx context.Context, taxID string) (*partner.Client, error) {
	query := url.Values{}
	query.Set("numero_documento", "eq."+taxID)
	query.Set("activo", "eq.true")

	raw, err := d.client.do(ctx, http.MethodGet, "/clientes", query, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrLookupFailed, err)
	}

	var records []clientRecord
	if err := decodeRows(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrLookupFailed, err)
	}
	if len(records) == 0 {
		return nil, shared.ErrNotFound
	}

	rec := records[0]
	return &partner.Client{
		TaxIDType: partner.TaxIDType(rec.TipoDocumento),
		TaxID:     rec.NumeroDocumento,
		Name:      rec.Nombre,
		Email:     rec.Email,
		Phone:     rec.Telefono,
		Address:   rec.Direccion,
		Company:   rec.Empresa,
	}, nil
}
