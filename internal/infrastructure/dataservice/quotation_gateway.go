package dataservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/empaques/backoffice/internal/domain/partner"
	"github.com/empaques/backoffice/internal/domain/quotation"
	"github.com/empaques/backoffice/internal/domain/shared"
)

// productoLine is one entry of the "productos" array in the quotation wire
// contract
type productoLine struct {
	ID             string  `json:"id"`
	Nombre         string  `json:"nombre"`
	Codigo         string  `json:"codigo"`
	Cantidad       int     `json:"cantidad"`
	PrecioUnitario float64 `json:"precio_unitario"`
	Subtotal       float64 `json:"subtotal"`
}

// quotationPayload is the flat request body for create and update calls.
// Estado is create-only; updates deliberately omit it so an edit cannot
// revert a status change made from the list view.
type quotationPayload struct {
	ClientTipoDocumento   string         `json:"client_tipo_documento"`
	ClientNumeroDocumento string         `json:"client_numero_documento"`
	ClientNombre          string         `json:"client_nombre"`
	ClientEmail           string         `json:"client_email"`
	ClientTelefono        string         `json:"client_telefono"`
	ClientDireccion       string         `json:"client_direccion"`
	ClientEmpresa         string         `json:"client_empresa"`
	Productos             []productoLine `json:"productos"`
	Observaciones         string         `json:"observaciones"`
	Subtotal              float64        `json:"subtotal"`
	IGV                   float64        `json:"igv"`
	Total                 float64        `json:"total"`
	IncluyeIGV            bool           `json:"incluye_igv"`
	Estado                string         `json:"estado,omitempty"`
}

// quotationRecord is the wire shape of a persisted quotation
type quotationRecord struct {
	quotationPayload
	ID        string    `json:"id"`
	Numero    string    `json:"numero"`
	CreatedAt time.Time `json:"created_at"`
}

// statusPayload is the body of a status-only update
type statusPayload struct {
	Estado string `json:"estado"`
}

// QuotationGateway persists quotations through the remote /quotations
// resource collection. It implements quotation.Gateway.
type QuotationGateway struct {
	client *Client
}

// NewQuotationGateway creates a QuotationGateway backed by the data service
func NewQuotationGateway(client *Client) *QuotationGateway {
	return &QuotationGateway{client: client}
}

// Create persists a draft. The payload always carries estado "pendiente".
func (g *QuotationGateway) Create(ctx context.Context, draft *quotation.Quotation) (*quotation.Quotation, error) {
	payload := toPayload(draft)
	payload.Estado = string(quotation.StatusPending)

	raw, err := g.client.do(ctx, http.MethodPost, "/quotations", nil, payload)
	if err != nil {
		return nil, wrapPersistence(err)
	}

	var rec quotationRecord
	if err := decodeEnvelope(raw, &rec); err != nil {
		return nil, err
	}
	return rec.toQuotation()
}

// FindByID fetches a single quotation with embedded client and line detail
func (g *QuotationGateway) FindByID(ctx context.Context, id uuid.UUID) (*quotation.Quotation, error) {
	raw, err := g.client.do(ctx, http.MethodGet, "/quotations/"+id.String(), nil, nil)
	if err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) && reqErr.Status == http.StatusNotFound {
			return nil, shared.ErrNotFound
		}
		return nil, wrapPersistence(err)
	}

	var rec quotationRecord
	if err := decodeEnvelope(raw, &rec); err != nil {
		return nil, err
	}
	return rec.toQuotation()
}

// Update overwrites a persisted quotation. The status field is never part
// of the payload.
func (g *QuotationGateway) Update(ctx context.Context, id uuid.UUID, q *quotation.Quotation) error {
	payload := toPayload(q)

	raw, err := g.client.do(ctx, http.MethodPut, "/quotations/"+id.String(), nil, payload)
	if err != nil {
		return wrapPersistence(err)
	}
	return decodeEnvelope(raw, nil)
}

// UpdateStatus issues an update restricted to the status field
func (g *QuotationGateway) UpdateStatus(ctx context.Context, id uuid.UUID, status quotation.Status) error {
	raw, err := g.client.do(ctx, http.MethodPut, "/quotations/"+id.String(), nil, statusPayload{Estado: string(status)})
	if err != nil {
		return wrapPersistence(err)
	}
	return decodeEnvelope(raw, nil)
}

// List fetches quotations in bulk. Pagination, if any, is a client-side
// slice over this result.
func (g *QuotationGateway) List(ctx context.Context, limit int) ([]quotation.Quotation, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	raw, err := g.client.do(ctx, http.MethodGet, "/quotations", query, nil)
	if err != nil {
		return nil, wrapPersistence(err)
	}

	var records []quotationRecord
	if err := decodeEnvelope(raw, &records); err != nil {
		return nil, err
	}

	out := make([]quotation.Quotation, 0, len(records))
	for _, rec := range records {
		q, err := rec.toQuotation()
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, nil
}

// Delete removes a quotation permanently
func (g *QuotationGateway) Delete(ctx context.Context, id uuid.UUID) error {
	raw, err := g.client.do(ctx, http.MethodDelete, "/quotations/"+id.String(), nil, nil)
	if err != nil {
		return wrapPersistence(err)
	}
	return decodeEnvelope(raw, nil)
}

func wrapPersistence(err error) error {
	return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
}

func toPayload(q *quotation.Quotation) quotationPayload {
	productos := make([]productoLine, 0, len(q.Items))
	for _, item := range q.Items {
		productos = append(productos, productoLine{
			ID:             item.ProductID.String(),
			Nombre:         item.ProductName,
			Codigo:         item.ProductCode,
			Cantidad:       item.Quantity,
			PrecioUnitario: item.UnitPrice.InexactFloat64(),
			Subtotal:       item.Subtotal.InexactFloat64(),
		})
	}

	return quotationPayload{
		ClientTipoDocumento:   q.Client.TaxIDType.String(),
		ClientNumeroDocumento: q.Client.TaxID,
		ClientNombre:          q.Client.Name,
		ClientEmail:           q.Client.Email,
		ClientTelefono:        q.Client.Phone,
		ClientDireccion:       q.Client.Address,
		ClientEmpresa:         q.Client.Company,
		Productos:             productos,
		Observaciones:         q.Notes,
		Subtotal:              q.Subtotal.InexactFloat64(),
		IGV:                   q.Tax.InexactFloat64(),
		Total:                 q.Total.InexactFloat64(),
		IncluyeIGV:            q.IncludesTax,
	}
}

func (rec quotationRecord) toQuotation() (*quotation.Quotation, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid quotation id %q", shared.ErrMalformedResponse, rec.ID)
	}

	items := make([]quotation.LineSnapshot, 0, len(rec.Productos))
	for _, p := range rec.Productos {
		productID, err := uuid.Parse(p.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid product id %q", shared.ErrMalformedResponse, p.ID)
		}
		items = append(items, quotation.LineSnapshot{
			ProductID:   productID,
			ProductCode: p.Codigo,
			ProductName: p.Nombre,
			Quantity:    p.Cantidad,
			UnitPrice:   decimal.NewFromFloat(p.PrecioUnitario),
			Subtotal:    decimal.NewFromFloat(p.Subtotal),
		})
	}

	return &quotation.Quotation{
		ID:     id,
		Number: rec.Numero,
		Client: partner.Client{
			TaxIDType: partner.TaxIDType(rec.ClientTipoDocumento),
			TaxID:     rec.ClientNumeroDocumento,
			Name:      rec.ClientNombre,
			Email:     rec.ClientEmail,
			Phone:     rec.ClientTelefono,
			Address:   rec.ClientDireccion,
			Company:   rec.ClientEmpresa,
		},
		Items:       items,
		Subtotal:    decimal.NewFromFloat(rec.Subtotal),
		Tax:         decimal.NewFromFloat(rec.IGV),
		Total:       decimal.NewFromFloat(rec.Total),
		IncludesTax: rec.IncluyeIGV,
		Notes:       rec.Observaciones,
		Status:      quotation.Status(rec.Estado),
		CreatedAt:   rec.CreatedAt,
	}, nil
}
