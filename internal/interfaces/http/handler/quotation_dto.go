package handler

import (
	"time"

	"github.com/google/uuid"

	quotapp "github.com/empaques/backoffice/internal/application/quotation"
	"github.com/empaques/backoffice/internal/domain/partner"
	"github.com/empaques/backoffice/internal/domain/quotation"
)

// QuotationLineInput is one requested cart line. Prices are never part of
// the request; new lines snapshot the current catalog price and edited
// lines keep their stored one.
type QuotationLineInput struct {
	ID       string `json:"id" binding:"required,uuid"`
	Cantidad int    `json:"cantidad" binding:"required,gt=0"`
}

// SaveQuotationRequest is the request body for creating or updating a
// quotation
type SaveQuotationRequest struct {
	ClientTipoDocumento   string               `json:"client_tipo_documento" binding:"required,oneof=DNI RUC CE Pasaporte"`
	ClientNumeroDocumento string               `json:"client_numero_documento" binding:"required,min=1,max=20"`
	ClientNombre          string               `json:"client_nombre" binding:"required,min=1,max=200"`
	ClientEmail           string               `json:"client_email" binding:"omitempty,email"`
	ClientTelefono        string               `json:"client_telefono" binding:"max=20"`
	ClientDireccion       string               `json:"client_direccion" binding:"max=300"`
	ClientEmpresa         string               `json:"client_empresa" binding:"max=200"`
	Productos             []QuotationLineInput `json:"productos" binding:"required,min=1,dive"`
	Observaciones         string               `json:"observaciones" binding:"max=2000"`
	IncluyeIGV            *bool                `json:"incluye_igv"`
}

// ChangeStatusRequest is the request body for a status transition
type ChangeStatusRequest struct {
	Estado string `json:"estado" binding:"required,oneof=pendiente en_proceso completada cancelada"`
}

// QuotationLineResponse is one quotation line in API responses
type QuotationLineResponse struct {
	ID             string  `json:"id"`
	Nombre         string  `json:"nombre"`
	Codigo         string  `json:"codigo"`
	Cantidad       int     `json:"cantidad"`
	PrecioUnitario float64 `json:"precio_unitario"`
	Subtotal       float64 `json:"subtotal"`
}

// QuotationResponse represents a quotation in API responses
type QuotationResponse struct {
	ID                    string                  `json:"id"`
	Numero                string                  `json:"numero"`
	ClientTipoDocumento   string                  `json:"client_tipo_documento"`
	ClientNumeroDocumento string                  `json:"client_numero_documento"`
	ClientNombre          string                  `json:"client_nombre"`
	ClientEmail           string                  `json:"client_email"`
	ClientTelefono        string                  `json:"client_telefono"`
	ClientDireccion       string                  `json:"client_direccion"`
	ClientEmpresa         string                  `json:"client_empresa"`
	Productos             []QuotationLineResponse `json:"productos"`
	Observaciones         string                  `json:"observaciones"`
	Subtotal              float64                 `json:"subtotal"`
	IGV                   float64                 `json:"igv"`
	Total                 float64                 `json:"total"`
	IncluyeIGV            bool                    `json:"incluye_igv"`
	Estado                string                  `json:"estado"`
	CreatedAt             time.Time               `json:"created_at"`
}

// PrintPayloadResponse is the print-ready document for a quotation
type PrintPayloadResponse struct {
	Numero        string                  `json:"numero"`
	Estado        string                  `json:"estado"`
	CreatedAt     time.Time               `json:"created_at"`
	Client        PrintClientResponse     `json:"client"`
	Productos     []QuotationLineResponse `json:"productos"`
	Subtotal      float64                 `json:"subtotal"`
	IGV           float64                 `json:"igv"`
	Total         float64                 `json:"total"`
	IncluyeIGV    bool                    `json:"incluye_igv"`
	Observaciones string                  `json:"observaciones"`
}

// PrintClientResponse is the client block of the printed document
type PrintClientResponse struct {
	TipoDocumento   string `json:"tipo_documento"`
	NumeroDocumento string `json:"numero_documento"`
	Nombre          string `json:"nombre"`
	Email           string `json:"email"`
	Telefono        string `json:"telefono"`
	Direccion       string `json:"direccion"`
	Empresa         string `json:"empresa"`
}

func (r *SaveQuotationRequest) clientForm() quotapp.ClientForm {
	return quotapp.ClientForm{
		TaxIDType: partner.TaxIDType(r.ClientTipoDocumento),
		TaxID:     r.ClientNumeroDocumento,
		Name:      r.ClientNombre,
		Email:     r.ClientEmail,
		Phone:     r.ClientTelefono,
		Address:   r.ClientDireccion,
		Company:   r.ClientEmpresa,
	}
}

func (r *SaveQuotationRequest) lineChanges() ([]quotapp.LineChange, error) {
	changes := make([]quotapp.LineChange, 0, len(r.Productos))
	for _, line := range r.Productos {
		id, err := uuid.Parse(line.ID)
		if err != nil {
			return nil, err
		}
		changes = append(changes, quotapp.LineChange{ProductID: id, Quantity: line.Cantidad})
	}
	return changes, nil
}

func toQuotationResponse(q *quotation.Quotation) QuotationResponse {
	return QuotationResponse{
		ID:                    q.ID.String(),
		Numero:                q.Number,
		ClientTipoDocumento:   q.Client.TaxIDType.String(),
		ClientNumeroDocumento: q.Client.TaxID,
		ClientNombre:          q.Client.Name,
		ClientEmail:           q.Client.Email,
		ClientTelefono:        q.Client.Phone,
		ClientDireccion:       q.Client.Address,
		ClientEmpresa:         q.Client.Company,
		Productos:             toLineResponses(q.Items),
		Observaciones:         q.Notes,
		Subtotal:              q.Subtotal.InexactFloat64(),
		IGV:                   q.Tax.InexactFloat64(),
		Total:                 q.Total.InexactFloat64(),
		IncluyeIGV:            q.IncludesTax,
		Estado:                q.Status.String(),
		CreatedAt:             q.CreatedAt,
	}
}

func toLineResponses(items []quotation.LineSnapshot) []QuotationLineResponse {
	out := make([]QuotationLineResponse, 0, len(items))
	for _, item := range items {
		out = append(out, QuotationLineResponse{
			ID:             item.ProductID.String(),
			Nombre:         item.ProductName,
			Codigo:         item.ProductCode,
			Cantidad:       item.Quantity,
			PrecioUnitario: item.UnitPrice.InexactFloat64(),
			Subtotal:       item.Subtotal.InexactFloat64(),
		})
	}
	return out
}

func toPrintResponse(p *quotation.PrintPayload) PrintPayloadResponse {
	productos := make([]QuotationLineResponse, 0, len(p.Rows))
	for _, row := range p.Rows {
		productos = append(productos, QuotationLineResponse{
			Nombre:         row.ProductName,
			Codigo:         row.ProductCode,
			Cantidad:       row.Quantity,
			PrecioUnitario: row.UnitPrice.InexactFloat64(),
			Subtotal:       row.Subtotal.InexactFloat64(),
		})
	}

	return PrintPayloadResponse{
		Numero:    p.Header.Number,
		Estado:    p.Header.Status.String(),
		CreatedAt: p.Header.CreatedAt,
		Client: PrintClientResponse{
			TipoDocumento:   p.Client.TaxIDType,
			NumeroDocumento: p.Client.TaxID,
			Nombre:          p.Client.Name,
			Email:           p.Client.Email,
			Telefono:        p.Client.Phone,
			Direccion:       p.Client.Address,
			Empresa:         p.Client.Company,
		},
		Productos:     productos,
		Subtotal:      p.Totals.Subtotal.InexactFloat64(),
		IGV:           p.Totals.Tax.InexactFloat64(),
		Total:         p.Totals.Total.InexactFloat64(),
		IncluyeIGV:    p.Totals.IncludesTax,
		Observaciones: p.Notes,
	}
}
