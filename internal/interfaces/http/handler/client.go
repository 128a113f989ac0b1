package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	partnerapp "github.com/empaques/backoffice/internal/application/partner"
	"github.com/empaques/backoffice/internal/domain/partner"
	"github.com/empaques/backoffice/internal/domain/shared"
	"github.com/empaques/backoffice/internal/interfaces/http/middleware"
)

// ClientHandler handles client directory API endpoints
type ClientHandler struct {
	BaseHandler
	resolver *partnerapp.Resolver
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(resolver *partnerapp.Resolver) *ClientHandler {
	return &ClientHandler{resolver: resolver}
}

// ClientSearchRequest is the query for a directory lookup
type ClientSearchRequest struct {
	TaxID string `form:"tax_id" binding:"required,min=1,max=20"`
}

// ClientResponse represents a directory client in API responses.
// Found is false when the identifier matched nothing, which is a normal
// outcome, not an error.
type ClientResponse struct {
	Found           bool   `json:"found"`
	TipoDocumento   string `json:"tipo_documento,omitempty"`
	NumeroDocumento string `json:"numero_documento,omitempty"`
	Nombre          string `json:"nombre,omitempty"`
	Email           string `json:"email,omitempty"`
	Telefono        string `json:"telefono,omitempty"`
	Direccion       string `json:"direccion,omitempty"`
	Empresa         string `json:"empresa,omitempty"`
}

func toClientResponse(c *partner.Client) ClientResponse {
	return ClientResponse{
		Found:           true,
		TipoDocumento:   c.TaxIDType.String(),
		NumeroDocumento: c.TaxID,
		Nombre:          c.Name,
		Email:           c.Email,
		Telefono:        c.Phone,
		Direccion:       c.Address,
		Empresa:         c.Company,
	}
}

// Search looks up a client by exact tax identifier value. This is the
// synchronous flush path; debouncing is the caller's concern.
func (h *ClientHandler) Search(c *gin.Context) {
	var req ClientSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	client, err := h.resolver.Resolve(c.Request.Context(), req.TaxID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.Success(c, ClientResponse{Found: false})
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, toClientResponse(client))
}

// RegisterRoutes registers all client routes
func (h *ClientHandler) RegisterRoutes(rg *gin.RouterGroup) {
	clients := rg.Group("/clients")
	{
		clients.GET("/search", h.Search)
	}
}
