package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogapp "github.com/empaques/backoffice/internal/application/catalog"
	"github.com/empaques/backoffice/internal/domain/catalog"
	"github.com/empaques/backoffice/internal/interfaces/http/dto"
	"github.com/empaques/backoffice/internal/interfaces/http/middleware"
)

// CatalogHandler handles public catalog API endpoints
type CatalogHandler struct {
	BaseHandler
	service *catalogapp.Service
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(service *catalogapp.Service) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ProductResponse represents a catalog product in API responses
type ProductResponse struct {
	ID             string  `json:"id"`
	Codigo         string  `json:"codigo"`
	Nombre         string  `json:"nombre"`
	Categoria      string  `json:"categoria"`
	PrecioUnitario float64 `json:"precio_unitario"`
	Stock          int     `json:"stock"`
	ImagenURL      string  `json:"imagen_url,omitempty"`
	Activo         bool    `json:"activo"`
}

func toProductResponse(p catalog.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID.String(),
		Codigo:         p.Code,
		Nombre:         p.Name,
		Categoria:      p.Category,
		PrecioUnitario: p.UnitPrice.InexactFloat64(),
		Stock:          p.Stock,
		ImagenURL:      p.ImageURL,
		Activo:         p.Active,
	}
}

// List returns all active products in catalog order
func (h *CatalogHandler) List(c *gin.Context) {
	products, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		responses = append(responses, toProductResponse(p))
	}
	h.Success(c, responses)
}

// GetByID returns a single product, active or not
func (h *CatalogHandler) GetByID(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProductResponse(*product))
}

// RegisterRoutes registers all catalog routes
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/catalog")
	{
		products.GET("", h.List)
		products.GET("/:id", h.GetByID)
	}
}
