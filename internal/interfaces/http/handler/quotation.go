package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	quotapp "github.com/empaques/backoffice/internal/application/quotation"
	"github.com/empaques/backoffice/internal/domain/quotation"
	"github.com/empaques/backoffice/internal/interfaces/http/dto"
	"github.com/empaques/backoffice/internal/interfaces/http/middleware"
)

// EditorFactory creates a fresh editor session per request
type EditorFactory func() *quotapp.EditorSession

// QuotationHandler handles quotation API endpoints
type QuotationHandler struct {
	BaseHandler
	newSession EditorFactory
	list       *quotapp.ListService
}

// NewQuotationHandler creates a new QuotationHandler
func NewQuotationHandler(newSession EditorFactory, list *quotapp.ListService) *QuotationHandler {
	return &QuotationHandler{
		newSession: newSession,
		list:       list,
	}
}

// Create creates a new quotation. The flow mirrors the editor: load the
// catalog, fill cart and client form, validate, then confirm the submit.
func (h *QuotationHandler) Create(c *gin.Context) {
	var req SaveQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	session := h.newSession()
	if err := session.Start(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.runEditor(c, session, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	response := toQuotationResponse(result)
	h.Created(c, response)
}

// Update overwrites an existing quotation. Persisted lines keep their
// price snapshot; the status is never touched by an edit.
func (h *QuotationHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req SaveQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	session := h.newSession()
	if err := session.Start(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	if err := session.StartEdit(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.runEditor(c, session, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toQuotationResponse(result))
}

// runEditor applies the request to an editable session and submits
func (h *QuotationHandler) runEditor(c *gin.Context, session *quotapp.EditorSession, req *SaveQuotationRequest) (*quotation.Quotation, error) {
	changes, err := req.lineChanges()
	if err != nil {
		return nil, err
	}
	if err := session.ApplyLines(changes); err != nil {
		return nil, err
	}
	if err := session.SetClientForm(req.clientForm()); err != nil {
		return nil, err
	}
	if req.IncluyeIGV != nil {
		session.SetIncludesTax(*req.IncluyeIGV)
	}
	session.SetNotes(req.Observaciones)

	if _, err := session.PrepareSubmit(); err != nil {
		return nil, err
	}
	return session.ConfirmSubmit(c.Request.Context())
}

// List returns quotations with search, status filter and pagination
func (h *QuotationHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}

	page, err := h.list.List(c.Request.Context(), quotapp.ListQuery{
		Search:   req.Search,
		Status:   quotation.Status(req.Status),
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]QuotationResponse, 0, len(page.Quotations))
	for idx := range page.Quotations {
		responses = append(responses, toQuotationResponse(&page.Quotations[idx]))
	}
	h.SuccessWithMeta(c, responses, int64(page.Total), page.Page, page.PageSize)
}

// GetByID returns a single quotation
func (h *QuotationHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	q, err := h.list.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toQuotationResponse(q))
}

// ChangeStatus applies a status transition from the list view
func (h *QuotationHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	q, err := h.list.ChangeStatus(c.Request.Context(), id, quotation.Status(req.Estado))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toQuotationResponse(q))
}

// Delete removes a quotation permanently. The caller must acknowledge the
// irreversibility with confirm=true.
func (h *QuotationHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if c.Query("confirm") != "true" {
		h.BadRequest(c, "Deletion is permanent; repeat the request with confirm=true")
		return
	}

	if err := h.list.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Print returns the print-ready payload for a quotation
func (h *QuotationHandler) Print(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	payload, err := h.list.PrintPayload(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPrintResponse(payload))
}

func (h *QuotationHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid quotation ID")
		return uuid.Nil, false
	}
	return id, true
}

// RegisterRoutes registers all quotation routes
func (h *QuotationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	quotations := rg.Group("/quotations")
	{
		quotations.POST("", h.Create)
		quotations.GET("", h.List)
		quotations.GET("/:id", h.GetByID)
		quotations.PUT("/:id", h.Update)
		quotations.PATCH("/:id/status", h.ChangeStatus)
		quotations.DELETE("/:id", h.Delete)
		quotations.GET("/:id/print", h.Print)
	}
}
