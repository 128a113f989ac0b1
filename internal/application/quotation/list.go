package quotation

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/empaques/backoffice/internal/domain/quotation"
)

// ListQuery filters and paginates the quotation list. Filtering happens
// client-side over one bulk fetch; the data service only bounds the fetch
// with a row limit.
type ListQuery struct {
	Search   string
	Status   quotation.Status
	Page     int
	PageSize int
}

// ListPage is one page of quotations plus the filtered total
type ListPage struct {
	Quotations []quotation.Quotation
	Total      int
	Page       int
	PageSize   int
}

// ListService serves the back-office quotation list: listing, status
// transitions, deletion and print payloads.
type ListService struct {
	gateway quotation.Gateway
	limit   int
	log     *zap.Logger
}

// NewListService creates a list service. limit bounds the bulk fetch.
func NewListService(gateway quotation.Gateway, limit int, log *zap.Logger) *ListService {
	if limit <= 0 {
		limit = 500
	}
	return &ListService{
		gateway: gateway,
		limit:   limit,
		log:     log.Named("quotation-list"),
	}
}

// List fetches quotations and applies search, status filter and pagination
// in memory. Search matches the quotation number, client name and tax
// identifier, case-insensitively.
func (s *ListService) List(ctx context.Context, query ListQuery) (*ListPage, error) {
	all, err := s.gateway.List(ctx, s.limit)
	if err != nil {
		return nil, err
	}

	filtered := make([]quotation.Quotation, 0, len(all))
	needle := strings.ToLower(strings.TrimSpace(query.Search))
	for _, q := range all {
		if query.Status != "" && q.Status != query.Status {
			continue
		}
		if needle != "" && !matchesSearch(&q, needle) {
			continue
		}
		filtered = append(filtered, q)
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size < 1 {
		size = 20
	}

	start := (page - 1) * size
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + size
	if end > len(filtered) {
		end = len(filtered)
	}

	return &ListPage{
		Quotations: filtered[start:end],
		Total:      len(filtered),
		Page:       page,
		PageSize:   size,
	}, nil
}

func matchesSearch(q *quotation.Quotation, needle string) bool {
	return strings.Contains(strings.ToLower(q.Number), needle) ||
		strings.Contains(strings.ToLower(q.Client.Name), needle) ||
		strings.Contains(strings.ToLower(q.Client.TaxID), needle)
}

// Get fetches one quotation
func (s *ListService) Get(ctx context.Context, id uuid.UUID) (*quotation.Quotation, error) {
	return s.gateway.FindByID(ctx, id)
}

// ChangeStatus validates and applies a status transition. The current
// status is fetched fresh so a stale list view cannot push an illegal
// transition through.
func (s *ListService) ChangeStatus(ctx context.Context, id uuid.UUID, target quotation.Status) (*quotation.Quotation, error) {
	q, err := s.gateway.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := q.Transition(target); err != nil {
		return nil, err
	}

	if err := s.gateway.UpdateStatus(ctx, id, target); err != nil {
		return nil, err
	}

	s.log.Info("Quotation status changed",
		zap.String("id", id.String()),
		zap.String("status", target.String()))
	return q, nil
}

// Delete removes a quotation permanently. Irreversible; the interface
// layer is responsible for demanding confirmation.
func (s *ListService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.gateway.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("Quotation deleted", zap.String("id", id.String()))
	return nil
}

// PrintPayload assembles the print-ready document for a quotation
func (s *ListService) PrintPayload(ctx context.Context, id uuid.UUID) (*quotation.PrintPayload, error) {
	q, err := s.gateway.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	payload := quotation.BuildPrintPayload(q)
	return &payload, nil
}
