package quotation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/empaques/backoffice/internal/domain/partner"
	"github.com/empaques/backoffice/internal/domain/shared"
)

// Status represents the lifecycle state of a persisted quotation. The values
// are the wire values used by the remote data service.
type Status string

const (
	StatusPending    Status = "pendiente"
	StatusInProgress Status = "en_proceso"
	StatusCompleted  Status = "completada"
	StatusCancelled  Status = "cancelada"
)

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusInProgress || target == StatusCancelled
	case StatusInProgress:
		return target == StatusCompleted || target == StatusCancelled
	case StatusCompleted, StatusCancelled:
		return false // Terminal states
	}
	return false
}

// LineSnapshot is a persisted quotation line. It carries the product code
// and name as of quotation time so historical quotations remain stable even
// if the catalog changes later.
type LineSnapshot struct {
	ProductID   uuid.UUID
	ProductCode string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// Quotation is a priced business document. It is created as an in-memory
// draft and becomes durable only after a successful gateway create call.
// Number is assigned by the persistence layer and is empty on drafts.
type Quotation struct {
	ID          uuid.UUID
	Number      string
	Client      partner.Client
	Items       []LineSnapshot
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
	IncludesTax bool
	Notes       string
	Status      Status
	CreatedAt   time.Time
}

// NewDraft assembles an unsaved quotation from the editing session's cart,
// client fields and computed totals. Drafts always start pending.
func NewDraft(client partner.Client, lines []LineItem, totals Totals, notes string) (*Quotation, error) {
	if !client.TaxIDType.IsValid() || client.TaxID == "" {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client tax identifier is required")
	}
	if client.Name == "" {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client name is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_CART", "Quotation requires at least one line item")
	}

	items := make([]LineSnapshot, 0, len(lines))
	for _, line := range lines {
		items = append(items, LineSnapshot{
			ProductID:   line.ProductID,
			ProductCode: line.ProductCode,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    line.Subtotal(),
		})
	}

	return &Quotation{
		Client:      client,
		Items:       items,
		Subtotal:    totals.Subtotal,
		Tax:         totals.Tax,
		Total:       totals.Total,
		IncludesTax: totals.IncludesTax,
		Notes:       notes,
		Status:      StatusPending,
	}, nil
}

// IsDraft returns true if the quotation has not been persisted yet
func (q *Quotation) IsDraft() bool {
	return q.ID == uuid.Nil
}

// IsTerminal returns true if the quotation is completed or cancelled
func (q *Quotation) IsTerminal() bool {
	return q.Status == StatusCompleted || q.Status == StatusCancelled
}

// Transition validates and applies a status change
func (q *Quotation) Transition(target Status) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown status %q", target))
	}
	if !q.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move quotation from %s to %s", q.Status, target))
	}
	q.Status = target
	return nil
}
