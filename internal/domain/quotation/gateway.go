package quotation

import (
	"context"

	"github.com/google/uuid"
)

// Gateway translates quotations to and from the remote persistence contract.
// Implementations attach the caller's bearer credential to every request.
//
// Create submits the draft with status pending and returns the persisted
// record including its server-assigned ID and sequence number. Update never
// touches the status field; status changes go exclusively through
// UpdateStatus so an edit cannot silently revert an in-progress or completed
// quotation. Delete is irreversible.
type Gateway interface {
	Create(ctx context.Context, draft *Quotation) (*Quotation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Quotation, error)
	Update(ctx context.Context, id uuid.UUID, q *Quotation) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	List(ctx context.Context, limit int) ([]Quotation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
