package quotation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/empaques/backoffice/internal/domain/catalog"
	"github.com/empaques/backoffice/internal/domain/shared"
)

// LineItem is one product row in a cart. UnitPrice is the price snapshot
// captured when the line was created, deliberately decoupled from the live
// catalog price.
type LineItem struct {
	ProductID   uuid.UUID
	ProductCode string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Subtotal returns UnitPrice * Quantity for this line.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered collection of line items keyed by product identity.
// Invariants: exactly one line per distinct product ID, and line order is
// insertion order. Re-adding a removed product appends a new line at the
// end, not at its old position.
type Cart struct {
	lines []LineItem
}

// NewCart creates an empty cart
func NewCart() *Cart {
	return &Cart{lines: make([]LineItem, 0)}
}

// AddProduct merges or appends: if a line for the product already exists its
// quantity is incremented, otherwise a new line is appended with quantity 1
// and the product's unit price captured at this instant.
func (c *Cart) AddProduct(p catalog.Product) {
	for idx := range c.lines {
		if c.lines[idx].ProductID == p.ID {
			c.lines[idx].Quantity++
			return
		}
	}
	c.lines = append(c.lines, LineItem{
		ProductID:   p.ID,
		ProductCode: p.Code,
		ProductName: p.Name,
		Quantity:    1,
		UnitPrice:   p.UnitPrice,
	})
}

// RestoreLine re-creates a persisted line with its stored quantity and price
// snapshot. Used when loading a quotation for edit; the snapshot price wins
// over the current catalog price so totals stay stable.
func (c *Cart) RestoreLine(p catalog.Product, quantity int, unitPrice decimal.Decimal) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	for idx := range c.lines {
		if c.lines[idx].ProductID == p.ID {
			c.lines[idx].Quantity = quantity
			c.lines[idx].UnitPrice = unitPrice
			return nil
		}
	}
	c.lines = append(c.lines, LineItem{
		ProductID:   p.ID,
		ProductCode: p.Code,
		ProductName: p.Name,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	})
	return nil
}

// Remove deletes the line for the product unconditionally.
func (c *Cart) Remove(productID uuid.UUID) {
	for idx := range c.lines {
		if c.lines[idx].ProductID == productID {
			c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
			return
		}
	}
}

// SetQuantity sets the line quantity. A quantity of zero or less removes the
// line entirely. Stock is informational only, no upper bound is enforced.
func (c *Cart) SetQuantity(productID uuid.UUID, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	for idx := range c.lines {
		if c.lines[idx].ProductID == productID {
			c.lines[idx].Quantity = quantity
			return
		}
	}
}

// Lines returns a copy of the lines in insertion order
func (c *Cart) Lines() []LineItem {
	out := make([]LineItem, len(c.lines))
	copy(out, c.lines)
	return out
}

// Line returns the line for a product, or nil
func (c *Cart) Line(productID uuid.UUID) *LineItem {
	for idx := range c.lines {
		if c.lines[idx].ProductID == productID {
			line := c.lines[idx]
			return &line
		}
	}
	return nil
}

// IsEmpty returns true if the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Len returns the number of lines
func (c *Cart) Len() int {
	return len(c.lines)
}

// Clear removes all lines
func (c *Cart) Clear() {
	c.lines = c.lines[:0]
}
