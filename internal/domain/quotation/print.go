package quotation

import (
	"time"

	"github.com/shopspring/decimal"
)

// DraftNumberLabel is substituted for the sequence number when printing a
// quotation that has not been persisted yet.
const DraftNumberLabel = "BORRADOR"

// PrintPayload is a presentation-agnostic snapshot of a quotation handed to
// the external print renderer. Building it has no network or persistence
// side effects.
type PrintPayload struct {
	Header PrintHeader
	Client PrintClient
	Rows   []PrintRow
	Totals PrintTotals
	Notes  string
}

// PrintHeader carries document-level metadata
type PrintHeader struct {
	Number    string
	Status    Status
	CreatedAt time.Time
}

// PrintClient is the client block of the printed document
type PrintClient struct {
	TaxIDType string
	TaxID     string
	Name      string
	Email     string
	Phone     string
	Address   string
	Company   string
}

// PrintRow is one ordered line row with its computed subtotal
type PrintRow struct {
	ProductCode string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// PrintTotals is the totals block of the printed document
type PrintTotals struct {
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
	IncludesTax bool
}

// BuildPrintPayload is a pure transform from a quotation (draft or
// persisted) to its printable snapshot.
func BuildPrintPayload(q *Quotation) PrintPayload {
	number := q.Number
	if number == "" {
		number = DraftNumberLabel
	}

	rows := make([]PrintRow, 0, len(q.Items))
	for _, item := range q.Items {
		rows = append(rows, PrintRow{
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}

	return PrintPayload{
		Header: PrintHeader{
			Number:    number,
			Status:    q.Status,
			CreatedAt: q.CreatedAt,
		},
		Client: PrintClient{
			TaxIDType: q.Client.TaxIDType.String(),
			TaxID:     q.Client.TaxID,
			Name:      q.Client.Name,
			Email:     q.Client.Email,
			Phone:     q.Client.Phone,
			Address:   q.Client.Address,
			Company:   q.Client.Company,
		},
		Rows: rows,
		Totals: PrintTotals{
			Subtotal:    q.Subtotal,
			Tax:         q.Tax,
			Total:       q.Total,
			IncludesTax: q.IncludesTax,
		},
		Notes: q.Notes,
	}
}
