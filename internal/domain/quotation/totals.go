package quotation

import (
	"github.com/shopspring/decimal"
)

// IGVRate is the sales tax rate applied when the tax toggle is on.
var IGVRate = decimal.NewFromFloat(0.18)

// taxInferenceTolerance is the numeric tolerance used when deciding whether
// a persisted quotation was created with tax included (§ reload heuristic).
var taxInferenceTolerance = decimal.NewFromFloat(0.01)

// Totals is the computed money summary of a cart. When IncludesTax is false
// the total equals the subtotal exactly; there is no tax-exclusive total.
type Totals struct {
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
	IncludesTax bool
}

// CalculateTotals is a pure function of the cart lines and the tax toggle.
// It must be recomputed on every cart or rate change, never cached.
func CalculateTotals(lines []LineItem, includesTax bool) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal())
	}

	tax := decimal.Zero
	if includesTax {
		tax = subtotal.Mul(IGVRate)
	}

	return Totals{
		Subtotal:    subtotal,
		Tax:         tax,
		Total:       subtotal.Add(tax),
		IncludesTax: includesTax,
	}
}

// InferTaxIncluded decides whether a persisted quotation was created with
// tax included by comparing its stored tax amount against 18% of its stored
// subtotal, within a 0.01 tolerance. Quotations persisted under a different
// rate or rounding rule may be misclassified; the rate is not stored
// explicitly in historical rows, so re-derivation is the only option.
func InferTaxIncluded(subtotal, tax decimal.Decimal) bool {
	expected := subtotal.Mul(IGVRate)
	return tax.Sub(expected).Abs().LessThanOrEqual(taxInferenceTolerance)
}
