package quotation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrintPayload_Draft_UsesPlaceholderNumber(t *testing.T) {
	lines := []LineItem{line(10, 2)}
	draft, err := NewDraft(testClient(), lines, CalculateTotals(lines, true), "embalaje reforzado")
	require.NoError(t, err)

	payload := BuildPrintPayload(draft)

	assert.Equal(t, DraftNumberLabel, payload.Header.Number)
	assert.Equal(t, StatusPending, payload.Header.Status)
	assert.Equal(t, "Distribuidora Andina SAC", payload.Client.Name)
	assert.Equal(t, "RUC", payload.Client.TaxIDType)
	require.Len(t, payload.Rows, 1)
	assert.True(t, payload.Rows[0].Subtotal.Equal(decimal.NewFromInt(20)))
	assert.True(t, payload.Totals.Total.Equal(decimal.NewFromFloat(23.60)))
	assert.Equal(t, "embalaje reforzado", payload.Notes)
}

func TestBuildPrintPayload_Persisted_KeepsNumberAndOrder(t *testing.T) {
	lines := []LineItem{line(10, 1), line(20, 1), line(30, 1)}
	q, err := NewDraft(testClient(), lines, CalculateTotals(lines, false), "")
	require.NoError(t, err)
	q.ID = uuid.New()
	q.Number = "COT-2026-00042"

	payload := BuildPrintPayload(q)

	assert.Equal(t, "COT-2026-00042", payload.Header.Number)
	require.Len(t, payload.Rows, 3)
	for i, item := range q.Items {
		assert.Equal(t, item.ProductName, payload.Rows[i].ProductName)
	}
}
