package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reservas-api/internal/application/usecase"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"999", "999"},
		{"25000", "25.000"},
		{"1000000", "1.000.000"},
		{"99900.5", "99.900,50"},
		{"-1234.56", "-1.234,56"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMoney(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "3F2A9C1B", shortID("3f2a9c1b-0000-4000-8000-000000000000"))
	assert.Equal(t, "AB", shortID("ab"))
}

func TestGenerateReceipt(t *testing.T) {
	paid := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	order := &entity.Order{
		ID:        "3f2a9c1b-0000-4000-8000-000000000000",
		SessionID: "sess-1",
		Status:    entity.OrderStatusPaid,
		Total:     decimal.RequireFromString("199801"),
		CreatedAt: paid.Add(-time.Minute),
		PaidAt:    &paid,
	}
	lines := []usecase.ReceiptLine{{
		SKU: "PAN-32", Name: "Pantalón azul", Quantity: 2,
		UnitPrice: decimal.RequireFromString("99900.50"),
		Subtotal:  decimal.RequireFromString("199801"),
	}}

	out, err := NewMarotoReceiptGenerator("Tienda").GenerateReceipt(context.Background(), order, lines)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateReceipt_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMarotoReceiptGenerator("").GenerateReceipt(ctx, &entity.Order{ID: "x"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
