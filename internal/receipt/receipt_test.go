package receipt

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kedaipos/backend/internal/domain"
)

func TestBuildCashReceipt(t *testing.T) {
	sale := domain.Sale{
		ID:         "sale-1",
		TerminalID: "terminal-1",
		Items: []domain.CartLine{
			{ProductID: "prod-cola", Name: "Cola", PriceCents: 25000, Qty: 2},
			{ProductID: "prod-chips", Name: "Chips", PriceCents: 15000, Qty: 1},
		},
		TotalCents:        65000,
		PaymentMethod:     domain.PaymentCash,
		CashReceivedCents: 100000,
		ChangeCents:       35000,
		CashCents:         65000,
		Paid:              true,
		CreatedAt:         time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC),
	}

	r := Build(sale, Options{StoreName: "Kedai Test", CurrencyLabel: "Rp", Exponent: 2})

	assert.Equal(t, "sale-1", r.SaleID)
	assert.Equal(t, "receipt-sale-1.bin", r.FileName)
	assert.Equal(t, "Kedai Test", r.Lines[0])
	assert.Contains(t, r.PreviewText, "Cola x2")
	assert.Contains(t, r.PreviewText, "Rp 500.00")
	assert.Contains(t, r.PreviewText, "Change  : Rp 350.00")
	assert.Contains(t, r.PreviewText, "Status  : PAID")

	raw, err := base64.StdEncoding.DecodeString(r.EscposBase64)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1b, 0x40}, raw[:2])
	assert.Equal(t, []byte{0x1d, 0x56, 0x41, 0x10}, raw[len(raw)-4:])
}

func TestBuildMixedDebtReceiptShowsCustomer(t *testing.T) {
	sale := domain.Sale{
		ID:                "sale-2",
		Items:             []domain.CartLine{{ProductID: "prod-bread", Name: "Bread", PriceCents: 100000, Qty: 1}},
		TotalCents:        100000,
		PaymentMethod:     domain.PaymentMixed,
		CashReceivedCents: 40000,
		CashCents:         40000,
		CardCents:         30000,
		DebtCents:         30000,
		CustomerName:      "Aida",
		Paid:              false,
		CreatedAt:         time.Now().UTC(),
	}

	r := Build(sale, Options{Exponent: 2})

	assert.Equal(t, "Kedai POS", r.Lines[0])
	assert.Contains(t, r.PreviewText, "Debt    : 300.00")
	assert.Contains(t, r.PreviewText, "Customer: Aida")
	assert.Contains(t, r.PreviewText, "Status  : UNPAID")
	assert.NotContains(t, r.PreviewText, "Change")
}
