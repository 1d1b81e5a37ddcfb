package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kedaipos/backend/internal/domain"
)

var (
	cola  = domain.CartLine{ProductID: "prod-cola", Name: "Cola", PriceCents: 25000, CostCents: 15000}
	chips = domain.CartLine{ProductID: "prod-chips", Name: "Chips", PriceCents: 15000, CostCents: 9000}
	bread = domain.CartLine{ProductID: "prod-bread", Name: "Bread", PriceCents: 50000, CostCents: 30000}
)

func withQty(l domain.CartLine, qty int) domain.CartLine {
	l.Qty = qty
	return l
}

func sale(id string, at time.Time, method domain.PaymentMethod, paid bool, items ...domain.CartLine) domain.Sale {
	var total int64
	for _, item := range items {
		total += item.SubtotalCents()
	}
	s := domain.Sale{ID: id, CartID: "cart-" + id, Items: items, TotalCents: total, PaymentMethod: method, Paid: paid, CreatedAt: at}
	switch method {
	case domain.PaymentCash:
		s.CashCents = total
	case domain.PaymentCard:
		s.CardCents = total
	case domain.PaymentDebt:
		s.DebtCents = total
		s.CustomerName = "Aida"
	}
	return s
}

func TestBuildAggregatesWindow(t *testing.T) {
	now := time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC)
	sales := []domain.Sale{
		sale("s4", now.Add(-time.Hour), domain.PaymentDebt, false, withQty(bread, 1)),
		sale("s3", now.Add(-2*time.Hour), domain.PaymentCard, true, withQty(chips, 2)),
		sale("s2", now.Add(-3*time.Hour), domain.PaymentCash, true, withQty(cola, 2), withQty(chips, 1)),
		sale("s1", now.Add(-48*time.Hour), domain.PaymentCash, true, withQty(cola, 10)),
	}

	r := Build(Input{Sales: sales, Window: domain.WindowDay, Now: now})

	assert.Equal(t, 3, r.Transactions)
	assert.Equal(t, int64(50000+30000+65000), r.RevenueCents)
	assert.Equal(t, int64(20000+12000+20000+6000), r.ProfitCents)
	assert.Equal(t, int64(145000/3), r.AverageTicketCents)
	require.NotNil(t, r.LastSaleAt)
	assert.True(t, r.LastSaleAt.Equal(now.Add(-time.Hour)))

	require.Len(t, r.ByMethod, 4)
	assert.Equal(t, domain.MethodTotal{Method: domain.PaymentCash, Transactions: 1, TotalCents: 65000}, r.ByMethod[0])
	assert.Equal(t, domain.MethodTotal{Method: domain.PaymentCard, Transactions: 1, TotalCents: 30000}, r.ByMethod[1])
	assert.Equal(t, domain.MethodTotal{Method: domain.PaymentDebt, Transactions: 1, TotalCents: 50000}, r.ByMethod[2])
	assert.Equal(t, domain.MethodTotal{Method: domain.PaymentMixed}, r.ByMethod[3])

	assert.Equal(t, int64(50000), r.OutstandingDebtCents)
	assert.Equal(t, 1, r.UnpaidDebts)
	assert.Equal(t, 1, r.Hourly[17].Transactions)
}

func TestTopProductsTiesRankByFirstSale(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	sales := []domain.Sale{
		sale("s2", now.Add(-time.Minute), domain.PaymentCard, true, withQty(chips, 1), withQty(bread, 1)),
		sale("s1", now.Add(-2*time.Minute), domain.PaymentCard, true, withQty(cola, 2), withQty(chips, 1)),
	}

	r := Build(Input{Sales: sales, Window: domain.WindowDay, Now: now})

	require.Len(t, r.TopProducts, 3)
	assert.Equal(t, "prod-cola", r.TopProducts[0].ProductID)
	assert.Equal(t, "prod-bread", r.TopProducts[1].ProductID)
	assert.Equal(t, "prod-chips", r.TopProducts[2].ProductID)
	assert.Equal(t, 2, r.TopProducts[2].Qty)
	assert.Equal(t, int64(30000), r.TopProducts[2].RevenueCents)
	assert.Equal(t, int64(12000), r.TopProducts[2].ProfitCents)

	limited := Build(Input{Sales: sales, Window: domain.WindowDay, Now: now, Top: 1})
	require.Len(t, limited.TopProducts, 1)
	assert.Equal(t, "prod-cola", limited.TopProducts[0].ProductID)

	reversed := Build(Input{Sales: []domain.Sale{sales[1], sales[0]}, Window: domain.WindowDay, Now: now})
	assert.Equal(t, r.TopProducts, reversed.TopProducts)
}

func TestPaidDebtIsNotOutstanding(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	mixed := sale("s1", now, domain.PaymentMixed, false, withQty(bread, 2))
	mixed.CashCents = 40000
	mixed.CardCents = 30000
	mixed.DebtCents = 30000
	mixed.CustomerName = "Aida"
	settled := sale("s2", now, domain.PaymentDebt, true, withQty(cola, 1))

	r := Build(Input{Sales: []domain.Sale{mixed, settled}, Window: domain.WindowDay, Now: now})

	assert.Equal(t, int64(30000), r.OutstandingDebtCents)
	assert.Equal(t, 1, r.UnpaidDebts)
	assert.Equal(t, int64(40000), r.Tenders.CashCents)
	assert.Equal(t, int64(30000+25000), r.Tenders.DebtCents)
}

func TestBounds(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	now := time.Date(2026, 3, 4, 20, 30, 0, 0, time.UTC)

	from, to := Bounds(domain.WindowDay, now, jakarta)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, jakarta), from)
	assert.Equal(t, time.Date(2026, 3, 6, 0, 0, 0, 0, jakarta), to)

	from, to = Bounds(domain.WindowWeek, now, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), to)

	from, to = Bounds(domain.WindowMonth, now, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestValuation(t *testing.T) {
	v := Valuation([]domain.Product{
		{ID: "a", PriceCents: 25000, CostCents: 15000, Stock: 10},
		{ID: "b", PriceCents: 45000, CostCents: 30000, Stock: 4},
		{ID: "c", PriceCents: 10000, CostCents: 5000, Stock: 0},
	}, 5)

	assert.Equal(t, 3, v.Products)
	assert.Equal(t, 14, v.Units)
	assert.Equal(t, int64(150000+120000), v.AtCostCents)
	assert.Equal(t, int64(250000+180000), v.AtRetailCents)
	assert.Equal(t, 1, v.LowStock)
	assert.Equal(t, 1, v.OutOfStock)
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("")
	require.NoError(t, err)
	assert.Equal(t, domain.WindowDay, w)

	w, err = ParseWindow(" Month ")
	require.NoError(t, err)
	assert.Equal(t, domain.WindowMonth, w)

	_, err = ParseWindow("year")
	assert.Error(t, err)
}
