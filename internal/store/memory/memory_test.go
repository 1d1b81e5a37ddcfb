package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/store"
)

func testSale(id string, cartID string, lines ...domain.CartLine) domain.Sale {
	var total int64
	for _, l := range lines {
		total += l.SubtotalCents()
	}
	return domain.Sale{
		ID:            id,
		CartID:        cartID,
		TerminalID:    "terminal-1",
		Items:         lines,
		TotalCents:    total,
		PaymentMethod: domain.PaymentCard,
		CardCents:     total,
		Paid:          true,
	}
}

func line(p domain.Product, qty int) domain.CartLine {
	return domain.CartLine{ProductID: p.ID, Name: p.Name, Category: p.Category, PriceCents: p.PriceCents, CostCents: p.CostCents, Qty: qty}
}

func TestListProductsOrderedByName(t *testing.T) {
	s := NewSeeded()
	products, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, products)

	for i := 1; i < len(products); i++ {
		assert.LessOrEqual(t, products[i-1].Name, products[i].Name)
	}
}

func TestBarcodeLookupAndUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.CreateProduct(ctx, domain.Product{Name: "Tea", PriceCents: 200, Category: domain.CategoryDrinks, Stock: 3, Barcode: "TEA-1"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	found, err := s.GetProductByBarcode(ctx, "TEA-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = s.GetProductByBarcode(ctx, "tea-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.CreateProduct(ctx, domain.Product{Name: "Other", PriceCents: 100, Category: domain.CategoryDrinks, Barcode: "TEA-1"})
	assert.ErrorIs(t, err, store.ErrConflict)

	created.Barcode = "TEA-2"
	_, err = s.UpdateProduct(ctx, *created)
	require.NoError(t, err)
	_, err = s.GetProductByBarcode(ctx, "TEA-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.DeleteProduct(ctx, created.ID))
	_, err = s.GetProductByBarcode(ctx, "TEA-2")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteProduct(ctx, created.ID), store.ErrNotFound)
}

func TestCreateProductRejectsNegativeStock(t *testing.T) {
	_, err := New().CreateProduct(context.Background(), domain.Product{Name: "Bad", PriceCents: 100, Category: domain.CategoryFood, Stock: -1})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestAppendSaleDecrementsStockAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()
	cola, err := s.GetProduct(ctx, "prod-cola-05")
	require.NoError(t, err)

	sale := testSale("sale-1", "cart-1", line(*cola, 3))
	stored, err := s.AppendSale(ctx, sale)
	require.NoError(t, err)
	assert.False(t, stored.CreatedAt.IsZero())

	after, err := s.GetProduct(ctx, cola.ID)
	require.NoError(t, err)
	assert.Equal(t, cola.Stock-3, after.Stock)

	listed, err := s.ListSales(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, sale.Items, listed[0].Items)
	assert.Equal(t, sale.TotalCents, listed[0].TotalCents)
	assert.Equal(t, sale.PaymentMethod, listed[0].PaymentMethod)
	assert.Equal(t, sale.CardCents, listed[0].CardCents)

	byCart, err := s.FindSaleByCartID(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, "sale-1", byCart.ID)
}

func TestAppendSaleIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()
	cola, _ := s.GetProduct(ctx, "prod-cola-05")
	cheese, _ := s.GetProduct(ctx, "prod-cheese-200")

	_, err := s.AppendSale(ctx, testSale("sale-1", "cart-1", line(*cola, 2), line(*cheese, cheese.Stock+1)))
	require.ErrorIs(t, err, store.ErrInsufficientStock)

	colaAfter, _ := s.GetProduct(ctx, cola.ID)
	assert.Equal(t, cola.Stock, colaAfter.Stock)
	_, err = s.FindSaleByID(ctx, "sale-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAppendSaleSumsDuplicateLinesAgainstStock(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()
	cheese, _ := s.GetProduct(ctx, "prod-cheese-200")

	half := cheese.Stock/2 + 1
	_, err := s.AppendSale(ctx, testSale("sale-1", "cart-1", line(*cheese, half), line(*cheese, half)))
	assert.ErrorIs(t, err, store.ErrInsufficientStock)
}

func TestAppendSaleRejectsReusedCart(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()
	cola, _ := s.GetProduct(ctx, "prod-cola-05")

	_, err := s.AppendSale(ctx, testSale("sale-1", "cart-1", line(*cola, 1)))
	require.NoError(t, err)
	_, err = s.AppendSale(ctx, testSale("sale-2", "cart-1", line(*cola, 1)))
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestAppendSaleRejectsMismatchedTotal(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()
	cola, _ := s.GetProduct(ctx, "prod-cola-05")

	sale := testSale("sale-1", "cart-1", line(*cola, 1))
	sale.TotalCents++
	_, err := s.AppendSale(ctx, sale)
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()
	cheese, _ := s.GetProduct(ctx, "prod-cheese-200")

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("%02d", i)
			if _, err := s.AppendSale(ctx, testSale("sale-"+id, "cart-"+id, line(*cheese, 1))); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	after, _ := s.GetProduct(ctx, cheese.ID)
	assert.Equal(t, cheese.Stock, succeeded)
	assert.Equal(t, 0, after.Stock)
}

func TestMarkSalePaidIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()
	cola, _ := s.GetProduct(ctx, "prod-cola-05")

	sale := testSale("sale-1", "cart-1", line(*cola, 1))
	sale.PaymentMethod = domain.PaymentDebt
	sale.CardCents = 0
	sale.DebtCents = sale.TotalCents
	sale.CustomerName = "Aida"
	sale.Paid = false
	created, err := s.AppendSale(ctx, sale)
	require.NoError(t, err)

	first, err := s.MarkSalePaid(ctx, "sale-1")
	require.NoError(t, err)
	second, err := s.MarkSalePaid(ctx, "sale-1")
	require.NoError(t, err)

	assert.True(t, first.Paid)
	assert.Equal(t, first, second)
	created.Paid = true
	assert.Equal(t, created, second)

	_, err = s.MarkSalePaid(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListSalesRangeAndOrder(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()
	cola, _ := s.GetProduct(ctx, "prod-cola-05")
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i, offset := range []time.Duration{0, time.Hour, 2 * time.Hour} {
		sale := testSale("sale-"+string(rune('a'+i)), "cart-"+string(rune('a'+i)), line(*cola, 1))
		sale.CreatedAt = base.Add(offset)
		_, err := s.AppendSale(ctx, sale)
		require.NoError(t, err)
	}

	all, err := s.ListSales(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "sale-c", all[0].ID)
	assert.Equal(t, "sale-a", all[2].ID)

	window, err := s.ListSales(ctx, base.Add(30*time.Minute), base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "sale-b", window[0].ID)
}
