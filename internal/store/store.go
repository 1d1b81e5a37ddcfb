package store

import (
	"context"
	"errors"
	"time"

	"kedaipos/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
)

// Repository is the persistent catalog, sale ledger and audit trail.
//
// AppendSale is the only write that touches both products and sales: it
// records the sale and decrements stock for every line as one unit, failing
// with ErrInsufficientStock (and no effect) when any product would go
// negative. A sale's items, total and tender fields never change after
// AppendSale; MarkSalePaid only flips paid from false to true.
type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	AppendSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	FindSaleByID(ctx context.Context, id string) (*domain.Sale, error)
	FindSaleByCartID(ctx context.Context, cartID string) (*domain.Sale, error)
	// ListSales returns sales with from <= created_at < to, newest first.
	// A zero bound is open.
	ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error)
	MarkSalePaid(ctx context.Context, id string) (*domain.Sale, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)
}

// StockDemand sums line quantities per product id.
func StockDemand(items []domain.CartLine) map[string]int {
	demand := make(map[string]int, len(items))
	for _, item := range items {
		demand[item.ProductID] += item.Qty
	}
	return demand
}

// ValidateSale checks the shape every store enforces before writing a sale.
func ValidateSale(sale domain.Sale) error {
	if sale.ID == "" || sale.CartID == "" || len(sale.Items) == 0 {
		return ErrInvalidInput
	}
	var total int64
	for _, item := range sale.Items {
		if item.ProductID == "" || item.Qty < 1 || item.PriceCents < 0 {
			return ErrInvalidInput
		}
		total += item.SubtotalCents()
	}
	if total != sale.TotalCents {
		return ErrInvalidInput
	}
	return nil
}

// ValidateProduct checks the invariants stores enforce on every product write.
func ValidateProduct(p domain.Product) error {
	if p.ID == "" || p.Name == "" || !p.Category.Valid() {
		return ErrInvalidInput
	}
	if p.PriceCents < 0 || p.CostCents < 0 || p.Stock < 0 {
		return ErrInvalidInput
	}
	return nil
}
