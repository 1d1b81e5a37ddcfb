package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/store"
	"kedaipos/backend/internal/xid"
)

type Store struct {
	mu               sync.RWMutex
	products         map[string]domain.Product
	productByBarcode map[string]string
	salesByID        map[string]*domain.Sale
	salesByCartID    map[string]*domain.Sale
	auditLogs        []domain.AuditLog
}

func New() *Store {
	return &Store{
		products:         make(map[string]domain.Product),
		productByBarcode: make(map[string]string),
		salesByID:        make(map[string]*domain.Sale),
		salesByCartID:    make(map[string]*domain.Sale),
		auditLogs:        make([]domain.AuditLog, 0, 128),
	}
}

// NewSeeded returns a store holding a small demo catalog.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()
	for _, p := range seedProducts() {
		p.CreatedAt = now
		p.UpdatedAt = now
		s.products[p.ID] = p
		if p.Barcode != "" {
			s.productByBarcode[p.Barcode] = p.ID
		}
	}
	return s
}

func seedProducts() []domain.Product {
	return []domain.Product{
		{ID: "prod-cola-05", Name: "Coca-Cola 0.5L", PriceCents: 25000, CostCents: 16000, Category: domain.CategoryDrinks, Stock: 50, Barcode: "5449000000996"},
		{ID: "prod-fanta-05", Name: "Fanta Orange 0.5L", PriceCents: 25000, CostCents: 16000, Category: domain.CategoryDrinks, Stock: 45, Barcode: "5449000131805"},
		{ID: "prod-water-05", Name: "Still Water 0.5L", PriceCents: 15000, CostCents: 7000, Category: domain.CategoryDrinks, Stock: 100, Barcode: "5449000000003"},
		{ID: "prod-juice-1l", Name: "Apple Juice 1L", PriceCents: 35000, CostCents: 24000, Category: domain.CategoryDrinks, Stock: 30, Barcode: "4600494000019"},
		{ID: "prod-sandwich-chicken", Name: "Chicken Sandwich", PriceCents: 45000, CostCents: 28000, Category: domain.CategoryFood, Stock: 15, Barcode: "FOOD001"},
		{ID: "prod-caesar", Name: "Caesar Salad", PriceCents: 55000, CostCents: 33000, Category: domain.CategoryFood, Stock: 8, Barcode: "FOOD003"},
		{ID: "prod-hotdog", Name: "Classic Hot Dog", PriceCents: 30000, CostCents: 17000, Category: domain.CategoryFood, Stock: 20, Barcode: "FOOD004"},
		{ID: "prod-chips", Name: "Potato Chips", PriceCents: 18000, CostCents: 11000, Category: domain.CategorySnacks, Stock: 60, Barcode: "5010477348678"},
		{ID: "prod-choco-bar", Name: "Chocolate Bar", PriceCents: 12000, CostCents: 7500, Category: domain.CategorySnacks, Stock: 80, Barcode: "5000159461122"},
		{ID: "prod-wafer", Name: "Wafer Bar", PriceCents: 10000, CostCents: 6000, Category: domain.CategorySnacks, Stock: 75, Barcode: "7613034626837"},
		{ID: "prod-milk-1l", Name: "Milk 1L", PriceCents: 12000, CostCents: 9000, Category: domain.CategoryDairy, Stock: 40, Barcode: "DAIRY001"},
		{ID: "prod-yogurt", Name: "Yogurt Cup", PriceCents: 9000, CostCents: 6000, Category: domain.CategoryDairy, Stock: 45, Barcode: "DAIRY002"},
		{ID: "prod-cheese-200", Name: "Gouda 200g", PriceCents: 45000, CostCents: 31000, Category: domain.CategoryDairy, Stock: 4, Barcode: "DAIRY003"},
		{ID: "prod-croissant", Name: "Croissant", PriceCents: 15000, CostCents: 8000, Category: domain.CategoryBakery, Stock: 25, Barcode: "BAKERY001"},
		{ID: "prod-donut", Name: "Glazed Donut", PriceCents: 10000, CostCents: 5000, Category: domain.CategoryBakery, Stock: 30, Barcode: "BAKERY002"},
		{ID: "prod-bread", Name: "White Bread", PriceCents: 8000, CostCents: 5000, Category: domain.CategoryBakery, Stock: 35, Barcode: "BAKERY004"},
	}
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Name == b.Name {
			return strings.Compare(a.ID, b.ID)
		}
		return strings.Compare(a.Name, b.Name)
	})

	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &product, nil
}

func (s *Store) GetProductByBarcode(_ context.Context, barcode string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.productByBarcode[barcode]
	if !ok || barcode == "" {
		return nil, store.ErrNotFound
	}
	product := s.products[id]
	return &product, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	if err := store.ValidateProduct(product); err != nil {
		return nil, err
	}
	if _, exists := s.products[product.ID]; exists {
		return nil, store.ErrConflict
	}
	if product.Barcode != "" {
		if _, taken := s.productByBarcode[product.Barcode]; taken {
			return nil, store.ErrConflict
		}
	}

	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	s.products[product.ID] = product
	if product.Barcode != "" {
		s.productByBarcode[product.Barcode] = product.ID
	}
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := store.ValidateProduct(product); err != nil {
		return nil, err
	}
	existing, exists := s.products[product.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if product.Barcode != "" && product.Barcode != existing.Barcode {
		if owner, taken := s.productByBarcode[product.Barcode]; taken && owner != product.ID {
			return nil, store.ErrConflict
		}
	}

	if existing.Barcode != "" && existing.Barcode != product.Barcode {
		delete(s.productByBarcode, existing.Barcode)
	}
	if product.Barcode != "" {
		s.productByBarcode[product.Barcode] = product.ID
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.products[id]
	if !exists {
		return store.ErrNotFound
	}
	if existing.Barcode != "" {
		delete(s.productByBarcode, existing.Barcode)
	}
	delete(s.products, id)
	return nil
}

// AppendSale checks every line against current stock before touching
// anything, so a rejected sale leaves products and ledger unchanged.
func (s *Store) AppendSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := store.ValidateSale(sale); err != nil {
		return nil, err
	}
	if _, exists := s.salesByID[sale.ID]; exists {
		return nil, store.ErrConflict
	}
	if _, exists := s.salesByCartID[sale.CartID]; exists {
		return nil, store.ErrConflict
	}

	demand := store.StockDemand(sale.Items)
	for productID, qty := range demand {
		product, exists := s.products[productID]
		if !exists {
			return nil, store.ErrNotFound
		}
		if product.Stock < qty {
			return nil, store.ErrInsufficientStock
		}
	}

	now := time.Now().UTC()
	for productID, qty := range demand {
		product := s.products[productID]
		product.Stock -= qty
		product.UpdatedAt = now
		s.products[productID] = product
	}

	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = now
	}
	stored := cloneSale(&sale)
	s.salesByID[sale.ID] = stored
	s.salesByCartID[sale.CartID] = stored

	return cloneSale(stored), nil
}

func (s *Store) FindSaleByID(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.salesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneSale(sale), nil
}

func (s *Store) FindSaleByCartID(_ context.Context, cartID string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.salesByCartID[cartID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneSale(sale), nil
}

func (s *Store) ListSales(_ context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Sale, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		if !from.IsZero() && sale.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !sale.CreatedAt.Before(to) {
			continue
		}
		result = append(result, *cloneSale(sale))
	}

	slices.SortFunc(result, func(a, b domain.Sale) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return result, nil
}

func (s *Store) MarkSalePaid(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.salesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	sale.Paid = true
	return cloneSale(sale), nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, 64)
	for _, entry := range s.auditLogs {
		if !from.IsZero() && entry.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
	}

	slices.SortFunc(result, func(a, b domain.AuditLog) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func cloneSale(src *domain.Sale) *domain.Sale {
	if src == nil {
		return nil
	}
	dup := *src
	dupItems := make([]domain.CartLine, len(src.Items))
	copy(dupItems, src.Items)
	dup.Items = dupItems
	return &dup
}
