package service

import (
	"context"
	"fmt"
	"strings"

	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/store"
)

func (s *Service) Categories() []domain.Category {
	out := make([]domain.Category, len(domain.Categories))
	copy(out, domain.Categories)
	return out
}

func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.ProductView, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, persistence(err)
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	category := domain.Category(strings.ToLower(strings.TrimSpace(string(filter.Category))))
	if category != "" && !category.Valid() {
		return nil, invalid("unknown category %q", filter.Category)
	}

	views := make([]domain.ProductView, 0, len(products))
	for _, p := range products {
		if category != "" && p.Category != category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Barcode), query) {
			continue
		}
		views = append(views, domain.NewProductView(p))
	}
	return views, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.ProductView, error) {
	p, err := s.repo.GetProduct(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.ProductView{}, persistence(err)
	}
	return domain.NewProductView(*p), nil
}

func (s *Service) GetProductByBarcode(ctx context.Context, barcode string) (domain.ProductView, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return domain.ProductView{}, invalid("barcode is required")
	}
	p, err := s.repo.GetProductByBarcode(ctx, barcode)
	if err != nil {
		return domain.ProductView{}, persistence(err)
	}
	return domain.NewProductView(*p), nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if _, err := s.requireManager(ctx); err != nil {
		return domain.Product{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Barcode = strings.TrimSpace(req.Barcode)
	req.Category = domain.Category(strings.ToLower(strings.TrimSpace(string(req.Category))))
	if err := s.validateRequest(req); err != nil {
		return domain.Product{}, err
	}
	if !req.Category.Valid() {
		return domain.Product{}, invalid("unknown category %q", req.Category)
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		Name:       req.Name,
		PriceCents: req.PriceCents,
		CostCents:  req.CostCents,
		Category:   req.Category,
		Stock:      req.Stock,
		Barcode:    req.Barcode,
	})
	if err != nil {
		return domain.Product{}, persistence(err)
	}

	s.logger.Info().Str("product_id", created.ID).Str("name", created.Name).Msg("product created")
	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("name=%s,price=%d,stock=%d", created.Name, created.PriceCents, created.Stock))
	return *created, nil
}

// UpdateProduct applies a partial patch. Fields left nil keep their value; an
// empty barcode clears it.
func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if _, err := s.requireManager(ctx); err != nil {
		return domain.Product{}, err
	}
	if err := s.validateRequest(req); err != nil {
		return domain.Product{}, err
	}

	current, err := s.repo.GetProduct(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, persistence(err)
	}
	before := *current
	next := *current

	if req.Name != nil {
		next.Name = strings.TrimSpace(*req.Name)
		if next.Name == "" {
			return domain.Product{}, invalid("name must not be empty")
		}
	}
	if req.PriceCents != nil {
		next.PriceCents = *req.PriceCents
	}
	if req.CostCents != nil {
		next.CostCents = *req.CostCents
	}
	if req.Category != nil {
		next.Category = domain.Category(strings.ToLower(strings.TrimSpace(string(*req.Category))))
		if !next.Category.Valid() {
			return domain.Product{}, invalid("unknown category %q", *req.Category)
		}
	}
	if req.Stock != nil {
		next.Stock = *req.Stock
	}
	if req.Barcode != nil {
		next.Barcode = strings.TrimSpace(*req.Barcode)
	}

	updated, err := s.repo.UpdateProduct(ctx, next)
	if err != nil {
		return domain.Product{}, persistence(err)
	}

	s.logAudit(ctx, "product_update", "product", updated.ID, fmt.Sprintf("price=%d->%d,stock=%d->%d", before.PriceCents, updated.PriceCents, before.Stock, updated.Stock))
	return *updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if _, err := s.requireManager(ctx); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrNotFound
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return persistence(err)
	}

	s.logger.Info().Str("product_id", id).Msg("product deleted")
	s.logAudit(ctx, "product_delete", "product", id, "")
	return nil
}
