package service

import (
	"context"
	"fmt"
	"strings"

	"kedaipos/backend/internal/cart"
	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/store"
)

func cartLockKey(terminalID string) string {
	return "cart:" + terminalID
}

// withCart runs fn on the terminal's cart under the terminal lock and saves
// the cart afterwards when fn succeeds.
func (s *Service) withCart(ctx context.Context, fn func(ctx context.Context, c *cart.Cart) error) (domain.CartView, error) {
	actor, err := s.requireSeller(ctx)
	if err != nil {
		return domain.CartView{}, err
	}

	var view domain.CartView
	err = s.locker.WithLock(ctx, cartLockKey(actor.TerminalID), s.settings.CartLockTTL, func(ctx context.Context) error {
		c, err := s.loadCart(ctx, actor.TerminalID)
		if err != nil {
			return err
		}
		if err := fn(ctx, c); err != nil {
			return err
		}
		if err := s.carts.Save(ctx, c); err != nil {
			return persistence(err)
		}
		view = c.View()
		return nil
	})
	if err != nil {
		return domain.CartView{}, err
	}
	return view, nil
}

func (s *Service) loadCart(ctx context.Context, terminalID string) (*cart.Cart, error) {
	c, ok, err := s.carts.Load(ctx, terminalID)
	if err != nil {
		return nil, persistence(err)
	}
	if !ok {
		c = cart.New(terminalID)
	}
	return c, nil
}

func (s *Service) Cart(ctx context.Context) (domain.CartView, error) {
	return s.withCart(ctx, func(context.Context, *cart.Cart) error { return nil })
}

func (s *Service) AddToCart(ctx context.Context, req domain.CartAddRequest) (domain.CartView, error) {
	req.ProductID = strings.TrimSpace(req.ProductID)
	if err := s.validateRequest(req); err != nil {
		return domain.CartView{}, err
	}
	return s.withCart(ctx, func(ctx context.Context, c *cart.Cart) error {
		p, err := s.repo.GetProduct(ctx, req.ProductID)
		if err != nil {
			return persistence(err)
		}
		return addInStock(c, *p)
	})
}

func (s *Service) ScanToCart(ctx context.Context, req domain.CartScanRequest) (domain.CartView, error) {
	req.Barcode = strings.TrimSpace(req.Barcode)
	if err := s.validateRequest(req); err != nil {
		return domain.CartView{}, err
	}
	return s.withCart(ctx, func(ctx context.Context, c *cart.Cart) error {
		p, err := s.repo.GetProductByBarcode(ctx, req.Barcode)
		if err != nil {
			return persistence(err)
		}
		return addInStock(c, *p)
	})
}

// addInStock refuses products with nothing on the shelf. Quantities above the
// remaining stock are still accepted here and rejected at checkout.
func addInStock(c *cart.Cart, p domain.Product) error {
	if p.Stock <= 0 {
		return fmt.Errorf("%w: %s is out of stock", store.ErrInsufficientStock, p.Name)
	}
	c.AddOrIncrement(p)
	return nil
}

func (s *Service) SetCartQuantity(ctx context.Context, productID string, qty int) (domain.CartView, error) {
	productID = strings.TrimSpace(productID)
	return s.withCart(ctx, func(_ context.Context, c *cart.Cart) error {
		if !c.SetQuantity(productID, qty) {
			return fmt.Errorf("%w: product %s is not in the cart", store.ErrNotFound, productID)
		}
		return nil
	})
}

func (s *Service) RemoveFromCart(ctx context.Context, productID string) (domain.CartView, error) {
	productID = strings.TrimSpace(productID)
	return s.withCart(ctx, func(_ context.Context, c *cart.Cart) error {
		c.Remove(productID)
		return nil
	})
}

func (s *Service) ClearCart(ctx context.Context) (domain.CartView, error) {
	return s.withCart(ctx, func(_ context.Context, c *cart.Cart) error {
		c.Clear()
		return nil
	})
}
