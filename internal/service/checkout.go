package service

import (
	"context"
	"errors"
	"strings"

	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/payment"
	"kedaipos/backend/internal/receipt"
	"kedaipos/backend/internal/store"
	"kedaipos/backend/internal/xid"
)

// Checkout turns the terminal's cart into a sale. The sale append and the
// stock decrement are one store operation; the cart is only discarded after
// that operation succeeds, so any failure leaves cart and stock as they were.
//
// A request naming a cart id that already produced a sale returns that sale
// with Duplicate set instead of charging again.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	actor, err := s.requireSeller(ctx)
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	req.CartID = strings.TrimSpace(req.CartID)
	req.Method = domain.PaymentMethod(strings.ToLower(strings.TrimSpace(string(req.Method))))
	if err := s.validateRequest(req.TenderRequest); err != nil {
		s.metrics.Checkout(string(req.Method), "invalid")
		return domain.CheckoutResponse{}, err
	}
	tender, err := payment.FromRequest(req.TenderRequest)
	if err != nil {
		s.metrics.Checkout(string(req.Method), "invalid")
		return domain.CheckoutResponse{}, err
	}

	var resp domain.CheckoutResponse
	err = s.locker.WithLock(ctx, cartLockKey(actor.TerminalID), s.settings.CartLockTTL, func(ctx context.Context) error {
		if req.CartID != "" {
			existing, err := s.repo.FindSaleByCartID(ctx, req.CartID)
			if err == nil {
				resp = s.checkoutResponse(*existing, true)
				return nil
			}
			if !errors.Is(err, store.ErrNotFound) {
				return persistence(err)
			}
		}

		c, ok, err := s.carts.Load(ctx, actor.TerminalID)
		if err != nil {
			return persistence(err)
		}
		if !ok || c.Empty() {
			return invalid("cart is empty")
		}
		if req.CartID != "" && req.CartID != c.ID {
			return errors.Join(store.ErrConflict, errors.New("cart id does not match the active cart"))
		}

		// A committed sale whose cart cleanup failed.
		if existing, err := s.repo.FindSaleByCartID(ctx, c.ID); err == nil {
			s.discardCart(ctx, actor.TerminalID, existing.ID)
			resp = s.checkoutResponse(*existing, true)
			return nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return persistence(err)
		}

		total := c.Total()
		alloc, err := payment.Allocate(tender, total)
		if err != nil {
			return err
		}

		sale := domain.Sale{
			ID:         xid.New("sale"),
			CartID:     c.ID,
			TerminalID: actor.TerminalID,
			Items:      c.Snapshot(),
			TotalCents: total,
			CreatedAt:  s.now().UTC(),
		}
		alloc.Apply(&sale)

		saved, err := s.repo.AppendSale(ctx, sale)
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				if existing, findErr := s.repo.FindSaleByCartID(ctx, c.ID); findErr == nil {
					s.discardCart(ctx, actor.TerminalID, existing.ID)
					resp = s.checkoutResponse(*existing, true)
					return nil
				}
			}
			return persistence(err)
		}

		s.discardCart(ctx, actor.TerminalID, saved.ID)
		resp = s.checkoutResponse(*saved, false)
		return nil
	})
	if err != nil {
		s.metrics.Checkout(string(req.Method), checkoutResult(err))
		if errors.Is(err, store.ErrInsufficientStock) {
			s.metrics.StockRejected()
		}
		s.logger.Warn().Err(err).
			Str("terminal", actor.TerminalID).
			Str("method", string(req.Method)).
			Msg("checkout rejected")
		return domain.CheckoutResponse{}, err
	}

	if resp.Duplicate {
		s.metrics.Checkout(string(resp.Sale.PaymentMethod), "duplicate")
		s.logger.Info().Str("sale_id", resp.Sale.ID).Str("cart_id", resp.Sale.CartID).Msg("checkout replayed")
		return resp, nil
	}

	s.metrics.Checkout(string(resp.Sale.PaymentMethod), "ok")
	s.logger.Info().
		Str("sale_id", resp.Sale.ID).
		Str("terminal", actor.TerminalID).
		Str("method", string(resp.Sale.PaymentMethod)).
		Int64("total_cents", resp.Sale.TotalCents).
		Bool("paid", resp.Sale.Paid).
		Msg("checkout committed")
	s.logAudit(ctx, "checkout", "sale", resp.Sale.ID, "method="+string(resp.Sale.PaymentMethod))
	return resp, nil
}

func (s *Service) discardCart(ctx context.Context, terminalID string, saleID string) {
	if err := s.carts.Delete(ctx, terminalID); err != nil {
		s.logger.Warn().Err(err).
			Str("terminal", terminalID).
			Str("sale_id", saleID).
			Msg("sale committed but cart cleanup failed")
	}
}

func (s *Service) checkoutResponse(sale domain.Sale, duplicate bool) domain.CheckoutResponse {
	return domain.CheckoutResponse{
		Sale:      sale,
		Receipt:   receipt.Build(sale, s.receiptOptions()),
		Duplicate: duplicate,
	}
}

func checkoutResult(err error) string {
	switch {
	case errors.Is(err, store.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, store.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, store.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
