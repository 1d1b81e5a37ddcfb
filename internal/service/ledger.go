package service

import (
	"context"
	"strings"
	"time"

	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/receipt"
)

// ListSales returns sales in [from, to), newest first. Zero bounds are open.
func (s *Service) ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	if _, err := s.requireSeller(ctx); err != nil {
		return nil, err
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return nil, invalid("from must be before to")
	}
	sales, err := s.repo.ListSales(ctx, from, to)
	if err != nil {
		return nil, persistence(err)
	}
	return sales, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	if _, err := s.requireSeller(ctx); err != nil {
		return domain.Sale{}, err
	}
	sale, err := s.repo.FindSaleByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Sale{}, persistence(err)
	}
	return *sale, nil
}

func (s *Service) SaleReceipt(ctx context.Context, id string) (domain.Receipt, error) {
	sale, err := s.GetSale(ctx, id)
	if err != nil {
		return domain.Receipt{}, err
	}
	return receipt.Build(sale, s.receiptOptions()), nil
}

func ParseDebtStatus(raw string) (domain.DebtStatus, error) {
	switch domain.DebtStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case "", domain.DebtUnpaid:
		return domain.DebtUnpaid, nil
	case domain.DebtPaid:
		return domain.DebtPaid, nil
	case domain.DebtAll:
		return domain.DebtAll, nil
	default:
		return "", invalid("unknown debt status %q", raw)
	}
}

// ListDebts returns debt-bearing sales across the whole ledger. The
// outstanding total only counts unpaid sales.
func (s *Service) ListDebts(ctx context.Context, status domain.DebtStatus) (domain.DebtListResponse, error) {
	if _, err := s.requireSeller(ctx); err != nil {
		return domain.DebtListResponse{}, err
	}
	if status == "" {
		status = domain.DebtUnpaid
	}

	sales, err := s.repo.ListSales(ctx, time.Time{}, time.Time{})
	if err != nil {
		return domain.DebtListResponse{}, persistence(err)
	}

	resp := domain.DebtListResponse{Status: status, Debts: make([]domain.Sale, 0, 16)}
	for _, sale := range sales {
		if !sale.HasDebt() {
			continue
		}
		resp.TotalOutstandingCents += sale.OutstandingCents()
		switch {
		case status == domain.DebtUnpaid && sale.Paid:
			continue
		case status == domain.DebtPaid && !sale.Paid:
			continue
		}
		resp.Debts = append(resp.Debts, sale)
	}
	return resp, nil
}

// PayDebt settles a debt-bearing sale. Paying an already settled sale returns
// it unchanged.
func (s *Service) PayDebt(ctx context.Context, id string) (domain.Sale, error) {
	if _, err := s.requireManager(ctx); err != nil {
		return domain.Sale{}, err
	}

	id = strings.TrimSpace(id)
	sale, err := s.repo.FindSaleByID(ctx, id)
	if err != nil {
		return domain.Sale{}, persistence(err)
	}
	if !sale.HasDebt() {
		return domain.Sale{}, invalid("sale %s has no debt portion", id)
	}
	if sale.Paid {
		return *sale, nil
	}

	outstanding := sale.OutstandingCents()
	paid, err := s.repo.MarkSalePaid(ctx, id)
	if err != nil {
		return domain.Sale{}, persistence(err)
	}

	s.metrics.DebtRepaid()
	s.logger.Info().
		Str("sale_id", paid.ID).
		Str("customer", paid.CustomerName).
		Int64("amount_cents", outstanding).
		Msg("debt repaid")
	s.logAudit(ctx, "debt_repay", "sale", paid.ID, "customer="+paid.CustomerName)
	return *paid, nil
}
