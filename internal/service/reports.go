package service

import (
	"context"
	"time"

	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/report"
)

func (s *Service) Report(ctx context.Context, window domain.ReportWindow, top int) (domain.Report, error) {
	if _, err := s.requireManager(ctx); err != nil {
		return domain.Report{}, err
	}

	now := s.now()
	from, to := report.Bounds(window, now, s.settings.Location)
	sales, err := s.repo.ListSales(ctx, from, to)
	if err != nil {
		return domain.Report{}, persistence(err)
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.Report{}, persistence(err)
	}

	return report.Build(report.Input{
		Sales:             sales,
		Products:          products,
		Window:            window,
		Now:               now,
		Location:          s.settings.Location,
		Top:               top,
		LowStockThreshold: s.settings.LowStockThreshold,
	}), nil
}

func (s *Service) ListAuditLogs(ctx context.Context, since time.Time, limit int) ([]domain.AuditLog, error) {
	if _, err := s.requireManager(ctx); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	logs, err := s.repo.ListAuditLogs(ctx, since, time.Time{}, limit)
	if err != nil {
		return nil, persistence(err)
	}
	return logs, nil
}
