// Package report derives sales and inventory figures from ledger and catalog
// snapshots. Nothing here touches storage; every report is recomputed from
// the inputs it is given.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"kedaipos/backend/internal/domain"
)

const DefaultTop = 5

type Input struct {
	Sales             []domain.Sale
	Products          []domain.Product
	Window            domain.ReportWindow
	Now               time.Time
	Location          *time.Location
	Top               int
	LowStockThreshold int
}

func ParseWindow(raw string) (domain.ReportWindow, error) {
	switch domain.ReportWindow(strings.ToLower(strings.TrimSpace(raw))) {
	case "", domain.WindowDay:
		return domain.WindowDay, nil
	case domain.WindowWeek:
		return domain.WindowWeek, nil
	case domain.WindowMonth:
		return domain.WindowMonth, nil
	default:
		return "", fmt.Errorf("unknown report window %q", raw)
	}
}

// Bounds returns the half-open [from, to) range of the calendar period that
// contains now: the day, the ISO week starting Monday, or the month.
func Bounds(window domain.ReportWindow, now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	switch window {
	case domain.WindowWeek:
		offset := (int(day.Weekday()) + 6) % 7
		from := day.AddDate(0, 0, -offset)
		return from, from.AddDate(0, 0, 7)
	case domain.WindowMonth:
		from := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 1, 0)
	default:
		return day, day.AddDate(0, 0, 1)
	}
}

// Build aggregates the sales inside the window. Top products rank by revenue,
// ties broken by the earliest sale that sold them.
func Build(in Input) domain.Report {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	window := in.Window
	if window == "" {
		window = domain.WindowDay
	}
	top := in.Top
	if top < 1 {
		top = DefaultTop
	}
	from, to := Bounds(window, now, loc)

	r := domain.Report{
		Window:      window,
		From:        from,
		To:          to,
		GeneratedAt: now.In(loc),
		ByMethod:    make([]domain.MethodTotal, len(domain.PaymentMethods)),
		TopProducts: []domain.ProductPerformance{},
		Hourly:      make([]domain.HourlyRevenue, 24),
	}
	methodIndex := make(map[domain.PaymentMethod]int, len(domain.PaymentMethods))
	for i, method := range domain.PaymentMethods {
		r.ByMethod[i] = domain.MethodTotal{Method: method}
		methodIndex[method] = i
	}
	for hour := range r.Hourly {
		r.Hourly[hour].Hour = hour
	}

	products := make([]domain.ProductPerformance, 0, 16)
	productIndex := make(map[string]int, 16)

	for _, sale := range inWindow(in.Sales, from, to) {
		r.Transactions++
		r.RevenueCents += sale.TotalCents

		createdAt := sale.CreatedAt.In(loc)
		if r.LastSaleAt == nil || createdAt.After(*r.LastSaleAt) {
			last := createdAt
			r.LastSaleAt = &last
		}
		r.Hourly[createdAt.Hour()].Transactions++
		r.Hourly[createdAt.Hour()].RevenueCents += sale.TotalCents

		if idx, ok := methodIndex[sale.PaymentMethod]; ok {
			r.ByMethod[idx].Transactions++
			r.ByMethod[idx].TotalCents += sale.TotalCents
		}
		r.Tenders.CashCents += sale.CashCents
		r.Tenders.CardCents += sale.CardCents
		r.Tenders.DebtCents += sale.DebtCents
		r.Tenders.ChangeCents += sale.ChangeCents

		if outstanding := sale.OutstandingCents(); outstanding > 0 {
			r.OutstandingDebtCents += outstanding
			r.UnpaidDebts++
		}

		for _, item := range sale.Items {
			revenue := item.SubtotalCents()
			cost := item.CostCents * int64(item.Qty)
			r.ProfitCents += revenue - cost

			idx, ok := productIndex[item.ProductID]
			if !ok {
				idx = len(products)
				productIndex[item.ProductID] = idx
				products = append(products, domain.ProductPerformance{ProductID: item.ProductID, Name: item.Name})
			}
			products[idx].Qty += item.Qty
			products[idx].RevenueCents += revenue
			products[idx].CostCents += cost
			products[idx].ProfitCents += revenue - cost
		}
	}

	if r.Transactions > 0 {
		r.AverageTicketCents = r.RevenueCents / int64(r.Transactions)
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].RevenueCents > products[j].RevenueCents
	})
	if len(products) > top {
		products = products[:top]
	}
	r.TopProducts = products

	r.Inventory = Valuation(in.Products, in.LowStockThreshold)
	return r
}

// Valuation sums the current catalog at cost and at retail.
func Valuation(products []domain.Product, lowStockThreshold int) domain.InventoryValuation {
	if lowStockThreshold < 1 {
		lowStockThreshold = domain.LowStockThreshold
	}

	var v domain.InventoryValuation
	for _, p := range products {
		v.Products++
		v.Units += p.Stock
		v.AtCostCents += p.CostCents * int64(p.Stock)
		v.AtRetailCents += p.PriceCents * int64(p.Stock)
		switch {
		case p.Stock <= 0:
			v.OutOfStock++
		case p.Stock <= lowStockThreshold:
			v.LowStock++
		}
	}
	return v
}

// inWindow returns the sales inside [from, to) oldest first, so products
// tied on revenue rank by the sale that first sold them.
func inWindow(sales []domain.Sale, from time.Time, to time.Time) []domain.Sale {
	out := make([]domain.Sale, 0, len(sales))
	for _, sale := range sales {
		if sale.CreatedAt.Before(from) || !sale.CreatedAt.Before(to) {
			continue
		}
		out = append(out, sale)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
