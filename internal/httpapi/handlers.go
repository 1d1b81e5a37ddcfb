package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/report"
	"kedaipos/backend/internal/service"
	"kedaipos/backend/internal/store"
)

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req domain.UnlockRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Unlock(req)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, errInvalidTerminal) {
			status = http.StatusBadRequest
		}
		a.writeError(w, status, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleCSRFToken returns a stateless token for the X-CSRF-Token header of
// mutating requests.
func (a *API) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": a.generateCSRFToken(),
	})
}

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": a.service.Categories()})
}

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.ListProducts(r.Context(), domain.ProductFilter{
		Category: domain.Category(r.URL.Query().Get("category")),
		Query:    r.URL.Query().Get("q"),
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := a.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (a *API) handleProductByBarcode(w http.ResponseWriter, r *http.Request) {
	product, err := a.service.GetProductByBarcode(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, err)
		return
	}
	product, err := a.service.CreateProduct(r.Context(), req)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, domain.NewProductView(product))
}

func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, err)
		return
	}
	product, err := a.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.NewProductView(product))
}

func (a *API) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) writeCart(w http.ResponseWriter, view domain.CartView, err error) {
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleGetCart(w http.ResponseWriter, r *http.Request) {
	view, err := a.service.Cart(r.Context())
	a.writeCart(w, view, err)
}

func (a *API) handleClearCart(w http.ResponseWriter, r *http.Request) {
	view, err := a.service.ClearCart(r.Context())
	a.writeCart(w, view, err)
}

func (a *API) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req domain.CartAddRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, err)
		return
	}
	view, err := a.service.AddToCart(r.Context(), req)
	a.writeCart(w, view, err)
}

func (a *API) handleScanToCart(w http.ResponseWriter, r *http.Request) {
	var req domain.CartScanRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, err)
		return
	}
	view, err := a.service.ScanToCart(r.Context(), req)
	a.writeCart(w, view, err)
}

func (a *API) handleSetCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req domain.CartQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, err)
		return
	}
	view, err := a.service.SetCartQuantity(r.Context(), chi.URLParam(r, "productID"), req.Qty)
	a.writeCart(w, view, err)
}

func (a *API) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	view, err := a.service.RemoveFromCart(r.Context(), chi.URLParam(r, "productID"))
	a.writeCart(w, view, err)
}

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, err)
		return
	}

	resp, err := a.service.Checkout(r.Context(), req)
	if err != nil {
		a.fail(w, err)
		return
	}

	status := http.StatusCreated
	if resp.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (a *API) handleListSales(w http.ResponseWriter, r *http.Request) {
	from, err := parseTimeParam(r.URL.Query().Get("from"))
	if err != nil {
		a.fail(w, err)
		return
	}
	to, err := parseTimeParam(r.URL.Query().Get("to"))
	if err != nil {
		a.fail(w, err)
		return
	}

	sales, err := a.service.ListSales(r.Context(), from, to)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
}

func (a *API) handleGetSale(w http.ResponseWriter, r *http.Request) {
	sale, err := a.service.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (a *API) handleSaleReceipt(w http.ResponseWriter, r *http.Request) {
	rec, err := a.service.SaleReceipt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) handleListDebts(w http.ResponseWriter, r *http.Request) {
	status, err := service.ParseDebtStatus(r.URL.Query().Get("status"))
	if err != nil {
		a.fail(w, err)
		return
	}
	debts, err := a.service.ListDebts(r.Context(), status)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, debts)
}

func (a *API) handlePayDebt(w http.ResponseWriter, r *http.Request) {
	sale, err := a.service.PayDebt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (a *API) handleReport(w http.ResponseWriter, r *http.Request) {
	window, err := report.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		a.fail(w, fmt.Errorf("%w: %v", store.ErrInvalidInput, err))
		return
	}
	top := parsePositiveLimit(r.URL.Query().Get("top"), report.DefaultTop, 50)

	rep, err := a.service.Report(r.Context(), window, top)
	if err != nil {
		a.fail(w, err)
		return
	}

	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))) {
	case "", "json":
		writeJSON(w, http.StatusOK, rep)
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=report-%s-%s.csv", rep.Window, rep.From.Format("2006-01-02")))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(reportToCSV(rep, a.opts.Exponent)))
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(reportToPrintableHTML(rep, a.opts.CurrencyLabel, a.opts.Exponent)))
	default:
		a.fail(w, fmt.Errorf("%w: format must be json, csv or html", store.ErrInvalidInput))
	}
}

func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	since, err := parseTimeParam(r.URL.Query().Get("since"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if since.IsZero() {
		since = time.Now().UTC().Add(-24 * time.Hour)
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)

	logs, err := a.service.ListAuditLogs(r.Context(), since, limit)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"audit_logs": logs})
}

// parseTimeParam accepts RFC3339 timestamps or plain dates (UTC midnight).
// An empty value is the zero time, which callers treat as an open bound.
func parseTimeParam(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), nil
	}
	if day, err := time.Parse("2006-01-02", raw); err == nil {
		return day.UTC(), nil
	}
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid time %q", store.ErrInvalidInput, raw)
}
