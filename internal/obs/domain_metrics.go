package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics counts sales activity. A nil *DomainMetrics is valid and
// records nothing, which keeps tests free of registry setup.
type DomainMetrics struct {
	CheckoutTotal        *prometheus.CounterVec
	DebtRepaidTotal      prometheus.Counter
	StockRejectionsTotal prometheus.Counter
}

func NewDomainMetrics(namespace string, reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &DomainMetrics{
		CheckoutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Checkout attempts by payment method and outcome.",
		}, []string{"method", "result"}),
		DebtRepaidTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debt_repaid_total",
			Help:      "Debt-bearing sales marked as paid.",
		}),
		StockRejectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_rejections_total",
			Help:      "Checkouts refused because stock ran out before commit.",
		}),
	}

	mustRegisterCollector(reg, m.CheckoutTotal, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.CheckoutTotal = v
		}
	})
	mustRegisterCollector(reg, m.DebtRepaidTotal, func(existing prometheus.Collector) {
		if v, ok := existing.(prometheus.Counter); ok {
			m.DebtRepaidTotal = v
		}
	})
	mustRegisterCollector(reg, m.StockRejectionsTotal, func(existing prometheus.Collector) {
		if v, ok := existing.(prometheus.Counter); ok {
			m.StockRejectionsTotal = v
		}
	})
	return m
}

func (m *DomainMetrics) Checkout(method string, result string) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	m.CheckoutTotal.WithLabelValues(method, result).Inc()
}

func (m *DomainMetrics) DebtRepaid() {
	if m == nil {
		return
	}
	m.DebtRepaidTotal.Inc()
}

func (m *DomainMetrics) StockRejected() {
	if m == nil {
		return
	}
	m.StockRejectionsTotal.Inc()
}
