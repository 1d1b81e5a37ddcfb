package httpapi

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/money"
)

func reportToCSV(report domain.Report, exponent int32) string {
	amount := func(cents int64) string { return money.Decimal(cents, exponent) }
	count := func(n int) string { return strconv.Itoa(n) }
	rows := [][]string{
		{"section", "key", "value"},
		{"summary", "window", string(report.Window)},
		{"summary", "from", report.From.Format(time.RFC3339)},
		{"summary", "to", report.To.Format(time.RFC3339)},
		{"summary", "transactions", count(report.Transactions)},
		{"summary", "revenue", amount(report.RevenueCents)},
		{"summary", "profit", amount(report.ProfitCents)},
		{"summary", "average_ticket", amount(report.AverageTicketCents)},
		{"debt", "outstanding", amount(report.OutstandingDebtCents)},
		{"debt", "unpaid_sales", count(report.UnpaidDebts)},
		{"tender", "cash", amount(report.Tenders.CashCents)},
		{"tender", "card", amount(report.Tenders.CardCents)},
		{"tender", "debt", amount(report.Tenders.DebtCents)},
		{"tender", "change", amount(report.Tenders.ChangeCents)},
	}
	for _, method := range report.ByMethod {
		rows = append(rows,
			[]string{"method", string(method.Method) + "_transactions", count(method.Transactions)},
			[]string{"method", string(method.Method) + "_total", amount(method.TotalCents)},
		)
	}
	for _, product := range report.TopProducts {
		rows = append(rows,
			[]string{"top_product", product.Name + "_qty", count(product.Qty)},
			[]string{"top_product", product.Name + "_revenue", amount(product.RevenueCents)},
		)
	}
	for _, hour := range report.Hourly {
		if hour.Transactions == 0 {
			continue
		}
		rows = append(rows, []string{"hourly", fmt.Sprintf("%02d_revenue", hour.Hour), amount(hour.RevenueCents)})
	}
	rows = append(rows,
		[]string{"inventory", "units", count(report.Inventory.Units)},
		[]string{"inventory", "at_cost", amount(report.Inventory.AtCostCents)},
		[]string{"inventory", "at_retail", amount(report.Inventory.AtRetailCents)},
		[]string{"inventory", "low_stock", count(report.Inventory.LowStock)},
		[]string{"inventory", "out_of_stock", count(report.Inventory.OutOfStock)},
	)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.WriteAll(rows)
	return buf.String()
}

var reportHTMLTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"date": func(v any) string {
		if t, ok := v.(interface{ Format(string) string }); ok {
			return t.Format("2006-01-02 15:04")
		}
		return ""
	},
}).Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Sales Report ({{.Window}})</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    td.num { text-align: right; }
    h2, h3 { margin-bottom: 4px; }
  </style>
</head>
<body>
  <h2>Sales Report ({{.Window}})</h2>
  <p>{{date .From}} to {{date .To}}</p>
  <p>Transactions: {{.Transactions}} | Revenue: {{.Revenue}} | Profit: {{.Profit}} | Average ticket: {{.AverageTicket}}</p>
  <p>Outstanding debt: {{.Outstanding}} across {{.UnpaidDebts}} sale(s)</p>

  <h3>By Method</h3>
  <table>
    <thead><tr><th>Method</th><th>Transactions</th><th>Total</th></tr></thead>
    <tbody>{{range .Methods}}<tr><td>{{.Method}}</td><td class="num">{{.Transactions}}</td><td class="num">{{.Total}}</td></tr>{{end}}</tbody>
  </table>

  <h3>Top Products</h3>
  <table>
    <thead><tr><th>Product</th><th>Qty</th><th>Revenue</th><th>Profit</th></tr></thead>
    <tbody>{{range .Products}}<tr><td>{{.Name}}</td><td class="num">{{.Qty}}</td><td class="num">{{.Revenue}}</td><td class="num">{{.Profit}}</td></tr>{{end}}</tbody>
  </table>

  <h3>Inventory</h3>
  <p>Units: {{.Inventory.Units}} | At cost: {{.InventoryCost}} | At retail: {{.InventoryRetail}} | Low stock: {{.Inventory.LowStock}} | Out of stock: {{.Inventory.OutOfStock}}</p>
</body>
</html>
`))

type htmlMethodRow struct {
	Method       domain.PaymentMethod
	Transactions int
	Total        string
}

type htmlProductRow struct {
	Name    string
	Qty     int
	Revenue string
	Profit  string
}

type htmlReport struct {
	domain.Report
	Revenue         string
	Profit          string
	AverageTicket   string
	Outstanding     string
	InventoryCost   string
	InventoryRetail string
	Methods         []htmlMethodRow
	Products        []htmlProductRow
}

func reportToPrintableHTML(report domain.Report, label string, exponent int32) string {
	format := func(cents int64) string { return money.Format(cents, exponent, label) }
	view := htmlReport{
		Report:          report,
		Revenue:         format(report.RevenueCents),
		Profit:          format(report.ProfitCents),
		AverageTicket:   format(report.AverageTicketCents),
		Outstanding:     format(report.OutstandingDebtCents),
		InventoryCost:   format(report.Inventory.AtCostCents),
		InventoryRetail: format(report.Inventory.AtRetailCents),
	}
	for _, method := range report.ByMethod {
		view.Methods = append(view.Methods, htmlMethodRow{
			Method:       method.Method,
			Transactions: method.Transactions,
			Total:        format(method.TotalCents),
		})
	}
	for _, product := range report.TopProducts {
		view.Products = append(view.Products, htmlProductRow{
			Name:    product.Name,
			Qty:     product.Qty,
			Revenue: format(product.RevenueCents),
			Profit:  format(product.ProfitCents),
		})
	}

	var buf bytes.Buffer
	if err := reportHTMLTmpl.Execute(&buf, view); err != nil {
		return "<!doctype html><html><body><p>Report rendering error.</p></body></html>"
	}
	return buf.String()
}
