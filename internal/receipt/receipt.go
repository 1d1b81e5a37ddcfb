// Package receipt renders a committed sale as printable text and as an
// ESC/POS byte stream for thermal printers.
package receipt

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/money"
)

const width = 32

var (
	escposInit = []byte{0x1b, 0x40}
	escposCut  = []byte{0x1d, 0x56, 0x41, 0x10}
)

type Options struct {
	StoreName     string
	CurrencyLabel string
	Exponent      int32
	Location      *time.Location
}

func Build(sale domain.Sale, opts Options) domain.Receipt {
	if opts.StoreName == "" {
		opts.StoreName = "Kedai POS"
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	amount := func(cents int64) string {
		return money.Format(cents, opts.Exponent, opts.CurrencyLabel)
	}

	rule := strings.Repeat("=", width)
	thin := strings.Repeat("-", width)
	lines := []string{
		opts.StoreName,
		rule,
		"Sale: " + sale.ID,
		"Terminal: " + sale.TerminalID,
		"Date: " + sale.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
		thin,
	}
	for _, item := range sale.Items {
		lines = append(lines, fmt.Sprintf("%s x%d", item.Name, item.Qty))
		lines = append(lines, "  "+amount(item.SubtotalCents()))
	}
	lines = append(lines,
		thin,
		row("Total", amount(sale.TotalCents)),
		row("Method", string(sale.PaymentMethod)),
	)

	switch sale.PaymentMethod {
	case domain.PaymentCash:
		lines = append(lines,
			row("Cash", amount(sale.CashReceivedCents)),
			row("Change", amount(sale.ChangeCents)),
		)
	case domain.PaymentCard:
		lines = append(lines, row("Card", amount(sale.CardCents)))
	case domain.PaymentDebt:
		lines = append(lines, row("Debt", amount(sale.TotalCents)))
	case domain.PaymentMixed:
		if sale.CashReceivedCents > 0 {
			lines = append(lines, row("Cash", amount(sale.CashReceivedCents)))
		}
		if sale.CardCents > 0 {
			lines = append(lines, row("Card", amount(sale.CardCents)))
		}
		if sale.DebtCents > 0 {
			lines = append(lines, row("Debt", amount(sale.DebtCents)))
		}
		if sale.ChangeCents > 0 {
			lines = append(lines, row("Change", amount(sale.ChangeCents)))
		}
	}
	if sale.HasDebt() {
		lines = append(lines, "Customer: "+sale.CustomerName)
		if sale.CustomerPhone != "" {
			lines = append(lines, "Phone: "+sale.CustomerPhone)
		}
	}

	status := "PAID"
	if !sale.Paid {
		status = "UNPAID"
	}
	lines = append(lines,
		row("Status", status),
		rule,
		"Thank you",
		"",
	)

	escpos := append([]byte{}, escposInit...)
	for _, line := range lines {
		escpos = append(escpos, []byte(line)...)
		escpos = append(escpos, '\n')
	}
	escpos = append(escpos, escposCut...)

	return domain.Receipt{
		SaleID:       sale.ID,
		Lines:        lines,
		PreviewText:  strings.Join(lines, "\n"),
		EscposBase64: base64.StdEncoding.EncodeToString(escpos),
		FileName:     fmt.Sprintf("receipt-%s.bin", sale.ID),
	}
}

func row(label string, value string) string {
	return fmt.Sprintf("%-8s: %s", label, value)
}
