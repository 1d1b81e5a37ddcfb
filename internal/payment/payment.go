package payment

import (
	"fmt"
	"strings"

	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/store"
)

// Tender is one of Cash, Card, Debt or Mixed.
type Tender interface {
	Method() domain.PaymentMethod
	tender()
}

type Customer struct {
	Name  string
	Phone string
}

type Cash struct {
	ReceivedCents int64
}

type Card struct{}

type Debt struct {
	Customer Customer
}

// Mixed splits a sale across cash, card and debt. Portions are taken as
// entered; any amount above the total is returned as change out of the cash
// portion. Card and debt portions that alone exceed the total are rejected,
// since there is no cash to return the difference from.
type Mixed struct {
	CashCents int64
	CardCents int64
	DebtCents int64
	Customer  Customer
}

func (Cash) Method() domain.PaymentMethod  { return domain.PaymentCash }
func (Card) Method() domain.PaymentMethod  { return domain.PaymentCard }
func (Debt) Method() domain.PaymentMethod  { return domain.PaymentDebt }
func (Mixed) Method() domain.PaymentMethod { return domain.PaymentMixed }

func (Cash) tender()  {}
func (Card) tender()  {}
func (Debt) tender()  {}
func (Mixed) tender() {}

// MaxAmountCents bounds every tendered amount so sums of portions and ledger
// totals stay far from int64 overflow.
const MaxAmountCents int64 = 100_000_000_000_000

// ValidationError is a tender the cashier can correct. It matches
// store.ErrInvalidInput under errors.Is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid tender: " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return store.ErrInvalidInput
}

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// FromRequest converts the wire shape into a Tender, trimming customer fields.
// Amount checks that depend on the sale total are left to Allocate.
func FromRequest(req domain.TenderRequest) (Tender, error) {
	customer := Customer{
		Name:  strings.TrimSpace(req.CustomerName),
		Phone: strings.TrimSpace(req.CustomerPhone),
	}
	method := domain.PaymentMethod(strings.ToLower(strings.TrimSpace(string(req.Method))))

	switch method {
	case domain.PaymentCash:
		return Cash{ReceivedCents: req.CashReceivedCents}, nil
	case domain.PaymentCard:
		return Card{}, nil
	case domain.PaymentDebt:
		return Debt{Customer: customer}, nil
	case domain.PaymentMixed:
		return Mixed{
			CashCents: req.CashCents,
			CardCents: req.CardCents,
			DebtCents: req.DebtCents,
			Customer:  customer,
		}, nil
	default:
		return nil, invalid("unsupported payment method %q", req.Method)
	}
}

// Allocation is a validated tender applied to a total.
type Allocation struct {
	Method            domain.PaymentMethod
	TotalCents        int64
	CashReceivedCents int64
	ChangeCents       int64
	CashCents         int64
	CardCents         int64
	DebtCents         int64
	Customer          Customer
	Paid              bool
}

// Allocate validates t against total and computes change, applied portions
// and the paid flag. It has no side effects.
func Allocate(t Tender, total int64) (Allocation, error) {
	if total < 0 {
		return Allocation{}, invalid("negative total")
	}

	alloc := Allocation{TotalCents: total}
	switch t := t.(type) {
	case Cash:
		if t.ReceivedCents > MaxAmountCents {
			return Allocation{}, invalid("cash received exceeds %d", MaxAmountCents)
		}
		if t.ReceivedCents < total {
			return Allocation{}, invalid("cash received %d is less than total %d", t.ReceivedCents, total)
		}
		alloc.Method = domain.PaymentCash
		alloc.CashReceivedCents = t.ReceivedCents
		alloc.ChangeCents = t.ReceivedCents - total
		alloc.CashCents = total
	case Card:
		alloc.Method = domain.PaymentCard
		alloc.CardCents = total
	case Debt:
		if t.Customer.Name == "" {
			return Allocation{}, invalid("customer name is required for debt")
		}
		alloc.Method = domain.PaymentDebt
		alloc.DebtCents = total
		alloc.Customer = t.Customer
	case Mixed:
		if t.CashCents < 0 || t.CardCents < 0 || t.DebtCents < 0 {
			return Allocation{}, invalid("mixed portions must not be negative")
		}
		if t.CashCents > MaxAmountCents || t.CardCents > MaxAmountCents || t.DebtCents > MaxAmountCents {
			return Allocation{}, invalid("mixed portions must not exceed %d", MaxAmountCents)
		}
		covered := t.CashCents + t.CardCents + t.DebtCents
		if covered < total {
			return Allocation{}, invalid("mixed portions cover %d of total %d", covered, total)
		}
		if t.DebtCents > 0 && t.Customer.Name == "" {
			return Allocation{}, invalid("customer name is required for the debt portion")
		}
		change := covered - total
		if change > t.CashCents {
			return Allocation{}, invalid("card and debt portions exceed the total by %d", change-t.CashCents)
		}
		alloc.Method = domain.PaymentMixed
		alloc.CashReceivedCents = t.CashCents
		alloc.ChangeCents = change
		alloc.CashCents = t.CashCents - change
		alloc.CardCents = t.CardCents
		alloc.DebtCents = t.DebtCents
		if t.DebtCents > 0 {
			alloc.Customer = t.Customer
		}
	default:
		return Allocation{}, invalid("unsupported tender %T", t)
	}

	alloc.Paid = IsPaid(alloc.Method, alloc.DebtCents)
	return alloc, nil
}

// IsPaid is false only for debt sales and mixed sales with a debt portion.
func IsPaid(method domain.PaymentMethod, debtCents int64) bool {
	return method != domain.PaymentDebt && !(method == domain.PaymentMixed && debtCents > 0)
}

// Apply copies the tender breakdown onto a sale.
func (a Allocation) Apply(sale *domain.Sale) {
	sale.PaymentMethod = a.Method
	sale.CashReceivedCents = a.CashReceivedCents
	sale.ChangeCents = a.ChangeCents
	sale.CashCents = a.CashCents
	sale.CardCents = a.CardCents
	sale.DebtCents = a.DebtCents
	sale.CustomerName = a.Customer.Name
	sale.CustomerPhone = a.Customer.Phone
	sale.Paid = a.Paid
}
