package domain

import "time"

type Category string

const (
	CategoryDrinks Category = "drinks"
	CategoryFood   Category = "food"
	CategorySnacks Category = "snacks"
	CategoryDairy  Category = "dairy"
	CategoryBakery Category = "bakery"
	CategoryOther  Category = "other"
)

// Categories is the fixed catalog category set in display order.
var Categories = []Category{
	CategoryDrinks,
	CategoryFood,
	CategorySnacks,
	CategoryDairy,
	CategoryBakery,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	CostCents  int64     `json:"cost_cents"`
	Category   Category  `json:"category"`
	Stock      int       `json:"stock"`
	Barcode    string    `json:"barcode,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type StockLevel string

const (
	StockOut    StockLevel = "out"
	StockLow    StockLevel = "low"
	StockMedium StockLevel = "medium"
	StockOK     StockLevel = "ok"
)

const (
	LowStockThreshold    = 5
	MediumStockThreshold = 20
)

func StockLevelOf(stock int) StockLevel {
	switch {
	case stock <= 0:
		return StockOut
	case stock <= LowStockThreshold:
		return StockLow
	case stock <= MediumStockThreshold:
		return StockMedium
	default:
		return StockOK
	}
}

type ProductView struct {
	Product
	StockLevel StockLevel `json:"stock_level"`
}

func NewProductView(p Product) ProductView {
	return ProductView{Product: p, StockLevel: StockLevelOf(p.Stock)}
}

type ProductCreateRequest struct {
	Name       string   `json:"name" validate:"required,max=120"`
	PriceCents int64    `json:"price_cents" validate:"gt=0"`
	CostCents  int64    `json:"cost_cents" validate:"gte=0"`
	Category   Category `json:"category" validate:"required"`
	Stock      int      `json:"stock" validate:"gte=0"`
	Barcode    string   `json:"barcode,omitempty" validate:"omitempty,max=64"`
}

type ProductUpdateRequest struct {
	Name       *string   `json:"name,omitempty" validate:"omitempty,max=120"`
	PriceCents *int64    `json:"price_cents,omitempty" validate:"omitempty,gt=0"`
	CostCents  *int64    `json:"cost_cents,omitempty" validate:"omitempty,gte=0"`
	Category   *Category `json:"category,omitempty"`
	Stock      *int      `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Barcode    *string   `json:"barcode,omitempty" validate:"omitempty,max=64"`
}

type ProductFilter struct {
	Category Category
	Query    string
}

// CartLine is a product captured at add time. Sales keep the same shape as
// their immutable item snapshot.
type CartLine struct {
	ProductID  string   `json:"product_id"`
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	Barcode    string   `json:"barcode,omitempty"`
	PriceCents int64    `json:"price_cents"`
	CostCents  int64    `json:"cost_cents"`
	Qty        int      `json:"qty"`
}

func (l CartLine) SubtotalCents() int64 {
	return l.PriceCents * int64(l.Qty)
}

type CartView struct {
	ID         string     `json:"id"`
	TerminalID string     `json:"terminal_id"`
	Lines      []CartLine `json:"lines"`
	ItemCount  int        `json:"item_count"`
	TotalCents int64      `json:"total_cents"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type CartAddRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

type CartScanRequest struct {
	Barcode string `json:"barcode" validate:"required,max=64"`
}

type CartQuantityRequest struct {
	Qty int `json:"qty"`
}

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentCard  PaymentMethod = "card"
	PaymentDebt  PaymentMethod = "debt"
	PaymentMixed PaymentMethod = "mixed"
)

var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentDebt, PaymentMixed}

// TenderRequest is the wire shape of a tender. Which fields are read depends
// on Method: cash reads CashReceivedCents, mixed reads the three portions,
// debt and mixed read the customer fields.
type TenderRequest struct {
	Method            PaymentMethod `json:"method" validate:"required,oneof=cash card debt mixed"`
	CashReceivedCents int64         `json:"cash_received_cents" validate:"gte=0,lte=100000000000000"`
	CashCents         int64         `json:"cash_cents" validate:"gte=0,lte=100000000000000"`
	CardCents         int64         `json:"card_cents" validate:"gte=0,lte=100000000000000"`
	DebtCents         int64         `json:"debt_cents" validate:"gte=0,lte=100000000000000"`
	CustomerName      string        `json:"customer_name,omitempty" validate:"max=120"`
	CustomerPhone     string        `json:"customer_phone,omitempty" validate:"max=32"`
}

type CheckoutRequest struct {
	CartID string `json:"cart_id,omitempty"`
	TenderRequest
}

type Sale struct {
	ID                string        `json:"id"`
	CartID            string        `json:"cart_id"`
	TerminalID        string        `json:"terminal_id"`
	Items             []CartLine    `json:"items"`
	TotalCents        int64         `json:"total_cents"`
	PaymentMethod     PaymentMethod `json:"payment_method"`
	CashReceivedCents int64         `json:"cash_received_cents"`
	ChangeCents       int64         `json:"change_cents"`
	CashCents         int64         `json:"cash_cents"`
	CardCents         int64         `json:"card_cents"`
	DebtCents         int64         `json:"debt_cents"`
	CustomerName      string        `json:"customer_name,omitempty"`
	CustomerPhone     string        `json:"customer_phone,omitempty"`
	Paid              bool          `json:"paid"`
	CreatedAt         time.Time     `json:"created_at"`
}

// HasDebt reports whether any part of the sale was deferred.
func (s Sale) HasDebt() bool {
	return s.PaymentMethod == PaymentDebt || (s.PaymentMethod == PaymentMixed && s.DebtCents > 0)
}

// OutstandingCents is what the customer still owes on this sale.
func (s Sale) OutstandingCents() int64 {
	if s.Paid || !s.HasDebt() {
		return 0
	}
	if s.PaymentMethod == PaymentDebt {
		return s.TotalCents
	}
	return s.DebtCents
}

func (s Sale) ItemCount() int {
	count := 0
	for _, item := range s.Items {
		count += item.Qty
	}
	return count
}

type Receipt struct {
	SaleID       string   `json:"sale_id"`
	Lines        []string `json:"lines"`
	PreviewText  string   `json:"preview_text"`
	EscposBase64 string   `json:"escpos_base64"`
	FileName     string   `json:"file_name"`
}

type CheckoutResponse struct {
	Sale      Sale    `json:"sale"`
	Receipt   Receipt `json:"receipt"`
	Duplicate bool    `json:"duplicate"`
}

type DebtStatus string

const (
	DebtUnpaid DebtStatus = "unpaid"
	DebtPaid   DebtStatus = "paid"
	DebtAll    DebtStatus = "all"
)

type DebtListResponse struct {
	Status                DebtStatus `json:"status"`
	Debts                 []Sale     `json:"debts"`
	TotalOutstandingCents int64      `json:"total_outstanding_cents"`
}

type ReportWindow string

const (
	WindowDay   ReportWindow = "day"
	WindowWeek  ReportWindow = "week"
	WindowMonth ReportWindow = "month"
)

type MethodTotal struct {
	Method       PaymentMethod `json:"method"`
	Transactions int           `json:"transactions"`
	TotalCents   int64         `json:"total_cents"`
}

type TenderTotals struct {
	CashCents   int64 `json:"cash_cents"`
	CardCents   int64 `json:"card_cents"`
	DebtCents   int64 `json:"debt_cents"`
	ChangeCents int64 `json:"change_cents"`
}

type ProductPerformance struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	Qty          int    `json:"qty"`
	RevenueCents int64  `json:"revenue_cents"`
	CostCents    int64  `json:"cost_cents"`
	ProfitCents  int64  `json:"profit_cents"`
}

type HourlyRevenue struct {
	Hour         int   `json:"hour"`
	Transactions int   `json:"transactions"`
	RevenueCents int64 `json:"revenue_cents"`
}

type InventoryValuation struct {
	Products      int   `json:"products"`
	Units         int   `json:"units"`
	AtCostCents   int64 `json:"at_cost_cents"`
	AtRetailCents int64 `json:"at_retail_cents"`
	LowStock      int   `json:"low_stock"`
	OutOfStock    int   `json:"out_of_stock"`
}

type Report struct {
	Window               ReportWindow         `json:"window"`
	From                 time.Time            `json:"from"`
	To                   time.Time            `json:"to"`
	GeneratedAt          time.Time            `json:"generated_at"`
	Transactions         int                  `json:"transactions"`
	RevenueCents         int64                `json:"revenue_cents"`
	ProfitCents          int64                `json:"profit_cents"`
	AverageTicketCents   int64                `json:"average_ticket_cents"`
	LastSaleAt           *time.Time           `json:"last_sale_at,omitempty"`
	ByMethod             []MethodTotal        `json:"by_method"`
	Tenders              TenderTotals         `json:"tenders"`
	OutstandingDebtCents int64                `json:"outstanding_debt_cents"`
	UnpaidDebts          int                  `json:"unpaid_debts"`
	TopProducts          []ProductPerformance `json:"top_products"`
	Hourly               []HourlyRevenue      `json:"hourly"`
	Inventory            InventoryValuation   `json:"inventory"`
}

const (
	RoleCashier = "cashier"
	RoleManager = "manager"
)

type Actor struct {
	TerminalID string
	Role       string
}

type UnlockRequest struct {
	PIN        string `json:"pin"`
	TerminalID string `json:"terminal_id"`
}

type UnlockResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	TerminalID  string `json:"terminal_id"`
	ExpiresAt   string `json:"expires_at"`
}

type AuditLog struct {
	ID         string    `json:"id"`
	TerminalID string    `json:"terminal_id"`
	ActorRole  string    `json:"actor_role"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}
