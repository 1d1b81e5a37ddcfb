package cart

import (
	"time"

	"kedaipos/backend/internal/domain"
	"kedaipos/backend/internal/xid"
)

// Cart is the in-progress basket of one terminal. Lines keep insertion order
// and carry the product price captured when the line was first added.
//
// Stock is not checked here. AddOrIncrement callers are expected to refuse
// out-of-stock products, and the hard stock check happens when the sale is
// appended to the ledger.
type Cart struct {
	ID         string            `json:"id"`
	TerminalID string            `json:"terminal_id"`
	Lines      []domain.CartLine `json:"lines"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func New(terminalID string) *Cart {
	return &Cart{
		ID:         xid.New("cart"),
		TerminalID: terminalID,
		Lines:      make([]domain.CartLine, 0, 8),
		UpdatedAt:  time.Now().UTC(),
	}
}

// AddOrIncrement bumps the quantity of an existing line by one, or appends a
// new line with quantity one at the product's current price.
func (c *Cart) AddOrIncrement(p domain.Product) domain.CartLine {
	c.touch()
	if idx := c.index(p.ID); idx >= 0 {
		c.Lines[idx].Qty++
		return c.Lines[idx]
	}
	line := domain.CartLine{
		ProductID:  p.ID,
		Name:       p.Name,
		Category:   p.Category,
		Barcode:    p.Barcode,
		PriceCents: p.PriceCents,
		CostCents:  p.CostCents,
		Qty:        1,
	}
	c.Lines = append(c.Lines, line)
	return line
}

// SetQuantity overwrites a line's quantity. A quantity of zero or less
// removes the line. It reports false when there is no line for productID.
func (c *Cart) SetQuantity(productID string, qty int) bool {
	idx := c.index(productID)
	if idx < 0 {
		return false
	}
	if qty <= 0 {
		c.removeAt(idx)
		return true
	}
	c.touch()
	c.Lines[idx].Qty = qty
	return true
}

func (c *Cart) Remove(productID string) bool {
	idx := c.index(productID)
	if idx < 0 {
		return false
	}
	c.removeAt(idx)
	return true
}

func (c *Cart) Clear() {
	c.touch()
	c.Lines = c.Lines[:0]
}

func (c *Cart) Line(productID string) (domain.CartLine, bool) {
	idx := c.index(productID)
	if idx < 0 {
		return domain.CartLine{}, false
	}
	return c.Lines[idx], true
}

func (c *Cart) Total() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.SubtotalCents()
	}
	return total
}

func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Qty
	}
	return count
}

func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Snapshot returns a copy of the lines that later cart edits cannot reach.
func (c *Cart) Snapshot() []domain.CartLine {
	lines := make([]domain.CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return lines
}

func (c *Cart) View() domain.CartView {
	return domain.CartView{
		ID:         c.ID,
		TerminalID: c.TerminalID,
		Lines:      c.Snapshot(),
		ItemCount:  c.ItemCount(),
		TotalCents: c.Total(),
		UpdatedAt:  c.UpdatedAt,
	}
}

func (c *Cart) index(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(idx int) {
	c.touch()
	c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}
