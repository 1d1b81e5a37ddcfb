package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kedaipos/backend/internal/domain"
)

func product(id string, price int64) domain.Product {
	return domain.Product{ID: id, Name: "Product " + id, PriceCents: price, CostCents: price / 2, Category: domain.CategorySnacks, Stock: 10}
}

func TestTotalMatchesSumOfLines(t *testing.T) {
	c := New("terminal-1")
	a := product("a", 250)
	b := product("b", 150)

	c.AddOrIncrement(a)
	c.AddOrIncrement(a)
	c.AddOrIncrement(b)

	require.Len(t, c.Lines, 2)
	assert.Equal(t, int64(650), c.Total())
	assert.Equal(t, 3, c.ItemCount())

	var sum int64
	for _, line := range c.Lines {
		sum += line.PriceCents * int64(line.Qty)
	}
	assert.Equal(t, sum, c.Total())
}

func TestAddOrIncrementKeepsCapturedPrice(t *testing.T) {
	c := New("terminal-1")
	p := product("a", 250)
	c.AddOrIncrement(p)

	p.PriceCents = 999
	line := c.AddOrIncrement(p)

	assert.Equal(t, 2, line.Qty)
	assert.Equal(t, int64(250), line.PriceCents)
	assert.Equal(t, int64(500), c.Total())
}

func TestSetQuantity(t *testing.T) {
	c := New("terminal-1")
	c.AddOrIncrement(product("a", 100))
	c.AddOrIncrement(product("b", 200))

	require.True(t, c.SetQuantity("a", 7))
	line, ok := c.Line("a")
	require.True(t, ok)
	assert.Equal(t, 7, line.Qty)

	require.True(t, c.SetQuantity("b", 0))
	_, ok = c.Line("b")
	assert.False(t, ok)

	require.True(t, c.SetQuantity("a", -3))
	assert.True(t, c.Empty())

	assert.False(t, c.SetQuantity("missing", 2))
}

func TestRemoveAndClear(t *testing.T) {
	c := New("terminal-1")
	c.AddOrIncrement(product("a", 100))
	c.AddOrIncrement(product("b", 200))
	c.AddOrIncrement(product("c", 300))

	assert.False(t, c.Remove("missing"))
	require.True(t, c.Remove("b"))
	require.Len(t, c.Lines, 2)
	assert.Equal(t, "a", c.Lines[0].ProductID)
	assert.Equal(t, "c", c.Lines[1].ProductID)

	id := c.ID
	c.Clear()
	assert.True(t, c.Empty())
	assert.Equal(t, int64(0), c.Total())
	assert.Equal(t, id, c.ID)
}

func TestSnapshotIsDetached(t *testing.T) {
	c := New("terminal-1")
	c.AddOrIncrement(product("a", 100))

	snap := c.Snapshot()
	c.SetQuantity("a", 5)
	c.AddOrIncrement(product("b", 50))

	require.Len(t, snap, 1)
	assert.Equal(t, 1, snap[0].Qty)
}

func TestViewReportsTotals(t *testing.T) {
	c := New("terminal-9")
	c.AddOrIncrement(product("a", 250))
	c.AddOrIncrement(product("a", 250))

	view := c.View()
	assert.Equal(t, c.ID, view.ID)
	assert.Equal(t, "terminal-9", view.TerminalID)
	assert.Equal(t, 2, view.ItemCount)
	assert.Equal(t, int64(500), view.TotalCents)
}
