package cache

import (
	"context"
	"sync"

	"kedaipos/backend/internal/cart"
)

// CartStore keeps the one active cart of each terminal between requests.
type CartStore interface {
	Load(ctx context.Context, terminalID string) (*cart.Cart, bool, error)
	Save(ctx context.Context, c *cart.Cart) error
	Delete(ctx context.Context, terminalID string) error
}

type MemoryCartStore struct {
	mu    sync.Mutex
	carts map[string]cart.Cart
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[string]cart.Cart)}
}

func (s *MemoryCartStore) Load(_ context.Context, terminalID string) (*cart.Cart, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[terminalID]
	if !ok {
		return nil, false, nil
	}
	c.Lines = c.Snapshot()
	return &c, true, nil
}

func (s *MemoryCartStore) Save(_ context.Context, c *cart.Cart) error {
	if c == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *c
	stored.Lines = c.Snapshot()
	s.carts[c.TerminalID] = stored
	return nil
}

func (s *MemoryCartStore) Delete(_ context.Context, terminalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, terminalID)
	return nil
}
