package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kedaipos/backend/internal/cart"
	"kedaipos/backend/internal/domain"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sampleCart() *cart.Cart {
	c := cart.New("terminal-1")
	c.AddOrIncrement(domain.Product{ID: "prod-cola", Name: "Cola", PriceCents: 25000, Category: domain.CategoryDrinks, Stock: 3})
	c.AddOrIncrement(domain.Product{ID: "prod-cola", Name: "Cola", PriceCents: 25000, Category: domain.CategoryDrinks, Stock: 3})
	return c
}

func TestMemoryCartStoreIsolatesStoredCart(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCartStore()
	c := sampleCart()
	require.NoError(t, s.Save(ctx, c))

	c.SetQuantity("prod-cola", 9)

	loaded, ok, err := s.Load(ctx, "terminal-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, c.ID, loaded.ID)
	assert.Equal(t, 2, loaded.Lines[0].Qty)

	require.NoError(t, s.Delete(ctx, "terminal-1"))
	_, ok, err = s.Load(ctx, "terminal-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCartStoreRoundTripAndTTL(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	s := NewRedisCartStore(client, time.Hour)

	c := sampleCart()
	require.NoError(t, s.Save(ctx, c))

	loaded, ok, err := s.Load(ctx, "terminal-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, c.ID, loaded.ID)
	assert.Equal(t, int64(50000), loaded.Total())
	assert.Equal(t, time.Hour, mr.TTL(cartKeyPrefix+"terminal-1"))

	mr.FastForward(2 * time.Hour)
	_, ok, err = s.Load(ctx, "terminal-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisLockerSerialisesHolders(t *testing.T) {
	_, client := newRedis(t)
	locker := RedisLocker{R: client, RetryBackoff: 5 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var mu sync.Mutex
	active, maxActive := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(ctx, "terminal-1", time.Second, func(context.Context) error {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxActive)
}

func TestLocalLockerHonoursContext(t *testing.T) {
	locker := NewLocalLocker()
	held := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = locker.WithLock(context.Background(), "terminal-1", 0, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := locker.WithLock(ctx, "terminal-1", 0, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.Eventually(t, func() bool {
		return locker.WithLock(context.Background(), "terminal-1", 0, func(context.Context) error { return nil }) == nil
	}, time.Second, 5*time.Millisecond)
}
