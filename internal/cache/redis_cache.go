package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"kedaipos/backend/internal/cart"
)

const cartKeyPrefix = "kedaipos:cart:"

func NewRedisClient(addr string, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// RedisCartStore serialises carts as JSON. Every save refreshes the TTL, so
// only carts left untouched for the whole TTL expire.
type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisCartStore{client: client, ttl: ttl}
}

func (s *RedisCartStore) Load(ctx context.Context, terminalID string) (*cart.Cart, bool, error) {
	val, err := s.client.Get(ctx, cartKeyPrefix+terminalID).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var c cart.Cart
	if err := json.Unmarshal([]byte(val), &c); err != nil {
		return nil, false, err
	}
	return &c, true, nil
}

func (s *RedisCartStore) Save(ctx context.Context, c *cart.Cart) error {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cartKeyPrefix+c.TerminalID, payload, s.ttl).Err()
}

func (s *RedisCartStore) Delete(ctx context.Context, terminalID string) error {
	return s.client.Del(ctx, cartKeyPrefix+terminalID).Err()
}
