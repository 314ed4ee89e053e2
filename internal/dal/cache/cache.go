package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/corray333/backend-labs/grocery/internal/service/models/order"
)

const keyPrefix = "order-svc:order:"

// OrderCache keeps order aggregates in Redis.
type OrderCache struct {
	client *redis.Client
	ttl    time.Duration
}

// MustNewOrderCache connects to redis.addr (or REDIS_ADDR) and panics if it is unreachable.
func MustNewOrderCache() *OrderCache {
	addr := viper.GetString("redis.addr")
	if env := os.Getenv("REDIS_ADDR"); env != "" {
		addr = env
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       viper.GetInt("redis.db"),
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		panic(err)
	}

	return NewOrderCache(client, viper.GetDuration("redis.order_ttl"))
}

func NewOrderCache(client *redis.Client, ttl time.Duration) *OrderCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &OrderCache{
		client: client,
		ttl:    ttl,
	}
}

func key(id uuid.UUID) string {
	return keyPrefix + id.String()
}

func generationKey(id uuid.UUID) string {
	return keyPrefix + id.String() + ":gen"
}

// setIfGeneration stores the entry only while the generation counter still
// holds the value the reader saw before loading the order.
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[2] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// Get returns the cached order, whether it was present and the current
// generation of the order. The generation must be passed back to
// SetIfGeneration when the caller fills the cache after a miss.
func (c *OrderCache) Get(ctx context.Context, id uuid.UUID) (order.Order, int64, bool, error) {
	vals, err := c.client.MGet(ctx, key(id), generationKey(id)).Result()
	if err != nil {
		return order.Order{}, 0, false, fmt.Errorf("failed to get cached order: %w", err)
	}

	var generation int64
	if raw, ok := vals[1].(string); ok {
		generation, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return order.Order{}, 0, false, fmt.Errorf("failed to parse cache generation: %w", err)
		}
	}

	raw, ok := vals[0].(string)
	if !ok {
		return order.Order{}, generation, false, nil
	}

	var o order.Order
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return order.Order{}, generation, false, fmt.Errorf("failed to decode cached order: %w", err)
	}

	return o, generation, true, nil
}

// SetIfGeneration caches o unless the order was invalidated after generation
// was read. It reports whether the entry was written.
func (c *OrderCache) SetIfGeneration(ctx context.Context, o order.Order, generation int64) (bool, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return false, fmt.Errorf("failed to encode order: %w", err)
	}

	written, err := setIfGeneration.Run(ctx, c.client,
		[]string{key(o.ID), generationKey(o.ID)},
		data, strconv.FormatInt(generation, 10), c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to cache order: %w", err)
	}

	return written == 1, nil
}

// Invalidate drops the entry and bumps the generation so that fills started
// before the change are refused.
func (c *OrderCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(id))
		pipe.Expire(ctx, generationKey(id), c.generationTTL())
		pipe.Del(ctx, key(id))

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate cached order: %w", err)
	}

	return nil
}

// generationTTL keeps the counter alive well past any entry it guards.
func (c *OrderCache) generationTTL() time.Duration {
	if ttl := 12 * c.ttl; ttl > time.Hour {
		return ttl
	}

	return time.Hour
}

func (c *OrderCache) Close() error {
	return c.client.Close()
}
