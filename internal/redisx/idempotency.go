package redisx

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// idempotencyKeyPrefix - неймспейс ключей идемпотентности заказов
const idempotencyKeyPrefix = "stocklot:idem:"

// IdempotencyCache - Redis fast-path replay'а по ключу идемпотентности.
//
// Кэш ускоряет повторные запросы, но не является источником истины:
// промах или падение Redis приводит к проверке unique index в БД.
// Реализует service.IdempotencyCache.
type IdempotencyCache struct {
	rdb *redis.Client
}

// NewIdempotencyCache создает кэш поверх Redis клиента
func NewIdempotencyCache(rdb *redis.Client) *IdempotencyCache {
	return &IdempotencyCache{rdb: rdb}
}

// GetOrderID возвращает ID группы заказа по ключу идемпотентности.
// Промах кэша - пустая строка без ошибки.
func (c *IdempotencyCache) GetOrderID(ctx context.Context, key string) (string, error) {
	orderID, err := c.rdb.Get(ctx, idempotencyKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return orderID, nil
}

// SetOrderID запоминает соответствие ключа и группы заказа
func (c *IdempotencyCache) SetOrderID(ctx context.Context, key, orderID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, idempotencyKeyPrefix+key, orderID, ttl).Err()
}
