// Package cache кеширует карточки клиентов в redis.
// Если адрес redis не задан, используется Nop, который ничего не хранит.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/controtec/internal/config"
)

// ClientKey возвращает ключ кеша для клиента с данным ID.
func ClientKey(id int64) string {
	return "client:" + strconv.FormatInt(id, 10)
}

// Cache хранит значения в redis в виде JSON.
type Cache struct {
	Db *redis.Client
}

// InitServer подключается к redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Get читает значение по ключу в result. Отсутствие ключа не ошибка.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет значение с временем жизни expiration.
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	const op = "cache.Set"
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.Db.Set(ctx, key, jsonData, expiration).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Invalidate удаляет ключ.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if err := c.Db.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache.Invalidate: %w", err)
	}
	return nil
}

// Close закрывает клиент redis.
func (c *Cache) Close() error {
	return c.Db.Close()
}

// Nop кеш, который ничего не хранит.
type Nop struct{}

func (Nop) Get(context.Context, string, any) (bool, error) { return false, nil }

func (Nop) Set(context.Context, string, any, time.Duration) error { return nil }

func (Nop) Invalidate(context.Context, string) error { return nil }
