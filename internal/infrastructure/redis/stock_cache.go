// Package redis implementa el caché de lectura del stock por outlet sobre Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/opname-api/internal/application/ports"
	"github.com/jhoicas/opname-api/internal/domain/entity"
	"github.com/jhoicas/opname-api/pkg/config"
)

var _ ports.StockCache = (*StockCache)(nil)

const keyPrefix = "opname:stock:"

// NewClient crea el cliente Redis y verifica la conexión con Ping.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolTimeout:  3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("conectar a Redis: %w", err)
	}
	return rdb, nil
}

// StockCache guarda la cantidad por (outlet, producto) con TTL. Las escrituras al ledger la sobrescriben.
type StockCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewStockCache construye el caché. ttl <= 0 usa 60s.
func NewStockCache(rdb redis.Cmdable, ttl time.Duration) *StockCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StockCache{rdb: rdb, ttl: ttl}
}

// Key arma la clave Redis de un registro de stock.
func Key(k entity.StockKey) string {
	return keyPrefix + k.OutletID + ":" + k.ProductID
}

func (c *StockCache) Get(ctx context.Context, k entity.StockKey) (int, bool, error) {
	val, err := c.rdb.Get(ctx, Key(k)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("redis get stock: %w", err)
	}
	qty, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("redis stock corrupto en %s: %w", Key(k), err)
	}
	return qty, true, nil
}

func (c *StockCache) Set(ctx context.Context, k entity.StockKey, qty int) error {
	if err := c.rdb.Set(ctx, Key(k), strconv.Itoa(qty), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set stock: %w", err)
	}
	return nil
}

// SetIfAbsent puebla la entrada con SET NX; no pisa un valor ya escrito por un escritor.
func (c *StockCache) SetIfAbsent(ctx context.Context, k entity.StockKey, qty int) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, Key(k), strconv.Itoa(qty), c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx stock: %w", err)
	}
	return ok, nil
}

func (c *StockCache) Invalidate(ctx context.Context, keys ...entity.StockKey) error {
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, Key(k))
	}
	if err := c.rdb.Del(ctx, names...).Err(); err != nil {
		return fmt.Errorf("redis del stock: %w", err)
	}
	return nil
}
