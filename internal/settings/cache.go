package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"skyton-bot/internal/models"
	"skyton-bot/internal/repository"
)

const cacheKey = "skyton:app_config"

// Cache is an explicit read-through cache for admin-tunable thresholds.
// Callers hold a *Cache; nothing reads these values through package state.
// Redis being down only costs the caching, never the read.
type Cache struct {
	store repository.ConfigStore
	rdb   *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

func NewCache(store repository.ConfigStore, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *Cache {
	return &Cache{
		store: store,
		rdb:   rdb,
		ttl:   ttl,
		log:   log,
	}
}

func (c *Cache) Get(ctx context.Context) (*models.AppConfig, error) {
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var cfg models.AppConfig
			if jerr := json.Unmarshal(raw, &cfg); jerr == nil {
				return &cfg, nil
			}
		} else if err != redis.Nil {
			c.log.Warn("app config cache read failed", zap.Error(err))
		}
	}

	cfg, err := c.store.GetAppConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}

	if c.rdb != nil {
		if raw, jerr := json.Marshal(cfg); jerr == nil {
			if err := c.rdb.Set(ctx, cacheKey, raw, c.ttl).Err(); err != nil {
				c.log.Warn("app config cache write failed", zap.Error(err))
			}
		}
	}
	return cfg, nil
}

// Invalidate drops the cached copy, e.g. after an admin edit.
func (c *Cache) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, cacheKey).Err(); err != nil {
		c.log.Warn("app config cache invalidate failed", zap.Error(err))
	}
}
