package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/internal/domain/render"
	"github.com/khoahotran/folio/internal/domain/wizard"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

func NewRedisClient(cfg config.Config, log logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("can not connect Redis: %w", err)
	}

	log.Info("Connect Redis successfully.", zap.String("addr", cfg.Redis.Addr))
	return rdb, nil
}

// RedisDraftStore keeps wizard drafts as JSON under draft:<owner>:<id>. Each
// save refreshes the TTL; abandoned drafts simply expire.
type RedisDraftStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDraftStore(rdb *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{rdb: rdb, ttl: ttl}
}

var _ wizard.Store = (*RedisDraftStore)(nil)

func (s *RedisDraftStore) Save(ctx context.Context, d *wizard.Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return apperror.NewInternal("failed to marshal draft", err)
	}
	if err := s.rdb.Set(ctx, draftKey(d.OwnerID, d.ID), raw, s.ttl).Err(); err != nil {
		return apperror.NewInternal("failed to save draft", err)
	}
	return nil
}

func (s *RedisDraftStore) Get(ctx context.Context, ownerID, id uuid.UUID) (*wizard.Draft, error) {
	raw, err := s.rdb.Get(ctx, draftKey(ownerID, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperror.NewNotFound("draft", id.String())
		}
		return nil, apperror.NewInternal("failed to load draft", err)
	}
	d := &wizard.Draft{}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, apperror.NewInternal("failed to unmarshal draft", err)
	}
	return d, nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.rdb.Del(ctx, draftKey(ownerID, id)).Err(); err != nil {
		return apperror.NewInternal("failed to delete draft", err)
	}
	return nil
}

// RedisPageCache stores rendered pages under render:<portfolio id>:<version>:...
// so every render of a portfolio can be dropped with one prefix scan.
type RedisPageCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisPageCache(rdb *redis.Client, ttl time.Duration, log logger.Logger) *RedisPageCache {
	return &RedisPageCache{rdb: rdb, ttl: ttl, logger: log}
}

func (c *RedisPageCache) Get(ctx context.Context, key string) (render.RenderedPage, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Page cache read failed", zap.String("key", key), zap.Error(err))
		}
		return render.RenderedPage{}, false
	}
	var page render.RenderedPage
	if err := json.Unmarshal(raw, &page); err != nil {
		c.logger.Warn("Page cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return render.RenderedPage{}, false
	}
	return page, true
}

func (c *RedisPageCache) Set(ctx context.Context, key string, page render.RenderedPage) {
	raw, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Page cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Purge drops every cached page of a portfolio.
func (c *RedisPageCache) Purge(ctx context.Context, portfolioID uuid.UUID) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	pattern := "render:" + portfolioID.String() + ":*"
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := c.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("delete cached pages: %w", err)
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}
