package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/domain/render"
)

// PageCache holds rendered pages. Misses and backend failures look the same
// to callers: a cache is never the source of truth.
type PageCache interface {
	Get(ctx context.Context, key string) (render.RenderedPage, bool)
	Set(ctx context.Context, key string, page render.RenderedPage)
	Purge(ctx context.Context, portfolioID uuid.UUID) (int, error)
}
