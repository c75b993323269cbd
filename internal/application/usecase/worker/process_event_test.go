package worker

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/adapters/event"
	"github.com/khoahotran/folio/adapters/persistence"
	"github.com/khoahotran/folio/internal/domain/render"
	"github.com/khoahotran/folio/pkg/logger"
)

func TestProcessEvent_PurgesOnlyThatPortfolio(t *testing.T) {
	ctx := context.Background()
	cache := persistence.NewMemoryPageCache()
	target, other := uuid.New(), uuid.New()
	cache.Set(ctx, "render:"+target.String()+":1:false:home", render.RenderedPage{Body: []byte("a")})
	cache.Set(ctx, "render:"+target.String()+":1:false:about", render.RenderedPage{Body: []byte("b")})
	cache.Set(ctx, "render:"+other.String()+":1:false:home", render.RenderedPage{Body: []byte("c")})

	uc := NewProcessPortfolioEventUseCase(cache, nil, logger.NewNop())
	require.NoError(t, uc.Execute(ctx, event.PortfolioEventPayload{EventType: event.PortfolioUnpublished, PortfolioID: target}))

	_, ok := cache.Get(ctx, "render:"+target.String()+":1:false:home")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "render:"+other.String()+":1:false:home")
	assert.True(t, ok)
}
