package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/khoahotran/folio/adapters/event"
	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/application/usecase/media"
	"github.com/khoahotran/folio/pkg/logger"
)

// ProcessPortfolioEventUseCase reacts to portfolio lifecycle events: any
// change drops cached pages, a delete also releases uploaded files.
type ProcessPortfolioEventUseCase struct {
	cache   service.PageCache
	release *media.ReleaseAssetsUseCase
	logger  logger.Logger
}

func NewProcessPortfolioEventUseCase(cache service.PageCache, release *media.ReleaseAssetsUseCase, log logger.Logger) *ProcessPortfolioEventUseCase {
	return &ProcessPortfolioEventUseCase{cache: cache, release: release, logger: log}
}

func (uc *ProcessPortfolioEventUseCase) Execute(ctx context.Context, payload event.PortfolioEventPayload) error {
	log := logger.WithTrace(ctx, uc.logger).With(
		zap.String("event_type", string(payload.EventType)),
		zap.String("portfolio_id", payload.PortfolioID.String()),
	)

	purged, err := uc.cache.Purge(ctx, payload.PortfolioID)
	if err != nil {
		return err
	}

	released := 0
	if payload.EventType == event.PortfolioDeleted && len(payload.Images) > 0 && uc.release != nil {
		released, err = uc.release.Execute(ctx, media.ReleaseAssetsInput{OwnerID: payload.OwnerID, URLs: payload.Images})
		if err != nil {
			return err
		}
	}

	log.Info("Processed portfolio event", zap.Int("purged_pages", purged), zap.Int("released_assets", released))
	return nil
}
