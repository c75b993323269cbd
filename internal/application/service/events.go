package service

import (
	"context"

	"github.com/khoahotran/folio/adapters/event"
)

type EventPublisher interface {
	PublishPortfolioEvent(ctx context.Context, payload event.PortfolioEventPayload) error
}
