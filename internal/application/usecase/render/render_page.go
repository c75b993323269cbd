package render

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/account"
	"github.com/khoahotran/folio/internal/domain/plan"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/internal/domain/render"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

var tracer = otel.Tracer("render_usecase")

type Settings struct {
	BaseURL string
	// CountViews increments the view counter once per top-level page view.
	CountViews bool
}

type RenderPageUseCase struct {
	portfolios portfolio.Repository
	accounts   account.Repository
	policy     *plan.Holder
	dispatcher *render.Dispatcher
	cache      service.PageCache
	settings   Settings
	logger     logger.Logger
}

// NewRenderPageUseCase wires the public page path. cache may be nil.
func NewRenderPageUseCase(
	portfolios portfolio.Repository,
	accounts account.Repository,
	policy *plan.Holder,
	dispatcher *render.Dispatcher,
	cache service.PageCache,
	settings Settings,
	log logger.Logger,
) *RenderPageUseCase {
	return &RenderPageUseCase{
		portfolios: portfolios,
		accounts:   accounts,
		policy:     policy,
		dispatcher: dispatcher,
		cache:      cache,
		settings:   settings,
		logger:     log,
	}
}

type RenderPageInput struct {
	Slug string
	Page string
}

type RenderPageOutput struct {
	Page   render.RenderedPage
	Views  int64
	Cached bool
}

func (uc *RenderPageUseCase) Execute(ctx context.Context, input RenderPageInput) (*RenderPageOutput, error) {
	ctx, span := tracer.Start(ctx, "Execute")
	defer span.End()
	span.SetAttributes(attribute.String("slug", input.Slug), attribute.String("page", input.Page))

	p, err := uc.published(ctx, input.Slug)
	if err != nil {
		return nil, err
	}

	owner, err := uc.accounts.FindByID(ctx, p.OwnerID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	opts := render.Options{
		Watermark: uc.policy.LimitsFor(owner.Subscription()).Watermark,
		BaseURL:   uc.settings.BaseURL,
	}

	page := portfolio.ParsePage(input.Page)
	out := &RenderPageOutput{Views: p.Views}
	key := cacheKey(p, page, opts)

	if cached, ok := uc.get(ctx, key); ok {
		out.Page = cached
		out.Cached = true
	} else {
		rendered, err := uc.dispatcher.Render(p, page.String(), opts)
		if err != nil {
			if errors.Is(err, apperror.ErrIntegrity) {
				uc.logger.Error("Portfolio cannot be rendered", err, zap.String("portfolio_id", p.ID.String()))
			}
			span.RecordError(err)
			return nil, err
		}
		out.Page = rendered
		uc.set(ctx, key, rendered)
	}

	if uc.settings.CountViews && !page.IsDetail() {
		views, err := uc.portfolios.IncrementViews(ctx, p.ID)
		if err != nil {
			uc.logger.Warn("Failed to count view", zap.String("portfolio_id", p.ID.String()), zap.Error(err))
		} else {
			out.Views = views
		}
	}
	return out, nil
}

// published hides every lookup failure behind the same not-found.
func (uc *RenderPageUseCase) published(ctx context.Context, slug string) (*portfolio.Portfolio, error) {
	p, err := uc.portfolios.FindPublishedBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NewNotFoundCause("page", fmt.Sprintf("no published portfolio at %q", slug), render.ErrUnavailable)
		}
		return nil, err
	}
	return p, nil
}

func (uc *RenderPageUseCase) get(ctx context.Context, key string) (render.RenderedPage, bool) {
	if uc.cache == nil {
		return render.RenderedPage{}, false
	}
	return uc.cache.Get(ctx, key)
}

func (uc *RenderPageUseCase) set(ctx context.Context, key string, page render.RenderedPage) {
	if uc.cache != nil {
		uc.cache.Set(ctx, key, page)
	}
}

// cacheKey changes whenever the portfolio is written, so stale entries are
// never read; the worker purges them eagerly.
func cacheKey(p *portfolio.Portfolio, page portfolio.Page, opts render.Options) string {
	return fmt.Sprintf("render:%s:%d:%t:%s", p.ID, p.UpdatedAt.UnixNano(), opts.Watermark, page)
}
