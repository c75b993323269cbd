package publishing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/adapters/event"
	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/account"
	"github.com/khoahotran/folio/internal/domain/catalog"
	"github.com/khoahotran/folio/internal/domain/content"
	"github.com/khoahotran/folio/internal/domain/plan"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

var tracer = otel.Tracer("publishing_usecase")

// maxSuggestionProbes bounds the sequential search for a free suffixed slug.
const maxSuggestionProbes = 50

// Resolver owns slug assignment, the publish state of portfolios and their
// view counters.
type Resolver struct {
	portfolios portfolio.Repository
	accounts   account.Repository
	policy     *plan.Holder
	catalog    *catalog.Catalog
	validator  *content.Validator
	events     service.EventPublisher
	logger     logger.Logger
	now        func() time.Time
}

func NewResolver(
	portfolios portfolio.Repository,
	accounts account.Repository,
	policy *plan.Holder,
	c *catalog.Catalog,
	v *content.Validator,
	events service.EventPublisher,
	log logger.Logger,
) *Resolver {
	return &Resolver{
		portfolios: portfolios,
		accounts:   accounts,
		policy:     policy,
		catalog:    c,
		validator:  v,
		events:     events,
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ReserveSlug normalises candidate and checks it against published
// portfolios. A taken slug fails with a conflict carrying the first free
// suffixed alternative. Reservation is advisory: Publish re-checks in the
// same write.
func (r *Resolver) ReserveSlug(ctx context.Context, candidate string) (string, error) {
	ctx, span := tracer.Start(ctx, "ReserveSlug")
	defer span.End()

	slug := content.NormalizeSlug(candidate)
	if err := content.ValidateSlug(slug); err != nil {
		return "", err
	}
	span.SetAttributes(attribute.String("slug", slug))

	taken, err := r.portfolios.SlugTaken(ctx, slug)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if !taken {
		return slug, nil
	}
	return "", r.conflict(ctx, slug)
}

func (r *Resolver) conflict(ctx context.Context, slug string) error {
	suggestion, err := r.suggest(ctx, slug)
	if err != nil {
		r.logger.Warn("Slug suggestion failed", zap.String("slug", slug), zap.Error(err))
	}
	return apperror.NewConflictWithSuggestion("portfolio", "slug", slug, suggestion)
}

func (r *Resolver) suggest(ctx context.Context, slug string) (string, error) {
	for i := 1; i <= maxSuggestionProbes; i++ {
		candidate := suffixed(slug, i)
		taken, err := r.portfolios.SlugTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", nil
}

// suffixed appends -n, shortening the base so the result stays within the
// slug length limit.
func suffixed(slug string, n int) string {
	suffix := fmt.Sprintf("-%d", n)
	base := slug
	if len(base)+len(suffix) > content.SlugMaxLength {
		base = strings.TrimRight(base[:content.SlugMaxLength-len(suffix)], "-")
	}
	return base + suffix
}

// Publish stores p as a published portfolio. The insert is conditional on
// the slug being free among published portfolios; the loser of a race gets a
// conflict.
func (r *Resolver) Publish(ctx context.Context, p *portfolio.Portfolio) (*portfolio.Portfolio, error) {
	ctx, span := tracer.Start(ctx, "Publish")
	defer span.End()

	tpl, ok := r.catalog.GetByID(p.TemplateID)
	if !ok {
		return nil, apperror.NewValidation(map[string]string{"template_id": "unknown template"})
	}
	p.IsPublished = true
	p.Views = 0
	if err := p.Validate(tpl); err != nil {
		return nil, err
	}

	if err := r.portfolios.Create(ctx, p); err != nil {
		span.RecordError(err)
		if errors.Is(err, apperror.ErrConflict) {
			return nil, r.conflict(ctx, p.Slug)
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("portfolio_id", p.ID.String()), attribute.String("slug", p.Slug))
	r.emit(ctx, event.PortfolioPublished, p, nil)
	return p, nil
}

type PublishExistingInput struct {
	Actor       account.Identity
	PortfolioID uuid.UUID
	// Slug is optional and defaults to the portfolio's last slug.
	Slug string
}

// PublishExisting re-publishes an unpublished portfolio. A published
// portfolio keeps its slug until it is unpublished.
func (r *Resolver) PublishExisting(ctx context.Context, in PublishExistingInput) (*portfolio.Portfolio, error) {
	ctx, span := tracer.Start(ctx, "PublishExisting")
	defer span.End()

	p, err := r.owned(ctx, in.Actor, in.PortfolioID)
	if err != nil {
		return nil, err
	}

	slug := p.Slug
	if in.Slug != "" {
		slug = content.NormalizeSlug(in.Slug)
	}
	if p.IsPublished {
		if slug != p.Slug {
			return nil, apperror.NewValidation(map[string]string{"slug": "unpublish the portfolio before changing its slug"})
		}
		return p, nil
	}
	if err := content.ValidateSlug(slug); err != nil {
		return nil, err
	}

	owner, err := r.accounts.FindByID(ctx, p.OwnerID)
	if err != nil {
		return nil, err
	}
	limits := r.policy.LimitsFor(owner.Subscription())
	if !limits.Templates.Allows(p.TemplateID) {
		return nil, apperror.NewCapability("templates", fmt.Sprintf("template %s is not included in your plan", p.TemplateID))
	}

	now := r.now()
	if err := r.portfolios.Publish(ctx, p.ID, slug, now); err != nil {
		span.RecordError(err)
		if errors.Is(err, apperror.ErrConflict) && !errors.Is(err, portfolio.ErrAlreadyPublished) {
			return nil, r.conflict(ctx, slug)
		}
		return nil, err
	}
	p.Slug = slug
	p.IsPublished = true
	p.UpdatedAt = now

	r.emit(ctx, event.PortfolioPublished, p, nil)
	return p, nil
}

// Unpublish takes a portfolio offline and frees its slug. Unpublishing twice
// is a no-op.
func (r *Resolver) Unpublish(ctx context.Context, actor account.Identity, id uuid.UUID) (*portfolio.Portfolio, error) {
	ctx, span := tracer.Start(ctx, "Unpublish")
	defer span.End()

	p, err := r.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !p.IsPublished {
		return p, nil
	}

	now := r.now()
	if err := r.portfolios.Unpublish(ctx, id, now); err != nil {
		span.RecordError(err)
		return nil, err
	}
	p.IsPublished = false
	p.UpdatedAt = now

	r.emit(ctx, event.PortfolioUnpublished, p, nil)
	return p, nil
}

// IncrementViews counts one view of a published portfolio.
func (r *Resolver) IncrementViews(ctx context.Context, id uuid.UUID) (int64, error) {
	return r.portfolios.IncrementViews(ctx, id)
}

func (r *Resolver) Get(ctx context.Context, actor account.Identity, id uuid.UUID) (*portfolio.Portfolio, error) {
	return r.owned(ctx, actor, id)
}

func (r *Resolver) ListMine(ctx context.Context, actor account.Identity) ([]*portfolio.Portfolio, error) {
	return r.portfolios.ListByOwner(ctx, actor.AccountID)
}

type UpdateInput struct {
	Actor       account.Identity
	PortfolioID uuid.UUID
	Data        *content.Document
	ActivePages []string
	Theme       *portfolio.Theme
	SEO         *portfolio.SEO
}

// Update edits content and presentation. Slug and publish state are not
// touched here.
func (r *Resolver) Update(ctx context.Context, in UpdateInput) (*portfolio.Portfolio, error) {
	ctx, span := tracer.Start(ctx, "Update")
	defer span.End()

	p, err := r.owned(ctx, in.Actor, in.PortfolioID)
	if err != nil {
		return nil, err
	}
	tpl, ok := r.catalog.GetByID(p.TemplateID)
	if !ok {
		return nil, apperror.NewIntegrity(fmt.Sprintf("portfolio %s references template %q", p.ID, p.TemplateID), nil)
	}
	owner, err := r.accounts.FindByID(ctx, p.OwnerID)
	if err != nil {
		return nil, err
	}
	limits := r.policy.LimitsFor(owner.Subscription())

	if in.Data != nil {
		if err := r.validator.ValidateDocument(*in.Data); err != nil {
			return nil, err
		}
		if !plan.Within(limits.Projects, len(in.Data.Projects)) {
			return nil, apperror.NewCapability("projects", fmt.Sprintf("your plan allows %d projects", limits.Projects))
		}
		if !plan.Within(limits.Images, in.Data.ImageCount()) {
			return nil, apperror.NewCapability("images", fmt.Sprintf("your plan allows %d images", limits.Images))
		}
		p.Data = r.validator.Sanitize(*in.Data)
	}
	if in.ActivePages != nil {
		p.ActivePages = portfolio.NormalizePages(in.ActivePages, tpl)
	}
	if in.Theme != nil {
		theme := in.Theme.WithDefaults()
		if theme.DarkModeEnabled && !limits.DarkMode && !tpl.Features.DarkMode {
			return nil, apperror.NewCapability("dark_mode", "dark mode is not included in your plan or template")
		}
		p.Theme = theme
	}
	if in.SEO != nil {
		p.SEO = *in.SEO
	}
	if err := p.Validate(tpl); err != nil {
		return nil, err
	}

	p.UpdatedAt = r.now()
	if err := r.portfolios.Update(ctx, p); err != nil {
		span.RecordError(err)
		return nil, err
	}
	r.emit(ctx, event.PortfolioUpdated, p, nil)
	return p, nil
}

func (r *Resolver) Delete(ctx context.Context, actor account.Identity, id uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "Delete")
	defer span.End()

	p, err := r.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := r.portfolios.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	r.emit(ctx, event.PortfolioDeleted, p, imageURLs(p.Data))
	return nil
}

// owned loads a portfolio the actor may manage. Anything else looks absent.
func (r *Resolver) owned(ctx context.Context, actor account.Identity, id uuid.UUID) (*portfolio.Portfolio, error) {
	p, err := r.portfolios.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(p.OwnerID) {
		return nil, apperror.NewNotFound("portfolio", id.String())
	}
	return p, nil
}

// emit reports a lifecycle event. Delivery failures are logged and never fail
// the operation that caused them.
func (r *Resolver) emit(ctx context.Context, t event.PortfolioEventType, p *portfolio.Portfolio, images []string) {
	err := r.events.PublishPortfolioEvent(ctx, event.PortfolioEventPayload{
		EventType:   t,
		PortfolioID: p.ID,
		OwnerID:     p.OwnerID,
		Slug:        p.Slug,
		Images:      images,
		OccurredAt:  r.now(),
	})
	if err != nil {
		r.logger.Error("Failed to publish portfolio event", err,
			zap.String("event_type", string(t)),
			zap.String("portfolio_id", p.ID.String()))
	}
}

func imageURLs(doc content.Document) []string {
	var out []string
	if doc.Personal.PhotoURL != "" {
		out = append(out, doc.Personal.PhotoURL)
	}
	if doc.Personal.CVURL != "" {
		out = append(out, doc.Personal.CVURL)
	}
	for _, p := range doc.Projects {
		out = append(out, p.Images...)
	}
	return out
}
