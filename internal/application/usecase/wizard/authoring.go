package wizard

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/usecase/publishing"
	"github.com/khoahotran/folio/internal/domain/account"
	"github.com/khoahotran/folio/internal/domain/content"
	"github.com/khoahotran/folio/internal/domain/plan"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/internal/domain/wizard"
	"github.com/khoahotran/folio/pkg/logger"
)

var tracer = otel.Tracer("wizard_usecase")

// AuthoringUseCase drives the wizard for one account at a time. Drafts are
// loaded and saved around every step; the machine itself holds no state.
type AuthoringUseCase struct {
	drafts     wizard.Store
	machine    *wizard.Machine
	accounts   account.Repository
	portfolios portfolio.Repository
	policy     *plan.Holder
	resolver   *publishing.Resolver
	logger     logger.Logger
}

func NewAuthoringUseCase(
	drafts wizard.Store,
	machine *wizard.Machine,
	accounts account.Repository,
	portfolios portfolio.Repository,
	policy *plan.Holder,
	resolver *publishing.Resolver,
	log logger.Logger,
) *AuthoringUseCase {
	return &AuthoringUseCase{
		drafts:     drafts,
		machine:    machine,
		accounts:   accounts,
		portfolios: portfolios,
		policy:     policy,
		resolver:   resolver,
		logger:     log,
	}
}

type DraftRef struct {
	OwnerID uuid.UUID
	DraftID uuid.UUID
}

func (uc *AuthoringUseCase) Start(ctx context.Context, ownerID uuid.UUID) (*wizard.Draft, error) {
	d := uc.machine.Start(ownerID)
	if err := uc.drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (uc *AuthoringUseCase) Get(ctx context.Context, ref DraftRef) (*wizard.Draft, error) {
	return uc.drafts.Get(ctx, ref.OwnerID, ref.DraftID)
}

// Reset discards the draft.
func (uc *AuthoringUseCase) Reset(ctx context.Context, ref DraftRef) error {
	return uc.drafts.Delete(ctx, ref.OwnerID, ref.DraftID)
}

func (uc *AuthoringUseCase) limits(ctx context.Context, ownerID uuid.UUID) (plan.Limits, error) {
	a, err := uc.accounts.FindByID(ctx, ownerID)
	if err != nil {
		return plan.Limits{}, err
	}
	return uc.policy.LimitsFor(a.Subscription()), nil
}

// mutate loads the draft, applies fn and saves the draft only if fn succeeded.
func (uc *AuthoringUseCase) mutate(ctx context.Context, ref DraftRef, fn func(d *wizard.Draft) error) (*wizard.Draft, error) {
	d, err := uc.drafts.Get(ctx, ref.OwnerID, ref.DraftID)
	if err != nil {
		return nil, err
	}
	if err := fn(d); err != nil {
		return nil, err
	}
	if err := uc.drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (uc *AuthoringUseCase) SelectTemplate(ctx context.Context, ref DraftRef, templateID string) (*wizard.Draft, error) {
	limits, err := uc.limits(ctx, ref.OwnerID)
	if err != nil {
		return nil, err
	}
	return uc.mutate(ctx, ref, func(d *wizard.Draft) error {
		return uc.machine.SelectTemplate(d, templateID, limits)
	})
}

func (uc *AuthoringUseCase) UpdateSection(ctx context.Context, ref DraftRef, name content.SectionName, payload json.RawMessage) (*wizard.Draft, error) {
	limits, err := uc.limits(ctx, ref.OwnerID)
	if err != nil {
		return nil, err
	}
	return uc.mutate(ctx, ref, func(d *wizard.Draft) error {
		return uc.machine.UpdateSection(d, name, payload, limits)
	})
}

func (uc *AuthoringUseCase) Next(ctx context.Context, ref DraftRef) (*wizard.Draft, error) {
	return uc.mutate(ctx, ref, uc.machine.Next)
}

func (uc *AuthoringUseCase) Prev(ctx context.Context, ref DraftRef) (*wizard.Draft, error) {
	return uc.mutate(ctx, ref, func(d *wizard.Draft) error {
		uc.machine.Prev(d)
		return nil
	})
}

type SubmitInput struct {
	DraftRef
	wizard.Submission
}

type SubmitOutput struct {
	Portfolio *portfolio.Portfolio
}

// Submit publishes the draft. On failure nothing is written except the
// draft's own error list; on success the draft is discarded.
func (uc *AuthoringUseCase) Submit(ctx context.Context, in SubmitInput) (*SubmitOutput, error) {
	ctx, span := tracer.Start(ctx, "Submit")
	defer span.End()
	span.SetAttributes(attribute.String("draft_id", in.DraftID.String()))

	d, err := uc.drafts.Get(ctx, in.OwnerID, in.DraftID)
	if err != nil {
		return nil, err
	}
	limits, err := uc.limits(ctx, in.OwnerID)
	if err != nil {
		return nil, err
	}
	owned, err := uc.portfolios.CountByOwner(ctx, in.OwnerID)
	if err != nil {
		return nil, err
	}

	p, err := uc.machine.Prepare(d, in.Submission, limits, owned)
	if err != nil {
		span.RecordError(err)
		uc.keep(ctx, d)
		return nil, err
	}

	published, err := uc.resolver.Publish(ctx, p)
	if err != nil {
		span.RecordError(err)
		uc.machine.Fail(d, err)
		uc.keep(ctx, d)
		return nil, err
	}

	if err := uc.drafts.Delete(ctx, in.OwnerID, in.DraftID); err != nil {
		uc.logger.Warn("Published portfolio but could not discard draft",
			zap.String("draft_id", in.DraftID.String()), zap.Error(err))
	}
	span.SetAttributes(attribute.String("portfolio_id", published.ID.String()))
	return &SubmitOutput{Portfolio: published}, nil
}

func (uc *AuthoringUseCase) keep(ctx context.Context, d *wizard.Draft) {
	if err := uc.drafts.Save(ctx, d); err != nil {
		uc.logger.Error("Failed to save draft errors", err, zap.String("draft_id", d.ID.String()))
	}
}
