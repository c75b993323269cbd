package publishing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/adapters/event"
	"github.com/khoahotran/folio/adapters/persistence"
	"github.com/khoahotran/folio/internal/domain/account"
	"github.com/khoahotran/folio/internal/domain/catalog"
	"github.com/khoahotran/folio/internal/domain/content"
	"github.com/khoahotran/folio/internal/domain/plan"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []event.PortfolioEventPayload
}

func (r *recordedEvents) PublishPortfolioEvent(_ context.Context, p event.PortfolioEventPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, p)
	return nil
}

func (r *recordedEvents) types() []event.PortfolioEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.PortfolioEventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType
	}
	return out
}

type fixture struct {
	resolver   *Resolver
	portfolios *persistence.MemoryPortfolioRepo
	accounts   *persistence.MemoryAccountRepo
	events     *recordedEvents
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		portfolios: persistence.NewMemoryPortfolioRepo(),
		accounts:   persistence.NewMemoryAccountRepo(),
		events:     &recordedEvents{},
	}
	f.resolver = NewResolver(f.portfolios, f.accounts, plan.NewHolder(nil), catalog.Builtin(),
		content.NewValidator(), f.events, logger.NewNop())
	return f
}

func (f *fixture) account(t *testing.T, tier plan.Tier) *account.Account {
	t.Helper()
	a := account.New(uuid.NewString()+"@example.com", "hash")
	a.Plan = tier
	require.NoError(t, f.accounts.Save(context.Background(), a))
	return a
}

func draftPortfolio(owner uuid.UUID, slug string) *portfolio.Portfolio {
	doc := content.Empty()
	doc.Personal = content.Personal{Name: "Ada Lovelace", Title: "Engineer", Bio: "Building things.",
		PhotoURL: "https://img.example.com/ada.png"}
	now := time.Now().UTC()
	return &portfolio.Portfolio{
		ID:          uuid.New(),
		OwnerID:     owner,
		Slug:        slug,
		TemplateID:  "minimal",
		ActivePages: []string{"home", "about"},
		Data:        doc,
		Theme:       portfolio.DefaultTheme(),
		SEO:         portfolio.DefaultSEO(doc),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestReserveSlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.account(t, plan.TierPro)

	slug, err := f.resolver.ReserveSlug(ctx, "  Ada Lovelace ")
	require.NoError(t, err)
	assert.Equal(t, "ada-lovelace", slug)

	_, err = f.resolver.ReserveSlug(ctx, "a!")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = f.resolver.Publish(ctx, draftPortfolio(owner.ID, "ada"))
	require.NoError(t, err)

	_, err = f.resolver.ReserveSlug(ctx, "ada")
	require.ErrorIs(t, err, apperror.ErrConflict)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ada-1", appErr.Suggestion)

	_, err = f.resolver.Publish(ctx, draftPortfolio(owner.ID, "ada-1"))
	require.NoError(t, err)
	_, err = f.resolver.ReserveSlug(ctx, "ada")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ada-2", appErr.Suggestion)
}

func TestReserveSlug_UnpublishedDoesNotReserve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.account(t, plan.TierPro)

	p := draftPortfolio(owner.ID, "ada")
	p.IsPublished = false
	require.NoError(t, f.portfolios.Create(ctx, p))

	slug, err := f.resolver.ReserveSlug(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, "ada", slug)
}

func TestSuffixedKeepsLengthLimit(t *testing.T) {
	long := "abcdefghijklmnopqrstuvwxyz-abc"
	require.Len(t, long, 30)
	s := suffixed(long, 12)
	assert.Equal(t, "abcdefghijklmnopqrstuvwxyz-12", s)
	assert.NoError(t, content.ValidateSlug(s))
	assert.Equal(t, "ada-3", suffixed("ada", 3))
}

func TestPublish_ConcurrentSameSlug(t *testing.T) {
	f := newFixture(t)
	owner := f.account(t, plan.TierPro)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.resolver.Publish(context.Background(), draftPortfolio(owner.ID, "ada"))
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		if assert.ErrorIs(t, err, apperror.ErrConflict) {
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
}

func TestPublish_Invariants(t *testing.T) {
	f := newFixture(t)
	owner := f.account(t, plan.TierFree)

	p, err := f.resolver.Publish(context.Background(), draftPortfolio(owner.ID, "ada"))
	require.NoError(t, err)
	assert.True(t, p.IsPublished)
	assert.Equal(t, int64(0), p.Views)

	bad := draftPortfolio(owner.ID, "ada-2")
	bad.ActivePages = []string{"skills"}
	_, err = f.resolver.Publish(context.Background(), bad)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	assert.Equal(t, []event.PortfolioEventType{event.PortfolioPublished}, f.events.types())
}

func TestUnpublishAndRepublish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.account(t, plan.TierPro)
	other := f.account(t, plan.TierPro)
	me := account.Identity{AccountID: ada.ID}

	p, err := f.resolver.Publish(ctx, draftPortfolio(ada.ID, "ada"))
	require.NoError(t, err)

	_, err = f.resolver.PublishExisting(ctx, PublishExistingInput{Actor: me, PortfolioID: p.ID, Slug: "ada-new"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = f.resolver.Unpublish(ctx, account.Identity{AccountID: other.ID}, p.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	unpublished, err := f.resolver.Unpublish(ctx, me, p.ID)
	require.NoError(t, err)
	assert.False(t, unpublished.IsPublished)

	_, err = f.resolver.Publish(ctx, draftPortfolio(other.ID, "ada"))
	require.NoError(t, err)

	_, err = f.resolver.PublishExisting(ctx, PublishExistingInput{Actor: me, PortfolioID: p.ID})
	require.ErrorIs(t, err, apperror.ErrConflict)

	republished, err := f.resolver.PublishExisting(ctx, PublishExistingInput{Actor: me, PortfolioID: p.ID, Slug: "Ada New"})
	require.NoError(t, err)
	assert.Equal(t, "ada-new", republished.Slug)
	assert.True(t, republished.IsPublished)

	stored, err := f.portfolios.FindPublishedBySlug(ctx, "ada-new")
	require.NoError(t, err)
	assert.Equal(t, p.ID, stored.ID)
}

func TestPublishExisting_RequiresTemplateEntitlement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.account(t, plan.TierFree)

	p := draftPortfolio(owner.ID, "ada")
	p.TemplateID = "terminal"
	require.NoError(t, f.portfolios.Create(ctx, p))

	_, err := f.resolver.PublishExisting(ctx, PublishExistingInput{Actor: account.Identity{AccountID: owner.ID}, PortfolioID: p.ID})
	assert.ErrorIs(t, err, apperror.ErrCapability)
}

func TestIncrementViews_Concurrent(t *testing.T) {
	f := newFixture(t)
	owner := f.account(t, plan.TierFree)
	p, err := f.resolver.Publish(context.Background(), draftPortfolio(owner.ID, "ada"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.resolver.IncrementViews(context.Background(), p.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := f.portfolios.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), stored.Views)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.account(t, plan.TierFree)
	me := account.Identity{AccountID: owner.ID}
	p, err := f.resolver.Publish(ctx, draftPortfolio(owner.ID, "ada"))
	require.NoError(t, err)

	dark := portfolio.DefaultTheme()
	dark.DarkModeEnabled = true
	_, err = f.resolver.Update(ctx, UpdateInput{Actor: me, PortfolioID: p.ID, Theme: &dark})
	assert.ErrorIs(t, err, apperror.ErrCapability)

	updated, err := f.resolver.Update(ctx, UpdateInput{Actor: me, PortfolioID: p.ID, ActivePages: []string{"contact"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "contact"}, updated.ActivePages)
	assert.Equal(t, "ada", updated.Slug)

	doc := p.Data
	for i := 0; i < 4; i++ {
		doc.Projects = append(doc.Projects, content.Project{
			ID: uuid.NewString()[:8], Title: "Project", ShortDescription: "Something worth showing", Technologies: []string{"go"},
		})
	}
	_, err = f.resolver.Update(ctx, UpdateInput{Actor: me, PortfolioID: p.ID, Data: &doc})
	assert.ErrorIs(t, err, apperror.ErrCapability)

	stored, err := f.portfolios.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Data.Projects)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.account(t, plan.TierFree)
	p, err := f.resolver.Publish(ctx, draftPortfolio(owner.ID, "ada"))
	require.NoError(t, err)

	err = f.resolver.Delete(ctx, account.Identity{AccountID: uuid.New()}, p.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, f.resolver.Delete(ctx, account.Identity{AccountID: uuid.New(), IsAdmin: true}, p.ID))

	_, err = f.portfolios.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	f.events.mu.Lock()
	last := f.events.events[len(f.events.events)-1]
	f.events.mu.Unlock()
	assert.Equal(t, event.PortfolioDeleted, last.EventType)
	assert.Equal(t, []string{"https://img.example.com/ada.png"}, last.Images)
}
