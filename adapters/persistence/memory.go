package persistence

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/domain/account"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/internal/domain/render"
	"github.com/khoahotran/folio/internal/domain/wizard"
	"github.com/khoahotran/folio/pkg/apperror"
)

// MemoryPortfolioRepo keeps portfolios in process. Every write holds the
// lock for the whole check-and-set, which gives it the same slug and counter
// guarantees as the postgres store.
type MemoryPortfolioRepo struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*portfolio.Portfolio
}

func NewMemoryPortfolioRepo() *MemoryPortfolioRepo {
	return &MemoryPortfolioRepo{items: map[uuid.UUID]*portfolio.Portfolio{}}
}

var _ portfolio.Repository = (*MemoryPortfolioRepo)(nil)

func clonePortfolio(p *portfolio.Portfolio) *portfolio.Portfolio {
	raw, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	out := &portfolio.Portfolio{}
	if err := json.Unmarshal(raw, out); err != nil {
		panic(err)
	}
	return out
}

func (r *MemoryPortfolioRepo) publishedSlugOwner(slug string) (uuid.UUID, bool) {
	for id, p := range r.items {
		if p.IsPublished && p.Slug == slug {
			return id, true
		}
	}
	return uuid.Nil, false
}

func (r *MemoryPortfolioRepo) Create(_ context.Context, p *portfolio.Portfolio) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; ok {
		return apperror.NewConflict("portfolio", "id", p.ID.String())
	}
	if p.IsPublished {
		if _, taken := r.publishedSlugOwner(p.Slug); taken {
			return apperror.NewConflict("portfolio", "slug", p.Slug)
		}
	}
	r.items[p.ID] = clonePortfolio(p)
	return nil
}

func (r *MemoryPortfolioRepo) Publish(_ context.Context, id uuid.UUID, slug string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return apperror.NewNotFound("portfolio", id.String())
	}
	if p.IsPublished {
		return portfolio.NewAlreadyPublished(id)
	}
	if _, taken := r.publishedSlugOwner(slug); taken {
		return apperror.NewConflict("portfolio", "slug", slug)
	}
	p.Slug = slug
	p.IsPublished = true
	p.UpdatedAt = at
	return nil
}

func (r *MemoryPortfolioRepo) Unpublish(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return apperror.NewNotFound("portfolio", id.String())
	}
	p.IsPublished = false
	p.UpdatedAt = at
	return nil
}

func (r *MemoryPortfolioRepo) IncrementViews(_ context.Context, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok || !p.IsPublished {
		return 0, apperror.NewNotFound("portfolio", id.String())
	}
	p.Views++
	return p.Views, nil
}

func (r *MemoryPortfolioRepo) Update(_ context.Context, p *portfolio.Portfolio) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[p.ID]
	if !ok {
		return apperror.NewNotFound("portfolio", p.ID.String())
	}
	next := clonePortfolio(p)
	// publish state, slug and views only change through their own operations
	next.Slug = cur.Slug
	next.IsPublished = cur.IsPublished
	next.Views = cur.Views
	next.OwnerID = cur.OwnerID
	next.CreatedAt = cur.CreatedAt
	r.items[p.ID] = next
	return nil
}

func (r *MemoryPortfolioRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return apperror.NewNotFound("portfolio", id.String())
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryPortfolioRepo) FindByID(_ context.Context, id uuid.UUID) (*portfolio.Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, apperror.NewNotFound("portfolio", id.String())
	}
	return clonePortfolio(p), nil
}

func (r *MemoryPortfolioRepo) FindPublishedBySlug(_ context.Context, slug string) (*portfolio.Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.publishedSlugOwner(slug)
	if !ok {
		return nil, apperror.NewNotFound("portfolio", slug)
	}
	return clonePortfolio(r.items[id]), nil
}

func (r *MemoryPortfolioRepo) SlugTaken(_ context.Context, slug string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, taken := r.publishedSlugOwner(slug)
	return taken, nil
}

func (r *MemoryPortfolioRepo) CountByOwner(_ context.Context, ownerID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.items {
		if p.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryPortfolioRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*portfolio.Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*portfolio.Portfolio, 0)
	for _, p := range r.items {
		if p.OwnerID == ownerID {
			out = append(out, clonePortfolio(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type MemoryAccountRepo struct {
	mu    sync.RWMutex
	items map[uuid.UUID]account.Account
}

func NewMemoryAccountRepo() *MemoryAccountRepo {
	return &MemoryAccountRepo{items: map[uuid.UUID]account.Account{}}
}

var _ account.Repository = (*MemoryAccountRepo)(nil)

func (r *MemoryAccountRepo) Save(_ context.Context, a *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, other := range r.items {
		if id != a.ID && strings.EqualFold(other.Email, a.Email) {
			return apperror.NewConflict("account", "email", a.Email)
		}
	}
	r.items[a.ID] = *a
	return nil
}

func (r *MemoryAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[id]
	if !ok {
		return nil, apperror.NewNotFound("account", id.String())
	}
	return &a, nil
}

func (r *MemoryAccountRepo) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.items {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, apperror.NewNotFound("account", email)
}

type memoryDraft struct {
	raw     []byte
	expires time.Time
}

// MemoryDraftStore holds drafts in process with the same TTL semantics as
// the redis store.
type MemoryDraftStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]memoryDraft
	now   func() time.Time
}

func NewMemoryDraftStore(ttl time.Duration) *MemoryDraftStore {
	return &MemoryDraftStore{ttl: ttl, items: map[string]memoryDraft{}, now: time.Now}
}

var _ wizard.Store = (*MemoryDraftStore)(nil)

func (s *MemoryDraftStore) Save(_ context.Context, d *wizard.Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return apperror.NewInternal("failed to marshal draft", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[draftKey(d.OwnerID, d.ID)] = memoryDraft{raw: raw, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryDraftStore) Get(_ context.Context, ownerID, id uuid.UUID) (*wizard.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := draftKey(ownerID, id)
	item, ok := s.items[key]
	if !ok || (s.ttl > 0 && s.now().After(item.expires)) {
		delete(s.items, key)
		return nil, apperror.NewNotFound("draft", id.String())
	}
	d := &wizard.Draft{}
	if err := json.Unmarshal(item.raw, d); err != nil {
		return nil, apperror.NewInternal("failed to unmarshal draft", err)
	}
	return d, nil
}

func (s *MemoryDraftStore) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, draftKey(ownerID, id))
	return nil
}

func draftKey(ownerID, id uuid.UUID) string {
	return "draft:" + ownerID.String() + ":" + id.String()
}

type MemoryPageCache struct {
	mu    sync.Mutex
	pages map[string]render.RenderedPage
}

func NewMemoryPageCache() *MemoryPageCache {
	return &MemoryPageCache{pages: map[string]render.RenderedPage{}}
}

func (c *MemoryPageCache) Get(_ context.Context, key string) (render.RenderedPage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pages[key]
	return p, ok
}

func (c *MemoryPageCache) Set(_ context.Context, key string, page render.RenderedPage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[key] = page
}

func (c *MemoryPageCache) Purge(_ context.Context, portfolioID uuid.UUID) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := "render:" + portfolioID.String() + ":"
	n := 0
	for k := range c.pages {
		if strings.HasPrefix(k, prefix) {
			delete(c.pages, k)
			n++
		}
	}
	return n, nil
}
