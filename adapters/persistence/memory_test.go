package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/internal/domain/content"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
)

func memoryPortfolio(slug string, published bool) *portfolio.Portfolio {
	doc := content.Empty()
	doc.Personal = content.Personal{Name: "Ada Lovelace", Title: "Engineer", Bio: "Writes programs."}
	now := time.Now().UTC()
	return &portfolio.Portfolio{
		ID:          uuid.New(),
		OwnerID:     uuid.New(),
		Slug:        slug,
		TemplateID:  "minimal",
		IsPublished: published,
		ActivePages: []string{"home", "about"},
		Data:        doc,
		Theme:       portfolio.DefaultTheme(),
		SEO:         portfolio.DefaultSEO(doc),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestMemoryPortfolioRepo_PublishKeepsLiveSlug(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPortfolioRepo()
	p := memoryPortfolio("first-slug", false)
	require.NoError(t, repo.Create(ctx, p))
	require.NoError(t, repo.Publish(ctx, p.ID, "first-slug", time.Now()))

	err := repo.Publish(ctx, p.ID, "second-slug", time.Now())
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.ErrorIs(t, err, portfolio.ErrAlreadyPublished)

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "first-slug", stored.Slug)
	assert.True(t, stored.IsPublished)

	_, err = repo.FindPublishedBySlug(ctx, "second-slug")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestMemoryPortfolioRepo_PublishTakenSlug(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPortfolioRepo()
	require.NoError(t, repo.Create(ctx, memoryPortfolio("ada", true)))
	draft := memoryPortfolio("ada", false)
	require.NoError(t, repo.Create(ctx, draft))

	err := repo.Publish(ctx, draft.ID, "ada", time.Now())
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.NotErrorIs(t, err, portfolio.ErrAlreadyPublished)

	err = repo.Publish(ctx, uuid.New(), "ada-2", time.Now())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestMemoryPortfolioRepo_ConcurrentRepublish(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPortfolioRepo()
	p := memoryPortfolio("ada", false)
	require.NoError(t, repo.Create(ctx, p))

	slugs := []string{"ada-a", "ada-b", "ada-c", "ada-d", "ada-e", "ada-f"}
	errs := make([]error, len(slugs))
	var wg sync.WaitGroup
	for i, slug := range slugs {
		wg.Add(1)
		go func(i int, slug string) {
			defer wg.Done()
			errs[i] = repo.Publish(ctx, p.ID, slug, time.Now())
		}(i, slug)
	}
	wg.Wait()

	var won string
	for i, err := range errs {
		if err == nil {
			require.Empty(t, won, "only one publish may succeed")
			won = slugs[i]
			continue
		}
		assert.ErrorIs(t, err, portfolio.ErrAlreadyPublished)
	}
	require.NotEmpty(t, won)

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, won, stored.Slug)
}
