package render

import (
	"context"
	"strings"

	"github.com/gorilla/feeds"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/catalog"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/logger"
)

// FeedUseCase publishes a portfolio's projects as a feed.
type FeedUseCase struct {
	portfolios portfolio.Repository
	catalog    *catalog.Catalog
	baseURL    string
	logger     logger.Logger
}

func NewFeedUseCase(portfolios portfolio.Repository, c *catalog.Catalog, baseURL string, log logger.Logger) *FeedUseCase {
	return &FeedUseCase{
		portfolios: portfolios,
		catalog:    c,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     log,
	}
}

func (uc *FeedUseCase) Execute(ctx context.Context, slug string) (*feeds.Feed, error) {
	p, err := uc.portfolios.FindPublishedBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	home := uc.baseURL + "/p/" + p.Slug
	feed := &feeds.Feed{
		Title:       p.SEO.Title,
		Link:        &feeds.Link{Href: home},
		Description: p.SEO.Description,
		Author:      &feeds.Author{Name: p.Data.Personal.Name},
		Id:          home,
		Created:     p.CreatedAt,
		Updated:     p.UpdatedAt,
	}

	tpl, _ := uc.catalog.GetByID(p.TemplateID)
	detail := tpl.Features.ProjectDetailPage && p.HasPage(catalog.PageProjects)
	for _, pr := range p.Data.Projects {
		link := home
		switch {
		case detail:
			link = home + "/projects/" + pr.ID
		case p.HasPage(catalog.PageProjects):
			link = home + "/projects"
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       pr.Title,
			Link:        &feeds.Link{Href: link},
			Description: pr.ShortDescription,
			Id:          home + "#" + pr.ID,
			Created:     p.UpdatedAt,
		})
	}

	uc.logger.Debug("Feed generated", zap.String("slug", slug), zap.Int("item_count", len(feed.Items)))
	return feed, nil
}
