// Package render turns a published portfolio and a page address into HTML by
// dispatching to the implementation registered for the portfolio's template.
package render

import (
	"errors"
	"fmt"

	"github.com/khoahotran/folio/internal/domain/catalog"
	"github.com/khoahotran/folio/internal/domain/content"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
)

var (
	ErrUnavailable     = errors.New("portfolio is not published")
	ErrPageNotFound    = errors.New("page is not active")
	ErrEntityNotFound  = errors.New("referenced entity does not exist")
	ErrTemplateMissing = errors.New("template is not registered")
)

// Options are presentation switches that come from outside the document.
type Options struct {
	Watermark bool
	BaseURL   string
}

// Input is everything a template implementation may read.
type Input struct {
	Slug        string
	Page        portfolio.Page
	ActivePages []string
	Data        content.Document
	Theme       portfolio.Theme
	SEO         portfolio.SEO
	Template    catalog.Template
	Options     Options
}

type RenderedPage struct {
	ContentType string
	Title       string
	Body        []byte
}

// Renderer is one template implementation. It must be a pure function of its
// input.
type Renderer interface {
	Render(in Input) (RenderedPage, error)
}

type Dispatcher struct {
	catalog   *catalog.Catalog
	renderers map[string]Renderer
}

func NewDispatcher(c *catalog.Catalog, renderers map[string]Renderer) *Dispatcher {
	m := make(map[string]Renderer, len(renderers))
	for id, r := range renderers {
		m[id] = r
	}
	return &Dispatcher{catalog: c, renderers: m}
}

// Render resolves pageName against p and invokes the template. Every
// not-found outcome is reported with the same generic message; the sentinel
// stays reachable with errors.Is.
func (d *Dispatcher) Render(p *portfolio.Portfolio, pageName string, opts Options) (RenderedPage, error) {
	if !p.IsPublished {
		return RenderedPage{}, apperror.NewNotFoundCause("page", fmt.Sprintf("portfolio %s is unpublished", p.ID), ErrUnavailable)
	}

	page := portfolio.ParsePage(pageName)
	if !p.HasPage(page.Name) {
		return RenderedPage{}, apperror.NewNotFoundCause("page", fmt.Sprintf("page %q is not active on %s", page, p.ID), ErrPageNotFound)
	}

	if page.IsDetail() {
		if _, ok := p.Data.ProjectByID(page.ProjectID); !ok {
			return RenderedPage{}, apperror.NewNotFoundCause("page", fmt.Sprintf("project %q not in %s", page.ProjectID, p.ID), ErrEntityNotFound)
		}
	}

	tpl, ok := d.catalog.GetByID(p.TemplateID)
	impl, registered := d.renderers[p.TemplateID]
	if !ok || !registered {
		return RenderedPage{}, apperror.NewIntegrity(fmt.Sprintf("portfolio %s references template %q", p.ID, p.TemplateID), ErrTemplateMissing)
	}
	if page.IsDetail() && !tpl.Features.ProjectDetailPage {
		return RenderedPage{}, apperror.NewNotFoundCause("page", fmt.Sprintf("template %s has no project pages", tpl.ID), ErrPageNotFound)
	}

	return impl.Render(Input{
		Slug:        p.Slug,
		Page:        page,
		ActivePages: p.ActivePages,
		Data:        p.Data,
		Theme:       p.Theme.WithDefaults(),
		SEO:         p.SEO,
		Template:    tpl,
		Options:     opts,
	})
}
