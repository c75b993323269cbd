// Package catalog is the static registry of site templates.
package catalog

import (
	"slices"
	"strings"
)

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Page names every template may declare. A project detail page is addressed
// as "projects/<project id>" and requires Features.ProjectDetailPage.
const (
	PageHome       = "home"
	PageAbout      = "about"
	PageExperience = "experience"
	PageProjects   = "projects"
	PageSkills     = "skills"
	PageContact    = "contact"
)

type Features struct {
	DarkMode          bool `json:"dark_mode"`
	ProjectDetailPage bool `json:"project_detail_page"`
}

type Template struct {
	ID             string   `json:"id"`
	Slug           string   `json:"slug"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	Tier           Tier     `json:"tier"`
	Features       Features `json:"features"`
	AvailablePages []string `json:"available_pages"`
}

// Supports reports whether page is one of the template's declared pages.
func (t Template) Supports(page string) bool {
	return slices.Contains(t.AvailablePages, page)
}

// LandingPage is the first declared page.
func (t Template) LandingPage() string {
	if len(t.AvailablePages) == 0 {
		return PageHome
	}
	return t.AvailablePages[0]
}

// Catalog is an immutable list of templates with lookups by id, slug and
// category.
type Catalog struct {
	templates []Template
	byID      map[string]int
	bySlug    map[string]int
}

func New(templates []Template) *Catalog {
	c := &Catalog{
		templates: make([]Template, len(templates)),
		byID:      make(map[string]int, len(templates)),
		bySlug:    make(map[string]int, len(templates)),
	}
	for i, t := range templates {
		t.AvailablePages = slices.Clone(t.AvailablePages)
		c.templates[i] = t
		c.byID[t.ID] = i
		c.bySlug[t.Slug] = i
	}
	return c
}

func (c *Catalog) get(i int) Template {
	t := c.templates[i]
	t.AvailablePages = slices.Clone(t.AvailablePages)
	return t
}

func (c *Catalog) GetByID(id string) (Template, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Template{}, false
	}
	return c.get(i), true
}

func (c *Catalog) GetBySlug(slug string) (Template, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return Template{}, false
	}
	return c.get(i), true
}

// ListByCategory returns templates in catalog order; an empty category
// returns everything.
func (c *Catalog) ListByCategory(category string) []Template {
	out := make([]Template, 0, len(c.templates))
	for i, t := range c.templates {
		if category == "" || strings.EqualFold(t.Category, category) {
			out = append(out, c.get(i))
		}
	}
	return out
}

func (c *Catalog) List() []Template {
	return c.ListByCategory("")
}

// Builtin is the catalog shipped with the service.
func Builtin() *Catalog {
	return New([]Template{
		{
			ID:             "minimal",
			Slug:           "minimal",
			Name:           "Minimal",
			Description:    "A single-column, typography-first layout.",
			Category:       "developer",
			Tier:           TierFree,
			AvailablePages: []string{PageHome, PageAbout, PageProjects, PageContact},
		},
		{
			ID:             "designstudio",
			Slug:           "design-studio",
			Name:           "Design Studio",
			Description:    "Image-led grid for visual work.",
			Category:       "designer",
			Tier:           TierFree,
			AvailablePages: []string{PageHome, PageAbout, PageProjects, PageExperience, PageContact},
		},
		{
			ID:          "terminal",
			Slug:        "terminal",
			Name:        "Terminal",
			Description: "A dark, console-inspired site with a page per project.",
			Category:    "developer",
			Tier:        TierPremium,
			Features:    Features{DarkMode: true, ProjectDetailPage: true},
			AvailablePages: []string{
				PageHome, PageAbout, PageExperience, PageProjects, PageSkills, PageContact,
			},
		},
		{
			ID:          "editorial",
			Slug:        "editorial",
			Name:        "Editorial",
			Description: "Long-form case studies with challenge and solution write-ups.",
			Category:    "writer",
			Tier:        TierPremium,
			Features:    Features{ProjectDetailPage: true},
			AvailablePages: []string{
				PageHome, PageAbout, PageExperience, PageProjects, PageSkills, PageContact,
			},
		},
	})
}
