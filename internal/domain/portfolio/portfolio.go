package portfolio

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/domain/catalog"
	"github.com/khoahotran/folio/internal/domain/content"
	"github.com/khoahotran/folio/pkg/apperror"
)

type Palette struct {
	Background string `json:"bg"`
	Text       string `json:"text"`
	Accent     string `json:"accent"`
}

type Theme struct {
	DarkModeEnabled bool    `json:"dark_mode_enabled"`
	PrimaryColor    string  `json:"primary_color"`
	Font            string  `json:"font"`
	LightMode       Palette `json:"light_mode"`
	DarkMode        Palette `json:"dark_mode"`
}

func DefaultTheme() Theme {
	return Theme{
		PrimaryColor: "#2563eb",
		Font:         "Inter",
		LightMode:    Palette{Background: "#ffffff", Text: "#111827", Accent: "#2563eb"},
		DarkMode:     Palette{Background: "#0b1120", Text: "#e5e7eb", Accent: "#60a5fa"},
	}
}

// WithDefaults fills every empty field from DefaultTheme.
func (t Theme) WithDefaults() Theme {
	d := DefaultTheme()
	if t.PrimaryColor == "" {
		t.PrimaryColor = d.PrimaryColor
	}
	if t.Font == "" {
		t.Font = d.Font
	}
	t.LightMode = t.LightMode.withDefaults(d.LightMode)
	t.DarkMode = t.DarkMode.withDefaults(d.DarkMode)
	return t
}

func (p Palette) withDefaults(d Palette) Palette {
	if p.Background == "" {
		p.Background = d.Background
	}
	if p.Text == "" {
		p.Text = d.Text
	}
	if p.Accent == "" {
		p.Accent = d.Accent
	}
	return p
}

type SEO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

// DefaultSEO derives head metadata from the personal section.
func DefaultSEO(doc content.Document) SEO {
	title := doc.Personal.Name
	if doc.Personal.Title != "" {
		title += " | " + doc.Personal.Title
	}
	return SEO{Title: title, Description: doc.Personal.Bio, Image: doc.Personal.PhotoURL}
}

type Portfolio struct {
	ID          uuid.UUID        `json:"id"`
	OwnerID     uuid.UUID        `json:"owner_id"`
	Slug        string           `json:"slug"`
	TemplateID  string           `json:"template_id"`
	IsPublished bool             `json:"is_published"`
	ActivePages []string         `json:"active_pages"`
	Data        content.Document `json:"data"`
	Theme       Theme            `json:"theme"`
	SEO         SEO              `json:"seo"`
	Views       int64            `json:"views"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// HasPage reports whether a top-level page is active.
func (p *Portfolio) HasPage(name string) bool {
	return slices.Contains(p.ActivePages, name)
}

// Validate checks the invariants that tie a portfolio to its template.
func (p *Portfolio) Validate(tpl catalog.Template) error {
	fields := map[string]string{}
	if err := content.ValidateSlug(p.Slug); err != nil {
		for k, v := range apperror.FieldErrors(err) {
			fields[k] = v
		}
	}
	if p.TemplateID != tpl.ID {
		fields["template_id"] = "does not match the template"
	}
	if msg := checkActivePages(p.ActivePages, tpl); msg != "" {
		fields["active_pages"] = msg
	}
	if len(fields) > 0 {
		return apperror.NewValidation(fields)
	}
	return nil
}

func checkActivePages(pages []string, tpl catalog.Template) string {
	if len(pages) == 0 {
		return "must contain at least one page"
	}
	seen := make(map[string]bool, len(pages))
	for _, page := range pages {
		if !tpl.Supports(page) {
			return fmt.Sprintf("%q is not a page of template %s", page, tpl.ID)
		}
		if seen[page] {
			return fmt.Sprintf("%q is listed twice", page)
		}
		seen[page] = true
	}
	return ""
}

// NormalizePages orders pages as the template declares them and always keeps
// the landing page. An empty selection activates every page.
func NormalizePages(pages []string, tpl catalog.Template) []string {
	if len(pages) == 0 {
		return slices.Clone(tpl.AvailablePages)
	}
	out := make([]string, 0, len(pages))
	for _, page := range tpl.AvailablePages {
		if page == tpl.LandingPage() || slices.Contains(pages, page) {
			out = append(out, page)
		}
	}
	for _, page := range pages {
		if !tpl.Supports(page) {
			out = append(out, page)
		}
	}
	return out
}

// Page is a parsed page address. Project detail pages are written
// "projects/<id>".
type Page struct {
	Name      string
	ProjectID string
}

func ParsePage(raw string) Page {
	raw = strings.Trim(raw, "/")
	if raw == "" {
		return Page{Name: catalog.PageHome}
	}
	name, rest, found := strings.Cut(raw, "/")
	if found && name == catalog.PageProjects {
		return Page{Name: name, ProjectID: rest}
	}
	return Page{Name: raw}
}

func (p Page) IsDetail() bool { return p.ProjectID != "" }

func (p Page) String() string {
	if p.IsDetail() {
		return p.Name + "/" + p.ProjectID
	}
	return p.Name
}

// ErrAlreadyPublished is the cause of the conflict Publish returns for a
// portfolio that is already live.
var ErrAlreadyPublished = errors.New("portfolio is already published")

// NewAlreadyPublished reports a Publish on a live portfolio.
func NewAlreadyPublished(id uuid.UUID) error {
	return apperror.NewAppError(apperror.ErrConflict, "portfolio conflict",
		fmt.Sprintf("portfolio '%s' is already published", id), ErrAlreadyPublished)
}

// Repository is the portfolio store. Implementations must back the published
// slug with a uniqueness constraint and increment views atomically.
type Repository interface {
	// Create inserts p. A published p whose slug is already published fails
	// with a conflict.
	Create(ctx context.Context, p *Portfolio) error
	// Publish flips an unpublished portfolio to published under slug in one
	// conditional write. A portfolio that is already published fails with
	// ErrAlreadyPublished and keeps its slug.
	Publish(ctx context.Context, id uuid.UUID, slug string, at time.Time) error
	Unpublish(ctx context.Context, id uuid.UUID, at time.Time) error
	// IncrementViews adds one to a published portfolio's counter and returns
	// the new value.
	IncrementViews(ctx context.Context, id uuid.UUID) (int64, error)
	Update(ctx context.Context, p *Portfolio) error
	Delete(ctx context.Context, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*Portfolio, error)
	FindPublishedBySlug(ctx context.Context, slug string) (*Portfolio, error)
	SlugTaken(ctx context.Context, slug string) (bool, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Portfolio, error)
}
