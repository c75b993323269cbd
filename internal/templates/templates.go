// Package templates holds the built-in site templates. Each catalog entry has
// one variant here, parsed from an embedded view file.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/khoahotran/folio/internal/domain/content"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/internal/domain/render"
)

//go:embed views/*.gohtml
var views embed.FS

// IDs lists the implemented variants.
var IDs = []string{"minimal", "designstudio", "terminal", "editorial"}

var policy = bluemonday.UGCPolicy()

var funcs = template.FuncMap{
	// richText trusts only what survives the UGC policy.
	"richText": func(s string) template.HTML {
		return template.HTML(policy.Sanitize(s))
	},
	"join": strings.Join,
	"cover": func(p content.Project) string {
		if len(p.Images) == 0 {
			return ""
		}
		return p.Images[0]
	},
}

type variant struct {
	id  string
	set *template.Template
}

func parse(id string) (*variant, error) {
	set, err := template.New(id).Funcs(funcs).ParseFS(views, "views/shared.gohtml", "views/"+id+".gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", id, err)
	}
	return &variant{id: id, set: set}, nil
}

// Renderers parses every variant, keyed by template id.
func Renderers() (map[string]render.Renderer, error) {
	out := make(map[string]render.Renderer, len(IDs))
	for _, id := range IDs {
		v, err := parse(id)
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

func (v *variant) Render(in render.Input) (render.RenderedPage, error) {
	name := in.Page.Name
	if in.Page.IsDetail() {
		name = "project"
	}
	if v.set.Lookup(name) == nil {
		return render.RenderedPage{}, fmt.Errorf("%s has no %q view: %w", v.id, name, render.ErrPageNotFound)
	}

	vm := newView(in)
	var buf bytes.Buffer
	if err := v.set.ExecuteTemplate(&buf, name, vm); err != nil {
		return render.RenderedPage{}, fmt.Errorf("execute %s/%s: %w", v.id, name, err)
	}
	return render.RenderedPage{
		ContentType: "text/html; charset=utf-8",
		Title:       vm.Title,
		Body:        buf.Bytes(),
	}, nil
}

type navItem struct {
	Label   string
	URL     string
	Current bool
}

type social struct {
	Channel string
	Href    string
}

type view struct {
	Slug      string
	PageClass string
	Title     string
	Canonical string
	FeedURL   string
	BaseURL   string
	Watermark bool
	Dark      bool
	Data      content.Document
	Theme     portfolio.Theme
	Palette   portfolio.Palette
	SEO       portfolio.SEO
	Nav       []navItem
	Socials   []social
	Featured  []content.Project
	Project   *content.Project
}

func newView(in render.Input) view {
	titler := cases.Title(language.English)
	base := strings.TrimRight(in.Options.BaseURL, "/")
	vm := view{
		Slug:      in.Slug,
		PageClass: in.Page.Name,
		BaseURL:   base,
		Watermark: in.Options.Watermark,
		Dark:      in.Theme.DarkModeEnabled,
		Data:      in.Data,
		Theme:     in.Theme,
		Palette:   in.Theme.LightMode,
		SEO:       in.SEO,
		Featured:  featured(in.Data),
	}
	if vm.Dark {
		vm.Palette = in.Theme.DarkMode
	}
	vm.Canonical = vm.URL(in.Page.String())
	vm.FeedURL = base + "/p/" + in.Slug + "/feed.xml"

	for _, page := range in.ActivePages {
		vm.Nav = append(vm.Nav, navItem{
			Label:   titler.String(page),
			URL:     vm.URL(page),
			Current: page == in.Page.Name,
		})
	}

	channels := make([]string, 0, len(in.Data.Socials))
	for ch, addr := range in.Data.Socials {
		if addr != "" {
			channels = append(channels, ch)
		}
	}
	sort.Strings(channels)
	for _, ch := range channels {
		href := in.Data.Socials[ch]
		if ch == "email" {
			href = "mailto:" + href
		}
		vm.Socials = append(vm.Socials, social{Channel: titler.String(ch), Href: href})
	}

	vm.Title = in.SEO.Title
	switch {
	case in.Page.IsDetail():
		if p, ok := in.Data.ProjectByID(in.Page.ProjectID); ok {
			vm.Project = &p
			vm.Title = p.Title + " · " + in.SEO.Title
		}
	case in.Page.Name != in.Template.LandingPage():
		vm.Title = titler.String(in.Page.Name) + " · " + in.SEO.Title
	}
	return vm
}

// featured returns featured projects, or the first three when none is marked.
func featured(doc content.Document) []content.Project {
	var out []content.Project
	for _, p := range doc.Projects {
		if p.Featured {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = doc.FeaturedProjects()
		if len(out) > 3 {
			out = out[:3]
		}
	}
	return out
}

// URL is the public address of a page of this portfolio.
func (v view) URL(page string) string {
	u := v.BaseURL + "/p/" + v.Slug
	if page == "" || page == "home" {
		return u
	}
	return u + "/" + page
}

func (v view) ProjectURL(id string) string {
	return v.URL("projects/" + id)
}
