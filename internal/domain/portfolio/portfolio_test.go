package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/internal/domain/catalog"
	"github.com/khoahotran/folio/pkg/apperror"
)

func TestParsePage(t *testing.T) {
	cases := map[string]Page{
		"":                {Name: "home"},
		"/":               {Name: "home"},
		"about":           {Name: "about"},
		"/projects/":      {Name: "projects"},
		"projects/p1":     {Name: "projects", ProjectID: "p1"},
		"/projects/p1/":   {Name: "projects", ProjectID: "p1"},
		"about/something": {Name: "about/something"},
	}
	for in, want := range cases {
		assert.Equal(t, want, ParsePage(in), in)
	}
	assert.Equal(t, "projects/p1", ParsePage("projects/p1").String())
}

func TestValidate(t *testing.T) {
	tpl, ok := catalog.Builtin().GetByID("minimal")
	require.True(t, ok)

	p := &Portfolio{Slug: "ada", TemplateID: "minimal", ActivePages: []string{"home", "about"}}
	assert.NoError(t, p.Validate(tpl))

	p.ActivePages = nil
	err := p.Validate(tpl)
	require.Error(t, err)
	assert.Contains(t, apperror.FieldErrors(err), "active_pages")

	p.ActivePages = []string{"home", "skills"}
	assert.Contains(t, apperror.FieldErrors(p.Validate(tpl)), "active_pages")

	p.ActivePages = []string{"home", "home"}
	assert.Contains(t, apperror.FieldErrors(p.Validate(tpl)), "active_pages")

	p.ActivePages = []string{"home"}
	p.Slug = "Bad Slug"
	assert.Contains(t, apperror.FieldErrors(p.Validate(tpl)), "slug")
}

func TestNormalizePages(t *testing.T) {
	tpl, _ := catalog.Builtin().GetByID("terminal")

	assert.Equal(t, tpl.AvailablePages, NormalizePages(nil, tpl))
	assert.Equal(t, []string{"home", "projects", "contact"}, NormalizePages([]string{"contact", "projects"}, tpl))
}

func TestThemeWithDefaults(t *testing.T) {
	th := Theme{PrimaryColor: "#000000", DarkModeEnabled: true}.WithDefaults()
	assert.Equal(t, "#000000", th.PrimaryColor)
	assert.Equal(t, DefaultTheme().Font, th.Font)
	assert.Equal(t, DefaultTheme().DarkMode, th.DarkMode)
	assert.True(t, th.DarkModeEnabled)
}
