package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_Lookups(t *testing.T) {
	c := Builtin()

	tpl, ok := c.GetByID("designstudio")
	require.True(t, ok)
	assert.Equal(t, TierFree, tpl.Tier)

	bySlug, ok := c.GetBySlug("design-studio")
	require.True(t, ok)
	assert.Equal(t, "designstudio", bySlug.ID)

	_, ok = c.GetByID("missing")
	assert.False(t, ok)

	dev := c.ListByCategory("Developer")
	require.Len(t, dev, 2)
	assert.Equal(t, "minimal", dev[0].ID)
	assert.Equal(t, "terminal", dev[1].ID)
	assert.Len(t, c.List(), 4)
}

func TestBuiltin_EveryTemplateLandsOnHome(t *testing.T) {
	for _, tpl := range Builtin().List() {
		assert.Equal(t, PageHome, tpl.LandingPage(), tpl.ID)
		assert.True(t, tpl.Supports(PageProjects), tpl.ID)
	}
}

func TestCatalog_IsNotMutableThroughResults(t *testing.T) {
	c := Builtin()
	tpl, _ := c.GetByID("minimal")
	tpl.AvailablePages[0] = "hacked"

	again, _ := c.GetByID("minimal")
	assert.Equal(t, PageHome, again.AvailablePages[0])
}
