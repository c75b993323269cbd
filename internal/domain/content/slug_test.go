package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSlug(t *testing.T) {
	cases := map[string]string{
		"ada":              "ada",
		"Ada Lovelace":     "ada-lovelace",
		"  Zoë_Ångström  ": "zoe-angstrom",
		"hello---world!!":  "hello-world",
		"#$%":              "",
		"my--site":         "my--site",
		"-ada-":            "-ada-",
		" My--Site ":       "my--site",
		"a-very-long-portfolio-name-that-keeps-going": "a-very-long-portfolio-name-tha",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeSlug(in), in)
	}
}

func TestValidateSlug(t *testing.T) {
	assert.NoError(t, ValidateSlug("ada"))
	assert.NoError(t, ValidateSlug("ada-lovelace-2"))
	assert.Error(t, ValidateSlug("ad"))
	assert.Error(t, ValidateSlug("Ada"))
	assert.Error(t, ValidateSlug("ada_lovelace"))
	assert.Error(t, ValidateSlug(""))
	assert.Error(t, ValidateSlug("abcdefghijklmnopqrstuvwxyz12345"))
}
