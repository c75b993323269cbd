package content

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/khoahotran/folio/pkg/apperror"
)

const (
	SlugMinLength = 3
	SlugMaxLength = 30
)

var slugRegex = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidateSlug checks the public address rule: lowercase letters, digits and
// hyphens, 3 to 30 characters.
func ValidateSlug(slug string) error {
	n := utf8.RuneCountInString(slug)
	switch {
	case slug == "":
		return apperror.NewValidation(map[string]string{"slug": "is required"})
	case !slugRegex.MatchString(slug):
		return apperror.NewValidation(map[string]string{"slug": "only allows lowercase letters, numbers, and hyphens"})
	case n < SlugMinLength || n > SlugMaxLength:
		return apperror.NewValidation(map[string]string{"slug": "must be between 3 and 30 characters"})
	}
	return nil
}

// NormalizeSlug lowercases the candidate and keeps it as is when it is
// already made of [a-z0-9-]. Anything else is cleaned up: accents folded
// ("Zoë" -> "zoe"), whitespace and underscores turned into single hyphens,
// other characters dropped. The result may still be too short to pass
// ValidateSlug.
func NormalizeSlug(candidate string) string {
	lowered := strings.ToLower(strings.TrimSpace(candidate))
	if slugRegex.MatchString(lowered) {
		if len(lowered) > SlugMaxLength {
			lowered = lowered[:SlugMaxLength]
		}
		return lowered
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, candidate)
	if err != nil {
		folded = candidate
	}

	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == '-' || r == '_' || unicode.IsSpace(r):
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > SlugMaxLength {
		slug = strings.TrimRight(slug[:SlugMaxLength], "-")
	}
	return slug
}
