package formatting

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpace    = regexp.MustCompile(`\s+`)
	slugHyphens  = regexp.MustCompile(`-+`)
	numberPrefix = regexp.MustCompile(`^\d+\.\s*`)
)

// Slugify converts text to a URL-friendly slug: lowercase ASCII letters,
// digits and single hyphens. Diacritics are folded ("Café" → "cafe") before
// the remaining non-alphanumeric characters are dropped.
func Slugify(text string) string {
	text = strings.ToLower(fold(text))
	text = slugInvalid.ReplaceAllString(text, "")
	text = slugSpace.ReplaceAllString(text, "-")
	text = slugHyphens.ReplaceAllString(text, "-")
	return strings.Trim(text, "-")
}

// TrimNumberPrefix removes a leading ordinal such as "1. " or "15. " from a title.
func TrimNumberPrefix(text string) string {
	return numberPrefix.ReplaceAllString(text, "")
}

// Slugger hands out slugs that are unique within its lifetime. Repeated
// values receive "-2", "-3", ... suffixes; empty slugs fall back to the
// supplied fallback.
type Slugger struct {
	taken map[string]bool
}

// NewSlugger creates an empty Slugger.
func NewSlugger() *Slugger {
	return &Slugger{taken: make(map[string]bool)}
}

// Next returns a unique slug for text.
func (s *Slugger) Next(text, fallback string) string {
	base := Slugify(text)
	if base == "" {
		base = fallback
	}

	candidate := base
	for n := 2; s.taken[candidate]; n++ {
		candidate = base + "-" + strconv.Itoa(n)
	}

	s.taken[candidate] = true
	return candidate
}

func fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}
