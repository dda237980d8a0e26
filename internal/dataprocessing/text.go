package dataprocessing

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// CasingRule selects how market names are capitalized.
type CasingRule string

const (
	// CasingTitle capitalizes the first letter of every whitespace-separated word.
	CasingTitle CasingRule = "title"
	// CasingSentence capitalizes only the first letter of the whole value.
	// It produces different keys from CasingTitle; the two must not be mixed
	// within one dataset.
	CasingSentence CasingRule = "sentence"
)

// ParseCasingRule validates a configured casing rule. Empty selects title-case.
func ParseCasingRule(s string) (CasingRule, error) {
	switch CasingRule(strings.ToLower(strings.TrimSpace(s))) {
	case "", CasingTitle:
		return CasingTitle, nil
	case CasingSentence:
		return CasingSentence, nil
	}
	return "", fmt.Errorf("unknown market casing rule %q", s)
}

// marketCaser standardizes market names. It wraps a cases.Caser, which keeps
// internal state, so one instance must not be shared between goroutines.
type marketCaser struct {
	rule  CasingRule
	lower cases.Caser
}

func newMarketCaser(rule CasingRule) *marketCaser {
	return &marketCaser{rule: rule, lower: cases.Lower(language.Und)}
}

// Apply trims s, collapses inner whitespace to single spaces and applies the
// casing rule. The result is empty only when s is blank.
func (c *marketCaser) Apply(s string) string {
	words := strings.Fields(norm.NFC.String(s))
	if len(words) == 0 {
		return ""
	}

	switch c.rule {
	case CasingSentence:
		joined := strings.Join(words, " ")
		return c.capitalize(joined)
	default:
		for i, w := range words {
			words[i] = c.capitalize(w)
		}
		return strings.Join(words, " ")
	}
}

// capitalize upper-cases the first rune (title case form, so digraphs such
// as "ǆ" map to "ǅ") and lower-cases the remainder.
func (c *marketCaser) capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError && size <= 1 {
		return c.lower.String(w)
	}
	return string(unicode.ToTitle(r)) + c.lower.String(w[size:])
}
