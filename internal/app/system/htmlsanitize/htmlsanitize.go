// Package htmlsanitize strips markup from user-supplied text before it is
// stored. Gamertags, bios, chat messages and ledger descriptions are plain
// text everywhere they are shown.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes every tag from s and returns the remaining text, trimmed.
// Entities escaped by the policy are decoded again so "A & B" is stored as typed.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// TextPtr applies Text to *p, leaving nil alone.
func TextPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := Text(*p)
	return &v
}

// Texts applies Text to every element and drops elements that end up empty.
func Texts(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := Text(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// IsPlainText reports whether s contains no HTML tags.
func IsPlainText(s string) bool {
	return strict.Sanitize(s) == html.EscapeString(s)
}
