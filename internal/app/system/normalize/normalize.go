// Package normalize holds the small string clean-ups applied before
// values are stored or compared.
package normalize

import (
	"strings"
)

// Email trims and lower-cases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses internal runs of
// whitespace to a single space. Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Domain returns the lower-cased part of an email after the last "@".
// It returns "" when s has no "@" or nothing follows it.
func Domain(email string) string {
	e := Email(email)
	i := strings.LastIndex(e, "@")
	if i < 0 || i == len(e)-1 {
		return ""
	}
	return e[i+1:]
}

// Games trims each entry, drops blanks and removes duplicates, keeping
// first-seen order.
func Games(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, g := range in {
		g = Name(g)
		if g == "" {
			continue
		}
		key := strings.ToLower(g)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, g)
	}
	return out
}

// QueryParam trims a query string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
