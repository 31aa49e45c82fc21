package normalize

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)

// NameKey lowercases, collapses whitespace, and trims a test name so that
// "Serum  creatinine " and "Serum Creatinine" compare equal.
func NameKey(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	return multiSpace.ReplaceAllString(s, " ")
}
