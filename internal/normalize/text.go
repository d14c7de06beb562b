package normalize

import (
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// CleanText normalizes upstream text for storage: markup (such as JATS tags in
// CrossRef abstracts) is removed, entities are unescaped, the result is NFC
// normalized and runs of whitespace collapse to a single space.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = norm.NFC.String(s)
	return collapseSpace(s)
}

// TitleCase capitalizes each word of s using English casing rules.
func TitleCase(s string) string {
	return cases.Title(language.English).String(collapseSpace(s))
}

// Truncate shortens s to at most n runes, appending suffix when it cuts.
func Truncate(s string, n int, suffix string) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + suffix
}

func collapseSpace(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}
