package normalize

import "strings"

// AuthorName is an upstream author record. Sources either split the name into
// given and family parts or supply a literal full name.
type AuthorName struct {
	Given  string
	Family string
	Full   string
}

// String joins the name parts. A literal full name wins over the split parts.
func (a AuthorName) String() string {
	if full := collapseSpace(a.Full); full != "" {
		return full
	}
	return collapseSpace(strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family))
}

// ExtractAuthors converts author records into display names, dropping empty ones
// and keeping source order. The result is never nil.
func ExtractAuthors(records []AuthorName) []string {
	names := make([]string, 0, len(records))
	for _, r := range records {
		if name := r.String(); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// PrependAuthor returns authors with name moved to the front. If name is already
// present (case-insensitively) it is moved, not duplicated.
func PrependAuthor(authors []string, name string) []string {
	name = collapseSpace(name)
	if name == "" {
		return authors
	}
	out := make([]string, 0, len(authors)+1)
	out = append(out, name)
	for _, a := range authors {
		if !strings.EqualFold(a, name) {
			out = append(out, a)
		}
	}
	return out
}
