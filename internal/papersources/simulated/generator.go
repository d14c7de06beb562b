// Package simulated synthesizes papers for platforms whose API credentials are
// not configured. A Generator satisfies the same search contract as a live
// adapter: every paper it returns matches the filter's query, author, journal,
// domain and date window, so the store's own filtering keeps them.
package simulated

import (
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/normalize"
)

// MaxPapers caps the number of papers generated per search.
const MaxPapers = 10

// Profile describes how a platform's placeholder papers look.
type Profile struct {
	Platform domain.Platform

	// Title renders a title from the title-cased query (empty when the filter has
	// none), the filter domain (empty when unset) and the paper's numeric id.
	Title func(query string, d domain.ResearchDomain, id int) string

	// Abstract renders an abstract from the raw query and the paper's domain.
	Abstract func(query string, d domain.ResearchDomain) string

	// Authors is the default author list. With an author filter the filtered
	// author is placed first, followed by the first KeepAuthors defaults.
	Authors     []string
	KeepAuthors int

	// Domains is the pool drawn from when the filter names no domain.
	Domains []domain.ResearchDomain

	// Journals lists the journals used per domain; DefaultJournal covers the rest.
	Journals       map[domain.ResearchDomain][]string
	DefaultJournal string

	// DOI, URL and PDFURL render identifiers from the numeric id.
	DOI    func(id int, now time.Time) string
	URL    func(id int) string
	PDFURL func(id int) string

	// Pages are drawn from [MinPages, MinPages+PageSpread).
	MinPages   int
	PageSpread int

	// Counters are drawn from [0, Max).
	MaxViews     int
	MaxCitations int

	// MaxAge bounds how far back publication dates go.
	MaxAge time.Duration
}

// Generator produces placeholder papers for one platform. It is safe for
// concurrent use.
type Generator struct {
	profile Profile
	now     func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the random source, for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rnd = r }
}

// WithClock sets the clock used for publication dates.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// New creates a generator for the given profile.
func New(profile Profile, opts ...Option) *Generator {
	g := &Generator{
		profile: profile,
		now:     time.Now,
		rnd:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Platform returns the platform the generator impersonates.
func (g *Generator) Platform() domain.Platform {
	return g.profile.Platform
}

// Generate returns up to min(filter.Limit, MaxPapers) papers ordered per
// filter.SortBy.
func (g *Generator) Generate(filter domain.SearchFilter) []domain.PaperInput {
	count := min(filter.Limit, MaxPapers)
	if count <= 0 {
		return []domain.PaperInput{}
	}

	now := g.now().UTC()
	from, to := g.window(filter, now)

	var filterDomain domain.ResearchDomain
	if filter.Domain != "" {
		filterDomain, _ = domain.ParseResearchDomain(filter.Domain)
	}
	query := strings.TrimSpace(filter.Query)

	g.mu.Lock()
	defer g.mu.Unlock()

	papers := make([]domain.PaperInput, 0, count)
	for i := 0; i < count; i++ {
		id := g.rnd.IntN(1_000_000)

		paperDomain := filterDomain
		if paperDomain == "" {
			paperDomain = g.profile.Domains[g.rnd.IntN(len(g.profile.Domains))]
		}

		papers = append(papers, domain.PaperInput{
			Title:         g.profile.Title(normalize.TitleCase(query), filterDomain, id),
			Authors:       g.authors(filter.Author),
			Abstract:      g.profile.Abstract(query, paperDomain),
			DOI:           g.profile.DOI(id, now),
			URL:           g.profile.URL(id),
			PDFURL:        g.profile.PDFURL(id),
			Platform:      g.profile.Platform,
			Domain:        paperDomain,
			Journal:       g.journal(filter.Journal, paperDomain),
			PublishedDate: g.date(from, to),
			PageCount:     g.profile.MinPages + g.rnd.IntN(max(1, g.profile.PageSpread)),
			ViewCount:     g.rnd.IntN(max(1, g.profile.MaxViews)),
			CitationCount: g.rnd.IntN(max(1, g.profile.MaxCitations)),
		})
	}

	sortPapers(papers, filter.SortBy)
	return papers
}

// window intersects the profile's age window with the filter's date window.
// When the two do not overlap the filter's window wins.
func (g *Generator) window(filter domain.SearchFilter, now time.Time) (time.Time, time.Time) {
	from, to := now.Add(-g.profile.MaxAge), now
	start, end, ok := filter.DateWindow(now)
	if !ok {
		return from, to
	}
	lo, hi := from, to
	if start.After(lo) {
		lo = start
	}
	if end.Before(hi) {
		hi = end
	}
	if hi.Before(lo) {
		return start, end
	}
	return lo, hi
}

func (g *Generator) date(from, to time.Time) time.Time {
	span := to.Sub(from)
	if span <= 0 {
		return from
	}
	return from.Add(time.Duration(g.rnd.Int64N(int64(span) + 1)))
}

func (g *Generator) authors(filterAuthor string) []string {
	defaults := g.profile.Authors
	if strings.TrimSpace(filterAuthor) == "" {
		out := make([]string, len(defaults))
		copy(out, defaults)
		return out
	}
	keep := min(g.profile.KeepAuthors, len(defaults))
	return normalize.PrependAuthor(defaults[:keep], filterAuthor)
}

func (g *Generator) journal(filterJournal string, d domain.ResearchDomain) string {
	if j := strings.TrimSpace(filterJournal); j != "" {
		return j
	}
	journals := g.profile.Journals[d]
	if len(journals) == 0 {
		return g.profile.DefaultJournal
	}
	return journals[g.rnd.IntN(len(journals))]
}

func sortPapers(papers []domain.PaperInput, by domain.SortBy) {
	switch by {
	case domain.SortDateDesc:
		sort.SliceStable(papers, func(i, j int) bool { return papers[i].PublishedDate.After(papers[j].PublishedDate) })
	case domain.SortDateAsc:
		sort.SliceStable(papers, func(i, j int) bool { return papers[i].PublishedDate.Before(papers[j].PublishedDate) })
	case domain.SortCitations:
		sort.SliceStable(papers, func(i, j int) bool { return papers[i].CitationCount > papers[j].CitationCount })
	}
}
