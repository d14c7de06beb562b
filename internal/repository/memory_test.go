package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

// steppingClock returns a clock that advances one second per call.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestInput(title string) domain.PaperInput {
	return domain.PaperInput{
		Title:         title,
		Authors:       []string{"Ada Lovelace", "Charles Babbage"},
		Abstract:      "An analytical engine study.",
		URL:           "https://example.org/" + title,
		Platform:      domain.PlatformArXiv,
		Domain:        domain.DomainComputerScience,
		PublishedDate: testNow.AddDate(0, -1, 0),
	}
}

func mustCreate(t *testing.T, store *Store, in domain.PaperInput) *domain.Paper {
	t.Helper()
	p, err := store.Papers.Create(context.Background(), in)
	require.NoError(t, err)
	return p
}

func TestMemoryPaperRepository_Create(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithClock(func() time.Time { return testNow }))

	t.Run("assigns increasing ids", func(t *testing.T) {
		a := mustCreate(t, store, newTestInput("a"))
		b := mustCreate(t, store, newTestInput("b"))
		assert.Greater(t, b.ID, a.ID)
		assert.Equal(t, testNow, a.CreatedAt)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := store.Papers.Create(ctx, domain.PaperInput{Platform: domain.PlatformArXiv})
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("rejects duplicate DOI", func(t *testing.T) {
		in := newTestInput("c")
		in.DOI = "10.1/dup"
		mustCreate(t, store, in)

		in.DOI = "https://doi.org/10.1/DUP"
		_, err := store.Papers.Create(ctx, in)
		assert.True(t, errors.Is(err, domain.ErrAlreadyExists))
	})

	t.Run("returned paper is a copy", func(t *testing.T) {
		p := mustCreate(t, store, newTestInput("d"))
		p.Authors[0] = "changed"
		p.Title = "changed"

		got, err := store.Papers.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "d", got.Title)
		assert.Equal(t, "Ada Lovelace", got.Authors[0])
	})
}

func TestMemoryPaperRepository_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()

	t.Run("first write wins", func(t *testing.T) {
		store := NewMemoryStore()
		first := newTestInput("Original Title")
		first.DOI = "10.1/x"
		orig, created, err := store.Papers.CreateIfAbsent(ctx, first)
		require.NoError(t, err)
		assert.True(t, created)

		second := newTestInput("Different Title")
		second.DOI = "10.1/X"
		got, created, err := store.Papers.CreateIfAbsent(ctx, second)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, orig.ID, got.ID)
		assert.Equal(t, "Original Title", got.Title)

		byDOI, err := store.Papers.GetByDOI(ctx, "doi:10.1/x")
		require.NoError(t, err)
		assert.Equal(t, "Original Title", byDOI.Title)

		n, err := store.Papers.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("papers without DOI are always inserted", func(t *testing.T) {
		store := NewMemoryStore()
		for i := 0; i < 3; i++ {
			_, created, err := store.Papers.CreateIfAbsent(ctx, newTestInput("same"))
			require.NoError(t, err)
			assert.True(t, created)
		}
		n, _ := store.Papers.Count(ctx)
		assert.Equal(t, 3, n)
	})

	t.Run("concurrent inserts keep one record", func(t *testing.T) {
		store := NewMemoryStore()
		var wg sync.WaitGroup
		var mu sync.Mutex
		createdCount := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				in := newTestInput(fmt.Sprintf("title %d", i))
				in.DOI = "10.5555/race"
				_, created, err := store.Papers.CreateIfAbsent(ctx, in)
				assert.NoError(t, err)
				if created {
					mu.Lock()
					createdCount++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, createdCount)
		n, _ := store.Papers.Count(ctx)
		assert.Equal(t, 1, n)
	})
}

func TestMemoryPaperRepository_SearchCustomWindow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithClock(func() time.Time { return testNow }))

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	published := map[string]time.Time{
		"before start": start.Add(-time.Second),
		"on start":     start,
		"inside":       start.AddDate(0, 0, 10),
		"on end":       end,
		"after end":    end.Add(time.Second),
		"recent":       testNow.Add(-time.Hour),
	}
	for _, title := range []string{"before start", "on start", "inside", "on end", "after end", "recent"} {
		in := newTestInput(title)
		in.PublishedDate = published[title]
		mustCreate(t, store, in)
	}

	tests := []struct {
		name   string
		filter domain.SearchFilter
		want   []string
	}{
		{"both bounds inclusive",
			domain.SearchFilter{DateRange: domain.DateRangeCustom, CustomStartDate: &start, CustomEndDate: &end},
			[]string{"on start", "inside", "on end"}},
		{"open end runs to now",
			domain.SearchFilter{DateRange: domain.DateRangeCustom, CustomStartDate: &end},
			[]string{"on end", "after end", "recent"}},
		{"single instant",
			domain.SearchFilter{DateRange: domain.DateRangeCustom, CustomStartDate: &start, CustomEndDate: &start},
			[]string{"on start"}},
		{"bounds ignored without custom range",
			domain.SearchFilter{CustomStartDate: &start, CustomEndDate: &end},
			[]string{"before start", "on start", "inside", "on end", "after end", "recent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := store.Papers.Search(ctx, tt.filter)
			require.NoError(t, err)
			got := make([]string, 0, len(page.Papers))
			for _, p := range page.Papers {
				got = append(got, p.Title)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want), page.Total)
		})
	}
}

func TestMemoryPaperRepository_Get(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Papers.Get(ctx, 42)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = store.Papers.GetByDOI(ctx, "10.1/missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = store.Papers.GetByDOI(ctx, "  ")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestMemoryPaperRepository_SearchFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithClock(func() time.Time { return testNow }))

	inputs := []domain.PaperInput{
		{Title: "Quantum Entanglement", Authors: []string{"Alice Smith"}, Platform: domain.PlatformArXiv,
			Domain: domain.DomainPhysics, Journal: "Physical Review", PublishedDate: testNow.Add(-2 * time.Hour)},
		{Title: "Protein Folding", Abstract: "deep QUANTUM models", Authors: []string{"Bob Jones"},
			Platform: domain.PlatformPubMed, Domain: domain.DomainBiology, Journal: "Nature",
			PublishedDate: testNow.AddDate(0, 0, -3)},
		{Title: "Graph Theory", Authors: []string{"Carol Quantum"}, Platform: domain.PlatformArXiv,
			Domain: domain.DomainMathematics, PublishedDate: testNow.AddDate(0, -2, 0)},
		{Title: "Dark Matter", Authors: []string{"Alice Smith", "Dan Brown"}, Platform: domain.PlatformSpringer,
			Domain: domain.DomainPhysics, Journal: "Nature Physics", PublishedDate: testNow.AddDate(0, 0, -20)},
	}
	for _, in := range inputs {
		mustCreate(t, store, in)
	}

	titles := func(page *PaperPage) []string {
		out := make([]string, 0, len(page.Papers))
		for _, p := range page.Papers {
			out = append(out, p.Title)
		}
		return out
	}

	tests := []struct {
		name   string
		filter domain.SearchFilter
		want   []string
	}{
		{"no filter keeps insertion order", domain.SearchFilter{},
			[]string{"Quantum Entanglement", "Protein Folding", "Graph Theory", "Dark Matter"}},
		{"query matches title abstract or author", domain.SearchFilter{Query: "quantum"},
			[]string{"Quantum Entanglement", "Protein Folding", "Graph Theory"}},
		{"platform exact", domain.SearchFilter{Platform: "ArXiv"},
			[]string{"Quantum Entanglement", "Graph Theory"}},
		{"domain case-insensitive", domain.SearchFilter{Domain: "physics"},
			[]string{"Quantum Entanglement", "Dark Matter"}},
		{"author substring", domain.SearchFilter{Author: "smith"},
			[]string{"Quantum Entanglement", "Dark Matter"}},
		{"journal substring", domain.SearchFilter{Journal: "nature"},
			[]string{"Protein Folding", "Dark Matter"}},
		{"last 24 hours", domain.SearchFilter{DateRange: domain.DateRangeDay},
			[]string{"Quantum Entanglement"}},
		{"last 7 days", domain.SearchFilter{DateRange: domain.DateRangeWeek},
			[]string{"Quantum Entanglement", "Protein Folding"}},
		{"last month", domain.SearchFilter{DateRange: domain.DateRangeMonth},
			[]string{"Quantum Entanglement", "Protein Folding", "Dark Matter"}},
		{"no match", domain.SearchFilter{Query: "zebra"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := store.Papers.Search(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(page))
			assert.Equal(t, len(tt.want), page.Total)
		})
	}

	t.Run("filter composition is an intersection", func(t *testing.T) {
		ids := func(f domain.SearchFilter) map[int64]bool {
			page, err := store.Papers.Search(ctx, f)
			require.NoError(t, err)
			out := make(map[int64]bool)
			for _, p := range page.Papers {
				out[p.ID] = true
			}
			return out
		}

		byDomain := ids(domain.SearchFilter{Domain: "Physics"})
		byPlatform := ids(domain.SearchFilter{Platform: "ArXiv"})
		byAuthor := ids(domain.SearchFilter{Author: "Alice"})
		combined := ids(domain.SearchFilter{Domain: "Physics", Platform: "ArXiv", Author: "Alice"})

		want := make(map[int64]bool)
		for id := range byDomain {
			if byPlatform[id] && byAuthor[id] {
				want[id] = true
			}
		}
		assert.Equal(t, want, combined)
	})

	t.Run("invalid filter", func(t *testing.T) {
		_, err := store.Papers.Search(ctx, domain.SearchFilter{Limit: domain.MaxLimit + 1})
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestMemoryPaperRepository_SearchSortAndPaginate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// 12 physics papers with distinct citation counts 10..120 and distinct dates.
	for i := 1; i <= 12; i++ {
		in := newTestInput(fmt.Sprintf("physics %02d", i))
		in.Domain = domain.DomainPhysics
		in.CitationCount = i * 10
		in.PublishedDate = testNow.AddDate(0, 0, -i)
		mustCreate(t, store, in)
	}
	mustCreate(t, store, newTestInput("not physics"))

	t.Run("citations page two", func(t *testing.T) {
		page, err := store.Papers.Search(ctx, domain.SearchFilter{
			Domain: "Physics", SortBy: domain.SortCitations, Page: 2, Limit: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, 12, page.Total)
		require.Len(t, page.Papers, 5)

		got := make([]int, 0, 5)
		for _, p := range page.Papers {
			got = append(got, p.CitationCount)
		}
		assert.Equal(t, []int{70, 60, 50, 40, 30}, got)
	})

	t.Run("date_desc reversed equals date_asc", func(t *testing.T) {
		filter := domain.SearchFilter{Domain: "Physics", Limit: 100}
		filter.SortBy = domain.SortDateDesc
		desc, err := store.Papers.Search(ctx, filter)
		require.NoError(t, err)
		filter.SortBy = domain.SortDateAsc
		asc, err := store.Papers.Search(ctx, filter)
		require.NoError(t, err)

		require.Len(t, desc.Papers, 12)
		for i := range desc.Papers {
			assert.Equal(t, desc.Papers[i].ID, asc.Papers[len(asc.Papers)-1-i].ID)
		}
	})

	t.Run("pages cover total exactly once", func(t *testing.T) {
		const limit = 5
		first, err := store.Papers.Search(ctx, domain.SearchFilter{Limit: limit})
		require.NoError(t, err)

		seen := make(map[int64]bool)
		for page := 1; page <= domain.Pages(first.Total, limit); page++ {
			res, err := store.Papers.Search(ctx, domain.SearchFilter{Page: page, Limit: limit})
			require.NoError(t, err)
			assert.LessOrEqual(t, len(res.Papers), limit)
			for _, p := range res.Papers {
				assert.False(t, seen[p.ID], "paper %d returned twice", p.ID)
				seen[p.ID] = true
			}
		}
		assert.Len(t, seen, first.Total)
	})

	t.Run("page beyond the end is empty", func(t *testing.T) {
		res, err := store.Papers.Search(ctx, domain.SearchFilter{Page: 10, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, res.Papers)
		assert.Equal(t, 13, res.Total)
	})

	t.Run("citation ties break by id", func(t *testing.T) {
		tied := NewMemoryStore()
		a := mustCreate(t, tied, newTestInput("a"))
		b := mustCreate(t, tied, newTestInput("b"))
		res, err := tied.Papers.Search(ctx, domain.SearchFilter{SortBy: domain.SortCitations})
		require.NoError(t, err)
		require.Len(t, res.Papers, 2)
		assert.Equal(t, a.ID, res.Papers[0].ID)
		assert.Equal(t, b.ID, res.Papers[1].ID)
	})
}

func TestMemorySummaryRepository(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithClock(func() time.Time { return testNow }))
	paper := mustCreate(t, store, newTestInput("summarized"))

	_, err := store.Summaries.Get(ctx, paper.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = store.Summaries.Create(ctx, 999, domain.SummaryContent{Short: "s"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = store.Summaries.Create(ctx, paper.ID, domain.SummaryContent{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	created, err := store.Summaries.Create(ctx, paper.ID, domain.SummaryContent{Short: "s1", Medium: "m1", Detailed: "d1"})
	require.NoError(t, err)
	assert.Equal(t, "s1", *created.ShortSummary)

	_, err = store.Summaries.Create(ctx, paper.ID, domain.SummaryContent{Short: "again"})
	assert.True(t, errors.Is(err, domain.ErrAlreadyExists))

	// The clock is frozen, so updatedAt must still move forward on each update.
	first, err := store.Summaries.Update(ctx, paper.ID, domain.SummaryContent{Short: "s2", Medium: "m2", Detailed: "d2"})
	require.NoError(t, err)
	second, err := store.Summaries.Update(ctx, paper.ID, domain.SummaryContent{Short: "s3", Medium: "m3", Detailed: "d3"})
	require.NoError(t, err)

	assert.Equal(t, created.ID, second.ID)
	assert.Equal(t, paper.ID, second.PaperID)
	assert.Equal(t, created.CreatedAt, second.CreatedAt)
	assert.True(t, first.UpdatedAt.After(created.UpdatedAt))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, "d3", *second.DetailedSummary)

	_, err = store.Summaries.Update(ctx, 12345, domain.SummaryContent{Short: "x"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestMemorySavedPaperRepository(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithClock(steppingClock(testNow)))
	user, err := store.Users.Create(ctx, "reader")
	require.NoError(t, err)
	p1 := mustCreate(t, store, newTestInput("one"))
	p2 := mustCreate(t, store, newTestInput("two"))

	saved, err := store.SavedPapers.Save(ctx, user.ID, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, saved.PaperID)

	_, err = store.SavedPapers.Save(ctx, user.ID, p1.ID)
	assert.True(t, errors.Is(err, domain.ErrAlreadyExists))

	_, err = store.SavedPapers.Save(ctx, 999, p1.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = store.SavedPapers.Save(ctx, user.ID, 999)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = store.SavedPapers.Save(ctx, user.ID, p2.ID)
	require.NoError(t, err)

	list, err := store.SavedPapers.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, p2.ID, list[0].ID, "newest save first")

	ok, err := store.SavedPapers.IsSaved(ctx, user.ID, p1.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.SavedPapers.Remove(ctx, user.ID, p1.ID))
	ok, _ = store.SavedPapers.IsSaved(ctx, user.ID, p1.ID)
	assert.False(t, ok)

	err = store.SavedPapers.Remove(ctx, user.ID, p1.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestMemoryRecentSearchRepository(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithClock(steppingClock(testNow)))
	alice, err := store.Users.Create(ctx, "alice")
	require.NoError(t, err)
	bob, err := store.Users.Create(ctx, "bob")
	require.NoError(t, err)

	_, err = store.RecentSearches.Add(ctx, 999, "x", domain.SearchFilter{})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	first, err := store.RecentSearches.Add(ctx, alice.ID, "graphs", domain.SearchFilter{Query: "graphs"})
	require.NoError(t, err)
	_, err = store.RecentSearches.Add(ctx, alice.ID, "graphs", domain.SearchFilter{Query: "graphs"})
	require.NoError(t, err)
	_, err = store.RecentSearches.Add(ctx, bob.ID, "proteins", domain.SearchFilter{Domain: "Biology"})
	require.NoError(t, err)

	list, err := store.RecentSearches.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2, "duplicates are kept")
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt), "newest first")

	removed, err := store.RecentSearches.DeleteOlderThan(ctx, first.CreatedAt.Add(time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	require.NoError(t, store.RecentSearches.Clear(ctx, alice.ID))
	list, _ = store.RecentSearches.List(ctx, alice.ID)
	assert.Empty(t, list)

	list, _ = store.RecentSearches.List(ctx, bob.ID)
	require.Len(t, list, 1)
	assert.Equal(t, "Biology", list[0].Filters.Domain)
}

func TestMemoryRecentSearchRepository_FiltersAreCopied(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithClock(steppingClock(testNow)))
	user, err := store.Users.Create(ctx, "carol")
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	filters := domain.SearchFilter{DateRange: domain.DateRangeCustom, CustomStartDate: &start, CustomEndDate: &end}

	added, err := store.RecentSearches.Add(ctx, user.ID, "graphs", filters)
	require.NoError(t, err)

	start = start.AddDate(1, 0, 0)
	*added.Filters.CustomEndDate = time.Time{}

	list, err := store.RecentSearches.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *list[0].Filters.CustomStartDate)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), *list[0].Filters.CustomEndDate)

	*list[0].Filters.CustomStartDate = time.Time{}
	again, err := store.RecentSearches.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *again[0].Filters.CustomStartDate)
}

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	u, err := store.Users.Create(ctx, "testuser")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultUserID, u.ID)

	_, err = store.Users.Create(ctx, "testuser")
	assert.True(t, errors.Is(err, domain.ErrAlreadyExists))

	_, err = store.Users.Create(ctx, " ")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	got, err := store.Users.GetByUsername(ctx, "testuser")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = store.Users.Get(ctx, 77)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	res, err := Seed(ctx, store, SeedOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultUserID, res.User.ID)
	assert.Equal(t, DefaultUsername, res.User.Username)
	assert.Zero(t, res.PapersCreated)

	res, err = Seed(ctx, store, SeedOptions{SampleData: true})
	require.NoError(t, err)
	assert.Equal(t, len(samplePapers()), res.PapersCreated)
	assert.Equal(t, 1, res.SearchesAdded)

	res, err = Seed(ctx, store, SeedOptions{SampleData: true})
	require.NoError(t, err)
	assert.Zero(t, res.PapersCreated, "seeding is idempotent")
	assert.Zero(t, res.SearchesAdded)

	n, _ := store.Papers.Count(ctx)
	assert.Equal(t, len(samplePapers()), n)
	assert.NoError(t, store.Ping(ctx))
}
