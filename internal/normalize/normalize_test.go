package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

func TestMapCategoryToDomain(t *testing.T) {
	tests := []struct {
		name     string
		system   CategorySystem
		raw      string
		expected domain.ResearchDomain
	}{
		{"arxiv exact", SystemArXiv, "cs.LG", domain.DomainArtificialIntelligence},
		{"arxiv prefix", SystemArXiv, "cs.DS", domain.DomainComputerScience},
		{"arxiv nested prefix", SystemArXiv, "astro-ph.GA", domain.DomainAstronomy},
		{"arxiv stat", SystemArXiv, "stat.ML", domain.DomainMathematics},
		{"arxiv unknown", SystemArXiv, "zz.XX", domain.DomainOther},
		{"crossref keyword", SystemCrossRef, "General Computer Science", domain.DomainComputerScience},
		{"crossref ai before cs", SystemCrossRef, "Artificial Intelligence", domain.DomainArtificialIntelligence},
		{"crossref astrophysics", SystemCrossRef, "Astronomy and Astrophysics", domain.DomainAstronomy},
		{"pubmed keyword", SystemPubMed, "Gene Expression Profiling", domain.DomainBiology},
		{"springer subject", SystemSpringer, "Life Sciences", domain.DomainBiology},
		{"ieee term", SystemIEEE, "Deep learning", domain.DomainArtificialIntelligence},
		{"sciencedirect journal", SystemScienceDirect, "Journal of Environmental Management", domain.DomainEnvironmentalScience},
		{"empty", SystemCrossRef, "  ", domain.DomainOther},
		{"unknown system", CategorySystem("dblp"), "computer science", domain.DomainOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapCategoryToDomain(tt.system, tt.raw))
		})
	}
}

func TestClassifyTerms(t *testing.T) {
	terms := []string{"Humans", "Neural Networks, Computer"}
	assert.Equal(t, domain.DomainArtificialIntelligence, ClassifyTerms(SystemPubMed, terms, domain.DomainMedicine))
	assert.Equal(t, domain.DomainMedicine, ClassifyTerms(SystemPubMed, []string{"Humans"}, domain.DomainMedicine))
	assert.Equal(t, domain.DomainOther, ClassifyTerms(SystemCrossRef, nil, domain.DomainOther))
}

func TestReverseTables(t *testing.T) {
	c, ok := DomainToArXivCategories(domain.DomainEngineering)
	assert.True(t, ok)
	assert.Equal(t, []string{"cs.SE", "eess"}, c)

	_, ok = DomainToArXivCategories(domain.DomainOther)
	assert.False(t, ok)

	m, ok := DomainToMeSH(domain.DomainEnvironmentalScience)
	assert.True(t, ok)
	assert.Equal(t, "Environment[MeSH]", m)

	_, ok = DomainToMeSH(domain.DomainEconomics)
	assert.False(t, ok)

	s, ok := DomainToSpringerSubject(domain.DomainBiology)
	assert.True(t, ok)
	assert.Equal(t, "Life Sciences", s)
}

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		raw      string
		expected int
	}{
		{"123-145", 23},
		{"e123-e145", 23},
		{"1 - 10", 10},
		{"7", 1},
		{"e1001", 1},
		{"145-123", 1},
		{"", 0},
		{"n/a", 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePageRange(tt.raw))
		})
	}
}

func TestExtractAuthors(t *testing.T) {
	got := ExtractAuthors([]AuthorName{
		{Given: "Grace", Family: "Hopper"},
		{Family: "Turing"},
		{Given: " ", Family: ""},
		{Full: "  Barbara   Liskov "},
	})
	assert.Equal(t, []string{"Grace Hopper", "Turing", "Barbara Liskov"}, got)

	assert.NotNil(t, ExtractAuthors(nil))
	assert.Empty(t, ExtractAuthors(nil))
}

func TestPrependAuthor(t *testing.T) {
	assert.Equal(t, []string{"B", "A", "C"}, PrependAuthor([]string{"A", "b", "C"}, "B"))
	assert.Equal(t, []string{"A"}, PrependAuthor([]string{"A"}, " "))
}

func TestCleanText(t *testing.T) {
	in := "<jats:p>Café &amp; <jats:italic>bar</jats:italic>\n\n  baz</jats:p>"
	assert.Equal(t, "Café & bar baz", CleanText(in))
	assert.Equal(t, "", CleanText(""))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Quantum Error Correction", TitleCase("quantum  error correction"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5, "..."))
	assert.Equal(t, "ab...", Truncate("abcdef", 2, "..."))
}

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		raw      string
		expected time.Time
	}{
		{"2023-05-17T10:00:00Z", time.Date(2023, 5, 17, 10, 0, 0, 0, time.UTC)},
		{"2023-05-17", time.Date(2023, 5, 17, 0, 0, 0, 0, time.UTC)},
		{"2023/05/17", time.Date(2023, 5, 17, 0, 0, 0, 0, time.UTC)},
		{"2023-05", time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"2023", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2020 Jan-Feb", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2019 Spring", time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"not a date", time.Time{}},
		{"", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.True(t, tt.expected.Equal(ParseFlexibleDate(tt.raw)), "got %v", ParseFlexibleDate(tt.raw))
		})
	}
}

func TestDateFromParts(t *testing.T) {
	assert.Equal(t, time.Date(2021, 3, 9, 0, 0, 0, 0, time.UTC), DateFromParts("2021", "Mar", "9"))
	assert.Equal(t, time.Date(2021, 11, 1, 0, 0, 0, 0, time.UTC), DateFromParts("2021", "11", ""))
	assert.True(t, DateFromParts("", "1", "1").IsZero())
}

func TestDateFromInts(t *testing.T) {
	assert.Equal(t, time.Date(2020, 6, 2, 0, 0, 0, 0, time.UTC), DateFromInts([]int{2020, 6, 2}))
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), DateFromInts([]int{2020}))
	assert.True(t, DateFromInts(nil).IsZero())
}

func TestDomainContext(t *testing.T) {
	for _, d := range domain.ResearchDomains {
		assert.NotEmpty(t, DomainContext(d), d)
	}
	assert.Equal(t, genericContext, DomainContext(domain.DomainOther))
	assert.Equal(t, genericContext, DomainContext("Alchemy"))
}
