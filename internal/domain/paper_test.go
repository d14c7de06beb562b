package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"10.1000/XYZ123", "10.1000/xyz123"},
		{"  10.1000/abc  ", "10.1000/abc"},
		{"https://doi.org/10.1000/abc", "10.1000/abc"},
		{"http://dx.doi.org/10.1000/ABC", "10.1000/abc"},
		{"doi:10.1000/abc", "10.1000/abc"},
		{"", ""},
		{"https://doi.org/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeDOI(tt.input))
		})
	}
}

func TestPaperInput_Validate(t *testing.T) {
	valid := PaperInput{Title: "Attention Is All You Need", Platform: PlatformArXiv}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name  string
		input PaperInput
		field string
	}{
		{"blank title", PaperInput{Title: "  ", Platform: PlatformArXiv}, "title"},
		{"unknown platform", PaperInput{Title: "t", Platform: "JSTOR"}, "platform"},
		{"negative pages", PaperInput{Title: "t", Platform: PlatformArXiv, PageCount: -1}, "pageCount"},
		{"negative views", PaperInput{Title: "t", Platform: PlatformArXiv, ViewCount: -1}, "viewCount"},
		{"negative citations", PaperInput{Title: "t", Platform: PlatformArXiv, CitationCount: -3}, "citation_count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestNewPaper(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	authors := []string{"Ada Lovelace"}
	in := PaperInput{
		Title:    "  Notes  ",
		Authors:  authors,
		DOI:      " 10.1/X ",
		Platform: PlatformSpringer,
		Domain:   "Alchemy",
	}

	p := NewPaper(7, in, created)

	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "Notes", p.Title)
	assert.Equal(t, "10.1/X", p.DOI)
	assert.Equal(t, "10.1/x", p.NormalizedDOI())
	assert.True(t, p.HasDOI())
	assert.Equal(t, DomainOther, p.Domain)
	assert.Equal(t, created, p.CreatedAt)

	authors[0] = "changed"
	assert.Equal(t, "Ada Lovelace", p.Authors[0], "authors must be copied")

	empty := NewPaper(1, PaperInput{Title: "x", Platform: PlatformOther}, created)
	assert.NotNil(t, empty.Authors)
	assert.Empty(t, empty.Authors)
}

func TestParsePlatform(t *testing.T) {
	p, ok := ParsePlatform("pubmed")
	assert.True(t, ok)
	assert.Equal(t, PlatformPubMed, p)

	p, ok = ParsePlatform("IEEE")
	assert.True(t, ok)
	assert.Equal(t, PlatformIEEE, p)

	_, ok = ParsePlatform("jstor")
	assert.False(t, ok)
}

func TestParseResearchDomain(t *testing.T) {
	d, ok := ParseResearchDomain("materials science")
	assert.True(t, ok)
	assert.Equal(t, DomainMaterialsScience, d)

	d, ok = ParseResearchDomain("Alchemy")
	assert.False(t, ok)
	assert.Equal(t, DomainOther, d)
}

func TestErrorUnwrapping(t *testing.T) {
	assert.True(t, errors.Is(NewNotFoundError("paper", "1"), ErrNotFound))
	assert.True(t, errors.Is(NewAlreadyExistsError("saved paper", "1:2"), ErrAlreadyExists))
	assert.True(t, errors.Is(NewValidationError("page", "bad"), ErrInvalidInput))

	cause := errors.New("boom")
	assert.True(t, errors.Is(NewExternalAPIError("IEEE", 500, "x", cause), cause))

	throttled := fmt.Errorf("search arXiv: %w", NewExternalAPIError("arXiv", 429, "slow down", nil))
	assert.True(t, errors.Is(throttled, ErrRateLimited))
	assert.False(t, errors.Is(throttled, ErrServiceUnavailable))

	outage := NewExternalAPIError("CrossRef", 503, "maintenance", nil)
	assert.True(t, errors.Is(outage, ErrServiceUnavailable))
	assert.False(t, errors.Is(outage, ErrRateLimited))

	assert.False(t, errors.Is(NewExternalAPIError("PubMed", 400, "bad term", nil), ErrServiceUnavailable))

	long := make([]byte, 2000)
	assert.Len(t, NewExternalAPIError("IEEE", 500, string(long), nil).Message, 512)
}
