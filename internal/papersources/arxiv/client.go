package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/normalize"
	"github.com/helixir/paper-discovery-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultRateLimit is the default rate limit (3 requests per second).
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// journalName is the journal recorded for every arXiv paper.
	journalName = "ArXiv"

	// fallbackQuery is searched when the filter carries no query terms.
	fallbackQuery = "all:research"

	sourceName = "arXiv"
)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// Enabled indicates whether this source is enabled for searches.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
}

// Client implements the papersources.PaperSource interface for arXiv.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Ensure Client implements PaperSource interface.
var _ papersources.PaperSource = (*Client)(nil)

// New creates a new arXiv client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new arXiv client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries arXiv for the filter's page of papers.
func (c *Client) Search(ctx context.Context, filter domain.SearchFilter) ([]domain.PaperInput, error) {
	searchURL, err := c.buildSearchURL(filter, time.Now())
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if err := papersources.StatusError(sourceName, resp); err != nil {
		return nil, err
	}

	// Parse the Atom XML response (limit body to 10MB).
	var feed Feed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	papers := make([]domain.PaperInput, 0, len(feed.Entries))
	for i := range feed.Entries {
		if paper, ok := entryToPaper(&feed.Entries[i]); ok {
			papers = append(papers, paper)
		}
	}
	return papers, nil
}

// Platform returns domain.PlatformArXiv.
func (c *Client) Platform() domain.Platform {
	return domain.PlatformArXiv
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// buildSearchURL constructs the arXiv search API URL.
func (c *Client) buildSearchURL(filter domain.SearchFilter, now time.Time) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"

	query := url.Values{}
	query.Set("search_query", buildSearchQuery(filter, now))

	switch filter.SortBy {
	case domain.SortDateDesc:
		query.Set("sortBy", "submittedDate")
		query.Set("sortOrder", "descending")
	case domain.SortDateAsc:
		query.Set("sortBy", "submittedDate")
		query.Set("sortOrder", "ascending")
	default:
		// arXiv has no citation data; citation sorts fall back to relevance.
		query.Set("sortBy", "relevance")
	}

	query.Set("start", strconv.Itoa(filter.Offset()))
	query.Set("max_results", strconv.Itoa(filter.Limit))

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// buildSearchQuery combines the filter's terms into an arXiv query expression.
func buildSearchQuery(filter domain.SearchFilter, now time.Time) string {
	var terms []string

	if q := strings.TrimSpace(filter.Query); q != "" {
		terms = append(terms, "all:"+quoteTerm(q))
	}

	if filter.Domain != "" {
		if d, ok := domain.ParseResearchDomain(filter.Domain); ok {
			if cats, ok := normalize.DomainToArXivCategories(d); ok {
				terms = append(terms, categoryTerm(cats))
			}
		}
	}

	if a := strings.TrimSpace(filter.Author); a != "" {
		terms = append(terms, "au:"+quoteTerm(a))
	}
	if j := strings.TrimSpace(filter.Journal); j != "" {
		terms = append(terms, "jr:"+quoteTerm(j))
	}

	if start, end, ok := filter.DateWindow(now); ok {
		terms = append(terms, fmt.Sprintf("submittedDate:[%s TO %s]",
			start.UTC().Format("200601021504"), end.UTC().Format("200601021504")))
	}

	if len(terms) == 0 {
		return fallbackQuery
	}
	return strings.Join(terms, " AND ")
}

func categoryTerm(cats []string) string {
	if len(cats) == 1 {
		return "cat:" + cats[0]
	}
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = "cat:" + c
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// quoteTerm wraps multi-word terms in quotes so arXiv treats them as a phrase.
func quoteTerm(s string) string {
	if strings.ContainsAny(s, " \t") {
		return `"` + strings.ReplaceAll(s, `"`, "") + `"`
	}
	return s
}

// entryToPaper converts an arXiv Atom entry to a paper input.
func entryToPaper(entry *Entry) (domain.PaperInput, bool) {
	title := normalize.CleanText(entry.Title)
	if title == "" {
		return domain.PaperInput{}, false
	}

	authors := make([]normalize.AuthorName, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		authors = append(authors, normalize.AuthorName{Full: a.Name})
	}

	doi := strings.TrimSpace(entry.DOI)
	pdfURL := ""
	for _, link := range entry.Links {
		switch {
		case doi == "" && link.Rel == "related" && strings.Contains(link.Href, "doi.org"):
			doi = domain.NormalizeDOI(link.Href)
		case pdfURL == "" && (link.Title == "pdf" || link.Type == "application/pdf"):
			pdfURL = link.Href
		}
	}

	category := entry.PrimaryCategory.Term
	if category == "" && len(entry.Categories) > 0 {
		category = entry.Categories[0].Term
	}

	return domain.PaperInput{
		Title:         title,
		Authors:       normalize.ExtractAuthors(authors),
		Abstract:      normalize.CleanText(entry.Summary),
		DOI:           doi,
		URL:           strings.TrimSpace(entry.ID),
		PDFURL:        pdfURL,
		Platform:      domain.PlatformArXiv,
		Domain:        normalize.MapCategoryToDomain(normalize.SystemArXiv, category),
		Journal:       journalName,
		PublishedDate: normalize.ParseFlexibleDate(entry.Published),
	}, true
}
