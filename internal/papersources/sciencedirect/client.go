package sciencedirect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/normalize"
	"github.com/helixir/paper-discovery-service/internal/papersources"
	"github.com/helixir/paper-discovery-service/internal/papersources/simulated"
)

const (
	// DefaultBaseURL is the Elsevier API base URL.
	DefaultBaseURL = "https://api.elsevier.com/content"

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 2.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 2

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// apiKeyHeader is the HTTP header name for the Elsevier API key.
	apiKeyHeader = "X-ELS-APIKey"

	articleURLPrefix = "https://www.sciencedirect.com/science/article/pii/"

	sourceName = "ScienceDirect"
)

// pageSizes are the display.show values the API accepts.
var pageSizes = []int{10, 25, 50, 100}

// Config holds configuration for the ScienceDirect client.
type Config struct {
	// BaseURL is the Elsevier API base URL.
	BaseURL string

	// APIKey is the Elsevier API key. When empty the client serves placeholder
	// papers.
	APIKey string

	Timeout   time.Duration
	RateLimit float64
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

// Client implements papersources.PaperSource for ScienceDirect.
type Client struct {
	config      Config
	httpClient  *papersources.HTTPClient
	placeholder *simulated.Generator
}

// Ensure Client implements PaperSource interface.
var _ papersources.PaperSource = (*Client)(nil)

// New creates a ScienceDirect client. The API key travels in the X-ELS-APIKey
// header. The options configure the placeholder generator.
func New(cfg Config, opts ...simulated.Option) *Client {
	cfg.applyDefaults()

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:      cfg.Timeout,
		RateLimit:    cfg.RateLimit,
		BurstSize:    cfg.BurstSize,
		APIKey:       cfg.APIKey,
		APIKeyHeader: apiKeyHeader,
	})
	return NewWithHTTPClient(cfg, httpClient, opts...)
}

// NewWithHTTPClient creates a client with a custom HTTP client. The HTTP client
// is expected to carry the API key header.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient, opts ...simulated.Option) *Client {
	cfg.applyDefaults()

	return &Client{
		config:      cfg,
		httpClient:  httpClient,
		placeholder: simulated.New(PlaceholderProfile(), opts...),
	}
}

// Platform returns domain.PlatformScienceDirect.
func (c *Client) Platform() domain.Platform {
	return domain.PlatformScienceDirect
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// Live reports whether searches reach the real API.
func (c *Client) Live() bool {
	return c.config.APIKey != ""
}

// Search returns the filter's page of ScienceDirect articles.
func (c *Client) Search(ctx context.Context, filter domain.SearchFilter) ([]domain.PaperInput, error) {
	if !c.Live() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return c.placeholder.Generate(filter), nil
	}

	u, err := url.Parse(strings.TrimRight(c.config.BaseURL, "/") + "/search/sciencedirect")
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	body, err := json.Marshal(buildRequest(filter, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if err := papersources.StatusError(sourceName, resp); err != nil {
		return nil, err
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	papers := make([]domain.PaperInput, 0, len(searchResp.Results))
	for i := range searchResp.Results {
		if len(papers) == filter.Limit {
			break
		}
		if paper, ok := resultToPaper(&searchResp.Results[i]); ok {
			papers = append(papers, paper)
		}
	}
	return papers, nil
}

// buildRequest translates the filter into a PUT search body. The page size is
// rounded up to an accepted value and the surplus trimmed after decoding.
func buildRequest(filter domain.SearchFilter, now time.Time) SearchRequest {
	var terms []string
	if q := strings.TrimSpace(filter.Query); q != "" {
		terms = append(terms, q)
	}
	if filter.Domain != "" {
		if d, ok := domain.ParseResearchDomain(filter.Domain); ok && d != domain.DomainOther {
			terms = append(terms, fmt.Sprintf("%q", string(d)))
		}
	}

	req := SearchRequest{
		Query:   strings.Join(terms, " AND "),
		Authors: strings.TrimSpace(filter.Author),
		Pub:     strings.TrimSpace(filter.Journal),
		Display: Display{
			Offset: filter.Offset(),
			Show:   pageSize(filter.Limit),
			SortBy: "relevance",
		},
	}

	if start, end, ok := filter.DateWindow(now); ok {
		if start.Year() == end.Year() {
			req.Date = strconv.Itoa(start.Year())
		} else {
			req.Date = fmt.Sprintf("%d-%d", start.Year(), end.Year())
		}
	}

	// Date sorts newest first only; citations fall back to relevance.
	if filter.SortBy == domain.SortDateDesc || filter.SortBy == domain.SortDateAsc {
		req.Display.SortBy = "date"
	}
	return req
}

func pageSize(limit int) int {
	i := sort.SearchInts(pageSizes, limit)
	if i == len(pageSizes) {
		return pageSizes[len(pageSizes)-1]
	}
	return pageSizes[i]
}

// resultToPaper converts a search hit to a paper input.
func resultToPaper(r *Result) (domain.PaperInput, bool) {
	title := normalize.CleanText(r.Title)
	if title == "" {
		return domain.PaperInput{}, false
	}

	link := r.URI
	if link == "" && r.PII != "" {
		link = articleURLPrefix + r.PII
	}
	var pdf string
	if r.PII != "" {
		pdf = articleURLPrefix + r.PII + "/pdfft"
	}

	authors := make([]Author, len(r.Authors))
	copy(authors, r.Authors)
	sort.SliceStable(authors, func(i, j int) bool { return authors[i].Order < authors[j].Order })
	names := make([]normalize.AuthorName, 0, len(authors))
	for _, a := range authors {
		names = append(names, normalize.AuthorName{Full: a.Name})
	}

	pages := r.Pages.First
	if r.Pages.First != "" && r.Pages.Last != "" {
		pages = r.Pages.First + "-" + r.Pages.Last
	}

	return domain.PaperInput{
		Title:         title,
		Authors:       normalize.ExtractAuthors(names),
		DOI:           strings.TrimSpace(r.DOI),
		URL:           link,
		PDFURL:        pdf,
		Platform:      domain.PlatformScienceDirect,
		Domain:        normalize.MapCategoryToDomain(normalize.SystemScienceDirect, r.SourceTitle),
		Journal:       strings.TrimSpace(r.SourceTitle),
		PublishedDate: normalize.ParseFlexibleDate(r.PublicationDate),
		PageCount:     normalize.ParsePageRange(pages),
	}, true
}
