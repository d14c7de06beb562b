package ieee

import (
	"context"
	"encoding/json"
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
	"github.com/helixir/paper-discovery-service/internal/papersources/simulated"
)

const (
	// DefaultBaseURL is the IEEE Xplore metadata API base URL.
	DefaultBaseURL = "https://ieeexploreapi.ieee.org/api/v1"

	// DefaultRateLimit stays under the API's 10 calls per second.
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRecordsLimit is the API's page size ceiling.
	MaxRecordsLimit = 200

	documentURLPrefix = "https://ieeexplore.ieee.org/document/"

	sourceName = "IEEE Xplore"
)

// Config holds the configuration for the IEEE Xplore client.
type Config struct {
	// BaseURL is the API base URL. Defaults to DefaultBaseURL.
	BaseURL string

	// APIKey authenticates live requests. When empty the client serves
	// placeholder papers.
	APIKey string

	Timeout   time.Duration
	RateLimit float64
	BurstSize int

	// Enabled indicates whether this source is enabled.
	Enabled bool
}

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

// Client implements papersources.PaperSource for IEEE Xplore.
type Client struct {
	config      Config
	httpClient  *papersources.HTTPClient
	placeholder *simulated.Generator
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates an IEEE Xplore client. The options configure the placeholder
// generator used when no API key is set.
func New(cfg Config, opts ...simulated.Option) *Client {
	cfg.applyDefaults()
	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
	})
	return NewWithHTTPClient(cfg, httpClient, opts...)
}

// NewWithHTTPClient creates a client with a custom HTTP client.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient, opts ...simulated.Option) *Client {
	cfg.applyDefaults()
	return &Client{
		config:      cfg,
		httpClient:  httpClient,
		placeholder: simulated.New(PlaceholderProfile(), opts...),
	}
}

// Platform returns domain.PlatformIEEE.
func (c *Client) Platform() domain.Platform {
	return domain.PlatformIEEE
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether the source is enabled. A missing API key does not
// disable it; the placeholder generator answers instead.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// Live reports whether searches reach the real API.
func (c *Client) Live() bool {
	return c.config.APIKey != ""
}

// Search returns the filter's page of IEEE Xplore articles.
func (c *Client) Search(ctx context.Context, filter domain.SearchFilter) ([]domain.PaperInput, error) {
	if !c.Live() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return c.placeholder.Generate(filter), nil
	}

	searchURL, err := c.buildSearchURL(filter, time.Now())
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

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

	papers := make([]domain.PaperInput, 0, len(searchResp.Articles))
	for i := range searchResp.Articles {
		if paper, ok := articleToPaper(&searchResp.Articles[i]); ok {
			papers = append(papers, paper)
		}
	}
	return papers, nil
}

// buildSearchURL translates the filter into articles search parameters.
// start_record is 1-based.
func (c *Client) buildSearchURL(filter domain.SearchFilter, now time.Time) (string, error) {
	u, err := url.Parse(strings.TrimRight(c.config.BaseURL, "/") + "/search/articles")
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	q := url.Values{}
	q.Set("apikey", c.config.APIKey)
	q.Set("format", "json")
	q.Set("max_records", strconv.Itoa(min(filter.Limit, MaxRecordsLimit)))
	q.Set("start_record", strconv.Itoa(filter.Offset()+1))

	if query := strings.TrimSpace(filter.Query); query != "" {
		q.Set("querytext", query)
	}
	if filter.Domain != "" {
		if d, ok := domain.ParseResearchDomain(filter.Domain); ok {
			q.Set("index_terms", string(d))
		}
	}
	if author := strings.TrimSpace(filter.Author); author != "" {
		q.Set("author", author)
	}
	if journal := strings.TrimSpace(filter.Journal); journal != "" {
		q.Set("publication_title", journal)
	}
	if start, end, ok := filter.DateWindow(now); ok {
		q.Set("start_year", strconv.Itoa(start.Year()))
		q.Set("end_year", strconv.Itoa(end.Year()))
	}

	// No citation sort upstream; citations fall back to relevance.
	switch filter.SortBy {
	case domain.SortDateDesc:
		q.Set("sort_field", "publication_year")
		q.Set("sort_order", "desc")
	case domain.SortDateAsc:
		q.Set("sort_field", "publication_year")
		q.Set("sort_order", "asc")
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// articleToPaper converts a search hit to a paper input. Untitled hits are dropped.
func articleToPaper(a *Article) (domain.PaperInput, bool) {
	title := normalize.CleanText(a.Title)
	if title == "" {
		return domain.PaperInput{}, false
	}

	link := a.HTMLURL
	if link == "" && a.ArticleNumber != "" {
		link = documentURLPrefix + a.ArticleNumber
	}

	names := make([]normalize.AuthorName, 0, len(a.Authors.Authors))
	for _, au := range a.Authors.Authors {
		names = append(names, normalize.AuthorName{Full: au.FullName})
	}

	terms := make([]string, 0, len(a.IndexTerms.IEEETerms.Terms)+len(a.IndexTerms.AuthorTerms.Terms)+1)
	terms = append(terms, a.IndexTerms.IEEETerms.Terms...)
	terms = append(terms, a.IndexTerms.AuthorTerms.Terms...)
	terms = append(terms, a.PublicationTitle)

	pages := ""
	if a.StartPage != "" && a.EndPage != "" {
		pages = a.StartPage + "-" + a.EndPage
	}

	return domain.PaperInput{
		Title:         title,
		Authors:       normalize.ExtractAuthors(names),
		Abstract:      normalize.CleanText(a.Abstract),
		DOI:           strings.TrimSpace(a.DOI),
		URL:           link,
		PDFURL:        a.PDFURL,
		Platform:      domain.PlatformIEEE,
		Domain:        normalize.ClassifyTerms(normalize.SystemIEEE, terms, domain.DomainOther),
		Journal:       strings.TrimSpace(a.PublicationTitle),
		PublishedDate: publicationDate(a.PublicationDate, a.PublicationYear),
		PageCount:     normalize.ParsePageRange(pages),
		CitationCount: max(0, a.CitingPaperCount),
	}, true
}

// publicationDateLayouts are the shapes Xplore uses for publication_date.
var publicationDateLayouts = []string{
	"2 Jan. 2006",
	"2 January 2006",
	"Jan. 2006",
	"January 2006",
}

// publicationDate reads Xplore's free-form publication date, falling back to
// the numeric year.
func publicationDate(raw string, year int) time.Time {
	raw = strings.TrimSpace(raw)
	// Ranges such as "10-12 Jan. 2023" keep their last day.
	if i := strings.Index(raw, "-"); i > 0 && i < 3 {
		raw = strings.TrimSpace(raw[i+1:])
	}
	for _, layout := range publicationDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	if t := normalize.ParseFlexibleDate(raw); !t.IsZero() {
		return t
	}
	if year > 0 {
		return normalize.DateFromParts(strconv.Itoa(year), "", "")
	}
	return time.Time{}
}
