package springer

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
	// DefaultBaseURL is the Springer Nature Meta API base URL.
	DefaultBaseURL = "https://api.springernature.com/meta/v2"

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 2.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 2

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxPageLength is the largest p the API accepts.
	MaxPageLength = 100

	// fallbackQuery is sent when the filter carries no query terms.
	fallbackQuery = "research"

	sourceName = "Springer"
)

// Config holds the configuration for the Springer client.
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

// Client implements papersources.PaperSource for Springer Nature.
type Client struct {
	config      Config
	httpClient  *papersources.HTTPClient
	placeholder *simulated.Generator
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates a Springer client. The options configure the placeholder
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

// Platform returns domain.PlatformSpringer.
func (c *Client) Platform() domain.Platform {
	return domain.PlatformSpringer
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether the source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// Live reports whether searches reach the real API.
func (c *Client) Live() bool {
	return c.config.APIKey != ""
}

// Search returns the filter's page of Springer records.
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

	papers := make([]domain.PaperInput, 0, len(searchResp.Records))
	for i := range searchResp.Records {
		if paper, ok := recordToPaper(&searchResp.Records[i]); ok {
			papers = append(papers, paper)
		}
	}
	return papers, nil
}

// buildQuery combines the filter into a Meta API q expression.
func buildQuery(filter domain.SearchFilter, now time.Time) string {
	var parts []string

	if q := strings.TrimSpace(filter.Query); q != "" {
		parts = append(parts, q)
	}
	if filter.Domain != "" {
		if d, ok := domain.ParseResearchDomain(filter.Domain); ok {
			if subject, ok := normalize.DomainToSpringerSubject(d); ok {
				parts = append(parts, fmt.Sprintf("subject:%q", subject))
			}
		}
	}
	if a := strings.TrimSpace(filter.Author); a != "" {
		parts = append(parts, fmt.Sprintf("name:%q", a))
	}
	if j := strings.TrimSpace(filter.Journal); j != "" {
		parts = append(parts, fmt.Sprintf("journal:%q", j))
	}
	if start, end, ok := filter.DateWindow(now); ok {
		parts = append(parts,
			"onlinedatefrom:"+start.UTC().Format("2006-01-02"),
			"onlinedateto:"+end.UTC().Format("2006-01-02"))
	}

	if len(parts) == 0 {
		parts = append(parts, fallbackQuery)
	}

	// The API only sorts by date newest first; the store reorders.
	if filter.SortBy == domain.SortDateDesc || filter.SortBy == domain.SortDateAsc {
		parts = append(parts, "sort:date")
	}
	return strings.Join(parts, " AND ")
}

// buildSearchURL adds paging to the query. s is 1-based.
func (c *Client) buildSearchURL(filter domain.SearchFilter, now time.Time) (string, error) {
	u, err := url.Parse(strings.TrimRight(c.config.BaseURL, "/") + "/json")
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	q := url.Values{}
	q.Set("q", buildQuery(filter, now))
	q.Set("api_key", c.config.APIKey)
	q.Set("s", strconv.Itoa(filter.Offset()+1))
	q.Set("p", strconv.Itoa(min(filter.Limit, MaxPageLength)))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// recordToPaper converts a Meta API record to a paper input.
func recordToPaper(r *Record) (domain.PaperInput, bool) {
	title := normalize.CleanText(r.Title)
	if title == "" {
		return domain.PaperInput{}, false
	}

	doi := strings.TrimSpace(r.DOI)
	if doi == "" && strings.HasPrefix(r.Identifier, "doi:") {
		doi = strings.TrimPrefix(r.Identifier, "doi:")
	}

	var link, pdf string
	for _, l := range r.URL {
		switch strings.ToLower(l.Format) {
		case "pdf":
			if pdf == "" {
				pdf = l.Value
			}
		default:
			if link == "" {
				link = l.Value
			}
		}
	}
	if link == "" && doi != "" {
		link = "https://link.springer.com/" + doi
	}

	published := normalize.ParseFlexibleDate(r.PublicationDate)
	if published.IsZero() {
		published = normalize.ParseFlexibleDate(r.OnlineDate)
	}

	terms := make([]string, 0, len(r.Subjects)+len(r.Disciplines))
	terms = append(terms, r.Subjects...)
	for _, d := range r.Disciplines {
		terms = append(terms, d.Term)
	}

	pages := r.StartingPage
	if r.StartingPage != "" && r.EndingPage != "" {
		pages = r.StartingPage + "-" + r.EndingPage
	}

	return domain.PaperInput{
		Title:         title,
		Authors:       extractAuthors(r.Creators),
		Abstract:      normalize.CleanText(string(r.Abstract)),
		DOI:           doi,
		URL:           link,
		PDFURL:        pdf,
		Platform:      domain.PlatformSpringer,
		Domain:        normalize.ClassifyTerms(normalize.SystemSpringer, terms, domain.DomainOther),
		Journal:       strings.TrimSpace(r.PublicationName),
		PublishedDate: published,
		PageCount:     normalize.ParsePageRange(pages),
	}, true
}

// extractAuthors turns "Family, Given" creators into display names.
func extractAuthors(creators []Creator) []string {
	names := make([]normalize.AuthorName, 0, len(creators))
	for _, c := range creators {
		family, given, found := strings.Cut(c.Creator, ",")
		if !found {
			names = append(names, normalize.AuthorName{Full: c.Creator})
			continue
		}
		names = append(names, normalize.AuthorName{Given: given, Family: family})
	}
	return normalize.ExtractAuthors(names)
}
