package crossref

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/cache"
	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/normalize"
	"github.com/helixir/paper-discovery-service/internal/papersources"
)

const (
	// DefaultBaseURL is the CrossRef works endpoint.
	DefaultBaseURL = "https://api.crossref.org/works"

	// DefaultCacheTTL is how long lookups, including misses, are cached.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 15 * time.Second

	cacheKeyPrefix = "crossref:doi:"
	notFoundMarker = "null"

	sourceName = "CrossRef"
)

// Config holds the configuration for the resolver.
type Config struct {
	BaseURL string

	// Mailto is sent as the mailto parameter, which routes requests to
	// CrossRef's polite pool.
	Mailto string

	Timeout   time.Duration
	RateLimit float64
	BurstSize int
	CacheTTL  time.Duration

	// MaxRetries is passed to the HTTP client.
	MaxRetries int
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = 5
	}
	if c.BurstSize == 0 {
		c.BurstSize = 5
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = DefaultCacheTTL
	}
}

// Resolver looks DOIs up on CrossRef.
type Resolver struct {
	config     Config
	httpClient *papersources.HTTPClient
	cache      cache.Cache
	logger     zerolog.Logger
}

// New creates a resolver. A nil cache disables caching.
func New(cfg Config, c cache.Cache, logger zerolog.Logger) *Resolver {
	cfg.applyDefaults()
	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
		MaxRetries: cfg.MaxRetries,
	})
	return NewWithHTTPClient(cfg, httpClient, c, logger)
}

// NewWithHTTPClient creates a resolver with a custom HTTP client.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient, c cache.Cache, logger zerolog.Logger) *Resolver {
	cfg.applyDefaults()
	if c == nil {
		c = cache.Noop{}
	}
	return &Resolver{
		config:     cfg,
		httpClient: httpClient,
		cache:      c,
		logger:     logger.With().Str("component", "crossref").Logger(),
	}
}

// Lookup returns the paper registered under doi. An unknown DOI yields a
// domain.NotFoundError.
func (r *Resolver) Lookup(ctx context.Context, doi string) (*domain.PaperInput, error) {
	doi = domain.NormalizeDOI(doi)
	if doi == "" {
		return nil, domain.NewValidationError("doi", "must not be empty")
	}

	key := cacheKeyPrefix + doi
	if cached, ok := r.fromCache(ctx, key); ok {
		if cached == nil {
			return nil, domain.NewNotFoundError("paper", doi)
		}
		return cached, nil
	}

	paper, err := r.fetch(ctx, doi)
	var nf *domain.NotFoundError
	switch {
	case errors.As(err, &nf):
		r.toCache(ctx, key, []byte(notFoundMarker))
		return nil, err
	case err != nil:
		return nil, err
	}

	if body, err := json.Marshal(paper); err == nil {
		r.toCache(ctx, key, body)
	}
	return paper, nil
}

// fromCache returns (nil, true) for a cached miss.
func (r *Resolver) fromCache(ctx context.Context, key string) (*domain.PaperInput, bool) {
	body, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if string(body) == notFoundMarker {
		return nil, true
	}
	var paper domain.PaperInput
	if err := json.Unmarshal(body, &paper); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
		return nil, false
	}
	return &paper, true
}

func (r *Resolver) toCache(ctx context.Context, key string, body []byte) {
	if err := r.cache.Set(ctx, key, body, r.config.CacheTTL); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (r *Resolver) fetch(ctx context.Context, doi string) (*domain.PaperInput, error) {
	target := strings.TrimRight(r.config.BaseURL, "/") + "/" + url.PathEscape(doi)
	if r.config.Mailto != "" {
		target += "?" + url.Values{"mailto": {r.config.Mailto}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.NewNotFoundError("paper", doi)
	}
	if err := papersources.StatusError(sourceName, resp); err != nil {
		return nil, err
	}

	var envelope WorkResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if envelope.Message == nil {
		return nil, domain.NewNotFoundError("paper", doi)
	}

	paper := workToPaper(envelope.Message, doi)
	return &paper, nil
}

// workToPaper maps a CrossRef work. The requested DOI is kept as the paper's DOI.
func workToPaper(w *Work, doi string) domain.PaperInput {
	title := ""
	if len(w.Title) > 0 {
		title = normalize.CleanText(w.Title[0])
	}
	if title == "" {
		title = "Untitled"
	}

	names := make([]normalize.AuthorName, 0, len(w.Author))
	for _, a := range w.Author {
		names = append(names, normalize.AuthorName{Given: a.Given, Family: a.Family, Full: a.Name})
	}

	link := w.URL
	if link == "" {
		link = "https://doi.org/" + doi
	}

	var pdf string
	for _, l := range w.Link {
		if l.ContentType == "application/pdf" {
			pdf = l.URL
			break
		}
	}

	journal := ""
	if len(w.ContainerTitle) > 0 {
		journal = strings.TrimSpace(w.ContainerTitle[0])
	}

	return domain.PaperInput{
		Title:         title,
		Authors:       normalize.ExtractAuthors(names),
		Abstract:      normalize.CleanText(w.Abstract),
		DOI:           doi,
		URL:           link,
		PDFURL:        pdf,
		Platform:      platformForPublisher(w.Publisher),
		Domain:        normalize.ClassifyTerms(normalize.SystemCrossRef, w.Subject, domain.DomainOther),
		Journal:       journal,
		PublishedDate: publishedDate(w),
		PageCount:     normalize.ParsePageRange(w.Page),
		CitationCount: max(0, w.IsReferencedByCount),
	}
}

// publishedDate takes the first populated of published, published-print,
// published-online and created.
func publishedDate(w *Work) time.Time {
	for _, dp := range []*DateParts{w.Published, w.PublishedPrint, w.PublishedOnline, w.Created} {
		if dp == nil || len(dp.Parts) == 0 {
			continue
		}
		if t := normalize.DateFromInts(dp.Parts[0]); !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

// platformForPublisher maps a publisher name onto a platform.
func platformForPublisher(publisher string) domain.Platform {
	switch {
	case strings.Contains(publisher, "Elsevier"):
		return domain.PlatformScienceDirect
	case strings.Contains(publisher, "IEEE"):
		return domain.PlatformIEEE
	case strings.Contains(publisher, "Springer"):
		return domain.PlatformSpringer
	case strings.Contains(publisher, "PubMed"), strings.Contains(publisher, "NCBI"):
		return domain.PlatformPubMed
	case strings.Contains(publisher, "arXiv"):
		return domain.PlatformArXiv
	default:
		return domain.PlatformOther
	}
}
