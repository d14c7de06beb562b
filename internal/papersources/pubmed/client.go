package pubmed

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
	// DefaultBaseURL is the base URL for NCBI E-utilities API.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultRateLimit is the rate limit without an API key (3 requests/second).
	// With an API key, the limit increases to 10 requests/second.
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxResultsLimit is the maximum results allowed per request by the API.
	MaxResultsLimit = 10000

	// fallbackTerm is searched when the filter carries no query terms.
	fallbackTerm = "science[All Fields]"

	// articleURLPrefix prefixes the PMID in article links.
	articleURLPrefix = "https://pubmed.ncbi.nlm.nih.gov/"

	sourceName = "PubMed"
)

// Config holds the configuration for the PubMed client.
type Config struct {
	// BaseURL is the base URL for the E-utilities API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is the NCBI API key for higher rate limits.
	// Optional but recommended for production use.
	APIKey string

	// Timeout is the request timeout.
	// Defaults to DefaultTimeout if zero.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	// Defaults to DefaultRateLimit (3 req/sec) if zero.
	// With an API key, you can increase this to 10 req/sec.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	// Defaults to DefaultBurstSize if zero.
	BurstSize int

	// Enabled indicates whether this source is enabled.
	Enabled bool
}

// applyDefaults applies default values to the config.
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

// Client implements the papersources.PaperSource interface for PubMed.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Compile-time check that Client implements PaperSource.
var _ papersources.PaperSource = (*Client)(nil)

// New creates a new PubMed client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpCfg := papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
	}

	return &Client{
		config:     cfg,
		httpClient: papersources.NewHTTPClient(httpCfg),
	}
}

// NewWithHTTPClient creates a new PubMed client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries PubMed for the filter's page of papers.
// It performs a two-step search:
// 1. esearch.fcgi - retrieves PMIDs matching the query
// 2. efetch.fcgi - retrieves full article metadata for the PMIDs
func (c *Client) Search(ctx context.Context, filter domain.SearchFilter) ([]domain.PaperInput, error) {
	searchResult, err := c.esearch(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("esearch failed: %w", err)
	}

	// A phrase PubMed does not know is an empty result, not an error.
	if searchResult.ErrorList != nil && len(searchResult.ErrorList.PhraseNotFound) > 0 {
		return []domain.PaperInput{}, nil
	}
	if len(searchResult.IDList.IDs) == 0 {
		return []domain.PaperInput{}, nil
	}

	articles, err := c.efetch(ctx, searchResult.IDList.IDs)
	if err != nil {
		return nil, fmt.Errorf("efetch failed: %w", err)
	}

	papers := make([]domain.PaperInput, 0, len(articles.Articles))
	for _, article := range articles.Articles {
		if paper, ok := articleToPaper(article); ok {
			papers = append(papers, paper)
		}
	}
	return papers, nil
}

// Platform returns domain.PlatformPubMed.
func (c *Client) Platform() domain.Platform {
	return domain.PlatformPubMed
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether the source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// buildTerm combines the filter into an E-utilities search term.
func buildTerm(filter domain.SearchFilter, now time.Time) string {
	var terms []string

	if q := strings.TrimSpace(filter.Query); q != "" {
		terms = append(terms, q+"[All Fields]")
	}
	if filter.Domain != "" {
		if d, ok := domain.ParseResearchDomain(filter.Domain); ok {
			if mesh, ok := normalize.DomainToMeSH(d); ok {
				terms = append(terms, mesh)
			}
		}
	}
	if a := strings.TrimSpace(filter.Author); a != "" {
		terms = append(terms, a+"[Author]")
	}
	if j := strings.TrimSpace(filter.Journal); j != "" {
		terms = append(terms, j+"[Journal]")
	}
	if start, end, ok := filter.DateWindow(now); ok {
		terms = append(terms, fmt.Sprintf(`("%s"[Date - Publication] : "%s"[Date - Publication])`,
			start.UTC().Format("2006/01/02"), end.UTC().Format("2006/01/02")))
	}

	if len(terms) == 0 {
		return fallbackTerm
	}
	return strings.Join(terms, " AND ")
}

// sortKey maps the sort order onto esearch's sort parameter. PubMed has no
// citation sort, so citations fall back to relevance.
func sortKey(by domain.SortBy) string {
	switch by {
	case domain.SortDateDesc:
		return "pub_date"
	case domain.SortDateAsc:
		// esearch only sorts publication dates newest first; the store reorders.
		return "pub_date"
	default:
		return "relevance"
	}
}

// esearch performs a search query and returns matching PMIDs.
func (c *Client) esearch(ctx context.Context, filter domain.SearchFilter) (*ESearchResult, error) {
	u, err := url.Parse(c.config.BaseURL + "/esearch.fcgi")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	limit := min(filter.Limit, MaxResultsLimit)

	q := u.Query()
	q.Set("db", "pubmed")
	q.Set("term", buildTerm(filter, time.Now()))
	q.Set("retmode", "xml")
	q.Set("usehistory", "n")
	q.Set("retmax", strconv.Itoa(limit))
	q.Set("retstart", strconv.Itoa(filter.Offset()))
	q.Set("sort", sortKey(filter.SortBy))
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}
	u.RawQuery = q.Encode()

	var result ESearchResult
	if err := c.getXML(ctx, u.String(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// efetch retrieves full article metadata for the given PMIDs.
func (c *Client) efetch(ctx context.Context, pmids []string) (*PubmedArticleSet, error) {
	u, err := url.Parse(c.config.BaseURL + "/efetch.fcgi")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	q := u.Query()
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(pmids, ","))
	q.Set("retmode", "xml")
	q.Set("rettype", "abstract")
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}
	u.RawQuery = q.Encode()

	var result PubmedArticleSet
	if err := c.getXML(ctx, u.String(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) getXML(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := papersources.StatusError(sourceName, resp); err != nil {
		return err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := xml.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse XML response: %w", err)
	}
	return nil
}

// articleToPaper converts a PubmedArticle to a paper input.
func articleToPaper(article PubmedArticle) (domain.PaperInput, bool) {
	citation := article.MedlineCitation
	title := normalize.CleanText(citation.Article.ArticleTitle)
	if title == "" {
		return domain.PaperInput{}, false
	}

	journal := citation.Article.Journal.Title
	if journal == "" {
		journal = citation.Article.Journal.ISOAbbreviation
	}

	pmid := strings.TrimSpace(citation.PMID.Value)

	return domain.PaperInput{
		Title:         title,
		Authors:       extractAuthors(citation.Article.AuthorList),
		Abstract:      normalize.CleanText(extractAbstract(citation.Article.Abstract)),
		DOI:           extractDOI(citation.Article, article.PubmedData),
		URL:           articleURLPrefix + pmid + "/",
		PDFURL:        extractPMCLink(article.PubmedData),
		Platform:      domain.PlatformPubMed,
		Domain:        classify(citation, journal),
		Journal:       journal,
		PublishedDate: extractPublicationDate(citation.Article),
		PageCount:     normalize.ParsePageRange(extractPages(citation.Article.Pagination)),
	}, true
}

// classify derives the domain from keywords, MeSH terms and the journal name,
// defaulting to Medicine.
func classify(citation MedlineCitation, journal string) domain.ResearchDomain {
	var terms []string
	if citation.KeywordList != nil {
		for _, kw := range citation.KeywordList.Keywords {
			terms = append(terms, kw.Value)
		}
	}
	if citation.MeshHeadingList != nil {
		for _, mh := range citation.MeshHeadingList.MeshHeadings {
			terms = append(terms, mh.DescriptorName.Value)
		}
	}
	terms = append(terms, journal)
	return normalize.ClassifyTerms(normalize.SystemPubMed, terms, domain.DomainMedicine)
}

// extractDOI extracts the DOI from article metadata.
// It checks ELocationID first (more reliable), then ArticleIdList.
func extractDOI(article Article, pubmedData PubmedData) string {
	for _, eloc := range article.ELocationID {
		if eloc.EIdType == "doi" && (eloc.Valid == "" || eloc.Valid == "Y") {
			return strings.TrimSpace(eloc.Value)
		}
	}
	for _, aid := range pubmedData.ArticleIdList.ArticleIds {
		if aid.IdType == "doi" {
			return strings.TrimSpace(aid.Value)
		}
	}
	return ""
}

// extractPMCLink returns the PubMed Central PDF link when the article is in PMC.
func extractPMCLink(pubmedData PubmedData) string {
	for _, aid := range pubmedData.ArticleIdList.ArticleIds {
		if aid.IdType == "pmc" && aid.Value != "" {
			return "https://www.ncbi.nlm.nih.gov/pmc/articles/" + strings.TrimSpace(aid.Value) + "/pdf/"
		}
	}
	return ""
}

// extractPublicationDate uses ArticleDate if available, otherwise PubDate.
func extractPublicationDate(article Article) time.Time {
	for _, ad := range article.ArticleDate {
		if ad.DateType == "epublish" || ad.DateType == "Electronic" || ad.DateType == "" {
			if t := normalize.DateFromParts(ad.Year, ad.Month, ad.Day); !t.IsZero() {
				return t
			}
		}
	}

	pubDate := article.Journal.JournalIssue.PubDate
	if pubDate.Year != "" {
		return normalize.DateFromParts(pubDate.Year, pubDate.Month, pubDate.Day)
	}
	// MedlineDate looks like "2020 Jan-Feb" or "2020 Spring".
	return normalize.ParseFlexibleDate(pubDate.MedlineDate)
}

// extractAbstract concatenates multiple abstract sections into a single string.
func extractAbstract(abstract *Abstract) string {
	if abstract == nil || len(abstract.AbstractTexts) == 0 {
		return ""
	}

	if len(abstract.AbstractTexts) == 1 && abstract.AbstractTexts[0].Label == "" {
		return strings.TrimSpace(abstract.AbstractTexts[0].Value)
	}

	var parts []string
	for _, at := range abstract.AbstractTexts {
		text := strings.TrimSpace(at.Value)
		if text == "" {
			continue
		}
		if at.Label != "" {
			parts = append(parts, at.Label+": "+text)
		} else {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// extractAuthors converts PubMed authors to display names.
func extractAuthors(authorList *AuthorList) []string {
	if authorList == nil {
		return []string{}
	}

	names := make([]normalize.AuthorName, 0, len(authorList.Authors))
	for _, a := range authorList.Authors {
		if a.ValidYN == "N" {
			continue
		}
		names = append(names, normalize.AuthorName{
			Given:  a.ForeName,
			Family: a.LastName,
			Full:   a.CollectiveName,
		})
	}
	return normalize.ExtractAuthors(names)
}

// extractPages formats the page information.
func extractPages(pagination *Pagination) string {
	if pagination == nil {
		return ""
	}
	if pagination.MedlinePgn != "" {
		return pagination.MedlinePgn
	}
	if pagination.StartPage != "" {
		if pagination.EndPage != "" && pagination.EndPage != pagination.StartPage {
			return pagination.StartPage + "-" + pagination.EndPage
		}
		return pagination.StartPage
	}
	return ""
}
