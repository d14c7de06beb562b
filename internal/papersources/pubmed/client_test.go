package pubmed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/papersources"
)

const esearchResponseXML = `<?xml version="1.0" encoding="UTF-8" ?>
<eSearchResult>
	<Count>2</Count>
	<RetMax>2</RetMax>
	<RetStart>0</RetStart>
	<IdList>
		<Id>12345678</Id>
		<Id>87654321</Id>
	</IdList>
</eSearchResult>`

const esearchEmptyResponseXML = `<?xml version="1.0" encoding="UTF-8" ?>
<eSearchResult>
	<Count>0</Count>
	<IdList></IdList>
</eSearchResult>`

const esearchPhraseNotFoundXML = `<?xml version="1.0" encoding="UTF-8" ?>
<eSearchResult>
	<Count>0</Count>
	<IdList></IdList>
	<ErrorList>
		<PhraseNotFound>nonexistent_term_xyz</PhraseNotFound>
	</ErrorList>
</eSearchResult>`

const efetchResponseXML = `<?xml version="1.0" encoding="UTF-8" ?>
<PubmedArticleSet>
	<PubmedArticle>
		<MedlineCitation Status="MEDLINE" Owner="NLM">
			<PMID Version="1">12345678</PMID>
			<Article PubModel="Print-Electronic">
				<Journal>
					<JournalIssue CitedMedium="Internet">
						<Volume>12</Volume>
						<PubDate><Year>2023</Year><Month>Mar</Month></PubDate>
					</JournalIssue>
					<Title>Nature Genetics</Title>
					<ISOAbbreviation>Nat Genet</ISOAbbreviation>
				</Journal>
				<ArticleTitle>Gene expression &amp; regulation in T cells.</ArticleTitle>
				<Pagination><MedlinePgn>100-109</MedlinePgn></Pagination>
				<ELocationID EIdType="doi" ValidYN="Y">10.1038/NG.2023.1</ELocationID>
				<Abstract>
					<AbstractText Label="BACKGROUND">T cells matter.</AbstractText>
					<AbstractText Label="RESULTS">They regulate.</AbstractText>
				</Abstract>
				<AuthorList CompleteYN="Y">
					<Author ValidYN="Y"><LastName>Curie</LastName><ForeName>Marie</ForeName></Author>
					<Author ValidYN="N"><LastName>Ghost</LastName><ForeName>Invalid</ForeName></Author>
					<Author><CollectiveName>Genome Consortium</CollectiveName></Author>
				</AuthorList>
				<ArticleDate DateType="Electronic"><Year>2023</Year><Month>02</Month><Day>14</Day></ArticleDate>
			</Article>
			<KeywordList Owner="NOTNLM">
				<Keyword MajorTopicYN="N">gene expression</Keyword>
			</KeywordList>
		</MedlineCitation>
		<PubmedData>
			<ArticleIdList>
				<ArticleId IdType="pubmed">12345678</ArticleId>
				<ArticleId IdType="pmc">PMC999</ArticleId>
			</ArticleIdList>
		</PubmedData>
	</PubmedArticle>
	<PubmedArticle>
		<MedlineCitation>
			<PMID>87654321</PMID>
			<Article>
				<Journal>
					<JournalIssue>
						<PubDate><MedlineDate>2020 Jan-Feb</MedlineDate></PubDate>
					</JournalIssue>
					<ISOAbbreviation>Lancet</ISOAbbreviation>
				</Journal>
				<ArticleTitle>A randomized trial</ArticleTitle>
				<Abstract><AbstractText>Plain abstract.</AbstractText></Abstract>
			</Article>
		</MedlineCitation>
		<PubmedData>
			<ArticleIdList>
				<ArticleId IdType="doi">10.1016/S0140-6736(20)30001-1</ArticleId>
			</ArticleIdList>
		</PubmedData>
	</PubmedArticle>
	<PubmedArticle>
		<MedlineCitation>
			<PMID>1</PMID>
			<Article><ArticleTitle>  </ArticleTitle></Article>
		</MedlineCitation>
	</PubmedArticle>
</PubmedArticleSet>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{RateLimit: 100, BurstSize: 10})
	return NewWithHTTPClient(Config{BaseURL: server.URL, APIKey: "k", Enabled: true}, httpClient)
}

func TestNew(t *testing.T) {
	c := New(Config{})
	assert.Equal(t, DefaultBaseURL, c.config.BaseURL)
	assert.Equal(t, DefaultTimeout, c.config.Timeout)
	assert.Equal(t, DefaultRateLimit, c.config.RateLimit)
	assert.Equal(t, DefaultBurstSize, c.config.BurstSize)
	assert.False(t, c.IsEnabled())
	assert.Equal(t, domain.PlatformPubMed, c.Platform())
	assert.Equal(t, "PubMed", c.Name())
}

func TestClient_Search(t *testing.T) {
	var searchQuery url.Values
	var fetchIDs string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		switch {
		case strings.HasSuffix(r.URL.Path, "/esearch.fcgi"):
			searchQuery = r.URL.Query()
			_, _ = w.Write([]byte(esearchResponseXML))
		case strings.HasSuffix(r.URL.Path, "/efetch.fcgi"):
			fetchIDs = r.URL.Query().Get("id")
			_, _ = w.Write([]byte(efetchResponseXML))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	filter := domain.SearchFilter{Query: "t cells", Page: 2, Limit: 5, SortBy: domain.SortDateDesc}
	papers, err := client.Search(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, "t cells[All Fields]", searchQuery.Get("term"))
	assert.Equal(t, "5", searchQuery.Get("retstart"))
	assert.Equal(t, "5", searchQuery.Get("retmax"))
	assert.Equal(t, "pub_date", searchQuery.Get("sort"))
	assert.Equal(t, "k", searchQuery.Get("api_key"))
	assert.Equal(t, "12345678,87654321", fetchIDs)

	require.Len(t, papers, 2, "untitled articles are dropped")

	first := papers[0]
	assert.Equal(t, "Gene expression & regulation in T cells.", first.Title)
	assert.Equal(t, []string{"Marie Curie", "Genome Consortium"}, first.Authors)
	assert.Equal(t, "BACKGROUND: T cells matter. RESULTS: They regulate.", first.Abstract)
	assert.Equal(t, "10.1038/NG.2023.1", first.DOI)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/12345678/", first.URL)
	assert.Equal(t, "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC999/pdf/", first.PDFURL)
	assert.Equal(t, domain.PlatformPubMed, first.Platform)
	assert.Equal(t, domain.DomainBiology, first.Domain)
	assert.Equal(t, "Nature Genetics", first.Journal)
	assert.Equal(t, time.Date(2023, 2, 14, 0, 0, 0, 0, time.UTC), first.PublishedDate)
	assert.Equal(t, 10, first.PageCount)
	assert.Zero(t, first.ViewCount)
	assert.Zero(t, first.CitationCount)

	second := papers[1]
	assert.Equal(t, "10.1016/S0140-6736(20)30001-1", second.DOI)
	assert.Equal(t, "Lancet", second.Journal)
	assert.Equal(t, domain.DomainMedicine, second.Domain)
	assert.Equal(t, 2020, second.PublishedDate.Year())
	assert.Empty(t, second.PDFURL)
	assert.NotNil(t, second.Authors)
	assert.Empty(t, second.Authors)
	assert.Zero(t, second.PageCount)
}

func TestClient_Search_NoResults(t *testing.T) {
	for name, body := range map[string]string{
		"empty id list":    esearchEmptyResponseXML,
		"phrase not found": esearchPhraseNotFoundXML,
	} {
		t.Run(name, func(t *testing.T) {
			var fetches atomic.Int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if strings.HasSuffix(r.URL.Path, "/efetch.fcgi") {
					fetches.Add(1)
				}
				_, _ = w.Write([]byte(body))
			})

			papers, err := client.Search(context.Background(), domain.SearchFilter{Query: "x", Page: 1, Limit: 10})
			require.NoError(t, err)
			assert.NotNil(t, papers)
			assert.Empty(t, papers)
			assert.Zero(t, fetches.Load())
		})
	}
}

func TestClient_Search_Errors(t *testing.T) {
	t.Run("esearch status", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("down"))
		})

		_, err := client.Search(context.Background(), domain.SearchFilter{Query: "x", Page: 1, Limit: 10})
		require.Error(t, err)
		var apiErr *domain.ExternalAPIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
		assert.Equal(t, "PubMed", apiErr.Source)
	})

	t.Run("efetch malformed", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/esearch.fcgi") {
				_, _ = w.Write([]byte(esearchResponseXML))
				return
			}
			_, _ = w.Write([]byte("<PubmedArticleSet><broken"))
		})

		_, err := client.Search(context.Background(), domain.SearchFilter{Query: "x", Page: 1, Limit: 10})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "efetch failed")
	})

	t.Run("cancelled context", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(esearchResponseXML))
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Search(ctx, domain.SearchFilter{Query: "x", Page: 1, Limit: 10})
		require.Error(t, err)
	})
}

func TestBuildTerm(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter domain.SearchFilter
		want   string
	}{
		{name: "empty falls back", filter: domain.SearchFilter{}, want: "science[All Fields]"},
		{name: "query", filter: domain.SearchFilter{Query: " crispr "}, want: "crispr[All Fields]"},
		{
			name:   "domain maps to mesh",
			filter: domain.SearchFilter{Domain: "Psychology"},
			want:   "Psychology[MeSH]",
		},
		{
			name:   "unmapped domain is ignored",
			filter: domain.SearchFilter{Domain: "Mathematics"},
			want:   "science[All Fields]",
		},
		{
			name:   "author and journal",
			filter: domain.SearchFilter{Query: "asthma", Author: "Smith J", Journal: "Thorax"},
			want:   "asthma[All Fields] AND Smith J[Author] AND Thorax[Journal]",
		},
		{
			name:   "custom window",
			filter: domain.SearchFilter{DateRange: domain.DateRangeCustom, CustomStartDate: &start, CustomEndDate: &end},
			want:   `("2023/01/01"[Date - Publication] : "2023/12/31"[Date - Publication])`,
		},
		{
			name:   "relative window",
			filter: domain.SearchFilter{DateRange: domain.DateRangeWeek},
			want:   `("2024/06/08"[Date - Publication] : "2024/06/15"[Date - Publication])`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildTerm(tt.filter, now))
		})
	}
}

func TestSortKey(t *testing.T) {
	assert.Equal(t, "pub_date", sortKey(domain.SortDateDesc))
	assert.Equal(t, "pub_date", sortKey(domain.SortDateAsc))
	assert.Equal(t, "relevance", sortKey(domain.SortCitations))
	assert.Equal(t, "relevance", sortKey(domain.SortRelevance))
}

func TestExtractPages(t *testing.T) {
	assert.Equal(t, "", extractPages(nil))
	assert.Equal(t, "e12-e20", extractPages(&Pagination{MedlinePgn: "e12-e20"}))
	assert.Equal(t, "5-9", extractPages(&Pagination{StartPage: "5", EndPage: "9"}))
	assert.Equal(t, "5", extractPages(&Pagination{StartPage: "5", EndPage: "5"}))
}
