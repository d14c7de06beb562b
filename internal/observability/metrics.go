package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by callers.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"

	SummaryPathLLM       = "llm"
	SummaryPathHeuristic = "heuristic"
	SummaryPathMinimal   = "minimal"
)

// Metrics contains all Prometheus metrics for the paper discovery service.
// Metrics are organized by subsystem: sources, searches, papers, summaries,
// LLM calls, DOI lookups, events, maintenance and HTTP. All metrics are
// registered via promauto with the default Prometheus registry.
//
// Record methods are safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	// SourceSearches counts adapter searches, labeled by source and status.
	SourceSearches *prometheus.CounterVec

	// SourceSearchDuration observes adapter search duration in seconds, labeled by source.
	SourceSearchDuration *prometheus.HistogramVec

	// PapersPerSource observes the number of papers one adapter search returned.
	PapersPerSource *prometheus.HistogramVec

	// Searches counts orchestrated searches, labeled by result source (database, mixed).
	Searches *prometheus.CounterVec

	// SearchDuration observes end-to-end orchestrated search duration in seconds.
	SearchDuration prometheus.Histogram

	// PapersIngested counts newly stored papers, labeled by platform.
	PapersIngested *prometheus.CounterVec

	// PapersDuplicate counts adapter papers whose DOI was already stored.
	PapersDuplicate prometheus.Counter

	// PapersInvalid counts adapter papers rejected by validation.
	PapersInvalid prometheus.Counter

	// SummaryGenerations counts summaries generated, labeled by path (llm, heuristic, minimal).
	SummaryGenerations *prometheus.CounterVec

	// LLMRequests counts LLM completions, labeled by provider and status.
	LLMRequests *prometheus.CounterVec

	// LLMRequestDuration observes LLM completion duration in seconds, labeled by provider.
	LLMRequestDuration *prometheus.HistogramVec

	// DOILookups counts DOI lookups, labeled by outcome (stored, resolved, not_found, error).
	DOILookups *prometheus.CounterVec

	// EventsPublished counts discovery events, labeled by status.
	EventsPublished *prometheus.CounterVec

	// RecentSearchesPurged counts recent searches removed by the retention job.
	RecentSearchesPurged prometheus.Counter

	// HTTPRequests counts API requests, labeled by method, route and status code.
	HTTPRequests *prometheus.CounterVec

	// HTTPRequestDuration observes API request duration in seconds, labeled by method and route.
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Sources
		SourceSearches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_searches_total",
			Help:      "Total number of adapter searches by source and status",
		}, []string{"source", "status"}),
		SourceSearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_search_duration_seconds",
			Help:      "Duration of adapter searches in seconds by source",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		PapersPerSource: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "papers_per_source_search",
			Help:      "Number of papers returned per adapter search by source",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}, []string{"source"}),

		// Searches
		Searches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of paper searches by result source",
		}, []string{"result_source"}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of paper searches in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),

		// Papers
		PapersIngested: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_ingested_total",
			Help:      "Total number of papers newly stored by platform",
		}, []string{"platform"}),
		PapersDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_duplicate_total",
			Help:      "Total number of papers skipped because their DOI was already stored",
		}),
		PapersInvalid: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_invalid_total",
			Help:      "Total number of source papers rejected by validation",
		}),

		// Summaries
		SummaryGenerations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_generations_total",
			Help:      "Total number of summaries generated by path",
		}, []string{"path"}),

		// LLM
		LLMRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests by provider and status",
		}, []string{"provider", "status"}),
		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of LLM requests in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider"}),

		// DOI lookups
		DOILookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "doi_lookups_total",
			Help:      "Total number of DOI lookups by outcome",
		}, []string{"outcome"}),

		// Events
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of discovery events published by status",
		}, []string{"status"}),

		// Maintenance
		RecentSearchesPurged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recent_searches_purged_total",
			Help:      "Total number of recent searches removed by retention",
		}),

		// HTTP
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// RecordSourceSearch records the settled outcome of one adapter search.
func (m *Metrics) RecordSourceSearch(source string, paperCount int, durationSeconds float64, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	m.SourceSearches.WithLabelValues(source, status).Inc()
	m.SourceSearchDuration.WithLabelValues(source).Observe(durationSeconds)
	if err == nil {
		m.PapersPerSource.WithLabelValues(source).Observe(float64(paperCount))
	}
}

// RecordSearch records an orchestrated search.
func (m *Metrics) RecordSearch(resultSource string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(resultSource).Inc()
	m.SearchDuration.Observe(durationSeconds)
}

// RecordPaperIngested records a newly stored paper.
func (m *Metrics) RecordPaperIngested(platform string) {
	if m == nil {
		return
	}
	m.PapersIngested.WithLabelValues(platform).Inc()
}

// RecordPaperDuplicate records a paper skipped as a duplicate.
func (m *Metrics) RecordPaperDuplicate() {
	if m == nil {
		return
	}
	m.PapersDuplicate.Inc()
}

// RecordPaperInvalid records a paper rejected by validation.
func (m *Metrics) RecordPaperInvalid() {
	if m == nil {
		return
	}
	m.PapersInvalid.Inc()
}

// RecordSummaryGenerated records a summary generated along path.
func (m *Metrics) RecordSummaryGenerated(path string) {
	if m == nil {
		return
	}
	m.SummaryGenerations.WithLabelValues(path).Inc()
}

// RecordLLMRequest records one LLM completion.
func (m *Metrics) RecordLLMRequest(provider string, durationSeconds float64, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	m.LLMRequests.WithLabelValues(provider, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// RecordDOILookup records the outcome of a DOI lookup.
func (m *Metrics) RecordDOILookup(outcome string) {
	if m == nil {
		return
	}
	m.DOILookups.WithLabelValues(outcome).Inc()
}

// RecordEventPublished records a discovery event publish attempt.
func (m *Metrics) RecordEventPublished(err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	m.EventsPublished.WithLabelValues(status).Inc()
}

// RecordRecentSearchesPurged records rows removed by the retention job.
func (m *Metrics) RecordRecentSearchesPurged(count int64) {
	if m == nil {
		return
	}
	m.RecentSearchesPurged.Add(float64(count))
}

// RecordHTTPRequest records a served API request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}
