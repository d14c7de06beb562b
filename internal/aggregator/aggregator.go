// Package aggregator answers paper searches from the local store and tops the
// store up from the external paper sources when it cannot fill a page.
//
// A search first queries the store. A full page is returned as is. Otherwise the
// active sources are searched concurrently and every source is allowed to settle;
// a failing source contributes nothing and never fails the request. New papers
// are stored with DOI de-duplication, announced on the event publisher, and the
// store is queried again with the original filter.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/events"
	"github.com/helixir/paper-discovery-service/internal/observability"
	"github.com/helixir/paper-discovery-service/internal/papersources"
	"github.com/helixir/paper-discovery-service/internal/repository"
)

// Result sources.
const (
	SourceDatabase = "database"
	SourceMixed    = "mixed"
)

// ErrSourcesFailed is the advisory message set on a result when every attempted
// source failed.
const ErrSourcesFailed = "Failed to fetch additional papers from external sources"

// DOI lookup outcomes recorded in metrics.
const (
	lookupStored   = "stored"
	lookupResolved = "resolved"
	lookupNotFound = "not_found"
	lookupError    = "error"
)

const defaultSearchTimeout = 30 * time.Second

// SourceSearcher fans a search out to the paper sources.
type SourceSearcher interface {
	SearchSources(ctx context.Context, filter domain.SearchFilter, platforms []domain.Platform) []papersources.SourceResult
}

// DOIResolver resolves a DOI to paper metadata.
type DOIResolver interface {
	Lookup(ctx context.Context, doi string) (*domain.PaperInput, error)
}

// Result is one page of an orchestrated search.
type Result struct {
	Papers []*domain.Paper
	Total  int
	Page   int
	Limit  int
	Pages  int
	// Source is database when the store alone filled the page, mixed otherwise.
	Source string
	// Error is set when at least one source was attempted and none succeeded.
	Error string
}

// Config holds configuration for the aggregator.
type Config struct {
	// SearchTimeout bounds the source fan-out of one search. Zero uses 30s.
	SearchTimeout time.Duration
}

// Aggregator orchestrates store queries and source fan-out.
type Aggregator struct {
	papers    repository.PaperRepository
	sources   SourceSearcher
	resolver  DOIResolver
	publisher events.Publisher
	timeout   time.Duration
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// New creates an Aggregator. resolver and publisher may be nil; a nil resolver
// limits DOI lookups to the store.
func New(
	cfg Config,
	papers repository.PaperRepository,
	sources SourceSearcher,
	resolver DOIResolver,
	publisher events.Publisher,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Aggregator {
	if publisher == nil {
		publisher = events.Noop{}
	}
	timeout := cfg.SearchTimeout
	if timeout <= 0 {
		timeout = defaultSearchTimeout
	}
	return &Aggregator{
		papers:    papers,
		sources:   sources,
		resolver:  resolver,
		publisher: publisher,
		timeout:   timeout,
		metrics:   metrics,
		logger:    observability.WithComponent(logger, "aggregator"),
	}
}

// Search returns one page of papers matching filter. Store failures are returned
// as errors; source failures only set Result.Error.
func (a *Aggregator) Search(ctx context.Context, filter domain.SearchFilter) (*Result, error) {
	start := time.Now()
	filter = filter.WithDefaults()
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	log := observability.WithSearchContext(observability.LoggerFromContext(ctx, a.logger), filter.Query, filter.Platform)

	page, err := a.papers.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search store: %w", err)
	}
	if len(page.Papers) >= filter.Limit {
		a.metrics.RecordSearch(SourceDatabase, time.Since(start).Seconds())
		log.Debug().Int("total", page.Total).Msg("search served from store")
		return newResult(page, filter, SourceDatabase), nil
	}

	attempted, succeeded, err := a.fetchAndStore(ctx, log, filter)
	if err != nil {
		return nil, err
	}

	page, err = a.papers.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search store: %w", err)
	}

	result := newResult(page, filter, SourceMixed)
	if attempted > 0 && succeeded == 0 {
		result.Error = ErrSourcesFailed
	}

	a.metrics.RecordSearch(SourceMixed, time.Since(start).Seconds())
	log.Info().
		Int("sources_attempted", attempted).
		Int("sources_succeeded", succeeded).
		Int("total", result.Total).
		Dur("duration", time.Since(start)).
		Msg("search completed")
	return result, nil
}

// fetchAndStore searches the active sources and stores what they return. It
// reports how many sources were attempted and how many succeeded.
func (a *Aggregator) fetchAndStore(ctx context.Context, log zerolog.Logger, filter domain.SearchFilter) (attempted, succeeded int, err error) {
	searchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	results := a.sources.SearchSources(searchCtx, filter, platformsFor(filter))
	cancel()

	var inputs []domain.PaperInput
	for _, r := range results {
		a.metrics.RecordSourceSearch(r.Name, len(r.Papers), r.Duration.Seconds(), r.Error)
		if r.Error != nil {
			log.Warn().Err(r.Error).
				Str("source", r.Name).
				Dur("duration", r.Duration).
				Msg("source search failed")
			continue
		}
		succeeded++
		inputs = append(inputs, r.Papers...)
	}

	for i := range inputs {
		if err := a.ingest(ctx, log, &inputs[i], filter.Query); err != nil {
			return len(results), succeeded, err
		}
	}
	return len(results), succeeded, nil
}

// ingest stores one source paper. Invalid papers are skipped; a store failure
// is returned.
func (a *Aggregator) ingest(ctx context.Context, log zerolog.Logger, input *domain.PaperInput, query string) error {
	if err := input.Validate(); err != nil {
		a.metrics.RecordPaperInvalid()
		log.Debug().Err(err).
			Str("platform", input.Platform.String()).
			Str("title", input.Title).
			Msg("skipping invalid paper")
		return nil
	}

	var (
		paper   *domain.Paper
		created = true
		err     error
	)
	if domain.NormalizeDOI(input.DOI) != "" {
		paper, created, err = a.papers.CreateIfAbsent(ctx, *input)
	} else {
		paper, err = a.papers.Create(ctx, *input)
	}
	if err != nil {
		return fmt.Errorf("failed to store paper %q: %w", input.Title, err)
	}

	if !created {
		a.metrics.RecordPaperDuplicate()
		return nil
	}
	a.metrics.RecordPaperIngested(paper.Platform.String())
	a.publisher.PublishPaperDiscovered(ctx, paper, query)
	return nil
}

// LookupDOI returns the stored paper with the given DOI, resolving and storing
// it when it is not known locally. Returns domain.ErrNotFound when neither the
// store nor the resolver knows the DOI.
func (a *Aggregator) LookupDOI(ctx context.Context, doi string) (*domain.Paper, error) {
	if domain.NormalizeDOI(doi) == "" {
		return nil, domain.NewValidationError("doi", "doi is required")
	}

	paper, err := a.papers.GetByDOI(ctx, doi)
	if err == nil {
		a.metrics.RecordDOILookup(lookupStored)
		return paper, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		a.metrics.RecordDOILookup(lookupError)
		return nil, fmt.Errorf("failed to look up doi in store: %w", err)
	}

	if a.resolver == nil {
		a.metrics.RecordDOILookup(lookupNotFound)
		return nil, domain.NewNotFoundError("paper", doi)
	}

	input, err := a.resolver.Lookup(ctx, doi)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.metrics.RecordDOILookup(lookupNotFound)
			return nil, err
		}
		a.metrics.RecordDOILookup(lookupError)
		return nil, fmt.Errorf("failed to resolve doi: %w", err)
	}
	if err := input.Validate(); err != nil {
		a.metrics.RecordDOILookup(lookupError)
		return nil, fmt.Errorf("resolved doi is incomplete: %w", err)
	}

	paper, created, err := a.papers.CreateIfAbsent(ctx, *input)
	if err != nil {
		a.metrics.RecordDOILookup(lookupError)
		return nil, fmt.Errorf("failed to store resolved paper: %w", err)
	}

	a.metrics.RecordDOILookup(lookupResolved)
	if created {
		a.metrics.RecordPaperIngested(paper.Platform.String())
		a.publisher.PublishPaperDiscovered(ctx, paper, "")
	}
	return paper, nil
}

// platformsFor returns nil, selecting every enabled source, when the filter has
// no platform.
func platformsFor(filter domain.SearchFilter) []domain.Platform {
	if p, ok := filter.PlatformValue(); ok {
		return []domain.Platform{p}
	}
	return nil
}

func newResult(page *repository.PaperPage, filter domain.SearchFilter, source string) *Result {
	papers := page.Papers
	if papers == nil {
		papers = []*domain.Paper{}
	}
	return &Result{
		Papers: papers,
		Total:  page.Total,
		Page:   filter.Page,
		Limit:  filter.Limit,
		Pages:  domain.Pages(page.Total, filter.Limit),
		Source: source,
	}
}
