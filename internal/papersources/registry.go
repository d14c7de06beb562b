package papersources

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// SourceResult is the settled outcome of one source's search.
type SourceResult struct {
	// Platform identifies the source.
	Platform domain.Platform

	// Name is the source's display name.
	Name string

	// Papers holds the papers returned on success. Nil when Error is set.
	Papers []domain.PaperInput

	// Error is the failure, if the search failed.
	Error error

	// Duration is how long the search took.
	Duration time.Duration
}

// Registry holds the platform adapters and coordinates concurrent searches.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[domain.Platform]PaperSource
	order   []domain.Platform
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[domain.Platform]PaperSource),
	}
}

// Register adds a source, replacing any source registered for the same platform.
func (r *Registry) Register(source PaperSource) {
	r.mu.Lock()
	defer r.mu.Unlock()

	platform := source.Platform()
	if _, exists := r.sources[platform]; !exists {
		r.order = append(r.order, platform)
	}
	r.sources[platform] = source
}

// Get returns the source for a platform, or nil if none is registered.
func (r *Registry) Get(platform domain.Platform) PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[platform]
}

// AllSources returns every registered source in registration order.
func (r *Registry) AllSources() []PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]PaperSource, 0, len(r.order))
	for _, p := range r.order {
		sources = append(sources, r.sources[p])
	}
	return sources
}

// EnabledSources returns the enabled sources in registration order.
func (r *Registry) EnabledSources() []PaperSource {
	all := r.AllSources()
	sources := make([]PaperSource, 0, len(all))
	for _, s := range all {
		if s.IsEnabled() {
			sources = append(sources, s)
		}
	}
	return sources
}

// ActiveSources returns the enabled sources a search should reach: all of them
// when platforms is empty, otherwise only those registered for the given platforms.
func (r *Registry) ActiveSources(platforms []domain.Platform) []PaperSource {
	if len(platforms) == 0 {
		return r.EnabledSources()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]PaperSource, 0, len(platforms))
	for _, p := range platforms {
		if s, ok := r.sources[p]; ok && s.IsEnabled() {
			sources = append(sources, s)
		}
	}
	return sources
}

// SearchSources searches the active sources for platforms concurrently and waits
// for every one of them to settle. A failing source never cancels its siblings;
// its error is reported in its SourceResult. Results are returned in the order
// the sources were selected. A source that panics is reported as failed.
func (r *Registry) SearchSources(ctx context.Context, filter domain.SearchFilter, platforms []domain.Platform) []SourceResult {
	sources := r.ActiveSources(platforms)
	if len(sources) == 0 {
		return nil
	}

	results := make([]SourceResult, len(sources))
	var wg sync.WaitGroup

	for i, source := range sources {
		wg.Add(1)
		go func(i int, s PaperSource) {
			defer wg.Done()
			results[i] = searchOne(ctx, s, filter)
		}(i, source)
	}

	wg.Wait()
	return results
}

func searchOne(ctx context.Context, s PaperSource, filter domain.SearchFilter) (result SourceResult) {
	start := time.Now()
	result = SourceResult{Platform: s.Platform(), Name: s.Name()}

	defer func() {
		if rec := recover(); rec != nil {
			result.Papers = nil
			result.Error = fmt.Errorf("%s: panic during search: %v", s.Name(), rec)
		}
		result.Duration = time.Since(start)
	}()

	papers, err := s.Search(ctx, filter)
	if err != nil {
		result.Error = err
		return result
	}
	result.Papers = papers
	return result
}
