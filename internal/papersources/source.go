// Package papersources defines the contract shared by the academic platform
// adapters and the registry that fans a search out across them.
//
// Each platform (arXiv, PubMed, IEEE Xplore, Springer, ScienceDirect) implements
// PaperSource in its own subpackage. Adapters translate a domain.SearchFilter into
// the platform's query language and map the response onto domain.PaperInput.
//
// Example usage:
//
//	registry := papersources.NewRegistry()
//	registry.Register(arxiv.New(arxiv.Config{Enabled: true}))
//	results := registry.SearchSources(ctx, filter, nil)
package papersources

import (
	"context"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// PaperSource is implemented by every platform adapter.
type PaperSource interface {
	// Search returns the papers on the filter's page, in the platform's order.
	// Any failure (transport, non-2xx status, malformed payload) is returned as
	// an error; callers treat a failed source as having contributed nothing.
	Search(ctx context.Context, filter domain.SearchFilter) ([]domain.PaperInput, error)

	// Platform is the fixed platform stamped on every paper the source returns.
	Platform() domain.Platform

	// Name returns a human-readable name for logs and metrics.
	Name() string

	// IsEnabled reports whether the source takes part in searches.
	IsEnabled() bool
}
