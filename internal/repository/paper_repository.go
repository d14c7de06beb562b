package repository

import (
	"context"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// PaperPage is one page of a paper search.
type PaperPage struct {
	Papers []*domain.Paper
	// Total is the number of papers matching the filter before pagination.
	Total int
}

// PaperRepository handles paper persistence, DOI de-duplication and search.
type PaperRepository interface {
	// Create validates and inserts a paper, assigning its id and creation time.
	// Returns domain.ErrAlreadyExists if a paper with the same normalized DOI exists.
	Create(ctx context.Context, input domain.PaperInput) (*domain.Paper, error)

	// CreateIfAbsent inserts the paper unless one with the same normalized DOI is
	// already stored, in which case the stored paper is returned and created is false.
	// The check and the insert are atomic. Papers without a DOI are always inserted.
	CreateIfAbsent(ctx context.Context, input domain.PaperInput) (paper *domain.Paper, created bool, err error)

	// Get retrieves a paper by id.
	// Returns domain.ErrNotFound if no matching paper exists.
	Get(ctx context.Context, id int64) (*domain.Paper, error)

	// GetByDOI retrieves a paper by DOI. The DOI is normalized before comparison.
	// Returns domain.ErrNotFound if no matching paper exists.
	GetByDOI(ctx context.Context, doi string) (*domain.Paper, error)

	// Search filters, sorts and paginates the stored papers.
	// Returns domain.ErrInvalidInput if the filter is invalid after defaults.
	Search(ctx context.Context, filter domain.SearchFilter) (*PaperPage, error)

	// Count returns the number of stored papers.
	Count(ctx context.Context) (int, error)
}
