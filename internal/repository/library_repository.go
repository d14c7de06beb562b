package repository

import (
	"context"
	"time"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// SummaryRepository stores at most one summary per paper.
type SummaryRepository interface {
	// Get retrieves the summary of a paper.
	// Returns domain.ErrNotFound if the paper has no summary.
	Get(ctx context.Context, paperID int64) (*domain.Summary, error)

	// Create stores the first summary of a paper.
	// Returns domain.ErrAlreadyExists if the paper already has one and
	// domain.ErrNotFound if the paper does not exist.
	Create(ctx context.Context, paperID int64, content domain.SummaryContent) (*domain.Summary, error)

	// Update replaces the summary text in place. The id and createdAt are kept and
	// updatedAt strictly increases.
	// Returns domain.ErrNotFound if the paper has no summary.
	Update(ctx context.Context, paperID int64, content domain.SummaryContent) (*domain.Summary, error)
}

// SavedPaperRepository manages user bookmarks.
type SavedPaperRepository interface {
	// Save bookmarks a paper for a user.
	// Returns domain.ErrAlreadyExists if it is already saved and domain.ErrNotFound
	// if the user or paper does not exist.
	Save(ctx context.Context, userID, paperID int64) (*domain.SavedPaper, error)

	// Remove deletes a bookmark.
	// Returns domain.ErrNotFound if the paper is not saved.
	Remove(ctx context.Context, userID, paperID int64) error

	// IsSaved reports whether the user has bookmarked the paper.
	IsSaved(ctx context.Context, userID, paperID int64) (bool, error)

	// List returns the user's saved papers, most recently saved first.
	List(ctx context.Context, userID int64) ([]*domain.Paper, error)
}

// RecentSearchRepository manages per-user search history.
type RecentSearchRepository interface {
	// Add appends a search to the user's history.
	// Returns domain.ErrNotFound if the user does not exist.
	Add(ctx context.Context, userID int64, query string, filters domain.SearchFilter) (*domain.RecentSearch, error)

	// List returns the user's searches, newest first.
	List(ctx context.Context, userID int64) ([]*domain.RecentSearch, error)

	// Clear deletes the user's whole history.
	Clear(ctx context.Context, userID int64) error

	// DeleteOlderThan removes every search created before cutoff and returns the
	// number removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserRepository manages users.
type UserRepository interface {
	// Get retrieves a user by id.
	// Returns domain.ErrNotFound if no matching user exists.
	Get(ctx context.Context, id int64) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	// Returns domain.ErrNotFound if no matching user exists.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Create inserts a user.
	// Returns domain.ErrAlreadyExists if the username is taken.
	Create(ctx context.Context, username string) (*domain.User, error)
}
