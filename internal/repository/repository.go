// Package repository provides the Store and Query Engine for the paper discovery
// service.
//
// # Overview
//
// The package defines repository interfaces and two backends that implement them:
// an in-memory backend (the default, used by tests and single-node deployments) and
// a PostgreSQL backend built on pgx. Both backends share the same search semantics
// so that either can serve the HTTP API and the aggregation orchestrator.
//
// # Repository Interfaces
//
//   - PaperRepository: Paper persistence, DOI de-duplication and filtered search
//   - SummaryRepository: One summary per paper, updated in place
//   - SavedPaperRepository: Per-user bookmarks
//   - RecentSearchRepository: Per-user search history and retention
//   - UserRepository: Users owning bookmarks and history
//
// A Store bundles one implementation of each.
//
// # Thread Safety
//
// All repository implementations are safe for concurrent use by multiple goroutines.
// The memory backend guards its state with a single sync.RWMutex; the PostgreSQL
// backend relies on pgxpool and database constraints.
//
// # Error Handling
//
// All methods return domain-specific errors from the domain package:
//
//   - domain.ErrNotFound: Resource does not exist
//   - domain.ErrAlreadyExists: Unique constraint violation
//   - domain.ErrInvalidInput: Invalid parameters provided
//
// # Usage Pattern
//
//	db, _ := database.New(ctx, &cfg.Database, logger)
//	store := repository.NewPgStore(db)
//	page, err := store.Papers.Search(ctx, filter)
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helixir/paper-discovery-service/internal/database"
	"github.com/helixir/paper-discovery-service/internal/domain"
)

// DBTX is the database interface supporting both pool and transaction contexts.
// This allows repositories to work with both direct pool connections and transactions.
//
// # Transaction Usage Example
//
//	err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
//	    txRepo := repository.NewPgSavedPaperRepository(tx)
//	    _, err := txRepo.Save(ctx, userID, paperID)
//	    return err
//	})
type DBTX = database.DBTX

// Backend names accepted by the store configuration.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// retentionLockKey is the advisory lock key of the recent-search sweep.
const retentionLockKey int64 = 0x7265636e74 // "recnt"

// Store bundles one implementation of every repository.
type Store struct {
	Backend        string
	Papers         PaperRepository
	Summaries      SummaryRepository
	SavedPapers    SavedPaperRepository
	RecentSearches RecentSearchRepository
	Users          UserRepository

	// db is nil for the memory backend.
	db *database.DB
}

// Ping checks that the backing storage is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Ping(ctx)
}

// Health reports the state of the backing storage. The memory backend is always
// healthy.
func (s *Store) Health(ctx context.Context) database.HealthStatus {
	if s.db == nil {
		return database.HealthStatus{Status: database.StatusHealthy}
	}
	return s.db.Health(ctx)
}

// PurgeRecentSearches deletes searches created before cutoff. On PostgreSQL the
// delete runs under a transaction-scoped advisory lock so that concurrent replicas
// do not sweep at the same time; a replica that loses the lock removes nothing.
func (s *Store) PurgeRecentSearches(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.db == nil {
		return s.RecentSearches.DeleteOlderThan(ctx, cutoff)
	}

	var removed int64
	err := s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		locked, err := s.db.TryAcquireAdvisoryLockTx(ctx, tx, retentionLockKey)
		if err != nil {
			return fmt.Errorf("failed to acquire retention lock: %w", err)
		}
		if !locked {
			return nil
		}
		removed, err = NewPgRecentSearchRepository(tx).DeleteOlderThan(ctx, cutoff)
		return err
	})
	return removed, err
}

// prepareFilter applies defaults and validates a search filter.
func prepareFilter(filter domain.SearchFilter) (domain.SearchFilter, error) {
	filter = filter.WithDefaults()
	if err := filter.Validate(); err != nil {
		return filter, err
	}
	return filter, nil
}

// validateSummaryContent rejects a summary whose tiers are all empty.
func validateSummaryContent(content domain.SummaryContent) error {
	if content.Short == "" && content.Medium == "" && content.Detailed == "" {
		return domain.NewValidationError("summary", "summary content is empty")
	}
	return nil
}
