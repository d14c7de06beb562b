package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/helixir/paper-discovery-service/internal/database"
)

// PostgreSQL error codes mapped to domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// NewPgStore creates a Store backed by PostgreSQL.
func NewPgStore(db *database.DB) *Store {
	return &Store{
		Backend:        BackendPostgres,
		Papers:         NewPgPaperRepository(db),
		Summaries:      NewPgSummaryRepository(db),
		SavedPapers:    NewPgSavedPaperRepository(db),
		RecentSearches: NewPgRecentSearchRepository(db),
		Users:          NewPgUserRepository(db),
		db:             db,
	}
}

// pgErrorCode returns the SQLSTATE and constraint name of a PostgreSQL error.
func pgErrorCode(err error) (code, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
