package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// Compile-time interface verification.
var (
	_ SummaryRepository      = (*PgSummaryRepository)(nil)
	_ SavedPaperRepository   = (*PgSavedPaperRepository)(nil)
	_ RecentSearchRepository = (*PgRecentSearchRepository)(nil)
	_ UserRepository         = (*PgUserRepository)(nil)
)

// PgSummaryRepository is a PostgreSQL implementation of SummaryRepository.
type PgSummaryRepository struct {
	db  DBTX
	now func() time.Time
}

// NewPgSummaryRepository creates a new PostgreSQL summary repository.
func NewPgSummaryRepository(db DBTX) *PgSummaryRepository {
	return &PgSummaryRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const summaryColumns = `id, paper_id, short_summary, medium_summary, detailed_summary, created_at, updated_at`

// Get retrieves the summary of a paper.
func (r *PgSummaryRepository) Get(ctx context.Context, paperID int64) (*domain.Summary, error) {
	query := `SELECT ` + summaryColumns + ` FROM summaries WHERE paper_id = $1`

	summary, err := scanSummary(r.db.QueryRow(ctx, query, paperID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("summary", fmt.Sprint(paperID))
		}
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return summary, nil
}

// Create stores the first summary of a paper.
func (r *PgSummaryRepository) Create(ctx context.Context, paperID int64, content domain.SummaryContent) (*domain.Summary, error) {
	if err := validateSummaryContent(content); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO summaries (paper_id, short_summary, medium_summary, detailed_summary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING ` + summaryColumns

	summary, err := scanSummary(r.db.QueryRow(ctx, query,
		paperID, content.Short, content.Medium, content.Detailed, r.now()))
	if err != nil {
		switch code, _ := pgErrorCode(err); code {
		case pgUniqueViolation:
			return nil, domain.NewAlreadyExistsError("summary", fmt.Sprint(paperID))
		case pgForeignKeyViolation:
			return nil, domain.NewNotFoundError("paper", fmt.Sprint(paperID))
		}
		return nil, fmt.Errorf("failed to create summary: %w", err)
	}
	return summary, nil
}

// Update replaces the summary text in place. updated_at moves forward even when
// the clock has not.
func (r *PgSummaryRepository) Update(ctx context.Context, paperID int64, content domain.SummaryContent) (*domain.Summary, error) {
	if err := validateSummaryContent(content); err != nil {
		return nil, err
	}

	query := `
		UPDATE summaries SET
			short_summary = $2,
			medium_summary = $3,
			detailed_summary = $4,
			updated_at = GREATEST($5, updated_at + INTERVAL '1 microsecond')
		WHERE paper_id = $1
		RETURNING ` + summaryColumns

	summary, err := scanSummary(r.db.QueryRow(ctx, query,
		paperID, content.Short, content.Medium, content.Detailed, r.now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("summary", fmt.Sprint(paperID))
		}
		return nil, fmt.Errorf("failed to update summary: %w", err)
	}
	return summary, nil
}

func scanSummary(row pgx.Row) (*domain.Summary, error) {
	var s domain.Summary
	err := row.Scan(&s.ID, &s.PaperID, &s.ShortSummary, &s.MediumSummary, &s.DetailedSummary,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// PgSavedPaperRepository is a PostgreSQL implementation of SavedPaperRepository.
type PgSavedPaperRepository struct {
	db  DBTX
	now func() time.Time
}

// NewPgSavedPaperRepository creates a new PostgreSQL saved paper repository.
func NewPgSavedPaperRepository(db DBTX) *PgSavedPaperRepository {
	return &PgSavedPaperRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Save bookmarks a paper for a user.
func (r *PgSavedPaperRepository) Save(ctx context.Context, userID, paperID int64) (*domain.SavedPaper, error) {
	query := `
		INSERT INTO saved_papers (user_id, paper_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`

	sp := &domain.SavedPaper{UserID: userID, PaperID: paperID, CreatedAt: r.now()}
	err := r.db.QueryRow(ctx, query, userID, paperID, sp.CreatedAt).Scan(&sp.ID)
	if err != nil {
		code, constraint := pgErrorCode(err)
		switch {
		case code == pgUniqueViolation:
			return nil, domain.NewAlreadyExistsError("saved paper", fmt.Sprintf("%d:%d", userID, paperID))
		case code == pgForeignKeyViolation && strings.Contains(constraint, "user"):
			return nil, domain.NewNotFoundError("user", fmt.Sprint(userID))
		case code == pgForeignKeyViolation:
			return nil, domain.NewNotFoundError("paper", fmt.Sprint(paperID))
		}
		return nil, fmt.Errorf("failed to save paper: %w", err)
	}
	return sp, nil
}

// Remove deletes a bookmark.
func (r *PgSavedPaperRepository) Remove(ctx context.Context, userID, paperID int64) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM saved_papers WHERE user_id = $1 AND paper_id = $2`, userID, paperID)
	if err != nil {
		return fmt.Errorf("failed to remove saved paper: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("saved paper", fmt.Sprintf("%d:%d", userID, paperID))
	}
	return nil
}

// IsSaved reports whether the user has bookmarked the paper.
func (r *PgSavedPaperRepository) IsSaved(ctx context.Context, userID, paperID int64) (bool, error) {
	var saved bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM saved_papers WHERE user_id = $1 AND paper_id = $2)`,
		userID, paperID).Scan(&saved)
	if err != nil {
		return false, fmt.Errorf("failed to check saved paper: %w", err)
	}
	return saved, nil
}

// List returns the user's saved papers, most recently saved first.
func (r *PgSavedPaperRepository) List(ctx context.Context, userID int64) ([]*domain.Paper, error) {
	query := `
		SELECT ` + paperColumns + `
		FROM saved_papers s
		JOIN papers p ON p.id = s.paper_id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC, s.id DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved papers: %w", err)
	}
	defer rows.Close()

	papers := make([]*domain.Paper, 0)
	for rows.Next() {
		paper, err := scanPaperFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan paper: %w", err)
		}
		papers = append(papers, paper)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved papers: %w", err)
	}
	return papers, nil
}

// PgRecentSearchRepository is a PostgreSQL implementation of RecentSearchRepository.
type PgRecentSearchRepository struct {
	db  DBTX
	now func() time.Time
}

// NewPgRecentSearchRepository creates a new PostgreSQL recent search repository.
func NewPgRecentSearchRepository(db DBTX) *PgRecentSearchRepository {
	return &PgRecentSearchRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Add appends a search to the user's history. Filters are stored as JSONB.
func (r *PgRecentSearchRepository) Add(ctx context.Context, userID int64, query string, filters domain.SearchFilter) (*domain.RecentSearch, error) {
	filtersJSON, err := json.Marshal(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal filters: %w", err)
	}

	rs := &domain.RecentSearch{UserID: userID, Query: query, Filters: filters, CreatedAt: r.now()}
	err = r.db.QueryRow(ctx, `
		INSERT INTO recent_searches (user_id, query, filters, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		userID, query, filtersJSON, rs.CreatedAt).Scan(&rs.ID)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return nil, domain.NewNotFoundError("user", fmt.Sprint(userID))
		}
		return nil, fmt.Errorf("failed to add recent search: %w", err)
	}
	return rs, nil
}

// List returns the user's searches, newest first.
func (r *PgRecentSearchRepository) List(ctx context.Context, userID int64) ([]*domain.RecentSearch, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, query, filters, created_at
		FROM recent_searches
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent searches: %w", err)
	}
	defer rows.Close()

	searches := make([]*domain.RecentSearch, 0)
	for rows.Next() {
		var rs domain.RecentSearch
		var filtersJSON []byte
		if err := rows.Scan(&rs.ID, &rs.UserID, &rs.Query, &filtersJSON, &rs.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent search: %w", err)
		}
		if len(filtersJSON) > 0 {
			if err := json.Unmarshal(filtersJSON, &rs.Filters); err != nil {
				return nil, fmt.Errorf("failed to unmarshal filters: %w", err)
			}
		}
		searches = append(searches, &rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent searches: %w", err)
	}
	return searches, nil
}

// Clear deletes the user's whole history.
func (r *PgRecentSearchRepository) Clear(ctx context.Context, userID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM recent_searches WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear recent searches: %w", err)
	}
	return nil
}

// DeleteOlderThan removes every search created before cutoff.
func (r *PgRecentSearchRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM recent_searches WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old recent searches: %w", err)
	}
	return result.RowsAffected(), nil
}

// PgUserRepository is a PostgreSQL implementation of UserRepository.
type PgUserRepository struct {
	db DBTX
}

// NewPgUserRepository creates a new PostgreSQL user repository.
func NewPgUserRepository(db DBTX) *PgUserRepository {
	return &PgUserRepository{db: db}
}

// Get retrieves a user by id.
func (r *PgUserRepository) Get(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `SELECT id, username FROM users WHERE id = $1`, id).Scan(&u.ID, &u.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("user", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetByUsername retrieves a user by username.
func (r *PgUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `SELECT id, username FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("user", username)
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &u, nil
}

// Create inserts a user.
func (r *PgUserRepository) Create(ctx context.Context, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.NewValidationError("username", "username is required")
	}

	u := &domain.User{Username: username}
	err := r.db.QueryRow(ctx, `INSERT INTO users (username) VALUES ($1) RETURNING id`, username).Scan(&u.ID)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgUniqueViolation {
			return nil, domain.NewAlreadyExistsError("user", username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}
