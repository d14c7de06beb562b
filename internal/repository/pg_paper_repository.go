package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// Compile-time interface verification.
var _ PaperRepository = (*PgPaperRepository)(nil)

// paperColumns is the select list scanned by paperScanDest.
const paperColumns = `p.id, p.title, p.authors, p.abstract, p.doi, p.url, p.pdf_url,
	p.platform, p.domain, p.journal, p.published_date,
	p.page_count, p.view_count, p.citation_count, p.created_at`

const insertPaperQuery = `
	INSERT INTO papers (
		title, authors, abstract, doi, doi_normalized, url, pdf_url,
		platform, domain, journal, published_date,
		page_count, view_count, citation_count, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
	)`

// PgPaperRepository is a PostgreSQL implementation of PaperRepository.
type PgPaperRepository struct {
	db  DBTX
	now func() time.Time
}

// NewPgPaperRepository creates a new PostgreSQL paper repository.
func NewPgPaperRepository(db DBTX) *PgPaperRepository {
	return &PgPaperRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a paper. A duplicate normalized DOI yields domain.ErrAlreadyExists.
func (r *PgPaperRepository) Create(ctx context.Context, input domain.PaperInput) (*domain.Paper, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	paper := domain.NewPaper(0, input, r.now())
	err := r.db.QueryRow(ctx, insertPaperQuery+" RETURNING id, created_at", paperInsertArgs(paper)...).
		Scan(&paper.ID, &paper.CreatedAt)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgUniqueViolation {
			return nil, domain.NewAlreadyExistsError("paper", paper.NormalizedDOI())
		}
		return nil, fmt.Errorf("failed to insert paper: %w", err)
	}

	return paper, nil
}

// CreateIfAbsent inserts a paper unless its normalized DOI is already stored.
func (r *PgPaperRepository) CreateIfAbsent(ctx context.Context, input domain.PaperInput) (*domain.Paper, bool, error) {
	if err := input.Validate(); err != nil {
		return nil, false, err
	}
	if input.NormalizedDOI() == "" {
		paper, err := r.Create(ctx, input)
		return paper, err == nil, err
	}

	paper := domain.NewPaper(0, input, r.now())
	query := insertPaperQuery + `
		ON CONFLICT (doi_normalized) DO NOTHING
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, paperInsertArgs(paper)...).Scan(&paper.ID, &paper.CreatedAt)
	if err == nil {
		return paper, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to insert paper: %w", err)
	}

	existing, err := r.GetByDOI(ctx, paper.DOI)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Get retrieves a paper by id.
func (r *PgPaperRepository) Get(ctx context.Context, id int64) (*domain.Paper, error) {
	query := `SELECT ` + paperColumns + ` FROM papers p WHERE p.id = $1`

	paper, err := scanPaper(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("paper", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("failed to get paper by ID: %w", err)
	}

	return paper, nil
}

// GetByDOI retrieves a paper by normalized DOI.
func (r *PgPaperRepository) GetByDOI(ctx context.Context, doi string) (*domain.Paper, error) {
	key := domain.NormalizeDOI(doi)
	if key == "" {
		return nil, domain.NewValidationError("doi", "DOI is required")
	}

	query := `SELECT ` + paperColumns + ` FROM papers p WHERE p.doi_normalized = $1`

	paper, err := scanPaper(r.db.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("paper", key)
		}
		return nil, fmt.Errorf("failed to get paper by DOI: %w", err)
	}

	return paper, nil
}

// Search filters, sorts and paginates the stored papers.
func (r *PgPaperRepository) Search(ctx context.Context, filter domain.SearchFilter) (*PaperPage, error) {
	filter, err := prepareFilter(filter)
	if err != nil {
		return nil, err
	}

	whereClause, args := buildPaperWhere(filter, r.now())
	argIndex := len(args) + 1

	// Count total matching records
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM papers p %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count papers: %w", err)
	}

	page := &PaperPage{Papers: make([]*domain.Paper, 0, filter.Limit), Total: total}
	if total == 0 || filter.Offset() >= total {
		return page, nil
	}

	// Query with pagination
	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM papers p
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		paperColumns, whereClause, paperOrderBy(filter.SortBy), argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset())

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search papers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		paper, err := scanPaperFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan paper: %w", err)
		}
		page.Papers = append(page.Papers, paper)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating papers: %w", err)
	}

	return page, nil
}

// Count returns the number of stored papers.
func (r *PgPaperRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM papers").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count papers: %w", err)
	}
	return n, nil
}

// buildPaperWhere renders the filter as a WHERE clause with positional arguments.
func buildPaperWhere(filter domain.SearchFilter, now time.Time) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if q := strings.TrimSpace(filter.Query); q != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(p.title ILIKE $%[1]d OR p.abstract ILIKE $%[1]d OR "+
				"EXISTS (SELECT 1 FROM unnest(p.authors) AS a(name) WHERE a.name ILIKE $%[1]d))", argIndex))
		args = append(args, likePattern(q))
		argIndex++
	}

	if platform, ok := filter.PlatformValue(); ok {
		conditions = append(conditions, fmt.Sprintf("p.platform = $%d", argIndex))
		args = append(args, string(platform))
		argIndex++
	}

	if d := strings.TrimSpace(filter.Domain); d != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(p.domain) = LOWER($%d)", argIndex))
		args = append(args, d)
		argIndex++
	}

	if author := strings.TrimSpace(filter.Author); author != "" {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM unnest(p.authors) AS a(name) WHERE a.name ILIKE $%d)", argIndex))
		args = append(args, likePattern(author))
		argIndex++
	}

	if journal := strings.TrimSpace(filter.Journal); journal != "" {
		conditions = append(conditions, fmt.Sprintf("p.journal ILIKE $%d", argIndex))
		args = append(args, likePattern(journal))
		argIndex++
	}

	if start, end, ok := filter.DateWindow(now); ok {
		conditions = append(conditions, fmt.Sprintf(
			"p.published_date >= $%d AND p.published_date <= $%d", argIndex, argIndex+1))
		args = append(args, start, end)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// paperOrderBy maps a sort order to an ORDER BY list. Ties break by id.
func paperOrderBy(by domain.SortBy) string {
	switch by {
	case domain.SortCitations:
		return "p.citation_count DESC, p.id ASC"
	case domain.SortDateDesc:
		return "p.published_date DESC, p.id ASC"
	case domain.SortDateAsc:
		return "p.published_date ASC, p.id ASC"
	default:
		return "p.id ASC"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps s for a substring ILIKE match with wildcards escaped.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// paperInsertArgs returns the arguments of insertPaperQuery.
func paperInsertArgs(p *domain.Paper) []interface{} {
	return []interface{}{
		p.Title,
		p.Authors,
		p.Abstract,
		p.DOI,
		nullIfEmpty(p.NormalizedDOI()),
		p.URL,
		p.PDFURL,
		string(p.Platform),
		string(p.Domain),
		p.Journal,
		p.PublishedDate,
		p.PageCount,
		p.ViewCount,
		p.CitationCount,
		p.CreatedAt,
	}
}

// paperScanDest holds the destination pointers for scanning a Paper row.
type paperScanDest struct {
	paper    domain.Paper
	platform string
	domain   string
}

// destinations returns the slice of pointers for Scan operations.
func (d *paperScanDest) destinations() []interface{} {
	return []interface{}{
		&d.paper.ID, &d.paper.Title, &d.paper.Authors, &d.paper.Abstract, &d.paper.DOI,
		&d.paper.URL, &d.paper.PDFURL, &d.platform, &d.domain, &d.paper.Journal,
		&d.paper.PublishedDate, &d.paper.PageCount, &d.paper.ViewCount, &d.paper.CitationCount,
		&d.paper.CreatedAt,
	}
}

// finalize performs post-scan processing: enum conversion and nil authors.
func (d *paperScanDest) finalize() (*domain.Paper, error) {
	platform, ok := domain.ParsePlatform(d.platform)
	if !ok {
		return nil, fmt.Errorf("unknown platform %q for paper %d", d.platform, d.paper.ID)
	}
	d.paper.Platform = platform
	d.paper.Domain, _ = domain.ParseResearchDomain(d.domain)
	if d.paper.Authors == nil {
		d.paper.Authors = []string{}
	}
	return &d.paper, nil
}

// scanPaper scans a single row into a Paper.
func scanPaper(row pgx.Row) (*domain.Paper, error) {
	var dest paperScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}

// scanPaperFromRows scans the current row from pgx.Rows into a Paper.
func scanPaperFromRows(rows pgx.Rows) (*domain.Paper, error) {
	var dest paperScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}
