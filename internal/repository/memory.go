package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// Compile-time interface verification.
var (
	_ PaperRepository        = (*MemoryPaperRepository)(nil)
	_ SummaryRepository      = (*MemorySummaryRepository)(nil)
	_ SavedPaperRepository   = (*MemorySavedPaperRepository)(nil)
	_ RecentSearchRepository = (*MemoryRecentSearchRepository)(nil)
	_ UserRepository         = (*MemoryUserRepository)(nil)
)

// MemoryOption configures the memory backend.
type MemoryOption func(*memoryDB)

// WithClock overrides the clock used for creation timestamps and date windows.
func WithClock(now func() time.Time) MemoryOption {
	return func(db *memoryDB) {
		db.now = now
	}
}

// memoryDB is the state shared by the memory repositories. One mutex guards all
// of it so cross-entity checks (paper exists, user exists) are consistent.
type memoryDB struct {
	mu  sync.RWMutex
	now func() time.Time

	papers      []*domain.Paper
	paperByID   map[int64]*domain.Paper
	paperByDOI  map[string]*domain.Paper
	nextPaperID int64

	summaries     map[int64]*domain.Summary
	nextSummaryID int64

	saved       []*domain.SavedPaper
	nextSavedID int64

	searches     []*domain.RecentSearch
	nextSearchID int64

	users      map[int64]*domain.User
	nextUserID int64
}

// NewMemoryStore creates a Store backed by process memory.
func NewMemoryStore(opts ...MemoryOption) *Store {
	db := &memoryDB{
		now:        func() time.Time { return time.Now().UTC() },
		paperByID:  make(map[int64]*domain.Paper),
		paperByDOI: make(map[string]*domain.Paper),
		summaries:  make(map[int64]*domain.Summary),
		users:      make(map[int64]*domain.User),
	}
	for _, opt := range opts {
		opt(db)
	}

	return &Store{
		Backend:        BackendMemory,
		Papers:         &MemoryPaperRepository{db: db},
		Summaries:      &MemorySummaryRepository{db: db},
		SavedPapers:    &MemorySavedPaperRepository{db: db},
		RecentSearches: &MemoryRecentSearchRepository{db: db},
		Users:          &MemoryUserRepository{db: db},
	}
}

// MemoryPaperRepository is the in-memory PaperRepository.
type MemoryPaperRepository struct {
	db *memoryDB
}

// Create inserts a paper, rejecting a duplicate DOI.
func (r *MemoryPaperRepository) Create(ctx context.Context, input domain.PaperInput) (*domain.Paper, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if key := input.NormalizedDOI(); key != "" {
		if _, ok := r.db.paperByDOI[key]; ok {
			return nil, domain.NewAlreadyExistsError("paper", key)
		}
	}
	return clonePaper(r.db.insertPaper(input)), nil
}

// CreateIfAbsent inserts a paper unless its DOI is already stored.
func (r *MemoryPaperRepository) CreateIfAbsent(ctx context.Context, input domain.PaperInput) (*domain.Paper, bool, error) {
	if err := input.Validate(); err != nil {
		return nil, false, err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if key := input.NormalizedDOI(); key != "" {
		if existing, ok := r.db.paperByDOI[key]; ok {
			return clonePaper(existing), false, nil
		}
	}
	return clonePaper(r.db.insertPaper(input)), true, nil
}

// insertPaper stores a validated input. The caller holds the write lock.
func (db *memoryDB) insertPaper(input domain.PaperInput) *domain.Paper {
	db.nextPaperID++
	paper := domain.NewPaper(db.nextPaperID, input, db.now())

	db.papers = append(db.papers, paper)
	db.paperByID[paper.ID] = paper
	if key := paper.NormalizedDOI(); key != "" {
		db.paperByDOI[key] = paper
	}
	return paper
}

// Get retrieves a paper by id.
func (r *MemoryPaperRepository) Get(ctx context.Context, id int64) (*domain.Paper, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	paper, ok := r.db.paperByID[id]
	if !ok {
		return nil, domain.NewNotFoundError("paper", fmt.Sprint(id))
	}
	return clonePaper(paper), nil
}

// GetByDOI retrieves a paper by normalized DOI.
func (r *MemoryPaperRepository) GetByDOI(ctx context.Context, doi string) (*domain.Paper, error) {
	key := domain.NormalizeDOI(doi)
	if key == "" {
		return nil, domain.NewValidationError("doi", "DOI is required")
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	paper, ok := r.db.paperByDOI[key]
	if !ok {
		return nil, domain.NewNotFoundError("paper", key)
	}
	return clonePaper(paper), nil
}

// Search filters, sorts and paginates the stored papers.
func (r *MemoryPaperRepository) Search(ctx context.Context, filter domain.SearchFilter) (*PaperPage, error) {
	filter, err := prepareFilter(filter)
	if err != nil {
		return nil, err
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	match := newPaperMatcher(filter, r.db.now())
	matched := make([]*domain.Paper, 0)
	for _, p := range r.db.papers {
		if match.matches(p) {
			matched = append(matched, p)
		}
	}
	sortPapers(matched, filter.SortBy)

	page := &PaperPage{Papers: make([]*domain.Paper, 0, filter.Limit), Total: len(matched)}
	offset := filter.Offset()
	if offset >= len(matched) {
		return page, nil
	}
	end := offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	for _, p := range matched[offset:end] {
		page.Papers = append(page.Papers, clonePaper(p))
	}
	return page, nil
}

// Count returns the number of stored papers.
func (r *MemoryPaperRepository) Count(ctx context.Context) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return len(r.db.papers), nil
}

// paperMatcher evaluates the non-sorting part of a search filter.
type paperMatcher struct {
	query    string
	platform domain.Platform
	domain   string
	author   string
	journal  string

	hasWindow  bool
	start, end time.Time
}

func newPaperMatcher(filter domain.SearchFilter, now time.Time) paperMatcher {
	m := paperMatcher{
		query:   strings.ToLower(strings.TrimSpace(filter.Query)),
		domain:  strings.TrimSpace(filter.Domain),
		author:  strings.ToLower(strings.TrimSpace(filter.Author)),
		journal: strings.ToLower(strings.TrimSpace(filter.Journal)),
	}
	if p, ok := filter.PlatformValue(); ok {
		m.platform = p
	}
	m.start, m.end, m.hasWindow = filter.DateWindow(now)
	return m
}

func (m paperMatcher) matches(p *domain.Paper) bool {
	if m.query != "" &&
		!strings.Contains(strings.ToLower(p.Title), m.query) &&
		!strings.Contains(strings.ToLower(p.Abstract), m.query) &&
		!anyAuthorContains(p.Authors, m.query) {
		return false
	}
	if m.platform != "" && p.Platform != m.platform {
		return false
	}
	if m.domain != "" && !strings.EqualFold(string(p.Domain), m.domain) {
		return false
	}
	if m.author != "" && !anyAuthorContains(p.Authors, m.author) {
		return false
	}
	if m.journal != "" && !strings.Contains(strings.ToLower(p.Journal), m.journal) {
		return false
	}
	if m.hasWindow && (p.PublishedDate.Before(m.start) || p.PublishedDate.After(m.end)) {
		return false
	}
	return true
}

func anyAuthorContains(authors []string, needle string) bool {
	for _, a := range authors {
		if strings.Contains(strings.ToLower(a), needle) {
			return true
		}
	}
	return false
}

// sortPapers orders papers in place. Ties break by id ascending.
func sortPapers(papers []*domain.Paper, by domain.SortBy) {
	var less func(a, b *domain.Paper) bool
	switch by {
	case domain.SortCitations:
		less = func(a, b *domain.Paper) bool { return a.CitationCount > b.CitationCount }
	case domain.SortDateDesc:
		less = func(a, b *domain.Paper) bool { return a.PublishedDate.After(b.PublishedDate) }
	case domain.SortDateAsc:
		less = func(a, b *domain.Paper) bool { return a.PublishedDate.Before(b.PublishedDate) }
	default:
		less = func(a, b *domain.Paper) bool { return false }
	}

	sort.SliceStable(papers, func(i, j int) bool {
		a, b := papers[i], papers[j]
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return a.ID < b.ID
	})
}

func clonePaper(p *domain.Paper) *domain.Paper {
	c := *p
	c.Authors = make([]string, len(p.Authors))
	copy(c.Authors, p.Authors)
	return &c
}

// MemorySummaryRepository is the in-memory SummaryRepository.
type MemorySummaryRepository struct {
	db *memoryDB
}

// Get retrieves the summary of a paper.
func (r *MemorySummaryRepository) Get(ctx context.Context, paperID int64) (*domain.Summary, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.summaries[paperID]
	if !ok {
		return nil, domain.NewNotFoundError("summary", fmt.Sprint(paperID))
	}
	return cloneSummary(s), nil
}

// Create stores the first summary of a paper.
func (r *MemorySummaryRepository) Create(ctx context.Context, paperID int64, content domain.SummaryContent) (*domain.Summary, error) {
	if err := validateSummaryContent(content); err != nil {
		return nil, err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.paperByID[paperID]; !ok {
		return nil, domain.NewNotFoundError("paper", fmt.Sprint(paperID))
	}
	if _, ok := r.db.summaries[paperID]; ok {
		return nil, domain.NewAlreadyExistsError("summary", fmt.Sprint(paperID))
	}

	now := r.db.now()
	r.db.nextSummaryID++
	s := &domain.Summary{
		ID:        r.db.nextSummaryID,
		PaperID:   paperID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Apply(content)
	r.db.summaries[paperID] = s
	return cloneSummary(s), nil
}

// Update replaces the summary text in place.
func (r *MemorySummaryRepository) Update(ctx context.Context, paperID int64, content domain.SummaryContent) (*domain.Summary, error) {
	if err := validateSummaryContent(content); err != nil {
		return nil, err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.summaries[paperID]
	if !ok {
		return nil, domain.NewNotFoundError("summary", fmt.Sprint(paperID))
	}

	now := r.db.now()
	if !now.After(s.UpdatedAt) {
		now = s.UpdatedAt.Add(time.Microsecond)
	}
	s.Apply(content)
	s.UpdatedAt = now
	return cloneSummary(s), nil
}

func cloneSummary(s *domain.Summary) *domain.Summary {
	c := *s
	c.ShortSummary = cloneString(s.ShortSummary)
	c.MediumSummary = cloneString(s.MediumSummary)
	c.DetailedSummary = cloneString(s.DetailedSummary)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// MemorySavedPaperRepository is the in-memory SavedPaperRepository.
type MemorySavedPaperRepository struct {
	db *memoryDB
}

// Save bookmarks a paper for a user.
func (r *MemorySavedPaperRepository) Save(ctx context.Context, userID, paperID int64) (*domain.SavedPaper, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[userID]; !ok {
		return nil, domain.NewNotFoundError("user", fmt.Sprint(userID))
	}
	if _, ok := r.db.paperByID[paperID]; !ok {
		return nil, domain.NewNotFoundError("paper", fmt.Sprint(paperID))
	}
	if r.db.findSaved(userID, paperID) >= 0 {
		return nil, domain.NewAlreadyExistsError("saved paper", fmt.Sprintf("%d:%d", userID, paperID))
	}

	r.db.nextSavedID++
	sp := &domain.SavedPaper{
		ID:        r.db.nextSavedID,
		UserID:    userID,
		PaperID:   paperID,
		CreatedAt: r.db.now(),
	}
	r.db.saved = append(r.db.saved, sp)
	c := *sp
	return &c, nil
}

// Remove deletes a bookmark.
func (r *MemorySavedPaperRepository) Remove(ctx context.Context, userID, paperID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.findSaved(userID, paperID)
	if i < 0 {
		return domain.NewNotFoundError("saved paper", fmt.Sprintf("%d:%d", userID, paperID))
	}
	r.db.saved = append(r.db.saved[:i], r.db.saved[i+1:]...)
	return nil
}

// IsSaved reports whether the user has bookmarked the paper.
func (r *MemorySavedPaperRepository) IsSaved(ctx context.Context, userID, paperID int64) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.db.findSaved(userID, paperID) >= 0, nil
}

// List returns the user's saved papers, most recently saved first.
func (r *MemorySavedPaperRepository) List(ctx context.Context, userID int64) ([]*domain.Paper, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	papers := make([]*domain.Paper, 0)
	for i := len(r.db.saved) - 1; i >= 0; i-- {
		sp := r.db.saved[i]
		if sp.UserID != userID {
			continue
		}
		if p, ok := r.db.paperByID[sp.PaperID]; ok {
			papers = append(papers, clonePaper(p))
		}
	}
	return papers, nil
}

// findSaved returns the index of a bookmark or -1. The caller holds a lock.
func (db *memoryDB) findSaved(userID, paperID int64) int {
	for i, sp := range db.saved {
		if sp.UserID == userID && sp.PaperID == paperID {
			return i
		}
	}
	return -1
}

// MemoryRecentSearchRepository is the in-memory RecentSearchRepository.
type MemoryRecentSearchRepository struct {
	db *memoryDB
}

// Add appends a search to the user's history.
func (r *MemoryRecentSearchRepository) Add(ctx context.Context, userID int64, query string, filters domain.SearchFilter) (*domain.RecentSearch, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[userID]; !ok {
		return nil, domain.NewNotFoundError("user", fmt.Sprint(userID))
	}

	r.db.nextSearchID++
	rs := &domain.RecentSearch{
		ID:        r.db.nextSearchID,
		UserID:    userID,
		Query:     query,
		Filters:   filters.Clone(),
		CreatedAt: r.db.now(),
	}
	r.db.searches = append(r.db.searches, rs)
	return cloneSearch(rs), nil
}

func cloneSearch(rs *domain.RecentSearch) *domain.RecentSearch {
	c := *rs
	c.Filters = rs.Filters.Clone()
	return &c
}

// List returns the user's searches, newest first.
func (r *MemoryRecentSearchRepository) List(ctx context.Context, userID int64) ([]*domain.RecentSearch, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*domain.RecentSearch, 0)
	for i := len(r.db.searches) - 1; i >= 0; i-- {
		if rs := r.db.searches[i]; rs.UserID == userID {
			out = append(out, cloneSearch(rs))
		}
	}
	return out, nil
}

// Clear deletes the user's whole history.
func (r *MemoryRecentSearchRepository) Clear(ctx context.Context, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	kept := r.db.searches[:0]
	for _, rs := range r.db.searches {
		if rs.UserID != userID {
			kept = append(kept, rs)
		}
	}
	r.db.searches = kept
	return nil
}

// DeleteOlderThan removes every search created before cutoff.
func (r *MemoryRecentSearchRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var removed int64
	kept := r.db.searches[:0]
	for _, rs := range r.db.searches {
		if rs.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, rs)
	}
	r.db.searches = kept
	return removed, nil
}

// MemoryUserRepository is the in-memory UserRepository.
type MemoryUserRepository struct {
	db *memoryDB
}

// Get retrieves a user by id.
func (r *MemoryUserRepository) Get(ctx context.Context, id int64) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("user", fmt.Sprint(id))
	}
	c := *u
	return &c, nil
}

// GetByUsername retrieves a user by username.
func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if u := r.db.findUser(username); u != nil {
		c := *u
		return &c, nil
	}
	return nil, domain.NewNotFoundError("user", username)
}

// Create inserts a user.
func (r *MemoryUserRepository) Create(ctx context.Context, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.NewValidationError("username", "username is required")
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.findUser(username) != nil {
		return nil, domain.NewAlreadyExistsError("user", username)
	}

	r.db.nextUserID++
	u := &domain.User{ID: r.db.nextUserID, Username: username}
	r.db.users[u.ID] = u
	c := *u
	return &c, nil
}

func (db *memoryDB) findUser(username string) *domain.User {
	for _, u := range db.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}
