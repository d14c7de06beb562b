package summary

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/observability"
	"github.com/helixir/paper-discovery-service/internal/repository"
)

// Service serves stored summaries and generates missing ones.
type Service struct {
	papers    repository.PaperRepository
	summaries repository.SummaryRepository
	generator *Generator
	logger    zerolog.Logger
}

// NewService creates a Service over the given repositories.
func NewService(papers repository.PaperRepository, summaries repository.SummaryRepository, generator *Generator, logger zerolog.Logger) *Service {
	return &Service{
		papers:    papers,
		summaries: summaries,
		generator: generator,
		logger:    observability.WithComponent(logger, "summary_service"),
	}
}

// Get returns the stored summary of a paper, generating and persisting one on
// first access. Returns domain.ErrNotFound if the paper does not exist.
func (s *Service) Get(ctx context.Context, paperID int64) (*domain.Summary, error) {
	paper, err := s.papers.Get(ctx, paperID)
	if err != nil {
		return nil, err
	}

	existing, err := s.summaries.Get(ctx, paperID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to load summary: %w", err)
	}

	result := s.generator.Generate(ctx, paper)
	created, err := s.summaries.Create(ctx, paperID, result.Content())
	if errors.Is(err, domain.ErrAlreadyExists) {
		// A concurrent request stored the summary first.
		return s.summaries.Get(ctx, paperID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store summary: %w", err)
	}

	s.logger.Info().
		Int64("paper_id", paperID).
		Str("source", result.Source).
		Msg("summary generated")
	return created, nil
}

// Regenerate generates a fresh summary and replaces the stored one in place,
// keeping its id and creation time. A paper without a summary gets a new one.
// Returns domain.ErrNotFound if the paper does not exist.
func (s *Service) Regenerate(ctx context.Context, paperID int64) (*domain.Summary, error) {
	paper, err := s.papers.Get(ctx, paperID)
	if err != nil {
		return nil, err
	}

	result := s.generator.Generate(ctx, paper)

	updated, err := s.summaries.Update(ctx, paperID, result.Content())
	if errors.Is(err, domain.ErrNotFound) {
		updated, err = s.summaries.Create(ctx, paperID, result.Content())
		if errors.Is(err, domain.ErrAlreadyExists) {
			updated, err = s.summaries.Update(ctx, paperID, result.Content())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store summary: %w", err)
	}

	s.logger.Info().
		Int64("paper_id", paperID).
		Str("source", result.Source).
		Msg("summary regenerated")
	return updated, nil
}
