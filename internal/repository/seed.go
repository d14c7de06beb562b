package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// DefaultUsername is the username of the seeded default user.
const DefaultUsername = "testuser"

// SeedOptions controls what Seed writes.
type SeedOptions struct {
	// SampleData adds a handful of papers and a recent search for the default user.
	SampleData bool
}

// SeedResult reports what Seed created.
type SeedResult struct {
	User          *domain.User
	PapersCreated int
	SearchesAdded int
}

// Seed ensures the default user exists and optionally loads sample data.
// It is idempotent: papers are inserted through CreateIfAbsent and the sample
// search is only added to an empty history.
func Seed(ctx context.Context, store *Store, opts SeedOptions) (*SeedResult, error) {
	user, err := store.Users.GetByUsername(ctx, DefaultUsername)
	if errors.Is(err, domain.ErrNotFound) {
		user, err = store.Users.Create(ctx, DefaultUsername)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to seed default user: %w", err)
	}

	result := &SeedResult{User: user}
	if !opts.SampleData {
		return result, nil
	}

	for _, input := range samplePapers() {
		_, created, err := store.Papers.CreateIfAbsent(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to seed paper %q: %w", input.Title, err)
		}
		if created {
			result.PapersCreated++
		}
	}

	history, err := store.RecentSearches.List(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read seeded history: %w", err)
	}
	if len(history) == 0 {
		filters := domain.SearchFilter{
			Query:  "transformer",
			Domain: string(domain.DomainArtificialIntelligence),
			SortBy: domain.SortCitations,
		}.WithDefaults()
		if _, err := store.RecentSearches.Add(ctx, user.ID, filters.Query, filters); err != nil {
			return nil, fmt.Errorf("failed to seed recent search: %w", err)
		}
		result.SearchesAdded++
	}

	return result, nil
}

func samplePapers() []domain.PaperInput {
	return []domain.PaperInput{
		{
			Title:         "Attention Is All You Need",
			Authors:       []string{"Ashish Vaswani", "Noam Shazeer", "Niki Parmar", "Jakob Uszkoreit"},
			Abstract:      "Introduces the Transformer, a sequence transduction architecture built entirely on attention. It drops recurrence and convolution, trains faster in parallel and sets new marks on machine translation benchmarks.",
			DOI:           "10.48550/arXiv.1706.03762",
			URL:           "https://arxiv.org/abs/1706.03762",
			PDFURL:        "https://arxiv.org/pdf/1706.03762",
			Platform:      domain.PlatformArXiv,
			Domain:        domain.DomainArtificialIntelligence,
			PublishedDate: time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC),
			PageCount:     15,
			CitationCount: 90000,
		},
		{
			Title:         "Deep Residual Learning for Image Recognition",
			Authors:       []string{"Kaiming He", "Xiangyu Zhang", "Shaoqing Ren", "Jian Sun"},
			Abstract:      "Presents residual learning, where layers fit residual functions with reference to their inputs. Residual networks are easier to optimize and gain accuracy from much greater depth.",
			DOI:           "10.1109/CVPR.2016.90",
			URL:           "https://ieeexplore.ieee.org/document/7780459",
			Platform:      domain.PlatformIEEE,
			Domain:        domain.DomainComputerScience,
			Journal:       "IEEE Conference on Computer Vision and Pattern Recognition",
			PublishedDate: time.Date(2016, 6, 27, 0, 0, 0, 0, time.UTC),
			PageCount:     9,
			CitationCount: 150000,
		},
		{
			Title:         "Highly accurate protein structure prediction with AlphaFold",
			Authors:       []string{"John Jumper", "Richard Evans", "Alexander Pritzel"},
			Abstract:      "Describes a neural network that predicts protein structures from amino acid sequences with atomic accuracy, even when no similar structure is known.",
			DOI:           "10.1038/s41586-021-03819-2",
			URL:           "https://link.springer.com/10.1038/s41586-021-03819-2",
			Platform:      domain.PlatformSpringer,
			Domain:        domain.DomainBiology,
			Journal:       "Nature",
			PublishedDate: time.Date(2021, 7, 15, 0, 0, 0, 0, time.UTC),
			PageCount:     12,
			CitationCount: 25000,
		},
		{
			Title:         "Observation of Gravitational Waves from a Binary Black Hole Merger",
			Authors:       []string{"B. P. Abbott"},
			Abstract:      "Reports the first direct detection of gravitational waves, produced by the merger of two black holes and observed by both LIGO detectors.",
			DOI:           "10.1103/PhysRevLett.116.061102",
			URL:           "https://doi.org/10.1103/PhysRevLett.116.061102",
			Platform:      domain.PlatformOther,
			Domain:        domain.DomainPhysics,
			Journal:       "Physical Review Letters",
			PublishedDate: time.Date(2016, 2, 11, 0, 0, 0, 0, time.UTC),
			PageCount:     16,
			CitationCount: 12000,
		},
	}
}
