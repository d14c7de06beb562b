package summary

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/llm"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

type stubLLM struct {
	mu       sync.Mutex
	requests []llm.Request
	respond  func(req llm.Request) (*llm.Response, error)
}

func (s *stubLLM) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return s.respond(req)
}

func (s *stubLLM) Provider() string { return "stub" }
func (s *stubLLM) Model() string    { return "stub-1" }

func testPaper() *domain.Paper {
	return &domain.Paper{
		ID:            7,
		Title:         "Highly accurate protein structure prediction",
		Authors:       []string{"John Jumper", "Richard Evans", "Alexander Pritzel"},
		Abstract:      "We propose a novel method for protein folding. The results show significant improvements over baselines. This paper demonstrates state-of-the-art accuracy on CASP14. Data is public.",
		DOI:           "10.1038/s41586-021-03819-2",
		Platform:      domain.PlatformPubMed,
		Domain:        domain.DomainBiology,
		Journal:       "Nature",
		PublishedDate: time.Date(2021, 7, 15, 0, 0, 0, 0, time.UTC),
		PageCount:     11,
		CitationCount: 120,
	}
}

func TestShortSummary(t *testing.T) {
	t.Run("extracts indicator sentences", func(t *testing.T) {
		got := shortSummary(testPaper())
		assert.Equal(t, strings.Join([]string{
			"• Propose a novel method for protein folding.",
			"• Results show significant improvements over baselines.",
			"• State-of-the-art accuracy on CASP14.",
		}, "\n"), got)
	})

	t.Run("falls back to templated bullets", func(t *testing.T) {
		p := &domain.Paper{
			Title:         "Quantum Widgets",
			Authors:       []string{"A", "B", "C"},
			Abstract:      "Short text.",
			Platform:      domain.PlatformArXiv,
			Domain:        domain.DomainPhysics,
			PageCount:     12,
			CitationCount: 3,
		}
		assert.Equal(t, strings.Join([]string{
			"• Presents research on quantum widgets",
			"• Authored by A, B and others",
			"• Published in ArXiv",
			"• Focuses on the field of Physics",
			"• Contains 12 pages with 3 citations",
		}, "\n"), shortSummary(p))
	})

	t.Run("two authors have no suffix", func(t *testing.T) {
		p := &domain.Paper{Title: "T", Authors: []string{"A", "B"}, Journal: "J", Domain: domain.DomainOther}
		got := shortSummary(p)
		assert.Contains(t, got, "• Authored by A, B\n")
		assert.Contains(t, got, "• Published in J")
	})
}

func TestKeyPoints(t *testing.T) {
	t.Run("deduplicates and caps at five", func(t *testing.T) {
		text := strings.Repeat("A new approach to sorting. ", 3) +
			"Method one is described here. Method two is described here. Method three is described here. " +
			"Method four is described here. Method five is described here."
		points := keyPoints(text)
		assert.Len(t, points, maxKeyPoints)
		assert.Equal(t, "A new approach to sorting.", points[0])
	})

	t.Run("drops too short and too long sentences", func(t *testing.T) {
		long := "A new " + strings.Repeat("very ", 40) + "long claim."
		assert.Empty(t, keyPoints("New idea. "+long))
	})

	t.Run("strips leading phrases", func(t *testing.T) {
		assert.Equal(t, []string{"Findings indicate a strong effect."}, keyPoints("Our findings indicate a strong effect."))
		assert.Equal(t, []string{"A novel sampling scheme."}, keyPoints("The study presents a novel sampling scheme."))
	})
}

func TestMediumSummary(t *testing.T) {
	t.Run("short abstract is kept verbatim", func(t *testing.T) {
		p := &domain.Paper{Abstract: "One. Two! Three?"}
		assert.Equal(t, "One. Two! Three?", mediumSummary(p))
	})

	t.Run("long abstract keeps first middle and last", func(t *testing.T) {
		p := &domain.Paper{Abstract: "S1. S2. S3. S4. S5."}
		assert.Equal(t, "S1. S3. S5.", mediumSummary(p))
	})
}

func TestDetailedSummary(t *testing.T) {
	t.Run("includes metadata and citations", func(t *testing.T) {
		p := testPaper()
		got := detailedSummary(p)
		paragraphs := strings.Split(got, "\n\n")
		require.Len(t, paragraphs, 5)
		assert.Equal(t, `This paper titled "Highly accurate protein structure prediction" by John Jumper, Richard Evans, Alexander Pritzel presents a comprehensive study in the field of Biology.`, paragraphs[0])
		assert.Equal(t, p.Abstract, paragraphs[1])
		assert.Contains(t, paragraphs[2], "Biology examines living systems")
		assert.Equal(t, "The research was published in Nature and spans 11 pages. This work has been cited 120 times, indicating its significance in the field.", paragraphs[3])
		assert.Equal(t, closingSentence, paragraphs[4])
	})

	t.Run("unknown page count and no citations", func(t *testing.T) {
		p := &domain.Paper{Title: "T", Abstract: "A.", Platform: domain.PlatformIEEE, Domain: domain.DomainOther}
		got := detailedSummary(p)
		assert.Contains(t, got, "The research was published in IEEE Xplore and spans several pages.\n\n")
		assert.NotContains(t, got, "cited")
	})
}

func TestMinimal(t *testing.T) {
	p := &domain.Paper{Title: "Graph Methods", Abstract: strings.Repeat("x", 250)}
	got := minimal(p)
	assert.Equal(t, "This paper discusses graph methods.", got.Short)
	assert.Equal(t, strings.Repeat("x", 200)+"...", got.Medium)
	assert.Equal(t, p.Abstract, got.Detailed)
}

func TestSafeHeuristic_RecoversPanic(t *testing.T) {
	_, err := safeHeuristic(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic during heuristic summary")
}

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("uses llm when every tier succeeds", func(t *testing.T) {
		metrics := observability.NewMetrics("test_summary_llm")
		client := &stubLLM{respond: func(req llm.Request) (*llm.Response, error) {
			switch {
			case strings.Contains(req.Prompt, "key points"):
				return &llm.Response{Text: "• point"}, nil
			case strings.Contains(req.Prompt, "synthesis"):
				return &llm.Response{Text: "synthesis text"}, nil
			default:
				return &llm.Response{Text: " detailed text \n"}, nil
			}
		}}
		g := NewGenerator(client, GeneratorConfig{}, metrics, zerolog.Nop())

		got := g.Generate(ctx, testPaper())
		assert.Equal(t, SourceLLM, got.Source)
		assert.Equal(t, "• point", got.Short)
		assert.Equal(t, "synthesis text", got.Medium)
		assert.Equal(t, "detailed text", got.Detailed)

		require.Len(t, client.requests, 3)
		for _, req := range client.requests {
			assert.Equal(t, systemPrompt, req.System)
			assert.Contains(t, req.Prompt, "Title: Highly accurate protein structure prediction")
			assert.Contains(t, req.Prompt, "Published in: Nature")
		}
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SummaryGenerations.WithLabelValues(SourceLLM)))
	})

	t.Run("one failed tier discards the whole round", func(t *testing.T) {
		metrics := observability.NewMetrics("test_summary_partial")
		client := &stubLLM{respond: func(req llm.Request) (*llm.Response, error) {
			if strings.Contains(req.Prompt, "Methodology") {
				return nil, &llm.APIError{Provider: "stub", StatusCode: 503, Message: "overloaded"}
			}
			return &llm.Response{Text: "llm text"}, nil
		}}
		g := NewGenerator(client, GeneratorConfig{}, metrics, zerolog.Nop())

		got := g.Generate(ctx, testPaper())
		assert.Equal(t, SourceHeuristic, got.Source)
		assert.Equal(t, heuristic(testPaper()).Short, got.Short)
		assert.NotContains(t, got.Medium, "llm text")
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SummaryGenerations.WithLabelValues(SourceHeuristic)))
	})

	t.Run("empty completion counts as failure", func(t *testing.T) {
		client := &stubLLM{respond: func(llm.Request) (*llm.Response, error) {
			return &llm.Response{Text: "  "}, nil
		}}
		g := NewGenerator(client, GeneratorConfig{}, nil, zerolog.Nop())
		assert.Equal(t, SourceHeuristic, g.Generate(ctx, testPaper()).Source)
	})

	t.Run("timeout bounds the llm round", func(t *testing.T) {
		client := &stubLLM{respond: func(llm.Request) (*llm.Response, error) {
			return nil, context.DeadlineExceeded
		}}
		g := NewGenerator(client, GeneratorConfig{Timeout: 10 * time.Millisecond}, nil, zerolog.Nop())
		assert.Equal(t, 10*time.Millisecond, g.timeout)
		assert.Equal(t, SourceHeuristic, g.Generate(ctx, testPaper()).Source)
	})

	t.Run("nil client uses heuristics", func(t *testing.T) {
		g := NewGenerator(nil, GeneratorConfig{}, nil, zerolog.Nop())
		assert.Equal(t, defaultGenerationTimeout, g.timeout)

		got := g.Generate(ctx, testPaper())
		assert.Equal(t, SourceHeuristic, got.Source)
		assert.NotEmpty(t, got.Short)
		assert.NotEmpty(t, got.Medium)
		assert.NotEmpty(t, got.Detailed)
	})
}

func TestResult_Content(t *testing.T) {
	r := Result{Short: "s", Medium: "m", Detailed: "d", Source: SourceLLM}
	assert.Equal(t, domain.SummaryContent{Short: "s", Medium: "m", Detailed: "d"}, r.Content())
	assert.False(t, r.empty())
	assert.True(t, Result{Short: " "}.empty())
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "short", tierShort.String())
	assert.Equal(t, "medium", tierMedium.String())
	assert.Equal(t, "detailed", tierDetailed.String())
}
