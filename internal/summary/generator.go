// Package summary generates and stores three-tier paper summaries.
//
// A Generator prefers an LLM client and falls back to local heuristics when no
// client is configured or any of the three completions fails. Generation never
// fails: a heuristic that panics or yields nothing degrades to a minimal summary
// derived from the title and abstract.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/llm"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

// Source values reported in Result.Source.
const (
	SourceLLM       = observability.SummaryPathLLM
	SourceHeuristic = observability.SummaryPathHeuristic
	SourceMinimal   = observability.SummaryPathMinimal
)

const defaultGenerationTimeout = 90 * time.Second

// Result is a generated summary.
type Result struct {
	Short    string
	Medium   string
	Detailed string
	// Source is the path that produced the text: llm, heuristic or minimal.
	Source string
}

// Content converts the result into storable summary text.
func (r Result) Content() domain.SummaryContent {
	return domain.SummaryContent{Short: r.Short, Medium: r.Medium, Detailed: r.Detailed}
}

func (r Result) empty() bool {
	return strings.TrimSpace(r.Short) == "" &&
		strings.TrimSpace(r.Medium) == "" &&
		strings.TrimSpace(r.Detailed) == ""
}

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	// Timeout bounds the LLM round of one generation. Zero uses 90s.
	Timeout time.Duration
}

// Generator produces summaries for papers.
type Generator struct {
	client  llm.Client
	timeout time.Duration
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewGenerator creates a Generator. client may be nil, in which case every
// summary is built heuristically.
func NewGenerator(client llm.Client, cfg GeneratorConfig, metrics *observability.Metrics, logger zerolog.Logger) *Generator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGenerationTimeout
	}
	return &Generator{
		client:  client,
		timeout: timeout,
		metrics: metrics,
		logger:  observability.WithComponent(logger, "summary_generator"),
	}
}

// Generate builds the short, medium and detailed summaries of a paper.
func (g *Generator) Generate(ctx context.Context, paper *domain.Paper) Result {
	log := observability.WithPaperContext(observability.LoggerFromContext(ctx, g.logger), paper.ID, paper.DOI)

	if g.client != nil {
		result, err := g.generateLLM(ctx, paper)
		if err == nil {
			g.metrics.RecordSummaryGenerated(SourceLLM)
			return result
		}
		log.Warn().Err(err).
			Str("provider", g.client.Provider()).
			Bool("transient", llm.IsTransient(err)).
			Msg("llm summary failed, using heuristic summary")
	}

	result, err := safeHeuristic(paper)
	if err == nil && !result.empty() {
		result.Source = SourceHeuristic
		g.metrics.RecordSummaryGenerated(SourceHeuristic)
		return result
	}
	if err != nil {
		log.Error().Err(err).Msg("heuristic summary failed, using minimal summary")
	}

	result = minimal(paper)
	result.Source = SourceMinimal
	g.metrics.RecordSummaryGenerated(SourceMinimal)
	return result
}

type tier int

const (
	tierShort tier = iota
	tierMedium
	tierDetailed
)

// generateLLM issues the three tier prompts concurrently. Any failure discards
// the whole round.
func (g *Generator) generateLLM(ctx context.Context, paper *domain.Paper) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	tiers := []tier{tierShort, tierMedium, tierDetailed}
	texts := make([]string, len(tiers))
	errs := make([]error, len(tiers))

	var wg sync.WaitGroup
	for i, t := range tiers {
		wg.Add(1)
		go func(i int, t tier) {
			defer wg.Done()
			resp, err := g.client.Complete(ctx, buildRequest(t, paper))
			if err != nil {
				errs[i] = err
				return
			}
			text := strings.TrimSpace(resp.Text)
			if text == "" {
				errs[i] = fmt.Errorf("empty completion for %s summary", t)
				return
			}
			texts[i] = text
		}(i, t)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return Result{}, err
	}

	return Result{
		Short:    texts[tierShort],
		Medium:   texts[tierMedium],
		Detailed: texts[tierDetailed],
		Source:   SourceLLM,
	}, nil
}

func safeHeuristic(paper *domain.Paper) (result Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic during heuristic summary: %v", rec)
		}
	}()
	return heuristic(paper), nil
}
