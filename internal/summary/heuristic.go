package summary

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/normalize"
)

const (
	maxKeyPoints    = 5
	minKeyPoints    = 3
	minPointLength  = 10
	maxPointLength  = 150
	bulletPrefix    = "• "
	minimalAbstract = 200
)

const closingSentence = "The authors provide valuable insights that contribute to the advancement of knowledge in this area, with potential applications in various related fields."

var (
	sentenceBreak = regexp.MustCompile(`[.!?]\s+`)

	indicatorWords = []string{
		"results", "conclusion", "findings", "demonstrate", "show", "present",
		"develop", "propose", "novel", "new", "approach", "method", "technique",
		"analysis", "significant", "important",
	}

	leadingPunct   = regexp.MustCompile(`^[,;:]+\s*`)
	leadingSubject = regexp.MustCompile(`(?i)^(this|the|our|we)\s+`)
	leadingClaim   = regexp.MustCompile(`(?i)^(paper|study|research)\s+(shows|demonstrates|concludes|finds|presents)\s+`)
)

// heuristic builds all three tiers locally from the paper's metadata.
func heuristic(p *domain.Paper) Result {
	return Result{
		Short:    shortSummary(p),
		Medium:   mediumSummary(p),
		Detailed: detailedSummary(p),
	}
}

// minimal is the last resort when the heuristic path cannot produce output.
func minimal(p *domain.Paper) Result {
	return Result{
		Short:    fmt.Sprintf("This paper discusses %s.", strings.ToLower(p.Title)),
		Medium:   normalize.Truncate(p.Abstract, minimalAbstract, "") + "...",
		Detailed: p.Abstract,
	}
}

func shortSummary(p *domain.Paper) string {
	points := keyPoints(p.Title + ". " + p.Abstract)
	if len(points) < minKeyPoints {
		points = templatedPoints(p)
	}

	lines := make([]string, len(points))
	for i, point := range points {
		lines[i] = bulletPrefix + point
	}
	return strings.Join(lines, "\n")
}

// keyPoints picks distinct sentences that carry an indicator word.
func keyPoints(text string) []string {
	seen := make(map[string]struct{})
	var points []string

	for _, sentence := range splitSentences(text) {
		if !hasIndicator(sentence) {
			continue
		}
		point := cleanPoint(sentence)
		n := utf8.RuneCountInString(point)
		if n <= minPointLength || n >= maxPointLength {
			continue
		}
		if _, dup := seen[point]; dup {
			continue
		}
		seen[point] = struct{}{}
		points = append(points, point)
		if len(points) == maxKeyPoints {
			break
		}
	}
	return points
}

func templatedPoints(p *domain.Paper) []string {
	lead := p.Authors
	if len(lead) > 2 {
		lead = lead[:2]
	}
	authors := strings.Join(lead, ", ")
	if len(p.Authors) > 2 {
		authors += " and others"
	}

	return []string{
		"Presents research on " + strings.ToLower(p.Title),
		"Authored by " + authors,
		"Published in " + venue(p),
		"Focuses on the field of " + p.Domain.String(),
		fmt.Sprintf("Contains %d pages with %d citations", p.PageCount, p.CitationCount),
	}
}

func mediumSummary(p *domain.Paper) string {
	sentences := splitSentences(p.Abstract)
	if len(sentences) <= 3 {
		return strings.TrimSpace(p.Abstract)
	}
	return strings.Join([]string{
		sentences[0],
		sentences[len(sentences)/2],
		sentences[len(sentences)-1],
	}, " ")
}

func detailedSummary(p *domain.Paper) string {
	intro := fmt.Sprintf("This paper titled %q by %s presents a comprehensive study in the field of %s.",
		p.Title, strings.Join(p.Authors, ", "), p.Domain.String())

	pages := "several"
	if p.PageCount > 0 {
		pages = fmt.Sprintf("%d", p.PageCount)
	}
	closing := fmt.Sprintf("The research was published in %s and spans %s pages.", venue(p), pages)
	if p.CitationCount > 0 {
		closing += fmt.Sprintf(" This work has been cited %d times, indicating its significance in the field.", p.CitationCount)
	}

	return strings.Join([]string{
		intro,
		strings.TrimSpace(p.Abstract),
		normalize.DomainContext(p.Domain),
		closing,
		closingSentence,
	}, "\n\n")
}

// splitSentences splits after terminal punctuation followed by whitespace.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	for _, loc := range sentenceBreak.FindAllStringIndex(text, -1) {
		sentences = append(sentences, text[start:loc[0]+1])
		start = loc[1]
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func hasIndicator(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, word := range indicatorWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func cleanPoint(sentence string) string {
	s := strings.TrimSpace(sentence)
	s = leadingPunct.ReplaceAllString(s, "")
	s = leadingSubject.ReplaceAllString(s, "")
	s = leadingClaim.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func venue(p *domain.Paper) string {
	if p.Journal != "" {
		return p.Journal
	}
	return p.Platform.String()
}
