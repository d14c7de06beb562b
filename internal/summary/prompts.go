package summary

import (
	"fmt"
	"strings"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/llm"
)

const systemPrompt = "You are a research assistant who writes accurate, neutral summaries of academic papers. " +
	"Use only the information provided. Do not invent results, numbers or citations."

func (t tier) String() string {
	switch t {
	case tierShort:
		return "short"
	case tierMedium:
		return "medium"
	case tierDetailed:
		return "detailed"
	default:
		return "unknown"
	}
}

func (t tier) instructions() (string, int) {
	switch t {
	case tierShort:
		return "Summarize the paper as 3 to 5 key points. Write one point per line, each starting with \"• \". " +
			"Keep every point under 25 words.", 300
	case tierMedium:
		return "Write a synthesis of the paper in 3 to 4 paragraphs of plain prose covering the problem, " +
			"the approach and the main results.", 700
	default:
		return "Write a detailed summary of the paper with these sections, each introduced by its name on its own line: " +
			"Background, Methodology, Key Findings, Implications, Limitations, Future Work.", 1500
	}
}

func buildRequest(t tier, p *domain.Paper) llm.Request {
	instructions, maxTokens := t.instructions()

	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Title: %s\n", p.Title)
	if len(p.Authors) > 0 {
		fmt.Fprintf(&b, "Authors: %s\n", strings.Join(p.Authors, ", "))
	}
	fmt.Fprintf(&b, "Field: %s\n", p.Domain)
	fmt.Fprintf(&b, "Published in: %s\n", venue(p))
	if !p.PublishedDate.IsZero() {
		fmt.Fprintf(&b, "Published: %s\n", p.PublishedDate.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "\nAbstract:\n%s\n", strings.TrimSpace(p.Abstract))

	return llm.Request{
		System:    systemPrompt,
		Prompt:    b.String(),
		MaxTokens: maxTokens,
	}
}
