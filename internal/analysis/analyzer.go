// Package analysis turns a ticket transcript into a candidate context
// summary by asking an LLM.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ziadkadry99/supportdesk/internal/contextmerge"
	"github.com/ziadkadry99/supportdesk/internal/llm"
	"github.com/ziadkadry99/supportdesk/internal/metrics"
)

// Request is one analysis pass over a ticket.
type Request struct {
	TicketID   string
	Transcript string                // unified transcript, oldest line first
	Current    *contextmerge.Summary // nil on the first pass
}

// Result is what the analyzer extracted.
type Result struct {
	Candidate contextmerge.Candidate `json:"candidate"`
	FollowUps []string               `json:"follow_ups"` // questions the agent could ask next
	Tasks     []string               `json:"tasks"`      // suggested next steps for the agent
}

// Analyzer produces a candidate summary from a transcript.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Result, error)
}

// Func adapts an ordinary function to the Analyzer interface.
type Func func(ctx context.Context, req Request) (*Result, error)

func (f Func) Analyze(ctx context.Context, req Request) (*Result, error) { return f(ctx, req) }

// LLMAnalyzer implements Analyzer with a JSON-mode completion.
type LLMAnalyzer struct {
	provider  llm.Provider
	model     string
	maxTokens int
}

// NewLLMAnalyzer creates an analyzer. maxTokens bounds both the transcript
// sent and the completion requested; 0 uses the provider default.
func NewLLMAnalyzer(provider llm.Provider, model string, maxTokens int) *LLMAnalyzer {
	return &LLMAnalyzer{provider: provider, model: model, maxTokens: maxTokens}
}

func (a *LLMAnalyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	defer func() { metrics.AnalysisDuration.Observe(time.Since(start).Seconds()) }()

	prompt := buildPrompt(req, a.transcriptBudget())

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Model: a.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens:   a.maxTokens,
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM completion: %w", err)
	}

	res, err := parseResponse(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing LLM response: %w", err)
	}
	return res, nil
}

// transcriptBudget is the number of transcript tokens to keep: four times
// the completion budget, or unlimited when none is configured.
func (a *LLMAnalyzer) transcriptBudget() int {
	if a.maxTokens <= 0 {
		return 0
	}
	return a.maxTokens * 4
}

const systemPrompt = `You are a customer support triage assistant. You read the full transcript of a support ticket, across chat, AI assistant, voice and system channels, and maintain a structured summary of the customer's situation.

You MUST respond with valid JSON matching this schema:
{
  "title": "short title for the ticket",
  "summary": "two or three sentences describing the situation, markdown allowed",
  "confirmed_facts": ["facts the customer or agent stated explicitly"],
  "inferred_signals": ["things implied but not stated, e.g. churn risk"],
  "unknowns": ["information still missing to resolve the ticket"],
  "actions_taken": ["steps already performed by the agent or AI"],
  "sentiment": "positive|neutral|negative|frustrated|angry",
  "follow_ups": ["questions the agent should ask next"],
  "tasks": ["concrete next steps for the agent"]
}

Rules:
- Keep every list item a short standalone sentence
- Do not repeat facts already listed in the current summary unless they changed
- unknowns replaces the previous list: only include what is still unknown now
- Use only the sentiment values listed above`

func buildPrompt(req Request, budget int) string {
	var b strings.Builder

	b.WriteString("## Current Summary\n")
	if s := req.Current; s != nil {
		fmt.Fprintf(&b, "Title: %s\n", s.Title)
		if s.Summary != "" {
			fmt.Fprintf(&b, "Summary: %s\n", s.Summary)
		}
		writeList(&b, "Confirmed facts", s.ConfirmedFacts)
		writeList(&b, "Inferred signals", s.InferredSignals)
		writeList(&b, "Unknowns", s.Unknowns)
		writeList(&b, "Actions taken", s.ActionsTaken)
		if s.Sentiment != nil {
			fmt.Fprintf(&b, "Sentiment: %s\n", *s.Sentiment)
		}
	} else {
		b.WriteString("(No summary yet)\n")
	}

	fmt.Fprintf(&b, "\n## Transcript for ticket %s\n%s\n", req.TicketID, truncateTranscript(req.Transcript, budget))
	b.WriteString("\nUpdate the summary from this transcript.")

	return b.String()
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", heading)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}

// truncateTranscript keeps the most recent lines that fit in budget tokens.
// A budget of 0 keeps everything.
func truncateTranscript(transcript string, budget int) string {
	if budget <= 0 || llm.EstimateTokens(transcript) <= budget {
		return transcript
	}
	lines := strings.Split(transcript, "\n")
	used := 0
	start := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		cost := llm.EstimateTokens(lines[i]) + 1
		if used+cost > budget {
			break
		}
		used += cost
		start = i
	}
	return "(earlier lines omitted)\n" + strings.Join(lines[start:], "\n")
}
