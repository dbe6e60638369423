package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/supportdesk/internal/contextmerge"
	"github.com/ziadkadry99/supportdesk/internal/llm"
)

type fakeProvider struct {
	content string
	err     error
	reqs    []llm.CompletionRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.content}, nil
}

func TestAnalyze(t *testing.T) {
	p := &fakeProvider{content: "```json\n" + `{
		"title": "Late delivery",
		"summary": "Order 123 has not arrived.",
		"confirmed_facts": ["order 123", " ", "ordered on monday"],
		"inferred_signals": ["churn risk"],
		"unknowns": ["tracking number"],
		"actions_taken": [],
		"sentiment": "Frustrated",
		"follow_ups": ["Can you share the tracking number?"],
		"tasks": ["check carrier status"]
	}` + "\n```"}
	a := NewLLMAnalyzer(p, "model-x", 1024)

	res, err := a.Analyze(context.Background(), Request{
		TicketID:   "T1",
		Transcript: "[Chat] User: where is my order 123?",
	})
	require.NoError(t, err)

	c := res.Candidate
	assert.Equal(t, "Late delivery", c.Title)
	assert.Equal(t, []string{"order 123", "ordered on monday"}, c.ConfirmedFacts)
	assert.Equal(t, []string{"tracking number"}, c.Unknowns)
	assert.Equal(t, []string{}, c.ActionsTaken)
	require.NotNil(t, c.Sentiment)
	assert.Equal(t, contextmerge.SentimentFrustrated, *c.Sentiment)
	assert.Equal(t, []string{"Can you share the tracking number?"}, res.FollowUps)
	assert.Equal(t, []string{"check carrier status"}, res.Tasks)

	require.Len(t, p.reqs, 1)
	req := p.reqs[0]
	assert.True(t, req.JSONMode)
	assert.Equal(t, "model-x", req.Model)
	assert.Equal(t, 1024, req.MaxTokens)
	assert.Contains(t, req.Messages[1].Content, "[Chat] User: where is my order 123?")
	assert.Contains(t, req.Messages[1].Content, "(No summary yet)")
}

func TestAnalyzeIncludesCurrentSummary(t *testing.T) {
	p := &fakeProvider{content: `{"title":"x"}`}
	a := NewLLMAnalyzer(p, "m", 0)

	neutral := contextmerge.SentimentNeutral
	_, err := a.Analyze(context.Background(), Request{
		TicketID:   "T1",
		Transcript: "[Chat] User: hi",
		Current: &contextmerge.Summary{
			Title:          "Refund",
			ConfirmedFacts: []string{"paid twice"},
			Sentiment:      &neutral,
		},
	})
	require.NoError(t, err)

	prompt := p.reqs[0].Messages[1].Content
	assert.Contains(t, prompt, "Title: Refund")
	assert.Contains(t, prompt, "- paid twice")
	assert.Contains(t, prompt, "Sentiment: neutral")
}

func TestAnalyzeProviderError(t *testing.T) {
	p := &fakeProvider{err: errors.New("unavailable")}
	_, err := NewLLMAnalyzer(p, "m", 0).Analyze(context.Background(), Request{TicketID: "T1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantErr   bool
		wantTitle string
		wantSent  *contextmerge.Sentiment
	}{
		{"plain", `{"title":"a","sentiment":"angry"}`, false, "a", ptr(contextmerge.SentimentAngry)},
		{"prose wrapped", `Here you go: {"title":"b"} hope it helps`, false, "b", nil},
		{"unknown sentiment dropped", `{"title":"c","sentiment":"elated"}`, false, "c", nil},
		{"no json", "sorry, I cannot help", true, "", nil},
		{"broken json", `{"title": }`, true, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := parseResponse(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, res.Candidate.Title)
			assert.Equal(t, tt.wantSent, res.Candidate.Sentiment)
			assert.NotNil(t, res.Candidate.ConfirmedFacts)
		})
	}
}

func TestTruncateTranscriptKeepsRecentLines(t *testing.T) {
	var lines []string
	for i := 0; i < 100; i++ {
		lines = append(lines, "[Chat] User: message number padded out")
	}
	lines = append(lines, "[Chat] User: the latest line")
	transcript := strings.Join(lines, "\n")

	got := truncateTranscript(transcript, 50)
	assert.True(t, strings.HasPrefix(got, "(earlier lines omitted)"))
	assert.True(t, strings.HasSuffix(got, "the latest line"))
	assert.Less(t, len(got), len(transcript))

	assert.Equal(t, transcript, truncateTranscript(transcript, 0))
}

func TestFuncAdapter(t *testing.T) {
	var a Analyzer = Func(func(ctx context.Context, req Request) (*Result, error) {
		return &Result{Candidate: contextmerge.Candidate{Title: req.TicketID}}, nil
	})
	res, err := a.Analyze(context.Background(), Request{TicketID: "T9"})
	require.NoError(t, err)
	assert.Equal(t, "T9", res.Candidate.Title)
}

func ptr(s contextmerge.Sentiment) *contextmerge.Sentiment { return &s }
