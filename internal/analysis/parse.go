package analysis

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/ziadkadry99/supportdesk/internal/contextmerge"
)

// response mirrors the JSON schema in systemPrompt.
type response struct {
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	ConfirmedFacts  []string `json:"confirmed_facts"`
	InferredSignals []string `json:"inferred_signals"`
	Unknowns        []string `json:"unknowns"`
	ActionsTaken    []string `json:"actions_taken"`
	Sentiment       string   `json:"sentiment"`
	FollowUps       []string `json:"follow_ups"`
	Tasks           []string `json:"tasks"`
}

var errNoJSON = errors.New("no JSON object in response")

// parseResponse extracts the first JSON object from content, which may be
// wrapped in markdown fences or prose. Sentiments outside the known set are
// dropped rather than failing the whole pass.
func parseResponse(content string) (*Result, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, errNoJSON
	}

	var r response
	if err := json.Unmarshal([]byte(content[start:end+1]), &r); err != nil {
		return nil, err
	}

	c := contextmerge.Candidate{
		Title:           strings.TrimSpace(r.Title),
		Summary:         strings.TrimSpace(r.Summary),
		ConfirmedFacts:  clean(r.ConfirmedFacts),
		InferredSignals: clean(r.InferredSignals),
		Unknowns:        clean(r.Unknowns),
		ActionsTaken:    clean(r.ActionsTaken),
	}
	if s, err := contextmerge.ParseSentiment(strings.ToLower(strings.TrimSpace(r.Sentiment))); err == nil {
		c.Sentiment = &s
	}

	return &Result{
		Candidate: c,
		FollowUps: clean(r.FollowUps),
		Tasks:     clean(r.Tasks),
	}, nil
}

// clean trims items and drops blanks. The result is never nil.
func clean(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
