package contextmerge

import "github.com/ziadkadry99/supportdesk/internal/apperr"

// Sentiment is the customer's current mood as judged by the latest analysis.
type Sentiment string

const (
	SentimentPositive   Sentiment = "positive"
	SentimentNeutral    Sentiment = "neutral"
	SentimentNegative   Sentiment = "negative"
	SentimentFrustrated Sentiment = "frustrated"
	SentimentAngry      Sentiment = "angry"
)

var validSentiments = map[Sentiment]bool{
	SentimentPositive:   true,
	SentimentNeutral:    true,
	SentimentNegative:   true,
	SentimentFrustrated: true,
	SentimentAngry:      true,
}

// Valid reports whether s is one of the known sentiments.
func (s Sentiment) Valid() bool { return validSentiments[s] }

// ParseSentiment rejects values outside the closed set.
func ParseSentiment(v string) (Sentiment, error) {
	s := Sentiment(v)
	if !s.Valid() {
		return "", apperr.Validation("sentiment", "unknown value %q", v)
	}
	return s, nil
}

// Summary is the single evolving understanding of a ticket. ConfirmedFacts,
// InferredSignals and ActionsTaken only ever grow; Title, Summary, Unknowns
// and Sentiment hold the latest belief.
type Summary struct {
	ID              string     `json:"id"`
	TicketID        string     `json:"ticket_id"`
	Version         int        `json:"version"`
	Title           string     `json:"title"`
	Summary         string     `json:"summary"`
	ConfirmedFacts  []string   `json:"confirmed_facts"`
	InferredSignals []string   `json:"inferred_signals"`
	Unknowns        []string   `json:"unknowns"`
	ActionsTaken    []string   `json:"actions_taken"`
	Sentiment       *Sentiment `json:"sentiment,omitempty"`
	CreatedAt       int64      `json:"created_at"`
	UpdatedAt       int64      `json:"updated_at"`
}

// Candidate is one extraction pass to fold into a summary.
type Candidate struct {
	Title           string     `json:"title"`
	Summary         string     `json:"summary"`
	ConfirmedFacts  []string   `json:"confirmed_facts"`
	InferredSignals []string   `json:"inferred_signals"`
	Unknowns        []string   `json:"unknowns"`
	ActionsTaken    []string   `json:"actions_taken"`
	Sentiment       *Sentiment `json:"sentiment,omitempty"`
}

// Validate checks the closed enumerations in c.
func (c Candidate) Validate() error {
	if c.Sentiment != nil && !c.Sentiment.Valid() {
		return apperr.Validation("sentiment", "unknown value %q", *c.Sentiment)
	}
	return nil
}

// Patch is a partial update: nil fields are left untouched. The Add* lists
// are unioned into the accumulating sets; Unknowns replaces when non-nil.
type Patch struct {
	Title              *string    `json:"title,omitempty"`
	Summary            *string    `json:"summary,omitempty"`
	Sentiment          *Sentiment `json:"sentiment,omitempty"`
	Unknowns           *[]string  `json:"unknowns,omitempty"`
	AddConfirmedFacts  []string   `json:"add_confirmed_facts,omitempty"`
	AddInferredSignals []string   `json:"add_inferred_signals,omitempty"`
	AddActionsTaken    []string   `json:"add_actions_taken,omitempty"`
}

// Empty reports whether the patch supplies no field at all.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Summary == nil && p.Sentiment == nil && p.Unknowns == nil &&
		len(p.AddConfirmedFacts) == 0 && len(p.AddInferredSignals) == 0 && len(p.AddActionsTaken) == 0
}

// Validate rejects empty patches and unknown sentiments.
func (p Patch) Validate() error {
	if p.Empty() {
		return apperr.Validation("", "patch supplies no fields")
	}
	if p.Sentiment != nil && !p.Sentiment.Valid() {
		return apperr.Validation("sentiment", "unknown value %q", *p.Sentiment)
	}
	return nil
}

// UpsertResult is returned by Upsert and Patch.
type UpsertResult struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
}
