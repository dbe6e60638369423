package timeline

import "github.com/ziadkadry99/supportdesk/internal/apperr"

// Source is the channel a content entry arrived on.
type Source string

const (
	SourceChat   Source = "chat_message"
	SourceAI     Source = "ai_message"
	SourceVoice  Source = "voice_transcript"
	SourceSystem Source = "system"
)

var sourceLabels = map[Source]string{
	SourceChat:   "Chat",
	SourceAI:     "AI",
	SourceVoice:  "Voice",
	SourceSystem: "System",
}

// Label is the bracketed tag used in the unified transcript.
func (s Source) Label() string { return sourceLabels[s] }

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	_, ok := sourceLabels[s]
	return ok
}

// ParseSource rejects values outside the closed set.
func ParseSource(v string) (Source, error) {
	s := Source(v)
	if !s.Valid() {
		return "", apperr.Validation("source", "unknown value %q", v)
	}
	return s, nil
}

// Role is who produced a content entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

var roleLabels = map[Role]string{
	RoleUser:      "User",
	RoleAssistant: "Assistant",
	RoleSystem:    "System",
}

func (r Role) Label() string { return roleLabels[r] }

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// ParseRole rejects values outside the closed set.
func ParseRole(v string) (Role, error) {
	r := Role(v)
	if !r.Valid() {
		return "", apperr.Validation("role", "unknown value %q", v)
	}
	return r, nil
}

// Entry is one unit of conversation in a ticket's timeline.
type Entry struct {
	ID        string `json:"id"`
	TicketID  string `json:"ticket_id"`
	Source    Source `json:"source"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	SpeakerID string `json:"speaker_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Seq       int64  `json:"seq"`
}

// AppendInput describes a new entry. Timestamp is optional; zero means
// "now" on the stream's clock.
type AppendInput struct {
	TicketID  string `json:"ticket_id" validate:"required"`
	Source    Source `json:"source" validate:"required"`
	Role      Role   `json:"role" validate:"required"`
	Content   string `json:"content"`
	SpeakerID string `json:"speaker_id,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty" validate:"gte=0"`
}

// Validate checks required fields and the closed enumerations.
func (in AppendInput) Validate() error {
	if err := apperr.Struct(in); err != nil {
		return err
	}
	if !in.Source.Valid() {
		return apperr.Validation("source", "unknown value %q", in.Source)
	}
	if !in.Role.Valid() {
		return apperr.Validation("role", "unknown value %q", in.Role)
	}
	return nil
}

// AppendResult reports the stored entry and whether the ticket has
// accumulated enough new content to warrant re-analysis.
type AppendResult struct {
	ID            string `json:"id"`
	Timestamp     int64  `json:"timestamp"`
	Count         int    `json:"count"`
	ShouldAnalyze bool   `json:"should_analyze"`
}

// Grouped partitions a timeline by source, each list in global order.
type Grouped struct {
	Chat   []Entry `json:"chat"`
	AI     []Entry `json:"ai"`
	Voice  []Entry `json:"voice"`
	System []Entry `json:"system"`
}
