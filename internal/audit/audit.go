package audit

import "time"

// ActorType identifies who performed an action.
type ActorType string

const (
	ActorUser   ActorType = "user"
	ActorSystem ActorType = "system"
	ActorAgent  ActorType = "agent"
)

// Action describes what was done to a ticket.
type Action string

const (
	ActionQueueEnqueued  Action = "queue_enqueued"
	ActionQueueDequeued  Action = "queue_dequeued"
	ActionContextMerged  Action = "context_merged"
	ActionContextPatched Action = "context_patched"
	ActionAnalysisFailed Action = "analysis_failed"
)

// Entry is a single audit trail record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ActorType ActorType `json:"actor_type"`
	ActorID   string    `json:"actor_id"`
	Action    Action    `json:"action"`
	TicketID  string    `json:"ticket_id,omitempty"`
	Summary   string    `json:"summary"`
	Detail    string    `json:"detail,omitempty"`
}
