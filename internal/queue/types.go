package queue

import "time"

// Entry is a ticket waiting for assignment in a vendor queue. At most one
// entry exists per ticket.
type Entry struct {
	ID                   string `json:"id"`
	VendorID             string `json:"vendor_id"`
	TicketID             string `json:"ticket_id"`
	Priority             int    `json:"priority"` // higher = served sooner
	EnteredAt            int64  `json:"entered_at"`
	EstimatedWaitMinutes int    `json:"estimated_wait_minutes"` // frozen at enqueue
	Position             int    `json:"position,omitempty"`     // live, filled by reads

	seq int64 // insertion order, last-resort tie-break
}

// EnqueueResult is returned by Enqueue.
type EnqueueResult struct {
	QueueID  string `json:"queue_id"`
	Position int    `json:"position"`
}

// Position is the live standing of a queued ticket.
type Position struct {
	TicketID             string `json:"ticket_id"`
	VendorID             string `json:"vendor_id"`
	Priority             int    `json:"priority"`
	Position             int    `json:"position"`
	EstimatedWaitMinutes int    `json:"estimated_wait_minutes"`
}

// Stats summarises one vendor queue for dashboards.
type Stats struct {
	VendorID        string `json:"vendor_id"`
	Depth           int    `json:"depth"`
	OldestEnteredAt int64  `json:"oldest_entered_at,omitempty"`
	TopPriority     int    `json:"top_priority,omitempty"`
}

// Options tunes the scheduler.
type Options struct {
	MinPriority      int
	MaxPriority      int
	MinutesPerTicket int           // wait estimate per ticket ahead
	PollInterval     time.Duration // websocket position push interval
}

// DefaultOptions returns the stock priority range 0..10 and a five minute
// per-ticket wait estimate.
func DefaultOptions() Options {
	return Options{
		MinPriority:      0,
		MaxPriority:      10,
		MinutesPerTicket: 5,
		PollInterval:     5 * time.Second,
	}
}

type enqueueRequest struct {
	VendorID string `json:"vendor_id" validate:"required"`
	TicketID string `json:"ticket_id" validate:"required"`
	Priority *int   `json:"priority" validate:"required"`
}
