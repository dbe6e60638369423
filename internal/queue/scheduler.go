package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ziadkadry99/supportdesk/internal/apperr"
	"github.com/ziadkadry99/supportdesk/internal/audit"
	"github.com/ziadkadry99/supportdesk/internal/clock"
	"github.com/ziadkadry99/supportdesk/internal/db"
	"github.com/ziadkadry99/supportdesk/internal/logging"
	"github.com/ziadkadry99/supportdesk/internal/metrics"
)

// Scheduler orders waiting tickets per vendor and answers how many tickets
// are ahead of a given one.
type Scheduler struct {
	db    *db.DB
	clock clock.Clock
	opts  Options
	audit *audit.Store
	log   *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithAudit records enqueue and dequeue events in the audit trail.
func WithAudit(store *audit.Store) Option {
	return func(s *Scheduler) { s.audit = store }
}

// WithLogger sets the scheduler's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// NewScheduler creates a scheduler backed by the given database.
func NewScheduler(database *db.DB, clk clock.Clock, opts Options, options ...Option) *Scheduler {
	s := &Scheduler{db: database, clock: clk, opts: opts}
	for _, o := range options {
		o(s)
	}
	s.log = logging.OrDiscard(s.log)
	return s
}

// Options returns the scheduler configuration.
func (s *Scheduler) Options() Options { return s.opts }

func (s *Scheduler) validate(req enqueueRequest) error {
	if err := apperr.Struct(req); err != nil {
		return err
	}
	if p := *req.Priority; p < s.opts.MinPriority || p > s.opts.MaxPriority {
		return apperr.Validation("priority", "must be between %d and %d", s.opts.MinPriority, s.opts.MaxPriority)
	}
	return nil
}

// Enqueue places ticketID in the vendor queue. The reported position counts
// every entry whose priority is at least the newcomer's, and the wait
// estimate derived from it is stored once and never refreshed.
func (s *Scheduler) Enqueue(ctx context.Context, vendorID, ticketID string, priority int) (*EnqueueResult, error) {
	req := enqueueRequest{VendorID: vendorID, TicketID: ticketID, Priority: &priority}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	e := Entry{
		ID:       uuid.New().String(),
		VendorID: vendorID,
		TicketID: ticketID,
		Priority: priority,
	}
	var count int

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM queue_entries WHERE ticket_id = ?`, ticketID,
		).Scan(&exists)
		if err == nil {
			return fmt.Errorf("ticket %s already queued: %w", ticketID, apperr.ErrDuplicateEntry)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking existing entry: %w", err)
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM queue_entries WHERE vendor_id = ? AND priority >= ?`,
			vendorID, priority,
		).Scan(&count); err != nil {
			return fmt.Errorf("counting queue entries: %w", err)
		}

		e.EnteredAt = s.clock.NowMillis()
		e.EstimatedWaitMinutes = count * s.opts.MinutesPerTicket

		_, err = tx.ExecContext(ctx,
			`INSERT INTO queue_entries (id, vendor_id, ticket_id, priority, entered_at, estimated_wait_minutes)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, e.VendorID, e.TicketID, e.Priority, e.EnteredAt, e.EstimatedWaitMinutes,
		)
		if err != nil {
			return fmt.Errorf("inserting queue entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.QueueEnqueued.Inc()
	s.log.Info("ticket enqueued", "vendor_id", vendorID, "ticket_id", ticketID, "priority", priority, "position", count+1)
	s.record(ctx, audit.ActionQueueEnqueued, ticketID, fmt.Sprintf("queued for %s at priority %d (position %d)", vendorID, priority, count+1))

	return &EnqueueResult{QueueID: e.ID, Position: count + 1}, nil
}

// Dequeue removes the ticket's entry. Absence is not an error: a concurrent
// assignment may already have consumed it. The bool reports whether a row
// was actually removed.
func (s *Scheduler) Dequeue(ctx context.Context, ticketID string) (bool, error) {
	if ticketID == "" {
		return false, apperr.Validation("ticket_id", "is required")
	}

	var removed int64
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM queue_entries WHERE ticket_id = ?`, ticketID)
		if err != nil {
			return fmt.Errorf("deleting queue entry: %w", err)
		}
		removed, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return false, err
	}

	if removed > 0 {
		metrics.QueueDequeued.Inc()
		s.log.Info("ticket dequeued", "ticket_id", ticketID)
		s.record(ctx, audit.ActionQueueDequeued, ticketID, "removed from queue")
	}
	return removed > 0, nil
}

// GetPosition recomputes the ticket's live position. The wait estimate is
// the value frozen at enqueue time. Returns nil when the ticket is not queued.
func (s *Scheduler) GetPosition(ctx context.Context, ticketID string) (*Position, error) {
	entries, err := s.query(ctx,
		`WHERE vendor_id = (SELECT vendor_id FROM queue_entries WHERE ticket_id = ?)`, ticketID)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.TicketID == ticketID {
			return &Position{
				TicketID:             e.TicketID,
				VendorID:             e.VendorID,
				Priority:             e.Priority,
				Position:             Rank(entries, e),
				EstimatedWaitMinutes: e.EstimatedWaitMinutes,
			}, nil
		}
	}
	return nil, nil
}

// ListByVendor returns the vendor queue in service order with live positions.
func (s *Scheduler) ListByVendor(ctx context.Context, vendorID string) ([]Entry, error) {
	entries, err := s.query(ctx, `WHERE vendor_id = ?`, vendorID)
	if err != nil {
		return nil, err
	}
	return Order(entries), nil
}

// Stats returns depth and age information for a vendor queue.
func (s *Scheduler) Stats(ctx context.Context, vendorID string) (*Stats, error) {
	st := Stats{VendorID: vendorID}
	var oldest, top sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(entered_at), MAX(priority) FROM queue_entries WHERE vendor_id = ?`, vendorID,
	).Scan(&st.Depth, &oldest, &top)
	if err != nil {
		return nil, fmt.Errorf("querying queue stats: %w", err)
	}
	st.OldestEnteredAt = oldest.Int64
	st.TopPriority = int(top.Int64)
	return &st, nil
}

func (s *Scheduler) query(ctx context.Context, where string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, id, vendor_id, ticket_id, priority, entered_at, estimated_wait_minutes
		 FROM queue_entries `+where+` ORDER BY priority DESC, entered_at ASC, seq ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying queue entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.seq, &e.ID, &e.VendorID, &e.TicketID, &e.Priority, &e.EnteredAt, &e.EstimatedWaitMinutes); err != nil {
			return nil, fmt.Errorf("scanning queue entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Scheduler) record(ctx context.Context, action audit.Action, ticketID, summary string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, audit.Entry{
		ActorType: audit.ActorSystem,
		ActorID:   "queue",
		Action:    action,
		TicketID:  ticketID,
		Summary:   summary,
	}); err != nil {
		s.log.Warn("audit log failed", "ticket_id", ticketID, "error", err)
	}
}
