// Package timeline merges chat, AI, voice and system events into one
// chronological transcript per ticket and decides when enough new content
// has arrived to re-run analysis.
package timeline

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ziadkadry99/supportdesk/internal/clock"
	"github.com/ziadkadry99/supportdesk/internal/db"
	"github.com/ziadkadry99/supportdesk/internal/logging"
	"github.com/ziadkadry99/supportdesk/internal/metrics"
)

// DefaultTriggerEvery fires analysis on every second entry: one inbound and
// one outbound turn.
const DefaultTriggerEvery = 2

// Stream stores content entries.
type Stream struct {
	db           *db.DB
	clock        clock.Clock
	triggerEvery int
	log          *slog.Logger
}

// Option configures a Stream.
type Option func(*Stream)

// WithTriggerEvery overrides the analysis cadence. Values below 1 are ignored.
func WithTriggerEvery(n int) Option {
	return func(s *Stream) {
		if n >= 1 {
			s.triggerEvery = n
		}
	}
}

// WithLogger sets the stream's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stream) { s.log = l }
}

// NewStream creates a content stream backed by the given database.
func NewStream(database *db.DB, clk clock.Clock, options ...Option) *Stream {
	s := &Stream{db: database, clock: clk, triggerEvery: DefaultTriggerEvery}
	for _, o := range options {
		o(s)
	}
	s.log = logging.OrDiscard(s.log)
	return s
}

// Append stores a new entry and recounts the ticket's timeline in the same
// transaction. ShouldAnalyze is true whenever the count lands on a multiple
// of the trigger cadence, counting every source together.
func (s *Stream) Append(ctx context.Context, in AppendInput) (*AppendResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	ts := in.Timestamp
	if ts == 0 {
		ts = s.clock.NowMillis()
	}
	id := uuid.New().String()

	var count int
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var speaker sql.NullString
		if in.SpeakerID != "" {
			speaker = sql.NullString{String: in.SpeakerID, Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO content_entries (id, ticket_id, source, role, content, speaker_id, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, in.TicketID, string(in.Source), string(in.Role), in.Content, speaker, ts,
		); err != nil {
			return fmt.Errorf("inserting content entry: %w", err)
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM content_entries WHERE ticket_id = ?`, in.TicketID,
		).Scan(&count); err != nil {
			return fmt.Errorf("counting content entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ContentAppended.WithLabelValues(string(in.Source)).Inc()
	res := &AppendResult{
		ID:            id,
		Timestamp:     ts,
		Count:         count,
		ShouldAnalyze: count > 0 && count%s.triggerEvery == 0,
	}
	s.log.Debug("content appended", "ticket_id", in.TicketID, "source", in.Source,
		"count", count, "should_analyze", res.ShouldAnalyze)
	return res, nil
}

// ListByTicket returns the ticket's canonical transcript: ascending by
// timestamp, ties broken by arrival order.
func (s *Stream) ListByTicket(ctx context.Context, ticketID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, id, ticket_id, source, role, content, COALESCE(speaker_id, ''), timestamp
		 FROM content_entries WHERE ticket_id = ? ORDER BY timestamp ASC, seq ASC`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("querying content entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Seq, &e.ID, &e.TicketID, &e.Source, &e.Role, &e.Content, &e.SpeakerID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning content entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns how many entries the ticket has.
func (s *Stream) Count(ctx context.Context, ticketID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM content_entries WHERE ticket_id = ?`, ticketID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting content entries: %w", err)
	}
	return n, nil
}

// Tickets lists every ticket that has at least one entry, in first-seen order.
func (s *Stream) Tickets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ticket_id FROM content_entries GROUP BY ticket_id ORDER BY MIN(seq)`)
	if err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RenderUnified returns the ticket's transcript in the labelled line format
// fed to the analyzer.
func (s *Stream) RenderUnified(ctx context.Context, ticketID string) (string, error) {
	entries, err := s.ListByTicket(ctx, ticketID)
	if err != nil {
		return "", err
	}
	return Render(entries), nil
}

// GroupBySource returns the ticket's transcript partitioned by channel.
func (s *Stream) GroupBySource(ctx context.Context, ticketID string) (*Grouped, error) {
	entries, err := s.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	g := Group(entries)
	return &g, nil
}
