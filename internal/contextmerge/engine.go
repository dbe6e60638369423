package contextmerge

import (
	"context"
	"database/sql"
	"encoding/json"
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

// Engine owns the one versioned context summary per ticket.
type Engine struct {
	db    *db.DB
	clock clock.Clock
	audit *audit.Store
	log   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithAudit records every committed version in the audit trail.
func WithAudit(store *audit.Store) Option {
	return func(e *Engine) { e.audit = store }
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates a merge engine backed by the given database.
func NewEngine(database *db.DB, clk clock.Clock, options ...Option) *Engine {
	e := &Engine{db: database, clock: clk}
	for _, o := range options {
		o(e)
	}
	e.log = logging.OrDiscard(e.log)
	return e
}

// Upsert folds candidate into the ticket's summary: the first call creates
// version 1, every later call unions the accumulating sets, replaces the
// current-belief fields and bumps the version by exactly one. The read and
// the write commit together; on error nothing changes.
func (e *Engine) Upsert(ctx context.Context, ticketID string, candidate Candidate) (*UpsertResult, error) {
	if ticketID == "" {
		return nil, apperr.Validation("ticket_id", "is required")
	}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	var next Summary
	err := e.db.WithTx(ctx, func(tx *sql.Tx) error {
		existing, err := getByTicket(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		next = Merge(existing, candidate)
		return e.commit(ctx, tx, ticketID, existing, &next)
	})
	if err != nil {
		metrics.ContextMerges.WithLabelValues("failed").Inc()
		return nil, err
	}

	result := "merged"
	if next.Version == 1 {
		result = "created"
	}
	metrics.ContextMerges.WithLabelValues(result).Inc()
	e.log.Info("context summary committed", "ticket_id", ticketID, "version", next.Version,
		"confirmed_facts", len(next.ConfirmedFacts), "unknowns", len(next.Unknowns))
	e.record(ctx, audit.ActorSystem, "analysis", audit.ActionContextMerged, ticketID,
		fmt.Sprintf("context summary version %d", next.Version))

	return &UpsertResult{ID: next.ID, Version: next.Version}, nil
}

// Patch applies an explicit partial update, typically an agent correcting
// the title or recording an action. The summary must already exist.
func (e *Engine) Patch(ctx context.Context, ticketID, actorID string, p Patch) (*UpsertResult, error) {
	if ticketID == "" {
		return nil, apperr.Validation("ticket_id", "is required")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var next Summary
	err := e.db.WithTx(ctx, func(tx *sql.Tx) error {
		existing, err := getByTicket(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("context summary for %s: %w", ticketID, apperr.ErrNotFound)
		}
		next = ApplyPatch(*existing, p)
		return e.commit(ctx, tx, ticketID, existing, &next)
	})
	if err != nil {
		metrics.ContextMerges.WithLabelValues("failed").Inc()
		return nil, err
	}

	metrics.ContextMerges.WithLabelValues("patched").Inc()
	if actorID == "" {
		actorID = "anonymous"
	}
	e.record(ctx, audit.ActorAgent, actorID, audit.ActionContextPatched, ticketID,
		fmt.Sprintf("context summary version %d", next.Version))

	return &UpsertResult{ID: next.ID, Version: next.Version}, nil
}

// GetByTicket returns the ticket's summary, or nil when none exists yet.
func (e *Engine) GetByTicket(ctx context.Context, ticketID string) (*Summary, error) {
	return getByTicket(ctx, e.db, ticketID)
}

// History returns every committed version of the ticket's summary, oldest
// first.
func (e *Engine) History(ctx context.Context, ticketID string) ([]Summary, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT document FROM context_summary_versions WHERE ticket_id = ? ORDER BY version ASC`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("querying summary history: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning summary version: %w", err)
		}
		var s Summary
		if err := json.Unmarshal([]byte(doc), &s); err != nil {
			return nil, fmt.Errorf("decoding summary version: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// commit writes next (whose version is already computed) and its snapshot.
// The update is guarded on the version that was read.
func (e *Engine) commit(ctx context.Context, tx *sql.Tx, ticketID string, existing, next *Summary) error {
	now := e.clock.NowMillis()
	next.TicketID = ticketID
	next.UpdatedAt = now

	facts, signals, unknowns, actions, err := encodeSets(next)
	if err != nil {
		return err
	}
	var sentiment sql.NullString
	if next.Sentiment != nil {
		sentiment = sql.NullString{String: string(*next.Sentiment), Valid: true}
	}

	if existing == nil {
		next.ID = uuid.New().String()
		next.CreatedAt = now
		_, err = tx.ExecContext(ctx,
			`INSERT INTO context_summaries (id, ticket_id, version, title, summary, confirmed_facts, inferred_signals,
			 unknowns, actions_taken, sentiment, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			next.ID, ticketID, next.Version, next.Title, next.Summary, facts, signals, unknowns, actions,
			sentiment, next.CreatedAt, next.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting context summary: %w", err)
		}
	} else {
		res, err := tx.ExecContext(ctx,
			`UPDATE context_summaries SET version = ?, title = ?, summary = ?, confirmed_facts = ?, inferred_signals = ?,
			 unknowns = ?, actions_taken = ?, sentiment = ?, updated_at = ?
			 WHERE ticket_id = ? AND version = ?`,
			next.Version, next.Title, next.Summary, facts, signals, unknowns, actions, sentiment, next.UpdatedAt,
			ticketID, existing.Version,
		)
		if err != nil {
			return fmt.Errorf("updating context summary: %w", err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return fmt.Errorf("context summary for %s changed concurrently", ticketID)
		}
	}

	doc, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encoding summary snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO context_summary_versions (ticket_id, version, document, committed_at) VALUES (?, ?, ?, ?)`,
		ticketID, next.Version, string(doc), now,
	); err != nil {
		return fmt.Errorf("inserting summary snapshot: %w", err)
	}
	return nil
}

func (e *Engine) record(ctx context.Context, actorType audit.ActorType, actorID string, action audit.Action, ticketID, summary string) {
	if e.audit == nil {
		return
	}
	if err := e.audit.Log(ctx, audit.Entry{
		ActorType: actorType,
		ActorID:   actorID,
		Action:    action,
		TicketID:  ticketID,
		Summary:   summary,
	}); err != nil {
		e.log.Warn("audit log failed", "ticket_id", ticketID, "error", err)
	}
}

// queryer is implemented by both *db.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getByTicket(ctx context.Context, q queryer, ticketID string) (*Summary, error) {
	var (
		s                                  Summary
		facts, signals, unknowns, actions string
		sentiment                          sql.NullString
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, ticket_id, version, title, summary, confirmed_facts, inferred_signals, unknowns, actions_taken,
		 sentiment, created_at, updated_at
		 FROM context_summaries WHERE ticket_id = ?`, ticketID,
	).Scan(&s.ID, &s.TicketID, &s.Version, &s.Title, &s.Summary, &facts, &signals, &unknowns, &actions,
		&sentiment, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting context summary: %w", err)
	}

	for _, f := range []struct {
		raw string
		dst *[]string
	}{
		{facts, &s.ConfirmedFacts},
		{signals, &s.InferredSignals},
		{unknowns, &s.Unknowns},
		{actions, &s.ActionsTaken},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return nil, fmt.Errorf("decoding context summary: %w", err)
		}
		if *f.dst == nil {
			*f.dst = []string{}
		}
	}
	if sentiment.Valid {
		v := Sentiment(sentiment.String)
		s.Sentiment = &v
	}
	return &s, nil
}

func encodeSets(s *Summary) (facts, signals, unknowns, actions string, err error) {
	enc := func(v []string) (string, error) {
		if v == nil {
			v = []string{}
		}
		b, err := json.Marshal(v)
		return string(b), err
	}
	if facts, err = enc(s.ConfirmedFacts); err != nil {
		return
	}
	if signals, err = enc(s.InferredSignals); err != nil {
		return
	}
	if unknowns, err = enc(s.Unknowns); err != nil {
		return
	}
	actions, err = enc(s.ActionsTaken)
	if err != nil {
		err = fmt.Errorf("encoding summary sets: %w", err)
	}
	return
}
