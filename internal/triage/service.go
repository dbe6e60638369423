// Package triage wires the content stream, the analyzer and the merge
// engine together: new content is appended, every trigger re-runs analysis
// outside the append transaction, and the result is folded into the ticket's
// context summary.
package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ziadkadry99/supportdesk/internal/analysis"
	"github.com/ziadkadry99/supportdesk/internal/apperr"
	"github.com/ziadkadry99/supportdesk/internal/audit"
	"github.com/ziadkadry99/supportdesk/internal/contextmerge"
	"github.com/ziadkadry99/supportdesk/internal/logging"
	"github.com/ziadkadry99/supportdesk/internal/metrics"
	"github.com/ziadkadry99/supportdesk/internal/notify"
	"github.com/ziadkadry99/supportdesk/internal/related"
	"github.com/ziadkadry99/supportdesk/internal/timeline"
)

// ErrAnalysisDisabled is returned by Reanalyze when no analyzer is configured.
var ErrAnalysisDisabled = errors.New("analysis is disabled")

// Service orchestrates ingest and analysis for tickets.
type Service struct {
	stream   *timeline.Stream
	engine   *contextmerge.Engine
	analyzer analysis.Analyzer
	index    *related.Index
	notifier *notify.Dispatcher
	audit    *audit.Store
	log      *slog.Logger
	timeout  time.Duration

	mu      sync.Mutex
	runs    map[string]*run
	pending sync.WaitGroup
}

// run is the in-flight analysis of one ticket. A trigger that arrives while
// a pass is running sets rerun, so one more pass sees the fresh transcript.
type run struct {
	rerun bool
	done  chan struct{}
	out   *Outcome
	err   error
}

// Option configures a Service.
type Option func(*Service)

// WithAnalyzer enables analysis. Without it, triggers are reported but
// nothing runs.
func WithAnalyzer(a analysis.Analyzer) Option {
	return func(s *Service) { s.analyzer = a }
}

// WithTimeout bounds each analyzer call.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithIndex keeps the related-ticket index up to date.
func WithIndex(ix *related.Index) Option {
	return func(s *Service) { s.index = ix }
}

// WithNotifier posts committed summaries and failures to webhooks.
func WithNotifier(d *notify.Dispatcher) Option {
	return func(s *Service) { s.notifier = d }
}

// WithAudit records analysis failures in the audit trail.
func WithAudit(store *audit.Store) Option {
	return func(s *Service) { s.audit = store }
}

// WithLogger sets the service's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a triage service.
func NewService(stream *timeline.Stream, engine *contextmerge.Engine, options ...Option) *Service {
	s := &Service{stream: stream, engine: engine, runs: make(map[string]*run)}
	for _, o := range options {
		o(s)
	}
	s.log = logging.OrDiscard(s.log)
	return s
}

// AnalysisEnabled reports whether an analyzer is configured.
func (s *Service) AnalysisEnabled() bool { return s.analyzer != nil }

// IngestResult is the append outcome plus whether analysis was started.
type IngestResult struct {
	timeline.AppendResult
	AnalysisScheduled bool `json:"analysis_scheduled"`
}

// Ingest appends content and, when the append lands on a trigger, starts a
// background analysis that outlives the request.
func (s *Service) Ingest(ctx context.Context, in timeline.AppendInput) (*IngestResult, error) {
	res, err := s.stream.Append(ctx, in)
	if err != nil {
		return nil, err
	}

	out := &IngestResult{AppendResult: *res}
	if !res.ShouldAnalyze {
		return out, nil
	}
	if s.analyzer == nil {
		metrics.AnalysisRuns.WithLabelValues("skipped").Inc()
		return out, nil
	}

	out.AnalysisScheduled = true
	s.start(ctx, in.TicketID)
	return out, nil
}

// Wait blocks until every in-flight analysis run finishes.
func (s *Service) Wait() { s.pending.Wait() }

// Outcome is the result of one analysis pass.
type Outcome struct {
	TicketID  string   `json:"ticket_id"`
	Version   int      `json:"version"`
	FollowUps []string `json:"follow_ups"`
	Tasks     []string `json:"tasks"`
}

// Reanalyze renders the ticket's transcript, asks the analyzer for a
// candidate and folds it into the summary. Passes for one ticket never
// overlap: a call that arrives mid-pass queues exactly one more pass and
// returns its outcome. The work is detached from ctx; cancelling ctx only
// stops the wait.
func (s *Service) Reanalyze(ctx context.Context, ticketID string) (*Outcome, error) {
	if s.analyzer == nil {
		return nil, ErrAnalysisDisabled
	}
	if ticketID == "" {
		return nil, apperr.Validation("ticket_id", "is required")
	}

	r := s.start(ctx, ticketID)
	select {
	case <-r.done:
		return r.out, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// start joins the ticket's in-flight run, or begins one.
func (s *Service) start(ctx context.Context, ticketID string) *run {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.runs[ticketID]; ok {
		r.rerun = true
		return r
	}
	r := &run{done: make(chan struct{})}
	s.runs[ticketID] = r
	s.pending.Add(1)
	go s.drive(context.WithoutCancel(ctx), ticketID, r)
	return r
}

// drive runs passes until no new trigger arrived during the last one.
func (s *Service) drive(ctx context.Context, ticketID string, r *run) {
	defer s.pending.Done()
	for {
		out, err := s.reanalyze(ctx, ticketID)
		if err != nil {
			s.log.Warn("analysis pass failed", "ticket_id", ticketID, "error", err)
		}

		s.mu.Lock()
		if !r.rerun {
			r.out, r.err = out, err
			delete(s.runs, ticketID)
			s.mu.Unlock()
			close(r.done)
			return
		}
		r.rerun = false
		s.mu.Unlock()
	}
}

func (s *Service) reanalyze(ctx context.Context, ticketID string) (*Outcome, error) {
	transcript, err := s.stream.RenderUnified(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if transcript == "" {
		return nil, fmt.Errorf("transcript for %s: %w", ticketID, apperr.ErrNotFound)
	}
	current, err := s.engine.GetByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	actx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	res, err := s.analyzer.Analyze(actx, analysis.Request{
		TicketID:   ticketID,
		Transcript: transcript,
		Current:    current,
	})
	if err != nil {
		metrics.AnalysisRuns.WithLabelValues("error").Inc()
		s.failed(ctx, ticketID, err)
		return nil, fmt.Errorf("analyzing %s: %w", ticketID, err)
	}
	metrics.AnalysisRuns.WithLabelValues("ok").Inc()

	up, err := s.engine.Upsert(ctx, ticketID, res.Candidate)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, ticketID, res)

	return &Outcome{
		TicketID:  ticketID,
		Version:   up.Version,
		FollowUps: res.FollowUps,
		Tasks:     res.Tasks,
	}, nil
}

// publish pushes the committed summary to the index and the webhooks.
// Failures are logged only; the merge has already committed.
func (s *Service) publish(ctx context.Context, ticketID string, res *analysis.Result) {
	if s.index == nil && !s.notifier.Enabled() {
		return
	}
	summary, err := s.engine.GetByTicket(ctx, ticketID)
	if err != nil || summary == nil {
		s.log.Warn("reloading summary failed", "ticket_id", ticketID, "error", err)
		return
	}

	if s.index != nil {
		if err := s.index.Add(ctx, summary); err != nil {
			s.log.Warn("indexing summary failed", "ticket_id", ticketID, "error", err)
		}
	}

	ev := notify.Event{
		Type:      notify.EventContextUpdated,
		TicketID:  ticketID,
		Version:   summary.Version,
		Title:     summary.Title,
		FollowUps: res.FollowUps,
		Tasks:     res.Tasks,
	}
	if summary.Sentiment != nil {
		ev.Sentiment = string(*summary.Sentiment)
	}
	s.notifier.Dispatch(ctx, ev)
}

func (s *Service) failed(ctx context.Context, ticketID string, cause error) {
	if s.audit != nil {
		if err := s.audit.Log(ctx, audit.Entry{
			ActorType: audit.ActorSystem,
			ActorID:   "analysis",
			Action:    audit.ActionAnalysisFailed,
			TicketID:  ticketID,
			Summary:   "analysis failed",
			Detail:    cause.Error(),
		}); err != nil {
			s.log.Warn("audit log failed", "ticket_id", ticketID, "error", err)
		}
	}
	s.notifier.Dispatch(ctx, notify.Event{
		Type:     notify.EventAnalysisFailed,
		TicketID: ticketID,
		Error:    cause.Error(),
	})
}
