package triage

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// BulkResult counts the outcome of ReanalyzeAll.
type BulkResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// ProgressFunc is called once per ticket as ReanalyzeAll finishes it.
type ProgressFunc func(ticketID string, err error)

// ReanalyzeAll re-runs analysis for ticketIDs (every ticket with content
// when empty) with at most concurrency runs in flight. A failing ticket does
// not stop the others; only cancellation of ctx does.
func (s *Service) ReanalyzeAll(ctx context.Context, ticketIDs []string, concurrency int, progress ProgressFunc) (*BulkResult, error) {
	if s.analyzer == nil {
		return nil, ErrAnalysisDisabled
	}
	if len(ticketIDs) == 0 {
		ids, err := s.stream.Tickets(ctx)
		if err != nil {
			return nil, err
		}
		ticketIDs = ids
	}
	if concurrency < 1 {
		concurrency = 1
	}

	var ok, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, id := range ticketIDs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := s.Reanalyze(gctx, id)
			if err != nil {
				failed.Add(1)
				s.log.Warn("reanalysis failed", "ticket_id", id, "error", err)
			} else {
				ok.Add(1)
			}
			if progress != nil {
				progress(id, err)
			}
			return nil
		})
	}
	err := g.Wait()

	res := &BulkResult{Succeeded: int(ok.Load()), Failed: int(failed.Load())}
	if err == nil {
		err = ctx.Err()
	}
	return res, err
}
