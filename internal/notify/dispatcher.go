// Package notify fans ticket events out to configured webhooks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/supportdesk/internal/logging"
	"github.com/ziadkadry99/supportdesk/internal/metrics"
)

// EventType names what happened to a ticket.
type EventType string

const (
	EventContextUpdated EventType = "context.updated"
	EventAnalysisFailed EventType = "analysis.failed"
)

// Event is the JSON body posted to every webhook.
type Event struct {
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Version   int       `json:"version,omitempty"`
	Title     string    `json:"title,omitempty"`
	Sentiment string    `json:"sentiment,omitempty"`
	FollowUps []string  `json:"follow_ups,omitempty"`
	Tasks     []string  `json:"tasks,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Dispatcher delivers events to a fixed set of webhook URLs.
type Dispatcher struct {
	urls   []string
	client *http.Client
	log    *slog.Logger
}

// NewDispatcher creates a Dispatcher for the given webhook URLs.
func NewDispatcher(urls []string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		urls: urls,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: logging.OrDiscard(logger),
	}
}

// Enabled reports whether any webhook is configured.
func (d *Dispatcher) Enabled() bool { return d != nil && len(d.urls) > 0 }

// Dispatch posts ev to every webhook in parallel. Failures are logged and
// counted; the joined error is returned for callers that care.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	if !d.Enabled() {
		return nil
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	errs := make([]error, len(d.urls))
	var g errgroup.Group
	for i, url := range d.urls {
		g.Go(func() error {
			if err := d.SendWebhook(ctx, url, payload); err != nil {
				metrics.WebhookFailures.Inc()
				d.log.Warn("webhook delivery failed", "url", url, "ticket_id", ev.TicketID, "type", ev.Type, "error", err)
				errs[i] = err
			}
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}

// SendWebhook POSTs payload to the given URL.
func (d *Dispatcher) SendWebhook(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
