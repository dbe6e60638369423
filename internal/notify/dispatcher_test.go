package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestDispatchDeliversToEveryWebhook(t *testing.T) {
	var (
		mu  sync.Mutex
		got []Event
	)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var ev Event
		json.NewDecoder(r.Body).Decode(&ev)
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	a := httptest.NewServer(handler)
	defer a.Close()
	b := httptest.NewServer(handler)
	defer b.Close()

	d := NewDispatcher([]string{a.URL, b.URL}, nil)
	err := d.Dispatch(context.Background(), Event{Type: EventContextUpdated, TicketID: "T1", Version: 3})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
	for _, ev := range got {
		if ev.TicketID != "T1" || ev.Version != 3 || ev.Type != EventContextUpdated {
			t.Errorf("unexpected event %+v", ev)
		}
		if ev.Timestamp.IsZero() {
			t.Error("expected timestamp to be filled")
		}
	}
}

func TestDispatchReportsFailures(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ok.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	d := NewDispatcher([]string{ok.URL, bad.URL}, nil)
	err := d.Dispatch(context.Background(), Event{Type: EventAnalysisFailed, TicketID: "T1"})
	if err == nil {
		t.Fatal("expected error from failing webhook")
	}
}

func TestDispatchWithoutWebhooks(t *testing.T) {
	d := NewDispatcher(nil, nil)
	if d.Enabled() {
		t.Error("expected dispatcher without URLs to be disabled")
	}
	if err := d.Dispatch(context.Background(), Event{TicketID: "T1"}); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}

	var nilDispatcher *Dispatcher
	if err := nilDispatcher.Dispatch(context.Background(), Event{}); err != nil {
		t.Errorf("expected nil dispatcher to be a no-op, got %v", err)
	}
}
