package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/supportdesk/internal/apperr"
	"github.com/ziadkadry99/supportdesk/internal/audit"
	"github.com/ziadkadry99/supportdesk/internal/clock"
	"github.com/ziadkadry99/supportdesk/internal/db"
)

func setupScheduler(t *testing.T) (*Scheduler, *db.DB) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewScheduler(database, clock.NewFake(1_000), DefaultOptions()), database
}

// setupFileScheduler uses a pooled on-disk database, as the server does.
func setupFileScheduler(t *testing.T) *Scheduler {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewScheduler(database, clock.NewMonotonic(), DefaultOptions())
}

var backends = map[string]func(*testing.T) *Scheduler{
	"memory": func(t *testing.T) *Scheduler { s, _ := setupScheduler(t); return s },
	"file":   setupFileScheduler,
}

func TestEnqueueScenario(t *testing.T) {
	s, _ := setupScheduler(t)
	ctx := context.Background()

	r1, err := s.Enqueue(ctx, "acme", "T1", 5)
	require.NoError(t, err)
	r2, err := s.Enqueue(ctx, "acme", "T2", 8)
	require.NoError(t, err)
	r3, err := s.Enqueue(ctx, "acme", "T3", 5)
	require.NoError(t, err)

	// Positions reported at insertion time.
	assert.Equal(t, 1, r1.Position)
	assert.Equal(t, 1, r2.Position)
	assert.Equal(t, 3, r3.Position)
	assert.NotEmpty(t, r1.QueueID)

	want := map[string]int{"T2": 1, "T1": 2, "T3": 3}
	for ticket, pos := range want {
		got, err := s.GetPosition(ctx, ticket)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, pos, got.Position, "ticket %s", ticket)
	}
}

func TestEstimatedWaitFrozenAtEnqueue(t *testing.T) {
	s, _ := setupScheduler(t)
	ctx := context.Background()

	_, err := s.Enqueue(ctx, "acme", "low", 1)
	require.NoError(t, err)
	_, err = s.Enqueue(ctx, "acme", "mid", 3)
	require.NoError(t, err)
	_, err = s.Enqueue(ctx, "acme", "late", 1)
	require.NoError(t, err)

	// "late" saw two entries at or above priority 1.
	late, err := s.GetPosition(ctx, "late")
	require.NoError(t, err)
	assert.Equal(t, 10, late.EstimatedWaitMinutes)

	// "low" was queued first with nobody ahead; its estimate stays 0 even
	// though "mid" now outranks it.
	low, err := s.GetPosition(ctx, "low")
	require.NoError(t, err)
	assert.Equal(t, 2, low.Position)
	assert.Equal(t, 0, low.EstimatedWaitMinutes)
}

func TestEnqueueDuplicate(t *testing.T) {
	s, _ := setupScheduler(t)
	ctx := context.Background()

	_, err := s.Enqueue(ctx, "acme", "T1", 5)
	require.NoError(t, err)

	_, err = s.Enqueue(ctx, "acme", "T1", 7)
	assert.ErrorIs(t, err, apperr.ErrDuplicateEntry)

	// Also rejected in another vendor's queue.
	_, err = s.Enqueue(ctx, "globex", "T1", 7)
	assert.ErrorIs(t, err, apperr.ErrDuplicateEntry)

	list, err := s.ListByVendor(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 5, list[0].Priority)
}

func TestEnqueueValidation(t *testing.T) {
	s, _ := setupScheduler(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		vendor   string
		ticket   string
		priority int
	}{
		{"missing vendor", "", "T1", 1},
		{"missing ticket", "acme", "", 1},
		{"priority too high", "acme", "T1", 11},
		{"priority negative", "acme", "T1", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Enqueue(ctx, tt.vendor, tt.ticket, tt.priority)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	list, err := s.ListByVendor(ctx, "acme")
	require.NoError(t, err)
	assert.Empty(t, list, "validation failures must not write")
}

func TestDequeueIdempotent(t *testing.T) {
	s, _ := setupScheduler(t)
	ctx := context.Background()

	_, err := s.Enqueue(ctx, "acme", "T1", 5)
	require.NoError(t, err)

	removed, err := s.Dequeue(ctx, "T1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Dequeue(ctx, "T1")
	require.NoError(t, err)
	assert.False(t, removed)

	pos, err := s.GetPosition(ctx, "T1")
	require.NoError(t, err)
	assert.Nil(t, pos)

	// The ticket can be queued again once it has left.
	_, err = s.Enqueue(ctx, "acme", "T1", 5)
	assert.NoError(t, err)
}

func TestGetPositionUnknownTicket(t *testing.T) {
	s, _ := setupScheduler(t)

	pos, err := s.GetPosition(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, pos)
}

func TestVendorsAreIndependent(t *testing.T) {
	s, _ := setupScheduler(t)
	ctx := context.Background()

	_, _ = s.Enqueue(ctx, "acme", "A1", 9)
	r, err := s.Enqueue(ctx, "globex", "G1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Position)

	pos, err := s.GetPosition(ctx, "G1")
	require.NoError(t, err)
	assert.Equal(t, 1, pos.Position)
}

// positionFormula is the reference definition of a live position.
func positionFormula(all []Entry, target Entry) int {
	n := 1
	for _, e := range all {
		if e.TicketID == target.TicketID {
			continue
		}
		if e.Priority > target.Priority || (e.Priority == target.Priority && e.EnteredAt < target.EnteredAt) {
			n++
		}
	}
	return n
}

func TestPositionMatchesFormula(t *testing.T) {
	s, _ := setupScheduler(t)
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(7, 11))

	var live []string
	for i := 0; i < 60; i++ {
		if len(live) > 0 && rng.IntN(4) == 0 {
			idx := rng.IntN(len(live))
			_, err := s.Dequeue(ctx, live[idx])
			require.NoError(t, err)
			live = append(live[:idx], live[idx+1:]...)
		} else {
			ticket := "t" + string(rune('A'+i%26)) + string(rune('a'+i/26))
			_, err := s.Enqueue(ctx, "acme", ticket, rng.IntN(4))
			require.NoError(t, err)
			live = append(live, ticket)
		}

		entries, err := s.ListByVendor(ctx, "acme")
		require.NoError(t, err)
		require.Len(t, entries, len(live))
		for i, e := range entries {
			pos, err := s.GetPosition(ctx, e.TicketID)
			require.NoError(t, err)
			require.NotNil(t, pos)
			assert.Equal(t, positionFormula(entries, e), pos.Position)
			assert.Equal(t, i+1, e.Position, "list order must agree with live position")
		}
	}
}

func TestConcurrentEnqueueAssignsDistinctPositions(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()
			const n = 30

			positions := make([]int, n)
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					res, err := s.Enqueue(ctx, "acme", fmt.Sprintf("ticket-%02d", i), 3)
					if err != nil {
						t.Errorf("Enqueue: %v", err)
						return
					}
					positions[i] = res.Position
				}(i)
			}
			wg.Wait()

			seen := make(map[int]bool)
			for _, p := range positions {
				assert.False(t, seen[p], "position %d assigned twice", p)
				seen[p] = true
			}
			assert.Len(t, seen, n)

			entries, err := s.ListByVendor(ctx, "acme")
			require.NoError(t, err)
			assert.Len(t, entries, n)
		})
	}
}

func TestConcurrentDuplicateEnqueue(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				ok, dupes int
			)
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := s.Enqueue(ctx, "acme", "same", 2)
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						ok++
					case errors.Is(err, apperr.ErrDuplicateEntry):
						dupes++
					default:
						t.Errorf("unexpected error: %v", err)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 1, ok)
			assert.Equal(t, 9, dupes)
		})
	}
}

func TestStats(t *testing.T) {
	s, _ := setupScheduler(t)
	ctx := context.Background()

	empty, err := s.Stats(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Depth)

	_, _ = s.Enqueue(ctx, "acme", "T1", 2)
	_, _ = s.Enqueue(ctx, "acme", "T2", 7)

	st, err := s.Stats(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 2, st.Depth)
	assert.Equal(t, 7, st.TopPriority)
	assert.Equal(t, int64(1_000), st.OldestEnteredAt)
}

func TestAuditRecorded(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	auditStore := audit.NewStore(database)
	s := NewScheduler(database, clock.NewFake(1), DefaultOptions(), WithAudit(auditStore))
	ctx := context.Background()

	_, err = s.Enqueue(ctx, "acme", "T1", 1)
	require.NoError(t, err)
	_, err = s.Dequeue(ctx, "T1")
	require.NoError(t, err)
	_, err = s.Dequeue(ctx, "T1")
	require.NoError(t, err)

	entries, err := auditStore.Query(ctx, audit.QueryFilter{TicketID: "T1"})
	require.NoError(t, err)
	assert.Len(t, entries, 2, "a no-op dequeue is not audited")
}

// HTTP handler tests

func TestRoute_EnqueueAndPosition(t *testing.T) {
	s, _ := setupScheduler(t)
	r := chi.NewRouter()
	RegisterRoutes(r, s)

	body := `{"vendor_id":"acme","ticket_id":"T1","priority":4}`
	req := httptest.NewRequest(http.MethodPost, "/api/queue/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var res EnqueueResult
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.Position != 1 {
		t.Errorf("expected position 1, got %d", res.Position)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/queue/T1/position", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Duplicate maps to 409.
	req = httptest.NewRequest(http.MethodPost, "/api/queue/", strings.NewReader(body))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestRoute_EnqueueInvalid(t *testing.T) {
	s, _ := setupScheduler(t)
	r := chi.NewRouter()
	RegisterRoutes(r, s)

	req := httptest.NewRequest(http.MethodPost, "/api/queue/", strings.NewReader(`{"vendor_id":"acme","priority":2}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"success":false`) {
		t.Errorf("expected success:false, got %s", w.Body.String())
	}
}

func TestRoute_EnqueuePriorityRequired(t *testing.T) {
	s, _ := setupScheduler(t)
	r := chi.NewRouter()
	RegisterRoutes(r, s)

	req := httptest.NewRequest(http.MethodPost, "/api/queue/", strings.NewReader(`{"vendor_id":"acme","ticket_id":"T1"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing priority: expected 400, got %d", w.Code)
	}
	pos, err := s.GetPosition(context.Background(), "T1")
	require.NoError(t, err)
	assert.Nil(t, pos)

	// An explicit zero is the lowest valid priority, not a missing one.
	req = httptest.NewRequest(http.MethodPost, "/api/queue/", strings.NewReader(`{"vendor_id":"acme","ticket_id":"T1","priority":0}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("priority 0: expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRoute_DequeueAndList(t *testing.T) {
	s, _ := setupScheduler(t)
	ctx := context.Background()
	s.Enqueue(ctx, "acme", "T1", 1)
	s.Enqueue(ctx, "acme", "T2", 9)

	r := chi.NewRouter()
	RegisterRoutes(r, s)

	req := httptest.NewRequest(http.MethodGet, "/api/queue/vendor/acme", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var entries []Entry
	json.Unmarshal(w.Body.Bytes(), &entries)
	if len(entries) != 2 || entries[0].TicketID != "T2" {
		t.Fatalf("unexpected list: %s", w.Body.String())
	}

	for i := 0; i < 2; i++ {
		req = httptest.NewRequest(http.MethodDelete, "/api/queue/T1", nil)
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("dequeue #%d: expected 200, got %d", i+1, w.Code)
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/api/queue/T1/position", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestRoute_PositionStream(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	opts := DefaultOptions()
	opts.PollInterval = 10 * time.Millisecond
	s := NewScheduler(database, clock.NewFake(1), opts)
	ctx := context.Background()

	_, err = s.Enqueue(ctx, "acme", "T1", 3)
	require.NoError(t, err)

	r := chi.NewRouter()
	RegisterRoutes(r, s)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/queue/T1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg positionMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "position", msg.Type)
	require.NotNil(t, msg.Position)
	assert.Equal(t, 1, msg.Position.Position)

	_, err = s.Dequeue(ctx, "T1")
	require.NoError(t, err)

	for msg.Type == "position" {
		msg = positionMessage{}
		require.NoError(t, conn.ReadJSON(&msg))
	}
	assert.Equal(t, "dequeued", msg.Type)
}
