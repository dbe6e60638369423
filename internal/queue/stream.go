package queue

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// positionMessage is pushed to waiting clients.
type positionMessage struct {
	Type     string    `json:"type"` // "position", "dequeued" or "error"
	Position *Position `json:"position,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// handlePositionStream upgrades to a websocket and pushes the ticket's live
// position every poll interval, replacing client-side polling. The stream
// ends once the ticket leaves the queue or the client goes away.
func handlePositionStream(s *Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticketID := chi.URLParam(r, "ticketID")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn("queue: websocket upgrade", "error", err)
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Reads only detect the client closing.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		interval := s.opts.PollInterval
		if interval <= 0 {
			interval = DefaultOptions().PollInterval
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			pos, err := s.GetPosition(ctx, ticketID)
			switch {
			case err != nil:
				s.send(conn, positionMessage{Type: "error", Error: err.Error()})
				return
			case pos == nil:
				s.send(conn, positionMessage{Type: "dequeued"})
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "dequeued"))
				return
			default:
				if !s.send(conn, positionMessage{Type: "position", Position: pos}) {
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}
}

func (s *Scheduler) send(conn *websocket.Conn, msg positionMessage) bool {
	if err := conn.WriteJSON(msg); err != nil {
		s.log.Debug("queue: websocket write", "error", err)
		return false
	}
	return true
}
