package timeline

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/supportdesk/internal/apperr"
)

// RegisterRoutes mounts the content stream API routes.
func RegisterRoutes(r chi.Router, s *Stream) {
	r.Post("/api/tickets/{ticketID}/content", handleAppend(s))
	r.Get("/api/tickets/{ticketID}/content", handleList(s))
	r.Get("/api/tickets/{ticketID}/content/unified", handleUnified(s))
	r.Get("/api/tickets/{ticketID}/content/grouped", handleGrouped(s))
}

func handleAppend(s *Stream) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in AppendInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			apperr.WriteError(w, apperr.Validation("", "invalid request body"))
			return
		}
		in.TicketID = chi.URLParam(r, "ticketID")

		res, err := s.Append(r.Context(), in)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}

		apperr.WriteJSON(w, http.StatusCreated, res)
	}
}

func handleList(s *Stream) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := s.ListByTicket(r.Context(), chi.URLParam(r, "ticketID"))
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		if entries == nil {
			entries = []Entry{}
		}

		apperr.WriteJSON(w, http.StatusOK, entries)
	}
}

func handleUnified(s *Stream) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		text, err := s.RenderUnified(r.Context(), chi.URLParam(r, "ticketID"))
		if err != nil {
			apperr.WriteError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(text))
	}
}

func handleGrouped(s *Stream) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := s.GroupBySource(r.Context(), chi.URLParam(r, "ticketID"))
		if err != nil {
			apperr.WriteError(w, err)
			return
		}

		apperr.WriteJSON(w, http.StatusOK, g)
	}
}
