package queue

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/supportdesk/internal/apperr"
)

// RegisterRoutes mounts the priority queue API routes.
func RegisterRoutes(r chi.Router, s *Scheduler) {
	r.Route("/api/queue", func(r chi.Router) {
		r.Post("/", handleEnqueue(s))
		r.Get("/vendor/{vendorID}", handleListByVendor(s))
		r.Get("/vendor/{vendorID}/stats", handleStats(s))
		r.Get("/{ticketID}/position", handleGetPosition(s))
		r.Get("/{ticketID}/ws", handlePositionStream(s))
		r.Delete("/{ticketID}", handleDequeue(s))
	})
}

func handleEnqueue(s *Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req enqueueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperr.WriteError(w, apperr.Validation("", "invalid request body"))
			return
		}
		if err := apperr.Struct(req); err != nil {
			apperr.WriteError(w, err)
			return
		}

		res, err := s.Enqueue(r.Context(), req.VendorID, req.TicketID, *req.Priority)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}

		apperr.WriteJSON(w, http.StatusCreated, res)
	}
}

func handleDequeue(s *Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := s.Dequeue(r.Context(), chi.URLParam(r, "ticketID"))
		if err != nil {
			apperr.WriteError(w, err)
			return
		}

		apperr.WriteJSON(w, http.StatusOK, map[string]bool{"success": true, "removed": removed})
	}
}

func handleGetPosition(s *Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pos, err := s.GetPosition(r.Context(), chi.URLParam(r, "ticketID"))
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		if pos == nil {
			apperr.WriteError(w, apperr.ErrNotFound)
			return
		}

		apperr.WriteJSON(w, http.StatusOK, pos)
	}
}

func handleListByVendor(s *Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := s.ListByVendor(r.Context(), chi.URLParam(r, "vendorID"))
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

func handleStats(s *Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := s.Stats(r.Context(), chi.URLParam(r, "vendorID"))
		if err != nil {
			apperr.WriteError(w, err)
			return
		}

		apperr.WriteJSON(w, http.StatusOK, st)
	}
}
