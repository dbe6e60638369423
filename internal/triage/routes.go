package triage

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/supportdesk/internal/apperr"
	"github.com/ziadkadry99/supportdesk/internal/timeline"
)

// RegisterRoutes mounts the ingest and analyze routes.
func RegisterRoutes(r chi.Router, s *Service) {
	r.Post("/api/tickets/{ticketID}/ingest", handleIngest(s))
	r.Post("/api/tickets/{ticketID}/analyze", handleAnalyze(s))
}

func handleIngest(s *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in timeline.AppendInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			apperr.WriteError(w, apperr.Validation("", "invalid request body"))
			return
		}
		in.TicketID = chi.URLParam(r, "ticketID")

		res, err := s.Ingest(r.Context(), in)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}

		apperr.WriteJSON(w, http.StatusCreated, res)
	}
}

func handleAnalyze(s *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := s.Reanalyze(r.Context(), chi.URLParam(r, "ticketID"))
		if errors.Is(err, ErrAnalysisDisabled) {
			apperr.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "error": err.Error()})
			return
		}
		if err != nil {
			apperr.WriteError(w, err)
			return
		}

		apperr.WriteJSON(w, http.StatusOK, out)
	}
}
