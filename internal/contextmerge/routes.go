package contextmerge

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/supportdesk/internal/apperr"
)

// RegisterRoutes mounts the context summary API routes.
func RegisterRoutes(r chi.Router, engine *Engine) {
	r.Get("/api/tickets/{ticketID}/context", handleGet(engine))
	r.Put("/api/tickets/{ticketID}/context", handleUpsert(engine))
	r.Patch("/api/tickets/{ticketID}/context", handlePatch(engine))
	r.Get("/api/tickets/{ticketID}/context/history", handleHistory(engine))
	r.Get("/api/tickets/{ticketID}/context/html", handleHTML(engine))
}

func handleGet(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := engine.GetByTicket(r.Context(), chi.URLParam(r, "ticketID"))
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		if s == nil {
			apperr.WriteError(w, apperr.ErrNotFound)
			return
		}

		apperr.WriteJSON(w, http.StatusOK, s)
	}
}

func handleUpsert(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c Candidate
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			apperr.WriteError(w, apperr.Validation("", "invalid request body"))
			return
		}

		res, err := engine.Upsert(r.Context(), chi.URLParam(r, "ticketID"), c)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}

		apperr.WriteJSON(w, http.StatusOK, res)
	}
}

type patchRequest struct {
	Patch
	ActorID string `json:"actor_id"`
}

func handlePatch(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req patchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperr.WriteError(w, apperr.Validation("", "invalid request body"))
			return
		}

		res, err := engine.Patch(r.Context(), chi.URLParam(r, "ticketID"), req.ActorID, req.Patch)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}

		apperr.WriteJSON(w, http.StatusOK, res)
	}
}

func handleHistory(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		versions, err := engine.History(r.Context(), chi.URLParam(r, "ticketID"))
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		if versions == nil {
			versions = []Summary{}
		}

		apperr.WriteJSON(w, http.StatusOK, versions)
	}
}

func handleHTML(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := engine.GetByTicket(r.Context(), chi.URLParam(r, "ticketID"))
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		if s == nil {
			apperr.WriteError(w, apperr.ErrNotFound)
			return
		}

		html, err := RenderHTML(s)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
	}
}
