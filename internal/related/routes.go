package related

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/supportdesk/internal/apperr"
)

// RegisterRoutes mounts the related-ticket search route.
func RegisterRoutes(r chi.Router, ix *Index) {
	r.Get("/api/tickets/related", handleSearch(ix))
}

func handleSearch(ix *Index) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "" {
			apperr.WriteError(w, apperr.Validation("q", "is required"))
			return
		}
		limit := 5
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				apperr.WriteError(w, apperr.Validation("limit", "must be a positive integer"))
				return
			}
			limit = n
		}

		matches, err := ix.Search(r.Context(), q, limit, r.URL.Query().Get("exclude"))
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		if matches == nil {
			matches = []Match{}
		}

		apperr.WriteJSON(w, http.StatusOK, matches)
	}
}
