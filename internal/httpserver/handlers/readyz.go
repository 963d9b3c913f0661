package handlers

import (
	"net/http"

	"github.com/openeduhub/kidra/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool `json:"ready"`
	Up    int  `json:"up"`
	Total int  `json:"total"`
}

// Readyz is ready once a health sweep has seen every registered backend up.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := readyzResponse{
			Up:    d.StatusIndex.UpCount(),
			Total: d.Registry.Len(),
		}
		resp.Ready = !d.StatusIndex.GetLastSweep().IsZero() && resp.Up == resp.Total

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, status, resp)
	}
}
