package handlers

import (
	"net/http"

	"github.com/openeduhub/kidra/internal/httpserver/deps"
	"github.com/openeduhub/kidra/internal/logger"
)

type reloadResponse struct {
	Status string `json:"status"`
}

// Reload drops the merged API document and triggers a health sweep.
// When a sweep is already pending nothing is reset.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.SweepTrigger <- struct{}{}:
			d.Schema.Reset()
			d.Logger.Info("manual reload triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, reloadResponse{Status: "reload triggered"})
		default:
			d.Logger.Warn("health sweep already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeDetail(w, http.StatusTooManyRequests, "reload already in progress, please wait")
		}
	}
}
