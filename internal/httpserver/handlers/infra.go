package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/openeduhub/kidra/internal/httpserver/deps"
	"github.com/openeduhub/kidra/internal/index"
	redisstore "github.com/openeduhub/kidra/internal/store/redis"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type backendsStatus struct {
	Registered int                   `json:"registered"`
	Up         int                   `json:"up"`
	LastSweep  string                `json:"last_sweep"`
	Services   []index.BackendStatus `json:"services"`
}

type infraResponse struct {
	Status      string                      `json:"status"`
	RoutingMode string                      `json:"routing_mode"`
	SchemaState string                      `json:"schema_state"`
	Backends    backendsStatus              `json:"backends"`
	Components  map[string]componentStatus  `json:"components"`
	Usage       map[string]redisstore.Usage `json:"usage,omitempty"`
}

// Infra reports backend health, schema cache state and usage statistics.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lastSweep := d.StatusIndex.GetLastSweep()
		lastSweepStr := "never"
		if !lastSweep.IsZero() {
			lastSweepStr = lastSweep.Format("2006-01-02 15:04:05")
		}

		backends := backendsStatus{
			Registered: d.Registry.Len(),
			Up:         d.StatusIndex.UpCount(),
			LastSweep:  lastSweepStr,
			Services:   d.StatusIndex.All(),
		}

		redisStatus, usage := checkUsage(r.Context(), d)

		resp := infraResponse{
			RoutingMode: d.RoutingMode,
			SchemaState: d.Schema.State().String(),
			Backends:    backends,
			Components:  map[string]componentStatus{"redis": redisStatus},
			Usage:       usage,
		}
		resp.Status = determineStatus(backends, lastSweep.IsZero())

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, resp)
	}
}

func determineStatus(b backendsStatus, neverSwept bool) string {
	switch {
	case b.Registered == 0:
		return "critical"
	case neverSwept:
		return "unknown"
	case b.Up < b.Registered:
		return "degraded"
	default:
		return "ok"
	}
}

func checkUsage(ctx context.Context, d deps.Deps) (componentStatus, map[string]redisstore.Usage) {
	if d.UsageStore == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "usage-stats-disabled",
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.UsageStore.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "usage-stats-unavailable",
			Error:  err.Error(),
		}, nil
	}

	usage, err := d.UsageStore.UsageStats(ctx, d.Registry.Names())
	if err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "usage-stats-unavailable",
			Error:  err.Error(),
		}, nil
	}

	return componentStatus{OK: true, Mode: "optimal"}, usage
}
