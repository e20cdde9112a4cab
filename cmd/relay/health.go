package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/syncmeet/realtime/internal/archive"
	"github.com/syncmeet/realtime/internal/meetings"
	"github.com/syncmeet/realtime/internal/router"
	"github.com/syncmeet/realtime/internal/version"
)

type statusSource interface {
	ConnectionStatus() map[string]bool
}

type pinger interface {
	Ping(ctx context.Context) error
}

type healthDeps struct {
	registry statusSource
	router   *router.Router
	watcher  *meetings.Watcher
	archive  *archive.Archive // nil when disabled
	db       pinger           // nil when disabled
}

// newHealthHandler creates the HTTP handler for health checks.
func newHealthHandler(d healthDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		if d.db != nil {
			if err := d.db.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components["archive_db"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["archive_db"] = "connected"
			}
		}

		status := d.registry.ConnectionStatus()
		var down []string
		for endpoint, open := range status {
			if !open {
				down = append(down, endpoint)
			}
		}
		sort.Strings(down)
		health.Components["channels"] = map[string]any{
			"tracked": len(status),
			"down":    down,
		}
		if len(down) > 0 && health.Status == "healthy" {
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"version":     version.Get(),
			"connections": d.registry.ConnectionStatus(),
		}
		if d.router != nil {
			resp["router"] = d.router.Stats()
		}
		if d.watcher != nil {
			resp["watcher"] = d.watcher.Stats()
			resp["meetings"] = d.watcher.Watched()
		}
		if d.archive != nil {
			resp["archive"] = d.archive.Stats()
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	return mux
}
