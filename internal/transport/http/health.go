package http

import (
	"context"
	"net/http"
	"time"
)

const healthPingTimeout = 2 * time.Second

// StorePinger reports whether the backing store answers.
type StorePinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// HandleHealth reports liveness and, when a store is wired, its
// reachability. A nil pinger means the service runs without a store.
func HandleHealth(store StorePinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Store: "not_configured"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Store: "down"})
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Store: "up"})
	}
}
