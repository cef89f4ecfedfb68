package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/johndosdos/livechat/internal/chat"
)

// Healthz reports process liveness.
func Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok")) //nolint:errcheck
	}
}

// Stats serves a diagnostics snapshot. The query goes through the
// hub's serialization point so it never observes a torn update.
func Stats(h *chat.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		stats, err := h.Stats(ctx)
		if err != nil {
			log.Printf("stats query failed: %v", err)
			http.Error(w, "stats unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats); err != nil {
			log.Printf("failed to encode stats: %v", err)
		}
	}
}
