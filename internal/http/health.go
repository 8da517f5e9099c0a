package http

import (
	"context"
	"net/http"
	"time"
)

// Health répond dès que le processus sert des requêtes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// Ready vérifie les dépendances : Postgres et Redis doivent répondre.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.pool.Ping(ctx); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "base de données injoignable", nil)
		return
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "redis injoignable", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
