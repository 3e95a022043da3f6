package api

import (
	"log/slog"
	"net/http"

	"github.com/dgnsrekt/pagegate/internal/agentport"
	"github.com/dgnsrekt/pagegate/internal/relay"
	"github.com/go-chi/chi/v5"
)

// registerAgentRoutes mounts the surface in-page agents talk to. These are
// plain chi routes rather than huma operations: the sync payload is
// pre-marshaled bytes, the port is a WebSocket upgrade, and the event
// stream is SSE. None of them belong in the OpenAPI document.
func registerAgentRoutes(router chi.Router, svc Service, broker *relay.Broker, port http.Handler) {
	router.Get("/sync/{token}", func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")
		payload, ok := svc.SyncLookup(token)
		if !ok {
			slog.Debug("api sync token unknown", "token_len", len(token))
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if _, err := w.Write(payload); err != nil {
			slog.Debug("api sync response write failed", "error", err)
		}
	})

	router.Get("/port/{name}", func(w http.ResponseWriter, r *http.Request) {
		if name := chi.URLParam(r, "name"); name != agentport.PortName {
			slog.Debug("api unknown agent port rejected", "port", name)
			http.NotFound(w, r)
			return
		}
		port.ServeHTTP(w, r)
	})

	router.Get("/events", relay.SSEHandler(broker))
}
