// Package handlers implements the REST ingress adapter: courier and order
// CRUD plus assignment history, on top of the in-memory store and queue.
package handlers

import (
	"net/http"

	"dispatchsvc/internal/eventbus"
	"dispatchsvc/internal/logx"
	"dispatchsvc/internal/queue"
	"dispatchsvc/internal/store"
)

// Handlers holds the REST adapter's dependencies.
type Handlers struct {
	Store  *store.Store
	Queue  *queue.OrderQueue
	Bus    *eventbus.Bus
	Logger logx.Logger
}

// New creates a Handlers instance.
func New(st *store.Store, q *queue.OrderQueue, bus *eventbus.Bus, logger logx.Logger) *Handlers {
	return &Handlers{Store: st, Queue: q, Bus: bus, Logger: logger}
}

// Ping handles GET /ping and returns 200 with {"message":"pong"}.
func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.Logger, w, r, http.StatusOK, map[string]string{"message": "pong"})
}

// HealthcheckHead handles HEAD /healthcheck and returns 204 No Content.
func (h *Handlers) HealthcheckHead(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// NotFound returns a JSON 404 error for unknown routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(h.Logger, w, r, http.StatusNotFound, "route not found")
}
