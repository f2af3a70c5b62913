package handlers

import (
	"context"
	"net/http"
	"time"

	"dispatchsvc/internal/domain"
)

type createOrderRequest struct {
	PickupLat  float64         `json:"pickup_lat"`
	PickupLng  float64         `json:"pickup_lng"`
	DropoffLat float64         `json:"dropoff_lat"`
	DropoffLng float64         `json:"dropoff_lng"`
	Priority   domain.Priority `json:"priority"`
}

// enqueueTimeout bounds how long CreateOrder waits for queue room before
// reporting 503 to the caller; the order itself is already in the
// in-memory store by then and stays there as Pending.
const enqueueTimeout = 2 * time.Second

// CreateOrder handles POST /orders: it creates the order in the store and
// enqueues it for the engine in one request. If the queue is full for
// longer than enqueueTimeout, the order remains Pending in the store (a
// client may look it up later) and the response reports 503.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeJSON(h.Logger, w, r, &req) {
		return
	}

	o, err := h.Store.CreateOrder(domain.OrderInput{
		Pickup:   domain.Location{Lat: req.PickupLat, Lng: req.PickupLng},
		Dropoff:  domain.Location{Lat: req.DropoffLat, Lng: req.DropoffLng},
		Priority: req.Priority,
	}, time.Now())
	if err != nil {
		writeError(h.Logger, w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), enqueueTimeout)
	defer cancel()
	if err := h.Queue.Enqueue(ctx, o.ID); err != nil {
		writeError(h.Logger, w, r, http.StatusServiceUnavailable, "order queue is full")
		return
	}

	writeJSON(h.Logger, w, r, http.StatusCreated, o)
}

// GetOrder handles GET /orders/{id}.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.Logger, w, r, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.Store.GetOrder(id)
	if err != nil {
		writeError(h.Logger, w, r, http.StatusNotFound, "order not found")
		return
	}

	writeJSON(h.Logger, w, r, http.StatusOK, o)
}

// ListOrders handles GET /orders.
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.Logger, w, r, http.StatusOK, h.Store.ListOrders())
}

// ListAssignments handles GET /assignments.
func (h *Handlers) ListAssignments(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.Logger, w, r, http.StatusOK, h.Store.ListAssignments())
}
