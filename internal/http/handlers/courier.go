package handlers

import (
	"net/http"
	"strconv"

	"dispatchsvc/internal/domain"
	"dispatchsvc/internal/store"
)

type createCourierRequest struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Capacity int     `json:"capacity"`
	Rating   float64 `json:"rating"`
}

// CreateCourier handles POST /couriers.
func (h *Handlers) CreateCourier(w http.ResponseWriter, r *http.Request) {
	var req createCourierRequest
	if !decodeJSON(h.Logger, w, r, &req) {
		return
	}

	c, err := h.Store.CreateCourier(domain.CourierInput{
		Name:     req.Name,
		Location: domain.Location{Lat: req.Lat, Lng: req.Lng},
		Capacity: req.Capacity,
		Rating:   req.Rating,
	})
	if err != nil {
		writeError(h.Logger, w, r, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(h.Logger, w, r, http.StatusCreated, c)
}

// GetCourier handles GET /couriers/{id}.
func (h *Handlers) GetCourier(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.Logger, w, r, http.StatusBadRequest, "invalid courier id")
		return
	}

	c, err := h.Store.GetCourier(id)
	if err != nil {
		writeError(h.Logger, w, r, http.StatusNotFound, "courier not found")
		return
	}

	writeJSON(h.Logger, w, r, http.StatusOK, c)
}

// ListCouriers handles GET /couriers. limit/offset are optional query
// params, applied to the couriers in creation order.
func (h *Handlers) ListCouriers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var limitPtr, offsetPtr *int

	if s := q.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			writeError(h.Logger, w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		limitPtr = &v
	}
	if s := q.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			writeError(h.Logger, w, r, http.StatusBadRequest, "invalid offset")
			return
		}
		offsetPtr = &v
	}

	writeJSON(h.Logger, w, r, http.StatusOK, h.Store.ListCouriers(limitPtr, offsetPtr))
}

type patchCourierStatusRequest struct {
	Status domain.CourierStatus `json:"status"`
}

// PatchCourierStatus handles PATCH /couriers/{id}/status.
func (h *Handlers) PatchCourierStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.Logger, w, r, http.StatusBadRequest, "invalid courier id")
		return
	}

	var req patchCourierStatusRequest
	if !decodeJSON(h.Logger, w, r, &req) {
		return
	}

	if err := h.Store.PatchCourierStatus(id, req.Status); err != nil {
		if store.IsNotFound(err) {
			writeError(h.Logger, w, r, http.StatusNotFound, "courier not found")
			return
		}
		writeError(h.Logger, w, r, http.StatusBadRequest, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type patchCourierLocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PatchCourierLocation handles PATCH /couriers/{id}/location.
func (h *Handlers) PatchCourierLocation(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.Logger, w, r, http.StatusBadRequest, "invalid courier id")
		return
	}

	var req patchCourierLocationRequest
	if !decodeJSON(h.Logger, w, r, &req) {
		return
	}

	if err := h.Store.PatchCourierLocation(id, domain.Location{Lat: req.Lat, Lng: req.Lng}); err != nil {
		if store.IsNotFound(err) {
			writeError(h.Logger, w, r, http.StatusNotFound, "courier not found")
			return
		}
		writeError(h.Logger, w, r, http.StatusBadRequest, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
