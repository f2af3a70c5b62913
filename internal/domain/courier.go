package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Courier is a delivery courier known to the system.
//
// current_load is mutated only by the store's commit critical section;
// status and location may be patched by ingress adapters via the store's
// per-entry setters. The other fields do not change after creation.
type Courier struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Location    Location      `json:"location"`
	Capacity    int           `json:"capacity"`
	CurrentLoad int           `json:"current_load"`
	Rating      float64       `json:"rating"`
	Status      CourierStatus `json:"status"`
}

// CourierInput carries the fields required to create a Courier.
type CourierInput struct {
	Name     string
	Location Location
	Capacity int
	Rating   float64
}

// NewCourier validates input and builds a Courier with current_load=0 and
// status=Available. The id is left zero; callers (the store) assign it.
func NewCourier(in CourierInput) (Courier, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Courier{}, fmt.Errorf("%w: courier name is required", ErrInvalid)
	}
	if in.Capacity < 1 {
		return Courier{}, fmt.Errorf("%w: courier capacity must be >= 1, got %d", ErrInvalid, in.Capacity)
	}
	if in.Rating < 0.0 || in.Rating > 5.0 {
		return Courier{}, fmt.Errorf("%w: courier rating %.2f out of range [0,5]", ErrInvalid, in.Rating)
	}
	if err := in.Location.Validate(); err != nil {
		return Courier{}, err
	}

	return Courier{
		Name:        in.Name,
		Location:    in.Location,
		Capacity:    in.Capacity,
		CurrentLoad: 0,
		Rating:      in.Rating,
		Status:      CourierAvailable,
	}, nil
}

// Eligible reports whether the courier may be selected for a new order:
// Available and not already at capacity.
func (c Courier) Eligible() bool {
	return c.Status == CourierAvailable && c.CurrentLoad < c.Capacity
}
