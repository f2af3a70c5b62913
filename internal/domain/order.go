package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Order is a pickup/dropoff delivery request.
type Order struct {
	ID        uuid.UUID   `json:"id"`
	Pickup    Location    `json:"pickup"`
	Dropoff   Location    `json:"dropoff"`
	Priority  Priority    `json:"priority"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	Attempts  int         `json:"attempts"`
}

// OrderInput carries the fields required to create an Order.
type OrderInput struct {
	Pickup   Location
	Dropoff  Location
	Priority Priority
}

// NewOrder validates input and builds an Order with status=Pending,
// attempts=0. The id and created_at are left zero; callers (the store)
// assign them.
func NewOrder(in OrderInput) (Order, error) {
	if err := in.Pickup.Validate(); err != nil {
		return Order{}, fmt.Errorf("pickup: %w", err)
	}
	if err := in.Dropoff.Validate(); err != nil {
		return Order{}, fmt.Errorf("dropoff: %w", err)
	}
	if !in.Priority.Valid() {
		return Order{}, fmt.Errorf("%w: priority %q is not recognized", ErrInvalid, string(in.Priority))
	}

	return Order{
		Pickup:   in.Pickup,
		Dropoff:  in.Dropoff,
		Priority: in.Priority,
		Status:   OrderPending,
		Attempts: 0,
	}, nil
}
