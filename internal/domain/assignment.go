package domain

import (
	"time"

	"github.com/google/uuid"
)

// Assignment is the immutable record binding one order to one courier.
// An order id appears in at most one Assignment.
type Assignment struct {
	ID         uuid.UUID `json:"id"`
	OrderID    uuid.UUID `json:"order_id"`
	CourierID  uuid.UUID `json:"courier_id"`
	Score      float64   `json:"score"`
	AssignedAt time.Time `json:"assigned_at"`
}
