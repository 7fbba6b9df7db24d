// Package notify records in-app notifications for ride lifecycle events.
// Delivery is best-effort: a failed write is logged and swallowed so it can
// never fail the state change that triggered it.
package notify

import (
	"time"

	"twende/internal/types"
)

type Type string

const (
	TypeRideRequest   Type = "RIDE_REQ"
	TypeRideAccepted  Type = "RIDE_ACC"
	TypeRideArrived   Type = "RIDE_ARR"
	TypeRideStarted   Type = "RIDE_STR"
	TypeRideCompleted Type = "RIDE_CMP"
	TypePayment       Type = "PAYMENT"
	TypeSystem        Type = "SYSTEM"
)

// Message is an outbound notification before it is stored.
type Message struct {
	Recipient types.ID
	Sender    *types.ID
	RideID    *types.ID
	Type      Type
	Title     string
	Body      string
}

// Notification is a stored message plus read state.
type Notification struct {
	ID        types.ID  `json:"id"`
	Recipient types.ID  `json:"recipient_id"`
	Sender    *types.ID `json:"sender_id,omitempty"`
	RideID    *types.ID `json:"ride_id,omitempty"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
