// Package ride owns the ride lifecycle: request, assignment, the status
// state machine, fare snapshots and post-ride reviews.
package ride

import (
	"time"

	"twende/internal/types"
)

type Status string

const (
	StatusRequested      Status = "REQUESTED"
	StatusDriverAssigned Status = "DRIVER_ASSIGNED"
	StatusDriverArrived  Status = "DRIVER_ARRIVED"
	StatusInProgress     Status = "IN_PROGRESS"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
)

// AllowedTransitions is the ride state flow as code. CANCELLED is reachable
// from every non-terminal state, IN_PROGRESS included (cancellation there is
// permitted; a fee hook exists but currently charges nothing).
var AllowedTransitions = map[Status][]Status{
	StatusRequested:      {StatusDriverAssigned, StatusCancelled},
	StatusDriverAssigned: {StatusDriverArrived, StatusCancelled},
	StatusDriverArrived:  {StatusInProgress, StatusCancelled},
	StatusInProgress:     {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status ends the lifecycle.
func Terminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ActiveStatuses are the states in which a ride occupies its driver.
var ActiveStatuses = []Status{StatusDriverAssigned, StatusDriverArrived, StatusInProgress}

// Snapshot is the frozen pricing applied to a ride at creation time. It is
// written once and never changes, whatever happens to the configuration
// later; priced rides stay auditable.
type Snapshot struct {
	BaseFare      int64 `json:"applied_base_fare"`
	RatePerKm     int64 `json:"applied_rate_per_km"`
	RatePerMin    int64 `json:"applied_rate_per_minute"`
	CommissionBps int   `json:"applied_commission_bps"`
}

type Ride struct {
	ID         types.ID  `json:"id"`
	CustomerID types.ID  `json:"customer_id"`
	DriverID   *types.ID `json:"driver_id,omitempty"`
	VehicleID  types.ID  `json:"vehicle_id"`

	PickupAddress  string      `json:"pickup_address"`
	DropoffAddress string      `json:"dropoff_address"`
	Pickup         types.Point `json:"pickup"`
	Dropoff        types.Point `json:"dropoff"`

	DistanceMeters  int64 `json:"distance_meters"`
	DurationSeconds int64 `json:"duration_seconds"`

	Status Status `json:"status"`

	EstimatedPrice types.Money  `json:"estimated_price"`
	FinalPrice     *types.Money `json:"final_price,omitempty"`
	PlatformFee    *types.Money `json:"platform_fee,omitempty"`
	DriverEarnings *types.Money `json:"driver_earnings,omitempty"`
	Applied        Snapshot     `json:"applied"`

	CreatedAt    time.Time  `json:"created_at"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason *string    `json:"cancel_reason,omitempty"`
}

// Settlement is the money split written when a ride completes.
type Settlement struct {
	FinalPrice     types.Money
	PlatformFee    types.Money
	DriverEarnings types.Money
}

// Event is one audit-trail row per status mutation.
type Event struct {
	ID        int64     `json:"id"`
	RideID    types.ID  `json:"ride_id"`
	From      Status    `json:"from_status"`
	To        Status    `json:"to_status"`
	ActorRole string    `json:"actor_role"` // customer, driver, system
	ActorID   *types.ID `json:"actor_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewerRole string

const (
	ReviewerCustomer ReviewerRole = "CUSTOMER"
	ReviewerDriver   ReviewerRole = "DRIVER"
)

// Review is one rating per (ride, reviewer) pair, allowed only after
// completion and only from the ride's own customer or driver.
type Review struct {
	ID         types.ID     `json:"id"`
	RideID     types.ID     `json:"ride_id"`
	ReviewerID types.ID     `json:"reviewer_id"`
	Role       ReviewerRole `json:"reviewer_role"`
	Rating     int          `json:"rating"`
	Comment    string       `json:"comment,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}
