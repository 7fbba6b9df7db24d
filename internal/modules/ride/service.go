package ride

import (
	"context"
	"errors"
	"fmt"
	"time"

	"twende/internal/maps"
	"twende/internal/modules/directory"
	"twende/internal/modules/notify"
	"twende/internal/modules/pricing"
	"twende/internal/types"
)

var (
	ErrBadRequest   = errors.New("bad ride request")
	ErrNotFound     = errors.New("ride not found")
	ErrForbidden    = errors.New("not allowed for this ride")
	ErrInvalidState = errors.New("invalid status transition")
	// ErrConflict means a concurrent update won; re-read and retry.
	ErrConflict = errors.New("ride state conflict")
	// ErrRideUnavailable is the accept-race loser's error: the ride left
	// REQUESTED before this driver's claim landed.
	ErrRideUnavailable = errors.New("ride no longer available")
	// ErrDriverAlreadyActive enforces the single-active-ride rule on accept.
	ErrDriverAlreadyActive = errors.New("driver already has an active ride")
	ErrNotCompleted        = errors.New("ride not completed yet")
	ErrDuplicateReview     = errors.New("ride already reviewed by this user")
)

// HistoryFilter narrows ride-history listings.
type HistoryFilter struct {
	Status Status
	Limit  int
	Offset int
}

// Store persists rides, events and reviews. Methods that move shared state
// (AssignDriver, Complete, Cancel) are single atomic units: the conditional
// status write, the timestamps and any driver-status side effect commit
// together or not at all.
type Store interface {
	Create(ctx context.Context, r *Ride, markDriverBusy bool) error
	Get(ctx context.Context, id types.ID) (*Ride, error)

	// AssignDriver claims a REQUESTED ride for a driver: it re-verifies the
	// status, rejects drivers that already hold an active ride, writes the
	// assignment and flips the driver to BUSY, all in one transaction.
	AssignDriver(ctx context.Context, rideID, driverID types.ID, at time.Time) error

	// UpdateStatus is a compare-and-swap on the status column; it reports
	// false when the ride was not in the expected state.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status) (bool, error)

	// Complete settles the ride and releases the driver to AVAILABLE unless
	// another assigned/arrived ride is queued for them.
	Complete(ctx context.Context, id types.ID, settlement Settlement) (bool, error)

	// Cancel ends the ride from the given state under the same conditional
	// driver-release rule as Complete.
	Cancel(ctx context.Context, id types.ID, from Status, reason string, fee types.Money) (bool, error)

	HasActiveRide(ctx context.Context, driverID types.ID) (bool, error)
	ListByCustomer(ctx context.Context, customerID types.ID, f HistoryFilter) ([]*Ride, error)
	ListByDriver(ctx context.Context, driverID types.ID, f HistoryFilter) ([]*Ride, error)
	ListOpen(ctx context.Context, maxRequiredScore int, automaticOnly bool) ([]*Ride, error)
	AppendEvent(ctx context.Context, e *Event) error

	CreateReview(ctx context.Context, rv *Review) error
	HasReview(ctx context.Context, rideID, reviewerID types.ID) (bool, error)
	ListReviewsReceived(ctx context.Context, userID types.ID) ([]*Review, error)
	DriverRatingAverage(ctx context.Context, driverID types.ID) (float64, int, error)
}

// Pricer is the slice of the pricing module the lifecycle needs.
type Pricer interface {
	QuoteActive(ctx context.Context, distanceMeters, durationSeconds int64) (pricing.Fare, *pricing.Config, error)
	QuoteOrFallback(ctx context.Context, distanceMeters, durationSeconds int64) (pricing.Fare, error)
}

// Directory is the slice of the profile directory the lifecycle needs.
type Directory interface {
	GetCustomer(ctx context.Context, id types.ID) (*directory.Customer, error)
	GetDriver(ctx context.Context, id types.ID) (*directory.Driver, error)
	GetVehicle(ctx context.Context, id types.ID) (*directory.Vehicle, error)
	RefreshRating(ctx context.Context, driverID types.ID, rating float64) error
}

// Matcher selects or lists drivers for a vehicle.
type Matcher interface {
	SelectDriver(ctx context.Context, vehicle *directory.Vehicle) (*directory.Driver, error)
	ListQualified(ctx context.Context, vehicle *directory.Vehicle) ([]*directory.Driver, error)
}

// Notifier delivers best-effort lifecycle messages; it never fails the caller.
type Notifier interface {
	Send(ctx context.Context, m notify.Message)
}

type Service struct {
	store     Store
	oracle    maps.Oracle
	pricing   Pricer
	directory Directory
	matcher   Matcher
	notifier  Notifier
}

func NewService(store Store, oracle maps.Oracle, pricer Pricer, dir Directory, matcher Matcher, notifier Notifier) *Service {
	return &Service{
		store:     store,
		oracle:    oracle,
		pricing:   pricer,
		directory: dir,
		matcher:   matcher,
		notifier:  notifier,
	}
}

type AssignMode string

const (
	ModeAuto   AssignMode = "auto"
	ModeManual AssignMode = "manual"
)

type CreateCommand struct {
	CustomerID     types.ID
	VehicleID      types.ID
	Pickup         types.Point
	Dropoff        types.Point
	PickupAddress  string
	DropoffAddress string
	Mode           AssignMode
	// DriverID is the explicit pick in manual mode. An unknown driver does
	// not fail the booking; the ride falls back to broadcast.
	DriverID types.ID
}

// Create books a ride. The route is measured and priced synchronously and
// the snapshot written before any driver is involved; if measuring or
// pricing fails nothing is persisted. Driver assignment at creation time is
// the pre-assignment path: it may pick a BUSY driver (who serves this
// customer next) and therefore does not apply the single-active-ride rule —
// that rule belongs to driver-initiated Accept.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Ride, error) {
	if cmd.CustomerID == "" || cmd.VehicleID == "" || cmd.Pickup.Zero() || cmd.Dropoff.Zero() {
		return nil, ErrBadRequest
	}
	if cmd.Mode != ModeAuto && cmd.Mode != ModeManual {
		return nil, ErrBadRequest
	}
	if cmd.Mode == ModeManual && cmd.DriverID == "" {
		return nil, ErrBadRequest
	}

	if _, err := s.directory.GetCustomer(ctx, cmd.CustomerID); err != nil {
		return nil, err
	}
	vehicle, err := s.directory.GetVehicle(ctx, cmd.VehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.CustomerID != cmd.CustomerID {
		return nil, directory.ErrNotFound
	}

	route, err := s.oracle.Route(ctx, cmd.Pickup, cmd.Dropoff)
	if err != nil {
		return nil, err
	}
	fare, cfg, err := s.pricing.QuoteActive(ctx, route.DistanceMeters, route.DurationSeconds)
	if err != nil {
		return nil, err
	}

	r := &Ride{
		ID:              types.NewID(),
		CustomerID:      cmd.CustomerID,
		VehicleID:       cmd.VehicleID,
		PickupAddress:   cmd.PickupAddress,
		DropoffAddress:  cmd.DropoffAddress,
		Pickup:          cmd.Pickup,
		Dropoff:         cmd.Dropoff,
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Status:          StatusRequested,
		EstimatedPrice:  fare.Price,
		Applied: Snapshot{
			BaseFare:      fare.Rates.BaseFare,
			RatePerKm:     fare.Rates.PricePerKm,
			RatePerMin:    fare.Rates.PricePerMin,
			CommissionBps: cfg.CommissionBps,
		},
		CreatedAt: time.Now().UTC(),
	}

	var assigned *directory.Driver
	switch cmd.Mode {
	case ModeAuto:
		assigned, err = s.matcher.SelectDriver(ctx, vehicle)
		if err != nil {
			return nil, err
		}
	case ModeManual:
		assigned, err = s.directory.GetDriver(ctx, cmd.DriverID)
		if errors.Is(err, directory.ErrNotFound) {
			assigned = nil // broadcast instead of failing the booking
		} else if err != nil {
			return nil, err
		}
	}

	markBusy := false
	if assigned != nil {
		id := assigned.ID
		r.DriverID = &id
		r.Status = StatusDriverAssigned
		markBusy = assigned.Status == directory.StatusAvailable
	}

	if err := s.store.Create(ctx, r, markBusy); err != nil {
		return nil, err
	}

	s.appendEvent(ctx, r.ID, "", StatusRequested, "customer", &cmd.CustomerID)
	if assigned != nil {
		s.appendEvent(ctx, r.ID, StatusRequested, StatusDriverAssigned, "system", nil)
		s.notifier.Send(ctx, notify.Message{
			Recipient: assigned.ID,
			Sender:    &cmd.CustomerID,
			RideID:    &r.ID,
			Type:      notify.TypeRideRequest,
			Title:     "New ride assigned",
			Body:      fmt.Sprintf("Pickup at %s.", r.PickupAddress),
		})
	}
	return r, nil
}

type Estimate struct {
	DistanceMeters  int64         `json:"distance_meters"`
	DurationSeconds int64         `json:"duration_seconds"`
	Price           types.Money   `json:"estimated_price"`
	Rates           pricing.Rates `json:"applied_rates"`
}

// Estimate prices a route without persisting anything. This is the rough
// preview path: when no config is active it uses the fallback rates instead
// of failing.
func (s *Service) Estimate(ctx context.Context, pickup, dropoff types.Point) (*Estimate, error) {
	if pickup.Zero() || dropoff.Zero() {
		return nil, ErrBadRequest
	}
	route, err := s.oracle.Route(ctx, pickup, dropoff)
	if err != nil {
		return nil, err
	}
	fare, err := s.pricing.QuoteOrFallback(ctx, route.DistanceMeters, route.DurationSeconds)
	if err != nil {
		return nil, err
	}
	return &Estimate{
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Price:           fare.Price,
		Rates:           fare.Rates,
	}, nil
}

// QualifiedDrivers lists ranked eligible drivers for one of the customer's
// vehicles.
func (s *Service) QualifiedDrivers(ctx context.Context, customerID, vehicleID types.ID) ([]*directory.Driver, error) {
	vehicle, err := s.directory.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.CustomerID != customerID {
		return nil, directory.ErrNotFound
	}
	return s.matcher.ListQualified(ctx, vehicle)
}

// Accept is a driver claiming a broadcast ride. Exactly one of any number of
// concurrent claims wins; a driver holding an active ride is rejected.
func (s *Service) Accept(ctx context.Context, driverID, rideID types.ID) (*Ride, error) {
	if driverID == "" || rideID == "" {
		return nil, ErrBadRequest
	}
	if _, err := s.directory.GetDriver(ctx, driverID); err != nil {
		return nil, err
	}
	if err := s.store.AssignDriver(ctx, rideID, driverID, time.Now().UTC()); err != nil {
		return nil, err
	}
	r, err := s.store.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}

	s.appendEvent(ctx, rideID, StatusRequested, StatusDriverAssigned, "driver", &driverID)
	s.notifier.Send(ctx, notify.Message{
		Recipient: r.CustomerID,
		Sender:    &driverID,
		RideID:    &rideID,
		Type:      notify.TypeRideAccepted,
		Title:     "Driver found",
		Body:      "A driver has accepted your ride.",
	})
	return r, nil
}

// UpdateStatus advances a ride through DRIVER_ARRIVED, IN_PROGRESS and
// COMPLETED. Only the assigned driver may call it.
func (s *Service) UpdateStatus(ctx context.Context, driverID, rideID types.ID, to Status) (*Ride, error) {
	r, err := s.store.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if r.DriverID == nil || *r.DriverID != driverID {
		return nil, ErrForbidden
	}
	switch to {
	case StatusDriverArrived, StatusInProgress, StatusCompleted:
	default:
		return nil, ErrBadRequest
	}
	if !CanTransition(r.Status, to) {
		return nil, ErrInvalidState
	}

	var ok bool
	if to == StatusCompleted {
		fee, earnings := pricing.Split(r.EstimatedPrice, r.Applied.CommissionBps)
		ok, err = s.store.Complete(ctx, rideID, Settlement{
			FinalPrice:     r.EstimatedPrice,
			PlatformFee:    fee,
			DriverEarnings: earnings,
		})
	} else {
		ok, err = s.store.UpdateStatus(ctx, rideID, r.Status, to)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	s.appendEvent(ctx, rideID, r.Status, to, "driver", &driverID)
	s.notifier.Send(ctx, notify.Message{
		Recipient: r.CustomerID,
		Sender:    &driverID,
		RideID:    &rideID,
		Type:      statusNotification(to),
		Title:     statusTitle(to),
		Body:      statusBody(to),
	})
	return s.store.Get(ctx, rideID)
}

// Cancel ends a non-terminal ride. The customer or the assigned driver may
// cancel; the driver is released under the same no-other-active-ride rule
// as completion.
func (s *Service) Cancel(ctx context.Context, actorID, rideID types.ID, reason string) (*Ride, error) {
	r, err := s.store.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}
	role, err := participantRole(r, actorID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, StatusCancelled) {
		return nil, ErrInvalidState
	}

	ok, err := s.store.Cancel(ctx, rideID, r.Status, reason, cancellationFee(r))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	s.appendEvent(ctx, rideID, r.Status, StatusCancelled, string(role), &actorID)
	if other := counterparty(r, role); other != nil {
		s.notifier.Send(ctx, notify.Message{
			Recipient: *other,
			Sender:    &actorID,
			RideID:    &rideID,
			Type:      notify.TypeSystem,
			Title:     "Ride cancelled",
			Body:      "The ride has been cancelled.",
		})
	}
	return s.store.Get(ctx, rideID)
}

// cancellationFee computes the charge for cancelling r. Zero for every state
// today; IN_PROGRESS cancellations are the intended future use.
func cancellationFee(_ *Ride) types.Money {
	return types.RWF(0)
}

// Get returns a ride to one of its participants.
func (s *Service) Get(ctx context.Context, actorID, rideID types.ID) (*Ride, error) {
	r, err := s.store.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if _, err := participantRole(r, actorID); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) HistoryForCustomer(ctx context.Context, customerID types.ID, f HistoryFilter) ([]*Ride, error) {
	return s.store.ListByCustomer(ctx, customerID, normalizeFilter(f))
}

func (s *Service) HistoryForDriver(ctx context.Context, driverID types.ID, f HistoryFilter) ([]*Ride, error) {
	return s.store.ListByDriver(ctx, driverID, normalizeFilter(f))
}

// OpenRides lists broadcast rides the driver could serve: REQUESTED, within
// the driver's license score, and excluding manual-gearbox vehicles for
// automatic-only drivers. Busy or offline drivers see nothing here.
func (s *Service) OpenRides(ctx context.Context, driverID types.ID) ([]*Ride, error) {
	d, err := s.directory.GetDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if d.Status != directory.StatusAvailable {
		return nil, nil
	}
	if active, err := s.store.HasActiveRide(ctx, driverID); err != nil {
		return nil, err
	} else if active {
		return nil, nil
	}
	automaticOnly := d.Transmission == directory.TransmissionAuto
	return s.store.ListOpen(ctx, d.LicenseScore, automaticOnly)
}

// CreateReview records a rating for a completed ride. Participants only,
// once each; a customer review refreshes the driver's average rating.
func (s *Service) CreateReview(ctx context.Context, reviewerID, rideID types.ID, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrBadRequest
	}
	r, err := s.store.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}
	role, err := participantRole(r, reviewerID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusCompleted {
		return nil, ErrNotCompleted
	}
	if dup, err := s.store.HasReview(ctx, rideID, reviewerID); err != nil {
		return nil, err
	} else if dup {
		return nil, ErrDuplicateReview
	}

	rv := &Review{
		ID:         types.NewID(),
		RideID:     rideID,
		ReviewerID: reviewerID,
		Role:       role,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.CreateReview(ctx, rv); err != nil {
		return nil, err
	}

	if role == ReviewerCustomer && r.DriverID != nil {
		if avg, n, err := s.store.DriverRatingAverage(ctx, *r.DriverID); err == nil && n > 0 {
			// Rating refresh is best-effort; the review itself is committed.
			_ = s.directory.RefreshRating(ctx, *r.DriverID, avg)
		}
	}
	return rv, nil
}

func (s *Service) ReviewsReceived(ctx context.Context, userID types.ID) ([]*Review, error) {
	return s.store.ListReviewsReceived(ctx, userID)
}

func (s *Service) appendEvent(ctx context.Context, rideID types.ID, from, to Status, role string, actor *types.ID) {
	_ = s.store.AppendEvent(ctx, &Event{
		RideID:    rideID,
		From:      from,
		To:        to,
		ActorRole: role,
		ActorID:   actor,
		CreatedAt: time.Now().UTC(),
	})
}

// participantRole resolves the actor's side of the ride, or ErrForbidden.
func participantRole(r *Ride, actorID types.ID) (ReviewerRole, error) {
	if actorID == r.CustomerID {
		return ReviewerCustomer, nil
	}
	if r.DriverID != nil && *r.DriverID == actorID {
		return ReviewerDriver, nil
	}
	return "", ErrForbidden
}

func counterparty(r *Ride, role ReviewerRole) *types.ID {
	if role == ReviewerCustomer {
		return r.DriverID
	}
	id := r.CustomerID
	return &id
}

func normalizeFilter(f HistoryFilter) HistoryFilter {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func statusNotification(to Status) notify.Type {
	switch to {
	case StatusDriverArrived:
		return notify.TypeRideArrived
	case StatusInProgress:
		return notify.TypeRideStarted
	case StatusCompleted:
		return notify.TypeRideCompleted
	default:
		return notify.TypeSystem
	}
}

func statusTitle(to Status) string {
	switch to {
	case StatusDriverArrived:
		return "Driver arrived"
	case StatusInProgress:
		return "Trip started"
	case StatusCompleted:
		return "Trip completed"
	default:
		return "Ride update"
	}
}

func statusBody(to Status) string {
	switch to {
	case StatusDriverArrived:
		return "Your driver is waiting at the pickup point."
	case StatusInProgress:
		return "Your trip is underway."
	case StatusCompleted:
		return "Your trip is complete. Thanks for riding with us."
	default:
		return ""
	}
}
