package directory

import (
	"context"
	"errors"
	"strings"

	"twende/internal/types"
)

var (
	ErrBadRequest = errors.New("bad directory request")
	ErrNotFound   = errors.New("profile not found")
	// ErrBusy rejects a driver going offline mid-ride.
	ErrBusy = errors.New("cannot go offline while busy")
)

// EligibilityFilter is the query predicate the matching engine runs against
// the directory: verified, capable, and not offline.
type EligibilityFilter struct {
	MinLicenseScore int
	// ManualCapableOnly restricts to drivers who can handle a manual gearbox.
	ManualCapableOnly bool
}

// Store persists profiles.
type Store interface {
	GetDriver(ctx context.Context, id types.ID) (*Driver, error)
	SaveDriver(ctx context.Context, d *Driver) error
	ListEligibleDrivers(ctx context.Context, f EligibilityFilter) ([]*Driver, error)
	SetDriverStatus(ctx context.Context, id types.ID, from, to DriverStatus) (bool, error)
	SetDriverRating(ctx context.Context, id types.ID, rating float64) error

	GetCustomer(ctx context.Context, id types.ID) (*Customer, error)
	GetVehicle(ctx context.Context, id types.ID) (*Vehicle, error)
	SaveVehicle(ctx context.Context, v *Vehicle) error
	ListVehicles(ctx context.Context, customerID types.ID) ([]*Vehicle, error)
}

// LocationStore keeps last-known driver positions.
type LocationStore interface {
	SetDriverLocation(ctx context.Context, id types.ID, p types.Point) error
	GetDriverLocation(ctx context.Context, id types.ID) (*types.Point, error)
}

type Service struct {
	store     Store
	locations LocationStore
}

func NewService(store Store, locations LocationStore) *Service {
	return &Service{store: store, locations: locations}
}

func (s *Service) GetDriver(ctx context.Context, id types.ID) (*Driver, error) {
	return s.store.GetDriver(ctx, id)
}

func (s *Service) GetCustomer(ctx context.Context, id types.ID) (*Customer, error) {
	return s.store.GetCustomer(ctx, id)
}

func (s *Service) GetVehicle(ctx context.Context, id types.ID) (*Vehicle, error) {
	return s.store.GetVehicle(ctx, id)
}

func (s *Service) ListVehicles(ctx context.Context, customerID types.ID) ([]*Vehicle, error) {
	return s.store.ListVehicles(ctx, customerID)
}

// SaveDriver persists a driver profile. The license score is recomputed from
// the category on every save.
func (s *Service) SaveDriver(ctx context.Context, d *Driver) error {
	if d.ID == "" {
		d.ID = types.NewID()
	}
	d.LicenseScore = CategoryScore(d.LicenseCategory)
	if d.Status == "" {
		d.Status = StatusOffline
	}
	return s.store.SaveDriver(ctx, d)
}

type AddVehicleCommand struct {
	CustomerID   types.ID
	Name         string
	PlateNumber  string
	Transmission Transmission
	Category     LicenseCategory
}

// AddVehicle registers a customer vehicle. The required score derives from
// the category through the same table as driver license scores.
func (s *Service) AddVehicle(ctx context.Context, cmd AddVehicleCommand) (*Vehicle, error) {
	if cmd.CustomerID == "" || strings.TrimSpace(cmd.Name) == "" {
		return nil, ErrBadRequest
	}
	if cmd.Transmission != TransmissionAuto && cmd.Transmission != TransmissionManual {
		return nil, ErrBadRequest
	}
	if CategoryScore(cmd.Category) == 0 {
		return nil, ErrBadRequest
	}
	if _, err := s.store.GetCustomer(ctx, cmd.CustomerID); err != nil {
		return nil, err
	}
	v := &Vehicle{
		ID:                   types.NewID(),
		CustomerID:           cmd.CustomerID,
		Name:                 cmd.Name,
		PlateNumber:          cmd.PlateNumber,
		Transmission:         cmd.Transmission,
		Category:             cmd.Category,
		RequiredLicenseScore: CategoryScore(cmd.Category),
	}
	if err := s.store.SaveVehicle(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ListEligible returns verified, non-offline drivers whose score covers the
// filter, unranked. Ranking is the matching engine's job.
func (s *Service) ListEligible(ctx context.Context, f EligibilityFilter) ([]*Driver, error) {
	return s.store.ListEligibleDrivers(ctx, f)
}

// SetStatus is the driver's own online/offline toggle. BUSY is owned by the
// ride lifecycle and cannot be entered or left through this path; a busy
// driver may not go offline.
func (s *Service) SetStatus(ctx context.Context, driverID types.ID, to DriverStatus) (*Driver, error) {
	if to != StatusAvailable && to != StatusOffline {
		return nil, ErrBadRequest
	}
	d, err := s.store.GetDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if d.Status == StatusBusy {
		return nil, ErrBusy
	}
	ok, err := s.store.SetDriverStatus(ctx, driverID, d.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with a ride assignment; report the busy state.
		return nil, ErrBusy
	}
	d.Status = to
	return d, nil
}

// UpdateLocation records a driver's last-known position.
func (s *Service) UpdateLocation(ctx context.Context, driverID types.ID, p types.Point) error {
	if p.Zero() {
		return ErrBadRequest
	}
	if _, err := s.store.GetDriver(ctx, driverID); err != nil {
		return err
	}
	return s.locations.SetDriverLocation(ctx, driverID, p)
}

// RefreshRating recomputes and stores a driver's average rating.
func (s *Service) RefreshRating(ctx context.Context, driverID types.ID, rating float64) error {
	if rating < 0 || rating > 5 {
		return ErrBadRequest
	}
	return s.store.SetDriverRating(ctx, driverID, rating)
}
