package directory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"twende/internal/types"
)

func TestCategoryScore(t *testing.T) {
	want := map[LicenseCategory]int{
		CategoryA: 5, CategoryB: 10, CategoryC: 20,
		CategoryD: 30, CategoryE: 40, CategoryF: 100,
	}
	for cat, score := range want {
		if got := CategoryScore(cat); got != score {
			t.Errorf("CategoryScore(%s) = %d, want %d", cat, got, score)
		}
	}
	if got := CategoryScore("Z"); got != 0 {
		t.Errorf("CategoryScore(Z) = %d, want 0", got)
	}
}

func TestSaveDriver_DerivesScore(t *testing.T) {
	svc, _ := newTestService()
	d := &Driver{
		Name:            "Jean",
		LicenseCategory: CategoryC,
		LicenseScore:    9999, // must be overwritten, never trusted
		Transmission:    TransmissionBoth,
		IsVerified:      true,
	}
	if err := svc.SaveDriver(context.Background(), d); err != nil {
		t.Fatalf("SaveDriver: %v", err)
	}
	if d.LicenseScore != 20 {
		t.Errorf("license score = %d, want 20", d.LicenseScore)
	}
	if d.Status != StatusOffline {
		t.Errorf("new driver status = %s, want OFFLINE", d.Status)
	}
}

func TestAddVehicle_DerivesRequiredScore(t *testing.T) {
	svc, store := newTestService()
	store.customers["c1"] = &Customer{ID: "c1", Name: "Aline"}

	v, err := svc.AddVehicle(context.Background(), AddVehicleCommand{
		CustomerID: "c1", Name: "old lorry",
		Transmission: TransmissionManual, Category: CategoryC,
	})
	if err != nil {
		t.Fatalf("AddVehicle: %v", err)
	}
	if v.RequiredLicenseScore != 20 {
		t.Errorf("required score = %d, want 20", v.RequiredLicenseScore)
	}
}

func TestAddVehicle_Validation(t *testing.T) {
	svc, store := newTestService()
	store.customers["c1"] = &Customer{ID: "c1", Name: "Aline"}
	ctx := context.Background()

	cases := []struct {
		name string
		cmd  AddVehicleCommand
		want error
	}{
		{"missing name", AddVehicleCommand{CustomerID: "c1", Transmission: TransmissionAuto, Category: CategoryB}, ErrBadRequest},
		{"driver capability as vehicle gearbox", AddVehicleCommand{CustomerID: "c1", Name: "x", Transmission: TransmissionBoth, Category: CategoryB}, ErrBadRequest},
		{"unknown category", AddVehicleCommand{CustomerID: "c1", Name: "x", Transmission: TransmissionAuto, Category: "Z"}, ErrBadRequest},
		{"unknown customer", AddVehicleCommand{CustomerID: "nope", Name: "x", Transmission: TransmissionAuto, Category: CategoryB}, ErrNotFound},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AddVehicle(ctx, tt.cmd); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSetStatus_OfflineWhileBusy(t *testing.T) {
	svc, store := newTestService()
	store.drivers["d1"] = &Driver{ID: "d1", Status: StatusBusy}

	if _, err := svc.SetStatus(context.Background(), "d1", StatusOffline); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestSetStatus_CannotSelfAssignBusy(t *testing.T) {
	svc, store := newTestService()
	store.drivers["d1"] = &Driver{ID: "d1", Status: StatusAvailable}

	if _, err := svc.SetStatus(context.Background(), "d1", StatusBusy); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestSetStatus_Toggle(t *testing.T) {
	svc, store := newTestService()
	store.drivers["d1"] = &Driver{ID: "d1", Status: StatusOffline}
	ctx := context.Background()

	d, err := svc.SetStatus(ctx, "d1", StatusAvailable)
	if err != nil {
		t.Fatalf("go online: %v", err)
	}
	if d.Status != StatusAvailable {
		t.Errorf("status = %s, want AVAILABLE", d.Status)
	}
	if _, err := svc.SetStatus(ctx, "d1", StatusOffline); err != nil {
		t.Fatalf("go offline: %v", err)
	}
}

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	mu        sync.Mutex
	drivers   map[types.ID]*Driver
	customers map[types.ID]*Customer
	vehicles  map[types.ID]*Vehicle
}

func newTestService() (*Service, *fakeStore) {
	store := &fakeStore{
		drivers:   make(map[types.ID]*Driver),
		customers: make(map[types.ID]*Customer),
		vehicles:  make(map[types.ID]*Vehicle),
	}
	return NewService(store, fakeLocations{}), store
}

func (f *fakeStore) GetDriver(_ context.Context, id types.ID) (*Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeStore) SaveDriver(_ context.Context, d *Driver) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *d
	f.drivers[d.ID] = &cp
	return nil
}

func (f *fakeStore) ListEligibleDrivers(_ context.Context, filter EligibilityFilter) ([]*Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Driver
	for _, d := range f.drivers {
		if !d.IsVerified || d.Status == StatusOffline || d.LicenseScore < filter.MinLicenseScore {
			continue
		}
		if filter.ManualCapableOnly && d.Transmission != TransmissionBoth {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeStore) SetDriverStatus(_ context.Context, id types.ID, from, to DriverStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drivers[id]
	if !ok || d.Status != from {
		return false, nil
	}
	d.Status = to
	return true, nil
}

func (f *fakeStore) SetDriverRating(_ context.Context, id types.ID, rating float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drivers[id]
	if !ok {
		return ErrNotFound
	}
	d.Rating = rating
	return nil
}

func (f *fakeStore) GetCustomer(_ context.Context, id types.ID) (*Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) GetVehicle(_ context.Context, id types.ID) (*Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeStore) SaveVehicle(_ context.Context, v *Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *v
	f.vehicles[v.ID] = &cp
	return nil
}

func (f *fakeStore) ListVehicles(_ context.Context, customerID types.ID) ([]*Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Vehicle
	for _, v := range f.vehicles {
		if v.CustomerID == customerID {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeLocations struct{}

func (fakeLocations) SetDriverLocation(context.Context, types.ID, types.Point) error {
	return nil
}

func (fakeLocations) GetDriverLocation(context.Context, types.ID) (*types.Point, error) {
	return nil, nil
}
