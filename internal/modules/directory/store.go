package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"twende/internal/types"
)

// PGStore is the Postgres-backed Store.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const driverColumns = `id, name, license_category, license_score,
	transmission_capability, current_status, is_verified, average_rating,
	location_lat, location_lng`

func (s *PGStore) GetDriver(ctx context.Context, id types.ID) (*Driver, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+driverColumns+` FROM drivers WHERE id = $1`, string(id))
	d, err := scanDriver(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func (s *PGStore) SaveDriver(ctx context.Context, d *Driver) error {
	var lat, lng *float64
	if d.Location != nil {
		lat, lng = &d.Location.Lat, &d.Location.Lng
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO drivers (
			id, name, license_category, license_score, transmission_capability,
			current_status, is_verified, average_rating, location_lat, location_lng
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			license_category = EXCLUDED.license_category,
			license_score = EXCLUDED.license_score,
			transmission_capability = EXCLUDED.transmission_capability,
			is_verified = EXCLUDED.is_verified`,
		string(d.ID), d.Name, string(d.LicenseCategory), d.LicenseScore,
		string(d.Transmission), string(d.Status), d.IsVerified, d.Rating, lat, lng,
	)
	return err
}

func (s *PGStore) ListEligibleDrivers(ctx context.Context, f EligibilityFilter) ([]*Driver, error) {
	q := `SELECT ` + driverColumns + `
		FROM drivers
		WHERE is_verified
		  AND license_score >= $1
		  AND current_status <> 'OFFLINE'`
	args := []any{f.MinLicenseScore}
	if f.ManualCapableOnly {
		q += ` AND transmission_capability = 'BOTH'`
	}
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

// SetDriverStatus is a conditional update; it reports false when the driver's
// status moved underneath the caller.
func (s *PGStore) SetDriverStatus(ctx context.Context, id types.ID, from, to DriverStatus) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers SET current_status = $1
		WHERE id = $2 AND current_status = $3`,
		string(to), string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) SetDriverRating(ctx context.Context, id types.ID, rating float64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE drivers SET average_rating = $1 WHERE id = $2`,
		rating, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) GetCustomer(ctx context.Context, id types.ID) (*Customer, error) {
	var c Customer
	err := s.db.QueryRow(ctx,
		`SELECT id, name FROM customers WHERE id = $1`, string(id)).
		Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PGStore) GetVehicle(ctx context.Context, id types.ID) (*Vehicle, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, customer_id, name, plate_number, transmission_type,
		       vehicle_category, required_license_score
		FROM vehicles WHERE id = $1`, string(id))
	v, err := scanVehicle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *PGStore) SaveVehicle(ctx context.Context, v *Vehicle) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO vehicles (
			id, customer_id, name, plate_number, transmission_type,
			vehicle_category, required_license_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(v.ID), string(v.CustomerID), v.Name, v.PlateNumber,
		string(v.Transmission), string(v.Category), v.RequiredLicenseScore,
	)
	return err
}

func (s *PGStore) ListVehicles(ctx context.Context, customerID types.ID) ([]*Vehicle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, customer_id, name, plate_number, transmission_type,
		       vehicle_category, required_license_score
		FROM vehicles WHERE customer_id = $1
		ORDER BY name`, string(customerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func scanDriver(row pgx.Row) (*Driver, error) {
	var d Driver
	var lat, lng *float64
	err := row.Scan(&d.ID, &d.Name, &d.LicenseCategory, &d.LicenseScore,
		&d.Transmission, &d.Status, &d.IsVerified, &d.Rating, &lat, &lng)
	if err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		d.Location = &types.Point{Lat: *lat, Lng: *lng}
	}
	return &d, nil
}

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	var v Vehicle
	var plate *string
	err := row.Scan(&v.ID, &v.CustomerID, &v.Name, &plate, &v.Transmission,
		&v.Category, &v.RequiredLicenseScore)
	if err != nil {
		return nil, err
	}
	if plate != nil {
		v.PlateNumber = *plate
	}
	return &v, nil
}
