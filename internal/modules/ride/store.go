package ride

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"twende/internal/types"
)

// Monetary columns hold whole-franc amounts; the currency is fixed at RWF.

const rideColumns = `
	id, customer_id, driver_id, vehicle_id,
	pickup_address, dropoff_address,
	pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
	distance_meters, duration_seconds, status,
	estimated_price, final_price, platform_fee, driver_earnings,
	base_fare, rate_per_km, rate_per_minute, commission_bps,
	created_at, accepted_at, started_at, completed_at, cancelled_at, cancel_reason`

type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Create(ctx context.Context, r *Ride, markDriverBusy bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create ride: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO rides (
			id, customer_id, driver_id, vehicle_id,
			pickup_address, dropoff_address,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			distance_meters, duration_seconds, status,
			estimated_price, base_fare, rate_per_km, rate_per_minute, commission_bps,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		r.ID, r.CustomerID, r.DriverID, r.VehicleID,
		r.PickupAddress, r.DropoffAddress,
		r.Pickup.Lat, r.Pickup.Lng, r.Dropoff.Lat, r.Dropoff.Lng,
		r.DistanceMeters, r.DurationSeconds, r.Status,
		r.EstimatedPrice.Amount, r.Applied.BaseFare, r.Applied.RatePerKm, r.Applied.RatePerMin, r.Applied.CommissionBps,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ride: %w", err)
	}

	if markDriverBusy && r.DriverID != nil {
		if _, err := tx.Exec(ctx, `
			UPDATE drivers SET current_status = 'BUSY'
			WHERE id = $1 AND current_status = 'AVAILABLE'`,
			*r.DriverID,
		); err != nil {
			return fmt.Errorf("mark driver busy: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, id)
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ride: %w", err)
	}
	return r, nil
}

// AssignDriver claims a broadcast ride. The driver row is locked first so
// concurrent accepts by the same driver serialize on the single-active check;
// concurrent accepts of the same ride serialize on the conditional update.
func (s *PGStore) AssignDriver(ctx context.Context, rideID, driverID types.ID, at time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin assign: %w", err)
	}
	defer tx.Rollback(ctx)

	var driverStatus string
	err = tx.QueryRow(ctx, `SELECT current_status FROM drivers WHERE id = $1 FOR UPDATE`, driverID).Scan(&driverStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock driver: %w", err)
	}

	var active bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM rides
			WHERE driver_id = $1 AND status IN ('DRIVER_ASSIGNED','DRIVER_ARRIVED','IN_PROGRESS')
		)`, driverID).Scan(&active)
	if err != nil {
		return fmt.Errorf("check active ride: %w", err)
	}
	if active {
		return ErrDriverAlreadyActive
	}

	tag, err := tx.Exec(ctx, `
		UPDATE rides SET driver_id = $2, status = 'DRIVER_ASSIGNED', accepted_at = $3
		WHERE id = $1 AND status = 'REQUESTED' AND driver_id IS NULL`,
		rideID, driverID, at,
	)
	if err != nil {
		return fmt.Errorf("claim ride: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rides WHERE id = $1)`, rideID).Scan(&exists); err != nil {
			return fmt.Errorf("check ride exists: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrRideUnavailable
	}

	if _, err := tx.Exec(ctx, `
		UPDATE drivers SET current_status = 'BUSY'
		WHERE id = $1 AND current_status = 'AVAILABLE'`,
		driverID,
	); err != nil {
		return fmt.Errorf("mark driver busy: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE rides SET status = $3,
			started_at = CASE WHEN $3 = 'IN_PROGRESS' THEN now() ELSE started_at END
		WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return false, fmt.Errorf("update ride status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PGStore) Complete(ctx context.Context, id types.ID, settlement Settlement) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin complete: %w", err)
	}
	defer tx.Rollback(ctx)

	var driverID *types.ID
	err = tx.QueryRow(ctx, `
		UPDATE rides SET status = 'COMPLETED',
			final_price = $2, platform_fee = $3, driver_earnings = $4,
			completed_at = now()
		WHERE id = $1 AND status = 'IN_PROGRESS'
		RETURNING driver_id`,
		id, settlement.FinalPrice.Amount, settlement.PlatformFee.Amount, settlement.DriverEarnings.Amount,
	).Scan(&driverID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("settle ride: %w", err)
	}

	if driverID != nil {
		if err := releaseDriver(ctx, tx, *driverID); err != nil {
			return false, err
		}
	}
	return true, tx.Commit(ctx)
}

func (s *PGStore) Cancel(ctx context.Context, id types.ID, from Status, reason string, fee types.Money) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin cancel: %w", err)
	}
	defer tx.Rollback(ctx)

	var driverID *types.ID
	err = tx.QueryRow(ctx, `
		UPDATE rides SET status = 'CANCELLED',
			cancelled_at = now(), cancel_reason = $3,
			platform_fee = CASE WHEN $4 > 0 THEN $4 ELSE platform_fee END
		WHERE id = $1 AND status = $2
		RETURNING driver_id`,
		id, from, reason, fee.Amount,
	).Scan(&driverID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cancel ride: %w", err)
	}

	if driverID != nil {
		if err := releaseDriver(ctx, tx, *driverID); err != nil {
			return false, err
		}
	}
	return true, tx.Commit(ctx)
}

// releaseDriver flips the driver back to AVAILABLE unless another assigned
// or started ride still occupies them (the queue-next-ride case).
func releaseDriver(ctx context.Context, tx pgx.Tx, driverID types.ID) error {
	_, err := tx.Exec(ctx, `
		UPDATE drivers SET current_status = 'AVAILABLE'
		WHERE id = $1 AND current_status = 'BUSY'
		AND NOT EXISTS (
			SELECT 1 FROM rides
			WHERE driver_id = $1 AND status IN ('DRIVER_ASSIGNED','DRIVER_ARRIVED','IN_PROGRESS')
		)`,
		driverID,
	)
	if err != nil {
		return fmt.Errorf("release driver: %w", err)
	}
	return nil
}

func (s *PGStore) HasActiveRide(ctx context.Context, driverID types.ID) (bool, error) {
	var active bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM rides
			WHERE driver_id = $1 AND status IN ('DRIVER_ASSIGNED','DRIVER_ARRIVED','IN_PROGRESS')
		)`, driverID).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("check active ride: %w", err)
	}
	return active, nil
}

func (s *PGStore) ListByCustomer(ctx context.Context, customerID types.ID, f HistoryFilter) ([]*Ride, error) {
	return s.list(ctx, `customer_id`, customerID, f)
}

func (s *PGStore) ListByDriver(ctx context.Context, driverID types.ID, f HistoryFilter) ([]*Ride, error) {
	return s.list(ctx, `driver_id`, driverID, f)
}

func (s *PGStore) list(ctx context.Context, column string, id types.ID, f HistoryFilter) ([]*Ride, error) {
	q := `SELECT ` + rideColumns + ` FROM rides WHERE ` + column + ` = $1`
	args := []any{id}
	if f.Status != "" {
		q += ` AND status = $2`
		args = append(args, f.Status)
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, f.Limit, f.Offset)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list rides: %w", err)
	}
	defer rows.Close()
	return collectRides(rows)
}

func (s *PGStore) ListOpen(ctx context.Context, maxRequiredScore int, automaticOnly bool) ([]*Ride, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			r.id, r.customer_id, r.driver_id, r.vehicle_id,
			r.pickup_address, r.dropoff_address,
			r.pickup_lat, r.pickup_lng, r.dropoff_lat, r.dropoff_lng,
			r.distance_meters, r.duration_seconds, r.status,
			r.estimated_price, r.final_price, r.platform_fee, r.driver_earnings,
			r.base_fare, r.rate_per_km, r.rate_per_minute, r.commission_bps,
			r.created_at, r.accepted_at, r.started_at, r.completed_at, r.cancelled_at, r.cancel_reason
		FROM rides r
		JOIN vehicles v ON v.id = r.vehicle_id
		WHERE r.status = 'REQUESTED' AND r.driver_id IS NULL
		AND v.required_license_score <= $1
		AND ($2 = false OR v.transmission_type = 'AUTO')
		ORDER BY r.created_at ASC`,
		maxRequiredScore, automaticOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("list open rides: %w", err)
	}
	defer rows.Close()
	return collectRides(rows)
}

func (s *PGStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ride_events (ride_id, from_status, to_status, actor_role, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.RideID, e.From, e.To, e.ActorRole, e.ActorID, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append ride event: %w", err)
	}
	return nil
}

func (s *PGStore) CreateReview(ctx context.Context, rv *Review) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reviews (id, ride_id, reviewer_id, reviewer_role, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rv.ID, rv.RideID, rv.ReviewerID, rv.Role, rv.Rating, rv.Comment, rv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (s *PGStore) HasReview(ctx context.Context, rideID, reviewerID types.ID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM reviews WHERE ride_id = $1 AND reviewer_id = $2)`,
		rideID, reviewerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check review: %w", err)
	}
	return exists, nil
}

func (s *PGStore) ListReviewsReceived(ctx context.Context, userID types.ID) ([]*Review, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT rv.id, rv.ride_id, rv.reviewer_id, rv.reviewer_role, rv.rating, rv.comment, rv.created_at
		FROM reviews rv
		JOIN rides r ON r.id = rv.ride_id
		WHERE (r.customer_id = $1 AND rv.reviewer_role = 'DRIVER')
		   OR (r.driver_id = $1 AND rv.reviewer_role = 'CUSTOMER')
		ORDER BY rv.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reviews received: %w", err)
	}
	defer rows.Close()

	var out []*Review
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.RideID, &rv.ReviewerID, &rv.Role, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, &rv)
	}
	return out, rows.Err()
}

func (s *PGStore) DriverRatingAverage(ctx context.Context, driverID types.ID) (float64, int, error) {
	var avg *float64
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT AVG(rv.rating), COUNT(*)
		FROM reviews rv
		JOIN rides r ON r.id = rv.ride_id
		WHERE r.driver_id = $1 AND rv.reviewer_role = 'CUSTOMER'`,
		driverID).Scan(&avg, &n)
	if err != nil {
		return 0, 0, fmt.Errorf("driver rating average: %w", err)
	}
	if avg == nil {
		return 0, 0, nil
	}
	return *avg, n, nil
}

func scanRide(row pgx.Row) (*Ride, error) {
	var r Ride
	var estimated int64
	var final, fee, earnings *int64
	err := row.Scan(
		&r.ID, &r.CustomerID, &r.DriverID, &r.VehicleID,
		&r.PickupAddress, &r.DropoffAddress,
		&r.Pickup.Lat, &r.Pickup.Lng, &r.Dropoff.Lat, &r.Dropoff.Lng,
		&r.DistanceMeters, &r.DurationSeconds, &r.Status,
		&estimated, &final, &fee, &earnings,
		&r.Applied.BaseFare, &r.Applied.RatePerKm, &r.Applied.RatePerMin, &r.Applied.CommissionBps,
		&r.CreatedAt, &r.AcceptedAt, &r.StartedAt, &r.CompletedAt, &r.CancelledAt, &r.CancelReason,
	)
	if err != nil {
		return nil, err
	}
	r.EstimatedPrice = types.RWF(estimated)
	r.FinalPrice = maybeMoney(final)
	r.PlatformFee = maybeMoney(fee)
	r.DriverEarnings = maybeMoney(earnings)
	return &r, nil
}

func collectRides(rows pgx.Rows) ([]*Ride, error) {
	var out []*Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ride: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func maybeMoney(v *int64) *types.Money {
	if v == nil {
		return nil
	}
	m := types.RWF(*v)
	return &m
}
