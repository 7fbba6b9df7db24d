package pricing

import (
	"context"
	"errors"
	"time"

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

func (s *PGStore) Create(ctx context.Context, c *Config) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO pricing_configs (
			id, name, base_fare, price_per_km, price_per_minute,
			commission_bps, is_active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(c.ID), c.Name, c.BaseFare, c.PricePerKm, c.PricePerMin,
		c.CommissionBps, c.IsActive, c.CreatedAt,
	)
	return err
}

func (s *PGStore) GetActive(ctx context.Context) (*Config, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, base_fare, price_per_km, price_per_minute,
		       commission_bps, is_active, created_at
		FROM pricing_configs
		WHERE is_active`)
	c, err := scanConfig(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Config, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, base_fare, price_per_km, price_per_minute,
		       commission_bps, is_active, created_at
		FROM pricing_configs
		WHERE id = $1`, string(id))
	c, err := scanConfig(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func (s *PGStore) List(ctx context.Context) ([]*Config, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, base_fare, price_per_km, price_per_minute,
		       commission_bps, is_active, created_at
		FROM pricing_configs
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*Config
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// Activate flips the active flag in one statement so no reader can ever
// observe two active configs.
func (s *PGStore) Activate(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE pricing_configs
		SET is_active = (id = $1)
		WHERE EXISTS (SELECT 1 FROM pricing_configs WHERE id = $1)`,
		string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanConfig(row pgx.Row) (*Config, error) {
	var c Config
	err := row.Scan(&c.ID, &c.Name, &c.BaseFare, &c.PricePerKm, &c.PricePerMin,
		&c.CommissionBps, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
