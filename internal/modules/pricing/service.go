package pricing

import (
	"context"
	"errors"
	"strings"

	"twende/internal/types"
)

var (
	ErrBadRequest     = errors.New("bad pricing request")
	ErrNotFound       = errors.New("pricing config not found")
	ErrNoActiveConfig = errors.New("no active pricing config")
)

// Store persists pricing configurations. Activate must be atomic: after it
// returns, the target is the only active config regardless of interleaving.
type Store interface {
	Create(ctx context.Context, c *Config) error
	GetActive(ctx context.Context) (*Config, error)
	Get(ctx context.Context, id types.ID) (*Config, error)
	List(ctx context.Context) ([]*Config, error)
	Activate(ctx context.Context, id types.ID) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type CreateCommand struct {
	Name          string
	BaseFare      int64
	PricePerKm    int64
	PricePerMin   int64
	CommissionBps int
	Activate      bool
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Config, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, ErrBadRequest
	}
	if cmd.BaseFare < 0 || cmd.PricePerKm < 0 || cmd.PricePerMin < 0 {
		return nil, ErrBadRequest
	}
	if cmd.CommissionBps < 0 || cmd.CommissionBps > 10000 {
		return nil, ErrBadRequest
	}
	c := &Config{
		ID:            types.NewID(),
		Name:          cmd.Name,
		BaseFare:      cmd.BaseFare,
		PricePerKm:    cmd.PricePerKm,
		PricePerMin:   cmd.PricePerMin,
		CommissionBps: cmd.CommissionBps,
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	if cmd.Activate {
		if err := s.store.Activate(ctx, c.ID); err != nil {
			return nil, err
		}
		c.IsActive = true
	}
	return c, nil
}

// Activate makes the target config the single active one, deactivating all
// others in the same atomic write.
func (s *Service) Activate(ctx context.Context, id types.ID) error {
	if id == "" {
		return ErrBadRequest
	}
	return s.store.Activate(ctx, id)
}

func (s *Service) GetActive(ctx context.Context) (*Config, error) {
	return s.store.GetActive(ctx)
}

func (s *Service) List(ctx context.Context) ([]*Config, error) {
	return s.store.List(ctx)
}

// QuoteActive prices a route against the active config. This is the strict
// path: no active config is an error, never a silent fallback.
func (s *Service) QuoteActive(ctx context.Context, distanceMeters, durationSeconds int64) (Fare, *Config, error) {
	cfg, err := s.store.GetActive(ctx)
	if err != nil {
		return Fare{}, nil, err
	}
	if cfg == nil {
		return Fare{}, nil, ErrNoActiveConfig
	}
	return Quote(cfg.Rates(), distanceMeters, durationSeconds), cfg, nil
}

// QuoteOrFallback prices a route against the active config, or against the
// documented fallback tuple when none is active. Rough-estimate path only.
func (s *Service) QuoteOrFallback(ctx context.Context, distanceMeters, durationSeconds int64) (Fare, error) {
	cfg, err := s.store.GetActive(ctx)
	if err != nil {
		return Fare{}, err
	}
	if cfg == nil {
		return Quote(FallbackRates(), distanceMeters, durationSeconds), nil
	}
	return Quote(cfg.Rates(), distanceMeters, durationSeconds), nil
}
