// Package pricing owns the versioned fare coefficients and the fare
// calculator. The calculator is pure; persistence lives in the store.
package pricing

import (
	"time"

	"twende/internal/types"
)

// Config is one versioned set of fare coefficients. At most one config is
// active at any time; configs are never hard-deleted once referenced by a
// ride so priced rides keep a valid audit trail.
type Config struct {
	ID            types.ID  `json:"id"`
	Name          string    `json:"name"`
	BaseFare      int64     `json:"base_fare"`
	PricePerKm    int64     `json:"price_per_km"`
	PricePerMin   int64     `json:"price_per_minute"`
	CommissionBps int       `json:"platform_commission_bps"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// Rates is the coefficient tuple a quote applies. Rides freeze a copy of it.
type Rates struct {
	BaseFare    int64 `json:"base_fare"`
	PricePerKm  int64 `json:"price_per_km"`
	PricePerMin int64 `json:"price_per_minute"`
}

func (c Config) Rates() Rates {
	return Rates{BaseFare: c.BaseFare, PricePerKm: c.PricePerKm, PricePerMin: c.PricePerMin}
}

// FallbackRates is the documented degraded-mode tuple for rough estimates
// when no configuration is active. It is never mixed with real config values.
func FallbackRates() Rates {
	return Rates{BaseFare: 2000, PricePerKm: 1000, PricePerMin: 100}
}

// Fare is a quote result: the price plus the exact rates that produced it.
type Fare struct {
	Price types.Money `json:"price"`
	Rates Rates       `json:"applied_rates"`
}

// Quote computes the fare for a measured route. All arithmetic is integer;
// the per-km and per-minute terms round half-up at the division.
func Quote(r Rates, distanceMeters, durationSeconds int64) Fare {
	price := r.BaseFare +
		divRound(distanceMeters*r.PricePerKm, 1000) +
		divRound(durationSeconds*r.PricePerMin, 60)
	return Fare{Price: types.RWF(price), Rates: r}
}

// Split divides a fare into the platform fee and the driver's earnings.
func Split(price types.Money, commissionBps int) (fee, earnings types.Money) {
	f := divRound(price.Amount*int64(commissionBps), 10000)
	fee = types.Money{Amount: f, Currency: price.Currency}
	earnings = types.Money{Amount: price.Amount - f, Currency: price.Currency}
	return fee, earnings
}

func divRound(a, b int64) int64 {
	return (a + b/2) / b
}
