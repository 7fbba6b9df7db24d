// Package maps wraps the external routing provider behind a small oracle
// interface. Routing is consumed, never computed here.
package maps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"twende/internal/types"
)

// ErrUnavailable covers every oracle failure mode: missing credentials, no
// drivable route, transport errors. Callers get one uniform condition.
var ErrUnavailable = errors.New("distance oracle unavailable")

// Route is a driving-route measurement between two points.
type Route struct {
	DistanceMeters  int64
	DurationSeconds int64
}

// Oracle answers "how far and how long" for a pickup/dropoff pair.
type Oracle interface {
	Route(ctx context.Context, pickup, dropoff types.Point) (Route, error)
}

// GoogleOracle is the production Oracle backed by the Directions API.
type GoogleOracle struct {
	client  *maps.Client
	timeout time.Duration
}

// NewGoogleOracle creates an oracle with the given API key. Every request is
// bounded by timeout; there is no retry.
func NewGoogleOracle(apiKey string, timeout time.Duration) (*GoogleOracle, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("maps: api key is required")
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("maps: create client: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleOracle{client: client, timeout: timeout}, nil
}

func (o *GoogleOracle) Route(ctx context.Context, pickup, dropoff types.Point) (Route, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", pickup.Lat, pickup.Lng),
		Destination: fmt.Sprintf("%f,%f", dropoff.Lat, dropoff.Lng),
		Mode:        maps.TravelModeDriving,
	}
	routes, _, err := o.client.Directions(ctx, req)
	if err != nil {
		return Route{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Route{}, fmt.Errorf("%w: no route found", ErrUnavailable)
	}

	var meters int64
	var duration time.Duration
	for _, leg := range routes[0].Legs {
		meters += int64(leg.Distance.Meters)
		duration += leg.Duration
	}
	return Route{
		DistanceMeters:  meters,
		DurationSeconds: int64(duration / time.Second),
	}, nil
}
