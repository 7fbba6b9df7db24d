// Package matching selects drivers for ride requests: it filters the
// directory by eligibility and ranks the survivors deterministically.
package matching

import (
	"context"
	"sort"

	"twende/internal/modules/directory"
)

// Directory is the slice of the driver directory the engine queries.
type Directory interface {
	ListEligible(ctx context.Context, f directory.EligibilityFilter) ([]*directory.Driver, error)
}

type Service struct {
	directory Directory
}

func NewService(dir Directory) *Service {
	return &Service{directory: dir}
}

// Rank orders drivers best-first: AVAILABLE before BUSY, then higher rating,
// then driver ID ascending. The ID tie-break keeps the order stable across
// calls with unchanged state.
func Rank(drivers []*directory.Driver) []*directory.Driver {
	ranked := make([]*directory.Driver, len(drivers))
	copy(ranked, drivers)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		ab, bb := busyRank(a.Status), busyRank(b.Status)
		if ab != bb {
			return ab < bb
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.ID < b.ID
	})
	return ranked
}

func busyRank(s directory.DriverStatus) int {
	if s == directory.StatusAvailable {
		return 0
	}
	return 1
}

func filterFor(vehicle *directory.Vehicle) directory.EligibilityFilter {
	return directory.EligibilityFilter{
		MinLicenseScore:   vehicle.RequiredLicenseScore,
		ManualCapableOnly: vehicle.Transmission == directory.TransmissionManual,
	}
}

// ListQualified returns every driver eligible for the vehicle, ranked.
func (s *Service) ListQualified(ctx context.Context, vehicle *directory.Vehicle) ([]*directory.Driver, error) {
	drivers, err := s.directory.ListEligible(ctx, filterFor(vehicle))
	if err != nil {
		return nil, err
	}
	return Rank(drivers), nil
}

// SelectDriver picks the top-ranked eligible driver, or nil when nobody
// qualifies. The pick may be BUSY: a busy driver can be pre-assigned to
// serve the customer next.
func (s *Service) SelectDriver(ctx context.Context, vehicle *directory.Vehicle) (*directory.Driver, error) {
	ranked, err := s.ListQualified(ctx, vehicle)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, nil
	}
	return ranked[0], nil
}
