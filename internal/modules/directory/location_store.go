package directory

import (
	"context"

	"github.com/redis/go-redis/v9"

	"twende/internal/types"
)

const driverGeoKey = "directory:drivers:geo"

// RedisLocationStore keeps last-known driver positions in a Redis GEO set.
// Positions are advisory display data, not matching input.
type RedisLocationStore struct {
	redis *redis.Client
}

func NewRedisLocationStore(client *redis.Client) *RedisLocationStore {
	return &RedisLocationStore{redis: client}
}

func (s *RedisLocationStore) SetDriverLocation(ctx context.Context, id types.ID, p types.Point) error {
	return s.redis.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

func (s *RedisLocationStore) GetDriverLocation(ctx context.Context, id types.ID) (*types.Point, error) {
	pos, err := s.redis.GeoPos(ctx, driverGeoKey, string(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(pos) == 0 || pos[0] == nil {
		return nil, nil
	}
	return &types.Point{Lat: pos[0].Latitude, Lng: pos[0].Longitude}, nil
}
