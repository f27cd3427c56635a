// Package competitioncache keeps ranked PlaceOf answers in Redis.
//
// Every (competition, metric) has a generation counter. Place keys embed the
// generation, so Invalidate is a single INCR and stale entries age out by TTL.
package competitioncache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	competitionservice "github.com/d2avids/rso-sub000/app/modules/competition/application"
	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rso:place"

// PlaceCache implements competitionservice.PlaceCache on Redis.
type PlaceCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ competitionservice.PlaceCache = (*PlaceCache)(nil)

func NewPlaceCache(client redis.Cmdable, ttl time.Duration) *PlaceCache {
	return &PlaceCache{client: client, ttl: ttl}
}

// NewClient parses a redis:// URL and checks the server answers.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func generationKey(c competitiondomain.CompetitionID, m competitiondomain.MetricID) string {
	return fmt.Sprintf("%s:gen:%d:%s", keyPrefix, c, m)
}

func placeKey(key competitionservice.PlaceKey, generation int64) string {
	return fmt.Sprintf("%s:%d:%s:%d:%d", keyPrefix, key.CompetitionID, key.Metric, generation, key.DetachmentID)
}

func (c *PlaceCache) generation(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(competitionID, metric)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *PlaceCache) GetPlace(ctx context.Context, key competitionservice.PlaceKey) (competitiondomain.PlaceResult, int64, bool, error) {
	gen, err := c.generation(ctx, key.CompetitionID, key.Metric)
	if err != nil {
		return competitiondomain.PlaceResult{}, 0, false, fmt.Errorf("failed to read cache generation: %w", err)
	}

	raw, err := c.client.Get(ctx, placeKey(key, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return competitiondomain.PlaceResult{}, gen, false, nil
	}
	if err != nil {
		return competitiondomain.PlaceResult{}, 0, false, fmt.Errorf("failed to read cached place: %w", err)
	}

	var place competitiondomain.PlaceResult
	if err := json.Unmarshal(raw, &place); err != nil {
		return competitiondomain.PlaceResult{}, 0, false, fmt.Errorf("corrupt cached place: %w", err)
	}
	return place, gen, true, nil
}

// SetPlace writes under the generation the caller read before loading
// result. If a recompute moved the generation meanwhile, the entry lands in
// a dead key and expires by TTL.
func (c *PlaceCache) SetPlace(ctx context.Context, key competitionservice.PlaceKey, gen int64, result competitiondomain.PlaceResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, placeKey(key, gen), raw, c.ttl).Err()
}

// Invalidate moves the (competition, metric) to a new generation.
func (c *PlaceCache) Invalidate(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID) error {
	return c.client.Incr(ctx, generationKey(competitionID, metric)).Err()
}
