package competitioncache

import (
	"context"
	"os"
	"testing"
	"time"

	competitionservice "github.com/d2avids/rso-sub000/app/modules/competition/application"
	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	key := competitionservice.PlaceKey{CompetitionID: 7, Metric: "q17", DetachmentID: 12}
	assert.Equal(t, "rso:place:gen:7:q17", generationKey(7, "q17"))
	assert.Equal(t, "rso:place:7:q17:3:12", placeKey(key, 3))
}

// TestPlaceCache_Redis needs a Redis server at REDIS_URL.
func TestPlaceCache_Redis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping redis test")
	}
	ctx := context.Background()
	client, err := NewClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	// isolate from other runs
	metric := competitiondomain.MetricID("q-" + uuid.NewString())
	cache := NewPlaceCache(client, time.Minute)
	key := competitionservice.PlaceKey{CompetitionID: 7, Metric: metric, DetachmentID: 1}

	_, gen, ok, err := cache.GetPlace(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	want := competitiondomain.Ranked(competitiondomain.PoolTandem, 2)
	require.NoError(t, cache.SetPlace(ctx, key, gen, want))

	got, _, ok, err := cache.GetPlace(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, cache.Invalidate(ctx, 7, metric))
	_, _, ok, err = cache.GetPlace(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	other := competitionservice.PlaceKey{CompetitionID: 8, Metric: metric, DetachmentID: 1}
	_, otherGen, _, err := cache.GetPlace(ctx, other)
	require.NoError(t, err)
	require.NoError(t, cache.SetPlace(ctx, other, otherGen, want))
	require.NoError(t, cache.Invalidate(ctx, 7, metric))
	_, _, ok, err = cache.GetPlace(ctx, other)
	require.NoError(t, err)
	assert.True(t, ok, "invalidation is scoped to one competition")
}

func TestPlaceCache_Redis_WriteForSupersededGeneration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping redis test")
	}
	ctx := context.Background()
	client, err := NewClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	metric := competitiondomain.MetricID("q-" + uuid.NewString())
	cache := NewPlaceCache(client, time.Minute)
	key := competitionservice.PlaceKey{CompetitionID: 7, Metric: metric, DetachmentID: 1}

	_, gen, _, err := cache.GetPlace(ctx, key)
	require.NoError(t, err)

	// a recompute lands between the read and the fill
	require.NoError(t, cache.Invalidate(ctx, 7, metric))
	require.NoError(t, cache.SetPlace(ctx, key, gen, competitiondomain.Ranked(competitiondomain.PoolSolo, 3)))

	_, _, ok, err := cache.GetPlace(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
