package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consulthub/internal/platform/config"
)

func TestNewWithoutURLIsDisabled(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewRejectsMalformedURL(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{URL: "://nope"})
	assert.Error(t, err)
}

func TestNewFailsWhenServerIsDown(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	_, err := New(context.Background(), config.RedisConfig{URL: "redis://" + addr})
	assert.Error(t, err)
}

func TestHealthAndPoolStats(t *testing.T) {
	srv := miniredis.RunT(t)
	client, err := New(context.Background(), config.RedisConfig{URL: "redis://" + srv.Addr(), PoolSize: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Health(context.Background()))

	before := testutil.ToFloat64(poolEvents.WithLabelValues("hit"))
	client.RecordPoolStats()
	require.NoError(t, client.Health(context.Background()))
	client.RecordPoolStats()

	assert.Greater(t, testutil.ToFloat64(poolEvents.WithLabelValues("hit")), before)
	assert.GreaterOrEqual(t, testutil.ToFloat64(poolConns.WithLabelValues("total")), float64(1))
}
