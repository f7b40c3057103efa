package scope

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consulthub/internal/workspace/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	scope := &models.Scope{
		Key:             "sess-1",
		ConsultancyID:   id.ConsultancyID(uuid.New()),
		ClientCompanyID: id.ClientCompanyID(uuid.New()),
		SelectedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, scope, 30*time.Minute))
	assert.True(t, mr.Exists("workspace:sess-1"))
	assert.Equal(t, 30*time.Minute, mr.TTL("workspace:sess-1"))

	got, err := store.Find(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, *scope, *got)

	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err = store.Find(ctx, "sess-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &models.Scope{
		Key:             "sess-1",
		ConsultancyID:   id.ConsultancyID(uuid.New()),
		ClientCompanyID: id.ClientCompanyID(uuid.New()),
		SelectedAt:      time.Now().UTC(),
	}, time.Minute))

	mr.FastForward(2 * time.Minute)
	_, err := store.Find(ctx, "sess-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	store, mr := setupRedisStore(t)
	require.NoError(t, mr.Set("workspace:sess-1", "{not json"))

	_, err := store.Find(context.Background(), "sess-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := setupRedisStore(t)
	mr.Close()

	_, err := store.Find(context.Background(), "sess-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, sentinel.ErrNotFound)
}
