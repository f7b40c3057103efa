package scope

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consulthub/internal/workspace/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewInMemory()
	store.now = func() time.Time { return now }

	scope := &models.Scope{
		Key:             "sess-1",
		ConsultancyID:   id.ConsultancyID(uuid.New()),
		ClientCompanyID: id.ClientCompanyID(uuid.New()),
		SelectedAt:      now,
	}
	require.NoError(t, store.Save(ctx, scope, time.Hour))

	got, err := store.Find(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, *scope, *got)

	_, err = store.Find(ctx, "sess-2")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	now = now.Add(time.Hour)
	_, err = store.Find(ctx, "sess-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound, "expired pointers are gone")

	require.NoError(t, store.Save(ctx, scope, time.Hour))
	require.NoError(t, store.Delete(ctx, "sess-1"))
	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err = store.Find(ctx, "sess-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
