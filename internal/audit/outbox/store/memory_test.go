package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consulthub/internal/audit/outbox"
)

func TestInMemoryLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	base := time.Now()

	older := outbox.NewEntry("r1", outbox.EventRecorded, []byte(`{}`), base)
	newer := outbox.NewEntry("r2", outbox.EventRecorded, []byte(`{}`), base.Add(time.Second))
	require.NoError(t, s.Append(ctx, newer))
	require.NoError(t, s.Append(ctx, older))

	pending, err := s.FetchUnprocessed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "r1", pending[0].RecordID)

	require.NoError(t, s.MarkProcessed(ctx, older.ID, base))
	assert.Error(t, s.MarkProcessed(ctx, older.ID, base))

	count, err := s.CountPending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	deleted, err := s.DeleteProcessedBefore(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}
