package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consulthub/internal/audit/models"
	identitymodels "consulthub/internal/identity/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/tx"
)

func record(recID string, firm id.ConsultancyID, at time.Time, actor, description string) *models.Record {
	return &models.Record{
		ID:            recID,
		Action:        models.ActionInsert,
		Entity:        "client_companies",
		RecordID:      uuid.NewString(),
		Actor:         identitymodels.Actor{ID: "u1", Type: identitymodels.KindConsultant, Name: actor},
		ConsultancyID: firm,
		Description:   description,
		OccurredAt:    at,
	}
}

func TestQueryNewestFirstWithText(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	firm := id.ConsultancyID(uuid.New())
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(ctx, record("a", firm, base, "Carla", "created Acme")))
	require.NoError(t, s.Append(ctx, record("b", firm, base.Add(time.Hour), "Diego", "renamed Globex")))
	require.NoError(t, s.Append(ctx, record("c", id.ConsultancyID(uuid.New()), base, "Carla", "other tenant")))

	all, err := s.Query(ctx, models.Filter{ConsultancyID: firm})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)

	byText, err := s.Query(ctx, models.Filter{ConsultancyID: firm, Text: "ACME"})
	require.NoError(t, err)
	require.Len(t, byText, 1)
	assert.Equal(t, "a", byText[0].ID)

	paged, err := s.Query(ctx, models.Filter{ConsultancyID: firm, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "a", paged[0].ID)
}

func TestAppendRolledBack(t *testing.T) {
	s := NewInMemory()
	firm := id.ConsultancyID(uuid.New())

	err := tx.NewInMemory().RunInTx(context.Background(), func(ctx context.Context) error {
		require.NoError(t, s.Append(ctx, record("a", firm, time.Now(), "Carla", "")))
		return errors.New("mutation failed")
	})
	require.Error(t, err)

	all, err := s.Query(context.Background(), models.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
