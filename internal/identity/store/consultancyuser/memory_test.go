package consultancyuser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consulthub/internal/identity/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
	"consulthub/pkg/platform/tx"
)

func newConsultant(t *testing.T, subject string, consultancy id.ConsultancyID) *models.ConsultancyUser {
	u, err := models.NewConsultant(id.ConsultancyUserID(uuid.New()), id.SubjectID(subject), consultancy, "Carla", "carla@firm.io", time.Now())
	require.NoError(t, err)
	return u
}

func TestInMemoryFindBySubject(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	u := newConsultant(t, "idp|carla", id.ConsultancyID(uuid.New()))
	require.NoError(t, store.Create(ctx, u))

	found, err := store.FindBySubject(ctx, "idp|carla")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = store.FindBySubject(ctx, "idp|nobody")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	err = store.Create(ctx, newConsultant(t, "idp|carla", id.ConsultancyID(uuid.New())))
	assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
}

func TestInMemoryCreateRollsBackWithTransaction(t *testing.T) {
	store := NewInMemory()
	runner := tx.NewInMemory()
	u := newConsultant(t, "idp|temp", id.ConsultancyID(uuid.New()))

	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		require.NoError(t, store.Create(ctx, u))
		return errors.New("audit failed")
	})
	require.Error(t, err)

	_, err = store.FindByID(context.Background(), u.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryListByConsultancy(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	firm := id.ConsultancyID(uuid.New())
	require.NoError(t, store.Create(ctx, newConsultant(t, "idp|a", firm)))
	require.NoError(t, store.Create(ctx, newConsultant(t, "idp|b", id.ConsultancyID(uuid.New()))))

	users, err := store.ListByConsultancy(ctx, firm)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, id.SubjectID("idp|a"), users[0].SubjectID)
}
