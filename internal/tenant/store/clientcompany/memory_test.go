package clientcompany

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consulthub/internal/tenant/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/platform/sentinel"
)

func newCompany(t *testing.T, consultancy id.ConsultancyID, name string) *models.ClientCompany {
	c, err := models.NewClientCompany(id.ClientCompanyID(uuid.New()), consultancy, models.ClientCompanyDetails{LegalName: name}, time.Now())
	require.NoError(t, err)
	return c
}

func TestListByConsultancy(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	firmA := id.ConsultancyID(uuid.New())
	firmB := id.ConsultancyID(uuid.New())

	beta := newCompany(t, firmA, "Beta")
	require.NoError(t, store.Create(ctx, beta))
	require.NoError(t, store.Create(ctx, newCompany(t, firmA, "Alpha")))
	require.NoError(t, store.Create(ctx, newCompany(t, firmB, "Gamma")))

	all, err := store.ListByConsultancy(ctx, firmA, models.ClientCompanyFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Alpha", all[0].LegalName)

	require.NoError(t, beta.Deactivate(time.Now()))
	require.NoError(t, store.Update(ctx, beta))
	active, err := store.ListByConsultancy(ctx, firmA, models.ClientCompanyFilter{Status: models.ClientCompanyStatusActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Alpha", active[0].LegalName)
}

func TestUpdateRejectsOwnershipChange(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	c := newCompany(t, id.ConsultancyID(uuid.New()), "Acme")
	require.NoError(t, store.Create(ctx, c))

	moved := *c
	moved.ConsultancyID = id.ConsultancyID(uuid.New())
	assert.ErrorIs(t, store.Update(ctx, &moved), sentinel.ErrInvalidState)
}

func TestFindByIDNotFound(t *testing.T) {
	_, err := NewInMemory().FindByID(context.Background(), id.ClientCompanyID(uuid.New()))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
