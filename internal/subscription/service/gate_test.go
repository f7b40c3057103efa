package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	identitymodels "consulthub/internal/identity/models"
	"consulthub/internal/subscription/models"
	"consulthub/internal/subscription/service/mocks"
	"consulthub/internal/subscription/store/plan"
	"consulthub/internal/subscription/store/subscription"
	tenantmodels "consulthub/internal/tenant/models"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/httputil"
	"consulthub/pkg/platform/sentinel"
	"consulthub/pkg/platform/tx"
)

func TestGateCheck(t *testing.T) {
	store := subscription.NewInMemory()
	gate := NewGate(store, tx.NewInMemory())
	ctx := context.Background()
	firm := id.ConsultancyID(uuid.New())
	consultant := identitymodels.Consultant{UserID: id.ConsultancyUserID(uuid.New()), ConsultancyID: firm}

	t.Run("consultant without subscription is redirected", func(t *testing.T) {
		d, err := gate.Check(ctx, consultant)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, models.StatusNone, d.Status)
		assert.Equal(t, httputil.PlanSelectionPath, d.RedirectTo)
	})

	starter := plan.DefaultPlans()[0]
	sub, err := models.NewSubscription(id.SubscriptionID(uuid.New()), firm, &starter, models.CycleMonthly, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sub))

	t.Run("active subscription passes", func(t *testing.T) {
		d, err := gate.Check(ctx, consultant)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Empty(t, d.RedirectTo)
	})

	t.Run("suspended subscription is redirected, not denied", func(t *testing.T) {
		require.NoError(t, sub.Suspend("non-payment", time.Now()))
		require.NoError(t, store.Save(ctx, sub))

		d, err := gate.Check(ctx, consultant)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, models.StatusSuspended, d.Status)
	})

	t.Run("superadmins and company users are not gated", func(t *testing.T) {
		d, err := gate.Check(ctx, identitymodels.PlatformSuperadmin{UserID: id.ConsultancyUserID(uuid.New())})
		require.NoError(t, err)
		assert.True(t, d.Allowed)

		d, err = gate.Check(ctx, identitymodels.CompanyUser{ConsultancyID: firm, Role: tenantmodels.CompanyRoleViewer, Active: true})
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})
}

func TestGateCheckStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSubscriptionStore(ctrl)
	gate := NewGate(store, tx.NewInMemory())
	firm := id.ConsultancyID(uuid.New())

	store.EXPECT().FindByConsultancy(gomock.Any(), firm).Return(nil, errors.New("connection reset"))
	_, err := gate.Check(context.Background(), identitymodels.Consultant{ConsultancyID: firm})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))

	store.EXPECT().FindByConsultancy(gomock.Any(), firm).Return(nil, sentinel.ErrNotFound)
	d, err := gate.Check(context.Background(), identitymodels.Consultant{ConsultancyID: firm})
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}
