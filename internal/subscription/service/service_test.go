package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks SubscriptionStore,AuditRecorder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	auditmodels "consulthub/internal/audit/models"
	auditstore "consulthub/internal/audit/store"
	"consulthub/internal/audit/writer"
	identitymodels "consulthub/internal/identity/models"
	"consulthub/internal/subscription/models"
	"consulthub/internal/subscription/service/mocks"
	"consulthub/internal/subscription/store/payment"
	"consulthub/internal/subscription/store/plan"
	"consulthub/internal/subscription/store/subscription"
	tenantmodels "consulthub/internal/tenant/models"
	"consulthub/internal/tenant/store/consultancy"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/tx"
	"consulthub/pkg/requestcontext"
)

type SubscriptionServiceSuite struct {
	suite.Suite
	now           time.Time
	plans         []models.Plan
	subscriptions *subscription.InMemory
	payments      *payment.InMemory
	consultancies *consultancy.InMemory
	auditRecords  *auditstore.InMemory
	svc           *Service

	firm       id.ConsultancyID
	otherFirm  id.ConsultancyID
	superadmin identitymodels.PlatformSuperadmin
	consultant identitymodels.Consultant
}

func TestSubscriptionServiceSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.now = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	s.plans = plan.DefaultPlans()
	s.subscriptions = subscription.NewInMemory()
	s.payments = payment.NewInMemory()
	s.consultancies = consultancy.NewInMemory()
	s.auditRecords = auditstore.NewInMemory()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = New(plan.NewInMemory(), s.subscriptions, s.payments, s.consultancies,
		writer.New(s.auditRecords, writer.WithLogger(logger)), tx.NewInMemory(), WithLogger(logger))

	s.firm = s.seedConsultancy("People First")
	s.otherFirm = s.seedConsultancy("Talent Co")
	s.superadmin = identitymodels.PlatformSuperadmin{UserID: id.ConsultancyUserID(uuid.New()), Name: "Root"}
	s.consultant = identitymodels.Consultant{UserID: id.ConsultancyUserID(uuid.New()), ConsultancyID: s.firm, Name: "Carla"}
}

func (s *SubscriptionServiceSuite) seedConsultancy(name string) id.ConsultancyID {
	c, err := tenantmodels.NewConsultancy(id.ConsultancyID(uuid.New()), name, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.consultancies.Create(context.Background(), c))
	return c.ID
}

func (s *SubscriptionServiceSuite) as(p identitymodels.Principal) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	ctx = identitymodels.WithPrincipal(ctx, p)
	return requestcontext.WithTenantScope(ctx, p.Scope())
}

func (s *SubscriptionServiceSuite) selectStarter(cycle models.BillingCycle) *models.Subscription {
	sub, err := s.svc.SelectPlan(s.as(s.consultant), SelectPlanCommand{PlanID: s.plans[0].ID, Cycle: cycle})
	s.Require().NoError(err)
	return sub
}

func (s *SubscriptionServiceSuite) auditFor(entity string) []*auditmodels.Record {
	records, err := s.auditRecords.Query(context.Background(), auditmodels.Filter{})
	s.Require().NoError(err)
	var out []*auditmodels.Record
	for _, r := range records {
		if r.Entity == entity {
			out = append(out, r)
		}
	}
	return out
}

func (s *SubscriptionServiceSuite) TestStatusNoneBeforePlanSelection() {
	status, err := s.svc.Status(s.as(s.consultant), id.ConsultancyID{})
	s.Require().NoError(err)
	s.Equal(models.StatusNone, status)

	_, err = s.svc.Get(s.as(s.consultant), id.ConsultancyID{})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *SubscriptionServiceSuite) TestSelectPlanActivates() {
	sub := s.selectStarter(models.CycleMonthly)

	s.Equal(s.firm, sub.ConsultancyID)
	s.Equal(models.StatusActive, sub.Status)
	s.Equal(s.now.Add(30*24*time.Hour), sub.NextBillingAt)
	s.Equal(s.now.Add(7*24*time.Hour), sub.RefundEligibleUntil)
	s.True(s.plans[0].MonthlyPrice.Equal(sub.TotalCharge))

	payments, err := s.svc.Payments(s.as(s.consultant), id.ConsultancyID{})
	s.Require().NoError(err)
	s.Require().Len(payments, 1)
	s.Equal(models.PaymentPending, payments[0].Status)
	s.True(sub.TotalCharge.Equal(payments[0].Amount))

	s.Len(s.auditFor(entitySubscription), 1)
	s.Len(s.auditFor(entityPayment), 1)
	s.Empty(s.auditFor(entityConsultancy), "an already active consultancy is not rewritten")
}

func (s *SubscriptionServiceSuite) TestSelectingAgainReplacesTheRow() {
	first := s.selectStarter(models.CycleMonthly)

	later := s.now.Add(time.Hour)
	ctx := requestcontext.WithTime(s.as(s.consultant), later)
	second, err := s.svc.SelectPlan(ctx, SelectPlanCommand{PlanID: s.plans[1].ID, Cycle: models.CycleAnnual})
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	stored, err := s.subscriptions.FindByConsultancy(context.Background(), s.firm)
	s.Require().NoError(err)
	s.Equal(s.plans[1].ID, stored.PlanID)
	s.Equal(models.CycleAnnual, stored.BillingCycle)
	s.Equal(later.Add(365*24*time.Hour), stored.NextBillingAt)

	records := s.auditFor(entitySubscription)
	s.Require().Len(records, 2)
	s.Equal(auditmodels.ActionUpdate, records[0].Action)
	s.Contains(records[0].ChangedFields, "plan_id")
}

func (s *SubscriptionServiceSuite) TestSelectPlanValidation() {
	_, err := s.svc.SelectPlan(s.as(s.consultant), SelectPlanCommand{Cycle: "weekly"})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Contains(dErrors.FieldsOf(err), "plan_id")
	s.Contains(dErrors.FieldsOf(err), "billing_cycle")

	_, err = s.svc.SelectPlan(s.as(s.consultant), SelectPlanCommand{PlanID: id.PlanID(uuid.New()), Cycle: models.CycleMonthly})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.SelectPlan(s.as(s.consultant), SelectPlanCommand{ConsultancyID: s.otherFirm, PlanID: s.plans[0].ID, Cycle: models.CycleMonthly})
	s.True(dErrors.HasCode(err, dErrors.CodeTenantMismatch))

	_, err = s.svc.SelectPlan(s.as(s.superadmin), SelectPlanCommand{PlanID: s.plans[0].ID, Cycle: models.CycleMonthly})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *SubscriptionServiceSuite) TestSuspendAndReactivateMirrorConsultancy() {
	s.selectStarter(models.CycleMonthly)
	ctx := s.as(s.superadmin)

	_, err := s.svc.Suspend(ctx, s.firm, "  ")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.Suspend(s.as(s.consultant), s.firm, "self-service")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	sub, err := s.svc.Suspend(ctx, s.firm, "non-payment")
	s.Require().NoError(err)
	s.Equal(models.StatusSuspended, sub.Status)

	firm, err := s.consultancies.FindByID(context.Background(), s.firm)
	s.Require().NoError(err)
	s.Equal(tenantmodels.ConsultancyStatusSuspended, firm.Status)
	s.Equal("non-payment", firm.SuspensionReason)

	_, err = s.svc.Suspend(ctx, s.firm, "again")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	sub, err = s.svc.Reactivate(ctx, s.firm)
	s.Require().NoError(err)
	s.True(sub.IsActive())
	firm, err = s.consultancies.FindByID(context.Background(), s.firm)
	s.Require().NoError(err)
	s.True(firm.IsActive())

	s.Len(s.auditFor(entityConsultancy), 2)
}

func (s *SubscriptionServiceSuite) TestTransitionsWithoutSubscription() {
	_, err := s.svc.Suspend(s.as(s.superadmin), s.otherFirm, "fraud")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.svc.Cancel(s.as(s.superadmin), s.otherFirm)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *SubscriptionServiceSuite) TestPlanSelectionAfterCancelStartsNewInstance() {
	first := s.selectStarter(models.CycleMonthly)
	_, err := s.svc.Cancel(s.as(s.superadmin), s.firm)
	s.Require().NoError(err)

	firm, err := s.consultancies.FindByID(context.Background(), s.firm)
	s.Require().NoError(err)
	s.Equal(tenantmodels.ConsultancyStatusCanceled, firm.Status)

	second := s.selectStarter(models.CycleAnnual)
	s.NotEqual(first.ID, second.ID)
	s.True(second.IsActive())

	firm, err = s.consultancies.FindByID(context.Background(), s.firm)
	s.Require().NoError(err)
	s.True(firm.IsActive())
}

func (s *SubscriptionServiceSuite) TestSelectPlanCannotLiftSuspension() {
	s.selectStarter(models.CycleMonthly)
	suspended, err := s.svc.Suspend(s.as(s.superadmin), s.firm, "terms violation")
	s.Require().NoError(err)

	_, err = s.svc.SelectPlan(s.as(s.consultant), SelectPlanCommand{PlanID: s.plans[1].ID, Cycle: models.CycleAnnual})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	sub, err := s.subscriptions.FindByConsultancy(context.Background(), s.firm)
	s.Require().NoError(err)
	s.Equal(models.StatusSuspended, sub.Status)
	s.Equal("terms violation", sub.SuspensionReason)
	s.Equal(suspended.PlanID, sub.PlanID)

	firm, err := s.consultancies.FindByID(context.Background(), s.firm)
	s.Require().NoError(err)
	s.Equal(tenantmodels.ConsultancyStatusSuspended, firm.Status)
	s.Equal("terms violation", firm.SuspensionReason)

	_, err = s.svc.Reactivate(s.as(s.superadmin), s.firm)
	s.Require().NoError(err)
	sub = s.selectStarter(models.CycleAnnual)
	s.True(sub.IsActive())
}

func (s *SubscriptionServiceSuite) TestCompanyUsersCannotTouchSubscriptions() {
	viewer := identitymodels.CompanyUser{
		UserID:          id.CompanyUserID(uuid.New()),
		ClientCompanyID: id.ClientCompanyID(uuid.New()),
		ConsultancyID:   s.firm,
		Role:            tenantmodels.CompanyRoleAdmin,
		Active:          true,
	}
	_, err := s.svc.SelectPlan(s.as(viewer), SelectPlanCommand{PlanID: s.plans[0].ID, Cycle: models.CycleMonthly})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	plans, err := s.svc.ListPlans(s.as(viewer))
	s.Require().NoError(err)
	s.Len(plans, 3)
}

func (s *SubscriptionServiceSuite) TestAuditFailureRollsBackPlanSelection() {
	ctrl := gomock.NewController(s.T())
	recorder := mocks.NewMockAuditRecorder(ctrl)
	svc := New(plan.NewInMemory(), s.subscriptions, s.payments, s.consultancies, recorder, tx.NewInMemory())

	recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Return(&auditmodels.Record{}, nil)
	recorder.EXPECT().Record(gomock.Any(), gomock.Any()).
		Return(nil, &dErrors.Error{Code: dErrors.CodeAuditWriteFailure, Err: errors.New("disk full")})

	_, err := svc.SelectPlan(s.as(s.consultant), SelectPlanCommand{PlanID: s.plans[0].ID, Cycle: models.CycleMonthly})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeAuditWriteFailure))

	status, err := s.svc.Status(s.as(s.consultant), id.ConsultancyID{})
	s.Require().NoError(err)
	s.Equal(models.StatusNone, status)
	payments, err := s.payments.ListByConsultancy(context.Background(), s.firm)
	s.Require().NoError(err)
	s.Empty(payments)
}
