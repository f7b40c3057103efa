// Package service drives the subscription state machine of a consultancy and
// the gate that ties dashboard access to it. Every transition is written
// with its audit records and the consultancy status mirror in one
// transaction.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	auditmodels "consulthub/internal/audit/models"
	"consulthub/internal/audit/writer"
	identitymodels "consulthub/internal/identity/models"
	"consulthub/internal/subscription/models"
	tenantmodels "consulthub/internal/tenant/models"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	"consulthub/pkg/platform/sentinel"
	"consulthub/pkg/platform/tx"
	"consulthub/pkg/requestcontext"
)

type PlanStore interface {
	FindByID(ctx context.Context, planID id.PlanID) (*models.Plan, error)
	ListActive(ctx context.Context) ([]*models.Plan, error)
}

type SubscriptionStore interface {
	FindByConsultancy(ctx context.Context, consultancyID id.ConsultancyID) (*models.Subscription, error)
	Save(ctx context.Context, sub *models.Subscription) error
}

type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	ListByConsultancy(ctx context.Context, consultancyID id.ConsultancyID) ([]*models.Payment, error)
}

type ConsultancyStore interface {
	FindByID(ctx context.Context, consultancyID id.ConsultancyID) (*tenantmodels.Consultancy, error)
	Update(ctx context.Context, c *tenantmodels.Consultancy) error
}

// AuditRecorder writes the audit record of a governed mutation.
type AuditRecorder interface {
	Record(ctx context.Context, e writer.Entry) (*auditmodels.Record, error)
}

const (
	entitySubscription = "subscriptions"
	entityPayment      = "payments"
	entityConsultancy  = "consultancies"
)

// SelectPlanCommand picks a plan and billing cycle for a consultancy.
// Consultants may leave ConsultancyID empty to mean their own.
type SelectPlanCommand struct {
	ConsultancyID id.ConsultancyID
	PlanID        id.PlanID
	Cycle         models.BillingCycle
}

func (c SelectPlanCommand) Validate() error {
	fields := map[string]string{}
	if c.PlanID.IsNil() {
		fields["plan_id"] = "is required"
	}
	if !c.Cycle.IsValid() {
		fields["billing_cycle"] = "must be monthly or annual"
	}
	if len(fields) > 0 {
		return dErrors.NewValidation("invalid plan selection", fields)
	}
	return nil
}

type Service struct {
	plans         PlanStore
	subscriptions SubscriptionStore
	payments      PaymentStore
	consultancies ConsultancyStore
	audit         AuditRecorder
	tx            tx.Runner
	serviceConfig
}

func New(plans PlanStore, subscriptions SubscriptionStore, payments PaymentStore, consultancies ConsultancyStore,
	audit AuditRecorder, txRunner tx.Runner, opts ...Option) *Service {
	return &Service{
		plans:         plans,
		subscriptions: subscriptions,
		payments:      payments,
		consultancies: consultancies,
		audit:         audit,
		tx:            txRunner,
		serviceConfig: newConfig(opts),
	}
}

// ListPlans returns the selectable plans to any authenticated principal.
func (s *Service) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	if _, ok := identitymodels.FromContext(ctx); !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	var plans []*models.Plan
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		plans, err = s.plans.ListActive(ctx)
		return err
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list plans")
	}
	return plans, nil
}

// Get returns the consultancy's subscription, or NotFound when it never
// selected a plan.
func (s *Service) Get(ctx context.Context, consultancyID id.ConsultancyID) (*models.Subscription, error) {
	consultancyID, err := s.authorize(ctx, consultancyID, false)
	if err != nil {
		return nil, err
	}
	var sub *models.Subscription
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.subscriptions.FindByConsultancy(ctx, consultancyID)
		return err
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no subscription")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subscription")
	}
	return sub, nil
}

// Status returns the subscription status, StatusNone when there is no row.
func (s *Service) Status(ctx context.Context, consultancyID id.ConsultancyID) (models.Status, error) {
	sub, err := s.Get(ctx, consultancyID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return models.StatusNone, nil
		}
		return "", err
	}
	return sub.Status, nil
}

// SelectPlan starts or replaces the consultancy's subscription. It is the
// NONE to ACTIVE transition and the recovery path from CANCELED. A suspended
// subscription is a Conflict: only Reactivate lifts a suspension. A pending
// payment is recorded for the new charge.
func (s *Service) SelectPlan(ctx context.Context, cmd SelectPlanCommand) (*models.Subscription, error) {
	consultancyID, err := s.authorize(ctx, cmd.ConsultancyID, false)
	if err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	var sub *models.Subscription
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		plan, err := s.plans.FindByID(ctx, cmd.PlanID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.NewValidation("unknown plan", map[string]string{"plan_id": "does not exist"})
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load plan")
		}
		if !plan.Active {
			return dErrors.NewValidation("plan is not available", map[string]string{"plan_id": "is not available"})
		}

		existing, err := s.subscriptions.FindByConsultancy(ctx, consultancyID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subscription")
		}
		if existing != nil && existing.Status == models.StatusSuspended {
			return dErrors.New(dErrors.CodeConflict, "subscription is suspended; contact the platform operator")
		}

		entry := writer.Entry{
			Entity:        entitySubscription,
			ConsultancyID: consultancyID,
			Description:   "plan selected",
		}
		if existing == nil || existing.Status == models.StatusCanceled {
			sub, err = models.NewSubscription(id.SubscriptionID(uuid.New()), consultancyID, plan, cmd.Cycle, now)
			if err != nil {
				return err
			}
			entry.Action = auditmodels.ActionInsert
		} else {
			before := *existing
			sub = existing
			if err := sub.SelectPlan(plan, cmd.Cycle, now); err != nil {
				return err
			}
			entry.Action = auditmodels.ActionUpdate
			entry.Before = &before
		}
		entry.RecordID = sub.ID.String()
		entry.After = sub

		if err := s.subscriptions.Save(ctx, sub); err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				return s.mismatch(ctx)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save subscription")
		}
		if _, err := s.audit.Record(ctx, entry); err != nil {
			return err
		}

		payment := models.NewPayment(id.PaymentID(uuid.New()), sub, now)
		if err := s.payments.Create(ctx, payment); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record payment")
		}
		if _, err := s.audit.Record(ctx, writer.Entry{
			Action:        auditmodels.ActionInsert,
			Entity:        entityPayment,
			RecordID:      payment.ID.String(),
			ConsultancyID: consultancyID,
			After:         payment,
			Description:   "payment pending",
		}); err != nil {
			return err
		}

		return s.mirror(ctx, consultancyID, func(c *tenantmodels.Consultancy) error {
			c.Activate(now)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.transitioned(ctx, sub)
	return sub, nil
}

// Suspend moves an active subscription to suspended. Platform superadmins only.
func (s *Service) Suspend(ctx context.Context, consultancyID id.ConsultancyID, reason string) (*models.Subscription, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, dErrors.NewValidation("suspension reason is required", map[string]string{"reason": "is required"})
	}
	return s.transition(ctx, consultancyID, "subscription suspended",
		func(sub *models.Subscription, now time.Time) error { return sub.Suspend(reason, now) },
		func(c *tenantmodels.Consultancy, now time.Time) error { return c.Suspend(reason, now) },
	)
}

// Reactivate returns a suspended subscription to active. Platform superadmins only.
func (s *Service) Reactivate(ctx context.Context, consultancyID id.ConsultancyID) (*models.Subscription, error) {
	return s.transition(ctx, consultancyID, "subscription reactivated",
		func(sub *models.Subscription, now time.Time) error { return sub.Reactivate(now) },
		func(c *tenantmodels.Consultancy, now time.Time) error { c.Activate(now); return nil },
	)
}

// Cancel ends the current subscription instance. Platform superadmins only.
func (s *Service) Cancel(ctx context.Context, consultancyID id.ConsultancyID) (*models.Subscription, error) {
	return s.transition(ctx, consultancyID, "subscription canceled",
		func(sub *models.Subscription, now time.Time) error { return sub.Cancel(now) },
		func(c *tenantmodels.Consultancy, now time.Time) error { c.Cancel(now); return nil },
	)
}

// Payments lists the consultancy's payments, newest first.
func (s *Service) Payments(ctx context.Context, consultancyID id.ConsultancyID) ([]*models.Payment, error) {
	consultancyID, err := s.authorize(ctx, consultancyID, false)
	if err != nil {
		return nil, err
	}
	var payments []*models.Payment
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		payments, err = s.payments.ListByConsultancy(ctx, consultancyID)
		return err
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list payments")
	}
	return payments, nil
}

func (s *Service) transition(ctx context.Context, consultancyID id.ConsultancyID, description string,
	change func(*models.Subscription, time.Time) error, mirror func(*tenantmodels.Consultancy, time.Time) error) (*models.Subscription, error) {
	if _, err := s.authorize(ctx, consultancyID, true); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	var sub *models.Subscription
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.subscriptions.FindByConsultancy(ctx, consultancyID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeConflict, "consultancy has no subscription")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subscription")
		}
		before := *sub
		if err := change(sub, now); err != nil {
			return invariantToConflict(err)
		}
		if err := s.subscriptions.Save(ctx, sub); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save subscription")
		}
		if _, err := s.audit.Record(ctx, writer.Entry{
			Action:        auditmodels.ActionUpdate,
			Entity:        entitySubscription,
			RecordID:      sub.ID.String(),
			ConsultancyID: consultancyID,
			Before:        &before,
			After:         sub,
			Description:   description,
		}); err != nil {
			return err
		}
		return s.mirror(ctx, consultancyID, func(c *tenantmodels.Consultancy) error {
			return mirror(c, now)
		})
	})
	if err != nil {
		return nil, err
	}

	s.transitioned(ctx, sub)
	return sub, nil
}

// mirror applies change to the consultancy row and audits it. Unchanged
// consultancies produce no audit record.
func (s *Service) mirror(ctx context.Context, consultancyID id.ConsultancyID, change func(*tenantmodels.Consultancy) error) error {
	consultancy, err := s.consultancies.FindByID(ctx, consultancyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return s.mismatch(ctx)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load consultancy")
	}
	before := *consultancy
	if err := change(consultancy); err != nil {
		return invariantToConflict(err)
	}
	if before.Status == consultancy.Status && before.SuspensionReason == consultancy.SuspensionReason {
		return nil
	}
	if err := s.consultancies.Update(ctx, consultancy); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update consultancy")
	}
	_, err = s.audit.Record(ctx, writer.Entry{
		Action:        auditmodels.ActionUpdate,
		Entity:        entityConsultancy,
		RecordID:      consultancy.ID.String(),
		ConsultancyID: consultancy.ID,
		Before:        &before,
		After:         consultancy,
		Description:   "consultancy status " + string(consultancy.Status),
	})
	return err
}

// authorize resolves the consultancy a call acts on. Consultants act on
// their own consultancy only; superadmins must name one. operatorOnly
// restricts the call to superadmins.
func (s *Service) authorize(ctx context.Context, consultancyID id.ConsultancyID, operatorOnly bool) (id.ConsultancyID, error) {
	p, ok := identitymodels.FromContext(ctx)
	if !ok {
		return id.ConsultancyID{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	switch p := p.(type) {
	case identitymodels.PlatformSuperadmin:
		if consultancyID.IsNil() {
			return id.ConsultancyID{}, dErrors.NewValidation("consultancy is required", map[string]string{"consultancy_id": "is required"})
		}
		return consultancyID, nil
	case identitymodels.Consultant:
		if operatorOnly {
			return id.ConsultancyID{}, dErrors.New(dErrors.CodeForbidden, "only platform operators can change subscription status")
		}
		if !consultancyID.IsNil() && consultancyID != p.ConsultancyID {
			return id.ConsultancyID{}, s.mismatch(ctx)
		}
		return p.ConsultancyID, nil
	default:
		return id.ConsultancyID{}, dErrors.New(dErrors.CodeForbidden, "subscriptions are managed by the consultancy")
	}
}

func (s *Service) mismatch(ctx context.Context) error {
	s.logger.WarnContext(ctx, "tenant mismatch",
		"entity", entitySubscription,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.New(dErrors.CodeTenantMismatch, "record not available")
}

func (s *Service) transitioned(ctx context.Context, sub *models.Subscription) {
	if s.metrics != nil {
		s.metrics.IncTransition(string(sub.Status))
	}
	s.logger.InfoContext(ctx, "subscription transition",
		"consultancy_id", sub.ConsultancyID,
		"subscription_id", sub.ID,
		"status", sub.Status,
		"request_id", requestcontext.RequestID(ctx),
	)
}

func invariantToConflict(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return &dErrors.Error{Code: dErrors.CodeConflict, Message: err.Error(), Err: err}
	}
	return err
}
