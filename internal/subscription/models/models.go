// Package models holds the subscription state machine of a consultancy.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
)

// Status is the current state of a consultancy's subscription. StatusNone
// means no subscription row exists.
type Status string

const (
	StatusNone      Status = "none"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusCanceled  Status = "canceled"
)

type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleAnnual  BillingCycle = "annual"
)

func (c BillingCycle) IsValid() bool {
	return c == CycleMonthly || c == CycleAnnual
}

// Period is the time between two billing dates.
func (c BillingCycle) Period() time.Duration {
	if c == CycleAnnual {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

// RefundWindow is how long after a plan selection a refund may be claimed.
const RefundWindow = 7 * 24 * time.Hour

type Plan struct {
	ID           id.PlanID       `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
	AnnualPrice  decimal.Decimal `json:"annual_price"`
	Active       bool            `json:"active"`
}

// PriceFor returns the charge for one billing period of cycle.
func (p *Plan) PriceFor(cycle BillingCycle) decimal.Decimal {
	if cycle == CycleAnnual {
		return p.AnnualPrice
	}
	return p.MonthlyPrice
}

// Subscription is the single subscription row of a consultancy.
type Subscription struct {
	ID                  id.SubscriptionID `json:"id"`
	ConsultancyID       id.ConsultancyID  `json:"consultancy_id"`
	PlanID              id.PlanID         `json:"plan_id"`
	Status              Status            `json:"status"`
	BillingCycle        BillingCycle      `json:"billing_cycle"`
	StartedAt           time.Time         `json:"started_at"`
	NextBillingAt       time.Time         `json:"next_billing_at"`
	RefundEligibleUntil time.Time         `json:"refund_eligible_until"`
	TotalCharge         decimal.Decimal   `json:"total_charge"`
	SuspensionReason    string            `json:"suspension_reason,omitempty"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// NewSubscription starts an active subscription on plan.
func NewSubscription(subscriptionID id.SubscriptionID, consultancyID id.ConsultancyID, plan *Plan, cycle BillingCycle, now time.Time) (*Subscription, error) {
	if consultancyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "subscription must belong to a consultancy")
	}
	s := &Subscription{ID: subscriptionID, ConsultancyID: consultancyID}
	if err := s.SelectPlan(plan, cycle, now); err != nil {
		return nil, err
	}
	return s, nil
}

// SelectPlan (re)starts the subscription on plan. It is allowed from any
// status and always leaves the subscription active; callers give a canceled
// subscription a new id first.
func (s *Subscription) SelectPlan(plan *Plan, cycle BillingCycle, now time.Time) error {
	if plan == nil || !plan.Active {
		return dErrors.New(dErrors.CodeInvariantViolation, "plan is not available")
	}
	if !cycle.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown billing cycle")
	}
	s.PlanID = plan.ID
	s.Status = StatusActive
	s.BillingCycle = cycle
	s.StartedAt = now
	s.NextBillingAt = now.Add(cycle.Period())
	s.RefundEligibleUntil = now.Add(RefundWindow)
	s.TotalCharge = plan.PriceFor(cycle)
	s.SuspensionReason = ""
	s.UpdatedAt = now
	return nil
}

func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// Suspend moves an active subscription to suspended. The reason is required.
func (s *Subscription) Suspend(reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return dErrors.NewValidation("suspension reason is required", map[string]string{"reason": "is required"})
	}
	if s.Status != StatusActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "only active subscriptions can be suspended")
	}
	s.Status = StatusSuspended
	s.SuspensionReason = reason
	s.UpdatedAt = now
	return nil
}

// Reactivate returns a suspended subscription to active.
func (s *Subscription) Reactivate(now time.Time) error {
	if s.Status != StatusSuspended {
		return dErrors.New(dErrors.CodeInvariantViolation, "only suspended subscriptions can be reactivated")
	}
	s.Status = StatusActive
	s.SuspensionReason = ""
	s.UpdatedAt = now
	return nil
}

// Cancel ends the subscription instance. Canceled is terminal; a later plan
// selection starts a new instance.
func (s *Subscription) Cancel(now time.Time) error {
	if s.Status == StatusCanceled {
		return dErrors.New(dErrors.CodeInvariantViolation, "subscription is already canceled")
	}
	s.Status = StatusCanceled
	s.SuspensionReason = ""
	s.UpdatedAt = now
	return nil
}

type PaymentStatus string

const PaymentPending PaymentStatus = "pending"

// Payment is the charge left for the external billing collaborator to settle.
type Payment struct {
	ID             id.PaymentID      `json:"id"`
	ConsultancyID  id.ConsultancyID  `json:"consultancy_id"`
	SubscriptionID id.SubscriptionID `json:"subscription_id"`
	Amount         decimal.Decimal   `json:"amount"`
	Status         PaymentStatus     `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
}

func NewPayment(paymentID id.PaymentID, sub *Subscription, now time.Time) *Payment {
	return &Payment{
		ID:             paymentID,
		ConsultancyID:  sub.ConsultancyID,
		SubscriptionID: sub.ID,
		Amount:         sub.TotalCharge,
		Status:         PaymentPending,
		CreatedAt:      now,
	}
}

// Decision is the outcome of a subscription gate check.
type Decision struct {
	Allowed    bool
	Status     Status
	RedirectTo string
}
