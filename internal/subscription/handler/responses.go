package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"consulthub/internal/subscription/models"
)

type PlanResponse struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
	AnnualPrice  decimal.Decimal `json:"annual_price"`
}

type PlanListResponse struct {
	Plans []PlanResponse `json:"plans"`
}

// SubscriptionResponse reports status "none" with no other fields when the
// consultancy never selected a plan.
type SubscriptionResponse struct {
	ID                  string              `json:"id,omitempty"`
	ConsultancyID       string              `json:"consultancy_id,omitempty"`
	PlanID              string              `json:"plan_id,omitempty"`
	Status              models.Status       `json:"status"`
	BillingCycle        models.BillingCycle `json:"billing_cycle,omitempty"`
	StartedAt           *time.Time          `json:"started_at,omitempty"`
	NextBillingAt       *time.Time          `json:"next_billing_at,omitempty"`
	RefundEligibleUntil *time.Time          `json:"refund_eligible_until,omitempty"`
	TotalCharge         *decimal.Decimal    `json:"total_charge,omitempty"`
	SuspensionReason    string              `json:"suspension_reason,omitempty"`
}

type PaymentResponse struct {
	ID             string               `json:"id"`
	SubscriptionID string               `json:"subscription_id"`
	Amount         decimal.Decimal      `json:"amount"`
	Status         models.PaymentStatus `json:"status"`
	CreatedAt      time.Time            `json:"created_at"`
}

type PaymentListResponse struct {
	Payments []PaymentResponse `json:"payments"`
	Count    int               `json:"count"`
}

func toPlanListResponse(plans []*models.Plan) PlanListResponse {
	out := PlanListResponse{Plans: make([]PlanResponse, 0, len(plans))}
	for _, p := range plans {
		out.Plans = append(out.Plans, PlanResponse{
			ID:           p.ID.String(),
			Code:         p.Code,
			Name:         p.Name,
			MonthlyPrice: p.MonthlyPrice,
			AnnualPrice:  p.AnnualPrice,
		})
	}
	return out
}

func toSubscriptionResponse(sub *models.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:                  sub.ID.String(),
		ConsultancyID:       sub.ConsultancyID.String(),
		PlanID:              sub.PlanID.String(),
		Status:              sub.Status,
		BillingCycle:        sub.BillingCycle,
		StartedAt:           &sub.StartedAt,
		NextBillingAt:       &sub.NextBillingAt,
		RefundEligibleUntil: &sub.RefundEligibleUntil,
		TotalCharge:         &sub.TotalCharge,
		SuspensionReason:    sub.SuspensionReason,
	}
}

func toPaymentListResponse(payments []*models.Payment) PaymentListResponse {
	out := PaymentListResponse{Payments: make([]PaymentResponse, 0, len(payments)), Count: len(payments)}
	for _, p := range payments {
		out.Payments = append(out.Payments, PaymentResponse{
			ID:             p.ID.String(),
			SubscriptionID: p.SubscriptionID.String(),
			Amount:         p.Amount,
			Status:         p.Status,
			CreatedAt:      p.CreatedAt,
		})
	}
	return out
}
