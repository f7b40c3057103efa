package handler

import (
	"consulthub/internal/subscription/models"
	"consulthub/internal/subscription/service"
	id "consulthub/pkg/domain"
	dErrors "consulthub/pkg/domain-errors"
	s "consulthub/pkg/string"
)

type SelectPlanRequest struct {
	// ConsultancyID is only honored for platform operators.
	ConsultancyID string `json:"consultancy_id,omitempty" validate:"omitempty,uuid"`
	PlanID        string `json:"plan_id" validate:"required,uuid"`
	BillingCycle  string `json:"billing_cycle" validate:"required,oneof=monthly annual"`
}

func (r *SelectPlanRequest) Normalize() {
	s.TrimStrings(&r.ConsultancyID, &r.PlanID, &r.BillingCycle)
}

func (r *SelectPlanRequest) toCommand() (service.SelectPlanCommand, error) {
	planID, err := id.ParsePlanID(r.PlanID)
	if err != nil {
		return service.SelectPlanCommand{}, dErrors.New(dErrors.CodeBadRequest, "invalid plan id")
	}
	cmd := service.SelectPlanCommand{PlanID: planID, Cycle: models.BillingCycle(r.BillingCycle)}
	if r.ConsultancyID != "" {
		cmd.ConsultancyID, err = id.ParseConsultancyID(r.ConsultancyID)
		if err != nil {
			return service.SelectPlanCommand{}, dErrors.New(dErrors.CodeBadRequest, "invalid consultancy id")
		}
	}
	return cmd, nil
}

type SuspendRequest struct {
	Reason string `json:"reason" validate:"notblank,max=1000"`
}

func (r *SuspendRequest) Normalize() {
	s.TrimStrings(&r.Reason)
}
