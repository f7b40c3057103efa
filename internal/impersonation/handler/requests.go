package handler

import (
	id "consulthub/pkg/domain"
	s "consulthub/pkg/string"
)

type BeginRequest struct {
	TargetSubjectID string `json:"target_subject_id" validate:"notblank,max=255"`
	Justification   string `json:"justification" validate:"notblank,max=2000"`
}

func (r *BeginRequest) Normalize() {
	s.TrimStrings(&r.TargetSubjectID, &r.Justification)
}

func (r *BeginRequest) target() id.SubjectID {
	return id.SubjectID(r.TargetSubjectID)
}
