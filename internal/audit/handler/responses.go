package handler

import "consulthub/internal/audit/models"

type RecordListResponse struct {
	Records []*models.Record `json:"records"`
	Count   int              `json:"count"`
}
