// Package export renders audit records as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"consulthub/internal/audit/models"
)

const sheetName = "Audit"

var header = []any{
	"Occurred at", "Action", "Entity", "Record", "Actor", "Actor email", "Actor type",
	"Impersonated by", "Changed fields", "Description", "Request", "Client IP", "User agent",
}

// WriteXLSX writes records, in the given order, to w.
func WriteXLSX(w io.Writer, records []*models.Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row(r)); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush workbook: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func row(r *models.Record) []any {
	impersonator := ""
	if r.Impersonator != nil {
		impersonator = r.Impersonator.Name
	}
	return []any{
		r.OccurredAt.UTC().Format("2006-01-02 15:04:05"),
		string(r.Action),
		r.Entity,
		r.RecordID,
		r.Actor.Name,
		r.Actor.Email,
		string(r.Actor.Type),
		impersonator,
		strings.Join(r.ChangedFields, ", "),
		r.Description,
		r.RequestID,
		r.ClientIP,
		r.UserAgent,
	}
}
