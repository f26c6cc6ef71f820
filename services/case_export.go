package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"claims_app_go/models"

	"github.com/xuri/excelize/v2"
)

const (
	sheetCases    = "Cases"
	importDateFmt = "2006-01-02"
)

var summaryHeaders = []string{
	"Claim Number", "Title", "Status", "Policy Number", "Handler", "Event Date",
	"Claimed", "Reserve", "Settled", "Participants", "Documents", "Messages", "Updated",
}

// ExportCaseSummariesXLSX writes the list-view projection to a workbook
func ExportCaseSummariesXLSX(summaries []CaseSummary) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetCases)

	for i, h := range summaryHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetCases, cell, h)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	lastHeader, _ := excelize.CoordinatesToCellName(len(summaryHeaders), 1)
	f.SetCellStyle(sheetCases, "A1", lastHeader, headerStyle)

	for r, s := range summaries {
		row := []interface{}{
			s.ClaimNumber,
			derefString(s.Title),
			s.Status,
			derefString(s.PolicyNumber),
			derefString(s.HandlerID),
			formatDate(s.EventDate),
			minorToMajor(s.ClaimedAmount),
			minorToMajor(s.ReserveAmount),
			minorToMajor(s.SettledAmount),
			s.ParticipantCount,
			s.DocumentCount,
			s.MessageCount,
			s.UpdatedAt.Format(time.RFC3339),
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheetCases, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	f.SetColWidth(sheetCases, "A", "B", 24)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	return buf, nil
}

// ImportResult summarises a spreadsheet import
type ImportResult struct {
	TotalProcessed int      `json:"total_processed"`
	SuccessCount   int      `json:"success_count"`
	FailedCount    int      `json:"failed_count"`
	Errors         []string `json:"errors,omitempty"`
	CreatedIDs     []string `json:"created_ids,omitempty"`
}

// ImportCasesXLSX creates one case per row of the first sheet.
// Columns: claim number (blank generates one), title, policy number, status,
// handler id, handler email, event date (YYYY-MM-DD). Row 1 is a header.
func (s *CaseService) ImportCasesXLSX(ctx context.Context, file io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, invalid("file", "is not a readable workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, invalid("file", "has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	result := &ImportResult{}
	for i, row := range rows {
		if i == 0 || isBlankRow(row) {
			continue
		}
		result.TotalProcessed++

		seed, err := seedFromRow(row)
		if err == nil {
			var created *models.Case
			if created, err = s.CreateCase(ctx, seed); err == nil {
				result.CreatedIDs = append(result.CreatedIDs, created.ID)
			}
		}
		if err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

func seedFromRow(row []string) (CaseSeed, error) {
	col := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	seed := CaseSeed{
		ClaimNumber:  col(0),
		Title:        optionalString(col(1)),
		PolicyNumber: optionalString(col(2)),
		Status:       strings.ToUpper(col(3)),
		HandlerID:    optionalString(col(4)),
		HandlerEmail: optionalString(col(5)),
	}
	if raw := col(6); raw != "" {
		eventDate, err := time.Parse(importDateFmt, raw)
		if err != nil {
			return seed, invalid("event_date", fmt.Sprintf("%q is not a YYYY-MM-DD date", raw))
		}
		seed.EventDate = &eventDate
	}
	return seed, nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(importDateFmt)
}

func minorToMajor(amount int64) float64 {
	return float64(amount) / 100
}
