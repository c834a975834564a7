package cases

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/qaharness/api-test-framework/internal/util"
)

const (
	sheetResults = "Results"
	sheetSummary = "Summary"
)

// WriteXLSX saves the report as a workbook with a summary sheet and one row
// per case.
func (r *Report) WriteXLSX(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report dir: %w", err)
		}
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetResults); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	passed, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"C6EFCE"}},
	})
	if err != nil {
		return err
	}
	failed, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFC7CE"}},
	})
	if err != nil {
		return err
	}

	header := []any{"Case", "Result", "Status", "Duration (ms)", "Failures"}
	if err := f.SetSheetRow(sheetResults, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetResults, "A1", "E1", bold); err != nil {
		return err
	}

	for i, res := range r.Results {
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []any{res.Case, res.Outcome(), res.StatusCode, res.Duration.Milliseconds(), strings.Join(res.Failures, "\n")}
		if err := f.SetSheetRow(sheetResults, cell, &values); err != nil {
			return err
		}

		style := passed
		if !res.Passed && !res.Skipped {
			style = failed
		}
		resultCell, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellStyle(sheetResults, resultCell, resultCell, style); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheetResults, "A", "A", 32)
	_ = f.SetColWidth(sheetResults, "E", "E", 60)

	summary := [][]any{
		{"Suite", r.Suite},
		{"Environment", r.Env},
		{"Started", r.Started.Format(time.DateTime)},
		{"Duration (ms)", r.Duration.Milliseconds()},
		{"Total", len(r.Results)},
		{"Passed", r.Passed},
		{"Failed", r.Failed},
		{"Skipped", r.Skipped},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheetSummary, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return err
	}

	return f.SaveAs(path)
}

// Outcome is PASS, FAIL or SKIP.
func (r Result) Outcome() string {
	switch {
	case r.Skipped:
		return "SKIP"
	case r.Passed:
		return "PASS"
	default:
		return "FAIL"
	}
}

// DefaultReportPath names a report after the suite and the current time.
func DefaultReportPath(dir, suite string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.xlsx", suite, util.FileStamp(time.Now())))
}
