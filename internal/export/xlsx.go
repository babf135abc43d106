package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/FitCheck/internal/model"
)

// Sheet names used by ExportExcel.
const (
	SheetSummary    = "Summary"
	SheetPlacements = "Placements"
)

// ExportExcel writes a workbook with a summary sheet and one row per object
// on the placements sheet. Objects without a pose leave the pose cells empty.
func ExportExcel(path string, result model.PackingResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetPlacements); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	summary := BuildSummary(result)
	summaryRows := [][]interface{}{
		{"Feasible", fmt.Sprintf("%t", summary.Feasible)},
		{"Reason", string(summary.Reason)},
		{"Container", summary.Container},
		{"Container Area", result.Container.Area},
		{"Objects", summary.Objects},
		{"Placed", summary.Placed},
		{"Utilization %", summary.Utilization},
		{"Poses Tried", summary.PosesTried},
		{"Failed Object", summary.FailedObject},
	}
	for i, row := range summaryRows {
		if err := setRow(f, SheetSummary, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", len(summaryRows)), bold); err != nil {
		return fmt.Errorf("failed to style summary: %w", err)
	}
	if err := f.SetColWidth(SheetSummary, "A", "B", 18); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	header := []interface{}{"#", "ID", "Label", "Area", "Diameter", "DX", "DY", "Angle"}
	if err := setRow(f, SheetPlacements, 1, header); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetPlacements, "A1", "H1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, o := range result.Objects {
		row := []interface{}{i + 1, o.ID, o.Label, o.Area, o.Diameter}
		if result.Feasible && i < len(result.Placements) {
			pose := result.Placements[i].Pose
			row = append(row, pose.DX, pose.DY, pose.Angle)
		}
		if err := setRow(f, SheetPlacements, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to create cell reference: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
