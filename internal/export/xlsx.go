package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/optimystic/internal/analytics"
	"github.com/piwi3910/optimystic/internal/model"
)

// Sheet names of the exported workbook.
const (
	SheetCutPlan     = "Cut Plan"
	SheetFulfillment = "Fulfillment"
	SheetVariables   = "Variables"
	SheetConstraints = "Constraints"
)

// WriteXLSX writes the solve result as a workbook. The cut plan and
// fulfillment sheets are only present when the result carries a plan.
func WriteXLSX(w io.Writer, res model.SolveResult) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6E6"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	var sheets []sheetData
	if res.Plan != nil {
		sheets = append(sheets, cutPlanSheet(*res.Plan), fulfillmentSheet(*res.Plan))
	}
	sheets = append(sheets, variablesSheet(res), constraintsSheet(res))

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", s.name, err)
		}
		if err := s.write(f, header); err != nil {
			return fmt.Errorf("failed to fill sheet %q: %w", s.name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

type sheetData struct {
	name   string
	header []string
	rows   [][]any
	widths []float64
}

func (s sheetData) write(f *excelize.File, style int) error {
	if err := f.SetSheetRow(s.name, "A1", toAny(s.header)); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(s.header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", last, style); err != nil {
		return err
	}
	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}
	for i, width := range s.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.name, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func toAny(header []string) *[]any {
	out := make([]any, len(header))
	for i, h := range header {
		out[i] = h
	}
	return &out
}

func cutPlanSheet(plan model.CutPlan) sheetData {
	s := sheetData{
		name:   SheetCutPlan,
		header: []string{"Stock", "Plan", "Usage", "Used (mm)", "Kerf (mm)", "Waste (mm)"},
		widths: []float64{14, 60, 10, 12, 12, 12},
	}
	for i, r := range analytics.Rows(plan) {
		b := plan.Bins[i]
		s.rows = append(s.rows, []any{r.Stock, r.Plan, r.Usage, b.UsedLength, b.KerfLength, b.WasteLength})
	}
	return s
}

func fulfillmentSheet(plan model.CutPlan) sheetData {
	s := sheetData{
		name:   SheetFulfillment,
		header: []string{"Item", "Demand", "Produced", "Shortfall", "Surplus"},
		widths: []float64{24, 12, 12, 12, 12},
	}
	for _, x := range plan.Fulfillment {
		s.rows = append(s.rows, []any{x.Item, x.Demand, x.Produced, x.Shortfall, x.Surplus})
	}
	fin := plan.Financials
	s.rows = append(s.rows,
		[]any{},
		[]any{"Revenue", fin.Revenue},
		[]any{"Material Cost", fin.MaterialCost},
		[]any{"Scrap Value", fin.ScrapValue},
		[]any{"Blade Loss Value", fin.BladeLossValue},
		[]any{"Profit", fin.Profit},
	)
	return s
}

func variablesSheet(res model.SolveResult) sheetData {
	s := sheetData{
		name:   SheetVariables,
		header: []string{"Variable", "Value"},
		widths: []float64{28, 14},
	}
	for _, v := range res.Variables {
		s.rows = append(s.rows, []any{v.Variable, v.Value})
	}
	return s
}

func constraintsSheet(res model.SolveResult) sheetData {
	s := sheetData{
		name:   SheetConstraints,
		header: []string{"Constraint", "Shadow Price", "Slack"},
		widths: []float64{28, 14, 14},
	}
	for _, c := range res.Constraints {
		s.rows = append(s.rows, []any{c.Constraint, c.ShadowPrice, c.Slack})
	}
	return s
}
