// Package export renders cut plans and solve results to PDF, label sheets,
// spreadsheets and DXF drawings.
package export

import (
	"fmt"
	"io"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/optimystic/internal/analytics"
	"github.com/piwi3910/optimystic/internal/model"
)

// partColor represents an RGB color for a cut piece.
type partColor struct {
	R, G, B int
}

// partColors is indexed by item so every piece of an item shares a color.
var partColors = []partColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

var (
	kerfColor  = partColor{R: 60, G: 60, B: 60}
	wasteColor = partColor{R: 210, G: 180, B: 140}
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 5.0
	barHeight    = 12.0
	barSpacing   = 26.0 // Title line, bar and dimension line
	barsPerPage  = 6
)

// WritePDF renders the cut plan as a PDF report: bar diagrams, several bars
// per page, followed by a summary page with financials and fulfillment.
func WritePDF(w io.Writer, plan model.CutPlan, settings model.CutSettings) error {
	if len(plan.Bins) == 0 {
		return fmt.Errorf("no bars to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	colors := newPalette(plan)
	pages := (len(plan.Bins) + barsPerPage - 1) / barsPerPage
	for page := 0; page < pages; page++ {
		pdf.AddPage()
		renderBarsPage(pdf, plan, colors, page, pages)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, plan, settings)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// palette assigns each item a color in order of first appearance in the plan.
type palette struct {
	names  []string
	colors map[string]partColor
}

func newPalette(plan model.CutPlan) palette {
	p := palette{colors: make(map[string]partColor)}
	for _, b := range plan.Bins {
		for _, c := range b.Cuts {
			if _, ok := p.colors[c.Name]; !ok {
				p.colors[c.Name] = partColors[len(p.names)%len(partColors)]
				p.names = append(p.names, c.Name)
			}
		}
	}
	return p
}

// renderBarsPage draws up to barsPerPage bars of the plan on the current page.
func renderBarsPage(pdf *fpdf.Fpdf, plan model.CutPlan, colors palette, page, pages int) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Cut Plan (page %d of %d)", page+1, pages)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	// All bars share one scale so their lengths compare visually.
	longest := 0.0
	for _, b := range plan.Bins {
		longest = math.Max(longest, b.Stock.Length)
	}
	drawWidth := pageWidth - marginLeft - marginRight
	scale := drawWidth / longest

	start := page * barsPerPage
	end := min(start+barsPerPage, len(plan.Bins))
	y := drawAreaTop
	for _, bin := range plan.Bins[start:end] {
		renderBar(pdf, bin, colors, scale, y)
		y += barSpacing
	}

	drawLegend(pdf, colors, pageHeight-marginBottom-6)
}

// renderBar draws one bar strip with its segments at vertical offset y.
func renderBar(pdf *fpdf.Fpdf, bin model.BinPlan, colors palette, scale, y float64) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	title := fmt.Sprintf("%s: %s (%.0f mm)", bin.DisplayID, bin.Stock.Name, bin.Stock.Length)
	pdf.CellFormat(120, 5, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	stats := fmt.Sprintf("Pieces: %d | Used: %.0f mm | Kerf: %.0f mm | Waste: %.0f mm | Usage: %.1f%%",
		bin.PieceCount(), bin.UsedLength, bin.KerfLength, bin.WasteLength, bin.Usage())
	pdf.CellFormat(pageWidth-marginLeft-marginRight-120, 5, stats, "", 0, "R", false, 0, "")

	top := y + 6
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.4)
	pdf.SetFillColor(wasteColor.R, wasteColor.G, wasteColor.B)
	pdf.Rect(marginLeft, top, bin.Stock.Length*scale, barHeight, "FD")

	for _, seg := range bin.Segments {
		sx := marginLeft + seg.Start*scale
		sw := seg.Length * scale
		switch seg.Kind {
		case model.SegmentProduct:
			col := colors.colors[seg.Label]
			pdf.SetFillColor(col.R, col.G, col.B)
			pdf.SetDrawColor(30, 30, 30)
			pdf.SetLineWidth(0.2)
			pdf.Rect(sx, top, sw, barHeight, "FD")
			drawSegmentLabel(pdf, seg, sx, top, sw)
		case model.SegmentKerf:
			pdf.SetFillColor(kerfColor.R, kerfColor.G, kerfColor.B)
			pdf.Rect(sx, top, math.Max(sw, 0.2), barHeight, "F")
		case model.SegmentWaste:
			drawHatchPattern(pdf, sx, top, sw, barHeight)
		}
	}

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(80, 80, 80)
	lengthLabel := fmt.Sprintf("%.0f mm", bin.Stock.Length)
	lw := pdf.GetStringWidth(lengthLabel)
	pdf.SetXY(marginLeft+bin.Stock.Length*scale-lw, top+barHeight+0.5)
	pdf.CellFormat(lw, 3.5, lengthLabel, "", 0, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// drawSegmentLabel writes the item name and length inside a product segment
// when it fits.
func drawSegmentLabel(pdf *fpdf.Fpdf, seg model.Segment, x, y, w float64) {
	if w < 10 {
		return
	}
	pdf.SetFont("Helvetica", "", labelFontSize(w, barHeight))
	pdf.SetTextColor(0, 0, 0)

	label := seg.Label
	dims := fmt.Sprintf("%.0f", seg.Length)
	labelW := pdf.GetStringWidth(label)
	dimsW := pdf.GetStringWidth(dims)

	if labelW < w-2 {
		pdf.SetXY(x+(w-labelW)/2, y+barHeight/2-4)
		pdf.CellFormat(labelW, 4, label, "", 0, "C", false, 0, "")
	}
	if dimsW < w-2 {
		pdf.SetXY(x+(w-dimsW)/2, y+barHeight/2)
		pdf.CellFormat(dimsW, 4, dims, "", 0, "C", false, 0, "")
	}
}

// drawHatchPattern draws diagonal lines inside a rectangle to mark scrap.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(150, 110, 70)
	pdf.SetLineWidth(0.15)

	spacing := 3.0
	maxDist := w + h

	for d := spacing; d < maxDist; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)

		pdf.Line(x1, y1, x2, y2)
	}
}

// drawLegend renders the item color swatches along the bottom of the page.
func drawLegend(pdf *fpdf.Fpdf, colors palette, startY float64) {
	if len(colors.names) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(20, 4, "Items:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 22
	maxX := pageWidth - marginRight

	swatch := func(name string, col partColor) {
		labelW := pdf.GetStringWidth(name) + 6
		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, name, "", 0, "L", false, 0, "")
		xPos += labelW + 2
	}
	for _, name := range colors.names {
		swatch(name, colors.colors[name])
	}
	swatch("Kerf", kerfColor)
	swatch("Waste", wasteColor)
}

type summaryItem struct {
	label string
	value string
}

// renderSummaryPage draws the final page with totals, financials,
// fulfillment and the cut list.
func renderSummaryPage(pdf *fpdf.Fpdf, plan model.CutPlan, settings model.CutSettings) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Cut Plan Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	f := plan.Financials
	left := []summaryItem{
		{"Bars Used", fmt.Sprintf("%d", len(plan.Bins))},
		{"Pieces Cut", fmt.Sprintf("%d", plan.TotalPieces())},
		{"Material Usage", fmt.Sprintf("%.1f%%", plan.TotalEfficiency())},
		{"Kerf Width", fmt.Sprintf("%.1f mm", settings.Kerf)},
		{"Objective", string(settings.Sense)},
	}
	right := []summaryItem{
		{"Revenue", fmt.Sprintf("%.2f", f.Revenue)},
		{"Material Cost", fmt.Sprintf("%.2f", f.MaterialCost)},
		{"Scrap Value", fmt.Sprintf("%.2f", f.ScrapValue)},
		{"Blade Loss Value", fmt.Sprintf("%.2f", f.BladeLossValue)},
		{"Profit", fmt.Sprintf("%.2f", f.Profit)},
	}

	y := marginTop + 18
	renderSummaryBlock(pdf, "Overall Statistics", left, marginLeft, y)
	renderSummaryBlock(pdf, "Financials", right, marginLeft+135, y)
	y += 9 + float64(len(left))*7 + 5

	y = renderFulfillmentTable(pdf, plan.Fulfillment, y)
	y = renderCutList(pdf, plan, y+6)

	if len(plan.Warnings) > 0 && y < pageHeight-marginBottom-20 {
		y += 6
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNINGS", "", 0, "L", false, 0, "")
		y += 8
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, w := range plan.Warnings {
			if y > pageHeight-marginBottom-8 {
				break
			}
			pdf.SetXY(marginLeft+5, y)
			pdf.CellFormat(250, 5, "- "+w, "", 0, "L", false, 0, "")
			y += 5
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by OptiMystic - Cutting Stock Optimizer", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func renderSummaryBlock(pdf *fpdf.Fpdf, title string, items []summaryItem, x, y float64) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(x, y)
	pdf.CellFormat(100, 7, title, "", 0, "L", false, 0, "")
	y += 9

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		pdf.SetXY(x+5, y)
		pdf.CellFormat(50, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}
}

// renderFulfillmentTable draws demand against production per item and
// returns the y position below the table.
func renderFulfillmentTable(pdf *fpdf.Fpdf, rows []model.Fulfillment, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Fulfillment", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{70, 35, 35, 35, 35}
	headers := []string{"Item", "Demand", "Produced", "Shortfall", "Surplus"}
	y = tableHeader(pdf, colWidths, headers, y)

	pdf.SetFont("Helvetica", "", 9)
	for i, r := range rows {
		cells := []string{
			r.Item,
			fmt.Sprintf("%g", r.Demand),
			fmt.Sprintf("%d", r.Produced),
			fmt.Sprintf("%g", r.Shortfall),
			fmt.Sprintf("%g", r.Surplus),
		}
		y = tableRow(pdf, colWidths, cells, i, y)
	}
	return y
}

// renderCutList draws one row per bar until the page runs out.
func renderCutList(pdf *fpdf.Fpdf, plan model.CutPlan, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Cut List", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{30, 200, 35}
	y = tableHeader(pdf, colWidths, []string{"Stock", "Plan", "Usage"}, y)

	pdf.SetFont("Helvetica", "", 9)
	rows := analytics.Rows(plan)
	for i, r := range rows {
		if y > pageHeight-marginBottom-12 {
			pdf.SetXY(marginLeft, y)
			pdf.CellFormat(200, 5, fmt.Sprintf("... %d more bars", len(rows)-i), "", 0, "L", false, 0, "")
			y += 5
			break
		}
		y = tableRow(pdf, colWidths, []string{r.Stock, r.Plan, r.Usage}, i, y)
	}
	return y
}

func tableHeader(pdf *fpdf.Fpdf, colWidths []float64, headers []string, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	return y + 6
}

func tableRow(pdf *fpdf.Fpdf, colWidths []float64, cells []string, row int, y float64) float64 {
	if row%2 == 0 {
		pdf.SetFillColor(245, 245, 245)
	} else {
		pdf.SetFillColor(255, 255, 255)
	}
	xPos := marginLeft
	for j, cell := range cells {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
		xPos += colWidths[j]
	}
	return y + 6
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}
