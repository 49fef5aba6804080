package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/optimystic/internal/model"
)

// LabelInfo holds the data encoded into each piece label's QR code.
type LabelInfo struct {
	Item      string  `json:"item"`
	Length    float64 `json:"length_mm"`
	BarIndex  int     `json:"bar"`
	BarLabel  string  `json:"bar_label"`
	StockName string  `json:"stock"`
	Position  float64 `json:"position_mm"` // Offset of the piece from the bar start
	Sequence  int     `json:"seq"`         // 1-based piece number on the bar
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// WriteLabels renders a PDF sheet of QR-coded labels, one per cut piece.
func WriteLabels(w io.Writer, plan model.CutPlan) error {
	labels := CollectLabelInfos(plan)
	if len(labels) == 0 {
		return fmt.Errorf("no pieces to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, label); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.Item, err)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write labels: %w", err)
	}
	return nil
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d_%d", info.BarIndex, info.Sequence)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)

	item := info.Item
	if pdf.GetStringWidth(item) > textW {
		for len(item) > 0 && pdf.GetStringWidth(item+"...") > textW {
			item = item[:len(item)-1]
		}
		item += "..."
	}
	pdf.CellFormat(textW, 4.5, item, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("%.0f mm", info.Length), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	barInfo := fmt.Sprintf("%s (%s) #%d", info.BarLabel, info.StockName, info.Sequence)
	pdf.CellFormat(textW, 3, barInfo, "", 1, "L", false, 0, "")

	pdf.SetXY(textX, y+labelPadding+12.5)
	pdf.CellFormat(textW, 3, fmt.Sprintf("@ %.0f mm", info.Position), "", 0, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// CollectLabelInfos lists one label per product segment of the plan, bar by bar.
func CollectLabelInfos(plan model.CutPlan) []LabelInfo {
	var labels []LabelInfo
	for binIdx, bin := range plan.Bins {
		seq := 0
		for _, seg := range bin.Segments {
			if seg.Kind != model.SegmentProduct {
				continue
			}
			seq++
			labels = append(labels, LabelInfo{
				Item:      seg.Label,
				Length:    seg.Length,
				BarIndex:  binIdx + 1,
				BarLabel:  bin.DisplayID,
				StockName: bin.Stock.Name,
				Position:  seg.Start,
				Sequence:  seq,
			})
		}
	}
	return labels
}
