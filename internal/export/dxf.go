package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/optimystic/internal/model"
)

// DXF layer names.
const (
	LayerBars   = "BARS"
	LayerCuts   = "CUTS"
	LayerLabels = "LABELS"
)

// Drawing geometry in mm. Bars are stacked downwards from the origin.
const (
	dxfBarHeight  = 40.0
	dxfBarSpacing = 100.0
	dxfTextHeight = 12.0
)

// WriteDXF draws the cut plan as a DXF file: one rectangle per bar, a cut
// line at every piece boundary and the item names as text.
func WriteDXF(w io.Writer, plan model.CutPlan) error {
	if len(plan.Bins) == 0 {
		return fmt.Errorf("no bars to export")
	}

	d, err := drawPlan(plan)
	if err != nil {
		return err
	}

	// The drawing only saves to a path, so stage it in a temp dir.
	dir, err := os.MkdirTemp("", "optimystic-dxf-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "plan.dxf")
	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save DXF: %w", err)
	}

	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open DXF: %w", err)
	}
	defer src.Close()

	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("failed to write DXF: %w", err)
	}
	return nil
}

func drawPlan(plan model.CutPlan) (*drawing.Drawing, error) {
	d := dxf.NewDrawing()
	layers := []struct {
		name string
		col  color.ColorNumber
	}{
		{LayerBars, dxf.DefaultColor},
		{LayerCuts, color.Red},
		{LayerLabels, color.Cyan},
	}
	for _, l := range layers {
		if _, err := d.AddLayer(l.name, l.col, dxf.DefaultLineType, false); err != nil {
			return nil, fmt.Errorf("failed to add layer %s: %w", l.name, err)
		}
	}

	for i, bin := range plan.Bins {
		if err := drawBar(d, bin, -float64(i)*dxfBarSpacing); err != nil {
			return nil, fmt.Errorf("failed to draw %s: %w", bin.DisplayID, err)
		}
	}
	return d, nil
}

// drawBar draws one bar with its bottom edge at y.
func drawBar(d *drawing.Drawing, bin model.BinPlan, y float64) error {
	length := bin.Stock.Length
	top := y + dxfBarHeight

	if err := d.ChangeLayer(LayerBars); err != nil {
		return err
	}
	if _, err := d.LwPolyline(true,
		[]float64{0, y},
		[]float64{length, y},
		[]float64{length, top},
		[]float64{0, top},
	); err != nil {
		return err
	}

	if err := d.ChangeLayer(LayerCuts); err != nil {
		return err
	}
	for _, x := range cutPositions(bin) {
		if _, err := d.Line(x, y, 0, x, top, 0); err != nil {
			return err
		}
	}

	if err := d.ChangeLayer(LayerLabels); err != nil {
		return err
	}
	title := fmt.Sprintf("%s: %s (%.0f mm)", bin.DisplayID, bin.Stock.Name, length)
	if _, err := d.Text(title, 0, top+dxfTextHeight/2, 0, dxfTextHeight); err != nil {
		return err
	}
	for _, seg := range bin.Segments {
		if seg.Kind != model.SegmentProduct {
			continue
		}
		text := fmt.Sprintf("%s %.0f", seg.Label, seg.Length)
		if _, err := d.Text(text, seg.Start+2, y+dxfBarHeight/2-dxfTextHeight/2, 0, dxfTextHeight); err != nil {
			return err
		}
	}
	return nil
}

// cutPositions returns the x offsets where the blade cuts: the end of every
// piece that is not flush with the bar end, and the far side of every kerf.
func cutPositions(bin model.BinPlan) []float64 {
	var xs []float64
	for _, seg := range bin.Segments {
		end := seg.Start + seg.Length
		switch seg.Kind {
		case model.SegmentProduct:
			if end < bin.Stock.Length-1e-9 {
				xs = append(xs, end)
			}
		case model.SegmentKerf:
			if seg.Length > 0 {
				xs = append(xs, end)
			}
		}
	}
	return xs
}
