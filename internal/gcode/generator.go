// Package gcode writes saw programs for cut plans. The X axis positions the
// blade along the bar, measured from the bar start; a Z stroke severs it.
package gcode

import (
	"fmt"
	"io"
	"strings"

	"github.com/piwi3910/optimystic/internal/model"
)

// Settings configures the saw.
type Settings struct {
	Profile     string  `json:"profile"`
	FeedRate    float64 `json:"feed_rate"`    // Blade stroke feed in mm/min
	BladeSpeed  int     `json:"blade_speed"`  // rpm
	StrokeDepth float64 `json:"stroke_depth"` // Z travel that cuts through the bar
	SafeZ       float64 `json:"safe_z"`       // Blade clearance above the bar
}

func DefaultSettings() Settings {
	return Settings{
		Profile:     "Grbl",
		FeedRate:    600,
		BladeSpeed:  3000,
		StrokeDepth: 60,
		SafeZ:       5,
	}
}

// Generator produces saw programs from a cut plan.
type Generator struct {
	Settings Settings
	profile  Profile
}

func New(settings Settings) *Generator {
	return &Generator{
		Settings: settings,
		profile:  GetProfile(settings.Profile),
	}
}

// CutPositions returns where the blade's leading edge goes down on a bar:
// the end of every piece that is not flush with the bar end.
func CutPositions(bin model.BinPlan) []float64 {
	var xs []float64
	for _, seg := range bin.Segments {
		if seg.Kind != model.SegmentProduct {
			continue
		}
		if end := seg.Start + seg.Length; end < bin.Stock.Length-1e-9 {
			xs = append(xs, end)
		}
	}
	return xs
}

// Generate produces one program for the whole plan. The machine pauses
// before every bar so the operator can load it.
func (g *Generator) Generate(plan model.CutPlan) string {
	var b strings.Builder

	g.writeHeader(&b, plan)
	for i, bin := range plan.Bins {
		g.writeBar(&b, bin, i+1)
	}
	g.writeFooter(&b)
	return b.String()
}

// WriteTo writes the program for plan to w.
func (g *Generator) WriteTo(w io.Writer, plan model.CutPlan) error {
	if len(plan.Bins) == 0 {
		return fmt.Errorf("no bars to cut")
	}
	if _, err := io.WriteString(w, g.Generate(plan)); err != nil {
		return fmt.Errorf("failed to write GCode: %w", err)
	}
	return nil
}

func (g *Generator) writeHeader(b *strings.Builder, plan model.CutPlan) {
	p := g.profile

	b.WriteString(g.comment("OptiMystic saw program"))
	b.WriteString(g.comment(fmt.Sprintf("Bars: %d, Pieces: %d, Kerf: %.1f mm", len(plan.Bins), plan.TotalPieces(), plan.Kerf)))
	b.WriteString(g.comment(fmt.Sprintf("Feed: %.0f mm/min, Stroke: %.1f mm", g.Settings.FeedRate, g.Settings.StrokeDepth)))
	b.WriteString(g.comment("Profile: " + p.Name))
	b.WriteString("\n")

	for _, code := range p.StartCode {
		b.WriteString(code + "\n")
	}
	if p.BladeStart != "" {
		b.WriteString(fmt.Sprintf(p.BladeStart+"\n", g.Settings.BladeSpeed))
	}
	b.WriteString(fmt.Sprintf("%s Z%s\n", p.RapidMove, g.format(g.Settings.SafeZ)))
	b.WriteString("\n")
}

func (g *Generator) writeBar(b *strings.Builder, bin model.BinPlan, idx int) {
	p := g.profile
	cuts := CutPositions(bin)

	b.WriteString(g.comment(fmt.Sprintf("--- Bar %d: %s, %s (%.1f mm), %d pieces, %d cuts ---",
		idx, bin.DisplayID, bin.Stock.Name, bin.Stock.Length, bin.PieceCount(), len(cuts))))
	if p.LoadPause != "" {
		b.WriteString(p.LoadPause + " " + g.comment("Load "+bin.Stock.Name))
	}

	for _, x := range cuts {
		b.WriteString(fmt.Sprintf("%s X%s\n", p.RapidMove, g.format(x)))
		b.WriteString(fmt.Sprintf("%s Z%s F%s\n", p.FeedMove, g.format(-g.Settings.StrokeDepth), g.format(g.Settings.FeedRate)))
		b.WriteString(fmt.Sprintf("%s Z%s\n", p.RapidMove, g.format(g.Settings.SafeZ)))
	}
	b.WriteString("\n")
}

func (g *Generator) writeFooter(b *strings.Builder) {
	p := g.profile

	b.WriteString(g.comment("=== Job complete ==="))
	for _, code := range p.EndCode {
		code = strings.ReplaceAll(code, "[SafeZ]", g.format(g.Settings.SafeZ))
		b.WriteString(code + "\n")
	}
	if p.BladeStop != "" {
		b.WriteString(p.BladeStop + "\n")
	}
}

func (g *Generator) comment(text string) string {
	return g.profile.CommentPrefix + " " + text + g.profile.CommentSuffix + "\n"
}

// format formats a coordinate according to the profile's decimal places.
func (g *Generator) format(v float64) string {
	format := fmt.Sprintf("%%.%df", g.profile.DecimalPlaces)
	return fmt.Sprintf(format, v)
}
