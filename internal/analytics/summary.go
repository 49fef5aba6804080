package analytics

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/piwi3910/optimystic/internal/model"
)

// PlanRow is one line of the cut list table.
type PlanRow struct {
	Stock string `json:"Stock"`
	Plan  string `json:"Plan"`
	Usage string `json:"Usage"`
}

// Rows renders the cut list: one row per bar naming the stock and the
// pieces cut from it, e.g. "Long_Bar: Shelf_Top (2), Coaster (6)".
func Rows(plan model.CutPlan) []PlanRow {
	return lo.Map(plan.Bins, func(b model.BinPlan, _ int) PlanRow {
		cuts := lo.Map(b.Cuts, func(c model.CutCount, _ int) string {
			return fmt.Sprintf("%s (%d)", c.Name, c.Count)
		})
		return PlanRow{
			Stock: b.DisplayID,
			Plan:  b.Stock.Name + ": " + strings.Join(cuts, ", "),
			Usage: fmt.Sprintf("%.1f%%", b.Usage()),
		}
	})
}

// Insight summarises a plan in a few sentences for the result panel.
func Insight(plan model.CutPlan, sense model.Sense) string {
	if len(plan.Bins) == 0 {
		return "No bars are cut."
	}
	var b strings.Builder
	byStock := lo.CountValuesBy(plan.Bins, func(bin model.BinPlan) string { return bin.Stock.Name })
	parts := make([]string, 0, len(byStock))
	for _, name := range lo.Uniq(lo.Map(plan.Bins, func(bin model.BinPlan, _ int) string { return bin.Stock.Name })) {
		parts = append(parts, fmt.Sprintf("%d x %s", byStock[name], name))
	}
	fmt.Fprintf(&b, "Cut %d pieces from %d bars (%s) at %.1f%% material usage.",
		plan.TotalPieces(), len(plan.Bins), strings.Join(parts, ", "), plan.TotalEfficiency())

	f := plan.Financials
	if sense == model.SenseMaximize {
		fmt.Fprintf(&b, " Revenue %.2f against material cost %.2f leaves a profit of %.2f.", f.Revenue, f.MaterialCost, f.Profit)
	} else {
		fmt.Fprintf(&b, " Material cost %.2f, of which %.2f is scrap and %.2f blade loss.", f.MaterialCost, f.ScrapValue, f.BladeLossValue)
	}

	short := lo.Filter(plan.Fulfillment, func(x model.Fulfillment, _ int) bool { return x.Shortfall > 0 })
	if len(short) > 0 {
		names := lo.Map(short, func(x model.Fulfillment, _ int) string {
			return fmt.Sprintf("%s (%g short)", x.Item, x.Shortfall)
		})
		fmt.Fprintf(&b, " Not fully supplied: %s.", strings.Join(names, ", "))
	}
	if len(plan.Remnants) > 0 {
		fmt.Fprintf(&b, " %d reusable remnants totalling %.0f mm.", len(plan.Remnants), model.TotalRemnantLength(plan.Remnants))
	}
	return b.String()
}
