package engine

import (
	"context"
	"fmt"

	"github.com/piwi3910/optimystic/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string            `json:"name"`
	Settings model.CutSettings `json:"settings"`
}

// ComparisonResult holds the outcome and headline figures of one scenario.
type ComparisonResult struct {
	Scenario     ComparisonScenario `json:"scenario"`
	Status       string             `json:"status"`
	Objective    float64            `json:"objective"`
	BarsUsed     int                `json:"bars_used"`
	TotalPieces  int                `json:"total_pieces"`
	WastePercent float64            `json:"waste_percent"`
	MaterialCost float64            `json:"material_cost"`
	Profit       float64            `json:"profit"`
	Shortfall    float64            `json:"shortfall"` // Pieces missing across all items
	ErrorMsg     string             `json:"error_msg,omitempty"`
}

// CompareScenarios solves the same order under each scenario's settings, in
// scenario order. Scenarios run one after another and share ctx.
func (o *Optimizer) CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, items []model.Item, stocks []model.Stock) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		out := ComparisonResult{Scenario: scenario}
		_, res, err := o.SolveCutting(ctx, CutRequest{Items: items, Stocks: stocks, Settings: scenario.Settings})
		switch {
		case err != nil:
			out.Status = model.StatusError
			out.ErrorMsg = err.Error()
		default:
			out.Status = res.Status
			out.Objective = res.Objective
			out.ErrorMsg = res.ErrorMsg
		}
		if res.Plan != nil {
			out.BarsUsed = len(res.Plan.Bins)
			out.TotalPieces = res.Plan.TotalPieces()
			if out.BarsUsed > 0 {
				out.WastePercent = 100.0 - res.Plan.TotalEfficiency()
			}
			out.MaterialCost = res.Plan.Financials.MaterialCost
			out.Profit = res.Plan.Financials.Profit
			for _, f := range res.Plan.Fulfillment {
				out.Shortfall += f.Shortfall
			}
		}
		results = append(results, out)
	}

	return results
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current settings, varying key parameters to show what-if alternatives.
func BuildDefaultScenarios(baseSettings model.CutSettings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: baseSettings,
		},
	}

	// Scenario: Tighter kerf (simulate thinner blade)
	if baseSettings.Kerf > 1.0 {
		tightKerf := baseSettings
		tightKerf.Kerf = baseSettings.Kerf * 0.5
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Kerf %.1fmm (half)", tightKerf.Kerf),
			Settings: tightKerf,
		})
	}

	// Scenario: No blade loss at all
	if baseSettings.Kerf > 0 {
		noKerf := baseSettings
		noKerf.Kerf = 0
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "No Kerf",
			Settings: noKerf,
		})
	}

	// Scenario: Flip the objective
	flipped := baseSettings
	if baseSettings.Sense == model.SenseMaximize {
		flipped.Sense = model.SenseMinimize
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "Minimize Cost",
			Settings: flipped,
		})
	} else {
		flipped.Sense = model.SenseMaximize
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "Maximize Profit",
			Settings: flipped,
		})
	}

	return scenarios
}
