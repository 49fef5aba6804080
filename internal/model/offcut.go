package model

import (
	"sort"

	"github.com/google/uuid"
)

// Remnant is a usable piece of bar left over after cutting.
type Remnant struct {
	ID        string  `json:"id"`
	BinLabel  string  `json:"bin_label"`  // Display id of the source bar
	BinIndex  int     `json:"bin_index"`  // Index of the source bar in the plan
	StockName string  `json:"stock_name"` // Stock type it came from
	Length    float64 `json:"length"`     // mm
	Value     float64 `json:"value"`      // Share of the bar cost by length
}

// ToStock converts a remnant into a stock row so it can be cut in a later job.
func (r Remnant) ToStock() Stock {
	return NewStock("Remnant "+r.StockName, r.Length, r.Value, 1)
}

// DefaultRemnantMinLength is the shortest trailing waste kept as a remnant.
const DefaultRemnantMinLength = 300.0

// DetectRemnants returns the trailing waste of a bar when it is long enough to reuse.
func DetectRemnants(bin BinPlan, binIndex int, minLength float64) []Remnant {
	if minLength <= 0 {
		minLength = DefaultRemnantMinLength
	}
	if bin.WasteLength < minLength {
		return nil
	}
	return []Remnant{{
		ID:        uuid.New().String()[:8],
		BinLabel:  bin.DisplayID,
		BinIndex:  binIndex,
		StockName: bin.Stock.Name,
		Length:    bin.WasteLength,
		Value:     bin.WasteLength * bin.Stock.CostPerUnit(),
	}}
}

// DetectAllRemnants finds remnants across all bars, longest first.
func DetectAllRemnants(plan CutPlan, minLength float64) []Remnant {
	var all []Remnant
	for i, b := range plan.Bins {
		all = append(all, DetectRemnants(b, i, minLength)...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Length > all[j].Length
	})
	return all
}

// TotalRemnantLength returns the summed length of the remnants in mm.
func TotalRemnantLength(remnants []Remnant) float64 {
	var total float64
	for _, r := range remnants {
		total += r.Length
	}
	return total
}
