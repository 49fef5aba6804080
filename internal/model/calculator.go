package model

import "math"

// PurchaseEstimate holds the results of a bar purchasing calculation.
type PurchaseEstimate struct {
	StockName        string  `json:"stock_name"`
	StockLength      float64 `json:"stock_length"`       // mm
	TotalPieceLength float64 `json:"total_piece_length"` // Sum of demand x length (mm)
	TotalCutLength   float64 `json:"total_cut_length"`   // Including one kerf per piece (mm)
	BarsNeededExact  float64 `json:"bars_needed_exact"`  // Fractional lower bound
	BarsNeededMin    int     `json:"bars_needed_min"`    // Ceiling of exact
	BarsWithWaste    int     `json:"bars_with_waste"`    // Recommended bars including waste factor
	WastePercent     float64 `json:"waste_percent"`      // Waste factor applied (e.g. 10 for 10%)
	EstimatedCost    float64 `json:"estimated_cost"`     // Bars with waste x cost
	Available        int     `json:"available"`          // Stock limit
	ShortOfInventory bool    `json:"short_of_inventory"` // Min bars exceed the limit
}

// CalculatePurchaseEstimate computes how many bars of one stock type cover the
// demand of all items. Each piece is charged one kerf and the bar one extra
// kerf, matching the n-1 cuts accounting of the cutting model.
func CalculatePurchaseEstimate(items []Item, stock Stock, kerf, wastePercent float64) PurchaseEstimate {
	var pieceLen, cutLen float64
	for _, it := range items {
		pieceLen += it.Demand * it.Length
		cutLen += it.Demand * (it.Length + kerf)
	}

	est := PurchaseEstimate{
		StockName:        stock.Name,
		StockLength:      stock.Length,
		TotalPieceLength: pieceLen,
		TotalCutLength:   cutLen,
		WastePercent:     wastePercent,
		Available:        stock.Limit,
	}
	if stock.Length <= 0 {
		return est
	}

	est.BarsNeededExact = cutLen / (stock.Length + kerf)
	est.BarsNeededMin = int(math.Ceil(est.BarsNeededExact - 1e-9))

	wasteFactor := 1.0 + (wastePercent / 100.0)
	est.BarsWithWaste = int(math.Ceil(est.BarsNeededExact*wasteFactor - 1e-9))
	if est.BarsWithWaste < est.BarsNeededMin {
		est.BarsWithWaste = est.BarsNeededMin
	}
	est.EstimatedCost = float64(est.BarsWithWaste) * stock.Cost
	est.ShortOfInventory = stock.Limit > 0 && est.BarsNeededMin > stock.Limit
	return est
}

// CalculatePurchaseEstimates runs CalculatePurchaseEstimate for every stock type.
func CalculatePurchaseEstimates(items []Item, stocks []Stock, kerf, wastePercent float64) []PurchaseEstimate {
	out := make([]PurchaseEstimate, 0, len(stocks))
	for _, s := range stocks {
		out = append(out, CalculatePurchaseEstimate(items, s, kerf, wastePercent))
	}
	return out
}
