package model

import (
	"math"
	"testing"
)

func TestPurchaseEstimateNoKerf(t *testing.T) {
	items := []Item{NewItem("A", 300, 10, 0)} // 3000 mm
	stock := NewStock("Bar", 1000, 10, 100)

	est := CalculatePurchaseEstimate(items, stock, 0, 0)
	if est.TotalPieceLength != 3000 {
		t.Errorf("expected piece length 3000, got %f", est.TotalPieceLength)
	}
	if math.Abs(est.BarsNeededExact-3.0) > 1e-9 {
		t.Errorf("expected 3 exact bars, got %f", est.BarsNeededExact)
	}
	if est.BarsNeededMin != 3 {
		t.Errorf("expected 3 bars, got %d", est.BarsNeededMin)
	}
	if est.EstimatedCost != 30 {
		t.Errorf("expected cost 30, got %f", est.EstimatedCost)
	}
}

func TestPurchaseEstimateKerfAccounting(t *testing.T) {
	// Two 400 mm pieces with a 50 mm kerf fit a 1000 mm bar: 2*(450) <= 1050.
	items := []Item{NewItem("A", 400, 2, 0)}
	stock := NewStock("Bar", 1000, 10, 5)

	est := CalculatePurchaseEstimate(items, stock, 50, 0)
	if est.BarsNeededMin != 1 {
		t.Errorf("expected 1 bar, got %d (exact %f)", est.BarsNeededMin, est.BarsNeededExact)
	}
}

func TestPurchaseEstimateWasteFactor(t *testing.T) {
	items := []Item{NewItem("A", 500, 10, 0)} // 5 bars exact
	stock := NewStock("Bar", 1000, 10, 100)

	est := CalculatePurchaseEstimate(items, stock, 0, 10)
	if est.BarsNeededMin != 5 {
		t.Errorf("expected 5 min bars, got %d", est.BarsNeededMin)
	}
	if est.BarsWithWaste != 6 {
		t.Errorf("expected 6 bars with 10%% waste, got %d", est.BarsWithWaste)
	}
}

func TestPurchaseEstimateShortOfInventory(t *testing.T) {
	items := []Item{NewItem("A", 900, 4, 0)}
	stock := NewStock("Bar", 1000, 10, 2)

	est := CalculatePurchaseEstimate(items, stock, 0, 0)
	if !est.ShortOfInventory {
		t.Error("expected shortage flag with 4 bars needed and 2 available")
	}
}

func TestPurchaseEstimateZeroLengthStock(t *testing.T) {
	est := CalculatePurchaseEstimate([]Item{NewItem("A", 100, 1, 0)}, Stock{Name: "X"}, 0, 0)
	if est.BarsNeededMin != 0 || est.EstimatedCost != 0 {
		t.Errorf("expected empty estimate, got %+v", est)
	}
}

func TestPurchaseEstimatesPerStock(t *testing.T) {
	items := []Item{NewItem("A", 300, 3, 0)}
	out := CalculatePurchaseEstimates(items, DefaultStocks(), 0, 0)
	if len(out) != 2 {
		t.Fatalf("expected one estimate per stock, got %d", len(out))
	}
	if out[0].StockName != "Short_Bar" || out[0].BarsNeededMin != 1 {
		t.Errorf("unexpected estimate %+v", out[0])
	}
}
