package model

import (
	"math"
	"testing"
)

func bin(label string, stock Stock, waste float64) BinPlan {
	return BinPlan{DisplayID: label, Stock: stock, WasteLength: waste, UsedLength: stock.Length - waste}
}

func TestDetectRemnantsAboveMinimum(t *testing.T) {
	stock := NewStock("Bar", 1000, 10, 5)
	rs := DetectRemnants(bin("Stock #1", stock, 400), 0, 300)
	if len(rs) != 1 {
		t.Fatalf("expected 1 remnant, got %d", len(rs))
	}
	r := rs[0]
	if r.Length != 400 || r.BinLabel != "Stock #1" || r.StockName != "Bar" {
		t.Errorf("unexpected remnant %+v", r)
	}
	if math.Abs(r.Value-4) > 1e-9 {
		t.Errorf("expected value 4 (400mm at 0.01/mm), got %f", r.Value)
	}
}

func TestDetectRemnantsBelowMinimum(t *testing.T) {
	stock := NewStock("Bar", 1000, 10, 5)
	if rs := DetectRemnants(bin("Stock #1", stock, 100), 0, 300); len(rs) != 0 {
		t.Errorf("expected no remnant, got %d", len(rs))
	}
}

func TestDetectRemnantsDefaultMinimum(t *testing.T) {
	stock := NewStock("Bar", 1000, 10, 5)
	if rs := DetectRemnants(bin("Stock #1", stock, 299), 0, 0); len(rs) != 0 {
		t.Error("299mm should be below the default minimum")
	}
	if rs := DetectRemnants(bin("Stock #1", stock, 300), 0, 0); len(rs) != 1 {
		t.Error("300mm should be kept with the default minimum")
	}
}

func TestDetectAllRemnantsSortedByLength(t *testing.T) {
	stock := NewStock("Bar", 1000, 10, 5)
	plan := CutPlan{Bins: []BinPlan{
		bin("Stock #1", stock, 350),
		bin("Stock #2", stock, 50),
		bin("Stock #3", stock, 800),
	}}
	rs := DetectAllRemnants(plan, 300)
	if len(rs) != 2 {
		t.Fatalf("expected 2 remnants, got %d", len(rs))
	}
	if rs[0].Length != 800 || rs[0].BinIndex != 2 {
		t.Errorf("expected longest remnant first, got %+v", rs[0])
	}
	if TotalRemnantLength(rs) != 1150 {
		t.Errorf("expected total 1150, got %f", TotalRemnantLength(rs))
	}
}

func TestRemnantToStock(t *testing.T) {
	r := Remnant{StockName: "Bar", Length: 450, Value: 4.5}
	s := r.ToStock()
	if s.Name != "Remnant Bar" || s.Length != 450 || s.Cost != 4.5 || s.Limit != 1 {
		t.Errorf("unexpected stock %+v", s)
	}
}
