package model

import (
	"encoding/json"
	"testing"
)

func TestParseSense(t *testing.T) {
	if ParseSense("maximize") != SenseMaximize {
		t.Error("expected maximize")
	}
	for _, in := range []string{"minimize", "", "MAX", "foo"} {
		if ParseSense(in) != SenseMinimize {
			t.Errorf("ParseSense(%q) should fall back to minimize", in)
		}
	}
}

func TestRowAccessors(t *testing.T) {
	r := Row{"Item": "Leg", "Length": 700.0, "Demand": "20", "Count": 3, "Bad": "12abc", "row_label": "x"}

	if r.String("Item") != "Leg" {
		t.Errorf("unexpected string %q", r.String("Item"))
	}
	if r.String("Count") != "3" {
		t.Errorf("int cell should render as 3, got %q", r.String("Count"))
	}
	if r.String("Missing") != "" {
		t.Error("missing cell should be empty")
	}
	if f, ok := r.Float("Length"); !ok || f != 700 {
		t.Errorf("expected 700, got %v %v", f, ok)
	}
	if f, ok := r.Float("Demand"); !ok || f != 20 {
		t.Errorf("numeric string should parse, got %v %v", f, ok)
	}
	if _, ok := r.Float("Bad"); ok {
		t.Error("trailing garbage must not parse")
	}
	if r.FloatOr("Limit", 999) != 999 {
		t.Error("FloatOr should return default for missing cell")
	}

	cols := r.Columns()
	for _, c := range cols {
		if c == RowLabelKey {
			t.Error("Columns must exclude the row label")
		}
	}
	if cols[0] != "Bad" {
		t.Errorf("columns should be sorted, got %v", cols)
	}
}

func TestKeyNames(t *testing.T) {
	bk := BinKey{Stock: 1, Bin: 4}
	if bk.String() != "ST1_B4" || bk.UsageName() != "U_ST1_B4" {
		t.Errorf("unexpected bin names %s %s", bk, bk.UsageName())
	}
	ak := AssignKey{Item: 2, Stock: 1, Bin: 4}
	if ak.String() != "A_IT2_ST1_B4" {
		t.Errorf("unexpected assign name %s", ak)
	}
	if ak.BinKey() != bk {
		t.Error("assignment should map to its bin")
	}
}

func TestBinKeyLess(t *testing.T) {
	a := BinKey{Stock: 0, Bin: 5}
	b := BinKey{Stock: 1, Bin: 0}
	c := BinKey{Stock: 1, Bin: 2}
	if !a.Less(b) || !b.Less(c) || c.Less(a) {
		t.Error("bins must order by stock then bin")
	}
}

func TestStoreParam(t *testing.T) {
	s := Store{Parameters: []ParamSpec{{Name: "Demand", Shape: ShapeDict, Data: map[string]any{"a": 1.0}}}}
	if _, ok := s.Param("Demand"); !ok {
		t.Error("expected Demand parameter")
	}
	if _, ok := s.Param("Supply"); ok {
		t.Error("unexpected Supply parameter")
	}
}

func TestCostPerUnit(t *testing.T) {
	if got := NewStock("Bar", 1000, 10, 1).CostPerUnit(); got != 0.01 {
		t.Errorf("expected 0.01, got %f", got)
	}
	if got := (Stock{Cost: 10}).CostPerUnit(); got != 0 {
		t.Errorf("zero length should give 0, got %f", got)
	}
}

func TestSolveResultJSONShape(t *testing.T) {
	res := SolveResult{
		Status:      StatusOptimal,
		Objective:   10,
		Variables:   []VariableValue{{Variable: "x", Value: 1}},
		Constraints: []ConstraintReport{{Constraint: "C1", ShadowPrice: 0.5, Slack: 0}},
	}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	cons := raw["constraints"].([]any)[0].(map[string]any)
	if _, ok := cons["Shadow Price"]; !ok {
		t.Errorf("expected \"Shadow Price\" key, got %v", cons)
	}
	if _, ok := raw["plan"]; ok {
		t.Error("plan should be omitted when nil")
	}
	if !res.Solved() {
		t.Error("Optimal should count as solved")
	}
	if res.Values()["x"] != 1 {
		t.Error("Values should map names to values")
	}
}

func TestCutPlanTotals(t *testing.T) {
	stock := NewStock("Bar", 1000, 10, 5)
	plan := CutPlan{Bins: []BinPlan{
		{Stock: stock, UsedLength: 900, Cuts: []CutCount{{Count: 3}}},
		{Stock: stock, UsedLength: 500, Cuts: []CutCount{{Count: 1}, {Count: 1}}},
	}}
	if plan.TotalPieces() != 5 {
		t.Errorf("expected 5 pieces, got %d", plan.TotalPieces())
	}
	if plan.TotalEfficiency() != 70 {
		t.Errorf("expected 70%% efficiency, got %f", plan.TotalEfficiency())
	}
	if plan.Bins[0].Usage() != 90 {
		t.Errorf("expected 90%% usage, got %f", plan.Bins[0].Usage())
	}
}

func TestTemplateGallery(t *testing.T) {
	for _, id := range []string{ModeCutting, ModeTransportation, ModeProdMix, ModeBlending, ModeCustom} {
		if FindTemplate(id) == nil {
			t.Errorf("missing template %s", id)
		}
	}
	if FindTemplate("schedule") != nil {
		t.Error("schedule is not a template")
	}
	if len(DefaultItems()) != 3 || len(DefaultStocks()) != 2 {
		t.Error("unexpected default workspace tables")
	}
}

func TestNewProjectDefaults(t *testing.T) {
	p := NewProject()
	if p.ID == "" || p.Mode != ModeCustom || p.Settings.Sense != SenseMinimize {
		t.Errorf("unexpected project %+v", p)
	}
}
