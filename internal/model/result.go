package model

// Solve statuses reported to the caller. The first five mirror the solver;
// StatusError marks failures while evaluating or solving the model.
const (
	StatusOptimal    = "Optimal"
	StatusFeasible   = "Feasible" // Time limit hit with an incumbent
	StatusInfeasible = "Infeasible"
	StatusUnbounded  = "Unbounded"
	StatusNotSolved  = "Not Solved" // Time limit hit without an incumbent
	StatusError      = "Error"
)

// VariableValue is one row of the variables result table.
type VariableValue struct {
	Variable string  `json:"Variable"`
	Value    float64 `json:"Value"`
}

// ConstraintReport is one row of the constraints result table.
type ConstraintReport struct {
	Constraint  string  `json:"Constraint"`
	ShadowPrice float64 `json:"Shadow Price"`
	Slack       float64 `json:"Slack"`
}

// SolveResult is the outcome of one solve invocation.
type SolveResult struct {
	Status      string             `json:"status"`
	Objective   float64            `json:"objective"`
	Variables   []VariableValue    `json:"variables"`
	Constraints []ConstraintReport `json:"constraints"`
	ErrorMsg    string             `json:"error_msg"`
	Plan        *CutPlan           `json:"plan,omitempty"` // Filled for the cutting template
}

// Solved reports whether the result carries a usable solution.
func (r SolveResult) Solved() bool {
	return r.Status == StatusOptimal || r.Status == StatusFeasible
}

// Values returns the variable values keyed by name.
func (r SolveResult) Values() map[string]float64 {
	values := make(map[string]float64, len(r.Variables))
	for _, v := range r.Variables {
		values[v.Variable] = v.Value
	}
	return values
}

// SegmentKind classifies a stretch of a bar in the cut diagram.
type SegmentKind string

const (
	SegmentProduct SegmentKind = "Product"
	SegmentKerf    SegmentKind = "Kerf"
	SegmentWaste   SegmentKind = "Waste"
)

// Segment is one stretch of a bar, laid out left to right.
type Segment struct {
	Kind   SegmentKind `json:"type"`
	Label  string      `json:"item"`
	Start  float64     `json:"start"`
	Length float64     `json:"length"`
}

// CutCount is how many pieces of one item are cut from a bar.
type CutCount struct {
	Item   int     `json:"item"`
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Length float64 `json:"length"`
}

// BinPlan is one opened bar with its cuts.
type BinPlan struct {
	Key         BinKey     `json:"key"`
	DisplayID   string     `json:"display_id"`
	Stock       Stock      `json:"stock"`
	Cuts        []CutCount `json:"cuts"`
	Segments    []Segment  `json:"segments"`
	UsedLength  float64    `json:"used_length"`  // Sum of piece lengths
	KerfLength  float64    `json:"kerf_length"`  // Blade loss between pieces
	WasteLength float64    `json:"waste_length"` // Trailing scrap
}

// PieceCount returns the number of pieces cut from the bar.
func (b BinPlan) PieceCount() int {
	n := 0
	for _, c := range b.Cuts {
		n += c.Count
	}
	return n
}

// Usage returns the share of the bar covered by pieces, in percent.
func (b BinPlan) Usage() float64 {
	if b.Stock.Length <= 0 {
		return 0
	}
	return (b.UsedLength / b.Stock.Length) * 100.0
}

// Fulfillment compares what was produced for an item with its demand.
type Fulfillment struct {
	Item      string  `json:"item"`
	Demand    float64 `json:"demand"`
	Produced  int     `json:"produced"`
	Shortfall float64 `json:"shortfall"`
	Surplus   float64 `json:"surplus"`
}

// Financials aggregates the money side of a cut plan.
type Financials struct {
	Revenue        float64 `json:"revenue"`
	MaterialCost   float64 `json:"material_cost"`
	ScrapValue     float64 `json:"scrap_value"`
	BladeLossValue float64 `json:"blade_loss_value"`
	Profit         float64 `json:"profit"`
}

// CutPlan is the reconstructed cutting solution.
type CutPlan struct {
	Bins        []BinPlan     `json:"bins"`
	Fulfillment []Fulfillment `json:"fulfillment"`
	Financials  Financials    `json:"financials"`
	Remnants    []Remnant     `json:"remnants"`
	Kerf        float64       `json:"kerf"`
	Warnings    []string      `json:"warnings,omitempty"`
}

// TotalEfficiency returns overall material usage in percent.
func (p CutPlan) TotalEfficiency() float64 {
	var used, total float64
	for _, b := range p.Bins {
		used += b.UsedLength
		total += b.Stock.Length
	}
	if total == 0 {
		return 0
	}
	return (used / total) * 100.0
}

// TotalPieces returns the number of pieces across all bars.
func (p CutPlan) TotalPieces() int {
	n := 0
	for _, b := range p.Bins {
		n += b.PieceCount()
	}
	return n
}
