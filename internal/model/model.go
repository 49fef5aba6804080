package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Sense is the optimization direction of a model.
type Sense string

const (
	SenseMinimize Sense = "minimize" // Minimize cost
	SenseMaximize Sense = "maximize" // Maximize profit
)

// ParseSense maps user input to a Sense. Anything other than "maximize"
// falls back to minimize, matching the default of the solver form.
func ParseSense(s string) Sense {
	if Sense(s) == SenseMaximize {
		return SenseMaximize
	}
	return SenseMinimize
}

func (s Sense) String() string {
	return string(s)
}

// VarType is the category of a decision variable.
type VarType string

const (
	VarContinuous VarType = "Continuous"
	VarInteger    VarType = "Integer"
	VarBinary     VarType = "Binary"
)

// Shape describes how a parameter or variable is laid out in the symbol table.
type Shape string

const (
	ShapeScalar Shape = "scalar"
	ShapeList   Shape = "list"
	ShapeDict   Shape = "dict"
	ShapeMatrix Shape = "matrix"
)

// RowLabelKey is the column holding the row name of a matrix table.
const RowLabelKey = "row_label"

// Row is one row of a user-edited table: column name to cell value.
type Row map[string]any

// String returns the cell as a string, or "" when it is missing.
func (r Row) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}

// Float returns the cell as a number. The boolean is false when the cell is
// missing or cannot be read as a number.
func (r Row) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// FloatOr returns the numeric cell value or def when it is missing.
func (r Row) FloatOr(key string, def float64) float64 {
	if f, ok := r.Float(key); ok {
		return f
	}
	return def
}

// Columns returns the row's keys in sorted order, excluding the matrix row label.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		if k == RowLabelKey {
			continue
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// VarSpec declares a decision variable (or a family of them) for the solver.
type VarSpec struct {
	Name  string   `json:"name"`
	Shape Shape    `json:"shape"`
	Type  VarType  `json:"type"`
	Data  []Row    `json:"data,omitempty"`  // list: one variable per row; matrix: one per cell
	Lower *float64 `json:"lower,omitempty"` // nil means 0
	Upper *float64 `json:"upper,omitempty"` // nil means unbounded (1 for Binary)
}

// ParamSpec declares a known constant exposed to formulas by name.
type ParamSpec struct {
	Name  string `json:"name"`
	Shape Shape  `json:"shape"`
	Data  any    `json:"data"`
}

// Store is the full model definition: variable declarations and parameters.
type Store struct {
	Variables  []VarSpec   `json:"variables"`
	Parameters []ParamSpec `json:"parameters"`
}

// Param returns the parameter with the given name.
func (s Store) Param(name string) (ParamSpec, bool) {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParamSpec{}, false
}

// Item is one ordered piece type of a cutting-stock problem.
type Item struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Length float64 `json:"length"` // mm
	Demand float64 `json:"demand"` // pieces
	Price  float64 `json:"price"`  // per piece
}

func NewItem(name string, length, demand, price float64) Item {
	return Item{
		ID:     uuid.New().String()[:8],
		Name:   name,
		Length: length,
		Demand: demand,
		Price:  price,
	}
}

// Stock is one type of raw bar available for cutting.
type Stock struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Length float64 `json:"length"` // mm
	Cost   float64 `json:"cost"`   // per bar
	Limit  int     `json:"limit"`  // bars available
}

// DefaultStockLimit is used when a stock row does not state how many bars exist.
const DefaultStockLimit = 999

func NewStock(name string, length, cost float64, limit int) Stock {
	return Stock{
		ID:     uuid.New().String()[:8],
		Name:   name,
		Length: length,
		Cost:   cost,
		Limit:  limit,
	}
}

// CostPerUnit returns the stock cost per mm of bar.
func (s Stock) CostPerUnit() float64 {
	if s.Length <= 0 {
		return 0
	}
	return s.Cost / s.Length
}

// BinKey identifies one candidate bar: the b-th bar of stock type s.
type BinKey struct {
	Stock int `json:"stock"`
	Bin   int `json:"bin"`
}

func (k BinKey) String() string {
	return fmt.Sprintf("ST%d_B%d", k.Stock, k.Bin)
}

// UsageName is the name of the binary variable that opens the bar.
func (k BinKey) UsageName() string {
	return "U_" + k.String()
}

// Less orders bins by stock type, then bin index.
func (k BinKey) Less(o BinKey) bool {
	if k.Stock != o.Stock {
		return k.Stock < o.Stock
	}
	return k.Bin < o.Bin
}

// AssignKey identifies how many pieces of item i are cut from bar (s, b).
type AssignKey struct {
	Item  int `json:"item"`
	Stock int `json:"stock"`
	Bin   int `json:"bin"`
}

func (k AssignKey) String() string {
	return fmt.Sprintf("A_IT%d_ST%d_B%d", k.Item, k.Stock, k.Bin)
}

// BinKey returns the bar the assignment belongs to.
func (k AssignKey) BinKey() BinKey {
	return BinKey{Stock: k.Stock, Bin: k.Bin}
}

// CutSettings holds the solve configuration of a workspace.
type CutSettings struct {
	Kerf             float64 `json:"kerf"`                      // Blade width in mm
	Sense            Sense   `json:"sense"`                     // minimize cost or maximize profit
	TimeLimitSeconds float64 `json:"time_limit_seconds"`        // Solver wall-clock budget
	RemnantMinLength float64 `json:"remnant_min_length"`        // Shortest waste worth keeping
	MachineProfile   string  `json:"machine_profile,omitempty"` // Saw controller dialect for GCode export
}

func DefaultSettings() CutSettings {
	return CutSettings{
		Kerf:             0,
		Sense:            SenseMinimize,
		TimeLimitSeconds: 30,
		RemnantMinLength: 300,
	}
}

// Project ties a workspace together for save/load.
type Project struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Mode        string           `json:"mode"`
	Settings    CutSettings      `json:"settings"`
	Items       []Item           `json:"items"`
	Stocks      []Stock          `json:"stocks"`
	Tables      map[string][]Row `json:"tables,omitempty"` // Inputs of the non-cutting templates
	Objective   string           `json:"objective"`
	Constraints string           `json:"constraints"`
	Store       *Store           `json:"store,omitempty"`
	Result      *SolveResult     `json:"result,omitempty"`
	UpdatedAt   string           `json:"updated_at"`
}

func NewProject() Project {
	return Project{
		ID:       uuid.New().String(),
		Name:     "Untitled",
		Mode:     "custom",
		Settings: DefaultSettings(),
		Items:    []Item{},
		Stocks:   []Stock{},
	}
}
