// Package solver solves small mixed-integer linear programs in pure Go:
// LP relaxations run on the gonum simplex and integrality is enforced by a
// depth-first branch-and-bound.
package solver

import (
	"fmt"
	"math"
)

// VarType is the category of a variable.
type VarType int

const (
	Continuous VarType = iota
	Integer
	Binary
)

func (t VarType) String() string {
	switch t {
	case Integer:
		return "Integer"
	case Binary:
		return "Binary"
	}
	return "Continuous"
}

// Sense is the optimization direction.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

// Relation of a constraint row.
type Relation int

const (
	LE Relation = iota
	GE
	EQ
)

func (r Relation) String() string {
	switch r {
	case GE:
		return ">="
	case EQ:
		return "=="
	}
	return "<="
}

// Variable is one decision variable. Lower must be finite; Upper may be +Inf.
type Variable struct {
	Name  string
	Type  VarType
	Lower float64
	Upper float64
}

func (v Variable) integral() bool {
	return v.Type == Integer || v.Type == Binary
}

// Constraint is Σ Coefs[j]·x_j  Rel  RHS.
type Constraint struct {
	Name  string
	Coefs map[int]float64
	Rel   Relation
	RHS   float64
}

// Model is a mixed-integer linear program.
type Model struct {
	Sense       Sense
	Vars        []Variable
	Objective   map[int]float64
	ObjConst    float64
	Constraints []Constraint
	Hint        map[int]float64 // Optional starting solution
}

func NewModel(sense Sense) *Model {
	return &Model{Sense: sense, Objective: map[int]float64{}}
}

// AddVar appends a variable and returns its index. Binary variables are
// clamped to [0, 1].
func (m *Model) AddVar(name string, typ VarType, lower, upper float64) int {
	if typ == Binary {
		lower = math.Max(lower, 0)
		upper = math.Min(upper, 1)
	}
	m.Vars = append(m.Vars, Variable{Name: name, Type: typ, Lower: lower, Upper: upper})
	return len(m.Vars) - 1
}

// SetObjective replaces the objective with Σ coefs·x + constant.
func (m *Model) SetObjective(coefs map[int]float64, constant float64) {
	m.Objective = make(map[int]float64, len(coefs))
	for k, v := range coefs {
		m.Objective[k] = v
	}
	m.ObjConst = constant
}

// AddConstraint appends a row and returns its index.
func (m *Model) AddConstraint(name string, coefs map[int]float64, rel Relation, rhs float64) int {
	row := Constraint{Name: name, Coefs: make(map[int]float64, len(coefs)), Rel: rel, RHS: rhs}
	for k, v := range coefs {
		if v != 0 {
			row.Coefs[k] = v
		}
	}
	m.Constraints = append(m.Constraints, row)
	return len(m.Constraints) - 1
}

// SetHint records a candidate solution. Variables missing from the map are 0.
func (m *Model) SetHint(values map[int]float64) {
	m.Hint = values
}

// Validate checks indices and bounds before solving.
func (m *Model) Validate() error {
	for _, v := range m.Vars {
		if math.IsInf(v.Lower, 0) || math.IsNaN(v.Lower) {
			return fmt.Errorf("variable %s: lower bound must be finite", v.Name)
		}
		if math.IsNaN(v.Upper) {
			return fmt.Errorf("variable %s: upper bound is NaN", v.Name)
		}
	}
	check := func(where string, coefs map[int]float64) error {
		for j, c := range coefs {
			if j < 0 || j >= len(m.Vars) {
				return fmt.Errorf("%s: unknown variable index %d", where, j)
			}
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return fmt.Errorf("%s: coefficient of %s is not finite", where, m.Vars[j].Name)
			}
		}
		return nil
	}
	if err := check("objective", m.Objective); err != nil {
		return err
	}
	for _, c := range m.Constraints {
		if err := check("constraint "+c.Name, c.Coefs); err != nil {
			return err
		}
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
			return fmt.Errorf("constraint %s: right-hand side is not finite", c.Name)
		}
	}
	return nil
}

// Evaluate returns Σ coefs·x.
func Evaluate(coefs map[int]float64, x []float64) float64 {
	var s float64
	for j, c := range coefs {
		s += c * x[j]
	}
	return s
}
