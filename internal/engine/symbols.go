package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/piwi3910/optimystic/internal/formula"
	"github.com/piwi3910/optimystic/internal/model"
	"github.com/piwi3910/optimystic/internal/solver"
)

// symbols is the formula environment of one solve together with the solver
// variables it refers to.
type symbols struct {
	env   *formula.Env
	model *solver.Model
	index map[string]int // solver variable name -> id
}

// buildSymbols loads parameters by shape and creates one solver variable per
// declared scalar, list row or matrix cell.
func buildSymbols(store model.Store, sense model.Sense) (*symbols, error) {
	s := &symbols{
		env:   formula.NewEnv(),
		model: solver.NewModel(solverSense(sense)),
		index: map[string]int{},
	}
	declared := map[string]bool{}
	declare := func(kind, name string) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return errors.Errorf("%s without a name", kind)
		}
		if declared[name] {
			return errors.Errorf("%s %q: name is already declared", kind, name)
		}
		declared[name] = true
		return nil
	}

	for _, p := range store.Parameters {
		if err := declare("parameter", p.Name); err != nil {
			return nil, err
		}
		v, err := paramValue(p)
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %q", p.Name)
		}
		s.env.Set(p.Name, v)
	}

	for _, vs := range store.Variables {
		if err := declare("variable", vs.Name); err != nil {
			return nil, err
		}
		v, err := s.addVariables(vs)
		if err != nil {
			return nil, errors.Wrapf(err, "variable %q", vs.Name)
		}
		s.env.Set(vs.Name, v)
	}
	return s, nil
}

func (s *symbols) addVariables(vs model.VarSpec) (formula.Value, error) {
	typ, err := solverType(vs.Type)
	if err != nil {
		return nil, err
	}
	lower, upper := 0.0, math.Inf(1)
	if vs.Lower != nil {
		lower = *vs.Lower
	}
	if vs.Upper != nil {
		upper = *vs.Upper
	}
	if lower > upper {
		return nil, errors.Errorf("lower bound %g exceeds upper bound %g", lower, upper)
	}
	add := func(name string) *formula.Linear {
		if _, taken := s.index[name]; taken {
			name = fmt.Sprintf("%s_%d", name, len(s.model.Vars))
		}
		id := s.model.AddVar(name, typ, lower, upper)
		s.index[name] = id
		return formula.Var(id)
	}

	switch vs.Shape {
	case model.ShapeScalar, "":
		return add(vs.Name), nil
	case model.ShapeList:
		out := make(formula.List, len(vs.Data))
		for i, row := range vs.Data {
			out[i] = add(vs.Name + "_" + rowLabel(row, i))
		}
		return out, nil
	case model.ShapeMatrix:
		out := formula.NewDict()
		for i, row := range vs.Data {
			label := rowLabel(row, i)
			cells := formula.NewDict()
			for _, col := range row.Columns() {
				cells.Set(col, add(vs.Name+"_"+label+"_"+col))
			}
			out.Set(label, cells)
		}
		return out, nil
	}
	return nil, errors.Errorf("unsupported shape %q", vs.Shape)
}

// rowLabel names a list or matrix row: the row_label cell, else the first
// text cell in column order, else the row index.
func rowLabel(row model.Row, i int) string {
	if l := strings.TrimSpace(row.String(model.RowLabelKey)); l != "" {
		return l
	}
	for _, col := range row.Columns() {
		if str, ok := row[col].(string); ok && strings.TrimSpace(str) != "" {
			return strings.TrimSpace(str)
		}
	}
	return strconv.Itoa(i)
}

// paramValue converts a parameter to a formula value. Matrices may arrive
// as nested objects or as a list of rows carrying row_label.
func paramValue(p model.ParamSpec) (formula.Value, error) {
	switch p.Shape {
	case model.ShapeScalar, "":
		switch t := p.Data.(type) {
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
				return formula.Number(f), nil
			}
			return formula.String(t), nil
		}
		return formula.FromGo(p.Data)
	case model.ShapeMatrix:
		if rows, ok := matrixRows(p.Data); ok {
			out := formula.NewDict()
			for i, row := range rows {
				cells := formula.NewDict()
				for _, col := range row.Columns() {
					v, err := formula.FromGo(row[col])
					if err != nil {
						return nil, err
					}
					cells.Set(col, v)
				}
				out.Set(rowLabel(row, i), cells)
			}
			return out, nil
		}
		return formula.FromGo(p.Data)
	case model.ShapeList, model.ShapeDict:
		return formula.FromGo(p.Data)
	}
	return nil, errors.Errorf("unsupported shape %q", p.Shape)
}

func matrixRows(data any) ([]model.Row, bool) {
	switch t := data.(type) {
	case []model.Row:
		return t, true
	case []map[string]any:
		rows := make([]model.Row, len(t))
		for i, r := range t {
			rows[i] = r
		}
		return rows, true
	case []any:
		rows := make([]model.Row, 0, len(t))
		for _, e := range t {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, false
			}
			rows = append(rows, m)
		}
		return rows, true
	}
	return nil, false
}

func solverType(t model.VarType) (solver.VarType, error) {
	switch t {
	case model.VarContinuous, "":
		return solver.Continuous, nil
	case model.VarInteger:
		return solver.Integer, nil
	case model.VarBinary:
		return solver.Binary, nil
	}
	return 0, errors.Errorf("unknown variable type %q", t)
}

func solverSense(s model.Sense) solver.Sense {
	if s == model.SenseMaximize {
		return solver.Maximize
	}
	return solver.Minimize
}

func solverRelation(op formula.Op) solver.Relation {
	switch op {
	case formula.OpGE:
		return solver.GE
	case formula.OpEQ:
		return solver.EQ
	}
	return solver.LE
}

// hintIDs translates a hint keyed by variable name. Unknown names are dropped.
func (s *symbols) hintIDs(hint map[string]float64) map[int]float64 {
	out := make(map[int]float64, len(hint))
	for name, v := range hint {
		if id, ok := s.index[name]; ok {
			out[id] = v
		}
	}
	return out
}
