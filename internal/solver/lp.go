package solver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	feasTol    = 1e-7  // Row and bound violation accepted as feasible
	simplexTol = 1e-10 // Passed to the gonum simplex
)

type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
	lpUnbounded
)

// standardForm is the relaxation rewritten as min c·z s.t. A·z = b, z >= 0.
// Structural columns hold x - lower for the variables that survived
// presolve; every row owns one slack column.
type standardForm struct {
	c       []float64
	A       *mat.Dense
	b       []float64
	cols    []int     // Model variable of each structural column
	rowCons []int     // Model constraint of each row, -1 for bound rows
	rowSign []float64 // +1 or -1 applied to make b non-negative
}

type lpResult struct {
	status lpStatus
	x      []float64 // Model variable values
	obj    float64   // Minimization objective without the constant
	form   *standardForm
	z      []float64 // Standard-form solution
}

// minCosts returns the objective as a minimization.
func minCosts(m *Model) []float64 {
	c := make([]float64, len(m.Vars))
	for j, v := range m.Objective {
		if m.Sense == Maximize {
			c[j] = -v
		} else {
			c[j] = v
		}
	}
	return c
}

// solveLP solves the relaxation of m under the given bounds. Presolve fixes
// variables that no row touches, drops rows with no free variables and
// rejects the relaxation early when such a row is violated.
func solveLP(m *Model, cost, lower, upper []float64) (lpResult, error) {
	n := len(m.Vars)
	x := make([]float64, n)
	free := make([]bool, n)

	inRow := make([]bool, n)
	for _, row := range m.Constraints {
		for j := range row.Coefs {
			inRow[j] = true
		}
	}

	for j := 0; j < n; j++ {
		if lower[j] > upper[j]+feasTol {
			return lpResult{status: lpInfeasible}, nil
		}
		switch {
		case upper[j]-lower[j] <= feasTol:
			x[j] = lower[j]
		case !inRow[j]:
			// only the bounds constrain it: move to the cheaper end
			switch {
			case cost[j] < 0 && math.IsInf(upper[j], 1):
				return lpResult{status: lpUnbounded}, nil
			case cost[j] < 0:
				x[j] = upper[j]
			default:
				x[j] = lower[j]
			}
		default:
			free[j] = true
			x[j] = lower[j]
		}
	}

	f := &standardForm{}
	colOf := make([]int, n)
	for j := 0; j < n; j++ {
		colOf[j] = -1
		if free[j] {
			colOf[j] = len(f.cols)
			f.cols = append(f.cols, j)
		}
	}
	k := len(f.cols)

	type stdRow struct {
		coefs map[int]float64 // structural column -> coefficient
		slack float64
		rhs   float64
		cons  int
	}
	var rows []stdRow

	for i, row := range m.Constraints {
		rhs := row.RHS
		active := map[int]float64{}
		for j, a := range row.Coefs {
			rhs -= a * x[j]
			if free[j] {
				active[colOf[j]] = a
			}
		}
		if len(active) == 0 {
			ok := true
			switch row.Rel {
			case LE:
				ok = rhs >= -feasTol
			case GE:
				ok = rhs <= feasTol
			case EQ:
				ok = math.Abs(rhs) <= feasTol
			}
			if !ok {
				return lpResult{status: lpInfeasible}, nil
			}
			continue
		}
		switch row.Rel {
		case LE:
			rows = append(rows, stdRow{active, 1, rhs, i})
		case GE:
			rows = append(rows, stdRow{active, -1, rhs, i})
		case EQ:
			// split so every row keeps its own slack and A has full row rank
			rows = append(rows, stdRow{active, 1, rhs, i}, stdRow{active, -1, rhs, i})
		}
	}
	for q, j := range f.cols {
		if !math.IsInf(upper[j], 1) {
			rows = append(rows, stdRow{map[int]float64{q: 1}, 1, upper[j] - lower[j], -1})
		}
	}

	res := lpResult{x: x}
	baseObj := 0.0
	for j := 0; j < n; j++ {
		baseObj += cost[j] * x[j]
	}
	if len(rows) == 0 {
		res.status = lpOptimal
		res.obj = baseObj
		return res, nil
	}

	mRows := len(rows)
	nCols := k + mRows
	f.c = make([]float64, nCols)
	for q, j := range f.cols {
		f.c[q] = cost[j]
	}
	f.A = mat.NewDense(mRows, nCols, nil)
	f.b = make([]float64, mRows)
	f.rowCons = make([]int, mRows)
	f.rowSign = make([]float64, mRows)
	for r, row := range rows {
		sign := 1.0
		if row.rhs < 0 {
			sign = -1
		}
		for q, a := range row.coefs {
			f.A.Set(r, q, sign*a)
		}
		f.A.Set(r, k+r, sign*row.slack)
		f.b[r] = sign * row.rhs
		f.rowCons[r] = row.cons
		f.rowSign[r] = sign
	}

	z, err := simplex(f.c, f.A, f.b)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		res.status = lpInfeasible
		return res, nil
	case errors.Is(err, lp.ErrUnbounded):
		res.status = lpUnbounded
		return res, nil
	case err != nil:
		return res, fmt.Errorf("simplex: %w", err)
	}

	for q, j := range f.cols {
		x[j] = lower[j] + math.Max(z[q], 0)
	}
	res.status = lpOptimal
	res.form = f
	res.z = z
	res.obj = 0
	for j := 0; j < n; j++ {
		res.obj += cost[j] * x[j]
	}
	return res, nil
}

// simplex calls the gonum solver, turning its shape panics into errors.
func simplex(c []float64, A mat.Matrix, b []float64) (z []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simplex panic: %v", r)
		}
	}()
	_, z, err = lp.Simplex(c, A, b, simplexTol, nil)
	return z, err
}
