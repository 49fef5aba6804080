package solver

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// shadowPrices derives the dual value of every model constraint from an
// optimal standard-form solution. A basis is rebuilt from the positive
// columns, completed with slack and structural columns until it spans all
// rows, and y solves Bᵀy = c_B. The result is the rate of change of the
// minimization objective per unit of right-hand side.
func (f *standardForm) shadowPrices(z []float64, nCons int) []float64 {
	duals := make([]float64, nCons)
	if f == nil || f.A == nil {
		return duals
	}
	mRows, nCols := f.A.Dims()
	k := len(f.cols)

	basis := make([]int, 0, mRows)
	gs := newGramSchmidt(mRows)
	col := make([]float64, mRows)
	try := func(j int) {
		if len(basis) == mRows {
			return
		}
		mat.Col(col, j, f.A)
		if gs.add(col) {
			basis = append(basis, j)
		}
	}

	for j := 0; j < nCols; j++ {
		if z[j] > 1e-9 {
			try(j)
		}
	}
	for j := k; j < nCols; j++ {
		try(j)
	}
	for j := 0; j < k; j++ {
		try(j)
	}
	if len(basis) < mRows {
		return duals
	}

	B := mat.NewDense(mRows, mRows, nil)
	cB := mat.NewVecDense(mRows, nil)
	for i, j := range basis {
		mat.Col(col, j, f.A)
		B.SetCol(i, col)
		cB.SetVec(i, f.c[j])
	}
	var y mat.VecDense
	if err := y.SolveVec(B.T(), cB); err != nil {
		return duals
	}

	for r := 0; r < mRows; r++ {
		if i := f.rowCons[r]; i >= 0 {
			duals[i] += f.rowSign[r] * y.AtVec(r)
		}
	}
	for i, d := range duals {
		if math.Abs(d) < 1e-12 {
			duals[i] = 0
		}
	}
	return duals
}

// gramSchmidt tracks an orthonormal basis to test column independence.
type gramSchmidt struct {
	dim int
	q   [][]float64
}

func newGramSchmidt(dim int) *gramSchmidt {
	return &gramSchmidt{dim: dim}
}

// add orthogonalizes v against the basis and keeps it when a significant
// component remains.
func (g *gramSchmidt) add(v []float64) bool {
	w := make([]float64, g.dim)
	copy(w, v)
	norm0 := math.Sqrt(dot(w, w))
	if norm0 == 0 {
		return false
	}
	// two passes keep the basis orthogonal in floating point
	for pass := 0; pass < 2; pass++ {
		for _, q := range g.q {
			d := dot(w, q)
			for i := range w {
				w[i] -= d * q[i]
			}
		}
	}
	norm := math.Sqrt(dot(w, w))
	if norm <= 1e-9*norm0 {
		return false
	}
	for i := range w {
		w[i] /= norm
	}
	g.q = append(g.q, w)
	return true
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
