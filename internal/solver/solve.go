package solver

import (
	"context"
	"math"
)

// Status is the outcome of a solve.
type Status string

const (
	StatusOptimal    Status = "Optimal"
	StatusFeasible   Status = "Feasible" // Stopped early with an integer solution
	StatusInfeasible Status = "Infeasible"
	StatusUnbounded  Status = "Unbounded"
	StatusNotSolved  Status = "Not Solved" // Stopped early without one
)

// IntegralityTolerance is how far from a whole number an integer variable
// may sit in an LP solution and still count as integral.
const IntegralityTolerance = 1e-6

// Solution is the result of Solve. Values, Slacks and Duals are empty
// unless a solution was found.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64 // Indexed like Model.Vars
	Slacks    []float64 // Indexed like Model.Constraints
	Duals     []float64 // Shadow price of each constraint
	Nodes     int       // Relaxations solved
}

// HasSolution reports whether Values hold a feasible assignment.
func (s Solution) HasSolution() bool {
	return s.Status == StatusOptimal || s.Status == StatusFeasible
}

type node struct {
	lower, upper []float64
	bound        float64 // Parent relaxation objective
}

// Solve runs branch-and-bound until the tree is exhausted or ctx is done.
// A deadline on ctx acts as the time limit: the best solution found so far
// is returned with StatusFeasible, or StatusNotSolved when there is none.
func Solve(ctx context.Context, m *Model) (Solution, error) {
	if err := m.Validate(); err != nil {
		return Solution{}, err
	}
	cost := minCosts(m)
	n := len(m.Vars)

	rootLower := make([]float64, n)
	rootUpper := make([]float64, n)
	for j, v := range m.Vars {
		rootLower[j], rootUpper[j] = v.Lower, v.Upper
		if v.integral() {
			rootLower[j] = math.Ceil(v.Lower - IntegralityTolerance)
			if !math.IsInf(v.Upper, 1) {
				rootUpper[j] = math.Floor(v.Upper + IntegralityTolerance)
			}
		}
	}

	integralObj := objectiveIsIntegral(m)
	var incumbent []float64
	incObj := math.Inf(1)

	if m.Hint != nil {
		hint := make([]float64, n)
		for j, v := range m.Hint {
			if j >= 0 && j < n {
				hint[j] = v
			}
		}
		if isFeasible(m, hint) {
			incumbent = roundIntegral(m, hint)
			incObj = dotCost(cost, incumbent)
		}
	}

	// prune reports whether a relaxation bound cannot beat the incumbent
	prune := func(bound float64) bool {
		if incumbent == nil {
			return false
		}
		if integralObj {
			bound = math.Ceil(bound - IntegralityTolerance)
		}
		return bound >= incObj-1e-9*math.Max(1, math.Abs(incObj))
	}

	sol := Solution{}
	stack := []node{{lower: rootLower, upper: rootUpper, bound: math.Inf(-1)}}
	timedOut := false

	for len(stack) > 0 {
		if ctx.Err() != nil {
			timedOut = true
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if prune(nd.bound) {
			continue
		}

		res, err := solveLP(m, cost, nd.lower, nd.upper)
		if err != nil {
			return Solution{}, err
		}
		sol.Nodes++
		switch res.status {
		case lpInfeasible:
			continue
		case lpUnbounded:
			if sol.Nodes == 1 {
				sol.Status = StatusUnbounded
				return sol, nil
			}
			continue
		}
		if prune(res.obj) {
			continue
		}

		j := branchVariable(m, res.x)
		if j < 0 {
			incumbent = roundIntegral(m, res.x)
			incObj = dotCost(cost, incumbent)
			continue
		}

		v := res.x[j]
		down := node{lower: clone(nd.lower), upper: clone(nd.upper), bound: res.obj}
		down.upper[j] = math.Floor(v)
		up := node{lower: clone(nd.lower), upper: clone(nd.upper), bound: res.obj}
		up.lower[j] = math.Ceil(v)

		// the branch nearer to the LP value is explored first
		if v-math.Floor(v) >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}

	switch {
	case incumbent == nil && timedOut:
		sol.Status = StatusNotSolved
		return sol, nil
	case incumbent == nil:
		sol.Status = StatusInfeasible
		return sol, nil
	case timedOut:
		sol.Status = StatusFeasible
	default:
		sol.Status = StatusOptimal
	}

	sol.Values, sol.Duals = finalize(m, cost, incumbent)
	sol.Objective = Evaluate(m.Objective, sol.Values) + m.ObjConst
	sol.Slacks = make([]float64, len(m.Constraints))
	for i, c := range m.Constraints {
		lhs := Evaluate(c.Coefs, sol.Values)
		switch c.Rel {
		case GE:
			sol.Slacks[i] = lhs - c.RHS
		default:
			sol.Slacks[i] = c.RHS - lhs
		}
	}
	return sol, nil
}

// finalize re-solves the relaxation with every integer variable fixed at its
// incumbent value and reads shadow prices from that LP. The continuous part
// of the incumbent is replaced by the re-solve when it is at least as good.
func finalize(m *Model, cost, incumbent []float64) ([]float64, []float64) {
	n := len(m.Vars)
	lower := make([]float64, n)
	upper := make([]float64, n)
	for j, v := range m.Vars {
		if v.integral() {
			lower[j], upper[j] = incumbent[j], incumbent[j]
		} else {
			lower[j], upper[j] = v.Lower, v.Upper
		}
	}
	duals := make([]float64, len(m.Constraints))
	res, err := solveLP(m, cost, lower, upper)
	if err != nil || res.status != lpOptimal {
		return incumbent, duals
	}
	values := incumbent
	if res.obj <= dotCost(cost, incumbent)+1e-9 && isFeasible(m, res.x) {
		values = res.x
	}
	if res.form != nil {
		duals = res.form.shadowPrices(res.z, len(m.Constraints))
	}
	if m.Sense == Maximize {
		for i := range duals {
			duals[i] = -duals[i]
		}
	}
	return values, duals
}

// branchVariable returns the most fractional integer variable, or -1 when
// the solution is integral.
func branchVariable(m *Model, x []float64) int {
	best, bestDist := -1, 0.0
	for j, v := range m.Vars {
		if !v.integral() {
			continue
		}
		frac := x[j] - math.Floor(x[j])
		dist := math.Min(frac, 1-frac)
		if dist > IntegralityTolerance && dist > bestDist {
			best, bestDist = j, dist
		}
	}
	return best
}

func objectiveIsIntegral(m *Model) bool {
	if m.ObjConst != math.Trunc(m.ObjConst) {
		return false
	}
	for j, c := range m.Objective {
		if c == 0 {
			continue
		}
		if !m.Vars[j].integral() || c != math.Trunc(c) {
			return false
		}
	}
	return true
}

// isFeasible checks bounds, integrality and every row within tolerance.
func isFeasible(m *Model, x []float64) bool {
	for j, v := range m.Vars {
		if x[j] < v.Lower-feasTol || x[j] > v.Upper+feasTol {
			return false
		}
		if v.integral() && math.Abs(x[j]-math.Round(x[j])) > IntegralityTolerance {
			return false
		}
	}
	for _, c := range m.Constraints {
		lhs := Evaluate(c.Coefs, x)
		tol := feasTol * math.Max(1, math.Abs(c.RHS))
		switch c.Rel {
		case LE:
			if lhs > c.RHS+tol {
				return false
			}
		case GE:
			if lhs < c.RHS-tol {
				return false
			}
		case EQ:
			if math.Abs(lhs-c.RHS) > tol {
				return false
			}
		}
	}
	return true
}

func roundIntegral(m *Model, x []float64) []float64 {
	out := clone(x)
	for j, v := range m.Vars {
		if v.integral() {
			out[j] = math.Round(out[j])
		}
	}
	return out
}

func dotCost(cost, x []float64) float64 {
	var s float64
	for j := range cost {
		s += cost[j] * x[j]
	}
	return s
}

func clone(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
