package solver

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solve(t *testing.T, m *Model) Solution {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sol, err := Solve(ctx, m)
	require.NoError(t, err)
	return sol
}

func TestContinuousLP(t *testing.T) {
	// max 3x + 2y s.t. x + y <= 4, x + 3y <= 6, x <= 3
	m := NewModel(Maximize)
	x := m.AddVar("x", Continuous, 0, math.Inf(1))
	y := m.AddVar("y", Continuous, 0, math.Inf(1))
	m.SetObjective(map[int]float64{x: 3, y: 2}, 0)
	m.AddConstraint("c1", map[int]float64{x: 1, y: 1}, LE, 4)
	m.AddConstraint("c2", map[int]float64{x: 1, y: 3}, LE, 6)
	m.AddConstraint("c3", map[int]float64{x: 1}, LE, 3)

	sol := solve(t, m)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 11.0, sol.Objective, 1e-6)
	assert.InDelta(t, 3.0, sol.Values[x], 1e-6)
	assert.InDelta(t, 1.0, sol.Values[y], 1e-6)

	// all three rows bind at (3, 1)
	assert.InDelta(t, 0.0, sol.Slacks[0], 1e-6)
	assert.InDelta(t, 0.0, sol.Slacks[2], 1e-6)
}

func TestShadowPricesNonDegenerate(t *testing.T) {
	// min 2x + 3y s.t. x + y >= 10, x <= 6
	m := NewModel(Minimize)
	x := m.AddVar("x", Continuous, 0, math.Inf(1))
	y := m.AddVar("y", Continuous, 0, math.Inf(1))
	m.SetObjective(map[int]float64{x: 2, y: 3}, 0)
	m.AddConstraint("demand", map[int]float64{x: 1, y: 1}, GE, 10)
	m.AddConstraint("capx", map[int]float64{x: 1}, LE, 6)

	sol := solve(t, m)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 24.0, sol.Objective, 1e-6)
	// one more unit of demand is served by y at cost 3
	assert.InDelta(t, 3.0, sol.Duals[0], 1e-6)
	// one more unit of x capacity saves 1
	assert.InDelta(t, -1.0, sol.Duals[1], 1e-6)
	assert.InDelta(t, 0.0, sol.Slacks[0], 1e-6)
}

func TestShadowPriceMaximize(t *testing.T) {
	// max 5x s.t. x <= 4
	m := NewModel(Maximize)
	x := m.AddVar("x", Continuous, 0, math.Inf(1))
	m.SetObjective(map[int]float64{x: 5}, 0)
	m.AddConstraint("cap", map[int]float64{x: 1}, LE, 4)

	sol := solve(t, m)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 20.0, sol.Objective, 1e-6)
	assert.InDelta(t, 5.0, sol.Duals[0], 1e-6)
}

func TestIntegerKnapsack(t *testing.T) {
	// max 5a + 4b + 3c s.t. 2a + 3b + c <= 5, 4a + b + 2c <= 11, 3a + 4b + 2c <= 8
	m := NewModel(Maximize)
	a := m.AddVar("a", Integer, 0, math.Inf(1))
	b := m.AddVar("b", Integer, 0, math.Inf(1))
	c := m.AddVar("c", Integer, 0, math.Inf(1))
	m.SetObjective(map[int]float64{a: 5, b: 4, c: 3}, 0)
	m.AddConstraint("r1", map[int]float64{a: 2, b: 3, c: 1}, LE, 5)
	m.AddConstraint("r2", map[int]float64{a: 4, b: 1, c: 2}, LE, 11)
	m.AddConstraint("r3", map[int]float64{a: 3, b: 4, c: 2}, LE, 8)

	sol := solve(t, m)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 13.0, sol.Objective, 1e-6)
	for _, v := range sol.Values {
		assert.Equal(t, math.Round(v), v)
	}
}

func TestBinarySelection(t *testing.T) {
	// pick items with weights 4,3,2 and values 10,7,4 under capacity 5
	m := NewModel(Maximize)
	ids := []int{
		m.AddVar("p0", Binary, 0, 1),
		m.AddVar("p1", Binary, 0, 1),
		m.AddVar("p2", Binary, 0, 1),
	}
	m.SetObjective(map[int]float64{ids[0]: 10, ids[1]: 7, ids[2]: 4}, 0)
	m.AddConstraint("cap", map[int]float64{ids[0]: 4, ids[1]: 3, ids[2]: 2}, LE, 5)

	sol := solve(t, m)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 11.0, sol.Objective, 1e-6)
	assert.Equal(t, []float64{0, 1, 1}, sol.Values)
}

func TestInfeasible(t *testing.T) {
	m := NewModel(Minimize)
	x := m.AddVar("x", Continuous, 0, math.Inf(1))
	m.SetObjective(map[int]float64{x: 1}, 0)
	m.AddConstraint("lo", map[int]float64{x: 1}, GE, 5)
	m.AddConstraint("hi", map[int]float64{x: 1}, LE, 3)

	sol := solve(t, m)
	assert.Equal(t, StatusInfeasible, sol.Status)
	assert.False(t, sol.HasSolution())
}

func TestIntegerInfeasible(t *testing.T) {
	// 2x == 3 has no integer solution
	m := NewModel(Minimize)
	x := m.AddVar("x", Integer, 0, 10)
	m.AddConstraint("odd", map[int]float64{x: 2}, EQ, 3)

	sol := solve(t, m)
	assert.Equal(t, StatusInfeasible, sol.Status)
}

func TestUnbounded(t *testing.T) {
	m := NewModel(Maximize)
	x := m.AddVar("x", Continuous, 0, math.Inf(1))
	y := m.AddVar("y", Continuous, 0, math.Inf(1))
	m.SetObjective(map[int]float64{x: 1, y: 1}, 0)
	m.AddConstraint("c", map[int]float64{x: 1, y: -1}, LE, 2)

	sol := solve(t, m)
	assert.Equal(t, StatusUnbounded, sol.Status)
}

func TestUnboundedUnconstrainedVariable(t *testing.T) {
	m := NewModel(Maximize)
	x := m.AddVar("x", Continuous, 0, math.Inf(1))
	m.SetObjective(map[int]float64{x: 1}, 0)

	sol := solve(t, m)
	assert.Equal(t, StatusUnbounded, sol.Status)
}

func TestConstantRowsArePresolved(t *testing.T) {
	m := NewModel(Minimize)
	x := m.AddVar("x", Continuous, 0, math.Inf(1))
	m.SetObjective(map[int]float64{x: 1}, 0)
	m.AddConstraint("trivial", nil, LE, 0)
	m.AddConstraint("lo", map[int]float64{x: 1}, GE, 2)

	sol := solve(t, m)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 2.0, sol.Objective, 1e-6)

	m.AddConstraint("broken", nil, LE, -1)
	sol = solve(t, m)
	assert.Equal(t, StatusInfeasible, sol.Status)
}

func TestObjectiveConstant(t *testing.T) {
	m := NewModel(Minimize)
	x := m.AddVar("x", Integer, 0, 5)
	m.SetObjective(map[int]float64{x: 2}, 7)
	m.AddConstraint("lo", map[int]float64{x: 1}, GE, 1.5)

	sol := solve(t, m)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 11.0, sol.Objective, 1e-6)
	assert.Equal(t, 2.0, sol.Values[x])
}

func TestHintIsUsedAsIncumbent(t *testing.T) {
	m := NewModel(Minimize)
	x := m.AddVar("x", Integer, 0, math.Inf(1))
	m.SetObjective(map[int]float64{x: 1}, 0)
	m.AddConstraint("lo", map[int]float64{x: 1}, GE, 2.5)
	m.SetHint(map[int]float64{x: 3})

	// an expired context returns the hint without exploring the tree
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sol, err := Solve(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, StatusFeasible, sol.Status)
	assert.Equal(t, 3.0, sol.Values[x])
}

func TestInfeasibleHintIsIgnored(t *testing.T) {
	m := NewModel(Minimize)
	x := m.AddVar("x", Integer, 0, math.Inf(1))
	m.SetObjective(map[int]float64{x: 1}, 0)
	m.AddConstraint("lo", map[int]float64{x: 1}, GE, 2.5)
	m.SetHint(map[int]float64{x: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sol, err := Solve(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, StatusNotSolved, sol.Status)
}

func TestValidateRejectsBadIndex(t *testing.T) {
	m := NewModel(Minimize)
	m.AddVar("x", Continuous, 0, 1)
	m.AddConstraint("bad", map[int]float64{3: 1}, LE, 1)

	_, err := Solve(context.Background(), m)
	assert.Error(t, err)
}

func TestBinaryBoundsAreClamped(t *testing.T) {
	m := NewModel(Minimize)
	j := m.AddVar("b", Binary, -5, 10)
	assert.Equal(t, 0.0, m.Vars[j].Lower)
	assert.Equal(t, 1.0, m.Vars[j].Upper)
	assert.Equal(t, "Binary", m.Vars[j].Type.String())
}
