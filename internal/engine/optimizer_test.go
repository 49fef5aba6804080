package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/optimystic/internal/model"
	"github.com/piwi3910/optimystic/internal/templates"
)

func newTestOptimizer() *Optimizer {
	return New(model.DefaultAppConfig())
}

func scalarVar(name string, typ model.VarType) model.VarSpec {
	return model.VarSpec{Name: name, Shape: model.ShapeScalar, Type: typ}
}

func cutRequest(kerf float64, items ...model.Item) CutRequest {
	settings := model.DefaultSettings()
	settings.Kerf = kerf
	return CutRequest{
		Items:    items,
		Stocks:   []model.Stock{model.NewStock("Bar", 1000, 10, 5)},
		Settings: settings,
	}
}

func TestSolveCutting_OneBinSuffices(t *testing.T) {
	_, res, err := newTestOptimizer().SolveCutting(context.Background(), cutRequest(0, model.NewItem("Leg", 300, 3, 0)))
	require.NoError(t, err)
	require.Equal(t, model.StatusOptimal, res.Status)
	assert.InDelta(t, 10.0, res.Objective, 1e-6)

	used := 0
	for _, v := range res.Variables {
		if v.Variable[:2] == "U_" {
			assert.InDelta(t, 1.0, v.Value, 1e-6)
			used++
		}
	}
	assert.Equal(t, 1, used)

	require.NotNil(t, res.Plan)
	require.Len(t, res.Plan.Bins, 1)
	assert.Equal(t, 3, res.Plan.Bins[0].PieceCount())
}

func TestSolveCutting_MaximizeProfit(t *testing.T) {
	settings := model.DefaultSettings()
	settings.Sense = model.SenseMaximize
	settings.TimeLimitSeconds = 5
	req := CutRequest{Items: model.DefaultItems(), Stocks: model.DefaultStocks(), Settings: settings}

	start := time.Now()
	m, res, err := newTestOptimizer().SolveCutting(context.Background(), req)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 8*time.Second)
	require.Contains(t, []string{model.StatusOptimal, model.StatusFeasible}, res.Status)
	assert.Greater(t, res.Objective, 0.0)

	produced := make([]float64, len(req.Items))
	for _, v := range res.Variables {
		if ak, ok := m.Assignments[v.Variable]; ok {
			produced[ak.Item] += v.Value
		}
	}
	for i, it := range req.Items {
		assert.LessOrEqual(t, produced[i], it.Demand+1e-6, it.Name)
	}

	require.NotNil(t, res.Plan)
	assert.NotEmpty(t, res.Plan.Bins)
	assert.InDelta(t, res.Objective, res.Plan.Financials.Profit, 1e-6)
	for _, f := range res.Plan.Fulfillment {
		assert.Zero(t, f.Surplus, f.Item)
	}
}

func TestSolveCutting_HintSearchWithinTimeLimit(t *testing.T) {
	cfg := model.DefaultAppConfig()
	cfg.MinTimeLimitSeconds = 0
	settings := model.DefaultSettings()
	settings.TimeLimitSeconds = 1
	req := CutRequest{Items: model.DefaultItems(), Stocks: model.DefaultStocks(), Settings: settings}

	start := time.Now()
	_, res, err := New(cfg).SolveCutting(context.Background(), req)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Contains(t, []string{model.StatusOptimal, model.StatusFeasible}, res.Status)
}

func TestSolve_DeeplyNestedObjectiveIsAnError(t *testing.T) {
	res := newTestOptimizer().Solve(context.Background(), Request{
		Sense:     model.SenseMinimize,
		Objective: strings.Repeat("(", 3_000_000) + "1" + strings.Repeat(")", 3_000_000),
	})
	assert.Equal(t, model.StatusError, res.Status)
	assert.Contains(t, res.ErrorMsg, "nested too deeply")
}

func TestSolveCutting_KerfBetweenTwoPieces(t *testing.T) {
	// 400 + 50 + 400 = 850 fits a 1000 mm bar; only the cut between pieces costs kerf
	_, res, err := newTestOptimizer().SolveCutting(context.Background(), cutRequest(50,
		model.NewItem("Left", 400, 1, 0),
		model.NewItem("Right", 400, 1, 0),
	))
	require.NoError(t, err)
	require.Equal(t, model.StatusOptimal, res.Status)
	assert.InDelta(t, 10.0, res.Objective, 1e-6)
	require.NotNil(t, res.Plan)
	require.Len(t, res.Plan.Bins, 1)
	assert.Equal(t, 50.0, res.Plan.Bins[0].KerfLength)
}

func TestSolveCutting_KerfTooWide(t *testing.T) {
	_, res, err := newTestOptimizer().SolveCutting(context.Background(), cutRequest(1000, model.NewItem("Leg", 300, 1, 0)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, templates.ErrKerfTooWide))
	assert.Empty(t, res.Status)
}

func TestSolveCutting_DiagnosesOversizedItem(t *testing.T) {
	_, res, err := newTestOptimizer().SolveCutting(context.Background(), cutRequest(0, model.NewItem("Beam", 9000, 1, 0)))
	require.NoError(t, err)
	assert.Equal(t, model.StatusInfeasible, res.Status)
	assert.Contains(t, res.ErrorMsg, "Longer than every stock (1000 mm): Beam (9000 mm)")
	assert.Nil(t, res.Plan)
}

func TestBridgeCreatesEveryGeneratedVariable(t *testing.T) {
	m, err := templates.Cutting(templates.CuttingParams{
		Items:  model.DefaultItems(),
		Stocks: model.DefaultStocks(),
		Sense:  model.SenseMinimize,
	})
	require.NoError(t, err)

	syms, err := buildSymbols(m.Store, m.Sense)
	require.NoError(t, err)
	// (30 + 11) candidate bars x (1 usage + 3 assignments)
	assert.Len(t, syms.model.Vars, 41*4)
	for name := range m.Assignments {
		_, ok := syms.index[name]
		assert.True(t, ok, name)
	}
}

func TestSolve_Transportation(t *testing.T) {
	gm, err := templates.Transportation(templates.Tables{
		"supply": {{"Plant": "Seattle", "Supply": 350.0}, {"Plant": "San Diego", "Supply": 600.0}},
		"demand": {{"Region": "NY", "Demand": 325.0}, {"Region": "Chicago", "Demand": 300.0}},
		"cost": {
			{model.RowLabelKey: "Seattle", "NY": 2.5, "Chicago": 1.7},
			{model.RowLabelKey: "San Diego", "NY": 2.5, "Chicago": 1.8},
		},
	})
	require.NoError(t, err)

	res := newTestOptimizer().Solve(context.Background(), Request{
		Store:       gm.Store,
		Sense:       gm.Sense,
		Objective:   gm.Objective,
		Constraints: gm.ConstraintText(),
	})
	require.Equal(t, model.StatusOptimal, res.Status, res.ErrorMsg)
	assert.InDelta(t, 1322.5, res.Objective, 1e-6)
	assert.InDelta(t, 300.0, res.Values()["Ship_Seattle_Chicago"], 1e-6)
	assert.Len(t, res.Constraints, 4)
	assert.Equal(t, "Supply_Seattle", res.Constraints[0].Constraint)
}

func TestSolve_ProductMixShadowPrices(t *testing.T) {
	gm, err := templates.ProductMix(templates.Tables{
		"products": {{"Product": "Chair", "Profit": 45.0}, {"Product": "Table", "Profit": 80.0}},
		"resources": {
			{"Resource": "Wood", "Capacity": 400.0, "Chair": 5.0, "Table": 20.0},
			{"Resource": "Labor", "Capacity": 450.0, "Chair": 10.0, "Table": 15.0},
		},
	})
	require.NoError(t, err)

	res := newTestOptimizer().Solve(context.Background(), Request{
		Store:       gm.Store,
		Sense:       gm.Sense,
		Objective:   gm.Objective,
		Constraints: gm.ConstraintText(),
	})
	require.Equal(t, model.StatusOptimal, res.Status, res.ErrorMsg)
	assert.InDelta(t, 2200.0, res.Objective, 1e-6)

	values := res.Values()
	assert.InDelta(t, 24.0, values["Produce_Chair"], 1e-6)
	assert.InDelta(t, 14.0, values["Produce_Table"], 1e-6)

	require.Len(t, res.Constraints, 2)
	assert.InDelta(t, 1.0, res.Constraints[0].ShadowPrice, 1e-6)
	assert.InDelta(t, 4.0, res.Constraints[1].ShadowPrice, 1e-6)
	assert.InDelta(t, 0.0, res.Constraints[0].Slack, 1e-6)
}

func TestSolve_MatrixParameterRows(t *testing.T) {
	res := newTestOptimizer().Solve(context.Background(), Request{
		Store: model.Store{
			Variables: []model.VarSpec{scalarVar("x", model.VarContinuous)},
			Parameters: []model.ParamSpec{{
				Name:  "Cost",
				Shape: model.ShapeMatrix,
				Data:  []any{map[string]any{model.RowLabelKey: "A", "X": 2.0}},
			}},
		},
		Sense:       model.SenseMinimize,
		Objective:   "Cost['A']['X'] * x",
		Constraints: "x >= 3",
	})
	require.Equal(t, model.StatusOptimal, res.Status, res.ErrorMsg)
	assert.InDelta(t, 6.0, res.Objective, 1e-6)
	assert.Equal(t, "C1", res.Constraints[0].Constraint)
}

func TestSolve_LineErrors(t *testing.T) {
	store := model.Store{Variables: []model.VarSpec{scalarVar("x", model.VarContinuous)}}
	tests := []struct {
		name        string
		objective   string
		constraints string
		want        string
	}{
		{"nonlinear", "x", "x >= 1\n\nx * x <= 4", "line 3: x * x <= 4"},
		{"unknown name", "x", "y >= 1", "line 1: y >= 1"},
		{"bad objective", "x +", "", "objective"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newTestOptimizer().Solve(context.Background(), Request{
				Store:       store,
				Sense:       model.SenseMinimize,
				Objective:   tt.objective,
				Constraints: tt.constraints,
			})
			assert.Equal(t, model.StatusError, res.Status)
			assert.Contains(t, res.ErrorMsg, tt.want)
			assert.Empty(t, res.Variables)
		})
	}
}

func TestSolve_GenericInfeasible(t *testing.T) {
	res := newTestOptimizer().Solve(context.Background(), Request{
		Store:       model.Store{Variables: []model.VarSpec{scalarVar("x", model.VarInteger)}},
		Sense:       model.SenseMinimize,
		Objective:   "x",
		Constraints: "x >= 2\nx <= 1",
	})
	assert.Equal(t, model.StatusInfeasible, res.Status)
	assert.Equal(t, GenericInfeasible, res.ErrorMsg)
}

func TestSolve_DuplicateDeclaration(t *testing.T) {
	res := newTestOptimizer().Solve(context.Background(), Request{
		Store: model.Store{
			Variables:  []model.VarSpec{scalarVar("x", model.VarContinuous)},
			Parameters: []model.ParamSpec{{Name: "x", Shape: model.ShapeScalar, Data: 1.0}},
		},
		Objective: "x",
	})
	assert.Equal(t, model.StatusError, res.Status)
	assert.Contains(t, res.ErrorMsg, "already declared")
}

func TestSolve_FiltersNoise(t *testing.T) {
	res := newTestOptimizer().Solve(context.Background(), Request{
		Store: model.Store{Variables: []model.VarSpec{
			scalarVar("x", model.VarContinuous),
			scalarVar("y", model.VarContinuous),
		}},
		Sense:       model.SenseMinimize,
		Objective:   "x + y",
		Constraints: "x >= 2",
	})
	require.Equal(t, model.StatusOptimal, res.Status)
	require.Len(t, res.Variables, 1)
	assert.Equal(t, "x", res.Variables[0].Variable)
}

func TestDiagnose_ShortOfLength(t *testing.T) {
	m, err := templates.Cutting(templates.CuttingParams{
		Items:  []model.Item{model.NewItem("Leg", 300, 5, 0)},
		Stocks: []model.Stock{model.NewStock("Bar", 1000, 10, 1)},
		Sense:  model.SenseMinimize,
	})
	require.NoError(t, err)

	msg := Diagnose(m.Store)
	assert.Contains(t, msg, "Required length: 1500 mm. Available length: 1000 mm.")
	assert.Contains(t, msg, "Short by 500 mm")

	assert.Equal(t, GenericInfeasible, Diagnose(model.Store{}))
}

func TestBuildDefaultScenarios(t *testing.T) {
	settings := model.DefaultSettings()
	settings.Kerf = 3

	names := func(scenarios []ComparisonScenario) []string {
		out := make([]string, len(scenarios))
		for i, s := range scenarios {
			out[i] = s.Name
		}
		return out
	}
	assert.Equal(t, []string{"Current Settings", "Kerf 1.5mm (half)", "No Kerf", "Maximize Profit"},
		names(BuildDefaultScenarios(settings)))

	settings.Kerf = 0
	settings.Sense = model.SenseMaximize
	assert.Equal(t, []string{"Current Settings", "Minimize Cost"}, names(BuildDefaultScenarios(settings)))
}

func TestCompareScenarios(t *testing.T) {
	req := cutRequest(0, model.NewItem("Leg", 300, 3, 0))
	results := newTestOptimizer().CompareScenarios(context.Background(),
		BuildDefaultScenarios(req.Settings), req.Items, req.Stocks)

	require.Len(t, results, 2)
	assert.Equal(t, model.StatusOptimal, results[0].Status)
	assert.Equal(t, 1, results[0].BarsUsed)
	assert.Equal(t, 10.0, results[0].MaterialCost)
	assert.InDelta(t, 10.0, results[0].WastePercent, 1e-9)

	// nothing sells, so the profit-maximizing plan cuts nothing
	assert.Equal(t, model.StatusOptimal, results[1].Status)
	assert.Equal(t, 0, results[1].BarsUsed)
	assert.Equal(t, 3.0, results[1].Shortfall)
}
