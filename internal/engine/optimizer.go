// Package engine evaluates objective and constraint formulas against a
// model's declarations, solves the resulting MIP and reshapes the outcome.
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/pkg/errors"

	"github.com/piwi3910/optimystic/internal/formula"
	"github.com/piwi3910/optimystic/internal/model"
	"github.com/piwi3910/optimystic/internal/solver"
)

// ValueTolerance filters solver noise from the reported variables.
const ValueTolerance = 1e-5

// Request is one solve invocation.
type Request struct {
	Store            model.Store        `json:"store"`
	Sense            model.Sense        `json:"sense"`
	Objective        string             `json:"objective"`
	Constraints      string             `json:"constraints"`
	TimeLimitSeconds float64            `json:"time_limit_seconds"`
	Hint             map[string]float64 `json:"hint,omitempty"` // Optional warm start by variable name
}

// Optimizer runs formula models through the MIP solver.
type Optimizer struct {
	Config model.AppConfig
}

func New(cfg model.AppConfig) *Optimizer {
	return &Optimizer{Config: cfg}
}

// Solve evaluates and solves the request. Failures never escape as errors:
// they come back as a result with status Error and a message, including
// panics raised anywhere on the way.
func (o *Optimizer) Solve(ctx context.Context, req Request) (res model.SolveResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("solve panicked: %v", r)
			res = errorResult(fmt.Errorf("internal error: %v", r))
		}
	}()

	syms, err := buildSymbols(req.Store, req.Sense)
	if err != nil {
		return errorResult(err)
	}

	obj, err := formula.Objective(req.Objective, syms.env)
	if err != nil {
		return errorResult(err)
	}
	syms.model.SetObjective(obj.Terms, obj.Const)

	rows, err := formula.Constraints(req.Constraints, syms.env)
	if err != nil {
		return errorResult(err)
	}
	for _, r := range rows {
		syms.model.AddConstraint(r.Label, r.Constraint.Expr.Terms, solverRelation(r.Constraint.Op), r.Constraint.RHS())
	}
	if req.Hint != nil {
		syms.model.SetHint(syms.hintIDs(req.Hint))
	}

	limit := time.Duration(o.Config.ClampTimeLimit(req.TimeLimitSeconds) * float64(time.Second))
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	log.Debugf("solving %d variables, %d constraints, limit %s", len(syms.model.Vars), len(syms.model.Constraints), limit)
	start := time.Now()
	sol, err := solver.Solve(ctx, syms.model)
	if err != nil {
		return errorResult(errors.Wrap(err, "solver"))
	}
	log.Infof("solve finished: %s after %d nodes in %s", sol.Status, sol.Nodes, time.Since(start).Round(time.Millisecond))

	res = reshape(syms.model, sol)
	switch res.Status {
	case model.StatusInfeasible:
		res.ErrorMsg = Diagnose(req.Store)
	case model.StatusUnbounded:
		res.ErrorMsg = "The objective can improve without limit. Add bounds or constraints on the variables."
	case model.StatusNotSolved:
		res.ErrorMsg = fmt.Sprintf("No feasible solution was found within %s.", limit)
	}
	return res
}

// reshape turns the solver solution into the result tables. Only variables
// with |value| > ValueTolerance are listed.
func reshape(m *solver.Model, sol solver.Solution) model.SolveResult {
	res := model.SolveResult{
		Status:      string(sol.Status),
		Variables:   []model.VariableValue{},
		Constraints: []model.ConstraintReport{},
	}
	if !sol.HasSolution() {
		return res
	}
	res.Objective = cleanZero(sol.Objective)
	for j, v := range sol.Values {
		if math.Abs(v) > ValueTolerance {
			res.Variables = append(res.Variables, model.VariableValue{Variable: m.Vars[j].Name, Value: v})
		}
	}
	for i, c := range m.Constraints {
		res.Constraints = append(res.Constraints, model.ConstraintReport{
			Constraint:  c.Name,
			ShadowPrice: cleanZero(sol.Duals[i]),
			Slack:       cleanZero(sol.Slacks[i]),
		})
	}
	return res
}

// cleanZero folds -0 and values within 1e-9 of zero into 0.
func cleanZero(v float64) float64 {
	if math.Abs(v) < 1e-9 {
		return 0
	}
	return v
}

func errorResult(err error) model.SolveResult {
	return model.SolveResult{
		Status:      model.StatusError,
		Variables:   []model.VariableValue{},
		Constraints: []model.ConstraintReport{},
		ErrorMsg:    err.Error(),
	}
}
