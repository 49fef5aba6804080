package engine

import (
	"context"
	"time"

	"github.com/piwi3910/optimystic/internal/analytics"
	"github.com/piwi3910/optimystic/internal/model"
	"github.com/piwi3910/optimystic/internal/templates"
)

// CutRequest is a cutting job: the order, the stock and the settings.
type CutRequest struct {
	Items    []model.Item      `json:"items"`
	Stocks   []model.Stock     `json:"stocks"`
	Settings model.CutSettings `json:"settings"`
}

// Params returns the generator input of the job.
func (r CutRequest) Params() templates.CuttingParams {
	return templates.CuttingParams{
		Items:  r.Items,
		Stocks: r.Stocks,
		Kerf:   r.Settings.Kerf,
		Sense:  r.Settings.Sense,
	}
}

// The warm-start search may use 1/hintShare of the time limit.
const hintShare = 4

// SolveCutting generates the cutting model, improves its warm start, solves
// it and attaches the reconstructed plan. Invalid tables (including a kerf
// wider than every bar) are returned as errors before anything is solved.
// The warm-start search and the solve share one time limit.
func (o *Optimizer) SolveCutting(ctx context.Context, req CutRequest) (templates.Model, model.SolveResult, error) {
	p := req.Params()
	m, err := templates.Cutting(p)
	if err != nil {
		return templates.Model{}, model.SolveResult{}, err
	}

	limit := time.Duration(o.Config.ClampTimeLimit(req.Settings.TimeLimitSeconds) * float64(time.Second))
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	hintCtx, cancelHint := context.WithTimeout(ctx, limit/hintShare)
	m.Hint = EvolveHint(hintCtx, p, m)
	cancelHint()

	res := o.Solve(ctx, Request{
		Store:            m.Store,
		Sense:            m.Sense,
		Objective:        m.Objective,
		Constraints:      m.ConstraintText(),
		TimeLimitSeconds: req.Settings.TimeLimitSeconds,
		Hint:             m.Hint,
	})
	if res.Solved() {
		remnantMin := req.Settings.RemnantMinLength
		if remnantMin <= 0 {
			remnantMin = o.Config.RemnantMinLength
		}
		plan := analytics.Build(res, m, p, remnantMin)
		res.Plan = &plan
	}
	return m, res, nil
}
