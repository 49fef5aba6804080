// Package service ties the generators, the solver bridge, analytics,
// persistence and export together behind the operations the HTTP API serves.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/piwi3910/optimystic/internal/analytics"
	"github.com/piwi3910/optimystic/internal/engine"
	"github.com/piwi3910/optimystic/internal/export"
	"github.com/piwi3910/optimystic/internal/importer"
	"github.com/piwi3910/optimystic/internal/model"
	"github.com/piwi3910/optimystic/internal/project"
	"github.com/piwi3910/optimystic/internal/templates"
)

// Service is safe for concurrent use. Solves share no state; the project
// store and the inventory file are guarded by their own locks.
type Service struct {
	cfg       model.AppConfig
	optimizer *engine.Optimizer
	projects  *project.Store

	invMu   sync.Mutex
	invPath string
}

// New opens the data directory of cfg and returns a ready service.
func New(cfg model.AppConfig) (*Service, error) {
	dataDir := project.DataDir(cfg)
	store, err := project.NewStore(dataDir)
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:       cfg,
		optimizer: engine.New(cfg),
		projects:  store,
		invPath:   project.InventoryPath(dataDir),
	}, nil
}

// Config returns the configuration the service runs with.
func (s *Service) Config() model.AppConfig {
	return s.cfg
}

// Templates returns the template gallery.
func (s *Service) Templates() []model.TemplateInfo {
	return model.TemplateGallery
}

// GenerateModel builds the objective, constraints and declarations of a
// gallery template from its input tables.
func (s *Service) GenerateModel(mode string, tables templates.Tables, settings model.CutSettings) (templates.Model, error) {
	if err := templates.Check(mode); err != nil {
		return templates.Model{}, err
	}
	return templates.Generate(mode, tables, s.settings(settings))
}

// settings fills unset solve settings from the configured defaults.
func (s *Service) settings(in model.CutSettings) model.CutSettings {
	if in.Sense == "" {
		in.Sense = model.SenseMinimize
	}
	in.Sense = model.ParseSense(string(in.Sense))
	if in.TimeLimitSeconds <= 0 {
		in.TimeLimitSeconds = s.cfg.DefaultTimeLimitSeconds
	}
	if in.RemnantMinLength <= 0 {
		in.RemnantMinLength = s.cfg.RemnantMinLength
	}
	return in
}

// SolveRequest solves user-edited formulas against a model store. When Mode
// is cutting and the item and stock tables are given, the cut plan is
// reconstructed from the solution.
type SolveRequest struct {
	Mode             string            `json:"mode"`
	Tables           templates.Tables  `json:"tables,omitempty"`
	Settings         model.CutSettings `json:"settings"`
	Store            model.Store       `json:"store"`
	Sense            model.Sense       `json:"sense"`
	Objective        string            `json:"objective"`
	Constraints      string            `json:"constraints"`
	TimeLimitSeconds float64           `json:"time_limit_seconds"`
}

// Solve runs the formula bridge. Evaluation and solver failures come back in
// the result; the error is only set for unusable cutting tables.
func (s *Service) Solve(ctx context.Context, req SolveRequest) (model.SolveResult, error) {
	settings := s.settings(req.Settings)
	sense := req.Sense
	if sense == "" {
		sense = settings.Sense
	}
	limit := req.TimeLimitSeconds
	if limit <= 0 {
		limit = settings.TimeLimitSeconds
	}

	res := s.optimizer.Solve(ctx, engine.Request{
		Store:            req.Store,
		Sense:            model.ParseSense(string(sense)),
		Objective:        req.Objective,
		Constraints:      req.Constraints,
		TimeLimitSeconds: limit,
	})

	if req.Mode != model.ModeCutting || len(req.Tables["items"]) == 0 || !res.Solved() {
		return res, nil
	}
	// the plan is drawn with the kerf the solved store was generated with
	if kerf, ok := storeKerf(req.Store); ok {
		settings.Kerf = kerf
	}
	p, err := cuttingParams(req.Tables, settings)
	if err != nil {
		return res, err
	}
	m, err := templates.Cutting(p)
	if err != nil {
		return res, err
	}
	plan := analytics.Build(res, m, p, settings.RemnantMinLength)
	res.Plan = &plan
	return res, nil
}

// storeKerf reads the scalar Kerf parameter of a generated cutting store.
func storeKerf(store model.Store) (float64, bool) {
	param, ok := store.Param("Kerf")
	if !ok {
		return 0, false
	}
	switch v := param.Data.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func cuttingParams(tables templates.Tables, settings model.CutSettings) (templates.CuttingParams, error) {
	items, err := templates.ItemsFromRows(tables["items"])
	if err != nil {
		return templates.CuttingParams{}, err
	}
	stocks, err := templates.StocksFromRows(tables["stocks"])
	if err != nil {
		return templates.CuttingParams{}, err
	}
	return templates.CuttingParams{Items: items, Stocks: stocks, Kerf: settings.Kerf, Sense: settings.Sense}, nil
}

// CuttingRequest is a cutting job given as item and stock tables.
type CuttingRequest struct {
	Tables   templates.Tables  `json:"tables"`
	Settings model.CutSettings `json:"settings"`
}

func (s *Service) cutRequest(req CuttingRequest) (engine.CutRequest, error) {
	settings := s.settings(req.Settings)
	p, err := cuttingParams(req.Tables, settings)
	if err != nil {
		return engine.CutRequest{}, err
	}
	return engine.CutRequest{Items: p.Items, Stocks: p.Stocks, Settings: settings}, nil
}

// CuttingResponse is the outcome of a cutting job with its generated model.
type CuttingResponse struct {
	Model   templates.Model     `json:"model"`
	Result  model.SolveResult   `json:"result"`
	CutList []analytics.PlanRow `json:"cut_list"`
	Insight string              `json:"insight"`

	// Purchase is a lower bound on the bars to buy per stock type,
	// padded by PurchaseWastePercent.
	Purchase []model.PurchaseEstimate `json:"purchase"`
}

// PurchaseWastePercent pads the purchase estimate for offcuts and miscuts.
const PurchaseWastePercent = 10.0

// SolveCutting validates the tables, generates the model, solves it and
// analyses the plan.
func (s *Service) SolveCutting(ctx context.Context, req CuttingRequest) (CuttingResponse, error) {
	cut, err := s.cutRequest(req)
	if err != nil {
		return CuttingResponse{}, err
	}
	m, res, err := s.optimizer.SolveCutting(ctx, cut)
	if err != nil {
		return CuttingResponse{}, err
	}
	out := CuttingResponse{
		Model:    m,
		Result:   res,
		CutList:  []analytics.PlanRow{},
		Purchase: model.CalculatePurchaseEstimates(cut.Items, cut.Stocks, cut.Settings.Kerf, PurchaseWastePercent),
	}
	if res.Plan != nil {
		out.CutList = analytics.Rows(*res.Plan)
		out.Insight = analytics.Insight(*res.Plan, cut.Settings.Sense)
		for _, w := range res.Plan.Warnings {
			log.Warnf("cut plan: %s", w)
		}
	}
	return out, nil
}

// CompareRequest runs a cutting job under several settings. Without
// scenarios the default what-if set is derived from Settings.
type CompareRequest struct {
	CuttingRequest
	Scenarios []engine.ComparisonScenario `json:"scenarios,omitempty"`
}

// Compare solves each scenario in turn.
func (s *Service) Compare(ctx context.Context, req CompareRequest) ([]engine.ComparisonResult, error) {
	cut, err := s.cutRequest(req.CuttingRequest)
	if err != nil {
		return nil, err
	}
	if err := templates.ValidateCutting(cut.Params()); err != nil {
		return nil, err
	}
	scenarios := req.Scenarios
	if len(scenarios) == 0 {
		scenarios = engine.BuildDefaultScenarios(cut.Settings)
	}
	for i := range scenarios {
		scenarios[i].Settings = s.settings(scenarios[i].Settings)
	}
	return s.optimizer.CompareScenarios(ctx, scenarios, cut.Items, cut.Stocks), nil
}

// ExportRequest exports a solved result, or solves the cutting job first
// when no result is given.
type ExportRequest struct {
	CuttingRequest
	Result *model.SolveResult `json:"result,omitempty"`
}

// Export writes the result of req in the given format.
func (s *Service) Export(ctx context.Context, format string, req ExportRequest, w io.Writer) (export.Format, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return "", err
	}
	res := req.Result
	if res == nil {
		out, err := s.SolveCutting(ctx, req.CuttingRequest)
		if err != nil {
			return "", err
		}
		res = &out.Result
	}
	if !res.Solved() && f != export.FormatXLSX {
		return "", fmt.Errorf("%w: status %s", export.ErrNoPlan, res.Status)
	}
	return f, export.Write(w, f, *res, s.settings(req.Settings))
}

// Import parses an uploaded CSV or Excel file into rows of the named table.
func (s *Service) Import(table, filename string, data []byte) (importer.ImportResult, error) {
	return importer.Import(table, filename, data)
}
