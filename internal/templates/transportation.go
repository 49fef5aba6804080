package templates

import (
	"fmt"
	"strings"

	"github.com/piwi3910/optimystic/internal/model"
)

// Transportation ships goods from plants to regions at minimum cost.
// Tables: "supply" (Plant, Supply), "demand" (Region, Demand) and the
// "cost" matrix with one row per plant (row_label) and one column per region.
func Transportation(tables Tables) (Model, error) {
	plants, err := names(tables["supply"], "Plant", "supply")
	if err != nil {
		return Model{}, err
	}
	regions, err := names(tables["demand"], "Region", "demand")
	if err != nil {
		return Model{}, err
	}
	supply, err := column(tables["supply"], "Plant", "Supply", 0)
	if err != nil {
		return Model{}, err
	}
	demand, err := column(tables["demand"], "Region", "Demand", 0)
	if err != nil {
		return Model{}, err
	}
	cost, err := costMatrix(tables["cost"], plants, regions)
	if err != nil {
		return Model{}, err
	}

	shipRows := make([]model.Row, len(plants))
	for i, p := range plants {
		row := model.Row{model.RowLabelKey: p}
		for _, r := range regions {
			row[r] = 0.0
		}
		shipRows[i] = row
	}

	m := Model{
		Mode:      model.ModeTransportation,
		Sense:     model.SenseMinimize,
		Objective: "sum(Ship[p][r] * Cost[p][r] for p in Plants for r in Regions)",
	}
	labels := labeler{}
	for _, p := range plants {
		q, err := quote(p)
		if err != nil {
			return Model{}, err
		}
		m.Constraints = append(m.Constraints, fmt.Sprintf("%s: sum(Ship[%s][r] for r in Regions) <= Supply[%s]",
			labels.label("Supply", p), q, q))
	}
	for _, r := range regions {
		q, err := quote(r)
		if err != nil {
			return Model{}, err
		}
		m.Constraints = append(m.Constraints, fmt.Sprintf("%s: sum(Ship[p][%s] for p in Plants) >= Demand[%s]",
			labels.label("Demand", r), q, q))
	}

	m.Store.Variables = []model.VarSpec{{Name: "Ship", Shape: model.ShapeMatrix, Type: model.VarContinuous, Data: shipRows}}
	m.Store.Parameters = []model.ParamSpec{
		listParam("Plants", plants),
		listParam("Regions", regions),
		dictParam("Supply", plants, supply),
		dictParam("Demand", regions, demand),
		{Name: "Cost", Shape: model.ShapeMatrix, Data: cost},
	}
	return m, nil
}

// costMatrix reads plant x region costs as nested dicts. Missing cells cost 0.
func costMatrix(rows []model.Row, plants, regions []string) (map[string]any, error) {
	byPlant := map[string]model.Row{}
	for _, r := range rows {
		byPlant[strings.TrimSpace(r.String(model.RowLabelKey))] = r
	}
	out := make(map[string]any, len(plants))
	for _, p := range plants {
		cells := make(map[string]any, len(regions))
		for _, r := range regions {
			cells[r] = 0.0
			row, ok := byPlant[p]
			if !ok || row[r] == nil || row.String(r) == "" {
				continue
			}
			v, ok := row.Float(r)
			if !ok {
				return nil, fmt.Errorf("%w: cost from %q to %q is not a number", ErrInvalidInput, p, r)
			}
			cells[r] = v
		}
		out[p] = cells
	}
	return out, nil
}
