package templates

import (
	"fmt"
	"strings"

	"github.com/piwi3910/optimystic/internal/model"
)

// ProductMix picks production quantities that maximize profit within
// resource capacities. Tables: "products" (Product, Profit) and
// "resources" (Resource, Capacity, plus one usage column per product).
func ProductMix(tables Tables) (Model, error) {
	products, err := names(tables["products"], "Product", "products")
	if err != nil {
		return Model{}, err
	}
	resources, err := names(tables["resources"], "Resource", "resources")
	if err != nil {
		return Model{}, err
	}
	profit, err := column(tables["products"], "Product", "Profit", 0)
	if err != nil {
		return Model{}, err
	}
	capacity, err := column(tables["resources"], "Resource", "Capacity", 0)
	if err != nil {
		return Model{}, err
	}

	usage := make(map[string]any, len(resources))
	for _, row := range tables["resources"] {
		res := strings.TrimSpace(row.String("Resource"))
		if res == "" {
			continue
		}
		cells := make(map[string]any, len(products))
		for _, p := range products {
			cells[p] = 0.0
			if row[p] == nil || row.String(p) == "" {
				continue
			}
			v, ok := row.Float(p)
			if !ok {
				return Model{}, fmt.Errorf("%w: usage of %q by %q is not a number", ErrInvalidInput, res, p)
			}
			cells[p] = v
		}
		usage[res] = cells
	}

	produce := make([]model.Row, len(products))
	for i, p := range products {
		produce[i] = model.Row{"Product": p}
	}

	m := Model{
		Mode:      model.ModeProdMix,
		Sense:     model.SenseMaximize,
		Objective: "sum(Produce[i] * Profit[Products[i]] for i in range(len(Products)))",
	}
	labels := labeler{}
	for _, res := range resources {
		q, err := quote(res)
		if err != nil {
			return Model{}, err
		}
		m.Constraints = append(m.Constraints, fmt.Sprintf(
			"%s: sum(Produce[i] * Usage[%s][Products[i]] for i in range(len(Products))) <= Capacity[%s]",
			labels.label("Capacity", res), q, q))
	}

	m.Store.Variables = []model.VarSpec{{Name: "Produce", Shape: model.ShapeList, Type: model.VarContinuous, Data: produce}}
	m.Store.Parameters = []model.ParamSpec{
		listParam("Products", products),
		listParam("Resources", resources),
		dictParam("Profit", products, profit),
		dictParam("Capacity", resources, capacity),
		{Name: "Usage", Shape: model.ShapeMatrix, Data: usage},
	}
	return m, nil
}
