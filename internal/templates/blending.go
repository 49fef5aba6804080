package templates

import (
	"fmt"

	"github.com/piwi3910/optimystic/internal/model"
)

// Default nutrient minimums of the blending template.
const (
	DefaultMinA = 20.0
	DefaultMinB = 30.0
)

// Blending finds the cheapest ingredient weights meeting two nutrient
// minimums. Tables: "ingredients" (Ingr, Cost, NutA, NutB) and an optional
// single-row "settings" table with min_a, min_b and batch. A positive
// batch fixes the total weight.
func Blending(tables Tables) (Model, error) {
	rows := tables["ingredients"]
	ingr, err := names(rows, "Ingr", "ingredients")
	if err != nil {
		return Model{}, err
	}
	cost, err := column(rows, "Ingr", "Cost", 0)
	if err != nil {
		return Model{}, err
	}
	nutA, err := column(rows, "Ingr", "NutA", 0)
	if err != nil {
		return Model{}, err
	}
	nutB, err := column(rows, "Ingr", "NutB", 0)
	if err != nil {
		return Model{}, err
	}

	var settings model.Row
	if s := tables["settings"]; len(s) > 0 {
		settings = s[0]
	}
	minA := settings.FloatOr("min_a", DefaultMinA)
	minB := settings.FloatOr("min_b", DefaultMinB)
	batch := settings.FloatOr("batch", 0)

	w := make([]model.Row, len(ingr))
	for i, name := range ingr {
		w[i] = model.Row{"Ingr": name}
	}

	m := Model{
		Mode:      model.ModeBlending,
		Sense:     model.SenseMinimize,
		Objective: "sum(W[i] * Cost[Ingredients[i]] for i in range(len(Ingredients)))",
		Constraints: []string{
			fmt.Sprintf("Min_NutA: sum(W[i] * NutA[Ingredients[i]] for i in range(len(Ingredients))) >= %s", num(minA)),
			fmt.Sprintf("Min_NutB: sum(W[i] * NutB[Ingredients[i]] for i in range(len(Ingredients))) >= %s", num(minB)),
		},
	}
	if batch > 0 {
		m.Constraints = append(m.Constraints, fmt.Sprintf("Batch: sum(W) == %s", num(batch)))
	}

	m.Store.Variables = []model.VarSpec{{Name: "W", Shape: model.ShapeList, Type: model.VarContinuous, Data: w}}
	m.Store.Parameters = []model.ParamSpec{
		listParam("Ingredients", ingr),
		dictParam("Cost", ingr, cost),
		dictParam("NutA", ingr, nutA),
		dictParam("NutB", ingr, nutB),
	}
	return m, nil
}
