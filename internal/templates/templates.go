// Package templates generates solver models (objective text, constraint
// lines and variable declarations) from the input tables of each mode.
package templates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/piwi3910/optimystic/internal/model"
)

var (
	// ErrUnknownTemplate is returned for modes without a generator.
	ErrUnknownTemplate = errors.New("unknown template")
	// ErrInvalidInput marks problems in the user's tables.
	ErrInvalidInput = errors.New("invalid input")
)

// Tables holds the input tables of a workspace by name.
type Tables map[string][]model.Row

// Model is a generated model ready for the solver bridge.
type Model struct {
	Mode        string      `json:"mode"`
	Sense       model.Sense `json:"sense"`
	Objective   string      `json:"objective"`
	Constraints []string    `json:"constraints"`
	Store       model.Store `json:"store"`

	// Cutting only: typed index of generated variable names and a warm start.
	Assignments map[string]model.AssignKey `json:"-"`
	Bins        map[string]model.BinKey    `json:"-"`
	Hint        map[string]float64         `json:"-"`
}

// ConstraintText joins the constraint lines the way the solver form expects.
func (m Model) ConstraintText() string {
	return strings.Join(m.Constraints, "\n")
}

// Generate dispatches to the generator of the given mode. Custom mode and
// unknown modes have no generator and yield an empty model; callers that
// must reject unknown modes use Check first.
func Generate(mode string, tables Tables, settings model.CutSettings) (Model, error) {
	switch mode {
	case model.ModeCutting:
		items, err := ItemsFromRows(tables["items"])
		if err != nil {
			return Model{}, err
		}
		stocks, err := StocksFromRows(tables["stocks"])
		if err != nil {
			return Model{}, err
		}
		return Cutting(CuttingParams{Items: items, Stocks: stocks, Kerf: settings.Kerf, Sense: settings.Sense})
	case model.ModeTransportation:
		return Transportation(tables)
	case model.ModeProdMix:
		return ProductMix(tables)
	case model.ModeBlending:
		return Blending(tables)
	}
	return Model{Mode: mode, Sense: settings.Sense, Constraints: []string{}}, nil
}

// Check reports ErrUnknownTemplate for modes missing from the gallery.
func Check(mode string) error {
	if model.FindTemplate(mode) == nil {
		return fmt.Errorf("%w: %q", ErrUnknownTemplate, mode)
	}
	return nil
}

// num formats a number for formula text without exponents or trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// quote wraps a table label as a formula string literal.
func quote(s string) (string, error) {
	switch {
	case !strings.Contains(s, "'"):
		return "'" + s + "'", nil
	case !strings.Contains(s, `"`):
		return `"` + s + `"`, nil
	}
	return "", fmt.Errorf("%w: label %s contains both quote characters", ErrInvalidInput, s)
}

// names collects the non-empty labels of a column, rejecting duplicates.
func names(rows []model.Row, col, table string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, r := range rows {
		name := strings.TrimSpace(r.String(col))
		if name == "" {
			continue
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate %s %q in %s table", ErrInvalidInput, col, name, table)
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}

// column reads a numeric column keyed by the label column. Missing cells use def.
func column(rows []model.Row, labelCol, valueCol string, def float64) (map[string]float64, error) {
	out := map[string]float64{}
	for _, r := range rows {
		name := strings.TrimSpace(r.String(labelCol))
		if name == "" {
			continue
		}
		if _, present := r[valueCol]; !present || r[valueCol] == nil || r.String(valueCol) == "" {
			out[name] = def
			continue
		}
		v, ok := r.Float(valueCol)
		if !ok {
			return nil, fmt.Errorf("%w: %s of %q is not a number", ErrInvalidInput, valueCol, name)
		}
		out[name] = v
	}
	return out, nil
}

// dictParam turns a label->value map into a dict parameter.
func dictParam(name string, labels []string, values map[string]float64) model.ParamSpec {
	data := make(map[string]any, len(labels))
	for _, l := range labels {
		data[l] = values[l]
	}
	return model.ParamSpec{Name: name, Shape: model.ShapeDict, Data: data}
}

func listParam(name string, labels []string) model.ParamSpec {
	data := make([]any, len(labels))
	for i, l := range labels {
		data[i] = l
	}
	return model.ParamSpec{Name: name, Shape: model.ShapeList, Data: data}
}

// labeler produces unique constraint labels from table names. Characters
// outside identifiers become underscores.
type labeler map[string]bool

func (l labeler) label(prefix, name string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('_')
	for _, r := range name {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	base := b.String()
	out := base
	for n := 2; l[out]; n++ {
		out = base + "_" + strconv.Itoa(n)
	}
	l[out] = true
	return out
}
