// Package formula evaluates objective and constraint text into linear
// expressions over solver variables. The language is a small, side-effect
// free subset of arithmetic with indexing, comprehensions and a fixed set
// of builtins; nothing outside the symbol table is reachable.
package formula

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// LineError tags an evaluation failure with the 1-based line it came from.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Text, e.Err)
}

// Cause lets errors.Cause reach the underlying failure.
func (e *LineError) Cause() error { return e.Err }

func (e *LineError) Unwrap() error { return e.Err }

// Row is one evaluated constraint.
type Row struct {
	Line       int
	Text       string
	Label      string
	Constraint *Constraint
}

// Objective evaluates the objective text. An empty objective is the constant 0.
func Objective(src string, env *Env) (*Linear, error) {
	if strings.TrimSpace(src) == "" {
		return constLinear(0), nil
	}
	node, err := Parse(src)
	if err != nil {
		return nil, errors.Wrap(err, "objective")
	}
	v, err := Eval(node, env)
	if err != nil {
		return nil, errors.Wrap(err, "objective")
	}
	lin, ok := asLinear(v)
	if !ok {
		return nil, errors.Errorf("objective: expected a numeric expression, got %s", v.TypeName())
	}
	return lin, nil
}

// Constraints evaluates constraint text, one constraint per line. Blank
// lines and lines starting with '#' are skipped but still counted. A line
// may evaluate to a list of constraints; each element becomes its own row.
// Rows without a "label:" prefix are named C1, C2, ... in order.
func Constraints(src string, env *Env) ([]Row, error) {
	var rows []Row
	for i, raw := range strings.Split(src, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		lineNo := i + 1

		stmt, err := ParseStatement(text)
		if err != nil {
			return nil, &LineError{Line: lineNo, Text: text, Err: err}
		}
		v, err := Eval(stmt.Expr, env)
		if err != nil {
			return nil, &LineError{Line: lineNo, Text: text, Err: err}
		}
		cons, err := toConstraints(v)
		if err != nil {
			return nil, &LineError{Line: lineNo, Text: text, Err: err}
		}
		for j, c := range cons {
			label := stmt.Label
			switch {
			case label == "":
				label = fmt.Sprintf("C%d", len(rows)+1)
			case len(cons) > 1:
				label = fmt.Sprintf("%s_%d", label, j+1)
			}
			rows = append(rows, Row{Line: lineNo, Text: text, Label: label, Constraint: c})
		}
	}
	return rows, nil
}

// toConstraints turns a line value into constraints. Comparisons between
// plain numbers become constant rows: 0 <= 0 when true and 1 <= 0 when false.
func toConstraints(v Value) ([]*Constraint, error) {
	switch t := v.(type) {
	case *Constraint:
		return []*Constraint{t}, nil
	case Bool:
		c := constLinear(0)
		if !t {
			c.Const = 1
		}
		return []*Constraint{{Expr: c, Op: OpLE}}, nil
	case List:
		var out []*Constraint
		for _, e := range t {
			sub, err := toConstraints(e)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		return out, nil
	}
	return nil, errors.Errorf("expected a comparison (<=, >= or ==), got %s", v.TypeName())
}
