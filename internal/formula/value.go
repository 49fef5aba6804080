package formula

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Value is anything an expression can evaluate to.
type Value interface {
	TypeName() string
}

type (
	Number float64
	String string
	Bool   bool
	List   []Value
)

func (Number) TypeName() string { return "number" }
func (String) TypeName() string { return "string" }
func (Bool) TypeName() string   { return "bool" }
func (List) TypeName() string   { return "list" }

// Dict is a string-keyed mapping that remembers insertion order.
type Dict struct {
	keys []string
	m    map[string]Value
}

func NewDict() *Dict {
	return &Dict{m: map[string]Value{}}
}

func (*Dict) TypeName() string { return "dict" }

func (d *Dict) Set(key string, v Value) {
	if _, ok := d.m[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.m[key] = v
}

func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.m[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	return d.keys
}

func (d *Dict) Len() int {
	return len(d.keys)
}

// Linear is an affine combination of solver variables: Σ coef·x + Const.
// Variables are identified by the index the caller registered them under.
type Linear struct {
	Terms map[int]float64
	Const float64
}

func (*Linear) TypeName() string { return "linear expression" }

// Var returns the linear expression 1·x for the variable with the given index.
func Var(id int) *Linear {
	return &Linear{Terms: map[int]float64{id: 1}}
}

func constLinear(c float64) *Linear {
	return &Linear{Terms: map[int]float64{}, Const: c}
}

func (l *Linear) clone() *Linear {
	out := &Linear{Terms: make(map[int]float64, len(l.Terms)), Const: l.Const}
	for k, v := range l.Terms {
		out.Terms[k] = v
	}
	return out
}

// addScaled returns l + k·o.
func (l *Linear) addScaled(o *Linear, k float64) *Linear {
	out := l.clone()
	for id, c := range o.Terms {
		out.Terms[id] += k * c
		if out.Terms[id] == 0 {
			delete(out.Terms, id)
		}
	}
	out.Const += k * o.Const
	return out
}

func (l *Linear) scale(k float64) *Linear {
	out := &Linear{Terms: make(map[int]float64, len(l.Terms)), Const: l.Const * k}
	if k == 0 {
		return out
	}
	for id, c := range l.Terms {
		out.Terms[id] = c * k
	}
	return out
}

// Op is the relation of a constraint.
type Op string

const (
	OpLE Op = "<="
	OpGE Op = ">="
	OpEQ Op = "=="
)

// Constraint is "Expr Op 0" after moving everything to the left-hand side.
type Constraint struct {
	Expr *Linear
	Op   Op
}

func (*Constraint) TypeName() string { return "constraint" }

// RHS returns the constant moved back to the right-hand side.
func (c *Constraint) RHS() float64 {
	return -c.Expr.Const
}

// FromGo converts decoded JSON data (numbers, strings, bools, slices and
// maps) into formula values. Map keys are iterated in sorted order since
// JSON objects carry no order of their own.
func FromGo(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Number(0), nil
	case Value:
		return t, nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(t), nil
	case int:
		return Number(t), nil
	case int64:
		return Number(t), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case []string:
		out := make(List, len(t))
		for i, s := range t {
			out[i] = String(s)
		}
		return out, nil
	case []float64:
		out := make(List, len(t))
		for i, f := range t {
			out[i] = Number(f)
		}
		return out, nil
	case []any:
		out := make(List, len(t))
		for i, e := range t {
			ev, err := FromGo(e)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := NewDict()
		for _, k := range keys {
			ev, err := FromGo(t[k])
			if err != nil {
				return nil, err
			}
			d.Set(k, ev)
		}
		return d, nil
	case map[string]float64:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := NewDict()
		for _, k := range keys {
			d.Set(k, Number(t[k]))
		}
		return d, nil
	}
	return nil, fmt.Errorf("unsupported value of type %T", v)
}

// keyString converts an index value into a dict key. Whole numbers print
// without a fraction so Demand[1] finds the key "1".
func keyString(v Value) (string, bool) {
	switch t := v.(type) {
	case String:
		return string(t), true
	case Number:
		f := float64(t)
		if f == math.Trunc(f) && math.Abs(f) < 1e15 {
			return strconv.FormatInt(int64(f), 10), true
		}
		return strconv.FormatFloat(f, 'g', -1, 64), true
	case Bool:
		if t {
			return "True", true
		}
		return "False", true
	}
	return "", false
}

func describe(v Value) string {
	switch t := v.(type) {
	case Number:
		return strconv.FormatFloat(float64(t), 'g', -1, 64)
	case String:
		return strconv.Quote(string(t))
	}
	return v.TypeName()
}
