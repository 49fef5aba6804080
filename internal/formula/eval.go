package formula

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// maxRange bounds range() so a typo cannot allocate unbounded memory.
const maxRange = 1_000_000

// Env is a symbol table. Comprehensions evaluate in child scopes so loop
// variables never leak into the enclosing table.
type Env struct {
	parent *Env
	vars   map[string]Value
}

func NewEnv() *Env {
	return &Env{vars: map[string]Value{}}
}

func (e *Env) Set(name string, v Value) {
	e.vars[name] = v
}

func (e *Env) Lookup(name string) (Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (e *Env) child() *Env {
	return &Env{parent: e, vars: map[string]Value{}}
}

// Eval evaluates a syntax tree against the environment.
func Eval(n Node, env *Env) (Value, error) {
	switch n := n.(type) {
	case *NumberLit:
		return Number(n.Value), nil
	case *StringLit:
		return String(n.Value), nil
	case *BoolLit:
		return Bool(n.Value), nil
	case *Name:
		v, ok := env.Lookup(n.Ident)
		if !ok {
			if Builtins[n.Ident] {
				return nil, errors.Errorf("function %q must be called", n.Ident)
			}
			return nil, errors.Errorf("name %q is not defined", n.Ident)
		}
		return v, nil
	case *Unary:
		return evalUnary(n, env)
	case *Binary:
		return evalBinary(n, env)
	case *Index:
		x, err := Eval(n.X, env)
		if err != nil {
			return nil, err
		}
		idx, err := Eval(n.Index, env)
		if err != nil {
			return nil, err
		}
		return index(x, idx)
	case *Call:
		return callBuiltin(n, env)
	case *ListLit:
		out := make(List, 0, len(n.Elems))
		for _, e := range n.Elems {
			v, err := Eval(e, env)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case *Comprehension:
		var out List
		err := iterate(n, 0, env, func(v Value) error {
			out = append(out, v)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = List{}
		}
		return out, nil
	}
	return nil, errors.Errorf("unsupported expression %T", n)
}

// iterate runs the comprehension clauses from position i and calls yield for
// every element that passes all conditions.
func iterate(c *Comprehension, i int, env *Env, yield func(Value) error) error {
	if i == len(c.Clauses) {
		v, err := Eval(c.Elem, env)
		if err != nil {
			return err
		}
		return yield(v)
	}
	cl := c.Clauses[i]
	if cl.Var == "" {
		cond, err := Eval(cl.Cond, env)
		if err != nil {
			return err
		}
		ok, err := truthy(cond)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		return iterate(c, i+1, env, yield)
	}

	iterVal, err := Eval(cl.Iter, env)
	if err != nil {
		return err
	}
	elems, err := iterable(iterVal)
	if err != nil {
		return err
	}
	scope := env.child()
	for _, e := range elems {
		scope.Set(cl.Var, e)
		if err := iterate(c, i+1, scope, yield); err != nil {
			return err
		}
	}
	return nil
}

// iterable lists the elements a for clause walks: list elements, dict keys
// or string characters.
func iterable(v Value) ([]Value, error) {
	switch t := v.(type) {
	case List:
		return t, nil
	case *Dict:
		out := make([]Value, 0, t.Len())
		for _, k := range t.Keys() {
			out = append(out, String(k))
		}
		return out, nil
	case String:
		out := make([]Value, 0, len(t))
		for _, r := range string(t) {
			out = append(out, String(string(r)))
		}
		return out, nil
	}
	return nil, errors.Errorf("%s is not iterable", v.TypeName())
}

func truthy(v Value) (bool, error) {
	switch t := v.(type) {
	case Bool:
		return bool(t), nil
	case Number:
		return t != 0, nil
	case String:
		return t != "", nil
	case List:
		return len(t) > 0, nil
	case *Dict:
		return t.Len() > 0, nil
	}
	return false, errors.Errorf("%s cannot be used as a condition", v.TypeName())
}

func evalUnary(n *Unary, env *Env) (Value, error) {
	x, err := Eval(n.X, env)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "not":
		b, err := truthy(x)
		if err != nil {
			return nil, err
		}
		return Bool(!b), nil
	case "+":
		switch x.(type) {
		case Number, *Linear:
			return x, nil
		}
	case "-":
		switch t := x.(type) {
		case Number:
			return -t, nil
		case *Linear:
			return t.scale(-1), nil
		}
	}
	return nil, errors.Errorf("bad operand type for unary %s: %s", n.Op, x.TypeName())
}

func evalBinary(n *Binary, env *Env) (Value, error) {
	if n.Op == "and" || n.Op == "or" {
		l, err := Eval(n.L, env)
		if err != nil {
			return nil, err
		}
		lb, err := truthy(l)
		if err != nil {
			return nil, err
		}
		if (n.Op == "and" && !lb) || (n.Op == "or" && lb) {
			return Bool(lb), nil
		}
		r, err := Eval(n.R, env)
		if err != nil {
			return nil, err
		}
		rb, err := truthy(r)
		if err != nil {
			return nil, err
		}
		return Bool(rb), nil
	}

	l, err := Eval(n.L, env)
	if err != nil {
		return nil, err
	}
	r, err := Eval(n.R, env)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "+":
		return add(l, r)
	case "-":
		return sub(l, r)
	case "*":
		return mul(l, r)
	case "/":
		return div(l, r)
	case "**":
		return pow(l, r)
	case "in":
		return contains(r, l)
	}
	return compare(n.Op, l, r)
}

// asLinear lifts numbers to constant expressions.
func asLinear(v Value) (*Linear, bool) {
	switch t := v.(type) {
	case Number:
		return constLinear(float64(t)), true
	case *Linear:
		return t, true
	}
	return nil, false
}

func add(l, r Value) (Value, error) {
	switch a := l.(type) {
	case Number:
		if b, ok := r.(Number); ok {
			return a + b, nil
		}
	case String:
		if b, ok := r.(String); ok {
			return a + b, nil
		}
	case List:
		if b, ok := r.(List); ok {
			out := make(List, 0, len(a)+len(b))
			return append(append(out, a...), b...), nil
		}
	}
	la, ok1 := asLinear(l)
	lb, ok2 := asLinear(r)
	if ok1 && ok2 {
		return la.addScaled(lb, 1), nil
	}
	return nil, operandError("+", l, r)
}

func sub(l, r Value) (Value, error) {
	if a, ok := l.(Number); ok {
		if b, ok := r.(Number); ok {
			return a - b, nil
		}
	}
	la, ok1 := asLinear(l)
	lb, ok2 := asLinear(r)
	if ok1 && ok2 {
		return la.addScaled(lb, -1), nil
	}
	return nil, operandError("-", l, r)
}

func mul(l, r Value) (Value, error) {
	switch a := l.(type) {
	case Number:
		switch b := r.(type) {
		case Number:
			return a * b, nil
		case *Linear:
			return b.scale(float64(a)), nil
		}
	case *Linear:
		switch b := r.(type) {
		case Number:
			return a.scale(float64(b)), nil
		case *Linear:
			if len(a.Terms) == 0 {
				return b.scale(a.Const), nil
			}
			if len(b.Terms) == 0 {
				return a.scale(b.Const), nil
			}
			return nil, errors.New("non-linear term: cannot multiply two expressions that contain variables")
		}
	}
	return nil, operandError("*", l, r)
}

func div(l, r Value) (Value, error) {
	var d float64
	switch b := r.(type) {
	case Number:
		d = float64(b)
	case *Linear:
		if len(b.Terms) > 0 {
			return nil, errors.New("non-linear term: cannot divide by an expression that contains variables")
		}
		d = b.Const
	default:
		return nil, operandError("/", l, r)
	}
	if d == 0 {
		return nil, errors.New("division by zero")
	}
	switch a := l.(type) {
	case Number:
		return a / Number(d), nil
	case *Linear:
		return a.scale(1 / d), nil
	}
	return nil, operandError("/", l, r)
}

func pow(l, r Value) (Value, error) {
	b, ok := r.(Number)
	if !ok {
		if _, isLin := r.(*Linear); isLin {
			return nil, errors.New("non-linear term: exponent must be a number")
		}
		return nil, operandError("**", l, r)
	}
	switch a := l.(type) {
	case Number:
		return Number(math.Pow(float64(a), float64(b))), nil
	case *Linear:
		switch {
		case b == 1:
			return a, nil
		case b == 0:
			return Number(1), nil
		case len(a.Terms) == 0:
			return Number(math.Pow(a.Const, float64(b))), nil
		}
		return nil, errors.New("non-linear term: variables can only be raised to the power 1")
	}
	return nil, operandError("**", l, r)
}

func compare(op string, l, r Value) (Value, error) {
	_, linL := l.(*Linear)
	_, linR := r.(*Linear)
	if linL || linR {
		la, ok1 := asLinear(l)
		lb, ok2 := asLinear(r)
		if !ok1 || !ok2 {
			return nil, operandError(op, l, r)
		}
		expr := la.addScaled(lb, -1)
		switch op {
		case "<=", "<":
			return &Constraint{Expr: expr, Op: OpLE}, nil
		case ">=", ">":
			return &Constraint{Expr: expr, Op: OpGE}, nil
		case "==":
			return &Constraint{Expr: expr, Op: OpEQ}, nil
		}
		return nil, errors.Errorf("operator %s cannot be used with variables", op)
	}

	switch a := l.(type) {
	case Number:
		if b, ok := r.(Number); ok {
			return Bool(cmpOrdered(op, float64(a), float64(b))), nil
		}
	case String:
		if b, ok := r.(String); ok {
			return Bool(cmpOrdered(op, strings.Compare(string(a), string(b)), 0)), nil
		}
	case Bool:
		if b, ok := r.(Bool); ok && (op == "==" || op == "!=") {
			return Bool((a == b) == (op == "==")), nil
		}
	}
	switch op {
	case "==":
		return Bool(false), nil
	case "!=":
		return Bool(true), nil
	}
	return nil, operandError(op, l, r)
}

func cmpOrdered[T int | float64](op string, a, b T) bool {
	switch op {
	case "<=":
		return a <= b
	case ">=":
		return a >= b
	case "<":
		return a < b
	case ">":
		return a > b
	case "==":
		return a == b
	case "!=":
		return a != b
	}
	return false
}

func contains(container, x Value) (Value, error) {
	switch c := container.(type) {
	case List:
		for _, e := range c {
			eq, err := compare("==", e, x)
			if err != nil {
				return nil, err
			}
			if b, ok := eq.(Bool); ok && bool(b) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	case *Dict:
		k, ok := keyString(x)
		if !ok {
			return nil, errors.Errorf("%s cannot be a dict key", x.TypeName())
		}
		_, found := c.Get(k)
		return Bool(found), nil
	case String:
		s, ok := x.(String)
		if !ok {
			return nil, operandError("in", x, container)
		}
		return Bool(strings.Contains(string(c), string(s))), nil
	}
	return nil, errors.Errorf("argument of type %s is not a container", container.TypeName())
}

func index(x, idx Value) (Value, error) {
	switch c := x.(type) {
	case List:
		n, ok := idx.(Number)
		if !ok || float64(n) != math.Trunc(float64(n)) {
			return nil, errors.Errorf("list index must be a whole number, got %s", describe(idx))
		}
		i := int(n)
		if i < 0 {
			i += len(c)
		}
		if i < 0 || i >= len(c) {
			return nil, errors.Errorf("list index %d out of range (length %d)", int(n), len(c))
		}
		return c[i], nil
	case *Dict:
		k, ok := keyString(idx)
		if !ok {
			return nil, errors.Errorf("%s cannot be a dict key", idx.TypeName())
		}
		v, found := c.Get(k)
		if !found {
			return nil, errors.Errorf("key %q not found", k)
		}
		return v, nil
	}
	return nil, errors.Errorf("%s is not indexable", x.TypeName())
}

func operandError(op string, l, r Value) error {
	return errors.Errorf("unsupported operand types for %s: %s and %s", op, l.TypeName(), r.TypeName())
}
