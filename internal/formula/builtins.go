package formula

import (
	"math"

	"github.com/pkg/errors"
)

func callBuiltin(n *Call, env *Env) (Value, error) {
	// a lone comprehension argument is streamed instead of materialized
	if len(n.Args) == 1 {
		if comp, ok := n.Args[0].(*Comprehension); ok && n.Func == "sum" {
			acc := &summer{}
			if err := iterate(comp, 0, env, acc.add); err != nil {
				return nil, errors.WithMessage(err, "sum")
			}
			return acc.value(), nil
		}
	}

	args := make([]Value, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := Eval(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	switch n.Func {
	case "sum":
		return builtinSum(args)
	case "range":
		return builtinRange(args)
	case "len":
		return builtinLen(args)
	case "min", "max":
		return builtinMinMax(n.Func, args)
	case "abs":
		if len(args) != 1 {
			return nil, errors.Errorf("abs() takes exactly one argument (%d given)", len(args))
		}
		x, ok := args[0].(Number)
		if !ok {
			if _, lin := args[0].(*Linear); lin {
				return nil, errors.New("non-linear term: abs() of an expression that contains variables")
			}
			return nil, errors.Errorf("abs() needs a number, got %s", args[0].TypeName())
		}
		return Number(math.Abs(float64(x))), nil
	}
	return nil, errors.Errorf("function %q is not allowed", n.Func)
}

func builtinSum(args []Value) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, errors.Errorf("sum() takes 1 or 2 arguments (%d given)", len(args))
	}
	elems, err := iterable(args[0])
	if err != nil {
		return nil, errors.WithMessage(err, "sum")
	}
	acc := &summer{}
	if len(args) == 2 {
		if err := acc.add(args[1]); err != nil {
			return nil, errors.WithMessage(err, "sum")
		}
	}
	for _, e := range elems {
		if err := acc.add(e); err != nil {
			return nil, errors.WithMessage(err, "sum")
		}
	}
	return acc.value(), nil
}

// summer accumulates numbers and linear expressions in place so that long
// sums do not copy the growing expression on every term.
type summer struct {
	num float64
	lin *Linear
}

func (s *summer) add(v Value) error {
	switch t := v.(type) {
	case Number:
		s.num += float64(t)
		return nil
	case *Linear:
		if s.lin == nil {
			s.lin = constLinear(0)
		}
		for id, c := range t.Terms {
			s.lin.Terms[id] += c
		}
		s.lin.Const += t.Const
		return nil
	}
	return errors.Errorf("can only sum numbers and expressions, got %s", v.TypeName())
}

func (s *summer) value() Value {
	if s.lin == nil {
		return Number(s.num)
	}
	out := s.lin
	out.Const += s.num
	for id, c := range out.Terms {
		if c == 0 {
			delete(out.Terms, id)
		}
	}
	return out
}

func builtinRange(args []Value) (Value, error) {
	ints := make([]int, len(args))
	for i, a := range args {
		n, ok := a.(Number)
		if !ok || float64(n) != math.Trunc(float64(n)) {
			return nil, errors.Errorf("range() arguments must be whole numbers, got %s", describe(a))
		}
		ints[i] = int(n)
	}
	start, stop, step := 0, 0, 1
	switch len(ints) {
	case 1:
		stop = ints[0]
	case 2:
		start, stop = ints[0], ints[1]
	case 3:
		start, stop, step = ints[0], ints[1], ints[2]
	default:
		return nil, errors.Errorf("range() takes 1 to 3 arguments (%d given)", len(args))
	}
	if step == 0 {
		return nil, errors.New("range() step must not be zero")
	}
	out := List{}
	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		if len(out) >= maxRange {
			return nil, errors.Errorf("range() longer than %d elements", maxRange)
		}
		out = append(out, Number(i))
	}
	return out, nil
}

func builtinLen(args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, errors.Errorf("len() takes exactly one argument (%d given)", len(args))
	}
	switch t := args[0].(type) {
	case List:
		return Number(len(t)), nil
	case *Dict:
		return Number(t.Len()), nil
	case String:
		return Number(len([]rune(string(t)))), nil
	}
	return nil, errors.Errorf("object of type %s has no len()", args[0].TypeName())
}

func builtinMinMax(name string, args []Value) (Value, error) {
	elems := args
	if len(args) == 1 {
		var err error
		if elems, err = iterable(args[0]); err != nil {
			return nil, errors.WithMessage(err, name)
		}
	}
	if len(elems) == 0 {
		return nil, errors.Errorf("%s() of an empty sequence", name)
	}
	best := math.Inf(1)
	if name == "max" {
		best = math.Inf(-1)
	}
	for _, e := range elems {
		x, ok := e.(Number)
		if !ok {
			if _, lin := e.(*Linear); lin {
				return nil, errors.Errorf("non-linear term: %s() of an expression that contains variables", name)
			}
			return nil, errors.Errorf("%s() needs numbers, got %s", name, e.TypeName())
		}
		f := float64(x)
		if (name == "min" && f < best) || (name == "max" && f > best) {
			best = f
		}
	}
	return Number(best), nil
}
