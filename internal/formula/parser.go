package formula

import (
	"strconv"

	"github.com/pkg/errors"
)

// Binding powers, loosest first.
const (
	precOr = iota + 1
	precAnd
	precNot
	precCompare
	precSum
	precProduct
	precUnary
	precPower
	precPostfix
)

var comparisonOps = map[string]bool{
	"<=": true, ">=": true, "==": true, "!=": true, "<": true, ">": true,
}

// Builtins is the allow-list of callable names.
var Builtins = map[string]bool{
	"sum": true, "range": true, "len": true, "min": true, "max": true, "abs": true,
}

// Parse limits. MaxNesting bounds parentheses, brackets and prefix
// operators; MaxChain bounds the operators joined at one level, which the
// evaluator walks recursively.
const (
	MaxNesting = 256
	MaxChain   = 100000
)

type parser struct {
	toks  []Token
	pos   int
	depth int
}

// Parse parses a single expression.
func Parse(src string) (Node, error) {
	stmt, err := ParseStatement(src)
	if err != nil {
		return nil, err
	}
	if stmt.Label != "" {
		return nil, errors.New("labels are only allowed on constraint lines")
	}
	return stmt.Expr, nil
}

// ParseStatement parses one formula line with an optional "label:" prefix.
func ParseStatement(src string) (Statement, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return Statement{}, err
	}
	p := &parser{toks: toks}

	var stmt Statement
	if len(toks) > 2 && toks[0].Kind == TokIdent && toks[1].Kind == TokColon {
		stmt.Label = toks[0].Text
		p.pos = 2
	}
	if p.peek().Kind == TokEOF {
		return Statement{}, errors.New("empty expression")
	}

	stmt.Expr, err = p.expr(0)
	if err != nil {
		return Statement{}, err
	}
	if t := p.peek(); t.Kind != TokEOF {
		return Statement{}, errors.Errorf("unexpected %s %q at column %d", t.Kind, t.Text, t.Pos+1)
	}
	return stmt, nil
}

func (p *parser) peek() Token {
	return p.toks[p.pos]
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != TokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isKeyword(word string) bool {
	t := p.peek()
	return t.Kind == TokKeyword && t.Text == word
}

func (p *parser) expect(kind TokenKind, text string) (Token, error) {
	t := p.next()
	if t.Kind != kind || (text != "" && t.Text != text) {
		want := kind.String()
		if text != "" {
			want = strconv.Quote(text)
		}
		if t.Kind == TokEOF {
			return t, errors.Errorf("expected %s but the expression ended", want)
		}
		return t, errors.Errorf("expected %s, found %q at column %d", want, t.Text, t.Pos+1)
	}
	return t, nil
}

// infix returns the binding power of the token in operator position, or 0.
func infix(t Token) int {
	switch t.Kind {
	case TokOp:
		switch {
		case comparisonOps[t.Text]:
			return precCompare
		case t.Text == "+" || t.Text == "-":
			return precSum
		case t.Text == "*" || t.Text == "/":
			return precProduct
		case t.Text == "**":
			return precPower
		}
	case TokKeyword:
		switch t.Text {
		case "or":
			return precOr
		case "and":
			return precAnd
		case "in":
			return precCompare
		}
	case TokLBracket, TokLParen:
		return precPostfix
	}
	return 0
}

func (p *parser) expr(minPrec int) (Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxNesting {
		return nil, errors.Errorf("expression nested too deeply (column %d)", p.peek().Pos+1)
	}

	left, err := p.prefix()
	if err != nil {
		return nil, err
	}
	for chain := 0; ; chain++ {
		t := p.peek()
		prec := infix(t)
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		if chain >= MaxChain {
			return nil, errors.Errorf("expression has more than %d operators in a row (column %d)", MaxChain, t.Pos+1)
		}
		p.next()

		switch t.Kind {
		case TokLBracket:
			idx, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokRBracket, ""); err != nil {
				return nil, err
			}
			left = &Index{At: t.Pos, X: left, Index: idx}
			continue
		case TokLParen:
			name, ok := left.(*Name)
			if !ok {
				return nil, errors.Errorf("only builtin functions can be called (column %d)", t.Pos+1)
			}
			if !Builtins[name.Ident] {
				return nil, errors.Errorf("function %q is not allowed", name.Ident)
			}
			args, err := p.callArgs()
			if err != nil {
				return nil, err
			}
			left = &Call{At: name.At, Func: name.Ident, Args: args}
			continue
		}

		if prec == precCompare {
			if _, chained := left.(*Binary); chained && isComparison(left.(*Binary).Op) {
				return nil, errors.Errorf("chained comparisons are not supported (column %d)", t.Pos+1)
			}
		}

		// ** is right associative
		rightPrec := prec + 1
		if t.Text == "**" {
			rightPrec = prec
		}
		right, err := p.expr(rightPrec)
		if err != nil {
			return nil, err
		}
		left = &Binary{At: t.Pos, Op: t.Text, L: left, R: right}
	}
}

func isComparison(op string) bool {
	return comparisonOps[op] || op == "in"
}

func (p *parser) prefix() (Node, error) {
	t := p.next()
	switch t.Kind {
	case TokNumber:
		v, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, errors.Errorf("invalid number %q", t.Text)
		}
		return &NumberLit{At: t.Pos, Value: v}, nil
	case TokString:
		return &StringLit{At: t.Pos, Value: t.Text}, nil
	case TokIdent:
		return &Name{At: t.Pos, Ident: t.Text}, nil
	case TokKeyword:
		switch t.Text {
		case "True", "False":
			return &BoolLit{At: t.Pos, Value: t.Text == "True"}, nil
		case "not":
			x, err := p.expr(precNot)
			if err != nil {
				return nil, err
			}
			return &Unary{At: t.Pos, Op: "not", X: x}, nil
		}
	case TokOp:
		if t.Text == "-" || t.Text == "+" {
			// binds looser than ** so that -x**2 is -(x**2)
			x, err := p.expr(precPower)
			if err != nil {
				return nil, err
			}
			return &Unary{At: t.Pos, Op: t.Text, X: x}, nil
		}
	case TokLParen:
		x, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, ""); err != nil {
			return nil, err
		}
		return x, nil
	case TokLBracket:
		return p.list(t)
	case TokEOF:
		return nil, errors.New("unexpected end of expression")
	}
	return nil, errors.Errorf("unexpected %s %q at column %d", t.Kind, t.Text, t.Pos+1)
}

func (p *parser) list(open Token) (Node, error) {
	lit := &ListLit{At: open.Pos}
	if p.peek().Kind == TokRBracket {
		p.next()
		return lit, nil
	}
	first, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if p.isKeyword("for") {
		comp, err := p.comprehension(first)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRBracket, ""); err != nil {
			return nil, err
		}
		return comp, nil
	}
	lit.Elems = append(lit.Elems, first)
	for p.peek().Kind == TokComma {
		p.next()
		if p.peek().Kind == TokRBracket {
			break
		}
		e, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		lit.Elems = append(lit.Elems, e)
	}
	if _, err := p.expect(TokRBracket, ""); err != nil {
		return nil, err
	}
	return lit, nil
}

func (p *parser) callArgs() ([]Node, error) {
	if p.peek().Kind == TokRParen {
		p.next()
		return nil, nil
	}
	first, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if p.isKeyword("for") {
		comp, err := p.comprehension(first)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, ""); err != nil {
			return nil, err
		}
		return []Node{comp}, nil
	}
	args := []Node{first}
	for p.peek().Kind == TokComma {
		p.next()
		a, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	if _, err := p.expect(TokRParen, ""); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) comprehension(elem Node) (Node, error) {
	comp := &Comprehension{At: elem.Pos(), Elem: elem}
	for {
		switch {
		case p.isKeyword("for"):
			p.next()
			v, err := p.expect(TokIdent, "")
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokKeyword, "in"); err != nil {
				return nil, err
			}
			// parse above "in" so the iterable does not swallow a membership test
			iter, err := p.expr(precSum)
			if err != nil {
				return nil, err
			}
			comp.Clauses = append(comp.Clauses, Clause{Var: v.Text, Iter: iter})
		case p.isKeyword("if"):
			if len(comp.Clauses) == 0 {
				return nil, errors.New("comprehension must start with 'for'")
			}
			p.next()
			cond, err := p.expr(precOr)
			if err != nil {
				return nil, err
			}
			comp.Clauses = append(comp.Clauses, Clause{Cond: cond})
		default:
			return comp, nil
		}
	}
}
