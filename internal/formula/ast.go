package formula

// Node is an expression in the syntax tree.
type Node interface {
	Pos() int
}

type (
	NumberLit struct {
		At    int
		Value float64
	}

	StringLit struct {
		At    int
		Value string
	}

	BoolLit struct {
		At    int
		Value bool
	}

	Name struct {
		At    int
		Ident string
	}

	// Unary is "-x", "+x" or "not x".
	Unary struct {
		At int
		Op string
		X  Node
	}

	// Binary covers arithmetic, comparisons and the boolean connectives.
	Binary struct {
		At   int
		Op   string
		L, R Node
	}

	Index struct {
		At    int
		X     Node
		Index Node
	}

	Call struct {
		At   int
		Func string
		Args []Node
	}

	ListLit struct {
		At    int
		Elems []Node
	}

	// Comprehension is "elem for x in iter [if cond] ...", either as the sole
	// argument of a call or inside brackets.
	Comprehension struct {
		At      int
		Elem    Node
		Clauses []Clause
	}
)

// Clause is one "for" or "if" part of a comprehension. Var is empty for "if".
type Clause struct {
	Var  string
	Iter Node
	Cond Node
}

func (n *NumberLit) Pos() int     { return n.At }
func (n *StringLit) Pos() int     { return n.At }
func (n *BoolLit) Pos() int       { return n.At }
func (n *Name) Pos() int          { return n.At }
func (n *Unary) Pos() int         { return n.At }
func (n *Binary) Pos() int        { return n.At }
func (n *Index) Pos() int         { return n.At }
func (n *Call) Pos() int          { return n.At }
func (n *ListLit) Pos() int       { return n.At }
func (n *Comprehension) Pos() int { return n.At }

// Statement is one parsed formula line with its optional "label:" prefix.
type Statement struct {
	Label string
	Expr  Node
}
