package ast

import "github.com/pylift/pylift/internal/token"

// IntLiteral is an integer literal.
type IntLiteral struct {
	Token token.Token
	Value int64
}

func (e *IntLiteral) expressionNode()       {}
func (e *IntLiteral) GetToken() token.Token { return e.Token }

// FloatLiteral is a floating point literal.
type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (e *FloatLiteral) expressionNode()       {}
func (e *FloatLiteral) GetToken() token.Token { return e.Token }

// StringLiteral is a string literal.
type StringLiteral struct {
	Token token.Token
	Value string
}

func (e *StringLiteral) expressionNode()       {}
func (e *StringLiteral) GetToken() token.Token { return e.Token }

// BoolLiteral is True or False.
type BoolLiteral struct {
	Token token.Token
	Value bool
}

func (e *BoolLiteral) expressionNode()       {}
func (e *BoolLiteral) GetToken() token.Token { return e.Token }

// NoneLiteral is the absent-value sentinel.
type NoneLiteral struct {
	Token token.Token
}

func (e *NoneLiteral) expressionNode()       {}
func (e *NoneLiteral) GetToken() token.Token { return e.Token }

// Identifier is a name reference.
type Identifier struct {
	Token token.Token
	Value string
}

func (e *Identifier) expressionNode()       {}
func (e *Identifier) GetToken() token.Token { return e.Token }

// ListLiteral is [a, b, c].
type ListLiteral struct {
	Token    token.Token
	Elements []Expression
}

func (e *ListLiteral) expressionNode()       {}
func (e *ListLiteral) GetToken() token.Token { return e.Token }

// TupleLiteral is (a, b) or a bare comma sequence.
type TupleLiteral struct {
	Token    token.Token
	Elements []Expression
}

func (e *TupleLiteral) expressionNode()       {}
func (e *TupleLiteral) GetToken() token.Token { return e.Token }

// DictLiteral is {k: v, ...}.
type DictLiteral struct {
	Token  token.Token
	Keys   []Expression
	Values []Expression
}

func (e *DictLiteral) expressionNode()       {}
func (e *DictLiteral) GetToken() token.Token { return e.Token }

// SetLiteral is {a, b, c}.
type SetLiteral struct {
	Token    token.Token
	Elements []Expression
}

func (e *SetLiteral) expressionNode()       {}
func (e *SetLiteral) GetToken() token.Token { return e.Token }

// BinaryOp is a binary operation, including comparisons, membership tests
// and identity tests. Chained comparisons are normalized by the parser into
// conjunctions of BinaryOps.
type BinaryOp struct {
	Token token.Token
	Left  Expression
	Op    string
	Right Expression
}

func (e *BinaryOp) expressionNode()       {}
func (e *BinaryOp) GetToken() token.Token { return e.Token }

// UnaryOp is -x, +x, not x or ~x.
type UnaryOp struct {
	Token   token.Token
	Op      string
	Operand Expression
}

func (e *UnaryOp) expressionNode()       {}
func (e *UnaryOp) GetToken() token.Token { return e.Token }

// IfExp is the conditional expression `a if cond else b`.
type IfExp struct {
	Token token.Token
	Cond  Expression
	Then  Expression
	Else  Expression
}

func (e *IfExp) expressionNode()       {}
func (e *IfExp) GetToken() token.Token { return e.Token }

// Attribute is value.attr.
type Attribute struct {
	Token token.Token
	Value Expression
	Attr  string
}

func (e *Attribute) expressionNode()       {}
func (e *Attribute) GetToken() token.Token { return e.Token }

// Index is target[index].
type Index struct {
	Token  token.Token
	Target Expression
	Idx    Expression
}

func (e *Index) expressionNode()       {}
func (e *Index) GetToken() token.Token { return e.Token }

// Slice is target[low:high:step]; any bound may be nil.
type Slice struct {
	Token  token.Token
	Target Expression
	Low    Expression
	High   Expression
	Step   Expression
}

func (e *Slice) expressionNode()       {}
func (e *Slice) GetToken() token.Token { return e.Token }

// Keyword is a keyword argument in a call.
type Keyword struct {
	Name  string
	Value Expression
}

// Call is func(args, kw=...).
type Call struct {
	Token    token.Token
	Func     Expression
	Args     []Expression
	Keywords []Keyword
}

func (e *Call) expressionNode()       {}
func (e *Call) GetToken() token.Token { return e.Token }
