package ast

import "github.com/pylift/pylift/internal/token"

// ExpressionStatement is an expression in statement position.
type ExpressionStatement struct {
	Token token.Token
	Expr  Expression
}

func (s *ExpressionStatement) statementNode()        {}
func (s *ExpressionStatement) GetToken() token.Token { return s.Token }

// Assign is `target = value` or `target: hint = value`. Target is an
// identifier, an attribute, an index expression, or a tuple of identifiers
// (unpacking).
type Assign struct {
	Token  token.Token
	Target Expression
	Hint   *TypeHint
	Value  Expression
}

func (s *Assign) statementNode()        {}
func (s *Assign) GetToken() token.Token { return s.Token }

// AugAssign is `target op= value`.
type AugAssign struct {
	Token  token.Token
	Target Expression
	Op     string // the base operator, e.g. "+" for "+="
	Value  Expression
}

func (s *AugAssign) statementNode()        {}
func (s *AugAssign) GetToken() token.Token { return s.Token }

// ElifClause is one `elif cond:` arm.
type ElifClause struct {
	Token token.Token
	Cond  Expression
	Body  []Statement
}

// If is if/elif/else.
type If struct {
	Token token.Token
	Cond  Expression
	Then  []Statement
	Elifs []ElifClause
	Else  []Statement
}

func (s *If) statementNode()        {}
func (s *If) GetToken() token.Token { return s.Token }

// While is a while loop.
type While struct {
	Token token.Token
	Cond  Expression
	Body  []Statement
}

func (s *While) statementNode()        {}
func (s *While) GetToken() token.Token { return s.Token }

// For is `for target in iter:`. Target is an identifier or a tuple of
// identifiers.
type For struct {
	Token  token.Token
	Target Expression
	Iter   Expression
	Body   []Statement
}

func (s *For) statementNode()        {}
func (s *For) GetToken() token.Token { return s.Token }

// Return is a return statement; Value may be nil.
type Return struct {
	Token token.Token
	Value Expression
}

func (s *Return) statementNode()        {}
func (s *Return) GetToken() token.Token { return s.Token }

// Break is a break statement.
type Break struct{ Token token.Token }

func (s *Break) statementNode()        {}
func (s *Break) GetToken() token.Token { return s.Token }

// Continue is a continue statement.
type Continue struct{ Token token.Token }

func (s *Continue) statementNode()        {}
func (s *Continue) GetToken() token.Token { return s.Token }

// Pass is a no-op statement.
type Pass struct{ Token token.Token }

func (s *Pass) statementNode()        {}
func (s *Pass) GetToken() token.Token { return s.Token }

// Raise is `raise`, `raise Kind(msg)` or `raise Kind(msg) from cause`.
// A nil Exc is a bare re-raise and is only legal inside a handler body.
type Raise struct {
	Token token.Token
	Exc   Expression
	Cause Expression
}

func (s *Raise) statementNode()        {}
func (s *Raise) GetToken() token.Token { return s.Token }

// ExceptClause is one `except (K1, K2) as name:` arm. Empty Kinds is a
// catch-all.
type ExceptClause struct {
	Token token.Token
	Kinds []string
	Name  string
	Body  []Statement
}

// Try is try/except/else/finally.
type Try struct {
	Token    token.Token
	Body     []Statement
	Handlers []ExceptClause
	Else     []Statement
	Finally  []Statement
}

func (s *Try) statementNode()        {}
func (s *Try) GetToken() token.Token { return s.Token }

// Assert is `assert test` or `assert test, msg`.
type Assert struct {
	Token token.Token
	Test  Expression
	Msg   Expression
}

func (s *Assert) statementNode()        {}
func (s *Assert) GetToken() token.Token { return s.Token }

// Param is one function parameter.
type Param struct {
	Token   token.Token
	Name    string
	Hint    *TypeHint
	Default Expression
}

// FuncDef is a function definition.
type FuncDef struct {
	Token   token.Token
	Name    string
	Params  []Param
	RetHint *TypeHint
	Body    []Statement
}

func (s *FuncDef) statementNode()        {}
func (s *FuncDef) GetToken() token.Token { return s.Token }

// ClassDef is a record-style class: a body of annotated field declarations.
// The analyzer lowers it to a struct definition.
type ClassDef struct {
	Token token.Token
	Name  string
	Body  []Statement
}

func (s *ClassDef) statementNode()        {}
func (s *ClassDef) GetToken() token.Token { return s.Token }

// Import is `import module [as alias]`.
type Import struct {
	Token  token.Token
	Module string
	Alias  string
}

func (s *Import) statementNode()        {}
func (s *Import) GetToken() token.Token { return s.Token }

// ImportedName is one name in a from-import.
type ImportedName struct {
	Name  string
	Alias string
}

// FromImport is `from module import a [as b], c`.
type FromImport struct {
	Token  token.Token
	Module string
	Names  []ImportedName
}

func (s *FromImport) statementNode()        {}
func (s *FromImport) GetToken() token.Token { return s.Token }

// Unsupported wraps a construct the parser recognizes but the translator
// does not model. The analyzer reports it and keeps going, so one run can
// surface every unsupported construct at once.
type Unsupported struct {
	Token token.Token
	What  string
}

func (s *Unsupported) statementNode()        {}
func (s *Unsupported) GetToken() token.Token { return s.Token }
