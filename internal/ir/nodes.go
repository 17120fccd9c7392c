package ir

import (
	"github.com/pylift/pylift/internal/typesystem"
)

// Node is a normalized statement. The node set is closed: every
// dynamic-dispatch construct in the source is resolved into one of these by
// the time the renderer sees the program.
type Node interface {
	stmtNode()
}

// PassMode records how a parameter crosses a function boundary.
type PassMode string

const (
	// PassBorrowed passes by reference; containers and strings take their
	// slice forms.
	PassBorrowed PassMode = "borrowed"
	// PassOwned transfers ownership to the callee.
	PassOwned PassMode = "owned"
)

// Param is a resolved function parameter.
type Param struct {
	Name    string
	Ty      typesystem.Type
	Mode    PassMode
	Mutable bool
}

// VarDecl declares a binding. Init may be nil for hoisted declarations,
// which the renderer initializes to the optional's empty arm.
type VarDecl struct {
	Name    string
	Ty      typesystem.Type
	Mutable bool
	Init    Expr
}

// MultiVarDecl declares the targets of a tuple unpacking in one statement.
type MultiVarDecl struct {
	Targets []*VarDecl
	Value   Expr
}

// Assign reassigns an existing binding.
type Assign struct {
	Target string
	Value  Expr
}

// IndexAssign writes through an index (base[i] = v).
type IndexAssign struct {
	Target Expr
	Index  Expr
	Value  Expr
}

// FieldAssign writes a record field (obj.f = v).
type FieldAssign struct {
	Target Expr
	Field  string
	Value  Expr
}

type AugAssign struct {
	Target string
	Op     AugOp
	Value  Expr
}

// FuncDecl is a lowered function. Hoisted holds the bindings promoted from
// conditional or loop scope to function scope as optionals; the renderer
// emits them before Body.
type FuncDecl struct {
	Name    string
	Params  []Param
	Ret     typesystem.Type
	MayFail bool
	Hoisted []*VarDecl
	Body    []Node
}

// StructDef is a record type originating from an annotated class body.
type StructDef struct {
	Name   string
	Fields []FieldDef
}

type FieldDef struct {
	Name string
	Ty   typesystem.Type
}

type If struct {
	Cond Expr
	Then []Node
	Else []Node
}

type While struct {
	Cond Expr
	Body []Node
}

// For iterates a container or range. Var's type is the element type.
type For struct {
	Var   string
	VarTy typesystem.Type
	Iter  Expr
	Body  []Node
}

type Return struct {
	Value Expr
}

type Break struct{}

type Continue struct{}

// Fail returns the failure arm of the enclosing function's result. A raise
// lowers to a Fail carrying a FailureExpr; a bare re-raise inside a handler
// lowers to a Fail with Rethrow set and no Value.
type Fail struct {
	Value   *FailureExpr
	Rethrow bool
}

// Handler is one except clause after lowering: the failure matches when its
// kind equals any entry in Kinds. An empty Kinds matches every failure.
type Handler struct {
	Kinds []string
	Bind  string
	Body  []Node
}

// HandlerBlock is a lowered try statement. The guarded block's failure is
// matched against Handlers in order; Else runs only on success; Finally
// runs on every exit path before control leaves the block.
type HandlerBlock struct {
	Guarded  []Node
	Handlers []Handler
	Else     []Node
	Finally  []Node
}

// ExprStmt evaluates an expression for its effect.
type ExprStmt struct {
	E Expr
}

// Program is the normalized translation unit handed to the renderer.
// DelegatedModules lists every imported module whose calls route through
// the worker; the renderer turns them into bridge session setup.
// RequiresWorker is set when at least one call resolved to the delegated
// strategy, so project generation can provision the worker dependency.
type Program struct {
	Structs          []*StructDef
	Funcs            []*FuncDecl
	Entry            *FuncDecl
	DelegatedModules []string
	RequiresWorker   bool
}

func (n *VarDecl) stmtNode()      {}
func (n *MultiVarDecl) stmtNode() {}
func (n *Assign) stmtNode()       {}
func (n *IndexAssign) stmtNode()  {}
func (n *FieldAssign) stmtNode()  {}
func (n *AugAssign) stmtNode()    {}
func (n *FuncDecl) stmtNode()     {}
func (n *StructDef) stmtNode()    {}
func (n *If) stmtNode()           {}
func (n *While) stmtNode()        {}
func (n *For) stmtNode()          {}
func (n *Return) stmtNode()       {}
func (n *Break) stmtNode()        {}
func (n *Continue) stmtNode()     {}
func (n *Fail) stmtNode()         {}
func (n *HandlerBlock) stmtNode() {}
func (n *ExprStmt) stmtNode()     {}
