package ir

import (
	"github.com/pylift/pylift/internal/typesystem"
)

// Expr is a normalized expression. Every expression carries the resolved
// type decided during analysis; the renderer performs no inference of its
// own.
type Expr interface {
	Type() typesystem.Type
	exprNode()
}

// DispatchStrategy records, per call site, which backend handles the call.
// It is resolved exactly once during analysis and baked into the node.
type DispatchStrategy string

const (
	// DispatchDirect is a plain call to a user-defined function; no
	// dispatch decision was needed.
	DispatchDirect DispatchStrategy = "direct"
	// DispatchIntrinsic renders as a fixed native construct (len, range,
	// print, conversions).
	DispatchIntrinsic DispatchStrategy = "intrinsic"
	// DispatchStructural renders as a method on the receiver's concrete
	// native representation (list.append, dict.get, str.upper).
	DispatchStructural DispatchStrategy = "structural"
	// DispatchDelegated routes the call through the runtime worker
	// boundary.
	DispatchDelegated DispatchStrategy = "delegated"
)

type IntLit struct {
	Value int64
}

type FloatLit struct {
	Value float64
}

type StringLit struct {
	Value string
}

type BoolLit struct {
	Value bool
}

// NoneLit is the absent-value literal; its type is always Unit.
type NoneLit struct{}

// Var references a binding by name.
type Var struct {
	Name string
	Ty   typesystem.Type
}

// FieldAccess reads a record field.
type FieldAccess struct {
	Target Expr
	Field  string
	Ty     typesystem.Type
}

type BinaryExpr struct {
	Left  Expr
	Op    BinOp
	Right Expr
	Ty    typesystem.Type
}

type UnaryExpr struct {
	Op      UnaryOp
	Operand Expr
	Ty      typesystem.Type
}

// Call is a resolved free-function call. For intrinsic calls Name is the
// builtin identifier; for user functions it is the function name; for
// delegated calls it is the fully qualified target passed to the worker.
type Call struct {
	Name     string
	Args     []Expr
	Strategy DispatchStrategy
	// MayFail mirrors the callee's failure bit so the renderer knows to
	// propagate the result arm.
	MayFail bool
	Ty      typesystem.Type
}

// MethodCall is a resolved method call on a receiver. TargetTy is the
// receiver's type at the call site, which the renderer needs to pick the
// concrete native method.
type MethodCall struct {
	Target   Expr
	Method   string
	Args     []Expr
	TargetTy typesystem.Type
	Strategy DispatchStrategy
	MayFail  bool
	Ty       typesystem.Type
}

// BridgeCall marks a call that crosses the external-call boundary. Every
// bridge call may fail: worker-side faults arrive as ordinary failure
// values.
type BridgeCall struct {
	Module string
	Target string
	Args   []Expr
	// Fetch marks a bare attribute read (alias.attr without a call);
	// the renderer emits a get_attribute request instead of a call.
	Fetch bool
	Ty    typesystem.Type
}

type ListLit struct {
	Elem     typesystem.Type
	Elements []Expr
}

type TupleLit struct {
	Elements []Expr
	Ty       typesystem.Type
}

type DictLit struct {
	Key    typesystem.Type
	Value  typesystem.Type
	Keys   []Expr
	Values []Expr
}

type SetLit struct {
	Elem     typesystem.Type
	Elements []Expr
}

// StructLit constructs a record value with every field named.
type StructLit struct {
	Name   string
	Fields []StructField
}

// StructField is one named field initializer in a StructLit.
type StructField struct {
	Name  string
	Value Expr
}

type IndexExpr struct {
	Target Expr
	Index  Expr
	Ty     typesystem.Type
}

// SliceExpr is a structural slice with unit step. Low and High may be nil
// for open bounds. Non-unit steps and reversals do not lower structurally;
// see RawFragment.
type SliceExpr struct {
	Target Expr
	Low    Expr
	High   Expr
	Ty     typesystem.Type
}

// RangeExpr is the iteration space of a counted loop.
type RangeExpr struct {
	Start Expr
	Stop  Expr
	Step  Expr
}

// Convert is an explicit conversion requested by the source program or
// inserted during lowering (int/float/str/bool constructors, numeric
// widening at mixed-type operators). Conversions are always explicit in the
// output; nothing coerces silently.
type Convert struct {
	Value Expr
	To    typesystem.Type
}

// IfExpr is the conditional expression form; both arms carry the same
// resolved type.
type IfExpr struct {
	Cond Expr
	Then Expr
	Else Expr
	Ty   typesystem.Type
}

// Unwrap extracts the inner value of an optional that analysis has proven
// present on this path.
type Unwrap struct {
	Value Expr
	Ty    typesystem.Type
}

// FailureExpr constructs a failure value at a lowered raise site. Kind is
// the source exception class name; Cause chains a prior failure when the
// raise carried one.
type FailureExpr struct {
	Kind    string
	Message Expr
	Line    int
	Cause   Expr
}

// RawFragment is an unstructured target-language fragment. The only
// construct permitted to lower this way is sequence slicing with a non-unit
// step or a reversal; extending this set requires changing the output
// contract first.
type RawFragment struct {
	Text string
	Ty   typesystem.Type
}

func (e *IntLit) Type() typesystem.Type      { return typesystem.Int }
func (e *FloatLit) Type() typesystem.Type    { return typesystem.Float }
func (e *StringLit) Type() typesystem.Type   { return typesystem.String }
func (e *BoolLit) Type() typesystem.Type     { return typesystem.Bool }
func (e *NoneLit) Type() typesystem.Type     { return typesystem.Unit }
func (e *Var) Type() typesystem.Type         { return e.Ty }
func (e *FieldAccess) Type() typesystem.Type { return e.Ty }
func (e *BinaryExpr) Type() typesystem.Type  { return e.Ty }
func (e *UnaryExpr) Type() typesystem.Type   { return e.Ty }
func (e *Call) Type() typesystem.Type        { return e.Ty }
func (e *MethodCall) Type() typesystem.Type  { return e.Ty }
func (e *BridgeCall) Type() typesystem.Type  { return e.Ty }
func (e *ListLit) Type() typesystem.Type     { return &typesystem.List{Elem: e.Elem} }
func (e *TupleLit) Type() typesystem.Type    { return e.Ty }
func (e *DictLit) Type() typesystem.Type     { return &typesystem.Dict{Key: e.Key, Value: e.Value} }
func (e *SetLit) Type() typesystem.Type      { return &typesystem.Set{Elem: e.Elem} }
func (e *StructLit) Type() typesystem.Type   { return &typesystem.Named{Name: e.Name} }
func (e *IndexExpr) Type() typesystem.Type   { return e.Ty }
func (e *SliceExpr) Type() typesystem.Type   { return e.Ty }
func (e *RangeExpr) Type() typesystem.Type   { return &typesystem.List{Elem: typesystem.Int} }
func (e *Convert) Type() typesystem.Type     { return e.To }
func (e *IfExpr) Type() typesystem.Type      { return e.Ty }
func (e *Unwrap) Type() typesystem.Type      { return e.Ty }
func (e *FailureExpr) Type() typesystem.Type { return typesystem.Unknown }
func (e *RawFragment) Type() typesystem.Type { return e.Ty }

func (e *IntLit) exprNode()      {}
func (e *FloatLit) exprNode()    {}
func (e *StringLit) exprNode()   {}
func (e *BoolLit) exprNode()     {}
func (e *NoneLit) exprNode()     {}
func (e *Var) exprNode()         {}
func (e *FieldAccess) exprNode() {}
func (e *BinaryExpr) exprNode()  {}
func (e *UnaryExpr) exprNode()   {}
func (e *Call) exprNode()        {}
func (e *MethodCall) exprNode()  {}
func (e *BridgeCall) exprNode()  {}
func (e *ListLit) exprNode()     {}
func (e *TupleLit) exprNode()    {}
func (e *DictLit) exprNode()     {}
func (e *SetLit) exprNode()      {}
func (e *StructLit) exprNode()   {}
func (e *IndexExpr) exprNode()   {}
func (e *SliceExpr) exprNode()   {}
func (e *RangeExpr) exprNode()   {}
func (e *Convert) exprNode()     {}
func (e *IfExpr) exprNode()      {}
func (e *Unwrap) exprNode()      {}
func (e *FailureExpr) exprNode() {}
func (e *RawFragment) exprNode() {}
