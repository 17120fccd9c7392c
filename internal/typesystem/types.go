// Package typesystem defines the closed type vocabulary of the translator.
//
// Unlike the source language, the target model is fully static: every binding
// and expression resolves to exactly one of the variants below. Unknown exists
// only during inference; it must not survive for any binding that is read.
package typesystem

import (
	"fmt"
	"strings"
)

// Type is the closed sum of all types the translator works with.
// Implementations are immutable values; share freely.
type Type interface {
	String() string
	typeNode()
}

// Scalar types are singletons.
type scalar struct{ name string }

func (s *scalar) String() string { return s.name }
func (s *scalar) typeNode()      {}

var (
	Int     Type = &scalar{"Int"}
	Float   Type = &scalar{"Float"}
	String  Type = &scalar{"String"}
	Bool    Type = &scalar{"Bool"}
	Unit    Type = &scalar{"Unit"}
	Unknown Type = &scalar{"Unknown"}

	// Any is the type of values held behind the external-call boundary.
	// Unlike Unknown it is a resolved type: it may survive inference, and
	// every call against it dispatches through the worker.
	Any Type = &scalar{"Any"}
)

// List is a homogeneous growable sequence.
type List struct{ Elem Type }

func (t *List) String() string { return "List(" + t.Elem.String() + ")" }
func (t *List) typeNode()      {}

// Tuple is a fixed-arity heterogeneous sequence.
type Tuple struct{ Elems []Type }

func (t *Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "Tuple(" + strings.Join(parts, ", ") + ")"
}
func (t *Tuple) typeNode() {}

// Dict is a keyed map.
type Dict struct{ Key, Value Type }

func (t *Dict) String() string { return fmt.Sprintf("Dict(%s, %s)", t.Key, t.Value) }
func (t *Dict) typeNode()      {}

// Set is an unordered unique collection.
type Set struct{ Elem Type }

func (t *Set) String() string { return "Set(" + t.Elem.String() + ")" }
func (t *Set) typeNode()      {}

// Optional is a possibly-absent value.
type Optional struct{ Inner Type }

func (t *Optional) String() string { return "Optional(" + t.Inner.String() + ")" }
func (t *Optional) typeNode()      {}

// Func is a function value type. MayFail marks functions whose translated
// form returns a result rather than a plain value.
type Func struct {
	Params  []Type
	Ret     Type
	MayFail bool
}

func (t *Func) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	ret := "Unit"
	if t.Ret != nil {
		ret = t.Ret.String()
	}
	return "Func(" + strings.Join(parts, ", ") + ") -> " + ret
}
func (t *Func) typeNode() {}

// Named is a user-defined record type, referenced by name.
type Named struct{ Name string }

func (t *Named) String() string { return t.Name }
func (t *Named) typeNode()      {}

// Equal reports structural equality of two types.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch at := a.(type) {
	case *scalar:
		bt, ok := b.(*scalar)
		return ok && at.name == bt.name
	case *List:
		bt, ok := b.(*List)
		return ok && Equal(at.Elem, bt.Elem)
	case *Set:
		bt, ok := b.(*Set)
		return ok && Equal(at.Elem, bt.Elem)
	case *Optional:
		bt, ok := b.(*Optional)
		return ok && Equal(at.Inner, bt.Inner)
	case *Dict:
		bt, ok := b.(*Dict)
		return ok && Equal(at.Key, bt.Key) && Equal(at.Value, bt.Value)
	case *Tuple:
		bt, ok := b.(*Tuple)
		if !ok || len(at.Elems) != len(bt.Elems) {
			return false
		}
		for i := range at.Elems {
			if !Equal(at.Elems[i], bt.Elems[i]) {
				return false
			}
		}
		return true
	case *Func:
		bt, ok := b.(*Func)
		if !ok || len(at.Params) != len(bt.Params) {
			return false
		}
		for i := range at.Params {
			if !Equal(at.Params[i], bt.Params[i]) {
				return false
			}
		}
		return Equal(at.Ret, bt.Ret)
	case *Named:
		bt, ok := b.(*Named)
		return ok && at.Name == bt.Name
	}
	return false
}

// Compatible reports whether a value of type a can stand where b is expected,
// treating Unknown as a wildcard on either side. An Optional(T) slot accepts
// a plain T (the value is implicitly wrapped during lowering).
func Compatible(a, b Type) bool {
	if a == nil || b == nil {
		return true
	}
	if Equal(a, Unknown) || Equal(b, Unknown) {
		return true
	}
	if Equal(a, Any) || Equal(b, Any) {
		return true
	}
	if opt, ok := b.(*Optional); ok {
		if Equal(a, Unit) {
			return true
		}
		if Compatible(a, opt.Inner) {
			return true
		}
	}
	switch at := a.(type) {
	case *List:
		bt, ok := b.(*List)
		return ok && Compatible(at.Elem, bt.Elem)
	case *Set:
		bt, ok := b.(*Set)
		return ok && Compatible(at.Elem, bt.Elem)
	case *Optional:
		bt, ok := b.(*Optional)
		return ok && Compatible(at.Inner, bt.Inner)
	case *Dict:
		bt, ok := b.(*Dict)
		return ok && Compatible(at.Key, bt.Key) && Compatible(at.Value, bt.Value)
	case *Tuple:
		bt, ok := b.(*Tuple)
		if !ok || len(at.Elems) != len(bt.Elems) {
			return false
		}
		for i := range at.Elems {
			if !Compatible(at.Elems[i], bt.Elems[i]) {
				return false
			}
		}
		return true
	case *Func:
		bt, ok := b.(*Func)
		if !ok || len(at.Params) != len(bt.Params) {
			return false
		}
		for i := range at.Params {
			if !Compatible(at.Params[i], bt.Params[i]) {
				return false
			}
		}
		return Compatible(at.Ret, bt.Ret)
	}
	return Equal(a, b)
}

// ContainsUnknown reports whether t or any component of t is Unknown.
func ContainsUnknown(t Type) bool {
	switch tt := t.(type) {
	case nil:
		return true
	case *scalar:
		return Equal(tt, Unknown)
	case *List:
		return ContainsUnknown(tt.Elem)
	case *Set:
		return ContainsUnknown(tt.Elem)
	case *Optional:
		return ContainsUnknown(tt.Inner)
	case *Dict:
		return ContainsUnknown(tt.Key) || ContainsUnknown(tt.Value)
	case *Tuple:
		for _, e := range tt.Elems {
			if ContainsUnknown(e) {
				return true
			}
		}
		return false
	case *Func:
		for _, p := range tt.Params {
			if ContainsUnknown(p) {
				return true
			}
		}
		return ContainsUnknown(tt.Ret)
	}
	return false
}

// IsCopy reports whether values of t are trivially copyable in the target
// representation, which exempts them from borrowing decisions.
func IsCopy(t Type) bool {
	return Equal(t, Int) || Equal(t, Float) || Equal(t, Bool) || Equal(t, Unit)
}

// IsNumeric reports whether t participates in arithmetic promotion.
func IsNumeric(t Type) bool {
	return Equal(t, Int) || Equal(t, Float)
}
