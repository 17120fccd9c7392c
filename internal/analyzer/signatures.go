package analyzer

import (
	"github.com/pylift/pylift/internal/ast"
	"github.com/pylift/pylift/internal/ir"
	"github.com/pylift/pylift/internal/token"
	"github.com/pylift/pylift/internal/typesystem"
)

// failureState is the per-function state of the may-fail analysis.
type failureState int

const (
	failureNotAnalyzed failureState = iota
	failureAnalyzing
	failureResolved
)

// ParamInfo is one declared parameter of a user function.
type ParamInfo struct {
	Name   string
	Ty     typesystem.Type
	Hinted bool
	// Ambiguous marks a parameter whose call-site evidence disagreed in
	// shape; the function falls back to owned, most-general passing.
	Ambiguous  bool
	Mode       ir.PassMode
	Mutable    bool
	HasDefault bool
	Default    ast.Expression
}

// CallSite records one observed call of a function, for deferred parameter
// inference and the may-fail fixed point.
type CallSite struct {
	Caller   string
	Tok      token.Token
	ArgTypes []typesystem.Type
}

// FunctionSignature is the analysis-facing shape of one user function.
// Skeletons are registered for every function before any body is analyzed,
// so mutual recursion resolves by name.
type FunctionSignature struct {
	Name      string
	Tok       token.Token
	Params    []*ParamInfo
	Ret       typesystem.Type
	RetHinted bool
	Def       *ast.FuncDef

	MayFail bool
	state   failureState
	// direct evidence from the body walk
	HasRaise     bool
	HasDelegated bool

	CallSites []*CallSite

	// Hoisted maps names promoted to function scope to their element type.
	Hoisted map[string]typesystem.Type
	// names the function body mutates through methods or index stores
	Mutated map[string]bool
	// names the function returns or stores past its own lifetime
	Escapes map[string]bool
}

// Type returns the function's type value for bindings that reference it.
func (sig *FunctionSignature) Type() *typesystem.Func {
	params := make([]typesystem.Type, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = p.Ty
	}
	return &typesystem.Func{Params: params, Ret: sig.Ret, MayFail: sig.MayFail}
}

// SignatureTable holds every user function, in declaration order.
type SignatureTable struct {
	order  []string
	byName map[string]*FunctionSignature
}

func NewSignatureTable() *SignatureTable {
	return &SignatureTable{byName: make(map[string]*FunctionSignature)}
}

// Register adds a signature skeleton. Re-registering a name reports false.
func (t *SignatureTable) Register(sig *FunctionSignature) bool {
	if _, dup := t.byName[sig.Name]; dup {
		return false
	}
	t.byName[sig.Name] = sig
	t.order = append(t.order, sig.Name)
	return true
}

func (t *SignatureTable) Get(name string) (*FunctionSignature, bool) {
	sig, ok := t.byName[name]
	return sig, ok
}

// All returns signatures in declaration order.
func (t *SignatureTable) All() []*FunctionSignature {
	out := make([]*FunctionSignature, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.byName[name])
	}
	return out
}

func (t *SignatureTable) Len() int { return len(t.order) }

// declareSignature builds a skeleton from a function definition. Unhinted
// parameter types stay Unknown until call-site evidence resolves them.
func declareSignature(def *ast.FuncDef) *FunctionSignature {
	sig := &FunctionSignature{
		Name:    def.Name,
		Tok:     def.Token,
		Def:     def,
		Ret:     typesystem.Unit,
		Hoisted: make(map[string]typesystem.Type),
		Mutated: make(map[string]bool),
		Escapes: make(map[string]bool),
	}
	for _, p := range def.Params {
		info := &ParamInfo{
			Name:       p.Name,
			Ty:         typesystem.Unknown,
			Mode:       ir.PassBorrowed,
			HasDefault: p.Default != nil,
			Default:    p.Default,
		}
		if p.Hint != nil {
			info.Ty = typeFromHint(p.Hint)
			info.Hinted = true
		}
		sig.Params = append(sig.Params, info)
	}
	if def.RetHint != nil {
		sig.Ret = typeFromHint(def.RetHint)
		sig.RetHinted = true
	}
	return sig
}

// typeFromHint resolves a source annotation recursively.
func typeFromHint(h *ast.TypeHint) typesystem.Type {
	if h == nil {
		return typesystem.Unknown
	}
	params := make([]typesystem.Type, len(h.Params))
	for i, p := range h.Params {
		params[i] = typeFromHint(p)
	}
	return typesystem.FromHint(h.Name, params)
}
