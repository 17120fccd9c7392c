package analyzer

import (
	"github.com/pylift/pylift/internal/ast"
	"github.com/pylift/pylift/internal/diagnostics"
	"github.com/pylift/pylift/internal/ir"
	"github.com/pylift/pylift/internal/typesystem"
)

// ownership decides, in a single linear scan per function, how each parameter
// crosses the boundary and which bindings need mutable storage. Copy-typed
// parameters always pass by value; everything else borrows unless it is
// reassigned, returned, or stored past the call.
type ownership struct {
	diags *diagnostics.Collection
	types map[ast.Expression]typesystem.Type

	declared   map[string]bool
	reassigned map[string]bool
	mutated    map[string]bool
	escapes    map[string]bool
}

func newOwnership(diags *diagnostics.Collection, types map[ast.Expression]typesystem.Type) *ownership {
	return &ownership{diags: diags, types: types}
}

// Run scans every function body and the entry statements, filling each
// signature's mutation and escape sets and fixing parameter modes.
func (o *ownership) Run(sigs *SignatureTable, entry []ast.Statement, entrySig *FunctionSignature) {
	for _, sig := range sigs.All() {
		if sig.Def != nil {
			o.scanFunction(sig, sig.Def.Body)
		}
	}
	if entrySig != nil {
		o.scanFunction(entrySig, entry)
	}
}

func (o *ownership) scanFunction(sig *FunctionSignature, body []ast.Statement) {
	o.declared = make(map[string]bool)
	o.reassigned = make(map[string]bool)
	o.mutated = make(map[string]bool)
	o.escapes = make(map[string]bool)
	for _, p := range sig.Params {
		o.declared[p.Name] = true
	}
	o.scanStmts(body)

	sig.Mutated = make(map[string]bool)
	for name := range o.mutated {
		sig.Mutated[name] = true
	}
	for name := range o.reassigned {
		sig.Mutated[name] = true
	}
	sig.Escapes = o.escapes

	for _, p := range sig.Params {
		p.Mutable = o.mutated[p.Name] || o.reassigned[p.Name]
		switch {
		case p.Ambiguous:
			p.Mode = ir.PassOwned
		case typesystem.IsCopy(p.Ty):
			p.Mode = ir.PassOwned
		case o.reassigned[p.Name] || o.escapes[p.Name]:
			p.Mode = ir.PassOwned
		default:
			p.Mode = ir.PassBorrowed
		}
	}
}

func (o *ownership) scanStmts(stmts []ast.Statement) {
	for _, s := range stmts {
		o.scanStmt(s)
	}
}

func (o *ownership) scanStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		o.scanExpr(s.Expr)
	case *ast.Assign:
		o.scanAssign(s)
	case *ast.AugAssign:
		if id, ok := s.Target.(*ast.Identifier); ok {
			o.declared[id.Value] = true
			o.reassigned[id.Value] = true
		} else {
			o.markStoreBase(s.Target)
		}
		o.scanExpr(s.Value)
	case *ast.If:
		o.scanExpr(s.Cond)
		o.scanStmts(s.Then)
		for i := range s.Elifs {
			o.scanExpr(s.Elifs[i].Cond)
			o.scanStmts(s.Elifs[i].Body)
		}
		o.scanStmts(s.Else)
	case *ast.While:
		o.scanExpr(s.Cond)
		o.scanStmts(s.Body)
	case *ast.For:
		o.scanExpr(s.Iter)
		switch target := s.Target.(type) {
		case *ast.Identifier:
			o.declared[target.Value] = true
		case *ast.TupleLiteral:
			for _, el := range target.Elements {
				if id, ok := el.(*ast.Identifier); ok {
					o.declared[id.Value] = true
				}
			}
		}
		o.scanStmts(s.Body)
	case *ast.Return:
		if s.Value != nil {
			o.markEscapes(s.Value)
			o.scanExpr(s.Value)
		}
	case *ast.Raise:
		if s.Exc != nil {
			o.scanExpr(s.Exc)
		}
		if s.Cause != nil {
			o.scanExpr(s.Cause)
		}
	case *ast.Try:
		o.scanStmts(s.Body)
		for i := range s.Handlers {
			o.scanStmts(s.Handlers[i].Body)
		}
		o.scanStmts(s.Else)
		o.scanStmts(s.Finally)
	case *ast.Assert:
		o.scanExpr(s.Test)
		if s.Msg != nil {
			o.scanExpr(s.Msg)
		}
	}
}

func (o *ownership) scanAssign(s *ast.Assign) {
	switch target := s.Target.(type) {
	case *ast.Identifier:
		o.assignName(target.Value)
	case *ast.TupleLiteral:
		for _, el := range target.Elements {
			if id, ok := el.(*ast.Identifier); ok {
				o.assignName(id.Value)
			}
		}
	case *ast.Index:
		o.markStoreBase(target.Target)
		o.scanExpr(target.Idx)
	case *ast.Attribute:
		o.markStoreBase(target.Value)
	}
	if s.Value != nil {
		// values stored through an index or field outlive the statement
		if _, plain := s.Target.(*ast.Identifier); !plain {
			o.markEscapes(s.Value)
		}
		o.scanExpr(s.Value)
	}
}

// assignName distinguishes the declaring assignment from the ones after
// it: only the latter make a binding mutable or force an owned parameter.
func (o *ownership) assignName(name string) {
	if o.declared[name] {
		o.reassigned[name] = true
		return
	}
	o.declared[name] = true
}

// markStoreBase marks the binding at the root of a store target as mutated
// in place. A store into a temporary has no binding to mutate and is
// rejected.
func (o *ownership) markStoreBase(e ast.Expression) {
	switch base := e.(type) {
	case *ast.Identifier:
		o.mutated[base.Value] = true
	case *ast.Index:
		o.markStoreBase(base.Target)
	case *ast.Attribute:
		o.markStoreBase(base.Value)
	default:
		o.diags.Add(diagnostics.NewError(diagnostics.ErrO001, diagnostics.PhaseOwnership, e.GetToken(),
			"cannot assign through a temporary value"))
	}
}

// markEscapes records every name inside an expression whose value leaves
// the current function.
func (o *ownership) markEscapes(e ast.Expression) {
	switch ex := e.(type) {
	case *ast.Identifier:
		o.escapes[ex.Value] = true
	case *ast.TupleLiteral:
		for _, el := range ex.Elements {
			o.markEscapes(el)
		}
	case *ast.ListLiteral:
		for _, el := range ex.Elements {
			o.markEscapes(el)
		}
	case *ast.SetLiteral:
		for _, el := range ex.Elements {
			o.markEscapes(el)
		}
	case *ast.DictLiteral:
		for _, k := range ex.Keys {
			o.markEscapes(k)
		}
		for _, v := range ex.Values {
			o.markEscapes(v)
		}
	case *ast.IfExp:
		o.markEscapes(ex.Then)
		o.markEscapes(ex.Else)
	case *ast.Call:
		for _, arg := range ex.Args {
			o.markEscapes(arg)
		}
		for _, kw := range ex.Keywords {
			o.markEscapes(kw.Value)
		}
	}
}

func (o *ownership) scanExpr(e ast.Expression) {
	switch ex := e.(type) {
	case *ast.BinaryOp:
		o.scanExpr(ex.Left)
		o.scanExpr(ex.Right)
	case *ast.UnaryOp:
		o.scanExpr(ex.Operand)
	case *ast.IfExp:
		o.scanExpr(ex.Cond)
		o.scanExpr(ex.Then)
		o.scanExpr(ex.Else)
	case *ast.ListLiteral:
		for _, el := range ex.Elements {
			o.scanExpr(el)
		}
	case *ast.SetLiteral:
		for _, el := range ex.Elements {
			o.scanExpr(el)
		}
	case *ast.TupleLiteral:
		for _, el := range ex.Elements {
			o.scanExpr(el)
		}
	case *ast.DictLiteral:
		for _, k := range ex.Keys {
			o.scanExpr(k)
		}
		for _, v := range ex.Values {
			o.scanExpr(v)
		}
	case *ast.Attribute:
		o.scanExpr(ex.Value)
	case *ast.Index:
		o.scanExpr(ex.Target)
		o.scanExpr(ex.Idx)
	case *ast.Slice:
		o.scanExpr(ex.Target)
		for _, bound := range []ast.Expression{ex.Low, ex.High, ex.Step} {
			if bound != nil {
				o.scanExpr(bound)
			}
		}
	case *ast.Call:
		o.scanCall(ex)
	}
}

func (o *ownership) scanCall(call *ast.Call) {
	if attr, ok := call.Func.(*ast.Attribute); ok {
		recvTy := o.types[attr.Value]
		if recvTy != nil && mutatingMethod(recvTy, attr.Attr) {
			o.markStoreBase(attr.Value)
			// arguments stored by a mutating container method stay alive
			// inside the receiver
			for _, arg := range call.Args {
				o.markEscapes(arg)
			}
		}
		o.scanExpr(attr.Value)
	}
	for _, arg := range call.Args {
		o.scanExpr(arg)
	}
	for _, kw := range call.Keywords {
		o.scanExpr(kw.Value)
	}
}
