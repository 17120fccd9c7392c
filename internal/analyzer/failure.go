package analyzer

import (
	"github.com/pylift/pylift/internal/ast"
	"github.com/pylift/pylift/internal/diagnostics"
	"github.com/pylift/pylift/internal/typesystem"
)

// failureEdge is one unhandled call from Caller's body to a user function.
// Handled calls never appear here: a failure caught by a catch-all clause
// does not leave the caller.
type failureEdge struct {
	caller string
	callee string
	tok    tokenRef
}

type tokenRef struct {
	line, col int
}

// failureAnalysis decides which functions can return the failure arm. It
// runs in two stages: a direct scan for raise statements and delegated
// calls, then a fixed point over the unhandled call edges. The fixed point
// only ever flips functions from clean to failing, so it settles within one
// pass per function.
type failureAnalysis struct {
	diags    *diagnostics.Collection
	sigs     *SignatureTable
	resolver *Resolver
	types    map[ast.Expression]typesystem.Type

	edges []failureEdge

	cur          *FunctionSignature
	handledDepth int
	handlerDepth int
}

func newFailureAnalysis(diags *diagnostics.Collection, sigs *SignatureTable, resolver *Resolver, types map[ast.Expression]typesystem.Type) *failureAnalysis {
	return &failureAnalysis{diags: diags, sigs: sigs, resolver: resolver, types: types}
}

func (f *failureAnalysis) Run(entry []ast.Statement, entrySig *FunctionSignature) {
	all := f.sigs.All()
	for _, sig := range all {
		if sig.Def != nil {
			f.scanDirect(sig, sig.Def.Body)
		}
	}
	if entrySig != nil {
		f.scanDirect(entrySig, entry)
	}

	byName := make(map[string]*FunctionSignature, len(all)+1)
	for _, sig := range all {
		byName[sig.Name] = sig
	}
	if entrySig != nil {
		byName[entrySig.Name] = entrySig
	}
	for pass := 0; pass <= len(byName); pass++ {
		changed := false
		for _, e := range f.edges {
			callee, ok := byName[e.callee]
			if !ok || !callee.MayFail {
				continue
			}
			caller := byName[e.caller]
			if caller != nil && !caller.MayFail {
				caller.MayFail = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	for _, sig := range all {
		sig.state = failureResolved
	}
}

// scanDirect walks one body collecting direct failure evidence and the
// outgoing unhandled call edges.
func (f *failureAnalysis) scanDirect(sig *FunctionSignature, body []ast.Statement) {
	f.cur = sig
	f.handledDepth = 0
	f.handlerDepth = 0
	sig.state = failureAnalyzing
	f.scanStmts(body)
	f.cur = nil
}

func (f *failureAnalysis) markFailing() {
	if f.handledDepth == 0 && !f.cur.MayFail {
		f.cur.MayFail = true
	}
}

func (f *failureAnalysis) scanStmts(stmts []ast.Statement) {
	for _, s := range stmts {
		f.scanStmt(s)
	}
}

func (f *failureAnalysis) scanStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		f.scanExpr(s.Expr)
	case *ast.Assign:
		if s.Value != nil {
			f.scanExpr(s.Value)
		}
		f.scanExpr(s.Target)
	case *ast.AugAssign:
		f.scanExpr(s.Target)
		f.scanExpr(s.Value)
	case *ast.If:
		f.scanExpr(s.Cond)
		f.scanStmts(s.Then)
		for i := range s.Elifs {
			f.scanExpr(s.Elifs[i].Cond)
			f.scanStmts(s.Elifs[i].Body)
		}
		f.scanStmts(s.Else)
	case *ast.While:
		f.scanExpr(s.Cond)
		f.scanStmts(s.Body)
	case *ast.For:
		f.scanExpr(s.Iter)
		f.scanStmts(s.Body)
	case *ast.Return:
		if s.Value != nil {
			f.scanExpr(s.Value)
		}
	case *ast.Assert:
		f.cur.HasRaise = true
		f.markFailing()
		f.scanExpr(s.Test)
		if s.Msg != nil {
			f.scanExpr(s.Msg)
		}
	case *ast.Raise:
		f.scanRaise(s)
	case *ast.Try:
		f.scanTry(s)
	}
}

func (f *failureAnalysis) scanRaise(s *ast.Raise) {
	f.cur.HasRaise = true
	if s.Exc == nil && f.handlerDepth == 0 {
		f.diags.Add(diagnostics.NewError(diagnostics.ErrE001, diagnostics.PhaseException, s.Token,
			"bare raise is only allowed inside an except block"))
		return
	}
	f.markFailing()
	if s.Exc != nil {
		f.scanExpr(s.Exc)
	}
	if s.Cause != nil {
		f.scanExpr(s.Cause)
	}
}

func (f *failureAnalysis) scanTry(s *ast.Try) {
	catchAll := false
	for i := range s.Handlers {
		if len(s.Handlers[i].Kinds) == 0 {
			if catchAll {
				f.diags.Add(diagnostics.NewWarning(diagnostics.ErrE002, diagnostics.PhaseException, s.Handlers[i].Token,
					"handler clause is unreachable after a catch-all"))
			}
			catchAll = true
			continue
		}
		if catchAll {
			f.diags.Add(diagnostics.NewWarning(diagnostics.ErrE002, diagnostics.PhaseException, s.Handlers[i].Token,
				"handler clause is unreachable after a catch-all"))
		}
	}
	if catchAll {
		f.handledDepth++
	}
	f.scanStmts(s.Body)
	if catchAll {
		f.handledDepth--
	}
	f.handlerDepth++
	for i := range s.Handlers {
		f.scanStmts(s.Handlers[i].Body)
	}
	f.handlerDepth--
	f.scanStmts(s.Else)
	f.scanStmts(s.Finally)
}

func (f *failureAnalysis) scanExpr(e ast.Expression) {
	switch ex := e.(type) {
	case *ast.BinaryOp:
		f.scanExpr(ex.Left)
		f.scanExpr(ex.Right)
	case *ast.UnaryOp:
		f.scanExpr(ex.Operand)
	case *ast.IfExp:
		f.scanExpr(ex.Cond)
		f.scanExpr(ex.Then)
		f.scanExpr(ex.Else)
	case *ast.ListLiteral:
		for _, el := range ex.Elements {
			f.scanExpr(el)
		}
	case *ast.SetLiteral:
		for _, el := range ex.Elements {
			f.scanExpr(el)
		}
	case *ast.TupleLiteral:
		for _, el := range ex.Elements {
			f.scanExpr(el)
		}
	case *ast.DictLiteral:
		for _, k := range ex.Keys {
			f.scanExpr(k)
		}
		for _, v := range ex.Values {
			f.scanExpr(v)
		}
	case *ast.Attribute:
		if id, ok := ex.Value.(*ast.Identifier); ok && f.resolver.IsModuleAlias(id.Value) {
			f.cur.HasDelegated = true
			f.markFailing()
			break
		}
		f.scanExpr(ex.Value)
	case *ast.Index:
		f.scanExpr(ex.Target)
		f.scanExpr(ex.Idx)
	case *ast.Slice:
		f.scanExpr(ex.Target)
		for _, bound := range []ast.Expression{ex.Low, ex.High, ex.Step} {
			if bound != nil {
				f.scanExpr(bound)
			}
		}
	case *ast.Call:
		f.scanCall(ex)
	}
}

func (f *failureAnalysis) scanCall(call *ast.Call) {
	switch fn := call.Func.(type) {
	case *ast.Identifier:
		if sig, ok := f.sigs.Get(fn.Value); ok {
			// A call inside a guarded block with a catch-all handler cannot
			// leak a failure out of the caller, so it contributes no edge.
			if f.handledDepth == 0 {
				f.edges = append(f.edges, failureEdge{
					caller: f.cur.Name,
					callee: sig.Name,
					tok:    tokenRef{line: call.Token.Line, col: call.Token.Column},
				})
			}
			break
		}
		if f.isDelegatedName(fn.Value) {
			f.cur.HasDelegated = true
			f.markFailing()
		}
	case *ast.Attribute:
		if id, ok := fn.Value.(*ast.Identifier); ok && f.resolver.IsModuleAlias(id.Value) {
			f.cur.HasDelegated = true
			f.markFailing()
			break
		}
		if recv := f.types[fn.Value]; recv != nil && typesystem.Equal(recv, typesystem.Any) {
			f.cur.HasDelegated = true
			f.markFailing()
		}
		f.scanExpr(fn.Value)
	}
	for _, arg := range call.Args {
		f.scanExpr(arg)
	}
	for _, kw := range call.Keywords {
		f.scanExpr(kw.Value)
	}
}

func (f *failureAnalysis) isDelegatedName(name string) bool {
	if spec, ok := builtinsByName[name]; ok {
		return spec.Kind == KindDelegated
	}
	_, imported := f.resolver.imported[name]
	return imported
}
