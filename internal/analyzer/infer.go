package analyzer

import (
	"github.com/pylift/pylift/internal/ast"
	"github.com/pylift/pylift/internal/diagnostics"
	"github.com/pylift/pylift/internal/ir"
	"github.com/pylift/pylift/internal/token"
	"github.com/pylift/pylift/internal/typesystem"
)

// StructInfo is a record type collected from an annotated class body.
type StructInfo struct {
	Name   string
	Tok    token.Token
	Fields []ir.FieldDef
	byName map[string]typesystem.Type
}

func (s *StructInfo) Field(name string) (typesystem.Type, bool) {
	ty, ok := s.byName[name]
	return ty, ok
}

// walker is one inference pass over the program. It assigns a type to every
// expression and refines binding and signature types as evidence arrives.
// Pass 1 additionally records call sites for deferred parameter inference;
// pass 2 re-walks with resolved signatures so the recorded types are final.
type walker struct {
	diags    *diagnostics.Collection
	scopes   *ScopeStack
	sigs     *SignatureTable
	structs  map[string]*StructInfo
	resolver *Resolver
	types    map[ast.Expression]typesystem.Type
	pass     int

	fn        *FunctionSignature
	retTypes  []typesystem.Type
	retToks   []token.Token
	loopDepth int

	// entrySig collects evidence for the loose module-level statements,
	// which lower as the program entry.
	entrySig *FunctionSignature
	entry    []ast.Statement
}

func newWalker(pass int, diags *diagnostics.Collection, sigs *SignatureTable, structs map[string]*StructInfo, resolver *Resolver, types map[ast.Expression]typesystem.Type) *walker {
	return &walker{
		diags:    diags,
		scopes:   NewScopeStack(),
		sigs:     sigs,
		structs:  structs,
		resolver: resolver,
		types:    types,
		pass:     pass,
	}
}

func (w *walker) errorf(code diagnostics.ErrorCode, tok token.Token, format string, args ...interface{}) {
	w.diags.Add(diagnostics.NewError(code, diagnostics.PhaseTypecheck, tok, format, args...))
}

func (w *walker) warnf(code diagnostics.ErrorCode, tok token.Token, format string, args ...interface{}) {
	w.diags.Add(diagnostics.NewWarning(code, diagnostics.PhaseTypecheck, tok, format, args...))
}

// walkProgram types every function body, then the loose module-level
// statements that form the program entry.
func (w *walker) walkProgram(prog *ast.Program) {
	var defs []*ast.FuncDef
	for _, stmt := range prog.Statements {
		switch s := stmt.(type) {
		case *ast.FuncDef:
			defs = append(defs, s)
		case *ast.ClassDef, *ast.Import, *ast.FromImport:
			// collected before any pass runs
		default:
			w.entry = append(w.entry, stmt)
		}
	}
	walkEntry := func() {
		w.fn = w.entrySig
		for _, stmt := range w.entry {
			w.inferStmt(stmt)
		}
		w.fn = nil
	}
	walkFuncs := func() {
		for _, def := range defs {
			w.walkFunction(def)
		}
	}
	// the first pass walks the module statements before the functions, so
	// bodies see the globals they read; the second pass reverses the order
	// so resolved return types flow back into the module bindings, reading
	// globals from the seeded previous-pass results instead
	if w.pass == 1 {
		walkEntry()
		walkFuncs()
	} else {
		walkFuncs()
		walkEntry()
	}
}

// seedGlobals pre-declares the module bindings settled during an earlier
// pass, keyed to their original declaration sites.
func (w *walker) seedGlobals(prev *Scope) {
	for _, name := range prev.order {
		b := prev.bindings[name]
		nb, fresh := w.scopes.Declare(name, b.Ty, b.Mutable, b.DeclTok)
		if fresh {
			nb.Hinted = b.Hinted
		}
	}
}

func (w *walker) walkFunction(def *ast.FuncDef) {
	sig, ok := w.sigs.Get(def.Name)
	if !ok || sig.Def != def {
		// shadowed duplicate, already reported
		return
	}
	w.fn = sig
	w.retTypes = nil
	w.retToks = nil
	w.scopes.EnterFunction()
	for _, p := range sig.Params {
		b, fresh := w.scopes.Declare(p.Name, p.Ty, false, sig.Tok)
		if !fresh {
			w.errorf(diagnostics.ErrT002, sig.Tok, "duplicate parameter %q in %s", p.Name, sig.Name)
			continue
		}
		b.IsParam = true
		b.Hinted = p.Hinted
		if p.HasDefault && p.Default != nil {
			defTy := w.inferExpr(p.Default)
			if p.Hinted {
				w.checkAssignable(p.Default.GetToken(), defTy, p.Ty, "default for parameter %q", p.Name)
			} else if typesystem.ContainsUnknown(p.Ty) {
				if merged, ok := typesystem.Unify(p.Ty, defTy); ok {
					p.Ty = merged
					b.Ty = merged
				}
			}
		}
	}
	for _, stmt := range def.Body {
		w.inferStmt(stmt)
	}
	w.resolveReturn(sig)
	w.scopes.Exit()
	w.fn = nil
}

// resolveReturn settles an unhinted return type from the observed return
// statements. No return statement at all keeps Unit.
func (w *walker) resolveReturn(sig *FunctionSignature) {
	if sig.RetHinted || len(w.retTypes) == 0 {
		return
	}
	merged := w.retTypes[0]
	for i := 1; i < len(w.retTypes); i++ {
		next, ok := typesystem.Unify(merged, w.retTypes[i])
		if !ok {
			w.errorf(diagnostics.ErrT003, w.retToks[i],
				"return type of %s disagrees: %s vs %s", sig.Name, merged, w.retTypes[i])
			return
		}
		merged = next
	}
	sig.Ret = merged
}

// assignable reports whether a value of type val can fill a slot of type
// slot, allowing the Int-to-Float widening that lowering makes explicit.
func assignable(val, slot typesystem.Type) bool {
	if typesystem.Compatible(val, slot) {
		return true
	}
	return typesystem.Equal(slot, typesystem.Float) && typesystem.Equal(val, typesystem.Int)
}

func (w *walker) checkAssignable(tok token.Token, val, slot typesystem.Type, format string, args ...interface{}) bool {
	if assignable(val, slot) {
		return true
	}
	what := diagnostics.NewError(diagnostics.ErrT003, diagnostics.PhaseTypecheck, tok, format, args...)
	if typesystem.Equal(slot, typesystem.Int) && typesystem.Equal(val, typesystem.Float) {
		what.Code = diagnostics.ErrT006
		what.Message += ": Float does not narrow to Int implicitly, use int()"
	} else {
		what.Message += ": expected " + slot.String() + ", got " + val.String()
	}
	w.diags.Add(what)
	return false
}

func (w *walker) inferExpr(e ast.Expression) typesystem.Type {
	ty := w.exprType(e)
	if ty == nil {
		ty = typesystem.Unknown
	}
	w.types[e] = ty
	return ty
}

func (w *walker) exprType(e ast.Expression) typesystem.Type {
	switch ex := e.(type) {
	case *ast.IntLiteral:
		return typesystem.Int
	case *ast.FloatLiteral:
		return typesystem.Float
	case *ast.StringLiteral:
		return typesystem.String
	case *ast.BoolLiteral:
		return typesystem.Bool
	case *ast.NoneLiteral:
		return typesystem.Unit
	case *ast.Identifier:
		return w.identType(ex)
	case *ast.ListLiteral:
		return &typesystem.List{Elem: w.unifyElems(ex.Token, ex.Elements)}
	case *ast.SetLiteral:
		return &typesystem.Set{Elem: w.unifyElems(ex.Token, ex.Elements)}
	case *ast.TupleLiteral:
		elems := make([]typesystem.Type, len(ex.Elements))
		for i, el := range ex.Elements {
			elems[i] = w.inferExpr(el)
		}
		return &typesystem.Tuple{Elems: elems}
	case *ast.DictLiteral:
		return &typesystem.Dict{
			Key:   w.unifyElems(ex.Token, ex.Keys),
			Value: w.unifyElems(ex.Token, ex.Values),
		}
	case *ast.BinaryOp:
		return w.binaryType(ex)
	case *ast.UnaryOp:
		return w.unaryType(ex)
	case *ast.IfExp:
		w.inferExpr(ex.Cond)
		thenTy := w.inferExpr(ex.Then)
		elseTy := w.inferExpr(ex.Else)
		merged, ok := typesystem.Unify(thenTy, elseTy)
		if !ok {
			w.errorf(diagnostics.ErrT003, ex.Token,
				"conditional expression arms disagree: %s vs %s", thenTy, elseTy)
			return typesystem.Unknown
		}
		return merged
	case *ast.Attribute:
		return w.attributeType(ex)
	case *ast.Index:
		return w.indexType(ex)
	case *ast.Slice:
		return w.sliceType(ex)
	case *ast.Call:
		return w.callType(ex)
	}
	w.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, e.GetToken(), "unsupported expression"))
	return typesystem.Unknown
}

func (w *walker) identType(id *ast.Identifier) typesystem.Type {
	if b, ty, ok := w.scopes.Lookup(id.Value); ok {
		b.Reads++
		return ty
	}
	// assigned in a branch or loop body, read after it: hoist to function
	// scope as an optionally-absent slot
	if b, ok := w.scopes.LookupExited(id.Value); ok {
		inner := b.Ty
		if opt, isOpt := inner.(*typesystem.Optional); isOpt {
			inner = opt.Inner
		}
		b.Hoisted = true
		if w.fn != nil {
			w.fn.Hoisted[id.Value] = inner
		}
		hoisted, fresh := w.declareInFunctionScope(id.Value, inner, b.DeclTok)
		if fresh {
			hoisted.Hoisted = true
			hoisted.Reassigned = true
		}
		hoisted.Reads++
		return inner
	}
	if sig, ok := w.sigs.Get(id.Value); ok {
		return sig.Type()
	}
	if w.resolver.IsModuleAlias(id.Value) {
		return typesystem.Any
	}
	w.errorf(diagnostics.ErrT001, id.Token, "undefined name %q", id.Value)
	return typesystem.Unknown
}

func (w *walker) declareInFunctionScope(name string, ty typesystem.Type, tok token.Token) (*Binding, bool) {
	fnScope := w.scopes.FunctionScope()
	if b, ok := fnScope.lookupLocal(name); ok {
		return b, false
	}
	b := &Binding{Name: name, Ty: ty, DeclTok: tok, ScopeID: fnScope.id}
	fnScope.bindings[name] = b
	fnScope.order = append(fnScope.order, name)
	return b, true
}

func (w *walker) unifyElems(tok token.Token, elems []ast.Expression) typesystem.Type {
	merged := typesystem.Unknown
	for _, el := range elems {
		ty := w.inferExpr(el)
		next, ok := typesystem.Unify(merged, ty)
		if !ok {
			w.errorf(diagnostics.ErrT003, tok,
				"mixed element types in literal: %s vs %s", merged, ty)
			return typesystem.Unknown
		}
		merged = next
	}
	return merged
}

func (w *walker) binaryType(bin *ast.BinaryOp) typesystem.Type {
	left := w.inferExpr(bin.Left)
	right := w.inferExpr(bin.Right)
	anySide := typesystem.Equal(left, typesystem.Any) || typesystem.Equal(right, typesystem.Any)
	switch bin.Op {
	case "==", "!=", "<", ">", "<=", ">=":
		if !anySide && !typesystem.Compatible(left, right) && !bothNumeric(left, right) {
			w.errorf(diagnostics.ErrT003, bin.Token,
				"cannot compare %s with %s", left, right)
		}
		return typesystem.Bool
	case "is", "is not":
		return typesystem.Bool
	case "and", "or", "not in", "in":
		if bin.Op == "in" || bin.Op == "not in" {
			w.checkMembership(bin.Token, left, right)
		}
		return typesystem.Bool
	case "+":
		if anySide {
			return typesystem.Any
		}
		if typesystem.Equal(left, typesystem.String) && typesystem.Equal(right, typesystem.String) {
			return typesystem.String
		}
		if ll, ok := left.(*typesystem.List); ok {
			if rl, ok2 := right.(*typesystem.List); ok2 {
				if elem, ok3 := typesystem.Unify(ll.Elem, rl.Elem); ok3 {
					return &typesystem.List{Elem: elem}
				}
			}
			w.errorf(diagnostics.ErrT003, bin.Token, "cannot concatenate %s with %s", left, right)
			return typesystem.Unknown
		}
		return w.numericResult(bin, left, right)
	case "*":
		if anySide {
			return typesystem.Any
		}
		if typesystem.Equal(left, typesystem.String) && typesystem.Equal(right, typesystem.Int) {
			return typesystem.String
		}
		if ll, ok := left.(*typesystem.List); ok && typesystem.Equal(right, typesystem.Int) {
			return ll
		}
		return w.numericResult(bin, left, right)
	case "-", "%", "**":
		if anySide {
			return typesystem.Any
		}
		return w.numericResult(bin, left, right)
	case "/":
		if anySide {
			return typesystem.Any
		}
		if bothNumeric(left, right) {
			return typesystem.Float
		}
		return w.numericResult(bin, left, right)
	case "//":
		if anySide {
			return typesystem.Any
		}
		return w.numericResult(bin, left, right)
	case "&", "|", "^", "<<", ">>":
		if anySide {
			return typesystem.Any
		}
		if typesystem.Equal(left, typesystem.Int) && typesystem.Equal(right, typesystem.Int) {
			return typesystem.Int
		}
		w.errorf(diagnostics.ErrT003, bin.Token,
			"bitwise %s needs Int operands, got %s and %s", bin.Op, left, right)
		return typesystem.Unknown
	}
	w.errorf(diagnostics.ErrT003, bin.Token, "unknown operator %q", bin.Op)
	return typesystem.Unknown
}

func bothNumeric(a, b typesystem.Type) bool {
	return typesystem.IsNumeric(a) && typesystem.IsNumeric(b)
}

func (w *walker) numericResult(bin *ast.BinaryOp, left, right typesystem.Type) typesystem.Type {
	ty := typesystem.Promote(left, right)
	if typesystem.Equal(ty, typesystem.Unknown) {
		if typesystem.ContainsUnknown(left) || typesystem.ContainsUnknown(right) {
			return typesystem.Unknown
		}
		w.errorf(diagnostics.ErrT003, bin.Token,
			"operator %s does not apply to %s and %s", bin.Op, left, right)
	}
	return ty
}

func (w *walker) checkMembership(tok token.Token, needle, haystack typesystem.Type) {
	switch h := haystack.(type) {
	case *typesystem.List:
		w.checkAssignable(tok, needle, h.Elem, "membership test")
	case *typesystem.Set:
		w.checkAssignable(tok, needle, h.Elem, "membership test")
	case *typesystem.Dict:
		w.checkAssignable(tok, needle, h.Key, "membership test")
	default:
		if typesystem.Equal(haystack, typesystem.String) {
			w.checkAssignable(tok, needle, typesystem.String, "membership test")
			return
		}
		if typesystem.Equal(haystack, typesystem.Any) || typesystem.ContainsUnknown(haystack) {
			return
		}
		w.errorf(diagnostics.ErrT003, tok, "%s is not a container", haystack)
	}
}

func (w *walker) unaryType(un *ast.UnaryOp) typesystem.Type {
	opTy := w.inferExpr(un.Operand)
	switch un.Op {
	case "not":
		return typesystem.Bool
	case "-", "+":
		if typesystem.IsNumeric(opTy) || typesystem.Equal(opTy, typesystem.Any) {
			return opTy
		}
		if typesystem.ContainsUnknown(opTy) {
			return typesystem.Unknown
		}
		w.errorf(diagnostics.ErrT003, un.Token, "unary %s does not apply to %s", un.Op, opTy)
		return typesystem.Unknown
	case "~":
		if typesystem.Equal(opTy, typesystem.Int) || typesystem.Equal(opTy, typesystem.Any) {
			return typesystem.Int
		}
		if typesystem.ContainsUnknown(opTy) {
			return typesystem.Unknown
		}
		w.errorf(diagnostics.ErrT003, un.Token, "unary ~ needs Int, got %s", opTy)
		return typesystem.Unknown
	}
	return typesystem.Unknown
}

func (w *walker) attributeType(attr *ast.Attribute) typesystem.Type {
	if id, ok := attr.Value.(*ast.Identifier); ok && w.resolver.IsModuleAlias(id.Value) {
		w.resolver.ResolveModuleAttr(id.Value, attr.Attr)
		w.types[attr.Value] = typesystem.Any
		return typesystem.Any
	}
	target := w.inferExpr(attr.Value)
	if named, ok := target.(*typesystem.Named); ok {
		info, found := w.structs[named.Name]
		if !found {
			w.errorf(diagnostics.ErrT001, attr.Token, "unknown record type %s", named.Name)
			return typesystem.Unknown
		}
		if ty, has := info.Field(attr.Attr); has {
			return ty
		}
		w.errorf(diagnostics.ErrT001, attr.Token, "%s has no field %q", named.Name, attr.Attr)
		return typesystem.Unknown
	}
	if typesystem.Equal(target, typesystem.Any) {
		return typesystem.Any
	}
	if typesystem.ContainsUnknown(target) {
		return typesystem.Unknown
	}
	w.errorf(diagnostics.ErrT003, attr.Token, "%s has no attribute %q", target, attr.Attr)
	return typesystem.Unknown
}

func (w *walker) indexType(idx *ast.Index) typesystem.Type {
	target := w.inferExpr(idx.Target)
	index := w.inferExpr(idx.Idx)
	switch t := target.(type) {
	case *typesystem.List:
		w.checkAssignable(idx.Token, index, typesystem.Int, "list index")
		return t.Elem
	case *typesystem.Dict:
		w.checkAssignable(idx.Token, index, t.Key, "dict key")
		return t.Value
	case *typesystem.Tuple:
		if lit, ok := idx.Idx.(*ast.IntLiteral); ok {
			i := int(lit.Value)
			if i < 0 {
				i += len(t.Elems)
			}
			if i >= 0 && i < len(t.Elems) {
				return t.Elems[i]
			}
			w.errorf(diagnostics.ErrT003, idx.Token, "tuple index %d out of range for %s", lit.Value, t)
			return typesystem.Unknown
		}
		w.errorf(diagnostics.ErrT003, idx.Token, "tuple index must be a literal")
		return typesystem.Unknown
	}
	if typesystem.Equal(target, typesystem.String) {
		w.checkAssignable(idx.Token, index, typesystem.Int, "string index")
		return typesystem.String
	}
	if typesystem.Equal(target, typesystem.Any) {
		return typesystem.Any
	}
	if typesystem.ContainsUnknown(target) {
		return typesystem.Unknown
	}
	w.errorf(diagnostics.ErrT003, idx.Token, "%s is not indexable", target)
	return typesystem.Unknown
}

func (w *walker) sliceType(sl *ast.Slice) typesystem.Type {
	target := w.inferExpr(sl.Target)
	for _, bound := range []ast.Expression{sl.Low, sl.High, sl.Step} {
		if bound != nil {
			w.checkAssignable(bound.GetToken(), w.inferExpr(bound), typesystem.Int, "slice bound")
		}
	}
	switch target.(type) {
	case *typesystem.List:
		return target
	}
	if typesystem.Equal(target, typesystem.String) {
		return typesystem.String
	}
	if typesystem.Equal(target, typesystem.Any) {
		return typesystem.Any
	}
	if typesystem.ContainsUnknown(target) {
		return typesystem.Unknown
	}
	w.errorf(diagnostics.ErrT003, sl.Token, "%s is not sliceable", target)
	return typesystem.Unknown
}

func (w *walker) callType(call *ast.Call) typesystem.Type {
	switch fn := call.Func.(type) {
	case *ast.Identifier:
		return w.namedCallType(call, fn)
	case *ast.Attribute:
		if id, ok := fn.Value.(*ast.Identifier); ok && w.resolver.IsModuleAlias(id.Value) {
			w.types[fn.Value] = typesystem.Any
			w.types[fn] = typesystem.Any
			for _, arg := range call.Args {
				w.inferExpr(arg)
			}
			for _, kw := range call.Keywords {
				w.inferExpr(kw.Value)
			}
			res := w.resolver.ResolveModuleCall(id.Value, fn.Attr)
			if w.fn != nil {
				w.fn.HasDelegated = true
			}
			return res.Ret(nil)
		}
		return w.methodCallType(call, fn)
	}
	w.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, call.Token, "unsupported call target"))
	for _, arg := range call.Args {
		w.inferExpr(arg)
	}
	return typesystem.Unknown
}

func (w *walker) namedCallType(call *ast.Call, fn *ast.Identifier) typesystem.Type {
	argTypes := make([]typesystem.Type, len(call.Args))
	for i, arg := range call.Args {
		argTypes[i] = w.inferExpr(arg)
	}
	if sig, ok := w.sigs.Get(fn.Value); ok {
		return w.userCallType(call, sig, argTypes)
	}
	if info, ok := w.structs[fn.Value]; ok {
		return w.constructType(call, info, argTypes)
	}
	if _, isBuiltin := builtinsByName[fn.Value]; isBuiltin {
		return w.builtinCallType(call, fn.Value, argTypes)
	}
	for _, kw := range call.Keywords {
		w.inferExpr(kw.Value)
	}
	if !w.knownImportedName(fn.Value) {
		if _, _, bound := w.scopes.Lookup(fn.Value); bound {
			w.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, call.Token,
				"calling a value is not supported"))
		} else {
			w.errorf(diagnostics.ErrT001, fn.Token, "undefined name %q", fn.Value)
		}
		return typesystem.Unknown
	}
	res := w.resolver.Resolve(fn.Value, argTypes)
	if w.fn != nil {
		w.fn.HasDelegated = true
	}
	return res.Ret(argTypes)
}

func (w *walker) knownImportedName(name string) bool {
	_, ok := w.resolver.imported[name]
	return ok
}

func (w *walker) userCallType(call *ast.Call, sig *FunctionSignature, argTypes []typesystem.Type) typesystem.Type {
	required := 0
	for _, p := range sig.Params {
		if !p.HasDefault {
			required++
		}
	}
	if len(call.Args)+len(call.Keywords) < required || len(call.Args)+len(call.Keywords) > len(sig.Params) {
		w.errorf(diagnostics.ErrT007, call.Token,
			"%s takes %d to %d arguments, got %d", sig.Name, required, len(sig.Params), len(call.Args)+len(call.Keywords))
		return sig.Ret
	}
	// align evidence with declared parameter order
	aligned := make([]typesystem.Type, len(sig.Params))
	for i := range aligned {
		aligned[i] = typesystem.Unknown
	}
	copy(aligned, argTypes)
	for _, kw := range call.Keywords {
		ty := w.inferExpr(kw.Value)
		pos := -1
		for i, p := range sig.Params {
			if p.Name == kw.Name {
				pos = i
				break
			}
		}
		if pos < 0 {
			w.errorf(diagnostics.ErrT007, call.Token, "%s has no parameter %q", sig.Name, kw.Name)
			continue
		}
		if pos < len(call.Args) {
			w.errorf(diagnostics.ErrT007, call.Token, "parameter %q given twice in call to %s", kw.Name, sig.Name)
			continue
		}
		aligned[pos] = ty
	}
	for i, p := range sig.Params {
		if p.Hinted || p.Ambiguous {
			// hints stay authoritative; ambiguous parameters accept anything
			if p.Hinted {
				w.checkAssignable(call.Token, aligned[i], p.Ty, "argument %d of %s", i+1, sig.Name)
			}
		}
	}
	if w.pass == 1 {
		caller := "<entry>"
		if w.fn != nil {
			caller = w.fn.Name
		}
		sig.CallSites = append(sig.CallSites, &CallSite{
			Caller:   caller,
			Tok:      call.Token,
			ArgTypes: aligned,
		})
	} else {
		for i, p := range sig.Params {
			if !p.Hinted && !p.Ambiguous {
				w.checkAssignable(call.Token, aligned[i], p.Ty, "argument %d of %s", i+1, sig.Name)
			}
		}
	}
	return sig.Ret
}

func (w *walker) constructType(call *ast.Call, info *StructInfo, argTypes []typesystem.Type) typesystem.Type {
	if len(call.Args)+len(call.Keywords) != len(info.Fields) {
		w.errorf(diagnostics.ErrT007, call.Token,
			"%s has %d fields, got %d initializers", info.Name, len(info.Fields), len(call.Args)+len(call.Keywords))
	}
	for i, ty := range argTypes {
		if i < len(info.Fields) {
			w.checkAssignable(call.Token, ty, info.Fields[i].Ty, "field %q of %s", info.Fields[i].Name, info.Name)
		}
	}
	for _, kw := range call.Keywords {
		ty := w.inferExpr(kw.Value)
		fieldTy, ok := info.Field(kw.Name)
		if !ok {
			w.errorf(diagnostics.ErrT001, call.Token, "%s has no field %q", info.Name, kw.Name)
			continue
		}
		w.checkAssignable(call.Token, ty, fieldTy, "field %q of %s", kw.Name, info.Name)
	}
	return &typesystem.Named{Name: info.Name}
}

func (w *walker) builtinCallType(call *ast.Call, name string, argTypes []typesystem.Type) typesystem.Type {
	spec := builtinsByName[name]
	if len(call.Keywords) > 0 {
		w.diags.Add(diagnostics.NewError(diagnostics.ErrD001, diagnostics.PhaseDispatch, call.Token,
			"%s does not take keyword arguments", name))
	}
	if len(call.Args) < spec.MinArgs || (spec.MaxArgs >= 0 && len(call.Args) > spec.MaxArgs) {
		w.diags.Add(diagnostics.NewError(diagnostics.ErrD001, diagnostics.PhaseDispatch, call.Token,
			"wrong number of arguments for %s", name))
		return spec.Ret(argTypes)
	}
	res := w.resolver.Resolve(name, argTypes)
	if res.Strategy == ir.DispatchDelegated && w.fn != nil {
		w.fn.HasDelegated = true
	}
	if res.Strategy == ir.DispatchStructural && len(argTypes) > 0 {
		// verify the receiver actually carries the structural form
		recv := argTypes[0]
		structural := typesystem.IsNumeric(recv) || typesystem.Equal(recv, typesystem.String) ||
			typesystem.Equal(recv, typesystem.Any) || typesystem.ContainsUnknown(recv)
		switch recv.(type) {
		case *typesystem.List, *typesystem.Set, *typesystem.Dict, *typesystem.Tuple:
			structural = true
		}
		if !structural {
			w.diags.Add(diagnostics.NewError(diagnostics.ErrD001, diagnostics.PhaseDispatch, call.Token,
				"%s does not apply to %s", name, recv))
		}
	}
	return res.Ret(argTypes)
}

func (w *walker) methodCallType(call *ast.Call, attr *ast.Attribute) typesystem.Type {
	recv := w.inferExpr(attr.Value)
	argTypes := make([]typesystem.Type, len(call.Args))
	for i, arg := range call.Args {
		argTypes[i] = w.inferExpr(arg)
	}
	for _, kw := range call.Keywords {
		w.inferExpr(kw.Value)
	}
	w.types[attr] = typesystem.Any
	if typesystem.ContainsUnknown(recv) {
		return typesystem.Unknown
	}
	res := w.resolver.ResolveMethod(recv, attr.Attr)
	if res.Strategy == ir.DispatchDelegated {
		if w.fn != nil {
			w.fn.HasDelegated = true
		}
		if !typesystem.Equal(recv, typesystem.Any) {
			// a native value with no such structural method cannot cross
			// the boundary either
			w.errorf(diagnostics.ErrT001, call.Token, "%s has no method %q", recv, attr.Attr)
			return typesystem.Unknown
		}
		return res.Ret(argTypes)
	}
	info := lookupMethod(recv, attr.Attr)
	if len(call.Args) < info.MinArgs || (info.MaxArgs >= 0 && len(call.Args) > info.MaxArgs) {
		w.diags.Add(diagnostics.NewError(diagnostics.ErrD001, diagnostics.PhaseDispatch, call.Token,
			"wrong number of arguments for %s.%s", recv, attr.Attr))
	}
	return res.Ret(argTypes)
}
