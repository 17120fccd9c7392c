package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pylift/pylift/internal/ast"
	"github.com/pylift/pylift/internal/diagnostics"
	"github.com/pylift/pylift/internal/ir"
	"github.com/pylift/pylift/internal/token"
	"github.com/pylift/pylift/internal/typesystem"
)

// lowerer turns the typed syntax tree into the normalized program. All
// dispatch and type decisions were made during inference; lowering reads
// them back and restructures, inserting the explicit conversions and
// optional plumbing the target language wants.
type lowerer struct {
	diags     *diagnostics.Collection
	types     map[ast.Expression]typesystem.Type
	sigs      *SignatureTable
	structs   map[string]*StructInfo
	resolver  *Resolver
	declTypes map[string]typesystem.Type

	fnSig   *FunctionSignature
	env     []map[string]typesystem.Type
	hoisted map[string]typesystem.Type
	tmpN    int

	// loopDepth counts enclosing loops; guardLoops records the loop depth
	// at entry to each guarded region, so a break or continue that would
	// have to jump out of a try block can be rejected.
	loopDepth  int
	guardLoops []int
}

func newLowerer(diags *diagnostics.Collection, types map[ast.Expression]typesystem.Type, sigs *SignatureTable, structs map[string]*StructInfo, resolver *Resolver, declTypes map[string]typesystem.Type) *lowerer {
	return &lowerer{
		diags:     diags,
		types:     types,
		sigs:      sigs,
		structs:   structs,
		resolver:  resolver,
		declTypes: declTypes,
	}
}

func declKey(tok token.Token, name string) string {
	return fmt.Sprintf("%d:%d:%s", tok.Line, tok.Column, name)
}

// Run assembles the whole program: record definitions, every user function,
// and the entry built from the loose module statements.
func (l *lowerer) Run(structOrder []*StructInfo, entry []ast.Statement, entrySig *FunctionSignature, modules []string) *ir.Program {
	prog := &ir.Program{
		DelegatedModules: modules,
		RequiresWorker:   l.resolver.RequiresWorker(),
	}
	for _, info := range structOrder {
		prog.Structs = append(prog.Structs, &ir.StructDef{Name: info.Name, Fields: info.Fields})
	}
	for _, sig := range l.sigs.All() {
		if sig.Def != nil {
			prog.Funcs = append(prog.Funcs, l.lowerFunction(sig))
		}
	}
	prog.Entry = l.lowerEntry(entry, entrySig)
	return prog
}

func (l *lowerer) lowerFunction(sig *FunctionSignature) *ir.FuncDecl {
	decl := &ir.FuncDecl{
		Name:    sig.Name,
		Ret:     sig.Ret,
		MayFail: sig.MayFail,
	}
	l.fnSig = sig
	l.hoisted = sig.Hoisted
	l.pushEnv()
	for _, p := range sig.Params {
		decl.Params = append(decl.Params, ir.Param{Name: p.Name, Ty: p.Ty, Mode: p.Mode, Mutable: p.Mutable})
		l.declare(p.Name, p.Ty)
	}
	for _, name := range sortedNames(sig.Hoisted) {
		inner := sig.Hoisted[name]
		decl.Hoisted = append(decl.Hoisted, &ir.VarDecl{
			Name:    name,
			Ty:      &typesystem.Optional{Inner: inner},
			Mutable: true,
		})
		l.declare(name, &typesystem.Optional{Inner: inner})
	}
	decl.Body = l.lowerStmts(sig.Def.Body)
	l.popEnv()
	l.fnSig = nil
	l.hoisted = nil
	return decl
}

func (l *lowerer) lowerEntry(entry []ast.Statement, entrySig *FunctionSignature) *ir.FuncDecl {
	decl := &ir.FuncDecl{Name: "main", Ret: typesystem.Unit}
	if entrySig != nil {
		decl.MayFail = entrySig.MayFail
		l.fnSig = entrySig
		l.hoisted = entrySig.Hoisted
		for _, name := range sortedNames(entrySig.Hoisted) {
			inner := entrySig.Hoisted[name]
			decl.Hoisted = append(decl.Hoisted, &ir.VarDecl{
				Name:    name,
				Ty:      &typesystem.Optional{Inner: inner},
				Mutable: true,
			})
		}
	}
	l.pushEnv()
	for _, d := range decl.Hoisted {
		l.declare(d.Name, d.Ty)
	}
	decl.Body = l.lowerStmts(entry)
	l.popEnv()
	l.fnSig = nil
	l.hoisted = nil
	return decl
}

func sortedNames(m map[string]typesystem.Type) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *lowerer) pushEnv() { l.env = append(l.env, make(map[string]typesystem.Type)) }
func (l *lowerer) popEnv()  { l.env = l.env[:len(l.env)-1] }

func (l *lowerer) declare(name string, ty typesystem.Type) {
	l.env[len(l.env)-1][name] = ty
}

func (l *lowerer) declaredType(name string) (typesystem.Type, bool) {
	for i := len(l.env) - 1; i >= 0; i-- {
		if ty, ok := l.env[i][name]; ok {
			return ty, true
		}
	}
	return nil, false
}

func (l *lowerer) tmpName() string {
	l.tmpN++
	return fmt.Sprintf("__tmp%d", l.tmpN)
}

func (l *lowerer) exprTy(e ast.Expression) typesystem.Type {
	if ty, ok := l.types[e]; ok && ty != nil {
		return ty
	}
	return typesystem.Unknown
}

func (l *lowerer) isMutable(name string) bool {
	return l.fnSig != nil && l.fnSig.Mutated[name]
}

// coerce inserts the explicit conversions the target wants: Int widening
// into a Float slot, and wrapping a present value into an optional slot.
func coerce(e ir.Expr, want typesystem.Type) ir.Expr {
	if want == nil || typesystem.ContainsUnknown(want) {
		return e
	}
	have := e.Type()
	if typesystem.Equal(want, typesystem.Float) && typesystem.Equal(have, typesystem.Int) {
		return &ir.Convert{Value: e, To: typesystem.Float}
	}
	if opt, ok := want.(*typesystem.Optional); ok {
		if typesystem.Equal(have, typesystem.Unit) {
			return &ir.Convert{Value: e, To: opt}
		}
		if typesystem.Compatible(have, opt.Inner) && !typesystem.Equal(have, want) {
			return &ir.Convert{Value: coerce(e, opt.Inner), To: opt}
		}
	}
	return e
}

// cond lowers a conditional position, making truthiness explicit.
func (l *lowerer) cond(e ast.Expression) ir.Expr {
	lowered := l.lowerExpr(e)
	if typesystem.Equal(lowered.Type(), typesystem.Bool) {
		return lowered
	}
	return &ir.Convert{Value: lowered, To: typesystem.Bool}
}

func (l *lowerer) lowerStmts(stmts []ast.Statement) []ir.Node {
	var out []ir.Node
	for _, s := range stmts {
		out = append(out, l.lowerStmt(s)...)
	}
	return out
}

func (l *lowerer) lowerStmt(stmt ast.Statement) []ir.Node {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		return []ir.Node{&ir.ExprStmt{E: l.lowerExpr(s.Expr)}}
	case *ast.Assign:
		return l.lowerAssign(s)
	case *ast.AugAssign:
		return l.lowerAugAssign(s)
	case *ast.If:
		if isEntryGuard(s) {
			return l.lowerStmts(s.Then)
		}
		return []ir.Node{l.lowerIf(s)}
	case *ast.While:
		l.pushEnv()
		l.loopDepth++
		body := l.lowerStmts(s.Body)
		l.loopDepth--
		l.popEnv()
		return []ir.Node{&ir.While{Cond: l.cond(s.Cond), Body: body}}
	case *ast.For:
		return l.lowerFor(s)
	case *ast.Return:
		return []ir.Node{l.lowerReturn(s)}
	case *ast.Break:
		if l.escapesGuard() {
			l.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseLowering, s.Token,
				"break cannot leave a try block"))
			return nil
		}
		return []ir.Node{&ir.Break{}}
	case *ast.Continue:
		if l.escapesGuard() {
			l.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseLowering, s.Token,
				"continue cannot leave a try block"))
			return nil
		}
		return []ir.Node{&ir.Continue{}}
	case *ast.Pass:
		return nil
	case *ast.Raise:
		return []ir.Node{l.lowerRaise(s)}
	case *ast.Try:
		return []ir.Node{l.lowerTry(s)}
	case *ast.Assert:
		return []ir.Node{l.lowerAssert(s)}
	case *ast.FuncDef, *ast.ClassDef, *ast.Import, *ast.FromImport:
		// handled at program level
		return nil
	}
	return nil
}

// isEntryGuard recognizes `if __name__ == "__main__":` with no other arms.
func isEntryGuard(s *ast.If) bool {
	if len(s.Elifs) > 0 || len(s.Else) > 0 {
		return false
	}
	bin, ok := s.Cond.(*ast.BinaryOp)
	if !ok || bin.Op != "==" {
		return false
	}
	id, lok := bin.Left.(*ast.Identifier)
	lit, rok := bin.Right.(*ast.StringLiteral)
	return lok && rok && id.Value == "__name__" && lit.Value == "__main__"
}

func (l *lowerer) lowerAssign(s *ast.Assign) []ir.Node {
	switch target := s.Target.(type) {
	case *ast.Identifier:
		return []ir.Node{l.lowerIdentAssign(s, target)}
	case *ast.TupleLiteral:
		return l.lowerTupleAssign(s, target)
	case *ast.Attribute:
		val := coerce(l.lowerExpr(s.Value), l.exprTy(target))
		return []ir.Node{&ir.FieldAssign{Target: l.lowerExpr(target.Value), Field: target.Attr, Value: val}}
	case *ast.Index:
		val := coerce(l.lowerExpr(s.Value), l.exprTy(target))
		return []ir.Node{&ir.IndexAssign{
			Target: l.lowerExpr(target.Target),
			Index:  l.lowerExpr(target.Idx),
			Value:  val,
		}}
	}
	return nil
}

func (l *lowerer) lowerIdentAssign(s *ast.Assign, target *ast.Identifier) ir.Node {
	if inner, isHoisted := l.hoistedInner(target.Value); isHoisted {
		val := coerce(l.lowerExpr(s.Value), &typesystem.Optional{Inner: inner})
		return &ir.Assign{Target: target.Value, Value: val}
	}
	if declTy, found := l.declaredType(target.Value); found {
		return &ir.Assign{Target: target.Value, Value: coerce(l.lowerExpr(s.Value), declTy)}
	}
	ty := l.finalDeclType(s.Token, target.Value, s.Value)
	l.declare(target.Value, ty)
	var init ir.Expr
	if s.Value != nil {
		init = coerce(l.lowerExpr(s.Value), ty)
	}
	return &ir.VarDecl{Name: target.Value, Ty: ty, Mutable: l.isMutable(target.Value), Init: init}
}

func (l *lowerer) hoistedInner(name string) (typesystem.Type, bool) {
	if l.hoisted == nil {
		return nil, false
	}
	inner, ok := l.hoisted[name]
	return inner, ok
}

// finalDeclType reads back the type a binding settled on by the end of
// inference, which may be wider than the initializer alone suggests.
func (l *lowerer) finalDeclType(tok token.Token, name string, value ast.Expression) typesystem.Type {
	if ty, ok := l.declTypes[declKey(tok, name)]; ok {
		return ty
	}
	if value != nil {
		return l.exprTy(value)
	}
	return typesystem.Unknown
}

func (l *lowerer) lowerTupleAssign(s *ast.Assign, target *ast.TupleLiteral) []ir.Node {
	value := l.lowerExpr(s.Value)
	allFresh := true
	for _, el := range target.Elements {
		if id, ok := el.(*ast.Identifier); ok {
			if _, found := l.declaredType(id.Value); found {
				allFresh = false
			}
			if _, isHoisted := l.hoistedInner(id.Value); isHoisted {
				allFresh = false
			}
		}
	}
	if allFresh {
		decl := &ir.MultiVarDecl{Value: value}
		for _, el := range target.Elements {
			id, ok := el.(*ast.Identifier)
			if !ok {
				continue
			}
			ty := l.exprTy(el)
			l.declare(id.Value, ty)
			decl.Targets = append(decl.Targets, &ir.VarDecl{Name: id.Value, Ty: ty, Mutable: l.isMutable(id.Value)})
		}
		return []ir.Node{decl}
	}
	// unpack into temporaries first so swaps read the old values
	tmp := &ir.MultiVarDecl{Value: value}
	var follow []ir.Node
	for _, el := range target.Elements {
		id, ok := el.(*ast.Identifier)
		if !ok {
			continue
		}
		ty := l.exprTy(el)
		name := l.tmpName()
		tmp.Targets = append(tmp.Targets, &ir.VarDecl{Name: name, Ty: ty})
		tmpVar := ir.Expr(&ir.Var{Name: name, Ty: ty})
		if inner, isHoisted := l.hoistedInner(id.Value); isHoisted {
			follow = append(follow, &ir.Assign{Target: id.Value, Value: coerce(tmpVar, &typesystem.Optional{Inner: inner})})
			continue
		}
		if declTy, found := l.declaredType(id.Value); found {
			follow = append(follow, &ir.Assign{Target: id.Value, Value: coerce(tmpVar, declTy)})
			continue
		}
		l.declare(id.Value, ty)
		follow = append(follow, &ir.VarDecl{Name: id.Value, Ty: ty, Mutable: l.isMutable(id.Value), Init: tmpVar})
	}
	return append([]ir.Node{tmp}, follow...)
}

func (l *lowerer) lowerAugAssign(s *ast.AugAssign) []ir.Node {
	op, ok := ir.AugOpFor(s.Op)
	if !ok {
		l.diags.Add(diagnostics.NewError(diagnostics.ErrL002, diagnostics.PhaseLowering, s.Token,
			"no lowering for operator %s=", s.Op))
		return nil
	}
	switch target := s.Target.(type) {
	case *ast.Identifier:
		declTy, _ := l.declaredType(target.Value)
		return []ir.Node{&ir.AugAssign{Target: target.Value, Op: op, Value: coerce(l.lowerExpr(s.Value), declTy)}}
	case *ast.Index:
		binOp, _ := ir.BinOpFor(s.Op)
		slot := l.lowerExpr(target)
		return []ir.Node{&ir.IndexAssign{
			Target: l.lowerExpr(target.Target),
			Index:  l.lowerExpr(target.Idx),
			Value: &ir.BinaryExpr{
				Left: slot, Op: binOp, Right: l.lowerExpr(s.Value), Ty: slot.Type(),
			},
		}}
	case *ast.Attribute:
		binOp, _ := ir.BinOpFor(s.Op)
		slot := l.lowerExpr(target)
		return []ir.Node{&ir.FieldAssign{
			Target: l.lowerExpr(target.Value),
			Field:  target.Attr,
			Value: &ir.BinaryExpr{
				Left: slot, Op: binOp, Right: l.lowerExpr(s.Value), Ty: slot.Type(),
			},
		}}
	}
	return nil
}

func (l *lowerer) lowerIf(s *ast.If) *ir.If {
	out := &ir.If{Cond: l.cond(s.Cond)}
	l.pushEnv()
	out.Then = l.lowerStmts(s.Then)
	l.popEnv()
	rest := out
	for i := range s.Elifs {
		next := &ir.If{Cond: l.cond(s.Elifs[i].Cond)}
		l.pushEnv()
		next.Then = l.lowerStmts(s.Elifs[i].Body)
		l.popEnv()
		rest.Else = []ir.Node{next}
		rest = next
	}
	if len(s.Else) > 0 {
		l.pushEnv()
		rest.Else = l.lowerStmts(s.Else)
		l.popEnv()
	}
	return out
}

func (l *lowerer) lowerFor(s *ast.For) []ir.Node {
	iter := l.lowerIterable(s.Iter)
	l.pushEnv()
	defer l.popEnv()
	l.loopDepth++
	defer func() { l.loopDepth-- }()
	switch target := s.Target.(type) {
	case *ast.Identifier:
		ty := l.exprTy(target)
		l.declare(target.Value, ty)
		body := l.lowerStmts(s.Body)
		return []ir.Node{&ir.For{Var: target.Value, VarTy: ty, Iter: iter, Body: body}}
	case *ast.TupleLiteral:
		tmp := l.tmpName()
		elems := make([]typesystem.Type, 0, len(target.Elements))
		destructure := &ir.MultiVarDecl{}
		for _, el := range target.Elements {
			id, ok := el.(*ast.Identifier)
			if !ok {
				continue
			}
			ty := l.exprTy(el)
			elems = append(elems, ty)
			l.declare(id.Value, ty)
			destructure.Targets = append(destructure.Targets, &ir.VarDecl{Name: id.Value, Ty: ty, Mutable: l.isMutable(id.Value)})
		}
		tupleTy := &typesystem.Tuple{Elems: elems}
		destructure.Value = &ir.Var{Name: tmp, Ty: tupleTy}
		body := append([]ir.Node{destructure}, l.lowerStmts(s.Body)...)
		return []ir.Node{&ir.For{Var: tmp, VarTy: tupleTy, Iter: iter, Body: body}}
	}
	return nil
}

// lowerIterable special-cases a direct range() iteration so counted loops
// stay counted instead of materializing a list.
func (l *lowerer) lowerIterable(e ast.Expression) ir.Expr {
	call, ok := e.(*ast.Call)
	if !ok {
		return l.lowerExpr(e)
	}
	id, ok := call.Func.(*ast.Identifier)
	if !ok || id.Value != "range" || len(call.Args) == 0 {
		return l.lowerExpr(e)
	}
	if _, shadowed := l.declaredType("range"); shadowed {
		return l.lowerExpr(e)
	}
	args := make([]ir.Expr, len(call.Args))
	for i, a := range call.Args {
		args[i] = l.lowerExpr(a)
	}
	switch len(args) {
	case 1:
		return &ir.RangeExpr{Start: &ir.IntLit{Value: 0}, Stop: args[0]}
	case 2:
		return &ir.RangeExpr{Start: args[0], Stop: args[1]}
	default:
		return &ir.RangeExpr{Start: args[0], Stop: args[1], Step: args[2]}
	}
}

func (l *lowerer) lowerReturn(s *ast.Return) ir.Node {
	if s.Value == nil {
		return &ir.Return{}
	}
	val := l.lowerExpr(s.Value)
	if l.fnSig != nil {
		val = coerce(val, l.fnSig.Ret)
	}
	return &ir.Return{Value: val}
}

func (l *lowerer) lowerRaise(s *ast.Raise) ir.Node {
	if s.Exc == nil {
		return &ir.Fail{Rethrow: true}
	}
	fe := &ir.FailureExpr{Line: s.Token.Line}
	switch exc := s.Exc.(type) {
	case *ast.Call:
		if id, ok := exc.Func.(*ast.Identifier); ok {
			fe.Kind = id.Value
		}
		if len(exc.Args) > 0 {
			fe.Message = l.lowerExpr(exc.Args[0])
		}
	case *ast.Identifier:
		fe.Kind = exc.Value
	}
	if s.Cause != nil {
		fe.Cause = l.lowerExpr(s.Cause)
	}
	return &ir.Fail{Value: fe}
}

// enterGuard marks the start of a region that renders inside a
// result-returning closure, which a jump to an outer loop cannot cross.
func (l *lowerer) enterGuard() {
	l.guardLoops = append(l.guardLoops, l.loopDepth)
}

func (l *lowerer) exitGuard() {
	l.guardLoops = l.guardLoops[:len(l.guardLoops)-1]
}

// escapesGuard reports whether a break or continue here would target a
// loop outside the nearest guarded region.
func (l *lowerer) escapesGuard() bool {
	return len(l.guardLoops) > 0 && l.loopDepth == l.guardLoops[len(l.guardLoops)-1]
}

func (l *lowerer) lowerTry(s *ast.Try) ir.Node {
	block := &ir.HandlerBlock{}
	l.enterGuard()
	l.pushEnv()
	block.Guarded = l.lowerStmts(s.Body)
	l.popEnv()
	for i := range s.Handlers {
		h := &s.Handlers[i]
		l.pushEnv()
		if h.Name != "" {
			l.declare(h.Name, typesystem.Any)
		}
		block.Handlers = append(block.Handlers, ir.Handler{
			Kinds: h.Kinds,
			Bind:  h.Name,
			Body:  l.lowerStmts(h.Body),
		})
		l.popEnv()
	}
	if len(s.Else) > 0 {
		l.pushEnv()
		block.Else = l.lowerStmts(s.Else)
		l.popEnv()
	}
	l.exitGuard()
	if len(s.Finally) > 0 {
		l.pushEnv()
		block.Finally = l.lowerStmts(s.Finally)
		l.popEnv()
	}
	return block
}

func (l *lowerer) lowerAssert(s *ast.Assert) ir.Node {
	fe := &ir.FailureExpr{Kind: "AssertionError", Line: s.Token.Line}
	if s.Msg != nil {
		fe.Message = l.lowerExpr(s.Msg)
	}
	return &ir.If{
		Cond: &ir.UnaryExpr{Op: ir.OpNot, Operand: l.cond(s.Test), Ty: typesystem.Bool},
		Then: []ir.Node{&ir.Fail{Value: fe}},
	}
}

func (l *lowerer) lowerExpr(e ast.Expression) ir.Expr {
	switch ex := e.(type) {
	case *ast.IntLiteral:
		return &ir.IntLit{Value: ex.Value}
	case *ast.FloatLiteral:
		return &ir.FloatLit{Value: ex.Value}
	case *ast.StringLiteral:
		return &ir.StringLit{Value: ex.Value}
	case *ast.BoolLiteral:
		return &ir.BoolLit{Value: ex.Value}
	case *ast.NoneLiteral:
		return &ir.NoneLit{}
	case *ast.Identifier:
		return l.lowerIdent(ex)
	case *ast.ListLiteral:
		return l.lowerListLit(ex)
	case *ast.SetLiteral:
		return l.lowerSetLit(ex)
	case *ast.TupleLiteral:
		elems := make([]ir.Expr, len(ex.Elements))
		for i, el := range ex.Elements {
			elems[i] = l.lowerExpr(el)
		}
		return &ir.TupleLit{Elements: elems, Ty: l.exprTy(ex)}
	case *ast.DictLiteral:
		return l.lowerDictLit(ex)
	case *ast.BinaryOp:
		return l.lowerBinary(ex)
	case *ast.UnaryOp:
		return l.lowerUnary(ex)
	case *ast.IfExp:
		ty := l.exprTy(ex)
		return &ir.IfExpr{
			Cond: l.cond(ex.Cond),
			Then: coerce(l.lowerExpr(ex.Then), ty),
			Else: coerce(l.lowerExpr(ex.Else), ty),
			Ty:   ty,
		}
	case *ast.Attribute:
		if id, ok := ex.Value.(*ast.Identifier); ok && l.resolver.IsModuleAlias(id.Value) {
			module, target := l.resolver.ResolveModuleAttr(id.Value, ex.Attr)
			return &ir.BridgeCall{Module: module, Target: target, Fetch: true, Ty: l.exprTy(ex)}
		}
		return &ir.FieldAccess{Target: l.lowerExpr(ex.Value), Field: ex.Attr, Ty: l.exprTy(ex)}
	case *ast.Index:
		target := l.lowerExpr(ex.Target)
		index := l.lowerExpr(ex.Idx)
		if d, ok := target.Type().(*typesystem.Dict); ok {
			index = coerce(index, d.Key)
		}
		return &ir.IndexExpr{Target: target, Index: index, Ty: l.exprTy(ex)}
	case *ast.Slice:
		return l.lowerSlice(ex)
	case *ast.Call:
		return l.lowerCall(ex)
	}
	l.diags.Add(diagnostics.NewError(diagnostics.ErrL002, diagnostics.PhaseLowering, e.GetToken(),
		"no lowering for expression"))
	return &ir.NoneLit{}
}

func (l *lowerer) lowerIdent(id *ast.Identifier) ir.Expr {
	useTy := l.exprTy(id)
	if inner, isHoisted := l.hoistedInner(id.Value); isHoisted {
		optTy := &typesystem.Optional{Inner: inner}
		return &ir.Unwrap{Value: &ir.Var{Name: id.Value, Ty: optTy}, Ty: inner}
	}
	if declTy, found := l.declaredType(id.Value); found {
		if opt, ok := declTy.(*typesystem.Optional); ok && typesystem.Equal(useTy, opt.Inner) {
			// narrowed read: inference proved the value present here
			return &ir.Unwrap{Value: &ir.Var{Name: id.Value, Ty: declTy}, Ty: opt.Inner}
		}
		return &ir.Var{Name: id.Value, Ty: declTy}
	}
	return &ir.Var{Name: id.Value, Ty: useTy}
}

func (l *lowerer) lowerListLit(ex *ast.ListLiteral) ir.Expr {
	elemTy := typesystem.Unknown
	if lt, ok := l.exprTy(ex).(*typesystem.List); ok {
		elemTy = lt.Elem
	}
	elems := make([]ir.Expr, len(ex.Elements))
	for i, el := range ex.Elements {
		elems[i] = coerce(l.lowerExpr(el), elemTy)
	}
	return &ir.ListLit{Elem: elemTy, Elements: elems}
}

func (l *lowerer) lowerSetLit(ex *ast.SetLiteral) ir.Expr {
	elemTy := typesystem.Unknown
	if st, ok := l.exprTy(ex).(*typesystem.Set); ok {
		elemTy = st.Elem
	}
	elems := make([]ir.Expr, len(ex.Elements))
	for i, el := range ex.Elements {
		elems[i] = coerce(l.lowerExpr(el), elemTy)
	}
	return &ir.SetLit{Elem: elemTy, Elements: elems}
}

func (l *lowerer) lowerDictLit(ex *ast.DictLiteral) ir.Expr {
	keyTy, valTy := typesystem.Unknown, typesystem.Unknown
	if dt, ok := l.exprTy(ex).(*typesystem.Dict); ok {
		keyTy, valTy = dt.Key, dt.Value
	}
	out := &ir.DictLit{Key: keyTy, Value: valTy}
	for _, k := range ex.Keys {
		out.Keys = append(out.Keys, coerce(l.lowerExpr(k), keyTy))
	}
	for _, v := range ex.Values {
		out.Values = append(out.Values, coerce(l.lowerExpr(v), valTy))
	}
	return out
}

func (l *lowerer) lowerBinary(ex *ast.BinaryOp) ir.Expr {
	op, ok := ir.BinOpFor(ex.Op)
	if !ok {
		l.diags.Add(diagnostics.NewError(diagnostics.ErrL002, diagnostics.PhaseLowering, ex.Token,
			"no lowering for operator %q", ex.Op))
		return &ir.NoneLit{}
	}
	left := l.lowerExpr(ex.Left)
	right := l.lowerExpr(ex.Right)
	ty := l.exprTy(ex)
	switch op {
	case ir.OpAnd, ir.OpOr:
		if !typesystem.Equal(left.Type(), typesystem.Bool) {
			left = &ir.Convert{Value: left, To: typesystem.Bool}
		}
		if !typesystem.Equal(right.Type(), typesystem.Bool) {
			right = &ir.Convert{Value: right, To: typesystem.Bool}
		}
	case ir.OpIs, ir.OpIsNot, ir.OpContains, ir.OpNotContains:
		// structural forms; no conversion
	default:
		// mixed Int/Float arithmetic and comparison widen the Int side
		if typesystem.Equal(left.Type(), typesystem.Int) && typesystem.Equal(right.Type(), typesystem.Float) {
			left = &ir.Convert{Value: left, To: typesystem.Float}
		}
		if typesystem.Equal(right.Type(), typesystem.Int) && typesystem.Equal(left.Type(), typesystem.Float) {
			right = &ir.Convert{Value: right, To: typesystem.Float}
		}
	}
	return &ir.BinaryExpr{Left: left, Op: op, Right: right, Ty: ty}
}

func (l *lowerer) lowerUnary(ex *ast.UnaryOp) ir.Expr {
	op, ok := ir.UnaryOpFor(ex.Op)
	if !ok {
		l.diags.Add(diagnostics.NewError(diagnostics.ErrL002, diagnostics.PhaseLowering, ex.Token,
			"no lowering for operator %q", ex.Op))
		return &ir.NoneLit{}
	}
	operand := l.lowerExpr(ex.Operand)
	if op == ir.OpNot && !typesystem.Equal(operand.Type(), typesystem.Bool) {
		operand = &ir.Convert{Value: operand, To: typesystem.Bool}
	}
	return &ir.UnaryExpr{Op: op, Operand: operand, Ty: l.exprTy(ex)}
}

func (l *lowerer) lowerSlice(ex *ast.Slice) ir.Expr {
	ty := l.exprTy(ex)
	if unitStep(ex.Step) {
		out := &ir.SliceExpr{Target: l.lowerExpr(ex.Target), Ty: ty}
		if ex.Low != nil {
			out.Low = l.lowerExpr(ex.Low)
		}
		if ex.High != nil {
			out.High = l.lowerExpr(ex.High)
		}
		return out
	}
	return l.rawSlice(ex, ty)
}

func unitStep(step ast.Expression) bool {
	if step == nil {
		return true
	}
	lit, ok := step.(*ast.IntLiteral)
	return ok && lit.Value == 1
}

// rawSlice lowers a slice with a reversing or striding step. This is the
// one construct that leaves the structural vocabulary; it only accepts a
// plain name with literal bounds so the emitted fragment stays inspectable.
func (l *lowerer) rawSlice(ex *ast.Slice, ty typesystem.Type) ir.Expr {
	id, ok := ex.Target.(*ast.Identifier)
	if !ok {
		l.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseLowering, ex.Token,
			"a slice with a step needs a plain name as its target"))
		return &ir.NoneLit{}
	}
	step, ok := literalInt(ex.Step)
	if !ok || step == 0 {
		l.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseLowering, ex.Token,
			"slice step must be a nonzero integer literal"))
		return &ir.NoneLit{}
	}
	low, hasLow, lowOK := optionalLiteralInt(ex.Low)
	high, hasHigh, highOK := optionalLiteralInt(ex.High)
	if !lowOK || !highOK {
		l.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseLowering, ex.Token,
			"slice bounds with a step must be integer literals"))
		return &ir.NoneLit{}
	}
	// A downward slice walks from low to the element after high, so the
	// Rust range covers that span and the iterator reverses it.
	var start, end string
	switch {
	case step > 0:
		if hasLow {
			start = fmt.Sprintf("%d", low)
		}
		if hasHigh {
			end = fmt.Sprintf("%d", high)
		}
	case hasLow && hasHigh && low <= high:
		start, end = "0", "0"
	default:
		if hasHigh {
			start = fmt.Sprintf("%d", high+1)
		}
		if hasLow {
			end = fmt.Sprintf("%d", low+1)
		}
	}
	base := id.Value
	if start != "" || end != "" {
		base = fmt.Sprintf("%s[%s..%s]", id.Value, start, end)
	} else if _, isList := ty.(*typesystem.List); isList {
		base = id.Value + "[..]"
	}
	isString := typesystem.Equal(ty, typesystem.String)
	var b strings.Builder
	b.WriteString(base)
	if isString {
		b.WriteString(".chars()")
	} else {
		b.WriteString(".iter()")
	}
	if step < 0 {
		b.WriteString(".rev()")
	}
	if step != 1 && step != -1 {
		n := step
		if n < 0 {
			n = -n
		}
		fmt.Fprintf(&b, ".step_by(%d)", n)
	}
	if isString {
		b.WriteString(".collect::<String>()")
	} else {
		b.WriteString(".cloned().collect::<Vec<_>>()")
	}
	return &ir.RawFragment{Text: b.String(), Ty: ty}
}

func literalInt(e ast.Expression) (int64, bool) {
	switch v := e.(type) {
	case *ast.IntLiteral:
		return v.Value, true
	case *ast.UnaryOp:
		if v.Op == "-" {
			if lit, ok := v.Operand.(*ast.IntLiteral); ok {
				return -lit.Value, true
			}
		}
	}
	return 0, false
}

func optionalLiteralInt(e ast.Expression) (n int64, present, ok bool) {
	if e == nil {
		return 0, false, true
	}
	n, ok = literalInt(e)
	if !ok || n < 0 {
		return 0, false, false
	}
	return n, true, true
}
