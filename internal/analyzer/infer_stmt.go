package analyzer

import (
	"github.com/pylift/pylift/internal/ast"
	"github.com/pylift/pylift/internal/diagnostics"
	"github.com/pylift/pylift/internal/typesystem"
)

func (w *walker) inferStmts(stmts []ast.Statement) {
	for _, s := range stmts {
		w.inferStmt(s)
	}
}

func (w *walker) inferBlock(stmts []ast.Statement) {
	w.scopes.EnterBlock()
	w.inferStmts(stmts)
	w.scopes.Exit()
}

func (w *walker) inferStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		w.inferExpr(s.Expr)
	case *ast.Assign:
		w.inferAssign(s)
	case *ast.AugAssign:
		w.inferAugAssign(s)
	case *ast.If:
		w.inferIf(s)
	case *ast.While:
		w.inferExpr(s.Cond)
		w.loopDepth++
		w.inferBlock(s.Body)
		w.loopDepth--
	case *ast.For:
		w.inferFor(s)
	case *ast.Return:
		w.inferReturn(s)
	case *ast.Break, *ast.Continue:
		if w.loopDepth == 0 {
			w.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, stmt.GetToken(),
				"%s outside a loop", stmt.GetToken().Lexeme))
		}
	case *ast.Pass:
	case *ast.Raise:
		w.inferRaise(s)
	case *ast.Try:
		w.inferTry(s)
	case *ast.Assert:
		w.inferExpr(s.Test)
		if s.Msg != nil {
			w.inferExpr(s.Msg)
		}
	case *ast.FuncDef:
		if w.fn != nil {
			w.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, s.Token,
				"nested function definitions are not supported"))
		}
	case *ast.ClassDef:
		if w.fn != nil {
			w.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, s.Token,
				"nested class definitions are not supported"))
		}
	case *ast.Import, *ast.FromImport:
		if w.fn != nil {
			w.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, stmt.GetToken(),
				"imports inside a function are not supported"))
		}
	case *ast.Unsupported:
		w.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, s.Token,
			"unsupported construct: %s", s.What))
	default:
		w.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, stmt.GetToken(),
			"unsupported statement"))
	}
}

func (w *walker) inferAssign(s *ast.Assign) {
	var valTy typesystem.Type
	if s.Value != nil {
		valTy = w.inferExpr(s.Value)
	}
	switch target := s.Target.(type) {
	case *ast.Identifier:
		w.assignIdent(s, target, valTy)
	case *ast.TupleLiteral:
		w.assignTuple(s, target, valTy)
	case *ast.Attribute:
		fieldTy := w.inferExpr(target)
		if s.Value != nil {
			w.checkAssignable(s.Token, valTy, fieldTy, "assignment to %s.%s", exprName(target.Value), target.Attr)
		}
	case *ast.Index:
		slotTy := w.inferExpr(target)
		if s.Value != nil {
			w.checkAssignable(s.Token, valTy, slotTy, "assignment through index")
		}
	default:
		w.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, s.Token,
			"unsupported assignment target"))
	}
}

func exprName(e ast.Expression) string {
	if id, ok := e.(*ast.Identifier); ok {
		return id.Value
	}
	return "value"
}

func (w *walker) assignIdent(s *ast.Assign, target *ast.Identifier, valTy typesystem.Type) {
	var hintTy typesystem.Type
	if s.Hint != nil {
		hintTy = typeFromHint(s.Hint)
	}
	if b, _, found := w.scopes.Lookup(target.Value); found {
		if b.IsParam && w.fn != nil {
			w.fn.Mutated[target.Value] = true
		}
		sameSite := b.DeclTok.Line == s.Token.Line && b.DeclTok.Column == s.Token.Column
		if !sameSite {
			b.Reassigned = true
		}
		w.scopes.ClearNarrowAll(target.Value)
		if s.Hint != nil && !sameSite {
			w.errorf(diagnostics.ErrT002, s.Token,
				"%q is already declared; annotate only the first assignment", target.Value)
		}
		if valTy == nil {
			return
		}
		if b.Hinted {
			w.checkAssignable(s.Token, valTy, b.Ty, "assignment to %q", target.Value)
			return
		}
		if sameSite {
			// revisiting the declaration in a later pass: the initializer
			// decides afresh, later assignments re-widen as needed
			b.Ty = valTy
			return
		}
		merged, ok := typesystem.Unify(b.Ty, valTy)
		if !ok {
			// Int/Float mixing across assignments widens rather than
			// conflicts; everything else is a genuine type change
			if bothNumeric(b.Ty, valTy) {
				b.Ty = typesystem.Float
				return
			}
			w.errorf(diagnostics.ErrT003, s.Token,
				"%q changes type from %s to %s", target.Value, b.Ty, valTy)
			return
		}
		b.Ty = merged
		return
	}
	// a name that went out of scope with a branch or loop and is assigned
	// again rejoins its hoisted slot
	if prev, ok := w.scopes.LookupExited(target.Value); ok && w.fn != nil {
		if _, hoisted := w.fn.Hoisted[target.Value]; hoisted {
			b, _ := w.declareInFunctionScope(target.Value, prev.Ty, prev.DeclTok)
			b.Reassigned = true
			if valTy != nil {
				if merged, mok := typesystem.Unify(b.Ty, valTy); mok {
					b.Ty = merged
				}
			}
			return
		}
	}
	declTy := valTy
	if hintTy != nil {
		declTy = hintTy
		if valTy != nil {
			w.checkAssignable(s.Token, valTy, hintTy, "initializer for %q", target.Value)
		}
	}
	if declTy == nil {
		declTy = typesystem.Unknown
	}
	b, fresh := w.scopes.Declare(target.Value, declTy, false, s.Token)
	if !fresh {
		w.errorf(diagnostics.ErrT002, s.Token, "%q is declared twice in the same scope", target.Value)
		return
	}
	b.Hinted = hintTy != nil
}

func (w *walker) assignTuple(s *ast.Assign, target *ast.TupleLiteral, valTy typesystem.Type) {
	elemTypes := make([]typesystem.Type, len(target.Elements))
	switch vt := valTy.(type) {
	case *typesystem.Tuple:
		if len(vt.Elems) != len(target.Elements) {
			w.errorf(diagnostics.ErrT003, s.Token,
				"cannot unpack %d values into %d targets", len(vt.Elems), len(target.Elements))
			for i := range elemTypes {
				elemTypes[i] = typesystem.Unknown
			}
			break
		}
		copy(elemTypes, vt.Elems)
	case *typesystem.List:
		for i := range elemTypes {
			elemTypes[i] = vt.Elem
		}
	default:
		if typesystem.Equal(valTy, typesystem.Any) {
			for i := range elemTypes {
				elemTypes[i] = typesystem.Any
			}
			break
		}
		if valTy != nil && !typesystem.ContainsUnknown(valTy) {
			w.errorf(diagnostics.ErrT003, s.Token, "cannot unpack %s", valTy)
		}
		for i := range elemTypes {
			elemTypes[i] = typesystem.Unknown
		}
	}
	for i, el := range target.Elements {
		id, ok := el.(*ast.Identifier)
		if !ok {
			w.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, el.GetToken(),
				"unpacking targets must be plain names"))
			continue
		}
		w.types[el] = elemTypes[i]
		if b, _, found := w.scopes.Lookup(id.Value); found {
			b.Reassigned = true
			w.scopes.ClearNarrowAll(id.Value)
			if merged, mok := typesystem.Unify(b.Ty, elemTypes[i]); mok {
				b.Ty = merged
			} else {
				w.errorf(diagnostics.ErrT003, s.Token,
					"%q changes type from %s to %s", id.Value, b.Ty, elemTypes[i])
			}
			continue
		}
		w.scopes.Declare(id.Value, elemTypes[i], false, s.Token)
	}
}

func (w *walker) inferAugAssign(s *ast.AugAssign) {
	valTy := w.inferExpr(s.Value)
	switch target := s.Target.(type) {
	case *ast.Identifier:
		b, ty, found := w.scopes.Lookup(target.Value)
		if !found {
			w.errorf(diagnostics.ErrT001, target.Token, "undefined name %q", target.Value)
			return
		}
		w.types[target] = ty
		b.Reassigned = true
		if b.IsParam && w.fn != nil {
			w.fn.Mutated[target.Value] = true
		}
		w.checkAugOperands(s, ty, valTy)
	case *ast.Index:
		slotTy := w.inferExpr(target)
		w.checkAugOperands(s, slotTy, valTy)
	case *ast.Attribute:
		fieldTy := w.inferExpr(target)
		w.checkAugOperands(s, fieldTy, valTy)
	default:
		w.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, s.Token,
			"unsupported augmented assignment target"))
	}
}

func (w *walker) checkAugOperands(s *ast.AugAssign, slot, val typesystem.Type) {
	if typesystem.Equal(slot, typesystem.Any) || typesystem.ContainsUnknown(slot) {
		return
	}
	switch s.Op {
	case "+":
		if typesystem.Equal(slot, typesystem.String) {
			w.checkAssignable(s.Token, val, typesystem.String, "augmented assignment")
			return
		}
		if l, ok := slot.(*typesystem.List); ok {
			w.checkAssignable(s.Token, val, l, "augmented assignment")
			return
		}
	case "*":
		if typesystem.Equal(slot, typesystem.String) {
			w.checkAssignable(s.Token, val, typesystem.Int, "augmented assignment")
			return
		}
	case "&", "|", "^", "<<", ">>":
		w.checkAssignable(s.Token, slot, typesystem.Int, "augmented assignment")
		w.checkAssignable(s.Token, val, typesystem.Int, "augmented assignment")
		return
	}
	if !typesystem.IsNumeric(slot) {
		w.errorf(diagnostics.ErrT003, s.Token, "operator %s= does not apply to %s", s.Op, slot)
		return
	}
	if !typesystem.IsNumeric(val) && !typesystem.Equal(val, typesystem.Any) && !typesystem.ContainsUnknown(val) {
		w.errorf(diagnostics.ErrT003, s.Token, "operator %s= does not apply to %s", s.Op, val)
		return
	}
	// the slot keeps its type: Int += Float would narrow on store
	if typesystem.Equal(slot, typesystem.Int) && typesystem.Equal(val, typesystem.Float) {
		w.checkAssignable(s.Token, val, slot, "augmented assignment")
	}
}

// narrowFact is a sentinel-comparison fact extracted from a condition:
// inside the branch where the condition holds, name has whenTrue's type;
// where it fails, whenFalse's.
type narrowFact struct {
	name      string
	whenTrue  typesystem.Type
	whenFalse typesystem.Type
}

// noneCheck recognizes `x is None`, `x is not None`, `x == None` and
// `x != None` over an Optional binding, in either operand order.
func (w *walker) noneCheck(cond ast.Expression) *narrowFact {
	bin, ok := cond.(*ast.BinaryOp)
	if !ok {
		return nil
	}
	var id *ast.Identifier
	if lid, lok := bin.Left.(*ast.Identifier); lok {
		if _, rok := bin.Right.(*ast.NoneLiteral); rok {
			id = lid
		}
	}
	if id == nil {
		if rid, rok := bin.Right.(*ast.Identifier); rok {
			if _, lok := bin.Left.(*ast.NoneLiteral); lok {
				id = rid
			}
		}
	}
	if id == nil {
		return nil
	}
	_, ty, found := w.scopes.Lookup(id.Value)
	if !found {
		return nil
	}
	opt, isOpt := ty.(*typesystem.Optional)
	if !isOpt {
		return nil
	}
	switch bin.Op {
	case "is", "==":
		return &narrowFact{name: id.Value, whenFalse: opt.Inner}
	case "is not", "!=":
		return &narrowFact{name: id.Value, whenTrue: opt.Inner}
	}
	return nil
}

func (w *walker) inferIf(s *ast.If) {
	if w.isMainGuard(s) {
		w.inferStmts(s.Then)
		return
	}
	w.inferExpr(s.Cond)
	fact := w.noneCheck(s.Cond)
	w.narrowedBlock(s.Then, fact, true)
	for i := range s.Elifs {
		w.inferExpr(s.Elifs[i].Cond)
		elifFact := w.noneCheck(s.Elifs[i].Cond)
		w.narrowedBlock(s.Elifs[i].Body, elifFact, true)
	}
	if len(s.Else) > 0 {
		w.narrowedBlock(s.Else, fact, false)
	}
}

func (w *walker) narrowedBlock(body []ast.Statement, fact *narrowFact, branchTaken bool) {
	w.scopes.EnterBlock()
	if fact != nil {
		ty := fact.whenTrue
		if !branchTaken {
			ty = fact.whenFalse
		}
		if ty != nil {
			w.scopes.Narrow(fact.name, ty)
		}
	}
	w.inferStmts(body)
	w.scopes.Exit()
}

// isMainGuard recognizes the conventional entry guard; its body joins the
// loose module statements instead of lowering as a conditional.
func (w *walker) isMainGuard(s *ast.If) bool {
	if w.fn != nil || len(s.Elifs) > 0 || len(s.Else) > 0 {
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

func (w *walker) inferFor(s *ast.For) {
	iterTy := w.inferExpr(s.Iter)
	elemTy := iterElem(iterTy)
	if elemTy == nil {
		w.errorf(diagnostics.ErrT003, s.Token, "%s is not iterable", iterTy)
		elemTy = typesystem.Unknown
	}
	w.loopDepth++
	w.scopes.EnterBlock()
	switch target := s.Target.(type) {
	case *ast.Identifier:
		w.types[target] = elemTy
		w.scopes.Declare(target.Value, elemTy, false, s.Token)
	case *ast.TupleLiteral:
		elems := make([]typesystem.Type, len(target.Elements))
		if tup, ok := elemTy.(*typesystem.Tuple); ok && len(tup.Elems) == len(target.Elements) {
			copy(elems, tup.Elems)
		} else if typesystem.Equal(elemTy, typesystem.Any) {
			for i := range elems {
				elems[i] = typesystem.Any
			}
		} else {
			if !typesystem.ContainsUnknown(elemTy) {
				w.errorf(diagnostics.ErrT003, s.Token, "cannot unpack %s in loop", elemTy)
			}
			for i := range elems {
				elems[i] = typesystem.Unknown
			}
		}
		for i, el := range target.Elements {
			if id, ok := el.(*ast.Identifier); ok {
				w.types[el] = elems[i]
				w.scopes.Declare(id.Value, elems[i], false, s.Token)
			} else {
				w.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, el.GetToken(),
					"loop targets must be plain names"))
			}
		}
	default:
		w.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, s.Token,
			"unsupported loop target"))
	}
	w.inferStmts(s.Body)
	w.scopes.Exit()
	w.loopDepth--
}

// iterElem gives the element type produced by iterating t, or nil when t
// does not iterate.
func iterElem(t typesystem.Type) typesystem.Type {
	switch tt := t.(type) {
	case *typesystem.List:
		return tt.Elem
	case *typesystem.Set:
		return tt.Elem
	case *typesystem.Dict:
		return tt.Key
	case *typesystem.Tuple:
		merged := typesystem.Unknown
		for _, e := range tt.Elems {
			next, ok := typesystem.Unify(merged, e)
			if !ok {
				return nil
			}
			merged = next
		}
		return merged
	}
	if typesystem.Equal(t, typesystem.String) {
		return typesystem.String
	}
	if typesystem.Equal(t, typesystem.Any) {
		return typesystem.Any
	}
	if typesystem.ContainsUnknown(t) {
		return typesystem.Unknown
	}
	return nil
}

func (w *walker) inferReturn(s *ast.Return) {
	ty := typesystem.Unit
	if s.Value != nil {
		ty = w.inferExpr(s.Value)
	}
	if w.fn == nil {
		w.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, s.Token,
			"return outside a function"))
		return
	}
	if w.fn.RetHinted {
		w.checkAssignable(s.Token, ty, w.fn.Ret, "return value of %s", w.fn.Name)
		return
	}
	w.retTypes = append(w.retTypes, ty)
	w.retToks = append(w.retToks, s.Token)
}

func (w *walker) inferRaise(s *ast.Raise) {
	if w.fn != nil {
		w.fn.HasRaise = true
	}
	if s.Exc == nil {
		// bare re-raise; placement is checked by the failure analysis
		return
	}
	// the raised expression is a failure constructor, not an ordinary call
	switch exc := s.Exc.(type) {
	case *ast.Call:
		if _, ok := exc.Func.(*ast.Identifier); !ok {
			w.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, s.Token,
				"raise needs a named failure kind"))
			break
		}
		for _, arg := range exc.Args {
			w.inferExpr(arg)
		}
	case *ast.Identifier:
	default:
		w.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, s.Token,
			"raise needs a named failure kind"))
	}
	if s.Cause != nil {
		w.inferExpr(s.Cause)
	}
}

func (w *walker) inferTry(s *ast.Try) {
	w.inferBlock(s.Body)
	for i := range s.Handlers {
		h := &s.Handlers[i]
		w.scopes.EnterBlock()
		if h.Name != "" {
			w.scopes.Declare(h.Name, typesystem.Any, false, h.Token)
		}
		w.inferStmts(h.Body)
		w.scopes.Exit()
	}
	if len(s.Else) > 0 {
		w.inferBlock(s.Else)
	}
	if len(s.Finally) > 0 {
		w.inferBlock(s.Finally)
	}
}
