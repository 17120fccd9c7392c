package rustbe

import (
	"fmt"
	"strings"

	"github.com/pylift/pylift/internal/ir"
	"github.com/pylift/pylift/internal/typesystem"
)

func (r *Renderer) emitNodes(nodes []ir.Node) {
	for _, n := range nodes {
		r.emitNode(n)
	}
}

func (r *Renderer) emitNode(n ir.Node) {
	switch v := n.(type) {
	case *ir.VarDecl:
		r.emitVarDecl(v)
	case *ir.MultiVarDecl:
		r.emitMultiVarDecl(v)
	case *ir.Assign:
		r.line("%s = %s;", snakeCase(v.Target), r.value(v.Value))
	case *ir.IndexAssign:
		r.emitIndexAssign(v)
	case *ir.FieldAssign:
		r.line("%s.%s = %s;", r.place(v.Target), snakeCase(v.Field), r.value(v.Value))
	case *ir.AugAssign:
		r.emitAugAssign(v)
	case *ir.If:
		r.emitIf(v)
	case *ir.While:
		r.line("while %s {", r.expr(v.Cond))
		r.indent++
		r.emitNodes(v.Body)
		r.indent--
		r.line("}")
	case *ir.For:
		r.emitFor(v)
	case *ir.Return:
		r.emitReturn(v)
	case *ir.Break:
		r.line("break;")
	case *ir.Continue:
		r.line("continue;")
	case *ir.Fail:
		r.emitFail(v)
	case *ir.HandlerBlock:
		r.emitHandlerBlock(v)
	case *ir.ExprStmt:
		r.line("%s;", r.expr(v.E))
	}
}

func (r *Renderer) emitVarDecl(v *ir.VarDecl) {
	mut := ""
	if v.Mutable {
		mut = "mut "
	}
	name := snakeCase(v.Name)
	if v.Init == nil {
		r.line("let %s%s: %s;", mut, name, r.rustType(v.Ty))
		return
	}
	r.line("let %s%s: %s = %s;", mut, name, r.rustType(v.Ty), r.value(v.Init))
}

func (r *Renderer) emitMultiVarDecl(v *ir.MultiVarDecl) {
	names := make([]string, len(v.Targets))
	types := make([]string, len(v.Targets))
	for i, t := range v.Targets {
		name := snakeCase(t.Name)
		if t.Mutable {
			name = "mut " + name
		}
		names[i] = name
		types[i] = r.rustType(t.Ty)
	}
	r.line("let (%s): (%s) = %s;", strings.Join(names, ", "), strings.Join(types, ", "), r.value(v.Value))
}

func (r *Renderer) emitIndexAssign(v *ir.IndexAssign) {
	target := r.place(v.Target)
	switch v.Target.Type().(type) {
	case *typesystem.Dict:
		r.line("%s.insert(%s, %s);", target, r.value(v.Index), r.value(v.Value))
	default:
		r.line("%s[%s] = %s;", target, r.indexOf(target, v.Index), r.value(v.Value))
	}
}

func (r *Renderer) emitAugAssign(v *ir.AugAssign) {
	name := snakeCase(v.Target)
	val := r.expr(v.Value)
	switch v.Op {
	case ir.AugPow:
		if typesystem.Equal(v.Value.Type(), typesystem.Float) {
			r.line("%s = %s.powf(%s);", name, name, val)
		} else {
			r.line("%s = %s.pow((%s) as u32);", name, name, val)
		}
	case ir.AugFloorDiv:
		r.line("%s = %s.div_euclid(%s);", name, name, val)
	default:
		r.line("%s %s %s;", name, augOpToken(v.Op), val)
	}
}

func augOpToken(op ir.AugOp) string {
	switch op {
	case ir.AugAdd:
		return "+="
	case ir.AugSub:
		return "-="
	case ir.AugMul:
		return "*="
	case ir.AugDiv:
		return "/="
	case ir.AugMod:
		return "%="
	case ir.AugBitAnd:
		return "&="
	case ir.AugBitOr:
		return "|="
	case ir.AugBitXor:
		return "^="
	case ir.AugShl:
		return "<<="
	case ir.AugShr:
		return ">>="
	}
	return "+="
}

func (r *Renderer) emitIf(v *ir.If) {
	r.line("if %s {", r.expr(v.Cond))
	r.indent++
	r.emitNodes(v.Then)
	r.indent--
	if len(v.Else) == 0 {
		r.line("}")
		return
	}
	// a single nested If is an elif chain
	if len(v.Else) == 1 {
		if elif, ok := v.Else[0].(*ir.If); ok {
			r.linePrefix("} else ")
			r.emitIfTail(elif)
			return
		}
	}
	r.line("} else {")
	r.indent++
	r.emitNodes(v.Else)
	r.indent--
	r.line("}")
}

// emitIfTail prints an if whose "if" keyword was already written.
func (r *Renderer) emitIfTail(v *ir.If) {
	fmt.Fprintf(&r.buf, "if %s {\n", r.expr(v.Cond))
	r.indent++
	r.emitNodes(v.Then)
	r.indent--
	if len(v.Else) == 0 {
		r.line("}")
		return
	}
	if len(v.Else) == 1 {
		if elif, ok := v.Else[0].(*ir.If); ok {
			r.linePrefix("} else ")
			r.emitIfTail(elif)
			return
		}
	}
	r.line("} else {")
	r.indent++
	r.emitNodes(v.Else)
	r.indent--
	r.line("}")
}

func (r *Renderer) linePrefix(s string) {
	for i := 0; i < r.indent; i++ {
		r.buf.WriteString("    ")
	}
	r.buf.WriteString(s)
}

func (r *Renderer) emitFor(v *ir.For) {
	iter := r.iterExpr(v.Iter)
	r.line("for %s in %s {", snakeCase(v.Var), iter)
	r.indent++
	r.emitNodes(v.Body)
	r.indent--
	r.line("}")
}

// iterExpr renders the iteration space of a for loop.
func (r *Renderer) iterExpr(e ir.Expr) string {
	if rng, ok := e.(*ir.RangeExpr); ok {
		return r.rangeIter(rng)
	}
	target := r.place(e)
	switch e.Type().(type) {
	case *typesystem.List:
		return target + ".iter().cloned()"
	case *typesystem.Set:
		return target + ".iter().cloned()"
	case *typesystem.Dict:
		return target + ".keys().cloned()"
	}
	if typesystem.Equal(e.Type(), typesystem.String) {
		return target + ".chars().map(|c| c.to_string())"
	}
	return target + ".iter().cloned()"
}

func (r *Renderer) rangeIter(rng *ir.RangeExpr) string {
	start := "0i64"
	if rng.Start != nil {
		start = r.place(rng.Start)
	}
	stop := r.place(rng.Stop)
	if rng.Step == nil {
		return fmt.Sprintf("(%s)..(%s)", start, stop)
	}
	if lit, ok := rng.Step.(*ir.IntLit); ok {
		switch {
		case lit.Value == 1:
			return fmt.Sprintf("(%s)..(%s)", start, stop)
		case lit.Value > 1:
			return fmt.Sprintf("((%s)..(%s)).step_by(%d)", start, stop, lit.Value)
		case lit.Value == -1:
			return fmt.Sprintf("(((%s) + 1)..((%s) + 1)).rev()", stop, start)
		case lit.Value < -1:
			return fmt.Sprintf("(((%s) + 1)..((%s) + 1)).rev().step_by(%d)", stop, start, -lit.Value)
		}
	}
	// non-literal step: forward iteration
	return fmt.Sprintf("((%s)..(%s)).step_by((%s) as usize)", start, stop, r.place(rng.Step))
}

func (r *Renderer) emitReturn(v *ir.Return) {
	if r.inGuard {
		// inside the guarded closure the real return is deferred
		name := r.retStack[len(r.retStack)-1]
		if v.Value == nil {
			r.line("%s = Some(());", name)
		} else {
			r.line("%s = Some(%s);", name, r.value(v.Value))
		}
		r.line("return Ok(());")
		return
	}
	if v.Value == nil {
		if r.mayFail {
			r.line("return Ok(());")
		} else {
			r.line("return;")
		}
		return
	}
	if r.mayFail {
		r.line("return Ok(%s);", r.value(v.Value))
	} else {
		r.line("return %s;", r.value(v.Value))
	}
}

func (r *Renderer) emitFail(v *ir.Fail) {
	r.usesFailure = true
	if v.Rethrow {
		name := r.failureVar
		if name == "" {
			name = "failure"
		}
		r.line("return Err(%s.clone());", name)
		return
	}
	msg := `""`
	if v.Value.Message != nil {
		msg = fmt.Sprintf("&format!(\"{}\", %s)", r.place(v.Value.Message))
	}
	cause := "None"
	if v.Value.Cause != nil {
		cause = fmt.Sprintf("Some(%s.clone())", r.place(v.Value.Cause))
	}
	r.line("return Err(PyFailure::new(%s, %s, %d, %s));", quoteStr(v.Value.Kind), msg, v.Value.Line, cause)
}

// emitHandlerBlock lowers try/except/else/finally. The guarded block runs
// in a result-returning closure and the outcome is matched against the
// handler kinds; each handler and else body runs in a closure of its own,
// so their returns route through the capture slot and the finally body
// below the match is reached on every exit path.
func (r *Renderer) emitHandlerBlock(v *ir.HandlerBlock) {
	r.usesFailure = true
	capture := nodesReturn(v.Guarded) || nodesReturn(v.Else)
	for i := range v.Handlers {
		capture = capture || nodesReturn(v.Handlers[i].Body)
	}
	retName := ""
	if capture {
		retName = "__ret"
		if d := len(r.retStack); d > 0 {
			retName = fmt.Sprintf("__ret%d", d+1)
		}
		r.retStack = append(r.retStack, retName)
		r.line("let mut %s: Option<%s> = None;", retName, r.rustType(r.fn.Ret))
	}

	oldGuard := r.inGuard
	r.inGuard = true
	r.line("let __outcome = (|| -> Result<(), PyFailure> {")
	r.indent++
	r.emitNodes(v.Guarded)
	r.line("Ok(())")
	r.indent--
	r.line("})();")

	r.line("let __handled: Result<(), PyFailure> = match __outcome {")
	r.indent++

	if len(v.Else) == 0 {
		r.line("Ok(()) => Ok(()),")
	} else {
		r.line("Ok(()) => (|| -> Result<(), PyFailure> {")
		r.indent++
		r.emitNodes(v.Else)
		r.line("Ok(())")
		r.indent--
		r.line("})(),")
	}

	catchAll := false
	for i := range v.Handlers {
		h := &v.Handlers[i]
		if len(h.Kinds) == 0 {
			catchAll = true
			r.line("Err(__failure) => (|| -> Result<(), PyFailure> {")
		} else {
			kinds := make([]string, len(h.Kinds))
			for j, k := range h.Kinds {
				kinds[j] = quoteStr(k)
			}
			r.line("Err(__failure) if matches!(__failure.kind.as_str(), %s) => (|| -> Result<(), PyFailure> {", strings.Join(kinds, " | "))
		}
		r.indent++
		oldVar := r.failureVar
		if h.Bind != "" {
			r.line("let %s = __failure;", snakeCase(h.Bind))
			r.failureVar = snakeCase(h.Bind)
		} else {
			r.failureVar = "__failure"
		}
		r.emitNodes(h.Body)
		r.failureVar = oldVar
		r.line("Ok(())")
		r.indent--
		r.line("})(),")
		if catchAll {
			break
		}
	}

	if !catchAll {
		r.line("Err(__failure) => Err(__failure),")
	}

	r.indent--
	r.line("};")
	r.inGuard = oldGuard
	if capture {
		r.retStack = r.retStack[:len(r.retStack)-1]
	}

	r.emitNodes(v.Finally)

	if r.mayFail || r.inGuard {
		r.line("if let Err(__failure) = __handled { return Err(__failure); }")
	} else {
		r.line("let _ = __handled;")
	}

	if capture {
		switch {
		case r.inGuard:
			outer := r.retStack[len(r.retStack)-1]
			r.line("if let Some(__v) = %s { %s = Some(__v); return Ok(()); }", retName, outer)
		case typesystem.Equal(r.fn.Ret, typesystem.Unit) && r.mayFail:
			r.line("if %s.is_some() { return Ok(()); }", retName)
		case typesystem.Equal(r.fn.Ret, typesystem.Unit):
			r.line("if %s.is_some() { return; }", retName)
		case r.mayFail:
			r.line("if let Some(__v) = %s { return Ok(__v); }", retName)
		default:
			r.line("if let Some(__v) = %s { return __v; }", retName)
		}
	}
}
