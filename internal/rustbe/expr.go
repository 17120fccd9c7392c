package rustbe

import (
	"fmt"
	"strings"

	"github.com/pylift/pylift/internal/ir"
	"github.com/pylift/pylift/internal/typesystem"
)

// expr renders e for an operand position: readable, not necessarily owned.
func (r *Renderer) expr(e ir.Expr) string {
	switch v := e.(type) {
	case *ir.IntLit:
		return intLit(v.Value)
	case *ir.FloatLit:
		return floatLit(v.Value)
	case *ir.StringLit:
		return quoteStr(v.Value)
	case *ir.BoolLit:
		if v.Value {
			return "true"
		}
		return "false"
	case *ir.NoneLit:
		return "None"
	case *ir.Var:
		return snakeCase(v.Name)
	case *ir.FieldAccess:
		return r.place(v.Target) + "." + snakeCase(v.Field)
	case *ir.BinaryExpr:
		return r.binary(v)
	case *ir.UnaryExpr:
		return r.unary(v)
	case *ir.Call:
		return r.call(v)
	case *ir.MethodCall:
		return r.methodCall(v)
	case *ir.BridgeCall:
		return r.bridgeCall(v)
	case *ir.ListLit:
		return r.listLit(v)
	case *ir.TupleLit:
		parts := make([]string, len(v.Elements))
		for i, el := range v.Elements {
			parts[i] = r.value(el)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *ir.DictLit:
		return r.dictLit(v)
	case *ir.SetLit:
		return r.setLit(v)
	case *ir.StructLit:
		return r.structLit(v)
	case *ir.IndexExpr:
		return r.indexExpr(v)
	case *ir.SliceExpr:
		return r.sliceExpr(v)
	case *ir.RangeExpr:
		return "(" + r.rangeIter(v) + ").collect::<Vec<i64>>()"
	case *ir.Convert:
		return r.convert(v)
	case *ir.IfExpr:
		return fmt.Sprintf("if %s { %s } else { %s }", r.expr(v.Cond), r.value(v.Then), r.value(v.Else))
	case *ir.Unwrap:
		return r.unwrap(v)
	case *ir.RawFragment:
		return v.Text
	}
	return "()"
}

// place renders e for a receiver or assignment-target position; it never
// clones and never converts.
func (r *Renderer) place(e ir.Expr) string {
	switch v := e.(type) {
	case *ir.Var:
		return snakeCase(v.Name)
	case *ir.FieldAccess:
		return r.place(v.Target) + "." + snakeCase(v.Field)
	case *ir.IntLit, *ir.FloatLit, *ir.StringLit, *ir.BoolLit:
		return r.expr(e)
	}
	return "(" + r.expr(e) + ")"
}

// value renders e for an owned position: non-copy reads clone, borrowed
// parameter names rebuild owned values, string literals become String.
func (r *Renderer) value(e ir.Expr) string {
	switch v := e.(type) {
	case *ir.Var:
		if isCopyType(v.Ty) {
			return snakeCase(v.Name)
		}
		switch r.forms[v.Name] {
		case formSlice:
			return snakeCase(v.Name) + ".to_vec()"
		case formStr:
			return snakeCase(v.Name) + ".to_string()"
		}
		return snakeCase(v.Name) + ".clone()"
	case *ir.FieldAccess:
		if isCopyType(v.Ty) {
			return r.expr(e)
		}
		return r.expr(e) + ".clone()"
	case *ir.StringLit:
		return quoteStr(v.Value) + ".to_string()"
	}
	return r.expr(e)
}

// operand wraps compound subexpressions in parentheses.
func (r *Renderer) operand(e ir.Expr) string {
	switch e.(type) {
	case *ir.IntLit, *ir.FloatLit, *ir.StringLit, *ir.BoolLit, *ir.Var:
		return r.expr(e)
	}
	return "(" + r.expr(e) + ")"
}

func (r *Renderer) binary(v *ir.BinaryExpr) string {
	left := r.operand(v.Left)
	right := r.operand(v.Right)
	switch v.Op {
	case ir.OpAdd:
		if typesystem.Equal(v.Ty, typesystem.String) {
			return fmt.Sprintf("format!(\"{}{}\", %s, %s)", left, right)
		}
		if _, ok := v.Ty.(*typesystem.List); ok {
			return fmt.Sprintf("%s.iter().chain(%s.iter()).cloned().collect::<Vec<_>>()", left, right)
		}
		return left + " + " + right
	case ir.OpSub:
		return left + " - " + right
	case ir.OpMul:
		if seq, other := sequenceSide(v); seq != nil {
			return fmt.Sprintf("%s.repeat((%s) as usize)", r.operand(seq), r.expr(other))
		}
		return left + " * " + right
	case ir.OpDiv:
		return left + " / " + right
	case ir.OpFloorDiv:
		return left + ".div_euclid(" + r.expr(v.Right) + ")"
	case ir.OpMod:
		return left + " % " + right
	case ir.OpPow:
		if typesystem.Equal(v.Ty, typesystem.Float) {
			return left + ".powf(" + r.expr(v.Right) + ")"
		}
		return left + ".pow((" + r.expr(v.Right) + ") as u32)"
	case ir.OpEq:
		return left + " == " + right
	case ir.OpNotEq:
		return left + " != " + right
	case ir.OpLt:
		return left + " < " + right
	case ir.OpGt:
		return left + " > " + right
	case ir.OpLtEq:
		return left + " <= " + right
	case ir.OpGtEq:
		return left + " >= " + right
	case ir.OpAnd:
		return left + " && " + right
	case ir.OpOr:
		return left + " || " + right
	case ir.OpIs, ir.OpIsNot:
		return r.identity(v)
	case ir.OpContains:
		return r.contains(v.Left, v.Right)
	case ir.OpNotContains:
		return "!" + r.contains(v.Left, v.Right)
	case ir.OpBitAnd:
		return left + " & " + right
	case ir.OpBitOr:
		return left + " | " + right
	case ir.OpBitXor:
		return left + " ^ " + right
	case ir.OpShl:
		return left + " << " + right
	case ir.OpShr:
		return left + " >> " + right
	}
	return left + " + " + right
}

// sequenceSide picks out the sequence operand of a repetition product, if
// this multiplication is one.
func sequenceSide(v *ir.BinaryExpr) (seq, count ir.Expr) {
	if isSequence(v.Left.Type()) && typesystem.Equal(v.Right.Type(), typesystem.Int) {
		return v.Left, v.Right
	}
	if isSequence(v.Right.Type()) && typesystem.Equal(v.Left.Type(), typesystem.Int) {
		return v.Right, v.Left
	}
	return nil, nil
}

func isSequence(t typesystem.Type) bool {
	if typesystem.Equal(t, typesystem.String) {
		return true
	}
	_, ok := t.(*typesystem.List)
	return ok
}

// identity renders "is"/"is not", which the source language only applies
// to the absent-value literal.
func (r *Renderer) identity(v *ir.BinaryExpr) string {
	target := v.Left
	if _, ok := v.Left.(*ir.NoneLit); ok {
		target = v.Right
	}
	if v.Op == ir.OpIs {
		return r.place(target) + ".is_none()"
	}
	return r.place(target) + ".is_some()"
}

func (r *Renderer) contains(item, container ir.Expr) string {
	target := r.place(container)
	switch container.Type().(type) {
	case *typesystem.Dict:
		return target + ".contains_key(" + r.refArg(item) + ")"
	case *typesystem.Set, *typesystem.List:
		return target + ".contains(" + r.refArg(item) + ")"
	}
	if typesystem.Equal(container.Type(), typesystem.String) {
		return target + ".contains(" + r.patArg(item) + ")"
	}
	return target + ".contains(" + r.refArg(item) + ")"
}

// refArg renders an argument for a &K lookup slot.
func (r *Renderer) refArg(e ir.Expr) string {
	if v, ok := e.(*ir.Var); ok {
		switch r.forms[v.Name] {
		case formStr, formRef:
			return snakeCase(v.Name)
		}
		return "&" + snakeCase(v.Name)
	}
	if lit, ok := e.(*ir.StringLit); ok {
		return quoteStr(lit.Value)
	}
	return "&(" + r.expr(e) + ")"
}

// patArg renders an argument for a string pattern slot.
func (r *Renderer) patArg(e ir.Expr) string {
	if lit, ok := e.(*ir.StringLit); ok {
		return quoteStr(lit.Value)
	}
	if v, ok := e.(*ir.Var); ok {
		if r.forms[v.Name] == formStr {
			return snakeCase(v.Name)
		}
		return "&" + snakeCase(v.Name)
	}
	return "&(" + r.expr(e) + ")"
}

func (r *Renderer) unary(v *ir.UnaryExpr) string {
	switch v.Op {
	case ir.OpNeg:
		return "-" + r.operand(v.Operand)
	case ir.OpNot:
		return "!" + r.operand(v.Operand)
	case ir.OpBitNot:
		return "!" + r.operand(v.Operand)
	}
	return r.expr(v.Operand)
}

func (r *Renderer) convert(v *ir.Convert) string {
	from := v.Value.Type()
	switch {
	case typesystem.Equal(v.To, typesystem.Bool):
		return r.truthy(v.Value)
	case typesystem.Equal(v.To, typesystem.Int):
		switch {
		case typesystem.Equal(from, typesystem.Int):
			return r.expr(v.Value)
		case typesystem.Equal(from, typesystem.String):
			return r.place(v.Value) + ".trim().parse::<i64>().unwrap()"
		case typesystem.Equal(from, typesystem.Any):
			return r.place(v.Value) + ".as_i64().unwrap()"
		default:
			return r.operand(v.Value) + " as i64"
		}
	case typesystem.Equal(v.To, typesystem.Float):
		switch {
		case typesystem.Equal(from, typesystem.Float):
			return r.expr(v.Value)
		case typesystem.Equal(from, typesystem.String):
			return r.place(v.Value) + ".trim().parse::<f64>().unwrap()"
		case typesystem.Equal(from, typesystem.Any):
			return r.place(v.Value) + ".as_f64().unwrap()"
		default:
			return r.operand(v.Value) + " as f64"
		}
	case typesystem.Equal(v.To, typesystem.String):
		switch {
		case typesystem.Equal(from, typesystem.String):
			return r.value(v.Value)
		case typesystem.Equal(from, typesystem.Bool):
			return boolText(r.operand(v.Value)) + ".to_string()"
		case typesystem.Equal(from, typesystem.Float):
			return fmt.Sprintf("format!(\"{:?}\", %s)", r.place(v.Value))
		default:
			return fmt.Sprintf("format!(\"{}\", %s)", r.place(v.Value))
		}
	case typesystem.Equal(v.To, typesystem.Any):
		r.usesAny = true
		return "PyValue::from(" + r.value(v.Value) + ")"
	}
	if _, ok := v.To.(*typesystem.Optional); ok {
		if typesystem.Equal(from, typesystem.Unit) {
			return "None"
		}
		if _, already := from.(*typesystem.Optional); already {
			return r.value(v.Value)
		}
		return "Some(" + r.value(v.Value) + ")"
	}
	return r.expr(v.Value)
}

// truthy renders the boolean reading of a value, per the source language's
// emptiness rules.
func (r *Renderer) truthy(e ir.Expr) string {
	t := e.Type()
	switch t.(type) {
	case *typesystem.List, *typesystem.Dict, *typesystem.Set:
		return "!" + r.place(e) + ".is_empty()"
	case *typesystem.Optional:
		return r.place(e) + ".is_some()"
	}
	switch {
	case typesystem.Equal(t, typesystem.Bool):
		return r.expr(e)
	case typesystem.Equal(t, typesystem.Int):
		return r.operand(e) + " != 0"
	case typesystem.Equal(t, typesystem.Float):
		return r.operand(e) + " != 0.0"
	case typesystem.Equal(t, typesystem.String):
		return "!" + r.place(e) + ".is_empty()"
	case typesystem.Equal(t, typesystem.Any):
		return r.place(e) + ".truthy()"
	case typesystem.Equal(t, typesystem.Unit):
		return "false"
	}
	return r.expr(e)
}

func boolText(s string) string {
	return "if " + s + " { \"True\" } else { \"False\" }"
}

func (r *Renderer) call(v *ir.Call) string {
	if v.Strategy == ir.DispatchIntrinsic {
		return r.intrinsic(v)
	}
	decl := r.funcs[v.Name]
	args := make([]string, 0, len(v.Args)+1)
	if r.needsBridge[v.Name] {
		args = append(args, r.bridgeArg())
	}
	for i, a := range v.Args {
		if decl != nil && i < len(decl.Params) {
			args = append(args, r.callArg(decl.Params[i], a))
		} else {
			args = append(args, r.value(a))
		}
	}
	out := fmt.Sprintf("%s(%s)", funcName(v.Name), strings.Join(args, ", "))
	if v.MayFail {
		out += "?"
	}
	return out
}

// callArg renders one argument per the callee parameter's pass mode. A
// borrowed name already in the right form passes through unchanged.
func (r *Renderer) callArg(p ir.Param, a ir.Expr) string {
	if p.Mode == ir.PassOwned {
		return r.value(a)
	}
	_, form := r.paramType(p)
	av, isVar := a.(*ir.Var)
	switch form {
	case formSlice:
		if isVar {
			switch r.forms[av.Name] {
			case formSlice, formMut:
				return snakeCase(av.Name)
			}
			return "&" + snakeCase(av.Name)
		}
		return "&(" + r.expr(a) + ")"
	case formMut:
		if isVar {
			if r.forms[av.Name] == formMut {
				return snakeCase(av.Name)
			}
			return "&mut " + snakeCase(av.Name)
		}
		return "&mut (" + r.expr(a) + ")"
	case formStr:
		if lit, ok := a.(*ir.StringLit); ok {
			return quoteStr(lit.Value)
		}
		if isVar {
			if r.forms[av.Name] == formStr {
				return snakeCase(av.Name)
			}
			return "&" + snakeCase(av.Name)
		}
		return "&(" + r.expr(a) + ")"
	case formRef:
		if isVar {
			if r.forms[av.Name] == formRef {
				return snakeCase(av.Name)
			}
			return "&" + snakeCase(av.Name)
		}
		return "&(" + r.expr(a) + ")"
	}
	return r.expr(a)
}

func (r *Renderer) bridgeArg() string {
	if r.bridgeLocal {
		return "&mut bridge"
	}
	return "bridge"
}

func (r *Renderer) intrinsic(v *ir.Call) string {
	switch v.Name {
	case "print":
		return r.printCall(v.Args)
	case "sum":
		return r.sumCall(v)
	case "min", "max":
		return r.minMaxCall(v)
	case "round":
		return r.roundCall(v)
	case "all":
		return r.place(v.Args[0]) + ".iter().all(|__b| *__b)"
	case "any":
		return r.place(v.Args[0]) + ".iter().any(|__b| *__b)"
	case "sorted":
		return r.sortedCall(v)
	case "reversed":
		return r.place(v.Args[0]) + ".iter().rev().cloned().collect::<Vec<_>>()"
	case "list":
		return r.listCall(v)
	case "dict":
		r.usesHashMap = true
		return "HashMap::new()"
	case "set":
		return r.setCall(v)
	case "enumerate":
		return r.enumerateCall(v)
	case "zip":
		return r.zipCall(v)
	}
	args := make([]string, len(v.Args))
	for i, a := range v.Args {
		args[i] = r.value(a)
	}
	return fmt.Sprintf("%s(%s)", snakeCase(v.Name), strings.Join(args, ", "))
}

func (r *Renderer) printCall(args []ir.Expr) string {
	if len(args) == 0 {
		return "println!()"
	}
	specs := make([]string, len(args))
	rendered := make([]string, len(args))
	for i, a := range args {
		t := a.Type()
		switch {
		case typesystem.Equal(t, typesystem.Bool):
			specs[i] = "{}"
			rendered[i] = boolText(r.operand(a))
		case typesystem.Equal(t, typesystem.Float):
			specs[i] = "{:?}"
			rendered[i] = r.expr(a)
		case typesystem.Equal(t, typesystem.Int),
			typesystem.Equal(t, typesystem.String),
			typesystem.Equal(t, typesystem.Any):
			specs[i] = "{}"
			rendered[i] = r.expr(a)
		default:
			specs[i] = "{:?}"
			rendered[i] = r.expr(a)
		}
	}
	return fmt.Sprintf("println!(\"%s\", %s)", strings.Join(specs, " "), strings.Join(rendered, ", "))
}

func (r *Renderer) sumCall(v *ir.Call) string {
	elem := "i64"
	if l, ok := v.Args[0].Type().(*typesystem.List); ok && typesystem.Equal(l.Elem, typesystem.Float) {
		elem = "f64"
	}
	base := fmt.Sprintf("%s.iter().sum::<%s>()", r.place(v.Args[0]), elem)
	if len(v.Args) == 2 {
		return r.operand(v.Args[1]) + " + " + base
	}
	return base
}

func (r *Renderer) minMaxCall(v *ir.Call) string {
	if len(v.Args) == 1 {
		target := r.place(v.Args[0])
		isFloat := false
		if l, ok := v.Args[0].Type().(*typesystem.List); ok {
			isFloat = typesystem.Equal(l.Elem, typesystem.Float)
		}
		if isFloat {
			seed, pick := "f64::INFINITY", "f64::min"
			if v.Name == "max" {
				seed, pick = "f64::NEG_INFINITY", "f64::max"
			}
			return fmt.Sprintf("%s.iter().cloned().fold(%s, %s)", target, seed, pick)
		}
		if v.Name == "max" {
			return "*" + target + ".iter().max().unwrap()"
		}
		return "*" + target + ".iter().min().unwrap()"
	}
	// scalar argument list folds pairwise
	out := r.operand(v.Args[0])
	float := typesystem.Equal(v.Ty, typesystem.Float)
	for _, a := range v.Args[1:] {
		if float {
			out = fmt.Sprintf("%s.%s(%s)", out, v.Name, r.expr(a))
		} else {
			out = fmt.Sprintf("std::cmp::%s(%s, %s)", v.Name, out, r.expr(a))
		}
	}
	return out
}

func (r *Renderer) roundCall(v *ir.Call) string {
	if len(v.Args) == 1 {
		return r.operand(v.Args[0]) + ".round() as i64"
	}
	return fmt.Sprintf("{ let __f = 10f64.powi((%s) as i32); (%s * __f).round() / __f }",
		r.expr(v.Args[1]), r.operand(v.Args[0]))
}

func (r *Renderer) sortedCall(v *ir.Call) string {
	sortCall := "__s.sort();"
	if l, ok := v.Args[0].Type().(*typesystem.List); ok && typesystem.Equal(l.Elem, typesystem.Float) {
		sortCall = "__s.sort_by(|a, b| a.partial_cmp(b).unwrap());"
	}
	return fmt.Sprintf("{ let mut __s = %s.to_vec(); %s __s }", r.place(v.Args[0]), sortCall)
}

func (r *Renderer) listCall(v *ir.Call) string {
	if len(v.Args) == 0 {
		return "Vec::new()"
	}
	arg := v.Args[0]
	if rng, ok := arg.(*ir.RangeExpr); ok {
		return "(" + r.rangeIter(rng) + ").collect::<Vec<i64>>()"
	}
	switch arg.Type().(type) {
	case *typesystem.List:
		return r.place(arg) + ".to_vec()"
	case *typesystem.Set:
		return r.place(arg) + ".iter().cloned().collect::<Vec<_>>()"
	case *typesystem.Dict:
		return r.place(arg) + ".keys().cloned().collect::<Vec<_>>()"
	}
	if typesystem.Equal(arg.Type(), typesystem.String) {
		return r.place(arg) + ".chars().map(|__c| __c.to_string()).collect::<Vec<_>>()"
	}
	return r.place(arg) + ".to_vec()"
}

func (r *Renderer) setCall(v *ir.Call) string {
	r.usesHashSet = true
	if len(v.Args) == 0 {
		return "HashSet::new()"
	}
	return r.place(v.Args[0]) + ".iter().cloned().collect::<HashSet<_>>()"
}

func (r *Renderer) enumerateCall(v *ir.Call) string {
	base := r.place(v.Args[0]) + ".iter().cloned().enumerate()"
	if len(v.Args) == 2 {
		return base + fmt.Sprintf(".map(|(__i, __v)| (__i as i64 + %s, __v)).collect::<Vec<_>>()", r.operand(v.Args[1]))
	}
	return base + ".map(|(__i, __v)| (__i as i64, __v)).collect::<Vec<_>>()"
}

func (r *Renderer) zipCall(v *ir.Call) string {
	out := r.place(v.Args[0]) + ".iter().cloned()"
	for _, a := range v.Args[1:] {
		out += ".zip(" + r.place(a) + ".iter().cloned())"
	}
	if len(v.Args) > 2 {
		// flatten the nested pairs zip builds up
		pat, tuple := "__v0", "__v0"
		for i := 1; i < len(v.Args); i++ {
			pat = fmt.Sprintf("(%s, __v%d)", pat, i)
			tuple += fmt.Sprintf(", __v%d", i)
		}
		out += fmt.Sprintf(".map(|%s| (%s))", pat, tuple)
	}
	return out + ".collect::<Vec<_>>()"
}

func (r *Renderer) methodCall(v *ir.MethodCall) string {
	if v.Strategy == ir.DispatchDelegated {
		return r.delegatedCall(v)
	}
	switch v.TargetTy.(type) {
	case *typesystem.List:
		return r.listMethod(v)
	case *typesystem.Dict:
		return r.dictMethod(v)
	case *typesystem.Set:
		return r.setMethod(v)
	}
	if typesystem.Equal(v.TargetTy, typesystem.String) {
		return r.stringMethod(v)
	}
	// len/abs reach here for every receiver shape
	return r.commonMethod(v)
}

func (r *Renderer) commonMethod(v *ir.MethodCall) string {
	target := r.place(v.Target)
	switch v.Method {
	case "len":
		if typesystem.Equal(v.TargetTy, typesystem.String) {
			return target + ".chars().count() as i64"
		}
		return target + ".len() as i64"
	case "abs":
		return target + ".abs()"
	}
	args := make([]string, len(v.Args))
	for i, a := range v.Args {
		args[i] = r.value(a)
	}
	return fmt.Sprintf("%s.%s(%s)", target, snakeCase(v.Method), strings.Join(args, ", "))
}

func (r *Renderer) listMethod(v *ir.MethodCall) string {
	target := r.place(v.Target)
	switch v.Method {
	case "append":
		return target + ".push(" + r.value(v.Args[0]) + ")"
	case "extend":
		return target + ".extend(" + r.place(v.Args[0]) + ".iter().cloned())"
	case "insert":
		return fmt.Sprintf("%s.insert((%s) as usize, %s)", target, r.expr(v.Args[0]), r.value(v.Args[1]))
	case "remove":
		return fmt.Sprintf("{ let __pos = %s.iter().position(|__x| *__x == %s).unwrap(); %s.remove(__pos); }",
			target, r.operand(v.Args[0]), target)
	case "pop":
		if len(v.Args) == 0 {
			return target + ".pop().unwrap()"
		}
		return fmt.Sprintf("%s.remove((%s) as usize)", target, r.expr(v.Args[0]))
	case "clear":
		return target + ".clear()"
	case "sort":
		if l, ok := v.TargetTy.(*typesystem.List); ok && typesystem.Equal(l.Elem, typesystem.Float) {
			return target + ".sort_by(|a, b| a.partial_cmp(b).unwrap())"
		}
		return target + ".sort()"
	case "reverse":
		return target + ".reverse()"
	case "copy":
		return target + ".to_vec()"
	case "index":
		return fmt.Sprintf("%s.iter().position(|__x| *__x == %s).unwrap() as i64", target, r.operand(v.Args[0]))
	case "count":
		return fmt.Sprintf("%s.iter().filter(|__x| **__x == %s).count() as i64", target, r.operand(v.Args[0]))
	}
	return r.commonMethod(v)
}

func (r *Renderer) dictMethod(v *ir.MethodCall) string {
	target := r.place(v.Target)
	switch v.Method {
	case "get":
		out := target + ".get(" + r.refArg(v.Args[0]) + ").cloned()"
		if len(v.Args) == 2 {
			out += ".or(Some(" + r.value(v.Args[1]) + "))"
		}
		return out
	case "keys":
		return target + ".keys().cloned().collect::<Vec<_>>()"
	case "values":
		return target + ".values().cloned().collect::<Vec<_>>()"
	case "items":
		return target + ".iter().map(|(__k, __v)| (__k.clone(), __v.clone())).collect::<Vec<_>>()"
	case "pop":
		out := target + ".remove(" + r.refArg(v.Args[0]) + ")"
		if len(v.Args) == 2 {
			return out + ".unwrap_or(" + r.value(v.Args[1]) + ")"
		}
		return out + ".unwrap()"
	case "clear":
		return target + ".clear()"
	case "update":
		return target + ".extend(" + r.place(v.Args[0]) + ".iter().map(|(__k, __v)| (__k.clone(), __v.clone())))"
	}
	return r.commonMethod(v)
}

func (r *Renderer) setMethod(v *ir.MethodCall) string {
	target := r.place(v.Target)
	switch v.Method {
	case "add":
		return target + ".insert(" + r.value(v.Args[0]) + ")"
	case "discard", "remove":
		return target + ".remove(" + r.refArg(v.Args[0]) + ")"
	case "clear":
		return target + ".clear()"
	case "update":
		return target + ".extend(" + r.place(v.Args[0]) + ".iter().cloned())"
	}
	return r.commonMethod(v)
}

func (r *Renderer) stringMethod(v *ir.MethodCall) string {
	target := r.place(v.Target)
	switch v.Method {
	case "lower":
		return target + ".to_lowercase()"
	case "upper":
		return target + ".to_uppercase()"
	case "strip":
		return target + ".trim().to_string()"
	case "lstrip":
		return target + ".trim_start().to_string()"
	case "rstrip":
		return target + ".trim_end().to_string()"
	case "replace":
		return fmt.Sprintf("%s.replace(%s, %s)", target, r.patArg(v.Args[0]), r.patArg(v.Args[1]))
	case "split":
		if len(v.Args) == 0 {
			return target + ".split_whitespace().map(|__s| __s.to_string()).collect::<Vec<_>>()"
		}
		return fmt.Sprintf("%s.split(%s).map(|__s| __s.to_string()).collect::<Vec<_>>()", target, r.patArg(v.Args[0]))
	case "join":
		return fmt.Sprintf("%s.join(%s)", r.place(v.Args[0]), r.patArg(v.Target))
	case "startswith":
		return target + ".starts_with(" + r.patArg(v.Args[0]) + ")"
	case "endswith":
		return target + ".ends_with(" + r.patArg(v.Args[0]) + ")"
	case "find":
		return target + ".find(" + r.patArg(v.Args[0]) + ").map(|__i| __i as i64).unwrap_or(-1)"
	}
	return r.commonMethod(v)
}

// delegatedCall routes a method on a worker-held value across the bridge.
func (r *Renderer) delegatedCall(v *ir.MethodCall) string {
	args := make([]string, len(v.Args))
	for i, a := range v.Args {
		args[i] = r.pyArg(a)
	}
	recv := r.refArg(v.Target)
	return fmt.Sprintf("%s.call_method(%s, %s, vec![%s])?",
		r.bridgeRecv(), recv, quoteStr(v.Method), strings.Join(args, ", "))
}

func (r *Renderer) bridgeCall(v *ir.BridgeCall) string {
	if v.Fetch {
		return fmt.Sprintf("%s.get_attribute(%s)?", r.bridgeRecv(), quoteStr(v.Target))
	}
	args := make([]string, len(v.Args))
	for i, a := range v.Args {
		args[i] = r.pyArg(a)
	}
	return fmt.Sprintf("%s.call(%s, vec![%s])?", r.bridgeRecv(), quoteStr(v.Target), strings.Join(args, ", "))
}

// bridgeRecv names the bridge handle as a method receiver.
func (r *Renderer) bridgeRecv() string {
	return "bridge"
}

// pyArg renders one value crossing the worker boundary.
func (r *Renderer) pyArg(e ir.Expr) string {
	if typesystem.Equal(e.Type(), typesystem.Any) {
		return r.value(e)
	}
	r.usesAny = true
	return "PyValue::from(" + r.value(e) + ")"
}

func (r *Renderer) listLit(v *ir.ListLit) string {
	if len(v.Elements) == 0 {
		return "Vec::new()"
	}
	parts := make([]string, len(v.Elements))
	for i, el := range v.Elements {
		parts[i] = r.value(el)
	}
	return "vec![" + strings.Join(parts, ", ") + "]"
}

func (r *Renderer) dictLit(v *ir.DictLit) string {
	r.usesHashMap = true
	if len(v.Keys) == 0 {
		return "HashMap::new()"
	}
	parts := make([]string, len(v.Keys))
	for i := range v.Keys {
		parts[i] = "(" + r.value(v.Keys[i]) + ", " + r.value(v.Values[i]) + ")"
	}
	return "vec![" + strings.Join(parts, ", ") + "].into_iter().collect::<HashMap<_, _>>()"
}

func (r *Renderer) setLit(v *ir.SetLit) string {
	r.usesHashSet = true
	if len(v.Elements) == 0 {
		return "HashSet::new()"
	}
	parts := make([]string, len(v.Elements))
	for i, el := range v.Elements {
		parts[i] = r.value(el)
	}
	return "vec![" + strings.Join(parts, ", ") + "].into_iter().collect::<HashSet<_>>()"
}

func (r *Renderer) structLit(v *ir.StructLit) string {
	parts := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		parts[i] = snakeCase(f.Name) + ": " + r.value(f.Value)
	}
	return v.Name + " { " + strings.Join(parts, ", ") + " }"
}

func (r *Renderer) indexExpr(v *ir.IndexExpr) string {
	target := r.place(v.Target)
	switch t := v.Target.Type().(type) {
	case *typesystem.List:
		idx := r.indexOf(target, v.Index)
		if isCopyType(t.Elem) {
			return target + "[" + idx + "]"
		}
		return target + "[" + idx + "].clone()"
	case *typesystem.Dict:
		if isCopyType(t.Value) {
			return "*" + target + ".get(" + r.refArg(v.Index) + ").unwrap()"
		}
		return target + ".get(" + r.refArg(v.Index) + ").unwrap().clone()"
	case *typesystem.Tuple:
		if lit, ok := v.Index.(*ir.IntLit); ok {
			out := target + fmt.Sprintf(".%d", lit.Value)
			if !isCopyType(v.Ty) {
				out += ".clone()"
			}
			return out
		}
	}
	if typesystem.Equal(v.Target.Type(), typesystem.String) {
		return fmt.Sprintf("%s.chars().nth(%s).unwrap().to_string()", target, r.indexOf(target+".chars().count()", v.Index))
	}
	return target + "[(" + r.expr(v.Index) + ") as usize]"
}

// indexOf renders a sequence subscript, folding negative literal indices
// into end-relative positions.
func (r *Renderer) indexOf(target string, index ir.Expr) string {
	if lit, ok := index.(*ir.IntLit); ok && lit.Value < 0 {
		if strings.HasSuffix(target, ".chars().count()") {
			return fmt.Sprintf("%s - %d", target, -lit.Value)
		}
		return fmt.Sprintf("%s.len() - %d", target, -lit.Value)
	}
	return "(" + r.expr(index) + ") as usize"
}

func (r *Renderer) sliceExpr(v *ir.SliceExpr) string {
	target := r.place(v.Target)
	if typesystem.Equal(v.Target.Type(), typesystem.String) {
		out := target + ".chars()"
		if v.Low != nil {
			out += fmt.Sprintf(".skip((%s) as usize)", r.expr(v.Low))
		}
		if v.High != nil {
			if v.Low != nil {
				out += fmt.Sprintf(".take(((%s) - (%s)) as usize)", r.expr(v.High), r.expr(v.Low))
			} else {
				out += fmt.Sprintf(".take((%s) as usize)", r.expr(v.High))
			}
		}
		return out + ".collect::<String>()"
	}
	lo := ""
	if v.Low != nil {
		lo = r.sliceBound(target, v.Low)
	}
	hi := ""
	if v.High != nil {
		hi = r.sliceBound(target, v.High)
	}
	return fmt.Sprintf("%s[%s..%s].to_vec()", target, lo, hi)
}

func (r *Renderer) sliceBound(target string, bound ir.Expr) string {
	if lit, ok := bound.(*ir.IntLit); ok && lit.Value < 0 {
		return fmt.Sprintf("%s.len() - %d", target, -lit.Value)
	}
	return "(" + r.expr(bound) + ") as usize"
}

func (r *Renderer) unwrap(v *ir.Unwrap) string {
	if isCopyType(v.Ty) {
		return r.place(v.Value) + ".unwrap()"
	}
	return r.place(v.Value) + ".clone().unwrap()"
}
