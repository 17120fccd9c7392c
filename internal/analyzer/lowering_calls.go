package analyzer

import (
	"strings"

	"github.com/pylift/pylift/internal/ast"
	"github.com/pylift/pylift/internal/diagnostics"
	"github.com/pylift/pylift/internal/ir"
	"github.com/pylift/pylift/internal/typesystem"
)

func (l *lowerer) lowerCall(call *ast.Call) ir.Expr {
	switch fn := call.Func.(type) {
	case *ast.Identifier:
		return l.lowerNamedCall(call, fn)
	case *ast.Attribute:
		if id, ok := fn.Value.(*ast.Identifier); ok && l.resolver.IsModuleAlias(id.Value) {
			module := l.resolver.modules[id.Value]
			return &ir.BridgeCall{
				Module: module,
				Target: module + "." + fn.Attr,
				Args:   l.lowerArgs(call.Args),
				Ty:     l.exprTy(call),
			}
		}
		return l.lowerMethodCall(call, fn)
	}
	l.diags.Add(diagnostics.NewError(diagnostics.ErrL002, diagnostics.PhaseLowering, call.Token,
		"no lowering for call target"))
	return &ir.NoneLit{}
}

func (l *lowerer) lowerArgs(args []ast.Expression) []ir.Expr {
	out := make([]ir.Expr, len(args))
	for i, a := range args {
		out[i] = l.lowerExpr(a)
	}
	return out
}

func (l *lowerer) lowerNamedCall(call *ast.Call, fn *ast.Identifier) ir.Expr {
	if sig, ok := l.sigs.Get(fn.Value); ok {
		return l.lowerUserCall(call, sig)
	}
	if info, ok := l.structs[fn.Value]; ok {
		return l.lowerConstruct(call, info)
	}
	if spec, ok := builtinsByName[fn.Value]; ok {
		return l.lowerBuiltin(call, spec)
	}
	if qualified, ok := l.resolver.imported[fn.Value]; ok {
		module := qualified
		if i := strings.LastIndex(qualified, "."); i >= 0 {
			module = qualified[:i]
		}
		return &ir.BridgeCall{
			Module: module,
			Target: qualified,
			Args:   l.lowerArgs(call.Args),
			Ty:     l.exprTy(call),
		}
	}
	l.diags.Add(diagnostics.NewError(diagnostics.ErrL002, diagnostics.PhaseLowering, call.Token,
		"call target %q did not resolve", fn.Value))
	return &ir.NoneLit{}
}

// alignArgs orders a call's arguments by declared parameter position,
// filling gaps from defaults, and applies the parameter-type conversions.
func (l *lowerer) alignArgs(call *ast.Call, sig *FunctionSignature) []ir.Expr {
	out := make([]ir.Expr, len(sig.Params))
	for i, arg := range call.Args {
		if i < len(out) {
			out[i] = coerce(l.lowerExpr(arg), sig.Params[i].Ty)
		}
	}
	for _, kw := range call.Keywords {
		for i, p := range sig.Params {
			if p.Name == kw.Name {
				out[i] = coerce(l.lowerExpr(kw.Value), p.Ty)
				break
			}
		}
	}
	for i, p := range sig.Params {
		if out[i] == nil && p.Default != nil {
			out[i] = coerce(l.lowerExpr(p.Default), p.Ty)
		}
	}
	// arity was checked during inference; nothing should stay nil here
	for i := range out {
		if out[i] == nil {
			out[i] = &ir.NoneLit{}
		}
	}
	return out
}

func (l *lowerer) lowerUserCall(call *ast.Call, sig *FunctionSignature) ir.Expr {
	return &ir.Call{
		Name:     sig.Name,
		Args:     l.alignArgs(call, sig),
		Strategy: ir.DispatchDirect,
		MayFail:  sig.MayFail,
		Ty:       sig.Ret,
	}
}

func (l *lowerer) lowerConstruct(call *ast.Call, info *StructInfo) ir.Expr {
	out := &ir.StructLit{Name: info.Name}
	given := make(map[string]ir.Expr, len(info.Fields))
	for i, arg := range call.Args {
		if i < len(info.Fields) {
			given[info.Fields[i].Name] = coerce(l.lowerExpr(arg), info.Fields[i].Ty)
		}
	}
	for _, kw := range call.Keywords {
		if fieldTy, ok := info.Field(kw.Name); ok {
			given[kw.Name] = coerce(l.lowerExpr(kw.Value), fieldTy)
		}
	}
	for _, field := range info.Fields {
		value := given[field.Name]
		if value == nil {
			value = &ir.NoneLit{}
		}
		out.Fields = append(out.Fields, ir.StructField{Name: field.Name, Value: value})
	}
	return out
}

func (l *lowerer) lowerBuiltin(call *ast.Call, spec *BuiltinSpec) ir.Expr {
	args := l.lowerArgs(call.Args)
	switch spec.Kind {
	case KindDelegated:
		module := spec.Target
		if i := strings.LastIndex(spec.Target, "."); i >= 0 {
			module = spec.Target[:i]
		}
		return &ir.BridgeCall{Module: module, Target: spec.Target, Args: args, Ty: l.exprTy(call)}
	case KindStructuralMethod:
		if len(args) == 0 {
			return &ir.NoneLit{}
		}
		return &ir.MethodCall{
			Target:   args[0],
			Method:   spec.Method,
			Args:     args[1:],
			TargetTy: args[0].Type(),
			Strategy: ir.DispatchStructural,
			Ty:       l.exprTy(call),
		}
	}
	switch spec.Name {
	case "int":
		return &ir.Convert{Value: args[0], To: typesystem.Int}
	case "float":
		return &ir.Convert{Value: args[0], To: typesystem.Float}
	case "str":
		return &ir.Convert{Value: args[0], To: typesystem.String}
	case "bool":
		return &ir.Convert{Value: args[0], To: typesystem.Bool}
	case "range":
		switch len(args) {
		case 1:
			return &ir.RangeExpr{Start: &ir.IntLit{Value: 0}, Stop: args[0]}
		case 2:
			return &ir.RangeExpr{Start: args[0], Stop: args[1]}
		default:
			return &ir.RangeExpr{Start: args[0], Stop: args[1], Step: args[2]}
		}
	}
	return &ir.Call{
		Name:     spec.Name,
		Args:     args,
		Strategy: ir.DispatchIntrinsic,
		Ty:       l.exprTy(call),
	}
}

func (l *lowerer) lowerMethodCall(call *ast.Call, attr *ast.Attribute) ir.Expr {
	target := l.lowerExpr(attr.Value)
	args := l.lowerArgs(call.Args)
	recvTy := target.Type()
	if info := lookupMethod(recvTy, attr.Attr); info != nil {
		return &ir.MethodCall{
			Target:   target,
			Method:   info.Name,
			Args:     args,
			TargetTy: recvTy,
			Strategy: ir.DispatchStructural,
			Ty:       l.exprTy(call),
		}
	}
	// a worker-held receiver: the call crosses the boundary and may fail
	return &ir.MethodCall{
		Target:   target,
		Method:   attr.Attr,
		Args:     args,
		TargetTy: recvTy,
		Strategy: ir.DispatchDelegated,
		MayFail:  true,
		Ty:       l.exprTy(call),
	}
}
