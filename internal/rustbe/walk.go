package rustbe

import (
	"github.com/pylift/pylift/internal/ir"
)

// walkNodes visits every expression reachable from nodes, depth first.
func walkNodes(nodes []ir.Node, visit func(ir.Expr)) {
	for _, n := range nodes {
		walkNode(n, visit)
	}
}

func walkNode(n ir.Node, visit func(ir.Expr)) {
	switch v := n.(type) {
	case *ir.VarDecl:
		walkExpr(v.Init, visit)
	case *ir.MultiVarDecl:
		walkExpr(v.Value, visit)
	case *ir.Assign:
		walkExpr(v.Value, visit)
	case *ir.IndexAssign:
		walkExpr(v.Target, visit)
		walkExpr(v.Index, visit)
		walkExpr(v.Value, visit)
	case *ir.FieldAssign:
		walkExpr(v.Target, visit)
		walkExpr(v.Value, visit)
	case *ir.AugAssign:
		walkExpr(v.Value, visit)
	case *ir.If:
		walkExpr(v.Cond, visit)
		walkNodes(v.Then, visit)
		walkNodes(v.Else, visit)
	case *ir.While:
		walkExpr(v.Cond, visit)
		walkNodes(v.Body, visit)
	case *ir.For:
		walkExpr(v.Iter, visit)
		walkNodes(v.Body, visit)
	case *ir.Return:
		walkExpr(v.Value, visit)
	case *ir.Fail:
		if v.Value != nil {
			walkExpr(v.Value.Message, visit)
			walkExpr(v.Value.Cause, visit)
		}
	case *ir.HandlerBlock:
		walkNodes(v.Guarded, visit)
		for i := range v.Handlers {
			walkNodes(v.Handlers[i].Body, visit)
		}
		walkNodes(v.Else, visit)
		walkNodes(v.Finally, visit)
	case *ir.ExprStmt:
		walkExpr(v.E, visit)
	}
}

func walkExpr(e ir.Expr, visit func(ir.Expr)) {
	if e == nil {
		return
	}
	visit(e)
	switch v := e.(type) {
	case *ir.FieldAccess:
		walkExpr(v.Target, visit)
	case *ir.BinaryExpr:
		walkExpr(v.Left, visit)
		walkExpr(v.Right, visit)
	case *ir.UnaryExpr:
		walkExpr(v.Operand, visit)
	case *ir.Call:
		for _, a := range v.Args {
			walkExpr(a, visit)
		}
	case *ir.MethodCall:
		walkExpr(v.Target, visit)
		for _, a := range v.Args {
			walkExpr(a, visit)
		}
	case *ir.BridgeCall:
		for _, a := range v.Args {
			walkExpr(a, visit)
		}
	case *ir.ListLit:
		for _, el := range v.Elements {
			walkExpr(el, visit)
		}
	case *ir.TupleLit:
		for _, el := range v.Elements {
			walkExpr(el, visit)
		}
	case *ir.SetLit:
		for _, el := range v.Elements {
			walkExpr(el, visit)
		}
	case *ir.DictLit:
		for _, k := range v.Keys {
			walkExpr(k, visit)
		}
		for _, val := range v.Values {
			walkExpr(val, visit)
		}
	case *ir.StructLit:
		for i := range v.Fields {
			walkExpr(v.Fields[i].Value, visit)
		}
	case *ir.IndexExpr:
		walkExpr(v.Target, visit)
		walkExpr(v.Index, visit)
	case *ir.SliceExpr:
		walkExpr(v.Target, visit)
		walkExpr(v.Low, visit)
		walkExpr(v.High, visit)
	case *ir.RangeExpr:
		walkExpr(v.Start, visit)
		walkExpr(v.Stop, visit)
		walkExpr(v.Step, visit)
	case *ir.Convert:
		walkExpr(v.Value, visit)
	case *ir.IfExpr:
		walkExpr(v.Cond, visit)
		walkExpr(v.Then, visit)
		walkExpr(v.Else, visit)
	case *ir.Unwrap:
		walkExpr(v.Value, visit)
	}
}

// nodesReturn reports whether any node transfers control out of the
// enclosing function.
func nodesReturn(nodes []ir.Node) bool {
	for _, n := range nodes {
		switch v := n.(type) {
		case *ir.Return:
			return true
		case *ir.If:
			if nodesReturn(v.Then) || nodesReturn(v.Else) {
				return true
			}
		case *ir.While:
			if nodesReturn(v.Body) {
				return true
			}
		case *ir.For:
			if nodesReturn(v.Body) {
				return true
			}
		case *ir.HandlerBlock:
			if nodesReturn(v.Guarded) || nodesReturn(v.Else) || nodesReturn(v.Finally) {
				return true
			}
			for i := range v.Handlers {
				if nodesReturn(v.Handlers[i].Body) {
					return true
				}
			}
		}
	}
	return false
}

// nodesTerminate reports whether control cannot fall off the end of the
// block: the last statement leaves the function on every path. Handler
// blocks never count, since their returns route through a capture slot.
func nodesTerminate(nodes []ir.Node) bool {
	if len(nodes) == 0 {
		return false
	}
	switch v := nodes[len(nodes)-1].(type) {
	case *ir.Return, *ir.Fail:
		return true
	case *ir.If:
		return nodesTerminate(v.Then) && nodesTerminate(v.Else)
	}
	return false
}
