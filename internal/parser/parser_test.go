package parser

import (
	"testing"

	"github.com/pylift/pylift/internal/ast"
	"github.com/pylift/pylift/internal/diagnostics"
	"github.com/pylift/pylift/internal/lexer"
)

func parseSource(t *testing.T, input string) (*ast.Program, *diagnostics.Collection) {
	t.Helper()
	diags := diagnostics.NewCollection()
	p := New(lexer.New(input), diags)
	prog := p.ParseProgram()
	return prog, diags
}

func parseOK(t *testing.T, input string) *ast.Program {
	t.Helper()
	prog, diags := parseSource(t, input)
	if diags.HasErrors() {
		t.Fatalf("unexpected parse errors:\n%s", diags.Text())
	}
	return prog
}

func TestAssignAndExpression(t *testing.T) {
	prog := parseOK(t, "x = 1 + 2 * 3\n")
	if len(prog.Statements) != 1 {
		t.Fatalf("statement count = %d", len(prog.Statements))
	}
	assign, ok := prog.Statements[0].(*ast.Assign)
	if !ok {
		t.Fatalf("statement is %T, want *ast.Assign", prog.Statements[0])
	}
	bin, ok := assign.Value.(*ast.BinaryOp)
	if !ok || bin.Op != "+" {
		t.Fatalf("value = %T, want + BinaryOp", assign.Value)
	}
	// Precedence: 2 * 3 binds tighter.
	if right, ok := bin.Right.(*ast.BinaryOp); !ok || right.Op != "*" {
		t.Fatalf("right = %T, want * BinaryOp", bin.Right)
	}
}

func TestAnnotatedAssign(t *testing.T) {
	prog := parseOK(t, "xs: list[int] = []\n")
	assign := prog.Statements[0].(*ast.Assign)
	if assign.Hint == nil || assign.Hint.Name != "list" {
		t.Fatalf("hint = %+v", assign.Hint)
	}
	if len(assign.Hint.Params) != 1 || assign.Hint.Params[0].Name != "int" {
		t.Fatalf("hint params = %+v", assign.Hint.Params)
	}
}

func TestFuncDef(t *testing.T) {
	input := `def add(a: int, b: int = 0) -> int:
    return a + b
`
	prog := parseOK(t, input)
	fn, ok := prog.Statements[0].(*ast.FuncDef)
	if !ok {
		t.Fatalf("statement is %T", prog.Statements[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Fatalf("fn = %s with %d params", fn.Name, len(fn.Params))
	}
	if fn.Params[0].Hint.Name != "int" || fn.Params[1].Default == nil {
		t.Fatalf("params = %+v", fn.Params)
	}
	if fn.RetHint == nil || fn.RetHint.Name != "int" {
		t.Fatalf("ret hint = %+v", fn.RetHint)
	}
	if len(fn.Body) != 1 {
		t.Fatalf("body length = %d", len(fn.Body))
	}
}

func TestIfElifElse(t *testing.T) {
	input := `if x < 0:
    y = -1
elif x == 0:
    y = 0
else:
    y = 1
`
	prog := parseOK(t, input)
	stmt := prog.Statements[0].(*ast.If)
	if len(stmt.Elifs) != 1 || stmt.Else == nil {
		t.Fatalf("if = %+v", stmt)
	}
}

func TestForTupleTarget(t *testing.T) {
	prog := parseOK(t, "for k, v in items:\n    pass\n")
	stmt := prog.Statements[0].(*ast.For)
	tup, ok := stmt.Target.(*ast.TupleLiteral)
	if !ok || len(tup.Elements) != 2 {
		t.Fatalf("target = %T", stmt.Target)
	}
}

func TestTryExceptElseFinally(t *testing.T) {
	input := `try:
    risky()
except (ValueError, TypeError) as e:
    handle(e)
except KeyError:
    pass
else:
    ok()
finally:
    cleanup()
`
	prog := parseOK(t, input)
	stmt := prog.Statements[0].(*ast.Try)
	if len(stmt.Handlers) != 2 {
		t.Fatalf("handler count = %d", len(stmt.Handlers))
	}
	h0 := stmt.Handlers[0]
	if len(h0.Kinds) != 2 || h0.Kinds[0] != "ValueError" || h0.Name != "e" {
		t.Fatalf("handler 0 = %+v", h0)
	}
	if stmt.Else == nil || stmt.Finally == nil {
		t.Fatalf("else/finally missing")
	}
}

func TestRaiseForms(t *testing.T) {
	prog := parseOK(t, "raise ValueError(\"bad\") from err\n")
	stmt := prog.Statements[0].(*ast.Raise)
	if stmt.Exc == nil || stmt.Cause == nil {
		t.Fatalf("raise = %+v", stmt)
	}

	prog = parseOK(t, "try:\n    x()\nexcept ValueError:\n    raise\n")
	try := prog.Statements[0].(*ast.Try)
	re := try.Handlers[0].Body[0].(*ast.Raise)
	if re.Exc != nil {
		t.Fatalf("bare raise should have nil Exc")
	}
}

func TestSliceForms(t *testing.T) {
	prog := parseOK(t, "y = xs[1:5]\nz = xs[::-1]\nw = xs[2]\n")
	s1 := prog.Statements[0].(*ast.Assign).Value.(*ast.Slice)
	if s1.Low == nil || s1.High == nil || s1.Step != nil {
		t.Fatalf("xs[1:5] = %+v", s1)
	}
	s2 := prog.Statements[1].(*ast.Assign).Value.(*ast.Slice)
	if s2.Low != nil || s2.High != nil || s2.Step == nil {
		t.Fatalf("xs[::-1] = %+v", s2)
	}
	if _, ok := prog.Statements[2].(*ast.Assign).Value.(*ast.Index); !ok {
		t.Fatalf("xs[2] should be Index")
	}
}

func TestCallKeywords(t *testing.T) {
	prog := parseOK(t, "f(1, 2, sep=\", \")\n")
	call := prog.Statements[0].(*ast.ExpressionStatement).Expr.(*ast.Call)
	if len(call.Args) != 2 || len(call.Keywords) != 1 || call.Keywords[0].Name != "sep" {
		t.Fatalf("call = %+v", call)
	}
}

func TestImports(t *testing.T) {
	prog := parseOK(t, "import numpy as np\nfrom math import sqrt, floor as fl\n")
	imp := prog.Statements[0].(*ast.Import)
	if imp.Module != "numpy" || imp.Alias != "np" {
		t.Fatalf("import = %+v", imp)
	}
	from := prog.Statements[1].(*ast.FromImport)
	if from.Module != "math" || len(from.Names) != 2 || from.Names[1].Alias != "fl" {
		t.Fatalf("from-import = %+v", from)
	}
}

func TestDictSetLiterals(t *testing.T) {
	prog := parseOK(t, "d = {\"a\": 1, \"b\": 2}\ns = {1, 2, 3}\ne = {}\n")
	d := prog.Statements[0].(*ast.Assign).Value.(*ast.DictLiteral)
	if len(d.Keys) != 2 {
		t.Fatalf("dict keys = %d", len(d.Keys))
	}
	s := prog.Statements[1].(*ast.Assign).Value.(*ast.SetLiteral)
	if len(s.Elements) != 3 {
		t.Fatalf("set elems = %d", len(s.Elements))
	}
	if _, ok := prog.Statements[2].(*ast.Assign).Value.(*ast.DictLiteral); !ok {
		t.Fatalf("{} should be empty dict")
	}
}

func TestTernaryAndBoolOps(t *testing.T) {
	prog := parseOK(t, "y = a if x > 0 and x < 10 else b\n")
	ife := prog.Statements[0].(*ast.Assign).Value.(*ast.IfExp)
	cond, ok := ife.Cond.(*ast.BinaryOp)
	if !ok || cond.Op != "and" {
		t.Fatalf("cond = %+v", ife.Cond)
	}
}

func TestMembershipAndIdentity(t *testing.T) {
	prog := parseOK(t, "a = x in xs\nb = x not in xs\nc = x is None\nd = x is not None\n")
	ops := []string{"in", "not in", "is", "is not"}
	for i, want := range ops {
		bin := prog.Statements[i].(*ast.Assign).Value.(*ast.BinaryOp)
		if bin.Op != want {
			t.Errorf("statement %d op = %q, want %q", i, bin.Op, want)
		}
	}
}

func TestParseErrorRecovery(t *testing.T) {
	// Three independent problems must yield three records, not a bail-out.
	input := "x = +\ny = )\nz = *\nok = 1\n"
	prog, diags := parseSource(t, input)
	if !diags.HasErrors() {
		t.Fatalf("expected parse errors")
	}
	if diags.Len() < 3 {
		t.Fatalf("diagnostic count = %d, want >= 3:\n%s", diags.Len(), diags.Text())
	}
	// The last statement still parses.
	last := prog.Statements[len(prog.Statements)-1]
	if a, ok := last.(*ast.Assign); !ok || a.Target.(*ast.Identifier).Value != "ok" {
		t.Fatalf("recovery failed, last statement = %+v", last)
	}
}

func TestClassDef(t *testing.T) {
	input := `class Point:
    x: float
    y: float
`
	prog, diags := parseSource(t, input)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", diags.Text())
	}
	cls := prog.Statements[0].(*ast.ClassDef)
	if cls.Name != "Point" || len(cls.Body) != 2 {
		t.Fatalf("class = %+v", cls)
	}
}
