package analyzer

import (
	"reflect"
	"strings"
	"testing"

	"github.com/pylift/pylift/internal/diagnostics"
	"github.com/pylift/pylift/internal/ir"
	"github.com/pylift/pylift/internal/lexer"
	"github.com/pylift/pylift/internal/parser"
	"github.com/pylift/pylift/internal/typesystem"
)

func analyze(t *testing.T, input string) (*ir.Program, *Analyzer) {
	t.Helper()
	diags := diagnostics.NewCollection()
	p := parser.New(lexer.New(input), diags)
	prog := p.ParseProgram()
	if diags.HasErrors() {
		t.Fatalf("unexpected parse errors:\n%s", diags.Text())
	}
	a := New(diags)
	return a.Analyze(prog), a
}

func analyzeOK(t *testing.T, input string) (*ir.Program, *Analyzer) {
	t.Helper()
	out, a := analyze(t, input)
	if out == nil {
		t.Fatalf("analysis failed:\n%s", a.Diagnostics().Text())
	}
	return out, a
}

func mustSig(t *testing.T, a *Analyzer, name string) *FunctionSignature {
	t.Helper()
	sig, ok := a.Signatures().Get(name)
	if !ok {
		t.Fatalf("no signature for %q", name)
	}
	return sig
}

func funcDecl(t *testing.T, prog *ir.Program, name string) *ir.FuncDecl {
	t.Helper()
	for _, f := range prog.Funcs {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("no lowered function %q", name)
	return nil
}

func TestParamInferenceFromCallSites(t *testing.T) {
	input := `def double(x):
    return x * 2

y = double(21)
print(y)
`
	_, a := analyzeOK(t, input)
	sig := mustSig(t, a, "double")
	if !typesystem.Equal(sig.Params[0].Ty, typesystem.Int) {
		t.Fatalf("param type = %s, want Int", sig.Params[0].Ty)
	}
	if !typesystem.Equal(sig.Ret, typesystem.Int) {
		t.Fatalf("return type = %s, want Int", sig.Ret)
	}
}

func TestConflictingCallSitesFallBack(t *testing.T) {
	input := `def use(v):
    return v

a = use(1)
b = use("s")
`
	out, a := analyzeOK(t, input)
	sig := mustSig(t, a, "use")
	p := sig.Params[0]
	if !p.Ambiguous {
		t.Fatal("parameter should be flagged ambiguous")
	}
	if !typesystem.Equal(p.Ty, typesystem.Any) {
		t.Fatalf("param type = %s, want Any", p.Ty)
	}
	if p.Mode != ir.PassOwned {
		t.Fatalf("mode = %s, want owned", p.Mode)
	}
	warned := false
	for _, d := range a.Diagnostics().All() {
		if d.Code == diagnostics.ErrT004 && d.Severity == diagnostics.SeverityWarning {
			warned = true
		}
	}
	if !warned {
		t.Fatal("expected a T004 warning")
	}
	if out == nil {
		t.Fatal("a warning must not block lowering")
	}
}

func TestHintsStayAuthoritative(t *testing.T) {
	input := `def inc(x: int) -> int:
    return x + 1

inc(1.5)
`
	out, a := analyze(t, input)
	if out != nil {
		t.Fatal("narrowing a Float argument into an Int hint must fail")
	}
	if !a.Diagnostics().HasErrors() {
		t.Fatal("expected an error record")
	}
}

func TestSentinelNarrowing(t *testing.T) {
	input := `def find(xs: list[int]) -> int:
    result = None
    for x in xs:
        if x > 10:
            result = x
            break
    if result is not None:
        return result
    return 0
`
	out, _ := analyzeOK(t, input)
	decl := funcDecl(t, out, "find")
	var resultDecl *ir.VarDecl
	for _, n := range decl.Body {
		if vd, ok := n.(*ir.VarDecl); ok && vd.Name == "result" {
			resultDecl = vd
		}
	}
	if resultDecl == nil {
		t.Fatal("no declaration for result")
	}
	opt, ok := resultDecl.Ty.(*typesystem.Optional)
	if !ok || !typesystem.Equal(opt.Inner, typesystem.Int) {
		t.Fatalf("result type = %s, want Optional(Int)", resultDecl.Ty)
	}
	if !resultDecl.Mutable {
		t.Fatal("result is reassigned and must be mutable")
	}
}

func TestBranchAssignmentHoists(t *testing.T) {
	input := `def pick(flag: bool) -> int:
    if flag:
        v = 1
    else:
        v = 2
    return v
`
	out, a := analyzeOK(t, input)
	sig := mustSig(t, a, "pick")
	if !typesystem.Equal(sig.Hoisted["v"], typesystem.Int) {
		t.Fatalf("hoisted v = %v, want Int", sig.Hoisted["v"])
	}
	decl := funcDecl(t, out, "pick")
	if len(decl.Hoisted) != 1 || decl.Hoisted[0].Name != "v" {
		t.Fatalf("hoisted decls = %+v", decl.Hoisted)
	}
	opt, ok := decl.Hoisted[0].Ty.(*typesystem.Optional)
	if !ok || !typesystem.Equal(opt.Inner, typesystem.Int) {
		t.Fatalf("hoisted type = %s, want Optional(Int)", decl.Hoisted[0].Ty)
	}
	branch, ok := decl.Body[0].(*ir.If)
	if !ok {
		t.Fatalf("body starts with %T, want *ir.If", decl.Body[0])
	}
	if _, ok := branch.Then[0].(*ir.Assign); !ok {
		t.Fatalf("branch assignment lowered as %T, want *ir.Assign", branch.Then[0])
	}
	ret, ok := decl.Body[1].(*ir.Return)
	if !ok {
		t.Fatalf("second statement is %T, want *ir.Return", decl.Body[1])
	}
	if _, ok := ret.Value.(*ir.Unwrap); !ok {
		t.Fatalf("hoisted read lowered as %T, want *ir.Unwrap", ret.Value)
	}
}

func TestMayFailPropagation(t *testing.T) {
	input := `def boom():
    raise ValueError("bad")

def outer():
    boom()

def safe():
    try:
        boom()
    except:
        pass
`
	_, a := analyzeOK(t, input)
	if !mustSig(t, a, "boom").MayFail {
		t.Fatal("boom raises and must be failing")
	}
	if !mustSig(t, a, "outer").MayFail {
		t.Fatal("outer calls boom unguarded and must be failing")
	}
	if mustSig(t, a, "safe").MayFail {
		t.Fatal("safe handles every failure and must be clean")
	}
}

func TestHandledRaiseStaysInside(t *testing.T) {
	input := `def f():
    try:
        raise ValueError("x")
    except:
        pass
    except ValueError:
        pass
`
	_, a := analyzeOK(t, input)
	if mustSig(t, a, "f").MayFail {
		t.Fatal("a raise under a catch-all never leaves the function")
	}
	sawUnreachable := false
	for _, d := range a.Diagnostics().All() {
		if d.Code == diagnostics.ErrE002 {
			sawUnreachable = true
		}
	}
	if !sawUnreachable {
		t.Fatal("expected an unreachable-handler warning")
	}
}

func TestBareRaiseOutsideHandler(t *testing.T) {
	input := `def bad():
    raise
`
	out, a := analyze(t, input)
	if out != nil {
		t.Fatal("a bare raise outside a handler must fail analysis")
	}
	found := false
	for _, d := range a.Diagnostics().All() {
		if d.Code == diagnostics.ErrE001 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected an E001 record")
	}
}

func TestFailureChaining(t *testing.T) {
	input := `def parse(s: str) -> int:
    raise ValueError("nope")

def convert(s: str) -> int:
    try:
        return parse(s)
    except ValueError as e:
        raise RuntimeError("convert failed") from e
`
	out, a := analyzeOK(t, input)
	if !mustSig(t, a, "convert").MayFail {
		t.Fatal("convert re-raises and must be failing")
	}
	decl := funcDecl(t, out, "convert")
	block, ok := decl.Body[0].(*ir.HandlerBlock)
	if !ok {
		t.Fatalf("body starts with %T, want *ir.HandlerBlock", decl.Body[0])
	}
	if len(block.Handlers) != 1 || block.Handlers[0].Bind != "e" {
		t.Fatalf("handlers = %+v", block.Handlers)
	}
	if got := block.Handlers[0].Kinds; len(got) != 1 || got[0] != "ValueError" {
		t.Fatalf("handler kinds = %v", got)
	}
	fail, ok := block.Handlers[0].Body[0].(*ir.Fail)
	if !ok {
		t.Fatalf("handler body starts with %T, want *ir.Fail", block.Handlers[0].Body[0])
	}
	if fail.Value.Kind != "RuntimeError" {
		t.Fatalf("failure kind = %q", fail.Value.Kind)
	}
	if fail.Value.Cause == nil {
		t.Fatal("the from-clause must chain the prior failure")
	}
}

func TestDispatchAndWorkerFlag(t *testing.T) {
	input := `import math

def hyp(a: float, b: float) -> float:
    return math.sqrt(a * a + b * b)

xs = [3.0, 4.0]
xs.append(5.0)
n = len(xs)
h = hyp(xs[0], xs[1])
`
	out, a := analyzeOK(t, input)
	if !out.RequiresWorker {
		t.Fatal("a delegated call must set the worker flag")
	}
	if len(out.DelegatedModules) != 1 || out.DelegatedModules[0] != "math" {
		t.Fatalf("delegated modules = %v", out.DelegatedModules)
	}
	if !mustSig(t, a, "hyp").MayFail {
		t.Fatal("a function with a delegated call must be failing")
	}
	ret := funcDecl(t, out, "hyp").Body[0].(*ir.Return)
	bridge, ok := ret.Value.(*ir.BridgeCall)
	if !ok {
		t.Fatalf("return value is %T, want *ir.BridgeCall", ret.Value)
	}
	if bridge.Target != "math.sqrt" || bridge.Module != "math" {
		t.Fatalf("bridge target = %s.%s", bridge.Module, bridge.Target)
	}
	var sawAppend, sawLen bool
	for _, n := range out.Entry.Body {
		switch s := n.(type) {
		case *ir.ExprStmt:
			if mc, ok := s.E.(*ir.MethodCall); ok && mc.Method == "append" && mc.Strategy == ir.DispatchStructural {
				sawAppend = true
			}
		case *ir.VarDecl:
			if mc, ok := s.Init.(*ir.MethodCall); ok && mc.Method == "len" && mc.Strategy == ir.DispatchStructural {
				sawLen = true
			}
		}
	}
	if !sawAppend || !sawLen {
		t.Fatalf("structural dispatch missing: append=%v len=%v", sawAppend, sawLen)
	}
	if !out.Entry.MayFail {
		t.Fatal("entry calls a failing function unguarded")
	}
}

func TestOwnershipModes(t *testing.T) {
	input := `def scale(xs: list[float], k: float) -> float:
    total = 0.0
    for x in xs:
        total += x * k
    return total

def keep(xs: list[int]) -> list[int]:
    return xs

def grow(xs: list[int]):
    xs.append(1)
`
	out, a := analyzeOK(t, input)
	scale := mustSig(t, a, "scale")
	if scale.Params[0].Mode != ir.PassBorrowed || scale.Params[0].Mutable {
		t.Fatalf("xs of scale: mode=%s mutable=%v, want borrowed immutable", scale.Params[0].Mode, scale.Params[0].Mutable)
	}
	if scale.Params[1].Mode != ir.PassOwned {
		t.Fatal("copy-typed parameters pass by value")
	}
	keep := mustSig(t, a, "keep")
	if keep.Params[0].Mode != ir.PassOwned {
		t.Fatal("a returned parameter must be owned")
	}
	grow := mustSig(t, a, "grow")
	if grow.Params[0].Mode != ir.PassBorrowed || !grow.Params[0].Mutable {
		t.Fatalf("xs of grow: mode=%s mutable=%v, want a mutable borrow", grow.Params[0].Mode, grow.Params[0].Mutable)
	}
	var totalDecl *ir.VarDecl
	for _, n := range funcDecl(t, out, "scale").Body {
		if vd, ok := n.(*ir.VarDecl); ok && vd.Name == "total" {
			totalDecl = vd
		}
	}
	if totalDecl == nil || !totalDecl.Mutable {
		t.Fatal("total is reassigned and must be mutable")
	}
}

func TestAggregatedDiagnostics(t *testing.T) {
	input := `a = q1
b = q2
c = q3
`
	out, a := analyze(t, input)
	if out != nil {
		t.Fatal("an erroring program must produce no output")
	}
	count := 0
	for _, d := range a.Diagnostics().All() {
		if d.Code == diagnostics.ErrT001 {
			count++
		}
	}
	if count != 3 {
		t.Fatalf("undefined-name records = %d, want 3 (one per line)", count)
	}
}

func TestAnalysisIsDeterministic(t *testing.T) {
	input := `import math

def area(r: float) -> float:
    return math.pi * r * r

def total(rs: list[float]) -> float:
    acc = 0.0
    for r in rs:
        acc += area(r)
    return acc

print(total([1.0, 2.0]))
`
	first, _ := analyzeOK(t, input)
	second, _ := analyzeOK(t, input)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two runs over the same source must produce identical programs")
	}
}

func TestRecordLowering(t *testing.T) {
	input := `class Point:
    x: float
    y: float

def shift(p: Point, dx: float) -> Point:
    return Point(p.x + dx, p.y)
`
	out, _ := analyzeOK(t, input)
	if len(out.Structs) != 1 || out.Structs[0].Name != "Point" {
		t.Fatalf("structs = %+v", out.Structs)
	}
	if len(out.Structs[0].Fields) != 2 {
		t.Fatalf("fields = %+v", out.Structs[0].Fields)
	}
	ret := funcDecl(t, out, "shift").Body[0].(*ir.Return)
	lit, ok := ret.Value.(*ir.StructLit)
	if !ok {
		t.Fatalf("return value is %T, want *ir.StructLit", ret.Value)
	}
	if len(lit.Fields) != 2 || lit.Fields[0].Name != "x" || lit.Fields[1].Name != "y" {
		t.Fatalf("struct fields = %+v", lit.Fields)
	}
}

func TestStridedSliceLeavesStructure(t *testing.T) {
	input := `def rev(xs: list[int]) -> list[int]:
    return xs[::-1]
`
	out, _ := analyzeOK(t, input)
	ret := funcDecl(t, out, "rev").Body[0].(*ir.Return)
	raw, ok := ret.Value.(*ir.RawFragment)
	if !ok {
		t.Fatalf("return value is %T, want *ir.RawFragment", ret.Value)
	}
	if raw.Text == "" {
		t.Fatal("fragment text must not be empty")
	}
	if _, isList := raw.Ty.(*typesystem.List); !isList {
		t.Fatalf("fragment type = %s, want a list", raw.Ty)
	}
}

func TestUnitSliceStaysStructural(t *testing.T) {
	input := `def head(xs: list[int]) -> list[int]:
    return xs[:2]
`
	out, _ := analyzeOK(t, input)
	ret := funcDecl(t, out, "head").Body[0].(*ir.Return)
	if _, ok := ret.Value.(*ir.SliceExpr); !ok {
		t.Fatalf("return value is %T, want *ir.SliceExpr", ret.Value)
	}
}

func TestDownwardSliceSwapsBounds(t *testing.T) {
	input := `def mid(xs: list[int]) -> list[int]:
    return xs[5:1:-1]
`
	out, _ := analyzeOK(t, input)
	ret := funcDecl(t, out, "mid").Body[0].(*ir.Return)
	raw, ok := ret.Value.(*ir.RawFragment)
	if !ok {
		t.Fatalf("return value is %T, want *ir.RawFragment", ret.Value)
	}
	if !strings.Contains(raw.Text, "xs[2..6]") || !strings.Contains(raw.Text, ".rev()") {
		t.Fatalf("fragment = %q, want a reversed walk over xs[2..6]", raw.Text)
	}
}

func TestEmptyDownwardSliceCollapses(t *testing.T) {
	input := `def nothing(xs: list[int]) -> list[int]:
    return xs[1:5:-1]
`
	out, _ := analyzeOK(t, input)
	ret := funcDecl(t, out, "nothing").Body[0].(*ir.Return)
	raw, ok := ret.Value.(*ir.RawFragment)
	if !ok {
		t.Fatalf("return value is %T, want *ir.RawFragment", ret.Value)
	}
	if !strings.Contains(raw.Text, "xs[0..0]") {
		t.Fatalf("fragment = %q, want an empty xs[0..0] walk", raw.Text)
	}
}

func TestBreakInsideTryIsRejected(t *testing.T) {
	input := `while True:
    try:
        break
    except ValueError:
        pass
`
	out, a := analyze(t, input)
	if out != nil {
		t.Fatal("an erroring program must produce no output")
	}
	found := false
	for _, d := range a.Diagnostics().All() {
		if d.Code == diagnostics.ErrL001 {
			found = true
		}
	}
	if !found {
		t.Fatalf("want an unsupported-construct record, got:\n%s", a.Diagnostics().Text())
	}
}

func TestContinueInsideHandlerIsRejected(t *testing.T) {
	input := `while True:
    try:
        raise ValueError("x")
    except ValueError:
        continue
`
	out, a := analyze(t, input)
	if out != nil {
		t.Fatal("an erroring program must produce no output")
	}
	found := false
	for _, d := range a.Diagnostics().All() {
		if d.Code == diagnostics.ErrL001 {
			found = true
		}
	}
	if !found {
		t.Fatalf("want an unsupported-construct record, got:\n%s", a.Diagnostics().Text())
	}
}

func TestLoopInsideTryKeepsBreak(t *testing.T) {
	input := `try:
    while True:
        break
except ValueError:
    pass
`
	analyzeOK(t, input)
}

func TestEntryGuardSplices(t *testing.T) {
	input := `def main():
    print("hi")

if __name__ == "__main__":
    main()
`
	out, _ := analyzeOK(t, input)
	if len(out.Entry.Body) != 1 {
		t.Fatalf("entry body length = %d, want 1", len(out.Entry.Body))
	}
	stmt, ok := out.Entry.Body[0].(*ir.ExprStmt)
	if !ok {
		t.Fatalf("entry statement is %T, want *ir.ExprStmt", out.Entry.Body[0])
	}
	call, ok := stmt.E.(*ir.Call)
	if !ok || call.Name != "main" || call.Strategy != ir.DispatchDirect {
		t.Fatalf("entry call = %+v", stmt.E)
	}
}
