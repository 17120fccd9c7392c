package rustbe

import (
	"strings"
	"testing"

	"github.com/pylift/pylift/internal/analyzer"
	"github.com/pylift/pylift/internal/diagnostics"
	"github.com/pylift/pylift/internal/lexer"
	"github.com/pylift/pylift/internal/parser"
)

func render(t *testing.T, input string) string {
	t.Helper()
	diags := diagnostics.NewCollection()
	p := parser.New(lexer.New(input), diags)
	prog := p.ParseProgram()
	if diags.HasErrors() {
		t.Fatalf("unexpected parse errors:\n%s", diags.Text())
	}
	a := analyzer.New(diags)
	out := a.Analyze(prog)
	if out == nil {
		t.Fatalf("analysis failed:\n%s", diags.Text())
	}
	return Render(out)
}

func wantContains(t *testing.T, out string, snippets ...string) {
	t.Helper()
	for _, s := range snippets {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q\n---\n%s", s, out)
		}
	}
}

func wantNotContains(t *testing.T, out string, snippets ...string) {
	t.Helper()
	for _, s := range snippets {
		if strings.Contains(out, s) {
			t.Errorf("output should not contain %q\n---\n%s", s, out)
		}
	}
}

func TestRendersEntryGuard(t *testing.T) {
	out := render(t, `print(1 + 2)
`)
	wantContains(t, out,
		"fn main() {",
		"std::panic::catch_unwind(std::panic::AssertUnwindSafe(|| -> Result<(), PyFailure> {",
		"println!(\"{}\", 1i64 + 2i64);",
		"Ok(())",
		"eprintln!(\"InternalError: {}\", msg);",
	)
}

func TestBorrowedListParam(t *testing.T) {
	out := render(t, `def total(xs: list[int]) -> int:
    s = 0
    for x in xs:
        s = s + x
    return s

print(total([1, 2, 3]))
`)
	wantContains(t, out,
		"fn total(xs: &[i64]) -> i64 {",
		"for x in xs.iter().cloned() {",
		"total(&(vec![1i64, 2i64, 3i64]))",
	)
}

func TestOwnedParamTakesValue(t *testing.T) {
	out := render(t, `def keep(xs: list[int]) -> list[int]:
    return xs

ys = keep([1])
print(ys)
`)
	wantContains(t, out, "fn keep(xs: Vec<i64>) -> Vec<i64> {")
	wantNotContains(t, out, "fn keep(xs: &[i64])")
}

func TestUserMainIsRenamed(t *testing.T) {
	out := render(t, `def main() -> int:
    return 7

print(main())
`)
	wantContains(t, out, "fn py_main() -> i64 {", "py_main()")
	if strings.Count(out, "fn main()") != 1 {
		t.Errorf("expected exactly one entry point\n---\n%s", out)
	}
}

func TestFailingFunctionReturnsResult(t *testing.T) {
	out := render(t, `def pick(n: int) -> int:
    if n < 0:
        raise ValueError("negative")
    return n

print(pick(3))
`)
	wantContains(t, out,
		"fn pick(n: i64) -> Result<i64, PyFailure> {",
		"return Err(PyFailure::new(\"ValueError\", &format!(\"{}\", \"negative\"), 3, None));",
		"pick(3i64)?",
		"pub struct PyFailure {",
	)
}

func TestHandlerBlockMatchesKinds(t *testing.T) {
	out := render(t, `def risky(n: int) -> int:
    if n == 0:
        raise ZeroDivisionError("zero")
    return 10 // n

try:
    print(risky(0))
except ZeroDivisionError as e:
    print("caught")
`)
	wantContains(t, out,
		"let __outcome = (|| -> Result<(), PyFailure> {",
		"})();",
		"match __outcome {",
		"Err(__failure) if matches!(__failure.kind.as_str(), \"ZeroDivisionError\") => (|| -> Result<(), PyFailure> {",
		"let e = __failure;",
	)
}

func TestCatchAllHandlerHasNoPropagateArm(t *testing.T) {
	out := render(t, `def boom():
    raise RuntimeError("x")

try:
    boom()
except:
    print("handled")
`)
	wantContains(t, out, "Err(__failure) => (|| -> Result<(), PyFailure> {")
	wantNotContains(t, out, "Err(__failure) => Err(__failure),")
}

func TestFinallyRunsOnEveryPath(t *testing.T) {
	out := render(t, `def work(n: int) -> int:
    if n == 0:
        raise ValueError("no")
    return n

try:
    work(1)
except ValueError:
    print("bad")
finally:
    print("done")
`)
	done := strings.Index(out, "println!(\"{}\", \"done\");")
	prop := strings.Index(out, "if let Err(__failure) = __handled")
	if done < 0 || prop < 0 || done > prop {
		t.Errorf("finally body should run before the failure propagates\n---\n%s", out)
	}
}

func TestHandlerReturnRunsFinally(t *testing.T) {
	out := render(t, `def parse(n: int) -> int:
    if n < 0:
        raise ValueError("neg")
    return n

def parse_or_zero(n: int) -> int:
    try:
        return parse(n)
    except ValueError:
        return 0
    finally:
        print("done")

print(parse_or_zero(-1))
`)
	ret := strings.Index(out, "__ret = Some(0i64);")
	done := strings.Index(out, "println!(\"{}\", \"done\");")
	use := strings.Index(out, "if let Some(__v) = __ret { return Ok(__v); }")
	if ret < 0 || done < 0 || use < 0 {
		t.Fatalf("missing handler capture, finally body, or slot check\n---\n%s", out)
	}
	if ret > done || done > use {
		t.Errorf("a handler return must reach the finally body before the function exits\n---\n%s", out)
	}
}

func TestValueFunctionEndingInHandlerBlockHasTail(t *testing.T) {
	out := render(t, `def parse(n: int) -> int:
    if n < 0:
        raise ValueError("neg")
    return n

def parse_or_zero(n: int) -> int:
    try:
        return parse(n)
    except ValueError:
        return 0

print(parse_or_zero(7))
`)
	wantContains(t, out,
		"fn parse_or_zero(n: i64) -> Result<i64, PyFailure> {",
		"unreachable!()",
	)
}

func TestGuardedReturnIsCaptured(t *testing.T) {
	out := render(t, `def fetch(n: int) -> int:
    try:
        if n > 0:
            return n
        raise ValueError("neg")
    except ValueError:
        return 0
`)
	wantContains(t, out,
		"let mut __ret: Option<i64> = None;",
		"__ret = Some(n);",
		"if let Some(__v) = __ret { return Ok(__v); }",
	)
}

func TestBridgeThreading(t *testing.T) {
	out := render(t, `import math

def hyp(a: float, b: float) -> float:
    return math.sqrt(a * a + b * b)

print(hyp(3.0, 4.0))
`)
	wantContains(t, out,
		"use pylift_bridge::{Bridge, PyValue};",
		"let mut bridge = Bridge::start()?;",
		"bridge.import(\"math\")?;",
		"fn hyp(bridge: &mut Bridge, a: f64, b: f64) -> Result<f64, PyFailure> {",
		"bridge.call(\"math.sqrt\", vec![PyValue::from((a * a) + (b * b))])?",
		"hyp(&mut bridge, 3.0f64, 4.0f64)?",
	)
}

func TestModuleAttributeFetch(t *testing.T) {
	out := render(t, `import math

print(math.pi)
`)
	wantContains(t, out, "bridge.get_attribute(\"math.pi\")?")
}

func TestHoistedBranchAssignment(t *testing.T) {
	out := render(t, `flag = True
if flag:
    v = 1
else:
    v = 2
print(v)
`)
	wantContains(t, out,
		"let mut v: Option<i64> = None;",
		"v = Some(1i64);",
		"v.unwrap()",
	)
}

func TestStridedSliceFragment(t *testing.T) {
	out := render(t, `xs = [1, 2, 3]
ys = xs[::-1]
print(ys)
`)
	wantContains(t, out, "xs[..].iter().rev().cloned().collect::<Vec<_>>()")
}

func TestStructDefinition(t *testing.T) {
	out := render(t, `class Point:
    x: int
    y: int

p = Point(1, 2)
print(p.x)
`)
	wantContains(t, out,
		"#[derive(Debug, Clone)]",
		"struct Point {",
		"x: i64,",
		"Point { x: 1i64, y: 2i64 }",
		"p.x",
	)
}

func TestDictAndSetImports(t *testing.T) {
	out := render(t, `d = {"a": 1}
s = {1, 2}
print(len(d) + len(s))
`)
	wantContains(t, out,
		"use std::collections::{HashMap, HashSet};",
		"HashMap<String, i64>",
		"HashSet<i64>",
	)
}

func TestRangeLoopForms(t *testing.T) {
	out := render(t, `for i in range(5):
    print(i)
for j in range(10, 0, -1):
    print(j)
`)
	wantContains(t, out,
		"for i in (0i64)..(5i64) {",
		"for j in (((0i64) + 1)..((10i64) + 1)).rev() {",
	)
}

func TestRenderIsDeterministic(t *testing.T) {
	input := `import math
import json

def area(r: float) -> float:
    return math.pi * r * r

print(area(2.0))
print(json.dumps([1]))
`
	first := render(t, input)
	second := render(t, input)
	if first != second {
		t.Errorf("two renders of the same program differ")
	}
}
