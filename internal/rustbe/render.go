// Package rustbe renders the normalized program into Rust source text.
//
// The renderer is a pure printer: every type, pass mode, and dispatch
// strategy was resolved during analysis, and nothing here re-inspects the
// source program. The one piece of plumbing it owns is threading the
// worker bridge handle through the functions that need it, which is a
// property of the output language, not of the program's meaning.
package rustbe

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/pylift/pylift/internal/ir"
	"github.com/pylift/pylift/internal/typesystem"
)

// failureDef is the failure value type shared by every generated program
// that can fail. Kind carries the source exception class name; cause chains
// one failure into another for raise-from.
const failureDef = `#[derive(Debug, Clone)]
pub struct PyFailure {
    pub kind: String,
    pub message: String,
    pub line: usize,
    pub cause: Option<Box<PyFailure>>,
}

impl PyFailure {
    pub fn new(kind: &str, message: &str, line: usize, cause: Option<PyFailure>) -> Self {
        Self {
            kind: kind.to_string(),
            message: message.to_string(),
            line,
            cause: cause.map(Box::new),
        }
    }
}

impl std::fmt::Display for PyFailure {
    fn fmt(&self, f: &mut std::fmt::Formatter<'_>) -> std::fmt::Result {
        if self.line > 0 {
            write!(f, "[line {}] ", self.line)?;
        }
        write!(f, "{}: {}", self.kind, self.message)?;
        if let Some(cause) = &self.cause {
            write!(f, "\n  Caused by: {}", cause)?;
        }
        Ok(())
    }
}

impl std::error::Error for PyFailure {
    fn source(&self) -> Option<&(dyn std::error::Error + 'static)> {
        self.cause.as_ref().map(|c| c.as_ref() as &(dyn std::error::Error + 'static))
    }
}`

// pyValueStub is emitted for standalone builds where ambiguous values
// exist but no worker is provisioned; with a worker, PyValue comes from
// the bridge runtime crate instead.
const pyValueStub = `#[allow(dead_code)]
#[derive(Debug, Clone, PartialEq)]
pub enum PyValue {
    None,
    Int(i64),
    Float(f64),
    Bool(bool),
    Str(String),
    List(Vec<PyValue>),
}

impl PyValue {
    pub fn truthy(&self) -> bool {
        match self {
            PyValue::None => false,
            PyValue::Int(i) => *i != 0,
            PyValue::Float(f) => *f != 0.0,
            PyValue::Bool(b) => *b,
            PyValue::Str(s) => !s.is_empty(),
            PyValue::List(l) => !l.is_empty(),
        }
    }
    pub fn as_i64(&self) -> Option<i64> { if let PyValue::Int(i) = self { Some(*i) } else { None } }
    pub fn as_f64(&self) -> Option<f64> { match self { PyValue::Float(f) => Some(*f), PyValue::Int(i) => Some(*i as f64), _ => None } }
}

impl From<i64> for PyValue { fn from(v: i64) -> Self { PyValue::Int(v) } }
impl From<f64> for PyValue { fn from(v: f64) -> Self { PyValue::Float(v) } }
impl From<bool> for PyValue { fn from(v: bool) -> Self { PyValue::Bool(v) } }
impl From<String> for PyValue { fn from(v: String) -> Self { PyValue::Str(v) } }
impl<T: Into<PyValue>> From<Vec<T>> for PyValue {
    fn from(v: Vec<T>) -> Self { PyValue::List(v.into_iter().map(|e| e.into()).collect()) }
}

impl std::fmt::Display for PyValue {
    fn fmt(&self, f: &mut std::fmt::Formatter<'_>) -> std::fmt::Result {
        match self {
            PyValue::None => write!(f, "None"),
            PyValue::Int(i) => write!(f, "{}", i),
            PyValue::Float(v) => write!(f, "{}", v),
            PyValue::Bool(b) => write!(f, "{}", if *b { "True" } else { "False" }),
            PyValue::Str(s) => write!(f, "{}", s),
            PyValue::List(l) => {
                write!(f, "[")?;
                for (i, e) in l.iter().enumerate() {
                    if i > 0 { write!(f, ", ")?; }
                    write!(f, "{}", e)?;
                }
                write!(f, "]")
            }
        }
    }
}`

// Renderer prints one normalized program.
type Renderer struct {
	prog   *ir.Program
	buf    bytes.Buffer
	indent int

	funcs       map[string]*ir.FuncDecl
	needsBridge map[string]bool

	// current function state
	fn         *ir.FuncDecl
	mayFail    bool
	inGuard    bool
	retStack   []string
	failureVar string
	forms      map[string]paramForm
	// bridgeLocal is true while rendering main, where the bridge handle
	// is an owned local rather than a &mut parameter.
	bridgeLocal bool

	usesHashMap bool
	usesHashSet bool
	usesAny     bool
	usesFailure bool
}

// Render prints prog as a complete Rust source file.
func Render(prog *ir.Program) string {
	r := &Renderer{
		prog:        prog,
		funcs:       make(map[string]*ir.FuncDecl, len(prog.Funcs)),
		needsBridge: make(map[string]bool),
	}
	for _, f := range prog.Funcs {
		r.funcs[f.Name] = f
	}
	r.resolveBridgeNeeds()

	var body bytes.Buffer
	for _, s := range prog.Structs {
		body.WriteString(r.renderStruct(s))
		body.WriteString("\n")
	}
	for _, f := range prog.Funcs {
		body.WriteString(r.renderFunc(f))
		body.WriteString("\n")
	}
	if prog.Entry != nil {
		body.WriteString(r.renderMain(prog.Entry))
		body.WriteString("\n")
	}

	var out bytes.Buffer
	r.writePreamble(&out)
	out.Write(body.Bytes())
	return out.String()
}

// resolveBridgeNeeds decides which functions take the bridge handle: any
// function whose body reaches the worker boundary, directly or through a
// call to another bridge-taking function.
func (r *Renderer) resolveBridgeNeeds() {
	for _, f := range r.prog.Funcs {
		if nodesTouchBridge(f.Body) {
			r.needsBridge[f.Name] = true
		}
	}
	for pass := 0; pass <= len(r.prog.Funcs); pass++ {
		changed := false
		for _, f := range r.prog.Funcs {
			if r.needsBridge[f.Name] {
				continue
			}
			if r.callsBridgeTaker(f.Body) {
				r.needsBridge[f.Name] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}
}

func (r *Renderer) callsBridgeTaker(nodes []ir.Node) bool {
	found := false
	walkNodes(nodes, func(e ir.Expr) {
		if c, ok := e.(*ir.Call); ok && c.Strategy == ir.DispatchDirect && r.needsBridge[c.Name] {
			found = true
		}
	})
	return found
}

func nodesTouchBridge(nodes []ir.Node) bool {
	found := false
	walkNodes(nodes, func(e ir.Expr) {
		switch v := e.(type) {
		case *ir.BridgeCall:
			found = true
		case *ir.MethodCall:
			if v.Strategy == ir.DispatchDelegated {
				found = true
			}
		}
	})
	return found
}

func (r *Renderer) writePreamble(out *bytes.Buffer) {
	if r.usesHashMap && r.usesHashSet {
		out.WriteString("use std::collections::{HashMap, HashSet};\n")
	} else if r.usesHashMap {
		out.WriteString("use std::collections::HashMap;\n")
	} else if r.usesHashSet {
		out.WriteString("use std::collections::HashSet;\n")
	}
	if r.prog.RequiresWorker {
		out.WriteString("use pylift_bridge::{Bridge, PyValue};\n")
	}
	if out.Len() > 0 {
		out.WriteString("\n")
	}
	if r.usesFailure {
		out.WriteString(failureDef)
		out.WriteString("\n\n")
	}
	if r.usesAny && !r.prog.RequiresWorker {
		out.WriteString(pyValueStub)
		out.WriteString("\n\n")
	}
}

func (r *Renderer) renderStruct(s *ir.StructDef) string {
	var b strings.Builder
	b.WriteString("#[derive(Debug, Clone)]\n")
	fmt.Fprintf(&b, "struct %s {\n", s.Name)
	for _, f := range s.Fields {
		fmt.Fprintf(&b, "    %s: %s,\n", snakeCase(f.Name), r.rustType(f.Ty))
	}
	b.WriteString("}\n")
	return b.String()
}

// funcName maps a user function name to its Rust name. A source-level
// "main" is renamed so it cannot collide with the generated entry point.
func funcName(name string) string {
	if name == "main" {
		return "py_main"
	}
	return snakeCase(name)
}

func (r *Renderer) renderFunc(f *ir.FuncDecl) string {
	r.fn = f
	r.mayFail = f.MayFail
	r.inGuard = false
	r.retStack = nil
	r.bridgeLocal = false
	r.forms = make(map[string]paramForm, len(f.Params))
	r.buf.Reset()
	r.indent = 1

	params := make([]string, 0, len(f.Params)+1)
	if r.needsBridge[f.Name] {
		params = append(params, "bridge: &mut Bridge")
	}
	for _, p := range f.Params {
		ty, form := r.paramType(p)
		r.forms[p.Name] = form
		name := snakeCase(p.Name)
		if form == formValue && p.Mutable {
			name = "mut " + name
		}
		params = append(params, name+": "+ty)
	}

	ret := r.rustType(f.Ret)
	if f.MayFail {
		r.usesFailure = true
		ret = "Result<" + ret + ", PyFailure>"
	}

	for _, h := range f.Hoisted {
		r.line("let mut %s: %s = None;", snakeCase(h.Name), r.rustType(h.Ty))
	}
	r.emitNodes(f.Body)
	if typesystem.Equal(f.Ret, typesystem.Unit) {
		if f.MayFail {
			r.line("Ok(())")
		}
	} else if !nodesTerminate(f.Body) {
		// Every remaining path has already returned through a capture
		// slot or raised, but rustc still wants a tail expression.
		r.line("unreachable!()")
	}

	body := r.buf.String()
	r.fn = nil
	return fmt.Sprintf("fn %s(%s) -> %s {\n%s}\n", funcName(f.Name), strings.Join(params, ", "), ret, body)
}

// renderMain emits the fixed entry point: the module statements run inside
// a result-returning closure wrapped in the opaque-fault guard, so an
// unhandled failure prints and exits while a genuine internal fault is
// reported as InternalError. This guard exists only here.
func (r *Renderer) renderMain(entry *ir.FuncDecl) string {
	r.fn = entry
	r.mayFail = true
	r.inGuard = false
	r.retStack = nil
	r.bridgeLocal = true
	r.usesFailure = true
	r.forms = map[string]paramForm{}
	r.buf.Reset()
	r.indent = 2

	if r.prog.RequiresWorker {
		r.line("let mut bridge = Bridge::start()?;")
		mods := append([]string(nil), r.prog.DelegatedModules...)
		sort.Strings(mods)
		for _, m := range mods {
			r.line("bridge.import(%s)?;", quoteStr(m))
		}
	}
	for _, h := range entry.Hoisted {
		r.line("let mut %s: %s = None;", snakeCase(h.Name), r.rustType(h.Ty))
	}
	r.emitNodes(entry.Body)
	r.line("Ok(())")
	body := r.buf.String()
	r.fn = nil

	var b strings.Builder
	b.WriteString("fn main() {\n")
	b.WriteString("    let outcome = std::panic::catch_unwind(std::panic::AssertUnwindSafe(|| -> Result<(), PyFailure> {\n")
	b.WriteString(body)
	b.WriteString("    }));\n")
	b.WriteString("    match outcome {\n")
	b.WriteString("        Ok(Ok(())) => {}\n")
	b.WriteString("        Ok(Err(failure)) => {\n")
	b.WriteString("            eprintln!(\"{}\", failure);\n")
	b.WriteString("            std::process::exit(1);\n")
	b.WriteString("        }\n")
	b.WriteString("        Err(panic) => {\n")
	b.WriteString("            let msg = if let Some(s) = panic.downcast_ref::<&str>() {\n")
	b.WriteString("                s.to_string()\n")
	b.WriteString("            } else if let Some(s) = panic.downcast_ref::<String>() {\n")
	b.WriteString("                s.clone()\n")
	b.WriteString("            } else {\n")
	b.WriteString("                \"unknown fault\".to_string()\n")
	b.WriteString("            };\n")
	b.WriteString("            eprintln!(\"InternalError: {}\", msg);\n")
	b.WriteString("            std::process::exit(1);\n")
	b.WriteString("        }\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")
	return b.String()
}

func (r *Renderer) line(format string, args ...interface{}) {
	for i := 0; i < r.indent; i++ {
		r.buf.WriteString("    ")
	}
	fmt.Fprintf(&r.buf, format, args...)
	r.buf.WriteString("\n")
}
