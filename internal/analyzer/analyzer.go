// Package analyzer resolves a parsed program into the normalized form the
// renderer consumes: every binding typed, every call's dispatch decided,
// every function's failure behavior settled, and parameter passing modes
// fixed. Analysis accumulates diagnostics instead of stopping; a program
// with any error-severity record produces no output at all.
package analyzer

import (
	"github.com/pylift/pylift/internal/ast"
	"github.com/pylift/pylift/internal/diagnostics"
	"github.com/pylift/pylift/internal/ir"
	"github.com/pylift/pylift/internal/typesystem"
)

type Analyzer struct {
	diags *diagnostics.Collection

	sigs        *SignatureTable
	structs     map[string]*StructInfo
	structOrder []*StructInfo
	resolver    *Resolver
	types       map[ast.Expression]typesystem.Type
	modules     []string
	moduleSet   map[string]bool
	entrySig    *FunctionSignature
	entry       []ast.Statement
	scopeRoot   *Scope
}

func New(diags *diagnostics.Collection) *Analyzer {
	if diags == nil {
		diags = diagnostics.NewCollection()
	}
	return &Analyzer{
		diags:     diags,
		sigs:      NewSignatureTable(),
		structs:   make(map[string]*StructInfo),
		resolver:  NewResolver(),
		types:     make(map[ast.Expression]typesystem.Type),
		moduleSet: make(map[string]bool),
	}
}

func (a *Analyzer) Diagnostics() *diagnostics.Collection { return a.diags }

// Signatures exposes the resolved function table; available after Analyze.
func (a *Analyzer) Signatures() *SignatureTable { return a.sigs }

// Analyze runs every phase over prog. It returns the lowered program, or
// nil when any phase recorded an error: a program that does not analyze
// cleanly produces no output, partial or otherwise.
func (a *Analyzer) Analyze(prog *ast.Program) *ir.Program {
	a.collect(prog)
	a.entrySig = &FunctionSignature{
		Name:    "<entry>",
		Ret:     typesystem.Unit,
		Hoisted: make(map[string]typesystem.Type),
		Mutated: make(map[string]bool),
		Escapes: make(map[string]bool),
	}

	first := a.runPass(1, prog, nil)
	a.unifyParams()
	second := a.runPass(2, prog, first.scopes.Root())
	a.entry = second.entry
	a.scopeRoot = second.scopes.Root()

	a.checkResolved()

	own := newOwnership(a.diags, a.types)
	own.Run(a.sigs, a.entry, a.entrySig)

	fail := newFailureAnalysis(a.diags, a.sigs, a.resolver, a.types)
	fail.Run(a.entry, a.entrySig)

	if a.diags.HasErrors() {
		return nil
	}

	low := newLowerer(a.diags, a.types, a.sigs, a.structs, a.resolver, a.collectDeclTypes())
	out := low.Run(a.structOrder, a.entry, a.entrySig, a.modules)
	if a.diags.HasErrors() {
		return nil
	}
	return out
}

func (a *Analyzer) runPass(pass int, prog *ast.Program, seed *Scope) *walker {
	w := newWalker(pass, a.diags, a.sigs, a.structs, a.resolver, a.types)
	w.entrySig = a.entrySig
	if seed != nil {
		w.seedGlobals(seed)
	}
	w.walkProgram(prog)
	return w
}

// collect registers every top-level definition and import before any body
// is analyzed, so order of definition never matters to resolution.
func (a *Analyzer) collect(prog *ast.Program) {
	for _, stmt := range prog.Statements {
		switch s := stmt.(type) {
		case *ast.FuncDef:
			if a.takenName(s.Name) {
				a.diags.Add(diagnostics.NewError(diagnostics.ErrT002, diagnostics.PhaseTypecheck, s.Token,
					"%q is defined twice", s.Name))
				continue
			}
			a.sigs.Register(declareSignature(s))
		case *ast.ClassDef:
			if a.takenName(s.Name) {
				a.diags.Add(diagnostics.NewError(diagnostics.ErrT002, diagnostics.PhaseTypecheck, s.Token,
					"%q is defined twice", s.Name))
				continue
			}
			a.collectStruct(s)
		case *ast.Import:
			a.resolver.AddModule(s.Module, s.Alias)
			a.addModule(s.Module)
		case *ast.FromImport:
			for _, name := range s.Names {
				a.resolver.AddImportedName(s.Module, name.Name, name.Alias)
			}
			a.addModule(s.Module)
		}
	}
}

func (a *Analyzer) takenName(name string) bool {
	if _, ok := a.sigs.Get(name); ok {
		return true
	}
	_, ok := a.structs[name]
	return ok
}

func (a *Analyzer) addModule(module string) {
	if !a.moduleSet[module] {
		a.moduleSet[module] = true
		a.modules = append(a.modules, module)
	}
}

// collectStruct reads a record-style class body: annotated field
// declarations only.
func (a *Analyzer) collectStruct(def *ast.ClassDef) {
	info := &StructInfo{
		Name:   def.Name,
		Tok:    def.Token,
		byName: make(map[string]typesystem.Type),
	}
	for _, stmt := range def.Body {
		if _, isPass := stmt.(*ast.Pass); isPass {
			continue
		}
		assign, ok := stmt.(*ast.Assign)
		if !ok || assign.Hint == nil {
			a.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, stmt.GetToken(),
				"class bodies may only hold annotated field declarations"))
			continue
		}
		id, ok := assign.Target.(*ast.Identifier)
		if !ok {
			a.diags.Add(diagnostics.NewError(diagnostics.ErrL001, diagnostics.PhaseTypecheck, assign.Token,
				"field declarations need a plain name"))
			continue
		}
		if _, dup := info.byName[id.Value]; dup {
			a.diags.Add(diagnostics.NewError(diagnostics.ErrT002, diagnostics.PhaseTypecheck, assign.Token,
				"field %q is declared twice in %s", id.Value, def.Name))
			continue
		}
		ty := typeFromHint(assign.Hint)
		info.Fields = append(info.Fields, ir.FieldDef{Name: id.Value, Ty: ty})
		info.byName[id.Value] = ty
	}
	a.structs[def.Name] = info
	a.structOrder = append(a.structOrder, info)
}

// unifyParams settles every unhinted parameter from the call-site evidence
// gathered during the first pass. Evidence that disagrees in shape does not
// guess a widening: the parameter is flagged ambiguous and falls back to
// the owned, worker-compatible form.
func (a *Analyzer) unifyParams() {
	for _, sig := range a.sigs.All() {
		for i, p := range sig.Params {
			if p.Hinted {
				continue
			}
			merged := p.Ty
			conflict := false
			var conflictAt *CallSite
			for _, cs := range sig.CallSites {
				if i >= len(cs.ArgTypes) {
					continue
				}
				next, ok := typesystem.Unify(merged, cs.ArgTypes[i])
				if !ok {
					conflict = true
					conflictAt = cs
					break
				}
				merged = next
			}
			if conflict {
				p.Ambiguous = true
				p.Ty = typesystem.Any
				a.diags.Add(diagnostics.NewWarning(diagnostics.ErrT004, diagnostics.PhaseTypecheck, conflictAt.Tok,
					"call sites disagree on the type of parameter %q of %s; passing it through the worker", p.Name, sig.Name))
				continue
			}
			if !typesystem.ContainsUnknown(merged) {
				p.Ty = merged
			}
		}
	}
}

// checkResolved rejects every binding that is read but never settled on a
// type. Reporting happens per binding, so one run surfaces all of them.
func (a *Analyzer) checkResolved() {
	for _, sig := range a.sigs.All() {
		for _, p := range sig.Params {
			if typesystem.ContainsUnknown(p.Ty) {
				a.diags.Add(diagnostics.NewError(diagnostics.ErrT005, diagnostics.PhaseTypecheck, sig.Tok,
					"cannot infer the type of parameter %q of %s; add a hint or a call", p.Name, sig.Name))
			}
		}
		if typesystem.ContainsUnknown(sig.Ret) {
			a.diags.Add(diagnostics.NewError(diagnostics.ErrT005, diagnostics.PhaseTypecheck, sig.Tok,
				"cannot infer the return type of %s", sig.Name))
		}
	}
	if a.scopeRoot != nil {
		a.checkScope(a.scopeRoot)
	}
}

func (a *Analyzer) checkScope(s *Scope) {
	for _, name := range s.order {
		b := s.bindings[name]
		if b.IsParam {
			continue
		}
		if b.Reads > 0 && typesystem.ContainsUnknown(b.Ty) {
			a.diags.Add(diagnostics.NewError(diagnostics.ErrT005, diagnostics.PhaseTypecheck, b.DeclTok,
				"cannot infer the type of %q", name))
		}
	}
	for _, child := range s.children {
		a.checkScope(child)
	}
}

// collectDeclTypes flattens the final scope tree into a declaration-site
// index, so lowering can declare each binding with the type it settled on
// rather than the initializer's.
func (a *Analyzer) collectDeclTypes() map[string]typesystem.Type {
	out := make(map[string]typesystem.Type)
	var visit func(s *Scope)
	visit = func(s *Scope) {
		for _, name := range s.order {
			b := s.bindings[name]
			out[declKey(b.DeclTok, name)] = b.Ty
		}
		for _, child := range s.children {
			visit(child)
		}
	}
	if a.scopeRoot != nil {
		visit(a.scopeRoot)
	}
	return out
}
