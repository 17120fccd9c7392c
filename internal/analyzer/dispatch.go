package analyzer

import (
	"github.com/pylift/pylift/internal/ir"
	"github.com/pylift/pylift/internal/typesystem"
)

// Resolution is the baked-in dispatch decision for one call site.
type Resolution struct {
	Strategy ir.DispatchStrategy
	// Method names the structural method for DispatchStructural.
	Method string
	// Target is the fully qualified worker-side name for
	// DispatchDelegated.
	Target string
	// Ret resolves the call's type from the argument types.
	Ret func(args []typesystem.Type) typesystem.Type
}

// Resolver decides, once per call target, which backend generates the call.
// Resolution is per target, never per module: two names from the same
// external namespace may take different strategies.
type Resolver struct {
	// imported module aliases; calls against them always delegate
	modules map[string]string
	// names pulled in by from-imports: alias -> qualified target
	imported map[string]string
	requiresWorker bool
}

func NewResolver() *Resolver {
	return &Resolver{
		modules:  make(map[string]string),
		imported: make(map[string]string),
	}
}

// AddModule registers `import module [as alias]`.
func (r *Resolver) AddModule(module, alias string) {
	if alias == "" {
		alias = module
	}
	r.modules[alias] = module
}

// AddImportedName registers one name of `from module import name [as alias]`.
func (r *Resolver) AddImportedName(module, name, alias string) {
	if alias == "" {
		alias = name
	}
	r.imported[alias] = module + "." + name
}

// IsModuleAlias reports whether name is a registered module alias.
func (r *Resolver) IsModuleAlias(name string) bool {
	_, ok := r.modules[name]
	return ok
}

// Modules returns registered module names in no particular order.
func (r *Resolver) Modules() []string {
	out := make([]string, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, m)
	}
	return out
}

// RequiresWorker reports whether any resolution fell through to the
// delegated strategy during this run.
func (r *Resolver) RequiresWorker() bool { return r.requiresWorker }

// Resolve maps a free call target to its strategy. Priority, first match
// wins: an intrinsic table entry, then a verified structural-method entry,
// then delegation. Targets absent from every table delegate too; delegation
// is the mandatory fallback, never an error.
func (r *Resolver) Resolve(target string, argTypes []typesystem.Type) Resolution {
	if spec, ok := builtinsByName[target]; ok {
		switch spec.Kind {
		case KindIntrinsic:
			return Resolution{Strategy: ir.DispatchIntrinsic, Ret: spec.Ret}
		case KindStructuralMethod:
			return Resolution{Strategy: ir.DispatchStructural, Method: spec.Method, Ret: spec.Ret}
		case KindDelegated:
			r.requiresWorker = true
			return Resolution{Strategy: ir.DispatchDelegated, Target: spec.Target, Ret: spec.Ret}
		}
	}
	if qualified, ok := r.imported[target]; ok {
		r.requiresWorker = true
		return Resolution{Strategy: ir.DispatchDelegated, Target: qualified, Ret: fixedRet(typesystem.Any)}
	}
	r.requiresWorker = true
	return Resolution{Strategy: ir.DispatchDelegated, Target: target, Ret: fixedRet(typesystem.Any)}
}

// ResolveMethod maps a method call target. A verified structural method on
// a known native receiver wins; everything else, including every call on a
// worker-held value or module alias, delegates.
func (r *Resolver) ResolveMethod(recv typesystem.Type, method string) Resolution {
	if info := lookupMethod(recv, method); info != nil {
		return Resolution{
			Strategy: ir.DispatchStructural,
			Method:   info.Name,
			Ret: func(args []typesystem.Type) typesystem.Type {
				return info.Ret(recv, args)
			},
		}
	}
	r.requiresWorker = true
	return Resolution{Strategy: ir.DispatchDelegated, Target: method, Ret: fixedRet(typesystem.Any)}
}

// ResolveModuleAttr maps a bare alias.attr value read to its worker
// target. Attribute reads on a module fetch through the bridge just like
// calls do.
func (r *Resolver) ResolveModuleAttr(alias, attr string) (module, target string) {
	r.requiresWorker = true
	module = r.modules[alias]
	return module, module + "." + attr
}

// ResolveModuleCall maps alias.name(...) for a registered module alias.
func (r *Resolver) ResolveModuleCall(alias, name string) Resolution {
	module := r.modules[alias]
	r.requiresWorker = true
	return Resolution{
		Strategy: ir.DispatchDelegated,
		Target:   module + "." + name,
		Ret:      fixedRet(typesystem.Any),
	}
}
