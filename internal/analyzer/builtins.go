package analyzer

import (
	"github.com/pylift/pylift/internal/typesystem"
)

// BuiltinKind selects how a recognized call target is generated.
type BuiltinKind int

const (
	// KindIntrinsic compiles to a direct native construct.
	KindIntrinsic BuiltinKind = iota
	// KindStructuralMethod compiles to a call on the first argument's
	// native representation.
	KindStructuralMethod
	// KindDelegated routes through the runtime worker.
	KindDelegated
)

// BuiltinSpec declares how one builtin call target behaves: its strategy,
// argument arity, and a pure resolver from argument types to the return
// type. The table below is the sole source of truth for builtins; the
// analyzer never special-cases a builtin outside it.
type BuiltinSpec struct {
	Name   string
	Kind   BuiltinKind
	Method string // for KindStructuralMethod
	Target string // for KindDelegated
	// argument count bounds; MaxArgs < 0 means variadic
	MinArgs int
	MaxArgs int
	Ret     func(args []typesystem.Type) typesystem.Type
}

func fixedRet(t typesystem.Type) func([]typesystem.Type) typesystem.Type {
	return func([]typesystem.Type) typesystem.Type { return t }
}

func firstArgRet(def typesystem.Type) func([]typesystem.Type) typesystem.Type {
	return func(args []typesystem.Type) typesystem.Type {
		if len(args) == 0 || typesystem.Equal(args[0], typesystem.Unknown) {
			return def
		}
		return args[0]
	}
}

func elemRet(def typesystem.Type) func([]typesystem.Type) typesystem.Type {
	return func(args []typesystem.Type) typesystem.Type {
		if len(args) == 0 {
			return def
		}
		switch t := args[0].(type) {
		case *typesystem.List:
			return t.Elem
		case *typesystem.Set:
			return t.Elem
		}
		return def
	}
}

var builtinSpecs = []*BuiltinSpec{
	{Name: "len", Kind: KindStructuralMethod, Method: "len", MinArgs: 1, MaxArgs: 1, Ret: fixedRet(typesystem.Int)},
	{Name: "abs", Kind: KindStructuralMethod, Method: "abs", MinArgs: 1, MaxArgs: 1, Ret: firstArgRet(typesystem.Int)},
	{Name: "print", Kind: KindIntrinsic, MinArgs: 0, MaxArgs: -1, Ret: fixedRet(typesystem.Unit)},
	{Name: "range", Kind: KindIntrinsic, MinArgs: 1, MaxArgs: 3, Ret: fixedRet(&typesystem.List{Elem: typesystem.Int})},
	{Name: "int", Kind: KindIntrinsic, MinArgs: 1, MaxArgs: 1, Ret: fixedRet(typesystem.Int)},
	{Name: "float", Kind: KindIntrinsic, MinArgs: 1, MaxArgs: 1, Ret: fixedRet(typesystem.Float)},
	{Name: "str", Kind: KindIntrinsic, MinArgs: 1, MaxArgs: 1, Ret: fixedRet(typesystem.String)},
	{Name: "bool", Kind: KindIntrinsic, MinArgs: 1, MaxArgs: 1, Ret: fixedRet(typesystem.Bool)},
	{Name: "sum", Kind: KindIntrinsic, MinArgs: 1, MaxArgs: 2, Ret: elemRet(typesystem.Int)},
	{Name: "min", Kind: KindIntrinsic, MinArgs: 1, MaxArgs: -1, Ret: minMaxRet},
	{Name: "max", Kind: KindIntrinsic, MinArgs: 1, MaxArgs: -1, Ret: minMaxRet},
	{Name: "round", Kind: KindIntrinsic, MinArgs: 1, MaxArgs: 2, Ret: func(args []typesystem.Type) typesystem.Type {
		if len(args) >= 2 {
			return typesystem.Float
		}
		return typesystem.Int
	}},
	{Name: "all", Kind: KindIntrinsic, MinArgs: 1, MaxArgs: 1, Ret: fixedRet(typesystem.Bool)},
	{Name: "any", Kind: KindIntrinsic, MinArgs: 1, MaxArgs: 1, Ret: fixedRet(typesystem.Bool)},
	{Name: "sorted", Kind: KindIntrinsic, MinArgs: 1, MaxArgs: 1, Ret: firstArgRet(&typesystem.List{Elem: typesystem.Unknown})},
	{Name: "list", Kind: KindIntrinsic, MinArgs: 0, MaxArgs: 1, Ret: firstArgRet(&typesystem.List{Elem: typesystem.Unknown})},
	{Name: "dict", Kind: KindIntrinsic, MinArgs: 0, MaxArgs: 1, Ret: firstArgRet(&typesystem.Dict{Key: typesystem.Unknown, Value: typesystem.Unknown})},
	{Name: "set", Kind: KindIntrinsic, MinArgs: 0, MaxArgs: 1, Ret: func(args []typesystem.Type) typesystem.Type {
		if len(args) == 1 {
			if l, ok := args[0].(*typesystem.List); ok {
				return &typesystem.Set{Elem: l.Elem}
			}
		}
		return &typesystem.Set{Elem: typesystem.Unknown}
	}},
	{Name: "enumerate", Kind: KindIntrinsic, MinArgs: 1, MaxArgs: 2, Ret: func(args []typesystem.Type) typesystem.Type {
		elem := elemRet(typesystem.Unknown)(args)
		return &typesystem.List{Elem: &typesystem.Tuple{Elems: []typesystem.Type{typesystem.Int, elem}}}
	}},
	{Name: "zip", Kind: KindIntrinsic, MinArgs: 2, MaxArgs: -1, Ret: func(args []typesystem.Type) typesystem.Type {
		elems := make([]typesystem.Type, len(args))
		for i, a := range args {
			elems[i] = elemRet(typesystem.Unknown)([]typesystem.Type{a})
		}
		return &typesystem.List{Elem: &typesystem.Tuple{Elems: elems}}
	}},
	{Name: "reversed", Kind: KindIntrinsic, MinArgs: 1, MaxArgs: 1, Ret: firstArgRet(&typesystem.List{Elem: typesystem.Unknown})},
	{Name: "input", Kind: KindDelegated, Target: "builtins.input", MinArgs: 0, MaxArgs: 1, Ret: fixedRet(typesystem.String)},
	{Name: "open", Kind: KindDelegated, Target: "builtins.open", MinArgs: 1, MaxArgs: 2, Ret: fixedRet(typesystem.Any)},
}

func minMaxRet(args []typesystem.Type) typesystem.Type {
	if len(args) == 1 {
		return elemRet(typesystem.Unknown)(args)
	}
	return firstArgRet(typesystem.Unknown)(args)
}

var builtinsByName = func() map[string]*BuiltinSpec {
	m := make(map[string]*BuiltinSpec, len(builtinSpecs))
	for _, spec := range builtinSpecs {
		m[spec.Name] = spec
	}
	return m
}()

// MethodInfo describes one structural method on a native container or
// string representation.
type MethodInfo struct {
	Name     string
	Mutating bool
	MinArgs  int
	MaxArgs  int
	Ret      func(recv typesystem.Type, args []typesystem.Type) typesystem.Type
}

func unitMethod(name string, mutating bool, minArgs, maxArgs int) *MethodInfo {
	return &MethodInfo{
		Name: name, Mutating: mutating, MinArgs: minArgs, MaxArgs: maxArgs,
		Ret: func(typesystem.Type, []typesystem.Type) typesystem.Type { return typesystem.Unit },
	}
}

func retMethod(name string, minArgs, maxArgs int, f func(recv typesystem.Type) typesystem.Type) *MethodInfo {
	return &MethodInfo{
		Name: name, MinArgs: minArgs, MaxArgs: maxArgs,
		Ret: func(recv typesystem.Type, _ []typesystem.Type) typesystem.Type { return f(recv) },
	}
}

func constMethod(name string, minArgs, maxArgs int, t typesystem.Type) *MethodInfo {
	return retMethod(name, minArgs, maxArgs, func(typesystem.Type) typesystem.Type { return t })
}

var listMethods = map[string]*MethodInfo{
	"append":  unitMethod("append", true, 1, 1),
	"extend":  unitMethod("extend", true, 1, 1),
	"insert":  unitMethod("insert", true, 2, 2),
	"remove":  unitMethod("remove", true, 1, 1),
	"clear":   unitMethod("clear", true, 0, 0),
	"sort":    unitMethod("sort", true, 0, 0),
	"reverse": unitMethod("reverse", true, 0, 0),
	"pop": {Name: "pop", Mutating: true, MinArgs: 0, MaxArgs: 1,
		Ret: func(recv typesystem.Type, _ []typesystem.Type) typesystem.Type { return listElem(recv) }},
	"copy":  retMethod("copy", 0, 0, func(recv typesystem.Type) typesystem.Type { return recv }),
	"index": constMethod("index", 1, 1, typesystem.Int),
	"count": constMethod("count", 1, 1, typesystem.Int),
}

var dictMethods = map[string]*MethodInfo{
	"get": retMethod("get", 1, 2, func(recv typesystem.Type) typesystem.Type {
		if d, ok := recv.(*typesystem.Dict); ok {
			return &typesystem.Optional{Inner: d.Value}
		}
		return typesystem.Unknown
	}),
	"keys": retMethod("keys", 0, 0, func(recv typesystem.Type) typesystem.Type {
		if d, ok := recv.(*typesystem.Dict); ok {
			return &typesystem.List{Elem: d.Key}
		}
		return typesystem.Unknown
	}),
	"values": retMethod("values", 0, 0, func(recv typesystem.Type) typesystem.Type {
		if d, ok := recv.(*typesystem.Dict); ok {
			return &typesystem.List{Elem: d.Value}
		}
		return typesystem.Unknown
	}),
	"items": retMethod("items", 0, 0, func(recv typesystem.Type) typesystem.Type {
		if d, ok := recv.(*typesystem.Dict); ok {
			return &typesystem.List{Elem: &typesystem.Tuple{Elems: []typesystem.Type{d.Key, d.Value}}}
		}
		return typesystem.Unknown
	}),
	"pop": {Name: "pop", Mutating: true, MinArgs: 1, MaxArgs: 2,
		Ret: func(recv typesystem.Type, _ []typesystem.Type) typesystem.Type {
			if d, ok := recv.(*typesystem.Dict); ok {
				return d.Value
			}
			return typesystem.Unknown
		}},
	"clear":  unitMethod("clear", true, 0, 0),
	"update": unitMethod("update", true, 1, 1),
}

var setMethods = map[string]*MethodInfo{
	"add":     unitMethod("add", true, 1, 1),
	"discard": unitMethod("discard", true, 1, 1),
	"remove":  unitMethod("remove", true, 1, 1),
	"clear":   unitMethod("clear", true, 0, 0),
	"update":  unitMethod("update", true, 1, 1),
}

var stringMethods = map[string]*MethodInfo{
	"lower":      constMethod("lower", 0, 0, typesystem.String),
	"upper":      constMethod("upper", 0, 0, typesystem.String),
	"strip":      constMethod("strip", 0, 0, typesystem.String),
	"lstrip":     constMethod("lstrip", 0, 0, typesystem.String),
	"rstrip":     constMethod("rstrip", 0, 0, typesystem.String),
	"replace":    constMethod("replace", 2, 2, typesystem.String),
	"split":      constMethod("split", 0, 1, &typesystem.List{Elem: typesystem.String}),
	"join":       constMethod("join", 1, 1, typesystem.String),
	"startswith": constMethod("startswith", 1, 1, typesystem.Bool),
	"endswith":   constMethod("endswith", 1, 1, typesystem.Bool),
	"find":       constMethod("find", 1, 1, typesystem.Int),
}

func listElem(recv typesystem.Type) typesystem.Type {
	if l, ok := recv.(*typesystem.List); ok {
		return l.Elem
	}
	return typesystem.Unknown
}

// lookupMethod finds the structural method info for a receiver type, or nil
// when the receiver has no verified native equivalent for the name.
func lookupMethod(recv typesystem.Type, name string) *MethodInfo {
	switch recv.(type) {
	case *typesystem.List:
		return listMethods[name]
	case *typesystem.Dict:
		return dictMethods[name]
	case *typesystem.Set:
		return setMethods[name]
	}
	if typesystem.Equal(recv, typesystem.String) {
		return stringMethods[name]
	}
	return nil
}

// mutatingMethod reports whether calling name on a receiver of this type
// mutates the receiver. Used by the ownership scan.
func mutatingMethod(recv typesystem.Type, name string) bool {
	info := lookupMethod(recv, name)
	return info != nil && info.Mutating
}
