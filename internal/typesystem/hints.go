package typesystem

// FromHint converts a source type annotation (name plus type parameters) into
// a Type. Capitalized unrecognized names are user-defined records; dotted
// names belong to external modules and stay Unknown here — calls against them
// resolve through dispatch, not through the type vocabulary.
func FromHint(name string, params []Type) Type {
	first := func(def Type) Type {
		if len(params) > 0 && params[0] != nil {
			return params[0]
		}
		return def
	}
	switch name {
	case "int":
		return Int
	case "float":
		return Float
	case "str":
		return String
	case "bool":
		return Bool
	case "None":
		return Unit
	case "list", "List":
		return &List{Elem: first(Unknown)}
	case "set", "Set":
		return &Set{Elem: first(Unknown)}
	case "tuple", "Tuple":
		if len(params) == 0 {
			return &List{Elem: Unknown}
		}
		return &Tuple{Elems: params}
	case "dict", "Dict":
		key, val := Unknown, Unknown
		if len(params) > 0 {
			key = params[0]
		}
		if len(params) > 1 {
			val = params[1]
		}
		return &Dict{Key: key, Value: val}
	case "Optional":
		return &Optional{Inner: first(Unknown)}
	case "Callable":
		var ps []Type
		ret := Unknown
		if len(params) > 0 {
			if tup, ok := params[0].(*Tuple); ok {
				ps = tup.Elems
			} else {
				ps = []Type{params[0]}
			}
		}
		if len(params) > 1 {
			ret = params[1]
		}
		return &Func{Params: ps, Ret: ret}
	}
	if name != "" && name[0] >= 'A' && name[0] <= 'Z' {
		return &Named{Name: name}
	}
	return Unknown
}

// Unify merges two pieces of call-site evidence for one parameter. It returns
// the combined type and whether the evidence agrees. Unknown on either side
// yields the other; a plain T against Optional(T) widens to Optional(T);
// any other disagreement in shape is a conflict (the caller flags the
// parameter ambiguous rather than guessing a widening).
func Unify(a, b Type) (Type, bool) {
	if a == nil || Equal(a, Unknown) {
		return b, true
	}
	if b == nil || Equal(b, Unknown) {
		return a, true
	}
	if Equal(a, Any) || Equal(b, Any) {
		return Any, true
	}
	if Equal(a, b) {
		return a, true
	}
	if opt, ok := a.(*Optional); ok {
		if inner, ok2 := Unify(opt.Inner, b); ok2 {
			return &Optional{Inner: inner}, true
		}
		return nil, false
	}
	if opt, ok := b.(*Optional); ok {
		if inner, ok2 := Unify(a, opt.Inner); ok2 {
			return &Optional{Inner: inner}, true
		}
		return nil, false
	}
	if Equal(a, Unit) {
		return &Optional{Inner: b}, true
	}
	if Equal(b, Unit) {
		return &Optional{Inner: a}, true
	}
	switch at := a.(type) {
	case *List:
		if bt, ok := b.(*List); ok {
			if elem, ok2 := Unify(at.Elem, bt.Elem); ok2 {
				return &List{Elem: elem}, true
			}
		}
	case *Set:
		if bt, ok := b.(*Set); ok {
			if elem, ok2 := Unify(at.Elem, bt.Elem); ok2 {
				return &Set{Elem: elem}, true
			}
		}
	case *Dict:
		if bt, ok := b.(*Dict); ok {
			key, okK := Unify(at.Key, bt.Key)
			val, okV := Unify(at.Value, bt.Value)
			if okK && okV {
				return &Dict{Key: key, Value: val}, true
			}
		}
	case *Tuple:
		if bt, ok := b.(*Tuple); ok && len(at.Elems) == len(bt.Elems) {
			elems := make([]Type, len(at.Elems))
			for i := range at.Elems {
				e, ok2 := Unify(at.Elems[i], bt.Elems[i])
				if !ok2 {
					return nil, false
				}
				elems[i] = e
			}
			return &Tuple{Elems: elems}, true
		}
	}
	return nil, false
}

// Promote applies the numeric promotion rule for a binary arithmetic
// operation: Int with Int stays Int, any Float operand makes the result
// Float. Non-numeric operands yield Unknown; narrowing never happens here.
func Promote(a, b Type) Type {
	if Equal(a, Float) || Equal(b, Float) {
		if IsNumeric(a) && IsNumeric(b) {
			return Float
		}
		return Unknown
	}
	if Equal(a, Int) && Equal(b, Int) {
		return Int
	}
	return Unknown
}
