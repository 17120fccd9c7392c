package rustbe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pylift/pylift/internal/ir"
	"github.com/pylift/pylift/internal/typesystem"
)

// paramForm is the concrete Rust shape a parameter takes. Borrowed
// containers and strings use slice forms; everything else passes by value.
type paramForm int

const (
	formValue paramForm = iota
	formSlice // &[T]
	formStr   // &str
	formRef   // &T
	formMut   // &mut T
)

// rustType renders an owned type.
func (r *Renderer) rustType(t typesystem.Type) string {
	switch ty := t.(type) {
	case *typesystem.List:
		return "Vec<" + r.rustType(ty.Elem) + ">"
	case *typesystem.Tuple:
		parts := make([]string, len(ty.Elems))
		for i, e := range ty.Elems {
			parts[i] = r.rustType(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *typesystem.Dict:
		r.usesHashMap = true
		return "HashMap<" + r.rustType(ty.Key) + ", " + r.rustType(ty.Value) + ">"
	case *typesystem.Set:
		r.usesHashSet = true
		return "HashSet<" + r.rustType(ty.Elem) + ">"
	case *typesystem.Optional:
		return "Option<" + r.rustType(ty.Inner) + ">"
	case *typesystem.Named:
		return ty.Name
	case *typesystem.Func:
		parts := make([]string, len(ty.Params))
		for i, p := range ty.Params {
			parts[i] = r.rustType(p)
		}
		return "fn(" + strings.Join(parts, ", ") + ") -> " + r.rustType(ty.Ret)
	}
	switch {
	case typesystem.Equal(t, typesystem.Int):
		return "i64"
	case typesystem.Equal(t, typesystem.Float):
		return "f64"
	case typesystem.Equal(t, typesystem.String):
		return "String"
	case typesystem.Equal(t, typesystem.Bool):
		return "bool"
	case typesystem.Equal(t, typesystem.Any):
		r.usesAny = true
		return "PyValue"
	}
	return "()"
}

// paramType renders a parameter slot per its pass mode and mutability,
// and reports the form the body must treat the name as.
func (r *Renderer) paramType(p ir.Param) (string, paramForm) {
	if p.Mode == ir.PassOwned {
		return r.rustType(p.Ty), formValue
	}
	switch ty := p.Ty.(type) {
	case *typesystem.List:
		if p.Mutable {
			return "&mut Vec<" + r.rustType(ty.Elem) + ">", formMut
		}
		return "&[" + r.rustType(ty.Elem) + "]", formSlice
	case *typesystem.Dict, *typesystem.Set, *typesystem.Named, *typesystem.Tuple, *typesystem.Optional:
		if p.Mutable {
			return "&mut " + r.rustType(p.Ty), formMut
		}
		return "&" + r.rustType(p.Ty), formRef
	}
	if typesystem.Equal(p.Ty, typesystem.String) {
		if p.Mutable {
			return "&mut String", formMut
		}
		return "&str", formStr
	}
	// scalars and worker values pass by value even when nominally borrowed
	return r.rustType(p.Ty), formValue
}

func isCopyType(t typesystem.Type) bool {
	return typesystem.Equal(t, typesystem.Int) ||
		typesystem.Equal(t, typesystem.Float) ||
		typesystem.Equal(t, typesystem.Bool) ||
		typesystem.Equal(t, typesystem.Unit)
}

// snakeCase converts camelCase and PascalCase names to Rust convention.
func snakeCase(name string) string {
	var b strings.Builder
	for i, c := range name {
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(c - 'A' + 'a')
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func intLit(v int64) string {
	return fmt.Sprintf("%di64", v)
}

func floatLit(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s + "f64"
}

func quoteStr(s string) string {
	return strconv.Quote(s)
}
