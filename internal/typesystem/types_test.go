package typesystem

import "testing"

func TestEqualStructural(t *testing.T) {
	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"scalars", Int, Int, true},
		{"scalar mismatch", Int, Float, false},
		{"lists", &List{Elem: Int}, &List{Elem: Int}, true},
		{"list elem mismatch", &List{Elem: Int}, &List{Elem: String}, false},
		{"tuples", &Tuple{Elems: []Type{Int, String}}, &Tuple{Elems: []Type{Int, String}}, true},
		{"tuple arity", &Tuple{Elems: []Type{Int}}, &Tuple{Elems: []Type{Int, Int}}, false},
		{"dicts", &Dict{Key: String, Value: Int}, &Dict{Key: String, Value: Int}, true},
		{"optionals", &Optional{Inner: Int}, &Optional{Inner: Int}, true},
		{"named", &Named{Name: "Point"}, &Named{Name: "Point"}, true},
		{"named mismatch", &Named{Name: "Point"}, &Named{Name: "Rect"}, false},
	}
	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: Equal(%s, %s) = %v, want %v", tt.name, tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCompatibleOptionalWrap(t *testing.T) {
	// A plain T fits an Optional(T) slot; lowering wraps the value.
	if !Compatible(Int, &Optional{Inner: Int}) {
		t.Errorf("Int should be compatible with Optional(Int)")
	}
	// The absent sentinel fits any Optional slot.
	if !Compatible(Unit, &Optional{Inner: String}) {
		t.Errorf("Unit should be compatible with Optional(String)")
	}
	if Compatible(String, &Optional{Inner: Int}) {
		t.Errorf("String should not be compatible with Optional(Int)")
	}
}

func TestFromHint(t *testing.T) {
	tests := []struct {
		name   string
		params []Type
		want   Type
	}{
		{"int", nil, Int},
		{"str", nil, String},
		{"list", []Type{Int}, &List{Elem: Int}},
		{"list", nil, &List{Elem: Unknown}},
		{"dict", []Type{String, Int}, &Dict{Key: String, Value: Int}},
		{"Optional", []Type{Float}, &Optional{Inner: Float}},
		{"set", []Type{String}, &Set{Elem: String}},
		{"None", nil, Unit},
		{"Point", nil, &Named{Name: "Point"}},
		{"whatever", nil, Unknown},
	}
	for _, tt := range tests {
		if got := FromHint(tt.name, tt.params); !Equal(got, tt.want) {
			t.Errorf("FromHint(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestUnify(t *testing.T) {
	got, ok := Unify(&List{Elem: Int}, &List{Elem: Unknown})
	if !ok || !Equal(got, &List{Elem: Int}) {
		t.Errorf("Unify list/unknown = %v, %v", got, ok)
	}

	if _, ok := Unify(&List{Elem: Int}, &List{Elem: String}); ok {
		t.Errorf("conflicting element types must not unify")
	}

	// Tuple arity disagreement is a conflict, not a widening.
	if _, ok := Unify(&Tuple{Elems: []Type{Int, Int}}, &Tuple{Elems: []Type{Int}}); ok {
		t.Errorf("tuple arity disagreement must not unify")
	}

	// T against the absent sentinel widens to Optional(T).
	got, ok = Unify(Int, Unit)
	if !ok || !Equal(got, &Optional{Inner: Int}) {
		t.Errorf("Unify(Int, Unit) = %v, %v, want Optional(Int)", got, ok)
	}
}

func TestPromote(t *testing.T) {
	if got := Promote(Int, Int); !Equal(got, Int) {
		t.Errorf("Int+Int = %s, want Int", got)
	}
	if got := Promote(Int, Float); !Equal(got, Float) {
		t.Errorf("Int+Float = %s, want Float", got)
	}
	if got := Promote(Float, Float); !Equal(got, Float) {
		t.Errorf("Float+Float = %s, want Float", got)
	}
	if got := Promote(String, Int); !Equal(got, Unknown) {
		t.Errorf("String+Int = %s, want Unknown", got)
	}
}
