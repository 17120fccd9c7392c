package bridge

import (
	"encoding/json"
	"testing"
)

func TestValueDecodeDispatchesOnKind(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`{"kind":"value","value":42}`), &v); err != nil {
		t.Fatal(err)
	}
	if n, ok := v.AsInt64(); !ok || n != 42 {
		t.Errorf("AsInt64() = %v, %v", n, ok)
	}

	if err := json.Unmarshal([]byte(`{"kind":"value","value":null}`), &v); err != nil {
		t.Fatal(err)
	}
	if !v.IsNone() {
		t.Error("null value should be none")
	}

	data := `{"kind":"handle","id":"h1","type":"DataFrame","repr":"<df>","str":"df","session_id":"s1"}`
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		t.Fatal(err)
	}
	if v.Kind != KindHandle || v.Handle == nil || v.Handle.ID != "h1" || v.Handle.SessionID != "s1" {
		t.Errorf("handle decode: %+v", v)
	}

	if err := json.Unmarshal([]byte(`{"kind":"widget"}`), &v); err == nil {
		t.Error("unknown kind should fail to decode")
	}
}

func TestValueIntegersSurviveRoundTrip(t *testing.T) {
	data, err := json.Marshal(ListOf(FromInt(7), FromFloat(7.0)))
	if err != nil {
		t.Fatal(err)
	}
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatal(err)
	}
	if _, ok := v.Items[0].Prim.(int64); !ok {
		t.Errorf("int element decoded as %T", v.Items[0].Prim)
	}
	if _, ok := v.Items[1].Prim.(float64); !ok {
		t.Errorf("float element decoded as %T", v.Items[1].Prim)
	}
}

func TestTupleDisplay(t *testing.T) {
	if got := TupleOf(FromInt(1)).String(); got != "(1,)" {
		t.Errorf("single-element tuple = %q", got)
	}
	if got := TupleOf(FromInt(1), FromString("a")).String(); got != "(1, a)" {
		t.Errorf("tuple = %q", got)
	}
}

func TestClassifyFailureKinds(t *testing.T) {
	tests := []struct {
		code   string
		pyType string
		want   string
	}{
		{"StaleHandle", "", "StaleHandle"},
		{"WorkerCrash", "", "WorkerCrash"},
		{"ValueTooLarge", "", "ValueTooLarge"},
		{"SecurityViolation", "", "SecurityViolation"},
		{"TypeMismatch", "", "TypeMismatch"},
		{"PythonException", "KeyError", "KeyError"},
		{"PythonException", "", "PythonException"},
		{"SomethingNew", "", "ProtocolError"},
	}
	for _, tt := range tests {
		err := classify(tt.code, "boom", tt.pyType, "")
		if got := err.FailureKind(); got != tt.want {
			t.Errorf("classify(%q, py_type=%q).FailureKind() = %q, want %q",
				tt.code, tt.pyType, got, tt.want)
		}
	}
}

func TestTargetRef(t *testing.T) {
	ref, err := targetRef(Value{Kind: KindHandle, Handle: &Handle{ID: "h9"}})
	if err != nil {
		t.Fatal(err)
	}
	if ref != "h9" {
		t.Errorf("handle target = %v", ref)
	}

	ref, err = targetRef(ModuleRef("math"))
	if err != nil {
		t.Fatal(err)
	}
	m, ok := ref.(map[string]string)
	if !ok || m["module"] != "math" {
		t.Errorf("module target = %v", ref)
	}

	if _, err := targetRef(FromInt(3)); err == nil || err.Code != CodeTypeMismatch {
		t.Errorf("scalar target should be a type mismatch, got %v", err)
	}
}
