package bridge

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind discriminates the tagged value union on the wire.
type Kind string

const (
	KindValue  Kind = "value"
	KindHandle Kind = "handle"
	KindModule Kind = "module"
	KindList   Kind = "list"
	KindTuple  Kind = "tuple"
	KindDict   Kind = "dict"
)

// Handle is a worker-side object reference. Handles are only valid within
// the session that produced them; the worker rejects stale ones.
type Handle struct {
	ID        string `json:"id"`
	PyType    string `json:"type"`
	Repr      string `json:"repr"`
	Str       string `json:"str"`
	SessionID string `json:"session_id"`
}

// DictEntry is one key/value pair of a keyed-map value.
type DictEntry struct {
	Key   Value `json:"key"`
	Value Value `json:"value"`
}

// Value is the tagged argument/result model of the worker protocol: a
// scalar (or none), a handle reference, a module reference, or a sequence
// or keyed-map of further values.
type Value struct {
	Kind    Kind
	Prim    any // bool, int64, float64 or string; nil means none
	Handle  *Handle
	Module  string
	Items   []Value
	Entries []DictEntry
}

func None() Value                { return Value{Kind: KindValue} }
func FromInt(n int64) Value      { return Value{Kind: KindValue, Prim: n} }
func FromFloat(f float64) Value  { return Value{Kind: KindValue, Prim: f} }
func FromBool(b bool) Value      { return Value{Kind: KindValue, Prim: b} }
func FromString(s string) Value  { return Value{Kind: KindValue, Prim: s} }
func ModuleRef(name string) Value {
	return Value{Kind: KindModule, Module: name}
}
func ListOf(items ...Value) Value  { return Value{Kind: KindList, Items: items} }
func TupleOf(items ...Value) Value { return Value{Kind: KindTuple, Items: items} }

func (v Value) IsNone() bool {
	return v.Kind == KindValue && v.Prim == nil
}

func (v Value) AsInt64() (int64, bool) {
	switch n := v.Prim.(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func (v Value) AsFloat64() (float64, bool) {
	switch n := v.Prim.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func (v Value) AsBool() (bool, bool) {
	b, ok := v.Prim.(bool)
	return b, ok
}

func (v Value) AsString() (string, bool) {
	s, ok := v.Prim.(string)
	return s, ok
}

func (v Value) String() string {
	switch v.Kind {
	case KindValue:
		if v.Prim == nil {
			return "null"
		}
		return fmt.Sprintf("%v", v.Prim)
	case KindHandle:
		if v.Handle != nil {
			return v.Handle.Str
		}
		return "<handle>"
	case KindModule:
		return "<Module:" + v.Module + ">"
	case KindList, KindTuple:
		parts := make([]string, len(v.Items))
		for i, it := range v.Items {
			parts[i] = it.String()
		}
		if v.Kind == KindList {
			return "[" + strings.Join(parts, ", ") + "]"
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindDict:
		parts := make([]string, len(v.Entries))
		for i, e := range v.Entries {
			parts[i] = e.Key.String() + ": " + e.Value.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "<invalid>"
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindValue:
		return json.Marshal(struct {
			Kind  Kind `json:"kind"`
			Value any  `json:"value"`
		}{KindValue, v.Prim})
	case KindHandle:
		if v.Handle == nil {
			return nil, fmt.Errorf("bridge: handle value without handle data")
		}
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
			*Handle
		}{KindHandle, v.Handle})
	case KindModule:
		return json.Marshal(struct {
			Kind   Kind   `json:"kind"`
			Module string `json:"module"`
		}{KindModule, v.Module})
	case KindList, KindTuple:
		items := v.Items
		if items == nil {
			items = []Value{}
		}
		return json.Marshal(struct {
			Kind  Kind    `json:"kind"`
			Items []Value `json:"items"`
		}{v.Kind, items})
	case KindDict:
		entries := v.Entries
		if entries == nil {
			entries = []DictEntry{}
		}
		return json.Marshal(struct {
			Kind  Kind        `json:"kind"`
			Items []DictEntry `json:"items"`
		}{KindDict, entries})
	}
	return nil, fmt.Errorf("bridge: cannot marshal value of kind %q", v.Kind)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var probe struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	switch probe.Kind {
	case KindValue:
		var raw struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		prim, err := decodePrimitive(raw.Value)
		if err != nil {
			return err
		}
		*v = Value{Kind: KindValue, Prim: prim}
	case KindHandle:
		var h Handle
		if err := json.Unmarshal(data, &h); err != nil {
			return err
		}
		*v = Value{Kind: KindHandle, Handle: &h}
	case KindModule:
		var raw struct {
			Module string `json:"module"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*v = Value{Kind: KindModule, Module: raw.Module}
	case KindList, KindTuple:
		var raw struct {
			Items []Value `json:"items"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*v = Value{Kind: probe.Kind, Items: raw.Items}
	case KindDict:
		var raw struct {
			Items []DictEntry `json:"items"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*v = Value{Kind: KindDict, Entries: raw.Items}
	default:
		return fmt.Errorf("bridge: unknown value kind %q", probe.Kind)
	}
	return nil
}

// decodePrimitive keeps integral JSON numbers as int64 so round-tripped
// ints stay ints.
func decodePrimitive(raw json.RawMessage) (any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	if !strings.ContainsAny(string(raw), ".eE") {
		var n int64
		if err := json.Unmarshal(raw, &n); err == nil {
			return n, nil
		}
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("bridge: unsupported primitive %s", string(raw))
}
