package bridge

// Wire shapes of the worker protocol: newline-delimited JSON commands on
// the worker's stdin, one JSON response line per command on its stdout.

const (
	cmdHello        = "hello"
	cmdCallFunction = "call_function"
	cmdCallMethod   = "call_method"
	cmdGetAttribute = "get_attribute"
	cmdGetItem      = "get_item"
	cmdSlice        = "slice"
	cmdIter         = "iter"
	cmdDelete       = "delete"
)

type command struct {
	Cmd       string           `json:"cmd"`
	SessionID string           `json:"session_id"`
	ReqID     string           `json:"req_id,omitempty"`
	Target    any              `json:"target,omitempty"`
	Method    string           `json:"method,omitempty"`
	Name      string           `json:"name,omitempty"`
	Args      []Value          `json:"args,omitempty"`
	Kwargs    map[string]Value `json:"kwargs,omitempty"`
	Key       *Value           `json:"key,omitempty"`
	Start     *Value           `json:"start,omitempty"`
	Stop      *Value           `json:"stop,omitempty"`
	Step      *Value           `json:"step,omitempty"`
	Version   string           `json:"version,omitempty"`
}

type response struct {
	Kind    string        `json:"kind"`
	ReqID   string        `json:"req_id,omitempty"`
	Value   Value         `json:"value"`
	Meta    *responseMeta `json:"meta,omitempty"`
	Error   *errorDetail  `json:"error,omitempty"`
	Version string        `json:"version,omitempty"`
}

type responseMeta struct {
	Done *bool `json:"done,omitempty"`
}

type errorDetail struct {
	Code      string `json:"code"`
	PyType    string `json:"py_type,omitempty"`
	Message   string `json:"message"`
	Traceback string `json:"traceback,omitempty"`
}

// targetRef encodes the target of handle- and module-directed commands:
// handles go as their bare id string, modules as a small tagged object.
func targetRef(v Value) (any, *Error) {
	switch v.Kind {
	case KindHandle:
		if v.Handle == nil {
			return nil, protocolErrf("handle value without handle data")
		}
		return v.Handle.ID, nil
	case KindModule:
		return map[string]string{"kind": "module", "module": v.Module}, nil
	default:
		return nil, &Error{Code: CodeTypeMismatch, Message: "target is not a handle or module: " + v.String()}
	}
}
