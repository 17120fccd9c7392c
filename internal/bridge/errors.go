package bridge

import "fmt"

// ErrorCode classifies a structured failure from the worker boundary.
type ErrorCode string

const (
	CodeProtocol          ErrorCode = "ProtocolError"
	CodeStaleHandle       ErrorCode = "StaleHandle"
	CodeWorkerCrash       ErrorCode = "WorkerCrash"
	CodeValueTooLarge     ErrorCode = "ValueTooLarge"
	CodeSecurityViolation ErrorCode = "SecurityViolation"
	CodePythonException   ErrorCode = "PythonException"
	CodeTypeMismatch      ErrorCode = "TypeMismatch"
)

// Error is the uniform failure shape of every boundary operation. The
// generated program never sees these as faults: each becomes an ordinary
// failure value whose kind is FailureKind().
type Error struct {
	Code      ErrorCode
	Message   string
	PyType    string
	Traceback string
}

func (e *Error) Error() string {
	if e.Code == CodePythonException && e.PyType != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.PyType, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FailureKind maps the classification to a generated-program failure kind.
// Application-level exceptions keep their original class name so handler
// matching in the translated program works unchanged; everything else uses
// the classification itself as the kind.
func (e *Error) FailureKind() string {
	if e.Code == CodePythonException && e.PyType != "" {
		return e.PyType
	}
	return string(e.Code)
}

// classify turns a wire-level error detail into an *Error. Unknown codes
// degrade to a protocol error rather than disappearing.
func classify(code, message, pyType, traceback string) *Error {
	switch ErrorCode(code) {
	case CodeProtocol, CodeStaleHandle, CodeWorkerCrash, CodeValueTooLarge,
		CodeSecurityViolation, CodePythonException, CodeTypeMismatch:
		return &Error{Code: ErrorCode(code), Message: message, PyType: pyType, Traceback: traceback}
	default:
		return &Error{Code: CodeProtocol, Message: fmt.Sprintf("%s: %s", code, message)}
	}
}

func protocolErrf(format string, args ...any) *Error {
	return &Error{Code: CodeProtocol, Message: fmt.Sprintf(format, args...)}
}

func crashErrf(format string, args ...any) *Error {
	return &Error{Code: CodeWorkerCrash, Message: fmt.Sprintf(format, args...)}
}
