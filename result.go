package xrsim

import "fmt"

// Code classifies every status a boundary operation can return. Codes are
// stable: clients may switch on them or compare with the package sentinels
// via errors.Is.
type Code int

const (
	// CodeEventUnavailable is a non-error status: the event queue is empty.
	// It is returned by PollEvent the way io.EOF is returned by readers —
	// an expected condition, not a failure.
	CodeEventUnavailable Code = iota + 1

	// CodeValidationFailure reports a malformed or nil argument. The call
	// is rejected before any state mutation.
	CodeValidationFailure

	// CodeHandleInvalid reports an operation referencing an unknown
	// instance, session, swapchain, or space handle.
	CodeHandleInvalid

	// CodeExtensionNotPresent reports a requested capability extension the
	// runtime does not implement. The whole creation call is rejected.
	CodeExtensionNotPresent

	// CodeFormFactorUnsupported reports a system request for a form factor
	// other than a head-mounted display.
	CodeFormFactorUnsupported

	// CodeGraphicsDeviceInvalid reports a session creation without the
	// required graphics-device binding.
	CodeGraphicsDeviceInvalid

	// CodeResourceExhausted reports an underlying allocation or
	// surface-creation failure during a creation call.
	CodeResourceExhausted

	// CodeRuntimeFailure reports an internal failure not attributable to
	// the caller.
	CodeRuntimeFailure
)

// String returns the code's stable name.
func (c Code) String() string {
	switch c {
	case CodeEventUnavailable:
		return "event unavailable"
	case CodeValidationFailure:
		return "validation failure"
	case CodeHandleInvalid:
		return "handle invalid"
	case CodeExtensionNotPresent:
		return "extension not present"
	case CodeFormFactorUnsupported:
		return "form factor unsupported"
	case CodeGraphicsDeviceInvalid:
		return "graphics device invalid"
	case CodeResourceExhausted:
		return "resource exhausted"
	case CodeRuntimeFailure:
		return "runtime failure"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Error is the error type returned across the runtime boundary. Every
// failure carries a stable Code; Op names the boundary operation and Err,
// when set, carries the underlying cause.
type Error struct {
	Code Code
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("xrsim: %s: %s: %v", e.Op, e.Code, e.Err)
	case e.Op != "":
		return fmt.Sprintf("xrsim: %s: %s", e.Op, e.Code)
	case e.Err != nil:
		return fmt.Sprintf("xrsim: %s: %v", e.Code, e.Err)
	default:
		return fmt.Sprintf("xrsim: %s", e.Code)
	}
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Code, so
// errors.Is(err, xrsim.ErrHandleInvalid) classifies by code alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinel values for errors.Is classification. These carry only a code;
// errors returned by the runtime additionally carry the operation name and
// cause.
var (
	ErrEventUnavailable      = &Error{Code: CodeEventUnavailable}
	ErrValidation            = &Error{Code: CodeValidationFailure}
	ErrHandleInvalid         = &Error{Code: CodeHandleInvalid}
	ErrExtensionNotPresent   = &Error{Code: CodeExtensionNotPresent}
	ErrFormFactorUnsupported = &Error{Code: CodeFormFactorUnsupported}
	ErrGraphicsDeviceInvalid = &Error{Code: CodeGraphicsDeviceInvalid}
	ErrResourceExhausted     = &Error{Code: CodeResourceExhausted}
	ErrRuntimeFailure        = &Error{Code: CodeRuntimeFailure}
)

// resultErr builds a boundary error for op with the given code.
func resultErr(op string, code Code) error {
	return &Error{Code: code, Op: op}
}

// resultErrf builds a boundary error wrapping an underlying cause.
func resultErrf(op string, code Code, err error) error {
	return &Error{Code: code, Op: op, Err: err}
}
