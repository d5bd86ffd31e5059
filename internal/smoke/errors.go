package smoke

import (
	"errors"
	"fmt"
)

// Kind classifies why a run failed. Each kind maps to its own exit code.
type Kind int

const (
	// KindUnexpected covers any failure raised while talking to the server.
	KindUnexpected Kind = iota
	// KindPrecondition means the environment was unusable before any work began.
	KindPrecondition
	// KindProvisioning means the package could not be installed or resolved.
	KindProvisioning
	// KindSession means no session existed after creation.
	KindSession
	// KindVerification means the server did not advertise the expected tools.
	KindVerification
)

func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindProvisioning:
		return "provisioning"
	case KindSession:
		return "session"
	case KindVerification:
		return "verification"
	default:
		return "unexpected"
	}
}

// ExitCode is the process status for a failure of this kind.
func (k Kind) ExitCode() int {
	switch k {
	case KindPrecondition:
		return 2
	case KindProvisioning:
		return 3
	case KindSession:
		return 4
	case KindVerification:
		return 5
	default:
		return 1
	}
}

// ErrMissingTools reports expected tools absent from the server's listing.
var ErrMissingTools = errors.New("missing expected tools")

// Error is a classified run failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func fail(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// ExitCode maps the result of a run to a process exit status: zero for nil,
// the kind's code for an *Error and 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind.ExitCode()
	}
	return 1
}

// KindOf returns the kind of err, or KindUnexpected when it is not classified.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnexpected
}
