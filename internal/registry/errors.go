package registry

import (
	"errors"
	"fmt"
)

const (
	CodeTransport = "transport"
	CodeNotFound  = "not_found"
	CodeInternal  = "internal"
)

// Error is the registry boundary error. Code distinguishes a failed fetch
// from a missing trial so callers can render the right message; a query
// with zero matches is not an error at all.
type Error struct {
	Code      string
	Message   string
	Transient bool
	Status    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// ErrNotFound is the sentinel FetchDetail returns for a missing trial or a
// failed detail round trip. Callers check it with errors.Is and render a
// neutral empty state.
var ErrNotFound = &Error{Code: CodeNotFound, Message: "trial not found", Status: 404}

func newTransportError(status int, format string, args ...any) *Error {
	return &Error{
		Code:      CodeTransport,
		Message:   fmt.Sprintf(format, args...),
		Transient: status == 0 || status >= 500 || status == 429,
		Status:    status,
	}
}

// IsNotFound reports whether err is the detail-fetch sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransport reports whether err is a transport-level fetch failure, as
// opposed to a well-formed empty result.
func IsTransport(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Code == CodeTransport
}
