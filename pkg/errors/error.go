package errors

import (
	goerrors "errors"
	"fmt"
)

const (
	KErrBadHeader uint32 = iota + 1
	KErrAlreadyStarted
	KErrSelfDriven
	KErrExhausted
	KErrNoStatusEncoder
	KErrBadDefinition
)

// transport errors start at 100
const (
	KErrStreamClosed uint32 = iota + 100
	KErrNotConnected
)

const kErrConfigMax = 99

var (
	ErrBadHeader       = &Error{what: "no header signature", errno: KErrBadHeader}
	ErrAlreadyStarted  = &Error{what: "service thread already started", errno: KErrAlreadyStarted}
	ErrSelfDriven      = &Error{what: "session is serviced in iteration", errno: KErrSelfDriven}
	ErrExhausted       = &Error{what: "stream exhausted", errno: KErrExhausted}
	ErrNoStatusEncoder = &Error{what: "handshaking requires a status encoder", errno: KErrNoStatusEncoder}
	ErrBadDefinition   = &Error{what: "bad object definition", errno: KErrBadDefinition}
	ErrStreamClosed    = &Error{what: "stream closed", errno: KErrStreamClosed}
	ErrNotConnected    = &Error{what: "not connected", errno: KErrNotConnected}
)

type Error struct {
	what  string
	errno uint32
}

func NewError(what string, errno uint32) *Error {
	return &Error{what: what, errno: errno}
}

func (e *Error) Error() string {
	return fmt.Sprintf("error: %s (%d) ", e.what, e.errno)
}

func (e *Error) ErrNo() uint32 {
	return e.errno
}

// IsConfigError reports whether err wraps one of the configuration errors.
// Configuration errors are raised to the caller immediately and never retried.
func IsConfigError(err error) bool {
	var e *Error
	if goerrors.As(err, &e) {
		return e.errno > 0 && e.errno <= kErrConfigMax
	}
	return false
}
