package session

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotConnected is returned synchronously when a command is issued while the session is not Ready
	ErrNotConnected = errors.New("session is not connected")
	// ErrConnectInProgress is returned by Connect while another Connect has not finished
	ErrConnectInProgress = errors.New("connect already in progress")
	// ErrSessionClosed fails commands that were outstanding when the session was closed
	ErrSessionClosed = errors.New("session closed")
	// ErrPending is returned by Future.Result while the future is not resolved
	ErrPending = errors.New("future not resolved yet")
)

// TransportError is a failure of the transport or of the store.
// A command failing with a TransportError was not (or not verifiably) executed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%s): %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Cause returns the root cause, for use with errors.Cause
func (e *TransportError) Cause() error {
	return errors.Cause(e.Err)
}

func newTransportError(op string, cause error, msg string) *TransportError {
	return &TransportError{Op: op, Err: errors.Wrap(cause, msg)}
}

// UnexpectedReplyError describes a reply whose id matches no pending command.
// It is logged and counted, never returned to a caller.
type UnexpectedReplyError struct {
	ID uint64
}

func (e *UnexpectedReplyError) Error() string {
	return fmt.Sprintf("unexpected reply for request id %d", e.ID)
}
