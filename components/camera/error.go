package camera

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoDevice is returned when no camera is connected.
//
//nolint:stylecheck
var ErrNoDevice = errors.New("No device detected. Is it plugged in?")

// Error is a failure reported by the camera SDK. It names the SDK call that failed and the
// arguments it was called with.
type Error struct {
	Function string
	Args     string
	Err      error
}

// NewError returns an Error for a failed SDK call.
func NewError(function, args, message string) *Error {
	return &Error{Function: function, Args: args, Err: errors.New(message)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("RealSense error calling %s(%s):\n    %s", e.Function, e.Args, e.Message())
}

// Message is the SDK's description of the failure.
func (e *Error) Message() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

// Unwrap returns the SDK's message.
func (e *Error) Unwrap() error {
	return e.Err
}

// AsError reports whether err came from the camera SDK.
func AsError(err error) (*Error, bool) {
	var camErr *Error
	if errors.As(err, &camErr) {
		return camErr, true
	}
	return nil, false
}
