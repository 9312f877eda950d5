// Package broadcasterr defines the typed failures of the broadcast client.
//
// Every failure carries a Kind. Callers classify errors with errors.Is
// against the Err* sentinels, or with IsRetryable:
//
//	err := c.SendMessage(msg)
//	if errors.Is(err, broadcasterr.ErrTargetNotFound) {
//		// simulator not running yet, try again later
//	}
package broadcasterr

import (
	"errors"
	"fmt"
)

// Kind classifies a broadcast failure.
type Kind int

const (
	// InvalidParameter: a message was constructed with an out-of-range value.
	InvalidParameter Kind = iota + 1
	// RegistrationFailed: the OS could not supply the broadcast message id.
	RegistrationFailed
	// TargetNotFound: no simulator window exists at send time.
	TargetNotFound
	// DeliveryFailed: the OS rejected the send after the window was found.
	DeliveryFailed
)

func (k Kind) String() string {
	switch k {
	case InvalidParameter:
		return "invalid parameter"
	case RegistrationFailed:
		return "registration failed"
	case TargetNotFound:
		return "target not found"
	case DeliveryFailed:
		return "delivery failed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrInvalidParameter   = &Error{Kind: InvalidParameter}
	ErrRegistrationFailed = &Error{Kind: RegistrationFailed}
	ErrTargetNotFound     = &Error{Kind: TargetNotFound}
	ErrDeliveryFailed     = &Error{Kind: DeliveryFailed}
)

// Error is a broadcast failure.
type Error struct {
	Kind  Kind
	Op    string // Operation that failed, e.g. "RegisterWindowMessage"
	Param string // Offending parameter for InvalidParameter
	Msg   string
	Err   error // Underlying OS error, if any
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Param != "" {
		s += " " + e.Param
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Param == "" && t.Msg == "" && t.Err == nil
}

// Invalid returns an InvalidParameter error for param.
func Invalid(op, param string, format string, args ...any) *Error {
	return &Error{
		Kind:  InvalidParameter,
		Op:    op,
		Param: param,
		Msg:   fmt.Sprintf(format, args...),
	}
}

// Registration returns a RegistrationFailed error wrapping err.
func Registration(name string, err error) *Error {
	return &Error{
		Kind: RegistrationFailed,
		Op:   "RegisterWindowMessage",
		Msg:  fmt.Sprintf("message %q", name),
		Err:  err,
	}
}

// NotFound returns a TargetNotFound error for the window lookup.
func NotFound(class, title string, err error) *Error {
	msg := fmt.Sprintf("no window with class %q", class)
	if title != "" {
		msg += fmt.Sprintf(" and title %q", title)
	}
	return &Error{
		Kind: TargetNotFound,
		Op:   "FindWindow",
		Msg:  msg,
		Err:  err,
	}
}

// Delivery returns a DeliveryFailed error wrapping err.
func Delivery(err error) *Error {
	return &Error{
		Kind: DeliveryFailed,
		Op:   "SendNotifyMessage",
		Err:  err,
	}
}

// KindOf returns the Kind of err, or 0 if err is not a broadcast error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsRetryable reports whether sending the same message again may succeed
// without any change on the caller's side.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case TargetNotFound, DeliveryFailed:
		return true
	}
	return false
}

// RecoverySuggestions returns human-readable hints for err.
func RecoverySuggestions(err error) []string {
	switch KindOf(err) {
	case InvalidParameter:
		return []string{
			"Check the parameter against the protocol's valid range",
			"Construct the message again with a corrected value",
		}
	case RegistrationFailed:
		return []string{
			"Check that the session has access to the window station",
			"Verify system resources availability",
		}
	case TargetNotFound:
		return []string{
			"Ensure iRacing is running",
			"Wait until the simulator window has finished loading",
			"Check the configured window class and title",
		}
	case DeliveryFailed:
		return []string{
			"Retry the message",
			"Check that the simulator and this process run at the same integrity level",
		}
	}
	return nil
}
