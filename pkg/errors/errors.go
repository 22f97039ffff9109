package errors

import (
	goErrors "errors"
	"fmt"
)

// New returns an error with the given message.
func New(msg string) error {
	return goErrors.New(msg)
}

// ContextError annotates an error with the operation that produced it.
// Contexts stack as the error propagates up the call chain.
type ContextError struct {
	Context string
	Err     error
}

func (err ContextError) Error() string {
	return fmt.Sprintf("%s: %s", err.Context, err.Err)
}

// WithContext wraps `err` with a description of the operation that failed.
func WithContext(err error, context string) error {
	return ContextError{Context: context, Err: err}
}

// RootCause returns the innermost error after stripping all ContextError
// wrappers.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(ContextError)
		if !ok {
			return err
		}
		err = ctxErr.Err
	}
}

// FriendlyError is an error whose message is meant to be shown to the
// operator directly, without any wrapping context.
type FriendlyError struct {
	Message string
}

// NewFriendlyError creates a FriendlyError according to the format specifier.
func NewFriendlyError(format string, args ...interface{}) FriendlyError {
	return FriendlyError{Message: fmt.Sprintf(format, args...)}
}

func (err FriendlyError) Error() string {
	return err.Message
}

// FriendlyMessage returns the raw message for printing at the invocation
// boundary.
func (err FriendlyError) FriendlyMessage() string {
	return err.Message
}

type friendlyMessager interface {
	FriendlyMessage() string
}

// GetPrintableMessage returns the message that should be printed when `err`
// aborts a command. Friendly errors are printed verbatim, even when they've
// been wrapped with additional context.
func GetPrintableMessage(err error) string {
	if friendly, ok := RootCause(err).(friendlyMessager); ok {
		return friendly.FriendlyMessage()
	}
	return err.Error()
}
