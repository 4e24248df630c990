// Package errors defines the coded application errors shared by the bot's
// components. Every error keeps its cause so callers can still use errors.Is.
package errors

import (
	"errors"
	"fmt"
)

// Standard error codes for the application.
const (
	CodeUnknown    = "UNKNOWN"
	CodeConfig     = "CONFIG"
	CodeValidation = "VALIDATION"
	CodeDatabase   = "DATABASE"
	CodeAction     = "ACTION"
	CodeTransport  = "TRANSPORT"
)

// ApplicationError is the interface that all our custom errors implement.
type ApplicationError interface {
	error
	Code() string
	Unwrap() error
}

// Error represents a basic application error.
type Error struct {
	code    string
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func (e *Error) Code() string {
	return e.code
}

func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown if there is none.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return CodeUnknown
}

func NewConfigError(message string, cause error) error {
	return &Error{code: CodeConfig, message: message, err: cause}
}

func NewValidationError(message string, cause error) error {
	return &Error{code: CodeValidation, message: message, err: cause}
}

func NewDatabaseError(message string, cause error) error {
	return &Error{code: CodeDatabase, message: message, err: cause}
}

func NewTransportError(message string, cause error) error {
	return &Error{code: CodeTransport, message: message, err: cause}
}

// ActionError is returned when the OneBot implementation answers an action
// with a failed status or a non-zero retcode.
type ActionError struct {
	Action  string
	RetCode int
	Message string
}

func (e *ActionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("action %s failed (retcode %d): %s", e.Action, e.RetCode, e.Message)
	}
	return fmt.Sprintf("action %s failed (retcode %d)", e.Action, e.RetCode)
}

func (e *ActionError) Code() string {
	return CodeAction
}

func (e *ActionError) Unwrap() error {
	return nil
}

func NewActionError(action string, retCode int, message string) error {
	return &ActionError{Action: action, RetCode: retCode, Message: message}
}

// AsAction reports whether err carries an ActionError and returns it.
func AsAction(err error) (*ActionError, bool) {
	var actErr *ActionError
	if errors.As(err, &actErr) {
		return actErr, true
	}
	return nil, false
}
