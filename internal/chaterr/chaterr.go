// Package chaterr defines the (code, message) error pairs reported by the
// chat session provider, the auth server client and the session bootstrapper.
package chaterr

import (
	"errors"
	"fmt"
)

// Error codes. Positive values mirror the chat provider's codes; HTTP status
// codes from the auth server are passed through as-is.
const (
	// NoError is the sentinel returned by operations that succeed without a value.
	NoError = 0
	// GeneralError is an unclassified provider failure.
	GeneralError = 1
	// NetworkError reports a transport-level failure.
	NetworkError = 2

	InvalidAppKey   = 100
	InvalidUserName = 101
	InvalidPassword = 102

	UserAlreadyLoggedIn      = 200
	UserNotLogin             = 201
	UserAuthenticationFailed = 202
	UserAlreadyExist         = 203
	UserNotFound             = 204
	// InvalidParam reports a missing or malformed argument detected before any I/O.
	InvalidParam = 205

	// NotLoggedIn is raised by the bootstrapper when there is no session to hydrate.
	NotLoggedIn = -8
)

// Error is a failure carrying a numeric code and an optional message.
type Error struct {
	Code    int
	Message string
}

// New returns an *Error with the given code and message.
func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("chat error %d", e.Code)
	}
	return fmt.Sprintf("chat error %d: %s", e.Code, e.Message)
}

// Is reports whether target is an *Error with the same code, so callers can
// write errors.Is(err, chaterr.New(chaterr.NotLoggedIn, "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf extracts the code from err. Errors that are not *Error map to
// GeneralError; a nil error maps to NoError.
func CodeOf(err error) int {
	if err == nil {
		return NoError
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return GeneralError
}

// MessageOf extracts the message from err, or err.Error() for foreign errors.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
