// Package modules defines the contract a functionality module satisfies to be
// dispatched to: a declared capability plus a handler. Everything behind the
// handler (domain logic, external authentication) is the module's own
// concern.
package modules

import (
	"context"
	"fmt"

	"github.com/jpcaldeira/aura-core/core/capabilities"
)

// Result is what a handler returns on success. Spoken and Display are the
// module-supplied formatting of the payload for speech synthesis and GUI
// rendering; the orchestration core passes them through untouched.
type Result struct {
	Payload any
	Spoken  string
	Display string
}

// Handler is a registered functionality module.
type Handler interface {
	// Capability declares the module's verbs and argument schemas. Called
	// once at registration; the returned value must not change afterwards.
	Capability() capabilities.Capability

	// Handle executes one validated action. Arguments have already been
	// validated against the capability's schema for verb. Failures the user
	// should hear about are returned as *Error; anything else is treated as
	// an internal failure and fully sanitized.
	Handle(ctx context.Context, verb string, arguments map[string]any) (*Result, error)
}

// Error is a domain failure with a message safe to speak or display. Cause
// carries the full detail for diagnostics and is never surfaced to the user.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds a domain failure with a sanitized user-facing message.
func NewError(message string, cause error) *Error {
	return &Error{Message: message, Cause: cause}
}

// String returns the string value of the named argument, or "" when absent.
func String(arguments map[string]any, name string) string {
	value, _ := arguments[name].(string)
	return value
}

// StringOr returns the string value of the named argument, or fallback when
// absent or empty.
func StringOr(arguments map[string]any, name, fallback string) string {
	if value := String(arguments, name); value != "" {
		return value
	}
	return fallback
}

// Int returns the integer value of the named argument. JSON decoding delivers
// numbers as float64, so both are accepted.
func Int(arguments map[string]any, name string, fallback int) int {
	switch value := arguments[name].(type) {
	case int:
		return value
	case float64:
		return int(value)
	}
	return fallback
}

// Bool returns the boolean value of the named argument.
func Bool(arguments map[string]any, name string, fallback bool) bool {
	if value, ok := arguments[name].(bool); ok {
		return value
	}
	return fallback
}
