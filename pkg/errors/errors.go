// Package errors provides structured error handling for fedicore.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess  = 0 // Successful execution
	ExitGeneral  = 1 // General/unknown error
	ExitInput    = 2 // Invalid input
	ExitNotFound = 4 // Resource not found
	ExitNetwork  = 6 // Bridge or network unavailable
)

// FediError is the structured error type for fedicore.
type FediError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *FediError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *FediError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for FediError.
func (e *FediError) Is(target error) bool {
	var t *FediError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &FediError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &FediError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrNotFound = &FediError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	ErrNetworkError = &FediError{
		Code:     "NETWORK_ERROR",
		Message:  "network communication failed",
		ExitCode: ExitNetwork,
	}

	ErrNotSupported = &FediError{
		Code:     "NOT_SUPPORTED",
		Message:  "operation not supported",
		ExitCode: ExitInput,
	}

	// Bridge errors.
	ErrBridge = &FediError{
		Code:     "BRIDGE_ERROR",
		Message:  "bridge call failed",
		ExitCode: ExitGeneral,
	}

	ErrBridgeUnavailable = &FediError{
		Code:     "BRIDGE_UNAVAILABLE",
		Message:  "bridge is not reachable",
		ExitCode: ExitNetwork,
	}

	// LNURL errors.
	ErrInvalidLNURL = &FediError{
		Code:     "INVALID_LNURL",
		Message:  "invalid lnurl",
		ExitCode: ExitInput,
	}

	ErrLNURLService = &FediError{
		Code:     "LNURL_SERVICE_ERROR",
		Message:  "lnurl service returned an error",
		ExitCode: ExitGeneral,
	}

	// Deep link errors.
	ErrInvalidURI = &FediError{
		Code:     "INVALID_URI",
		Message:  "invalid fedi uri",
		ExitCode: ExitInput,
	}

	// Multispend errors.
	ErrInvalidGroupStatus = &FediError{
		Code:     "INVALID_GROUP_STATUS",
		Message:  "invalid multispend group status",
		ExitCode: ExitInput,
	}

	// Config-specific errors.
	ErrConfigInvalid = &FediError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &FediError{
		Code:     "UNKNOWN_CONFIG_KEY",
		Message:  "unknown config key",
		ExitCode: ExitInput,
	}

	ErrInvalidFormat = &FediError{
		Code:     "INVALID_FORMAT",
		Message:  "invalid format",
		ExitCode: ExitInput,
	}
)

// New creates a new FediError with the given code and message.
func New(code, message string) *FediError {
	return &FediError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var fe *FediError
	if errors.As(err, &fe) {
		return &FediError{
			Code:       fe.Code,
			Message:    fmt.Sprintf("%s: %s", msg, fe.Message),
			Details:    fe.Details,
			Suggestion: fe.Suggestion,
			Cause:      err,
			ExitCode:   fe.ExitCode,
		}
	}

	return &FediError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var fe *FediError
	if errors.As(err, &fe) {
		return &FediError{
			Code:       fe.Code,
			Message:    fe.Message,
			Details:    details,
			Suggestion: fe.Suggestion,
			Cause:      fe.Cause,
			ExitCode:   fe.ExitCode,
		}
	}

	return &FediError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var fe *FediError
	if errors.As(err, &fe) {
		return &FediError{
			Code:       fe.Code,
			Message:    fe.Message,
			Details:    fe.Details,
			Suggestion: suggestion,
			Cause:      fe.Cause,
			ExitCode:   fe.ExitCode,
		}
	}

	return &FediError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var fe *FediError
	if errors.As(err, &fe) {
		return fe.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var fe *FediError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
