// Package errors provides structured error handling for loopchain.
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

// Exit codes returned by the CLI. Automated callers branch on these.
const (
	ExitSuccess      = 0 // Successful execution
	ExitGeneral      = 1 // General/unknown error
	ExitInput        = 2 // Invalid input
	ExitAuth         = 3 // Missing or unusable credential
	ExitNotFound     = 4 // Resource not found
	ExitInsufficient = 5 // Balance too low for the requested operation
	ExitNetwork      = 6 // RPC endpoint unreachable
)

// LoopError is the structured error type for loopchain.
type LoopError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *LoopError) Error() string {
	msg := e.Message

	// Details are sorted for deterministic output
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

func (e *LoopError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for LoopError. Two LoopErrors match when their codes match.
func (e *LoopError) Is(target error) bool {
	var t *LoopError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &LoopError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &LoopError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	// ErrNoCredential is returned when an operation needs a signing key and
	// the active network has none. Read-only operations remain available.
	ErrNoCredential = &LoopError{
		Code:       "NO_CREDENTIAL",
		Message:    "no signing credential configured for this network",
		Suggestion: "set PRIVATE_KEY (or the variable named by the network's private_key_env) and retry",
		ExitCode:   ExitAuth,
	}

	ErrInvalidCredential = &LoopError{
		Code:     "INVALID_CREDENTIAL",
		Message:  "configured credential is malformed",
		ExitCode: ExitAuth,
	}

	ErrDecryptionFailed = &LoopError{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed - wrong passphrase or corrupted key file",
		ExitCode: ExitAuth,
	}

	// ErrNetworkUnreachable covers connection failures and transport-level
	// failures (non-2xx HTTP, timeouts). The RPC node never produced an answer.
	ErrNetworkUnreachable = &LoopError{
		Code:     "NETWORK_UNREACHABLE",
		Message:  "RPC endpoint unreachable",
		ExitCode: ExitNetwork,
	}

	// ErrRPC is returned when the node answered with a JSON-RPC error.
	ErrRPC = &LoopError{
		Code:     "RPC_ERROR",
		Message:  "RPC node returned an error",
		ExitCode: ExitGeneral,
	}

	ErrInvalidAddress = &LoopError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}

	ErrInvalidChecksum = &LoopError{
		Code:     "INVALID_CHECKSUM",
		Message:  "invalid address checksum",
		ExitCode: ExitInput,
	}

	ErrInvalidAmount = &LoopError{
		Code:     "INVALID_AMOUNT",
		Message:  "invalid amount format",
		ExitCode: ExitInput,
	}

	ErrInsufficientFunds = &LoopError{
		Code:     "INSUFFICIENT_FUNDS",
		Message:  "balance is zero or too low",
		ExitCode: ExitInsufficient,
	}

	ErrNetworkNotFound = &LoopError{
		Code:     "NETWORK_NOT_FOUND",
		Message:  "network not configured",
		ExitCode: ExitNotFound,
	}

	ErrTokenNotFound = &LoopError{
		Code:     "TOKEN_NOT_FOUND",
		Message:  "token not configured for network",
		ExitCode: ExitNotFound,
	}

	ErrChainIDMismatch = &LoopError{
		Code:     "CHAIN_ID_MISMATCH",
		Message:  "RPC endpoint reports a different chain id than configured",
		ExitCode: ExitInput,
	}

	ErrTxRejected = &LoopError{
		Code:     "TX_REJECTED",
		Message:  "transaction rejected by network",
		ExitCode: ExitGeneral,
	}

	ErrConfigNotFound = &LoopError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &LoopError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration is invalid",
		ExitCode: ExitInput,
	}
)

// New creates a new LoopError with the given code and message.
func New(code, message string) *LoopError {
	return &LoopError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context. A LoopError keeps its code
// and cause; only the message gains the prefix.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var le *LoopError
	if errors.As(err, &le) {
		return &LoopError{
			Code:       le.Code,
			Message:    fmt.Sprintf("%s: %s", msg, le.Message),
			Details:    le.Details,
			Suggestion: le.Suggestion,
			Cause:      le.Cause,
			ExitCode:   le.ExitCode,
		}
	}

	return &LoopError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithCause returns a copy of the sentinel carrying cause as its underlying error.
// errors.Is matches both the sentinel (by code) and the cause.
func WithCause(sentinel *LoopError, cause error) error {
	return &LoopError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Details:    sentinel.Details,
		Suggestion: sentinel.Suggestion,
		Cause:      cause,
		ExitCode:   sentinel.ExitCode,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var le *LoopError
	if errors.As(err, &le) {
		return &LoopError{
			Code:       le.Code,
			Message:    le.Message,
			Details:    details,
			Suggestion: le.Suggestion,
			Cause:      le.Cause,
			ExitCode:   le.ExitCode,
		}
	}

	return &LoopError{
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

	var le *LoopError
	if errors.As(err, &le) {
		return &LoopError{
			Code:       le.Code,
			Message:    le.Message,
			Details:    le.Details,
			Suggestion: suggestion,
			Cause:      le.Cause,
			ExitCode:   le.ExitCode,
		}
	}

	return &LoopError{
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

	var le *LoopError
	if errors.As(err, &le) {
		return le.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var le *LoopError
	if errors.As(err, &le) {
		return le.Code
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
