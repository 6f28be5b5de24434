// Package common defines the error taxonomy shared by the viewer packages.
// Callers match kinds with errors.Is against the sentinels below and read the
// user-facing text with Message.
package common

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad local input (blank password, malformed email).
	// No network call is made when it is returned.
	ErrValidation = errors.New("validation error")

	// ErrNetwork marks a failed session create/update or document fetch.
	ErrNetwork = errors.New("network error")

	// ErrIntegrity marks a response that lacks fields the viewer needs,
	// e.g. a deck without a document link.
	ErrIntegrity = errors.New("integrity error")
)

// ViewerError pairs an error kind with the message shown to the viewer.
type ViewerError struct {
	Kind    error
	Message string
	Err     error
}

func (e *ViewerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is lets errors.Is(err, ErrValidation) and friends match on the kind.
func (e *ViewerError) Is(target error) bool {
	return e.Kind == target
}

func (e *ViewerError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a validation failure with the given message.
func NewValidationError(msg string) error {
	return &ViewerError{Kind: ErrValidation, Message: msg}
}

// NewNetworkError wraps cause as a network failure.
func NewNetworkError(msg string, cause error) error {
	return &ViewerError{Kind: ErrNetwork, Message: msg, Err: cause}
}

// NewIntegrityError returns an integrity failure with the given message.
func NewIntegrityError(msg string) error {
	return &ViewerError{Kind: ErrIntegrity, Message: msg}
}

// Message extracts the user-facing text from err. When err carries no
// ViewerError, fallback is returned.
func Message(err error, fallback string) string {
	var ve *ViewerError
	if errors.As(err, &ve) && ve.Message != "" {
		return ve.Message
	}
	return fallback
}
