package alerts

import (
	"errors"
	"strings"
)

var (
	// ErrGateway marks a failed or unparseable analysis call.
	ErrGateway = errors.New("analysis gateway error")
	// ErrPersistence marks a storage read or write failure.
	ErrPersistence = errors.New("persistence error")
	// ErrDeletionRejected marks an attempt to remove an alert that is still being analyzed.
	ErrDeletionRejected = errors.New("deletion rejected")
	// ErrNotFound marks a lookup for an unknown identity.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks invalid operator input.
	ErrValidation = errors.New("validation error")
)

// Message returns the display text for an error surfaced to the operator.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var displayer interface{ DisplayMessage() string }
	if errors.As(err, &displayer) {
		if msg := strings.TrimSpace(displayer.DisplayMessage()); msg != "" {
			return msg
		}
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "An unknown error occurred during the scan."
	}
	return msg
}
