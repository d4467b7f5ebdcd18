package services

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy shared across the checkout components. Every remote-call
// failure is converted to one of these at the component boundary; raw
// transport errors never reach handlers.
var (
	// ErrValidationRejected indicates a local form-level failure that never
	// reached the network.
	ErrValidationRejected = errors.New("checkout: validation rejected")
	// ErrServiceabilityRejected indicates the remote serviceability check
	// returned a negative status; recoverable by re-entering data.
	ErrServiceabilityRejected = errors.New("checkout: serviceability rejected")
	// ErrOrderSubmissionFailed indicates order creation failed or returned a
	// non-success status; recoverable by retrying the whole checkout flow.
	ErrOrderSubmissionFailed = errors.New("checkout: order submission failed")
	// ErrReconciliationFailed indicates the gateway return could not be
	// resolved into an order; terminal, requires a fresh checkout attempt.
	ErrReconciliationFailed = errors.New("checkout: reconciliation failed")
)

const (
	genericSubmissionMessage     = "order could not be submitted, please try again"
	genericReconciliationMessage = "payment could not be confirmed, please contact support"
)

// Rejection pairs a taxonomy sentinel with the user-facing message to show.
// errors.Is matches the sentinel; Message carries the (already normalised)
// text for the UI.
type Rejection struct {
	Kind    error
	Message string
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	if strings.TrimSpace(r.Message) == "" {
		return r.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", r.Kind.Error(), r.Message)
}

// Unwrap exposes the taxonomy sentinel for errors.Is.
func (r *Rejection) Unwrap() error { return r.Kind }

func reject(kind error, message string) error {
	return &Rejection{Kind: kind, Message: strings.TrimSpace(message)}
}

// NewRejection builds a taxonomy error carrying a user-facing message.
func NewRejection(kind error, message string) error {
	return reject(kind, message)
}

// UserMessage extracts the user-facing message from a taxonomy error,
// returning fallback when none is attached.
func UserMessage(err error, fallback string) string {
	var rejection *Rejection
	if errors.As(err, &rejection) && strings.TrimSpace(rejection.Message) != "" {
		return rejection.Message
	}
	return fallback
}
