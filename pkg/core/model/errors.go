package model

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the actor may not perform the operation.
	// It never carries details about the booking it refers to.
	ErrUnauthorized = errors.New("not authorized to perform this operation")

	// ErrSlotUnavailable is returned when another booking holds the same date and slot
	ErrSlotUnavailable = errors.New("selected time is not available")

	// ErrNotFound is returned when the tee time or standing request does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when the record is not in a state that allows the operation
	ErrInvalidTransition = errors.New("operation not allowed in current state")

	// ErrOperationFailed wraps store failures; the cause stays reachable via errors.Unwrap
	ErrOperationFailed = errors.New("operation failed")
)

// ValidationKind classifies a validation failure
type ValidationKind string

const (
	KindInvalidDate        ValidationKind = "invalid-date"
	KindInvalidTimeWindow  ValidationKind = "invalid-time-window"
	KindMisalignedInterval ValidationKind = "misaligned-interval"
	KindInvalidPlayerCount ValidationKind = "invalid-player-count"
	KindInvalidMember      ValidationKind = "invalid-member"
	KindUnknownMember      ValidationKind = "unknown-member"
	KindTierRestricted     ValidationKind = "tier-restricted"
	KindInvalidDayOfWeek   ValidationKind = "invalid-day-of-week"
	KindIncompleteFoursome ValidationKind = "incomplete-foursome"
	KindDuplicatePlayer    ValidationKind = "duplicate-player"
)

// ValidationError is a rejected request; nothing was written when one is returned
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Invalid builds a ValidationError
func Invalid(kind ValidationKind, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ValidationKindOf returns the kind of a wrapped ValidationError, or "" if err is not one
func ValidationKindOf(err error) ValidationKind {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Kind
	}
	return ""
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	return ValidationKindOf(err) != ""
}

// OperationFailed wraps a store error so it matches ErrOperationFailed and still unwraps to cause
func OperationFailed(op string, cause error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrOperationFailed, op, cause)
}
