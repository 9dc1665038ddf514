package otp

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrInvalidKey is returned when the caller never supplied key bytes.
	// It is raised before any boundary interaction.
	ErrInvalidKey = errors.New("key must be a byte sequence")

	// ErrInvalidData is returned when the caller never supplied challenge
	// bytes. It is raised before any boundary interaction.
	ErrInvalidData = errors.New("challenge must be a byte sequence")

	// ErrInvalidAlgorithm is returned for a discriminant outside the closed
	// algorithm set, before any dispatch to a backend.
	ErrInvalidAlgorithm = errors.New("unknown algorithm")

	// ErrComputeFailure is returned when the boundary call itself faulted:
	// a module trap, allocator exhaustion, a malformed result record, or a
	// bridge process failure.
	ErrComputeFailure = errors.New("compute failure")

	// ErrClosed is returned when a Passcode is used after Close.
	ErrClosed = errors.New("passcode has been closed")
)

// computeFailure folds a boundary fault into the one reportable error kind.
// The fault is not retried; a faulted boundary call cannot be assumed
// idempotent.
func computeFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrComputeFailure, err)
}
