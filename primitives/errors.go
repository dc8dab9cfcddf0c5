//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package primitives

import (
	"errors"

	"github.com/markkurossi/sepia/field"
)

// Error kinds surfaced by the primitives engine (spec.md §7). Wrap
// these with fmt.Errorf("...: %w", ErrXxx) at the call site so callers
// can recover the kind with errors.Is.
var (
	// ErrProtocol signals a malformed argument to an operation
	// constructor: wrong arity or an out-of-range bound. Raised
	// synchronously; does not partially enqueue.
	ErrProtocol = errors.New("primitives: protocol error")

	// ErrPrimitives signals not-enough-shares during interpolation,
	// an unexpected operation state, or an uninitialised protocol
	// instance. Aborts the current operation set.
	ErrPrimitives = errors.New("primitives: primitives error")

	// ErrPrivacyViolation is raised by the connection layer when
	// available input or privacy peers drop below the configured
	// minimum. Fatal for the current round.
	ErrPrivacyViolation = errors.New("primitives: privacy violation")
)

// FailureResult is the sentinel final-result value of a randomised
// sub-protocol (GenerateRandomBit, GenerateBitwiseRandomNumber, LSB)
// that failed with its inherent small probability. It is a flag, not
// a field element produced by any arithmetic: it is deliberately
// distinct from shamir.MissingShare so the two sentinels are never
// confused.
const FailureResult field.Element = ^field.Element(1)

// IsFailure reports whether a final result is the single-element
// failure sentinel.
func IsFailure(result []field.Element) bool {
	return len(result) == 1 && result[0] == FailureResult
}
