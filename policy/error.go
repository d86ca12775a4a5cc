// Copyright (c) 2024 Thereisnosecondbest
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package policy

import "fmt"

// ErrorKind identifies a kind of policy rejection.  It has full support for
// errors.Is and errors.As, so the caller can directly check against a kind
// when determining the reason a transaction was refused.
type ErrorKind string

// These constants enumerate every reason the evaluator can refuse a
// transaction.  Each one corresponds to exactly one check and the evaluator
// reports the first check that fails.
const (
	// ErrUnrecognizedScript indicates an output script does not match any
	// recognized standard form.
	ErrUnrecognizedScript = ErrorKind("ErrUnrecognizedScript")

	// ErrPolicyDisabled indicates the reject-parasites policy knob is
	// enabled, which refuses every transaction unconditionally.
	ErrPolicyDisabled = ErrorKind("ErrPolicyDisabled")

	// ErrOverlayProtocolDetected indicates a data carrier output embeds a
	// recognized third-party asset overlay marker.
	ErrOverlayProtocolDetected = ErrorKind("ErrOverlayProtocolDetected")

	// ErrFeeRateTooLow indicates the transaction pays less than the
	// minimum relay fee rate.
	ErrFeeRateTooLow = ErrorKind("ErrFeeRateTooLow")

	// ErrWeightExceeded indicates the sigop-adjusted virtual size exceeds
	// the maximum standard transaction weight.
	ErrWeightExceeded = ErrorKind("ErrWeightExceeded")

	// ErrScriptSigTooSmall indicates an input signature script is shorter
	// than the minimum bytes per potentially-executed sigop.
	ErrScriptSigTooSmall = ErrorKind("ErrScriptSigTooSmall")

	// ErrTooManyAncestors indicates the transaction has too many
	// unconfirmed ancestors in the mempool.
	ErrTooManyAncestors = ErrorKind("ErrTooManyAncestors")

	// ErrAncestorSizeTooLarge indicates the total size of the
	// transaction's unconfirmed ancestors is too large.
	ErrAncestorSizeTooLarge = ErrorKind("ErrAncestorSizeTooLarge")

	// ErrTooManyDescendants indicates the transaction has too many
	// unconfirmed descendants in the mempool.
	ErrTooManyDescendants = ErrorKind("ErrTooManyDescendants")

	// ErrDescendantSizeTooLarge indicates the total size of the
	// transaction's unconfirmed descendants is too large.
	ErrDescendantSizeTooLarge = ErrorKind("ErrDescendantSizeTooLarge")

	// ErrBarePubkey indicates an output pays directly to an exposed
	// public key.
	ErrBarePubkey = ErrorKind("ErrBarePubkey")

	// ErrBareMultisig indicates an output is a bare multi-signature
	// script.
	ErrBareMultisig = ErrorKind("ErrBareMultisig")

	// ErrScriptTooLarge indicates an output script exceeds the maximum
	// standard script size.
	ErrScriptTooLarge = ErrorKind("ErrScriptTooLarge")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// RuleError identifies a policy rule violation.  It is used to indicate that
// processing of a transaction failed due to one of the standardness rules.
// It has full support for errors.Is and errors.As, so the caller can
// ascertain the specific reason for the rejection.
type RuleError struct {
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e RuleError) Unwrap() error {
	return e.Err
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(kind ErrorKind, desc string) RuleError {
	return RuleError{Err: kind, Description: desc}
}

// ContextError identifies a fault in the caller-supplied evaluation context,
// such as a missing previous output value for a referenced input.  It is
// deliberately distinct from RuleError: it means the caller could not supply
// enough information to judge the transaction, not that the transaction
// failed policy.
type ContextError struct {
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e ContextError) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e ContextError) Unwrap() error {
	return e.Err
}

// ErrMissingContext is the underlying kind of every ContextError produced by
// this package.
const ErrMissingContext = ErrorKind("ErrMissingContext")

// contextError creates a ContextError with the ErrMissingContext kind.
func contextError(format string, args ...interface{}) ContextError {
	return ContextError{
		Err:         ErrMissingContext,
		Description: fmt.Sprintf(format, args...),
	}
}
