package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientFunds is returned when a transfer's amount plus
	// fee exceeds the current balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSessionInvalid is returned when an operation requires a
	// logged-in session with a principal.
	ErrSessionInvalid = errors.New("session is not logged in")

	// ErrTransferInFlight is returned when a transfer is requested
	// while another one has not yet reached a terminal state.
	ErrTransferInFlight = errors.New("another transfer is in flight")
)

// ValidationError is a local-only error raised before any state is
// mutated or any network call is made.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return "validation error: " + e.Reason
}

// IsValidationError returns true if err is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// TransferRejectedError is returned when the remote ledger explicitly
// reports a transfer failure. Unexpected failures during the remote
// call are wrapped the same way so both trigger an identical rollback.
type TransferRejectedError struct {
	Message string
}

func (e TransferRejectedError) Error() string {
	return "transfer rejected: " + e.Message
}

// IsTransferRejected returns true if err is a TransferRejectedError.
func IsTransferRejected(err error) bool {
	var tr TransferRejectedError
	return errors.As(err, &tr)
}

// RemoteUnavailableError is a network, timeout, or decode failure on a
// balance, fee, or price query. It is recovered automatically by the
// resolver's deterministic fallback and surfaces to the caller only as
// a provenance tag.
type RemoteUnavailableError struct {
	Endpoint string
	Cause    error
}

func (e RemoteUnavailableError) Error() string {
	return fmt.Sprintf("remote unavailable: %s: %v", e.Endpoint, e.Cause)
}

func (e RemoteUnavailableError) Unwrap() error {
	return e.Cause
}
