package exchange

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat is returned when a DataProvider is constructed with
	// an empty or duplicate format set. It is reported synchronously to the
	// caller and never reaches the OS layer.
	ErrInvalidFormat = errors.New("invalid format set")

	// ErrUnsupportedFormat is returned when a requested format is not
	// offered by any representation. It fails only the single request,
	// never the session or reader.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrNotAvailable is returned when an item or format disappeared from
	// the external source between snapshot and read.
	ErrNotAvailable = errors.New("data not available")

	// ErrCancelled is returned when a read or resolution was abandoned
	// because the owning session reached a terminal state or the request
	// context was cancelled. Not retryable.
	ErrCancelled = errors.New("cancelled")

	// ErrTimeout marks a resolution that exceeded its deadline. It is
	// wrapped in a ResolutionError so the failure stays scoped to the one
	// representation, but callers can pick it out with errors.Is to spot
	// misbehaving producers.
	ErrTimeout = errors.New("resolution timed out")
)

// ResolutionError reports the failure of a single representation's producer.
// The failure is contained: other formats of the same item remain offered.
type ResolutionError struct {
	Format Format
	Cause  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution of %q failed: %v", e.Format, e.Cause)
}

func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// TransferError reports a read-side failure while fetching bytes from an
// external source. Unlike ErrCancelled it is considered retryable.
type TransferError struct {
	Cause error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed: %v", e.Cause)
}

func (e *TransferError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether a read failure is worth retrying.
func IsRetryable(err error) bool {
	var te *TransferError
	return errors.As(err, &te)
}
