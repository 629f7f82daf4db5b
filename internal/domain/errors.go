package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBarcode is returned when a barcode fails format or checksum validation
	ErrInvalidBarcode = errors.New("invalid barcode")

	// ErrProviderUnavailable is returned when a provider is skipped because its key is missing
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderFailure is returned when a provider request fails (network, status, payload)
	ErrProviderFailure = errors.New("provider request failed")

	// ErrUnknownProvider is returned when a caller forces a provider that is not registered
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrAborted is returned when the caller cancels a resolution or decode in flight
	ErrAborted = errors.New("operation aborted")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrRulesEngineFailure is returned when the compliance rules engine cannot be reached
	ErrRulesEngineFailure = errors.New("rules engine request failed")
)

// ValidationError carries the reason a barcode was rejected.
type ValidationError struct {
	Value  string
	Reason string
	Msg    string
}

func (e *ValidationError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s %q: %s", ErrInvalidBarcode, e.Value, e.Msg)
	}
	return fmt.Sprintf("%s %q: %s", ErrInvalidBarcode, e.Value, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidBarcode.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidBarcode
}
