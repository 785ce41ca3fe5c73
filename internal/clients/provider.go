package clients

import (
	"errors"
	"fmt"
)

// ProviderError classifies upstream provider failures for the retry loop:
// timeouts, connection errors and 5xx responses are retryable, 4xx are not.
type ProviderError struct {
	Provider  string
	Status    int
	Message   string
	Retryable bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error (status %d): %s", e.Provider, e.Status, e.Message)
}

func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	// Unknown failure modes (network errors, timeouts) default to retryable.
	return true
}
