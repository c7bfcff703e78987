package provision

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three readiness waits. Callers match them with
// errors.Is after Provision or WaitForSetup fails.
var (
	// ErrTimeout means the resource never reached the active state within
	// the configured number of polls.
	ErrTimeout = errors.New("resource did not reach active state")

	// ErrUnreachable means the management port never opened.
	ErrUnreachable = errors.New("management port unreachable")

	// ErrSetupTimeout means the first-boot completion sentinel never
	// appeared on the server.
	ErrSetupTimeout = errors.New("server setup did not complete")
)

// ProviderError reports a non-success response from a cloud provider API.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsProviderError checks whether err originates from a provider API response.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
