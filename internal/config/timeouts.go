package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable wait budgets.
// These values can be customized via environment variables.
type Timeouts struct {
	PollInterval     time.Duration // Delay between provisioning status polls
	PollMaxAttempts  int           // Maximum number of status polls
	SSHWait          time.Duration // Budget for the SSH port to open
	SetupInterval    time.Duration // Delay between setup sentinel checks
	SetupMaxAttempts int           // Maximum number of sentinel checks
	CreateTimeout    time.Duration // Budget for the create-resource API call
	HTTPTimeout      time.Duration // Per-request timeout for REST clients

	DNSPropagationInterval    time.Duration // Delay between propagation lookups
	DNSPropagationMaxAttempts int           // Maximum number of propagation lookups
}

// LoadTimeouts loads wait budgets from environment variables.
// If a variable is not set or invalid, the default is used.
//
// Environment Variables:
//   - MAILSHIP_POLL_INTERVAL (default: 10s)
//   - MAILSHIP_POLL_MAX_ATTEMPTS (default: 30)
//   - MAILSHIP_SSH_WAIT (default: 5m)
//   - MAILSHIP_SETUP_INTERVAL (default: 15s)
//   - MAILSHIP_SETUP_MAX_ATTEMPTS (default: 40)
//   - MAILSHIP_CREATE_TIMEOUT (default: 2m)
//   - MAILSHIP_HTTP_TIMEOUT (default: 30s)
//   - MAILSHIP_DNS_PROPAGATION_INTERVAL (default: 10s)
//   - MAILSHIP_DNS_PROPAGATION_MAX_ATTEMPTS (default: 30)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		PollInterval:     parseDuration("MAILSHIP_POLL_INTERVAL", 10*time.Second),
		PollMaxAttempts:  parseInt("MAILSHIP_POLL_MAX_ATTEMPTS", 30),
		SSHWait:          parseDuration("MAILSHIP_SSH_WAIT", 5*time.Minute),
		SetupInterval:    parseDuration("MAILSHIP_SETUP_INTERVAL", 15*time.Second),
		SetupMaxAttempts: parseInt("MAILSHIP_SETUP_MAX_ATTEMPTS", 40),
		CreateTimeout:    parseDuration("MAILSHIP_CREATE_TIMEOUT", 2*time.Minute),
		HTTPTimeout:      parseDuration("MAILSHIP_HTTP_TIMEOUT", 30*time.Second),

		DNSPropagationInterval:    parseDuration("MAILSHIP_DNS_PROPAGATION_INTERVAL", 10*time.Second),
		DNSPropagationMaxAttempts: parseInt("MAILSHIP_DNS_PROPAGATION_MAX_ATTEMPTS", 30),
	}
}

// parseDuration parses a duration from an environment variable.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
