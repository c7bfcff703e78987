package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports missing or malformed configuration input.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation checks whether err is a configuration validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var validate = validator.New()

// Validate checks structural tags plus the cross-field rules the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &ValidationError{Err: err}
	}

	if c.Server.Token == "" {
		return &ValidationError{Err: fmt.Errorf("server.token is required (or set %s)", tokenEnvVar(c.Server.Provider))}
	}
	if c.Server.SSHPrivateKeyPath == "" {
		return &ValidationError{Err: errors.New("server.ssh_private_key is required")}
	}
	if !c.SkipDNS && c.DNS.Provider != "" && c.DNS.Token == "" {
		return &ValidationError{Err: errors.New("dns.token is required (or set CLOUDFLARE_API_TOKEN)")}
	}

	return nil
}

func tokenEnvVar(provider string) string {
	if provider == "hetzner" {
		return "HCLOUD_TOKEN"
	}
	return "DIGITALOCEAN_TOKEN"
}
