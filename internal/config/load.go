package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config file name looked up in the working
// directory when no --config flag is given.
const DefaultConfigFile = "mailship.yaml"

const (
	defaultAccountsPerDomain = 3
	defaultPasswordLength    = 16
	defaultSSHUser           = "root"
	defaultSSHPort           = 22
	defaultDNSTTL            = 3600
	defaultImage             = "ubuntu-22-04-x64"
)

// Load reads, defaults, and validates a configuration file.
func Load(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// FindConfigFile returns the default config path if it exists in the
// working directory.
func FindConfigFile() (string, error) {
	if _, err := os.Stat(DefaultConfigFile); err != nil {
		return "", fmt.Errorf("%s not found in current directory", DefaultConfigFile)
	}
	return DefaultConfigFile, nil
}

// expandHome resolves a leading ~ against the user's home directory, so
// paths like ~/.ssh/id_rsa work as documented in the starter config.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func applyDefaults(cfg *Config) {
	cfg.Server.SSHPrivateKeyPath = expandHome(cfg.Server.SSHPrivateKeyPath)

	if cfg.Server.Image == "" {
		cfg.Server.Image = defaultImage
	}
	if cfg.Server.SSHUser == "" {
		cfg.Server.SSHUser = defaultSSHUser
	}
	if cfg.Server.SSHPort == 0 {
		cfg.Server.SSHPort = defaultSSHPort
	}
	if cfg.Email.AccountsPerDomain == 0 {
		cfg.Email.AccountsPerDomain = defaultAccountsPerDomain
	}
	if cfg.Email.PasswordLength == 0 {
		cfg.Email.PasswordLength = defaultPasswordLength
	}
	if cfg.DNS.TTL == 0 {
		cfg.DNS.TTL = defaultDNSTTL
	}

	// API tokens may come from the environment instead of the file.
	if cfg.Server.Token == "" {
		switch cfg.Server.Provider {
		case "digitalocean":
			cfg.Server.Token = os.Getenv("DIGITALOCEAN_TOKEN")
		case "hetzner":
			cfg.Server.Token = os.Getenv("HCLOUD_TOKEN")
		}
	}
	if cfg.DNS.Token == "" {
		cfg.DNS.Token = os.Getenv("CLOUDFLARE_API_TOKEN")
	}
}
