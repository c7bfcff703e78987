// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic
// and can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/mailship/mailship/internal/config"
	"github.com/mailship/mailship/internal/dns"
	"github.com/mailship/mailship/internal/logging"
	"github.com/mailship/mailship/internal/mailserver"
	"github.com/mailship/mailship/internal/platform/cloudflare"
	"github.com/mailship/mailship/internal/platform/digitalocean"
	"github.com/mailship/mailship/internal/platform/hetzner"
	"github.com/mailship/mailship/internal/platform/s3"
	sshclient "github.com/mailship/mailship/internal/platform/ssh"
	"github.com/mailship/mailship/internal/provision"
)

// serverProvisioner matches *provision.Provisioner; narrowed for testing.
type serverProvisioner interface {
	Provision(ctx context.Context, req provision.Request) (*provision.Resource, error)
	WaitForSetup(ctx context.Context, exec provision.Executor) error
}

// dnsManager matches *cloudflare.Client; narrowed for testing.
type dnsManager interface {
	GetZoneID(ctx context.Context, domain string) (string, error)
	EnsureRecords(ctx context.Context, zoneID, domain string, desired []dns.Record) (int, error)
}

// domainAnalyzer matches *dns.Analyzer; narrowed for testing.
type domainAnalyzer interface {
	Analyze(ctx context.Context, domain string) (*dns.RecordSet, error)
	DetectNameserverProvider(ctx context.Context, domain string) string
	WaitForPropagation(ctx context.Context, domain, ip string, interval time.Duration, maxAttempts int) error
}

// reportUploader matches *s3.Client; narrowed for testing.
type reportUploader interface {
	UploadBundle(ctx context.Context, bucket, prefix string, files map[string][]byte) ([]string, error)
}

// logLevel is the level newLogger builds loggers at; --verbose raises it.
var logLevel = "info"

// SetVerbose switches handler loggers to debug output.
func SetVerbose(verbose bool) {
	if verbose {
		logLevel = "debug"
	} else {
		logLevel = "info"
	}
}

// Factory function variables - can be replaced in tests for dependency
// injection.
var (
	// findConfigFile locates the default config file.
	findConfigFile = config.FindConfigFile

	// loadConfigFile loads config from a file.
	loadConfigFile = config.Load

	// loadTimeouts reads the polling and timeout knobs from the environment.
	loadTimeouts = config.LoadTimeouts

	// newLogger builds the root logger.
	newLogger = func() zerolog.Logger {
		return logging.Setup(logLevel)
	}

	// newProvider creates the cloud provider client for the configured backend.
	newProvider = func(cfg *config.Config, timeouts *config.Timeouts) (provision.Provider, error) {
		switch cfg.Server.Provider {
		case "digitalocean":
			return digitalocean.NewClient(cfg.Server.Token, timeouts.HTTPTimeout), nil
		case "hetzner":
			return hetzner.NewClient(cfg.Server.Token), nil
		default:
			return nil, fmt.Errorf("unsupported server provider: %s", cfg.Server.Provider)
		}
	}

	// newProvisioner wraps a provider with the readiness wait logic.
	newProvisioner = func(p provision.Provider, t *config.Timeouts, sshPort int, log zerolog.Logger) serverProvisioner {
		return provision.New(p, t, sshPort, log)
	}

	// newRunner opens an SSH-backed runner for the target host.
	newRunner = func(cfg *config.Config, host string) (mailserver.Runner, error) {
		key, err := os.ReadFile(cfg.Server.SSHPrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read SSH private key: %w", err)
		}
		return sshclient.NewClient(&sshclient.Config{
			Host:       host,
			Port:       cfg.Server.SSHPort,
			User:       cfg.Server.SSHUser,
			PrivateKey: key,
		})
	}

	// newDNSManager creates the DNS provider client.
	newDNSManager = func(cfg *config.Config, timeouts *config.Timeouts, log zerolog.Logger) (dnsManager, error) {
		if cfg.DNS.Token == "" {
			return nil, fmt.Errorf("DNS provider token missing: set dns.token or CLOUDFLARE_API_TOKEN")
		}
		return cloudflare.NewClient(cfg.DNS.Token, timeouts.HTTPTimeout, log), nil
	}

	// newAnalyzer creates a DNS analyzer against the system resolver.
	newAnalyzer = func() domainAnalyzer {
		return dns.NewAnalyzer(nil)
	}

	// newUploader creates the object storage client for report archival.
	newUploader = func(s3cfg *config.S3Config) (reportUploader, error) {
		return s3.NewClient(s3cfg.Endpoint, s3cfg.Region, s3cfg.AccessKey, s3cfg.SecretKey)
	}

	// writeFile writes data to a file (for testing injection).
	writeFile = os.WriteFile
)

// loadConfig loads and validates the configuration. If configPath is
// empty, it looks for mailship.yaml in the current directory.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		path, err := findConfigFile()
		if err != nil {
			return nil, fmt.Errorf("no config file found: %w\nRun 'mailship init' to create one", err)
		}
		configPath = path
	}

	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
