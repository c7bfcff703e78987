package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mailship/mailship/internal/config"
	"github.com/mailship/mailship/internal/dns"
	"github.com/mailship/mailship/internal/logging"
	"github.com/mailship/mailship/internal/mailserver"
	"github.com/mailship/mailship/internal/notify"
	"github.com/mailship/mailship/internal/provision"
	"github.com/mailship/mailship/internal/report"
)

// DeployOptions are the deploy command's flag values.
type DeployOptions struct {
	ConfigPath string
	SkipDNS    bool
	SkipChecks bool
}

// Deploy runs the complete deployment pipeline:
//
//  1. Loads and validates the deployment configuration
//  2. Analyzes DNS for conflicting mail provider records (aborts on
//     blocking conflicts unless checks are skipped)
//  3. Provisions the server and waits for boot and first-boot setup
//  4. Creates the mail DNS records (unless skipped)
//  5. Configures Postfix, Dovecot, TLS certificates and the mail database
//  6. Creates email accounts and runs verification checks
//  7. Writes the credential report, optionally archiving it to S3
//
// Database passwords are generated before provisioning so the first-boot
// script and the later SSH configuration share them. On failure after
// the server was created, the server is left running; the logged
// resource ID is the operator's cleanup handle.
func Deploy(ctx context.Context, opts DeployOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.SkipDNS {
		cfg.SkipDNS = true
	}
	if opts.SkipChecks {
		cfg.SkipChecks = true
	}

	log := newLogger()
	timeouts := loadTimeouts()
	notifier := notify.New(cfg.Webhook, logging.Component(log, "notify"))

	notifier.Sendf(ctx, "mailship: deployment starting for %s", strings.Join(cfg.Domains, ", "))

	conflicts, err := analyzeConflicts(ctx, cfg)
	if err != nil {
		notifier.Sendf(ctx, "mailship: deployment aborted: %v", err)
		return err
	}

	secrets, err := generateServerSecrets()
	if err != nil {
		return err
	}

	resource, runner, err := provisionServer(ctx, cfg, timeouts, secrets, log)
	if err != nil {
		notifier.Sendf(ctx, "mailship: provisioning failed: %v", err)
		return err
	}

	if !cfg.SkipDNS {
		if err := createRecords(ctx, cfg, timeouts, resource.PublicIP, log); err != nil {
			notifier.Sendf(ctx, "mailship: DNS record creation failed: %v", err)
			return err
		}
		waitForPropagation(ctx, cfg, timeouts, resource.PublicIP, log)
	}

	configurator := mailserver.NewConfigurator(runner, mailserver.Settings{
		Domains:           cfg.Domains,
		MailHostname:      cfg.MailHostname(),
		AdminEmail:        cfg.Email.AdminEmail,
		MySQLRootPassword: secrets.mysqlRoot,
		MailDBPassword:    secrets.mailDB,
		AccountsPerDomain: cfg.Email.AccountsPerDomain,
		PasswordLength:    cfg.Email.PasswordLength,
	}, logging.Component(log, "mailserver"))

	if err := configurator.Configure(ctx); err != nil {
		notifier.Sendf(ctx, "mailship: mail server configuration failed: %v", err)
		return fmt.Errorf("mail server configuration failed: %w", err)
	}

	accounts, err := configurator.CreateAccounts(ctx)
	if err != nil {
		notifier.Sendf(ctx, "mailship: account creation failed: %v", err)
		return fmt.Errorf("account creation failed: %w", err)
	}

	var checks map[string]mailserver.CheckResult
	if !cfg.SkipChecks {
		checks = configurator.RunChecks(ctx, accounts)
	}

	deployment := report.New(resource.PublicIP, cfg.Domains, accounts)
	deployment.DNSConflicts = conflicts
	deployment.CheckResults = checks

	paths, err := writeReport(ctx, cfg, deployment)
	if err != nil {
		return err
	}

	notifier.Sendf(ctx, "mailship: deployment %s complete, %d accounts on %s",
		deployment.ID, len(accounts), resource.PublicIP)
	printDeploySuccess(deployment, paths)
	return nil
}

// serverSecrets are the database passwords shared between the first-boot
// script and the SSH configuration phase.
type serverSecrets struct {
	mysqlRoot string
	mailDB    string
}

func generateServerSecrets() (serverSecrets, error) {
	mysqlRoot, err := mailserver.GeneratePassword(24)
	if err != nil {
		return serverSecrets{}, fmt.Errorf("generate MySQL root password: %w", err)
	}
	mailDB, err := mailserver.GeneratePassword(24)
	if err != nil {
		return serverSecrets{}, fmt.Errorf("generate mail DB password: %w", err)
	}
	return serverSecrets{mysqlRoot: mysqlRoot, mailDB: mailDB}, nil
}

// analyzeConflicts checks every domain for conflicting mail provider
// records. Blocking conflicts abort the deployment; advisory findings
// only end up in the report.
func analyzeConflicts(ctx context.Context, cfg *config.Config) (map[string][]dns.Conflict, error) {
	if cfg.SkipChecks {
		return nil, nil
	}

	analyzer := newAnalyzer()
	conflicts := make(map[string][]dns.Conflict, len(cfg.Domains))
	var blocking []dns.Conflict

	for _, domain := range cfg.Domains {
		rs, err := analyzer.Analyze(ctx, domain)
		if err != nil {
			return nil, fmt.Errorf("DNS analysis of %s failed: %w", domain, err)
		}

		found := dns.DetectConflicts(rs)
		if len(found) > 0 {
			conflicts[domain] = found
		}
		blocking = append(blocking, dns.Blocking(found)...)
	}

	if len(blocking) > 0 {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%d conflicting mail provider record(s) found:\n", len(blocking))
		for _, c := range blocking {
			fmt.Fprintf(&sb, "  %s: %s (%s)\n    %s\n", c.Domain, c.Provider, c.Evidence, c.Remediation)
		}
		sb.WriteString("Resolve the conflicts or re-run with --skip-checks")
		return conflicts, fmt.Errorf("%s", sb.String())
	}

	return conflicts, nil
}

// provisionServer creates the VPS, waits for boot, opens the SSH runner
// and waits for the first-boot setup sentinel.
func provisionServer(ctx context.Context, cfg *config.Config, timeouts *config.Timeouts, secrets serverSecrets, log zerolog.Logger) (*provision.Resource, mailserver.Runner, error) {
	userData, err := provision.RenderUserData(provision.UserData{
		Hostname:          cfg.MailHostname(),
		MySQLRootPassword: secrets.mysqlRoot,
		MailDBPassword:    secrets.mailDB,
	})
	if err != nil {
		return nil, nil, err
	}

	provider, err := newProvider(cfg, timeouts)
	if err != nil {
		return nil, nil, err
	}

	prov := newProvisioner(provider, timeouts, cfg.Server.SSHPort, logging.Component(log, "provision"))
	resource, err := prov.Provision(ctx, provision.Request{
		Name:     cfg.MailHostname(),
		Region:   cfg.Server.Region,
		Size:     cfg.Server.Size,
		Image:    cfg.Server.Image,
		SSHKeys:  cfg.Server.SSHKeys,
		UserData: userData,
		Tags:     []string{"mailship"},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("provisioning failed: %w", err)
	}

	runner, err := newRunner(cfg, resource.PublicIP)
	if err != nil {
		return resource, nil, err
	}

	if err := prov.WaitForSetup(ctx, runner); err != nil {
		return resource, runner, fmt.Errorf("first-boot setup did not finish: %w", err)
	}

	return resource, runner, nil
}

// createRecords ensures the mail DNS records exist for every domain.
func createRecords(ctx context.Context, cfg *config.Config, timeouts *config.Timeouts, serverIP string, log zerolog.Logger) error {
	manager, err := newDNSManager(cfg, timeouts, logging.Component(log, "dns"))
	if err != nil {
		return err
	}

	for _, domain := range cfg.Domains {
		zoneID := cfg.DNS.ZoneIDs[domain]
		if zoneID == "" {
			zoneID, err = manager.GetZoneID(ctx, domain)
			if err != nil {
				return fmt.Errorf("resolve zone for %s: %w", domain, err)
			}
		}

		created, err := manager.EnsureRecords(ctx, zoneID, domain, dns.DesiredRecords(domain, serverIP, cfg.DNS.TTL))
		if err != nil {
			return fmt.Errorf("create records for %s: %w", domain, err)
		}
		log.Info().Str("domain", domain).Int("created", created).Msg("DNS records ensured")
	}
	return nil
}

// waitForPropagation polls the resolver until mail.<domain> resolves to
// the new server. Resolver caches can lag the authoritative answer, so a
// timeout only logs a warning; if the records are genuinely absent the
// certificate step fails with its own error.
func waitForPropagation(ctx context.Context, cfg *config.Config, timeouts *config.Timeouts, serverIP string, log zerolog.Logger) {
	analyzer := newAnalyzer()
	for _, domain := range cfg.Domains {
		err := analyzer.WaitForPropagation(ctx, domain, serverIP,
			timeouts.DNSPropagationInterval, timeouts.DNSPropagationMaxAttempts)
		if err != nil {
			log.Warn().Str("domain", domain).Err(err).Msg("DNS propagation not confirmed, continuing")
			continue
		}
		log.Info().Str("domain", domain).Msg("DNS propagation confirmed")
	}
}

// writeReport writes the report bundle to disk and optionally uploads it
// to object storage.
func writeReport(ctx context.Context, cfg *config.Config, deployment *report.Deployment) ([]string, error) {
	outputDir := cfg.Report.OutputDir
	if outputDir == "" {
		outputDir = "mailship-deploy-" + deployment.Timestamp.Format("20060102_150405")
	}

	paths, err := deployment.Write(outputDir, cfg.DNS.TTL)
	if err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	if cfg.Report.S3 != nil {
		uploader, err := newUploader(cfg.Report.S3)
		if err != nil {
			return paths, fmt.Errorf("open report storage: %w", err)
		}

		bundle, err := deployment.Bundle(cfg.DNS.TTL)
		if err != nil {
			return paths, err
		}

		uploadCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if _, err := uploader.UploadBundle(uploadCtx, cfg.Report.S3.Bucket, deployment.ID, bundle); err != nil {
			return paths, fmt.Errorf("upload report: %w", err)
		}
	}

	return paths, nil
}

// printDeploySuccess outputs the completion summary and next steps.
func printDeploySuccess(deployment *report.Deployment, paths []string) {
	fmt.Printf("\nDeployment complete!\n")
	fmt.Printf("Server IP: %s\n", deployment.ServerIP)
	fmt.Printf("Accounts created: %d\n", deployment.TotalAccounts)
	fmt.Printf("\nReport files:\n")
	for _, path := range paths {
		fmt.Printf("  %s\n", path)
	}
	fmt.Printf("\nKeep the credential files safe; passwords are not stored anywhere else.\n")
}
