package handlers

import (
	"context"
	"fmt"

	"github.com/mailship/mailship/internal/logging"
	"github.com/mailship/mailship/internal/mailserver"
	"github.com/mailship/mailship/internal/report"
)

// AccountsOptions are the accounts command's flag values.
type AccountsOptions struct {
	ConfigPath        string
	ServerIP          string
	Count             int
	MySQLRootPassword string
}

// CreateAccounts provisions additional email accounts on an existing
// mail server and writes a fresh credential report.
func CreateAccounts(ctx context.Context, opts AccountsOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	perDomain := cfg.Email.AccountsPerDomain
	if opts.Count > 0 {
		perDomain = opts.Count
	}

	log := newLogger()
	runner, err := newRunner(cfg, opts.ServerIP)
	if err != nil {
		return err
	}

	configurator := mailserver.NewConfigurator(runner, mailserver.Settings{
		Domains:           cfg.Domains,
		MailHostname:      cfg.MailHostname(),
		AdminEmail:        cfg.Email.AdminEmail,
		MySQLRootPassword: opts.MySQLRootPassword,
		AccountsPerDomain: perDomain,
		PasswordLength:    cfg.Email.PasswordLength,
	}, logging.Component(log, "mailserver"))

	accounts, err := configurator.CreateAccounts(ctx)
	if err != nil {
		return fmt.Errorf("account creation failed: %w", err)
	}

	deployment := report.New(opts.ServerIP, cfg.Domains, accounts)
	paths, err := writeReport(ctx, cfg, deployment)
	if err != nil {
		return err
	}

	fmt.Printf("Created %d account(s)\n", len(accounts))
	for _, path := range paths {
		fmt.Printf("  %s\n", path)
	}
	return nil
}
