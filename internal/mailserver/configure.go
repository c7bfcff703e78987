package mailserver

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Settings describes the mail server being configured.
type Settings struct {
	Domains           []string
	MailHostname      string
	AdminEmail        string
	MySQLRootPassword string
	MailDBPassword    string
	AccountsPerDomain int
	PasswordLength    int
}

// PrimaryDomain returns the first configured domain, which anchors the
// server hostname and TLS certificate.
func (s Settings) PrimaryDomain() string {
	if len(s.Domains) == 0 {
		return ""
	}
	return s.Domains[0]
}

// Configurator drives mail server configuration over a Runner.
type Configurator struct {
	runner   Runner
	settings Settings
	log      zerolog.Logger
}

// NewConfigurator creates a Configurator for the given server settings.
func NewConfigurator(runner Runner, settings Settings, log zerolog.Logger) *Configurator {
	return &Configurator{runner: runner, settings: settings, log: log}
}

// Configure runs the full configuration sequence: Postfix, Dovecot, TLS
// certificates and the mail database schema.
func (c *Configurator) Configure(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"postfix", c.ConfigurePostfix},
		{"dovecot", c.ConfigureDovecot},
		{"certificates", c.SetupCertificates},
		{"database", c.CreateDatabase},
	}

	for _, step := range steps {
		c.log.Info().Str("step", step.name).Msg("configuring mail server")
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("configure %s: %w", step.name, err)
		}
	}
	return nil
}

// ConfigurePostfix uploads the Postfix main configuration and MySQL
// lookup maps, then restarts the service.
func (c *Configurator) ConfigurePostfix(ctx context.Context) error {
	mainCf, err := renderTemplate("postfix-main", postfixMainTemplate, struct {
		MailHostname  string
		PrimaryDomain string
	}{c.settings.MailHostname, c.settings.PrimaryDomain()})
	if err != nil {
		return err
	}

	if err := c.runner.Upload(ctx, "/etc/postfix/main.cf", mainCf, 0o644); err != nil {
		return fmt.Errorf("upload main.cf: %w", err)
	}

	for path, query := range postfixMySQLMaps {
		content, err := renderTemplate("postfix-mysql-map", postfixMySQLMapTemplate, struct {
			MailDBPassword string
			Query          string
		}{c.settings.MailDBPassword, query})
		if err != nil {
			return err
		}
		if err := c.runner.Upload(ctx, path, content, 0o640); err != nil {
			return fmt.Errorf("upload %s: %w", path, err)
		}
	}

	commands := []string{
		"chmod 640 /etc/postfix/mysql-*.cf",
		"chown root:postfix /etc/postfix/mysql-*.cf",
		"systemctl restart postfix",
	}
	return c.execAll(ctx, commands)
}

// ConfigureDovecot uploads the Dovecot configuration and SQL driver
// settings, provisions the vmail user, and restarts the service.
func (c *Configurator) ConfigureDovecot(ctx context.Context) error {
	conf, err := renderTemplate("dovecot-conf", dovecotConfTemplate, struct {
		MailHostname string
	}{c.settings.MailHostname})
	if err != nil {
		return err
	}

	sqlConf, err := renderTemplate("dovecot-sql", dovecotSQLTemplate, struct {
		MailDBPassword string
	}{c.settings.MailDBPassword})
	if err != nil {
		return err
	}

	if err := c.runner.Upload(ctx, "/etc/dovecot/dovecot.conf", conf, 0o644); err != nil {
		return fmt.Errorf("upload dovecot.conf: %w", err)
	}
	if err := c.runner.Upload(ctx, "/etc/dovecot/dovecot-sql.conf.ext", sqlConf, 0o640); err != nil {
		return fmt.Errorf("upload dovecot-sql.conf.ext: %w", err)
	}

	commands := []string{
		// groupadd/useradd fail harmlessly if vmail already exists
		"groupadd -g 5000 vmail || true",
		"useradd -g vmail -u 5000 vmail -d /var/mail || true",
		"mkdir -p /var/mail/vhosts",
		"chown -R vmail:vmail /var/mail",
		"chown -R vmail:dovecot /etc/dovecot",
		"chmod -R o-rwx /etc/dovecot",
		"systemctl restart dovecot",
	}
	return c.execAll(ctx, commands)
}

// SetupCertificates obtains a Let's Encrypt certificate for the mail
// hostname using certbot in standalone mode and enables auto-renewal.
func (c *Configurator) SetupCertificates(ctx context.Context) error {
	commands := []string{
		"systemctl stop nginx",
		fmt.Sprintf("certbot certonly --standalone -d %s --non-interactive --agree-tos --email %s",
			c.settings.MailHostname, c.settings.AdminEmail),
		"systemctl start nginx",
		"systemctl enable certbot.timer",
	}
	return c.execAll(ctx, commands)
}

// CreateDatabase uploads and applies the mail database schema.
func (c *Configurator) CreateDatabase(ctx context.Context) error {
	const schemaPath = "/tmp/mail_structure.sql"

	if err := c.runner.Upload(ctx, schemaPath, []byte(mailSchemaSQL), 0o600); err != nil {
		return fmt.Errorf("upload schema: %w", err)
	}

	cmd := fmt.Sprintf("mysql -u root -p%s < %s",
		shellQuote(c.settings.MySQLRootPassword), schemaPath)
	if _, err := c.runner.Execute(ctx, cmd); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (c *Configurator) execAll(ctx context.Context, commands []string) error {
	for _, cmd := range commands {
		if _, err := c.runner.Execute(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}
