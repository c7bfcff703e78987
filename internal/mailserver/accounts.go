package mailserver

import (
	"context"
	"fmt"
)

// Connection settings handed to mail clients.
const (
	SMTPPort     = 587
	SMTPSecurity = "STARTTLS"
	IMAPPort     = 993
	IMAPSecurity = "SSL"
)

// ClientSettings holds the connection parameters for one protocol.
type ClientSettings struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Security string `json:"security"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// EmailAccount is a provisioned mailbox with its client settings.
type EmailAccount struct {
	Email    string         `json:"email"`
	Username string         `json:"username"`
	Password string         `json:"password"`
	Domain   string         `json:"domain"`
	SMTP     ClientSettings `json:"smtp_settings"`
	IMAP     ClientSettings `json:"imap_settings"`
}

// CreateAccounts registers every configured domain in the mail database
// and provisions AccountsPerDomain random accounts for each. Usernames
// are unique within a run; passwords are hashed with SHA512-CRYPT before
// they reach the server.
func (c *Configurator) CreateAccounts(ctx context.Context) ([]EmailAccount, error) {
	var accounts []EmailAccount

	for _, domain := range c.settings.Domains {
		if err := c.registerDomain(ctx, domain); err != nil {
			return accounts, err
		}

		taken := make(map[string]bool)
		for i := 0; i < c.settings.AccountsPerDomain; i++ {
			account, err := c.createAccount(ctx, domain, taken)
			if err != nil {
				return accounts, fmt.Errorf("create account %d for %s: %w", i+1, domain, err)
			}
			accounts = append(accounts, *account)
			c.log.Info().Str("email", account.Email).Msg("created email account")
		}
	}

	return accounts, nil
}

func (c *Configurator) registerDomain(ctx context.Context, domain string) error {
	stmt := fmt.Sprintf("INSERT IGNORE INTO mailserver.domains (domain) VALUES ('%s');", sqlQuote(domain))
	if err := c.execSQL(ctx, stmt); err != nil {
		return fmt.Errorf("register domain %s: %w", domain, err)
	}
	return nil
}

func (c *Configurator) createAccount(ctx context.Context, domain string, taken map[string]bool) (*EmailAccount, error) {
	username, err := uniqueUsername(taken)
	if err != nil {
		return nil, err
	}

	password, err := GeneratePassword(c.settings.PasswordLength)
	if err != nil {
		return nil, err
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	email := username + "@" + domain
	stmt := fmt.Sprintf(
		"INSERT INTO mailserver.users (email, password, domain_id) SELECT '%s', '%s', id FROM mailserver.domains WHERE domain='%s';",
		sqlQuote(email), sqlQuote(hashed), sqlQuote(domain))
	if err := c.execSQL(ctx, stmt); err != nil {
		return nil, err
	}

	commands := []string{
		fmt.Sprintf("mkdir -p /var/mail/vhosts/%s/%s", domain, username),
		fmt.Sprintf("chown -R vmail:vmail /var/mail/vhosts/%s", domain),
	}
	if err := c.execAll(ctx, commands); err != nil {
		return nil, err
	}

	mailHost := "mail." + domain
	return &EmailAccount{
		Email:    email,
		Username: username,
		Password: password,
		Domain:   domain,
		SMTP: ClientSettings{
			Host:     mailHost,
			Port:     SMTPPort,
			Security: SMTPSecurity,
			Username: email,
			Password: password,
		},
		IMAP: ClientSettings{
			Host:     mailHost,
			Port:     IMAPPort,
			Security: IMAPSecurity,
			Username: email,
			Password: password,
		},
	}, nil
}

func (c *Configurator) execSQL(ctx context.Context, stmt string) error {
	cmd := fmt.Sprintf("mysql -u root -p%s -e %s",
		shellQuote(c.settings.MySQLRootPassword), shellQuote(stmt))
	_, err := c.runner.Execute(ctx, cmd)
	return err
}

// uniqueUsername draws usernames until one unused in this run comes up.
// The name pool is 400 combinations, so collisions stay rare for the
// account counts we create.
func uniqueUsername(taken map[string]bool) (string, error) {
	for attempt := 0; attempt < 100; attempt++ {
		username, err := GenerateUsername()
		if err != nil {
			return "", err
		}
		if !taken[username] {
			taken[username] = true
			return username, nil
		}
	}
	return "", fmt.Errorf("could not find an unused username")
}
