package mailserver

import (
	"context"
	"fmt"
	"strings"
)

// CheckResult is the outcome of one deployment verification check.
type CheckResult string

const (
	CheckPass  CheckResult = "PASS"
	CheckFail  CheckResult = "FAIL"
	CheckError CheckResult = "ERROR"
)

// RunChecks verifies the deployed mail server: SMTP delivery, TLS
// certificate validity on the IMAP port, and core service state.
// Individual check failures do not abort the remaining checks.
func (c *Configurator) RunChecks(ctx context.Context, accounts []EmailAccount) map[string]CheckResult {
	results := map[string]CheckResult{
		"smtp_delivery":    c.checkSMTPDelivery(ctx, accounts),
		"ssl_certificates": c.checkTLSCertificate(ctx),
		"services":         c.checkServices(ctx),
	}

	for name, result := range results {
		c.log.Info().Str("check", name).Str("result", string(result)).Msg("verification check")
	}
	return results
}

// checkSMTPDelivery sends a test message from the first account to the
// admin address through the local MTA.
func (c *Configurator) checkSMTPDelivery(ctx context.Context, accounts []EmailAccount) CheckResult {
	if len(accounts) == 0 || c.settings.AdminEmail == "" {
		return CheckError
	}

	cmd := fmt.Sprintf("echo 'Test email' | mail -s %s %s",
		shellQuote("Test from "+accounts[0].Email), shellQuote(c.settings.AdminEmail))
	if _, err := c.runner.Execute(ctx, cmd); err != nil {
		return CheckFail
	}
	return CheckPass
}

// checkTLSCertificate validates the certificate served on the IMAPS port.
func (c *Configurator) checkTLSCertificate(ctx context.Context) CheckResult {
	host := c.settings.MailHostname
	cmd := fmt.Sprintf("openssl s_client -connect %s:%d -servername %s < /dev/null", host, IMAPPort, host)

	output, err := c.runner.Execute(ctx, cmd)
	if err != nil {
		return CheckError
	}
	if strings.Contains(output, "Verify return code: 0 (ok)") {
		return CheckPass
	}
	return CheckFail
}

// checkServices confirms the mail stack services are active.
func (c *Configurator) checkServices(ctx context.Context) CheckResult {
	for _, service := range []string{"postfix", "dovecot", "mysql"} {
		output, err := c.runner.Execute(ctx, "systemctl is-active "+service)
		if err != nil {
			return CheckError
		}
		if strings.TrimSpace(output) != "active" {
			return CheckFail
		}
	}
	return CheckPass
}
