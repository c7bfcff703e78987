package handlers

import (
	"context"
	"fmt"

	"github.com/mailship/mailship/internal/dns"
)

// Analyze checks each domain's DNS records against the known mail
// provider conflict table and prints the findings. Domains given as
// arguments take precedence over the configuration file. Returns an
// error when blocking conflicts exist so scripts can gate on the exit
// status.
func Analyze(ctx context.Context, configPath string, domains []string) error {
	if len(domains) == 0 {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		domains = cfg.Domains
	}

	analyzer := newAnalyzer()
	totalBlocking := 0

	for _, domain := range domains {
		rs, err := analyzer.Analyze(ctx, domain)
		if err != nil {
			return fmt.Errorf("DNS analysis of %s failed: %w", domain, err)
		}

		fmt.Printf("\n%s\n", domain)
		fmt.Printf("  nameserver provider: %s\n", analyzer.DetectNameserverProvider(ctx, domain))
		if len(rs.MXHosts) == 0 {
			fmt.Printf("  MX records: none\n")
		} else {
			for _, mx := range rs.MXHosts {
				fmt.Printf("  MX: %s\n", mx)
			}
		}

		conflicts := dns.DetectConflicts(rs)
		if len(conflicts) == 0 {
			fmt.Printf("  no conflicts\n")
			continue
		}

		for _, c := range conflicts {
			label := "CONFLICT"
			if c.Advisory {
				label = "advisory"
			} else {
				totalBlocking++
			}
			fmt.Printf("  [%s] %s", label, c.Provider)
			if c.Evidence != "" {
				fmt.Printf(" (%s)", c.Evidence)
			}
			fmt.Printf("\n    %s\n", c.Remediation)
		}
	}

	if totalBlocking > 0 {
		return fmt.Errorf("%d blocking conflict(s) found", totalBlocking)
	}
	return nil
}
