package handlers

import (
	"context"
	"fmt"

	"github.com/mailship/mailship/internal/dns"
	"github.com/mailship/mailship/internal/logging"
)

// DNSOptions are the dns command's flag values.
type DNSOptions struct {
	ConfigPath string
	ServerIP   string
}

// CreateDNS ensures the mail DNS records exist for every configured
// domain, pointing at the given server IP.
func CreateDNS(ctx context.Context, opts DNSOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	log := newLogger()
	timeouts := loadTimeouts()

	manager, err := newDNSManager(cfg, timeouts, logging.Component(log, "dns"))
	if err != nil {
		return err
	}

	total := 0
	for _, domain := range cfg.Domains {
		zoneID := cfg.DNS.ZoneIDs[domain]
		if zoneID == "" {
			zoneID, err = manager.GetZoneID(ctx, domain)
			if err != nil {
				return fmt.Errorf("resolve zone for %s: %w", domain, err)
			}
		}

		created, err := manager.EnsureRecords(ctx, zoneID, domain, dns.DesiredRecords(domain, opts.ServerIP, cfg.DNS.TTL))
		if err != nil {
			return fmt.Errorf("create records for %s: %w", domain, err)
		}

		fmt.Printf("%s: %d record(s) created\n", domain, created)
		total += created
	}

	fmt.Printf("\nDone: %d record(s) created across %d domain(s)\n", total, len(cfg.Domains))
	return nil
}
