// Package dns inspects a domain's existing mail-related DNS records,
// detects conflicts with known hosted-mail providers, and describes the
// record set a self-hosted mail server needs.
package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/mailship/mailship/internal/util/retry"
)

// Resolver is the lookup surface Analyzer needs. *net.Resolver satisfies
// it; tests substitute a mock resolver.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
}

// RecordSet is a read-only snapshot of a domain's mail-related records.
type RecordSet struct {
	Domain string
	// MXHosts are the mail-exchanger hostnames ordered by preference,
	// without trailing dots.
	MXHosts []string
	// HasMailARecord reports whether mail.<domain> resolves.
	HasMailARecord bool
	// HasSPFRecord reports whether the apex has a v=spf1 TXT record.
	HasSPFRecord bool
}

// Analyzer queries DNS and evaluates the results against the known
// provider table.
type Analyzer struct {
	resolver Resolver
}

// NewAnalyzer creates an Analyzer. A nil resolver uses the system resolver.
func NewAnalyzer(resolver Resolver) *Analyzer {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Analyzer{resolver: resolver}
}

// Analyze takes a snapshot of the domain's current mail records. A domain
// with no MX records yields an empty MXHosts slice, not an error; only
// infrastructure failures (resolver unreachable) are returned as errors.
func (a *Analyzer) Analyze(ctx context.Context, domain string) (*RecordSet, error) {
	rs := &RecordSet{Domain: domain}

	mxs, err := a.resolver.LookupMX(ctx, domain)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	sort.SliceStable(mxs, func(i, j int) bool { return mxs[i].Pref < mxs[j].Pref })
	for _, mx := range mxs {
		rs.MXHosts = append(rs.MXHosts, strings.TrimSuffix(mx.Host, "."))
	}

	if addrs, err := a.resolver.LookupHost(ctx, "mail."+domain); err == nil && len(addrs) > 0 {
		rs.HasMailARecord = true
	}

	txts, err := a.resolver.LookupTXT(ctx, domain)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	for _, txt := range txts {
		if strings.HasPrefix(strings.TrimSpace(txt), "v=spf1") {
			rs.HasSPFRecord = true
			break
		}
	}

	return rs, nil
}

// WaitForPropagation polls the resolver at a fixed interval until
// mail.<domain> resolves to ip, up to maxAttempts lookups. Negative
// answers keep the poll going; only context cancellation or exhausting
// the attempts ends it early.
func (a *Analyzer) WaitForPropagation(ctx context.Context, domain, ip string, interval time.Duration, maxAttempts int) error {
	host := "mail." + domain

	return retry.Do(ctx, func() error {
		addrs, err := a.resolver.LookupHost(ctx, host)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("%s does not resolve yet", host)
			}
			return err
		}
		for _, addr := range addrs {
			if addr == ip {
				return nil
			}
		}
		return fmt.Errorf("%s resolves to %v, not %s yet", host, addrs, ip)
	},
		retry.WithMaxRetries(maxAttempts-1),
		retry.WithConstantDelay(interval),
	)
}

// DetectNameserverProvider guesses the DNS hosting provider from the
// domain's NS records. Returns "unknown" when no pattern matches.
func (a *Analyzer) DetectNameserverProvider(ctx context.Context, domain string) string {
	nss, err := a.resolver.LookupNS(ctx, domain)
	if err != nil {
		return "unknown"
	}

	for _, ns := range nss {
		host := strings.TrimSuffix(ns.Host, ".")
		for _, p := range nameserverPatterns {
			if strings.Contains(host, p.substring) {
				return p.provider
			}
		}
	}
	return "unknown"
}

var nameserverPatterns = []struct {
	substring string
	provider  string
}{
	{"ovh.net", "ovh"},
	{"cloudflare.com", "cloudflare"},
	{"digitalocean.com", "digitalocean"},
	{"awsdns", "route53"},
	{"amazonaws.com", "route53"},
	{"namecheap.com", "namecheap"},
}

// isNotFound reports whether err is a negative DNS answer rather than a
// resolver failure.
func isNotFound(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound || !dnsErr.IsTemporary
	}
	return false
}
