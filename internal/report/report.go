// Package report builds the deployment report bundle: a structured JSON
// report, a flat CSV credential export, and plain-text DNS setup
// instructions for domains whose records were not created automatically.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mailship/mailship/internal/dns"
	"github.com/mailship/mailship/internal/mailserver"
)

// File names within the report bundle.
const (
	JSONFileName         = "deployment_report.json"
	CSVFileName          = "email_credentials.csv"
	InstructionsFileName = "dns_instructions.txt"
)

// csvHeader is the column layout of the credential export. Kept stable so
// downstream imports do not break.
var csvHeader = []string{
	"Domain", "Email", "Username", "Password",
	"SMTP_Host", "SMTP_Port", "SMTP_Security",
	"IMAP_Host", "IMAP_Port", "IMAP_Security",
}

// Deployment is the full record of one deployment run.
type Deployment struct {
	ID            string                               `json:"deployment_id"`
	Timestamp     time.Time                            `json:"timestamp"`
	ServerIP      string                               `json:"server_ip"`
	Domains       []string                             `json:"domains"`
	TotalAccounts int                                  `json:"total_accounts"`
	Accounts      []mailserver.EmailAccount            `json:"email_accounts"`
	DNSConflicts  map[string][]dns.Conflict            `json:"dns_conflicts,omitempty"`
	CheckResults  map[string]mailserver.CheckResult    `json:"check_results,omitempty"`
}

// New builds a Deployment with a fresh ID and the current timestamp.
func New(serverIP string, domains []string, accounts []mailserver.EmailAccount) *Deployment {
	return &Deployment{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		ServerIP:      serverIP,
		Domains:       domains,
		TotalAccounts: len(accounts),
		Accounts:      accounts,
	}
}

// JSON renders the structured report.
func (d *Deployment) JSON() ([]byte, error) {
	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return append(out, '\n'), nil
}

// CSV renders the flat credential export. The output depends only on the
// account list, so repeated calls over the same accounts are
// byte-identical.
func CSV(accounts []mailserver.EmailAccount) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write CSV header: %w", err)
	}
	for _, a := range accounts {
		row := []string{
			a.Domain, a.Email, a.Username, a.Password,
			a.SMTP.Host, strconv.Itoa(a.SMTP.Port), a.SMTP.Security,
			a.IMAP.Host, strconv.Itoa(a.IMAP.Port), a.IMAP.Security,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write CSV row for %s: %w", a.Email, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// DNSInstructions renders manual setup instructions for every domain:
// the records to create, and any detected provider conflicts with their
// remediation steps.
func (d *Deployment) DNSInstructions(ttl int) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "DNS setup instructions for deployment %s\n", d.ID)
	fmt.Fprintf(&buf, "Mail server IP: %s\n", d.ServerIP)

	for _, domain := range d.Domains {
		fmt.Fprintf(&buf, "\n=== %s ===\n", domain)

		for _, conflict := range d.DNSConflicts[domain] {
			label := "CONFLICT"
			if conflict.Advisory {
				label = "ADVISORY"
			}
			fmt.Fprintf(&buf, "%s: %s\n", label, conflict.Provider)
			if conflict.Evidence != "" {
				fmt.Fprintf(&buf, "  evidence: %s\n", conflict.Evidence)
			}
			fmt.Fprintf(&buf, "  action: %s\n", conflict.Remediation)
		}

		buf.WriteString("Records to create:\n")
		for _, r := range dns.DesiredRecords(domain, d.ServerIP, ttl) {
			required := "recommended"
			if r.Required {
				required = "required"
			}
			if r.Type == "MX" {
				fmt.Fprintf(&buf, "  %-5s %-14s %s (priority %d, TTL %d) [%s]\n",
					r.Type, r.FQName(domain), r.Content, r.Priority, r.TTL, required)
				continue
			}
			fmt.Fprintf(&buf, "  %-5s %-14s %s (TTL %d) [%s]\n",
				r.Type, r.FQName(domain), r.Content, r.TTL, required)
		}
	}

	return buf.Bytes()
}

// Bundle returns the report files keyed by name, ready to write to disk
// or upload to object storage.
func (d *Deployment) Bundle(ttl int) (map[string][]byte, error) {
	jsonOut, err := d.JSON()
	if err != nil {
		return nil, err
	}
	csvOut, err := CSV(d.Accounts)
	if err != nil {
		return nil, err
	}
	return map[string][]byte{
		JSONFileName:         jsonOut,
		CSVFileName:          csvOut,
		InstructionsFileName: d.DNSInstructions(ttl),
	}, nil
}

// Write writes the report bundle into dir, creating it if needed, and
// returns the paths written. Credential files are not world-readable.
func (d *Deployment) Write(dir string, ttl int) ([]string, error) {
	files, err := d.Bundle(ttl)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}

	paths := make([]string, 0, len(files))
	for _, name := range []string{JSONFileName, CSVFileName, InstructionsFileName} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, files[name], 0o600); err != nil {
			return paths, fmt.Errorf("write %s: %w", name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
