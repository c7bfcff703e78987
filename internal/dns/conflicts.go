package dns

import "strings"

// Conflict is a detected overlap between an existing mail setup and the
// one being deployed. Advisory conflicts are informational and never block
// a deployment.
type Conflict struct {
	Domain      string
	Provider    string // empty for advisory findings
	Evidence    string // the MX hostname that matched, if any
	Remediation string
	Advisory    bool
}

// providerPattern maps an MX hostname substring to the hosted-mail
// provider it betrays.
type providerPattern struct {
	substring   string
	provider    string
	remediation string
}

// Known hosted-mail providers, matched by substring against MX hostnames.
// Every matching entry is surfaced; there is no priority order between
// patterns.
var knownProviders = []providerPattern{
	{
		substring:   "mail.ovh.net",
		provider:    "OVH MX Plan",
		remediation: "Delete the OVH MX records or suspend the MX Plan service before switching mail to this server.",
	},
	{
		substring:   "google.com",
		provider:    "Google Workspace",
		remediation: "Disable Google Workspace mail for this domain or move self-hosted mail to a subdomain.",
	},
	{
		substring:   "googlemail.com",
		provider:    "Google Workspace",
		remediation: "Disable Google Workspace mail for this domain or move self-hosted mail to a subdomain.",
	},
	{
		substring:   "protection.outlook.com",
		provider:    "Microsoft 365",
		remediation: "Disable Microsoft 365 mail for this domain or move self-hosted mail to a subdomain.",
	},
	{
		substring:   "outlook.com",
		provider:    "Microsoft 365",
		remediation: "Disable Microsoft 365 mail for this domain or move self-hosted mail to a subdomain.",
	},
	{
		substring:   "zoho.com",
		provider:    "Zoho Mail",
		remediation: "Remove the Zoho MX records or keep Zoho on a subdomain.",
	},
	{
		substring:   "zoho.eu",
		provider:    "Zoho Mail",
		remediation: "Remove the Zoho MX records or keep Zoho on a subdomain.",
	},
	{
		substring:   "mx.yandex.net",
		provider:    "Yandex Mail",
		remediation: "Remove the Yandex MX records before switching mail to this server.",
	},
}

// DetectConflicts evaluates a record snapshot against the provider table.
//
// Each MX hostname is checked against every pattern and all distinct
// matching providers are reported; when several patterns of the same
// provider match one hostname (outlook.com inside protection.outlook.com)
// the provider is reported once for that hostname. Missing mail A and SPF
// records are appended as advisory findings.
func DetectConflicts(rs *RecordSet) []Conflict {
	var conflicts []Conflict

	for _, host := range rs.MXHosts {
		seen := map[string]bool{}
		for _, p := range knownProviders {
			if !strings.Contains(host, p.substring) || seen[p.provider] {
				continue
			}
			seen[p.provider] = true
			conflicts = append(conflicts, Conflict{
				Domain:      rs.Domain,
				Provider:    p.provider,
				Evidence:    host,
				Remediation: p.remediation,
			})
		}
	}

	if !rs.HasMailARecord {
		conflicts = append(conflicts, Conflict{
			Domain:      rs.Domain,
			Remediation: "Add an A record for mail." + rs.Domain + " pointing at the mail server.",
			Advisory:    true,
		})
	}
	if !rs.HasSPFRecord {
		conflicts = append(conflicts, Conflict{
			Domain:      rs.Domain,
			Remediation: "Add a v=spf1 TXT record at the apex so outgoing mail passes SPF checks.",
			Advisory:    true,
		})
	}

	return conflicts
}

// Blocking filters out advisory findings.
func Blocking(conflicts []Conflict) []Conflict {
	var out []Conflict
	for _, c := range conflicts {
		if !c.Advisory {
			out = append(out, c)
		}
	}
	return out
}
