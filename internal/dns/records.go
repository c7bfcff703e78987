package dns

import "fmt"

// Record describes one DNS record the mail setup needs.
type Record struct {
	Type     string
	Name     string // relative name; "@" for the apex
	Content  string
	TTL      int
	Priority int  // MX only
	Required bool // false for recommended extras
}

// DesiredRecords returns the record set a domain needs to route mail to
// the server at ip. Required records are the A/MX/SPF triple; the DMARC
// policy and client autodiscovery CNAMEs are recommended but optional.
func DesiredRecords(domain, ip string, ttl int) []Record {
	mailHost := "mail." + domain

	return []Record{
		{Type: "A", Name: "mail", Content: ip, TTL: ttl, Required: true},
		{Type: "MX", Name: "@", Content: mailHost, TTL: ttl, Priority: 10, Required: true},
		{Type: "TXT", Name: "@", Content: fmt.Sprintf("v=spf1 mx a ip4:%s ~all", ip), TTL: ttl, Required: true},
		{Type: "TXT", Name: "_dmarc", Content: fmt.Sprintf("v=DMARC1; p=quarantine; rua=mailto:dmarc@%s", domain), TTL: ttl},
		{Type: "CNAME", Name: "autoconfig", Content: mailHost, TTL: ttl},
		{Type: "CNAME", Name: "autodiscover", Content: mailHost, TTL: ttl},
	}
}

// FQName returns the fully qualified record name within the domain.
func (r Record) FQName(domain string) string {
	if r.Name == "@" {
		return domain
	}
	return r.Name + "." + domain
}
