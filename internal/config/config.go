// Package config defines the deployment configuration and its loading rules.
//
// The configuration is constructed once at startup and passed by reference
// into each component; nothing mutates it after Load returns.
package config

// Config is the root deployment configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" validate:"required"`
	DNS     DNSConfig     `yaml:"dns"`
	Domains []string      `yaml:"domains" validate:"min=1,dive,fqdn"`
	Email   EmailConfig   `yaml:"email"`
	Report  ReportConfig  `yaml:"report"`
	Webhook string        `yaml:"webhook" validate:"omitempty,url"`

	// SkipDNS disables DNS record creation during deploy.
	SkipDNS bool `yaml:"skip_dns"`
	// SkipChecks disables post-deploy connectivity checks.
	SkipChecks bool `yaml:"skip_checks"`
}

// ServerConfig describes the VPS to provision and how to reach it.
type ServerConfig struct {
	Provider string `yaml:"provider" validate:"oneof=digitalocean hetzner"`
	// Token is the provider API token. Falls back to DIGITALOCEAN_TOKEN or
	// HCLOUD_TOKEN depending on the provider.
	Token    string   `yaml:"token"`
	Region   string   `yaml:"region" validate:"required"`
	Size     string   `yaml:"size" validate:"required"`
	Image    string   `yaml:"image"`
	Hostname string   `yaml:"hostname"`
	SSHKeys  []string `yaml:"ssh_keys"`

	SSHUser           string `yaml:"ssh_user"`
	SSHPort           int    `yaml:"ssh_port"`
	SSHPrivateKeyPath string `yaml:"ssh_private_key"`
}

// DNSConfig describes the DNS provider used to create mail records.
type DNSConfig struct {
	Provider string `yaml:"provider" validate:"omitempty,oneof=cloudflare"`
	// Token falls back to CLOUDFLARE_API_TOKEN.
	Token string `yaml:"token"`
	// ZoneIDs maps domain to zone ID. Domains absent from the map are
	// resolved through the provider's zone lookup.
	ZoneIDs map[string]string `yaml:"zone_ids"`
	TTL     int               `yaml:"ttl" validate:"omitempty,min=60"`
}

// EmailConfig controls mailbox account generation.
type EmailConfig struct {
	AccountsPerDomain int    `yaml:"accounts_per_domain" validate:"omitempty,min=1,max=50"`
	PasswordLength    int    `yaml:"password_length" validate:"omitempty,min=12,max=64"`
	AdminEmail        string `yaml:"admin_email" validate:"omitempty,email"`
}

// ReportConfig controls where credential reports are written.
type ReportConfig struct {
	OutputDir string    `yaml:"output_dir"`
	S3        *S3Config `yaml:"s3"`
}

// S3Config enables uploading the report bundle to an S3-compatible bucket.
type S3Config struct {
	Endpoint  string `yaml:"endpoint" validate:"required,url"`
	Region    string `yaml:"region" validate:"required"`
	Bucket    string `yaml:"bucket" validate:"required"`
	AccessKey string `yaml:"access_key" validate:"required"`
	SecretKey string `yaml:"secret_key" validate:"required"`
}

// PrimaryDomain returns the first configured domain. The mail hostname and
// TLS certificate are anchored on it.
func (c *Config) PrimaryDomain() string {
	if len(c.Domains) == 0 {
		return ""
	}
	return c.Domains[0]
}

// MailHostname returns the FQDN the mail services answer on.
func (c *Config) MailHostname() string {
	if c.Server.Hostname != "" {
		return c.Server.Hostname
	}
	return "mail." + c.PrimaryDomain()
}
