package mailserver

import (
	"bytes"
	"fmt"
	"text/template"
)

const postfixMainTemplate = `# Postfix main configuration
myhostname = {{.MailHostname}}
mydomain = {{.PrimaryDomain}}
myorigin = $mydomain
inet_interfaces = all
mydestination = localhost

# Virtual domains
virtual_mailbox_domains = mysql:/etc/postfix/mysql-virtual-mailbox-domains.cf
virtual_mailbox_maps = mysql:/etc/postfix/mysql-virtual-mailbox-maps.cf
virtual_alias_maps = mysql:/etc/postfix/mysql-virtual-alias-maps.cf
virtual_mailbox_base = /var/mail/vhosts
virtual_minimum_uid = 1000
virtual_uid_maps = static:5000
virtual_gid_maps = static:5000

# SMTP-AUTH parameters
smtpd_sasl_type = dovecot
smtpd_sasl_path = private/auth
smtpd_sasl_auth_enable = yes
broken_sasl_auth_clients = yes

# TLS parameters
smtp_tls_security_level = may
smtpd_tls_security_level = may
smtpd_tls_auth_only = yes
smtpd_tls_cert_file = /etc/letsencrypt/live/{{.MailHostname}}/fullchain.pem
smtpd_tls_key_file = /etc/letsencrypt/live/{{.MailHostname}}/privkey.pem
smtpd_tls_received_header = yes

# Restrictions
smtpd_helo_restrictions = permit_mynetworks, permit_sasl_authenticated, reject_invalid_helo_hostname, reject_non_fqdn_helo_hostname
smtpd_recipient_restrictions = permit_mynetworks, permit_sasl_authenticated, reject_unauth_destination
smtpd_sender_restrictions = permit_mynetworks, permit_sasl_authenticated
`

const postfixMySQLMapTemplate = `user = mailuser
password = {{.MailDBPassword}}
hosts = 127.0.0.1
dbname = mailserver
query = {{.Query}}
`

const dovecotConfTemplate = `protocols = imap pop3 lmtp
listen = *, ::

mail_location = maildir:/var/mail/vhosts/%d/%n
mail_privileged_group = mail

# SSL configuration
ssl = required
ssl_cert = </etc/letsencrypt/live/{{.MailHostname}}/fullchain.pem
ssl_key = </etc/letsencrypt/live/{{.MailHostname}}/privkey.pem

# Authentication
auth_mechanisms = plain login
disable_plaintext_auth = yes

passdb {
  driver = sql
  args = /etc/dovecot/dovecot-sql.conf.ext
}

userdb {
  driver = sql
  args = /etc/dovecot/dovecot-sql.conf.ext
}

service auth {
  unix_listener /var/spool/postfix/private/auth {
    mode = 0666
    user = postfix
    group = postfix
  }

  unix_listener auth-userdb {
    mode = 0600
    user = vmail
    group = vmail
  }

  user = dovecot
}

service auth-worker {
  user = vmail
}
`

const dovecotSQLTemplate = `driver = mysql
connect = host=127.0.0.1 dbname=mailserver user=mailuser password={{.MailDBPassword}}
default_pass_scheme = SHA512-CRYPT
password_query = SELECT email as user, password FROM users WHERE email='%u' AND enabled=1
user_query = SELECT '/var/mail/vhosts/%d/%n' as home, 'maildir:/var/mail/vhosts/%d/%n' as mail, 5000 AS uid, 5000 AS gid FROM users WHERE email='%u' AND enabled=1
`

const mailSchemaSQL = `USE mailserver;

CREATE TABLE IF NOT EXISTS domains (
  id INT AUTO_INCREMENT PRIMARY KEY,
  domain VARCHAR(255) NOT NULL UNIQUE,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS users (
  id INT AUTO_INCREMENT PRIMARY KEY,
  domain_id INT,
  email VARCHAR(255) NOT NULL UNIQUE,
  password VARCHAR(255) NOT NULL,
  quota INT DEFAULT 1024,
  enabled BOOLEAN DEFAULT TRUE,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY (domain_id) REFERENCES domains(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS aliases (
  id INT AUTO_INCREMENT PRIMARY KEY,
  source VARCHAR(255) NOT NULL,
  destination VARCHAR(255) NOT NULL,
  domain_id INT,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY (domain_id) REFERENCES domains(id) ON DELETE CASCADE
);
`

// postfixMySQLMaps are the lookup map files Postfix uses to resolve
// virtual domains, mailboxes and aliases from the mail database.
var postfixMySQLMaps = map[string]string{
	"/etc/postfix/mysql-virtual-mailbox-domains.cf": "SELECT 1 FROM domains WHERE domain='%s'",
	"/etc/postfix/mysql-virtual-mailbox-maps.cf":    "SELECT 1 FROM users WHERE email='%s'",
	"/etc/postfix/mysql-virtual-alias-maps.cf":      "SELECT destination FROM aliases WHERE source='%s'",
}

func renderTemplate(name, text string, data any) ([]byte, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render %s template: %w", name, err)
	}
	return buf.Bytes(), nil
}
