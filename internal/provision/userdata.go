package provision

import (
	"fmt"
	"strings"
	"text/template"
)

// UserData carries the values interpolated into the first-boot script.
// The database passwords are generated before provisioning and reused later
// when the mail stack is configured over SSH.
type UserData struct {
	Hostname          string
	MySQLRootPassword string
	MailDBPassword    string
}

// Packages installed during first boot. Versions are whatever the distro
// ships; the mail stack is configured afterwards over SSH.
var bootPackages = []string{
	"postfix", "postfix-mysql",
	"dovecot-core", "dovecot-imapd", "dovecot-pop3d", "dovecot-lmtpd", "dovecot-mysql",
	"mysql-server",
	"nginx",
	"certbot", "python3-certbot-nginx",
	"fail2ban",
	"ufw",
	"curl",
}

// The MySQL bootstrap runs as one socket-authenticated session fed through
// a quoted-delimiter heredoc: generated passwords may contain characters
// the shell would otherwise expand.
var userDataTmpl = template.Must(template.New("userdata").Parse(`#!/bin/bash
set -e
export DEBIAN_FRONTEND=noninteractive

hostnamectl set-hostname {{.Hostname}}

apt-get update && apt-get upgrade -y
apt-get install -y {{.Packages}}

mysql <<'MYSQL_BOOTSTRAP'
ALTER USER 'root'@'localhost' IDENTIFIED WITH mysql_native_password BY '{{.MySQLRootPassword}}';
CREATE DATABASE IF NOT EXISTS mailserver;
CREATE USER IF NOT EXISTS 'mailuser'@'localhost' IDENTIFIED BY '{{.MailDBPassword}}';
GRANT ALL ON mailserver.* TO 'mailuser'@'localhost';
FLUSH PRIVILEGES;
MYSQL_BOOTSTRAP

ufw allow 22,25,80,110,143,443,465,587,993,995/tcp
ufw --force enable

mkdir -p {{.SentinelDir}}
touch {{.Sentinel}}
`))

// RenderUserData produces the cloud-init script submitted with the create
// request. The script ends by touching the setup sentinel that
// WaitForSetup polls for.
func RenderUserData(d UserData) (string, error) {
	sentinelDir := SetupSentinel[:strings.LastIndex(SetupSentinel, "/")]

	var b strings.Builder
	err := userDataTmpl.Execute(&b, struct {
		UserData
		Packages    string
		Sentinel    string
		SentinelDir string
	}{
		UserData:    d,
		Packages:    strings.Join(bootPackages, " "),
		Sentinel:    SetupSentinel,
		SentinelDir: sentinelDir,
	})
	if err != nil {
		return "", fmt.Errorf("render user data: %w", err)
	}

	return b.String(), nil
}
