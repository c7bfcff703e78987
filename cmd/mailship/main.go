// Package main is the entry point for the mailship CLI.
//
// mailship provisions a cloud VPS, installs and configures a complete
// mail stack (Postfix, Dovecot, MySQL, Certbot), manages the DNS records
// mail delivery needs, creates mailboxes, and emits credential reports.
//
// Commands: init, deploy, analyze, dns, accounts, health.
//
// For detailed usage information, run:
//
//	mailship --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mailship/mailship/cmd/mailship/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
