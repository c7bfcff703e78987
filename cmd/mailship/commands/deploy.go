package commands

import (
	"github.com/spf13/cobra"

	"github.com/mailship/mailship/cmd/mailship/handlers"
)

// Deploy returns the command for the full deployment pipeline.
//
// This command handles the complete lifecycle: DNS conflict analysis,
// server provisioning, mail stack configuration, DNS record creation,
// account creation and report generation.
//
// Optional flags:
//
//	--config, -c:  Path to configuration YAML file (default: auto-detect mailship.yaml)
//	--skip-dns:    Do not create DNS records automatically
//	--skip-checks: Skip DNS conflict analysis and post-deploy verification
//
// Environment variables:
//
//	DIGITALOCEAN_TOKEN / HCLOUD_TOKEN: cloud provider API token
//	CLOUDFLARE_API_TOKEN:              DNS provider API token
func Deploy() *cobra.Command {
	var opts handlers.DeployOptions

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Provision a VPS and deploy the full mail stack",
		Long: `Provision a cloud server and deploy a complete mail server on it.

The pipeline analyzes DNS for provider conflicts, creates the server,
waits for it to boot and finish initialization, configures Postfix,
Dovecot, TLS certificates and the mail database, creates email accounts,
and writes a credential report.

If no config file is specified, it looks for mailship.yaml in the
current directory. Use 'mailship init' to create one.

Examples:
  # Deploy using mailship.yaml in current directory
  mailship deploy

  # Deploy using a specific config file
  mailship deploy -c production.yaml

  # Deploy without touching DNS
  mailship deploy --skip-dns`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Deploy(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: mailship.yaml)")
	cmd.Flags().BoolVar(&opts.SkipDNS, "skip-dns", false, "Do not create DNS records automatically")
	cmd.Flags().BoolVar(&opts.SkipChecks, "skip-checks", false, "Skip DNS conflict analysis and post-deploy verification")

	return cmd
}
