package commands

import (
	"github.com/spf13/cobra"

	"github.com/mailship/mailship/cmd/mailship/handlers"
)

// Analyze returns the command for DNS conflict analysis.
//
// Domains can be given as arguments; without arguments the domains from
// the configuration file are analyzed.
func Analyze() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "analyze [domain...]",
		Short: "Check domains for conflicting mail provider DNS records",
		Long: `Analyze the DNS records of each domain and report conflicts with
known third-party mail providers (Google Workspace, Microsoft 365, OVH,
Zoho, Yandex), plus advisory findings for missing mail A or SPF records.

Examples:
  # Analyze the domains from mailship.yaml
  mailship analyze

  # Analyze specific domains
  mailship analyze example.com example.org`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Analyze(cmd.Context(), configPath, args)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: mailship.yaml)")

	return cmd
}
