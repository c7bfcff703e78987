package commands

import (
	"github.com/spf13/cobra"

	"github.com/mailship/mailship/cmd/mailship/handlers"
)

// DNS returns the command for creating mail DNS records.
func DNS() *cobra.Command {
	var opts handlers.DNSOptions

	cmd := &cobra.Command{
		Use:   "dns",
		Short: "Create the DNS records mail delivery needs",
		Long: `Create the A, MX, SPF, DMARC and autodiscovery records for every
configured domain, pointing at the given server IP. Records that already
exist are left untouched.

Examples:
  # Create records pointing at an existing server
  mailship dns --ip 192.0.2.7`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.CreateDNS(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: mailship.yaml)")
	cmd.Flags().StringVar(&opts.ServerIP, "ip", "", "Mail server IP address the records should point at (required)")
	_ = cmd.MarkFlagRequired("ip")

	return cmd
}
