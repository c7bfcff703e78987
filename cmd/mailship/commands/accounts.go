package commands

import (
	"github.com/spf13/cobra"

	"github.com/mailship/mailship/cmd/mailship/handlers"
)

// Accounts returns the command for creating email accounts on an
// already-deployed server.
func Accounts() *cobra.Command {
	var opts handlers.AccountsOptions

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Create additional email accounts on a deployed server",
		Long: `Create random email accounts for every configured domain on an
existing mail server and write a fresh credential report.

Examples:
  # Create the configured number of accounts per domain
  mailship accounts --ip 192.0.2.7

  # Create five accounts per domain
  mailship accounts --ip 192.0.2.7 --count 5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.CreateAccounts(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: mailship.yaml)")
	cmd.Flags().StringVar(&opts.ServerIP, "ip", "", "Mail server IP address (required)")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "Accounts per domain (default: from config)")
	cmd.Flags().StringVar(&opts.MySQLRootPassword, "mysql-root-password", "", "MySQL root password of the server (required)")
	_ = cmd.MarkFlagRequired("ip")
	_ = cmd.MarkFlagRequired("mysql-root-password")

	return cmd
}
