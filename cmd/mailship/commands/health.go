package commands

import (
	"github.com/spf13/cobra"

	"github.com/mailship/mailship/cmd/mailship/handlers"
)

// Health returns the command for checking a deployed server's health.
func Health() *cobra.Command {
	var opts handlers.HealthOptions

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the health of a deployed mail server",
		Long: `Run health checks against a deployed mail server: service state,
mail protocol port reachability, disk, memory and load usage, and mail
queue depth. Prints a JSON snapshot and exits non-zero when unhealthy.

Examples:
  mailship health --ip 192.0.2.7`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.CheckHealth(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: mailship.yaml)")
	cmd.Flags().StringVar(&opts.ServerIP, "ip", "", "Mail server IP address (required)")
	_ = cmd.MarkFlagRequired("ip")

	return cmd
}
