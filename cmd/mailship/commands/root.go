// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated
// to handler functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/mailship/mailship/cmd/mailship/handlers"
)

// Root returns the root command for the mailship CLI.
func Root() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "mailship",
		Short: "Deploy a complete mail server on a fresh cloud VPS",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			handlers.SetVerbose(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// Core commands
	cmd.AddCommand(Init())
	cmd.AddCommand(Deploy())
	cmd.AddCommand(Analyze())
	cmd.AddCommand(DNS())
	cmd.AddCommand(Accounts())
	cmd.AddCommand(Health())

	// Utility commands
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
