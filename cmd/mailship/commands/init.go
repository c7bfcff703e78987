package commands

import (
	"github.com/spf13/cobra"

	"github.com/mailship/mailship/cmd/mailship/handlers"
)

// Init returns the command for generating a starter configuration file.
func Init() *cobra.Command {
	var opts handlers.InitOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter mailship.yaml configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "mailship.yaml", "Where to write the configuration file")
	cmd.Flags().BoolVar(&opts.GenerateKey, "generate-key", false, "Also generate an SSH deploy keypair next to the config")

	return cmd
}
