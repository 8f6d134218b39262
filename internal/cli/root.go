package cli

import (
	"github.com/spf13/cobra"

	"github.com/kolah/routedoc/internal/config"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "routedoc",
		Short:         "routedoc - OpenAPI documents from service routes and validation rules",
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	config.BindFlags(root)
	root.AddCommand(GenerateCommand(), AliasesCommand(), ServeCommand())

	return root
}
