package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func AliasesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "aliases",
		Short: "Print the resolved alias table",
		RunE:  runAliases,
	}
}

func runAliases(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}

	aliases, err := a.generator.GetAliases(cmd.Context())
	if err != nil {
		return fmt.Errorf("resolving aliases: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATH\tACTION\tSERVICE\tTYPE")
	for _, alias := range aliases {
		action := alias.Action
		if action == "" {
			action = "-"
		} else if alias.ActionSchema == nil {
			action += " (unresolved)"
		}
		service := alias.ServiceName()
		if service == "" {
			service = "-"
		}
		typ := string(alias.Type)
		if typ == "" {
			typ = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", alias.Method.Upper(), alias.FullPath, action, service, typ)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	cmd.PrintErrf("%d aliases\n", len(aliases))
	return nil
}
