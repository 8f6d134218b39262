package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kolah/routedoc/internal/codegen"
	"github.com/kolah/routedoc/internal/config"
	"github.com/kolah/routedoc/internal/document"
	"github.com/kolah/routedoc/internal/generator"
	"github.com/kolah/routedoc/internal/loader"
)

func GenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the OpenAPI document from the service manifest",
		RunE:  runGenerate,
	}

	config.BindGenerateFlags(cmd)
	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	cfg := a.cfg

	writer, err := codegen.New(codegen.Options{
		Format:       cfg.Format,
		Package:      cfg.Go.Package,
		VarName:      cfg.Go.VarName,
		TemplatesDir: cfg.Templates.Dir,
	})
	if err != nil {
		return err
	}

	doc, err := a.generator.GenerateSchema(cmd.Context(), generator.GenerateOptions{})
	if err != nil {
		return fmt.Errorf("generating document: %w", err)
	}
	cmd.PrintErrf("Generated OpenAPI %s document: %d paths\n", document.Version, len(doc.Paths()))

	if cfg.Validate {
		data, err := doc.JSON()
		if err != nil {
			return err
		}
		report, err := loader.Validate(data)
		if err != nil {
			return fmt.Errorf("validating document: %w", err)
		}
		cmd.PrintErrf("  Paths: %d\n", report.Paths)
		cmd.PrintErrf("  Schemas: %d\n", report.Schemas)
		for _, e := range report.Errors {
			cmd.PrintErrf("  Error: %s\n", e)
		}
		if !report.Valid() {
			return fmt.Errorf("document failed validation with %d errors", len(report.Errors))
		}
	}

	out, err := writer.Write(doc)
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun || cfg.ToStdout() {
		_, err := io.WriteString(cmd.OutOrStdout(), out.Content)
		return err
	}

	if dir := filepath.Dir(cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(cfg.Output, []byte(out.Content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.Output, err)
	}
	cmd.PrintErrf("Written: %s\n", cfg.Output)
	return nil
}
