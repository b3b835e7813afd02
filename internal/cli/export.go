package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rekindle/rekindle/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export contacts, reminders and suggestions",
		Long: `Write a report of every contact with its reminder status and latest
suggestion, plus current recommendations and due reminders.

Examples:
  rekindle export                       # markdown to stdout
  rekindle export --format json -o rekindle.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, ok := export.Get(format)
			if !ok {
				return fmt.Errorf("unknown format %q; valid formats: %s", format, strings.Join(export.ValidFormats(), ", "))
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := export.Collect(cmd.Context(), a.store, a.sched, a.userID, time.Now())
			if err != nil {
				return err
			}
			content, err := exp.Export(data)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), content)
				return nil
			}
			if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d contacts to %s\n", len(data.Contacts), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "Output format: markdown, json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}
