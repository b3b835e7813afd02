// Package cli defines the Cobra command tree for the rekindle CLI.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// version, commit, date are set via -ldflags at build time.
	version = "dev"
	commit  = "unknown"
	date    = "unknown"

	// cfgFile is the --config flag; empty means config.Path().
	cfgFile string
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rekindle",
		Short: "Keep in touch with the people who matter",
		Long: `Rekindle reads your WhatsApp chat exports, works out who you have not
talked to in a while, and suggests a message to get the conversation going
again.

Run 'rekindle init' to create the config and database, then import a chat
with 'rekindle import' or drop exports into the inbox with 'rekindle watch'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/rekindle/config.toml)")

	cmd.AddCommand(
		newInitCmd(),
		newSetupCmd(),
		newServeCmd(),
		newContactCmd(),
		newImportCmd(),
		newSuggestCmd(),
		newRecommendCmd(),
		newRemindCmd(),
		newStatusCmd(),
		newExportCmd(),
		newWatchCmd(),
		newMCPCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute(v, c, d string) {
	version, commit, date = v, c, d
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rekindle %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
