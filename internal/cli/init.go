package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/rekindle/rekindle/internal/config"
	"github.com/rekindle/rekindle/internal/contacts"
	"github.com/rekindle/rekindle/internal/db"
	"github.com/rekindle/rekindle/internal/inbox"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the config file, database and inbox directory",
		Long: `Write a default config file (unless one exists), create the SQLite
database with its schema, and create the inbox directory that 'rekindle watch'
monitors for chat exports.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			path, err := configPath()
			if err != nil {
				return fmt.Errorf("locate config: %w", err)
			}

			_, statErr := os.Stat(path)
			switch {
			case os.IsNotExist(statErr) || force:
				if err := config.Save(path, config.Default()); err != nil {
					return fmt.Errorf("write config: %w", err)
				}
				fmt.Fprintf(out, "Wrote config to %s\n", path)
			case statErr != nil:
				return fmt.Errorf("stat config: %w", statErr)
			default:
				fmt.Fprintf(out, "Config already exists at %s\n", path)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("  Preparing database"),
				progressbar.OptionSpinnerType(14),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionClearOnFinish(),
			)
			database, err := db.Open(cfg.Database.Path)
			_ = bar.Finish()
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close()

			if err := contacts.NewStore(database).EnsureUser(cmd.Context(), cfg.Server.DefaultUserID); err != nil {
				return err
			}
			fmt.Fprintf(out, "Database ready at %s\n", database.Path())

			if err := os.MkdirAll(cfg.Inbox.Dir, 0o755); err != nil {
				return fmt.Errorf("create inbox: %w", err)
			}
			ignorePath := filepath.Join(cfg.Inbox.Dir, inbox.IgnoreFile)
			if _, err := os.Stat(ignorePath); os.IsNotExist(err) {
				_ = os.WriteFile(ignorePath, []byte("# Files matching these patterns are never imported.\n*.zip\n"), 0o644)
			}
			fmt.Fprintf(out, "Inbox ready at %s\n", cfg.Inbox.Dir)

			fmt.Fprintln(out)
			fmt.Fprintln(out, `Tip: Run "rekindle setup" to choose an AI provider, then "rekindle watch".`)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file with defaults")
	return cmd
}
