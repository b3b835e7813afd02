package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what rekindle has stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			stats, err := a.store.Stats(ctx, a.userID)
			if err != nil {
				return err
			}
			settings, err := a.store.GetSettings(ctx, a.userID)
			if err != nil {
				return err
			}

			var dbSize int64
			if fi, err := os.Stat(a.db.Path()); err == nil {
				dbSize = fi.Size()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\nContacts:    %d\n", stats.Contacts)
			fmt.Fprintf(out, "Messages:    %d\n", stats.Messages)
			fmt.Fprintf(out, "Suggestions: %s\n", describeCounts(stats.Suggestions))
			fmt.Fprintf(out, "Prompts:     %d\n", stats.Prompts)
			reminders := "off"
			if settings.ReminderEnabled {
				reminders = "on"
			}
			fmt.Fprintf(out, "Reminders:   %s\n", reminders)
			fmt.Fprintf(out, "Provider:    %s\n", a.cfg.AI.Provider)
			fmt.Fprintf(out, "Database:    %s (%s)\n", a.db.Path(), formatBytes(dbSize))
			fmt.Fprintf(out, "Inbox:       %s\n", a.cfg.Inbox.Dir)
			fmt.Fprintln(out)
			return nil
		},
	}
}

// describeCounts renders {"ai": 3, "fallback": 1} as "4 (3 ai, 1 fallback)".
func describeCounts(m map[string]int) string {
	total := 0
	keys := make([]string, 0, len(m))
	for k, n := range m {
		total += n
		keys = append(keys, k)
	}
	if total == 0 {
		return "0"
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if m[k] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", m[k], k))
		}
	}
	return fmt.Sprintf("%d (%s)", total, strings.Join(parts, ", "))
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
