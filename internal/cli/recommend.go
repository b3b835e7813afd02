package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Contacts whose chat export should be refreshed",
		Long: `List up to three contacts whose chat history is stale, skipping anyone you
were asked about recently or snoozed.

Subcommands record that you were prompted, or snooze the prompt:
  rekindle recommend log Alice
  rekindle recommend snooze 4 --days 14`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			recs, err := a.sched.Recommendations(cmd.Context(), a.userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(out, "All chat exports are fresh.")
				return nil
			}
			fmt.Fprintln(out, "Export a new chat from WhatsApp for:")
			for _, r := range recs {
				fmt.Fprintf(out, "  %s (id: %d)\n", r.Name, r.ID)
			}
			return nil
		},
	}
	cmd.AddCommand(newRecommendLogCmd(), newRecommendSnoozeCmd())
	return cmd
}

func newRecommendLogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log <id|name>",
		Short: "Record that you were asked to export a contact's chat",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			c, err := a.resolveContact(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if err := a.sched.LogPrompt(ctx, a.userID, c.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged prompt for %s.\n", c.Name)
			return nil
		},
	}
}

func newRecommendSnoozeCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "snooze <id|name>",
		Short: "Stop recommending a contact for a while",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return fmt.Errorf("--days must not be negative")
			}
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			c, err := a.resolveContact(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			until, err := a.sched.SnoozePrompt(ctx, a.userID, c.ID, days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Snoozed %s until %s.\n", c.Name, until.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 0, "Days to snooze (default from config)")
	return cmd
}
