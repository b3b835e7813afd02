package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemindCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remind",
		Aliases: []string{"reminders"},
		Short:   "Show contacts you are due to get in touch with",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rems, err := a.sched.PendingReminders(cmd.Context(), a.userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rems) == 0 {
				fmt.Fprintln(out, "Nobody is due right now.")
				return nil
			}
			for _, r := range rems {
				fmt.Fprintf(out, "%s (id: %d)\n", r.ContactName, r.ContactID)
				fmt.Fprintf(out, "  %s\n", r.Suggestion)
			}
			return nil
		},
	}
}
