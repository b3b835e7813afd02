package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rekindle/rekindle/internal/contacts"
)

func newSuggestCmd() *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "suggest <id|name>",
		Short: "Generate a conversation starter for a contact",
		Long: `Generate a new conversation starter from the contact's stored chat
history. Contacts without history get a generic starter based on their
relationship and interests.

With --cached the most recent stored suggestion is printed instead.`,
		Args: cobra.MinimumNArgs(1),
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
			out := cmd.OutOrStdout()

			if cached {
				sg, err := a.store.LatestSuggestion(ctx, c.ID)
				if errors.Is(err, contacts.ErrNotFound) {
					fmt.Fprintf(out, "No suggestion for %s yet.\n", c.Name)
					return nil
				}
				if err != nil {
					return err
				}
				printSuggestion(out, sg)
				return nil
			}

			res, err := a.orch.Refresh(ctx, a.userID, c.ID)
			if err != nil {
				return err
			}
			printSuggestion(out, res.Suggestion)
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "Print the latest stored suggestion without generating")
	return cmd
}
