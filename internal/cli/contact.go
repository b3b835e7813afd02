package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rekindle/rekindle/internal/contacts"
	"github.com/rekindle/rekindle/internal/schedule"
)

func newContactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contact",
		Aliases: []string{"contacts"},
		Short:   "Manage contacts",
	}
	cmd.AddCommand(
		newContactAddCmd(),
		newContactListCmd(),
		newContactShowCmd(),
		newContactDeleteCmd(),
	)
	return cmd
}

func newContactAddCmd() *cobra.Command {
	var (
		phone        string
		relationship string
		interests    []string
		notes        string
		every        int
		priority     int
		favorite     bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a contact",
		Long: `Add a contact to keep in touch with.

Examples:
  rekindle contact add "Alice Smith" --relationship friend --every 14
  rekindle contact add Bob --interests climbing,jazz --priority 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if every <= 0 {
				every = a.cfg.Schedule.DefaultReminderFrequency
			}
			c, err := a.store.CreateContact(cmd.Context(), contacts.Contact{
				UserID:            a.userID,
				Name:              strings.Join(args, " "),
				Phone:             phone,
				RelationshipType:  relationship,
				Interests:         interests,
				Notes:             notes,
				IsFavorite:        favorite,
				ReminderFrequency: &every,
				PriorityLevel:     priority,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (id: %d, reminder every %d days)\n", c.Name, c.ID, every)
			return nil
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVarP(&relationship, "relationship", "r", "", "Relationship, e.g. friend, family, colleague")
	cmd.Flags().StringSliceVarP(&interests, "interests", "i", nil, "Comma-separated interests")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().IntVar(&every, "every", 0, "Reminder interval in days (default from config)")
	cmd.Flags().IntVarP(&priority, "priority", "p", 1, "Priority 1-5")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "Mark as favorite")
	return cmd
}

func newContactListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List contacts with their reminder status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			cs, err := a.store.ListContacts(cmd.Context(), a.userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cs) == 0 {
				fmt.Fprintln(out, `No contacts yet. Add one with "rekindle contact add <name>".`)
				return nil
			}
			printContacts(out, cs, time.Now())
			return nil
		},
	}
}

func printContacts(out io.Writer, cs []contacts.Contact, now time.Time) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRIORITY\tLAST CONTACT\tREMINDER")
	for _, c := range cs {
		last := "never"
		if d := schedule.DaysSinceLastContact(c, now); d >= 0 {
			last = fmt.Sprintf("%d days ago", d)
		}
		name := c.Name
		if c.IsFavorite {
			name += " *"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", c.ID, name, c.PriorityLevel, last, schedule.ReminderStatus(c, now))
	}
	tw.Flush()
}

func newContactShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|name>",
		Short: "Show a contact and its latest suggestion",
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
			n, err := a.store.CountMessages(ctx, c.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n%s (id: %d)\n", c.Name, c.ID)
			if c.RelationshipType != "" {
				fmt.Fprintf(out, "Relationship: %s\n", c.RelationshipType)
			}
			if len(c.Interests) > 0 {
				fmt.Fprintf(out, "Interests:    %s\n", strings.Join(c.Interests, ", "))
			}
			fmt.Fprintf(out, "Priority:     %d\n", c.PriorityLevel)
			if c.LastContactDate != nil {
				fmt.Fprintf(out, "Last contact: %s\n", c.LastContactDate.Format("2006-01-02"))
			}
			if c.ReminderFrequency != nil {
				fmt.Fprintf(out, "Reminder:     every %d days (%s)\n", *c.ReminderFrequency, schedule.ReminderStatus(c, time.Now()))
			}
			fmt.Fprintf(out, "Messages:     %d\n", n)

			if sg, err := a.store.LatestSuggestion(ctx, c.ID); err == nil {
				fmt.Fprintf(out, "\nSuggestion (%s, %s):\n  %s\n", sg.Source, sg.CreatedAt.Format("2006-01-02"), sg.Text)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

func newContactDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id|name>",
		Aliases: []string{"rm"},
		Short:   "Delete a contact with its messages and suggestions",
		Args:    cobra.MinimumNArgs(1),
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
			if !yes && !confirmPrompt(cmd.InOrStdin(), out, fmt.Sprintf("Delete %s and all their messages?", c.Name)) {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}
			if err := a.store.DeleteContact(ctx, a.userID, c.ID); err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted %s.\n", c.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func confirmPrompt(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line := strings.ToLower(readLineBuf(bufio.NewReader(in)))
	return line == "y" || line == "yes"
}
