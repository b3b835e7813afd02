package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/rekindle/rekindle/internal/contacts"
	"github.com/rekindle/rekindle/internal/inbox"
)

func newImportCmd() *cobra.Command {
	var (
		contactRef string
		create     bool
	)

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import a WhatsApp chat export and get a conversation starter",
		Long: `Parse a WhatsApp "Export chat" text file, store its messages for the
contact, and generate a new conversation starter from the recent history.

The contact comes from --contact, or from the file name when it looks like
"WhatsApp Chat with <name>.txt". Use "-" to read the export from stdin.

Examples:
  rekindle import "WhatsApp Chat with Alice.txt"
  rekindle import chat.txt --contact 3
  pbpaste | rekindle import - --contact Bob --create`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			var (
				data []byte
				err  error
			)
			if path == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(path)
			}
			if err != nil {
				return fmt.Errorf("read export: %w", err)
			}
			if strings.TrimSpace(string(data)) == "" {
				return errors.New("chat export is empty")
			}

			if contactRef == "" && path != "-" {
				if name, ok := inbox.ContactNameFromFilename(path); ok {
					contactRef = name
					create = true
				}
			}
			if contactRef == "" {
				return errors.New("no contact given; use --contact <id|name>")
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			c, err := a.resolveContact(ctx, contactRef)
			if errors.Is(err, contacts.ErrNotFound) && create {
				c, err = a.store.CreateContact(ctx, contacts.Contact{UserID: a.userID, Name: contactRef})
			}
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("  Analysing chat with "+c.Name),
				progressbar.OptionSpinnerType(14),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionClearOnFinish(),
			)
			res, err := a.orch.ImportChat(ctx, a.userID, c.ID, string(data))
			_ = bar.Finish()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d messages for %s.\n", res.MessagesImported, c.Name)
			if res.Warning != "" {
				fmt.Fprintf(out, "Warning: %s\n", res.Warning)
			}
			if an := res.Analysis; an != nil {
				if len(an.Topics) > 0 {
					fmt.Fprintf(out, "Topics:    %s\n", strings.Join(an.Topics, ", "))
				}
				fmt.Fprintf(out, "Sentiment: %s\n", an.Sentiment)
				if an.RelationshipStrength > 0 {
					fmt.Fprintf(out, "Strength:  %d/10\n", an.RelationshipStrength)
				}
			}
			printSuggestion(out, res.Suggestion)
			return nil
		},
	}

	cmd.Flags().StringVarP(&contactRef, "contact", "c", "", "Contact id or name")
	cmd.Flags().BoolVar(&create, "create", false, "Create the contact if no contact has that name")
	return cmd
}

func printSuggestion(out io.Writer, sg contacts.Suggestion) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Suggestion: %s\n", sg.Text)
	if sg.Source != contacts.SourceAI {
		fmt.Fprintf(out, "  (%s", sg.Source)
		if sg.ErrorMessage != "" {
			fmt.Fprintf(out, ": %s", sg.ErrorMessage)
		}
		fmt.Fprintln(out, ")")
	}
}
