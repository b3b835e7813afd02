package inbox

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/rekindle/rekindle/internal/contacts"
)

// ImportHandler returns a Handler that imports each file into the contact
// of the same name, creating the contact on first sight.
func ImportHandler(orch *contacts.Orchestrator, userID int64, log zerolog.Logger) Handler {
	store := orch.Store()
	return func(ctx context.Context, path, name string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("inbox: read %s: %w", path, err)
		}

		c, err := store.FindContactByName(ctx, userID, name)
		if errors.Is(err, contacts.ErrNotFound) {
			c, err = store.CreateContact(ctx, contacts.Contact{UserID: userID, Name: name})
			if err == nil {
				log.Info().Int64("contact_id", c.ID).Str("contact", name).Msg("created contact from inbox file")
			}
		}
		if err != nil {
			return fmt.Errorf("inbox: resolve contact %q: %w", name, err)
		}

		res, err := orch.ImportChat(ctx, userID, c.ID, string(data))
		if err != nil {
			return err
		}
		ev := log.Info()
		if res.Warning != "" {
			ev = log.Warn().Str("warning", res.Warning)
		}
		ev.Int64("contact_id", c.ID).Int("messages", res.MessagesImported).
			Str("source", res.Suggestion.Source).Msg("imported chat export")
		return nil
	}
}
