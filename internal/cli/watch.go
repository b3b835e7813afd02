package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rekindle/rekindle/internal/inbox"
)

func newWatchCmd() *cobra.Command {
	var (
		dir        string
		debounceMs int
		keep       bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the inbox for WhatsApp exports and import them",
		Long: `Start a long-running watcher on the inbox directory. Each exported chat
("WhatsApp Chat with <name>.txt", or an unzipped iOS export folder) is
imported into the contact of the same name, which is created if needed.

Handled files are moved to processed/ or failed/ inside the inbox. Files
already in the inbox are imported on start.

Press Ctrl-C to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if dir == "" {
				dir = a.cfg.Inbox.Dir
			}
			debounce := a.cfg.Inbox.Debounce()
			if debounceMs > 0 {
				debounce = time.Duration(debounceMs) * time.Millisecond
			}

			w, err := inbox.New(dir, inbox.ImportHandler(a.orch, a.userID, a.log), inbox.Options{
				Debounce:  debounce,
				KeepFiles: keep,
				Logger:    a.log,
			})
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			if n := w.ScanExisting(ctx); n > 0 {
				fmt.Fprintf(out, "Imported %d file(s) already in the inbox.\n", n)
			}
			fmt.Fprintf(out, "Watching %s for chat exports (debounce %s). Press Ctrl-C to stop.\n", w.Dir(), debounce)

			if err := w.Run(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "\nStopping watcher.")
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Inbox directory (default from config)")
	cmd.Flags().IntVar(&debounceMs, "debounce", 0, "Debounce interval in milliseconds (default from config)")
	cmd.Flags().BoolVar(&keep, "keep", false, "Leave handled files in place")
	return cmd
}
