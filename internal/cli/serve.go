package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rekindle/rekindle/internal/api"
	"github.com/rekindle/rekindle/internal/inbox"
	"github.com/rekindle/rekindle/internal/logger"
)

func newServeCmd() *cobra.Command {
	var (
		addr      string
		withInbox bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the rekindle HTTP API. Prometheus metrics are exposed on /metrics
and a health check on /health.

With --inbox the inbox watcher runs alongside the server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if withInbox {
				w, err := inbox.New(a.cfg.Inbox.Dir, inbox.ImportHandler(a.orch, a.userID, a.log), inbox.Options{
					Debounce: a.cfg.Inbox.Debounce(),
					Logger:   a.log,
				})
				if err != nil {
					return err
				}
				defer w.Close()
				go runInbox(ctx, w, a)
			}

			router := api.NewRouter(api.Deps{
				Store:         a.store,
				Orchestrator:  a.orch,
				Schedule:      a.sched,
				Metrics:       a.metrics,
				Logger:        a.log,
				APIKey:        a.cfg.Server.APIKey,
				DefaultUserID: a.userID,
				Version:       version,
			})

			logger.LogServerStart(a.log, addr, a.db.Path(), a.cfg.AI.Provider)
			err = api.Serve(ctx, addr, router, a.log)
			logger.LogServerShutdown(a.log)
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&withInbox, "inbox", false, "Also watch the inbox directory for chat exports")
	return cmd
}

func runInbox(ctx context.Context, w *inbox.Watcher, a *app) {
	if n := w.ScanExisting(ctx); n > 0 {
		a.log.Info().Int("files", n).Msg("imported files already in the inbox")
	}
	if err := w.Run(ctx); err != nil {
		a.log.Error().Err(err).Msg("inbox watcher stopped")
	}
}
