package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rekindle/rekindle/internal/adapter"
	"github.com/rekindle/rekindle/internal/config"
	"github.com/rekindle/rekindle/internal/contacts"
	"github.com/rekindle/rekindle/internal/db"
	"github.com/rekindle/rekindle/internal/logger"
	"github.com/rekindle/rekindle/internal/metrics"
	"github.com/rekindle/rekindle/internal/schedule"
	"github.com/rekindle/rekindle/internal/suggest"
)

// Swapped out in tests to keep them off the network.
var (
	newAdapter   = adapter.New
	newTokenizer = suggest.NewTokenizer
)

// app bundles everything a command needs once the config is loaded.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	metrics *metrics.Metrics
	db      *db.DB
	store   *contacts.Store
	orch    *contacts.Orchestrator
	sched   *schedule.Service
	userID  int64
}

// loadConfig reads --config, or the default path, and validates it.
func loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// configPath returns the file loadConfig reads.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.Path()
}

// openApp loads the config, opens the database and wires the services.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: cmd.ErrOrStderr(),
	})

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	userID := cfg.Server.DefaultUserID
	store := contacts.NewStore(database)
	if err := store.EnsureUser(cmd.Context(), userID); err != nil {
		database.Close()
		return nil, err
	}

	m := metrics.New()
	orch := contacts.NewOrchestrator(store, newGenerator(cfg, log), log, m).
		WithAnalysisWindow(cfg.Schedule.AnalysisWindow).
		WithLocation(cfg.Location())
	policy := schedule.Policy{
		StalenessDays: cfg.Schedule.StalenessDays,
		CooldownDays:  cfg.Schedule.CooldownDays,
		Cap:           cfg.Schedule.RecommendationCap,
	}
	sched := schedule.NewService(store, policy, cfg.Schedule.DefaultSnoozeDays, log, m).
		WithLocation(cfg.Location())

	return &app{
		cfg:     cfg,
		log:     log,
		metrics: m,
		db:      database,
		store:   store,
		orch:    orch,
		sched:   sched,
		userID:  userID,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// newGenerator builds the suggestion generator. A provider that cannot be
// set up leaves the generator without an LLM, so every call falls back.
func newGenerator(cfg config.Config, log zerolog.Logger) *suggest.LLMGenerator {
	base := ""
	if cfg.AI.Provider == adapter.ProviderOllama {
		base = cfg.Ollama.Host
	}
	llm, err := newAdapter(adapter.Options{
		Provider:        cfg.AI.Provider,
		APIKey:          cfg.APIKey(),
		Model:           cfg.AI.Model,
		BaseURL:         base,
		AzureEndpoint:   cfg.Azure.Endpoint,
		AzureDeployment: cfg.Azure.Deployment,
		AzureAPIVersion: cfg.Azure.APIVersion,
	})
	if err != nil {
		log.Warn().Err(err).Msg("AI provider unavailable; suggestions will use the fallback text")
		llm = nil
	}

	tok, err := newTokenizer()
	if err != nil {
		log.Warn().Err(err).Msg("tokenizer unavailable; chat history will not be trimmed")
		tok = nil
	}

	return suggest.NewLLMGenerator(llm, tok, suggest.Options{
		MaxTokens:        cfg.AI.MaxTokens,
		Temperature:      cfg.AI.Temperature,
		MaxHistoryTokens: cfg.AI.MaxHistoryTokens,
		Timeout:          cfg.AI.Timeout(),
		Location:         cfg.Location(),
	}, log)
}

// resolveContact looks a contact up by numeric id or, failing that, by name.
func (a *app) resolveContact(ctx context.Context, ref string) (contacts.Contact, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return a.store.GetContact(ctx, a.userID, id)
	}
	c, err := a.store.FindContactByName(ctx, a.userID, ref)
	if err != nil {
		return c, fmt.Errorf("contact %q: %w", ref, err)
	}
	return c, nil
}
