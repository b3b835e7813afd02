// Package config manages the rekindle configuration file
// (~/.config/rekindle/config.toml) and its environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Config holds all settings. Values are resolved as defaults, then the
// TOML file, then environment variables.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	AI       AIConfig       `toml:"ai"`
	Keys     KeysConfig     `toml:"keys"`
	Azure    AzureConfig    `toml:"azure"`
	Ollama   OllamaConfig   `toml:"ollama"`
	Schedule ScheduleConfig `toml:"schedule"`
	Log      LogConfig      `toml:"log"`
	Inbox    InboxConfig    `toml:"inbox"`
}

type ServerConfig struct {
	Addr          string `toml:"addr" env:"REKINDLE_SERVER_ADDR"`
	APIKey        string `toml:"api_key" env:"REKINDLE_API_KEY"`
	DefaultUserID int64  `toml:"default_user_id" env:"REKINDLE_DEFAULT_USER_ID"`
	Timezone      string `toml:"timezone" env:"REKINDLE_TIMEZONE"`
}

type DatabaseConfig struct {
	Path string `toml:"path" env:"REKINDLE_DB_PATH"`
}

// AIConfig selects the provider used for suggestions.
type AIConfig struct {
	Provider         string  `toml:"provider" env:"REKINDLE_AI_PROVIDER"`
	Model            string  `toml:"model" env:"REKINDLE_AI_MODEL"`
	MaxTokens        int     `toml:"max_tokens" env:"REKINDLE_AI_MAX_TOKENS"`
	Temperature      float64 `toml:"temperature" env:"REKINDLE_AI_TEMPERATURE"`
	MaxHistoryTokens int     `toml:"max_history_tokens" env:"REKINDLE_AI_MAX_HISTORY_TOKENS"`
	TimeoutSeconds   int     `toml:"timeout_seconds" env:"REKINDLE_AI_TIMEOUT_SECONDS"`
}

// Timeout returns the per-call AI timeout.
func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

type KeysConfig struct {
	OpenAI    string `toml:"openai" env:"OPENAI_API_KEY"`
	Azure     string `toml:"azure" env:"AZURE_OPENAI_KEY"`
	Anthropic string `toml:"anthropic" env:"ANTHROPIC_API_KEY"`
}

type AzureConfig struct {
	Endpoint   string `toml:"endpoint" env:"AZURE_OPENAI_ENDPOINT"`
	Deployment string `toml:"deployment" env:"AZURE_OPENAI_DEPLOYMENT"`
	APIVersion string `toml:"api_version" env:"AZURE_OPENAI_API_VERSION"`
}

type OllamaConfig struct {
	Host string `toml:"host" env:"OLLAMA_HOST"`
}

// ScheduleConfig tunes recommendations and reminders.
type ScheduleConfig struct {
	StalenessDays            int `toml:"staleness_days" env:"REKINDLE_STALENESS_DAYS"`
	CooldownDays             int `toml:"cooldown_days" env:"REKINDLE_COOLDOWN_DAYS"`
	RecommendationCap        int `toml:"recommendation_cap" env:"REKINDLE_RECOMMENDATION_CAP"`
	DefaultReminderFrequency int `toml:"default_reminder_frequency" env:"REKINDLE_DEFAULT_REMINDER_FREQUENCY"`
	DefaultSnoozeDays        int `toml:"default_snooze_days" env:"REKINDLE_DEFAULT_SNOOZE_DAYS"`
	AnalysisWindow           int `toml:"analysis_window" env:"REKINDLE_ANALYSIS_WINDOW"`
}

type LogConfig struct {
	Level  string `toml:"level" env:"REKINDLE_LOG_LEVEL"`
	Pretty bool   `toml:"pretty" env:"REKINDLE_LOG_PRETTY"`
}

// InboxConfig controls the export-file watcher.
type InboxConfig struct {
	Dir        string `toml:"dir" env:"REKINDLE_INBOX_DIR"`
	DebounceMS int    `toml:"debounce_ms" env:"REKINDLE_INBOX_DEBOUNCE_MS"`
}

// Debounce returns the watcher debounce interval.
func (i InboxConfig) Debounce() time.Duration {
	return time.Duration(i.DebounceMS) * time.Millisecond
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:          "127.0.0.1:8080",
			DefaultUserID: 1,
		},
		Database: DatabaseConfig{
			Path: defaultDataPath("rekindle.db"),
		},
		AI: AIConfig{
			Provider:         "openai",
			MaxTokens:        1024,
			Temperature:      0.7,
			MaxHistoryTokens: 6000,
			TimeoutSeconds:   60,
		},
		Azure: AzureConfig{
			APIVersion: "2024-02-01",
		},
		Ollama: OllamaConfig{
			Host: "http://localhost:11434",
		},
		Schedule: ScheduleConfig{
			StalenessDays:            30,
			CooldownDays:             7,
			RecommendationCap:        3,
			DefaultReminderFrequency: 14,
			DefaultSnoozeDays:        7,
			AnalysisWindow:           40,
		},
		Log: LogConfig{
			Level: "info",
		},
		Inbox: InboxConfig{
			Dir:        defaultDataPath("inbox"),
			DebounceMS: 500,
		},
	}
}

// Path returns the path to the config file. REKINDLE_CONFIG overrides it.
func Path() (string, error) {
	if p := os.Getenv("REKINDLE_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "rekindle", "config.toml"), nil
}

// Load reads the config file at the default path.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		// No home dir: defaults plus env only.
		cfg := Default()
		if err := env.Parse(&cfg); err != nil {
			return cfg, fmt.Errorf("config: env: %w", err)
		}
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile reads path, which need not exist, and applies env overrides.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("config: load %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("config: stat %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("config: env: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("config: create: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	switch c.AI.Provider {
	case "", "openai", "azure", "claude", "ollama":
	default:
		errs = append(errs, fmt.Errorf("ai.provider %q is not one of openai, azure, claude, ollama", c.AI.Provider))
	}
	if c.AI.Provider == "azure" && c.Azure.Endpoint == "" {
		errs = append(errs, errors.New("azure.endpoint is required for the azure provider"))
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		errs = append(errs, fmt.Errorf("ai.temperature %.2f out of range [0, 2]", c.AI.Temperature))
	}
	if c.Server.DefaultUserID <= 0 {
		errs = append(errs, errors.New("server.default_user_id must be positive"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Server.Timezone != "" {
		if _, err := time.LoadLocation(c.Server.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("server.timezone: %w", err))
		}
	}
	s := c.Schedule
	for name, v := range map[string]int{
		"schedule.staleness_days":             s.StalenessDays,
		"schedule.cooldown_days":              s.CooldownDays,
		"schedule.recommendation_cap":         s.RecommendationCap,
		"schedule.default_reminder_frequency": s.DefaultReminderFrequency,
		"schedule.default_snooze_days":        s.DefaultSnoozeDays,
		"schedule.analysis_window":            s.AnalysisWindow,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Location returns the configured timezone, or time.Local.
func (c Config) Location() *time.Location {
	if c.Server.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// APIKey returns the key for the configured provider.
func (c Config) APIKey() string {
	switch c.AI.Provider {
	case "azure":
		return c.Keys.Azure
	case "claude":
		return c.Keys.Anthropic
	case "ollama":
		return ""
	default:
		return c.Keys.OpenAI
	}
}

func defaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".local", "share", "rekindle", name)
}
