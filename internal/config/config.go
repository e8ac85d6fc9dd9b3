package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"CompetitorWatch/internal/domain"
)

const (
	configPathEnv    = "COMPETITORWATCH_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	oracleAPIKeyEnv  = "OPENAI_API_KEY"
	oracleModelEnv   = "OPENAI_MODEL"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the pipeline.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Scraper       ScraperConfig      `yaml:"scraper"`
	Oracle        OracleConfig       `yaml:"oracle"`
	Notifications NotificationConfig `yaml:"notifications"`
	Sources       []SourceConfig     `yaml:"sources"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN
// selects the in-memory store seeded from the configured sources.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines the two independent cadences and the per-cycle
// worker bound.
type SchedulerConfig struct {
	ScrapeInterval time.Duration `yaml:"scrapeInterval"`
	DigestInterval time.Duration `yaml:"digestInterval"`
	Workers        int           `yaml:"workers"`
}

// ScraperConfig tunes fetching and per-origin throttling. Headless is a
// pointer so a config file that omits the key keeps the default instead
// of silently disabling browser rendering.
type ScraperConfig struct {
	Headless          *bool         `yaml:"headless"`
	NavigationTimeout time.Duration `yaml:"navigationTimeout"`
	SettleWait        time.Duration `yaml:"settleWait"`
	RateLimitRequests int           `yaml:"rateLimitRequests"`
	RateLimitWindow   time.Duration `yaml:"rateLimitWindow"`
}

// HeadlessEnabled reports whether pages are fetched through the browser
// renderer. Enabled unless explicitly turned off.
func (s ScraperConfig) HeadlessEnabled() bool {
	return s.Headless == nil || *s.Headless
}

// OracleConfig defines how to contact the classification/synthesis LLM.
type OracleConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SourceConfig declares one monitored origin in the roster.
type SourceConfig struct {
	ID         string `yaml:"id"`
	Competitor string `yaml:"competitor"`
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	Type       string `yaml:"type"`
	Cadence    string `yaml:"cadence"`
	Inactive   bool   `yaml:"inactive"`
}

// Source converts the roster entry into the domain entity.
func (s SourceConfig) Source() domain.Source {
	return domain.Source{
		ID:             s.ID,
		CompetitorID:   s.Competitor,
		CompetitorName: s.Name,
		URL:            s.URL,
		Type:           domain.SourceType(s.Type),
		Cadence:        domain.CheckCadence(s.Cadence),
		Active:         !s.Inactive,
		LastStatus:     domain.StatusPending,
	}
}

// Load reads YAML configuration (if present) and applies environment
// overrides for secrets.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(oracleAPIKeyEnv); v != "" {
		c.Oracle.APIKey = v
	}
	if v := os.Getenv(oracleModelEnv); v != "" {
		c.Oracle.Model = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Scheduler.ScrapeInterval > 0 {
		base.Scheduler.ScrapeInterval = override.Scheduler.ScrapeInterval
	}
	if override.Scheduler.DigestInterval > 0 {
		base.Scheduler.DigestInterval = override.Scheduler.DigestInterval
	}
	if override.Scheduler.Workers > 0 {
		base.Scheduler.Workers = override.Scheduler.Workers
	}

	if override.Scraper.NavigationTimeout > 0 {
		base.Scraper.NavigationTimeout = override.Scraper.NavigationTimeout
	}
	if override.Scraper.SettleWait > 0 {
		base.Scraper.SettleWait = override.Scraper.SettleWait
	}
	if override.Scraper.RateLimitRequests > 0 {
		base.Scraper.RateLimitRequests = override.Scraper.RateLimitRequests
	}
	if override.Scraper.RateLimitWindow > 0 {
		base.Scraper.RateLimitWindow = override.Scraper.RateLimitWindow
	}
	if override.Scraper.Headless != nil {
		base.Scraper.Headless = override.Scraper.Headless
	}

	if override.Oracle.Endpoint != "" {
		base.Oracle.Endpoint = override.Oracle.Endpoint
	}
	if override.Oracle.Model != "" {
		base.Oracle.Model = override.Oracle.Model
	}
	if override.Oracle.APIKey != "" {
		base.Oracle.APIKey = override.Oracle.APIKey
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{DSN: ""},
		Scheduler: SchedulerConfig{
			ScrapeInterval: 6 * time.Hour,
			DigestInterval: 168 * time.Hour,
			Workers:        3,
		},
		Scraper: ScraperConfig{
			NavigationTimeout: 30 * time.Second,
			SettleWait:        2 * time.Second,
			RateLimitRequests: 5,
			RateLimitWindow:   60 * time.Second,
		},
		Oracle: OracleConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
	}
}
