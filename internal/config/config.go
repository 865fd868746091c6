package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Twitter credentials (env only, never in the YAML file)
	TwitterAPIKey       string `yaml:"-"`
	TwitterAPISecret    string `yaml:"-"`
	TwitterAccessToken  string `yaml:"-"`
	TwitterAccessSecret string `yaml:"-"`

	// Optional Telegram mirror
	TelegramToken  string `yaml:"-"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`

	// Sports data source
	SofascoreBaseURL string `yaml:"sofascore_base_url"`
	TeamID           int64  `yaml:"team_id"`

	// News feed
	NewsFeedURL string `yaml:"news_feed_url"`
	NewsLimit   int    `yaml:"news_limit"`

	// State store
	StatePath string `yaml:"state_path"`
	StateDSN  string `yaml:"-"` // Postgres DSN, env only

	// Behavior. Durations are file-configured as plain integers since
	// yaml.v3 has no native duration-string decoding.
	RequestTimeout        time.Duration `yaml:"-"`
	MatchWindow           time.Duration `yaml:"-"`
	RequestTimeoutSeconds int           `yaml:"request_timeout_seconds"`
	MatchWindowHours      int           `yaml:"match_window_hours"`
	PrematchMinMin        int           `yaml:"prematch_min_minutes"`
	PrematchMaxMin        int           `yaml:"prematch_max_minutes"`
	Timezone              string        `yaml:"timezone"`
	Hashtags              string        `yaml:"hashtags"`
	UserAgent             string        `yaml:"user_agent"`

	// Process behavior
	StrictExit bool `yaml:"-"`
	Debug      bool `yaml:"-"`
}

// Load builds the configuration from defaults, then an optional YAML
// file (BOT_CONFIG_PATH, default configs/bot.yaml), then environment
// overrides. Credentials come from the environment only.
func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		SofascoreBaseURL: "https://api.sofascore.com/api/v1",
		TeamID:           17, // Tottenham Hotspur
		NewsFeedURL:      "https://feeds.bbci.co.uk/sport/football/teams/tottenham-hotspur/rss.xml",
		NewsLimit:        3,
		StatePath:        "state.json",
		RequestTimeout:   20 * time.Second,
		MatchWindow:      36 * time.Hour,
		PrematchMinMin:   55,
		PrematchMaxMin:   65,
		Timezone:         "Europe/London",
		Hashtags:         "#COYS #THFC",
		UserAgent:        "Mozilla/5.0",
	}

	path := getEnvOrDefault("BOT_CONFIG_PATH", "configs/bot.yaml")
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	if cfg.RequestTimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	}
	if cfg.MatchWindowHours > 0 {
		cfg.MatchWindow = time.Duration(cfg.MatchWindowHours) * time.Hour
	}

	// Load from environment
	cfg.TwitterAPIKey = os.Getenv("TWITTER_API_KEY")
	cfg.TwitterAPISecret = os.Getenv("TWITTER_API_SECRET")
	cfg.TwitterAccessToken = os.Getenv("TWITTER_ACCESS_TOKEN")
	cfg.TwitterAccessSecret = os.Getenv("TWITTER_ACCESS_SECRET")
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.StateDSN = os.Getenv("STATE_DSN")

	cfg.StatePath = getEnvOrDefault("STATE_PATH", cfg.StatePath)

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = id
		}
	}
	if v := os.Getenv("TEAM_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			cfg.TeamID = id
		}
	}
	if v := os.Getenv("NEWS_LIMIT"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.NewsLimit = val
		}
	}

	if os.Getenv("STRICT_EXIT") == "true" {
		cfg.StrictExit = true
	}
	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

// loadFile overlays settings from a YAML file. A missing file is fine,
// everything has defaults; a present-but-broken file is an error.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.TwitterAPIKey == "" {
		return fmt.Errorf("TWITTER_API_KEY is required")
	}
	if c.TwitterAPISecret == "" {
		return fmt.Errorf("TWITTER_API_SECRET is required")
	}
	if c.TwitterAccessToken == "" {
		return fmt.Errorf("TWITTER_ACCESS_TOKEN is required")
	}
	if c.TwitterAccessSecret == "" {
		return fmt.Errorf("TWITTER_ACCESS_SECRET is required")
	}
	if c.TeamID <= 0 {
		return fmt.Errorf("team_id must be positive")
	}
	if c.PrematchMinMin > c.PrematchMaxMin {
		return fmt.Errorf("prematch window is inverted: [%d,%d]", c.PrematchMinMin, c.PrematchMaxMin)
	}
	return nil
}

// MirrorEnabled reports whether the optional Telegram mirror is fully
// configured.
func (c *Config) MirrorEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// Location resolves the configured timezone, falling back to UTC when
// zone data is unavailable on the host.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
