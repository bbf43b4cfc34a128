package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"PaperScout/internal/domain"
)

const (
	defaultTimezone   = "UTC"
	defaultConfigPath = "config.yaml"
	configPathEnv     = "PAPERSCOUT_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	logLevelEnv       = "LOG_LEVEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	kafkaBrokersEnv   = "KAFKA_BROKERS"
	httpAddrEnv       = "HTTP_ADDR"
)

// Config holds high-level settings required across the application.
type Config struct {
	Whitelists    domain.Whitelists  `yaml:"whitelists"`
	Scraper       ScraperConfig      `yaml:"scraper"`
	Database      DatabaseConfig     `yaml:"database"`
	Logging       LoggingConfig      `yaml:"logging"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	Server        ServerConfig       `yaml:"server"`
}

// ScraperConfig tunes a single scrape run.
type ScraperConfig struct {
	FeedURL          string            `yaml:"feed_url"`
	Scanner          string            `yaml:"scanner"`
	Options          map[string]string `yaml:"options"`
	MaxWorkers       int               `yaml:"max_workers"`
	FetchTimeout     Duration          `yaml:"fetch_timeout"`
	PDFLinesStart    int               `yaml:"pdf_lines_start"`
	PDFLinesEnd      int               `yaml:"pdf_lines_end"`
	PatternCacheSize int               `yaml:"pattern_cache_size"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN keeps
// papers in memory.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig defines when serve mode scrapes on its own. An empty
// expression disables it.
type SchedulerConfig struct {
	CronExpression string `yaml:"cronExpression"`
	Timezone       string `yaml:"timezone"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Kafka    KafkaConfig    `yaml:"kafka"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both token and chat are set.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// KafkaConfig describes the topic new papers are published to.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Enabled reports whether brokers and topic are set.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

// ServerConfig holds the HTTP listen address for serve mode.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Duration accepts either a Go duration string ("45s") or a number of
// seconds in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	raw := strings.TrimSpace(node.Value)
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load reads YAML configuration (if present) and applies environment
// overrides. Problems are logged and never abort startup.
func Load() Config {
	cfg := defaultConfig()

	path := os.Getenv(configPathEnv)
	if path == "" {
		path = defaultConfigPath
	}
	if err := cfg.readFile(path); err != nil {
		slog.Warn("config: falling back to defaults", "path", path, "error", err)
		cfg = defaultConfig()
	}

	cfg.applyEnvOverrides()
	for _, problem := range cfg.sanitize() {
		slog.Warn("config: invalid value reset to default", "problem", problem)
	}
	return cfg
}

// readFile decodes the YAML document over the current values, so keys
// missing from the file keep their defaults. A missing default file is
// not an error.
func (c *Config) readFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && os.Getenv(configPathEnv) == "" {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(kafkaBrokersEnv); v != "" {
		c.Notifications.Kafka.Brokers = splitAndTrim(v)
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.Server.Addr = v
	}
}

// sanitize resets out-of-range values to their defaults and returns a
// description of each reset.
func (c *Config) sanitize() []string {
	def := defaultConfig()
	var problems []string

	if c.Scraper.FeedURL == "" {
		problems = append(problems, "scraper.feed_url is empty")
		c.Scraper.FeedURL = def.Scraper.FeedURL
	}
	if c.Scraper.Scanner == "" {
		c.Scraper.Scanner = def.Scraper.Scanner
	}
	if c.Scraper.MaxWorkers <= 0 {
		problems = append(problems, fmt.Sprintf("scraper.max_workers must be positive, got %d", c.Scraper.MaxWorkers))
		c.Scraper.MaxWorkers = def.Scraper.MaxWorkers
	}
	if c.Scraper.FetchTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("scraper.fetch_timeout must be positive, got %s", c.Scraper.FetchTimeout.Std()))
		c.Scraper.FetchTimeout = def.Scraper.FetchTimeout
	}
	if c.Scraper.PDFLinesStart < 0 || c.Scraper.PDFLinesEnd < c.Scraper.PDFLinesStart {
		problems = append(problems, fmt.Sprintf("scraper.pdf_lines range [%d, %d) is invalid", c.Scraper.PDFLinesStart, c.Scraper.PDFLinesEnd))
		c.Scraper.PDFLinesStart, c.Scraper.PDFLinesEnd = def.Scraper.PDFLinesStart, def.Scraper.PDFLinesEnd
	}
	if c.Scraper.PatternCacheSize <= 0 {
		problems = append(problems, fmt.Sprintf("scraper.pattern_cache_size must be positive, got %d", c.Scraper.PatternCacheSize))
		c.Scraper.PatternCacheSize = def.Scraper.PatternCacheSize
	}
	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = defaultTimezone
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("scheduler.timezone %q is unknown", c.Scheduler.Timezone))
		c.Scheduler.Timezone = defaultTimezone
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}

	return problems
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() Config {
	return Config{
		Scraper: ScraperConfig{
			FeedURL:          "https://rss.arxiv.org/rss/cs.CV",
			Scanner:          "rss",
			MaxWorkers:       8,
			FetchTimeout:     Duration(30 * time.Second),
			PDFLinesStart:    2,
			PDFLinesEnd:      30,
			PatternCacheSize: 32,
		},
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{Timezone: defaultTimezone},
		Notifications: NotificationConfig{
			Kafka: KafkaConfig{Topic: "papers_matched"},
		},
		Server: ServerConfig{Addr: ":5000"},
	}
}
