package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Chdir(t.TempDir())

	cfg := Load()
	require.Equal(t, "https://rss.arxiv.org/rss/cs.CV", cfg.Scraper.FeedURL)
	require.Equal(t, "rss", cfg.Scraper.Scanner)
	require.Equal(t, 8, cfg.Scraper.MaxWorkers)
	require.Equal(t, 30*time.Second, cfg.Scraper.FetchTimeout.Std())
	require.Equal(t, 2, cfg.Scraper.PDFLinesStart)
	require.Equal(t, 30, cfg.Scraper.PDFLinesEnd)
	require.Equal(t, 32, cfg.Scraper.PatternCacheSize)
	require.Equal(t, ":5000", cfg.Server.Addr)
	require.Equal(t, "UTC", cfg.Scheduler.Timezone)
	require.Empty(t, cfg.Scheduler.CronExpression)
	require.Empty(t, cfg.Database.DSN)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
whitelists:
  titles: ["Zero Shot", "Diffusion"]
  authors: ["Hinton"]
  affiliations: ["MIT"]
scraper:
  feed_url: https://rss.arxiv.org/rss/cs.LG
  max_workers: 4
  fetch_timeout: 45
  pdf_lines_start: 0
scheduler:
  cronExpression: "0 6 * * *"
  timezone: Europe/Berlin
notifications:
  kafka:
    brokers: [localhost:9092]
`)
	t.Setenv(configPathEnv, path)

	cfg := Load()
	require.Equal(t, []string{"Zero Shot", "Diffusion"}, cfg.Whitelists.Titles)
	require.Equal(t, []string{"Hinton"}, cfg.Whitelists.Authors)
	require.Equal(t, []string{"MIT"}, cfg.Whitelists.Affiliations)
	require.Equal(t, "https://rss.arxiv.org/rss/cs.LG", cfg.Scraper.FeedURL)
	require.Equal(t, 4, cfg.Scraper.MaxWorkers)
	require.Equal(t, 45*time.Second, cfg.Scraper.FetchTimeout.Std())
	require.Equal(t, 0, cfg.Scraper.PDFLinesStart)
	require.Equal(t, 30, cfg.Scraper.PDFLinesEnd)
	require.Equal(t, "rss", cfg.Scraper.Scanner)
	require.Equal(t, "Europe/Berlin", cfg.Scheduler.Timezone)
	require.True(t, cfg.Notifications.Kafka.Enabled())
	require.False(t, cfg.Notifications.Telegram.Enabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "database:\n  dsn: postgres://file\n")
	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "postgres://env")
	t.Setenv(logLevelEnv, "debug")
	t.Setenv(telegramTokenEnv, "tok")
	t.Setenv(telegramChatIDEnv, "42")
	t.Setenv(kafkaBrokersEnv, "k1:9092, k2:9092,")
	t.Setenv(httpAddrEnv, ":8080")

	cfg := Load()
	require.Equal(t, "postgres://env", cfg.Database.DSN)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.True(t, cfg.Notifications.Telegram.Enabled())
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Notifications.Kafka.Brokers)
	require.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	path := writeConfig(t, `
scraper:
  max_workers: -2
  fetch_timeout: 0s
  pdf_lines_start: 10
  pdf_lines_end: 5
  pattern_cache_size: 0
scheduler:
  timezone: Nowhere/Land
`)
	t.Setenv(configPathEnv, path)

	cfg := Load()
	require.Equal(t, 8, cfg.Scraper.MaxWorkers)
	require.Equal(t, 30*time.Second, cfg.Scraper.FetchTimeout.Std())
	require.Equal(t, 2, cfg.Scraper.PDFLinesStart)
	require.Equal(t, 30, cfg.Scraper.PDFLinesEnd)
	require.Equal(t, 32, cfg.Scraper.PatternCacheSize)
	require.Equal(t, "UTC", cfg.Scheduler.Timezone)
}

func TestLoadBrokenFileFallsBack(t *testing.T) {
	t.Setenv(configPathEnv, writeConfig(t, "scraper: [not, a, map"))

	cfg := Load()
	require.Equal(t, defaultConfig().Scraper.FeedURL, cfg.Scraper.FeedURL)

	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	cfg = Load()
	require.Equal(t, 8, cfg.Scraper.MaxWorkers)
}

func TestDurationUnmarshal(t *testing.T) {
	t.Parallel()

	var v struct {
		A Duration `yaml:"a"`
		B Duration `yaml:"b"`
		C Duration `yaml:"c"`
	}
	require.NoError(t, yamlUnmarshal("a: 1.5\nb: 2m\nc: 30\n", &v))
	require.Equal(t, 1500*time.Millisecond, v.A.Std())
	require.Equal(t, 2*time.Minute, v.B.Std())
	require.Equal(t, 30*time.Second, v.C.Std())

	require.Error(t, yamlUnmarshal("a: soon\n", &v))
}

func yamlUnmarshal(doc string, out any) error {
	return yaml.Unmarshal([]byte(doc), out)
}
