package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"PaperScout/internal/config"
	"PaperScout/internal/domain"
)

const feedBody = `<?xml version="1.0"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/"><channel><title>t</title>
<item><title>Zero-Shot Detection</title><link>%s/abs/2510.1</link><description>d</description>
<dc:creator>Ada Lovelace</dc:creator><pubDate>Tue, 21 Oct 2025 00:00:00 -0400</pubDate></item>
<item><title>Other</title><link>%s/abs/2510.2</link><description>d</description></item>
</channel></rss>`

func testConfig(feedURL string) config.Config {
	var cfg config.Config
	cfg.Whitelists = domain.Whitelists{Titles: []string{"Zero Shot"}}
	cfg.Scraper = config.ScraperConfig{
		FeedURL:          feedURL,
		Scanner:          "rss",
		MaxWorkers:       2,
		FetchTimeout:     config.Duration(2 * time.Second),
		PDFLinesStart:    2,
		PDFLinesEnd:      30,
		PatternCacheSize: 8,
	}
	return cfg
}

func TestScrapeEndToEndInMemory(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	var base string
	mux.HandleFunc("/feed", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, fmtFeed(base))
	})
	mux.HandleFunc("/pdf/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "not really a pdf")
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()
	base = ts.URL

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	application, err := New(context.Background(), testConfig(ts.URL+"/feed"), log)
	require.NoError(t, err)
	defer application.Close()

	summary, latest, err := application.Scrape(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.RunSummary{NewPapers: 1, TotalMatched: 1, TotalInFeed: 2}, summary)
	require.Len(t, latest, 1)
	require.Equal(t, ts.URL+"/pdf/2510.1", latest[0].PDFLink)
	require.Equal(t, "2025-10-21", latest[0].PublicationDate)

	summary, _, err = application.Scrape(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, summary.NewPapers)
	require.Equal(t, 1, summary.DuplicatesSkipped)

	out := filepath.Join(t.TempDir(), "report.docx")
	n, err := application.Report(context.Background(), out, domain.PaperFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func fmtFeed(base string) string {
	return fmt.Sprintf(feedBody, base, base)
}
