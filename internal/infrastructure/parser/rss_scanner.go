package parser

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"PaperScout/internal/domain"
	"PaperScout/internal/scanner"
)

const userAgent = "PaperScout/1.0"

var authorSeparators = regexp.MustCompile(`,\s*|\s+and\s+`)

// RSSScanner reads an RSS or Atom feed through gofeed.
type RSSScanner struct {
	client *http.Client
}

var _ scanner.Scanner = (*RSSScanner)(nil)

// NewRSSScanner wires an HTTP client; nil gets a 30s timeout client.
func NewRSSScanner(client *http.Client) *RSSScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &RSSScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (r *RSSScanner) Name() string {
	return "rss"
}

// Scan downloads and parses the feed at req.URL.
func (r *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.FeedEntry, error) {
	fp := gofeed.NewParser()
	fp.Client = r.client
	fp.UserAgent = userAgent

	feed, err := fp.ParseURLWithContext(req.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", req.URL, err)
	}

	entries := make([]domain.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, toFeedEntry(item))
	}
	return entries, nil
}

func toFeedEntry(item *gofeed.Item) domain.FeedEntry {
	raw, names := authorsOf(item)
	return domain.FeedEntry{
		Link:         strings.TrimSpace(item.Link),
		Title:        strings.TrimSpace(item.Title),
		RawAuthors:   raw,
		AuthorNames:  names,
		Abstract:     CleanAbstract(item.Description),
		PublishedRaw: item.Published,
	}
}

// authorsOf returns the author string as published and the individual
// names. Structured author names are used as given; only when the feed has
// none is the raw author field split on commas and "and".
func authorsOf(item *gofeed.Item) (string, []string) {
	var names []string
	for _, person := range item.Authors {
		if person != nil && strings.TrimSpace(person.Name) != "" {
			names = append(names, person.Name)
		}
	}

	raw := strings.Join(names, ", ")
	if item.Author != nil && item.Author.Name != "" {
		raw = item.Author.Name
	}

	if len(names) == 0 {
		names = SplitAuthors(raw)
	}
	return raw, names
}

// SplitAuthors splits a free-form author list into names.
func SplitAuthors(raw string) []string {
	var names []string
	for _, name := range authorSeparators.Split(raw, -1) {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// CleanAbstract replaces markup with spaces and keeps the text.
func CleanAbstract(summary string) string {
	if summary == "" {
		return ""
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(summary))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(z.Text())
		default:
			b.WriteByte(' ')
		}
	}
}
