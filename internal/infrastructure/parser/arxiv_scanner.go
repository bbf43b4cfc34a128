package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PaperScout/internal/domain"
	"PaperScout/internal/scanner"
)

const (
	arxivBaseURL    = "https://arxiv.org"
	defaultPageSize = 200
	defaultMaxPages = 10
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ArxivScanner crawls arXiv listing pages (/list/<category>/new and friends).
type ArxivScanner struct {
	client *http.Client
}

var _ scanner.Scanner = (*ArxivScanner)(nil)

// NewArxivScanner wires an HTTP client.
func NewArxivScanner(client *http.Client) *ArxivScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ArxivScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (a *ArxivScanner) Name() string {
	return "listing"
}

// Scan pages through the listing at req.URL until a short page or the
// maxPages option is reached. Options: pageSize, maxPages.
func (a *ArxivScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.FeedEntry, error) {
	pageSize, err := intOption(req, "pageSize", defaultPageSize)
	if err != nil {
		return nil, err
	}
	maxPages, err := intOption(req, "maxPages", defaultMaxPages)
	if err != nil {
		return nil, err
	}

	results := make([]domain.FeedEntry, 0)
	seen := map[string]struct{}{}

	for page, skip := 0, 0; page < maxPages; page, skip = page+1, skip+pageSize {
		pageURL, err := buildPageURL(req.URL, skip, pageSize)
		if err != nil {
			return nil, err
		}

		doc, err := a.fetchDocument(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("listing page %d: %w", page, err)
		}

		entries := extractEntries(doc)
		for _, entry := range entries {
			if _, ok := seen[entry.Link]; ok {
				continue
			}
			seen[entry.Link] = struct{}{}
			results = append(results, entry)
		}

		if len(entries) < pageSize {
			break
		}
	}

	return results, nil
}

func intOption(req scanner.Request, name string, fallback int) (int, error) {
	raw := req.Option(name, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("option %s must be a positive integer, got %q", name, raw)
	}
	return v, nil
}

func (a *ArxivScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractEntries(doc *goquery.Document) []domain.FeedEntry {
	var collected []domain.FeedEntry
	doc.Find("dl > dt").Each(func(_ int, dt *goquery.Selection) {
		if entry, ok := parseEntry(dt, dt.Next()); ok {
			collected = append(collected, entry)
		}
	})
	return collected
}

func parseEntry(dt, dd *goquery.Selection) (domain.FeedEntry, bool) {
	href, _ := dt.Find(`a[href*="/abs/"]`).First().Attr("href")
	if href == "" {
		return domain.FeedEntry{}, false
	}
	if !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))

	var names []string
	dd.Find(".list-authors a").Each(func(_ int, a *goquery.Selection) {
		if name := strings.TrimSpace(a.Text()); name != "" {
			names = append(names, name)
		}
	})

	summary := dd.Find("p.mathjax").First().Text()
	summary = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(summary), "Abstract:"))

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}

	var published string
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			published = parsed.Format(time.RFC1123Z)
		}
	}

	return domain.FeedEntry{
		Link:         href,
		Title:        title,
		RawAuthors:   strings.Join(names, ", "),
		AuthorNames:  names,
		Abstract:     summary,
		PublishedRaw: published,
	}, true
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
