package usecase

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"PaperScout/internal/domain"
	"PaperScout/internal/matcher"
	"PaperScout/internal/ports"
)

// Processor turns one feed entry into a match result, or nothing.
type Processor struct {
	documents  ports.DocumentSource
	extractor  ports.TextExtractor
	matcher    *matcher.Matcher
	whitelists domain.Whitelists
	timeout    time.Duration
	linesStart int
	linesEnd   int
	logger     *slog.Logger
}

// NewProcessor binds the collaborators and read-only settings of one run.
func NewProcessor(docs ports.DocumentSource, extractor ports.TextExtractor, m *matcher.Matcher, settings Settings, logger *slog.Logger) *Processor {
	return &Processor{
		documents:  docs,
		extractor:  extractor,
		matcher:    m,
		whitelists: settings.Whitelists,
		timeout:    settings.FetchTimeout,
		linesStart: settings.LinesStart,
		linesEnd:   settings.LinesEnd,
		logger:     logger,
	}
}

// Process downloads the entry's PDF, matches every category and reports
// whether anything matched. Fetch and extraction failures are logged and
// treated as no match.
func (p *Processor) Process(ctx context.Context, entry domain.FeedEntry) (domain.MatchResult, bool) {
	pdfURL := PDFLink(entry.Link)
	published := PublicationDate(entry.PublishedRaw)

	document, err := p.documents.FetchDocument(ctx, pdfURL, p.timeout)
	if err != nil {
		p.logger.Error("fetch pdf", "link", entry.Link, "error", err)
		return domain.MatchResult{}, false
	}

	affiliations := p.affiliationText(entry.Link, document)

	categories := map[domain.MatchType][]string{
		domain.MatchAuthor:      p.matcher.MatchAuthors(entry.AuthorNames, p.whitelists.Authors),
		domain.MatchAffiliation: p.matcher.MatchGeneral([]string{affiliations}, p.whitelists.Affiliations),
		domain.MatchTitle:       p.matcher.MatchGeneral([]string{entry.Title, entry.Abstract}, p.whitelists.Titles),
	}

	var (
		types []domain.MatchType
		terms []string
	)
	for _, t := range domain.MatchTypes {
		if len(categories[t]) == 0 {
			continue
		}
		types = append(types, t)
		terms = append(terms, categories[t]...)
	}
	if len(types) == 0 {
		return domain.MatchResult{}, false
	}

	return domain.MatchResult{
		Title:           entry.Title,
		Authors:         entry.RawAuthors,
		Link:            entry.Link,
		PDFLink:         pdfURL,
		MatchedTerms:    matcher.DedupeTerms(terms),
		MatchTypes:      types,
		MatchType:       domain.JoinMatchTypes(types),
		MatchPriority:   types[0].Priority(),
		PublicationDate: published,
	}, true
}

func (p *Processor) affiliationText(link string, document []byte) string {
	if p.extractor == nil {
		return ""
	}
	lines, err := p.extractor.FirstPageLines(document)
	if err != nil {
		p.logger.Debug("extract first page", "link", link, "error", err)
		return ""
	}
	return strings.Join(sliceLines(lines, p.linesStart, p.linesEnd), "\n")
}

// sliceLines returns lines[start:end] clamped to the available lines.
func sliceLines(lines []string, start, end int) []string {
	start = clamp(start, 0, len(lines))
	end = clamp(end, 0, len(lines))
	if start >= end {
		return nil
	}
	return lines[start:end]
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// PDFLink maps an abstract page link to its PDF link.
func PDFLink(link string) string {
	return strings.ReplaceAll(link, "/abs/", "/pdf/")
}

// PublicationDate formats an RFC 5322 date as YYYY-MM-DD, or DateUnknown.
func PublicationDate(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return domain.DateUnknown
	}
	parsed, err := mail.ParseDate(raw)
	if err != nil {
		return domain.DateUnknown
	}
	return parsed.Format("2006-01-02")
}
