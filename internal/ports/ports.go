package ports

import (
	"context"
	"time"

	"PaperScout/internal/domain"
)

// FeedSource pulls the announcement feed and serializes it into entries.
// A failure here is fatal for the run.
type FeedSource interface {
	FetchFeed(ctx context.Context, url string) ([]domain.FeedEntry, error)
}

// DocumentSource downloads a paper's PDF. Failures are per item.
type DocumentSource interface {
	FetchDocument(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
}

// TextExtractor reads the text lines of a document's first page.
type TextExtractor interface {
	FirstPageLines(document []byte) ([]string, error)
}

// PaperRepository persists matched papers keyed by link.
type PaperRepository interface {
	ExistingLinks(ctx context.Context, links []string) (map[string]bool, error)
	// SavePapers stores the batch as one unit: on error nothing is stored.
	// It returns the links actually inserted; a link already stored is
	// skipped and left out.
	SavePapers(ctx context.Context, results []domain.MatchResult, scrapedDate string) (map[string]bool, error)
}

// PaperCatalog reads stored papers back for listings and reports.
type PaperCatalog interface {
	ListPapers(ctx context.Context, filter domain.PaperFilter) ([]domain.StoredPaper, error)
	ScrapedDates(ctx context.Context) ([]string, error)
}

// Notifier announces newly persisted papers to an outbound channel.
type Notifier interface {
	NotifyNewPapers(ctx context.Context, papers []domain.MatchResult) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
