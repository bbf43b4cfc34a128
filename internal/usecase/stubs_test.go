package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"PaperScout/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubFeed struct {
	entries []domain.FeedEntry
	err     error
}

func (s *stubFeed) FetchFeed(context.Context, string) ([]domain.FeedEntry, error) {
	return s.entries, s.err
}

// stubDocuments returns the requested URL as the document body so the
// extractor stub can key its lines on it.
type stubDocuments struct {
	failing map[string]bool
	slow    map[string]time.Duration
	panics  map[string]bool

	mu       sync.Mutex
	inFlight int
	peak     int
}

func (s *stubDocuments) FetchDocument(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	s.mu.Lock()
	s.inFlight++
	s.peak = max(s.peak, s.inFlight)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.panics[url] {
		panic("corrupt response")
	}
	if s.failing[url] {
		return nil, errors.New("unexpected status 404 Not Found")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	select {
	case <-time.After(s.slow[url] + time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []byte(url), nil
}

func (s *stubDocuments) peakInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}

type stubExtractor struct {
	lines map[string][]string
}

func (s *stubExtractor) FirstPageLines(document []byte) ([]string, error) {
	lines, ok := s.lines[string(document)]
	if !ok {
		return nil, errors.New("no pages")
	}
	return lines, nil
}

// stubRepository applies each batch atomically like a transaction. failAt is
// the 1-based position in a batch whose insert fails; taken holds links a
// concurrent run stores between the lookup and the insert.
type stubRepository struct {
	existing map[string]bool
	taken    map[string]bool
	saved    []domain.MatchResult
	dates    []string
	err      error
	failAt   int
	saveErr  error
}

func (s *stubRepository) ExistingLinks(_ context.Context, links []string) (map[string]bool, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := map[string]bool{}
	for _, link := range links {
		if s.existing[link] {
			out[link] = true
		}
	}
	return out, nil
}

func (s *stubRepository) SavePapers(_ context.Context, results []domain.MatchResult, scrapedDate string) (map[string]bool, error) {
	var (
		batch    []domain.MatchResult
		inserted = map[string]bool{}
	)
	for i, result := range results {
		if s.failAt == i+1 {
			return nil, s.saveErr
		}
		if s.taken[result.Link] {
			continue
		}
		batch = append(batch, result)
		inserted[result.Link] = true
	}
	for _, result := range batch {
		s.saved = append(s.saved, result)
		s.dates = append(s.dates, scrapedDate)
	}
	return inserted, nil
}

type stubNotifier struct {
	papers []domain.MatchResult
	err    error
}

func (s *stubNotifier) NotifyNewPapers(_ context.Context, papers []domain.MatchResult) error {
	s.papers = append(s.papers, papers...)
	return s.err
}
