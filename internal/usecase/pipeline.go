package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"PaperScout/internal/domain"
	"PaperScout/internal/matcher"
	"PaperScout/internal/ports"
)

const (
	defaultWorkers      = 8
	defaultFetchTimeout = 30 * time.Second
)

// Settings are the read-only inputs of every run. LinesStart and LinesEnd
// are taken as given; an empty range disables affiliation matching.
type Settings struct {
	FeedURL          string
	Workers          int
	FetchTimeout     time.Duration
	LinesStart       int
	LinesEnd         int
	PatternCacheSize int
	Whitelists       domain.Whitelists
}

func (s Settings) withDefaults() Settings {
	if s.Workers <= 0 {
		s.Workers = defaultWorkers
	}
	if s.FetchTimeout <= 0 {
		s.FetchTimeout = defaultFetchTimeout
	}
	if s.PatternCacheSize <= 0 {
		s.PatternCacheSize = matcher.DefaultCacheSize
	}
	return s
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Feed       ports.FeedSource
	Documents  ports.DocumentSource
	Extractor  ports.TextExtractor
	Repository ports.PaperRepository
	Notifiers  []ports.Notifier
	Settings   Settings
	Logger     *slog.Logger
	Clock      func() time.Time
}

// Pipeline implements the scrape workflow: fetch the feed, match every entry
// on a bounded worker pool, then sort, dedupe and persist the matches.
type Pipeline struct {
	feed       ports.FeedSource
	documents  ports.DocumentSource
	extractor  ports.TextExtractor
	repository ports.PaperRepository
	notifiers  []ports.Notifier
	settings   Settings
	patterns   *matcher.Cache
	logger     *slog.Logger
	clock      func() time.Time
}

// NewPipeline constructs the orchestration component. The pattern cache lives
// as long as the pipeline so consecutive runs reuse compiled whitelists.
func NewPipeline(deps PipelineDeps) *Pipeline {
	settings := deps.Settings.withDefaults()
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Pipeline{
		feed:       deps.Feed,
		documents:  deps.Documents,
		extractor:  deps.Extractor,
		repository: deps.Repository,
		notifiers:  deps.Notifiers,
		settings:   settings,
		patterns:   matcher.NewCache(settings.PatternCacheSize),
		logger:     logger,
		clock:      clock,
	}
}

// Scrape runs one batch scrape and returns its summary. Only fatal failures
// (feed, persistence, cancellation) produce an error.
func (p *Pipeline) Scrape(ctx context.Context) (domain.RunSummary, error) {
	for event, err := range p.Stream(ctx) {
		if err != nil {
			return domain.RunSummary{}, err
		}
		if summary, ok := event.Data.(domain.RunSummary); ok && event.Name == EventDone {
			return summary, nil
		}
	}
	return domain.RunSummary{}, errors.New("scrape ended without summary")
}

// Stream runs one scrape lazily, yielding events as the run advances. The
// sequence is single use. It ends with a done event, or with a single non-nil
// error when the run fails. Breaking out of the loop cancels the run before
// anything is saved.
func (p *Pipeline) Stream(ctx context.Context) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		log := p.logger.With("run_id", uuid.NewString())

		if p.feed == nil {
			yield(Event{}, errors.New("feed source is not configured"))
			return
		}

		if !yield(statusEvent(PhaseFetching, fetchingMessage), nil) {
			return
		}
		entries, err := p.feed.FetchFeed(ctx, p.settings.FeedURL)
		if err != nil {
			yield(Event{}, fmt.Errorf("fetch feed: %w", err))
			return
		}
		total := len(entries)
		log.Info("feed fetched", "url", p.settings.FeedURL, "entries", total)

		if !yield(feedEvent(total), nil) {
			return
		}
		if !yield(statusEvent(PhaseProcessing, processingMessage(total)), nil) {
			return
		}

		proc := NewProcessor(p.documents, p.extractor, matcher.New(p.patterns), p.settings, log)
		results := make([]domain.MatchResult, 0)
		for c := range p.process(ctx, proc, entries, log) {
			if c.result != nil {
				results = append(results, *c.result)
			}
			log.Debug("paper processed", "processed", c.processed, "total", total, "matched", c.matched)
			if !yield(completionEvent(c, total), nil) {
				return
			}
		}
		if err := ctx.Err(); err != nil {
			yield(Event{}, fmt.Errorf("process entries: %w", err))
			return
		}

		if !yield(statusEvent(PhaseSaving, "Saving to database..."), nil) {
			return
		}
		summary, saved, err := p.finalize(ctx, results, total)
		if err != nil {
			yield(Event{}, err)
			return
		}
		p.notify(ctx, saved, log)

		log.Info("scrape complete",
			"new", summary.NewPapers,
			"duplicates", summary.DuplicatesSkipped,
			"matched", summary.TotalMatched,
			"entries", summary.TotalInFeed,
		)
		yield(doneEvent(summary), nil)
	}
}

type completion struct {
	processed int
	matched   int
	result    *domain.MatchResult
}

// process fans entries out to the worker pool and yields completions in the
// order workers finish. The results channel holds every entry, so workers
// never block when the consumer stops early.
func (p *Pipeline) process(ctx context.Context, proc *Processor, entries []domain.FeedEntry, log *slog.Logger) iter.Seq[completion] {
	return func(yield func(completion) bool) {
		jobs := make(chan domain.FeedEntry, len(entries))
		for _, entry := range entries {
			jobs <- entry
		}
		close(jobs)

		results := make(chan *domain.MatchResult, len(entries))
		var wg sync.WaitGroup
		for i := 0; i < min(p.settings.Workers, len(entries)); i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for entry := range jobs {
					if ctx.Err() != nil {
						return
					}
					results <- processSafely(ctx, proc, entry, log)
				}
			}()
		}
		go func() {
			wg.Wait()
			close(results)
		}()

		var processed, matched int
		for result := range results {
			processed++
			if result != nil {
				matched++
			}
			if !yield(completion{processed: processed, matched: matched, result: result}) {
				return
			}
		}
	}
}

func processSafely(ctx context.Context, proc *Processor, entry domain.FeedEntry, log *slog.Logger) (result *domain.MatchResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("unhandled worker failure", "link", entry.Link, "panic", r)
			result = nil
		}
	}()

	if res, ok := proc.Process(ctx, entry); ok {
		return &res
	}
	return nil
}

func (p *Pipeline) notify(ctx context.Context, saved []domain.MatchResult, log *slog.Logger) {
	if len(saved) == 0 {
		return
	}
	for _, n := range p.notifiers {
		if n == nil {
			continue
		}
		if err := n.NotifyNewPapers(ctx, saved); err != nil {
			log.Warn("notify new papers", "papers", len(saved), "error", err)
		}
	}
}
