package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"PaperScout/internal/config"
	"PaperScout/internal/domain"
	"PaperScout/internal/httpapi"
	"PaperScout/internal/infrastructure/fetch"
	"PaperScout/internal/infrastructure/kafkapub"
	"PaperScout/internal/infrastructure/parser"
	"PaperScout/internal/infrastructure/pdftext"
	"PaperScout/internal/infrastructure/scheduler"
	"PaperScout/internal/infrastructure/storage"
	"PaperScout/internal/infrastructure/telegram"
	"PaperScout/internal/logging"
	"PaperScout/internal/ports"
	"PaperScout/internal/report"
	"PaperScout/internal/scanner"
	"PaperScout/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

type paperStore interface {
	ports.PaperRepository
	ports.PaperCatalog
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	log      *slog.Logger
	store    paperStore
	pipeline *usecase.Pipeline
	closers  []func() error
}

// New builds the application. An empty database DSN keeps papers in memory
// for the lifetime of the process.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, nil)
	}
	a := &Application{cfg: cfg, log: baseLogger}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.store = store

	registry := scanner.NewRegistry(parser.NewRSSScanner(nil), parser.NewArxivScanner(nil))
	source := parser.NewStrategySource(registry, cfg.Scraper.Scanner, cfg.Scraper.Options,
		logging.Component(baseLogger, "source"))

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Feed:       source,
		Documents:  fetch.NewHTTPDocuments(nil),
		Extractor:  pdftext.Extractor{},
		Repository: store,
		Notifiers:  a.notifiers(),
		Settings: usecase.Settings{
			FeedURL:          cfg.Scraper.FeedURL,
			Workers:          cfg.Scraper.MaxWorkers,
			FetchTimeout:     cfg.Scraper.FetchTimeout.Std(),
			LinesStart:       cfg.Scraper.PDFLinesStart,
			LinesEnd:         cfg.Scraper.PDFLinesEnd,
			PatternCacheSize: cfg.Scraper.PatternCacheSize,
			Whitelists:       cfg.Whitelists,
		},
		Logger: logging.Component(baseLogger, "pipeline"),
	})
	return a, nil
}

func (a *Application) openStore(ctx context.Context) (paperStore, error) {
	if a.cfg.Database.DSN == "" {
		a.log.Info("no database configured, papers are kept in memory")
		return storage.NewMemoryRepository(), nil
	}

	db, err := sql.Open("postgres", a.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	return storage.NewPostgresRepository(db), nil
}

func (a *Application) notifiers() []ports.Notifier {
	var out []ports.Notifier
	if tg := a.cfg.Notifications.Telegram; tg.Enabled() {
		out = append(out, telegram.NewNotifier(tg.BotToken, tg.ChatID))
	}
	if k := a.cfg.Notifications.Kafka; k.Enabled() {
		pub := kafkapub.NewPublisher(k.Brokers, k.Topic)
		a.closers = append(a.closers, pub.Close)
		out = append(out, pub)
	}
	return out
}

// Scrape runs one batch scrape and returns its summary together with the
// latest stored papers, totalMatched of them.
func (a *Application) Scrape(ctx context.Context) (domain.RunSummary, []domain.StoredPaper, error) {
	summary, err := a.pipeline.Scrape(ctx)
	if err != nil {
		return domain.RunSummary{}, nil, err
	}
	if summary.TotalMatched == 0 {
		return summary, nil, nil
	}

	latest, err := a.store.ListPapers(ctx, domain.PaperFilter{Recent: true, Limit: summary.TotalMatched})
	if err != nil {
		return summary, nil, fmt.Errorf("load latest papers: %w", err)
	}
	return summary, latest, nil
}

// Report writes the stored papers matching filter to a DOCX file and returns
// how many were written.
func (a *Application) Report(ctx context.Context, path string, filter domain.PaperFilter) (int, error) {
	papers, err := a.store.ListPapers(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("list papers: %w", err)
	}
	if err := report.WritePapers(path, papers, time.Now()); err != nil {
		return 0, err
	}
	return len(papers), nil
}

// Serve runs the HTTP API, and the cron scheduler when configured, until ctx
// is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if expr := a.cfg.Scheduler.CronExpression; expr != "" {
		driver, err := scheduler.NewCronScheduler(expr, a.cfg.Scheduler.Timezone)
		if err != nil {
			return err
		}
		sched := usecase.NewScheduler(driver, a.pipeline, logging.Component(a.log, "scheduler"))
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = sched.Stop(stopCtx)
		}()
		a.log.Info("scheduled scrapes enabled", "cron", expr, "timezone", a.cfg.Scheduler.Timezone, "next", driver.Next())
	}

	api := httpapi.NewServer(a.pipeline, a.store, logging.Component(a.log, "http"))
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases the database and broker connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
