package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"PaperScout/internal/app"
	"PaperScout/internal/config"
	"PaperScout/internal/domain"
	"PaperScout/internal/logging"
)

const usage = `usage: paperscout [command] [flags]

commands:
  scrape   run one scrape and print the matched papers (default)
  serve    run the HTTP API and scheduled scrapes
  report   write stored papers to a DOCX file
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("load .env", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("paperscout stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	command := "scrape"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}

	switch command {
	case "scrape", "serve", "report":
	case "help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", command)
	}

	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	out := fs.String("out", "papers_report.docx", "report: output DOCX path")
	matchType := fs.String("match-type", "", "report: only papers whose match type contains this value")
	date := fs.String("date", "", "report: only papers scraped on this YYYY-MM-DD date")
	query := fs.String("q", "", "report: search title, authors and matched terms")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, os.Stderr)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close application", "error", err)
		}
	}()

	switch command {
	case "serve":
		return application.Serve(ctx)
	case "report":
		n, err := application.Report(ctx, *out, domain.PaperFilter{
			MatchType:   *matchType,
			ScrapedDate: *date,
			Query:       *query,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %d papers to %s\n", n, *out)
		return nil
	default:
		summary, latest, err := application.Scrape(ctx)
		if err != nil {
			return err
		}
		printSummary(stdout, summary)
		for i, p := range latest {
			printPaper(stdout, i+1, p)
		}
		return nil
	}
}
