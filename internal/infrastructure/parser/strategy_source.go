package parser

import (
	"context"
	"fmt"
	"log/slog"

	"PaperScout/internal/domain"
	"PaperScout/internal/ports"
	"PaperScout/internal/scanner"
)

// StrategySource implements FeedSource via a registered scanner strategy.
type StrategySource struct {
	registry *scanner.Registry
	name     string
	options  map[string]string
	logger   *slog.Logger
}

var _ ports.FeedSource = (*StrategySource)(nil)

// NewStrategySource binds the scanner named in config with its options.
func NewStrategySource(reg *scanner.Registry, name string, options map[string]string, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		name:     name,
		options:  options,
		logger:   log,
	}
}

// FetchFeed resolves the configured scanner and reads the feed at url.
func (s *StrategySource) FetchFeed(ctx context.Context, url string) ([]domain.FeedEntry, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	strategy, err := s.registry.Resolve(s.name)
	if err != nil {
		return nil, err
	}

	s.debug("scan feed", "scanner", s.name, "url", url)
	entries, err := strategy.Scan(ctx, scanner.Request{URL: url, Options: s.options})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.name, err)
	}

	s.debug("feed scanned", "scanner", s.name, "entries", len(entries))
	return entries, nil
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
