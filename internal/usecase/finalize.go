package usecase

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"PaperScout/internal/domain"
)

// sortResults orders matches by priority, then by the publication date
// string. The date compare is bytewise, so DateUnknown sorts after any
// YYYY-MM-DD date.
func sortResults(results []domain.MatchResult) {
	slices.SortStableFunc(results, func(a, b domain.MatchResult) int {
		if c := cmp.Compare(a.MatchPriority, b.MatchPriority); c != 0 {
			return c
		}
		return cmp.Compare(a.PublicationDate, b.PublicationDate)
	})
}

// finalize sorts the matches, skips links already stored (or repeated within
// the run) and persists the rest as one batch. It returns the summary and the
// papers that were actually inserted.
func (p *Pipeline) finalize(ctx context.Context, results []domain.MatchResult, totalInFeed int) (domain.RunSummary, []domain.MatchResult, error) {
	sortResults(results)

	summary := domain.RunSummary{
		TotalMatched: len(results),
		TotalInFeed:  totalInFeed,
	}

	existing := map[string]bool{}
	if p.repository != nil && len(results) > 0 {
		links := make([]string, len(results))
		for i, r := range results {
			links[i] = r.Link
		}

		var err error
		existing, err = p.repository.ExistingLinks(ctx, links)
		if err != nil {
			return domain.RunSummary{}, nil, fmt.Errorf("load existing links: %w", err)
		}
	}

	seen := make(map[string]bool, len(results))
	candidates := make([]domain.MatchResult, 0, len(results))
	for _, result := range results {
		if existing[result.Link] || seen[result.Link] {
			summary.DuplicatesSkipped++
			continue
		}
		seen[result.Link] = true
		candidates = append(candidates, result)
	}

	inserted := seen
	if p.repository != nil && len(candidates) > 0 {
		var err error
		inserted, err = p.repository.SavePapers(ctx, candidates, p.clock().Format("2006-01-02"))
		if err != nil {
			return domain.RunSummary{}, nil, fmt.Errorf("persist papers: %w", err)
		}
	}

	// A link stored by a concurrent run between the lookup and the insert
	// is not new for this run.
	saved := make([]domain.MatchResult, 0, len(candidates))
	for _, result := range candidates {
		if !inserted[result.Link] {
			summary.DuplicatesSkipped++
			continue
		}
		saved = append(saved, result)
	}
	summary.NewPapers = len(saved)

	return summary, saved, nil
}
