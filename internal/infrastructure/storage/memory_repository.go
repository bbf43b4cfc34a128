package storage

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"PaperScout/internal/domain"
	"PaperScout/internal/ports"
)

// MemoryRepository keeps papers in process memory. It backs runs without a
// configured database.
type MemoryRepository struct {
	mu     sync.RWMutex
	papers []domain.StoredPaper
	links  map[string]struct{}
	nextID int64
	now    func() time.Time
}

var (
	_ ports.PaperRepository = (*MemoryRepository)(nil)
	_ ports.PaperCatalog    = (*MemoryRepository)(nil)
)

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{links: map[string]struct{}{}, now: time.Now}
}

// ExistingLinks returns the subset of links already stored.
func (m *MemoryRepository) ExistingLinks(_ context.Context, links []string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]bool)
	for _, link := range links {
		if _, ok := m.links[link]; ok {
			result[link] = true
		}
	}
	return result, nil
}

// SavePapers stores the batch under one lock, skipping links already present.
func (m *MemoryRepository) SavePapers(_ context.Context, results []domain.MatchResult, scrapedDate string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inserted := make(map[string]bool, len(results))
	for _, result := range results {
		if _, ok := m.links[result.Link]; ok {
			continue
		}
		m.nextID++
		m.links[result.Link] = struct{}{}
		m.papers = append(m.papers, domain.StoredPaper{
			ID:              m.nextID,
			Title:           result.Title,
			Authors:         result.Authors,
			Link:            result.Link,
			PDFLink:         result.PDFLink,
			MatchType:       result.MatchType,
			MatchedTerms:    slices.Clone(result.MatchedTerms),
			PublicationDate: result.PublicationDate,
			ScrapedDate:     scrapedDate,
			CreatedAt:       m.now().UTC(),
		})
		inserted[result.Link] = true
	}
	return inserted, nil
}

// ListPapers mirrors the Postgres listing: newest scrape first, then by match
// rank, then newest insert.
func (m *MemoryRepository) ListPapers(_ context.Context, filter domain.PaperFilter) ([]domain.StoredPaper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Query))
	var out []domain.StoredPaper
	for _, p := range m.papers {
		if filter.MatchType != "" && !strings.Contains(p.MatchType, filter.MatchType) {
			continue
		}
		if filter.ScrapedDate != "" && p.ScrapedDate != filter.ScrapedDate {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		out = append(out, p)
	}

	slices.SortStableFunc(out, func(a, b domain.StoredPaper) int {
		if c := cmp.Compare(b.ScrapedDate, a.ScrapedDate); c != 0 {
			return c
		}
		if !filter.Recent {
			if c := cmp.Compare(domain.MatchRank(a.MatchType), domain.MatchRank(b.MatchType)); c != 0 {
				return c
			}
		}
		return cmp.Compare(b.ID, a.ID)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// ScrapedDates lists distinct scrape dates, newest first.
func (m *MemoryRepository) ScrapedDates(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dates := make([]string, 0)
	for _, p := range m.papers {
		if !slices.Contains(dates, p.ScrapedDate) {
			dates = append(dates, p.ScrapedDate)
		}
	}
	slices.Sort(dates)
	slices.Reverse(dates)
	return dates, nil
}

func matchesSearch(p domain.StoredPaper, search string) bool {
	return strings.Contains(strings.ToLower(p.Title), search) ||
		strings.Contains(strings.ToLower(p.Authors), search) ||
		strings.Contains(strings.ToLower(strings.Join(p.MatchedTerms, termsSeparator)), search)
}
