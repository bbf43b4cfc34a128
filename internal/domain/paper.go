package domain

import (
	"strings"
	"time"
)

// DateUnknown replaces publication dates that are missing or unparseable.
const DateUnknown = "Date Unknown"

// MatchType names a whitelist category a paper can match on.
type MatchType string

const (
	MatchAuthor      MatchType = "Author"
	MatchAffiliation MatchType = "Affiliation"
	MatchTitle       MatchType = "Title"
)

// MatchTypes lists categories in priority order. Matched terms and compound
// match types are always assembled in this order.
var MatchTypes = []MatchType{MatchAuthor, MatchAffiliation, MatchTitle}

// Priority returns the sort rank of the category (1 is most important).
func (t MatchType) Priority() int {
	switch t {
	case MatchAuthor:
		return 1
	case MatchAffiliation:
		return 2
	default:
		return 3
	}
}

// JoinMatchTypes renders matched categories for display, e.g. "Author + Title".
func JoinMatchTypes(types []MatchType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, " + ")
}

// Whitelists holds the raw terms of every category for one run.
type Whitelists struct {
	Titles       []string `yaml:"titles"`
	Authors      []string `yaml:"authors"`
	Affiliations []string `yaml:"affiliations"`
}

// FeedEntry is a plain snapshot of one announced paper. It carries no live
// handles so it can be handed to any worker.
type FeedEntry struct {
	Link         string
	Title        string
	RawAuthors   string
	AuthorNames  []string
	Abstract     string
	PublishedRaw string
}

// MatchResult describes a paper that matched at least one whitelist.
type MatchResult struct {
	Title           string      `json:"title"`
	Authors         string      `json:"authors"`
	Link            string      `json:"link"`
	PDFLink         string      `json:"pdf_link"`
	MatchedTerms    []string    `json:"matched_terms"`
	MatchTypes      []MatchType `json:"-"`
	MatchType       string      `json:"match_type"`
	MatchPriority   int         `json:"match_priority"`
	PublicationDate string      `json:"publication_date"`
}

// RunSummary reports the counters of one finished run.
type RunSummary struct {
	NewPapers         int `json:"new_papers"`
	DuplicatesSkipped int `json:"duplicates_skipped"`
	TotalMatched      int `json:"total_matched"`
	TotalInFeed       int `json:"total_in_feed"`
}

// StoredPaper is a persisted match as read back from the repository.
type StoredPaper struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Authors         string    `json:"authors"`
	Link            string    `json:"link"`
	PDFLink         string    `json:"pdf_link"`
	MatchType       string    `json:"match_type"`
	MatchedTerms    []string  `json:"matched_terms"`
	PublicationDate string    `json:"publication_date"`
	ScrapedDate     string    `json:"scraped_date"`
	CreatedAt       time.Time `json:"created_at"`
}

// PaperFilter narrows stored paper listings. Zero values disable a filter.
type PaperFilter struct {
	MatchType   string
	ScrapedDate string
	Query       string
	Limit       int
	// Recent orders by scrape date then insertion, newest first, ignoring
	// the match rank.
	Recent bool
}

// TypeCounts counts stored papers per category; compound match types count
// toward each of their parts.
func TypeCounts(papers []StoredPaper) map[MatchType]int {
	counts := make(map[MatchType]int, len(MatchTypes))
	for _, t := range MatchTypes {
		counts[t] = 0
	}
	for _, p := range papers {
		for _, t := range MatchTypes {
			if strings.Contains(p.MatchType, string(t)) {
				counts[t]++
			}
		}
	}
	return counts
}

// MatchRank orders a stored match type the way listings do: anything
// containing Author first, then Affiliation, then the rest.
func MatchRank(matchType string) int {
	switch {
	case strings.Contains(matchType, string(MatchAuthor)):
		return 1
	case strings.Contains(matchType, string(MatchAffiliation)):
		return 2
	default:
		return 3
	}
}
