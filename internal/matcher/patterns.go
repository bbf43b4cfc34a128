package matcher

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of compiled whitelist/mode pairs kept.
const DefaultCacheSize = 32

// Mode selects how whitelist terms are compiled.
type Mode string

const (
	ModeGeneral Mode = "general"
	ModeAuthor  Mode = "author"
)

const (
	wordChars    = `\p{L}\p{N}_`
	flexibleGap  = `[-\s]+`
	acronymLimit = 4
)

// Pattern is one compiled whitelist term.
type Pattern struct {
	Term          string
	Regexp        *regexp.Regexp
	CaseSensitive bool
}

// Compile builds whole-word patterns for the terms in order. In general mode
// short all-caps terms (MIT, SAR) are case sensitive and multi-word terms
// accept hyphens, spaces or newlines between words. Author mode compiles every
// term case-insensitively as written.
func Compile(terms []string, mode Mode) []Pattern {
	patterns := make([]Pattern, 0, len(terms))
	for _, term := range terms {
		normalized := Normalize(term)
		if strings.TrimSpace(normalized) == "" {
			continue
		}

		caseSensitive := false
		body := regexp.QuoteMeta(normalized)
		if mode != ModeAuthor {
			caseSensitive = isShortAcronym(term)
			if strings.Contains(term, " ") {
				parts := strings.Split(normalized, " ")
				for i, part := range parts {
					parts[i] = regexp.QuoteMeta(part)
				}
				body = strings.Join(parts, flexibleGap)
			}
		}

		first, _ := utf8.DecodeRuneInString(normalized)
		last, _ := utf8.DecodeLastRuneInString(normalized)
		source := boundaryBefore(first) + body + boundaryAfter(last)
		if !caseSensitive {
			source = "(?i)" + source
		}

		patterns = append(patterns, Pattern{
			Term:          term,
			Regexp:        regexp.MustCompile(source),
			CaseSensitive: caseSensitive,
		})
	}
	return patterns
}

// boundaryBefore and boundaryAfter emulate a Unicode-aware \b on either side
// of the term: a word character at the edge needs a non-word neighbour (or the
// text edge) and a non-word character at the edge needs a word neighbour.
func boundaryBefore(r rune) string {
	if isWordRune(r) {
		return `(?:^|[^` + wordChars + `])`
	}
	return `[` + wordChars + `]`
}

func boundaryAfter(r rune) string {
	if isWordRune(r) {
		return `(?:$|[^` + wordChars + `])`
	}
	return `[` + wordChars + `]`
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func isShortAcronym(term string) bool {
	if utf8.RuneCountInString(term) > acronymLimit {
		return false
	}
	cased := false
	for _, r := range term {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// Cache memoizes compiled patterns per (ordered term list, mode) with
// least-recently-used eviction. It is safe for concurrent use.
type Cache struct {
	entries *lru.Cache[string, []Pattern]
}

// NewCache creates a cache holding up to size whitelist/mode pairs.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, _ := lru.New[string, []Pattern](size)
	return &Cache{entries: entries}
}

// Patterns returns the compiled patterns, compiling them on a miss.
func (c *Cache) Patterns(terms []string, mode Mode) []Pattern {
	key := cacheKey(terms, mode)
	if patterns, ok := c.entries.Get(key); ok {
		return patterns
	}

	patterns := Compile(terms, mode)
	c.entries.Add(key, patterns)
	return patterns
}

// Len reports how many whitelist/mode pairs are cached.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func cacheKey(terms []string, mode Mode) string {
	var b strings.Builder
	b.WriteString(string(mode))
	for _, term := range terms {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(len(term)))
		b.WriteByte(':')
		b.WriteString(term)
	}
	return b.String()
}
