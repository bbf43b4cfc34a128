package matcher

import "strings"

// Matcher tests candidate texts against whitelists using a shared pattern cache.
type Matcher struct {
	cache *Cache
}

// New wires a matcher to its pattern cache; a nil cache gets a default one.
func New(cache *Cache) *Matcher {
	if cache == nil {
		cache = NewCache(DefaultCacheSize)
	}
	return &Matcher{cache: cache}
}

// MatchGeneral returns the whitelist terms found in any of the texts, in
// whitelist order and without duplicates.
func (m *Matcher) MatchGeneral(texts []string, whitelist []string) []string {
	candidates := make([]string, 0, len(texts))
	for _, text := range texts {
		if text == "" {
			continue
		}
		candidates = append(candidates, Normalize(text))
	}
	return matchAny(m.cache.Patterns(whitelist, ModeGeneral), candidates)
}

// MatchAuthors returns the whitelisted author terms found in the author names.
func (m *Matcher) MatchAuthors(names []string, whitelist []string) []string {
	candidates := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		candidates = append(candidates, Normalize(strings.TrimSpace(name)))
	}
	return matchAny(m.cache.Patterns(whitelist, ModeAuthor), candidates)
}

func matchAny(patterns []Pattern, candidates []string) []string {
	var matched []string
	for _, p := range patterns {
		for _, text := range candidates {
			if p.Regexp.MatchString(text) {
				matched = append(matched, p.Term)
				break
			}
		}
	}
	return DedupeTerms(matched)
}

// DedupeTerms drops repeated terms, keeping the first occurrence.
func DedupeTerms(terms []string) []string {
	if len(terms) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}
