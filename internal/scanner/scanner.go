package scanner

import (
	"context"
	"fmt"
	"sort"

	"PaperScout/internal/domain"
)

// Request carries all parameters required to read one feed.
type Request struct {
	URL     string
	Options map[string]string
}

// Option returns the named option or fallback when it is unset.
func (r Request) Option(name, fallback string) string {
	if v, ok := r.Options[name]; ok && v != "" {
		return v
	}
	return fallback
}

// Scanner captures a single feed strategy (RSS, listing pages, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.FeedEntry, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds a registry holding the given scanners.
func NewRegistry(scanners ...Scanner) *Registry {
	r := &Registry{scanners: map[string]Scanner{}}
	for _, s := range scanners {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// Names lists the registered scanner names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
