package authority

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"
)

// Set is an immutable collection of authority configurations.
type Set struct {
	byName map[string]*Config
	names  []string
}

// NewSet builds a Set. Names are matched case-insensitively; a later config
// with the same name replaces an earlier one.
func NewSet(configs ...*Config) *Set {
	s := &Set{byName: make(map[string]*Config, len(configs))}
	for _, c := range configs {
		s.byName[c.Name()] = c
	}
	for name := range s.byName {
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)
	return s
}

// Get returns the named authority.
func (s *Set) Get(name string) (*Config, error) {
	c, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownAuthority)
	}
	return c, nil
}

// Names returns the authority names in sorted order.
func (s *Set) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of authorities.
func (s *Set) Len() int { return len(s.names) }

// Source produces a complete authority Set.
type Source interface {
	Load(ctx context.Context) (*Set, error)
}

// Registry holds the current authority Set. Readers always observe a whole
// Set; Reload and Swap replace it atomically.
type Registry struct {
	current atomic.Pointer[Set]
	source  Source
}

// NewRegistry returns a Registry holding an empty Set. source may be nil
// when sets are only installed with Swap.
func NewRegistry(source Source) *Registry {
	r := &Registry{source: source}
	r.current.Store(NewSet())
	return r
}

// Current returns the active Set.
func (r *Registry) Current() *Set { return r.current.Load() }

// Get looks name up in the active Set.
func (r *Registry) Get(name string) (*Config, error) {
	return r.Current().Get(name)
}

// Swap installs s and returns the previous Set.
func (r *Registry) Swap(s *Set) *Set {
	if s == nil {
		s = NewSet()
	}
	return r.current.Swap(s)
}

// Reload loads a fresh Set from the source and swaps it in. On failure the
// active Set is left untouched.
func (r *Registry) Reload(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("reload: no source configured")
	}
	s, err := r.source.Load(ctx)
	if err != nil {
		log.Printf("authority reload failed, keeping %d authorities: %v", r.Current().Len(), err)
		return fmt.Errorf("reload: %w", err)
	}
	r.Swap(s)
	log.Printf("authority reload: %d authorities", s.Len())
	return nil
}
