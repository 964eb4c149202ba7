// Package mapper extracts per-subject value maps from a graph.
package mapper

import (
	"fmt"
	"sort"

	"github.com/agentic-research/authq/internal/graph"
	"github.com/agentic-research/authq/internal/ldpath"
)

// Standard field names.
const (
	FieldURI      = "uri"
	FieldID       = "id"
	FieldLabel    = "label"
	FieldAltLabel = "altlabel"
	FieldBroader  = "broader"
	FieldNarrower = "narrower"
	FieldSameAs   = "sameas"
	FieldSort     = "sort"
	FieldContext  = "context"
)

// SourceKind tags the variant of a FieldSource.
type SourceKind int

const (
	// SubjectIdentifier yields the subject itself.
	SubjectIdentifier SourceKind = iota
	// Predicate yields the objects of (subject, predicate, *).
	Predicate
	// Path yields the values reached by a path expression.
	Path
)

// FieldSource says where a field's values come from.
type FieldSource struct {
	Kind      SourceKind
	Predicate string            // Predicate
	Expr      string            // Path
	Prefixes  map[string]string // Path
}

// FromSubject returns the "use the subject identifier" source.
func FromSubject() FieldSource { return FieldSource{Kind: SubjectIdentifier} }

// FromPredicate returns a direct predicate lookup.
func FromPredicate(uri string) FieldSource { return FieldSource{Kind: Predicate, Predicate: uri} }

// FromPath returns a path-expression lookup.
func FromPath(expr string, prefixes map[string]string) FieldSource {
	return FieldSource{Kind: Path, Expr: expr, Prefixes: prefixes}
}

func (s FieldSource) String() string {
	switch s.Kind {
	case SubjectIdentifier:
		return "subject"
	case Predicate:
		return "<" + s.Predicate + ">"
	default:
		return s.Expr
	}
}

// ValueMap maps field names to the values found for one subject.
type ValueMap map[string][]graph.Term

// First returns the first value of field, if any.
func (vm ValueMap) First(field string) (graph.Term, bool) {
	vs := vm[field]
	if len(vs) == 0 {
		return graph.Term{}, false
	}
	return vs[0], true
}

// Strings returns the lexical values of field.
func (vm ValueMap) Strings(field string) []string {
	vs := vm[field]
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Value
	}
	return out
}

// Finisher post-processes a completed ValueMap. It runs exactly once per
// Map call, after every configured field has been populated.
type Finisher func(subject graph.Term, vm ValueMap) ValueMap

// Mapper extracts ValueMaps. It holds only a compiled-expression cache and is
// safe for concurrent use.
type Mapper struct {
	paths *ldpath.Cache
}

// New returns a Mapper backed by cache. A nil cache gets a default one.
func New(cache *ldpath.Cache) *Mapper {
	if cache == nil {
		cache, _ = ldpath.NewCache(0)
	}
	return &Mapper{paths: cache}
}

// Values returns the values of one source for subject. A path that does not
// parse is returned as an error; a source that matches nothing yields nil.
func (m *Mapper) Values(g graph.Graph, subject graph.Term, src FieldSource) ([]graph.Term, error) {
	switch src.Kind {
	case SubjectIdentifier:
		return []graph.Term{subject}, nil
	case Predicate:
		return graph.Objects(g, subject, src.Predicate), nil
	case Path:
		e, err := m.paths.Compile(src.Expr, src.Prefixes)
		if err != nil {
			return nil, err
		}
		return e.Evaluate(g, subject), nil
	default:
		return nil, fmt.Errorf("unknown source kind %d", src.Kind)
	}
}

// Map builds the ValueMap of subject for fields. Every declared field is
// present in the result, with an empty list when nothing matched. finish, if
// non-nil, runs once on the completed map.
func (m *Mapper) Map(g graph.Graph, subject graph.Term, fields map[string]FieldSource, finish Finisher) (ValueMap, error) {
	vm := make(ValueMap, len(fields))
	for _, name := range sortedNames(fields) {
		src := fields[name]
		vs, err := m.Values(g, subject, src)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		if vs == nil {
			vs = []graph.Term{}
		}
		vm[name] = vs
	}
	if finish != nil {
		vm = finish(subject, vm)
	}
	return vm, nil
}

// Validate compiles every path source in fields so configuration errors
// surface at load time.
func (m *Mapper) Validate(fields map[string]FieldSource) error {
	for _, name := range sortedNames(fields) {
		src := fields[name]
		if src.Kind != Path {
			continue
		}
		if _, err := m.paths.Compile(src.Expr, src.Prefixes); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
	}
	return nil
}

func sortedNames(fields map[string]FieldSource) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
