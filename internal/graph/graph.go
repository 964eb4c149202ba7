// Package graph models the read-only RDF graphs the query pipeline consumes.
//
// The fetch/parse collaborators produce a Graph; everything downstream only
// needs three capabilities: list subjects, list the statements of one subject
// (optionally narrowed to a predicate), and tell blank nodes apart.
package graph

import (
	"errors"
	"sync"

	"github.com/RoaringBitmap/roaring"
)

var ErrNotFound = errors.New("not found")

// Graph is the capability interface consumed by the mapper and assembler.
// Implementations must return statements in their native order and must be
// safe for concurrent reads.
type Graph interface {
	// Subjects returns every distinct subject, in first-appearance order.
	Subjects() []Term
	// Statements returns the statements about subject. An empty predicate
	// matches any predicate.
	Statements(subject Term, predicate string) []Statement
	// IsBlank reports whether t is an anonymous node.
	IsBlank(t Term) bool
}

// ReverseGraph is implemented by graphs that index statements by object.
// Path expressions use it for ^predicate steps; other graphs fall back to a scan.
type ReverseGraph interface {
	Graph
	// Referrers returns the subjects of statements (s, predicate, object),
	// in statement order.
	Referrers(object Term, predicate string) []Term
}

// Objects returns the objects of (subject, predicate, *) in statement order.
func Objects(g Graph, subject Term, predicate string) []Term {
	stmts := g.Statements(subject, predicate)
	if len(stmts) == 0 {
		return nil
	}
	out := make([]Term, len(stmts))
	for i, st := range stmts {
		out[i] = st.Object
	}
	return out
}

// Referrers returns the subjects pointing at object through predicate.
func Referrers(g Graph, object Term, predicate string) []Term {
	if rg, ok := g.(ReverseGraph); ok {
		return rg.Referrers(object, predicate)
	}
	var out []Term
	for _, s := range g.Subjects() {
		for _, st := range g.Statements(s, predicate) {
			if st.Object == object {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// HasSubject reports whether any statement has subject as its subject.
func HasSubject(g Graph, subject Term) bool {
	return len(g.Statements(subject, "")) > 0
}

// -----------------------------------------------------------------------------
// In-memory graph
// -----------------------------------------------------------------------------

// MemoryGraph is an insertion-ordered set of statements.
// Per-subject and per-object roaring bitmaps over statement positions keep
// lookups proportional to the result size while preserving native order.
type MemoryGraph struct {
	mu         sync.RWMutex
	statements []Statement
	seen       map[Statement]struct{}
	subjects   []Term
	bySubject  map[Term]*roaring.Bitmap
	byObject   map[Term]*roaring.Bitmap
}

// NewMemoryGraph returns an empty graph.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{
		seen:      make(map[Statement]struct{}),
		bySubject: make(map[Term]*roaring.Bitmap),
		byObject:  make(map[Term]*roaring.Bitmap),
	}
}

// FromStatements builds a graph from stmts.
func FromStatements(stmts ...Statement) *MemoryGraph {
	g := NewMemoryGraph()
	for _, st := range stmts {
		g.Add(st)
	}
	return g
}

// Add appends st. Adding a statement already present is a no-op.
// It reports whether the statement was new.
func (g *MemoryGraph) Add(st Statement) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, dup := g.seen[st]; dup {
		return false
	}
	g.seen[st] = struct{}{}
	pos := uint32(len(g.statements))
	g.statements = append(g.statements, st)

	bm, ok := g.bySubject[st.Subject]
	if !ok {
		bm = roaring.New()
		g.bySubject[st.Subject] = bm
		g.subjects = append(g.subjects, st.Subject)
	}
	bm.Add(pos)

	om, ok := g.byObject[st.Object]
	if !ok {
		om = roaring.New()
		g.byObject[st.Object] = om
	}
	om.Add(pos)
	return true
}

// AddTriple is shorthand for Add(NewStatement(s, p, o)).
func (g *MemoryGraph) AddTriple(s Term, p string, o Term) bool {
	return g.Add(NewStatement(s, p, o))
}

// Len returns the number of statements.
func (g *MemoryGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.statements)
}

// All returns a copy of every statement in insertion order.
func (g *MemoryGraph) All() []Statement {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Statement, len(g.statements))
	copy(out, g.statements)
	return out
}

// Subjects implements Graph.
func (g *MemoryGraph) Subjects() []Term {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Term, len(g.subjects))
	copy(out, g.subjects)
	return out
}

// Statements implements Graph.
func (g *MemoryGraph) Statements(subject Term, predicate string) []Statement {
	g.mu.RLock()
	defer g.mu.RUnlock()
	bm, ok := g.bySubject[subject]
	if !ok {
		return nil
	}
	var out []Statement
	it := bm.Iterator()
	for it.HasNext() {
		st := g.statements[it.Next()]
		if predicate == "" || st.Predicate == predicate {
			out = append(out, st)
		}
	}
	return out
}

// Referrers implements ReverseGraph.
func (g *MemoryGraph) Referrers(object Term, predicate string) []Term {
	g.mu.RLock()
	defer g.mu.RUnlock()
	bm, ok := g.byObject[object]
	if !ok {
		return nil
	}
	var out []Term
	seen := make(map[Term]struct{})
	it := bm.Iterator()
	for it.HasNext() {
		st := g.statements[it.Next()]
		if predicate != "" && st.Predicate != predicate {
			continue
		}
		if _, dup := seen[st.Subject]; dup {
			continue
		}
		seen[st.Subject] = struct{}{}
		out = append(out, st.Subject)
	}
	return out
}

// IsBlank implements Graph.
func (g *MemoryGraph) IsBlank(t Term) bool { return t.IsBlank() }
