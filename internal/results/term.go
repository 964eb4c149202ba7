package results

import (
	"fmt"

	"github.com/agentic-research/authq/internal/graph"
	"github.com/agentic-research/authq/internal/mapper"
)

// TermResult is the normalized JSON shape of a fetched term.
type TermResult struct {
	URI        string              `json:"uri"`
	ID         string              `json:"id"`
	Label      []string            `json:"label"`
	AltLabel   []string            `json:"altlabel"`
	Broader    []string            `json:"broader,omitempty"`
	Narrower   []string            `json:"narrower,omitempty"`
	SameAs     []string            `json:"sameas,omitempty"`
	Predicates map[string][]string `json:"predicates"`
}

// TermSpec configures term assembly.
type TermSpec struct {
	Fields    map[string]mapper.FieldSource
	Languages []string
}

// AssembleTerm extracts the term rooted at subject. It returns
// graph.ErrNotFound when g has no statements about subject.
func (a *Assembler) AssembleTerm(g graph.Graph, subject graph.Term, spec TermSpec) (*TermResult, error) {
	if !graph.HasSubject(g, subject) {
		return nil, fmt.Errorf("term %s: %w", subject.Value, graph.ErrNotFound)
	}
	var predicates map[string][]string
	vm, err := a.mapper.Map(g, subject, spec.Fields, func(s graph.Term, vm mapper.ValueMap) mapper.ValueMap {
		predicates = predicateDump(g, s)
		return vm
	})
	if err != nil {
		return nil, fmt.Errorf("term %s: %w", subject.Value, err)
	}

	id := subject.Value
	if v := PickValue(vm[mapper.FieldID], spec.Languages); v.Value != "" {
		id = v.Value
	}
	return &TermResult{
		URI:        subject.Value,
		ID:         id,
		Label:      nonNil(labelValues(vm[mapper.FieldLabel], spec.Languages)),
		AltLabel:   nonNil(labelValues(vm[mapper.FieldAltLabel], spec.Languages)),
		Broader:    vm.Strings(mapper.FieldBroader),
		Narrower:   vm.Strings(mapper.FieldNarrower),
		SameAs:     vm.Strings(mapper.FieldSameAs),
		Predicates: predicates,
	}, nil
}

// FindTermSubject locates the subject a term id refers to. When byURI is set
// the id is the subject URI itself; otherwise the first non-blank subject
// whose idSource yields id is returned.
func (a *Assembler) FindTermSubject(g graph.Graph, id string, idSource mapper.FieldSource, byURI bool) (graph.Term, error) {
	if byURI {
		s := graph.IRI(id)
		if !graph.HasSubject(g, s) {
			return graph.Term{}, fmt.Errorf("term %s: %w", id, graph.ErrNotFound)
		}
		return s, nil
	}
	for _, s := range g.Subjects() {
		if g.IsBlank(s) {
			continue
		}
		vs, err := a.mapper.Values(g, s, idSource)
		if err != nil {
			return graph.Term{}, err
		}
		for _, v := range vs {
			if v.Value == id {
				return s, nil
			}
		}
	}
	return graph.Term{}, fmt.Errorf("term %s: %w", id, graph.ErrNotFound)
}

func predicateDump(g graph.Graph, subject graph.Term) map[string][]string {
	out := make(map[string][]string)
	for _, st := range g.Statements(subject, "") {
		out[st.Predicate] = append(out[st.Predicate], st.Object.Value)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
