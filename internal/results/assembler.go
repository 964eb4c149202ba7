// Package results assembles normalized search and term results from graphs.
package results

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/agentic-research/authq/internal/graph"
	"github.com/agentic-research/authq/internal/mapper"
)

// SearchSpec configures one assembly run.
type SearchSpec struct {
	// Fields to extract for every candidate subject.
	Fields map[string]mapper.FieldSource
	// SortField, when set, both filters candidates (the field must be
	// non-empty) and orders the output.
	SortField string
	// Languages is the preferred-language order used to pick sort keys.
	Languages []string
	// Context, when set, is attached to every qualifying result.
	Context *mapper.ContextSpec
}

// Record is the extraction result for one subject.
type Record struct {
	Subject graph.Term
	Values  mapper.ValueMap
	Context []mapper.ContextEntry
}

// MarshalJSON flattens Values and Context into one object.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Values)+1)
	for k, v := range r.Values {
		out[k] = v
	}
	if r.Context != nil {
		out[mapper.FieldContext] = r.Context
	}
	return json.Marshal(out)
}

// Assembler turns a graph into an ordered list of Records.
type Assembler struct {
	mapper *mapper.Mapper
}

// NewAssembler returns an Assembler using m for extraction.
func NewAssembler(m *mapper.Mapper) *Assembler {
	if m == nil {
		m = mapper.New(nil)
	}
	return &Assembler{mapper: m}
}

// Mapper returns the underlying mapper.
func (a *Assembler) Mapper() *mapper.Mapper { return a.mapper }

// Assemble builds one Record per qualifying subject of g. Blank-node subjects
// are never candidates. The output depends only on g and spec.
func (a *Assembler) Assemble(g graph.Graph, spec SearchSpec) ([]Record, error) {
	var out []Record
	for _, subject := range g.Subjects() {
		if g.IsBlank(subject) {
			continue
		}
		vm, err := a.mapper.Map(g, subject, spec.Fields, nil)
		if err != nil {
			return nil, fmt.Errorf("subject %s: %w", subject.Value, err)
		}
		if spec.SortField != "" && !hasValue(vm[spec.SortField]) {
			continue
		}
		rec := Record{Subject: subject, Values: vm}
		if spec.Context != nil {
			rec.Context = a.mapper.Context(g, subject, spec.Context)
			if rec.Context == nil {
				rec.Context = []mapper.ContextEntry{}
			}
		}
		out = append(out, rec)
	}
	if spec.SortField != "" {
		SortRecords(out, spec.SortField, spec.Languages)
	}
	return out, nil
}

func hasValue(vs []graph.Term) bool {
	for _, v := range vs {
		if v.Value != "" {
			return true
		}
	}
	return false
}

// SortRecords stably orders records by the key picked from field.
func SortRecords(records []Record, field string, langs []string) {
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = PickValue(r.Values[field], langs).Value
	}
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	cmp := newKeyComparer(langs)
	sort.SliceStable(idx, func(i, j int) bool {
		return cmp.less(keys[idx[i]], keys[idx[j]])
	})
	sorted := make([]Record, len(records))
	for i, k := range idx {
		sorted[i] = records[k]
	}
	copy(records, sorted)
}

// PickValue chooses the value to use for a language-sensitive single-valued
// slot: the first literal whose language matches langs (in langs order),
// then the first non-empty untagged value, then the first non-empty value.
func PickValue(vs []graph.Term, langs []string) graph.Term {
	for _, l := range langs {
		for _, v := range vs {
			if v.IsLiteral() && v.Lang != "" && v.Value != "" && graph.LangMatches(v.Lang, []string{l}) {
				return v
			}
		}
	}
	for _, v := range vs {
		if v.Lang == "" && v.Value != "" {
			return v
		}
	}
	for _, v := range vs {
		if v.Value != "" {
			return v
		}
	}
	return graph.Term{}
}
