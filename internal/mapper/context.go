package mapper

import "github.com/agentic-research/authq/internal/graph"

// ContextProperty defines one supplementary display field.
type ContextProperty struct {
	Label      string
	Source     FieldSource
	GroupID    string
	Selectable bool
	Drillable  bool
}

// ContextSpec is the ordered list of context properties plus the group
// id -> label lookup.
type ContextSpec struct {
	Groups     map[string]string
	Properties []ContextProperty
}

// ContextEntry is one emitted context field.
type ContextEntry struct {
	Group      string   `json:"group,omitempty"`
	Property   string   `json:"property"`
	Values     []string `json:"values"`
	Selectable bool     `json:"selectable"`
	Drillable  bool     `json:"drillable"`
	Error      string   `json:"error,omitempty"`
}

// Context builds the context entries of subject in definition order.
// Definitions that yield no non-empty value are dropped. A definition whose
// path fails to parse still yields an entry, with no values and Error set.
func (m *Mapper) Context(g graph.Graph, subject graph.Term, spec *ContextSpec) []ContextEntry {
	if spec == nil {
		return nil
	}
	var out []ContextEntry
	for _, prop := range spec.Properties {
		entry := ContextEntry{
			Property:   prop.Label,
			Values:     []string{},
			Selectable: prop.Selectable,
			Drillable:  prop.Drillable,
		}
		if prop.GroupID != "" {
			entry.Group = spec.groupLabel(prop.GroupID)
		}

		vs, err := m.Values(g, subject, prop.Source)
		if err != nil {
			entry.Error = err.Error()
			out = append(out, entry)
			continue
		}
		for _, v := range vs {
			if v.Value != "" {
				entry.Values = append(entry.Values, v.Value)
			}
		}
		if len(entry.Values) == 0 {
			continue
		}
		out = append(out, entry)
	}
	return out
}

func (s *ContextSpec) groupLabel(id string) string {
	if label, ok := s.Groups[id]; ok && label != "" {
		return label
	}
	return id
}
