package authority

import (
	"maps"
	"slices"

	"github.com/agentic-research/authq/api"
)

// Merge layers override onto base field by field and returns a new
// definition; neither input is modified. Scalars in override win when set.
// Template mappings merge by variable, subauthority names and context groups
// by key, and replacement slots by param. A non-empty language list or
// context property list in override replaces the base one.
func Merge(base, override api.Authority) api.Authority {
	out := api.Authority{
		Version:  pick(base.Version, override.Version),
		Prefixes: mergeMap(base.Prefixes, override.Prefixes),
	}

	switch {
	case override.Search == nil:
		out.Search = cloneSearch(base.Search)
	case base.Search == nil:
		out.Search = cloneSearch(override.Search)
	default:
		out.Search = &api.SearchConfig{
			Endpoint: mergeEndpoint(base.Search.Endpoint, override.Search.Endpoint),
			Context:  mergeContext(base.Search.Context, override.Search.Context),
		}
	}

	switch {
	case override.Term == nil:
		out.Term = cloneTerm(base.Term)
	case base.Term == nil:
		out.Term = cloneTerm(override.Term)
	default:
		out.Term = &api.TermConfig{
			Endpoint: mergeEndpoint(base.Term.Endpoint, override.Term.Endpoint),
			TermID:   pick(base.Term.TermID, override.Term.TermID),
		}
	}
	return out
}

func mergeEndpoint(base, override api.Endpoint) api.Endpoint {
	out := api.Endpoint{
		URL:            pick(base.URL, override.URL),
		Template:       mergeTemplate(base.Template, override.Template),
		Subauthorities: mergeSubauthorities(base.Subauthorities, override.Subauthorities),
		Replacements:   mergeReplacements(base.Replacements, override.Replacements),
		Language:       slices.Clone(base.Language),
		Results:        mergeResults(base.Results, override.Results),
	}
	if len(override.Language) > 0 {
		out.Language = slices.Clone(override.Language)
	}
	return out
}

func mergeTemplate(base, override *api.IRITemplate) *api.IRITemplate {
	if base == nil && override == nil {
		return nil
	}
	if base == nil {
		base = &api.IRITemplate{}
	}
	if override == nil {
		override = &api.IRITemplate{}
	}
	out := &api.IRITemplate{
		Template:               pick(base.Template, override.Template),
		VariableRepresentation: pick(base.VariableRepresentation, override.VariableRepresentation),
		Mapping:                slices.Clone(base.Mapping),
	}
	for _, m := range override.Mapping {
		i := slices.IndexFunc(out.Mapping, func(b api.VariableMap) bool { return b.Variable == m.Variable })
		if i < 0 {
			out.Mapping = append(out.Mapping, m)
			continue
		}
		out.Mapping[i] = mergeVariable(out.Mapping[i], m)
	}
	return out
}

func mergeVariable(base, override api.VariableMap) api.VariableMap {
	out := base
	out.Property = pick(base.Property, override.Property)
	out.Default = pick(base.Default, override.Default)
	if override.Required != nil {
		out.Required = override.Required
	}
	out.Encode = base.Encode || override.Encode
	return out
}

func mergeSubauthorities(base, override *api.Subauthorities) *api.Subauthorities {
	switch {
	case base == nil && override == nil:
		return nil
	case override == nil:
		c := *base
		c.Names = maps.Clone(base.Names)
		return &c
	case base == nil:
		c := *override
		c.Names = maps.Clone(override.Names)
		return &c
	}
	return &api.Subauthorities{
		Pattern: pick(base.Pattern, override.Pattern),
		Default: pick(base.Default, override.Default),
		Names:   mergeMap(base.Names, override.Names),
	}
}

func mergeReplacements(base, override []api.ReplacementSlot) []api.ReplacementSlot {
	out := slices.Clone(base)
	for _, r := range override {
		i := slices.IndexFunc(out, func(b api.ReplacementSlot) bool { return b.Param == r.Param })
		if i < 0 {
			out = append(out, r)
			continue
		}
		out[i] = api.ReplacementSlot{
			Param:   r.Param,
			Pattern: pick(out[i].Pattern, r.Pattern),
			Default: pick(out[i].Default, r.Default),
		}
	}
	return out
}

func mergeResults(base, override api.ResultsPredicates) api.ResultsPredicates {
	out := base
	mergeSource(&out.IDPredicate, &out.IDPath, override.IDPredicate, override.IDPath)
	mergeSource(&out.LabelPredicate, &out.LabelPath, override.LabelPredicate, override.LabelPath)
	mergeSource(&out.AltLabelPredicate, &out.AltLabelPath, override.AltLabelPredicate, override.AltLabelPath)
	mergeSource(&out.BroaderPredicate, &out.BroaderPath, override.BroaderPredicate, override.BroaderPath)
	mergeSource(&out.NarrowerPredicate, &out.NarrowerPath, override.NarrowerPredicate, override.NarrowerPath)
	mergeSource(&out.SameAsPredicate, &out.SameAsPath, override.SameAsPredicate, override.SameAsPath)
	mergeSource(&out.SortPredicate, &out.SortPath, override.SortPredicate, override.SortPath)
	return out
}

// mergeSource treats a field's predicate and path as one source: an override
// that sets either replaces both.
func mergeSource(predicate, path *string, overridePredicate, overridePath string) {
	if overridePredicate == "" && overridePath == "" {
		return
	}
	*predicate, *path = overridePredicate, overridePath
}

func mergeContext(base, override *api.ContextConfig) *api.ContextConfig {
	switch {
	case base == nil && override == nil:
		return nil
	case override == nil:
		return cloneContext(base)
	case base == nil:
		return cloneContext(override)
	}
	out := &api.ContextConfig{
		Groups:     mergeMap(base.Groups, override.Groups),
		Properties: slices.Clone(base.Properties),
	}
	if len(override.Properties) > 0 {
		out.Properties = slices.Clone(override.Properties)
	}
	return out
}

func cloneSearch(s *api.SearchConfig) *api.SearchConfig {
	if s == nil {
		return nil
	}
	return &api.SearchConfig{
		Endpoint: mergeEndpoint(s.Endpoint, api.Endpoint{}),
		Context:  cloneContext(s.Context),
	}
}

func cloneTerm(t *api.TermConfig) *api.TermConfig {
	if t == nil {
		return nil
	}
	return &api.TermConfig{
		Endpoint: mergeEndpoint(t.Endpoint, api.Endpoint{}),
		TermID:   t.TermID,
	}
}

func cloneContext(c *api.ContextConfig) *api.ContextConfig {
	if c == nil {
		return nil
	}
	return &api.ContextConfig{
		Groups:     maps.Clone(c.Groups),
		Properties: slices.Clone(c.Properties),
	}
}

func pick(base, override string) string {
	if override != "" {
		return override
	}
	return base
}

func mergeMap[V any](base, override map[string]V) map[string]V {
	if base == nil && override == nil {
		return nil
	}
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]V, len(override))
	}
	maps.Copy(out, override)
	return out
}
