package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Authority is the declarative configuration of one external vocabulary source.
// It is decoded from a JSON or YAML file and is never mutated after load;
// layering local overrides produces a new value (see authority.Merge).
type Authority struct {
	// Version of the configuration format.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	// Prefixes extend the default prefix dictionary used by path expressions.
	Prefixes map[string]string `json:"prefixes,omitempty" yaml:"prefixes,omitempty"`
	// Term configures fetching a single term.
	Term *TermConfig `json:"term,omitempty" yaml:"term,omitempty"`
	// Search configures querying for matching terms.
	Search *SearchConfig `json:"search,omitempty" yaml:"search,omitempty"`
}

// Endpoint holds the fields shared by the search and term operations.
type Endpoint struct {
	// URL is the legacy request URL containing positional markers
	// (__QUERY__ for search, __TERM_ID__ for term).
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
	// Template is an IRI template. When set it takes precedence over URL.
	Template *IRITemplate `json:"url_template,omitempty" yaml:"url_template,omitempty"`
	// Subauthorities maps subauthority names onto upstream tokens.
	Subauthorities *Subauthorities `json:"subauthorities,omitempty" yaml:"subauthorities,omitempty"`
	// Replacements are named slots substituted into URL.
	Replacements []ReplacementSlot `json:"replacements,omitempty" yaml:"replacements,omitempty"`
	// Language is the preferred language (one tag or a list).
	Language LanguageList `json:"language,omitempty" yaml:"language,omitempty"`
	// Results assigns graph predicates to result fields.
	Results ResultsPredicates `json:"results" yaml:"results"`
}

// TermConfig configures the term fetch operation.
type TermConfig struct {
	Endpoint `yaml:",inline"`
	// TermID is "ID" when callers pass a local identifier or "URI" when they
	// pass the full subject URI.
	TermID string `json:"term_id,omitempty" yaml:"term_id,omitempty"`
}

// SearchConfig configures the search operation.
type SearchConfig struct {
	Endpoint `yaml:",inline"`
	// Context describes supplementary display fields attached to each result.
	Context *ContextConfig `json:"context,omitempty" yaml:"context,omitempty"`
}

// IRITemplate is a URL template with declared variables.
type IRITemplate struct {
	Template               string        `json:"template" yaml:"template"`
	VariableRepresentation string        `json:"variable_representation,omitempty" yaml:"variable_representation,omitempty"`
	Mapping                []VariableMap `json:"mapping" yaml:"mapping"`
}

// VariableMap is one substitution slot of an IRITemplate.
type VariableMap struct {
	Variable string `json:"variable" yaml:"variable"`
	Property string `json:"property,omitempty" yaml:"property,omitempty"`
	// Required is a pointer so a missing flag can be told apart from false.
	Required *bool  `json:"required" yaml:"required"`
	Default  string `json:"default,omitempty" yaml:"default,omitempty"`
	// Encode marks the value for escaping when the build runs with
	// the configured escape policy.
	Encode bool `json:"encode,omitempty" yaml:"encode,omitempty"`
}

// Subauthorities maps subauthority names to the tokens substituted for Pattern.
type Subauthorities struct {
	Pattern string            `json:"pattern" yaml:"pattern"`
	Default string            `json:"default,omitempty" yaml:"default,omitempty"`
	Names   map[string]string `json:"names,omitempty" yaml:"names,omitempty"`
}

// ReplacementSlot is a named pattern replaced by a caller-supplied value.
type ReplacementSlot struct {
	Param   string `json:"param" yaml:"param"`
	Pattern string `json:"pattern" yaml:"pattern"`
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
}

// ResultsPredicates assigns a source to each result field. Each field can be
// given as a predicate URI or as a path expression; the path wins when both are set.
type ResultsPredicates struct {
	IDPredicate       string `json:"id_predicate,omitempty" yaml:"id_predicate,omitempty"`
	IDPath            string `json:"id_ldpath,omitempty" yaml:"id_ldpath,omitempty"`
	LabelPredicate    string `json:"label_predicate,omitempty" yaml:"label_predicate,omitempty"`
	LabelPath         string `json:"label_ldpath,omitempty" yaml:"label_ldpath,omitempty"`
	AltLabelPredicate string `json:"altlabel_predicate,omitempty" yaml:"altlabel_predicate,omitempty"`
	AltLabelPath      string `json:"altlabel_ldpath,omitempty" yaml:"altlabel_ldpath,omitempty"`
	BroaderPredicate  string `json:"broader_predicate,omitempty" yaml:"broader_predicate,omitempty"`
	BroaderPath       string `json:"broader_ldpath,omitempty" yaml:"broader_ldpath,omitempty"`
	NarrowerPredicate string `json:"narrower_predicate,omitempty" yaml:"narrower_predicate,omitempty"`
	NarrowerPath      string `json:"narrower_ldpath,omitempty" yaml:"narrower_ldpath,omitempty"`
	SameAsPredicate   string `json:"sameas_predicate,omitempty" yaml:"sameas_predicate,omitempty"`
	SameAsPath        string `json:"sameas_ldpath,omitempty" yaml:"sameas_ldpath,omitempty"`
	SortPredicate     string `json:"sort_predicate,omitempty" yaml:"sort_predicate,omitempty"`
	SortPath          string `json:"sort_ldpath,omitempty" yaml:"sort_ldpath,omitempty"`
}

// ContextConfig lists the supplementary properties shown alongside a result.
type ContextConfig struct {
	Groups     map[string]ContextGroup `json:"groups,omitempty" yaml:"groups,omitempty"`
	Properties []ContextProperty       `json:"properties" yaml:"properties"`
}

// ContextGroup labels a set of context properties.
type ContextGroup struct {
	Label string `json:"group_label_default" yaml:"group_label_default"`
}

// ContextProperty is one context field definition.
type ContextProperty struct {
	Label      string `json:"property_label_default" yaml:"property_label_default"`
	Predicate  string `json:"predicate,omitempty" yaml:"predicate,omitempty"`
	Path       string `json:"ldpath,omitempty" yaml:"ldpath,omitempty"`
	GroupID    string `json:"group_id,omitempty" yaml:"group_id,omitempty"`
	Selectable bool   `json:"selectable,omitempty" yaml:"selectable,omitempty"`
	Drillable  bool   `json:"drillable,omitempty" yaml:"drillable,omitempty"`
}

// LanguageList accepts either a single tag or a list of tags.
type LanguageList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *LanguageList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = splitLanguages(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("language must be a string or a list of strings: %w", err)
	}
	*l = many
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *LanguageList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = splitLanguages(node.Value)
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return err
		}
		*l = many
		return nil
	default:
		return fmt.Errorf("language must be a string or a list of strings (line %d)", node.Line)
	}
}

func splitLanguages(s string) LanguageList {
	var out LanguageList
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
