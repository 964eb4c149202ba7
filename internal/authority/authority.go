// Package authority turns declarative authority definitions into validated,
// immutable configurations that build request URLs and describe how results
// are extracted from fetched graphs.
package authority

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/agentic-research/authq/api"
	"github.com/agentic-research/authq/internal/graph"
	"github.com/agentic-research/authq/internal/iri"
	"github.com/agentic-research/authq/internal/ldpath"
	"github.com/agentic-research/authq/internal/mapper"
	"golang.org/x/text/language"
)

var (
	ErrUnknownAuthority     = errors.New("unknown authority")
	ErrUnsupportedOperation = errors.New("operation not supported")
)

// ValidationError reports a configuration problem found while building a Config.
type ValidationError struct {
	Authority string
	Operation string
	Field     string
	Reason    string
	Err       error
}

func (e *ValidationError) Error() string {
	where := e.Authority
	if e.Operation != "" {
		where += "." + e.Operation
	}
	return fmt.Sprintf("authority %s: %s: %s", where, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Kind identifies one of the two operations an authority can support.
type Kind int

const (
	Search Kind = iota
	Term
)

func (k Kind) String() string {
	if k == Term {
		return "term"
	}
	return "search"
}

// Marker is the positional marker substituted in the legacy URL.
func (k Kind) Marker() string {
	if k == Term {
		return "__TERM_ID__"
	}
	return "__QUERY__"
}

// ParseKind maps "search" or "term" onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "search":
		return Search, nil
	case "term":
		return Term, nil
	default:
		return 0, fmt.Errorf("unknown operation %q", s)
	}
}

// Template variable names filled from URLRequest when a template is used.
const (
	VarQuery   = "query"
	VarTermID  = "term_id"
	VarSubauth = "subauth"
)

// Config is the validated configuration of one authority. It is immutable.
type Config struct {
	name   string
	def    api.Authority
	search *Operation
	term   *Operation
}

// New validates def and compiles it into a Config.
func New(name string, def api.Authority) (*Config, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if def.Search == nil && def.Term == nil {
		return nil, &ValidationError{Authority: name, Field: "search/term", Reason: "no operation configured"}
	}
	def = Merge(def, api.Authority{})
	c := &Config{name: name, def: def}
	var err error
	if def.Search != nil {
		if c.search, err = newOperation(name, Search, def, def.Search.Endpoint); err != nil {
			return nil, err
		}
		if c.search.context, err = contextSpec(name, def.Search.Context, def.Prefixes); err != nil {
			return nil, err
		}
	}
	if def.Term != nil {
		if c.term, err = newOperation(name, Term, def, def.Term.Endpoint); err != nil {
			return nil, err
		}
		switch strings.ToUpper(def.Term.TermID) {
		case "", "ID":
		case "URI":
			c.term.byURI = true
		default:
			return nil, &ValidationError{Authority: name, Operation: "term", Field: "term_id",
				Reason: fmt.Sprintf("must be ID or URI, got %q", def.Term.TermID)}
		}
	}
	return c, nil
}

// Name returns the lowercase authority name.
func (c *Config) Name() string { return c.name }

// Definition returns a deep copy of the definition c was built from.
func (c *Config) Definition() api.Authority { return Merge(c.def, api.Authority{}) }

// Supports reports whether the operation is configured.
func (c *Config) Supports(k Kind) bool { return c.op(k) != nil }

// Operation returns the configuration of one operation.
func (c *Config) Operation(k Kind) (*Operation, error) {
	op := c.op(k)
	if op == nil {
		return nil, fmt.Errorf("authority %s: %s: %w", c.name, k, ErrUnsupportedOperation)
	}
	return op, nil
}

// URLWithReplacements builds the legacy URL of an operation. The bool is
// false when the operation is not supported.
func (c *Config) URLWithReplacements(k Kind, value, subauth string, replacements map[string]string) (string, bool) {
	op := c.op(k)
	if op == nil {
		return "", false
	}
	return op.URLWithReplacements(value, subauth, replacements), true
}

func (c *Config) op(k Kind) *Operation {
	if k == Term {
		return c.term
	}
	return c.search
}

// Operation is the compiled configuration of search or term fetch.
type Operation struct {
	authority string
	kind      Kind
	endpoint  api.Endpoint
	template  *iri.Template
	prefixes  map[string]string
	fields    map[string]mapper.FieldSource
	language  []string
	context   *mapper.ContextSpec
	byURI     bool
}

func newOperation(name string, k Kind, def api.Authority, ep api.Endpoint) (*Operation, error) {
	verr := func(field, reason string, err error) error {
		return &ValidationError{Authority: name, Operation: k.String(), Field: field, Reason: reason, Err: err}
	}
	op := &Operation{authority: name, kind: k, endpoint: ep, prefixes: def.Prefixes}

	if ep.URL == "" && ep.Template == nil {
		return nil, verr("url", "one of url or url_template is required", nil)
	}
	if ep.Template != nil {
		t, err := iri.Compile(*ep.Template)
		if err != nil {
			return nil, verr("url_template", err.Error(), err)
		}
		op.template = t
	}

	if sa := ep.Subauthorities; sa != nil && sa.Pattern == "" && ep.Template == nil {
		return nil, verr("subauthorities.pattern", "must not be empty", nil)
	}
	seen := make(map[string]bool, len(ep.Replacements))
	for i, r := range ep.Replacements {
		field := fmt.Sprintf("replacements[%d]", i)
		switch {
		case r.Param == "":
			return nil, verr(field+".param", "must not be empty", nil)
		case r.Pattern == "":
			return nil, verr(field+".pattern", "must not be empty", nil)
		case seen[r.Param]:
			return nil, verr(field+".param", fmt.Sprintf("duplicate param %q", r.Param), nil)
		}
		seen[r.Param] = true
	}

	for _, tag := range ep.Language {
		if _, err := language.Parse(tag); err != nil {
			return nil, verr("language", fmt.Sprintf("invalid tag %q", tag), err)
		}
		n := graph.NormalizeLanguage(tag)
		if !slices.Contains(op.language, n) {
			op.language = append(op.language, n)
		}
	}

	fields, err := fieldSources(ep.Results, def.Prefixes)
	if err != nil {
		return nil, verr("results", err.Error(), err)
	}
	op.fields = fields
	return op, nil
}

// Kind returns the operation kind.
func (o *Operation) Kind() Kind { return o.kind }

// Authority returns the owning authority's name.
func (o *Operation) Authority() string { return o.authority }

// Prefixes returns the authority-specific prefix dictionary.
func (o *Operation) Prefixes() map[string]string { return maps.Clone(o.prefixes) }

// Template returns the compiled IRI template, or nil.
func (o *Operation) Template() *iri.Template { return o.template }

// Language returns the configured languages as lowercase base tags. Nil means
// results are not filtered by language.
func (o *Operation) Language() []string { return o.language }

// FieldSources returns the extraction sources of the result fields. uri is
// always the subject; id falls back to the subject when not configured.
func (o *Operation) FieldSources() map[string]mapper.FieldSource {
	return maps.Clone(o.fields)
}

// SortField returns mapper.FieldSort when a sort source is configured.
func (o *Operation) SortField() string {
	if _, ok := o.fields[mapper.FieldSort]; ok {
		return mapper.FieldSort
	}
	return ""
}

// Context returns the search context definition, or nil.
func (o *Operation) Context() *mapper.ContextSpec { return o.context }

// TermByURI reports whether term ids are full subject URIs.
func (o *Operation) TermByURI() bool { return o.byURI }

// Subauthorities returns the configured subauthority names.
func (o *Operation) Subauthorities() map[string]string {
	if o.endpoint.Subauthorities == nil {
		return nil
	}
	return maps.Clone(o.endpoint.Subauthorities.Names)
}

// ValidSubauthority reports whether name is a configured subauthority.
func (o *Operation) ValidSubauthority(name string) bool {
	if o.endpoint.Subauthorities == nil {
		return false
	}
	_, ok := o.endpoint.Subauthorities.Names[name]
	return ok
}

// URLWithReplacements substitutes the positional marker with value, the
// subauthority pattern with the token for subauth, and every replacement
// pattern with its supplied value or default. A slot with neither keeps its
// pattern text. All substitutions happen in a
// single pass, so substituted text is never rescanned.
func (o *Operation) URLWithReplacements(value, subauth string, replacements map[string]string) string {
	pairs := []string{o.kind.Marker(), value}
	if sa := o.endpoint.Subauthorities; sa != nil && sa.Pattern != "" {
		pairs = append(pairs, sa.Pattern, o.subauthToken(subauth))
	}
	for _, r := range o.endpoint.Replacements {
		v := replacements[r.Param]
		if v == "" {
			v = r.Default
		}
		if v == "" {
			continue // left as configured
		}
		pairs = append(pairs, r.Pattern, v)
	}
	return strings.NewReplacer(pairs...).Replace(o.endpoint.URL)
}

// subauthToken resolves a subauthority name. Unknown or empty names use the
// configured default.
func (o *Operation) subauthToken(name string) string {
	sa := o.endpoint.Subauthorities
	if sa == nil {
		return ""
	}
	if tok, ok := sa.Names[name]; ok {
		return tok
	}
	if tok, ok := sa.Names[sa.Default]; ok {
		return tok
	}
	return sa.Default
}

// BuildURL builds the IRI template with values.
func (o *Operation) BuildURL(values map[string]string, policy iri.EscapePolicy) (string, error) {
	if o.template == nil {
		return "", fmt.Errorf("authority %s: %s: no url_template configured", o.authority, o.kind)
	}
	u, err := o.template.Build(values, policy)
	if err != nil {
		return "", fmt.Errorf("authority %s: %s: %w", o.authority, o.kind, err)
	}
	return u, nil
}

// URLRequest carries the runtime inputs of a URL build.
type URLRequest struct {
	Value        string
	Subauthority string
	Params       map[string]string
	Escape       iri.EscapePolicy
}

// URL builds the request URL, preferring the IRI template when configured.
// With a template, Value fills "query" (search) or "term_id" (term) and the
// resolved subauthority token fills "subauth", unless Params sets them.
func (o *Operation) URL(req URLRequest) (string, error) {
	if o.template == nil {
		return o.URLWithReplacements(req.Value, req.Subauthority, req.Params), nil
	}
	values := maps.Clone(req.Params)
	if values == nil {
		values = make(map[string]string, 2)
	}
	key := VarQuery
	if o.kind == Term {
		key = VarTermID
	}
	if _, ok := values[key]; !ok && req.Value != "" {
		values[key] = req.Value
	}
	if _, ok := values[VarSubauth]; !ok {
		if tok := o.subauthToken(req.Subauthority); tok != "" {
			values[VarSubauth] = tok
		}
	}
	return o.BuildURL(values, req.Escape)
}

func fieldSources(r api.ResultsPredicates, prefixes map[string]string) (map[string]mapper.FieldSource, error) {
	out := map[string]mapper.FieldSource{
		mapper.FieldURI: mapper.FromSubject(),
		mapper.FieldID:  mapper.FromSubject(),
	}
	set := func(field, predicate, path string) error {
		switch {
		case path != "":
			if _, err := ldpath.Parse(path, prefixes); err != nil {
				return fmt.Errorf("%s: %w", field, err)
			}
			out[field] = mapper.FromPath(path, prefixes)
		case predicate != "":
			out[field] = mapper.FromPredicate(predicate)
		}
		return nil
	}
	for _, f := range []struct{ field, predicate, path string }{
		{mapper.FieldID, r.IDPredicate, r.IDPath},
		{mapper.FieldLabel, r.LabelPredicate, r.LabelPath},
		{mapper.FieldAltLabel, r.AltLabelPredicate, r.AltLabelPath},
		{mapper.FieldBroader, r.BroaderPredicate, r.BroaderPath},
		{mapper.FieldNarrower, r.NarrowerPredicate, r.NarrowerPath},
		{mapper.FieldSameAs, r.SameAsPredicate, r.SameAsPath},
		{mapper.FieldSort, r.SortPredicate, r.SortPath},
	} {
		if err := set(f.field, f.predicate, f.path); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// contextSpec converts a context definition. Paths are not compiled here;
// a broken path surfaces as an error annotation on the context entry.
func contextSpec(name string, cfg *api.ContextConfig, prefixes map[string]string) (*mapper.ContextSpec, error) {
	if cfg == nil {
		return nil, nil
	}
	spec := &mapper.ContextSpec{Groups: make(map[string]string, len(cfg.Groups))}
	for id, g := range cfg.Groups {
		spec.Groups[id] = g.Label
	}
	for i, p := range cfg.Properties {
		var src mapper.FieldSource
		switch {
		case p.Path != "":
			src = mapper.FromPath(p.Path, prefixes)
		case p.Predicate != "":
			src = mapper.FromPredicate(p.Predicate)
		default:
			return nil, &ValidationError{Authority: name, Operation: "search",
				Field: fmt.Sprintf("context.properties[%d]", i), Reason: "one of predicate or ldpath is required"}
		}
		spec.Properties = append(spec.Properties, mapper.ContextProperty{
			Label:      p.Label,
			Source:     src,
			GroupID:    p.GroupID,
			Selectable: p.Selectable,
			Drillable:  p.Drillable,
		})
	}
	return spec, nil
}
