// Package iri builds request URLs from declarative IRI templates.
//
// A template string contains {var} and {?var} placeholders. Each declared
// variable is resolved from the caller's values, then its default, and a
// required variable that resolves to nothing fails the build. Placeholders
// that no variable declares are left in the output as literal text.
package iri

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/agentic-research/authq/api"
)

// BasicRepresentation is the only supported variable representation.
const BasicRepresentation = "BasicRepresentation"

// ErrMissingVariable is wrapped by every MissingVariableError.
var ErrMissingVariable = errors.New("missing required variable")

// MissingVariableError reports a required variable with no value and no default.
type MissingVariableError struct {
	Variable string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("%s %q", ErrMissingVariable, e.Variable)
}

func (e *MissingVariableError) Unwrap() error { return ErrMissingVariable }

// ConfigError reports an invalid template definition.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("iri template: %s: %s", e.Field, e.Reason)
}

// EscapePolicy selects how resolved values are escaped before substitution.
type EscapePolicy int

const (
	// EscapeNone substitutes values verbatim; callers pre-encode.
	EscapeNone EscapePolicy = iota
	// EscapeConfigured escapes only variables whose mapping sets encode.
	EscapeConfigured
	// EscapeAll escapes every variable.
	EscapeAll
)

// ParseEscapePolicy maps a flag value onto an EscapePolicy.
func ParseEscapePolicy(s string) (EscapePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return EscapeNone, nil
	case "configured":
		return EscapeConfigured, nil
	case "all":
		return EscapeAll, nil
	default:
		return EscapeNone, fmt.Errorf("unknown escape policy %q", s)
	}
}

// Variable is a compiled VariableMap.
type Variable struct {
	Name     string
	Property string
	Required bool
	Default  string
	Encode   bool
}

// Resolve returns the value for v given the supplied values: the supplied
// value if non-empty, else the default if non-empty, else an error when the
// variable is required, else "".
func (v Variable) Resolve(values map[string]string) (string, error) {
	if s := values[v.Name]; s != "" {
		return s, nil
	}
	if v.Default != "" {
		return v.Default, nil
	}
	if v.Required {
		return "", &MissingVariableError{Variable: v.Name}
	}
	return "", nil
}

type segment struct {
	literal string
	name    string
	query   bool // {?name}
}

// Template is a compiled IRI template. It is immutable and safe for concurrent use.
type Template struct {
	raw      string
	vars     []Variable
	byName   map[string]int
	segments []segment
}

// Compile validates def and returns a Template.
func Compile(def api.IRITemplate) (*Template, error) {
	if strings.TrimSpace(def.Template) == "" {
		return nil, &ConfigError{Field: "template", Reason: "is required"}
	}
	if def.VariableRepresentation != "" && def.VariableRepresentation != BasicRepresentation {
		return nil, &ConfigError{Field: "variable_representation", Reason: fmt.Sprintf("unsupported %q", def.VariableRepresentation)}
	}
	if len(def.Mapping) == 0 {
		return nil, &ConfigError{Field: "mapping", Reason: "must declare at least one variable"}
	}

	t := &Template{
		raw:    def.Template,
		byName: make(map[string]int, len(def.Mapping)),
	}
	for i, m := range def.Mapping {
		name := strings.TrimSpace(m.Variable)
		if name == "" {
			return nil, &ConfigError{Field: fmt.Sprintf("mapping[%d].variable", i), Reason: "is required"}
		}
		if m.Required == nil {
			return nil, &ConfigError{Field: fmt.Sprintf("mapping[%d].required", i), Reason: "must be true or false"}
		}
		if _, dup := t.byName[name]; dup {
			return nil, &ConfigError{Field: fmt.Sprintf("mapping[%d].variable", i), Reason: fmt.Sprintf("duplicate variable %q", name)}
		}
		t.byName[name] = len(t.vars)
		t.vars = append(t.vars, Variable{
			Name:     name,
			Property: m.Property,
			Required: *m.Required,
			Default:  m.Default,
			Encode:   m.Encode,
		})
	}
	t.segments = t.split(def.Template)
	return t, nil
}

// split cuts the template into literal runs and declared placeholders.
// Undeclared or malformed placeholders stay inside literal runs.
func (t *Template) split(s string) []segment {
	var segs []segment
	var lit strings.Builder
	for len(s) > 0 {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			lit.WriteString(s)
			break
		}
		end := strings.IndexByte(s[open:], '}')
		if end < 0 {
			lit.WriteString(s)
			break
		}
		end += open
		open += strings.LastIndexByte(s[open:end], '{')
		inner := s[open+1 : end]
		query := strings.HasPrefix(inner, "?")
		name := strings.TrimPrefix(inner, "?")
		if _, ok := t.byName[name]; !ok {
			lit.WriteString(s[:end+1])
			s = s[end+1:]
			continue
		}
		lit.WriteString(s[:open])
		if lit.Len() > 0 {
			segs = append(segs, segment{literal: lit.String()})
			lit.Reset()
		}
		segs = append(segs, segment{name: name, query: query})
		s = s[end+1:]
	}
	if lit.Len() > 0 {
		segs = append(segs, segment{literal: lit.String()})
	}
	return segs
}

// Raw returns the template string.
func (t *Template) Raw() string { return t.raw }

// Variables returns the declared variables in declaration order.
func (t *Template) Variables() []Variable {
	out := make([]Variable, len(t.vars))
	copy(out, t.vars)
	return out
}

// Build resolves every declared variable and renders the URL.
// The first unresolved required variable (in declaration order) is returned
// as a *MissingVariableError.
func (t *Template) Build(values map[string]string, policy EscapePolicy) (string, error) {
	resolved := make(map[string]string, len(t.vars))
	for _, v := range t.vars {
		s, err := v.Resolve(values)
		if err != nil {
			return "", err
		}
		resolved[v.Name] = s
	}

	var b strings.Builder
	for _, seg := range t.segments {
		if seg.name == "" {
			b.WriteString(seg.literal)
			continue
		}
		v := t.vars[t.byName[seg.name]]
		val := resolved[seg.name]
		escape := policy == EscapeAll || (policy == EscapeConfigured && v.Encode)
		if seg.query {
			if val == "" {
				continue
			}
			if escape {
				val = url.QueryEscape(val)
			}
			b.WriteString(seg.name)
			b.WriteByte('=')
			b.WriteString(val)
			continue
		}
		if escape {
			val = url.PathEscape(val)
		}
		b.WriteString(val)
	}
	return Cleanup(b.String()), nil
}

// Cleanup repairs the artifacts left by omitted optional parameters: runs of
// '&' collapse to one, "?&" becomes "?", and trailing '&' or '?' are dropped.
// Cleanup(Cleanup(s)) == Cleanup(s).
func Cleanup(s string) string {
	for {
		prev := s
		for strings.Contains(s, "&&") {
			s = strings.ReplaceAll(s, "&&", "&")
		}
		s = strings.ReplaceAll(s, "?&", "?")
		s = strings.TrimRight(s, "&?")
		if s == prev {
			return s
		}
	}
}
