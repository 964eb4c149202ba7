package graph

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tags the variant held by a Term.
type Kind uint8

const (
	KindIRI Kind = iota
	KindLiteral
	KindBlank
)

func (k Kind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindLiteral:
		return "literal"
	case KindBlank:
		return "blank"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Term is an RDF term: an IRI, a literal (optionally language-tagged or
// typed), or a blank node. Terms are comparable and usable as map keys.
type Term struct {
	Kind     Kind
	Value    string
	Lang     string // literals only, lowercase
	Datatype string // literals only, absolute IRI
}

// IRI returns a named resource term.
func IRI(v string) Term { return Term{Kind: KindIRI, Value: v} }

// Literal returns a plain literal.
func Literal(v string) Term { return Term{Kind: KindLiteral, Value: v} }

// LangLiteral returns a language-tagged literal.
func LangLiteral(v, lang string) Term {
	return Term{Kind: KindLiteral, Value: v, Lang: strings.ToLower(lang)}
}

// TypedLiteral returns a literal with a datatype IRI.
func TypedLiteral(v, datatype string) Term {
	return Term{Kind: KindLiteral, Value: v, Datatype: datatype}
}

// Blank returns a blank node with the given local label.
func Blank(id string) Term { return Term{Kind: KindBlank, Value: id} }

func (t Term) IsIRI() bool     { return t.Kind == KindIRI }
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }
func (t Term) IsBlank() bool   { return t.Kind == KindBlank }

// String returns the term's lexical value.
func (t Term) String() string { return t.Value }

// NTriples renders the term in N-Triples syntax.
func (t Term) NTriples() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	default:
		s := `"` + escapeLiteral(t.Value) + `"`
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	}
}

// MarshalJSON renders the term as its lexical value.
func (t Term) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Value)
}

// Statement is one (subject, predicate, object) fact.
type Statement struct {
	Subject   Term
	Predicate string
	Object    Term
}

// NewStatement creates a statement.
func NewStatement(s Term, p string, o Term) Statement {
	return Statement{Subject: s, Predicate: p, Object: o}
}

// String returns the statement in N-Triples syntax.
func (s Statement) String() string {
	return fmt.Sprintf("%s <%s> %s .", s.Subject.NTriples(), s.Predicate, s.Object.NTriples())
}
