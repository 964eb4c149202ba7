// Package ldpath evaluates a small path language over graphs.
//
//	path  := union ( "::" type )?
//	union := seq ( "|" seq )*
//	seq   := step ( "/" step )*
//	step  := "." | "^"? ( prefix ":" local | "<" iri ">" )
//
// "." is the context node itself (zero hops) and "^" walks a predicate
// backwards. The optional type coerces or filters the values reached.
package ldpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/agentic-research/authq/internal/graph"
	"github.com/agentic-research/authq/internal/vocab"
)

// ErrSyntax is wrapped by every SyntaxError.
var ErrSyntax = errors.New("ldpath syntax error")

// SyntaxError reports an expression that cannot be parsed.
type SyntaxError struct {
	Expr   string
	Pos    int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at %d in %q: %s", ErrSyntax, e.Pos, e.Expr, e.Reason)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// Coercion is the type suffix of an expression.
type Coercion int

const (
	NoCoercion Coercion = iota
	AsString
	AsURI
	AsInteger
	AsDecimal
	AsBoolean
)

var coercions = map[string]Coercion{
	vocab.XSDString:  AsString,
	vocab.XSDAnyURI:  AsURI,
	vocab.XSDInteger: AsInteger,
	vocab.XSDInt:     AsInteger,
	vocab.XSDLong:    AsInteger,
	vocab.XSDDecimal: AsDecimal,
	vocab.XSDDouble:  AsDecimal,
	vocab.XSDFloat:   AsDecimal,
	vocab.XSDBoolean: AsBoolean,
}

type step struct {
	self      bool
	reverse   bool
	predicate string
}

// Expr is a compiled path expression. It is immutable.
type Expr struct {
	src    string
	alts   [][]step
	coerce Coercion
}

// String returns the source text.
func (e *Expr) String() string { return e.src }

// Coercion returns the type suffix.
func (e *Expr) Coercion() Coercion { return e.coerce }

// Parse compiles expr, resolving prefixed names through prefixes layered
// over the built-in vocab dictionary.
func Parse(expr string, prefixes map[string]string) (*Expr, error) {
	p := &parser{src: expr, prefixes: vocab.Prefixes(prefixes)}
	return p.parse()
}

// MustParse is Parse for expressions known to be valid.
func MustParse(expr string, prefixes map[string]string) *Expr {
	e, err := Parse(expr, prefixes)
	if err != nil {
		panic(err)
	}
	return e
}

// Evaluate returns the values reached from subject, deduplicated in
// first-seen order. No match yields an empty result, never an error.
func (e *Expr) Evaluate(g graph.Graph, subject graph.Term) []graph.Term {
	var out []graph.Term
	seen := make(map[graph.Term]struct{})
	for _, seq := range e.alts {
		for _, v := range walk(g, []graph.Term{subject}, seq) {
			v, ok := coerce(v, e.coerce)
			if !ok {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func walk(g graph.Graph, frontier []graph.Term, seq []step) []graph.Term {
	for _, st := range seq {
		if st.self {
			continue
		}
		var next []graph.Term
		for _, n := range frontier {
			if st.reverse {
				next = append(next, graph.Referrers(g, n, st.predicate)...)
				continue
			}
			if n.IsLiteral() {
				continue
			}
			next = append(next, graph.Objects(g, n, st.predicate)...)
		}
		if len(next) == 0 {
			return nil
		}
		frontier = next
	}
	return frontier
}

func coerce(t graph.Term, c Coercion) (graph.Term, bool) {
	switch c {
	case NoCoercion:
		return t, true
	case AsString:
		switch t.Kind {
		case graph.KindLiteral:
			return graph.Term{Kind: graph.KindLiteral, Value: t.Value, Lang: t.Lang}, true
		case graph.KindIRI:
			return graph.Literal(t.Value), true
		default:
			return t, false
		}
	case AsURI:
		return t, t.IsIRI()
	case AsInteger:
		if !t.IsLiteral() {
			return t, false
		}
		n, err := strconv.ParseInt(strings.TrimSpace(t.Value), 10, 64)
		if err != nil {
			return t, false
		}
		return graph.TypedLiteral(strconv.FormatInt(n, 10), vocab.XSDInteger), true
	case AsDecimal:
		if !t.IsLiteral() {
			return t, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
		if err != nil {
			return t, false
		}
		return graph.TypedLiteral(strconv.FormatFloat(f, 'f', -1, 64), vocab.XSDDecimal), true
	case AsBoolean:
		if !t.IsLiteral() {
			return t, false
		}
		switch strings.TrimSpace(t.Value) {
		case "true", "1":
			return graph.TypedLiteral("true", vocab.XSDBoolean), true
		case "false", "0":
			return graph.TypedLiteral("false", vocab.XSDBoolean), true
		}
		return t, false
	}
	return t, false
}

// -----------------------------------------------------------------------------
// Parser
// -----------------------------------------------------------------------------

type parser struct {
	src      string
	pos      int
	prefixes map[string]string
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Expr: p.src, Pos: p.pos, Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func (p *parser) peek(s string) bool {
	p.skipSpace()
	return strings.HasPrefix(p.src[p.pos:], s)
}

func (p *parser) parse() (*Expr, error) {
	if strings.TrimSpace(p.src) == "" {
		return nil, p.errorf("empty expression")
	}
	e := &Expr{src: p.src}
	for {
		seq, err := p.sequence()
		if err != nil {
			return nil, err
		}
		e.alts = append(e.alts, seq)
		if !p.peek("|") {
			break
		}
		p.pos++
	}
	if p.peek("::") {
		p.pos += 2
		p.skipSpace()
		iri, err := p.name()
		if err != nil {
			return nil, err
		}
		c, ok := coercions[iri]
		if !ok {
			return nil, p.errorf("unsupported type %q", iri)
		}
		e.coerce = c
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return e, nil
}

func (p *parser) sequence() ([]step, error) {
	var seq []step
	for {
		st, err := p.step()
		if err != nil {
			return nil, err
		}
		seq = append(seq, st)
		if !p.peek("/") {
			return seq, nil
		}
		p.pos++
	}
}

func (p *parser) step() (step, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return step{}, p.errorf("expected a step")
	}
	if p.src[p.pos] == '.' {
		p.pos++
		return step{self: true}, nil
	}
	var st step
	if p.src[p.pos] == '^' {
		st.reverse = true
		p.pos++
		p.skipSpace()
	}
	iri, err := p.name()
	if err != nil {
		return step{}, err
	}
	st.predicate = iri
	return st, nil
}

// name reads "<iri>" or "prefix:local" and returns the absolute IRI.
func (p *parser) name() (string, error) {
	if p.pos >= len(p.src) {
		return "", p.errorf("expected a predicate")
	}
	if p.src[p.pos] == '<' {
		end := strings.IndexByte(p.src[p.pos:], '>')
		if end < 0 {
			return "", p.errorf("unterminated IRI")
		}
		iri := p.src[p.pos+1 : p.pos+end]
		if iri == "" {
			return "", p.errorf("empty IRI")
		}
		p.pos += end + 1
		return iri, nil
	}

	start := p.pos
	for p.pos < len(p.src) && isNameChar(p.src[p.pos]) {
		p.pos++
	}
	prefix := p.src[start:p.pos]
	if p.pos >= len(p.src) || p.src[p.pos] != ':' || prefix == "" {
		p.pos = start
		return "", p.errorf("expected prefix:local or <iri>")
	}
	p.pos++ // ':'
	lstart := p.pos
	for p.pos < len(p.src) && isLocalChar(p.src[p.pos]) {
		p.pos++
	}
	local := p.src[lstart:p.pos]
	if local == "" {
		return "", p.errorf("empty local name after %q", prefix+":")
	}
	ns, ok := p.prefixes[prefix]
	if !ok {
		p.pos = start
		return "", p.errorf("unknown prefix %q", prefix)
	}
	return ns + local, nil
}

func isNameChar(c byte) bool {
	return c == '_' || c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isLocalChar(c byte) bool {
	return isNameChar(c) || c == '.' || c == '#'
}
