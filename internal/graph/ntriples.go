package graph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseError reports a malformed N-Triples line.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ntriples line %d: %s", e.Line, e.Reason)
}

// ReadNTriples loads an N-Triples document into a new MemoryGraph.
// Blank lines and '#' comments are skipped.
func ReadNTriples(r io.Reader) (*MemoryGraph, error) {
	g := NewMemoryGraph()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		st, err := parseStatement(text)
		if err != nil {
			return nil, &ParseError{Line: line, Reason: err.Error()}
		}
		g.Add(st)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ntriples: %w", err)
	}
	return g, nil
}

// WriteNTriples serializes g subject by subject.
func WriteNTriples(w io.Writer, g Graph) error {
	bw := bufio.NewWriter(w)
	for _, s := range g.Subjects() {
		for _, st := range g.Statements(s, "") {
			if _, err := fmt.Fprintln(bw, st.String()); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func parseStatement(s string) (Statement, error) {
	p := &ntParser{src: s}
	subj, err := p.term()
	if err != nil {
		return Statement{}, fmt.Errorf("subject: %w", err)
	}
	if subj.IsLiteral() {
		return Statement{}, fmt.Errorf("subject cannot be a literal")
	}
	pred, err := p.term()
	if err != nil {
		return Statement{}, fmt.Errorf("predicate: %w", err)
	}
	if !pred.IsIRI() {
		return Statement{}, fmt.Errorf("predicate must be an IRI")
	}
	obj, err := p.term()
	if err != nil {
		return Statement{}, fmt.Errorf("object: %w", err)
	}
	p.skipSpace()
	if !strings.HasPrefix(p.rest(), ".") {
		return Statement{}, fmt.Errorf("missing terminating '.'")
	}
	p.pos++
	p.skipSpace()
	if r := p.rest(); r != "" && !strings.HasPrefix(r, "#") {
		return Statement{}, fmt.Errorf("trailing content %q", r)
	}
	return NewStatement(subj, pred.Value, obj), nil
}

type ntParser struct {
	src string
	pos int
}

func (p *ntParser) rest() string { return p.src[p.pos:] }

func (p *ntParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *ntParser) term() (Term, error) {
	p.skipSpace()
	r := p.rest()
	switch {
	case strings.HasPrefix(r, "<"):
		v, err := p.iri()
		if err != nil {
			return Term{}, err
		}
		return IRI(v), nil
	case strings.HasPrefix(r, "_:"):
		p.pos += 2
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] != ' ' && p.src[p.pos] != '\t' {
			p.pos++
		}
		// a label may contain '.', but not as its last character
		for p.pos > start && p.src[p.pos-1] == '.' {
			p.pos--
		}
		if p.pos == start {
			return Term{}, fmt.Errorf("empty blank node label")
		}
		return Blank(p.src[start:p.pos]), nil
	case strings.HasPrefix(r, `"`):
		return p.literal()
	case r == "":
		return Term{}, fmt.Errorf("unexpected end of line")
	default:
		return Term{}, fmt.Errorf("unexpected %q", r[:1])
	}
}

func (p *ntParser) iri() (string, error) {
	end := strings.IndexByte(p.rest(), '>')
	if end < 0 {
		return "", fmt.Errorf("unterminated IRI")
	}
	v := p.src[p.pos+1 : p.pos+end]
	p.pos += end + 1
	return unescape(v)
}

func (p *ntParser) literal() (Term, error) {
	p.pos++ // opening quote
	start := p.pos
	for {
		if p.pos >= len(p.src) {
			return Term{}, fmt.Errorf("unterminated literal")
		}
		c := p.src[p.pos]
		if c == '\\' {
			p.pos += 2
			continue
		}
		if c == '"' {
			break
		}
		p.pos++
	}
	lex, err := unescape(p.src[start:p.pos])
	if err != nil {
		return Term{}, err
	}
	p.pos++ // closing quote

	r := p.rest()
	switch {
	case strings.HasPrefix(r, "@"):
		p.pos++
		s := p.pos
		for p.pos < len(p.src) && (isAlnum(p.src[p.pos]) || p.src[p.pos] == '-') {
			p.pos++
		}
		if p.pos == s {
			return Term{}, fmt.Errorf("empty language tag")
		}
		return LangLiteral(lex, p.src[s:p.pos]), nil
	case strings.HasPrefix(r, "^^"):
		p.pos += 2
		if !strings.HasPrefix(p.rest(), "<") {
			return Term{}, fmt.Errorf("datatype must be an IRI")
		}
		dt, err := p.iri()
		if err != nil {
			return Term{}, err
		}
		return TypedLiteral(lex, dt), nil
	default:
		return Literal(lex), nil
	}
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("dangling escape")
		}
		switch s[i] {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case '"', '\'', '\\':
			b.WriteByte(s[i])
		case 'u', 'U':
			n := 4
			if s[i] == 'U' {
				n = 8
			}
			if i+n >= len(s) {
				return "", fmt.Errorf("short \\%c escape", s[i])
			}
			cp, err := strconv.ParseUint(s[i+1:i+1+n], 16, 32)
			if err != nil {
				return "", fmt.Errorf("bad \\%c escape: %w", s[i], err)
			}
			b.WriteRune(rune(cp))
			i += n
		default:
			return "", fmt.Errorf("unknown escape \\%c", s[i])
		}
	}
	return b.String(), nil
}

func escapeLiteral(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
