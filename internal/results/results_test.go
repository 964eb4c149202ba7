package results

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/agentic-research/authq/internal/graph"
	"github.com/agentic-research/authq/internal/mapper"
	"github.com/agentic-research/authq/internal/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sortPred = "http://example.org/sort"

func iri(s string) graph.Term { return graph.IRI("http://example.org/" + s) }

func searchFields() map[string]mapper.FieldSource {
	return map[string]mapper.FieldSource{
		mapper.FieldURI:      mapper.FromSubject(),
		mapper.FieldLabel:    mapper.FromPredicate(vocab.RDFSLabel),
		mapper.FieldAltLabel: mapper.FromPredicate(vocab.SkosAltLabel),
		mapper.FieldSort:     mapper.FromPredicate(sortPred),
	}
}

func uris(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Subject.Value
	}
	return out
}

func TestAssemble_SkipsBlankSubjects(t *testing.T) {
	g := graph.FromStatements(
		graph.NewStatement(iri("a"), vocab.RDFSLabel, graph.Literal("A")),
		graph.NewStatement(graph.Blank("b0"), vocab.RDFSLabel, graph.Literal("anon")),
		graph.NewStatement(iri("b"), vocab.RDFSLabel, graph.Literal("B")),
	)
	got, err := NewAssembler(nil).Assemble(g, SearchSpec{Fields: searchFields()})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{iri("a").Value, iri("b").Value}, uris(got))
}

func TestAssemble_SortFieldFilters(t *testing.T) {
	g := graph.FromStatements(
		graph.NewStatement(iri("a"), vocab.RDFSLabel, graph.Literal("A")),
		graph.NewStatement(iri("a"), sortPred, graph.Literal("1")),
		graph.NewStatement(iri("b"), vocab.RDFSLabel, graph.Literal("B")),
		graph.NewStatement(iri("c"), vocab.RDFSLabel, graph.Literal("C")),
		graph.NewStatement(iri("c"), sortPred, graph.Literal("")),
	)
	got, err := NewAssembler(nil).Assemble(g, SearchSpec{Fields: searchFields(), SortField: mapper.FieldSort})
	require.NoError(t, err)
	assert.Equal(t, []string{iri("a").Value}, uris(got))
}

func TestAssemble_NoSortFieldKeepsGraphOrder(t *testing.T) {
	g := graph.FromStatements(
		graph.NewStatement(iri("z"), vocab.RDFSLabel, graph.Literal("Z")),
		graph.NewStatement(iri("a"), vocab.RDFSLabel, graph.Literal("A")),
	)
	got, err := NewAssembler(nil).Assemble(g, SearchSpec{Fields: searchFields()})
	require.NoError(t, err)
	assert.Equal(t, []string{iri("z").Value, iri("a").Value}, uris(got))
}

func TestAssemble_NumericSort(t *testing.T) {
	g := graph.FromStatements(
		graph.NewStatement(iri("ten"), sortPred, graph.Literal("10")),
		graph.NewStatement(iri("two"), sortPred, graph.Literal("2")),
		graph.NewStatement(iri("word"), sortPred, graph.Literal("alpha")),
		graph.NewStatement(iri("one"), sortPred, graph.Literal("1.5")),
	)
	got, err := NewAssembler(nil).Assemble(g, SearchSpec{Fields: searchFields(), SortField: mapper.FieldSort})
	require.NoError(t, err)
	assert.Equal(t, []string{iri("one").Value, iri("two").Value, iri("ten").Value, iri("word").Value}, uris(got))
}

func TestAssemble_CollatedSortIgnoresCase(t *testing.T) {
	g := graph.FromStatements(
		graph.NewStatement(iri("b"), sortPred, graph.Literal("banana")),
		graph.NewStatement(iri("a"), sortPred, graph.Literal("Apple")),
		graph.NewStatement(iri("c"), sortPred, graph.Literal("cherry")),
	)
	got, err := NewAssembler(nil).Assemble(g, SearchSpec{Fields: searchFields(), SortField: mapper.FieldSort})
	require.NoError(t, err)
	assert.Equal(t, []string{iri("a").Value, iri("b").Value, iri("c").Value}, uris(got))
}

func TestAssemble_SortIsStable(t *testing.T) {
	g := graph.FromStatements(
		graph.NewStatement(iri("x"), sortPred, graph.Literal("same")),
		graph.NewStatement(iri("y"), sortPred, graph.Literal("same")),
		graph.NewStatement(iri("w"), sortPred, graph.Literal("earlier")),
		graph.NewStatement(iri("z"), sortPred, graph.Literal("same")),
	)
	got, err := NewAssembler(nil).Assemble(g, SearchSpec{Fields: searchFields(), SortField: mapper.FieldSort})
	require.NoError(t, err)
	assert.Equal(t, []string{iri("w").Value, iri("x").Value, iri("y").Value, iri("z").Value}, uris(got))
}

func TestAssemble_CaseVariantsKeepInputOrder(t *testing.T) {
	g := graph.FromStatements(
		graph.NewStatement(iri("first"), sortPred, graph.Literal("apple")),
		graph.NewStatement(iri("second"), sortPred, graph.Literal("Apple")),
		graph.NewStatement(iri("third"), sortPred, graph.Literal("APPLE")),
	)
	got, err := NewAssembler(nil).Assemble(g, SearchSpec{Fields: searchFields(), SortField: mapper.FieldSort})
	require.NoError(t, err)
	assert.Equal(t, []string{iri("first").Value, iri("second").Value, iri("third").Value}, uris(got))
}

func TestAssemble_SortPrefersLanguage(t *testing.T) {
	g := graph.FromStatements(
		graph.NewStatement(iri("a"), sortPred, graph.LangLiteral("zebra", "en")),
		graph.NewStatement(iri("a"), sortPred, graph.LangLiteral("alpha", "fr")),
		graph.NewStatement(iri("b"), sortPred, graph.LangLiteral("middle", "en")),
	)
	spec := SearchSpec{Fields: searchFields(), SortField: mapper.FieldSort, Languages: []string{"en"}}
	got, err := NewAssembler(nil).Assemble(g, spec)
	require.NoError(t, err)
	assert.Equal(t, []string{iri("b").Value, iri("a").Value}, uris(got))

	spec.Languages = []string{"fr"}
	got, err = NewAssembler(nil).Assemble(g, spec)
	require.NoError(t, err)
	assert.Equal(t, []string{iri("a").Value, iri("b").Value}, uris(got))
}

func TestAssemble_Deterministic(t *testing.T) {
	g := graph.FromStatements(
		graph.NewStatement(iri("a"), sortPred, graph.Literal("3")),
		graph.NewStatement(iri("b"), sortPred, graph.Literal("1")),
		graph.NewStatement(iri("c"), sortPred, graph.Literal("2")),
		graph.NewStatement(iri("c"), vocab.RDFSLabel, graph.Literal("C")),
	)
	spec := SearchSpec{Fields: searchFields(), SortField: mapper.FieldSort}
	first, err := NewAssembler(nil).Assemble(g, spec)
	require.NoError(t, err)
	for range 5 {
		again, err := NewAssembler(nil).Assemble(g, spec)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAssemble_Context(t *testing.T) {
	g := graph.FromStatements(
		graph.NewStatement(iri("a"), vocab.RDFSLabel, graph.Literal("A")),
		graph.NewStatement(iri("a"), vocab.SkosBroader, iri("parent")),
		graph.NewStatement(iri("b"), vocab.RDFSLabel, graph.Literal("B")),
	)
	spec := SearchSpec{
		Fields: searchFields(),
		Context: &mapper.ContextSpec{Properties: []mapper.ContextProperty{
			{Label: "Broader", Source: mapper.FromPredicate(vocab.SkosBroader)},
		}},
	}
	got, err := NewAssembler(nil).Assemble(g, spec)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Len(t, got[0].Context, 1)
	assert.Equal(t, []string{iri("parent").Value}, got[0].Context[0].Values)
	assert.NotNil(t, got[1].Context)
	assert.Empty(t, got[1].Context)

	raw, err := json.Marshal(got[1])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"context":[]`)
}

func TestAssemble_PathError(t *testing.T) {
	g := graph.FromStatements(graph.NewStatement(iri("a"), vocab.RDFSLabel, graph.Literal("A")))
	_, err := NewAssembler(nil).Assemble(g, SearchSpec{Fields: map[string]mapper.FieldSource{
		"broken": mapper.FromPath("skos:broader/(", nil),
	}})
	require.Error(t, err)
}

func TestPickValue(t *testing.T) {
	vs := []graph.Term{
		graph.LangLiteral("Londres", "fr"),
		graph.Literal(""),
		graph.Literal("London"),
		graph.LangLiteral("London", "en"),
	}
	assert.Equal(t, "Londres", PickValue(vs, []string{"fr", "en"}).Value)
	assert.Equal(t, graph.LangLiteral("London", "en"), PickValue(vs, []string{"de", "en"}))
	assert.Equal(t, graph.Literal("London"), PickValue(vs, []string{"de"}))
	assert.Equal(t, graph.Literal("London"), PickValue(vs, nil))
	assert.Equal(t, "Londres", PickValue(vs[:1], []string{"de"}).Value)
	assert.Equal(t, graph.Term{}, PickValue(nil, nil))
}

func TestFullLabel(t *testing.T) {
	tests := []struct {
		name      string
		labels    []string
		altlabels []string
		want      string
	}{
		{"single", []string{"Twain, Mark"}, nil, "Twain, Mark"},
		{"multiple", []string{"Cats", "Felines"}, nil, "[Cats, Felines]"},
		{"alt labels", []string{"Cats"}, []string{"Kitty", "Puss"}, "Cats (Kitty, Puss)"},
		{"empty", nil, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FullLabel(tt.labels, tt.altlabels))
		})
	}
}

func TestFullLabel_Truncates(t *testing.T) {
	long := strings.Repeat("x", 120)
	got := FullLabel([]string{long}, nil)
	assert.Len(t, got, 98)
	assert.True(t, strings.HasSuffix(got, "..."))

	exact := strings.Repeat("y", 98)
	assert.Equal(t, exact, FullLabel([]string{exact}, nil))
}

func TestFormatSearch(t *testing.T) {
	g := graph.FromStatements(
		graph.NewStatement(iri("a"), vocab.RDFSLabel, graph.LangLiteral("Chat", "fr")),
		graph.NewStatement(iri("a"), vocab.RDFSLabel, graph.LangLiteral("Cat", "en")),
		graph.NewStatement(iri("a"), vocab.SkosAltLabel, graph.LangLiteral("Kitty", "en")),
		graph.NewStatement(iri("a"), vocab.DCTermsID, graph.Literal("a-1")),
		graph.NewStatement(iri("b"), vocab.RDFSLabel, graph.Literal("Dog")),
	)
	fields := searchFields()
	fields[mapper.FieldID] = mapper.FromPredicate(vocab.DCTermsID)
	records, err := NewAssembler(nil).Assemble(g, SearchSpec{Fields: fields})
	require.NoError(t, err)

	got := FormatSearch(append(records, records[0]), []string{"en"})
	require.Len(t, got, 2)
	assert.Equal(t, SearchResult{URI: iri("a").Value, ID: "a-1", Label: "Cat (Kitty)"}, got[0])
	assert.Equal(t, SearchResult{URI: iri("b").Value, ID: iri("b").Value, Label: "Dog"}, got[1])
}

func TestAssembleTerm(t *testing.T) {
	g := graph.FromStatements(
		graph.NewStatement(iri("a"), vocab.SkosPrefLabel, graph.LangLiteral("Cat", "en")),
		graph.NewStatement(iri("a"), vocab.SkosPrefLabel, graph.LangLiteral("Chat", "fr")),
		graph.NewStatement(iri("a"), vocab.SkosBroader, iri("animal")),
		graph.NewStatement(iri("a"), vocab.DCTermsID, graph.Literal("a-1")),
	)
	fields := map[string]mapper.FieldSource{
		mapper.FieldURI:      mapper.FromSubject(),
		mapper.FieldID:       mapper.FromPredicate(vocab.DCTermsID),
		mapper.FieldLabel:    mapper.FromPredicate(vocab.SkosPrefLabel),
		mapper.FieldAltLabel: mapper.FromPredicate(vocab.SkosAltLabel),
		mapper.FieldBroader:  mapper.FromPath("skos:broader", nil),
	}
	a := NewAssembler(nil)
	term, err := a.AssembleTerm(g, iri("a"), TermSpec{Fields: fields, Languages: []string{"fr"}})
	require.NoError(t, err)
	assert.Equal(t, iri("a").Value, term.URI)
	assert.Equal(t, "a-1", term.ID)
	assert.Equal(t, []string{"Chat"}, term.Label)
	assert.Equal(t, []string{}, term.AltLabel)
	assert.Equal(t, []string{iri("animal").Value}, term.Broader)
	assert.Equal(t, []string{"Cat", "Chat"}, term.Predicates[vocab.SkosPrefLabel])

	_, err = a.AssembleTerm(g, iri("missing"), TermSpec{Fields: fields})
	require.ErrorIs(t, err, graph.ErrNotFound)
}

func TestFindTermSubject(t *testing.T) {
	g := graph.FromStatements(
		graph.NewStatement(graph.Blank("x"), vocab.DCTermsID, graph.Literal("a-1")),
		graph.NewStatement(iri("a"), vocab.DCTermsID, graph.Literal("a-1")),
	)
	a := NewAssembler(nil)

	s, err := a.FindTermSubject(g, "a-1", mapper.FromPredicate(vocab.DCTermsID), false)
	require.NoError(t, err)
	assert.Equal(t, iri("a"), s)

	s, err = a.FindTermSubject(g, iri("a").Value, mapper.FieldSource{}, true)
	require.NoError(t, err)
	assert.Equal(t, iri("a"), s)

	_, err = a.FindTermSubject(g, "nope", mapper.FromPredicate(vocab.DCTermsID), false)
	require.ErrorIs(t, err, graph.ErrNotFound)
}

func TestResolveLanguage(t *testing.T) {
	tests := []struct {
		name      string
		param     string
		accept    string
		authority []string
		site      []string
		want      []string
	}{
		{"param wins", "FR, en-GB", "de", []string{"es"}, []string{"it"}, []string{"fr", "en"}},
		{"accept header", "", "de-CH;q=0.8, en;q=0.9", []string{"es"}, nil, []string{"en", "de"}},
		{"authority default", "", "", []string{"es"}, []string{"it"}, []string{"es"}},
		{"site default", "", "*", nil, []string{"it"}, []string{"it"}},
		{"unfiltered", "", "", nil, nil, nil},
		{"invalid param falls through", "!!", "", []string{"es"}, nil, []string{"es"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveLanguage(tt.param, tt.accept, tt.authority, tt.site))
		})
	}
}
