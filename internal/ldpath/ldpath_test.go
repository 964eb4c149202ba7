package ldpath

import (
	"testing"

	"github.com/agentic-research/authq/internal/graph"
	"github.com/agentic-research/authq/internal/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	place   = graph.IRI("http://sws.geonames.org/5128581/")
	country = graph.IRI("http://sws.geonames.org/6252001/")
	admin   = graph.IRI("http://sws.geonames.org/5128638/")
)

func geoGraph() *graph.MemoryGraph {
	return graph.FromStatements(
		graph.NewStatement(place, vocab.GeoNames+"name", graph.Literal("New York City")),
		graph.NewStatement(place, vocab.GeoNames+"alternateName", graph.LangLiteral("Nueva York", "es")),
		graph.NewStatement(place, vocab.GeoNames+"alternateName", graph.LangLiteral("New York", "en")),
		graph.NewStatement(place, vocab.GeoNames+"population", graph.Literal("8175133")),
		graph.NewStatement(place, vocab.GeoNames+"parentADM1", admin),
		graph.NewStatement(place, vocab.GeoNames+"parentCountry", country),
		graph.NewStatement(admin, vocab.GeoNames+"name", graph.Literal("New York")),
		graph.NewStatement(admin, vocab.GeoNames+"parentCountry", country),
		graph.NewStatement(country, vocab.GeoNames+"name", graph.Literal("United States")),
		graph.NewStatement(country, vocab.GeoNames+"name", graph.LangLiteral("États-Unis", "fr")),
	)
}

func eval(t *testing.T, expr string) []graph.Term {
	t.Helper()
	e, err := Parse(expr, map[string]string{"gn": vocab.GeoNames})
	require.NoError(t, err)
	return e.Evaluate(geoGraph(), place)
}

func TestEvaluate_Hops(t *testing.T) {
	t.Run("zero hops", func(t *testing.T) {
		assert.Equal(t, []graph.Term{place}, eval(t, "."))
	})
	t.Run("one hop", func(t *testing.T) {
		assert.Equal(t, []graph.Term{graph.Literal("New York City")}, eval(t, "gn:name"))
	})
	t.Run("two hops", func(t *testing.T) {
		assert.Equal(t, []graph.Term{graph.Literal("United States"), graph.LangLiteral("États-Unis", "fr")},
			eval(t, "gn:parentCountry / gn:name"))
	})
	t.Run("three hops dedupes", func(t *testing.T) {
		assert.Equal(t, []graph.Term{graph.Literal("United States")},
			eval(t, "gn:parentADM1/gn:parentCountry/gn:name :: xsd:string")[:1])
	})
	t.Run("full iri", func(t *testing.T) {
		assert.Equal(t, []graph.Term{graph.Literal("8175133")}, eval(t, "<http://www.geonames.org/ontology#population>"))
	})
	t.Run("reverse", func(t *testing.T) {
		e, err := Parse("^gn:parentCountry", nil)
		require.NoError(t, err)
		assert.Equal(t, []graph.Term{place, admin}, e.Evaluate(geoGraph(), country))
	})
	t.Run("union", func(t *testing.T) {
		assert.Equal(t, []graph.Term{
			graph.Literal("New York City"),
			graph.LangLiteral("Nueva York", "es"),
			graph.LangLiteral("New York", "en"),
		}, eval(t, "gn:name | gn:alternateName"))
	})
	t.Run("no match is empty", func(t *testing.T) {
		assert.Empty(t, eval(t, "gn:missing / gn:name"))
		assert.Empty(t, eval(t, "gn:name / gn:name"))
	})
}

func TestEvaluate_Coercion(t *testing.T) {
	assert.Equal(t, []graph.Term{graph.TypedLiteral("8175133", vocab.XSDInteger)}, eval(t, "gn:population :: xsd:integer"))
	assert.Equal(t, []graph.Term{graph.TypedLiteral("8175133", vocab.XSDDecimal)}, eval(t, "gn:population :: xsd:double"))
	assert.Empty(t, eval(t, "gn:name :: xsd:integer"))
	assert.Equal(t, []graph.Term{admin}, eval(t, "gn:parentADM1 :: xsd:anyURI"))
	assert.Empty(t, eval(t, "gn:name :: xsd:anyURI"))
	assert.Equal(t, []graph.Term{graph.Literal(admin.Value)}, eval(t, "gn:parentADM1 :: xsd:string"))
	// language tags survive string coercion
	assert.Equal(t, graph.LangLiteral("Nueva York", "es"), eval(t, "gn:alternateName :: xsd:string")[0])
}

func TestParse_Errors(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"nope:name",
		"gn:",
		"gn:name /",
		"gn:name :: xsd:date",
		"gn:name )",
		"<http://unterminated",
		"name",
	}
	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			_, err := Parse(expr, map[string]string{"gn": vocab.GeoNames})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, expr, se.Expr)
		})
	}
}

func TestParse_AuthorityPrefixesOverrideDefaults(t *testing.T) {
	e, err := Parse("skos:prefLabel", map[string]string{"skos": "http://example.org/skos#"})
	require.NoError(t, err)
	g := graph.FromStatements(
		graph.NewStatement(place, "http://example.org/skos#prefLabel", graph.Literal("custom")),
		graph.NewStatement(place, vocab.SkosPrefLabel, graph.Literal("standard")),
	)
	assert.Equal(t, []graph.Term{graph.Literal("custom")}, e.Evaluate(g, place))
}

func TestCache(t *testing.T) {
	c, err := NewCache(2)
	require.NoError(t, err)

	a1, err := c.Compile("gn:name", map[string]string{"gn": vocab.GeoNames})
	require.NoError(t, err)
	a2, err := c.Compile("gn:name", map[string]string{"gn": vocab.GeoNames})
	require.NoError(t, err)
	assert.Same(t, a1, a2)

	// same text, different prefixes: a different expression
	b, err := c.Compile("gn:name", map[string]string{"gn": "http://example.org/gn#"})
	require.NoError(t, err)
	assert.NotSame(t, a1, b)
	assert.Equal(t, 2, c.Len())

	_, err = c.Compile("bogus:x", nil)
	require.Error(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestEvaluate_Deterministic(t *testing.T) {
	e := MustParse("gn:parentCountry/gn:name | gn:alternateName", nil)
	g := geoGraph()
	assert.Equal(t, e.Evaluate(g, place), e.Evaluate(g, place))
}
