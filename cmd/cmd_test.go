package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentic-research/authq/internal/authority"
	"github.com/agentic-research/authq/internal/results"
	"github.com/agentic-research/authq/internal/settings"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const locAuthority = `{
  "search": {
    "url": "https://id.loc.gov/search/?q=__QUERY__&q=cs:__SUBAUTH__&count={count}",
    "subauthorities": {
      "pattern": "__SUBAUTH__",
      "default": "all",
      "names": {
        "all": "http://id.loc.gov/authorities/names",
        "personal": "http://id.loc.gov/authorities/names/personal"
      }
    },
    "replacements": [{"param": "count", "pattern": "{count}", "default": "20"}],
    "language": "en",
    "results": {
      "id_predicate": "http://purl.org/dc/terms/identifier",
      "label_predicate": "http://www.loc.gov/mads/rdf/v1#authoritativeLabel",
      "sort_predicate": "http://www.loc.gov/mads/rdf/v1#authoritativeLabel"
    },
    "context": {
      "properties": [
        {"property_label_default": "Identifier", "predicate": "http://purl.org/dc/terms/identifier"}
      ]
    }
  },
  "term": {
    "url": "https://id.loc.gov/authorities/names/__TERM_ID__.nt",
    "term_id": "ID",
    "results": {
      "id_predicate": "http://purl.org/dc/terms/identifier",
      "label_predicate": "http://www.loc.gov/mads/rdf/v1#authoritativeLabel",
      "altlabel_ldpath": "madsrdf:hasVariant/madsrdf:variantLabel"
    }
  }
}`

const namesGraph = `<http://id.loc.gov/authorities/names/n1> <http://www.loc.gov/mads/rdf/v1#authoritativeLabel> "Twain, Mark"@en .
<http://id.loc.gov/authorities/names/n1> <http://www.loc.gov/mads/rdf/v1#authoritativeLabel> "Twain, Marc"@fr .
<http://id.loc.gov/authorities/names/n1> <http://purl.org/dc/terms/identifier> "n1" .
<http://id.loc.gov/authorities/names/n1> <http://www.loc.gov/mads/rdf/v1#hasVariant> _:v1 .
_:v1 <http://www.loc.gov/mads/rdf/v1#variantLabel> "Clemens, Samuel" .
<http://id.loc.gov/authorities/names/n2> <http://www.loc.gov/mads/rdf/v1#authoritativeLabel> "Austen, Jane"@en .
<http://id.loc.gov/authorities/names/n2> <http://purl.org/dc/terms/identifier> "n2" .
`

// setupSite points the package settings at a fresh fixture directory.
func setupSite(t *testing.T) (string, *authority.Set) {
	t.Helper()
	dir := t.TempDir()
	authDir := filepath.Join(dir, "authorities")
	require.NoError(t, os.MkdirAll(authDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(authDir, "loc.json"), []byte(locAuthority), 0o644))
	graphFile := filepath.Join(dir, "names.nt")
	require.NoError(t, os.WriteFile(graphFile, []byte(namesGraph), 0o644))

	prev := site
	site = settings.Default()
	site.AuthoritiesDir = authDir
	site.GraphDB = filepath.Join(dir, "graphs.db")
	t.Cleanup(func() { site = prev })

	set, err := loadSet(context.Background())
	require.NoError(t, err)
	return graphFile, set
}

func TestRunURL(t *testing.T) {
	_, set := setupSite(t)

	var out bytes.Buffer
	require.NoError(t, runURL(&out, set, "LOC", "search", "twain", urlOptions{
		subauth: "personal",
		params:  []string{"count=5"},
	}))
	var got map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "https://id.loc.gov/search/?q=twain&q=cs:http://id.loc.gov/authorities/names/personal&count=5", got["url"])

	out.Reset()
	require.NoError(t, runURL(&out, set, "loc", "term", "n79021164", urlOptions{}))
	assert.Contains(t, out.String(), "https://id.loc.gov/authorities/names/n79021164.nt")

	assert.Error(t, runURL(&out, set, "loc", "search", "x", urlOptions{subauth: "corporate"}))
	assert.Error(t, runURL(&out, set, "loc", "search", "x", urlOptions{params: []string{"novalue"}}))
	assert.Error(t, runURL(&out, set, "loc", "search", "x", urlOptions{escape: "some"}))
	assert.ErrorIs(t, runURL(&out, set, "viaf", "search", "x", urlOptions{}), authority.ErrUnknownAuthority)
}

func TestRunSearch(t *testing.T) {
	graphFile, set := setupSite(t)

	var out bytes.Buffer
	require.NoError(t, runSearch(context.Background(), &out, set, "loc", searchOptions{
		source: graphSource{file: graphFile},
		format: "json",
	}))
	var got []results.SearchResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, results.SearchResult{URI: "http://id.loc.gov/authorities/names/n2", ID: "n2", Label: "Austen, Jane"}, got[0])
	assert.Equal(t, results.SearchResult{URI: "http://id.loc.gov/authorities/names/n1", ID: "n1", Label: "Twain, Mark"}, got[1])
}

func TestRunSearch_RequestedLanguage(t *testing.T) {
	graphFile, set := setupSite(t)

	var out bytes.Buffer
	require.NoError(t, runSearch(context.Background(), &out, set, "loc", searchOptions{
		source:         graphSource{file: graphFile},
		acceptLanguage: "fr-CA",
		format:         "json",
	}))
	var got []results.SearchResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Twain, Marc", got[0].Label)
}

func TestRunSearch_ContextAndPaging(t *testing.T) {
	graphFile, set := setupSite(t)

	var out bytes.Buffer
	require.NoError(t, runSearch(context.Background(), &out, set, "loc", searchOptions{
		source:  graphSource{file: graphFile},
		context: true,
		pageURL: "http://localhost:3000/authorities/search/loc?q=twain&page_offset=2&page_limit=1",
		format:  "json-api",
	}))
	var got struct {
		Data  []results.SearchResult `json:"data"`
		Meta  map[string]map[string]any
		Links map[string]string
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got.Data, 1)
	assert.Equal(t, "n1", got.Data[0].ID)
	require.Len(t, got.Data[0].Context, 1)
	assert.Equal(t, []string{"n1"}, got.Data[0].Context[0].Values)
	assert.EqualValues(t, 2, got.Meta["page"]["total_num_found"])
	assert.Equal(t, "http://localhost:3000/authorities/search/loc?page_limit=1&page_offset=1&q=twain", got.Links["prev"])
	assert.NotContains(t, got.Links, "next")
}

func TestRunSearch_Errors(t *testing.T) {
	graphFile, set := setupSite(t)
	var out bytes.Buffer
	assert.Error(t, runSearch(context.Background(), &out, set, "loc", searchOptions{format: "json"}))
	assert.Error(t, runSearch(context.Background(), &out, set, "loc", searchOptions{source: graphSource{file: graphFile}, format: "xml"}))
	assert.Error(t, runSearch(context.Background(), &out, set, "loc", searchOptions{
		source: graphSource{file: graphFile, name: "names"}, format: "json",
	}))
}

func TestRunTerm(t *testing.T) {
	graphFile, set := setupSite(t)

	var out bytes.Buffer
	require.NoError(t, runTerm(context.Background(), &out, set, "loc", "n1", termOptions{
		source: graphSource{file: graphFile},
	}))
	var got results.TermResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "http://id.loc.gov/authorities/names/n1", got.URI)
	assert.Equal(t, "n1", got.ID)
	assert.Equal(t, []string{"Twain, Mark"}, got.Label)
	assert.Equal(t, []string{"Clemens, Samuel"}, got.AltLabel)

	err := runTerm(context.Background(), &out, set, "loc", "n404", termOptions{source: graphSource{file: graphFile}})
	require.Error(t, err)
}

func TestRunPaginate(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader(`[{"id":1},{"id":2},{"id":3}]`)
	require.NoError(t, runPaginate(in, &out, paginateOptions{url: "/search?page_offset=0", format: "json-api"}))
	assert.Contains(t, out.String(), `"status": 902`)
	assert.Contains(t, out.String(), `"data": []`)

	out.Reset()
	in = strings.NewReader(`[{"id":1},{"id":2},{"id":3}]`)
	require.NoError(t, runPaginate(in, &out, paginateOptions{url: "/search?page_offset=2&page_limit=1"}))
	var got []map[string]int
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, []map[string]int{{"id": 2}}, got)

	assert.Error(t, runPaginate(strings.NewReader(`{`), &out, paginateOptions{}))
}

func TestRunImportAndGraphs(t *testing.T) {
	graphFile, set := setupSite(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, runImport(ctx, &out, graphFile, importOptions{}))
	assert.Contains(t, out.String(), `"name": "names"`)
	assert.Contains(t, out.String(), `"statements": 7`)

	out.Reset()
	require.NoError(t, runSearch(ctx, &out, set, "loc", searchOptions{source: graphSource{name: "names"}, format: "json"}))
	var got []results.SearchResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Len(t, got, 2)

	out.Reset()
	require.NoError(t, runGraphs(ctx, &out, graphsOptions{}))
	assert.JSONEq(t, `["names"]`, out.String())

	out.Reset()
	require.NoError(t, runGraphs(ctx, &out, graphsOptions{delete: "names"}))
	assert.JSONEq(t, `[]`, out.String())

	assert.Error(t, runGraphs(ctx, &out, graphsOptions{delete: "names"}))
}

func TestRunConfig(t *testing.T) {
	setupSite(t)
	ctx := context.Background()
	loader := authority.NewLoader(osfs.New(site.AuthoritiesDir), ".")

	var out bytes.Buffer
	require.NoError(t, runConfig(ctx, &out, loader, "loc", "$.search.results.label_predicate"))
	assert.JSONEq(t, `["http://www.loc.gov/mads/rdf/v1#authoritativeLabel"]`, out.String())

	out.Reset()
	require.NoError(t, runConfig(ctx, &out, loader, "loc", "$.nothing"))
	assert.JSONEq(t, `[]`, out.String())

	out.Reset()
	require.NoError(t, runConfig(ctx, &out, loader, "loc", ""))
	assert.Contains(t, out.String(), `"term_id": "ID"`)

	assert.Error(t, runConfig(ctx, &out, loader, "loc", "$[[["))
	assert.ErrorIs(t, runConfig(ctx, &out, loader, "viaf", ""), authority.ErrUnknownAuthority)
}

func TestRunList(t *testing.T) {
	_, set := setupSite(t)
	var out bytes.Buffer
	require.NoError(t, runList(&out, set))
	assert.JSONEq(t, `[{"name":"loc","operations":["search","term"],"subauthorities":["all","personal"]}]`, out.String())
}

func TestReloadReporter(t *testing.T) {
	_, set := setupSite(t)
	var out bytes.Buffer
	report := reloadReporter(&out)
	report(set, nil)
	report(authority.NewSet(), assert.AnError)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	var first, second reloadEvent
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, []string{"loc"}, first.Authorities)
	assert.Empty(t, first.Error)
	assert.Equal(t, []string{}, second.Authorities)
	assert.Equal(t, assert.AnError.Error(), second.Error)
}
