package graph

import (
	"strings"

	"golang.org/x/text/language"
)

// NormalizeLanguage reduces a language tag to its lowercase base subtag
// ("en-US" -> "en"). Unparseable tags are lowercased and returned as-is.
func NormalizeLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	t, err := language.Parse(tag)
	if err != nil {
		return strings.ToLower(tag)
	}
	base, _ := t.Base()
	return strings.ToLower(base.String())
}

// LangMatches reports whether tag matches any entry of langs by base language.
func LangMatches(tag string, langs []string) bool {
	if tag == "" {
		return false
	}
	b := NormalizeLanguage(tag)
	for _, l := range langs {
		if NormalizeLanguage(l) == b {
			return true
		}
	}
	return false
}

// FilterLanguage returns a view of g that hides language-tagged literals
// whose language is not in langs. IRIs, blank nodes and untagged literals
// are always kept. An empty langs returns g unchanged.
func FilterLanguage(g Graph, langs []string) Graph {
	if len(langs) == 0 {
		return g
	}
	return &languageView{Graph: g, langs: langs}
}

type languageView struct {
	Graph
	langs []string
}

func (v *languageView) Statements(subject Term, predicate string) []Statement {
	stmts := v.Graph.Statements(subject, predicate)
	out := stmts[:0:0]
	for _, st := range stmts {
		if st.Object.IsLiteral() && st.Object.Lang != "" && !LangMatches(st.Object.Lang, v.langs) {
			continue
		}
		out = append(out, st)
	}
	return out
}

func (v *languageView) Referrers(object Term, predicate string) []Term {
	if object.IsLiteral() && object.Lang != "" && !LangMatches(object.Lang, v.langs) {
		return nil
	}
	return Referrers(v.Graph, object, predicate)
}
