package results

import (
	"strings"

	"github.com/agentic-research/authq/internal/graph"
	"golang.org/x/text/language"
)

// ResolveLanguage picks the effective language list from, in order: the
// request parameter (comma separated), the Accept-Language header, the
// authority default and the site default. The first source that yields at
// least one valid tag wins. Tags are reduced to lowercase base languages and
// deduplicated. A nil result means "do not filter".
func ResolveLanguage(param, acceptLanguage string, authorityDefault, siteDefault []string) []string {
	if l := normalizeList(strings.Split(param, ",")); len(l) > 0 {
		return l
	}
	if l := fromAcceptLanguage(acceptLanguage); len(l) > 0 {
		return l
	}
	if l := normalizeList(authorityDefault); len(l) > 0 {
		return l
	}
	return normalizeList(siteDefault)
}

func fromAcceptLanguage(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return nil
	}
	raw := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == language.Und {
			continue
		}
		raw = append(raw, t.String())
	}
	return normalizeList(raw)
}

func normalizeList(in []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || s == "*" {
			continue
		}
		if _, err := language.Parse(s); err != nil {
			continue
		}
		n := graph.NormalizeLanguage(s)
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
