package results

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// keyComparer orders sort keys: numeric-looking keys compare numerically and
// precede everything else; the rest are collated for the preferred language.
// Keys equal under collation tie, so a stable sort keeps their input order.
type keyComparer struct {
	col *collate.Collator
}

func newKeyComparer(langs []string) *keyComparer {
	tag := language.Und
	if len(langs) > 0 {
		if t, err := language.Parse(langs[0]); err == nil {
			tag = t
		}
	}
	return &keyComparer{col: collate.New(tag, collate.IgnoreCase)}
}

func (c *keyComparer) less(a, b string) bool {
	na, aNum := parseNumber(a)
	nb, bNum := parseNumber(b)
	switch {
	case aNum && bNum:
		return na < nb
	case aNum != bNum:
		return aNum
	}
	return c.col.CompareString(a, b) < 0
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
