package pagination

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

type outcome int

const (
	absent outcome = iota
	parsed
	notInteger
)

// intParam is the parse result of one integer request parameter.
type intParam struct {
	name    string
	raw     string
	value   int
	outcome outcome
}

// lookupInt reads the first of names present in q with a non-blank value.
func lookupInt(q url.Values, names ...string) intParam {
	for _, name := range names {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			continue
		}
		p := intParam{name: name, raw: raw}
		v, err := strconv.Atoi(raw)
		if errors.Is(err, strconv.ErrRange) {
			// Atoi saturates out-of-range values at the int bounds.
			err = nil
		}
		if err != nil {
			p.outcome = notInteger
			return p
		}
		p.value = v
		p.outcome = parsed
		return p
	}
	return intParam{name: names[0]}
}
