package ldpath

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of compiled expressions kept by NewCache(0).
const DefaultCacheSize = 512

// Cache memoizes compiled expressions. Expressions are keyed together with
// the prefix dictionary they were compiled against. Safe for concurrent use.
type Cache struct {
	exprs *lru.Cache[string, *Expr]
}

// NewCache returns a cache holding at most size expressions.
// A size <= 0 selects DefaultCacheSize.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, *Expr](size)
	if err != nil {
		return nil, fmt.Errorf("ldpath cache: %w", err)
	}
	return &Cache{exprs: c}, nil
}

// Compile returns the compiled form of expr, parsing it on first use.
// Syntax errors are not cached.
func (c *Cache) Compile(expr string, prefixes map[string]string) (*Expr, error) {
	key := cacheKey(expr, prefixes)
	if e, ok := c.exprs.Get(key); ok {
		return e, nil
	}
	e, err := Parse(expr, prefixes)
	if err != nil {
		return nil, err
	}
	c.exprs.Add(key, e)
	return e, nil
}

// Len reports the number of cached expressions.
func (c *Cache) Len() int { return c.exprs.Len() }

func cacheKey(expr string, prefixes map[string]string) string {
	keys := make([]string, 0, len(prefixes))
	for k := range prefixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(expr)
	for _, k := range keys {
		b.WriteByte(0)
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(prefixes[k])
	}
	return b.String()
}
