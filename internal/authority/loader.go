package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/agentic-research/authq/api"
	billy "github.com/go-git/go-billy/v5"
	"gopkg.in/yaml.v3"
)

// LocalDir is the override subdirectory inside an authority directory.
const LocalDir = "local"

// Loader reads authority definitions from a directory: one <name>.json,
// <name>.yaml or <name>.yml file per authority, with optional files of the
// same name under local/ merged over them.
type Loader struct {
	fs  billy.Filesystem
	dir string
}

// NewLoader returns a Loader reading dir on fs.
func NewLoader(fs billy.Filesystem, dir string) *Loader {
	if dir == "" {
		dir = "."
	}
	return &Loader{fs: fs, dir: dir}
}

// Load reads, merges and validates every authority into a Set.
func (l *Loader) Load(ctx context.Context) (*Set, error) {
	defs, err := l.Definitions(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	configs := make([]*Config, 0, len(names))
	for _, name := range names {
		c, err := New(name, defs[name])
		if err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	return NewSet(configs...), nil
}

// Definitions returns the merged, unvalidated definitions keyed by lowercase name.
func (l *Loader) Definitions(ctx context.Context) (map[string]api.Authority, error) {
	base, err := l.readDir(ctx, l.dir, false)
	if err != nil {
		return nil, err
	}
	local, err := l.readDir(ctx, path.Join(l.dir, LocalDir), true)
	if err != nil {
		return nil, err
	}
	for name, override := range local {
		b, ok := base[name]
		if !ok {
			log.Printf("authority %s: local override has no base definition, using it as is", name)
			base[name] = override
			continue
		}
		base[name] = Merge(b, override)
	}
	return base, nil
}

// Definition returns one merged definition.
func (l *Loader) Definition(ctx context.Context, name string) (api.Authority, error) {
	defs, err := l.Definitions(ctx)
	if err != nil {
		return api.Authority{}, err
	}
	def, ok := defs[strings.ToLower(name)]
	if !ok {
		return api.Authority{}, fmt.Errorf("%q: %w", name, ErrUnknownAuthority)
	}
	return def, nil
}

func (l *Loader) readDir(ctx context.Context, dir string, optional bool) (map[string]api.Authority, error) {
	entries, err := l.fs.ReadDir(dir)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return map[string]api.Authority{}, nil
		}
		return nil, fmt.Errorf("read authority dir %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	out := make(map[string]api.Authority, len(entries))
	from := make(map[string]string, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(path.Ext(e.Name()))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			log.Printf("skipping %s: not an authority file", path.Join(dir, e.Name()))
			continue
		}
		name := strings.ToLower(strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
		if prev, dup := from[name]; dup {
			return nil, fmt.Errorf("authority %s defined by both %s and %s", name, prev, e.Name())
		}
		def, err := l.readFile(path.Join(dir, e.Name()), ext)
		if err != nil {
			return nil, err
		}
		out[name] = def
		from[name] = e.Name()
	}
	return out, nil
}

func (l *Loader) readFile(p, ext string) (api.Authority, error) {
	f, err := l.fs.Open(p)
	if err != nil {
		return api.Authority{}, fmt.Errorf("open %s: %w", p, err)
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return api.Authority{}, fmt.Errorf("read %s: %w", p, err)
	}
	def, err := Decode(data, ext)
	if err != nil {
		return api.Authority{}, fmt.Errorf("decode %s: %w", p, err)
	}
	return def, nil
}

// Decode parses an authority definition. ext selects the format: ".json",
// ".yaml" or ".yml".
func Decode(data []byte, ext string) (api.Authority, error) {
	var def api.Authority
	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&def); err != nil {
			return api.Authority{}, err
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
			return api.Authority{}, err
		}
	default:
		return api.Authority{}, fmt.Errorf("unsupported format %q", ext)
	}
	return def, nil
}
