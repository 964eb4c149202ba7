// Package settings loads site-wide settings from an HCL file.
package settings

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// DefaultFile is the settings file looked up when none is given.
const DefaultFile = "authq.hcl"

// Settings are the site-wide defaults.
//
//	authorities_dir  = "config/authorities"
//	default_language = ["en"]
//	graph_db         = "graphs.db"
//	watch_debounce   = "250ms"
type Settings struct {
	AuthoritiesDir  string   `hcl:"authorities_dir,optional"`
	DefaultLanguage []string `hcl:"default_language,optional"`
	GraphDB         string   `hcl:"graph_db,optional"`
	WatchDebounce   string   `hcl:"watch_debounce,optional"`
	CacheSize       int      `hcl:"ldpath_cache_size,optional"`
}

// Debounce parses WatchDebounce. Zero means the watcher default.
func (s Settings) Debounce() time.Duration {
	d, _ := time.ParseDuration(s.WatchDebounce)
	return d
}

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{
		AuthoritiesDir: "authorities",
		GraphDB:        "graphs.db",
	}
}

// Load decodes path over Default. A missing file is not an error unless
// required is set.
func Load(path string, required bool) (Settings, error) {
	s := Default()
	if path == "" {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read settings: %w", err)
	}
	return Decode(path, data)
}

// Decode parses HCL source over Default. filename is used in diagnostics and
// must end in ".hcl".
func Decode(filename string, src []byte) (Settings, error) {
	s := Default()
	var file Settings
	if err := hclsimple.Decode(filename, src, nil, &file); err != nil {
		return s, fmt.Errorf("decode settings %s: %w", filename, err)
	}
	if file.AuthoritiesDir != "" {
		s.AuthoritiesDir = file.AuthoritiesDir
	}
	if len(file.DefaultLanguage) > 0 {
		s.DefaultLanguage = file.DefaultLanguage
	}
	if file.GraphDB != "" {
		s.GraphDB = file.GraphDB
	}
	if file.CacheSize < 0 {
		return s, fmt.Errorf("decode settings %s: ldpath_cache_size must not be negative", filename)
	}
	if file.WatchDebounce != "" {
		if _, err := time.ParseDuration(file.WatchDebounce); err != nil {
			return s, fmt.Errorf("decode settings %s: watch_debounce: %w", filename, err)
		}
		s.WatchDebounce = file.WatchDebounce
	}
	s.CacheSize = file.CacheSize
	return s, nil
}
