package format

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/padraicbc/racefeat/errs"
)

//go:embed defs/*.yaml
var embedded embed.FS

var extensions = []string{".yaml", ".yml", ".json"}

// Catalog resolves data-type codes to definitions. Sources are searched in
// order and the first file found wins. Results are memoized for the life of
// the catalog; Load is safe for concurrent use.
type Catalog struct {
	sources []fs.FS

	mu    sync.Mutex
	cache map[string]*Definition
}

// NewCatalog builds a catalog over one or more filesystems holding
// <code>.yaml / <code>.yml / <code>.json files (lower-case code).
func NewCatalog(sources ...fs.FS) *Catalog {
	return &Catalog{sources: sources, cache: make(map[string]*Definition)}
}

// Default returns a catalog over the embedded JRDB layouts.
func Default() *Catalog {
	return NewCatalog(builtin())
}

// WithDir returns a catalog where definitions in dir override the embedded ones.
func WithDir(dir string) *Catalog {
	if dir == "" {
		return Default()
	}
	return NewCatalog(os.DirFS(dir), builtin())
}

func builtin() fs.FS {
	sub, err := fs.Sub(embedded, "defs")
	if err != nil {
		panic(err)
	}
	return sub
}

// Load returns the definition for code, or *errs.FormatNotFoundError when
// it is unknown or fails validation. Repeated calls return the same pointer.
func (c *Catalog) Load(code string) (*Definition, error) {
	code = normalize(code)

	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.cache[code]; ok {
		return d, nil
	}
	d, err := c.read(code)
	if err != nil {
		return nil, err
	}
	c.cache[code] = d
	return d, nil
}

// Lookup is the optional form of Load: unknown or invalid codes report false.
func (c *Catalog) Lookup(code string) (*Definition, bool) {
	d, err := c.Load(code)
	return d, err == nil
}

// Warm loads every named code (all known codes when none are given) so the
// catalog can be shared read-only by parallel workers.
func (c *Catalog) Warm(codes ...string) error {
	if len(codes) == 0 {
		codes = c.Codes()
	}
	for _, code := range codes {
		if _, err := c.Load(code); err != nil {
			return err
		}
	}
	return nil
}

// Codes lists the data types available across all sources, sorted.
func (c *Catalog) Codes() []string {
	set := map[string]bool{}
	for _, src := range c.sources {
		entries, err := fs.ReadDir(src, ".")
		if err != nil {
			continue
		}
		for _, e := range entries {
			ext := path.Ext(e.Name())
			if e.IsDir() || !knownExt(ext) {
				continue
			}
			set[normalize(strings.TrimSuffix(e.Name(), ext))] = true
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) read(code string) (*Definition, error) {
	base := strings.ToLower(code)
	for _, src := range c.sources {
		for _, ext := range extensions {
			name := base + ext
			data, err := fs.ReadFile(src, name)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, &errs.FormatNotFoundError{DataType: code, Err: err}
			}
			d, err := Parse(name, data)
			if err != nil {
				return nil, &errs.FormatNotFoundError{DataType: code, Reason: err.Error()}
			}
			if normalize(d.DataType) != code {
				return nil, &errs.FormatNotFoundError{
					DataType: code,
					Reason:   fmt.Sprintf("file %s declares data_type %q", name, d.DataType),
				}
			}
			d.DataType = code
			return d, nil
		}
	}
	return nil, &errs.FormatNotFoundError{DataType: code}
}

// Parse decodes and validates a definition; the format is chosen by the
// file extension of name.
func Parse(name string, data []byte) (*Definition, error) {
	var d Definition
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported definition file %q", name)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func knownExt(ext string) bool {
	for _, e := range extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
