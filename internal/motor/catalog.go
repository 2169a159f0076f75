package motor

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

//go:embed data/*.csv data/*.yaml
var builtin embed.FS

// Catalog is a set of motors keyed by name.
type Catalog struct {
	motors map[string]*Motor
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog of motors shipped with the binary.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Load(builtin, "data")
	})
	return defaultCatalog, defaultErr
}

// Load reads every <name>.yaml in dir of fsys together with its matching
// <name>.csv curve.
func Load(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("motor: read catalog: %w", err)
	}

	c := &Catalog{motors: make(map[string]*Motor)}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		base := strings.TrimSuffix(e.Name(), ".yaml")
		params, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		curve, err := fs.ReadFile(fsys, path.Join(dir, base+".csv"))
		if err != nil {
			return nil, fmt.Errorf("motor: %s: missing thrust curve: %w", base, err)
		}
		m, err := Parse(params, curve)
		if err != nil {
			return nil, err
		}
		c.motors[strings.ToUpper(m.Name())] = m
	}
	return c, nil
}

// Get looks a motor up by name, ignoring case.
func (c *Catalog) Get(name string) (*Motor, error) {
	m, ok := c.motors[strings.ToUpper(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownMotor, name, strings.Join(c.Available(), ", "))
	}
	return m, nil
}

func (c *Catalog) Available() []string {
	names := make([]string, 0, len(c.motors))
	for _, m := range c.motors {
		names = append(names, m.Name())
	}
	sort.Strings(names)
	return names
}
