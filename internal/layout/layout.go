// Package layout loads layout templates, validates their inheritance chains
// and wraps rendered documents in them.
package layout

import (
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
)

// MaxLayoutDepth bounds the length of a layout chain.
const MaxLayoutDepth = 16

// Layout is one template, optionally wrapped by a parent layout.
type Layout struct {
	Name     string // path relative to the layouts directory, without extension
	Parent   string
	Path     string
	Metadata map[string]any

	tmpl *template.Template
}

// Set is the validated collection of layouts.
type Set struct {
	dir     string
	layouts map[string]*Layout
	funcs   template.FuncMap
}

// Option configures a Set.
type Option func(*Set)

// WithSiteURL sets the base used by the absURL and relURL functions.
func WithSiteURL(u string) Option {
	return func(s *Set) { s.funcs = funcMap(u) }
}

// LoadSet parses every layout below dir whose extension is in exts and
// validates all chains. A missing directory yields an empty set.
func LoadSet(dir string, exts []string, opts ...Option) (*Set, error) {
	s := &Set{dir: dir, layouts: map[string]*Layout{}, funcs: funcMap("")}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.WrapError(err, errors.CategoryIO, "failed to read layouts directory").
			WithContext("path", dir).Fatal().Build()
	}

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(p), "."))
		if !slices.Contains(exts, ext) {
			return nil
		}
		return s.load(p)
	})
	if err != nil {
		if errors.IsClassified(err) {
			return nil, err
		}
		return nil, errors.WrapError(err, errors.CategoryIO, "failed to read layouts directory").
			WithContext("path", dir).Fatal().Build()
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Set) load(p string) error {
	rel, err := filepath.Rel(s.dir, p)
	if err != nil {
		return err
	}
	rel = filepath.ToSlash(rel)
	name := strings.TrimSuffix(rel, filepath.Ext(rel))

	if prev, ok := s.layouts[name]; ok {
		return errors.ConfigError("ambiguous layout name").
			WithContext("layout", name).
			WithContext("path", rel).
			WithContext("other", prev.Path).
			Build()
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return err
	}
	fields, body, _, err := frontmatter.Parse(data)
	if err != nil {
		return errors.ConfigError("invalid layout front matter").
			WithContext("layout", name).WithCause(err).Build()
	}

	tmpl, err := template.New(name).Funcs(s.funcs).Parse(string(body))
	if err != nil {
		return errors.ConfigError("invalid layout template").
			WithContext("layout", name).WithCause(err).Build()
	}

	parent, _ := fields["layout"].(string)
	s.layouts[name] = &Layout{
		Name:     name,
		Parent:   strings.TrimSpace(parent),
		Path:     rel,
		Metadata: fields,
		tmpl:     tmpl,
	}
	return nil
}

// validate walks every chain once so that broken inheritance fails the build
// before any document is rendered.
func (s *Set) validate() error {
	names := s.Names()
	for _, name := range names {
		if _, err := s.walk(name, true); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the layout names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.layouts))
	for n := range s.layouts {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Has reports whether a layout exists.
func (s *Set) Has(name string) bool {
	_, ok := s.layouts[name]
	return ok
}

// Chain returns the layouts applied for name, innermost first.
func (s *Set) Chain(name string) ([]*Layout, error) {
	return s.walk(name, false)
}

func (s *Set) walk(name string, static bool) ([]*Layout, error) {
	var chain []*Layout
	seen := map[string]bool{}
	current := name
	for current != "" {
		if seen[current] || len(chain) >= MaxLayoutDepth {
			return nil, errors.LayoutCycle("layout chain does not terminate").
				WithContext("layout", name).
				WithContext("chain", chainString(chain, current)).
				Build()
		}
		l, ok := s.layouts[current]
		if !ok {
			b := errors.LayoutNotFound("layout not found").
				WithContext("layout", current)
			if len(chain) > 0 {
				b = b.WithContext("referenced_by", chain[len(chain)-1].Name)
			}
			if static {
				b = b.Fatal()
			}
			return nil, b.Build()
		}
		seen[current] = true
		chain = append(chain, l)
		current = l.Parent
	}
	return chain, nil
}

func chainString(chain []*Layout, next string) string {
	parts := make([]string, 0, len(chain)+1)
	for _, l := range chain {
		parts = append(parts, l.Name)
	}
	return strings.Join(append(parts, next), " -> ")
}
