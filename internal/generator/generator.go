// Package generator turns a validated layout into firmware source files.
package generator

import (
	"sort"
	"time"

	"github.com/keyforge/backend/internal/keycode"
	"github.com/keyforge/backend/internal/mapping"
	"github.com/keyforge/backend/internal/models"
)

// Options controls output that does not depend on the layout.
type Options struct {
	// Deterministic suppresses the timestamp header so identical inputs
	// produce byte-identical files.
	Deterministic bool
	Now           func() time.Time
}

// Generator emits keymap.c, config.h and rules.mk for a layout.
type Generator struct {
	registry keycode.Registry
	opts     Options
}

// GeneratedFiles is the full output of one generation, sorted by file name.
type GeneratedFiles struct {
	Keyboard string
	Keymap   string
	Files    []models.GeneratedFile
}

// Get returns the file with the given name.
func (f *GeneratedFiles) Get(name string) (models.GeneratedFile, bool) {
	for _, file := range f.Files {
		if file.Name == name {
			return file, true
		}
	}
	return models.GeneratedFile{}, false
}

// New creates a generator validating basic keycodes against registry.
func New(registry keycode.Registry, opts Options) *Generator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Generator{registry: registry, opts: opts}
}

// Validate reports every problem that would stop Generate, without emitting anything.
func (g *Generator) Validate(l *models.Layout, geo *models.KeyboardGeometry, m *mapping.Mapping) []Problem {
	_, ps := g.validate(l, geo, m)
	return ps
}

// Generate validates the layout and emits its source files. On failure the
// error is a *GenerationError and no files are returned.
func (g *Generator) Generate(l *models.Layout, geo *models.KeyboardGeometry, m *mapping.Mapping) (*GeneratedFiles, error) {
	p, ps := g.validate(l, geo, m)
	if len(ps) > 0 {
		return nil, &GenerationError{Problems: ps}
	}

	e := &emitter{gen: g, plan: p}
	if !g.opts.Deterministic {
		e.generatedAt = g.opts.Now().UTC().Format(time.RFC3339)
	}

	files := []models.GeneratedFile{
		{Name: "keymap.c", Content: e.keymapC()},
		{Name: "config.h", Content: e.configH()},
		{Name: "rules.mk", Content: e.rulesMk()},
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	return &GeneratedFiles{
		Keyboard: geo.Keyboard,
		Keymap:   l.KeymapName,
		Files:    files,
	}, nil
}
