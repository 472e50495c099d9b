package keycode

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed keycodes.yaml
var builtinDatabase []byte

// Info describes one basic keycode.
type Info struct {
	Code        string   `yaml:"code"`
	Aliases     []string `yaml:"aliases,omitempty"`
	Category    string   `yaml:"category"`
	Description string   `yaml:"description"`
}

// Registry validates basic keycodes. Lookup accepts aliases and returns the canonical entry.
type Registry interface {
	Lookup(code string) (Info, bool)
}

type databaseFile struct {
	Ranges []struct {
		Prefix      string `yaml:"prefix"`
		From        int    `yaml:"from"`
		To          int    `yaml:"to"`
		Category    string `yaml:"category"`
		Description string `yaml:"description"`
	} `yaml:"ranges"`
	Letters *struct {
		Category    string `yaml:"category"`
		Description string `yaml:"description"`
	} `yaml:"letters"`
	Digits *struct {
		Category    string `yaml:"category"`
		Description string `yaml:"description"`
	} `yaml:"digits"`
	Keycodes []Info `yaml:"keycodes"`
}

// Database is a Registry backed by a YAML keycode list.
type Database struct {
	byCode  map[string]*Info
	ordered []*Info
}

var (
	defaultOnce sync.Once
	defaultDB   *Database
	defaultErr  error
)

// Default returns the built-in keycode database.
func Default() (*Database, error) {
	defaultOnce.Do(func() {
		defaultDB, defaultErr = LoadFromReader(strings.NewReader(string(builtinDatabase)))
	})
	return defaultDB, defaultErr
}

// Load reads a keycode database from a YAML file.
func Load(filePath string) (*Database, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader reads a keycode database from YAML.
func LoadFromReader(r io.Reader) (*Database, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var raw databaseFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing keycode database: %w", err)
	}

	db := &Database{byCode: make(map[string]*Info)}

	if raw.Letters != nil {
		for c := 'A'; c <= 'Z'; c++ {
			if err := db.add(Info{
				Code:        fmt.Sprintf("KC_%c", c),
				Category:    raw.Letters.Category,
				Description: fmt.Sprintf(raw.Letters.Description, string(c)),
			}); err != nil {
				return nil, err
			}
		}
	}
	if raw.Digits != nil {
		for c := '0'; c <= '9'; c++ {
			if err := db.add(Info{
				Code:        fmt.Sprintf("KC_%c", c),
				Category:    raw.Digits.Category,
				Description: fmt.Sprintf(raw.Digits.Description, string(c)),
			}); err != nil {
				return nil, err
			}
		}
	}
	for _, rg := range raw.Ranges {
		for n := rg.From; n <= rg.To; n++ {
			if err := db.add(Info{
				Code:        fmt.Sprintf("%s%d", rg.Prefix, n),
				Category:    rg.Category,
				Description: fmt.Sprintf(rg.Description, n),
			}); err != nil {
				return nil, err
			}
		}
	}
	for _, info := range raw.Keycodes {
		if err := db.add(info); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func (db *Database) add(info Info) error {
	if info.Code == "" {
		return fmt.Errorf("keycode database entry without code")
	}
	entry := info
	for _, name := range append([]string{info.Code}, info.Aliases...) {
		if _, dup := db.byCode[name]; dup {
			return fmt.Errorf("duplicate keycode %q in database", name)
		}
		db.byCode[name] = &entry
	}
	db.ordered = append(db.ordered, &entry)
	return nil
}

// Lookup implements Registry.
func (db *Database) Lookup(code string) (Info, bool) {
	info, ok := db.byCode[code]
	if !ok {
		return Info{}, false
	}
	return *info, true
}

// Len returns the number of canonical keycodes.
func (db *Database) Len() int {
	return len(db.ordered)
}

// Categories returns the sorted category names.
func (db *Database) Categories() []string {
	seen := make(map[string]struct{})
	for _, info := range db.ordered {
		seen[info.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Explain describes what a keycode string does, for display next to a key.
func (db *Database) Explain(code string) (string, error) {
	a, err := Parse(code)
	if err != nil {
		return "", err
	}
	basic := func(c string) (string, error) {
		info, ok := db.Lookup(c)
		if !ok {
			return "", fmt.Errorf("unknown keycode %q", c)
		}
		return info.Description, nil
	}

	switch a.Kind {
	case KindBasic:
		return basic(a.Code)
	case KindTransparent:
		return "Transparent (falls through to the layer below)", nil
	case KindNone:
		return "No action", nil
	case KindLayerSwitch:
		verb := map[string]string{
			"MO":  "Momentarily activate",
			"TG":  "Toggle",
			"TO":  "Switch to",
			"TT":  "Tap-toggle",
			"OSL": "One-shot",
			"DF":  "Set default layer to",
		}[a.Code]
		return fmt.Sprintf("%s layer %d", verb, a.Layer), nil
	case KindLayerTap:
		d, err := basic(a.Inner)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Layer %d when held, %s when tapped", a.Layer, d), nil
	case KindModTap:
		d, err := basic(a.Inner)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s when held, %s when tapped", a.Mod, d), nil
	case KindModified:
		d, err := basic(a.Inner)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s + %s", a.Mod, d), nil
	case KindTapDance:
		return fmt.Sprintf("Tap dance %s", a.Name), nil
	}
	return "", fmt.Errorf("unhandled keycode kind %s", a.Kind)
}
