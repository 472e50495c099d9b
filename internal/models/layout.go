package models

// Category groups keys under a shared color. Layers and keys reference it by ID.
type Category struct {
	ID    string `json:"id" yaml:"id" msgpack:"id"`
	Name  string `json:"name" yaml:"name" msgpack:"name"`
	Color RGB    `json:"color" yaml:"color" msgpack:"color"`
}

// KeyDefinition is what one visual position does on one layer.
type KeyDefinition struct {
	Position    VisualPosition `json:"position" yaml:"position" msgpack:"position"`
	Keycode     string         `json:"keycode" yaml:"keycode" msgpack:"keycode"`
	Color       *RGB           `json:"color,omitempty" yaml:"color,omitempty" msgpack:"color,omitempty"`
	CategoryID  string         `json:"categoryId,omitempty" yaml:"category,omitempty" msgpack:"category_id,omitempty"`
	ComboID     string         `json:"comboId,omitempty" yaml:"combo,omitempty" msgpack:"combo_id,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty" msgpack:"description,omitempty"`
}

// Layer is one keymap layer. Keys holds one definition per visual position of the variant.
type Layer struct {
	Number       int             `json:"number" yaml:"number" msgpack:"number"`
	Name         string          `json:"name" yaml:"name" msgpack:"name"`
	DefaultColor RGB             `json:"defaultColor" yaml:"default_color" msgpack:"default_color"`
	CategoryID   string          `json:"categoryId,omitempty" yaml:"category,omitempty" msgpack:"category_id,omitempty"`
	Keys         []KeyDefinition `json:"keys" yaml:"keys" msgpack:"keys"`
}

// KeyAt returns the key defined at a visual position.
func (l *Layer) KeyAt(pos VisualPosition) (*KeyDefinition, bool) {
	for i := range l.Keys {
		if l.Keys[i].Position == pos {
			return &l.Keys[i], true
		}
	}
	return nil, false
}

// TapDance is a key that sends different keycodes for single tap, double tap and hold.
type TapDance struct {
	Name   string `json:"name" yaml:"name" msgpack:"name"`
	Single string `json:"single" yaml:"single" msgpack:"single"`
	Double string `json:"double,omitempty" yaml:"double,omitempty" msgpack:"double,omitempty"`
	Hold   string `json:"hold,omitempty" yaml:"hold,omitempty" msgpack:"hold,omitempty"`
}

// Combo fires Output when all base-layer keys whose ComboID equals Name are pressed together.
type Combo struct {
	Name   string `json:"name" yaml:"name" msgpack:"name"`
	Output string `json:"output" yaml:"output" msgpack:"output"`
}

// IdleEffect switches the lighting after a period without input.
// The zero value means disabled.
type IdleEffect struct {
	Enabled   bool   `json:"enabled" yaml:"enabled" msgpack:"enabled"`
	TimeoutMs uint32 `json:"timeoutMs" yaml:"timeout_ms" msgpack:"timeout_ms"`
	Effect    string `json:"effect,omitempty" yaml:"effect,omitempty" msgpack:"effect,omitempty"`
}

// IsDefault reports whether the idle effect would emit nothing.
func (e IdleEffect) IsDefault() bool {
	return !e.Enabled || (e.TimeoutMs == 0 && e.Effect == "")
}

// RgbSettings controls per-key lighting output.
type RgbSettings struct {
	Enabled    bool  `json:"enabled" yaml:"enabled" msgpack:"enabled"`
	Brightness uint8 `json:"brightness" yaml:"brightness" msgpack:"brightness"` // percent, 0 is treated as 100
}

// Layout is a complete keymap: metadata, ordered layers and categories.
type Layout struct {
	Name        string      `json:"name" yaml:"name" msgpack:"name"`
	Author      string      `json:"author,omitempty" yaml:"author,omitempty" msgpack:"author,omitempty"`
	Keyboard    string      `json:"keyboard" yaml:"keyboard" msgpack:"keyboard"`
	Variant     string      `json:"variant" yaml:"variant" msgpack:"variant"`
	KeymapName  string      `json:"keymapName" yaml:"keymap" msgpack:"keymap_name"`
	TappingTerm int         `json:"tappingTerm,omitempty" yaml:"tapping_term,omitempty" msgpack:"tapping_term,omitempty"`
	RGB         RgbSettings `json:"rgb" yaml:"rgb" msgpack:"rgb"`
	Idle        IdleEffect  `json:"idle" yaml:"idle" msgpack:"idle"`
	Layers      []Layer     `json:"layers" yaml:"layers" msgpack:"layers"`
	Categories  []Category  `json:"categories" yaml:"categories" msgpack:"categories"`
	TapDances   []TapDance  `json:"tapDances,omitempty" yaml:"tap_dances,omitempty" msgpack:"tap_dances,omitempty"`
	Combos      []Combo     `json:"combos,omitempty" yaml:"combos,omitempty" msgpack:"combos,omitempty"`
}

// Category resolves a category ID. Empty or unknown IDs are reported as absent.
func (l *Layout) Category(id string) (*Category, bool) {
	if id == "" {
		return nil, false
	}
	for i := range l.Categories {
		if l.Categories[i].ID == id {
			return &l.Categories[i], true
		}
	}
	return nil, false
}

// TapDance looks up a tap dance by name.
func (l *Layout) TapDance(name string) (*TapDance, bool) {
	for i := range l.TapDances {
		if l.TapDances[i].Name == name {
			return &l.TapDances[i], true
		}
	}
	return nil, false
}

// Combo looks up a combo by name.
func (l *Layout) Combo(name string) (*Combo, bool) {
	for i := range l.Combos {
		if l.Combos[i].Name == name {
			return &l.Combos[i], true
		}
	}
	return nil, false
}

// DeleteCategory removes a category and clears every layer and key that referenced it.
// It reports whether the category existed.
func (l *Layout) DeleteCategory(id string) bool {
	found := false
	kept := l.Categories[:0]
	for _, c := range l.Categories {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	l.Categories = kept
	l.ReassignCategory(id, "")
	return found
}

// ReassignCategory points every reference to from at to. An empty to clears the references.
func (l *Layout) ReassignCategory(from, to string) {
	if from == "" {
		return
	}
	for i := range l.Layers {
		layer := &l.Layers[i]
		if layer.CategoryID == from {
			layer.CategoryID = to
		}
		for j := range layer.Keys {
			if layer.Keys[j].CategoryID == from {
				layer.Keys[j].CategoryID = to
			}
		}
	}
}
