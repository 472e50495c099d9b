// Package colors resolves the effective lighting color of a key.
package colors

import (
	"fmt"

	"github.com/keyforge/backend/internal/models"
)

// Source identifies which precedence level produced a key's color.
type Source int

const (
	SourceLayerDefault Source = iota
	SourceLayerCategory
	SourceKeyCategory
	SourceIndividual
)

func (s Source) String() string {
	switch s {
	case SourceIndividual:
		return "individual"
	case SourceKeyCategory:
		return "key_category"
	case SourceLayerCategory:
		return "layer_category"
	case SourceLayerDefault:
		return "layer_default"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Resolution is a resolved color and where it came from.
type Resolution struct {
	Color  models.RGB
	Source Source
}

// Resolve returns the effective color of key on the layer at layerIndex.
// It only fails when layerIndex does not name a layer.
func Resolve(l *models.Layout, layerIndex int, key *models.KeyDefinition) (Resolution, error) {
	if layerIndex < 0 || layerIndex >= len(l.Layers) {
		return Resolution{}, fmt.Errorf("layer index %d out of range (layout has %d layers)", layerIndex, len(l.Layers))
	}
	return ResolveLayer(l, &l.Layers[layerIndex], key), nil
}

// ResolveLayer applies the precedence order, first match wins:
// key override, key category, layer category, layer default.
// Category IDs that do not resolve are treated as unset.
func ResolveLayer(l *models.Layout, layer *models.Layer, key *models.KeyDefinition) Resolution {
	if key != nil {
		if key.Color != nil {
			return Resolution{Color: *key.Color, Source: SourceIndividual}
		}
		if c, ok := l.Category(key.CategoryID); ok {
			return Resolution{Color: c.Color, Source: SourceKeyCategory}
		}
	}
	if c, ok := l.Category(layer.CategoryID); ok {
		return Resolution{Color: c.Color, Source: SourceLayerCategory}
	}
	return Resolution{Color: layer.DefaultColor, Source: SourceLayerDefault}
}

// Scale applies a brightness percentage. 0 and values at or above 100 leave the color unchanged.
func Scale(c models.RGB, percent uint8) models.RGB {
	if percent == 0 || percent >= 100 {
		return c
	}
	scale := func(v uint8) uint8 {
		return uint8((uint(v)*uint(percent) + 50) / 100)
	}
	return models.RGB{R: scale(c.R), G: scale(c.G), B: scale(c.B)}
}
