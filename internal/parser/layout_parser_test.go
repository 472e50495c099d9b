package parser

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/keyforge/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLayoutYAML = `
name: My Layout
keyboard: crkbd/rev1
variant: LAYOUT_split_3x6_3
tapping_term: 180
rgb:
  enabled: true
  brightness: 80
idle:
  enabled: true
  timeout_ms: 60000
  effect: BREATHING
categories:
  - id: mods
    name: Modifiers
    color: "#0000FF"
tap_dances:
  - name: ESC_CAPS
    single: KC_ESC
    double: KC_CAPS
combos:
  - name: JK_ESC
    output: KC_ESC
layers:
  - name: Base
    default_color: "#FFFFFF"
    keys:
      - position: {row: 0, col: 0}
        keycode: TD(ESC_CAPS)
      - position: {row: 0, col: 1}
        keycode: KC_J
        combo: JK_ESC
        color: "#F00"
  - name: Nav
    default_color: "#00FF00"
    category: mods
    keys:
      - position: {row: 0, col: 0}
        keycode: KC_TRNS
        category: mods
`

func TestParseLayoutFromReader(t *testing.T) {
	layout, err := ParseLayoutFromReader(strings.NewReader(sampleLayoutYAML))
	require.NoError(t, err)

	if layout.Name != "My Layout" {
		t.Errorf("expected name My Layout, got %s", layout.Name)
	}
	assert.Equal(t, "default", layout.KeymapName)
	assert.Equal(t, 180, layout.TappingTerm)
	assert.Equal(t, uint8(80), layout.RGB.Brightness)
	assert.Equal(t, uint32(60000), layout.Idle.TimeoutMs)

	require.Len(t, layout.Layers, 2)
	assert.Equal(t, 1, layout.Layers[1].Number)
	assert.Equal(t, models.MustParseHex("#00FF00"), layout.Layers[1].DefaultColor)
	assert.Equal(t, "mods", layout.Layers[1].CategoryID)

	key := layout.Layers[0].Keys[1]
	assert.Equal(t, models.VisualPosition{Row: 0, Col: 1}, key.Position)
	assert.Equal(t, "JK_ESC", key.ComboID)
	require.NotNil(t, key.Color)
	assert.Equal(t, "#FF0000", key.Color.Hex())
	assert.Nil(t, layout.Layers[0].Keys[0].Color)

	assert.Equal(t, "KC_CAPS", layout.TapDances[0].Double)
	assert.Equal(t, models.MustParseHex("#0000FF"), layout.Categories[0].Color)
}

func TestParseLayout_BadColor(t *testing.T) {
	_, err := ParseLayoutFromReader(strings.NewReader(`
layers:
  - name: Base
    default_color: "blue"
`))
	assert.ErrorContains(t, err, "invalid color")
}

func TestSaveLayout_RoundTrip(t *testing.T) {
	layout, err := ParseLayoutFromReader(strings.NewReader(sampleLayoutYAML))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, SaveLayout(path, layout))

	back, err := ParseLayout(path)
	require.NoError(t, err)
	assert.Equal(t, layout, back)
}
