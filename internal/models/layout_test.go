package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLayout() *Layout {
	red := MustParseHex("#FF0000")
	return &Layout{
		Name:     "sample",
		Keyboard: "test/kb",
		Categories: []Category{
			{ID: "mods", Name: "Modifiers", Color: MustParseHex("#0000FF")},
			{ID: "nav", Name: "Navigation", Color: MustParseHex("#00FF00")},
		},
		Layers: []Layer{
			{
				Number:     0,
				Name:       "Base",
				CategoryID: "nav",
				Keys: []KeyDefinition{
					{Position: VisualPosition{0, 0}, Keycode: "KC_A", CategoryID: "mods"},
					{Position: VisualPosition{0, 1}, Keycode: "KC_B", Color: &red},
				},
			},
		},
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{in: "#FF0000", want: RGB{255, 0, 0}},
		{in: "00ff7f", want: RGB{0, 255, 127}},
		{in: "#0F8", want: RGB{0, 255, 136}},
		{in: " #123456 ", want: RGB{0x12, 0x34, 0x56}},
		{in: "#12345", wantErr: true},
		{in: "#GGGGGG", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRGBHex(t *testing.T) {
	assert.Equal(t, "#0A0B0C", RGB{10, 11, 12}.Hex())
}

func TestDeleteCategoryClearsReferences(t *testing.T) {
	l := sampleLayout()

	assert.True(t, l.DeleteCategory("mods"))
	assert.False(t, l.DeleteCategory("mods"))

	_, ok := l.Category("mods")
	assert.False(t, ok)
	assert.Len(t, l.Categories, 1)
	assert.Empty(t, l.Layers[0].Keys[0].CategoryID)
	assert.Equal(t, "nav", l.Layers[0].CategoryID)

	l.DeleteCategory("nav")
	assert.Empty(t, l.Layers[0].CategoryID)
}

func TestReassignCategory(t *testing.T) {
	l := sampleLayout()
	l.ReassignCategory("nav", "mods")

	assert.Equal(t, "mods", l.Layers[0].CategoryID)
	assert.Equal(t, "mods", l.Layers[0].Keys[0].CategoryID)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	l := sampleLayout()

	snap, err := Snapshot(l)
	require.NoError(t, err)
	assert.Equal(t, l.Layers[0].Keys[1].Color, snap.Layers[0].Keys[1].Color)

	l.Layers[0].Keys[0].Keycode = "KC_Z"
	l.Layers[0].Keys[1].Color.G = 200
	l.Categories[0].Color = RGB{}

	assert.Equal(t, "KC_A", snap.Layers[0].Keys[0].Keycode)
	assert.Equal(t, uint8(0), snap.Layers[0].Keys[1].Color.G)
	assert.Equal(t, MustParseHex("#0000FF"), snap.Categories[0].Color)
}

func TestLayerKeyAt(t *testing.T) {
	l := sampleLayout()

	k, ok := l.Layers[0].KeyAt(VisualPosition{0, 1})
	require.True(t, ok)
	assert.Equal(t, "KC_B", k.Keycode)

	_, ok = l.Layers[0].KeyAt(VisualPosition{3, 3})
	assert.False(t, ok)
}

func TestIdleEffectIsDefault(t *testing.T) {
	assert.True(t, IdleEffect{}.IsDefault())
	assert.True(t, IdleEffect{Enabled: true}.IsDefault())
	assert.False(t, IdleEffect{Enabled: true, TimeoutMs: 60000}.IsDefault())
}
