package keycode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Action
	}{
		{"KC_A", Action{Kind: KindBasic, Code: "KC_A"}},
		{"_______", Action{Kind: KindTransparent, Code: "KC_TRNS"}},
		{"KC_TRNS", Action{Kind: KindTransparent, Code: "KC_TRNS"}},
		{"XXXXXXX", Action{Kind: KindNone, Code: "KC_NO"}},
		{"MO(1)", Action{Kind: KindLayerSwitch, Code: "MO", Layer: 1}},
		{"TG( 2 )", Action{Kind: KindLayerSwitch, Code: "TG", Layer: 2}},
		{"LT(3, KC_SPC)", Action{Kind: KindLayerTap, Layer: 3, Inner: "KC_SPC"}},
		{"MT(MOD_LCTL, KC_A)", Action{Kind: KindModTap, Mod: "LCTL", Inner: "KC_A"}},
		{"LSFT_T(KC_F)", Action{Kind: KindModTap, Mod: "LSFT", Inner: "KC_F"}},
		{"LCTL(KC_C)", Action{Kind: KindModified, Mod: "LCTL", Inner: "KC_C"}},
		{"TD(ESC_CAPS)", Action{Kind: KindTapDance, Name: "ESC_CAPS"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{
		"",
		"MO()",
		"MO(x)",
		"MO(-1)",
		"MO(1, 2)",
		"LT(1)",
		"MT(MOD_FOO, KC_A)",
		"FOO(KC_A)",
		"LCTL(LSFT(KC_A))",
		"KC A",
		"(KC_A)",
		"MO(1",
		"TD(my dance)",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			assert.Error(t, err)
		})
	}
}

func TestActionString(t *testing.T) {
	for _, in := range []string{"KC_A", "MO(1)", "LT(2, KC_SPC)", "LCTL_T(KC_A)", "LSFT(KC_1)", "TD(X)"} {
		a, err := Parse(in)
		require.NoError(t, err)
		assert.Equal(t, in, a.String())
	}

	a, err := Parse("MT(MOD_LALT, KC_B)")
	require.NoError(t, err)
	assert.Equal(t, "LALT_T(KC_B)", a.String())
}

func TestDefaultDatabase(t *testing.T) {
	db, err := Default()
	require.NoError(t, err)

	info, ok := db.Lookup("KC_ESCAPE")
	require.True(t, ok)
	assert.Equal(t, "KC_ESC", info.Code)

	for _, code := range []string{"KC_A", "KC_Z", "KC_0", "KC_9", "KC_F1", "KC_F24", "QK_BOOT", "KC_RGHT"} {
		_, ok := db.Lookup(code)
		assert.True(t, ok, code)
	}
	_, ok = db.Lookup("KC_F25")
	assert.False(t, ok)

	assert.Contains(t, db.Categories(), "alpha")
	assert.Greater(t, db.Len(), 26+10+24)
}

func TestLoadFromReader_Duplicate(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader(`
keycodes:
  - code: KC_X
    aliases: [KC_Y]
  - code: KC_Y
`))
	assert.ErrorContains(t, err, "duplicate")
}

func TestExplain(t *testing.T) {
	db, err := Default()
	require.NoError(t, err)

	tests := map[string]string{
		"KC_A":          "Letter A",
		"KC_F5":         "Function key F5",
		"MO(2)":         "Momentarily activate layer 2",
		"LT(1, KC_SPC)": "Layer 1 when held, Spacebar when tapped",
		"LCTL_T(KC_A)":  "LCTL when held, Letter A when tapped",
		"LSFT(KC_1)":    "LSFT + Number 1",
		"KC_TRNS":       "Transparent (falls through to the layer below)",
		"TD(DANCE)":     "Tap dance DANCE",
	}
	for in, want := range tests {
		got, err := db.Explain(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err = db.Explain("KC_NOPE")
	assert.Error(t, err)
}
