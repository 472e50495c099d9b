package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/keyforge/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const splitInfoJSON = `{
  "keyboard_name": "mini_split",
  "matrix_size": {"rows": 4, "cols": 2},
  "split": {"enabled": true},
  "layouts": {
    "LAYOUT_split_2x2": {
      "layout": [
        {"matrix": [0, 0], "x": 0, "y": 0},
        {"matrix": [0, 1], "x": 1, "y": 0},
        {"matrix": [2, 1], "x": 3, "y": 0},
        {"matrix": [2, 0], "x": 4, "y": 0},
        {"matrix": [1, 0], "x": 0, "y": 1, "w": 1.5},
        {"matrix": [1, 1], "x": 1.5, "y": 1},
        {"matrix": [3, 1], "x": 3, "y": 1},
        {"matrix": [3, 0], "x": 4, "y": 1, "h": 2}
      ]
    },
    "LAYOUT_alt": {
      "layout": [
        {"matrix": [0, 0], "x": 0, "y": 0}
      ]
    }
  },
  "rgb_matrix": {
    "layout": [
      {"x": 0, "y": 0, "flags": 2},
      {"matrix": [0, 0], "x": 0, "y": 0, "flags": 4},
      {"matrix": [0, 1], "x": 16, "y": 0, "flags": 4},
      {"matrix": [1, 1], "x": 16, "y": 16, "flags": 4}
    ]
  }
}`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInfoJSONParser(t *testing.T) {
	path := writeTemp(t, "info.json", splitInfoJSON)

	d, err := GetGlobalRegistry().LoadDescription(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"LAYOUT_alt", "LAYOUT_split_2x2"}, d.Variants())

	g, err := d.Geometry("LAYOUT_split_2x2")
	require.NoError(t, err)

	if g.Keyboard != "mini_split" {
		t.Errorf("expected keyboard mini_split, got %s", g.Keyboard)
	}
	if g.MatrixRows != 4 || g.MatrixCols != 2 {
		t.Errorf("unexpected matrix size %dx%d", g.MatrixRows, g.MatrixCols)
	}
	require.NotNil(t, g.Split)
	assert.Equal(t, models.RowRange{Start: 0, End: 2}, g.Split.LeftRows)
	assert.Equal(t, models.RowRange{Start: 2, End: 4}, g.Split.RightRows)
	require.Len(t, g.Keys, 8)

	// Declaration order is preserved.
	assert.Equal(t, models.MatrixPosition{Row: 2, Col: 1}, g.Keys[2].Matrix)

	// Index 0 is underglow without a matrix position, so key LEDs start at 1.
	require.NotNil(t, g.Keys[0].Led)
	assert.Equal(t, models.LedIndex(1), *g.Keys[0].Led)
	assert.Equal(t, models.LedIndex(2), *g.Keys[1].Led)
	assert.Nil(t, g.Keys[2].Led)
	assert.Equal(t, models.LedIndex(3), *g.Keys[5].Led)

	assert.Equal(t, 1.5, g.Keys[4].Width)
	assert.Equal(t, 1.0, g.Keys[4].Height)
	assert.Equal(t, 2.0, g.Keys[7].Height)
	assert.Equal(t, 3, g.LedCount())
}

func TestDescription_VariantSelection(t *testing.T) {
	d := &Description{Layouts: map[string]LayoutElement{
		"LAYOUT": {Layout: []KeyElement{{Matrix: []int{0, 0}}}},
	}}
	d.MatrixSize.Rows, d.MatrixSize.Cols = 1, 1

	g, err := d.Geometry("")
	require.NoError(t, err)
	assert.Equal(t, "LAYOUT", g.Variant)

	_, err = d.Geometry("LAYOUT_missing")
	assert.ErrorContains(t, err, "not found")

	d.Layouts["LAYOUT_other"] = LayoutElement{}
	_, err = d.Geometry("")
	assert.ErrorContains(t, err, "pick one")
}

func TestDescription_ExplicitSplitRows(t *testing.T) {
	content := `
keyboard_name: thumbs
matrix_size: {rows: 5, cols: 3}
split:
  enabled: true
  left_rows: [0, 2]
  right_rows: [2, 4]
layouts:
  LAYOUT:
    layout:
      - {matrix: [0, 0], x: 0, y: 0}
      - {matrix: [4, 0], x: 0, y: 3}
`
	path := writeTemp(t, "kb.yaml", content)
	g, err := GetGlobalRegistry().LoadGeometry(path, "LAYOUT")
	require.NoError(t, err)

	require.NotNil(t, g.Split)
	assert.Equal(t, models.RowRange{Start: 2, End: 4}, g.Split.RightRows)
	assert.Len(t, g.Keys, 2)
}

func TestDescription_OddSplitNeedsRows(t *testing.T) {
	d := &Description{Split: &SplitElement{Enabled: true}, Layouts: map[string]LayoutElement{"L": {}}}
	d.MatrixSize.Rows, d.MatrixSize.Cols = 5, 3

	_, err := d.Geometry("L")
	assert.ErrorContains(t, err, "odd matrix row count")
}

func TestDescription_BadMatrix(t *testing.T) {
	d := &Description{Layouts: map[string]LayoutElement{
		"L": {Layout: []KeyElement{{Matrix: []int{0}}}},
	}}
	d.MatrixSize.Rows, d.MatrixSize.Cols = 1, 1

	_, err := d.Geometry("L")
	assert.ErrorContains(t, err, "matrix must be [row, col]")
}

func TestDescription_DuplicateLedMatrix(t *testing.T) {
	d := &Description{
		Layouts: map[string]LayoutElement{
			"L": {Layout: []KeyElement{{Matrix: []int{0, 0}}, {Matrix: []int{0, 1}}}},
		},
		RgbMatrix: &RgbMatrixElement{Layout: []LedElement{
			{Matrix: []int{0, 0}},
			{Matrix: []int{0, 1}},
			{Matrix: []int{0, 0}},
		}},
	}
	d.MatrixSize.Rows, d.MatrixSize.Cols = 1, 2

	_, err := d.Geometry("L")
	assert.ErrorContains(t, err, "rgb_matrix entries 0 and 2 both use matrix(0,0)")
}

func TestRegistry_FindParser(t *testing.T) {
	r := NewRegistry()

	tests := map[string]string{
		"info.json": "info_json",
		"INFO.JSON": "info_json",
		"kb.yaml":   "yaml",
		"kb.yml":    "yaml",
	}
	for file, want := range tests {
		p, err := r.FindParser(file)
		require.NoError(t, err, file)
		assert.Equal(t, want, p.Name(), file)
	}

	_, err := r.FindParser("keyboard.xml")
	assert.Error(t, err)

	p, err := r.GetParserByName("YAML")
	require.NoError(t, err)
	assert.Equal(t, "yaml", p.Name())
	_, err = r.GetParserByName("toml")
	assert.Error(t, err)
}

func TestParse_MissingMatrixSize(t *testing.T) {
	path := writeTemp(t, "bad.json", `{"keyboard_name": "x", "layouts": {"L": {"layout": []}}}`)
	_, err := NewInfoJSONParser().Parse(path)
	assert.ErrorContains(t, err, "matrix_size")
}
