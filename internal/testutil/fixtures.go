// fixtures.go - Keyboard geometries and layouts shared by package tests
package testutil

import (
	"fmt"

	"github.com/keyforge/backend/internal/models"
)

// GridGeometry returns a non-split rows x cols keyboard with one LED per key,
// numbered in declaration (row-major) order.
func GridGeometry(rows, cols int) *models.KeyboardGeometry {
	g := &models.KeyboardGeometry{
		Keyboard:   "test/grid",
		Variant:    "LAYOUT",
		MatrixRows: rows,
		MatrixCols: cols,
	}
	led := uint(0)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			g.Keys = append(g.Keys, models.KeyGeometry{
				Matrix: models.MatrixPosition{Row: r, Col: c},
				Led:    models.NewLedIndex(led),
				X:      float64(c),
				Y:      float64(r),
				Width:  1,
				Height: 1,
			})
			led++
		}
	}
	return g
}

// SixKeyGeometry is a 2x3 non-split keyboard with LEDs 0-5.
func SixKeyGeometry() *models.KeyboardGeometry {
	g := GridGeometry(2, 3)
	g.Keyboard = "test/six"
	return g
}

// SplitGeometry returns a split keyboard with rowsPerHalf rows and colsPerHalf
// columns per half. Left rows come first in the matrix, right rows after.
// Each half is declared in its own physical order, the way vendor descriptions do.
func SplitGeometry(rowsPerHalf, colsPerHalf int) *models.KeyboardGeometry {
	g := &models.KeyboardGeometry{
		Keyboard:   "test/split",
		Variant:    "LAYOUT_split",
		MatrixRows: rowsPerHalf * 2,
		MatrixCols: colsPerHalf,
		Split: &models.SplitLayout{
			LeftRows:  models.RowRange{Start: 0, End: rowsPerHalf},
			RightRows: models.RowRange{Start: rowsPerHalf, End: rowsPerHalf * 2},
		},
	}
	led := uint(0)
	for r := 0; r < rowsPerHalf; r++ {
		for c := 0; c < colsPerHalf; c++ {
			g.Keys = append(g.Keys, models.KeyGeometry{
				Matrix: models.MatrixPosition{Row: r, Col: c},
				Led:    models.NewLedIndex(led),
				X:      float64(c),
				Y:      float64(r),
				Width:  1,
				Height: 1,
			})
			led++
		}
		for c := colsPerHalf - 1; c >= 0; c-- {
			g.Keys = append(g.Keys, models.KeyGeometry{
				Matrix: models.MatrixPosition{Row: rowsPerHalf + r, Col: c},
				Led:    models.NewLedIndex(led),
				X:      float64(2*colsPerHalf - 1 - c + 1),
				Y:      float64(r),
				Width:  1,
				Height: 1,
			})
			led++
		}
	}
	return g
}

// LayoutFor returns a layout with one layer per name covering every position in
// positions, all keys set to KC_TRNS except layer 0 which uses KC_A, KC_B, ...
func LayoutFor(g *models.KeyboardGeometry, positions []models.VisualPosition, layerNames ...string) *models.Layout {
	l := &models.Layout{
		Name:       "test",
		Keyboard:   g.Keyboard,
		Variant:    g.Variant,
		KeymapName: "default",
		RGB:        models.RgbSettings{Enabled: true, Brightness: 100},
	}
	for i, name := range layerNames {
		layer := models.Layer{
			Number:       i,
			Name:         name,
			DefaultColor: models.RGB{R: 255, G: 255, B: 255},
		}
		for j, pos := range positions {
			code := "KC_TRNS"
			if i == 0 {
				code = fmt.Sprintf("KC_%c", 'A'+j%26)
			}
			layer.Keys = append(layer.Keys, models.KeyDefinition{Position: pos, Keycode: code})
		}
		l.Layers = append(l.Layers, layer)
	}
	return l
}

// GoldenLayout is the two-layer, six-key layout used by the end-to-end generator test.
// Key (0,1) on the base layer is colored through a category, key (0,2) through an override.
func GoldenLayout() *models.Layout {
	red := models.MustParseHex("#FF0000")
	grid := func(codes ...string) []models.KeyDefinition {
		keys := make([]models.KeyDefinition, 0, len(codes))
		for i, code := range codes {
			keys = append(keys, models.KeyDefinition{
				Position: models.VisualPosition{Row: i / 3, Col: i % 3},
				Keycode:  code,
			})
		}
		return keys
	}

	base := models.Layer{
		Number:       0,
		Name:         "Base",
		DefaultColor: models.MustParseHex("#FFFFFF"),
		Keys:         grid("KC_ESC", "KC_Q", "KC_W", "KC_LSFT", "MO(1)", "KC_SPC"),
	}
	base.Keys[1].CategoryID = "alpha"
	base.Keys[2].Color = &red

	nav := models.Layer{
		Number:       1,
		Name:         "Nav",
		DefaultColor: models.MustParseHex("#00FF00"),
		Keys:         grid("KC_TRNS", "KC_UP", "KC_NO", "KC_LEFT", "KC_TRNS", "KC_RGHT"),
	}

	return &models.Layout{
		Name:       "golden",
		Keyboard:   "test/six",
		Variant:    "LAYOUT",
		KeymapName: "default",
		RGB:        models.RgbSettings{Enabled: true, Brightness: 100},
		Layers:     []models.Layer{base, nav},
		Categories: []models.Category{
			{ID: "alpha", Name: "Alphas", Color: models.MustParseHex("#0000FF")},
		},
	}
}
