package parser

import (
	"fmt"
	"sort"

	"github.com/keyforge/backend/internal/models"
)

// Description is a decoded vendor keyboard description. Field names follow the
// firmware toolchain's info.json so the same struct reads JSON and YAML.
type Description struct {
	KeyboardName string `json:"keyboard_name" yaml:"keyboard_name"`
	MatrixSize   struct {
		Rows int `json:"rows" yaml:"rows"`
		Cols int `json:"cols" yaml:"cols"`
	} `json:"matrix_size" yaml:"matrix_size"`
	Split     *SplitElement            `json:"split,omitempty" yaml:"split,omitempty"`
	GridRows  int                      `json:"grid_rows,omitempty" yaml:"grid_rows,omitempty"`
	Layouts   map[string]LayoutElement `json:"layouts" yaml:"layouts"`
	RgbMatrix *RgbMatrixElement        `json:"rgb_matrix,omitempty" yaml:"rgb_matrix,omitempty"`
}

type SplitElement struct {
	Enabled   bool  `json:"enabled" yaml:"enabled"`
	LeftRows  []int `json:"left_rows,omitempty" yaml:"left_rows,omitempty"`
	RightRows []int `json:"right_rows,omitempty" yaml:"right_rows,omitempty"`
}

type LayoutElement struct {
	Layout []KeyElement `json:"layout" yaml:"layout"`
}

type KeyElement struct {
	Matrix []int   `json:"matrix" yaml:"matrix"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	W      float64 `json:"w,omitempty" yaml:"w,omitempty"`
	H      float64 `json:"h,omitempty" yaml:"h,omitempty"`
	R      float64 `json:"r,omitempty" yaml:"r,omitempty"`
}

type RgbMatrixElement struct {
	Layout []LedElement `json:"layout" yaml:"layout"`
}

// LedElement is one entry of the lighting layout. Its array position is the LED
// index; entries without a matrix position (underglow) still take an index.
type LedElement struct {
	Matrix []int   `json:"matrix,omitempty" yaml:"matrix,omitempty"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Flags  int     `json:"flags" yaml:"flags"`
}

// Variants returns the layout variant names, sorted.
func (d *Description) Variants() []string {
	out := make([]string, 0, len(d.Layouts))
	for name := range d.Layouts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Geometry builds the KeyboardGeometry of one layout variant. An empty variant
// is accepted when the description has exactly one.
func (d *Description) Geometry(variant string) (*models.KeyboardGeometry, error) {
	if variant == "" {
		names := d.Variants()
		if len(names) != 1 {
			return nil, fmt.Errorf("description has %d layout variants, pick one of %v", len(names), names)
		}
		variant = names[0]
	}
	layout, ok := d.Layouts[variant]
	if !ok {
		return nil, fmt.Errorf("layout variant %q not found, available: %v", variant, d.Variants())
	}

	g := &models.KeyboardGeometry{
		Keyboard:   d.KeyboardName,
		Variant:    variant,
		MatrixRows: d.MatrixSize.Rows,
		MatrixCols: d.MatrixSize.Cols,
		GridRows:   d.GridRows,
		Keys:       make([]models.KeyGeometry, 0, len(layout.Layout)),
	}

	if d.Split != nil && d.Split.Enabled {
		split, err := d.splitLayout()
		if err != nil {
			return nil, err
		}
		g.Split = split
	}

	leds := make(map[models.MatrixPosition]models.LedIndex)
	if d.RgbMatrix != nil {
		for i, led := range d.RgbMatrix.Layout {
			if led.Matrix == nil {
				continue
			}
			pos, err := matrixPosition(led.Matrix)
			if err != nil {
				return nil, fmt.Errorf("rgb_matrix entry %d: %w", i, err)
			}
			if prev, ok := leds[pos]; ok {
				return nil, fmt.Errorf("rgb_matrix entries %d and %d both use %s", uint(prev), i, pos)
			}
			leds[pos] = models.LedIndex(i)
		}
	}

	for i, k := range layout.Layout {
		pos, err := matrixPosition(k.Matrix)
		if err != nil {
			return nil, fmt.Errorf("%s key %d: %w", variant, i, err)
		}
		key := models.KeyGeometry{
			Matrix:   pos,
			X:        k.X,
			Y:        k.Y,
			Width:    orOne(k.W),
			Height:   orOne(k.H),
			Rotation: k.R,
		}
		if led, ok := leds[pos]; ok {
			idx := led
			key.Led = &idx
		}
		g.Keys = append(g.Keys, key)
	}

	return g, nil
}

func (d *Description) splitLayout() (*models.SplitLayout, error) {
	rows := d.MatrixSize.Rows
	if len(d.Split.LeftRows) == 0 && len(d.Split.RightRows) == 0 {
		if rows%2 != 0 {
			return nil, fmt.Errorf("split keyboard with odd matrix row count %d needs explicit left_rows/right_rows", rows)
		}
		return &models.SplitLayout{
			LeftRows:  models.RowRange{Start: 0, End: rows / 2},
			RightRows: models.RowRange{Start: rows / 2, End: rows},
		}, nil
	}
	left, err := rowRange("left_rows", d.Split.LeftRows)
	if err != nil {
		return nil, err
	}
	right, err := rowRange("right_rows", d.Split.RightRows)
	if err != nil {
		return nil, err
	}
	return &models.SplitLayout{LeftRows: left, RightRows: right}, nil
}

func rowRange(field string, v []int) (models.RowRange, error) {
	if len(v) != 2 {
		return models.RowRange{}, fmt.Errorf("%s must be [start, end], got %v", field, v)
	}
	return models.RowRange{Start: v[0], End: v[1]}, nil
}

func matrixPosition(v []int) (models.MatrixPosition, error) {
	if len(v) != 2 {
		return models.MatrixPosition{}, fmt.Errorf("matrix must be [row, col], got %v", v)
	}
	return models.MatrixPosition{Row: v[0], Col: v[1]}, nil
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
