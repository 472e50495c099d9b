// Package models contains domain types for the keyforge firmware pipeline.
package models

import "fmt"

// MatrixPosition is the electrical scan address of a physical key.
type MatrixPosition struct {
	Row int `json:"row" yaml:"row" msgpack:"row"`
	Col int `json:"col" yaml:"col" msgpack:"col"`
}

func (p MatrixPosition) String() string {
	return fmt.Sprintf("matrix(%d,%d)", p.Row, p.Col)
}

// VisualPosition is the logical grid cell a user edits.
type VisualPosition struct {
	Row int `json:"row" yaml:"row" msgpack:"row"`
	Col int `json:"col" yaml:"col" msgpack:"col"`
}

func (p VisualPosition) String() string {
	return fmt.Sprintf("visual(%d,%d)", p.Row, p.Col)
}

// LedIndex is a key's position in the lighting wiring order.
type LedIndex uint

func (i LedIndex) String() string {
	return fmt.Sprintf("led(%d)", uint(i))
}

// KeyGeometry describes one physical key. X, Y, Width and Height are in keyboard units.
type KeyGeometry struct {
	Matrix   MatrixPosition `json:"matrix"`
	Led      *LedIndex      `json:"led,omitempty"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Width    float64        `json:"w"`
	Height   float64        `json:"h"`
	Rotation float64        `json:"r,omitempty"`
}

// HasLed reports whether the key has a lighting position.
func (k KeyGeometry) HasLed() bool {
	return k.Led != nil
}

// RowRange is a half-open range of matrix rows [Start, End).
type RowRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether row lies inside the range.
func (r RowRange) Contains(row int) bool {
	return row >= r.Start && row < r.End
}

// Len returns the number of rows in the range.
func (r RowRange) Len() int {
	return r.End - r.Start
}

// SplitLayout declares which matrix rows belong to each half of a split keyboard.
type SplitLayout struct {
	LeftRows  RowRange `json:"leftRows"`
	RightRows RowRange `json:"rightRows"`
}

// KeyboardGeometry is the full physical description of one layout variant.
// It is built once per keyboard/variant selection and replaced, never mutated.
type KeyboardGeometry struct {
	Keyboard   string        `json:"keyboard"`
	Variant    string        `json:"variant"`
	MatrixRows int           `json:"matrixRows"`
	MatrixCols int           `json:"matrixCols"`
	Split      *SplitLayout  `json:"split,omitempty"`
	GridRows   int           `json:"gridRows,omitempty"` // non-split only; 0 means every row is regular
	Keys       []KeyGeometry `json:"keys"`
}

// IsSplit reports whether the geometry describes a split keyboard.
func (g *KeyboardGeometry) IsSplit() bool {
	return g.Split != nil
}

// LedCount returns the number of keys that carry an LED.
func (g *KeyboardGeometry) LedCount() int {
	n := 0
	for _, k := range g.Keys {
		if k.HasLed() {
			n++
		}
	}
	return n
}

// NewLedIndex returns a pointer to an LED index, for building KeyGeometry literals.
func NewLedIndex(i uint) *LedIndex {
	idx := LedIndex(i)
	return &idx
}
