// Package mapping translates between the three addressing schemes of a keyboard:
// electrical matrix positions, LED indices and the visual grid users edit.
//
// A Mapping is built once from a KeyboardGeometry and never changes. Switching
// keyboard or layout variant means building a new one.
package mapping

import (
	"fmt"
	"sort"

	"github.com/keyforge/backend/internal/models"
)

// MatrixMapping is the injective association between matrix positions and LED indices.
type MatrixMapping struct {
	toLed    map[models.MatrixPosition]models.LedIndex
	toMatrix map[models.LedIndex]models.MatrixPosition
	ledOrder []models.LedIndex
}

// NewMatrixMapping derives the matrix/LED association from a geometry.
func NewMatrixMapping(g *models.KeyboardGeometry) (*MatrixMapping, error) {
	m := &MatrixMapping{
		toLed:    make(map[models.MatrixPosition]models.LedIndex, len(g.Keys)),
		toMatrix: make(map[models.LedIndex]models.MatrixPosition, len(g.Keys)),
	}

	for _, k := range g.Keys {
		if !k.HasLed() {
			continue
		}
		pos := k.Matrix
		led := *k.Led
		if _, dup := m.toLed[pos]; dup {
			return nil, newGeometryError(CodeDuplicateMatrix, "matrix position has more than one LED", &pos)
		}
		if other, dup := m.toMatrix[led]; dup {
			err := newGeometryError(CodeDuplicateLed,
				fmt.Sprintf("%s is shared with %s", led, other), &pos)
			err.Led = &led
			return nil, err
		}
		m.toLed[pos] = led
		m.toMatrix[led] = pos
		m.ledOrder = append(m.ledOrder, led)
	}

	sort.Slice(m.ledOrder, func(i, j int) bool { return m.ledOrder[i] < m.ledOrder[j] })
	return m, nil
}

// MatrixToLed returns the LED wired to a matrix position.
func (m *MatrixMapping) MatrixToLed(pos models.MatrixPosition) (models.LedIndex, error) {
	led, ok := m.toLed[pos]
	if !ok {
		return 0, notFound("matrix", pos)
	}
	return led, nil
}

// LedToMatrix returns the matrix position an LED belongs to.
func (m *MatrixMapping) LedToMatrix(led models.LedIndex) (models.MatrixPosition, error) {
	pos, ok := m.toMatrix[led]
	if !ok {
		return models.MatrixPosition{}, notFound("led", led)
	}
	return pos, nil
}

// LedOrder returns all LED indices in ascending order.
func (m *MatrixMapping) LedOrder() []models.LedIndex {
	out := make([]models.LedIndex, len(m.ledOrder))
	copy(out, m.ledOrder)
	return out
}

// Len returns the number of keys with an LED.
func (m *MatrixMapping) Len() int {
	return len(m.ledOrder)
}

// Mapping is the full bidirectional association between matrix, visual and LED positions.
type Mapping struct {
	geometry *models.KeyboardGeometry
	leds     *MatrixMapping
	toVisual map[models.MatrixPosition]models.VisualPosition
	toMatrix map[models.VisualPosition]models.MatrixPosition
	order    []models.MatrixPosition
	width    int
	extras   int
}

// Build validates a geometry and derives its mapping.
func Build(g *models.KeyboardGeometry) (*Mapping, error) {
	if g == nil || len(g.Keys) == 0 {
		return nil, newGeometryError(CodeEmptyGeometry, "geometry has no keys", nil)
	}
	if g.MatrixRows <= 0 || g.MatrixCols <= 0 {
		return nil, newGeometryError(CodeMatrixOutOfRange,
			fmt.Sprintf("invalid matrix size %dx%d", g.MatrixRows, g.MatrixCols), nil)
	}
	if err := validateSplit(g); err != nil {
		return nil, err
	}

	m := &Mapping{
		geometry: g,
		toVisual: make(map[models.MatrixPosition]models.VisualPosition, len(g.Keys)),
		toMatrix: make(map[models.VisualPosition]models.MatrixPosition, len(g.Keys)),
		order:    make([]models.MatrixPosition, 0, len(g.Keys)),
		width:    g.MatrixCols,
	}
	if g.IsSplit() {
		m.width = 2 * g.MatrixCols
	}

	seen := make(map[models.MatrixPosition]struct{}, len(g.Keys))
	var extras []models.MatrixPosition
	for _, k := range g.Keys {
		pos := k.Matrix
		if pos.Row < 0 || pos.Row >= g.MatrixRows || pos.Col < 0 || pos.Col >= g.MatrixCols {
			return nil, newGeometryError(CodeMatrixOutOfRange,
				fmt.Sprintf("outside %dx%d matrix", g.MatrixRows, g.MatrixCols), &pos)
		}
		if _, dup := seen[pos]; dup {
			return nil, newGeometryError(CodeDuplicateMatrix, "claimed by more than one key", &pos)
		}
		seen[pos] = struct{}{}
		m.order = append(m.order, pos)

		vis, regular := regularVisual(g, pos)
		if !regular {
			extras = append(extras, pos)
			continue
		}
		if err := m.assign(pos, vis); err != nil {
			return nil, err
		}
	}

	// Extra keys are ranked by matrix position, not declaration order, so the
	// assignment survives a producer reordering its key list.
	sort.Slice(extras, func(i, j int) bool {
		if extras[i].Row != extras[j].Row {
			return extras[i].Row < extras[j].Row
		}
		return extras[i].Col < extras[j].Col
	})
	for k, pos := range extras {
		if err := m.assign(pos, models.VisualPosition{Row: 0, Col: m.width + k}); err != nil {
			return nil, err
		}
	}
	m.extras = len(extras)

	leds, err := NewMatrixMapping(g)
	if err != nil {
		return nil, err
	}
	m.leds = leds

	for _, pos := range m.order {
		if _, ok := m.toVisual[pos]; !ok {
			return nil, newGeometryError(CodeUnassigned, "no visual position assigned", &pos)
		}
	}
	return m, nil
}

func (m *Mapping) assign(pos models.MatrixPosition, vis models.VisualPosition) error {
	if other, dup := m.toMatrix[vis]; dup {
		return newGeometryError(CodeUnassigned,
			fmt.Sprintf("%s already assigned to %s", vis, other), &pos)
	}
	m.toVisual[pos] = vis
	m.toMatrix[vis] = pos
	return nil
}

func validateSplit(g *models.KeyboardGeometry) error {
	if g.Split == nil {
		return nil
	}
	l, r := g.Split.LeftRows, g.Split.RightRows
	for _, rr := range []models.RowRange{l, r} {
		if rr.Start < 0 || rr.End > g.MatrixRows || rr.Len() <= 0 {
			return newGeometryError(CodeInvalidSplit,
				fmt.Sprintf("row range [%d,%d) invalid for %d matrix rows", rr.Start, rr.End, g.MatrixRows), nil)
		}
	}
	if l.Start < r.End && r.Start < l.End {
		return newGeometryError(CodeInvalidSplit,
			fmt.Sprintf("left rows [%d,%d) overlap right rows [%d,%d)", l.Start, l.End, r.Start, r.End), nil)
	}
	return nil
}

// regularVisual applies the split/identity rule. It returns false for keys
// outside the regular grid.
func regularVisual(g *models.KeyboardGeometry, pos models.MatrixPosition) (models.VisualPosition, bool) {
	if s := g.Split; s != nil {
		n := g.MatrixCols
		switch {
		case s.LeftRows.Contains(pos.Row):
			return models.VisualPosition{Row: pos.Row - s.LeftRows.Start, Col: pos.Col}, true
		case s.RightRows.Contains(pos.Row):
			// Right-half wiring is mirrored.
			return models.VisualPosition{Row: pos.Row - s.RightRows.Start, Col: 2*n - 1 - pos.Col}, true
		default:
			return models.VisualPosition{}, false
		}
	}
	if g.GridRows > 0 && pos.Row >= g.GridRows {
		return models.VisualPosition{}, false
	}
	return models.VisualPosition{Row: pos.Row, Col: pos.Col}, true
}

// MatrixToVisual returns the visual position of a matrix position.
func (m *Mapping) MatrixToVisual(pos models.MatrixPosition) (models.VisualPosition, error) {
	vis, ok := m.toVisual[pos]
	if !ok {
		return models.VisualPosition{}, notFound("matrix", pos)
	}
	return vis, nil
}

// VisualToMatrix returns the matrix position behind a visual position.
func (m *Mapping) VisualToMatrix(vis models.VisualPosition) (models.MatrixPosition, error) {
	pos, ok := m.toMatrix[vis]
	if !ok {
		return models.MatrixPosition{}, notFound("visual", vis)
	}
	return pos, nil
}

// MatrixToLed returns the LED wired to a matrix position.
func (m *Mapping) MatrixToLed(pos models.MatrixPosition) (models.LedIndex, error) {
	return m.leds.MatrixToLed(pos)
}

// LedToMatrix returns the matrix position of an LED.
func (m *Mapping) LedToMatrix(led models.LedIndex) (models.MatrixPosition, error) {
	return m.leds.LedToMatrix(led)
}

// LedToVisual returns the visual position of an LED.
func (m *Mapping) LedToVisual(led models.LedIndex) (models.VisualPosition, error) {
	pos, err := m.leds.LedToMatrix(led)
	if err != nil {
		return models.VisualPosition{}, err
	}
	return m.MatrixToVisual(pos)
}

// VisualToLed returns the LED at a visual position.
func (m *Mapping) VisualToLed(vis models.VisualPosition) (models.LedIndex, error) {
	pos, err := m.VisualToMatrix(vis)
	if err != nil {
		return 0, err
	}
	return m.leds.MatrixToLed(pos)
}

// Geometry returns the geometry the mapping was built from.
func (m *Mapping) Geometry() *models.KeyboardGeometry {
	return m.geometry
}

// Leds returns the matrix/LED half of the mapping.
func (m *Mapping) Leds() *MatrixMapping {
	return m.leds
}

// MatrixOrder returns matrix positions in geometry declaration order.
func (m *Mapping) MatrixOrder() []models.MatrixPosition {
	out := make([]models.MatrixPosition, len(m.order))
	copy(out, m.order)
	return out
}

// LedOrder returns LED indices in ascending order.
func (m *Mapping) LedOrder() []models.LedIndex {
	return m.leds.LedOrder()
}

// Positions returns every visual position, in geometry declaration order.
func (m *Mapping) Positions() []models.VisualPosition {
	out := make([]models.VisualPosition, 0, len(m.order))
	for _, pos := range m.order {
		out = append(out, m.toVisual[pos])
	}
	return out
}

// HasVisual reports whether a visual position exists in this variant.
func (m *Mapping) HasVisual(vis models.VisualPosition) bool {
	_, ok := m.toMatrix[vis]
	return ok
}

// Width is the number of regular visual columns; extra keys start here.
func (m *Mapping) Width() int {
	return m.width
}

// ExtraCount is the number of keys placed outside the regular grid.
func (m *Mapping) ExtraCount() int {
	return m.extras
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	return len(m.order)
}
