package generator

import (
	"fmt"
	"strings"

	"github.com/keyforge/backend/internal/models"
)

// Problem categories.
const (
	CategoryCoverage = "coverage"
	CategoryKeycode  = "keycode"
	CategoryLayerRef = "layer_ref"
	CategoryTapDance = "tap_dance"
	CategoryCombo    = "combo"
	CategoryMapping  = "mapping"
	CategoryInternal = "internal"
)

// Problem is one validation failure. Position and Visual point at the offending
// key when there is one; Layer is -1 when the problem is not tied to a layer.
type Problem struct {
	Category string                 `json:"category"`
	Message  string                 `json:"message"`
	Layer    int                    `json:"layer"`
	Position *models.MatrixPosition `json:"position,omitempty"`
	Visual   *models.VisualPosition `json:"visual,omitempty"`
}

func (p Problem) String() string {
	var b strings.Builder
	b.WriteString(p.Category)
	if p.Layer >= 0 {
		fmt.Fprintf(&b, " [layer %d]", p.Layer)
	}
	if p.Position != nil {
		fmt.Fprintf(&b, " %s", p.Position)
	}
	if p.Visual != nil {
		fmt.Fprintf(&b, " %s", p.Visual)
	}
	b.WriteString(": ")
	b.WriteString(p.Message)
	return b.String()
}

// Where renders the most specific location of the problem, for flattened records.
func (p Problem) Where() string {
	switch {
	case p.Position != nil:
		return p.Position.String()
	case p.Visual != nil:
		return p.Visual.String()
	}
	return ""
}

// GenerationError aggregates every problem found in one generation attempt.
type GenerationError struct {
	Problems []Problem
}

func (e *GenerationError) Error() string {
	if len(e.Problems) == 1 {
		return "generation failed: " + e.Problems[0].String()
	}
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.String())
	}
	return fmt.Sprintf("generation failed with %d problems: %s", len(e.Problems), strings.Join(msgs, "; "))
}

// problems collects Problems in discovery order.
type problems []Problem

func (ps *problems) add(category string, layer int, format string, args ...interface{}) *Problem {
	*ps = append(*ps, Problem{Category: category, Layer: layer, Message: fmt.Sprintf(format, args...)})
	return &(*ps)[len(*ps)-1]
}

func (p *Problem) at(pos models.MatrixPosition) *Problem {
	p.Position = &pos
	return p
}

func (p *Problem) atVisual(vis models.VisualPosition) *Problem {
	p.Visual = &vis
	return p
}
