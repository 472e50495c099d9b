package generator

import (
	"sort"
	"strings"

	"github.com/keyforge/backend/internal/keycode"
	"github.com/keyforge/backend/internal/mapping"
	"github.com/keyforge/backend/internal/models"
)

// plan is a validated layout, indexed for emission.
type plan struct {
	layout     *models.Layout
	geometry   *models.KeyboardGeometry
	mapping    *mapping.Mapping
	layerNames []string
	tdNames    map[string]string
	layers     [][]resolvedKey // per layer, geometry order
	tapDances  []tapDancePlan
	combos     []comboPlan
}

type resolvedKey struct {
	matrix models.MatrixPosition
	key    *models.KeyDefinition
	action keycode.Action
}

type tapDancePlan struct {
	ident  string
	single keycode.Action
	double *keycode.Action
	hold   *keycode.Action
}

type comboPlan struct {
	ident    string
	triggers []keycode.Action
	output   keycode.Action
}

// validate runs coverage and reference checks, collecting every problem.
// The returned plan is only usable when no problems were found.
func (g *Generator) validate(l *models.Layout, geo *models.KeyboardGeometry, m *mapping.Mapping) (*plan, []Problem) {
	var ps problems

	if m == nil || geo == nil {
		ps.add(CategoryInternal, -1, "geometry and mapping are required")
		return nil, ps
	}
	if m.Geometry() != geo {
		ps.add(CategoryInternal, -1, "mapping was built from a different geometry (%s %s)", m.Geometry().Keyboard, m.Geometry().Variant)
		return nil, ps
	}
	if len(l.Layers) == 0 {
		ps.add(CategoryCoverage, -1, "layout has no layers")
		return nil, ps
	}

	p := &plan{
		layout:     l,
		geometry:   geo,
		mapping:    m,
		layerNames: layerIdents(l.Layers),
		tdNames:    make(map[string]string),
	}

	g.checkTapDances(l, p, &ps)

	for i := range l.Layers {
		p.layers = append(p.layers, g.checkLayer(l, i, m, p, &ps))
	}

	g.checkCombos(l, p, &ps)

	if l.Idle.Enabled && l.Idle.Effect != "" && ident(l.Idle.Effect) != strings.ToUpper(l.Idle.Effect) {
		ps.add(CategoryInternal, -1, "idle effect %q is not a valid effect name", l.Idle.Effect)
	}

	return p, ps
}

// checkLayer validates one layer's coverage and keycodes and returns its keys in geometry order.
func (g *Generator) checkLayer(l *models.Layout, li int, m *mapping.Mapping, p *plan, ps *problems) []resolvedKey {
	layer := &l.Layers[li]

	byVisual := make(map[models.VisualPosition]*models.KeyDefinition, len(layer.Keys))
	for i := range layer.Keys {
		key := &layer.Keys[i]
		if !m.HasVisual(key.Position) {
			ps.add(CategoryMapping, li, "key %s has no matrix position in %s", key.Keycode, m.Geometry().Variant).atVisual(key.Position)
			continue
		}
		if _, dup := byVisual[key.Position]; dup {
			ps.add(CategoryMapping, li, "position defined more than once").atVisual(key.Position)
			continue
		}
		byVisual[key.Position] = key
	}

	keys := make([]resolvedKey, 0, m.Len())
	for _, pos := range m.MatrixOrder() {
		vis, err := m.MatrixToVisual(pos)
		if err != nil {
			ps.add(CategoryInternal, li, "%v", err).at(pos)
			continue
		}
		key, ok := byVisual[vis]
		if !ok {
			ps.add(CategoryCoverage, li, "no key defined for %s", vis).at(pos)
			continue
		}

		action, ok := g.checkKeycode(l, li, key.Keycode, pos, p, ps)
		if !ok {
			continue
		}
		if key.ComboID != "" {
			if _, found := l.Combo(key.ComboID); !found {
				ps.add(CategoryCombo, li, "unknown combo %q", key.ComboID).at(pos)
			}
		}
		keys = append(keys, resolvedKey{matrix: pos, key: key, action: action})
	}
	return keys
}

// checkKeycode parses a keycode and resolves every reference it embeds.
func (g *Generator) checkKeycode(l *models.Layout, li int, code string, pos models.MatrixPosition, p *plan, ps *problems) (keycode.Action, bool) {
	a, err := keycode.Parse(code)
	if err != nil {
		ps.add(CategoryKeycode, li, "%v", err).at(pos)
		return a, false
	}

	ok := true
	basic := func(c string) {
		if _, found := g.registry.Lookup(c); !found {
			ps.add(CategoryKeycode, li, "unknown keycode %q", c).at(pos)
			ok = false
		}
	}
	layerRef := func(n int) {
		if n >= len(l.Layers) {
			ps.add(CategoryLayerRef, li, "%s references layer %d, layout has %d layers", code, n, len(l.Layers)).at(pos)
			ok = false
		}
	}

	switch a.Kind {
	case keycode.KindBasic:
		basic(a.Code)
	case keycode.KindTransparent, keycode.KindNone:
	case keycode.KindLayerSwitch:
		layerRef(a.Layer)
	case keycode.KindLayerTap:
		layerRef(a.Layer)
		basic(a.Inner)
	case keycode.KindModTap, keycode.KindModified:
		basic(a.Inner)
	case keycode.KindTapDance:
		if _, found := p.tdNames[a.Name]; !found {
			ps.add(CategoryTapDance, li, "unknown tap dance %q", a.Name).at(pos)
			ok = false
		}
	default:
		ps.add(CategoryInternal, li, "unhandled keycode kind %s", a.Kind).at(pos)
		ok = false
	}
	return a, ok
}

// tapDanceAction accepts the keycodes a tap dance can send: basic keys and KC_NO.
func (g *Generator) tapDanceAction(code, role, name string, ps *problems) (keycode.Action, bool) {
	a, err := keycode.Parse(code)
	if err != nil {
		ps.add(CategoryTapDance, -1, "tap dance %s %s: %v", name, role, err)
		return a, false
	}
	switch a.Kind {
	case keycode.KindBasic:
		if _, found := g.registry.Lookup(a.Code); !found {
			ps.add(CategoryTapDance, -1, "tap dance %s %s: unknown keycode %q", name, role, a.Code)
			return a, false
		}
	case keycode.KindNone:
	default:
		ps.add(CategoryTapDance, -1, "tap dance %s %s must be a basic keycode, got %s", name, role, code)
		return a, false
	}
	return a, true
}

func (g *Generator) checkTapDances(l *models.Layout, p *plan, ps *problems) {
	sorted := make([]models.TapDance, len(l.TapDances))
	copy(sorted, l.TapDances)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	idents := make(map[string]string)
	for _, td := range sorted {
		id := "TD_" + ident(td.Name)
		if td.Name == "" || id == "TD_" {
			ps.add(CategoryTapDance, -1, "tap dance without a name")
			continue
		}
		if other, dup := idents[id]; dup {
			ps.add(CategoryTapDance, -1, "tap dance %q collides with %q", td.Name, other)
			continue
		}
		idents[id] = td.Name
		p.tdNames[td.Name] = id

		tp := tapDancePlan{ident: id}
		single, ok := g.tapDanceAction(td.Single, "single", td.Name, ps)
		tp.single = single
		switch {
		case td.Double != "" && td.Hold != "":
			ps.add(CategoryTapDance, -1, "tap dance %s sets both double and hold", td.Name)
			ok = false
		case td.Double != "":
			a, valid := g.tapDanceAction(td.Double, "double", td.Name, ps)
			tp.double = &a
			ok = ok && valid
		case td.Hold != "":
			a, valid := g.tapDanceAction(td.Hold, "hold", td.Name, ps)
			tp.hold = &a
			ok = ok && valid
		default:
			ps.add(CategoryTapDance, -1, "tap dance %s needs a double or hold keycode", td.Name)
			ok = false
		}
		if ok {
			p.tapDances = append(p.tapDances, tp)
		}
	}
}

// checkCombos resolves every combo's triggers from the base layer. It runs after
// the layers so base-layer actions are available.
func (g *Generator) checkCombos(l *models.Layout, p *plan, ps *problems) {
	sorted := make([]models.Combo, len(l.Combos))
	copy(sorted, l.Combos)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	idents := make(map[string]string)
	for _, c := range sorted {
		id := "combo_" + strings.ToLower(ident(c.Name))
		if c.Name == "" || id == "combo_" {
			ps.add(CategoryCombo, -1, "combo without a name")
			continue
		}
		if other, dup := idents[id]; dup {
			ps.add(CategoryCombo, -1, "combo %q collides with %q", c.Name, other)
			continue
		}
		idents[id] = c.Name

		cp := comboPlan{ident: id}
		ok := true

		out, err := keycode.Parse(c.Output)
		switch {
		case err != nil:
			ps.add(CategoryCombo, -1, "combo %s output: %v", c.Name, err)
			ok = false
		case out.Kind == keycode.KindTapDance:
			ps.add(CategoryCombo, -1, "combo %s output cannot be a tap dance", c.Name)
			ok = false
		case out.Kind == keycode.KindBasic:
			if _, found := g.registry.Lookup(out.Code); !found {
				ps.add(CategoryCombo, -1, "combo %s output: unknown keycode %q", c.Name, out.Code)
				ok = false
			}
		case out.Kind == keycode.KindLayerSwitch || out.Kind == keycode.KindLayerTap:
			if out.Layer >= len(l.Layers) {
				ps.add(CategoryLayerRef, -1, "combo %s output references layer %d", c.Name, out.Layer)
				ok = false
			}
		}
		cp.output = out

		if len(p.layers) > 0 {
			for _, rk := range p.layers[0] {
				if rk.key.ComboID == c.Name {
					cp.triggers = append(cp.triggers, rk.action)
				}
			}
		}
		if len(cp.triggers) < 2 {
			ps.add(CategoryCombo, -1, "combo %s needs at least two base-layer keys, has %d", c.Name, len(cp.triggers))
			ok = false
		}
		if ok {
			p.combos = append(p.combos, cp)
		}
	}
}
