package generator

import (
	"fmt"
	"strings"

	"github.com/keyforge/backend/internal/colors"
	"github.com/keyforge/backend/internal/keycode"
	"github.com/keyforge/backend/internal/models"
)

const tapHoldHelper = `typedef struct {
    uint16_t tap;
    uint16_t hold;
    uint16_t held;
} tap_dance_tap_hold_t;

void tap_dance_tap_hold_finished(tap_dance_state_t *state, void *user_data) {
    tap_dance_tap_hold_t *tap_hold = (tap_dance_tap_hold_t *)user_data;
    if (state->pressed && state->count == 1 && !state->interrupted) {
        tap_hold->held = tap_hold->hold;
    } else {
        tap_hold->held = tap_hold->tap;
    }
    register_code16(tap_hold->held);
}

void tap_dance_tap_hold_reset(tap_dance_state_t *state, void *user_data) {
    tap_dance_tap_hold_t *tap_hold = (tap_dance_tap_hold_t *)user_data;
    if (tap_hold->held) {
        unregister_code16(tap_hold->held);
        tap_hold->held = 0;
    }
}

#define ACTION_TAP_DANCE_TAP_HOLD(tap, hold) \
    { .fn = {NULL, tap_dance_tap_hold_finished, tap_dance_tap_hold_reset}, .user_data = (void *)&((tap_dance_tap_hold_t){tap, hold, 0}), }

`

const indicatorCallback = `bool rgb_matrix_indicators_user(void) {
    uint8_t layer = get_highest_layer(layer_state);
    for (uint8_t i = 0; i < RGB_MATRIX_LED_COUNT; i++) {
        uint8_t r = pgm_read_byte(&ledmap[layer][i][0]);
        uint8_t g = pgm_read_byte(&ledmap[layer][i][1]);
        uint8_t b = pgm_read_byte(&ledmap[layer][i][2]);
        rgb_matrix_set_color(i, r, g, b);
    }
    return false;
}
`

// emitter renders one validated plan.
type emitter struct {
	gen         *Generator
	plan        *plan
	generatedAt string
}

func (e *emitter) header(b *strings.Builder, comment string) {
	geo := e.plan.geometry
	fmt.Fprintf(b, "%s Generated by keyforge for %s (%s)\n", comment, geo.Keyboard, geo.Variant)
	if e.plan.layout.Name != "" {
		fmt.Fprintf(b, "%s Layout: %s\n", comment, e.plan.layout.Name)
	}
	if e.generatedAt != "" {
		fmt.Fprintf(b, "%s Generated at %s\n", comment, e.generatedAt)
	}
	b.WriteString("\n")
}

// rgbEnabled reports whether the ledmap is emitted at all.
func (e *emitter) rgbEnabled() bool {
	return e.plan.layout.RGB.Enabled && e.plan.mapping.Leds().Len() > 0
}

func (e *emitter) keymapC() string {
	var b strings.Builder
	e.header(&b, "//")
	b.WriteString("#include QMK_KEYBOARD_H\n\n")

	b.WriteString("enum layer_names {\n")
	for _, name := range e.plan.layerNames {
		fmt.Fprintf(&b, "    %s,\n", name)
	}
	b.WriteString("};\n\n")

	e.tapDances(&b)
	e.keymaps(&b)
	e.combos(&b)
	if e.rgbEnabled() {
		e.ledmap(&b)
	}
	return b.String()
}

func (e *emitter) tapDances(b *strings.Builder) {
	if len(e.plan.tapDances) == 0 {
		return
	}
	b.WriteString("enum tap_dances {\n")
	for _, td := range e.plan.tapDances {
		fmt.Fprintf(b, "    %s,\n", td.ident)
	}
	b.WriteString("};\n\n")

	for _, td := range e.plan.tapDances {
		if td.hold != nil {
			b.WriteString(tapHoldHelper)
			break
		}
	}

	b.WriteString("tap_dance_action_t tap_dance_actions[] = {\n")
	for _, td := range e.plan.tapDances {
		switch {
		case td.double != nil:
			fmt.Fprintf(b, "    [%s] = ACTION_TAP_DANCE_DOUBLE(%s, %s),\n", td.ident, e.render(td.single), e.render(*td.double))
		case td.hold != nil:
			fmt.Fprintf(b, "    [%s] = ACTION_TAP_DANCE_TAP_HOLD(%s, %s),\n", td.ident, e.render(td.single), e.render(*td.hold))
		}
	}
	b.WriteString("};\n\n")
}

func (e *emitter) keymaps(b *strings.Builder) {
	macro := e.plan.geometry.Variant
	if macro == "" {
		macro = "LAYOUT"
	}

	b.WriteString("const uint16_t PROGMEM keymaps[][MATRIX_ROWS][MATRIX_COLS] = {\n")
	for i, keys := range e.plan.layers {
		fmt.Fprintf(b, "    [%s] = %s(\n", e.plan.layerNames[i], macro)

		var line []string
		flush := func(last bool) {
			if len(line) == 0 {
				return
			}
			b.WriteString("        ")
			b.WriteString(strings.Join(line, ", "))
			if !last {
				b.WriteString(",")
			}
			b.WriteString("\n")
			line = line[:0]
		}
		for j, rk := range keys {
			if j > 0 && rk.matrix.Row != keys[j-1].matrix.Row {
				flush(false)
			}
			line = append(line, e.render(rk.action))
		}
		flush(true)
		b.WriteString("    ),\n")
	}
	b.WriteString("};\n")
}

func (e *emitter) combos(b *strings.Builder) {
	if len(e.plan.combos) == 0 {
		return
	}
	b.WriteString("\n")
	for _, c := range e.plan.combos {
		codes := make([]string, 0, len(c.triggers)+1)
		for _, a := range c.triggers {
			codes = append(codes, e.render(a))
		}
		codes = append(codes, "COMBO_END")
		fmt.Fprintf(b, "const uint16_t PROGMEM %s[] = {%s};\n", c.ident, strings.Join(codes, ", "))
	}
	b.WriteString("\ncombo_t key_combos[] = {\n")
	for _, c := range e.plan.combos {
		fmt.Fprintf(b, "    COMBO(%s, %s),\n", c.ident, e.render(c.output))
	}
	b.WriteString("};\n")
}

// ledmap emits one color per LED per layer, in ascending LED order.
func (e *emitter) ledmap(b *strings.Builder) {
	m := e.plan.mapping
	l := e.plan.layout

	b.WriteString("\n#ifdef RGB_MATRIX_ENABLE\n")
	b.WriteString("const uint8_t PROGMEM ledmap[][RGB_MATRIX_LED_COUNT][3] = {\n")
	for i, keys := range e.plan.layers {
		byMatrix := make(map[models.MatrixPosition]*models.KeyDefinition, len(keys))
		for _, rk := range keys {
			byMatrix[rk.matrix] = rk.key
		}

		fmt.Fprintf(b, "    [%s] = {\n", e.plan.layerNames[i])
		for _, led := range m.LedOrder() {
			pos, err := m.LedToMatrix(led)
			if err != nil {
				continue
			}
			res := colors.ResolveLayer(l, &l.Layers[i], byMatrix[pos])
			c := colors.Scale(res.Color, l.RGB.Brightness)
			fmt.Fprintf(b, "        [%d] = {%d, %d, %d},\n", uint(led), c.R, c.G, c.B)
		}
		b.WriteString("    },\n")
	}
	b.WriteString("};\n\n")
	b.WriteString(indicatorCallback)
	b.WriteString("#endif\n")
}

func (e *emitter) configH() string {
	var b strings.Builder
	e.header(&b, "//")
	b.WriteString("#pragma once\n")

	l := e.plan.layout
	var defines []string
	if l.TappingTerm > 0 {
		defines = append(defines, fmt.Sprintf("#define TAPPING_TERM %d", l.TappingTerm))
	}
	if !l.Idle.IsDefault() {
		if l.Idle.TimeoutMs > 0 {
			defines = append(defines, fmt.Sprintf("#define RGB_MATRIX_TIMEOUT %d", l.Idle.TimeoutMs))
		}
		if l.Idle.Effect != "" {
			defines = append(defines, fmt.Sprintf("#define RGB_MATRIX_DEFAULT_MODE RGB_MATRIX_%s", strings.ToUpper(l.Idle.Effect)))
		}
	}
	if len(defines) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(defines, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

func (e *emitter) rulesMk() string {
	var b strings.Builder
	e.header(&b, "#")
	if e.rgbEnabled() {
		b.WriteString("RGB_MATRIX_ENABLE = yes\n")
	}
	if len(e.plan.tapDances) > 0 {
		b.WriteString("TAP_DANCE_ENABLE = yes\n")
	}
	if len(e.plan.combos) > 0 {
		b.WriteString("COMBO_ENABLE = yes\n")
	}
	return b.String()
}

// render writes an action as source text. Layer numbers become enum names,
// basic keycodes their canonical form.
func (e *emitter) render(a keycode.Action) string {
	switch a.Kind {
	case keycode.KindBasic:
		return e.canonical(a.Code)
	case keycode.KindTransparent, keycode.KindNone:
		return a.Code
	case keycode.KindLayerSwitch:
		return fmt.Sprintf("%s(%s)", a.Code, e.layerName(a.Layer))
	case keycode.KindLayerTap:
		return fmt.Sprintf("LT(%s, %s)", e.layerName(a.Layer), e.canonical(a.Inner))
	case keycode.KindModTap:
		return fmt.Sprintf("%s_T(%s)", a.Mod, e.canonical(a.Inner))
	case keycode.KindModified:
		return fmt.Sprintf("%s(%s)", a.Mod, e.canonical(a.Inner))
	case keycode.KindTapDance:
		return fmt.Sprintf("TD(%s)", e.plan.tdNames[a.Name])
	}
	return a.String()
}

func (e *emitter) canonical(code string) string {
	if info, ok := e.gen.registry.Lookup(code); ok {
		return info.Code
	}
	return code
}

func (e *emitter) layerName(n int) string {
	if n >= 0 && n < len(e.plan.layerNames) {
		return e.plan.layerNames[n]
	}
	return fmt.Sprint(n)
}
