// Package keycode parses keycode strings into typed actions and validates them
// against a keycode database.
package keycode

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the closed set of things a key can do.
type Kind int

const (
	KindBasic Kind = iota
	KindTransparent
	KindNone
	KindLayerSwitch
	KindLayerTap
	KindModTap
	KindModified
	KindTapDance
)

func (k Kind) String() string {
	switch k {
	case KindBasic:
		return "basic"
	case KindTransparent:
		return "transparent"
	case KindNone:
		return "none"
	case KindLayerSwitch:
		return "layer_switch"
	case KindLayerTap:
		return "layer_tap"
	case KindModTap:
		return "mod_tap"
	case KindModified:
		return "modified"
	case KindTapDance:
		return "tap_dance"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Action is a parsed keycode. Which fields are set depends on Kind:
//
//	KindBasic        Code
//	KindLayerSwitch  Code (MO, TG, TO, TT, OSL, DF), Layer
//	KindLayerTap     Layer, Inner
//	KindModTap       Mod, Inner
//	KindModified     Mod, Inner
//	KindTapDance     Name
type Action struct {
	Kind  Kind
	Code  string
	Layer int
	Mod   string
	Inner string
	Name  string
}

var layerFuncs = map[string]bool{
	"MO": true, "TG": true, "TO": true, "TT": true, "OSL": true, "DF": true,
}

// Mods are the modifier names accepted in MT(), XXXX_T() and XXXX() forms.
var Mods = map[string]bool{
	"LCTL": true, "LSFT": true, "LALT": true, "LGUI": true,
	"RCTL": true, "RSFT": true, "RALT": true, "RGUI": true,
	"MEH": true, "HYPR": true,
}

// Parse turns a keycode string into an Action. It checks syntax only;
// whether the referenced keycodes, layers and tap dances exist is up to the caller.
func Parse(s string) (Action, error) {
	code := strings.TrimSpace(s)
	if code == "" {
		return Action{}, fmt.Errorf("empty keycode")
	}

	switch code {
	case "KC_TRNS", "KC_TRANSPARENT", "_______", "TRNS":
		return Action{Kind: KindTransparent, Code: "KC_TRNS"}, nil
	case "KC_NO", "XXXXXXX", "NO":
		return Action{Kind: KindNone, Code: "KC_NO"}, nil
	}

	fn, args, isCall, err := splitCall(code)
	if err != nil {
		return Action{}, err
	}
	if !isCall {
		if !validIdent(code) {
			return Action{}, fmt.Errorf("invalid keycode %q", code)
		}
		return Action{Kind: KindBasic, Code: code}, nil
	}

	switch {
	case layerFuncs[fn]:
		if len(args) != 1 {
			return Action{}, fmt.Errorf("%s takes one layer argument: %q", fn, code)
		}
		layer, err := parseLayer(args[0])
		if err != nil {
			return Action{}, fmt.Errorf("%s: %w", code, err)
		}
		return Action{Kind: KindLayerSwitch, Code: fn, Layer: layer}, nil

	case fn == "LT":
		if len(args) != 2 {
			return Action{}, fmt.Errorf("LT takes a layer and a keycode: %q", code)
		}
		layer, err := parseLayer(args[0])
		if err != nil {
			return Action{}, fmt.Errorf("%s: %w", code, err)
		}
		return Action{Kind: KindLayerTap, Layer: layer, Inner: args[1]}, nil

	case fn == "MT":
		if len(args) != 2 {
			return Action{}, fmt.Errorf("MT takes a modifier and a keycode: %q", code)
		}
		mod := strings.TrimPrefix(args[0], "MOD_")
		if !Mods[mod] {
			return Action{}, fmt.Errorf("unknown modifier %q in %q", args[0], code)
		}
		return Action{Kind: KindModTap, Mod: mod, Inner: args[1]}, nil

	case fn == "TD":
		if len(args) != 1 || !validIdent(args[0]) {
			return Action{}, fmt.Errorf("TD takes one tap dance name: %q", code)
		}
		return Action{Kind: KindTapDance, Name: args[0]}, nil

	case strings.HasSuffix(fn, "_T") && Mods[strings.TrimSuffix(fn, "_T")]:
		if len(args) != 1 {
			return Action{}, fmt.Errorf("%s takes one keycode: %q", fn, code)
		}
		return Action{Kind: KindModTap, Mod: strings.TrimSuffix(fn, "_T"), Inner: args[0]}, nil

	case Mods[fn]:
		if len(args) != 1 {
			return Action{}, fmt.Errorf("%s takes one keycode: %q", fn, code)
		}
		return Action{Kind: KindModified, Mod: fn, Inner: args[0]}, nil
	}

	return Action{}, fmt.Errorf("unknown keycode function %q", fn)
}

// String renders the action in canonical source form.
func (a Action) String() string {
	switch a.Kind {
	case KindBasic, KindTransparent, KindNone:
		return a.Code
	case KindLayerSwitch:
		return fmt.Sprintf("%s(%d)", a.Code, a.Layer)
	case KindLayerTap:
		return fmt.Sprintf("LT(%d, %s)", a.Layer, a.Inner)
	case KindModTap:
		return fmt.Sprintf("%s_T(%s)", a.Mod, a.Inner)
	case KindModified:
		return fmt.Sprintf("%s(%s)", a.Mod, a.Inner)
	case KindTapDance:
		return fmt.Sprintf("TD(%s)", a.Name)
	}
	return ""
}

// splitCall splits "FN(a, b)" into FN and its arguments.
func splitCall(code string) (fn string, args []string, isCall bool, err error) {
	open := strings.IndexByte(code, '(')
	if open < 0 {
		return "", nil, false, nil
	}
	if !strings.HasSuffix(code, ")") || open == 0 {
		return "", nil, false, fmt.Errorf("malformed keycode %q", code)
	}
	fn = code[:open]
	inner := strings.TrimSpace(code[open+1 : len(code)-1])
	if inner == "" {
		return "", nil, false, fmt.Errorf("missing arguments in %q", code)
	}
	if strings.ContainsAny(inner, "()") {
		return "", nil, false, fmt.Errorf("nested keycode functions are not supported: %q", code)
	}
	for _, a := range strings.Split(inner, ",") {
		args = append(args, strings.TrimSpace(a))
	}
	return fn, args, true, nil
}

func parseLayer(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid layer %q", s)
	}
	return n, nil
}

func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
