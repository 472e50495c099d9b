package models

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is an opaque 8-bit-per-channel color.
type RGB struct {
	R uint8 `json:"r" msgpack:"r"`
	G uint8 `json:"g" msgpack:"g"`
	B uint8 `json:"b" msgpack:"b"`
}

// ParseHex parses "#RRGGBB", "RRGGBB", "#RGB" or "RGB".
func ParseHex(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 3:
		v, err := strconv.ParseUint(hex, 16, 16)
		if err != nil {
			return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		r, g, b := uint8(v>>8&0xF), uint8(v>>4&0xF), uint8(v&0xF)
		return RGB{R: r * 17, G: g * 17, B: b * 17}, nil
	case 6:
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
	default:
		return RGB{}, fmt.Errorf("invalid color %q: expected #RRGGBB or #RGB", s)
	}
}

// MustParseHex is ParseHex for literals known to be valid.
func MustParseHex(s string) RGB {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex returns the color as "#RRGGBB".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c RGB) String() string {
	return c.Hex()
}

// MarshalYAML writes colors as hex strings.
func (c RGB) MarshalYAML() (interface{}, error) {
	return c.Hex(), nil
}

// UnmarshalYAML reads colors from hex strings.
func (c *RGB) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseHex(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
