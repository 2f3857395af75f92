package fluid

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RGBA is the canonical display colour of a fluid.
type RGBA struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Color is either an explicit RGBA value or a name ("#rrggbb", "#rrggbbaa" or
// one of the palette names). It is resolved once to RGBA when input is loaded.
type Color struct {
	RGBA *RGBA  `json:"rgba,omitempty"`
	Name string `json:"name,omitempty"`
}

var palette = map[string]RGBA{
	"white":  {255, 255, 255, 255},
	"black":  {0, 0, 0, 255},
	"red":    {220, 40, 40, 255},
	"green":  {40, 160, 60, 255},
	"blue":   {40, 90, 200, 255},
	"yellow": {240, 200, 40, 255},
	"orange": {240, 140, 30, 255},
	"brown":  {130, 90, 50, 255},
	"grey":   {128, 128, 128, 255},
	"gray":   {128, 128, 128, 255},
	"purple": {130, 60, 160, 255},
}

// IsZero reports whether no colour was given.
func (c Color) IsZero() bool { return c.RGBA == nil && c.Name == "" }

// Resolve returns the canonical RGBA. A zero Color resolves to nil.
func (c Color) Resolve() (*RGBA, error) {
	if c.RGBA != nil {
		v := *c.RGBA
		return &v, nil
	}
	if c.Name == "" {
		return nil, nil
	}
	name := strings.ToLower(strings.TrimSpace(c.Name))
	if v, ok := palette[name]; ok {
		return &v, nil
	}
	hex := strings.TrimPrefix(name, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return nil, fmt.Errorf("fluid: unknown colour %q", c.Name)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("fluid: unknown colour %q: %w", c.Name, err)
	}
	if len(hex) == 6 {
		n = n<<8 | 0xff
	}
	return &RGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// UnmarshalJSON accepts either a string name or an {"r","g","b","a"} object.
func (c *Color) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*c = Color{Name: name}
		return nil
	}
	var v RGBA
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("fluid: colour must be a name or an rgba object: %w", err)
	}
	*c = Color{RGBA: &v}
	return nil
}

func (c Color) MarshalJSON() ([]byte, error) {
	if c.RGBA != nil {
		return json.Marshal(c.RGBA)
	}
	return json.Marshal(c.Name)
}
