package fluid

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownMud = errors.New("fluid: unknown mud")
	ErrNoDensity  = errors.New("fluid: placement has no density")
	ErrBadMud     = errors.New("fluid: invalid mud")
)

// Mud is a named drilling fluid from the mud catalogue. Dial readings are the
// 600 and 300 rpm viscometer values.
type Mud struct {
	Name    string  `json:"name"`
	Density float64 `json:"density_kgpm3"`
	Dial600 float64 `json:"dial_600,omitempty"`
	Dial300 float64 `json:"dial_300,omitempty"`
	Color   Color   `json:"color"`
}

// Rheology returns plastic viscosity (cP) and yield point (lbf/100ft²)
// derived from the dial readings. ok is false when the readings are missing.
func (m Mud) Rheology() (pv, yp float64, ok bool) {
	if m.Dial600 <= 0 || m.Dial300 <= 0 {
		return 0, 0, false
	}
	pv = m.Dial600 - m.Dial300
	return pv, m.Dial300 - pv, true
}

// FluidPlacement is an authored fluid interval in one column. Density may be
// given directly or looked up from the catalogue by Mud.
type FluidPlacement struct {
	Name      string    `json:"name"`
	Placement Placement `json:"placement"`
	TopMD     float64   `json:"top_md"`
	BottomMD  float64   `json:"bottom_md"`
	Density   float64   `json:"density_kgpm3,omitempty"`
	Mud       string    `json:"mud,omitempty"`
	Color     Color     `json:"color"`
}

// Catalogue is a set of muds keyed by name.
type Catalogue struct {
	muds  map[string]Mud
	order []string
}

// NewCatalogue indexes muds by name.
func NewCatalogue(muds []Mud) (*Catalogue, error) {
	c := &Catalogue{muds: make(map[string]Mud, len(muds))}
	for _, m := range muds {
		if m.Name == "" || m.Density <= 0 {
			return nil, fmt.Errorf("%w: %q density %g", ErrBadMud, m.Name, m.Density)
		}
		if _, dup := c.muds[m.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrBadMud, m.Name)
		}
		if _, err := m.Color.Resolve(); err != nil {
			return nil, err
		}
		c.muds[m.Name] = m
		c.order = append(c.order, m.Name)
	}
	return c, nil
}

// Lookup returns the mud called name.
func (c *Catalogue) Lookup(name string) (Mud, bool) {
	if c == nil {
		return Mud{}, false
	}
	m, ok := c.muds[name]
	return m, ok
}

// Muds returns the catalogue in insertion order.
func (c *Catalogue) Muds() []Mud {
	if c == nil {
		return nil
	}
	out := make([]Mud, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, c.muds[n])
	}
	return out
}

// Resolve looks up the placement's mud and colour. An explicit density wins
// over the catalogue; an explicit colour wins over the mud's.
func (c *Catalogue) Resolve(p FluidPlacement) (Resolved, error) {
	r := Resolved{Name: p.Name, TopMD: p.TopMD, BottomMD: p.BottomMD, Density: p.Density}
	color := p.Color
	if p.Mud != "" {
		m, ok := c.Lookup(p.Mud)
		if !ok {
			return Resolved{}, fmt.Errorf("%w: %q", ErrUnknownMud, p.Mud)
		}
		if r.Density <= 0 {
			r.Density = m.Density
		}
		if r.Name == "" {
			r.Name = m.Name
		}
		if color.IsZero() {
			color = m.Color
		}
	}
	if r.Density <= 0 {
		return Resolved{}, fmt.Errorf("%w: %q", ErrNoDensity, p.Name)
	}
	rgba, err := color.Resolve()
	if err != nil {
		return Resolved{}, err
	}
	r.Color = rgba
	return r, nil
}
