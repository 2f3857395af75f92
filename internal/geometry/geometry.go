// Package geometry describes the wellbore and the drill string inside it and
// integrates the cross-sectional areas that the fluid columns occupy.
package geometry

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrEmpty        = errors.New("geometry: no hole sections")
	ErrOverlap      = errors.New("geometry: sections overlap")
	ErrGap          = errors.New("geometry: sections leave a gap")
	ErrBadSection   = errors.New("geometry: invalid section")
	ErrNegativeArea = errors.New("geometry: string OD exceeds hole ID")
)

// eps is the depth tolerance used when comparing section boundaries.
const eps = 1e-9

// HoleSection is a contiguous interval of open hole or casing with a constant
// inner diameter.
type HoleSection struct {
	Name     string  `json:"name,omitempty"`
	TopMD    float64 `json:"top_md"`    // m
	BottomMD float64 `json:"bottom_md"` // m
	ID       float64 `json:"id"`        // inner diameter, m
}

// StringSection is a drill string component. Depths are measured with the bit
// at the deepest section bottom; the string moves rigidly with the bit.
type StringSection struct {
	Name     string  `json:"name,omitempty"`
	TopMD    float64 `json:"top_md"`    // m
	BottomMD float64 `json:"bottom_md"` // m
	OD       float64 `json:"od"`        // outer diameter, m
	ID       float64 `json:"id"`        // inner diameter, m
}

// Length returns the section length in metres.
func (s HoleSection) Length() float64 { return s.BottomMD - s.TopMD }

// Length returns the section length in metres.
func (s StringSection) Length() float64 { return s.BottomMD - s.TopMD }

// Data is the serialisable input representation of a well geometry.
type Data struct {
	Hole   []HoleSection   `json:"hole"`
	String []StringSection `json:"string"`
}

// Kind selects which cross-sectional area an integration uses.
type Kind int

const (
	// Hole is the full open-hole area regardless of the string.
	Hole Kind = iota
	// Annulus is the hole area minus the string OD area. Below the bit it
	// equals the hole area.
	Annulus
	// Bore is the string inner area, zero below the bit.
	Bore
	// Steel is the string wall area, zero below the bit.
	Steel
	// ClosedEnd is the full string OD area, zero below the bit.
	ClosedEnd
)

func (k Kind) String() string {
	switch k {
	case Hole:
		return "hole"
	case Annulus:
		return "annulus"
	case Bore:
		return "bore"
	case Steel:
		return "steel"
	case ClosedEnd:
		return "closed-end"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Segment is a depth interval over which an area is constant.
type Segment struct {
	TopMD    float64
	BottomMD float64
	Area     float64 // m²
}

// Volume returns the segment volume in m³.
func (s Segment) Volume() float64 { return s.Area * (s.BottomMD - s.TopMD) }

// Geometry is a validated, depth-sorted well geometry.
type Geometry struct {
	hole  []HoleSection
	str   []StringSection
	refMD float64 // bit depth the string sections were authored at
}

// New validates the sections and returns a Geometry. Hole sections must run
// contiguously from surface; string sections must be contiguous.
func New(data Data) (*Geometry, error) {
	if len(data.Hole) == 0 {
		return nil, ErrEmpty
	}
	hole := append([]HoleSection(nil), data.Hole...)
	sort.SliceStable(hole, func(i, j int) bool { return hole[i].TopMD < hole[j].TopMD })
	str := append([]StringSection(nil), data.String...)
	sort.SliceStable(str, func(i, j int) bool { return str[i].TopMD < str[j].TopMD })

	if hole[0].TopMD > eps {
		return nil, fmt.Errorf("%w: first hole section starts at %g m, not surface", ErrGap, hole[0].TopMD)
	}
	for i, h := range hole {
		if h.Length() <= 0 || h.ID <= 0 {
			return nil, fmt.Errorf("%w: hole section %d %q", ErrBadSection, i, h.Name)
		}
		if i > 0 {
			if err := checkJoin(hole[i-1].BottomMD, h.TopMD); err != nil {
				return nil, fmt.Errorf("%w: hole sections %q and %q", err, hole[i-1].Name, h.Name)
			}
		}
	}
	for i, s := range str {
		if s.Length() <= 0 || s.OD <= 0 || s.ID < 0 || s.ID >= s.OD {
			return nil, fmt.Errorf("%w: string section %d %q", ErrBadSection, i, s.Name)
		}
		if i > 0 {
			if err := checkJoin(str[i-1].BottomMD, s.TopMD); err != nil {
				return nil, fmt.Errorf("%w: string sections %q and %q", err, str[i-1].Name, s.Name)
			}
		}
	}

	g := &Geometry{hole: hole, str: str}
	if len(str) > 0 {
		g.refMD = str[len(str)-1].BottomMD
	}
	return g, nil
}

func checkJoin(prevBottom, top float64) error {
	switch {
	case top < prevBottom-eps:
		return ErrOverlap
	case top > prevBottom+eps:
		return ErrGap
	}
	return nil
}

// Data returns the serialisable form of the geometry.
func (g *Geometry) Data() Data {
	return Data{
		Hole:   append([]HoleSection(nil), g.hole...),
		String: append([]StringSection(nil), g.str...),
	}
}

// TotalDepth is the deepest hole section bottom.
func (g *Geometry) TotalDepth() float64 { return g.hole[len(g.hole)-1].BottomMD }

// HasString reports whether any string sections are defined.
func (g *Geometry) HasString() bool { return len(g.str) > 0 }

// Clearance reports every hole and string section pair where the string OD
// exceeds the hole ID. The annulus area there is clamped to zero.
func (g *Geometry) Clearance() []string {
	var warnings []string
	for _, h := range g.hole {
		for _, s := range g.str {
			if s.OD > h.ID {
				warnings = append(warnings, fmt.Sprintf(
					"string section %q OD %.4f m exceeds hole section %q ID %.4f m",
					s.Name, s.OD, h.Name, h.ID))
			}
		}
	}
	return warnings
}

// CheckClearance returns ErrNegativeArea when any string section cannot fit
// inside any hole section.
func (g *Geometry) CheckClearance() error {
	if w := g.Clearance(); len(w) > 0 {
		return fmt.Errorf("%w: %s", ErrNegativeArea, w[0])
	}
	return nil
}

func circle(d float64) float64 { return math.Pi / 4 * d * d }

func (g *Geometry) holeAt(md float64) (HoleSection, bool) {
	i := sort.Search(len(g.hole), func(i int) bool { return g.hole[i].BottomMD > md })
	if i == len(g.hole) {
		return HoleSection{}, false
	}
	return g.hole[i], md >= g.hole[i].TopMD-eps
}

// stringAt returns the string section at md when the bit is at bitMD. When
// the bit is deeper than the authored reference depth the top section is
// extended to surface.
func (g *Geometry) stringAt(md, bitMD float64) (StringSection, bool) {
	if len(g.str) == 0 || md >= bitMD || md < 0 {
		return StringSection{}, false
	}
	local := md + g.refMD - bitMD
	if local < g.str[0].TopMD {
		return g.str[0], true
	}
	i := sort.Search(len(g.str), func(i int) bool { return g.str[i].BottomMD > local })
	if i == len(g.str) {
		i = len(g.str) - 1
	}
	return g.str[i], true
}

// Area returns the cross-sectional area of kind at md with the bit at bitMD.
func (g *Geometry) Area(kind Kind, md, bitMD float64) float64 {
	h, inHole := g.holeAt(md)
	s, inString := g.stringAt(md, bitMD)
	switch kind {
	case Hole:
		if inHole {
			return circle(h.ID)
		}
	case Annulus:
		if !inHole {
			return 0
		}
		if !inString {
			return circle(h.ID)
		}
		return math.Max(0, circle(h.ID)-circle(s.OD))
	case Bore:
		if inString {
			return circle(s.ID)
		}
	case Steel:
		if inString {
			return circle(s.OD) - circle(s.ID)
		}
	case ClosedEnd:
		if inString {
			return circle(s.OD)
		}
	}
	return 0
}

// Segments splits [topMD, bottomMD] into intervals of constant area for kind
// with the bit at bitMD, ordered top first.
func (g *Geometry) Segments(kind Kind, topMD, bottomMD, bitMD float64) []Segment {
	if bottomMD-topMD <= eps {
		return nil
	}
	cuts := []float64{topMD, bottomMD, bitMD}
	for _, h := range g.hole {
		cuts = append(cuts, h.TopMD, h.BottomMD)
	}
	shift := g.refMD - bitMD
	for _, s := range g.str {
		cuts = append(cuts, s.TopMD-shift, s.BottomMD-shift)
	}
	sort.Float64s(cuts)

	segs := make([]Segment, 0, len(cuts))
	prev := topMD
	for _, c := range cuts {
		if c <= prev+eps || c > bottomMD+eps {
			continue
		}
		c = math.Min(c, bottomMD)
		segs = append(segs, Segment{TopMD: prev, BottomMD: c, Area: g.Area(kind, (prev+c)/2, bitMD)})
		prev = c
	}
	return segs
}

// Volume integrates the area of kind exactly over [topMD, bottomMD] with the
// bit at bitMD. Reversed bounds yield zero.
func (g *Geometry) Volume(kind Kind, topMD, bottomMD, bitMD float64) float64 {
	segs := g.Segments(kind, topMD, bottomMD, bitMD)
	if len(segs) == 0 {
		return 0
	}
	lengths := make([]float64, len(segs))
	areas := make([]float64, len(segs))
	for i, s := range segs {
		lengths[i] = s.BottomMD - s.TopMD
		areas[i] = s.Area
	}
	return floats.Dot(lengths, areas)
}

// TopFor walks upward from bottomMD and returns the depth at which volume m³
// of kind has been accumulated. ok is false when the volume does not fit
// below topLimit; topMD is then topLimit.
func (g *Geometry) TopFor(kind Kind, bottomMD, volume, topLimit, bitMD float64) (topMD float64, ok bool) {
	segs := g.Segments(kind, topLimit, bottomMD, bitMD)
	remaining := volume
	for i := len(segs) - 1; i >= 0; i-- {
		s := segs[i]
		if remaining <= 0 {
			return s.BottomMD, true
		}
		v := s.Volume()
		if v >= remaining && s.Area > 0 {
			return s.BottomMD - remaining/s.Area, true
		}
		remaining -= v
	}
	if remaining <= eps {
		return topLimit, true
	}
	return topLimit, false
}
