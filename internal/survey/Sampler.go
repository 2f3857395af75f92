// Package survey defines the Sampler interface that converts measured depth
// into true vertical depth, along with the built-in trajectory models.
//
// Adding a new trajectory model requires only implementing Sampler and
// registering it in the JSON discriminator in trajectory.go; the trip engine
// itself never needs to change.
package survey

import "errors"

var (
	// ErrNoStations is returned when a survey has too few stations to interpolate.
	ErrNoStations = errors.New("survey: at least one station below surface is required")

	// ErrDuplicateStation is returned when two stations share the same measured depth.
	ErrDuplicateStation = errors.New("survey: duplicate station measured depth")

	// ErrBadStation is returned for stations with negative depth or out-of-range angles.
	ErrBadStation = errors.New("survey: invalid station")

	// ErrBadPlan is returned for plan parameters that would make TVD decrease.
	ErrBadPlan = errors.New("survey: invalid plan")
)

// Sampler is the depth-conversion contract every trajectory model satisfies.
// Depths are metres. TVD must be monotonic non-decreasing in md.
type Sampler interface {
	// TVD returns the true vertical depth at measured depth md.
	TVD(md float64) float64
}

// HeelFinder is implemented by trajectories that know their inclination
// profile. HeelMD returns the first measured depth where the inclination
// reaches 90 degrees.
type HeelFinder interface {
	HeelMD() (float64, bool)
}

// SamplerFunc adapts an ordinary function to the Sampler interface.
type SamplerFunc func(md float64) float64

func (f SamplerFunc) TVD(md float64) float64 { return f(md) }

// VerticalModelName is the JSON discriminator string for the Vertical model.
const VerticalModelName = "vertical"

// Vertical is a straight vertical hole where TVD equals MD.
//
// JSON discriminator: "model": "vertical"
type Vertical struct{}

func (Vertical) TVD(md float64) float64 { return md }

func (Vertical) HeelMD() (float64, bool) { return 0, false }
