package survey

import (
	"fmt"
	"math"
)

// PlanModelName is the JSON discriminator string for the Plan model.
const PlanModelName = "plan"

// Plan implements Sampler for a build-and-hold well plan: vertical to the
// kickoff point, a constant build rate, then a tangent at the hold inclination.
//
// JSON discriminator: "model": "plan"
type Plan struct {
	KickoffMD float64 `json:"kickoff_md"` // m
	BuildRate float64 `json:"build_rate"` // degrees per 30 m
	HoldInc   float64 `json:"hold_inc"`   // degrees
}

// Validate rejects plans whose TVD would not be monotonic: a negative
// kickoff or build rate, or a hold inclination outside 0..180 degrees.
func (p Plan) Validate() error {
	switch {
	case !(p.KickoffMD >= 0) || math.IsInf(p.KickoffMD, 0):
		return fmt.Errorf("%w: kickoff_md %g", ErrBadPlan, p.KickoffMD)
	case !(p.BuildRate >= 0) || math.IsInf(p.BuildRate, 0):
		return fmt.Errorf("%w: build_rate %g", ErrBadPlan, p.BuildRate)
	case !(p.HoldInc >= 0 && p.HoldInc <= 180):
		return fmt.Errorf("%w: hold_inc %g outside 0..180", ErrBadPlan, p.HoldInc)
	}
	return nil
}

// buildLength returns the measured length of the build section.
func (p Plan) buildLength() float64 {
	if p.BuildRate <= 0 {
		return 0
	}
	return p.HoldInc / p.BuildRate * 30
}

func (p Plan) TVD(md float64) float64 {
	if md <= p.KickoffMD {
		return md
	}
	s := md - p.KickoffMD
	lb := p.buildLength()
	if lb == 0 {
		return p.KickoffMD + s*math.Max(0, math.Cos(deg2rad(p.HoldInc)))
	}
	r := 30 * 180 / (math.Pi * p.BuildRate)
	if s <= lb {
		return p.KickoffMD + r*math.Sin(math.Min(s/r, math.Pi/2))
	}
	hold := deg2rad(p.HoldInc)
	return p.KickoffMD + r*math.Sin(math.Min(hold, math.Pi/2)) + (s-lb)*math.Max(0, math.Cos(hold))
}

// Inclination returns the planned inclination at md, degrees.
func (p Plan) Inclination(md float64) float64 {
	if md <= p.KickoffMD {
		return 0
	}
	lb := p.buildLength()
	if s := md - p.KickoffMD; s < lb {
		return s / 30 * p.BuildRate
	}
	return p.HoldInc
}

func (p Plan) HeelMD() (float64, bool) {
	if p.HoldInc < 90 {
		return 0, false
	}
	if p.BuildRate <= 0 {
		return p.KickoffMD, true
	}
	return p.KickoffMD + 90/p.BuildRate*30, true
}
