// Package optimizer back-solves the kill mud density that, together with
// the slugs pumped before a trip, gives a target equivalent static density at
// the control depth.
package optimizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/cxd309/trip-engine/internal/fluid"
	"github.com/cxd309/trip-engine/internal/geometry"
	"github.com/cxd309/trip-engine/internal/survey"
)

var (
	// ErrInfeasible is returned when the slugs leave no room for kill mud.
	ErrInfeasible = errors.New("optimizer: no room for kill mud above the slugs")
	// ErrInvalidInput is returned for out-of-range optimizer parameters.
	ErrInvalidInput = errors.New("optimizer: invalid input")
)

// Layer names in the optimised column.
const (
	KillMudName     = "kill mud"
	SurfaceSlugName = "surface slug"
	ActiveMudName   = "active mud"
	SecondSlugName  = "second slug"
	OriginalMudName = "original mud"
)

// waterDensity is the advisory lower bound for kill mud, kg/m³.
const waterDensity = 1000.0

// Input describes the slug programme to optimise.
type Input struct {
	ControlMD          float64         `json:"control_md"`
	BitMD              float64         `json:"bit_md,omitempty"` // zero means control depth
	Column             fluid.Placement `json:"column,omitempty"` // string (default) or annulus
	TargetESD          float64         `json:"target_esd_kgpm3"`
	BaseMudDensity     float64         `json:"base_mud_density_kgpm3"`
	CrackFloat         float64         `json:"crack_float_kpa"`
	SurfaceSlugVolume  float64         `json:"surface_slug_volume_m3"`
	SurfaceSlugDensity float64         `json:"surface_slug_density_kgpm3"`
	ActiveMudVolume    float64         `json:"active_mud_volume_m3,omitempty"`
	ActiveMudDensity   float64         `json:"active_mud_density_kgpm3,omitempty"` // zero means base mud
	SecondSlugVolume   float64         `json:"second_slug_volume_m3"`
	SecondSlugDensity  *float64        `json:"second_slug_density_kgpm3,omitempty"` // nil means auto
	HeelMD             *float64        `json:"heel_md,omitempty"`                   // nil means detect
}

// Result is the optimised column, top first.
type Result struct {
	KillMudDensity    float64       `json:"kill_mud_density_kgpm3"`
	SecondSlugDensity float64       `json:"second_slug_density_kgpm3"`
	SecondSlugAuto    bool          `json:"second_slug_auto"`
	HeelMD            float64       `json:"heel_md"`
	HeelTVD           float64       `json:"heel_tvd"`
	HeelDetected      bool          `json:"heel_detected"`
	ControlTVD        float64       `json:"control_tvd"`
	Layers            []fluid.Layer `json:"layers"`
	PressureAtControl float64       `json:"pressure_at_control_kpa"`
	ESDAtControl      float64       `json:"esd_at_control_kgpm3"`
	Warnings          []string      `json:"warnings,omitempty"`
}

// Calculate solves for the kill mud density. Soft violations are reported in
// Result.Warnings; ErrInfeasible is returned when the slugs fill the column.
func Calculate(in Input, geom *geometry.Geometry, sampler survey.Sampler) (*Result, error) {
	if sampler == nil {
		sampler = survey.Vertical{}
	}
	if err := validate(&in, geom); err != nil {
		return nil, err
	}
	kind := geometry.Bore
	if in.Column == fluid.PlacementAnnulus {
		kind = geometry.Annulus
	}

	res := &Result{ControlTVD: sampler.TVD(in.ControlMD)}
	res.HeelMD, res.HeelDetected = heel(in, sampler)
	if !res.HeelDetected {
		res.HeelMD = in.ControlMD
		res.warn("no heel found; second slug sits on the control depth")
	}
	if res.HeelMD > in.ControlMD {
		res.warn("heel at %.1f m is below the control depth %.1f m; second slug sits on the control depth", res.HeelMD, in.ControlMD)
	}
	res.HeelTVD = sampler.TVD(res.HeelMD)

	res.SecondSlugDensity, res.SecondSlugAuto = secondSlugDensity(in, res)

	// Stack the known fluids upward from the control depth.
	var stack []fluid.Resolved
	bottom := math.Min(res.HeelMD, in.ControlMD)
	if in.ControlMD-bottom > fluid.Epsilon {
		stack = append(stack, fluid.Resolved{Name: OriginalMudName, TopMD: bottom, BottomMD: in.ControlMD, Density: in.BaseMudDensity})
	}
	for _, p := range []struct {
		name    string
		volume  float64
		density float64
	}{
		{SecondSlugName, in.SecondSlugVolume, res.SecondSlugDensity},
		{ActiveMudName, in.ActiveMudVolume, in.ActiveMudDensity},
		{SurfaceSlugName, in.SurfaceSlugVolume, in.SurfaceSlugDensity},
	} {
		if p.volume <= 0 {
			continue
		}
		top, ok := geom.TopFor(kind, bottom, p.volume, 0, in.BitMD)
		if !ok || top <= fluid.Epsilon {
			return nil, fmt.Errorf("%w: %s reaches surface", ErrInfeasible, p.name)
		}
		stack = append(stack, fluid.Resolved{Name: p.name, TopMD: top, BottomMD: bottom, Density: p.density})
		bottom = top
	}

	killHeight := sampler.TVD(bottom) - sampler.TVD(0)
	if killHeight <= fluid.Epsilon {
		return nil, fmt.Errorf("%w: kill mud column has no vertical height", ErrInfeasible)
	}

	volume := func(top, btm float64) float64 { return geom.Volume(kind, top, btm, in.BitMD) }
	known := fluid.Fill(stack, bottom, in.ControlMD, sampler, volume)
	target := in.TargetESD * fluid.Gravity * res.ControlTVD
	res.KillMudDensity = (target - fluid.PressureAt(known, res.ControlTVD)) / (fluid.Gravity * killHeight)

	stack = append(stack, fluid.Resolved{Name: KillMudName, TopMD: 0, BottomMD: bottom, Density: res.KillMudDensity})
	res.Layers = fluid.Fill(stack, 0, in.ControlMD, sampler, volume)
	res.PressureAtControl = fluid.PressureAt(res.Layers, res.ControlTVD)
	res.ESDAtControl = fluid.EquivalentDensity(res.PressureAtControl, res.ControlTVD)

	switch {
	case res.KillMudDensity <= 0:
		res.warn("target ESD %.1f kg/m³ is below what the slugs alone exert; kill mud density %.1f kg/m³ is not achievable", in.TargetESD, res.KillMudDensity)
	case res.KillMudDensity < waterDensity:
		res.warn("kill mud density %.1f kg/m³ is lighter than water", res.KillMudDensity)
	}
	if in.SurfaceSlugVolume > 0 && in.SurfaceSlugDensity < res.KillMudDensity {
		res.warn("surface slug %.1f kg/m³ is lighter than the kill mud %.1f kg/m³", in.SurfaceSlugDensity, res.KillMudDensity)
	}
	return res, nil
}

func validate(in *Input, geom *geometry.Geometry) error {
	if geom == nil {
		return fmt.Errorf("%w: no geometry", ErrInvalidInput)
	}
	td := geom.TotalDepth()
	if !(in.ControlMD > 0) || in.ControlMD > td+fluid.Epsilon {
		return fmt.Errorf("%w: control depth %g m outside 0..%g m", ErrInvalidInput, in.ControlMD, td)
	}
	if in.BitMD <= 0 {
		in.BitMD = in.ControlMD
	}
	switch in.Column {
	case "":
		in.Column = fluid.PlacementString
	case fluid.PlacementString, fluid.PlacementAnnulus:
	default:
		return fmt.Errorf("%w: unknown column %q", ErrInvalidInput, in.Column)
	}
	if in.Column == fluid.PlacementString && in.ControlMD > in.BitMD+fluid.Epsilon {
		return fmt.Errorf("%w: control depth %g m below the bit %g m", ErrInvalidInput, in.ControlMD, in.BitMD)
	}
	if !(in.TargetESD > 0) || !(in.BaseMudDensity > 0) {
		return fmt.Errorf("%w: target ESD and base mud density must be positive", ErrInvalidInput)
	}
	if in.SurfaceSlugVolume < 0 || in.SecondSlugVolume < 0 || in.ActiveMudVolume < 0 {
		return fmt.Errorf("%w: volumes must not be negative", ErrInvalidInput)
	}
	if in.SurfaceSlugVolume > 0 && !(in.SurfaceSlugDensity > 0) {
		return fmt.Errorf("%w: surface slug needs a density", ErrInvalidInput)
	}
	if in.ActiveMudDensity <= 0 {
		in.ActiveMudDensity = in.BaseMudDensity
	}
	return nil
}

func heel(in Input, sampler survey.Sampler) (float64, bool) {
	if in.HeelMD != nil {
		return *in.HeelMD, true
	}
	if hf, ok := sampler.(survey.HeelFinder); ok {
		return hf.HeelMD()
	}
	return 0, false
}

// secondSlugDensity returns the override or the density that balances the
// float at the heel.
func secondSlugDensity(in Input, res *Result) (float64, bool) {
	if in.SecondSlugDensity != nil {
		return *in.SecondSlugDensity, false
	}
	d := 2*in.TargetESD - in.BaseMudDensity
	if res.HeelTVD > fluid.Epsilon {
		d += in.CrackFloat / res.HeelTVD / fluid.Gravity
	} else if in.CrackFloat > 0 {
		res.warn("heel TVD is zero; crack pressure ignored in second slug density")
	}
	return d, true
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Request is the JSON-serialisable input to the optimizer.
type Request struct {
	Input      Input             `json:"optimizer_input"`
	Geometry   geometry.Data     `json:"geometry"`
	Trajectory survey.Trajectory `json:"trajectory"`
}

// Solve builds the geometry described by req and runs Calculate.
func Solve(req Request) (*Result, error) {
	geom, err := geometry.New(req.Geometry)
	if err != nil {
		return nil, err
	}
	return Calculate(req.Input, geom, req.Trajectory)
}

// RunJSON accepts a JSON-encoded Request and returns a JSON-encoded Result.
func RunJSON(jsonInput string) (string, error) {
	var req Request
	if err := json.Unmarshal([]byte(jsonInput), &req); err != nil {
		return "", fmt.Errorf("invalid input JSON: %w", err)
	}
	res, err := Solve(req)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(out), nil
}
