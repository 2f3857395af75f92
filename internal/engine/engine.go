// Package engine implements the trip simulation loop.
//
// The simulation advances the bit in fixed depth increments. Each step has
// two passes:
//
//  1. Hypothesis pass - the pipe movement is applied twice, once with the
//     float valve held closed and once with it open, giving the backfill each
//     float state would need.
//
//  2. Decision pass - the float valve state machine evaluates the closed
//     hypothesis; the consistent hypothesis is kept and, when the float is
//     open and the choke is not held, the string U-tubes until the float
//     differential falls to its crack pressure.
package engine

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/cxd309/trip-engine/internal/fluid"
	"github.com/cxd309/trip-engine/internal/geometry"
	"github.com/cxd309/trip-engine/internal/survey"
	"github.com/cxd309/trip-engine/internal/valve"
)

// Fluid names used for pumped and default fluids.
const (
	BaseMudName  = "base mud"
	BackfillName = "backfill"
)

// Option configures a Trip.
type Option func(*Trip)

// WithLogger sets the logger used for run summaries and geometry warnings.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(t *Trip) {
		if l != nil {
			t.log = l
		}
	}
}

// WithPlacements sets the authored fluid placements. A column with no
// placements starts full of base mud.
func WithPlacements(p []fluid.FluidPlacement) Option {
	return func(t *Trip) { t.placements = append([]fluid.FluidPlacement(nil), p...) }
}

// WithCatalogue sets the mud catalogue placements are resolved against.
func WithCatalogue(c *fluid.Catalogue) Option {
	return func(t *Trip) { t.catalogue = c }
}

// NewTrip validates the input and geometry and resolves fluid placements.
// All configuration errors are *ConfigError.
func NewTrip(input TripInput, geom *geometry.Geometry, sampler survey.Sampler, opts ...Option) (*Trip, error) {
	t := &Trip{
		input:   input,
		geom:    geom,
		sampler: sampler,
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.sampler == nil {
		t.sampler = survey.Vertical{}
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	if err := t.resolvePlacements(); err != nil {
		return nil, err
	}

	t.log.Debugw("trip configured",
		"start_md", input.StartMD,
		"end_md", input.EndMD,
		"step_m", t.step,
		"td", t.td,
		"control_md", t.controlMD,
		"warnings", len(t.warnings),
	)
	return t, nil
}

func (t *Trip) validate() error {
	in := &t.input
	if t.geom == nil || !t.geom.HasString() {
		return configErr("geometry", ErrEmptyGeometry, "")
	}
	if in.Step == 0 || math.IsNaN(in.Step) || math.IsInf(in.Step, 0) {
		return configErr("step_m", ErrZeroStep, "")
	}
	t.step = math.Abs(in.Step)
	t.td = t.geom.TotalDepth()

	for _, f := range []struct {
		name string
		v    float64
	}{{"start_md", in.StartMD}, {"end_md", in.EndMD}} {
		if math.IsNaN(f.v) || f.v < 0 || f.v > t.td+fluid.Epsilon {
			return configErr(f.name, ErrInvalidInput, "%g m outside 0..%g m", f.v, t.td)
		}
	}
	if !(in.BaseMudDensity > 0) {
		return configErr("base_mud_density_kgpm3", ErrInvalidInput, "must be positive")
	}
	if in.BackfillDensity < 0 {
		return configErr("backfill_density_kgpm3", ErrInvalidInput, "must not be negative")
	}
	if in.BackfillDensity == 0 {
		in.BackfillDensity = in.BaseMudDensity
	}
	if in.TargetESD < 0 {
		return configErr("target_esd_kgpm3", ErrInvalidInput, "must not be negative")
	}
	if in.CrackFloat < 0 {
		return configErr("crack_float_kpa", ErrInvalidInput, "must not be negative")
	}
	if in.InitialSABP < 0 {
		return configErr("initial_sabp_kpa", ErrInvalidInput, "must not be negative")
	}

	t.controlMD = in.ControlMD
	if t.controlMD <= 0 {
		t.controlMD = t.td
	}
	if t.controlMD > t.td+fluid.Epsilon {
		return configErr("control_md", ErrInvalidInput, "%g m below total depth %g m", t.controlMD, t.td)
	}
	t.tdTVD = t.sampler.TVD(t.td)
	t.controlTVD = t.sampler.TVD(t.controlMD)

	if in.StrictGeometry {
		if err := t.geom.CheckClearance(); err != nil {
			return &ConfigError{Field: "geometry", Err: err}
		}
	}
	for _, w := range t.geom.Clearance() {
		t.warnings = append(t.warnings, w)
		t.log.Warnw("annulus area clamped to zero", "detail", w)
	}
	return nil
}

func (t *Trip) resolvePlacements() error {
	for i, p := range t.placements {
		r, err := t.catalogue.Resolve(p)
		if err != nil {
			return &ConfigError{Field: fmt.Sprintf("placements[%d]", i), Err: err}
		}
		switch p.Placement {
		case fluid.PlacementAnnulus:
			t.annulus = append(t.annulus, r)
		case fluid.PlacementString:
			t.str = append(t.str, r)
		default:
			return configErr(fmt.Sprintf("placements[%d]", i), ErrInvalidInput, "unknown placement %q", p.Placement)
		}
	}
	if len(t.annulus) == 0 {
		t.annulus = []fluid.Resolved{{Name: BaseMudName, TopMD: 0, BottomMD: t.td, Density: t.input.BaseMudDensity}}
	}
	if len(t.str) == 0 {
		t.str = []fluid.Resolved{{Name: BaseMudName, TopMD: 0, BottomMD: t.td, Density: t.input.BaseMudDensity}}
	}
	return nil
}

// Input returns the normalised trip input.
func (t *Trip) Input() TripInput { return t.input }

// Warnings returns the geometry warnings found while configuring the trip.
func (t *Trip) Warnings() []string { return append([]string(nil), t.warnings...) }

// Run executes the full trip and returns one step per bit depth, starting
// with the state at the start depth before any pipe movement.
func (t *Trip) Run() []TripStep {
	depths := t.depths()
	steps := make([]TripStep, 0, len(depths))

	st := t.initial()
	prev := depths[0]
	for i, md := range depths {
		var s TripStep
		st, s = t.advance(i, st, prev, md)
		steps = append(steps, s)
		prev = md
	}

	last := steps[len(steps)-1]
	t.log.Debugw("trip complete",
		"steps", len(steps),
		"float", last.FloatState,
		"cumulative_backfill_m3", last.CumulativeBackfill,
		"cumulative_pit_gain_m3", last.CumulativePitGain,
	)
	return steps
}

// depths returns the bit depths visited, landing exactly on the end depth.
func (t *Trip) depths() []float64 {
	start, end := t.input.StartMD, t.input.EndMD
	span := math.Abs(end - start)
	dir := 1.0
	if end < start {
		dir = -1
	}
	n := int(math.Ceil(span/t.step - fluid.Epsilon))
	out := make([]float64, n+1)
	out[0] = start
	for k := 1; k <= n; k++ {
		out[k] = start + dir*math.Min(float64(k)*t.step, span)
	}
	out[n] = end
	return out
}

// initial lays the authored placements into the columns with the bit at the
// start depth.
func (t *Trip) initial() tripState {
	bit := t.input.StartMD
	hole := fluid.Fill(t.annulus, 0, t.td, t.sampler, t.volumeFunc(geometry.Annulus, bit))
	str := fluid.Fill(t.str, 0, bit, t.sampler, t.volumeFunc(geometry.Bore, bit))

	remaining := t.input.BackfillVolume
	if remaining <= 0 {
		remaining = -1
	}
	return tripState{
		hole:      dropTopAir(fluid.Parcels(hole)),
		str:       dropTopAir(fluid.Parcels(str)),
		float:     valve.StateClosed,
		remaining: remaining,
	}
}

// advance moves the bit from md0 to md1 and records the resulting step.
func (t *Trip) advance(index int, prev tripState, md0, md1 float64) (tripState, TripStep) {
	closed := t.move(prev, md0, md1, valve.StateClosed)
	open := t.move(prev, md0, md1, valve.StateOpen)

	cc := t.measure(closed.state, md1)
	tr := valve.Next(prev.float, valve.Inputs{
		StringPressure:    cc.pStr,
		AnnulusPressure:   cc.pAnn,
		Choke:             t.choke(index, cc.sabp),
		Crack:             t.input.CrackFloat,
		FillIfClosed:      closed.pumped,
		FillIfOpen:        open.pumped,
		BackfillRemaining: prev.remaining,
	})

	chosen, c := closed, cc
	if tr.To == valve.StateOpen {
		chosen = open
		if !t.input.HoldSABPOpen {
			chosen = t.uTube(index, chosen, md1)
		}
		c = t.measure(chosen.state, md1)
	}

	next := chosen.state
	next.float = tr.To
	next.cumBackfill += chosen.pumped
	next.cumPit += chosen.pitGain
	next.cumSlug += chosen.slug

	s := TripStep{
		Index:             index,
		BitMD:             md1,
		BitTVD:            c.bitTVD,
		SABP:              c.sabp,
		SABPDynamic:       valve.DynamicChoke(tr.To, c.sabp, c.pStr, c.pAnn, t.input.CrackFloat),
		ESDAtTD:           fluid.EquivalentDensity(c.pTD, t.tdTVD),
		ESDAtControl:      fluid.EquivalentDensity(c.pControl, t.controlTVD),
		PressureAtTD:      c.pTD,
		PressureAtControl: c.pControl,
		StringPressure:    c.pStr,
		AnnulusPressure:   c.pAnn,
		FloatDifferential: tr.Differential,
		FloatState:        tr.To,
		FloatLabel:        tr.Label,

		StepBackfill:     chosen.pumped,
		PitGain:          chosen.pitGain,
		SurfaceTankDelta: chosen.pumped - chosen.pitGain,

		CumulativeBackfill:         next.cumBackfill,
		CumulativePitGain:          next.cumPit,
		CumulativeSurfaceTankDelta: next.cumBackfill - next.cumPit,
		CumulativeSlugContribution: next.cumSlug,

		ExpectedFillIfClosed: closed.pumped,
		ExpectedFillIfOpen:   open.pumped,

		LayersAnnulus: c.annulus,
		LayersString:  c.str,
		LayersPocket:  c.pocket,
	}
	if tr.BackfillLimited {
		s.FloatLabel += " (backfill exhausted)"
	}
	if next.remaining < 0 {
		s.BackfillUnlimited = true
	} else {
		s.BackfillRemaining = next.remaining
	}
	return next, s
}

// choke is the surface back pressure the float sees. The first step holds at
// least the initial SABP.
func (t *Trip) choke(index int, sabp float64) float64 {
	if index == 0 {
		return math.Max(t.input.InitialSABP, sabp)
	}
	return sabp
}

// measure maps a state onto the columns with the bit at bit and integrates
// the pressures.
func (t *Trip) measure(st tripState, bit float64) columns {
	c := columns{bitTVD: t.sampler.TVD(bit)}

	hole, _ := fluid.Stack(st.hole, t.geom.Segments(geometry.Annulus, 0, t.td, bit), t.sampler)
	c.annulus, c.pocket = fluid.Slice(hole, bit, t.sampler, t.volumeFunc(geometry.Annulus, bit))
	c.str, _ = fluid.Stack(st.str, t.geom.Segments(geometry.Bore, 0, bit, bit), t.sampler)

	c.pStr = fluid.PressureAt(c.str, c.bitTVD)
	c.pAnn = fluid.PressureAt(c.annulus, c.bitTVD)
	c.pTD = fluid.PressureThrough(c.annulus, c.pocket, c.bitTVD, t.tdTVD)
	c.pControl = fluid.PressureThrough(c.annulus, c.pocket, c.bitTVD, t.controlTVD)
	c.sabp = math.Max(0, t.input.TargetESD*fluid.Gravity*t.tdTVD-c.pTD)
	return c
}

func (t *Trip) volumeFunc(kind geometry.Kind, bit float64) fluid.VolumeFunc {
	return func(top, bottom float64) float64 { return t.geom.Volume(kind, top, bottom, bit) }
}

// dropTopAir removes air parcels from the top of a bottom-first column; empty
// space above the fluid is implied.
func dropTopAir(parcels []fluid.Parcel) []fluid.Parcel {
	n := len(parcels)
	for n > 0 && fluid.IsAir(parcels[n-1].Density) {
		n--
	}
	return parcels[:n:n]
}
