package engine

import (
	"math"

	"github.com/cxd309/trip-engine/internal/fluid"
	"github.com/cxd309/trip-engine/internal/geometry"
	"github.com/cxd309/trip-engine/internal/valve"
)

// uTubeIterations bounds the bisection that balances an open float.
const uTubeIterations = 60

// move applies the pipe movement from md0 to md1 under one float hypothesis.
func (t *Trip) move(prev tripState, md0, md1 float64, float valve.State) movement {
	var m movement
	switch {
	case md1 < md0 && float == valve.StateClosed:
		m = t.pullClosed(prev, md0, md1)
	case md1 < md0:
		m = t.pullOpen(prev, md0, md1)
	case md1 > md0 && float == valve.StateClosed:
		m = t.runClosed(prev, md0, md1)
	case md1 > md0:
		m = t.runOpen(prev, md0, md1)
	default:
		m = movement{state: prev}
	}
	return t.settle(m, md1)
}

// pullClosed pulls a wet stand: the liquid in the pulled pipe returns to the
// tank, and backfill pumped down the string to top it up displaces the
// closed-end volume out of the bit into the pocket.
func (t *Trip) pullClosed(prev tripState, md0, md1 float64) movement {
	capDelta := t.capacity(md0) - t.capacity(md1)
	vce := t.closedEnd(md0) - t.closedEnd(md1)
	gap := math.Max(0, t.capacity(md0)-fluid.Total(prev.str))

	str, stand := fluid.TakeTop(prev.str, capDelta-gap)
	pumped := vce + math.Max(0, gap-capDelta)
	add, remaining := t.fill(pumped, prev.remaining)
	str = fluid.PushTop(str, add...)
	str, exit := fluid.TakeBottom(str, vce)

	next := prev
	next.str = str
	next.hole = fluid.InsertAt(prev.hole, t.pocket(md1)-fluid.Total(exit), exit)
	next.remaining = remaining
	return movement{state: next, pumped: pumped, pitGain: fluid.Total(stand)}
}

// pullOpen lets the string drain through the float while only the steel
// volume is pumped; the string bottom falls into the pocket.
func (t *Trip) pullOpen(prev tripState, md0, md1 float64) movement {
	vce := t.closedEnd(md0) - t.closedEnd(md1)
	voe := t.steel(md0) - t.steel(md1)

	add, remaining := t.fill(voe, prev.remaining)
	str := fluid.PushTop(prev.str, add...)
	str, exit := fluid.TakeBottom(str, vce)

	next := prev
	next.str = str
	next.hole = fluid.InsertAt(prev.hole, t.pocket(md1)-fluid.Total(exit), exit)
	next.remaining = remaining
	return movement{state: next, pumped: voe}
}

// runClosed runs dry pipe in and fills it from surface. The closed-end
// displacement overflows the hole.
func (t *Trip) runClosed(prev tripState, md0, md1 float64) movement {
	gap := math.Max(0, t.capacity(md0)-fluid.Total(prev.str))
	pumped := t.capacity(md1) - t.capacity(md0) + gap
	add, remaining := t.fill(pumped, prev.remaining)

	next := prev
	next.str = fluid.PushTop(prev.str, add...)
	next.remaining = remaining
	return movement{state: next, pumped: pumped}
}

// runOpen lets the pipe self-fill through the float with the fluid it passes
// below the bit. Only the steel volume overflows the hole.
func (t *Trip) runOpen(prev tripState, md0, md1 float64) movement {
	capAdd := t.capacity(md1) - t.capacity(md0)
	hole, taken := fluid.TakeRange(prev.hole, t.pocket(md1), capAdd)

	next := prev
	next.hole = hole
	next.str = fluid.InsertAt(prev.str, 0, taken)
	return movement{state: next}
}

// settle spills anything above column capacity into the trip tank.
func (t *Trip) settle(m movement, bit float64) movement {
	hole, over := fluid.Trim(m.state.hole, t.holeCapacity(bit))
	str, spill := fluid.Trim(m.state.str, t.capacity(bit))
	m.state.hole, m.state.str = hole, str
	m.pitGain += fluid.Total(over) + fluid.Total(spill)
	return m
}

// uTube drains the string bottom into the annulus until the float
// differential falls to the crack pressure. The fluid pushed out of the
// annulus at surface is pit gain.
func (t *Trip) uTube(index int, m movement, bit float64) movement {
	crack := t.input.CrackFloat
	drain := func(v float64) (tripState, float64, float64) {
		st := m.state
		str, drained := fluid.TakeBottom(st.str, v)
		hole := fluid.InsertAt(st.hole, t.pocket(bit), drained)
		hole, over := fluid.Trim(hole, t.holeCapacity(bit))
		st.str, st.hole = str, hole
		c := t.measure(st, bit)
		return st, c.pStr - c.pAnn - t.choke(index, c.sabp), fluid.Total(over)
	}

	if _, dp, _ := drain(0); dp <= crack+fluid.Epsilon {
		return m
	}
	lo, hi := 0.0, fluid.Total(m.state.str)
	if _, dp, _ := drain(hi); dp <= crack {
		for i := 0; i < uTubeIterations; i++ {
			mid := (lo + hi) / 2
			if _, dp, _ := drain(mid); dp > crack {
				lo = mid
			} else {
				hi = mid
			}
		}
	}

	st, _, over := drain(hi)
	m.state = st
	m.pitGain += over
	m.slug += over
	return m
}

// fill returns the parcels pumped for volume: prepared backfill while it
// lasts, then base mud. A negative remaining means unlimited backfill.
func (t *Trip) fill(volume, remaining float64) ([]fluid.Parcel, float64) {
	if volume <= fluid.Epsilon {
		return nil, remaining
	}
	backfill := volume
	if remaining >= 0 {
		backfill = math.Min(volume, remaining)
		remaining -= backfill
	}
	var out []fluid.Parcel
	if backfill > fluid.Epsilon {
		out = append(out, fluid.Parcel{Name: BackfillName, Density: t.input.BackfillDensity, Volume: backfill})
	}
	if rest := volume - backfill; rest > fluid.Epsilon {
		out = append(out, fluid.Parcel{Name: BaseMudName, Density: t.input.BaseMudDensity, Volume: rest})
	}
	return out, remaining
}

// capacity is the string bore volume with the bit at bit.
func (t *Trip) capacity(bit float64) float64 { return t.geom.Volume(geometry.Bore, 0, bit, bit) }

// closedEnd is the volume the string displaces with its ends closed.
func (t *Trip) closedEnd(bit float64) float64 { return t.geom.Volume(geometry.ClosedEnd, 0, bit, bit) }

// steel is the string wall volume.
func (t *Trip) steel(bit float64) float64 { return t.geom.Volume(geometry.Steel, 0, bit, bit) }

// holeCapacity is the annulus plus pocket volume.
func (t *Trip) holeCapacity(bit float64) float64 { return t.geom.Volume(geometry.Annulus, 0, t.td, bit) }

// pocket is the open hole volume below the bit.
func (t *Trip) pocket(bit float64) float64 { return t.geom.Volume(geometry.Annulus, bit, t.td, bit) }
