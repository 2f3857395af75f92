package fluid

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Total returns the combined volume of the parcels.
func Total(parcels []Parcel) float64 {
	v := make([]float64, len(parcels))
	for i, p := range parcels {
		v[i] = p.Volume
	}
	return floats.Sum(v)
}

// Compact returns a copy of parcels with empty parcels dropped and adjacent
// parcels of the same fluid merged.
func Compact(parcels []Parcel) []Parcel {
	out := make([]Parcel, 0, len(parcels))
	for _, p := range parcels {
		if p.Volume <= Epsilon {
			continue
		}
		if n := len(out); n > 0 && out[n-1].same(p) {
			out[n-1].Volume += p.Volume
			continue
		}
		out = append(out, p)
	}
	return out
}

// Split cuts a bottom-first parcel list at volume offset measured from the
// bottom and returns fresh below and above lists.
func Split(parcels []Parcel, offset float64) (below, above []Parcel) {
	acc := 0.0
	for _, p := range parcels {
		switch {
		case acc+p.Volume <= offset+Epsilon:
			below = append(below, p)
		case acc >= offset-Epsilon:
			above = append(above, p)
		default:
			lo, hi := p, p
			lo.Volume = offset - acc
			hi.Volume = p.Volume - lo.Volume
			below = append(below, lo)
			above = append(above, hi)
		}
		acc += p.Volume
	}
	return below, above
}

// TakeBottom removes up to volume from the bottom of a bottom-first list.
func TakeBottom(parcels []Parcel, volume float64) (rest, taken []Parcel) {
	taken, rest = Split(parcels, math.Max(0, volume))
	return Compact(rest), Compact(taken)
}

// TakeTop removes up to volume from the top of a bottom-first list.
func TakeTop(parcels []Parcel, volume float64) (rest, taken []Parcel) {
	rest, taken = Split(parcels, math.Max(0, Total(parcels)-volume))
	return Compact(rest), Compact(taken)
}

// TakeRange removes up to volume starting offset above the bottom.
func TakeRange(parcels []Parcel, offset, volume float64) (rest, taken []Parcel) {
	below, above := Split(parcels, offset)
	taken, above = Split(above, math.Max(0, volume))
	return Compact(append(below, above...)), Compact(taken)
}

// InsertAt places add (bottom first) at volume offset from the bottom. An
// offset beyond the total appends to the top.
func InsertAt(parcels []Parcel, offset float64, add []Parcel) []Parcel {
	below, above := Split(parcels, math.Max(0, offset))
	out := make([]Parcel, 0, len(below)+len(add)+len(above))
	out = append(out, below...)
	out = append(out, add...)
	out = append(out, above...)
	return Compact(out)
}

// PushTop appends add (bottom first) on top of parcels.
func PushTop(parcels []Parcel, add ...Parcel) []Parcel {
	out := make([]Parcel, 0, len(parcels)+len(add))
	out = append(out, parcels...)
	out = append(out, add...)
	return Compact(out)
}

// Trim removes volume above capacity from the top and returns it.
func Trim(parcels []Parcel, capacity float64) (rest, overflow []Parcel) {
	if excess := Total(parcels) - capacity; excess > Epsilon {
		return TakeTop(parcels, excess)
	}
	return Compact(parcels), nil
}

// Parcels converts top-first layers into a bottom-first parcel list.
func Parcels(layers []Layer) []Parcel {
	out := make([]Parcel, 0, len(layers))
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		out = append(out, Parcel{Name: l.Name, Density: l.Density, Color: l.Color, Volume: l.Volume})
	}
	return Compact(out)
}
