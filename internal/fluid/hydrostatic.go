package fluid

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// PressureAt integrates density times gravity times vertical height down the
// top-first layers until targetTVD, in kPa. Layers with no vertical height
// contribute nothing.
func PressureAt(layers []Layer, targetTVD float64) float64 {
	p := 0.0
	for _, l := range layers {
		if l.Height() <= Epsilon {
			continue
		}
		if l.TopTVD >= targetTVD {
			break
		}
		p += l.Density * Gravity * (math.Min(l.BottomTVD, targetTVD) - l.TopTVD)
		if l.BottomTVD >= targetTVD {
			break
		}
	}
	return p
}

// PressureThrough integrates upper down to boundaryTVD and continues through
// lower when targetTVD lies below the boundary.
func PressureThrough(upper, lower []Layer, boundaryTVD, targetTVD float64) float64 {
	if targetTVD <= boundaryTVD+Epsilon {
		return PressureAt(upper, targetTVD)
	}
	return PressureAt(upper, boundaryTVD) + PressureAt(lower, targetTVD)
}

// Hydrostatic returns the sum of the layers' hydrostatic contributions.
func Hydrostatic(layers []Layer) float64 {
	d := make([]float64, len(layers))
	for i, l := range layers {
		d[i] = l.DeltaHydrostatic
	}
	return floats.Sum(d)
}

// EquivalentDensity converts a pressure at tvd into kg/m³.
func EquivalentDensity(pressure, tvd float64) float64 {
	return pressure / (Gravity * math.Max(tvd, Epsilon))
}
