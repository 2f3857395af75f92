// Package fluid models the mud columns in a wellbore: volume-ordered parcels
// of fluid, their mapping onto depth intervals, and the hydrostatic pressure
// they exert.
package fluid

import "math"

const (
	// Gravity converts density times vertical height to pressure, kPa per m per kg/m³.
	Gravity = 0.00981
	// Epsilon is the depth and volume tolerance used throughout the package.
	Epsilon = 1e-9
	// AirDensity is the density assigned to empty column space, kg/m³.
	AirDensity = 1.2
	// AirThreshold marks any density below it as air.
	AirThreshold = 10.0
	// AirName labels layers of empty column space.
	AirName = "air"
)

// Placement names the column a fluid placement belongs to.
type Placement string

const (
	PlacementAnnulus Placement = "annulus"
	PlacementString  Placement = "string"
)

// Layer is a fluid interval in a column. Layers of one column are ordered by
// TopMD ascending and are contiguous.
type Layer struct {
	Name             string  `json:"name"`
	TopMD            float64 `json:"top_md"`
	BottomMD         float64 `json:"bottom_md"`
	TopTVD           float64 `json:"top_tvd"`
	BottomTVD        float64 `json:"bottom_tvd"`
	Density          float64 `json:"density_kgpm3"`
	Color            *RGBA   `json:"color,omitempty"`
	DeltaHydrostatic float64 `json:"delta_hydrostatic_kpa"`
	Volume           float64 `json:"volume_m3"`
}

// Length returns the measured length of the layer.
func (l Layer) Length() float64 { return l.BottomMD - l.TopMD }

// Height returns the vertical height of the layer.
func (l Layer) Height() float64 { return l.BottomTVD - l.TopTVD }

// IsAir reports whether the layer is empty column space.
func (l Layer) IsAir() bool { return IsAir(l.Density) }

// IsAir reports whether density is below the air threshold.
func IsAir(density float64) bool { return density < AirThreshold }

// Parcel is a volume of one fluid with no fixed position. Columns are held as
// parcels ordered bottom first and mapped onto depth with Stack.
type Parcel struct {
	Name    string  `json:"name"`
	Density float64 `json:"density_kgpm3"`
	Color   *RGBA   `json:"color,omitempty"`
	Volume  float64 `json:"volume_m3"`
}

// same reports whether two parcels carry the same fluid.
func (p Parcel) same(o Parcel) bool {
	if p.Name != o.Name || p.Density != o.Density {
		return false
	}
	if p.Color == nil || o.Color == nil {
		return p.Color == o.Color
	}
	return *p.Color == *o.Color
}

func finalize(l Layer) Layer {
	l.DeltaHydrostatic = l.Density * Gravity * math.Max(0, l.Height())
	return l
}
