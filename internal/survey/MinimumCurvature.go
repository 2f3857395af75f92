package survey

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// SurveyModelName is the JSON discriminator string for the Survey model.
const SurveyModelName = "survey"

// Station is one directional survey measurement.
type Station struct {
	MD  float64 `json:"md"`  // measured depth, m
	Inc float64 `json:"inc"` // inclination, degrees from vertical
	Azi float64 `json:"azi"` // azimuth, degrees
}

// Survey implements Sampler from directional survey stations. TVD at each
// station is computed by the minimum curvature method; between stations it is
// interpolated linearly, and below the last station the last inclination is
// held.
//
// JSON discriminator: "model": "survey"
type Survey struct {
	stations []Station
	tvd      []float64
	fit      interp.PiecewiseLinear
}

// NewSurvey sorts the stations by measured depth, adds a vertical tie-in at
// surface when the first station is deeper than zero, and fits the TVD profile.
func NewSurvey(stations []Station) (*Survey, error) {
	st := make([]Station, 0, len(stations)+1)
	for i, s := range stations {
		if s.MD < 0 || math.IsNaN(s.MD) || s.Inc < 0 || s.Inc > 180 || math.IsNaN(s.Inc) {
			return nil, fmt.Errorf("%w: station %d (md=%g inc=%g)", ErrBadStation, i, s.MD, s.Inc)
		}
		st = append(st, s)
	}
	sort.SliceStable(st, func(i, j int) bool { return st[i].MD < st[j].MD })
	if len(st) == 0 || st[0].MD > 0 {
		st = append([]Station{{}}, st...)
	}
	for i := 1; i < len(st); i++ {
		if st[i].MD == st[i-1].MD {
			return nil, fmt.Errorf("%w: md=%g", ErrDuplicateStation, st[i].MD)
		}
	}
	if len(st) < 2 {
		return nil, ErrNoStations
	}

	xs := make([]float64, len(st))
	tvd := make([]float64, len(st))
	for i := range st {
		xs[i] = st[i].MD
		if i == 0 {
			tvd[i] = st[i].MD * math.Cos(deg2rad(st[i].Inc))
			continue
		}
		// Horizontal sections climbing past 90 degrees are clamped so the
		// profile stays monotonic.
		tvd[i] = tvd[i-1] + math.Max(0, minimumCurvatureDeltaTVD(st[i-1], st[i]))
	}

	s := &Survey{stations: st, tvd: tvd}
	if err := s.fit.Fit(xs, tvd); err != nil {
		return nil, fmt.Errorf("survey: fit: %w", err)
	}
	return s, nil
}

// Stations returns a copy of the stations including any surface tie-in.
func (s *Survey) Stations() []Station {
	return append([]Station(nil), s.stations...)
}

func (s *Survey) TVD(md float64) float64 {
	if md <= 0 {
		return md
	}
	last := len(s.stations) - 1
	if md > s.stations[last].MD {
		hold := math.Max(0, math.Cos(deg2rad(s.stations[last].Inc)))
		return s.tvd[last] + (md-s.stations[last].MD)*hold
	}
	return s.fit.Predict(md)
}

// Inclination returns the linearly interpolated inclination at md, degrees.
func (s *Survey) Inclination(md float64) float64 {
	st := s.stations
	if md <= st[0].MD {
		return st[0].Inc
	}
	for i := 1; i < len(st); i++ {
		if md <= st[i].MD {
			f := (md - st[i-1].MD) / (st[i].MD - st[i-1].MD)
			return st[i-1].Inc + f*(st[i].Inc-st[i-1].Inc)
		}
	}
	return st[len(st)-1].Inc
}

// HeelMD returns the measured depth where the inclination first reaches 90
// degrees, interpolating between the bracketing stations.
func (s *Survey) HeelMD() (float64, bool) {
	return DetectHeel(s.stations, 90)
}

// DetectHeel finds the first measured depth where the inclination reaches
// threshold degrees. Stations must be sorted by measured depth.
func DetectHeel(stations []Station, threshold float64) (float64, bool) {
	for i, st := range stations {
		if st.Inc < threshold {
			continue
		}
		if i == 0 {
			return st.MD, true
		}
		prev := stations[i-1]
		if st.Inc == prev.Inc {
			return st.MD, true
		}
		f := (threshold - prev.Inc) / (st.Inc - prev.Inc)
		return prev.MD + f*(st.MD-prev.MD), true
	}
	return 0, false
}

// minimumCurvatureDeltaTVD returns the vertical depth gained between two
// stations using the minimum curvature ratio factor.
func minimumCurvatureDeltaTVD(a, b Station) float64 {
	i1, i2 := deg2rad(a.Inc), deg2rad(b.Inc)
	dAzi := deg2rad(b.Azi - a.Azi)
	cosDL := math.Cos(i2-i1) - math.Sin(i1)*math.Sin(i2)*(1-math.Cos(dAzi))
	dl := math.Acos(math.Max(-1, math.Min(1, cosDL)))
	rf := 1.0
	if dl > 1e-9 {
		rf = 2 / dl * math.Tan(dl/2)
	}
	return (b.MD - a.MD) / 2 * (math.Cos(i1) + math.Cos(i2)) * rf
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
