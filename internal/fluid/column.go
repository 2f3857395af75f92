package fluid

import (
	"sort"

	"github.com/cxd309/trip-engine/internal/geometry"
	"github.com/cxd309/trip-engine/internal/survey"
)

// VolumeFunc returns the column volume between two measured depths.
type VolumeFunc func(topMD, bottomMD float64) float64

// Stack maps bottom-first parcels onto constant-area segments (top first),
// filling from the deepest segment upward. Space left above the last parcel
// becomes an air layer. Parcels that do not fit are returned as overflow,
// bottom first. Layers are returned top first.
func Stack(parcels []Parcel, segs []geometry.Segment, sampler survey.Sampler) (layers []Layer, overflow []Parcel) {
	if len(segs) == 0 {
		return nil, Compact(parcels)
	}
	i := len(segs) - 1
	pos := segs[i].BottomMD
	var up []Layer

	for n, p := range parcels {
		if p.Volume <= Epsilon {
			continue
		}
		if i < 0 {
			overflow = append(overflow, parcels[n:]...)
			break
		}
		remaining := p.Volume
		bottom := pos
		for remaining > Epsilon && i >= 0 {
			s := segs[i]
			avail := s.Area * (pos - s.TopMD)
			if avail <= remaining+Epsilon*Epsilon {
				remaining -= avail
				pos = s.TopMD
				i--
				continue
			}
			pos -= remaining / s.Area
			remaining = 0
		}
		if pos < bottom {
			up = append(up, layer(p.Name, p.Density, p.Color, pos, bottom, p.Volume-remaining, sampler))
		}
		if remaining > Epsilon {
			left := p
			left.Volume = remaining
			overflow = append(overflow, left)
			overflow = append(overflow, parcels[n+1:]...)
			break
		}
	}

	if i >= 0 && pos > segs[0].TopMD+Epsilon {
		v := 0.0
		for _, s := range segs[:i+1] {
			v += s.Area * (min(pos, s.BottomMD) - s.TopMD)
		}
		up = append(up, layer(AirName, AirDensity, nil, segs[0].TopMD, pos, v, sampler))
	}

	layers = make([]Layer, len(up))
	for k := range up {
		layers[k] = up[len(up)-1-k]
	}
	return layers, Compact(overflow)
}

// Slice splits top-first layers at cutoff. A layer that straddles the cutoff
// is cut in two with depths, volume and hydrostatic recomputed; layers wholly
// on one side pass through unchanged. Zero-length layers are dropped.
func Slice(layers []Layer, cutoff float64, sampler survey.Sampler, volume VolumeFunc) (above, below []Layer) {
	for _, l := range layers {
		switch {
		case l.Length() <= Epsilon:
		case l.BottomMD <= cutoff+Epsilon:
			above = append(above, l)
		case l.TopMD >= cutoff-Epsilon:
			below = append(below, l)
		default:
			a, b := l, l
			a.BottomMD, b.TopMD = cutoff, cutoff
			a.BottomTVD = sampler.TVD(cutoff)
			b.TopTVD = a.BottomTVD
			a.Volume = volume(a.TopMD, a.BottomMD)
			b.Volume = volume(b.TopMD, b.BottomMD)
			above = append(above, finalize(a))
			below = append(below, finalize(b))
		}
	}
	return above, below
}

// Resolved is a placement whose mud and colour have been looked up.
type Resolved struct {
	Name     string
	TopMD    float64
	BottomMD float64
	Density  float64
	Color    *RGBA
}

// Fill lays resolved placements over [topMD, bottomMD] top first. Placements
// are clipped to the range, later overlapping placements are clipped below
// earlier ones, and gaps become air.
func Fill(placements []Resolved, topMD, bottomMD float64, sampler survey.Sampler, volume VolumeFunc) []Layer {
	ps := append([]Resolved(nil), placements...)
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].TopMD < ps[j].TopMD })

	var out []Layer
	pos := topMD
	for _, p := range ps {
		top := max(p.TopMD, pos)
		bottom := min(p.BottomMD, bottomMD)
		if bottom-top <= Epsilon {
			continue
		}
		if top > pos+Epsilon {
			out = append(out, layer(AirName, AirDensity, nil, pos, top, volume(pos, top), sampler))
		}
		out = append(out, layer(p.Name, p.Density, p.Color, top, bottom, volume(top, bottom), sampler))
		pos = bottom
	}
	if bottomMD-pos > Epsilon {
		out = append(out, layer(AirName, AirDensity, nil, pos, bottomMD, volume(pos, bottomMD), sampler))
	}
	return out
}

func layer(name string, density float64, color *RGBA, top, bottom, volume float64, sampler survey.Sampler) Layer {
	return finalize(Layer{
		Name:      name,
		TopMD:     top,
		BottomMD:  bottom,
		TopTVD:    sampler.TVD(top),
		BottomTVD: sampler.TVD(bottom),
		Density:   density,
		Color:     color,
		Volume:    volume,
	})
}
