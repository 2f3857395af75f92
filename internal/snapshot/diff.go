package snapshot

import "fmt"

// ChangeKind classifies a difference between two snapshots.
type ChangeKind string

const (
	ChangeGeometry ChangeKind = "geometry"
	ChangeMud      ChangeKind = "mud"
	ChangeSurvey   ChangeKind = "survey"
)

// Change is one difference found by Diff.
type Change struct {
	Kind   ChangeKind `json:"kind"`
	Detail string     `json:"detail"`
}

// Diff lists how current differs from frozen in geometry, mud densities and
// survey stations. An empty result means the frozen run is still current.
func Diff(frozen, current Snapshot) []Change {
	var out []Change
	add := func(kind ChangeKind, format string, args ...any) {
		out = append(out, Change{Kind: kind, Detail: fmt.Sprintf(format, args...)})
	}

	fh, ch := frozen.Geometry.Hole, current.Geometry.Hole
	if len(fh) != len(ch) {
		add(ChangeGeometry, "hole sections %d -> %d", len(fh), len(ch))
	} else {
		for i := range fh {
			if fh[i] != ch[i] {
				add(ChangeGeometry, "hole section %d %q changed", i, ch[i].Name)
			}
		}
	}
	fs, cs := frozen.Geometry.String, current.Geometry.String
	if len(fs) != len(cs) {
		add(ChangeGeometry, "string sections %d -> %d", len(fs), len(cs))
	} else {
		for i := range fs {
			if fs[i] != cs[i] {
				add(ChangeGeometry, "string section %d %q changed", i, cs[i].Name)
			}
		}
	}

	densities := make(map[string]float64, len(current.Muds))
	for _, m := range current.Muds {
		densities[m.Name] = m.Density
	}
	seen := make(map[string]bool, len(frozen.Muds))
	for _, m := range frozen.Muds {
		seen[m.Name] = true
		d, ok := densities[m.Name]
		switch {
		case !ok:
			add(ChangeMud, "mud %q removed", m.Name)
		case d != m.Density:
			add(ChangeMud, "mud %q density %g -> %g kg/m3", m.Name, m.Density, d)
		}
	}
	for _, m := range current.Muds {
		if !seen[m.Name] {
			add(ChangeMud, "mud %q added", m.Name)
		}
	}

	if len(frozen.Stations) != len(current.Stations) {
		add(ChangeSurvey, "survey stations %d -> %d", len(frozen.Stations), len(current.Stations))
	} else {
		for i := range frozen.Stations {
			if frozen.Stations[i] != current.Stations[i] {
				add(ChangeSurvey, "survey station %d at %g m changed", i, current.Stations[i].MD)
			}
		}
	}
	return out
}

// Stale reports whether current differs from the frozen snapshot.
func (s Snapshot) Stale(current Snapshot) bool { return len(Diff(s, current)) > 0 }
