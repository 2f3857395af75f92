package fluid

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxd309/trip-engine/internal/geometry"
	"github.com/cxd309/trip-engine/internal/survey"
)

var vertical = survey.Vertical{}

func unitVolume(top, bottom float64) float64 { return bottom - top }

func assertContiguous(t *testing.T, layers []Layer, top, bottom float64) {
	t.Helper()
	require.NotEmpty(t, layers)
	assert.InDelta(t, top, layers[0].TopMD, 1e-9)
	for i := 1; i < len(layers); i++ {
		assert.InDelta(t, layers[i-1].BottomMD, layers[i].TopMD, 1e-9, "layer %d", i)
	}
	assert.InDelta(t, bottom, layers[len(layers)-1].BottomMD, 1e-9)
}

func TestStack(t *testing.T) {
	segs := []geometry.Segment{
		{TopMD: 0, BottomMD: 400, Area: 2},
		{TopMD: 400, BottomMD: 1000, Area: 1},
	}

	tests := []struct {
		name    string
		parcels []Parcel
		check   func(t *testing.T, layers []Layer, overflow []Parcel)
	}{
		{
			name:    "partial fill leaves air on top",
			parcels: []Parcel{{Name: "mud", Density: 1200, Volume: 300}, {Name: "slug", Density: 1500, Volume: 500}},
			check: func(t *testing.T, layers []Layer, overflow []Parcel) {
				require.Len(t, layers, 3)
				assert.Empty(t, overflow)
				assert.Equal(t, AirName, layers[0].Name)
				assert.InDelta(t, 300, layers[0].BottomMD, 1e-9)
				assert.InDelta(t, 600, layers[0].Volume, 1e-9)
				assert.Equal(t, "slug", layers[1].Name)
				assert.InDelta(t, 500, layers[1].Volume, 1e-9)
				assert.InDelta(t, 700, layers[2].TopMD, 1e-9)
				assertContiguous(t, layers, 0, 1000)
			},
		},
		{
			name:    "excess overflows at top",
			parcels: []Parcel{{Name: "mud", Density: 1200, Volume: 1000}, {Name: "slug", Density: 1500, Volume: 900}},
			check: func(t *testing.T, layers []Layer, overflow []Parcel) {
				require.Len(t, layers, 2)
				assert.InDelta(t, 200, layers[0].BottomMD, 1e-9)
				assert.InDelta(t, 400, layers[0].Volume, 1e-9)
				require.Len(t, overflow, 1)
				assert.Equal(t, "slug", overflow[0].Name)
				assert.InDelta(t, 500, overflow[0].Volume, 1e-9)
			},
		},
		{
			name:    "empty column is all air",
			parcels: nil,
			check: func(t *testing.T, layers []Layer, overflow []Parcel) {
				require.Len(t, layers, 1)
				assert.True(t, layers[0].IsAir())
				assert.InDelta(t, 1400, layers[0].Volume, 1e-9)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layers, overflow := Stack(tt.parcels, segs, vertical)
			tt.check(t, layers, overflow)
		})
	}
}

func TestStackZeroAreaSegment(t *testing.T) {
	segs := []geometry.Segment{
		{TopMD: 0, BottomMD: 100, Area: 1},
		{TopMD: 100, BottomMD: 200, Area: 0},
		{TopMD: 200, BottomMD: 300, Area: 1},
	}
	layers, overflow := Stack([]Parcel{{Name: "mud", Density: 1000, Volume: 150}}, segs, vertical)
	assert.Empty(t, overflow)
	assertContiguous(t, layers, 0, 300)
	assert.InDelta(t, 50, layers[1].TopMD, 1e-9)
}

func TestSlice(t *testing.T) {
	layers := Fill([]Resolved{
		{Name: "mud", TopMD: 0, BottomMD: 600, Density: 1200},
		{Name: "slug", TopMD: 600, BottomMD: 1000, Density: 1500},
	}, 0, 1000, vertical, unitVolume)

	above, below := Slice(layers, 800, vertical, unitVolume)
	require.Len(t, above, 2)
	require.Len(t, below, 1)
	assert.Equal(t, layers[0], above[0], "layers wholly above pass through unchanged")
	assert.InDelta(t, 200, above[1].Volume, 1e-9)
	assert.InDelta(t, 1500*Gravity*200, above[1].DeltaHydrostatic, 1e-9)
	assert.InDelta(t, 800, below[0].TopMD, 1e-9)
	assert.InDelta(t, 800, below[0].TopTVD, 1e-9)

	above, below = Slice(layers, 1000, vertical, unitVolume)
	assert.Len(t, above, 2)
	assert.Empty(t, below)
}

func TestFillGapsAreAir(t *testing.T) {
	layers := Fill([]Resolved{
		{Name: "deep", TopMD: 700, BottomMD: 2000, Density: 1300},
		{Name: "shallow", TopMD: 100, BottomMD: 500, Density: 1100},
	}, 0, 1000, vertical, unitVolume)
	require.Len(t, layers, 4)
	assertContiguous(t, layers, 0, 1000)
	assert.True(t, layers[0].IsAir())
	assert.Equal(t, "shallow", layers[1].Name)
	assert.True(t, layers[2].IsAir())
	assert.InDelta(t, 1000, layers[3].BottomMD, 1e-9, "clipped to the column")
}

func TestPressure(t *testing.T) {
	layers := Fill([]Resolved{
		{Name: "light", TopMD: 0, BottomMD: 500, Density: 1000},
		{Name: "heavy", TopMD: 500, BottomMD: 1000, Density: 2000},
	}, 0, 1000, vertical, unitVolume)

	assert.InDelta(t, 1000*Gravity*250, PressureAt(layers, 250), 1e-9)
	want := 1000*Gravity*500 + 2000*Gravity*500
	assert.InDelta(t, want, PressureAt(layers, 1000), 1e-9)
	assert.InDelta(t, want, Hydrostatic(layers), 1e-9)
	assert.InDelta(t, 1500, EquivalentDensity(want, 1000), 1e-9)

	above, below := Slice(layers, 700, vertical, unitVolume)
	assert.InDelta(t, want, PressureThrough(above, below, 700, 1000), 1e-9)
	assert.InDelta(t, 1000*Gravity*500+2000*Gravity*100, PressureThrough(above, below, 700, 600), 1e-9)
}

func TestPressureSkipsHorizontalLayers(t *testing.T) {
	flat := survey.SamplerFunc(func(md float64) float64 { return min(md, 500) })
	layers := Fill([]Resolved{
		{Name: "mud", TopMD: 0, BottomMD: 500, Density: 1000},
		{Name: "lateral", TopMD: 500, BottomMD: 1500, Density: 3000},
	}, 0, 1500, flat, unitVolume)
	assert.InDelta(t, 1000*Gravity*500, PressureAt(layers, 500), 1e-9)
}

func TestParcelOps(t *testing.T) {
	col := []Parcel{
		{Name: "a", Density: 1000, Volume: 10},
		{Name: "b", Density: 1200, Volume: 5},
	}

	rest, taken := TakeTop(col, 7)
	assert.InDelta(t, 8, Total(rest), 1e-12)
	require.Len(t, taken, 2)
	assert.Equal(t, "a", taken[0].Name)
	assert.InDelta(t, 2, taken[0].Volume, 1e-12)

	rest, taken = TakeBottom(col, 4)
	assert.InDelta(t, 11, Total(rest), 1e-12)
	assert.Equal(t, []Parcel{{Name: "a", Density: 1000, Volume: 4}}, taken)

	ins := InsertAt(col, 4, []Parcel{{Name: "b", Density: 1200, Volume: 1}})
	require.Len(t, ins, 4)
	assert.InDelta(t, 16, Total(ins), 1e-12)

	merged := PushTop(col, Parcel{Name: "b", Density: 1200, Volume: 3})
	require.Len(t, merged, 2)
	assert.InDelta(t, 8, merged[1].Volume, 1e-12)

	rest, over := Trim(col, 12)
	assert.InDelta(t, 12, Total(rest), 1e-12)
	assert.InDelta(t, 3, Total(over), 1e-12)

	rest, taken = TakeRange(col, 8, 4)
	assert.InDelta(t, 4, Total(taken), 1e-12)
	assert.InDelta(t, 11, Total(rest), 1e-12)

	assert.Equal(t, 10.0, col[0].Volume, "inputs are never modified")
}

func TestColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *RGBA
		wantErr bool
	}{
		{"hex", `"#ff8000"`, &RGBA{255, 128, 0, 255}, false},
		{"hex with alpha", `"#10203040"`, &RGBA{16, 32, 48, 64}, false},
		{"palette", `"Red"`, &RGBA{220, 40, 40, 255}, false},
		{"object", `{"r":1,"g":2,"b":3,"a":4}`, &RGBA{1, 2, 3, 4}, false},
		{"empty", `""`, nil, false},
		{"unknown", `"mauve-ish"`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Color
			require.NoError(t, json.Unmarshal([]byte(tt.input), &c))
			got, err := c.Resolve()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalogue(t *testing.T) {
	cat, err := NewCatalogue([]Mud{
		{Name: "obm", Density: 1250, Dial600: 60, Dial300: 38, Color: Color{Name: "brown"}},
		{Name: "slug", Density: 1600},
	})
	require.NoError(t, err)

	m, ok := cat.Lookup("obm")
	require.True(t, ok)
	pv, yp, ok := m.Rheology()
	require.True(t, ok)
	assert.Equal(t, 22.0, pv)
	assert.Equal(t, 16.0, yp)

	r, err := cat.Resolve(FluidPlacement{Placement: PlacementAnnulus, TopMD: 0, BottomMD: 100, Mud: "obm"})
	require.NoError(t, err)
	assert.Equal(t, "obm", r.Name)
	assert.Equal(t, 1250.0, r.Density)
	assert.Equal(t, &RGBA{130, 90, 50, 255}, r.Color)

	r, err = cat.Resolve(FluidPlacement{Name: "heavy obm", Mud: "obm", Density: 1300})
	require.NoError(t, err)
	assert.Equal(t, 1300.0, r.Density)

	_, err = cat.Resolve(FluidPlacement{Mud: "water"})
	assert.ErrorIs(t, err, ErrUnknownMud)
	_, err = cat.Resolve(FluidPlacement{Name: "nothing"})
	assert.ErrorIs(t, err, ErrNoDensity)

	_, err = NewCatalogue([]Mud{{Name: "a", Density: 1000}, {Name: "a", Density: 1100}})
	assert.ErrorIs(t, err, ErrBadMud)

	assert.Len(t, cat.Muds(), 2)
	var none *Catalogue
	_, err = none.Resolve(FluidPlacement{Name: "x", Density: 1000})
	assert.NoError(t, err)
}
