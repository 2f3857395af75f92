package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func area(d float64) float64 { return math.Pi / 4 * d * d }

func simpleWell(t *testing.T) *Geometry {
	t.Helper()
	g, err := New(Data{
		Hole: []HoleSection{
			{Name: "open hole", TopMD: 600, BottomMD: 1000, ID: 0.2},
			{Name: "casing", TopMD: 0, BottomMD: 600, ID: 0.22},
		},
		String: []StringSection{
			{Name: "dp", TopMD: 0, BottomMD: 900, OD: 0.127, ID: 0.108},
			{Name: "bha", TopMD: 900, BottomMD: 1000, OD: 0.165, ID: 0.07},
		},
	})
	require.NoError(t, err)
	return g
}

func TestNew(t *testing.T) {
	g := simpleWell(t)
	assert.Equal(t, 1000.0, g.TotalDepth())
	assert.True(t, g.HasString())
	assert.Equal(t, "casing", g.Data().Hole[0].Name, "sections sorted by depth")
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		data Data
		want error
	}{
		{"empty", Data{}, ErrEmpty},
		{"not from surface", Data{Hole: []HoleSection{{TopMD: 10, BottomMD: 100, ID: 0.2}}}, ErrGap},
		{"gap", Data{Hole: []HoleSection{{TopMD: 0, BottomMD: 100, ID: 0.2}, {TopMD: 120, BottomMD: 200, ID: 0.2}}}, ErrGap},
		{"overlap", Data{Hole: []HoleSection{{TopMD: 0, BottomMD: 100, ID: 0.2}, {TopMD: 90, BottomMD: 200, ID: 0.2}}}, ErrOverlap},
		{"zero length", Data{Hole: []HoleSection{{TopMD: 0, BottomMD: 0, ID: 0.2}}}, ErrBadSection},
		{"id above od", Data{
			Hole:   []HoleSection{{TopMD: 0, BottomMD: 100, ID: 0.2}},
			String: []StringSection{{TopMD: 0, BottomMD: 100, OD: 0.1, ID: 0.12}},
		}, ErrBadSection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestArea(t *testing.T) {
	g := simpleWell(t)

	tests := []struct {
		name string
		kind Kind
		md   float64
		bit  float64
		want float64
	}{
		{"hole in casing", Hole, 100, 1000, area(0.22)},
		{"annulus around dp", Annulus, 100, 1000, area(0.22) - area(0.127)},
		{"annulus around bha", Annulus, 950, 1000, area(0.2) - area(0.165)},
		{"bore of bha", Bore, 950, 1000, area(0.07)},
		{"below bit is open", Annulus, 700, 500, area(0.2)},
		{"bha travels with bit", Steel, 450, 500, area(0.165) - area(0.07)},
		{"no bore below bit", Bore, 700, 500, 0},
		{"closed end", ClosedEnd, 10, 1000, area(0.127)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, g.Area(tt.kind, tt.md, tt.bit), 1e-12)
		})
	}
}

func TestVolume(t *testing.T) {
	g := simpleWell(t)

	want := area(0.22)*600 + area(0.2)*400 - area(0.127)*900 - area(0.165)*100
	assert.InDelta(t, want, g.Volume(Annulus, 0, 1000, 1000), 1e-9)

	// Bit at 500: bha at 400-500, dp from surface to 400, open below.
	want = (area(0.22)-area(0.127))*400 + (area(0.22)-area(0.165))*100 + area(0.22)*100 + area(0.2)*400
	assert.InDelta(t, want, g.Volume(Annulus, 0, 1000, 500), 1e-9)

	assert.InDelta(t, area(0.108)*400+area(0.07)*100, g.Volume(Bore, 0, 1000, 500), 1e-12)
	assert.Zero(t, g.Volume(Bore, 600, 400, 500))

	total := g.Volume(Hole, 0, 1000, 0)
	assert.InDelta(t, total, g.Volume(Annulus, 0, 1000, 700)+g.Volume(ClosedEnd, 0, 1000, 700), 1e-9)
}

func TestStringDeeperThanReference(t *testing.T) {
	g, err := New(Data{
		Hole:   []HoleSection{{TopMD: 0, BottomMD: 1000, ID: 0.2}},
		String: []StringSection{{TopMD: 0, BottomMD: 800, OD: 0.1, ID: 0.08}},
	})
	require.NoError(t, err)
	assert.InDelta(t, area(0.1)*1000, g.Volume(ClosedEnd, 0, 1000, 1000), 1e-9)
}

func TestTopFor(t *testing.T) {
	g := simpleWell(t)
	top, ok := g.TopFor(Hole, 1000, area(0.2)*100, 0, 0)
	require.True(t, ok)
	assert.InDelta(t, 900, top, 1e-9)

	// Crosses the casing shoe.
	top, ok = g.TopFor(Hole, 1000, area(0.2)*400+area(0.22)*50, 0, 0)
	require.True(t, ok)
	assert.InDelta(t, 550, top, 1e-9)

	top, ok = g.TopFor(Hole, 1000, 1e6, 0, 0)
	assert.False(t, ok)
	assert.Equal(t, 0.0, top)
}

func TestClearance(t *testing.T) {
	g, err := New(Data{
		Hole:   []HoleSection{{Name: "tight", TopMD: 0, BottomMD: 100, ID: 0.1}},
		String: []StringSection{{Name: "fat", TopMD: 0, BottomMD: 100, OD: 0.12, ID: 0.05}},
	})
	require.NoError(t, err)
	assert.Len(t, g.Clearance(), 1)
	assert.ErrorIs(t, g.CheckClearance(), ErrNegativeArea)
	assert.Zero(t, g.Area(Annulus, 50, 100))
	assert.NoError(t, simpleWell(t).CheckClearance())
}
