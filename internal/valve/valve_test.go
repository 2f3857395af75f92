package valve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name  string
		prev  State
		in    Inputs
		to    State
		label string
	}{
		{"balanced stays closed", StateClosed, Inputs{StringPressure: 100, AnnulusPressure: 100}, StateClosed, LabelClosed},
		{"heavy string opens", StateClosed, Inputs{StringPressure: 150, AnnulusPressure: 100}, StateOpen, LabelOpened},
		{"crack holds it shut", StateClosed, Inputs{StringPressure: 150, AnnulusPressure: 100, Crack: 60}, StateClosed, LabelClosed},
		{"tie at crack stays closed", StateClosed, Inputs{StringPressure: 160, AnnulusPressure: 100, Crack: 60}, StateClosed, LabelClosed},
		{"choke holds it shut", StateClosed, Inputs{StringPressure: 150, AnnulusPressure: 100, Choke: 50}, StateClosed, LabelClosed},
		{"stays open", StateOpen, Inputs{StringPressure: 150, AnnulusPressure: 100}, StateOpen, LabelOpen},
		{"reseats", StateOpen, Inputs{StringPressure: 100, AnnulusPressure: 100}, StateClosed, LabelReseated},
		{"empty previous is closed", "", Inputs{StringPressure: 150, AnnulusPressure: 100}, StateOpen, LabelOpened},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := Next(tt.prev, tt.in)
			assert.Equal(t, tt.to, tr.To)
			assert.Equal(t, tt.label, tr.Label)
			assert.InDelta(t, tt.in.Differential(), tr.Differential, 1e-12)
		})
	}
}

func TestNextExpectedFill(t *testing.T) {
	in := Inputs{StringPressure: 150, AnnulusPressure: 100, FillIfClosed: 3, FillIfOpen: 1, BackfillRemaining: -1}
	tr := Next(StateClosed, in)
	assert.Equal(t, 1.0, tr.ExpectedFill)
	assert.False(t, tr.BackfillLimited, "unlimited backfill")

	in.StringPressure = 100
	in.BackfillRemaining = 2
	tr = Next(StateClosed, in)
	assert.Equal(t, 3.0, tr.ExpectedFill)
	assert.True(t, tr.BackfillLimited)
}

func TestDynamicChoke(t *testing.T) {
	assert.Equal(t, 20.0, DynamicChoke(StateClosed, 20, 500, 100, 0))
	assert.Equal(t, 350.0, DynamicChoke(StateOpen, 20, 500, 100, 50))
	assert.Equal(t, 20.0, DynamicChoke(StateOpen, 20, 100, 100, 0))
}
