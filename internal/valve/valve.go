// Package valve implements the float valve state machine. The float is a
// check valve at the bit that lets fluid leave the string but not enter it.
package valve

import "math"

// State is the position of the float valve.
type State string

const (
	StateClosed State = "closed"
	StateOpen   State = "open"
)

// Transition labels.
const (
	LabelClosed   = "Closed"
	LabelOpen     = "Open"
	LabelOpened   = "Opened"
	LabelReseated = "Reseated"
)

// tolerance applied to the crack pressure comparison, kPa.
const tolerance = 1e-9

// Inputs are the pressures and volumes evaluated with the valve assumed closed.
type Inputs struct {
	StringPressure  float64 // string hydrostatic at the bit, kPa
	AnnulusPressure float64 // annulus hydrostatic at the bit, kPa
	Choke           float64 // surface back pressure on the annulus, kPa
	Crack           float64 // pressure needed to open the float, kPa
	FillIfClosed    float64 // predicted backfill if the float stays closed, m³
	FillIfOpen      float64 // predicted backfill if the float opens, m³
	// BackfillRemaining is the prepared backfill still in the tank, m³.
	// Negative means unlimited.
	BackfillRemaining float64
}

// Transition is the outcome of one valve evaluation.
type Transition struct {
	From            State   `json:"from"`
	To              State   `json:"to"`
	Differential    float64 `json:"differential_kpa"`
	Label           string  `json:"label"`
	ExpectedFill    float64 `json:"expected_fill_m3"`
	BackfillLimited bool    `json:"backfill_limited"`
}

// Differential is the pressure pushing down the string across the float.
func (in Inputs) Differential() float64 {
	return in.StringPressure - (in.AnnulusPressure + in.Choke)
}

// Next decides the valve state for the current step. The valve opens only
// when the differential strictly exceeds the crack pressure, so a tie leaves
// it closed. A differential at or below the crack pressure closes an open
// valve.
func Next(prev State, in Inputs) Transition {
	dp := in.Differential()
	to := StateClosed
	if dp > in.Crack+tolerance {
		to = StateOpen
	}
	if prev == "" {
		prev = StateClosed
	}

	t := Transition{From: prev, To: to, Differential: dp, Label: label(prev, to)}
	t.ExpectedFill = in.FillIfClosed
	if to == StateOpen {
		t.ExpectedFill = in.FillIfOpen
	}
	if in.BackfillRemaining >= 0 && in.BackfillRemaining < t.ExpectedFill-tolerance {
		t.BackfillLimited = true
	}
	return t
}

func label(from, to State) string {
	switch {
	case from == StateClosed && to == StateOpen:
		return LabelOpened
	case from == StateOpen && to == StateClosed:
		return LabelReseated
	case to == StateOpen:
		return LabelOpen
	}
	return LabelClosed
}

// DynamicChoke returns the surface back pressure needed to hold the float at
// its crack pressure. With the valve closed the static choke already balances
// the column.
func DynamicChoke(state State, static, stringPressure, annulusPressure, crack float64) float64 {
	if state != StateOpen {
		return static
	}
	return math.Max(static, stringPressure-crack-annulusPressure)
}
