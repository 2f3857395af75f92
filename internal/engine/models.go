package engine

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/cxd309/trip-engine/internal/fluid"
	"github.com/cxd309/trip-engine/internal/geometry"
	"github.com/cxd309/trip-engine/internal/survey"
	"github.com/cxd309/trip-engine/internal/valve"
)

// TripInput is the engine configuration for one run. It is never modified
// by the engine.
type TripInput struct {
	StartMD         float64 `json:"start_md"`                     // m
	EndMD           float64 `json:"end_md"`                       // m
	Step            float64 `json:"step_m"`                       // m, magnitude; direction follows end - start
	ControlMD       float64 `json:"control_md,omitempty"`         // m, shoe; zero means total depth
	BaseMudDensity  float64 `json:"base_mud_density_kgpm3"`       // kg/m³
	BackfillDensity float64 `json:"backfill_density_kgpm3"`       // kg/m³, zero means base mud
	BackfillVolume  float64 `json:"backfill_volume_m3,omitempty"` // m³, zero or negative means unlimited
	TargetESD       float64 `json:"target_esd_kgpm3"`             // kg/m³ at total depth
	CrackFloat      float64 `json:"crack_float_kpa"`              // kPa
	InitialSABP     float64 `json:"initial_sabp_kpa"`             // kPa
	HoldSABPOpen    bool    `json:"hold_sabp_open"`
	StrictGeometry  bool    `json:"strict_geometry,omitempty"`

	stepSet bool // step_m was present in the decoded JSON
}

// UnmarshalJSON records whether step_m was given so that an explicit zero
// is rejected rather than replaced by a default.
func (in *TripInput) UnmarshalJSON(data []byte) error {
	type plain TripInput
	aux := struct {
		*plain
		Step *float64 `json:"step_m"`
	}{plain: (*plain)(in)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	in.stepSet = aux.Step != nil
	if aux.Step != nil {
		in.Step = *aux.Step
	}
	return nil
}

// StepGiven reports whether the caller set a step, including an explicit zero.
func (in TripInput) StepGiven() bool { return in.stepSet || in.Step != 0 }

// TripStep is the well state at one bit depth.
type TripStep struct {
	Index  int     `json:"index"`
	BitMD  float64 `json:"bit_md"`
	BitTVD float64 `json:"bit_tvd"`

	SABP              float64 `json:"sabp_kpa"`
	SABPDynamic       float64 `json:"sabp_dynamic_kpa"`
	ESDAtTD           float64 `json:"esd_at_td_kgpm3"`
	ESDAtControl      float64 `json:"esd_at_control_kgpm3"`
	PressureAtTD      float64 `json:"pressure_at_td_kpa"`
	PressureAtControl float64 `json:"pressure_at_control_kpa"`

	StringPressure    float64     `json:"string_pressure_at_bit_kpa"`
	AnnulusPressure   float64     `json:"annulus_pressure_at_bit_kpa"`
	FloatDifferential float64     `json:"float_differential_kpa"`
	FloatState        valve.State `json:"float_state"`
	FloatLabel        string      `json:"float_label"`

	StepBackfill     float64 `json:"step_backfill_m3"`
	PitGain          float64 `json:"pit_gain_m3"`
	SurfaceTankDelta float64 `json:"surface_tank_delta_m3"`

	CumulativeBackfill         float64 `json:"cumulative_backfill_m3"`
	CumulativePitGain          float64 `json:"cumulative_pit_gain_m3"`
	CumulativeSurfaceTankDelta float64 `json:"cumulative_surface_tank_delta_m3"`
	CumulativeSlugContribution float64 `json:"cumulative_slug_contribution_m3"`

	ExpectedFillIfClosed float64 `json:"expected_fill_if_closed_m3"`
	ExpectedFillIfOpen   float64 `json:"expected_fill_if_open_m3"`
	BackfillRemaining    float64 `json:"backfill_remaining_m3"`
	BackfillUnlimited    bool    `json:"backfill_unlimited,omitempty"`

	LayersAnnulus []fluid.Layer `json:"layers_annulus"`
	LayersString  []fluid.Layer `json:"layers_string"`
	LayersPocket  []fluid.Layer `json:"layers_pocket"`
}

// TripRequest is the JSON-serialisable input to a run.
type TripRequest struct {
	Input      TripInput              `json:"trip_input"`
	Geometry   geometry.Data          `json:"geometry"`
	Trajectory survey.Trajectory      `json:"trajectory"`
	Placements []fluid.FluidPlacement `json:"placements,omitempty"`
	Muds       []fluid.Mud            `json:"muds,omitempty"`
}

// TripResult is the complete output of a run.
type TripResult struct {
	RunID    string     `json:"run_id"`
	Input    TripInput  `json:"trip_input"`
	Warnings []string   `json:"warnings,omitempty"`
	Steps    []TripStep `json:"steps"`
}

// Trip is a configured trip simulation. Run may be called any number of
// times and always produces the same steps.
type Trip struct {
	input    TripInput
	geom     *geometry.Geometry
	sampler  survey.Sampler
	log      *zap.SugaredLogger
	warnings []string

	placements []fluid.FluidPlacement
	catalogue  *fluid.Catalogue
	annulus    []fluid.Resolved
	str        []fluid.Resolved

	step       float64 // step magnitude, m
	td         float64
	tdTVD      float64
	controlMD  float64
	controlTVD float64
}

// tripState is the fluid inventory carried from one step to the next. Parcel
// slices are never shared between states.
type tripState struct {
	hole      []fluid.Parcel // annulus and pocket, bottom first from total depth
	str       []fluid.Parcel // string contents, bottom first from the bit
	float     valve.State
	remaining float64 // prepared backfill left, m³; negative means unlimited

	cumBackfill float64
	cumPit      float64
	cumSlug     float64
}

// movement is one float hypothesis applied to a state.
type movement struct {
	state   tripState
	pumped  float64 // pumped from the trip tank, m³
	pitGain float64 // returned to the trip tank, m³
	slug    float64 // returned by U-tubing through the open float, m³
}

// columns are the mapped layer stacks and pressures for one state.
type columns struct {
	annulus []fluid.Layer
	str     []fluid.Layer
	pocket  []fluid.Layer

	bitTVD   float64
	pStr     float64 // string hydrostatic at the bit
	pAnn     float64 // annulus hydrostatic at the bit
	pTD      float64
	pControl float64
	sabp     float64
}
