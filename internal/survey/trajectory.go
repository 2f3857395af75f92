package survey

import (
	"encoding/json"
	"fmt"
)

// Trajectory wraps a Sampler so that it can be carried in a JSON request.
// A zero Trajectory samples as a vertical hole.
type Trajectory struct {
	Sampler Sampler `json:"-"` // set by UnmarshalJSON
}

// trajectoryDisc is the minimum JSON structure needed to read the model discriminator.
type trajectoryDisc struct {
	Model string `json:"model"`
}

type surveyJSON struct {
	Model    string    `json:"model"`
	Stations []Station `json:"stations"`
}

type planJSON struct {
	Model string `json:"model"`
	Plan
}

// TVD delegates to the wrapped sampler, defaulting to vertical.
func (t Trajectory) TVD(md float64) float64 {
	if t.Sampler == nil {
		return md
	}
	return t.Sampler.TVD(md)
}

// HeelMD delegates to the wrapped sampler when it knows its inclination profile.
func (t Trajectory) HeelMD() (float64, bool) {
	if hf, ok := t.Sampler.(HeelFinder); ok {
		return hf.HeelMD()
	}
	return 0, false
}

// Stations returns the survey stations behind the trajectory, or nil when it
// is not survey based.
func (t Trajectory) Stations() []Station {
	if s, ok := t.Sampler.(*Survey); ok {
		return s.Stations()
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for Trajectory.
// The object must contain a "model" discriminator key that selects the
// concrete implementation.
//
// Supported models:
//   - "vertical": TVD equals MD.
//   - "survey": minimum curvature over "stations".
//   - "plan": build-and-hold from kickoff_md, build_rate and hold_inc.
func (t *Trajectory) UnmarshalJSON(data []byte) error {
	var disc trajectoryDisc
	if err := json.Unmarshal(data, &disc); err != nil {
		return fmt.Errorf("trajectory: reading model discriminator: %w", err)
	}

	switch disc.Model {
	case VerticalModelName, "":
		t.Sampler = Vertical{}
	case SurveyModelName:
		var aux surveyJSON
		if err := json.Unmarshal(data, &aux); err != nil {
			return fmt.Errorf("trajectory: parsing survey: %w", err)
		}
		s, err := NewSurvey(aux.Stations)
		if err != nil {
			return err
		}
		t.Sampler = s
	case PlanModelName:
		var aux planJSON
		if err := json.Unmarshal(data, &aux); err != nil {
			return fmt.Errorf("trajectory: parsing plan: %w", err)
		}
		if err := aux.Plan.Validate(); err != nil {
			return err
		}
		t.Sampler = aux.Plan
	default:
		return fmt.Errorf("trajectory: unknown model %q", disc.Model)
	}
	return nil
}

// MarshalJSON implements json.Marshaler for Trajectory.
func (t Trajectory) MarshalJSON() ([]byte, error) {
	switch s := t.Sampler.(type) {
	case nil, Vertical:
		return json.Marshal(trajectoryDisc{Model: VerticalModelName})
	case *Survey:
		return json.Marshal(surveyJSON{Model: SurveyModelName, Stations: s.Stations()})
	case Plan:
		return json.Marshal(planJSON{Model: PlanModelName, Plan: s})
	default:
		return nil, fmt.Errorf("trajectory: sampler %T has no JSON form", t.Sampler)
	}
}
