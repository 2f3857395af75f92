// Package snapshot freezes the inputs of a completed trip run so that later
// edits to the well data can be detected. Snapshots are plain values; storing
// them is left to the caller.
package snapshot

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cxd309/trip-engine/internal/codec"
	"github.com/cxd309/trip-engine/internal/engine"
	"github.com/cxd309/trip-engine/internal/fluid"
	"github.com/cxd309/trip-engine/internal/geometry"
	"github.com/cxd309/trip-engine/internal/survey"
)

// Snapshot is the frozen input set of one run.
type Snapshot struct {
	ID       string           `json:"id"`
	RunID    string           `json:"run_id,omitempty"`
	TakenAt  time.Time        `json:"taken_at"`
	Input    engine.TripInput `json:"trip_input"`
	Geometry geometry.Data    `json:"geometry"`
	Muds     []fluid.Mud      `json:"muds"`
	Stations []survey.Station `json:"stations"`
}

// Take copies the given inputs into a new snapshot.
func Take(input engine.TripInput, geom geometry.Data, muds []fluid.Mud, stations []survey.Station) Snapshot {
	return Snapshot{
		ID:      uuid.NewString(),
		TakenAt: time.Now().UTC(),
		Input:   input,
		Geometry: geometry.Data{
			Hole:   append([]geometry.HoleSection(nil), geom.Hole...),
			String: append([]geometry.StringSection(nil), geom.String...),
		},
		Muds:     append([]fluid.Mud(nil), muds...),
		Stations: append([]survey.Station(nil), stations...),
	}
}

// FromRequest validates the geometry and mud catalogue of req and freezes
// them in their normalised form: sections sorted by depth, muds in catalogue
// order.
func FromRequest(req engine.TripRequest) (Snapshot, error) {
	geom, err := geometry.New(req.Geometry)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	cat, err := fluid.NewCatalogue(req.Muds)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	return Take(req.Input, geom.Data(), cat.Muds(), req.Trajectory.Stations()), nil
}

// Encode serialises the snapshot as MessagePack using the JSON field names.
func (s Snapshot) Encode() ([]byte, error) {
	data, err := codec.Marshal(codec.MsgPack, s)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return data, nil
}

// Decode reads a snapshot written by Encode.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := codec.Decode(bytes.NewReader(data), codec.MsgPack, &s); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: decode: %w", err)
	}
	return s, nil
}
