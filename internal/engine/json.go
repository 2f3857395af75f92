package engine

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/cxd309/trip-engine/internal/fluid"
	"github.com/cxd309/trip-engine/internal/geometry"
)

// NewTripFromRequest builds the geometry, mud catalogue and trip described by req.
func NewTripFromRequest(req TripRequest, opts ...Option) (*Trip, error) {
	geom, err := geometry.New(req.Geometry)
	if err != nil {
		return nil, &ConfigError{Field: "geometry", Err: err}
	}
	cat, err := fluid.NewCatalogue(req.Muds)
	if err != nil {
		return nil, &ConfigError{Field: "muds", Err: err}
	}
	opts = append([]Option{WithPlacements(req.Placements), WithCatalogue(cat)}, opts...)
	return NewTrip(req.Input, geom, req.Trajectory, opts...)
}

// Simulate runs the trip described by req and tags the result with a run ID.
func Simulate(req TripRequest, opts ...Option) (TripResult, error) {
	trip, err := NewTripFromRequest(req, opts...)
	if err != nil {
		return TripResult{}, err
	}
	return TripResult{
		RunID:    uuid.NewString(),
		Input:    trip.Input(),
		Warnings: trip.Warnings(),
		Steps:    trip.Run(),
	}, nil
}

// RunJSON is the primary entry point for the CLI and WASM targets.
// It accepts a JSON-encoded TripRequest, runs the trip, and returns a
// JSON-encoded TripResult.
func RunJSON(jsonInput string) (string, error) {
	var req TripRequest
	if err := json.Unmarshal([]byte(jsonInput), &req); err != nil {
		return "", fmt.Errorf("invalid input JSON: %w", err)
	}

	result, err := Simulate(req)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(out), nil
}
