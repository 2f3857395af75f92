// Command trip-engine reads a trip request as JSON from a file argument (or
// stdin), runs the simulation and writes the result to stdout. With
// -optimizer the input is an optimizer request instead.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cxd309/trip-engine/internal/codec"
	"github.com/cxd309/trip-engine/internal/config"
	"github.com/cxd309/trip-engine/internal/engine"
	"github.com/cxd309/trip-engine/internal/log"
	"github.com/cxd309/trip-engine/internal/optimizer"
	"github.com/cxd309/trip-engine/internal/snapshot"
	"github.com/cxd309/trip-engine/internal/survey"
)

func main() {
	var (
		configFile   = flag.String("config", "", "Path to a JSON or YAML settings file")
		format       = flag.String("format", "", "Output format: json or msgpack (default from settings)")
		optimize     = flag.Bool("optimizer", false, "Treat the input as an optimizer request")
		surveyXLSX   = flag.String("survey-xlsx", "", "Replace the trajectory with stations read from an xlsx workbook")
		snapshotFile = flag.String("snapshot", "", "Write a MessagePack snapshot of the trip inputs to this file")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading settings: %v\n", err)
		os.Exit(1)
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if err := log.Init(log.Options(cfg.Log)); err != nil {
		fmt.Fprintf(os.Stderr, "error initialising logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var data []byte
	if flag.NArg() > 0 {
		data, err = os.ReadFile(flag.Arg(0))
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading input: %v\n", err)
		os.Exit(1)
	}

	var trajectory *survey.Trajectory
	if *surveyXLSX != "" {
		stations, err := survey.ReadStationsFile(*surveyXLSX)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading survey: %v\n", err)
			os.Exit(1)
		}
		s, err := survey.NewSurvey(stations)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading survey: %v\n", err)
			os.Exit(1)
		}
		trajectory = &survey.Trajectory{Sampler: s}
	}

	var result any
	if *optimize {
		result, err = runOptimizer(data, trajectory)
	} else {
		result, err = runTrip(data, trajectory, cfg.Engine, *snapshotFile)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulation error: %v\n", err)
		os.Exit(1)
	}

	if err := codec.Encode(os.Stdout, cfg.Output.Format, result); err != nil {
		fmt.Fprintf(os.Stderr, "error writing output: %v\n", err)
		os.Exit(1)
	}
}

func runTrip(data []byte, trajectory *survey.Trajectory, settings config.EngineConfig, snapshotPath string) (any, error) {
	var req engine.TripRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("invalid input JSON: %w", err)
	}
	if trajectory != nil {
		req.Trajectory = *trajectory
	}
	settings.ApplyTo(&req.Input)

	result, err := engine.Simulate(req, engine.WithLogger(log.Named("engine")))
	if err != nil {
		return nil, err
	}
	log.Infow("trip finished", "run_id", result.RunID, "steps", len(result.Steps))

	if snapshotPath != "" {
		snap, err := snapshot.FromRequest(req)
		if err != nil {
			return nil, err
		}
		snap.RunID = result.RunID
		encoded, err := snap.Encode()
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(snapshotPath, encoded, 0o644); err != nil {
			return nil, fmt.Errorf("writing snapshot: %w", err)
		}
	}
	return result, nil
}

func runOptimizer(data []byte, trajectory *survey.Trajectory) (any, error) {
	var req optimizer.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("invalid input JSON: %w", err)
	}
	if trajectory != nil {
		req.Trajectory = *trajectory
	}
	res, err := optimizer.Solve(req)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		log.Warnw("optimizer warning", "warning", w)
	}
	return res, nil
}
