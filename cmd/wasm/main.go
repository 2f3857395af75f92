//go:build js && wasm

// Command wasm exposes the trip engine to the browser via WebAssembly.
// After loading, it registers two global JavaScript functions:
//
//	runTrip(jsonString) -> jsonString
//	runOptimizer(jsonString) -> jsonString
//
// Inputs and outputs use the same JSON contract as the CLI.
package main

import (
	"syscall/js"

	"github.com/cxd309/trip-engine/internal/engine"
	"github.com/cxd309/trip-engine/internal/optimizer"
)

func main() {
	js.Global().Set("runTrip", js.FuncOf(wrap(engine.RunJSON)))
	js.Global().Set("runOptimizer", js.FuncOf(wrap(optimizer.RunJSON)))
	select {} // keep the WASM module alive until the page is closed
}

func wrap(run func(string) (string, error)) func(js.Value, []js.Value) any {
	return func(_ js.Value, args []js.Value) any {
		if len(args) < 1 {
			return map[string]any{"error": "no input provided"}
		}
		result, err := run(args[0].String())
		if err != nil {
			return map[string]any{"error": err.Error()}
		}
		return result
	}
}
