// Package engine provides the trail simulation core for the light-cycle arena.
//
// The engine package implements:
//   - A fixed-size Grid of cells that are either empty or occupied by an agent
//   - Agents that hold a heading, turn on bound buttons and step one cell per tick
//   - Two edge policies: wrapping (toroidal, the default) and clamped (unchecked)
//   - A Simulation that accumulates frame time and emits whole ticks
//   - An InputRouter that hands every button press to every agent
//
// Core Types:
//
// Simulation owns the Grid and the ordered Agents. Agents never see the Grid:
// they report where they would move and the Simulation performs every write,
// after all destinations for a tick are known. Snapshot returns a deep copy
// that renderers and transports can read without racing the next tick.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/duel.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sim, err := engine.NewSimulationFromConfig(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sim.OnButton("a")             // turn every agent bound to "a"
//	sim.Advance(16 * time.Millisecond) // emit ticks for elapsed frame time
//	snap := sim.Snapshot()
//
// Coordinates:
//
// Positions are (X, Y) with X the column and Y the row, both zero based.
// North decrements Y. Cells are stored row-major and Snapshot.Rows is indexed
// Rows[y][x].
//
// Trails are permanent: nothing in the engine resets an occupied cell. The
// engine does not decide collisions; entering an occupied cell is reported as
// a Contact and left to the caller.
package engine
