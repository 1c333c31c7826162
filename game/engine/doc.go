// Package engine provides the core race logic for the vector race.
//
// The engine package implements the race mechanics including:
//   - Integer vectors and Bresenham segment rasterization
//   - Tile tracks with ragged bounds and crash detection
//   - The nine-move acceleration model of a car
//   - The turn loop with crash, victory and last-survivor rules
//   - Race file parsing and race snapshots
//
// Core Types:
//
// Track is an immutable grid of tiles shared by all cars. Car holds a
// position, an acceleration and a Strategy that picks one of the nine
// candidate moves each turn. Race drives the turns and talks to a UI
// collaborator for rendering and pacing. RaceState is the serializable
// snapshot of a race.
//
// Usage:
//
//	config, err := engine.LoadRaceConfig("races/classic.race")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	race, err := engine.NewRaceFromConfig(config, strategy.Factory(), engine.HeadlessUI{})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := race.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
//	state := race.Snapshot()
//
// Race Rules:
//
// Each turn a car picks a move from its acceleration plus one of nine unit
// offsets. The move becomes its new acceleration. A car crashes when it ends
// off the road or its path crosses a wall, and crashed cars leave the race.
// The first car to end a turn on a victory tile wins. In a race that started
// with several cars, the last car still racing wins as well.
package engine
