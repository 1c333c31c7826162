// Package mcp provides a Model Context Protocol server for the vector race.
//
// The mcp package implements:
//   - An MCP server for AI agent integration
//   - Tool definitions for race operations
//   - A thin proxy to the REST API
//
// MCP Tools:
//   - create_race: Create a race session from a track file
//   - list_races: List all race sessions
//   - get_race: Session details with the current grid
//   - race_state: Grid, cars and status of a race
//   - step_race: Run one or more rounds
//   - run_race: Run until the race finishes
//   - race_history: Turn history with pagination and car filter
//   - list_tracks: Available track files
//   - race_instructions: Rules and tile legend
//   - describe_tile: What occupies a grid cell
//
// Every tool call becomes one or more HTTP requests against the api
// package. Failures are reported as tool error results rather than
// protocol errors, so the agent sees the server's message.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
