// Package websocket provides WebSocket transport for the vector race server.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - Broadcasting of rendered race frames and announcements
//   - JSON text frames, or msgpack binary frames on request
//
// Architecture:
//
// A central Hub owns every connection. Its Run loop is the only goroutine
// touching the session map; registration, unregistration and broadcasts all
// arrive over channels. Each client has a read pump and a write pump.
//
// Message Protocol:
//
// Clients connect to /ws?session=<id>. Adding format=msgpack switches the
// connection to binary msgpack frames. Every message carries an event name:
//   - "frame": the track grid with car glyphs, sent on every render
//   - "announce": a crash, victory or retirement line
//   - "state_update": the race snapshot after a step or run request
//
// Race Integration:
//
// Hub.SessionUI returns an engine.UI for one session. Installed through a
// service.RaceBuilder, it streams the race to connected browsers while the
// race itself stays unaware of the transport.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	build := service.NewRaceBuilder(strategy.Factory(), hub.SessionUI)
package websocket
