// Package session provides session management for the vector race server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Short random session IDs
//   - JSON file persistence of race snapshots
//
// Core Types:
//
// Manager stores service.Session values keyed by lower-cased ID. Each
// session owns its own engine.Race, created through a service.RaceBuilder so
// that the caller decides which strategies and UI collaborators a race gets.
// FilePersistence writes one JSON file per session holding the race file and
// the latest engine.RaceState, and rebuilds the race on load.
//
// Usage:
//
//	build := service.NewRaceBuilder(strategy.Factory())
//	persistence, err := session.NewFilePersistence("sessions", build)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(build, persistence)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err := manager.Create("", config)
package session
