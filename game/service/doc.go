// Package service defines the business logic layer of the vector race server.
//
// RaceService is the single entry point used by every transport (REST API,
// MCP tools and the CLI). It coordinates race sessions and race files through
// the SessionManager and ConfigManager interfaces, which are implemented by
// the session and config packages.
//
// A session owns one engine.Race built by a RaceBuilder. NewRaceBuilder
// combines a strategy factory with per-session UI collaborators, such as the
// websocket broadcaster or the MQTT publisher, so that every turn of the
// race is rendered to them.
//
// Usage:
//
//	svc := service.NewRaceService(sessionManager, configManager)
//
//	info, err := svc.CreateSession(ctx, "classic")
//	if err != nil {
//		return err
//	}
//
//	result, err := svc.Step(ctx, info.ID, 5)
//	if err != nil {
//		return err
//	}
//	fmt.Println(result.RaceState.Frame)
//
// Stepping is bounded by engine.MaxBulkRounds per call. Sessions are saved
// after every step when persistence is configured.
package service
