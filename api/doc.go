// Package api provides HTTP REST API handlers for the vector race server.
//
// The api package implements:
//   - Session management endpoints
//   - Race stepping and history endpoints
//   - Race file listing, retrieval and upload
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a race session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session with its race state
//   - DELETE /api/sessions/{id} - Delete a session
//
// Race Operations:
//   - GET /api/sessions/{id}/state - Current race snapshot
//   - POST /api/sessions/{id}/step - Run rounds ({"rounds": N}, default 1)
//   - POST /api/sessions/{id}/run - Run until the race finishes
//   - GET /api/sessions/{id}/history - Turn history (?page&limit&order&car)
//
// Configuration:
//   - GET /api/configs - List valid race files
//   - GET /api/configs/{name} - Get a race file (?format=text for the raw file)
//   - POST /api/configs - Save a race file ({"name", "race"} or {"name", "track", "cars"})
//
// Streaming:
//   - GET /ws?session={id} - Race frames and announcements (&format=msgpack for binary)
//
// Error Handling:
//
// Errors are returned as JSON with an HTTP status derived from the error:
//
//	{"error": "session not found: session not found"}
//
// Unknown sessions and race files map to 404, stepping a finished race to
// 409, invalid race files or strategies to 400.
package api
