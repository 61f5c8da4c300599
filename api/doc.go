// Package api provides the HTTP REST API of the rover simulator.
//
// Endpoints:
//
// Simulation:
//   - POST /api/run - Run a mission without a session. The body is either a
//     JSON mission or the plain-text mission format (Content-Type: text/plain).
//
// Missions:
//   - GET /api/missions - List missions in the mission directory
//   - GET /api/missions/{name} - Get a mission (?format=text for the text format)
//   - POST /api/missions - Save a mission (?name= overrides the mission name)
//
// Sessions:
//   - POST /api/sessions - Deploy a mission: {"mission_id": "..."} or {"mission": {...}}
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Rovers:
//   - GET /api/sessions/{id}/state - Current state of every rover
//   - POST /api/sessions/{id}/rovers/{rover}/commands - Run {"commands": "LMR"} on one rover
//   - POST /api/sessions/{id}/run - Run every rover's configured commands
//   - POST /api/sessions/{id}/reset - Redeploy every rover at its start
//   - GET /api/sessions/{id}/history - Applied commands (?page&limit&order&rover)
//
// Other:
//   - GET /ws?session={id} - WebSocket state updates
//   - GET /health
//
// Errors are returned as JSON with the error kind when one applies:
//
//	{"error": "rover 0: invalid command 'X' at index 1", "error_kind": "invalid_command"}
//
// Unknown sessions, missions and rovers are 404, a rover deployed outside the
// plateau is 422, other input problems are 400. A command string that stops
// on an invalid command is not a request error: the result has
// "success": false and the rover keeps the state it reached.
package api
