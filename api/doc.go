// Package api provides the HTTP REST API of the light-cycle server.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session {config_id, realtime}
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get one session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Simulation:
//   - GET /api/sessions/{id}/board - Current board (?format=ascii for text)
//   - POST /api/sessions/{id}/tick - Run {count} ticks, default 1
//   - POST /api/sessions/{id}/advance - Feed {dt_ms} or {dt_seconds} of frame time
//   - POST /api/sessions/{id}/button - Press {button}
//   - POST /api/sessions/{id}/reset - Rebuild the board from the session's config
//   - GET /api/sessions/{id}/history - Paginated events (?page&limit&order)
//
// Configuration:
//   - GET /api/configs - List scenarios
//   - GET /api/configs/{name} - Get one scenario
//   - POST /api/configs - Save a scenario (GameConfig plus optional config_id)
//
// Other:
//   - GET /api/health
//   - GET /ws?session={id} - WebSocket board stream, see package websocket
//
// Every successful call that changes a board is also broadcast to the
// session's WebSocket clients.
//
// Error Handling:
//
// Errors are returned as {"error": "message"}. Unknown sessions and configs
// map to 404, invalid requests and configs to 400, anything else to 500.
// A tick that leaves a clamped board is not an HTTP error: the result has
// success=false and stop_reason_code "out_of_bounds".
package api
