// Package mcp exposes the light-cycle REST API as Model Context Protocol tools.
//
// Client is a thin proxy: every tool call becomes one REST request against a
// running server, and the JSON response is turned into text an AI agent can
// read. The board is rendered with engine.RenderASCII.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - board: ASCII board plus per-agent position, heading and steps to edge
//   - tick, advance: drive the simulation
//   - press_button: turn every agent bound to a button
//   - reset_game, history
//   - list_configs, game_instructions
//   - describe_cell: owner of a cell and the nearest agent
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
