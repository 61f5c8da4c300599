// Package mcp exposes the rover simulator to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes a request to the REST
// API and the JSON answer is rendered as text for the agent.
//
// MCP Tools:
//   - run_mission: Run a mission (text or stored) and list final positions
//   - list_missions: List stored missions
//   - create_session: Deploy a mission in a new session
//   - get_session, list_sessions: Inspect sessions
//   - session_state: Current state of every rover in a session
//   - execute_commands: Send a command string to one rover
//   - run_session: Run every rover's configured commands
//   - reset_session: Redeploy every rover at its start
//   - command_history: Paginated applied-command history
//   - rover_instructions: Rules and the mission text format
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST /mcp, dispatched with GetMCPServer().HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
