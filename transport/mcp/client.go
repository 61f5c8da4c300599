package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/roversim/game/engine"
	"github.com/wricardo/mcp-training/roversim/game/parser"
	"github.com/wricardo/mcp-training/roversim/game/service"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Rover Simulator",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Rover Simulator - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Rovers sit on a rectangular plateau whose lower-left corner is (0,0). Each
rover has a position and a heading (N, E, S, W) and understands three
commands: L turns left, R turns right, M moves one cell forward. A move that
would leave the plateau is stopped at the edge.

AVAILABLE TOOLS:
- run_mission: Run a whole mission (text or stored mission) and get final positions
- list_missions: List stored missions
- create_session: Deploy a mission in a new session
- get_session / list_sessions: Inspect sessions
- session_state: Current state of every rover in a session
- execute_commands: Send a command string to one rover - requires intent explanation
- run_session: Run every rover's configured commands
- reset_session: Put every rover back at its start
- command_history: Applied commands, newest first
- rover_instructions: The full rules and mission text format

NOTE: The 'intent' parameter on execute_commands serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_mission",
		Description: "Run a mission without creating a session and return each rover's final position. Pass the mission text or the id of a stored mission.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"mission_text": map[string]interface{}{
					"type":        "string",
					"description": "Mission in the text format: \"XMAX YMAX\" then, per rover, \"X Y H\" and a command string",
				},
				"mission_id": map[string]interface{}{
					"type":        "string",
					"description": "Id of a stored mission (used when mission_text is empty)",
				},
			},
		},
	}, c.handleRunMission)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_missions",
		Description: "List the stored missions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListMissions)

	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Deploy a mission in a new session. Uses mission_text, then mission_id, then the default mission.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"mission_id": map[string]interface{}{
					"type":        "string",
					"description": "Id of a stored mission (optional)",
				},
				"mission_text": map[string]interface{}{
					"type":        "string",
					"description": "Inline mission in the text format (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Rover operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "session_state",
		Description: "Get the current position and heading of every rover in a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleSessionState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "execute_commands",
		Description: "Send a command string (L, R, M) to one rover. Execution stops at the first invalid command; the rover keeps the state it reached.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"rover": map[string]interface{}{
					"type":        "integer",
					"description": "Rover index, 0-based in mission order",
				},
				"commands": map[string]interface{}{
					"type":        "string",
					"description": "Command string, e.g. LMLMM",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind these commands (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "rover", "commands"},
		},
	}, c.handleExecuteCommands)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_session",
		Description: "Run every rover's configured command string, in mission order",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleRunSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_session",
		Description: "Put every rover of a session back at its start",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleResetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "command_history",
		Description: "Get the applied command history of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Sort order (default desc)",
				},
				"rover": map[string]interface{}{
					"type":        "integer",
					"description": "Only show this rover's commands",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleCommandHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "rover_instructions",
		Description: "Get the rules of the simulator and the mission text format",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleRoverInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall makes a call to the REST API. A string body is sent as plain text,
// anything else as JSON.
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case string:
		reqBody = strings.NewReader(b)
		contentType = "text/plain"
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Argument helpers. JSON numbers arrive as float64.

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n, true
		}
	}
	return 0, false
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleRunMission(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	text := stringArg(args, "mission_text")
	missionID := stringArg(args, "mission_id")

	var body interface{}
	switch {
	case text != "":
		body = text
	case missionID != "":
		var mission engine.Mission
		if err := c.apiCall(ctx, "GET", "/api/missions/"+url.PathEscape(missionID), nil, &mission); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		body = &mission
	default:
		return mcp.NewToolResultError("mission_text or mission_id is required"), nil
	}

	var result service.RunResult
	if err := c.apiCall(ctx, "POST", "/api/run", body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRunResult(&result)), nil
}

func (c *Client) handleListMissions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var missions []service.MissionInfo
	if err := c.apiCall(ctx, "GET", "/api/missions", nil, &missions); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Missions:\n\n")
	for _, m := range missions {
		fmt.Fprintf(&b, "• %s (%s)\n", m.MissionID, m.Filename)
		if m.Description != "" {
			fmt.Fprintf(&b, "  %s\n", m.Description)
		}
		fmt.Fprintf(&b, "  Plateau: %s, Rovers: %d\n\n", formatBounds(m.Bounds), m.Rovers)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	body := map[string]interface{}{}
	if id := stringArg(args, "mission_id"); id != "" {
		body["mission_id"] = id
	}
	if text := stringArg(args, "mission_text"); text != "" {
		mission, err := parser.Parse("inline", text)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		body["mission"] = mission
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nMission: %s\n\n%s", session.ID, session.MissionID, formatSessionState(session.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&b, "- %s (Mission: %s, Created: %s)\n", s.ID, s.MissionID, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleSessionState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var state service.SessionState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionState(&state)), nil
}

func (c *Client) handleExecuteCommands(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := stringArg(args, "session_id")
	commands := stringArg(args, "commands")
	rover, ok := intArg(args, "rover")
	if !ok {
		return mcp.NewToolResultError("rover must be an integer"), nil
	}

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = stringArg(args, "intent")

	var result service.ExecuteResult
	path := sessionPath(sessionID, fmt.Sprintf("/rovers/%d/commands", rover))
	if err := c.apiCall(ctx, "POST", path, map[string]string{"commands": commands}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatExecuteResult(&result)), nil
}

func (c *Client) handleRunSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var result service.RunMissionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/run"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Ran %d rovers (%d failed)\n\n", len(result.Results), result.Failed)
	for _, r := range result.Results {
		b.WriteString(formatExecuteResult(r))
		b.WriteString("\n")
	}
	b.WriteString(formatSessionState(result.State))

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleResetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var response struct {
		Message string                `json:"message"`
		State   *service.SessionState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatSessionState(response.State))), nil
}

func (c *Client) handleCommandHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := stringArg(args, "session_id")

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order := stringArg(args, "order"); order != "" {
		params.Set("order", order)
	}
	if rover, ok := intArg(args, "rover"); ok {
		params.Set("rover", fmt.Sprint(rover))
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleRoverInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Rover Simulator - Instructions

PLATEAU:
The plateau is a grid from (0,0) at the lower-left corner to (XMAX,YMAX)
inclusive. North is +Y, East is +X.

ROVERS:
Each rover has a position (x,y) and a heading N, E, S or W.
• L: turn 90° left (N→W→S→E→N), position unchanged
• R: turn 90° right (N→E→S→W→N), position unchanged
• M: move one cell forward along the heading

Moves never leave the plateau: a move that would cross an edge is stopped at
the edge and the heading is kept. Any other character is an invalid command;
the rover stops there and keeps the state it reached.

Rovers run one after another in mission order. Each finishes its whole
command string before the next one starts.

MISSION TEXT FORMAT:
  5 5          <- XMAX YMAX
  1 2 N        <- first rover: X Y HEADING
  LMLMLMLMM    <- first rover's commands
  3 3 E
  MMRMMRMRRM

Output is one line per rover, "X Y HEADING":
  1 3 N
  5 1 E

WORKFLOW:
1. run_mission with mission_text for a one-shot answer, or
2. create_session, then execute_commands step by step, checking
   session_state and command_history as you go. reset_session starts over.`

// Formatting helpers

func formatBounds(b engine.Bounds) string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", b.XMin, b.YMin, b.XMax, b.YMax)
}

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nMission: %s", session.ID, session.MissionID)
	if session.MissionName != "" && session.MissionName != session.MissionID {
		fmt.Fprintf(&b, " (%s)", session.MissionName)
	}
	fmt.Fprintf(&b, "\nCreated: %s\nLast accessed: %s\n\n",
		session.CreatedAt.Format(time.RFC3339), session.LastAccessedAt.Format(time.RFC3339))
	b.WriteString(formatSessionState(session.State))
	return b.String()
}

func formatSessionState(state *service.SessionState) string {
	if state == nil {
		return "No state available\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Plateau: %s\n", formatBounds(state.Bounds))
	fmt.Fprintf(&b, "Commands applied: %d\n", state.TotalCommands)
	b.WriteString("Rovers:\n")
	for _, r := range state.Rovers {
		label := fmt.Sprintf("%d", r.Index)
		if r.Name != "" {
			label += " " + r.Name
		}
		fmt.Fprintf(&b, "  [%s] %s (start %s, clamps %d)", label, r.State, r.Start, r.Clamps)
		if r.Commands != "" {
			fmt.Fprintf(&b, " configured: %s", r.Commands)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatExecuteResult(result *service.ExecuteResult) string {
	var b strings.Builder
	status := "✅"
	if !result.Success {
		status = "❌"
	}
	fmt.Fprintf(&b, "%s Rover %d: executed %d/%d commands, now at %s",
		status, result.Rover, result.Executed, result.Requested, result.Final)
	if result.Clamps > 0 {
		fmt.Fprintf(&b, " (%d moves stopped at the edge)", result.Clamps)
	}
	b.WriteString("\n")
	if result.Error != "" {
		fmt.Fprintf(&b, "   Error [%s]: %s\n", result.ErrorKind, result.Error)
	}
	return b.String()
}

func formatRunResult(result *service.RunResult) string {
	var b strings.Builder
	b.WriteString("Final positions:\n")
	for _, line := range result.Output {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(result.Errors) > 0 {
		b.WriteString("\nErrors:\n")
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Command History (Page %d/%d, Total: %d):\n\n", history.Page, history.TotalPages, history.Total)
	for _, e := range history.Entries {
		fmt.Fprintf(&b, "#%d rover %d %s: %s -> %s", e.Seq, e.Rover, e.Command, e.From, e.To)
		if e.Clamped {
			b.WriteString(" (stopped at edge)")
		}
		b.WriteString("\n")
	}
	if history.HasNext {
		fmt.Fprintf(&b, "\nMore entries on page %d\n", history.Page+1)
	}
	return b.String()
}
