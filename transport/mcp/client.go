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

	"github.com/wricardo/lightcycle/game/engine"
	"github.com/wricardo/lightcycle/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Light Cycle Simulator",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Light Cycle Simulator - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Each session is a grid board with one or more agents (light cycles). Every
tick each agent moves one cell in its heading and leaves a trail. Buttons turn
the agents bound to them 90 degrees left or right.

AVAILABLE TOOLS:
- create_session: Create a session from a scenario
- list_sessions / get_session: Inspect sessions
- board: Show the board as text
- tick: Run a number of ticks
- advance: Feed elapsed time in milliseconds
- press_button: Press a button (turns the agents bound to it)
- reset_game: Rebuild the board from its scenario
- history: View past events
- list_configs: List scenarios
- game_instructions: Rules and board legend
- describe_cell: Details of one cell`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new simulation session with optional scenario selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Scenario ID from list_configs (optional)",
				},
				"realtime": map[string]interface{}{
					"type":        "boolean",
					"description": "Advance the session with the server clock",
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
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Simulation
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "board",
		Description: "Show the current board as text with agent positions and headings",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "tick",
		Description: "Run a number of ticks. Stops early if an agent leaves a clamped board.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"count": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Number of ticks (default 1, max %d)", engine.MaxBulkTicks),
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleTick)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "advance",
		Description: "Feed elapsed time into the session; it ticks once per update interval",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"dt_ms": map[string]interface{}{
					"type":        "number",
					"description": "Elapsed time in milliseconds",
				},
			},
			Required: []string{"session_id", "dt_ms"},
		},
	}, c.handleAdvance)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "press_button",
		Description: "Press a button; every agent bound to it turns",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"button": map[string]interface{}{
					"type":        "string",
					"description": "Button name, e.g. a, d, left, right",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why you are turning",
				},
			},
			Required: []string{"session_id", "button"},
		},
	}, c.handlePressButton)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the session to its scenario's starting board",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "history",
		Description: "Get the event history of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available scenarios",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the simulation rules and board legend",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Get detailed information about one cell: its owner, which agent is on it and the nearest agent",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "X coordinate (column, 0-based)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Y coordinate (row, 0-based)",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
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

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func stringArg(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return s
}

// numberArg reads a JSON number argument; ok is false when it is missing
func numberArg(args map[string]interface{}, name string) (float64, bool) {
	switch v := args[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	if configID := stringArg(args, "config_id"); configID != "" {
		body["config_id"] = configID
	}
	if realtime, _ := args["realtime"].(bool); realtime {
		body["realtime"] = true
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
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
		tick := 0
		if s.Board != nil {
			tick = s.Board.Tick
		}
		mode := "manual"
		if s.Realtime {
			mode = "realtime"
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Tick: %d, %s, Created: %s)\n",
			s.ID, s.ConfigName, tick, mode, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var board engine.Snapshot
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/board"), nil, &board); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatBoard(&board)), nil
}

func (c *Client) handleTick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")

	count := 1
	if n, ok := numberArg(args, "count"); ok {
		count = int(n)
	}

	var result service.TickResult
	err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/tick"), map[string]int{"count": count}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatTickResult(&result)), nil
}

func (c *Client) handleAdvance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")

	dt, ok := numberArg(args, "dt_ms")
	if !ok {
		return mcp.NewToolResultError("dt_ms is required"), nil
	}

	var result service.TickResult
	err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/advance"), map[string]float64{"dt_ms": dt}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatTickResult(&result)), nil
}

func (c *Client) handlePressButton(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")
	button := stringArg(args, "button")

	var result service.InputResult
	err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/button"), map[string]string{"button": button}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatInputResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var response struct {
		Message string           `json:"message"`
		Board   *engine.Snapshot `json:"board"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(response.Message + "\n\n" + formatBoard(response.Board)), nil
}

func (c *Client) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")

	query := url.Values{}
	if page, ok := numberArg(args, "page"); ok {
		query.Set("page", fmt.Sprint(int(page)))
	}
	if limit, ok := numberArg(args, "limit"); ok {
		query.Set("limit", fmt.Sprint(int(limit)))
	}
	path := sessionPath(sessionID, "/history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Board: %dx%d, Agents: %d, Edges: %s, Interval: %dms\n\n",
			config.ConfigID, config.Name, config.Description,
			config.BoardWidth, config.BoardHeight, config.Agents, config.EdgePolicy, config.UpdateIntervalMS)
	}
	return mcp.NewToolResultText(b.String()), nil
}

const instructions = `Light Cycle Simulator - Instructions

BOARD:
The board is a grid of cells addressed (x, y) with (0, 0) in the top-left
corner. x grows to the right (east), y grows downward (south).

AGENTS:
• Each agent has a position, a heading (north/east/south/west) and two buttons.
• Every tick each agent moves exactly one cell in its heading and marks the
  cell it enters with its trail.
• Trails are permanent until reset. Entering a trail cell is reported as a
  contact but does not stop the agent.

BUTTONS:
• The left button turns the heading 90 degrees counter-clockwise.
• The right button turns it 90 degrees clockwise.
• Turns take effect on the next tick. A button may be bound to several agents.

TIME:
• tick runs whole ticks directly.
• advance adds elapsed milliseconds to an accumulator; the session ticks once
  each time the accumulator grows past the update interval.

EDGES:
• wrapping: leaving one side re-enters on the opposite side.
• clamped: a step off the board fails. The agent stays where it was and the
  tick is reported with stop_reason_code "out_of_bounds".

BOARD LEGEND:
• @ - an agent's current cell
• a-z - trail, lower-case initial of the owning agent's ID
• . - empty cell

Use describe_cell to check who owns a cell.`

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")
	x, okX := numberArg(args, "x")
	y, okY := numberArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required"), nil
	}

	var board engine.Snapshot
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/board"), nil, &board); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return describeCell(&board, engine.Position{X: int(x), Y: int(y)})
}

func describeCell(board *engine.Snapshot, p engine.Position) (*mcp.CallToolResult, error) {
	if p.X < 0 || p.X >= board.Width || p.Y < 0 || p.Y >= board.Height {
		return mcp.NewToolResultError(fmt.Sprintf("Coordinates (%d, %d) are out of bounds. Board size is %dx%d (x 0-%d, y 0-%d)",
			p.X, p.Y, board.Width, board.Height, board.Width-1, board.Height-1)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cell (%d, %d):\n", p.X, p.Y)

	cell := board.CellAt(p)
	if cell.IsOccupied() {
		fmt.Fprintf(&b, "State: occupied by %s's trail\n", cell.Owner)
	} else {
		b.WriteString("State: empty\n")
	}

	for _, a := range board.Agents {
		if a.Position == p {
			fmt.Fprintf(&b, "Agent: %s is here heading %s\n", a.ID, a.Direction)
		}
	}

	nearest := ""
	best := -1
	for _, a := range board.Agents {
		if d := engine.ManhattanDistance(a.Position, p); best < 0 || d < best {
			best, nearest = d, a.ID
		}
	}
	if nearest != "" {
		fmt.Fprintf(&b, "Nearest agent: %s (%d steps)\n", nearest, best)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nRun: %s\nConfig: %s\nRealtime: %v\nCreated: %s\n",
		session.ID, session.RunID, session.ConfigName, session.Realtime, session.CreatedAt.Format(time.RFC3339))
	if session.Board != nil {
		b.WriteString("\n")
		b.WriteString(formatBoard(session.Board))
	}
	return b.String()
}

func formatBoard(board *engine.Snapshot) string {
	if board == nil {
		return "(no board)\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Tick %d, %dx%d %s board, %d cells occupied\n\n",
		board.Tick, board.Width, board.Height, board.EdgePolicy, board.OccupiedCount)
	for _, line := range engine.RenderASCII(board) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\nAgents:\n")
	owned := engine.CountOwned(board)
	for _, a := range board.Agents {
		fmt.Fprintf(&b, "- %s at (%d,%d) heading %s, %d trail cells, %d steps to edge, buttons %s/%s\n",
			a.ID, a.Position.X, a.Position.Y, a.Direction, owned[a.ID],
			engine.StepsToEdge(a.Position, a.Direction, board.Width, board.Height),
			a.Bindings.Left, a.Bindings.Right)
	}
	return b.String()
}

func formatTickResult(result *service.TickResult) string {
	var b strings.Builder
	if result.Success {
		fmt.Fprintf(&b, "✓ %d ticks (tick %d → %d)\n", result.Ticks, result.FromTick, result.ToTick)
	} else {
		fmt.Fprintf(&b, "✗ Stopped after %d ticks: %s\n", result.Ticks, result.StoppedReason)
	}
	if result.Truncated {
		fmt.Fprintf(&b, "Request truncated to %d ticks\n", result.Limit)
	}
	for _, contact := range result.Contacts {
		fmt.Fprintf(&b, "Contact: %s entered %s's trail at (%d,%d) on tick %d\n",
			contact.AgentID, contact.PreviousOwner, contact.Position.X, contact.Position.Y, contact.Tick)
	}
	b.WriteString("\n")
	b.WriteString(formatBoard(result.Board))
	return b.String()
}

func formatInputResult(result *service.InputResult) string {
	var b strings.Builder
	switch {
	case !result.Bound:
		fmt.Fprintf(&b, "Button %q is not bound to any agent\n", result.Button)
	default:
		fmt.Fprintf(&b, "Button %q turned: %s\n", result.Button, strings.Join(result.Turned, ", "))
	}
	if result.Board != nil {
		for _, a := range result.Board.Agents {
			fmt.Fprintf(&b, "- %s now heading %s\n", a.ID, a.Direction)
		}
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "History (page %d/%d, %d entries):\n\n", history.Page, history.TotalPages, history.TotalEntries)
	for _, entry := range history.Entries {
		fmt.Fprintf(&b, "#%d [%s] tick %d: %s\n", entry.Seq, entry.Type, entry.Tick, entry.Message)
	}
	return b.String()
}
