package mcp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/lightcycle/api"
	"github.com/wricardo/lightcycle/game/config"
	"github.com/wricardo/lightcycle/game/engine"
	"github.com/wricardo/lightcycle/game/service"
	"github.com/wricardo/lightcycle/game/session"
)

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func testBoard() *engine.Snapshot {
	return &engine.Snapshot{
		Width:      4,
		Height:     2,
		EdgePolicy: engine.Wrapping,
		Tick:       2,
		Rows: [][]engine.Cell{
			{engine.OccupiedBy("red"), engine.OccupiedBy("red"), engine.OccupiedBy("red"), engine.EmptyCell()},
			{engine.EmptyCell(), engine.EmptyCell(), engine.EmptyCell(), engine.OccupiedBy("blue")},
		},
		Agents: []engine.AgentState{
			{ID: "red", Position: engine.Position{X: 2, Y: 0}, Direction: engine.East, Bindings: engine.Bindings{Left: "a", Right: "d"}},
			{ID: "blue", Position: engine.Position{X: 3, Y: 1}, Direction: engine.West, Bindings: engine.Bindings{Left: "left", Right: "right"}},
		},
		OccupiedCount: 4,
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"id": "ab12"})
		case "/named":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "session not found"})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	var response map[string]string
	if err := client.apiCall(ctx, "GET", "/ok", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["id"] != "ab12" {
		t.Errorf("Expected id ab12, got %v", response["id"])
	}

	err := client.apiCall(ctx, "GET", "/named", nil, nil)
	if err == nil || err.Error() != "session not found" {
		t.Errorf("Expected API error message, got %v", err)
	}

	err = client.apiCall(ctx, "GET", "/broken", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "API error") {
		t.Errorf("Expected 'API error', got %v", err)
	}
}

func TestClient_apiCall_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
		t.Error("Expected error for unreachable server")
	}
}

func TestClient_handleCreateSession(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(service.SessionInfo{ID: "ab12", ConfigName: "duel", Board: testBoard()})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateSession(context.Background(), callRequest("create_session", map[string]interface{}{
		"config_id": "duel",
		"realtime":  true,
	}))
	if err != nil {
		t.Fatalf("handleCreateSession failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Session: ab12") || !strings.Contains(text, "Config: duel") {
		t.Errorf("Expected session summary, got: %s", text)
	}
	if body["config_id"] != "duel" || body["realtime"] != true {
		t.Errorf("Unexpected request body %v", body)
	}
}

func TestClient_handleTick_DefaultCount(t *testing.T) {
	var body map[string]int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/ab12/tick" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(service.TickResult{SessionID: "ab12", Success: true, Ticks: 1, ToTick: 1, Board: testBoard()})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, _ := client.handleTick(context.Background(), callRequest("tick", map[string]interface{}{"session_id": "ab12"}))
	if body["count"] != 1 {
		t.Errorf("Expected default count 1, got %d", body["count"])
	}
	if !strings.Contains(resultText(t, result), "✓ 1 ticks") {
		t.Errorf("Unexpected text %s", resultText(t, result))
	}
}

func TestClient_handleAdvance_RequiresDt(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	result, _ := client.handleAdvance(context.Background(), callRequest("advance", map[string]interface{}{"session_id": "ab12"}))
	if !result.IsError {
		t.Error("Expected tool error without dt_ms")
	}
}

func TestFormatBoard(t *testing.T) {
	text := formatBoard(testBoard())

	expected := []string{
		"Tick 2, 4x2 wrapping board, 4 cells occupied",
		"rr@.",
		"...@",
		"- red at (2,0) heading east, 3 trail cells, 1 steps to edge, buttons a/d",
		"- blue at (3,1) heading west, 1 trail cells, 3 steps to edge, buttons left/right",
	}
	for _, want := range expected {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in formatted board, got:\n%s", want, text)
		}
	}
}

func TestFormatTickResult(t *testing.T) {
	ok := formatTickResult(&service.TickResult{Success: true, Ticks: 3, FromTick: 0, ToTick: 3, Board: testBoard()})
	if !strings.Contains(ok, "✓ 3 ticks (tick 0 → 3)") {
		t.Errorf("Unexpected success text: %s", ok)
	}

	stopped := formatTickResult(&service.TickResult{
		Success:       false,
		Ticks:         2,
		StoppedReason: "red would leave the board",
		Truncated:     true,
		Limit:         engine.MaxBulkTicks,
		Contacts:      []engine.Contact{{Tick: 2, AgentID: "blue", PreviousOwner: "red", Position: engine.Position{X: 1, Y: 0}}},
	})
	for _, want := range []string{"✗ Stopped after 2 ticks: red would leave the board", "Request truncated to 500 ticks", "Contact: blue entered red's trail at (1,0) on tick 2"} {
		if !strings.Contains(stopped, want) {
			t.Errorf("Expected %q in %s", want, stopped)
		}
	}
}

func TestDescribeCell(t *testing.T) {
	board := testBoard()

	result, _ := describeCell(board, engine.Position{X: 2, Y: 0})
	text := resultText(t, result)
	if !strings.Contains(text, "occupied by red's trail") || !strings.Contains(text, "Agent: red is here heading east") {
		t.Errorf("Unexpected description: %s", text)
	}

	result, _ = describeCell(board, engine.Position{X: 0, Y: 1})
	text = resultText(t, result)
	if !strings.Contains(text, "State: empty") || !strings.Contains(text, "Nearest agent: red (3 steps)") {
		t.Errorf("Unexpected description: %s", text)
	}

	result, _ = describeCell(board, engine.Position{X: 4, Y: 0})
	if !result.IsError {
		t.Error("Expected error for out of bounds cell")
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")
	result, err := client.handleGameInstructions(context.Background(), callRequest("game_instructions", nil))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, section := range []string{"BOARD:", "AGENTS:", "BUTTONS:", "TIME:", "EDGES:", "BOARD LEGEND:"} {
		if !strings.Contains(text, section) {
			t.Errorf("Expected %q in instructions", section)
		}
	}
}

// Drives the tools against a real API server
func TestClient_Integration(t *testing.T) {
	logger := log.New(io.Discard)
	configs, err := config.NewManager("../../configs", logger)
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	svc := service.NewGameService(session.NewManager(logger), configs, logger)
	server := httptest.NewServer(api.NewServer(svc, nil, logger))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "classic", false)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	result, _ := client.handlePressButton(ctx, callRequest("press_button", map[string]interface{}{"session_id": info.ID, "button": "d"}))
	if text := resultText(t, result); !strings.Contains(text, "turned: red") {
		t.Errorf("Expected red to turn, got: %s", text)
	}

	result, _ = client.handleAdvance(ctx, callRequest("advance", map[string]interface{}{"session_id": info.ID, "dt_ms": 350.0}))
	if text := resultText(t, result); !strings.Contains(text, "✓ 3 ticks") {
		t.Errorf("Expected 3 ticks, got: %s", text)
	}

	// classic: red starts at (1,3) heading east, turned south
	result, _ = client.handleBoard(ctx, callRequest("board", map[string]interface{}{"session_id": info.ID}))
	if text := resultText(t, result); !strings.Contains(text, "red at (1,6) heading south") {
		t.Errorf("Unexpected board: %s", text)
	}

	result, _ = client.handleHistory(ctx, callRequest("history", map[string]interface{}{"session_id": info.ID, "limit": 5.0}))
	if text := resultText(t, result); !strings.Contains(text, "[turn]") {
		t.Errorf("Expected turn in history, got: %s", text)
	}

	result, _ = client.handleGetSession(ctx, callRequest("get_session", map[string]interface{}{"session_id": "zzzz"}))
	if !result.IsError {
		t.Error("Expected error for unknown session")
	}
}
