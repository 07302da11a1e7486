package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Cell is one board cell as the server sends it
type Cell struct {
	State string `json:"state"`
	Owner string `json:"owner,omitempty"`
}

// Position is a board coordinate, y growing downwards
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Agent is one light cycle
type Agent struct {
	ID        string   `json:"id"`
	Color     string   `json:"color"`
	Position  Position `json:"position"`
	Direction string   `json:"direction"`
}

// Board is the server's board snapshot
type Board struct {
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	TileSize   int      `json:"tile_size"`
	Background string   `json:"background"`
	EdgePolicy string   `json:"edge_policy"`
	Tick       int      `json:"tick"`
	Rows       [][]Cell `json:"rows"`
	Agents     []Agent  `json:"agents"`
}

// WSMessage is the websocket message wrapper
type WSMessage struct {
	SessionID string `json:"session_id"`
	Event     string `json:"event,omitempty"`
	Board     *Board `json:"board,omitempty"`
	Result    *struct {
		Success       bool   `json:"success"`
		StoppedReason string `json:"stopped_reason,omitempty"`
	} `json:"result,omitempty"`
}

// Client follows one session over HTTP and websocket
type Client struct {
	baseURL   string
	sessionID string
	http      *http.Client

	mu      sync.RWMutex
	board   *Board
	status  string
	updated time.Time
}

// NewClient targets the server at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// CreateSession starts a realtime session for configID, empty for the default
func (c *Client) CreateSession(configID string) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"config_id": configID,
		"realtime":  true,
	})

	var info struct {
		ID    string `json:"id"`
		Board *Board `json:"board"`
	}
	if err := c.do("POST", "/api/sessions", payload, &info); err != nil {
		return err
	}

	c.sessionID = info.ID
	c.setBoard(info.Board, "")
	log.Printf("Created session %s (config: %s)", info.ID, configID)
	return nil
}

// Follow attaches to an existing session
func (c *Client) Follow(sessionID string) error {
	c.sessionID = sessionID
	return c.FetchBoard()
}

// FetchBoard polls the current board
func (c *Client) FetchBoard() error {
	var board Board
	if err := c.do("GET", c.sessionPath("/board"), nil, &board); err != nil {
		return err
	}
	c.setBoard(&board, "")
	return nil
}

// Press sends a button press
func (c *Client) Press(button string) error {
	payload, _ := json.Marshal(map[string]string{"button": button})
	return c.do("POST", c.sessionPath("/button"), payload, nil)
}

// Reset rebuilds the board from its scenario
func (c *Client) Reset() error {
	var resp struct {
		Board *Board `json:"board"`
	}
	if err := c.do("POST", c.sessionPath("/reset"), []byte("{}"), &resp); err != nil {
		return err
	}
	c.setBoard(resp.Board, "")
	return nil
}

// Listen reads websocket messages until the connection drops
func (c *Client) Listen() error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws"
	u.RawQuery = url.Values{"session": {c.sessionID}}.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("WebSocket connected for session %s", c.sessionID)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("WebSocket JSON parse error: %v", err)
			continue
		}
		if msg.Board == nil {
			continue
		}

		status := ""
		if msg.Result != nil && !msg.Result.Success {
			status = msg.Result.StoppedReason
		}
		c.setBoard(msg.Board, status)
	}
}

// Snapshot returns the latest board and status line
func (c *Client) Snapshot() (*Board, string, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.board, c.status, c.updated
}

func (c *Client) setBoard(board *Board, status string) {
	if board == nil {
		return
	}
	c.mu.Lock()
	c.board = board
	c.status = status
	c.updated = time.Now()
	c.mu.Unlock()
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

func (c *Client) do(method, path string, body []byte, result interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to parse response: %v (body: %s)", err, string(data))
	}
	return nil
}
