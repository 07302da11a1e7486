// Command desktop renders a light-cycle session from a running server in an
// ebiten window and forwards key presses as button presses.
//
// Usage:
//
//	desktop                 # create a realtime session with the default scenario
//	desktop -config duel    # create a realtime session for a scenario
//	desktop <session_id>    # follow an existing session
package main

import (
	"fmt"
	"image/color"
	"log"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	defaultURL   = "http://localhost:8080"
	headerHeight = 24
	minTile      = 2
	pollInterval = 500 * time.Millisecond
	maxWindow    = 1000
)

// Game is the ebiten game wrapping one followed session
type Game struct {
	client    *Client
	connected atomic.Bool
	lastPoll  time.Time
	keys      []ebiten.Key
}

// Update forwards key presses and polls when the websocket is down
func (g *Game) Update() error {
	g.keys = inpututil.AppendJustPressedKeys(g.keys[:0])
	for _, k := range g.keys {
		switch k {
		case ebiten.KeyEscape:
			return ebiten.Termination
		case ebiten.KeyF5:
			go g.run("reset", g.client.Reset)
			continue
		}
		if name := buttonName(k); name != "" {
			go g.run("button "+name, func() error { return g.client.Press(name) })
		}
	}

	if !g.connected.Load() && time.Since(g.lastPoll) > pollInterval {
		g.lastPoll = time.Now()
		go g.run("poll", g.client.FetchBoard)
	}
	return nil
}

func (g *Game) run(what string, fn func() error) {
	if err := fn(); err != nil {
		log.Printf("%s failed: %v", what, err)
	}
}

// Draw renders the board with tile squares at (x*tile, y*tile) under a header
func (g *Game) Draw(screen *ebiten.Image) {
	board, status, _ := g.client.Snapshot()
	if board == nil {
		ebitenutil.DebugPrint(screen, "Loading...")
		return
	}

	screen.Fill(parseColor(board.Background, color.RGBA{0, 0, 0, 255}))

	tile := tileSize(board)
	colors := make(map[string]color.Color, len(board.Agents))
	for _, a := range board.Agents {
		colors[a.ID] = parseColor(a.Color, color.White)
	}

	for y, row := range board.Rows {
		for x, cell := range row {
			if cell.State != "occupied" {
				continue
			}
			drawTile(screen, x, y, tile, dim(colors[cell.Owner]))
		}
	}
	for _, a := range board.Agents {
		drawTile(screen, a.Position.X, a.Position.Y, tile, colors[a.ID])
	}

	header := fmt.Sprintf("%s  tick %d  %s", g.client.sessionID, board.Tick, board.EdgePolicy)
	if status != "" {
		header += "  " + status
	}
	if !g.connected.Load() {
		header += "  (polling)"
	}
	ebitenutil.DebugPrintAt(screen, header, 4, 4)
}

// Layout tracks the board size so tiles keep their configured size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	board, _, _ := g.client.Snapshot()
	if board == nil {
		return outsideWidth, outsideHeight
	}
	tile := tileSize(board)
	return board.Width * tile, board.Height*tile + headerHeight
}

func drawTile(screen *ebiten.Image, x, y, tile int, c color.Color) {
	if c == nil {
		c = color.White
	}
	vector.DrawFilledRect(screen,
		float32(x*tile), float32(y*tile+headerHeight),
		float32(tile), float32(tile), c, false)
}

// tileSize shrinks the configured tile until the board fits maxWindow
func tileSize(board *Board) int {
	tile := board.TileSize
	if tile <= 0 {
		tile = 10
	}
	for tile > minTile && (board.Width*tile > maxWindow || board.Height*tile > maxWindow) {
		tile--
	}
	return tile
}

// buttonName maps a key to the button names scenarios bind to
func buttonName(k ebiten.Key) string {
	switch k {
	case ebiten.KeyArrowLeft:
		return "left"
	case ebiten.KeyArrowRight:
		return "right"
	case ebiten.KeyArrowUp:
		return "up"
	case ebiten.KeyArrowDown:
		return "down"
	case ebiten.KeySpace:
		return "space"
	}
	name := strings.TrimPrefix(k.String(), "Digit")
	if len(name) == 1 {
		return strings.ToLower(name)
	}
	return ""
}

func parseColor(s string, fallback color.Color) color.Color {
	if len(s) != 7 || s[0] != '#' {
		return fallback
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
}

// dim darkens trail cells so heads stand out
func dim(c color.Color) color.Color {
	if c == nil {
		return color.Gray{Y: 128}
	}
	r, g, b, _ := c.RGBA()
	return color.RGBA{uint8(r >> 9), uint8(g >> 9), uint8(b >> 9), 255}
}

func main() {
	baseURL := os.Getenv("LIGHTCYCLE_URL")
	if baseURL == "" {
		baseURL = defaultURL
	}
	client := NewClient(baseURL)

	args := os.Args[1:]
	configID := ""
	if len(args) >= 2 && args[0] == "-config" {
		configID, args = args[1], args[2:]
	}

	var err error
	if len(args) > 0 {
		err = client.Follow(args[0])
	} else {
		err = client.CreateSession(configID)
	}
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	game := &Game{client: client}
	go func() {
		for {
			game.connected.Store(true)
			err := client.Listen()
			game.connected.Store(false)
			log.Printf("WebSocket closed for %s: %v (falling back to polling)", client.sessionID, err)
			time.Sleep(2 * time.Second)
		}
	}()

	w, h := game.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("Light Cycle - " + client.sessionID)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
