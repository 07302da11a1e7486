// Package terminal plays a simulation locally in a tcell screen. Each board
// cell is drawn two columns wide so tiles look square in most fonts.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"

	"github.com/wricardo/lightcycle/game/engine"
)

const (
	// DefaultFrameRate is the redraw rate of Run
	DefaultFrameRate = 60

	cellWidth = 2
	blipTime  = 50 * time.Millisecond
)

const (
	headRune  = '█'
	trailRune = '▓'
)

// Options tunes a Driver
type Options struct {
	FrameRate int
	// Sound may be nil
	Sound  Blipper
	Logger *log.Logger
}

// Driver feeds frame time and key presses to a simulation and draws it
type Driver struct {
	screen  tcell.Screen
	sim     *engine.Simulation
	initial *engine.Snapshot
	sound   Blipper
	frame   time.Duration
	logger  *log.Logger

	stopped error
	status  string
}

// NewDriver wires sim to an initialized screen
func NewDriver(screen tcell.Screen, sim *engine.Simulation, opts Options) *Driver {
	rate := opts.FrameRate
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	d := &Driver{
		screen:  screen,
		sim:     sim,
		initial: sim.Snapshot(),
		sound:   opts.Sound,
		frame:   time.Second / time.Duration(rate),
		logger:  logger.With("component", "terminal"),
	}
	sim.OnContact(func(c engine.Contact) {
		d.blip(ContactTone)
	})
	return d
}

// Play opens the terminal, runs the driver until the player quits and
// restores the terminal
func Play(ctx context.Context, sim *engine.Simulation, opts Options) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()

	return NewDriver(screen, sim, opts).Run(ctx)
}

// Run polls key events and advances the simulation by the measured frame
// time until Escape, Ctrl-C or ctx cancellation
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.frame)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := d.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	last := time.Now()
	d.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok || !d.HandleEvent(ev) {
				return nil
			}
			d.Draw()

		case now := <-ticker.C:
			d.Step(now.Sub(last))
			last = now
			d.Draw()
		}
	}
}

// HandleEvent routes one event and reports whether the driver keeps running
func (d *Driver) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if quitKey(ev) {
			return false
		}
		name := KeyName(ev)
		if name == "" {
			return true
		}
		if d.stopped != nil && name == "r" && !d.sim.Bound("r") {
			d.Reset()
			return true
		}
		if turned := d.sim.OnButton(engine.Button(name)); len(turned) > 0 {
			d.blip(TurnTone)
			d.logger.Debug("Turned", "button", name, "agents", turned)
		}

	case *tcell.EventResize:
		d.screen.Sync()
	}
	return true
}

// Step advances the simulation by dt unless a tick already failed
func (d *Driver) Step(dt time.Duration) {
	if d.stopped != nil {
		return
	}
	if _, err := d.sim.AdvanceSeconds(dt.Seconds()); err != nil {
		d.stopped = err
		if errors.Is(err, engine.ErrOutOfBounds) {
			d.status = "Left the board, press r to restart"
		} else {
			d.status = err.Error()
		}
		d.blip(OutTone)
		d.logger.Debug("Simulation stopped", "err", err)
	}
}

// Reset restores the board to its starting state
func (d *Driver) Reset() {
	if err := d.sim.Restore(d.initial); err != nil {
		d.status = err.Error()
		return
	}
	d.stopped = nil
	d.status = ""
}

// Stopped returns the error that halted the simulation, if any
func (d *Driver) Stopped() error {
	return d.stopped
}

// Draw renders the board, clipped to the screen, and a status line below it
func (d *Driver) Draw() {
	snap := d.sim.Snapshot()
	w, h := d.screen.Size()

	d.screen.Clear()

	background := tcell.StyleDefault.Background(hexColor(snap.Background, tcell.ColorBlack))
	colors := make(map[string]tcell.Color, len(snap.Agents))
	heads := make(map[engine.Position]string, len(snap.Agents))
	for _, a := range snap.Agents {
		colors[a.ID] = hexColor(a.Color, tcell.ColorWhite)
		heads[a.Position] = a.ID
	}

	for y, row := range snap.Rows {
		if y >= h-1 {
			break
		}
		for x, cell := range row {
			if x*cellWidth >= w {
				break
			}
			r, style := ' ', background
			if id, ok := heads[engine.Position{X: x, Y: y}]; ok {
				r, style = headRune, background.Foreground(colors[id])
			} else if cell.IsOccupied() {
				r, style = trailRune, background.Foreground(colors[cell.Owner])
			}
			for i := 0; i < cellWidth; i++ {
				d.screen.SetContent(x*cellWidth+i, y, r, nil, style)
			}
		}
	}

	statusY := snap.Height
	if statusY > h-1 {
		statusY = h - 1
	}
	d.drawText(0, statusY, d.statusLine(snap), tcell.StyleDefault)
	d.screen.Show()
}

func (d *Driver) statusLine(snap *engine.Snapshot) string {
	line := fmt.Sprintf("tick %d  %s  esc quits", snap.Tick, snap.EdgePolicy)
	if d.status != "" {
		line = fmt.Sprintf("tick %d  %s", snap.Tick, d.status)
	}
	return line
}

func (d *Driver) drawText(x, y int, text string, style tcell.Style) {
	for _, r := range text {
		d.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func (d *Driver) blip(freq float64) {
	if d.sound != nil {
		d.sound.Blip(freq, blipTime)
	}
}

func hexColor(s string, fallback tcell.Color) tcell.Color {
	r, g, b, err := engine.ParseHexColor(s)
	if err != nil {
		return fallback
	}
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
