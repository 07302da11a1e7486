package terminal

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Tones played by the driver
const (
	TurnTone    = 880.0
	ContactTone = 220.0
	OutTone     = 110.0
)

// Blipper plays a short tone. The driver calls it on turns and contacts.
type Blipper interface {
	Blip(freq float64, d time.Duration)
}

// Sound plays sine blips through the system speaker
type Sound struct {
	mu     sync.Mutex
	closed bool
}

// NewSound opens the speaker
func NewSound() (*Sound, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return nil, err
	}
	return &Sound{}, nil
}

// Blip plays a sine tone of freq Hz for d
func (s *Sound) Blip(freq float64, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(d), sine))
}

// Close releases the speaker. Later blips are dropped.
func (s *Sound) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	speaker.Close()
}
