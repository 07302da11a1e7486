package service

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultFrameRate is the realtime clock's frame rate
const DefaultFrameRate = 60

// Publisher receives every frame result that advanced or halted a session
type Publisher func(result *TickResult)

// RunClock drives realtime sessions at a fixed frame interval until ctx is
// cancelled. Each frame passes the measured wall time since the previous frame
// to AdvanceRealtime, so a late frame simply carries more time.
func RunClock(ctx context.Context, svc GameService, frame time.Duration, publish Publisher, logger *log.Logger) error {
	if frame <= 0 {
		return fmt.Errorf("frame interval must be positive, got %v", frame)
	}
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.With("component", "clock")

	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	logger.Info("realtime clock started", "frame", frame)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			logger.Info("realtime clock stopped")
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if dt < 0 {
				dt = 0
			}

			results, err := svc.AdvanceRealtime(ctx, dt)
			if err != nil {
				logger.Warn("frame failed", "err", err)
				continue
			}
			if publish == nil {
				continue
			}
			for _, r := range results {
				publish(r)
			}
		}
	}
}
