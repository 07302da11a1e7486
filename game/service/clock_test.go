package service_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wricardo/lightcycle/game/service"
)

func TestRunClock_AdvancesRealtimeSessions(t *testing.T) {
	svc, _ := newTestService()
	info, err := svc.CreateSession(context.Background(), "line", true)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()

	var published []*service.TickResult
	err = service.RunClock(ctx, svc, 5*time.Millisecond, func(r *service.TickResult) {
		published = append(published, r)
	}, log.New(io.Discard))
	if err != nil {
		t.Fatalf("RunClock returned error: %v", err)
	}

	if len(published) == 0 {
		t.Fatal("Expected at least one published result")
	}
	for _, r := range published {
		if r.SessionID != info.ID {
			t.Errorf("Unexpected session %q", r.SessionID)
		}
	}

	board, _ := svc.GetBoard(context.Background(), info.ID)
	if board.Tick == 0 {
		t.Error("Expected the realtime session to have ticked")
	}
}

func TestRunClock_RejectsInvalidFrame(t *testing.T) {
	svc, _ := newTestService()
	if err := service.RunClock(context.Background(), svc, 0, nil, nil); err == nil {
		t.Error("Expected error for zero frame interval")
	}
}
