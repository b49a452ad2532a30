package main

import (
	"testing"
	"time"

	"slide2048/engine"
)

func tickUntil(t *testing.T, controller *GameController, timeout time.Duration, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		controller.Tick()
		if done() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached within %s", timeout)
}

func TestOnKeyIsAppliedOnTick(t *testing.T) {
	settings := DefaultGameSettings()
	settings.Seed = 3
	controller := NewGameController(settings)
	controller.StartGame(settings)
	controller.game.state.Board = engine.MustBoard([engine.Size][engine.Size]int{{2, 2}})

	if !controller.OnKey(engine.Left) {
		t.Fatalf("expected key to be queued")
	}
	if controller.History().Size() != 0 {
		t.Fatalf("key must wait for the ticker")
	}
	if !controller.Tick() {
		t.Fatalf("expected tick to apply the queued key")
	}
	if entry, ok := controller.LatestHistoryEntry(); !ok || entry.Direction != engine.Left {
		t.Fatalf("unexpected latest entry %+v", entry)
	}
	if controller.Tick() {
		t.Fatalf("a key is applied once")
	}
}

func TestAutoModePlaysMoves(t *testing.T) {
	withConfig(t, func(cfg *engine.Config) { cfg.Depth = 1 })
	settings := DefaultGameSettings()
	settings.Mode = ModeAuto
	settings.Seed = 11
	settings.AutoplayIntervalMs = 0
	settings.AutoplayStartDelayMs = 0
	controller := NewGameController(settings)
	controller.StartGame(settings)

	tickUntil(t, controller, 3*time.Second, func() bool { return controller.History().Size() >= 3 })
	for _, entry := range controller.History().All() {
		if !entry.IsAi {
			t.Fatalf("auto mode moves must come from the AI")
		}
	}
}

func TestAutoModeStopsWhenBoardIsStuck(t *testing.T) {
	withConfig(t, func(cfg *engine.Config) { cfg.Depth = 1 })
	settings := DefaultGameSettings()
	settings.Mode = ModeAuto
	settings.AutoplayIntervalMs = 0
	settings.AutoplayStartDelayMs = 0
	controller := NewGameController(settings)
	controller.StartGame(settings)
	controller.mu.Lock()
	controller.game.state.Board = nearTerminalBoard()
	controller.mu.Unlock()

	tickUntil(t, controller, 3*time.Second, func() bool { return controller.State().Status != StatusRunning })
	if controller.State().Status != StatusOver {
		t.Fatalf("expected game over, got %s", controller.State().Status)
	}
	if controller.History().Size() != 1 {
		t.Fatalf("expected exactly one move, got %d", controller.History().Size())
	}
}

func TestUpdateSettingsSwitchToAutoKeepsBoardAndContinuesGame(t *testing.T) {
	withConfig(t, func(cfg *engine.Config) { cfg.Depth = 1 })
	settings := DefaultGameSettings()
	settings.Seed = 5
	controller := NewGameController(settings)
	controller.StartGame(settings)
	controller.game.state.Board = engine.MustBoard([engine.Size][engine.Size]int{{2, 2, 4}, {4}})

	if applied, reason := controller.ApplyMove(engine.Left); !applied {
		t.Fatalf("expected manual move to apply: %s", reason)
	}
	before := controller.State()
	session := controller.SessionID()

	updated := controller.Settings()
	updated.Mode = ModeAuto
	updated.AutoplayIntervalMs = 0
	controller.UpdateSettings(updated, false)

	if controller.State().Board != before.Board || controller.History().Size() != 1 {
		t.Fatalf("expected board and history to survive a mode switch")
	}
	if controller.SessionID() != session {
		t.Fatalf("mode switch without reset keeps the session")
	}
	tickUntil(t, controller, 3*time.Second, func() bool { return controller.History().Size() > 1 })

	controller.UpdateSettings(updated, true)
	if controller.History().Size() != 0 || controller.SessionID() == session {
		t.Fatalf("reset switch must start a new session")
	}
}
