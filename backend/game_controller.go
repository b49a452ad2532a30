package main

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"slide2048/engine"
)

type GameController struct {
	mu   sync.Mutex
	game Game
}

func NewGameController(settings GameSettings) *GameController {
	return &GameController{game: NewGame(settings)}
}

// OnKey queues a key press; the ticker applies it.
func (gc *GameController) OnKey(d engine.Direction) bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.SubmitHumanMove(d)
}

func (gc *GameController) ApplyMove(d engine.Direction) (bool, string) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.SubmitMove(d)
}

func (gc *GameController) Tick() bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.Tick(time.Now())
}

func (gc *GameController) State() GameState {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.State()
}

func (gc *GameController) Settings() GameSettings {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.settings
}

func (gc *GameController) History() MoveHistory {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.History()
}

func (gc *GameController) SessionID() uuid.UUID {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.SessionID()
}

func (gc *GameController) CurrentTurnStartedAtMs() int64 {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.TurnStartedAtMs()
}

func (gc *GameController) LatestHistoryEntry() (HistoryEntry, bool) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.History().Last()
}

func (gc *GameController) AiThinking() bool {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.AiThinking()
}

func (gc *GameController) Hint() engine.Analysis {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.game.Hint()
}

func (gc *GameController) Reset(settings GameSettings) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.game.Reset(settings)
}

func (gc *GameController) StartGame(settings GameSettings) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.game.Reset(settings)
	gc.game.Start()
}

// UpdateSettings switches settings in place unless reset is set; the board survives a
// mode change.
func (gc *GameController) UpdateSettings(update GameSettings, reset bool) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if reset {
		gc.game.Reset(update)
		return
	}
	gc.game.ai.StopThinking()
	gc.game.human.ClearPending()
	gc.game.settings = update
	if update.Mode == ModeAuto && gc.game.state.Status == StatusRunning {
		gc.game.autoStartAt = time.Now()
		gc.game.lastAutoMove = time.Time{}
	}
}

func (gc *GameController) ResetForConfigChange() {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.game.ResetForConfigChange()
}
