package main

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"slide2048/engine"
)

type Game struct {
	settings     GameSettings
	state        GameState
	history      MoveHistory
	rng          engine.RandomSource
	human        *HumanPlayer
	ai           *AIPlayer
	sessionID    uuid.UUID
	turnStart    time.Time
	autoStartAt  time.Time
	lastAutoMove time.Time
}

func NewGame(settings GameSettings) Game {
	g := Game{}
	g.Reset(settings)
	return g
}

// Reset returns to an empty, not started board under a fresh session id.
func (g *Game) Reset(settings GameSettings) {
	if g.ai != nil {
		g.ai.StopThinking()
	}
	g.settings = settings
	g.state = DefaultGameState()
	g.history.Clear()
	g.rng = newRandomSource(settings.Seed)
	g.createPlayers()
	g.sessionID = uuid.New()
	g.turnStart = time.Now()
	g.autoStartAt = time.Time{}
	g.lastAutoMove = time.Time{}
	log.Info().
		Str("component", "backend").
		Str("session", g.sessionID.String()).
		Str("mode", string(settings.Mode)).
		Int64("seed", settings.Seed).
		Msg("game reset")
}

func newRandomSource(seed int64) engine.RandomSource {
	if seed == 0 {
		return engine.NewSecureSource()
	}
	return engine.NewSeededSource(seed)
}

// Start spawns the two opening tiles.
func (g *Game) Start() {
	if g.state.Status != StatusNotStarted {
		return
	}
	g.state.Board = engine.NewGame(g.rng)
	g.state.MaxTile = g.state.Board.MaxTile()
	g.state.Status = StatusRunning
	g.turnStart = time.Now()
	g.autoStartAt = g.turnStart.Add(time.Duration(g.settings.AutoplayStartDelayMs) * time.Millisecond)
}

func (g *Game) State() GameState {
	return g.state.Clone()
}

func (g *Game) History() MoveHistory {
	return g.history
}

func (g *Game) SessionID() uuid.UUID {
	return g.sessionID
}

func (g *Game) TurnStartedAtMs() int64 {
	if g.turnStart.IsZero() {
		return 0
	}
	return g.turnStart.UnixMilli()
}

// TryApplyMove slides, spawns and updates the game status. A direction that leaves the
// board unchanged is rejected and consumes no spawn.
func (g *Game) TryApplyMove(d engine.Direction, isAi bool, depth int) (bool, string) {
	if g.state.Status != StatusRunning {
		return false, "game not running"
	}
	if !d.Valid() {
		return false, "invalid direction"
	}
	result := engine.Slide(g.state.Board, d)
	if !result.Moved {
		g.state.LastMessage = "Illegal move: " + d.String() + " does not change the board"
		return false, g.state.LastMessage
	}
	elapsedMs := float64(time.Since(g.turnStart).Milliseconds())
	board, cell, err := engine.TrySpawn(result.Board, g.rng)
	if err != nil && !errors.Is(err, engine.ErrBoardFull) {
		return false, err.Error()
	}
	entry := HistoryEntry{
		Direction: d,
		Points:    result.Points,
		Merges:    result.Merges,
		ElapsedMs: elapsedMs,
		IsAi:      isAi,
		Depth:     depth,
	}
	g.state.HasLastSpawn = err == nil
	if err == nil {
		g.state.LastSpawn = cell
		entry.Spawn = cell
		entry.SpawnValue = board.At(cell.Row, cell.Col)
	}
	g.state.Board = board
	g.state.Score += result.Points
	g.state.Moves++
	g.state.MaxTile = board.MaxTile()
	g.state.LastDirection = d
	g.state.HasLastDirection = true
	g.state.LastMessage = ""
	entry.ScoreAfter = g.state.Score
	g.history.Push(entry)
	g.logMovePlayed(entry)

	if !g.state.ReachedWin && engine.HasWon(board, g.settings.WinTile) {
		g.state.ReachedWin = true
		if g.settings.StopAtWin {
			g.state.Status = StatusWon
			g.logGameEnd("win tile reached")
			return true, ""
		}
	}
	if engine.IsTerminal(board) {
		g.state.Status = StatusOver
		g.logGameEnd("no move left")
		return true, ""
	}
	g.turnStart = time.Now()
	return true, ""
}

// SubmitMove handles a key press immediately, following the mode.
func (g *Game) SubmitMove(d engine.Direction) (bool, string) {
	if g.settings.Mode == ModeAuto {
		return false, "input ignored in auto mode"
	}
	g.human.SetPendingMove(d)
	return g.playTurn()
}

// SubmitHumanMove queues a key press for the next Tick.
func (g *Game) SubmitHumanMove(d engine.Direction) bool {
	if g.settings.Mode == ModeAuto || g.state.Status != StatusRunning {
		return false
	}
	g.human.SetPendingMove(d)
	return true
}

// currentPlayer is the human in manual mode and the AI otherwise; in assist mode the
// key press only triggers the AI.
func (g *Game) currentPlayer() IPlayer {
	if g.settings.Mode == ModeManual {
		return g.human
	}
	return g.ai
}

func (g *Game) playTurn() (bool, string) {
	if g.state.Status != StatusRunning {
		g.human.ClearPending()
		return false, "game not running"
	}
	player := g.currentPlayer()
	d, ok := player.ChooseMove(g.state)
	g.human.ClearPending()
	if !ok {
		if player.IsHuman() {
			return false, "no key pressed"
		}
		g.state.Status = StatusOver
		g.logGameEnd("no move left")
		return false, "no legal move"
	}
	if player.IsHuman() {
		return g.TryApplyMove(d, false, 0)
	}
	return g.TryApplyMove(d, true, g.ai.Depth())
}

// Tick advances the game by at most one move and reports whether the board changed.
func (g *Game) Tick(now time.Time) bool {
	if g.state.Status != StatusRunning {
		g.human.ClearPending()
		return false
	}
	if g.settings.Mode != ModeAuto {
		if !g.human.HasPendingMove() {
			return false
		}
		applied, _ := g.playTurn()
		return applied
	}

	if now.Before(g.autoStartAt) {
		return false
	}
	if g.ai.HasMoveReady() {
		d, ok, depth, fresh := g.ai.TakeMove(g.state.Board)
		if !fresh {
			return false
		}
		if !ok {
			g.state.Status = StatusOver
			g.logGameEnd("no move left")
			return true
		}
		applied, _ := g.TryApplyMove(d, true, depth)
		if applied {
			g.lastAutoMove = now
		}
		return applied
	}
	interval := time.Duration(g.settings.AutoplayIntervalMs) * time.Millisecond
	if !g.ai.IsThinking() && (g.lastAutoMove.IsZero() || now.Sub(g.lastAutoMove) >= interval) {
		g.ai.StartThinking(g.state.Clone())
	}
	return false
}

// Hint analyzes the current board without changing it.
func (g *Game) Hint() engine.Analysis {
	return g.ai.Analyze(g.state.Board)
}

func (g *Game) AiThinking() bool {
	return g.ai != nil && g.ai.IsThinking()
}

func (g *Game) createPlayers() {
	g.human = NewHumanPlayer()
	g.ai = NewAIPlayer()
}

func (g *Game) ResetForConfigChange() {
	g.ai.ResetForConfigChange()
}

func (g *Game) logMovePlayed(entry HistoryEntry) {
	log.Debug().
		Str("component", "backend").
		Str("session", g.sessionID.String()).
		Stringer("direction", entry.Direction).
		Bool("ai", entry.IsAi).
		Int("points", entry.Points).
		Int("score", entry.ScoreAfter).
		Float64("elapsed_ms", entry.ElapsedMs).
		Msg("move played")
}

func (g *Game) logGameEnd(reason string) {
	log.Info().
		Str("component", "backend").
		Str("session", g.sessionID.String()).
		Str("status", g.state.Status.String()).
		Int("score", g.state.Score).
		Int("moves", g.state.Moves).
		Int("max_tile", g.state.MaxTile).
		Str("reason", reason).
		Msg("game finished")
}
