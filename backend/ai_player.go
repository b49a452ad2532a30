package main

import (
	"sync"
	"sync/atomic"

	"slide2048/engine"
)

type AIPlayer struct {
	moveMutex  sync.Mutex
	workerDone chan struct{}
	thinking   atomic.Bool
	moveReady  atomic.Bool
	stopSignal atomic.Bool
	epoch      atomic.Uint64
	ready      aiResult
	searcher   atomic.Pointer[engine.Searcher]
}

// aiResult is a finished background search, tagged with the board it was computed for and
// the epoch it started in.
type aiResult struct {
	valid bool
	board engine.Board
	epoch uint64
	move  engine.Direction
	ok    bool
	depth int
}

func NewAIPlayer() *AIPlayer {
	player := &AIPlayer{}
	player.ResetForConfigChange()
	return player
}

func (a *AIPlayer) IsHuman() bool {
	return false
}

func (a *AIPlayer) ChooseMove(state GameState) (engine.Direction, bool) {
	s := a.searcher.Load()
	return s.ChooseMove(state.Board, s.Config().Depth)
}

// Analyze scores every direction on b at the configured depth.
func (a *AIPlayer) Analyze(b engine.Board) engine.Analysis {
	s := a.searcher.Load()
	return s.Analyze(b, s.Config().Depth)
}

func (a *AIPlayer) Depth() int {
	return a.searcher.Load().Config().Depth
}

// StartThinking searches state in the background; the result is picked up with
// HasMoveReady and TakeMove.
func (a *AIPlayer) StartThinking(state GameState) {
	if a.thinking.Load() {
		return
	}
	if a.workerDone != nil {
		<-a.workerDone
	}
	a.thinking.Store(true)
	a.moveReady.Store(false)
	a.stopSignal.Store(false)

	board := state.Board
	epoch := a.epoch.Load()
	searcher := a.searcher.Load()
	done := make(chan struct{})
	a.workerDone = done
	go func() {
		defer close(done)
		depth := searcher.Config().Depth
		d, ok := searcher.ChooseMove(board, depth)
		a.moveMutex.Lock()
		defer a.moveMutex.Unlock()
		if a.stopSignal.Load() || a.epoch.Load() != epoch {
			a.moveReady.Store(false)
			a.thinking.Store(false)
			return
		}
		a.ready = aiResult{valid: true, board: board, epoch: epoch, move: d, ok: ok, depth: depth}
		a.moveReady.Store(true)
		a.thinking.Store(false)
	}()
}

func (a *AIPlayer) IsThinking() bool {
	return a.thinking.Load()
}

func (a *AIPlayer) HasMoveReady() bool {
	return a.moveReady.Load()
}

// TakeMove hands out the ready result. fresh is false when the result belongs to a stopped
// search or to a board other than current; such a result is dropped.
func (a *AIPlayer) TakeMove(current engine.Board) (d engine.Direction, ok bool, depth int, fresh bool) {
	a.moveMutex.Lock()
	defer a.moveMutex.Unlock()
	a.moveReady.Store(false)
	r := a.ready
	a.ready = aiResult{}
	if !r.valid || r.epoch != a.epoch.Load() || r.board != current {
		return 0, false, 0, false
	}
	return r.move, r.ok, r.depth, true
}

// StopThinking discards the pending search result.
func (a *AIPlayer) StopThinking() {
	a.moveMutex.Lock()
	defer a.moveMutex.Unlock()
	a.epoch.Add(1)
	a.stopSignal.Store(true)
	a.moveReady.Store(false)
}

// ResetForConfigChange rebuilds the searcher from the current config and shared cache.
func (a *AIPlayer) ResetForConfigChange() {
	cfg := GetConfig()
	a.StopThinking()
	a.searcher.Store(engine.NewSearcherWithTable(cfg, ensureTT(SharedSearchCache(), cfg)))
}
