package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"slide2048/engine"
)

type batchConfig struct {
	Games    int   `json:"games"`
	Depth    int   `json:"depth"`
	Seed     int64 `json:"seed"`
	Workers  int   `json:"workers"`
	MaxMoves int   `json:"max_moves"`
	WinTile  int   `json:"win_tile"`
}

type trainer struct {
	logger zerolog.Logger
	batch  batchConfig
	engine engine.Config

	statusMu  sync.RWMutex
	status    trainerStatus
	jobMu     sync.Mutex
	jobCancel context.CancelFunc
	jobDone   chan struct{}
}

type trainerStatus struct {
	Running     bool     `json:"running"`
	Phase       string   `json:"phase"`
	Message     string   `json:"message"`
	RunID       string   `json:"run_id,omitempty"`
	StartedAt   string   `json:"started_at"`
	UpdatedAt   string   `json:"updated_at"`
	GamesPlayed int      `json:"games_played"`
	GamesTotal  int      `json:"games_total"`
	LastSummary *Summary `json:"last_summary,omitempty"`
}

// GameResult is one self-play game played to the end (or to MaxMoves).
type GameResult struct {
	Index   int   `json:"index"`
	Seed    int64 `json:"seed"`
	Score   int   `json:"score"`
	Moves   int   `json:"moves"`
	MaxTile int   `json:"max_tile"`
	Won     bool  `json:"won"`
}

type Summary struct {
	RunID     string  `json:"run_id"`
	Depth     int     `json:"depth"`
	Games     int     `json:"games"`
	Moves     []int   `json:"moves"`
	Scores    []int   `json:"scores"`
	MaxTiles  []int   `json:"max_tiles"`
	Wins      int     `json:"wins"`
	MeanScore float64 `json:"mean_score"`
	ElapsedMs int64   `json:"elapsed_ms"`
}

func main() {
	logger, closeLog, err := buildLogger(getenv("LOG_PATH", "/logs/AITrainer.log"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if dir := getenv("PROFILE_DIR", ""); dir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.Quiet).Stop()
	}

	t := newTrainer(logger, batchConfigFromEnv(), engine.DefaultConfig())
	apiAddr := getenv("TRAINER_API_ADDR", "")

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if apiAddr == "" {
		summary, err := t.runBatch(sigCtx, t.batch)
		if err != nil {
			t.logger.Error().Err(err).Msg("batch failed")
			closeLog()
			os.Exit(1)
		}
		_ = json.NewEncoder(os.Stdout).Encode(summary)
		return
	}

	server := &http.Server{Addr: apiAddr, Handler: t.router(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error().Err(err).Msg("trainer api server error")
		}
	}()
	t.logger.Info().Str("addr", apiAddr).Int("games", t.batch.Games).Int("depth", t.batch.Depth).Msg("trainer service started")

	if getenvBool("TRAINER_AUTOSTART", false) {
		if err := t.startTraining(t.batch); err != nil {
			t.logger.Error().Err(err).Msg("autostart failed")
		}
	}

	<-sigCtx.Done()
	_ = t.stopTraining("shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	t.logger.Info().Msg("trainer service stopping")
}

func newTrainer(logger zerolog.Logger, batch batchConfig, cfg engine.Config) *trainer {
	now := time.Now().UTC().Format(time.RFC3339)
	return &trainer{
		logger: logger.With().Str("component", "trainer").Logger(),
		batch:  batch,
		engine: cfg,
		status: trainerStatus{
			Phase:     "idle",
			Message:   "service ready",
			StartedAt: now,
			UpdatedAt: now,
		},
	}
}

func batchConfigFromEnv() batchConfig {
	return batchConfig{
		Games:    getenvInt("GAMES", 10),
		Depth:    getenvInt("DEPTH", engine.DefaultDepth),
		Seed:     getenvInt64("SEED", 1),
		Workers:  getenvInt("WORKERS", runtime.NumCPU()),
		MaxMoves: getenvInt("MAX_MOVES", 0),
		WinTile:  getenvInt("WIN_TILE", 2048),
	}
}

func (t *trainer) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/trainer/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "running": t.getStatus().Running})
	})
	r.Get("/api/trainer/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, t.getStatus())
	})
	r.Post("/api/trainer/start", func(w http.ResponseWriter, r *http.Request) {
		batch := t.batch
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
				return
			}
		}
		if err := t.startTraining(batch); err != nil {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, t.getStatus())
	})
	r.Post("/api/trainer/stop", func(w http.ResponseWriter, r *http.Request) {
		if err := t.stopTraining("requested via api"); err != nil {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, t.getStatus())
	})
	return r
}

func (t *trainer) getStatus() trainerStatus {
	t.statusMu.RLock()
	defer t.statusMu.RUnlock()
	return t.status
}

func (t *trainer) updateStatus(mutator func(*trainerStatus)) {
	t.statusMu.Lock()
	defer t.statusMu.Unlock()
	mutator(&t.status)
	t.status.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

func (t *trainer) startTraining(batch batchConfig) error {
	t.jobMu.Lock()
	defer t.jobMu.Unlock()
	if t.jobCancel != nil {
		return errors.New("training already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.jobCancel = cancel
	t.jobDone = done
	go func() {
		defer close(done)
		if _, err := t.runBatch(ctx, batch); err != nil && !errors.Is(err, context.Canceled) {
			t.updateStatus(func(s *trainerStatus) {
				s.Phase = "error"
				s.Message = err.Error()
			})
		}
		t.jobMu.Lock()
		t.jobCancel = nil
		t.jobDone = nil
		t.jobMu.Unlock()
	}()
	return nil
}

func (t *trainer) stopTraining(reason string) error {
	t.jobMu.Lock()
	cancel := t.jobCancel
	done := t.jobDone
	t.jobMu.Unlock()
	if cancel == nil {
		return errors.New("no running training job")
	}
	t.logger.Info().Str("reason", reason).Msg("stopping training")
	cancel()
	if done != nil {
		<-done
	}
	t.updateStatus(func(s *trainerStatus) {
		s.Running = false
		s.Phase = "idle"
		s.Message = "service ready"
	})
	return nil
}

// runBatch plays batch.Games games with a bounded worker pool. Game i uses seed+i so a
// run is reproducible regardless of scheduling.
func (t *trainer) runBatch(ctx context.Context, batch batchConfig) (Summary, error) {
	if batch.Games <= 0 {
		return Summary{}, errors.New("games must be positive")
	}
	cfg := t.engine
	cfg.Depth = batch.Depth
	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}
	runID := uuid.New()
	start := time.Now()
	t.updateStatus(func(s *trainerStatus) {
		s.Running = true
		s.Phase = "running"
		s.Message = "self-play running"
		s.RunID = runID.String()
		s.GamesPlayed = 0
		s.GamesTotal = batch.Games
	})
	t.logger.Info().
		Str("run_id", runID.String()).
		Int("games", batch.Games).
		Int("depth", batch.Depth).
		Int("workers", batch.Workers).
		Int64("seed", batch.Seed).
		Msg("self-play started")

	searcher := engine.NewSearcher(cfg)
	results := make([]GameResult, batch.Games)
	g, gctx := errgroup.WithContext(ctx)
	if batch.Workers > 0 {
		g.SetLimit(batch.Workers)
	}
	for i := 0; i < batch.Games; i++ {
		i := i
		g.Go(func() error {
			result, err := playGame(gctx, searcher, batch, i)
			if err != nil {
				return err
			}
			results[i] = result
			t.updateStatus(func(s *trainerStatus) { s.GamesPlayed++ })
			t.logger.Info().
				Int("game", i).
				Int("score", result.Score).
				Int("moves", result.Moves).
				Int("max_tile", result.MaxTile).
				Msg("game finished")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.updateStatus(func(s *trainerStatus) {
			s.Running = false
			s.Phase = "idle"
			s.Message = "self-play interrupted"
		})
		return Summary{}, fmt.Errorf("self-play run %s: %w", runID, err)
	}

	summary := summarize(runID.String(), batch.Depth, results, time.Since(start))
	t.updateStatus(func(s *trainerStatus) {
		s.Running = false
		s.Phase = "idle"
		s.Message = "self-play finished"
		s.LastSummary = &summary
	})
	t.logger.Info().
		Str("run_id", summary.RunID).
		Int("wins", summary.Wins).
		Float64("mean_score", summary.MeanScore).
		Int64("elapsed_ms", summary.ElapsedMs).
		Msg("self-play finished")
	return summary, nil
}

func playGame(ctx context.Context, searcher *engine.Searcher, batch batchConfig, index int) (GameResult, error) {
	seed := batch.Seed + int64(index)
	rng := engine.NewSeededSource(seed)
	board := engine.NewGame(rng)
	result := GameResult{Index: index, Seed: seed}
	for batch.MaxMoves <= 0 || result.Moves < batch.MaxMoves {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		d, ok := searcher.ChooseMove(board, batch.Depth)
		if !ok {
			break
		}
		moved := engine.Slide(board, d)
		result.Score += moved.Points
		result.Moves++
		board = engine.Spawn(moved.Board, rng)
	}
	result.MaxTile = board.MaxTile()
	result.Won = engine.HasWon(board, batch.WinTile)
	return result, nil
}

func summarize(runID string, depth int, results []GameResult, elapsed time.Duration) Summary {
	summary := Summary{
		RunID:     runID,
		Depth:     depth,
		Games:     len(results),
		Moves:     make([]int, 0, len(results)),
		Scores:    make([]int, 0, len(results)),
		MaxTiles:  make([]int, 0, len(results)),
		ElapsedMs: elapsed.Milliseconds(),
	}
	total := 0
	for _, r := range results {
		summary.Moves = append(summary.Moves, r.Moves)
		summary.Scores = append(summary.Scores, r.Score)
		summary.MaxTiles = append(summary.MaxTiles, r.MaxTile)
		total += r.Score
		if r.Won {
			summary.Wins++
		}
	}
	if len(results) > 0 {
		summary.MeanScore = float64(total) / float64(len(results))
	}
	return summary
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func buildLogger(path string) (zerolog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Logger{}, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	logger := zerolog.New(io.MultiWriter(console, f)).With().Timestamp().Logger()
	return logger, func() { _ = f.Close() }, nil
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var parsed int
	if _, err := fmt.Sscanf(value, "%d", &parsed); err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getenvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
