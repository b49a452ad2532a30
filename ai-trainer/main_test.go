package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slide2048/engine"
)

func testBatch() batchConfig {
	return batchConfig{Games: 3, Depth: 1, Seed: 7, Workers: 2, MaxMoves: 25, WinTile: 2048}
}

func newTestTrainer(batch batchConfig) *trainer {
	cfg := engine.DefaultConfig()
	cfg.TTSize = 1 << 10
	return newTrainer(zerolog.Nop(), batch, cfg)
}

func TestPlayGameIsReproducible(t *testing.T) {
	batch := testBatch()
	s := engine.NewSearcher(engine.DefaultConfig())
	first, err := playGame(context.Background(), s, batch, 1)
	require.NoError(t, err)
	second, err := playGame(context.Background(), s, batch, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(8), first.Seed)
	assert.LessOrEqual(t, first.Moves, batch.MaxMoves)
	assert.GreaterOrEqual(t, first.MaxTile, 2)
}

func TestPlayGameStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := playGame(ctx, engine.NewSearcher(engine.DefaultConfig()), testBatch(), 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize(t *testing.T) {
	results := []GameResult{
		{Index: 0, Score: 100, Moves: 10, MaxTile: 64},
		{Index: 1, Score: 300, Moves: 30, MaxTile: 2048, Won: true},
	}
	s := summarize("run", 2, results, 1500*time.Millisecond)
	assert.Equal(t, 2, s.Games)
	assert.Equal(t, []int{100, 300}, s.Scores)
	assert.Equal(t, []int{10, 30}, s.Moves)
	assert.Equal(t, []int{64, 2048}, s.MaxTiles)
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 200.0, s.MeanScore)
	assert.Equal(t, int64(1500), s.ElapsedMs)
}

func TestRunBatchPlaysEveryGame(t *testing.T) {
	tr := newTestTrainer(testBatch())
	summary, err := tr.runBatch(context.Background(), testBatch())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Games)
	assert.Len(t, summary.Scores, 3)
	assert.NotEmpty(t, summary.RunID)

	status := tr.getStatus()
	assert.False(t, status.Running)
	assert.Equal(t, 3, status.GamesPlayed)
	require.NotNil(t, status.LastSummary)
	assert.Equal(t, summary.RunID, status.LastSummary.RunID)

	again, err := newTestTrainer(testBatch()).runBatch(context.Background(), testBatch())
	require.NoError(t, err)
	assert.Equal(t, summary.Scores, again.Scores)
	assert.Equal(t, summary.Moves, again.Moves)
}

func TestRunBatchRejectsBadDepth(t *testing.T) {
	batch := testBatch()
	batch.Depth = 99
	_, err := newTestTrainer(batch).runBatch(context.Background(), batch)
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)
}

func TestTrainerAPI(t *testing.T) {
	tr := newTestTrainer(testBatch())
	srv := httptest.NewServer(tr.router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/trainer/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/trainer/stop", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/trainer/start", "application/json", strings.NewReader("{bad"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/trainer/start", "application/json", strings.NewReader(`{"games":2,"max_moves":10}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		s := tr.getStatus()
		return s.LastSummary != nil && !s.Running
	}, 10*time.Second, 20*time.Millisecond)

	resp, err = http.Get(srv.URL + "/api/trainer/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	var status trainerStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, 2, status.GamesTotal)
	require.NotNil(t, status.LastSummary)
	assert.Equal(t, 2, status.LastSummary.Games)
}
