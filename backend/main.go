package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"slide2048/engine"
)

// maxAnalyzeDepth bounds the stateless analyze endpoint.
const maxAnalyzeDepth = 5

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if level, err := zerolog.ParseLevel(getenv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	cfg, err := configFromEnv(engine.DefaultConfig())
	if err != nil {
		log.Warn().Err(err).Str("component", "backend").Msg("ignoring environment overrides")
	}
	if err := configStore.Update(cfg); err != nil {
		log.Fatal().Err(err).Str("component", "backend").Msg("invalid config")
	}

	var persistOnce sync.Once
	persistOnShutdown := func(reason string) {
		persistOnce.Do(func() {
			log.Info().Str("component", "backend").Str("reason", reason).Msg("persisting caches")
			persistTTPersistence(GetConfig(), SharedSearchCache())
		})
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Error().Str("component", "backend").Interface("panic", recovered).Msg("panic recovered in main")
			persistOnShutdown("panic")
		}
	}()

	loadTTPersistence(GetConfig(), SharedSearchCache())
	defer persistOnShutdown("exit")
	controller := NewGameController(DefaultGameSettings())
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx.Done())
	go runTicker(ctx, controller, hub, 50*time.Millisecond)

	addr := getenv("BACKEND_ADDR", ":8080")
	server := &http.Server{
		Addr:              addr,
		Handler:           newRouter(controller, hub),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	log.Info().Str("component", "backend").Str("addr", addr).Msg("backend listening")
	var runErr error
	select {
	case <-sigCtx.Done():
		log.Info().Str("component", "backend").Msg("shutdown signal received")
	case err, ok := <-serverErrCh:
		if ok {
			runErr = err
			log.Error().Err(err).Str("component", "backend").Msg("server error")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Str("component", "backend").Msg("graceful shutdown failed")
		if closeErr := server.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
			log.Error().Err(closeErr).Str("component", "backend").Msg("forced close failed")
		}
	}

	cancel()
	persistOnShutdown("shutdown")
	if runErr != nil {
		log.Error().Err(runErr).Str("component", "backend").Msg("exiting after server error")
	}
}

func runTicker(ctx context.Context, controller *GameController, hub *Hub, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if controller.Tick() {
				publishLatestMove(controller, hub)
			}
		}
	}
}

func publishLatestMove(controller *GameController, hub *Hub) {
	if !hub.HasClients() {
		return
	}
	if entry, ok := controller.LatestHistoryEntry(); ok {
		hub.PublishHistory(historyPayload{History: []historyEntryDTO{historyEntryToDTO(entry)}})
	}
	hub.PublishStatus(controllerStatus(controller))
}

func newRouter(controller *GameController, hub *Hub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, controllerStatus(controller))
	})

	r.Post("/api/start", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Settings gameSettingsDTO `json:"settings"`
		}
		if err := decodeOptionalJSON(r, &payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		settings := settingsFromDTO(payload.Settings, DefaultGameSettings())
		if err := settings.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		controller.StartGame(settings)
		writeJSON(w, http.StatusOK, controllerStatus(controller))
		hub.PublishReset(resetFromController(controller))
	})

	r.Post("/api/stop", func(w http.ResponseWriter, r *http.Request) {
		controller.Reset(controller.Settings())
		writeJSON(w, http.StatusOK, controllerStatus(controller))
		hub.PublishReset(resetFromController(controller))
	})

	r.Post("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Settings *gameSettingsDTO `json:"settings"`
			Config   *engine.Config   `json:"config"`
			Reset    bool             `json:"reset"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		if payload.Config != nil {
			prev := GetConfig()
			if err := configStore.Update(*payload.Config); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			if prev.Heuristics != payload.Config.Heuristics {
				purgeHeuristicEntries(SharedSearchCache(), prev.Heuristics)
			}
			controller.ResetForConfigChange()
		}
		if payload.Settings != nil {
			settings := settingsFromDTO(*payload.Settings, controller.Settings())
			if err := settings.Validate(); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			controller.UpdateSettings(settings, payload.Reset)
		}
		hub.PublishSettings(settingsPayload{
			Settings: controller.Settings(),
			Config:   GetConfig(),
		})
		writeJSON(w, http.StatusOK, controllerStatus(controller))
	})

	r.Post("/api/move", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Direction string `json:"direction"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		d, err := engine.ParseDirection(payload.Direction)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		applied, errMsg := controller.ApplyMove(d)
		if !applied {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
			return
		}
		publishLatestMove(controller, hub)
		writeJSON(w, http.StatusOK, controllerStatus(controller))
	})

	r.Get("/api/hint", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, controller.Hint())
	})

	r.Post("/api/analyze", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Board [engine.Size][engine.Size]int `json:"board"`
			Depth int                           `json:"depth"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		board, err := engine.BoardFromRows(payload.Board)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		cfg := GetConfig()
		depth := payload.Depth
		if depth == 0 {
			depth = min(cfg.Depth, maxAnalyzeDepth)
		}
		if depth < 1 || depth > maxAnalyzeDepth {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("depth must be in [1, %d]", maxAnalyzeDepth),
			})
			return
		}
		searcher := engine.NewSearcherWithTable(cfg, ensureTT(SharedSearchCache(), cfg))
		writeJSON(w, http.StatusOK, analyzeResponse{
			Analysis:   searcher.Analyze(board, depth),
			Terminal:   engine.IsTerminal(board),
			Evaluation: cfg.Heuristics.Evaluate(board),
		})
	})

	r.Get("/api/cache/tt", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ttCacheStatus())
	})
	r.Delete("/api/cache/tt", func(w http.ResponseWriter, r *http.Request) {
		FlushGlobalCaches()
		writeJSON(w, http.StatusOK, map[string]any{
			"cleared": true,
		})
	})
	r.Get("/api/cache/tt/entries", func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 10
		}
		if limit > 100 {
			limit = 100
		}
		if offset < 0 {
			offset = 0
		}
		writeJSON(w, http.StatusOK, ttCacheEntries(offset, limit))
	})
	r.Delete("/api/cache/tt/entries/{hash}", func(w http.ResponseWriter, r *http.Request) {
		hash, err := parseTTKey(chi.URLParam(r, "hash"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid hash"})
			return
		}
		deleted := false
		if tt := SharedSearchCache().table(); tt != nil {
			deleted = tt.DeleteByKey(hash)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"deleted": deleted,
			"hash":    fmt.Sprintf("0x%016x", hash),
		})
	})

	r.Get("/ws/", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, controller, w, r)
	})
	return r
}

func serveWS(hub *Hub, controller *GameController, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{hub: hub, send: make(chan []byte, 16)}
	hub.Register(client)

	client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(controllerStatus(controller))})

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, client.send, wsIdlePingInterval); err != nil {
			log.Debug().Err(err).Str("component", "backend").Msg("websocket writer stopped")
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			hub.Unregister(client)
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "request_status":
			client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(controllerStatus(controller))})
		case "key":
			var key struct {
				Direction engine.Direction `json:"direction"`
			}
			if err := json.Unmarshal(msg.Payload, &key); err != nil {
				client.sendJSON(wsMessage{Type: "error", Payload: mustMarshal(map[string]string{"error": err.Error()})})
				continue
			}
			controller.OnKey(key.Direction)
		}
	}
}

func ttCacheStatus() ttCacheStatusResponse {
	tt := SharedSearchCache().table()
	if tt == nil {
		return ttCacheStatusResponse{Enabled: GetConfig().TTEnabled}
	}
	count := tt.Count()
	capacity := tt.Capacity()
	entryBytes := uint64(unsafe.Sizeof(engine.TTEntry{}))
	usage := 0.0
	if capacity > 0 {
		usage = float64(count) / float64(capacity)
	}
	return ttCacheStatusResponse{
		Enabled:       GetConfig().TTEnabled,
		Count:         count,
		Capacity:      capacity,
		Usage:         usage,
		Full:          capacity > 0 && count >= capacity,
		Generation:    tt.Generation(),
		EntryBytes:    entryBytes,
		UsedBytes:     uint64(count) * entryBytes,
		CapacityBytes: uint64(capacity) * entryBytes,
	}
}

func ttCacheEntries(offset int, limit int) ttCacheEntriesResponse {
	tt := SharedSearchCache().table()
	if tt == nil {
		return ttCacheEntriesResponse{
			Items:  []ttCacheEntryDTO{},
			Offset: offset,
			Limit:  limit,
		}
	}
	entries, total := tt.TopEntriesByHits(offset, limit)
	items := make([]ttCacheEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, ttEntryToDTO(entry))
	}
	return ttCacheEntriesResponse{
		Items:  items,
		Offset: offset,
		Limit:  limit,
		Total:  total,
	}
}

func parseTTKey(raw string) (uint64, error) {
	if raw == "" {
		return 0, errors.New("empty")
	}
	return strconv.ParseUint(raw, 0, 64)
}

func decodeOptionalJSON(r *http.Request, out any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(out)
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
