package main

import (
	"fmt"

	"slide2048/engine"
)

type StatusResponse struct {
	SessionID       string                        `json:"session_id"`
	Settings        GameSettings                  `json:"settings"`
	Config          engine.Config                 `json:"config"`
	Board           [engine.Size][engine.Size]int `json:"board"`
	Status          string                        `json:"status"`
	Score           int                           `json:"score"`
	Moves           int                           `json:"moves"`
	MaxTile         int                           `json:"max_tile"`
	ReachedWin      bool                          `json:"reached_win"`
	LastDirection   string                        `json:"last_direction,omitempty"`
	LastSpawn       *engine.Cell                  `json:"last_spawn,omitempty"`
	LastMessage     string                        `json:"last_message,omitempty"`
	History         []historyEntryDTO             `json:"history"`
	AiThinking      bool                          `json:"ai_thinking"`
	TurnStartedAtMs int64                          `json:"turn_started_at_ms"`
}

// gameSettingsDTO is a partial settings update; nil fields keep the base value.
type gameSettingsDTO struct {
	Mode                 *string `json:"mode"`
	AutoplayIntervalMs   *int    `json:"autoplay_interval_ms"`
	AutoplayStartDelayMs *int    `json:"autoplay_start_delay_ms"`
	Seed                 *int64  `json:"seed"`
	WinTile              *int    `json:"win_tile"`
	StopAtWin            *bool   `json:"stop_at_win"`
}

type historyEntryDTO struct {
	Direction  string       `json:"direction"`
	Points     int          `json:"points"`
	Merges     int          `json:"merges"`
	Spawn      *engine.Cell `json:"spawn,omitempty"`
	SpawnValue int          `json:"spawn_value,omitempty"`
	Score      int          `json:"score"`
	ElapsedMs  float64      `json:"elapsed_ms"`
	IsAi       bool         `json:"is_ai"`
	Depth      int          `json:"depth"`
}

type historyPayload struct {
	History []historyEntryDTO `json:"history"`
}

type resetPayload struct {
	SessionID       string                        `json:"session_id"`
	Board           [engine.Size][engine.Size]int `json:"board"`
	Status          string                        `json:"status"`
	Score           int                           `json:"score"`
	History         []historyEntryDTO             `json:"history"`
	TurnStartedAtMs int64                         `json:"turn_started_at_ms"`
}

type settingsPayload struct {
	Settings GameSettings  `json:"settings"`
	Config   engine.Config `json:"config"`
}

type analyzeResponse struct {
	Analysis   engine.Analysis `json:"analysis"`
	Terminal   bool            `json:"terminal"`
	Evaluation float64         `json:"evaluation"`
}

type ttCacheStatusResponse struct {
	Enabled       bool    `json:"enabled"`
	Count         int     `json:"count"`
	Capacity      int     `json:"capacity"`
	Usage         float64 `json:"usage"`
	Full          bool    `json:"full"`
	Generation    uint32  `json:"generation"`
	EntryBytes    uint64  `json:"entry_bytes"`
	UsedBytes     uint64  `json:"used_bytes"`
	CapacityBytes uint64  `json:"capacity_bytes"`
}

type ttCacheEntryDTO struct {
	Hash          string                        `json:"hash"`
	HeuristicHash string                        `json:"heuristic_hash"`
	Hits          uint32                        `json:"hits"`
	Depth         int                           `json:"depth"`
	Kind          string                        `json:"kind"`
	Value         float64                       `json:"value"`
	Board         [engine.Size][engine.Size]int `json:"board"`
	GenWritten    uint32                        `json:"gen_written"`
	GenLastUsed   uint32                        `json:"gen_last_used"`
}

type ttCacheEntriesResponse struct {
	Items  []ttCacheEntryDTO `json:"items"`
	Offset int               `json:"offset"`
	Limit  int               `json:"limit"`
	Total  int               `json:"total"`
}

func controllerStatus(controller *GameController) StatusResponse {
	state := controller.State()
	resp := StatusResponse{
		SessionID:       controller.SessionID().String(),
		Settings:        controller.Settings(),
		Config:          GetConfig(),
		Board:           state.Board.Rows(),
		Status:          state.Status.String(),
		Score:           state.Score,
		Moves:           state.Moves,
		MaxTile:         state.MaxTile,
		ReachedWin:      state.ReachedWin,
		LastMessage:     state.LastMessage,
		History:         historyToDTO(controller.History()),
		AiThinking:      controller.AiThinking(),
		TurnStartedAtMs: controller.CurrentTurnStartedAtMs(),
	}
	if state.HasLastDirection {
		resp.LastDirection = state.LastDirection.String()
	}
	if state.HasLastSpawn {
		spawn := state.LastSpawn
		resp.LastSpawn = &spawn
	}
	return resp
}

func resetFromController(controller *GameController) resetPayload {
	state := controller.State()
	return resetPayload{
		SessionID:       controller.SessionID().String(),
		Board:           state.Board.Rows(),
		Status:          state.Status.String(),
		Score:           state.Score,
		History:         historyToDTO(controller.History()),
		TurnStartedAtMs: controller.CurrentTurnStartedAtMs(),
	}
}

func settingsFromDTO(dto gameSettingsDTO, base GameSettings) GameSettings {
	settings := base
	if dto.Mode != nil {
		settings.Mode = GameMode(*dto.Mode)
	}
	if dto.AutoplayIntervalMs != nil {
		settings.AutoplayIntervalMs = *dto.AutoplayIntervalMs
	}
	if dto.AutoplayStartDelayMs != nil {
		settings.AutoplayStartDelayMs = *dto.AutoplayStartDelayMs
	}
	if dto.Seed != nil {
		settings.Seed = *dto.Seed
	}
	if dto.WinTile != nil {
		settings.WinTile = *dto.WinTile
	}
	if dto.StopAtWin != nil {
		settings.StopAtWin = *dto.StopAtWin
	}
	return settings
}

func historyToDTO(history MoveHistory) []historyEntryDTO {
	entries := history.All()
	result := make([]historyEntryDTO, 0, len(entries))
	for _, entry := range entries {
		result = append(result, historyEntryToDTO(entry))
	}
	return result
}

func historyEntryToDTO(entry HistoryEntry) historyEntryDTO {
	dto := historyEntryDTO{
		Direction: entry.Direction.String(),
		Points:    entry.Points,
		Merges:    entry.Merges,
		Score:     entry.ScoreAfter,
		ElapsedMs: entry.ElapsedMs,
		IsAi:      entry.IsAi,
		Depth:     entry.Depth,
	}
	if entry.SpawnValue != 0 {
		spawn := entry.Spawn
		dto.Spawn = &spawn
		dto.SpawnValue = entry.SpawnValue
	}
	return dto
}

func ttEntryToDTO(entry engine.TTEntry) ttCacheEntryDTO {
	return ttCacheEntryDTO{
		Hash:          fmt.Sprintf("0x%016x", entry.Key),
		HeuristicHash: fmt.Sprintf("0x%016x", entry.HeuristicHash),
		Hits:          entry.Hits,
		Depth:         entry.Depth,
		Kind:          entry.Kind.String(),
		Value:         entry.Value,
		Board:         entry.Board().Rows(),
		GenWritten:    entry.GenWritten,
		GenLastUsed:   entry.GenLastUsed,
	}
}
