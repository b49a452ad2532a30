package main

import (
	"errors"
	"fmt"
)

type GameMode string

const (
	// ModeManual applies the direction the user sends.
	ModeManual GameMode = "manual"
	// ModeAssist lets any key press trigger one AI move.
	ModeAssist GameMode = "assist"
	// ModeAuto plays AI moves on a timer until the game ends.
	ModeAuto GameMode = "auto"
)

var ErrInvalidSettings = errors.New("invalid settings")

func (m GameMode) Valid() bool {
	switch m {
	case ModeManual, ModeAssist, ModeAuto:
		return true
	}
	return false
}

type GameSettings struct {
	Mode                 GameMode `json:"mode"`
	AutoplayIntervalMs   int      `json:"autoplay_interval_ms"`
	AutoplayStartDelayMs int      `json:"autoplay_start_delay_ms"`
	Seed                 int64    `json:"seed"`
	WinTile              int      `json:"win_tile"`
	StopAtWin            bool     `json:"stop_at_win"`
}

func DefaultGameSettings() GameSettings {
	return GameSettings{
		Mode:                 ModeManual,
		AutoplayIntervalMs:   100,
		AutoplayStartDelayMs: 500,
		Seed:                 0,
		WinTile:              2048,
		StopAtWin:            true,
	}
}

func (s GameSettings) Validate() error {
	if !s.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidSettings, s.Mode)
	}
	if s.AutoplayIntervalMs < 0 || s.AutoplayStartDelayMs < 0 {
		return fmt.Errorf("%w: autoplay timings must not be negative", ErrInvalidSettings)
	}
	if s.WinTile < 4 || s.WinTile&(s.WinTile-1) != 0 {
		return fmt.Errorf("%w: win_tile %d is not a power of two >= 4", ErrInvalidSettings, s.WinTile)
	}
	return nil
}
