package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Direction is one of the four slide directions.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

// Directions is the fixed enumeration order. Search ties are broken by it.
var Directions = [4]Direction{Left, Right, Up, Down}

var ErrInvalidDirection = errors.New("invalid direction")

func (d Direction) Valid() bool {
	return d >= Left && d <= Down
}

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection maps host input ("left", "ArrowUp", "D", ...) to a Direction.
func ParseDirection(raw string) (Direction, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.TrimPrefix(key, "arrow")
	switch key {
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	case "up", "u":
		return Up, nil
	case "down", "d":
		return Down, nil
	}
	return Left, fmt.Errorf("%w: %q", ErrInvalidDirection, raw)
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDirection, int(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// mustValid enforces the closed enumeration. An out-of-range value is a programming error.
func mustValid(d Direction) {
	if !d.Valid() {
		panic(fmt.Sprintf("engine: invalid direction %d", int(d)))
	}
}
