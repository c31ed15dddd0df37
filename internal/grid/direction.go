package grid

import (
	"fmt"
	"strings"
)

// Direction is one of the four cardinal orientations.
type Direction string

const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// directionOrder fixes the iteration order used everywhere a direction scan
// has to be deterministic.
var directionOrder = [4]Direction{North, East, South, West}

// Directions returns the four directions in scan order (N, E, S, W).
func Directions() [4]Direction {
	return directionOrder
}

// Delta returns the unit (dRow, dCol) step for d.
func (d Direction) Delta() (int, int) {
	switch d {
	case North:
		return -1, 0
	case South:
		return 1, 0
	case East:
		return 0, 1
	case West:
		return 0, -1
	}
	return 0, 0
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return d
}

// Valid reports whether d is one of the four cardinal directions.
func (d Direction) Valid() bool {
	switch d {
	case North, South, East, West:
		return true
	}
	return false
}

// Arrow is the single-glyph form used by board renderers.
func (d Direction) Arrow() string {
	switch d {
	case North:
		return "^"
	case South:
		return "v"
	case East:
		return ">"
	case West:
		return "<"
	}
	return "?"
}

// ParseDirection accepts full names and single-letter forms, case-insensitive.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n", "up":
		return North, nil
	case "south", "s", "down":
		return South, nil
	case "east", "e", "right":
		return East, nil
	case "west", "w", "left":
		return West, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// DirectionBetween returns the direction leading from a to an orthogonally
// adjacent b. ok is false when the cells are not adjacent.
func DirectionBetween(a, b Position) (Direction, bool) {
	for _, d := range directionOrder {
		if a.Step(d) == b {
			return d, true
		}
	}
	return "", false
}
