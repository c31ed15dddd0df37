// Package grid defines the puzzle world: coordinates, directions, the robot,
// the princess and the board holding flowers and obstacles.
package grid

import "fmt"

// Position is a (row, col) cell coordinate.
type Position struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// Pos is shorthand for Position{Row: row, Col: col}.
func Pos(row, col int) Position {
	return Position{Row: row, Col: col}
}

// Distance returns the Manhattan distance between p and o.
func (p Position) Distance(o Position) int {
	return abs(p.Row-o.Row) + abs(p.Col-o.Col)
}

// Translate returns p shifted by the given deltas.
func (p Position) Translate(dRow, dCol int) Position {
	return Position{Row: p.Row + dRow, Col: p.Col + dCol}
}

// Step returns the neighbouring cell in direction d.
func (p Position) Step(d Direction) Position {
	dr, dc := d.Delta()
	return p.Translate(dr, dc)
}

// Neighbors returns the four orthogonal neighbours in Directions() order.
// Cells outside the board are included; callers check bounds.
func (p Position) Neighbors() [4]Position {
	var out [4]Position
	for i, d := range Directions() {
		out[i] = p.Step(d)
	}
	return out
}

// Less orders positions row-major.
func (p Position) Less(o Position) bool {
	if p.Row != o.Row {
		return p.Row < o.Row
	}
	return p.Col < o.Col
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
