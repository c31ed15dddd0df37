// Package predictor suggests a single next action for a board without
// planning a full route.
package predictor

import (
	"github.com/fentz26/petalpath/internal/grid"
	"github.com/fentz26/petalpath/internal/rules"
)

// Predictor returns one action for the given world, or false when it has
// nothing to suggest.
type Predictor interface {
	Predict(w *grid.World) (rules.Action, bool)
}

// Features is what the local policy looks at around the robot.
type Features struct {
	Front         grid.CellType `json:"front"`
	Held          int           `json:"held"`
	Capacity      int           `json:"capacity"`
	FlowersLeft   int           `json:"flowers_left"`
	FreeNeighbors int           `json:"free_neighbors"`
	GoalAdjacent  bool          `json:"goal_adjacent"`
}

// Extract reads the features for the robot's current situation.
func Extract(w *grid.World) Features {
	robot := w.Robot()
	f := Features{
		Front:       w.CellAt(robot.Front()),
		Held:        w.HeldCount(),
		Capacity:    w.Capacity(),
		FlowersLeft: w.FlowerCount(),
	}
	for _, n := range robot.Position.Neighbors() {
		if w.IsEmpty(n) {
			f.FreeNeighbors++
		}
		if n == w.Goal() {
			f.GoalAdjacent = true
		}
	}
	return f
}

// Local is a rule-based policy over the robot's immediate surroundings. It
// acts on what is in front, turns toward useful neighbours and otherwise
// heads for the nearest target by straight-line distance.
type Local struct {
	// Batch is how many flowers are gathered before heading for the
	// princess. Zero means 3.
	Batch int
}

// Predict implements Predictor.
func (l Local) Predict(w *grid.World) (rules.Action, bool) {
	if w.Status() == grid.StatusVictory {
		return rules.Action{}, false
	}
	f := Extract(w)
	robot := w.Robot()

	switch {
	case f.Front == grid.CellPrincess && f.Held > 0:
		return rules.Action{Type: rules.ActionGive}, true
	case f.Front == grid.CellFlower && f.Held < f.Capacity && !l.delivering(f):
		return rules.Action{Type: rules.ActionPick}, true
	case f.Front == grid.CellObstacle && f.Held == 0 && f.FreeNeighbors == 0:
		return rules.Action{Type: rules.ActionClean}, true
	}

	if f.Held > 0 && f.GoalAdjacent {
		d, _ := grid.DirectionBetween(robot.Position, w.Goal())
		return rules.RotateTo(d), true
	}
	if f.Held < f.Capacity && !l.delivering(f) {
		for _, d := range grid.Directions() {
			if w.HasFlower(robot.Position.Step(d)) {
				return rules.RotateTo(d), true
			}
		}
	}
	if f.FreeNeighbors == 0 {
		if f.Held == 0 {
			for _, d := range grid.Directions() {
				if w.HasObstacle(robot.Position.Step(d)) {
					return rules.RotateTo(d), true
				}
			}
		}
		return rules.Action{}, false
	}

	target, ok := l.target(w, f)
	if !ok {
		return rules.Action{}, false
	}
	d := towards(w, robot.Position, target)
	if robot.Orientation != d {
		return rules.RotateTo(d), true
	}
	return rules.Action{Type: rules.ActionMove}, true
}

func (l Local) delivering(f Features) bool {
	batch := l.Batch
	if batch <= 0 {
		batch = 3
	}
	return f.Held > 0 && (f.Held >= min(batch, f.Capacity) || f.FlowersLeft == 0)
}

// target is the princess when delivering, else the closest flower.
func (l Local) target(w *grid.World, f Features) (grid.Position, bool) {
	if l.delivering(f) || f.FlowersLeft == 0 {
		if f.Held == 0 {
			return grid.Position{}, false
		}
		return w.Goal(), true
	}
	from := w.RobotPosition()
	var (
		best  grid.Position
		bestD = -1
	)
	for _, p := range w.Flowers() {
		if d := from.Distance(p); bestD < 0 || d < bestD {
			best, bestD = p, d
		}
	}
	return best, bestD >= 0
}

// towards picks the free neighbouring direction that most reduces the
// straight-line distance to target. It never returns a blocked direction
// when a free one exists.
func towards(w *grid.World, from, target grid.Position) grid.Direction {
	var (
		best  grid.Direction
		bestD = -1
	)
	for _, d := range grid.Directions() {
		next := from.Step(d)
		if !w.IsEmpty(next) {
			continue
		}
		if dist := next.Distance(target); bestD < 0 || dist < bestD {
			best, bestD = d, dist
		}
	}
	return best
}
