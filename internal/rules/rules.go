package rules

import (
	"fmt"

	"github.com/fentz26/petalpath/internal/grid"
)

// Rotate turns the robot to face d.
func Rotate(w *grid.World, d grid.Direction) error {
	if err := checkPlaying(w); err != nil {
		return err
	}
	if !d.Valid() {
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidRotation, d)
	}
	w.SetOrientation(d)
	return nil
}

// Move steps the robot one cell forward.
func Move(w *grid.World) error {
	if err := checkPlaying(w); err != nil {
		return err
	}
	target := w.Robot().Front()
	switch cell := w.CellAt(target); cell {
	case grid.CellEmpty:
	case grid.CellOutOfBounds:
		return fmt.Errorf("%w: %s is outside the board", ErrInvalidMove, target)
	default:
		return fmt.Errorf("%w: %s is blocked by %s", ErrInvalidMove, target, cell)
	}
	return w.MoveRobot(target)
}

// Pick collects the flower in front of the robot.
func Pick(w *grid.World) error {
	if err := checkPlaying(w); err != nil {
		return err
	}
	if w.HeldCount() >= w.Capacity() {
		return fmt.Errorf("%w: already carrying %d of %d", ErrInvalidPick, w.HeldCount(), w.Capacity())
	}
	target := w.Robot().Front()
	if cell := w.CellAt(target); cell != grid.CellFlower {
		return fmt.Errorf("%w: no flower at %s (%s)", ErrInvalidPick, target, cell)
	}
	return w.TakeFlower(target)
}

// Drop puts the most recently picked flower on the empty cell in front.
func Drop(w *grid.World) error {
	if err := checkPlaying(w); err != nil {
		return err
	}
	if w.HeldCount() == 0 {
		return fmt.Errorf("%w: carrying nothing", ErrInvalidDrop)
	}
	target := w.Robot().Front()
	if cell := w.CellAt(target); cell != grid.CellEmpty {
		return fmt.Errorf("%w: %s is %s", ErrInvalidDrop, target, cell)
	}
	return w.PutFlower(target)
}

// Give hands every carried flower to the princess in front of the robot.
func Give(w *grid.World) error {
	if err := checkPlaying(w); err != nil {
		return err
	}
	if w.HeldCount() == 0 {
		return fmt.Errorf("%w: carrying nothing", ErrInvalidGive)
	}
	if target := w.Robot().Front(); target != w.Goal() {
		return fmt.Errorf("%w: princess is not at %s", ErrInvalidGive, target)
	}
	w.HandOver()
	return nil
}

// Clean removes the obstacle in front of the robot. The robot must have
// empty hands.
func Clean(w *grid.World) error {
	if err := checkPlaying(w); err != nil {
		return err
	}
	if w.HeldCount() > 0 {
		return fmt.Errorf("%w: hands are full (%d flowers)", ErrInvalidClean, w.HeldCount())
	}
	target := w.Robot().Front()
	if cell := w.CellAt(target); cell != grid.CellObstacle {
		return fmt.Errorf("%w: no obstacle at %s (%s)", ErrInvalidClean, target, cell)
	}
	return w.RemoveObstacle(target)
}

// Do runs a single action against w. A rejected action leaves w unchanged.
func Do(w *grid.World, a Action) error {
	switch a.Type {
	case ActionRotate:
		return Rotate(w, a.Direction)
	case ActionMove:
		return Move(w)
	case ActionPick:
		return Pick(w)
	case ActionDrop:
		return Drop(w)
	case ActionGive:
		return Give(w)
	case ActionClean:
		return Clean(w)
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
}

// Apply runs a and reports the outcome as a log record.
func Apply(w *grid.World, a Action) Record {
	if a.Type != ActionRotate {
		a.Direction = ""
	}
	before := w.Robot()
	if err := Do(w, a); err != nil {
		return Record{Action: a, OK: false, Message: err.Error()}
	}
	return Record{Action: a, OK: true, Message: describe(w, a, before)}
}

// Replay applies every action of log, in order, to a copy of w.
func Replay(w *grid.World, log []Record) *grid.World {
	out := w.Clone()
	for _, r := range log {
		_ = Do(out, r.Action)
	}
	return out
}

func checkPlaying(w *grid.World) error {
	if w.Status() == grid.StatusVictory {
		return fmt.Errorf("%w: every flower has been delivered", ErrGameOver)
	}
	return nil
}

func describe(w *grid.World, a Action, before grid.Robot) string {
	front := before.Front()
	switch a.Type {
	case ActionRotate:
		return fmt.Sprintf("robot now faces %s", a.Direction)
	case ActionMove:
		return fmt.Sprintf("robot moved to %s", w.RobotPosition())
	case ActionPick:
		return fmt.Sprintf("picked flower at %s (%d/%d)", front, w.HeldCount(), w.Capacity())
	case ActionDrop:
		return fmt.Sprintf("dropped flower at %s", front)
	case ActionGive:
		return fmt.Sprintf("gave %d flowers to the princess (%d/%d delivered)",
			len(before.Held), w.Delivered(), w.InitialFlowers())
	case ActionClean:
		return fmt.Sprintf("cleaned obstacle at %s", front)
	}
	return string(a.Type)
}
