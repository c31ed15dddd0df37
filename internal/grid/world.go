package grid

import (
	"errors"
	"fmt"
	"sort"
)

// Board size limits, inclusive on each axis.
const (
	MinSize = 3
	MaxSize = 50

	// DefaultCapacity is the robot's carrying limit when none is given.
	DefaultCapacity = 12
)

var (
	ErrInvalidDimensions = errors.New("invalid board dimensions")
	ErrOutOfBounds       = errors.New("position out of bounds")
	ErrOverlap           = errors.New("cells overlap")
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrInvalidCapacity   = errors.New("invalid capacity")
	ErrInvalidCounts     = errors.New("inconsistent delivery counts")
)

// CellType is the derived content of a cell.
type CellType string

const (
	CellEmpty       CellType = "empty"
	CellRobot       CellType = "robot"
	CellPrincess    CellType = "princess"
	CellFlower      CellType = "flower"
	CellObstacle    CellType = "obstacle"
	CellOutOfBounds CellType = "out_of_bounds"
)

// Status is derived from delivery counts, never stored.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusVictory    Status = "victory"
)

// Robot is the mobile agent. Held records where each carried flower was
// picked, in pick order.
type Robot struct {
	Position    Position
	Orientation Direction
	Held        []Position
	Capacity    int
}

// Front is the cell the robot is facing.
func (r Robot) Front() Position {
	return r.Position.Step(r.Orientation)
}

// Princess is the fixed delivery goal.
type Princess struct {
	Position Position
	Received []Position
}

// Mood is cosmetic and has no effect on solving.
func (p Princess) Mood(total int) string {
	switch {
	case total > 0 && len(p.Received) >= total:
		return "delighted"
	case len(p.Received) > 0:
		return "hopeful"
	}
	return "waiting"
}

// Spec describes a world to construct. Zero Capacity means DefaultCapacity;
// zero InitialFlowers is derived from flowers, held items and deliveries.
type Spec struct {
	Rows, Cols     int
	Robot          Position
	Orientation    Direction
	Goal           Position
	Flowers        []Position
	Obstacles      []Position
	Capacity       int
	Held           []Position
	Received       []Position
	Delivered      int
	InitialFlowers int
}

// World is the full puzzle state. Cell contents are derived from the robot,
// princess, flower and obstacle sets; nothing is stored per cell.
type World struct {
	rows, cols int
	robot      Robot
	princess   Princess
	flowers    map[Position]struct{}
	obstacles  map[Position]struct{}
	delivered  int
	initial    int
}

func checkSize(rows, cols int) error {
	if rows < MinSize || rows > MaxSize || cols < MinSize || cols > MaxSize {
		return fmt.Errorf("%w: %dx%d (each axis must be %d..%d)",
			ErrInvalidDimensions, rows, cols, MinSize, MaxSize)
	}
	return nil
}

// New validates spec and builds a World.
func New(spec Spec) (*World, error) {
	if err := checkSize(spec.Rows, spec.Cols); err != nil {
		return nil, err
	}
	if spec.Capacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, spec.Capacity)
	}
	capacity := spec.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	orientation := spec.Orientation
	if orientation == "" {
		orientation = East
	}
	if !orientation.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, orientation)
	}

	w := &World{
		rows:      spec.Rows,
		cols:      spec.Cols,
		flowers:   make(map[Position]struct{}, len(spec.Flowers)),
		obstacles: make(map[Position]struct{}, len(spec.Obstacles)),
	}

	taken := map[Position]string{}
	claim := func(p Position, what string) error {
		if !w.InBounds(p) {
			return fmt.Errorf("%w: %s at %s", ErrOutOfBounds, what, p)
		}
		if prev, ok := taken[p]; ok {
			return fmt.Errorf("%w: %s and %s at %s", ErrOverlap, prev, what, p)
		}
		taken[p] = what
		return nil
	}

	if err := claim(spec.Robot, "robot"); err != nil {
		return nil, err
	}
	if err := claim(spec.Goal, "princess"); err != nil {
		return nil, err
	}
	for _, f := range spec.Flowers {
		if err := claim(f, "flower"); err != nil {
			return nil, err
		}
		w.flowers[f] = struct{}{}
	}
	for _, o := range spec.Obstacles {
		if err := claim(o, "obstacle"); err != nil {
			return nil, err
		}
		w.obstacles[o] = struct{}{}
	}

	if len(spec.Held) > capacity {
		return nil, fmt.Errorf("%w: holding %d with capacity %d", ErrInvalidCapacity, len(spec.Held), capacity)
	}
	if spec.Delivered < 0 || spec.Delivered < len(spec.Received) {
		return nil, fmt.Errorf("%w: delivered=%d received=%d", ErrInvalidCounts, spec.Delivered, len(spec.Received))
	}

	initial := spec.InitialFlowers
	if initial == 0 {
		initial = len(spec.Flowers) + len(spec.Held) + spec.Delivered
	}
	if spec.Delivered > initial {
		return nil, fmt.Errorf("%w: delivered=%d initial=%d", ErrInvalidCounts, spec.Delivered, initial)
	}
	if held := len(spec.Flowers) + len(spec.Held) + spec.Delivered; initial < held {
		return nil, fmt.Errorf("%w: initial=%d but board accounts for %d", ErrInvalidCounts, initial, held)
	}

	w.robot = Robot{
		Position:    spec.Robot,
		Orientation: orientation,
		Held:        append([]Position(nil), spec.Held...),
		Capacity:    capacity,
	}
	w.princess = Princess{
		Position: spec.Goal,
		Received: append([]Position(nil), spec.Received...),
	}
	w.delivered = spec.Delivered
	w.initial = initial
	return w, nil
}

// Spec returns a Spec that rebuilds an equal World through New.
func (w *World) Spec() Spec {
	return Spec{
		Rows:           w.rows,
		Cols:           w.cols,
		Robot:          w.robot.Position,
		Orientation:    w.robot.Orientation,
		Goal:           w.princess.Position,
		Flowers:        w.Flowers(),
		Obstacles:      w.Obstacles(),
		Capacity:       w.robot.Capacity,
		Held:           append([]Position(nil), w.robot.Held...),
		Received:       append([]Position(nil), w.princess.Received...),
		Delivered:      w.delivered,
		InitialFlowers: w.initial,
	}
}

func (w *World) Rows() int { return w.rows }
func (w *World) Cols() int { return w.cols }

// Robot returns a copy of the robot; Held is not shared.
func (w *World) Robot() Robot {
	r := w.robot
	r.Held = append([]Position(nil), w.robot.Held...)
	return r
}

// Princess returns a copy of the goal state.
func (w *World) Princess() Princess {
	p := w.princess
	p.Received = append([]Position(nil), w.princess.Received...)
	return p
}

func (w *World) RobotPosition() Position { return w.robot.Position }
func (w *World) Orientation() Direction  { return w.robot.Orientation }
func (w *World) Goal() Position          { return w.princess.Position }
func (w *World) HeldCount() int          { return len(w.robot.Held) }
func (w *World) Capacity() int           { return w.robot.Capacity }
func (w *World) Delivered() int          { return w.delivered }
func (w *World) InitialFlowers() int     { return w.initial }
func (w *World) FlowerCount() int        { return len(w.flowers) }
func (w *World) ObstacleCount() int      { return len(w.obstacles) }

// Status is VICTORY once every initial flower has been delivered.
func (w *World) Status() Status {
	if w.initial > 0 && w.delivered == w.initial {
		return StatusVictory
	}
	return StatusInProgress
}

// InBounds reports whether p lies on the board.
func (w *World) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < w.rows && p.Col >= 0 && p.Col < w.cols
}

// CellAt derives the content of p.
func (w *World) CellAt(p Position) CellType {
	switch {
	case !w.InBounds(p):
		return CellOutOfBounds
	case p == w.robot.Position:
		return CellRobot
	case p == w.princess.Position:
		return CellPrincess
	}
	if _, ok := w.flowers[p]; ok {
		return CellFlower
	}
	if _, ok := w.obstacles[p]; ok {
		return CellObstacle
	}
	return CellEmpty
}

// IsEmpty reports whether p is on the board and holds nothing.
func (w *World) IsEmpty(p Position) bool {
	return w.CellAt(p) == CellEmpty
}

func (w *World) HasFlower(p Position) bool {
	_, ok := w.flowers[p]
	return ok
}

func (w *World) HasObstacle(p Position) bool {
	_, ok := w.obstacles[p]
	return ok
}

// Flowers returns the flower cells in row-major order.
func (w *World) Flowers() []Position {
	return sortedKeys(w.flowers)
}

// Obstacles returns the obstacle cells in row-major order.
func (w *World) Obstacles() []Position {
	return sortedKeys(w.obstacles)
}

// Clone returns a deep copy.
func (w *World) Clone() *World {
	c := &World{
		rows:      w.rows,
		cols:      w.cols,
		robot:     w.Robot(),
		princess:  w.Princess(),
		flowers:   make(map[Position]struct{}, len(w.flowers)),
		obstacles: make(map[Position]struct{}, len(w.obstacles)),
		delivered: w.delivered,
		initial:   w.initial,
	}
	for p := range w.flowers {
		c.flowers[p] = struct{}{}
	}
	for p := range w.obstacles {
		c.obstacles[p] = struct{}{}
	}
	return c
}

// Equal reports whether two worlds hold the same state.
func (w *World) Equal(o *World) bool {
	if w == nil || o == nil {
		return w == o
	}
	if w.rows != o.rows || w.cols != o.cols || w.delivered != o.delivered || w.initial != o.initial {
		return false
	}
	if w.robot.Position != o.robot.Position || w.robot.Orientation != o.robot.Orientation ||
		w.robot.Capacity != o.robot.Capacity || !equalPositions(w.robot.Held, o.robot.Held) {
		return false
	}
	if w.princess.Position != o.princess.Position || !equalPositions(w.princess.Received, o.princess.Received) {
		return false
	}
	return equalSets(w.flowers, o.flowers) && equalSets(w.obstacles, o.obstacles)
}

// --- Low-level mutators ---
//
// These keep the board's structural invariants but do not check game rules.
// Game actions go through package rules.

// SetOrientation turns the robot.
func (w *World) SetOrientation(d Direction) {
	w.robot.Orientation = d
}

// MoveRobot relocates the robot onto an empty cell.
func (w *World) MoveRobot(to Position) error {
	if !w.IsEmpty(to) {
		return fmt.Errorf("%w: %s is %s", ErrOverlap, to, w.CellAt(to))
	}
	w.robot.Position = to
	return nil
}

// TakeFlower removes the flower at p and appends p to the robot's load.
func (w *World) TakeFlower(p Position) error {
	if !w.HasFlower(p) {
		return fmt.Errorf("no flower at %s", p)
	}
	if len(w.robot.Held) >= w.robot.Capacity {
		return fmt.Errorf("%w: robot full", ErrInvalidCapacity)
	}
	delete(w.flowers, p)
	w.robot.Held = append(w.robot.Held, p)
	return nil
}

// PutFlower moves the most recently picked flower onto the empty cell p.
func (w *World) PutFlower(p Position) error {
	if len(w.robot.Held) == 0 {
		return errors.New("robot holds nothing")
	}
	if !w.IsEmpty(p) {
		return fmt.Errorf("%w: %s is %s", ErrOverlap, p, w.CellAt(p))
	}
	w.robot.Held = w.robot.Held[:len(w.robot.Held)-1]
	w.flowers[p] = struct{}{}
	return nil
}

// HandOver transfers every held flower to the princess and returns the count.
func (w *World) HandOver() int {
	n := len(w.robot.Held)
	w.princess.Received = append(w.princess.Received, w.robot.Held...)
	w.robot.Held = nil
	w.delivered += n
	return n
}

// RemoveObstacle clears the obstacle at p.
func (w *World) RemoveObstacle(p Position) error {
	if !w.HasObstacle(p) {
		return fmt.Errorf("no obstacle at %s", p)
	}
	delete(w.obstacles, p)
	return nil
}

// SuspendObstacle lifts the obstacle at p for a speculative evaluation and
// returns the function that puts it back. Restore is idempotent; defer it
// so the obstacle comes back on every exit path. Suspending a cell with no
// obstacle is a no-op.
func (w *World) SuspendObstacle(p Position) (restore func()) {
	if !w.HasObstacle(p) {
		return func() {}
	}
	delete(w.obstacles, p)
	restored := false
	return func() {
		if restored {
			return
		}
		restored = true
		w.obstacles[p] = struct{}{}
	}
}

func sortedKeys(m map[Position]struct{}) []Position {
	out := make([]Position, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func equalPositions(a, b []Position) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalSets(a, b map[Position]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for p := range a {
		if _, ok := b[p]; !ok {
			return false
		}
	}
	return true
}
