package pathfind

import "github.com/fentz26/petalpath/internal/grid"

// Field holds breadth-first step counts from one origin to every cell the
// robot could walk to. On the uniform grid these equal Find path lengths.
type Field struct {
	origin grid.Position
	rows   int
	cols   int
	dist   []int
}

// Distances floods the board from origin through empty cells.
func Distances(w *grid.World, origin grid.Position) *Field {
	f := &Field{origin: origin, rows: w.Rows(), cols: w.Cols(), dist: make([]int, w.Rows()*w.Cols())}
	for i := range f.dist {
		f.dist[i] = -1
	}
	if !w.InBounds(origin) {
		return f
	}
	f.dist[f.index(origin)] = 0
	queue := []grid.Position{origin}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := f.dist[f.index(cur)]
		for _, next := range cur.Neighbors() {
			if !w.IsEmpty(next) || f.dist[f.index(next)] >= 0 {
				continue
			}
			f.dist[f.index(next)] = d + 1
			queue = append(queue, next)
		}
	}
	return f
}

// Origin is the cell the field was flooded from.
func (f *Field) Origin() grid.Position { return f.origin }

// Dist returns the step count to p, or false when p is unreachable.
func (f *Field) Dist(p grid.Position) (int, bool) {
	if p.Row < 0 || p.Row >= f.rows || p.Col < 0 || p.Col >= f.cols {
		return 0, false
	}
	d := f.dist[f.index(p)]
	return d, d >= 0
}

// Reached reports whether p can be stood on.
func (f *Field) Reached(p grid.Position) bool {
	_, ok := f.Dist(p)
	return ok
}

// Adjacent returns the cheapest reachable cell next to target and its step
// count. Ties go to the first cell in direction scan order.
func (f *Field) Adjacent(target grid.Position) (grid.Position, int, bool) {
	var (
		best     grid.Position
		bestDist = -1
	)
	for _, n := range target.Neighbors() {
		d, ok := f.Dist(n)
		if !ok {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = n, d
		}
	}
	return best, bestDist, bestDist >= 0
}

func (f *Field) index(p grid.Position) int {
	return p.Row*f.cols + p.Col
}

// Approach finds the best cell next to target that the robot at from can
// stand on, along with the path to it. The robot's own cell counts when it
// already borders target.
func Approach(w *grid.World, from, target grid.Position) (grid.Position, Path, bool) {
	var (
		bestCell grid.Position
		bestPath Path
		found    bool
	)
	for _, n := range target.Neighbors() {
		if n != from && !w.IsEmpty(n) {
			continue
		}
		path, ok := Find(w, from, n)
		if !ok {
			continue
		}
		if !found || len(path) < len(bestPath) {
			bestCell, bestPath, found = n, path, true
		}
	}
	return bestCell, bestPath, found
}

// HasStandingRoom reports whether any cell next to target could ever be
// stood on: empty or the robot itself.
func HasStandingRoom(w *grid.World, target grid.Position) bool {
	for _, n := range target.Neighbors() {
		if w.IsEmpty(n) || n == w.RobotPosition() {
			return true
		}
	}
	return false
}

// Reachability summarises what the robot can currently get to.
type Reachability struct {
	Field   *Field
	Goal    bool
	Flowers int
}

// Reach floods from the robot and counts the targets it can stand next to.
func Reach(w *grid.World) Reachability {
	f := Distances(w, w.RobotPosition())
	r := Reachability{Field: f}
	_, _, r.Goal = f.Adjacent(w.Goal())
	for _, p := range w.Flowers() {
		if _, _, ok := f.Adjacent(p); ok {
			r.Flowers++
		}
	}
	return r
}
