package solver

import (
	"sort"

	"github.com/fentz26/petalpath/internal/grid"
	"github.com/fentz26/petalpath/internal/pathfind"
	"github.com/fentz26/petalpath/internal/rules"
)

// policy holds the decisions that differ between strategies.
type policy interface {
	// shouldDeliver reports whether the robot should head to the princess now.
	shouldDeliver(p *planner) bool
	// nextFlower chooses the flower to fetch next.
	nextFlower(p *planner) (grid.Position, bool)
	// clearObstacle cleans one obstacle that should open the way. The robot's
	// hands are already empty when it is called.
	clearObstacle(p *planner) bool
}

// planner owns a private world copy and the log of what it did to it.
type planner struct {
	w          *grid.World
	strategy   string
	opts       Options
	policy     policy
	log        []rules.Record
	iterations int
	stats      Stats
}

func newPlanner(w *grid.World, strategy string, opts Options) *planner {
	return &planner{
		w:        w.Clone(),
		strategy: strategy,
		opts:     opts,
	}
}

func (p *planner) run() Result {
	reason := ReasonIterationCap
	for p.iterations < p.opts.MaxIterations {
		if p.w.Status() == grid.StatusVictory {
			reason = ReasonVictory
			break
		}
		if p.w.FlowerCount() == 0 && p.w.HeldCount() == 0 {
			reason = ReasonNothingLeft
			break
		}
		p.iterations++

		var (
			phase    string
			progress bool
		)
		switch {
		case p.trapped():
			phase, progress = "escape", p.escape()
		case p.policy.shouldDeliver(p):
			phase, progress = "deliver", p.deliver()
		default:
			phase, progress = "collect", p.collect()
		}
		p.opts.Logger.Debug("planner iteration",
			"strategy", p.strategy,
			"iteration", p.iterations,
			"phase", phase,
			"progress", progress,
			"robot", p.w.RobotPosition().String(),
			"held", p.w.HeldCount(),
			"flowers", p.w.FlowerCount(),
			"delivered", p.w.Delivered(),
		)
		if !progress {
			reason = ReasonStuck
			break
		}
	}
	if p.w.Status() == grid.StatusVictory {
		reason = ReasonVictory
	}

	p.opts.Logger.Debug("planner finished",
		"strategy", p.strategy,
		"reason", reason,
		"iterations", p.iterations,
		"actions", len(p.log),
		"status", string(p.w.Status()),
	)
	return Result{
		Strategy:   p.strategy,
		Actions:    p.log,
		World:      p.w,
		Iterations: p.iterations,
		Reason:     reason,
		Stats:      p.stats,
	}
}

// --- Phases ---

// trapped reports whether every neighbouring cell is blocked.
func (p *planner) trapped() bool {
	return len(p.freeNeighbors()) == 0
}

// escape frees a boxed-in robot: hand over to an adjacent princess, clean
// an adjacent obstacle, or pick an adjacent flower to open a cell.
func (p *planner) escape() bool {
	robot := p.w.RobotPosition()
	goal := p.w.Goal()
	if p.w.HeldCount() > 0 && robot.Distance(goal) == 1 {
		return p.faceAndDo(goal, rules.ActionGive)
	}
	if p.w.HeldCount() == 0 {
		for _, n := range robot.Neighbors() {
			if p.w.HasObstacle(n) {
				return p.faceAndDo(n, rules.ActionClean)
			}
		}
	}
	if p.w.HeldCount() < p.w.Capacity() {
		for _, n := range robot.Neighbors() {
			if p.w.HasFlower(n) {
				return p.faceAndDo(n, rules.ActionPick)
			}
		}
	}
	return false
}

// deliver walks to the princess and hands everything over, opening a way
// first when she cannot be reached.
func (p *planner) deliver() bool {
	goal := p.w.Goal()
	if !pathfind.HasStandingRoom(p.w, goal) {
		if !p.dropAll() {
			return false
		}
		return p.clearAroundGoal()
	}
	if _, path, ok := pathfind.Approach(p.w, p.w.RobotPosition(), goal); ok {
		return p.walk(path) && p.faceAndDo(goal, rules.ActionGive)
	}
	return p.dropAndClear()
}

// collect fetches the next flower, or clears the way when none is safe.
func (p *planner) collect() bool {
	if p.w.HeldCount() == 0 && !pathfind.Reach(p.w).Goal {
		if f, ok := p.unblockingFlower(); ok {
			return p.fetch(f, rules.ActionPick)
		}
		if p.policy.clearObstacle(p) {
			return true
		}
		// Nothing to clean: a pick still frees a cell to move through.
		field := pathfind.Distances(p.w, p.w.RobotPosition())
		if cands := p.reachableFlowers(field); len(cands) > 0 {
			return p.fetch(cands[0].target, rules.ActionPick)
		}
		return false
	}

	if f, ok := p.policy.nextFlower(p); ok {
		return p.fetch(f, rules.ActionPick)
	}

	if p.w.HeldCount() > 0 {
		if _, path, ok := pathfind.Approach(p.w, p.w.RobotPosition(), p.w.Goal()); ok {
			return p.walk(path) && p.faceAndDo(p.w.Goal(), rules.ActionGive)
		}
		return p.dropAndClear()
	}
	return p.policy.clearObstacle(p)
}

func (p *planner) dropAndClear() bool {
	if !p.dropAll() {
		return false
	}
	return p.policy.clearObstacle(p)
}

// unblockingFlower finds the nearest reachable flower whose pick opens a
// way to the princess.
func (p *planner) unblockingFlower() (grid.Position, bool) {
	field := pathfind.Distances(p.w, p.w.RobotPosition())
	for _, c := range p.reachableFlowers(field) {
		if p.keepsGoalReachable(c) {
			return c.target, true
		}
	}
	return grid.Position{}, false
}

// openBoxedFlower cleans toward a flower the robot cannot stand next to.
// The target is the boxed flower nearest the robot; the obstacle cleaned is
// the reachable one closest to it, so layered boxes open one cell per call.
func (p *planner) openBoxedFlower() bool {
	if p.w.HeldCount() > 0 {
		return false
	}
	field := pathfind.Distances(p.w, p.w.RobotPosition())
	if len(p.reachableFlowers(field)) > 0 {
		return false
	}
	robot := p.w.RobotPosition()
	var (
		boxed    grid.Position
		hasBoxed bool
	)
	for _, f := range p.w.Flowers() {
		if !hasBoxed || f.Distance(robot) < boxed.Distance(robot) {
			boxed, hasBoxed = f, true
		}
	}
	if !hasBoxed {
		return false
	}

	var (
		best  candidate
		found bool
	)
	for _, o := range p.w.Obstacles() {
		stand, d, ok := field.Adjacent(o)
		if !ok {
			continue
		}
		c := candidate{target: o, stand: stand, cost: d}
		if !found || closerTo(c, best, boxed) {
			best, found = c, true
		}
	}
	if !found {
		return false
	}
	p.opts.Logger.Debug("clearing obstacle toward boxed flower",
		"flower", boxed.String(),
		"obstacle", best.target.String(),
	)
	return p.fetch(best.target, rules.ActionClean)
}

// clearAroundGoal cleans the most accessible obstacle next to the princess.
func (p *planner) clearAroundGoal() bool {
	field := pathfind.Distances(p.w, p.w.RobotPosition())
	var (
		best     grid.Position
		bestDist = -1
	)
	for _, n := range p.w.Goal().Neighbors() {
		if !p.w.HasObstacle(n) {
			continue
		}
		if _, d, ok := field.Adjacent(n); ok && (bestDist < 0 || d < bestDist) {
			best, bestDist = n, d
		}
	}
	if bestDist < 0 {
		return p.policy.clearObstacle(p)
	}
	return p.fetch(best, rules.ActionClean)
}

// dropAll puts every carried flower down on neighbouring cells, always
// keeping one free cell to move through.
func (p *planner) dropAll() bool {
	limit := 4*p.w.HeldCount() + 4
	for i := 0; p.w.HeldCount() > 0 && i < limit; i++ {
		free := p.freeNeighbors()
		switch len(free) {
		case 0:
			return false
		case 1:
			if !p.step(free[0]) {
				return false
			}
		default:
			if !p.faceAndDo(free[0], rules.ActionDrop) {
				return false
			}
		}
	}
	return p.w.HeldCount() == 0
}

// --- Candidate helpers shared by the policies ---

type candidate struct {
	target grid.Position
	stand  grid.Position
	cost   int
}

// reachableFlowers lists flowers the robot can stand next to, nearest first,
// ties broken row-major.
func (p *planner) reachableFlowers(field *pathfind.Field) []candidate {
	var out []candidate
	for _, f := range p.w.Flowers() {
		stand, d, ok := field.Adjacent(f)
		if !ok {
			continue
		}
		out = append(out, candidate{target: f, stand: stand, cost: d + 1})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].cost < out[j].cost
	})
	return out
}

// keepsGoalReachable simulates standing at c.stand after picking c.target
// and reports whether the princess can still be reached.
func (p *planner) keepsGoalReachable(c candidate) bool {
	sim := p.w.Clone()
	if c.stand != sim.RobotPosition() {
		if err := sim.MoveRobot(c.stand); err != nil {
			return false
		}
	}
	if err := sim.TakeFlower(c.target); err != nil {
		return false
	}
	return pathfind.Reach(sim).Goal
}

// --- Motion primitives ---

func (p *planner) act(a rules.Action) bool {
	rec := rules.Apply(p.w, a)
	p.log = append(p.log, rec)
	if !rec.OK {
		p.opts.Logger.Debug("planner action rejected", "action", a.String(), "reason", rec.Message)
	}
	return rec.OK
}

func (p *planner) face(d grid.Direction) bool {
	if p.w.Orientation() == d {
		return true
	}
	return p.act(rules.RotateTo(d))
}

// step moves onto an adjacent cell.
func (p *planner) step(to grid.Position) bool {
	d, ok := grid.DirectionBetween(p.w.RobotPosition(), to)
	if !ok {
		return false
	}
	return p.face(d) && p.act(rules.Action{Type: rules.ActionMove})
}

func (p *planner) walk(path pathfind.Path) bool {
	for _, next := range path {
		if !p.step(next) {
			return false
		}
	}
	return true
}

// faceAndDo turns toward an adjacent target and performs t on it.
func (p *planner) faceAndDo(target grid.Position, t rules.ActionType) bool {
	d, ok := grid.DirectionBetween(p.w.RobotPosition(), target)
	if !ok {
		return false
	}
	return p.face(d) && p.act(rules.Action{Type: t})
}

// fetch walks next to target and performs t on it.
func (p *planner) fetch(target grid.Position, t rules.ActionType) bool {
	_, path, ok := pathfind.Approach(p.w, p.w.RobotPosition(), target)
	if !ok {
		return false
	}
	return p.walk(path) && p.faceAndDo(target, t)
}

func (p *planner) freeNeighbors() []grid.Position {
	var out []grid.Position
	for _, n := range p.w.RobotPosition().Neighbors() {
		if p.w.IsEmpty(n) {
			out = append(out, n)
		}
	}
	return out
}
