package solver

import (
	"github.com/fentz26/petalpath/internal/grid"
	"github.com/fentz26/petalpath/internal/pathfind"
	"github.com/fentz26/petalpath/internal/rules"
)

// Obstacle scoring weights.
const (
	flowerGain = 100
	goalGain   = 50
)

// optimalPolicy orders flowers by total travel cost and chooses which
// obstacle to clean by simulating its removal. It falls back to the safe
// policy whenever it finds nothing better.
type optimalPolicy struct {
	safe safePolicy
}

func (optimalPolicy) shouldDeliver(p *planner) bool {
	held := p.w.HeldCount()
	if held == 0 {
		return false
	}
	if held == p.w.Capacity() || p.w.FlowerCount() == 0 {
		return true
	}
	// Small sets are ordered as a whole, goal leg included.
	if p.w.FlowerCount() <= p.opts.ExactLimit {
		return false
	}
	return held >= min(p.opts.BatchSize, p.w.Capacity())
}

func (o optimalPolicy) nextFlower(p *planner) (grid.Position, bool) {
	if p.w.FlowerCount() <= p.opts.ExactLimit {
		if seq, _, ok := bestSequence(p.w, &p.stats); ok && len(seq) > 0 {
			return seq[0], true
		}
		return o.safe.nextFlower(p)
	}
	if f, ok := o.lookahead(p); ok {
		return f, true
	}
	return o.safe.nextFlower(p)
}

// --- Exact ordering ---

// ScoreSequence estimates the steps needed to pick seq in order and then
// reach the princess: walking distance plus one action per pick and one for
// the hand-over. Rotations are not counted. It reports false when any leg
// is unreachable or the robot would overflow.
func ScoreSequence(w *grid.World, seq []grid.Position) (int, bool) {
	sim := w.Clone()
	cost := 0
	for _, f := range seq {
		field := pathfind.Distances(sim, sim.RobotPosition())
		stand, d, ok := field.Adjacent(f)
		if !ok {
			return 0, false
		}
		if stand != sim.RobotPosition() {
			if err := sim.MoveRobot(stand); err != nil {
				return 0, false
			}
		}
		if err := sim.TakeFlower(f); err != nil {
			return 0, false
		}
		cost += d + 1
	}
	field := pathfind.Distances(sim, sim.RobotPosition())
	_, d, ok := field.Adjacent(sim.Goal())
	if !ok {
		return 0, false
	}
	return cost + d + 1, true
}

// bestSequence scores every ordering of the remaining flowers that fits in
// the robot's free capacity and returns the cheapest. Ties keep the ordering
// that comes first lexicographically over row-major flower order.
func bestSequence(w *grid.World, stats *Stats) ([]grid.Position, int, bool) {
	flowers := w.Flowers()
	room := w.Capacity() - w.HeldCount()
	k := min(room, len(flowers))
	if k <= 0 {
		return nil, 0, false
	}

	var (
		best     []grid.Position
		bestCost int
		found    bool
		seq      = make([]grid.Position, 0, k)
		used     = make([]bool, len(flowers))
	)
	var permute func()
	permute = func() {
		if len(seq) == k {
			if stats != nil {
				stats.SequencesScored++
			}
			cost, ok := ScoreSequence(w, seq)
			if ok && (!found || cost < bestCost) {
				best = append(best[:0], seq...)
				bestCost, found = cost, true
			}
			return
		}
		for i, f := range flowers {
			if used[i] {
				continue
			}
			used[i] = true
			seq = append(seq, f)
			permute()
			seq = seq[:len(seq)-1]
			used[i] = false
		}
	}
	permute()
	return best, bestCost, found
}

// --- One-step lookahead ---

// lookahead scores every reachable flower, or the nearest LookaheadWidth of
// them when a width is set, by the cost to pick each plus the cheapest
// follow-up leg: the next flower, or the princess when a delivery
// would follow.
func (optimalPolicy) lookahead(p *planner) (grid.Position, bool) {
	field := pathfind.Distances(p.w, p.w.RobotPosition())
	cands := p.reachableFlowers(field)
	if p.opts.LookaheadWidth > 0 && len(cands) > p.opts.LookaheadWidth {
		cands = cands[:p.opts.LookaheadWidth]
	}
	batch := min(p.opts.BatchSize, p.w.Capacity())

	var (
		best     grid.Position
		bestCost int
		found    bool
	)
	for _, c := range cands {
		sim := p.w.Clone()
		if c.stand != sim.RobotPosition() {
			if err := sim.MoveRobot(c.stand); err != nil {
				continue
			}
		}
		if err := sim.TakeFlower(c.target); err != nil {
			continue
		}
		next := pathfind.Distances(sim, sim.RobotPosition())
		_, goalDist, goalOK := next.Adjacent(sim.Goal())
		if !goalOK && p.w.HeldCount() == 0 && p.w.FlowerCount() > fewFlowers {
			continue
		}

		follow := -1
		if sim.FlowerCount() > 0 && sim.HeldCount() < batch {
			for _, f := range sim.Flowers() {
				if _, d, ok := next.Adjacent(f); ok && (follow < 0 || d+1 < follow) {
					follow = d + 1
				}
			}
		}
		if follow < 0 && goalOK {
			follow = goalDist + 1
		}
		if follow < 0 {
			continue
		}

		total := c.cost + follow
		if !found || total < bestCost {
			best, bestCost, found = c.target, total, true
		}
	}
	return best, found
}

// --- Obstacle evaluation ---

// clearObstacle looks along the four rays from the robot and cleans the
// obstacle whose removal opens the most. Each candidate is scored by lifting
// it from the live world for the duration of the check.
func (o optimalPolicy) clearObstacle(p *planner) bool {
	base := pathfind.Reach(p.w)
	robot := p.w.RobotPosition()

	var (
		best      grid.Position
		bestScore int
		found     bool
	)
	for _, c := range o.rayObstacles(p, base.Field) {
		score := func() int {
			restore := p.w.SuspendObstacle(c)
			defer restore()
			after := pathfind.Reach(p.w)
			s := (after.Flowers - base.Flowers) * flowerGain
			if after.Goal && !base.Goal {
				s += goalGain
			}
			return s - robot.Distance(c)
		}()
		p.stats.ObstaclesEvaluated++
		if !found || score > bestScore {
			best, bestScore, found = c, score, true
		}
	}
	// A best score of zero or less opens nothing worth the walk, so the
	// evaluated candidate is not cleaned and the safe choice runs instead.
	if !found || bestScore <= 0 {
		return o.safe.clearObstacle(p)
	}
	p.opts.Logger.Debug("cleaning evaluated obstacle",
		"obstacle", best.String(),
		"score", bestScore,
	)
	return p.fetch(best, rules.ActionClean)
}

// rayObstacles lists obstacles within ClearRadius along each direction that
// the robot can stand next to.
func (optimalPolicy) rayObstacles(p *planner, field *pathfind.Field) []grid.Position {
	var out []grid.Position
	robot := p.w.RobotPosition()
	for _, d := range grid.Directions() {
		cur := robot
		for i := 0; i < p.opts.ClearRadius; i++ {
			cur = cur.Step(d)
			if !p.w.InBounds(cur) {
				break
			}
			if !p.w.HasObstacle(cur) {
				continue
			}
			if _, _, ok := field.Adjacent(cur); ok {
				out = append(out, cur)
			}
		}
	}
	return out
}
