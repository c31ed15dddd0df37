package solver

import (
	"github.com/fentz26/petalpath/internal/grid"
	"github.com/fentz26/petalpath/internal/pathfind"
	"github.com/fentz26/petalpath/internal/rules"
)

// safePolicy never picks a flower that would strand the robot and delivers
// in small batches.
type safePolicy struct{}

func (safePolicy) shouldDeliver(p *planner) bool {
	held := p.w.HeldCount()
	if held == 0 {
		return false
	}
	return held >= min(p.opts.BatchSize, p.w.Capacity()) ||
		held == p.w.Capacity() ||
		p.w.FlowerCount() == 0
}

// nextFlower returns the nearest reachable flower that still leaves the
// princess reachable. The check is relaxed once the robot carries something
// or only a few flowers remain.
func (safePolicy) nextFlower(p *planner) (grid.Position, bool) {
	field := pathfind.Distances(p.w, p.w.RobotPosition())
	tolerant := p.w.HeldCount() > 0 || p.w.FlowerCount() <= fewFlowers
	for _, c := range p.reachableFlowers(field) {
		if tolerant || p.keepsGoalReachable(c) {
			return c.target, true
		}
	}
	return grid.Position{}, false
}

// clearObstacle cleans the reachable obstacle closest to the princess. Once
// she is reachable it works toward a boxed flower instead.
func (safePolicy) clearObstacle(p *planner) bool {
	reach := pathfind.Reach(p.w)
	if reach.Goal {
		return p.openBoxedFlower()
	}
	goal := p.w.Goal()
	var (
		best  candidate
		found bool
	)
	for _, o := range p.w.Obstacles() {
		stand, d, ok := reach.Field.Adjacent(o)
		if !ok {
			continue
		}
		c := candidate{target: o, stand: stand, cost: d}
		if !found || closerTo(c, best, goal) {
			best, found = c, true
		}
	}
	if !found {
		return false
	}
	p.opts.Logger.Debug("clearing obstacle toward goal", "obstacle", best.target.String())
	return p.fetch(best.target, rules.ActionClean)
}

// closerTo orders obstacle candidates by distance to target, then by walk.
func closerTo(a, b candidate, target grid.Position) bool {
	da, db := a.target.Distance(target), b.target.Distance(target)
	if da != db {
		return da < db
	}
	return a.cost < b.cost
}
