// Package solver plans complete action sequences that collect every flower
// and deliver it to the princess.
//
// Two strategies are provided. SolveSafe walks to the nearest flower that
// cannot strand the robot and delivers in small batches. SolveOptimal orders
// small flower sets by exhaustive permutation, uses a one-flower lookahead on
// larger sets and picks obstacles to clean by simulating their removal.
//
// Both run on a private copy of the caller's world and never return an
// error: a run that cannot finish stops early and returns what it did.
package solver

import (
	"github.com/fentz26/petalpath/internal/grid"
	"github.com/fentz26/petalpath/internal/rules"
)

// Strategy names.
const (
	StrategySafe    = "safe"
	StrategyOptimal = "optimal"
)

// Why a run stopped.
const (
	ReasonVictory      = "victory"
	ReasonNothingLeft  = "no flowers left"
	ReasonIterationCap = "iteration cap reached"
	ReasonStuck        = "no safe action available"
)

// Stats counts the planner's internal work.
type Stats struct {
	SequencesScored    int `json:"sequences_scored"`
	ObstaclesEvaluated int `json:"obstacles_evaluated"`
}

// Result is a finished plan: the action log and the world it leads to.
type Result struct {
	Strategy   string         `json:"strategy"`
	Actions    []rules.Record `json:"actions"`
	World      *grid.World    `json:"-"`
	Iterations int            `json:"iterations"`
	Reason     string         `json:"reason"`
	Stats      Stats          `json:"stats"`
}

// Status is the derived status of the resulting world.
func (r Result) Status() grid.Status {
	return r.World.Status()
}

// SolveSafe plans with the safety-first strategy.
func SolveSafe(w *grid.World, opts ...Option) Result {
	o := buildOptions(opts)
	p := newPlanner(w, StrategySafe, o)
	p.policy = safePolicy{}
	return p.run()
}

// SolveOptimal plans with the optimizing strategy.
func SolveOptimal(w *grid.World, opts ...Option) Result {
	o := buildOptions(opts)
	p := newPlanner(w, StrategyOptimal, o)
	p.policy = optimalPolicy{}
	return p.run()
}
