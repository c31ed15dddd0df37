// Package strategy names the planners a game can be solved with.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fentz26/petalpath/internal/grid"
	"github.com/fentz26/petalpath/internal/solver"
)

// Built-in strategy names.
const (
	Safe    = solver.StrategySafe
	Optimal = solver.StrategyOptimal
	Step    = "step"
)

var (
	// ErrUnknownStrategy is returned for names that are not registered.
	ErrUnknownStrategy = errors.New("unknown strategy")
	// ErrNotAllowed is returned for registered strategies outside the allowlist.
	ErrNotAllowed = errors.New("strategy not allowed")
)

// Strategy produces a plan for a world.
type Strategy interface {
	// Name returns the strategy identifier.
	Name() string

	// Plan runs on a private copy of w; w itself is never changed.
	Plan(ctx context.Context, w *grid.World) (solver.Result, error)
}

// Registry holds the available strategies and the subset callers may use.
type Registry struct {
	strategies map[string]Strategy
	allowed    map[string]bool
}

// NewRegistry registers the built-in strategies. An empty allowlist allows
// every registered strategy.
func NewRegistry(allowed []string, opts ...solver.Option) *Registry {
	r := &Registry{
		strategies: make(map[string]Strategy),
		allowed:    make(map[string]bool),
	}
	r.Register(&planner{name: Safe, solve: solver.SolveSafe, opts: opts})
	r.Register(&planner{name: Optimal, solve: solver.SolveOptimal, opts: opts})
	r.Register(&stepper{})
	for _, name := range allowed {
		r.allowed[strings.TrimSpace(name)] = true
	}
	return r
}

// Register adds or replaces a strategy.
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// IsAllowed reports whether name is registered and permitted.
func (r *Registry) IsAllowed(name string) bool {
	if _, ok := r.strategies[name]; !ok {
		return false
	}
	return len(r.allowed) == 0 || r.allowed[name]
}

// Lookup returns the named strategy if it may be used.
func (r *Registry) Lookup(name string) (Strategy, error) {
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	if !r.IsAllowed(name) {
		return nil, fmt.Errorf("%w: %q", ErrNotAllowed, name)
	}
	return s, nil
}

// Names lists the permitted strategies in sorted order.
func (r *Registry) Names() []string {
	var out []string
	for name := range r.strategies {
		if r.IsAllowed(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
