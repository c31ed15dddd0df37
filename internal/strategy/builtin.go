package strategy

import (
	"context"

	"github.com/fentz26/petalpath/internal/grid"
	"github.com/fentz26/petalpath/internal/predictor"
	"github.com/fentz26/petalpath/internal/rules"
	"github.com/fentz26/petalpath/internal/solver"
)

// planner adapts one of the solver entry points.
type planner struct {
	name  string
	solve func(*grid.World, ...solver.Option) solver.Result
	opts  []solver.Option
}

func (p *planner) Name() string { return p.name }

func (p *planner) Plan(ctx context.Context, w *grid.World) (solver.Result, error) {
	if err := ctx.Err(); err != nil {
		return solver.Result{}, err
	}
	return p.solve(w, p.opts...), nil
}

// stepper applies a single predicted action.
type stepper struct {
	predictor predictor.Predictor
}

func (s *stepper) Name() string { return Step }

func (s *stepper) Plan(ctx context.Context, w *grid.World) (solver.Result, error) {
	if err := ctx.Err(); err != nil {
		return solver.Result{}, err
	}
	p := s.predictor
	if p == nil {
		p = predictor.Local{}
	}
	out := w.Clone()
	res := solver.Result{Strategy: Step, World: out, Iterations: 1}

	a, ok := p.Predict(out)
	if !ok {
		res.Reason = solver.ReasonStuck
		if out.Status() == grid.StatusVictory {
			res.Reason = solver.ReasonVictory
		}
		return res, nil
	}
	res.Actions = []rules.Record{rules.Apply(out, a)}
	res.Reason = "single step"
	if out.Status() == grid.StatusVictory {
		res.Reason = solver.ReasonVictory
	}
	return res, nil
}
