// Package api provides the HTTP API and service layer for petalpath.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fentz26/petalpath/internal/audit"
	"github.com/fentz26/petalpath/internal/grid"
	"github.com/fentz26/petalpath/internal/models"
	"github.com/fentz26/petalpath/internal/predictor"
	"github.com/fentz26/petalpath/internal/rules"
	"github.com/fentz26/petalpath/internal/solver"
	"github.com/fentz26/petalpath/internal/store"
	"github.com/fentz26/petalpath/internal/strategy"
)

var validate = validator.New()

// CreateGameRequest creates a game from an explicit board, or generates one
// of the given size when Board is nil.
type CreateGameRequest struct {
	Board *models.Board `json:"board,omitempty"`
	Rows  int           `json:"rows,omitempty" validate:"omitempty,min=3,max=50"`
	Cols  int           `json:"cols,omitempty" validate:"omitempty,min=3,max=50"`
	Seed  *int64        `json:"seed,omitempty"`
}

// ActRequest is one human action.
type ActRequest struct {
	Type      string `json:"type" validate:"required"`
	Direction string `json:"direction,omitempty"`
}

// ActResponse is the game after the action and the action's outcome.
type ActResponse struct {
	Game   *models.Game `json:"game"`
	Record rules.Record `json:"record"`
}

// SolveRequest selects a strategy. Async enqueues a job instead of solving
// inline.
type SolveRequest struct {
	Strategy string `json:"strategy,omitempty"`
	Async    bool   `json:"async,omitempty"`
}

// SolveResponse is a committed plan.
type SolveResponse struct {
	Game       *models.Game   `json:"game"`
	Strategy   string         `json:"strategy"`
	Actions    []rules.Record `json:"actions"`
	Reason     string         `json:"reason"`
	Iterations int            `json:"iterations"`
	Stats      solver.Stats   `json:"stats"`
}

// PredictResponse is a suggested action. It is not applied.
type PredictResponse struct {
	Action   rules.Action       `json:"action"`
	Features predictor.Features `json:"features"`
}

// Service provides the petalpath business logic.
type Service struct {
	store     *store.Store
	decisions *audit.DecisionWriter
	registry  *strategy.Registry
	predictor predictor.Predictor
	metrics   *Metrics
	logger    *slog.Logger

	defaultStrategy string
	lockTTL         time.Duration
	generate        grid.GenerateOptions
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the collectors the service reports to.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithPredictor replaces the single-step predictor.
func WithPredictor(p predictor.Predictor) ServiceOption {
	return func(s *Service) { s.predictor = p }
}

// WithDefaultStrategy sets the strategy used when a request names none.
func WithDefaultStrategy(name string) ServiceOption {
	return func(s *Service) {
		if name != "" {
			s.defaultStrategy = name
		}
	}
}

// WithLockTTL bounds how long one write may hold a game.
func WithLockTTL(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.lockTTL = d
		}
	}
}

// WithGenerateOptions sets the densities for generated boards. The seed is
// taken from each request.
func WithGenerateOptions(o grid.GenerateOptions) ServiceOption {
	return func(s *Service) { s.generate = o }
}

// NewService creates a new service.
func NewService(st *store.Store, decisions *audit.DecisionWriter, registry *strategy.Registry, opts ...ServiceOption) *Service {
	s := &Service{
		store:           st,
		decisions:       decisions,
		registry:        registry,
		predictor:       predictor.Local{},
		metrics:         NewMetrics(),
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		defaultStrategy: strategy.Optimal,
		lockTTL:         30 * time.Second,
		generate:        grid.DefaultGenerateOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Metrics returns the service's collectors.
func (s *Service) Metrics() *Metrics { return s.metrics }

// Ping checks the database.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Strategies lists the strategies callers may use.
func (s *Service) Strategies() []string {
	return s.registry.Names()
}

// --- Game Operations ---

// CreateGame stores a new game.
func (s *Service) CreateGame(ctx context.Context, req CreateGameRequest) (game *models.Game, err error) {
	_, span := tracer.Start(ctx, "Service.CreateGame")
	defer func() { endSpan(span, err) }()

	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.Board == nil && (req.Rows == 0 || req.Cols == 0) {
		return nil, fmt.Errorf("%w: board or rows and cols required", ErrInvalidRequest)
	}

	var world *grid.World
	if req.Board != nil {
		world, err = req.Board.World()
	} else {
		opts := s.generate
		opts.Seed = time.Now().UnixNano()
		if req.Seed != nil {
			opts.Seed = *req.Seed
		}
		world, err = grid.Generate(req.Rows, req.Cols, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}

	board := models.BoardFromWorld(world)
	game, err = s.store.CreateGame(board, world.Status())
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("game.id", game.ID))

	s.record(audit.ActionGameCreate, board, "success", game.ID, fmt.Sprintf("%dx%d", board.Rows, board.Cols))
	s.metrics.gamesCreated.Inc()
	s.logger.Info("game created", "game", game.ID, "rows", board.Rows, "cols", board.Cols, "flowers", len(board.Flowers))
	return game, nil
}

// GetGame retrieves a game by ID.
func (s *Service) GetGame(id string) (*models.Game, error) {
	game, err := s.store.GetGame(id)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// ListGames returns games, optionally filtered by status.
func (s *Service) ListGames(status string) ([]models.Game, error) {
	return s.store.ListGames(status)
}

// ListActions returns a game's action history in order.
func (s *Service) ListActions(id string) ([]models.ActionEntry, error) {
	if _, err := s.GetGame(id); err != nil {
		return nil, err
	}
	return s.store.ListActions(id)
}

// Act applies one human action. A rejected action is still recorded and
// leaves the board unchanged.
func (s *Service) Act(ctx context.Context, id string, req ActRequest) (resp *ActResponse, err error) {
	_, span := tracer.Start(ctx, "Service.Act", trace.WithAttributes(
		attribute.String("game.id", id),
		attribute.String("action.type", req.Type),
	))
	defer func() { endSpan(span, err) }()

	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	action, err := parseAction(req)
	if err != nil {
		return nil, err
	}

	err = s.withGameLock(id, func() error {
		game, world, err := s.loadPlayable(id)
		if err != nil {
			return err
		}

		rec := rules.Apply(world, action)
		entry := models.ActionEntry{
			Type:      rec.Type,
			Direction: rec.Direction,
			OK:        rec.OK,
			Message:   rec.Message,
			Source:    models.SourceHuman,
		}
		updated, err := s.store.CommitGame(id, game.Version, models.BoardFromWorld(world), world.Status(), []models.ActionEntry{entry})
		if err != nil {
			return err
		}

		outcome := "success"
		if !rec.OK {
			outcome = "rejected"
		}
		s.record(audit.ActionGameAct, map[string]interface{}{"game_id": id, "version": game.Version, "action": action}, outcome, id, rec.Message)
		s.metrics.observeAction(models.SourceHuman, rec.OK)
		s.logger.Debug("action applied", "game", id, "action", action.String(), "ok", rec.OK)

		resp = &ActResponse{Game: updated, Record: rec}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Solve runs a strategy on a game and commits its action log. The log is
// replayed onto the stored board and must reproduce the planner's final
// board before anything is written.
func (s *Service) Solve(ctx context.Context, id, name string) (resp *SolveResponse, err error) {
	ctx, span := tracer.Start(ctx, "Service.Solve", trace.WithAttributes(attribute.String("game.id", id)))
	defer func() { endSpan(span, err) }()

	if name == "" {
		name = s.defaultStrategy
	}
	span.SetAttributes(attribute.String("strategy", name))
	strat, err := s.registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	err = s.withGameLock(id, func() error {
		game, world, err := s.loadPlayable(id)
		if err != nil {
			return err
		}

		start := time.Now()
		res, err := strat.Plan(ctx, world)
		if err != nil {
			return err
		}
		took := time.Since(start)

		if !rules.Replay(world, res.Actions).Equal(res.World) {
			s.metrics.observeSolve(name, "diverged", len(res.Actions), took)
			s.record(audit.ActionGameSolve, solveInputs(game.Board, name), "diverged", id, res.Reason)
			return ErrReplayDiverged
		}

		entries := make([]models.ActionEntry, 0, len(res.Actions))
		for _, r := range res.Actions {
			entries = append(entries, models.ActionEntry{
				Type:      r.Type,
				Direction: r.Direction,
				OK:        r.OK,
				Message:   r.Message,
				Source:    models.SourcePlanner,
				Strategy:  name,
			})
			s.metrics.observeAction(models.SourcePlanner, r.OK)
		}
		status := res.World.Status()
		updated, err := s.store.CommitGame(id, game.Version, models.BoardFromWorld(res.World), status, entries)
		if err != nil {
			return err
		}

		s.record(audit.ActionGameSolve, solveInputs(game.Board, name), string(status), id, res.Reason)
		s.metrics.observeSolve(name, string(status), len(res.Actions), took)
		span.SetAttributes(
			attribute.Int("solve.actions", len(res.Actions)),
			attribute.String("solve.reason", res.Reason),
		)
		s.logger.Info("game solved",
			"game", id,
			"strategy", name,
			"actions", len(res.Actions),
			"status", status,
			"reason", res.Reason,
			"took", took,
		)

		resp = &SolveResponse{
			Game:       updated,
			Strategy:   name,
			Actions:    res.Actions,
			Reason:     res.Reason,
			Iterations: res.Iterations,
			Stats:      res.Stats,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// EnqueueSolve queues a solve job for the scheduler.
func (s *Service) EnqueueSolve(ctx context.Context, id, name string) (job *models.SolveJob, err error) {
	_, span := tracer.Start(ctx, "Service.EnqueueSolve", trace.WithAttributes(attribute.String("game.id", id)))
	defer func() { endSpan(span, err) }()

	if name == "" {
		name = s.defaultStrategy
	}
	if _, err := s.registry.Lookup(name); err != nil {
		return nil, err
	}
	if _, _, err := s.loadPlayable(id); err != nil {
		return nil, err
	}
	job, err = s.store.CreateJob(id, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("solve queued", "game", id, "job", job.ID, "strategy", name)
	return job, nil
}

// GetJob retrieves a solve job by ID.
func (s *Service) GetJob(id string) (*models.SolveJob, error) {
	job, err := s.store.GetJob(id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// RunJob solves a queued job. It satisfies scheduler.Runner.
func (s *Service) RunJob(ctx context.Context, job *models.SolveJob) (int, string, error) {
	resp, err := s.Solve(ctx, job.GameID, job.Strategy)
	if err != nil {
		return 0, "", err
	}
	return len(resp.Actions), resp.Reason, nil
}

// Predict suggests the next action for a game without applying it.
func (s *Service) Predict(ctx context.Context, id string) (resp *PredictResponse, err error) {
	_, span := tracer.Start(ctx, "Service.Predict", trace.WithAttributes(attribute.String("game.id", id)))
	defer func() { endSpan(span, err) }()

	_, world, err := s.loadPlayable(id)
	if err != nil {
		return nil, err
	}
	action, ok := s.predictor.Predict(world)
	if !ok {
		return nil, ErrNoPrediction
	}
	return &PredictResponse{Action: action, Features: predictor.Extract(world)}, nil
}

// --- helpers ---

// loadPlayable loads a game that has not been won yet.
func (s *Service) loadPlayable(id string) (*models.Game, *grid.World, error) {
	game, err := s.GetGame(id)
	if err != nil {
		return nil, nil, err
	}
	world, err := game.Board.World()
	if err != nil {
		return nil, nil, fmt.Errorf("loading game %s: %w", id, err)
	}
	if world.Status() == grid.StatusVictory {
		return nil, nil, ErrGameOver
	}
	return game, world, nil
}

// withGameLock runs fn while holding the game's write lock.
func (s *Service) withGameLock(id string, fn func() error) error {
	lock, err := s.store.AcquireLock(id, uuid.New().String(), s.lockTTL)
	if err != nil {
		if errors.Is(err, store.ErrResourceLocked) {
			s.metrics.lockConflicts.Inc()
			return ErrGameLocked
		}
		return err
	}
	defer func() {
		if err := s.store.ReleaseLock(lock.ID); err != nil {
			s.logger.Warn("failed to release game lock", "game", id, "error", err)
		}
	}()
	return fn()
}

func (s *Service) record(action string, inputs interface{}, outcome, gameID, details string) {
	if s.decisions == nil {
		return
	}
	if _, err := s.decisions.Record(action, inputs, outcome, gameID, details); err != nil {
		s.logger.Warn("failed to write decision record", "action", action, "game", gameID, "error", err)
	}
}

func solveInputs(board models.Board, name string) map[string]interface{} {
	return map[string]interface{}{"board": board, "strategy": name}
}

func parseAction(req ActRequest) (rules.Action, error) {
	t, err := rules.ParseActionType(req.Type)
	if err != nil {
		return rules.Action{}, err
	}
	a := rules.Action{Type: t}
	if t == rules.ActionRotate {
		d, err := grid.ParseDirection(req.Direction)
		if err != nil {
			return rules.Action{}, err
		}
		a.Direction = d
	}
	return a, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
