// Package models defines the wire and storage shapes for petalpath.
package models

import (
	"time"

	"github.com/fentz26/petalpath/internal/grid"
	"github.com/fentz26/petalpath/internal/rules"
)

// Board is the serialisable form of a world.
type Board struct {
	Rows           int             `json:"rows" yaml:"rows" validate:"min=3,max=50"`
	Cols           int             `json:"cols" yaml:"cols" validate:"min=3,max=50"`
	Robot          grid.Position   `json:"robot" yaml:"robot"`
	Orientation    grid.Direction  `json:"orientation,omitempty" yaml:"orientation,omitempty" validate:"omitempty,oneof=north south east west"`
	Princess       grid.Position   `json:"princess" yaml:"princess"`
	Flowers        []grid.Position `json:"flowers" yaml:"flowers"`
	Obstacles      []grid.Position `json:"obstacles" yaml:"obstacles"`
	Capacity       int             `json:"capacity,omitempty" yaml:"capacity,omitempty" validate:"gte=0"`
	Held           []grid.Position `json:"held,omitempty" yaml:"held,omitempty"`
	Received       []grid.Position `json:"received,omitempty" yaml:"received,omitempty"`
	Delivered      int             `json:"delivered" yaml:"delivered" validate:"gte=0"`
	InitialFlowers int             `json:"initial_flowers" yaml:"initial_flowers,omitempty" validate:"gte=0"`
}

// BoardFromWorld captures w.
func BoardFromWorld(w *grid.World) Board {
	s := w.Spec()
	return Board{
		Rows:           s.Rows,
		Cols:           s.Cols,
		Robot:          s.Robot,
		Orientation:    s.Orientation,
		Princess:       s.Goal,
		Flowers:        s.Flowers,
		Obstacles:      s.Obstacles,
		Capacity:       s.Capacity,
		Held:           s.Held,
		Received:       s.Received,
		Delivered:      s.Delivered,
		InitialFlowers: s.InitialFlowers,
	}
}

// World rebuilds the world, validating every placement.
func (b Board) World() (*grid.World, error) {
	return grid.New(grid.Spec{
		Rows:           b.Rows,
		Cols:           b.Cols,
		Robot:          b.Robot,
		Orientation:    b.Orientation,
		Goal:           b.Princess,
		Flowers:        b.Flowers,
		Obstacles:      b.Obstacles,
		Capacity:       b.Capacity,
		Held:           b.Held,
		Received:       b.Received,
		Delivered:      b.Delivered,
		InitialFlowers: b.InitialFlowers,
	})
}

// Who issued an action.
const (
	SourceHuman   = "human"
	SourcePlanner = "planner"
)

// ActionEntry is one persisted action in a game's history.
type ActionEntry struct {
	ID        string           `json:"id"`
	GameID    string           `json:"game_id"`
	Seq       int              `json:"seq"`
	Type      rules.ActionType `json:"type"`
	Direction grid.Direction   `json:"direction,omitempty"`
	OK        bool             `json:"ok"`
	Message   string           `json:"message"`
	Source    string           `json:"source"`
	Strategy  string           `json:"strategy,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Record returns the rules-level view of the entry.
func (e ActionEntry) Record() rules.Record {
	return rules.Record{
		Action:  rules.Action{Type: e.Type, Direction: e.Direction},
		OK:      e.OK,
		Message: e.Message,
	}
}

// Game is a stored puzzle session.
type Game struct {
	ID        string      `json:"id"`
	Status    grid.Status `json:"status"`
	Board     Board       `json:"board"`
	Version   int         `json:"version"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// JobStatus represents the current state of a solve job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusClaimed   JobStatus = "claimed"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// SolveJob is a queued request to run a strategy on a game.
type SolveJob struct {
	ID        string     `json:"id"`
	GameID    string     `json:"game_id"`
	Strategy  string     `json:"strategy"`
	Status    JobStatus  `json:"status"`
	ClaimedBy string     `json:"claimed_by,omitempty"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
	Actions   int        `json:"actions"`
	Outcome   string     `json:"outcome,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Lock is a write lock on one game.
type Lock struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	HolderID   string    `json:"holder_id"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// DecisionRecord is an audit entry for a state-changing call.
type DecisionRecord struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	GameID     string    `json:"game_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
