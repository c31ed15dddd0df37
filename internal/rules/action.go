// Package rules is the state transition service: it validates and applies
// the six robot actions. It is the only code that mutates a grid.World on
// behalf of a player or planner.
package rules

import (
	"fmt"
	"strings"

	"github.com/fentz26/petalpath/internal/grid"
)

// ActionType is the closed set of robot actions.
type ActionType string

const (
	ActionRotate ActionType = "rotate"
	ActionMove   ActionType = "move"
	ActionPick   ActionType = "pick"
	ActionDrop   ActionType = "drop"
	ActionGive   ActionType = "give"
	ActionClean  ActionType = "clean"
)

// ActionTypes lists every action type.
func ActionTypes() []ActionType {
	return []ActionType{ActionRotate, ActionMove, ActionPick, ActionDrop, ActionGive, ActionClean}
}

// ParseActionType maps a wire string onto an ActionType.
func ParseActionType(s string) (ActionType, error) {
	t := ActionType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ActionTypes() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Action is one requested robot action. Direction is only meaningful for
// ActionRotate.
type Action struct {
	Type      ActionType     `json:"type"`
	Direction grid.Direction `json:"direction,omitempty"`
}

// RotateTo is the Rotate action toward d.
func RotateTo(d grid.Direction) Action {
	return Action{Type: ActionRotate, Direction: d}
}

func (a Action) String() string {
	if a.Type == ActionRotate {
		return fmt.Sprintf("%s %s", a.Type, a.Direction)
	}
	return string(a.Type)
}

// Record is the outcome of one attempted action, as kept in an action log.
type Record struct {
	Action
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Counts tallies records by action type. Only successful records count.
func Counts(log []Record) map[ActionType]int {
	out := make(map[ActionType]int, len(ActionTypes()))
	for _, r := range log {
		if r.OK {
			out[r.Type]++
		}
	}
	return out
}
