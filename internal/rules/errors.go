package rules

import "errors"

// Sentinel errors for rejected actions. Each rejection wraps one of these
// with the concrete reason.
var (
	ErrInvalidRotation = errors.New("invalid rotation")
	ErrInvalidMove     = errors.New("invalid move")
	ErrInvalidPick     = errors.New("invalid pick")
	ErrInvalidDrop     = errors.New("invalid drop")
	ErrInvalidGive     = errors.New("invalid give")
	ErrInvalidClean    = errors.New("invalid clean")
	ErrGameOver        = errors.New("game over")
	ErrUnknownAction   = errors.New("unknown action")
)
