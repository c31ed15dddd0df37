package api

import (
	"errors"
	"net/http"

	"github.com/fentz26/petalpath/internal/grid"
	"github.com/fentz26/petalpath/internal/rules"
	"github.com/fentz26/petalpath/internal/store"
	"github.com/fentz26/petalpath/internal/strategy"
)

// Sentinel errors for service operations.
var (
	ErrGameNotFound   = errors.New("game not found")
	ErrJobNotFound    = errors.New("job not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidBoard   = errors.New("invalid board")
	ErrGameLocked     = errors.New("game is being modified")
	ErrGameOver       = errors.New("game already won")
	ErrReplayDiverged = errors.New("replayed actions do not reproduce the planned board")
	ErrNoPrediction   = errors.New("no action to suggest")
)

// httpStatus maps service errors to response codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, ErrGameNotFound), errors.Is(err, ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidBoard),
		errors.Is(err, strategy.ErrUnknownStrategy),
		errors.Is(err, rules.ErrUnknownAction),
		errors.Is(err, grid.ErrInvalidDirection):
		return http.StatusBadRequest
	case errors.Is(err, strategy.ErrNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, ErrGameLocked),
		errors.Is(err, ErrGameOver),
		errors.Is(err, store.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNoPrediction):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
