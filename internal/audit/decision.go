// Package audit writes decision records for state-changing calls.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/petalpath/internal/models"
	"github.com/fentz26/petalpath/internal/store"
)

// Audited actions.
const (
	ActionGameCreate  = "game.create"
	ActionGameAct     = "game.act"
	ActionGameSolve   = "game.solve"
	ActionJobDispatch = "job.dispatch"
)

// DecisionWriter writes decision records for audit trails.
type DecisionWriter struct {
	store *store.Store
}

// NewDecisionWriter creates a new decision writer.
func NewDecisionWriter(s *store.Store) *DecisionWriter {
	return &DecisionWriter{store: s}
}

// Record writes an entry for a state-changing action. The inputs are stored
// only as a hash, enough to tell whether two solves started from the same
// board and strategy.
func (w *DecisionWriter) Record(action string, inputs interface{}, outcome, gameID, details string) (*models.DecisionRecord, error) {
	return w.store.WriteDecision(action, HashInputs(inputs), outcome, gameID, details)
}

// HashInputs returns the SHA-256 of the JSON encoding of inputs.
func HashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
