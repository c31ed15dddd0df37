package audit

import (
	"path/filepath"
	"testing"

	"github.com/fentz26/petalpath/internal/grid"
	"github.com/fentz26/petalpath/internal/models"
	"github.com/fentz26/petalpath/internal/store"
)

func TestHashInputsIsStable(t *testing.T) {
	board := models.Board{Rows: 3, Cols: 3, Robot: grid.Pos(0, 0), Princess: grid.Pos(2, 2)}
	a := HashInputs(map[string]interface{}{"board": board, "strategy": "safe"})
	b := HashInputs(map[string]interface{}{"strategy": "safe", "board": board})
	if a != b {
		t.Errorf("hash depends on map order: %s != %s", a, b)
	}
	if c := HashInputs(map[string]interface{}{"board": board, "strategy": "optimal"}); c == a {
		t.Error("different inputs produced the same hash")
	}
	if len(a) != 64 {
		t.Errorf("expected hex sha256, got %q", a)
	}
	if got := HashInputs(func() {}); got != "hash_error" {
		t.Errorf("unencodable input hash = %q", got)
	}
}

func TestRecord(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	w := NewDecisionWriter(s)
	rec, err := w.Record(ActionGameSolve, map[string]string{"strategy": "safe"}, "victory", "g1", "12 actions")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if rec.InputsHash == "" || rec.Action != ActionGameSolve {
		t.Errorf("Unexpected record: %+v", rec)
	}

	list, err := s.ListDecisions("g1")
	if err != nil {
		t.Fatalf("ListDecisions failed: %v", err)
	}
	if len(list) != 1 || list[0].InputsHash != rec.InputsHash {
		t.Errorf("Stored decisions = %+v", list)
	}
}
