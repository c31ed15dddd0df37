package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fentz26/petalpath/internal/grid"
)

func TestReadBoardFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yaml")
	src := `
rows: 3
cols: 3
robot: {row: 0, col: 0}
orientation: east
princess: {row: 2, col: 2}
flowers:
  - {row: 1, col: 1}
`
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatalf("Failed to write board: %v", err)
	}

	board, err := readBoardFile(path)
	if err != nil {
		t.Fatalf("readBoardFile failed: %v", err)
	}
	if board.Princess != grid.Pos(2, 2) || len(board.Flowers) != 1 {
		t.Errorf("Unexpected board: %+v", board)
	}
}

func TestReadBoardFileRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"too small":  "rows: 2\ncols: 3\n",
		"bad yaml":   "rows: [\n",
		"bad facing": "rows: 3\ncols: 3\norientation: sideways\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
				t.Fatalf("Failed to write board: %v", err)
			}
			if _, err := readBoardFile(path); err == nil {
				t.Error("Expected an error")
			}
		})
	}

	if _, err := readBoardFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
