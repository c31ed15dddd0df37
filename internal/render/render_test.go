package render

import (
	"strings"
	"testing"

	"github.com/fentz26/petalpath/internal/grid"
	"github.com/fentz26/petalpath/internal/rules"
)

func testWorld(t *testing.T) *grid.World {
	t.Helper()
	w, err := grid.New(grid.Spec{
		Rows:        3,
		Cols:        4,
		Robot:       grid.Pos(0, 0),
		Orientation: grid.South,
		Goal:        grid.Pos(2, 3),
		Flowers:     []grid.Position{grid.Pos(1, 1)},
		Obstacles:   []grid.Position{grid.Pos(0, 2)},
	})
	if err != nil {
		t.Fatalf("Failed to build world: %v", err)
	}
	return w
}

func TestPlain(t *testing.T) {
	want := "v . # .\n" +
		". * . .\n" +
		". . . P\n"
	if got := Plain(testWorld(t)); got != want {
		t.Errorf("Plain() =\n%s\nwant\n%s", got, want)
	}
}

func TestBoardIncludesSummary(t *testing.T) {
	out := Board(testWorld(t), "game 1")
	for _, want := range []string{"game 1", "in_progress", "0/1", "waiting"} {
		if !strings.Contains(out, want) {
			t.Errorf("Board output missing %q:\n%s", want, out)
		}
	}
}

func TestLog(t *testing.T) {
	out := Log([]rules.Record{
		{Action: rules.RotateTo(grid.East), OK: true, Message: "now facing east"},
		{Action: rules.Action{Type: rules.ActionMove}, OK: false, Message: "invalid move: blocked"},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "rotate east") || !strings.Contains(lines[1], "err") {
		t.Errorf("Unexpected log output:\n%s", out)
	}
}
