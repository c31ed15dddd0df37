package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/petalpath/internal/grid"
)

// board:
//
//	R . F
//	# . .
//	. . P
func newRulesWorld(t *testing.T, capacity int) *grid.World {
	t.Helper()
	w, err := grid.New(grid.Spec{
		Rows:        3,
		Cols:        3,
		Robot:       grid.Pos(0, 0),
		Orientation: grid.East,
		Goal:        grid.Pos(2, 2),
		Flowers:     []grid.Position{grid.Pos(0, 2)},
		Obstacles:   []grid.Position{grid.Pos(1, 0)},
		Capacity:    capacity,
	})
	require.NoError(t, err)
	return w
}

func TestRotate(t *testing.T) {
	w := newRulesWorld(t, 0)
	require.NoError(t, Rotate(w, grid.South))
	assert.Equal(t, grid.South, w.Orientation())

	err := Rotate(w, grid.Direction("sideways"))
	assert.ErrorIs(t, err, ErrInvalidRotation)
	assert.Equal(t, grid.South, w.Orientation())
}

func TestMove(t *testing.T) {
	w := newRulesWorld(t, 0)
	require.NoError(t, Move(w))
	assert.Equal(t, grid.Pos(0, 1), w.RobotPosition())

	// Flower ahead blocks movement.
	assert.ErrorIs(t, Move(w), ErrInvalidMove)
	assert.Equal(t, grid.Pos(0, 1), w.RobotPosition())

	require.NoError(t, Rotate(w, grid.North))
	assert.ErrorIs(t, Move(w), ErrInvalidMove, "edge of the board")

	w = newRulesWorld(t, 0)
	require.NoError(t, Rotate(w, grid.South))
	assert.ErrorIs(t, Move(w), ErrInvalidMove, "obstacle")
}

func TestPick(t *testing.T) {
	w := newRulesWorld(t, 0)
	assert.ErrorIs(t, Pick(w), ErrInvalidPick, "empty cell ahead")

	require.NoError(t, Move(w))
	require.NoError(t, Pick(w))
	assert.Equal(t, 1, w.HeldCount())
	assert.False(t, w.HasFlower(grid.Pos(0, 2)))
	assert.Equal(t, []grid.Position{grid.Pos(0, 2)}, w.Robot().Held)
}

func TestPickAtCapacity(t *testing.T) {
	w, err := grid.New(grid.Spec{
		Rows:     3,
		Cols:     3,
		Robot:    grid.Pos(0, 0),
		Goal:     grid.Pos(2, 2),
		Flowers:  []grid.Position{grid.Pos(0, 1)},
		Capacity: 1,
		Held:     []grid.Position{grid.Pos(1, 1)},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, Pick(w), ErrInvalidPick)
	assert.True(t, w.HasFlower(grid.Pos(0, 1)))
}

func TestDrop(t *testing.T) {
	w := newRulesWorld(t, 0)
	assert.ErrorIs(t, Drop(w), ErrInvalidDrop, "nothing held")

	require.NoError(t, Move(w))
	require.NoError(t, Pick(w))
	require.NoError(t, Rotate(w, grid.North))
	assert.ErrorIs(t, Drop(w), ErrInvalidDrop, "edge of the board")
	assert.Equal(t, 1, w.HeldCount())
}

func TestDropLastPickedOntoEmptyCell(t *testing.T) {
	w := newRulesWorld(t, 0)
	require.NoError(t, Move(w))
	require.NoError(t, Pick(w))
	require.NoError(t, Rotate(w, grid.South))

	require.NoError(t, Drop(w))
	assert.Equal(t, 0, w.HeldCount())
	assert.True(t, w.HasFlower(grid.Pos(1, 1)))

	require.NoError(t, Rotate(w, grid.West))
	assert.ErrorIs(t, Drop(w), ErrInvalidDrop)
}

func TestGive(t *testing.T) {
	w := newRulesWorld(t, 0)
	assert.ErrorIs(t, Give(w), ErrInvalidGive, "nothing held")

	require.NoError(t, Move(w))
	require.NoError(t, Pick(w))
	assert.ErrorIs(t, Give(w), ErrInvalidGive, "princess not ahead")

	// Walk to (1,2) and face south toward the princess.
	require.NoError(t, Rotate(w, grid.South))
	require.NoError(t, Move(w))
	require.NoError(t, Rotate(w, grid.East))
	require.NoError(t, Move(w))
	require.NoError(t, Rotate(w, grid.South))
	require.NoError(t, Give(w))

	assert.Equal(t, 1, w.Delivered())
	assert.Equal(t, 0, w.HeldCount())
	assert.Equal(t, grid.StatusVictory, w.Status())
}

func TestClean(t *testing.T) {
	w := newRulesWorld(t, 0)
	assert.ErrorIs(t, Clean(w), ErrInvalidClean, "no obstacle ahead")

	require.NoError(t, Rotate(w, grid.South))
	require.NoError(t, Clean(w))
	assert.False(t, w.HasObstacle(grid.Pos(1, 0)))
}

func TestCleanWhileCarrying(t *testing.T) {
	w, err := grid.New(grid.Spec{
		Rows:        3,
		Cols:        3,
		Robot:       grid.Pos(0, 0),
		Orientation: grid.South,
		Goal:        grid.Pos(2, 2),
		Obstacles:   []grid.Position{grid.Pos(1, 0)},
		Held:        []grid.Position{grid.Pos(0, 1)},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, Clean(w), ErrInvalidClean)
	assert.True(t, w.HasObstacle(grid.Pos(1, 0)))
}

func TestGameOverAfterVictory(t *testing.T) {
	w, err := grid.New(grid.Spec{
		Rows:      3,
		Cols:      3,
		Robot:     grid.Pos(0, 0),
		Goal:      grid.Pos(2, 2),
		Received:  []grid.Position{grid.Pos(1, 1)},
		Delivered: 1,
	})
	require.NoError(t, err)
	require.Equal(t, grid.StatusVictory, w.Status())

	for _, a := range []Action{RotateTo(grid.North), {Type: ActionMove}, {Type: ActionPick}, {Type: ActionDrop}, {Type: ActionGive}, {Type: ActionClean}} {
		assert.ErrorIs(t, Do(w, a), ErrGameOver, a.String())
	}
}

func TestApplyRecordsOutcome(t *testing.T) {
	w := newRulesWorld(t, 0)

	ok := Apply(w, Action{Type: ActionMove, Direction: grid.North})
	assert.True(t, ok.OK)
	assert.Equal(t, grid.Direction(""), ok.Direction, "direction only kept for rotate")
	assert.Contains(t, ok.Message, "(0,1)")

	before := w.Clone()
	failed := Apply(w, Action{Type: ActionClean})
	assert.False(t, failed.OK)
	assert.Contains(t, failed.Message, ErrInvalidClean.Error())
	assert.True(t, before.Equal(w), "failed action must not mutate")

	unknown := Apply(w, Action{Type: "dance"})
	assert.False(t, unknown.OK)
}

func TestReplayMatchesDirectApplication(t *testing.T) {
	w := newRulesWorld(t, 0)
	start := w.Clone()

	actions := []Action{
		{Type: ActionMove},
		{Type: ActionPick},
		{Type: ActionClean}, // rejected: carrying
		RotateTo(grid.South),
		{Type: ActionMove},
		RotateTo(grid.East),
		{Type: ActionMove},
		RotateTo(grid.South),
		{Type: ActionGive},
	}
	var log []Record
	for _, a := range actions {
		log = append(log, Apply(w, a))
	}

	replayed := Replay(start, log)
	assert.True(t, replayed.Equal(w))
	assert.True(t, start.Equal(newRulesWorld(t, 0)), "replay works on a copy")

	counts := Counts(log)
	assert.Equal(t, 3, counts[ActionMove])
	assert.Equal(t, 0, counts[ActionClean])
	assert.Equal(t, 1, counts[ActionGive])
}

func TestParseActionType(t *testing.T) {
	got, err := ParseActionType(" PICK ")
	require.NoError(t, err)
	assert.Equal(t, ActionPick, got)

	_, err = ParseActionType("jump")
	assert.ErrorIs(t, err, ErrUnknownAction)
}
