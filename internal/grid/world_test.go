package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w, err := New(Spec{
		Rows:      4,
		Cols:      5,
		Robot:     Pos(0, 0),
		Goal:      Pos(3, 4),
		Flowers:   []Position{Pos(1, 1), Pos(0, 3)},
		Obstacles: []Position{Pos(2, 2)},
	})
	require.NoError(t, err)
	return w
}

func TestPositionDistanceAndTranslate(t *testing.T) {
	a := Pos(1, 2)
	assert.Equal(t, 0, a.Distance(a))
	assert.Equal(t, 5, a.Distance(Pos(4, 0)))
	assert.Equal(t, Pos(0, 4), a.Translate(-1, 2))
	assert.Equal(t, Pos(1, 3), a.Step(East))
	assert.True(t, Pos(0, 9).Less(Pos(1, 0)))
	assert.True(t, Pos(1, 0).Less(Pos(1, 1)))
	assert.False(t, Pos(1, 1).Less(Pos(1, 1)))
}

func TestDirections(t *testing.T) {
	for _, d := range Directions() {
		dr, dc := d.Delta()
		or, oc := d.Opposite().Delta()
		assert.Equal(t, 0, dr+or, d)
		assert.Equal(t, 0, dc+oc, d)
		assert.Equal(t, 1, abs(dr)+abs(dc), d)
		assert.True(t, d.Valid())
	}
	assert.False(t, Direction("up").Valid())

	d, err := ParseDirection("N")
	require.NoError(t, err)
	assert.Equal(t, North, d)

	_, err = ParseDirection("diagonal")
	assert.ErrorIs(t, err, ErrInvalidDirection)

	got, ok := DirectionBetween(Pos(2, 2), Pos(2, 1))
	assert.True(t, ok)
	assert.Equal(t, West, got)
	_, ok = DirectionBetween(Pos(2, 2), Pos(3, 3))
	assert.False(t, ok)
}

func TestNewValidation(t *testing.T) {
	base := Spec{Rows: 3, Cols: 3, Robot: Pos(0, 0), Goal: Pos(2, 2)}

	tests := []struct {
		name   string
		mutate func(*Spec)
		want   error
	}{
		{"too small", func(s *Spec) { s.Rows = 2 }, ErrInvalidDimensions},
		{"too large", func(s *Spec) { s.Cols = 51 }, ErrInvalidDimensions},
		{"robot out of bounds", func(s *Spec) { s.Robot = Pos(3, 0) }, ErrOutOfBounds},
		{"flower on goal", func(s *Spec) { s.Flowers = []Position{Pos(2, 2)} }, ErrOverlap},
		{"flower on obstacle", func(s *Spec) {
			s.Flowers = []Position{Pos(1, 1)}
			s.Obstacles = []Position{Pos(1, 1)}
		}, ErrOverlap},
		{"negative capacity", func(s *Spec) { s.Capacity = -1 }, ErrInvalidCapacity},
		{"overloaded", func(s *Spec) {
			s.Capacity = 1
			s.Held = []Position{Pos(1, 1), Pos(1, 2)}
		}, ErrInvalidCapacity},
		{"bad orientation", func(s *Spec) { s.Orientation = "up" }, ErrInvalidDirection},
		{"delivered over initial", func(s *Spec) {
			s.Delivered = 3
			s.Received = []Position{Pos(1, 1), Pos(1, 2), Pos(0, 1)}
			s.InitialFlowers = 2
		}, ErrInvalidCounts},
		{"initial below board", func(s *Spec) {
			s.Flowers = []Position{Pos(0, 2), Pos(1, 1), Pos(2, 0)}
			s.InitialFlowers = 1
		}, ErrInvalidCounts},
		{"initial below held and delivered", func(s *Spec) {
			s.Held = []Position{Pos(1, 1)}
			s.Delivered = 1
			s.Received = []Position{Pos(0, 2)}
			s.InitialFlowers = 1
		}, ErrInvalidCounts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := base
			tt.mutate(&spec)
			_, err := New(spec)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewDefaults(t *testing.T) {
	w := newTestWorld(t)
	assert.Equal(t, DefaultCapacity, w.Capacity())
	assert.Equal(t, East, w.Orientation())
	assert.Equal(t, 2, w.InitialFlowers())
	assert.Equal(t, StatusInProgress, w.Status())
}

func TestCellAt(t *testing.T) {
	w := newTestWorld(t)
	assert.Equal(t, CellRobot, w.CellAt(Pos(0, 0)))
	assert.Equal(t, CellPrincess, w.CellAt(Pos(3, 4)))
	assert.Equal(t, CellFlower, w.CellAt(Pos(1, 1)))
	assert.Equal(t, CellObstacle, w.CellAt(Pos(2, 2)))
	assert.Equal(t, CellEmpty, w.CellAt(Pos(0, 1)))
	assert.Equal(t, CellOutOfBounds, w.CellAt(Pos(-1, 0)))
	assert.Equal(t, CellOutOfBounds, w.CellAt(Pos(0, 5)))
}

func TestSortedAccessors(t *testing.T) {
	w := newTestWorld(t)
	assert.Equal(t, []Position{Pos(0, 3), Pos(1, 1)}, w.Flowers())
	assert.Equal(t, []Position{Pos(2, 2)}, w.Obstacles())
}

func TestCloneIsIndependent(t *testing.T) {
	w := newTestWorld(t)
	c := w.Clone()
	require.True(t, w.Equal(c))

	require.NoError(t, c.TakeFlower(Pos(1, 1)))
	require.NoError(t, c.RemoveObstacle(Pos(2, 2)))
	c.SetOrientation(South)

	assert.False(t, w.Equal(c))
	assert.True(t, w.HasFlower(Pos(1, 1)))
	assert.True(t, w.HasObstacle(Pos(2, 2)))
	assert.Equal(t, East, w.Orientation())
	assert.Equal(t, 0, w.HeldCount())
}

func TestSpecRoundTrip(t *testing.T) {
	w := newTestWorld(t)
	require.NoError(t, w.TakeFlower(Pos(1, 1)))
	w.SetOrientation(West)

	rebuilt, err := New(w.Spec())
	require.NoError(t, err)
	assert.True(t, w.Equal(rebuilt))
}

func TestHandOverAndStatus(t *testing.T) {
	w := newTestWorld(t)
	require.NoError(t, w.TakeFlower(Pos(1, 1)))
	require.NoError(t, w.TakeFlower(Pos(0, 3)))
	assert.Equal(t, 2, w.HandOver())
	assert.Equal(t, 2, w.Delivered())
	assert.Equal(t, 0, w.HeldCount())
	assert.Equal(t, []Position{Pos(1, 1), Pos(0, 3)}, w.Princess().Received)
	assert.Equal(t, StatusVictory, w.Status())
	assert.Equal(t, "delighted", w.Princess().Mood(w.InitialFlowers()))
}

func TestPutFlowerIsLIFO(t *testing.T) {
	w := newTestWorld(t)
	require.NoError(t, w.TakeFlower(Pos(1, 1)))
	require.NoError(t, w.TakeFlower(Pos(0, 3)))

	require.NoError(t, w.PutFlower(Pos(0, 1)))
	assert.Equal(t, []Position{Pos(1, 1)}, w.Robot().Held)
	assert.True(t, w.HasFlower(Pos(0, 1)))

	assert.Error(t, w.PutFlower(Pos(2, 2)), "obstacle cell is not empty")
}

func TestSuspendObstacleRestores(t *testing.T) {
	w := newTestWorld(t)
	before := w.Clone()

	func() {
		restore := w.SuspendObstacle(Pos(2, 2))
		defer restore()
		assert.False(t, w.HasObstacle(Pos(2, 2)))
		assert.True(t, w.IsEmpty(Pos(2, 2)))
	}()
	assert.True(t, w.Equal(before))

	restore := w.SuspendObstacle(Pos(2, 2))
	restore()
	restore()
	assert.True(t, w.Equal(before), "restore is idempotent")

	noop := w.SuspendObstacle(Pos(0, 1))
	noop()
	assert.False(t, w.HasObstacle(Pos(0, 1)))
}

func TestSuspendObstacleRestoresOnPanic(t *testing.T) {
	w := newTestWorld(t)

	assert.Panics(t, func() {
		restore := w.SuspendObstacle(Pos(2, 2))
		defer restore()
		panic("scoring failed")
	})
	assert.True(t, w.HasObstacle(Pos(2, 2)))
}

func TestGenerateIsDeterministic(t *testing.T) {
	opts := DefaultGenerateOptions()
	opts.Seed = 42

	a, err := Generate(10, 12, opts)
	require.NoError(t, err)
	b, err := Generate(10, 12, opts)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	assert.Equal(t, Pos(0, 0), a.RobotPosition())
	assert.Equal(t, Pos(9, 11), a.Goal())
	assert.Equal(t, East, a.Orientation())
	assert.Equal(t, 12, a.FlowerCount())
	assert.Equal(t, 36, a.ObstacleCount())
	assert.Equal(t, 12, a.InitialFlowers())
}

func TestGenerateSmallBoardHasAFlower(t *testing.T) {
	w, err := Generate(3, 3, DefaultGenerateOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, w.FlowerCount())
}

func TestGenerateRejectsBadSize(t *testing.T) {
	for _, size := range [][2]int{{2, 10}, {10, 51}, {100000, 100000}, {-5, 5}} {
		_, err := Generate(size[0], size[1], DefaultGenerateOptions())
		assert.ErrorIs(t, err, ErrInvalidDimensions, "size %v", size)
	}
}
