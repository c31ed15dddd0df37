package grid

import (
	"math/rand"
)

// GenerateOptions controls random board generation.
type GenerateOptions struct {
	Seed          int64
	FlowerRatio   float64
	ObstacleRatio float64
	Capacity      int
}

// DefaultGenerateOptions returns the standard densities: 10% flowers,
// 30% obstacles.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		FlowerRatio:   0.10,
		ObstacleRatio: 0.30,
	}
}

// Generate builds a random board. The robot starts at the top-left corner
// facing east and the princess sits in the bottom-right corner; flowers and
// obstacles are placed on the shuffled remaining cells. The same seed always
// yields the same board.
func Generate(rows, cols int, opts GenerateOptions) (*World, error) {
	if err := checkSize(rows, cols); err != nil {
		return nil, err
	}
	if opts.FlowerRatio <= 0 {
		opts.FlowerRatio = DefaultGenerateOptions().FlowerRatio
	}
	if opts.ObstacleRatio < 0 {
		opts.ObstacleRatio = 0
	}

	robot := Pos(0, 0)
	goal := Pos(rows-1, cols-1)

	var free []Position
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			p := Pos(r, c)
			if p == robot || p == goal {
				continue
			}
			free = append(free, p)
		}
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })

	total := rows * cols
	nFlowers := int(float64(total) * opts.FlowerRatio)
	if nFlowers < 1 {
		nFlowers = 1
	}
	nObstacles := int(float64(total) * opts.ObstacleRatio)
	if nFlowers > len(free) {
		nFlowers = len(free)
	}
	if nFlowers+nObstacles > len(free) {
		nObstacles = len(free) - nFlowers
	}

	return New(Spec{
		Rows:        rows,
		Cols:        cols,
		Robot:       robot,
		Orientation: East,
		Goal:        goal,
		Flowers:     free[:nFlowers],
		Obstacles:   free[nFlowers : nFlowers+nObstacles],
		Capacity:    opts.Capacity,
	})
}
