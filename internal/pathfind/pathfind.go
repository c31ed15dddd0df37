// Package pathfind computes shortest routes for the robot over cells that
// are currently passable.
package pathfind

import (
	"container/heap"

	"github.com/fentz26/petalpath/internal/grid"
)

// Path lists the cells to step through, excluding the start and including
// the destination.
type Path []grid.Position

// Len is the number of moves the path takes.
func (p Path) Len() int { return len(p) }

// Find returns a shortest path from start to goal. Intermediate cells must
// be empty; goal itself is accepted whatever it holds, so callers pass the
// cell they intend to stand on. ok is false when goal is unreachable.
// Repeated calls on an unchanged world return the same path.
func Find(w *grid.World, start, goal grid.Position) (Path, bool) {
	if start == goal {
		return Path{}, true
	}
	if !w.InBounds(goal) {
		return nil, false
	}

	g := map[grid.Position]int{start: 0}
	parent := map[grid.Position]grid.Position{}
	closed := map[grid.Position]bool{}

	open := &nodeQueue{}
	heap.Init(open)
	var seq uint64
	heap.Push(open, node{pos: start, g: 0, f: start.Distance(goal), seq: seq})

	for open.Len() > 0 {
		cur := heap.Pop(open).(node)
		if closed[cur.pos] || cur.g > g[cur.pos] {
			continue
		}
		if cur.pos == goal {
			return reconstruct(parent, start, goal), true
		}
		closed[cur.pos] = true

		for _, next := range cur.pos.Neighbors() {
			if next != goal && !w.IsEmpty(next) {
				continue
			}
			if closed[next] {
				continue
			}
			tentative := cur.g + 1
			if best, seen := g[next]; seen && tentative >= best {
				continue
			}
			g[next] = tentative
			parent[next] = cur.pos
			seq++
			heap.Push(open, node{pos: next, g: tentative, f: tentative + next.Distance(goal), seq: seq})
		}
	}
	return nil, false
}

func reconstruct(parent map[grid.Position]grid.Position, start, goal grid.Position) Path {
	var path Path
	for cur := goal; cur != start; cur = parent[cur] {
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type node struct {
	pos grid.Position
	g   int
	f   int
	seq uint64
}

// nodeQueue is a min-heap on f, then insertion order.
type nodeQueue []node

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq < q[j].seq
}

func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x interface{}) {
	*q = append(*q, x.(node))
}

func (q *nodeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
