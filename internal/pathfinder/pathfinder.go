// Package pathfinder routes convoys over the lane graph. Every lane costs the
// same, so the shortest route is the one with the fewest hops.
package pathfinder

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"starconquest-server/internal/galaxy"
)

// FindPath runs a breadth-first search from one star position to another and
// returns every waypoint including both ends. The bool is false when to
// cannot be reached from from.
func FindPath(g *galaxy.Graph, from, to galaxy.Point) ([]galaxy.Point, bool) {
	src, ok := g.StarAt(from)
	if !ok {
		return nil, false
	}
	dst, ok := g.StarAt(to)
	if !ok {
		return nil, false
	}

	start, goal := int64(src.ID), int64(dst.ID)

	// The first lane that reaches a star is the one that enqueues it.
	parent := map[int64]int64{}
	bfs := traverse.BreadthFirst{
		Traverse: func(e graph.Edge) bool {
			next := e.To().ID()
			if _, seen := parent[next]; !seen && next != start {
				parent[next] = e.From().ID()
			}
			return true
		},
	}

	found := bfs.Walk(g.Lanes(), simple.Node(start), func(n graph.Node, _ int) bool {
		return n.ID() == goal
	})
	if found == nil {
		return nil, false
	}
	return walkBack(g, parent, start, goal), true
}

func walkBack(g *galaxy.Graph, parent map[int64]int64, start, goal int64) []galaxy.Point {
	var path []galaxy.Point
	for id := goal; ; id = parent[id] {
		p, _ := g.PositionOf(int(id))
		path = append(path, p)
		if id == start {
			break
		}
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Hops is the number of lanes a path crosses.
func Hops(path []galaxy.Point) int {
	if len(path) == 0 {
		return 0
	}
	return len(path) - 1
}
