package galaxy

import (
	"log/slog"
)

// Graph is the immutable star map. It is safe for concurrent reads.
type Graph struct {
	stars       []StarDef
	index       map[Point]int
	adjacency   map[Point][]Point
	lanes       [][]int64
	connections []Connection
}

// NewGraph validates doc and builds the lookup tables. Lanes whose endpoints
// do not exactly match a point are dropped, as are self-loops and repeats.
func NewGraph(doc *Document) (*Graph, error) {
	logger := slog.With("component", "galaxy", "operation", "build_graph")

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	g := &Graph{
		stars:     make([]StarDef, len(doc.Points)),
		index:     make(map[Point]int, len(doc.Points)),
		adjacency: make(map[Point][]Point, len(doc.Points)),
		lanes:     make([][]int64, len(doc.Points)),
	}

	for i, p := range doc.Points {
		class, _ := ParseSizeClass(doc.Types[i])
		g.stars[i] = StarDef{
			ID:       i,
			Name:     doc.nameOf(i),
			Position: p,
			Class:    class,
		}
		g.index[p] = i
	}

	type edge struct{ a, b int }
	seen := make(map[edge]struct{}, len(doc.Connections))
	dropped := 0

	for _, c := range doc.Connections {
		a, okA := g.index[c[0]]
		b, okB := g.index[c[1]]
		if !okA || !okB {
			logger.Warn("Dropping connection with unknown endpoint", "from", c[0].Key(), "to", c[1].Key())
			dropped++
			continue
		}
		if a == b {
			dropped++
			continue
		}
		if a > b {
			a, b = b, a
		}
		if _, dup := seen[edge{a, b}]; dup {
			continue
		}
		seen[edge{a, b}] = struct{}{}

		pa, pb := g.stars[a].Position, g.stars[b].Position
		g.connections = append(g.connections, Connection{A: pa, B: pb})
		g.adjacency[pa] = append(g.adjacency[pa], pb)
		g.adjacency[pb] = append(g.adjacency[pb], pa)
		g.lanes[a] = append(g.lanes[a], int64(b))
		g.lanes[b] = append(g.lanes[b], int64(a))
	}

	logger.Debug("Galaxy graph built",
		"stars", len(g.stars),
		"connections", len(g.connections),
		"dropped_connections", dropped,
	)

	return g, nil
}

func (g *Graph) Len() int { return len(g.stars) }

// Stars returns the star definitions in input order.
func (g *Graph) Stars() []StarDef {
	out := make([]StarDef, len(g.stars))
	copy(out, g.stars)
	return out
}

func (g *Graph) Star(id int) (StarDef, bool) {
	if id < 0 || id >= len(g.stars) {
		return StarDef{}, false
	}
	return g.stars[id], true
}

func (g *Graph) PositionOf(id int) (Point, bool) {
	def, ok := g.Star(id)
	return def.Position, ok
}

func (g *Graph) StarAt(p Point) (StarDef, bool) {
	i, ok := g.index[p]
	if !ok {
		return StarDef{}, false
	}
	return g.stars[i], true
}

// Neighbors returns the positions directly linked to p, in load order.
// The returned slice must not be modified.
func (g *Graph) Neighbors(p Point) []Point {
	return g.adjacency[p]
}

func (g *Graph) Connections() []Connection {
	out := make([]Connection, len(g.connections))
	copy(out, g.connections)
	return out
}

// Document rebuilds an input document from the graph, dropping anything
// NewGraph discarded.
func (g *Graph) Document() *Document {
	doc := &Document{
		Points:      make([]Point, len(g.stars)),
		Types:       make([]string, len(g.stars)),
		StarNames:   make([]string, len(g.stars)),
		Connections: make([][2]Point, len(g.connections)),
	}
	for i, s := range g.stars {
		doc.Points[i] = s.Position
		doc.Types[i] = string(s.Class)
		doc.StarNames[i] = s.Name
	}
	for i, c := range g.connections {
		doc.Connections[i] = [2]Point{c.A, c.B}
	}
	return doc
}
