package galaxy

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/simple"
)

// Lanes views the lane network as an undirected graph whose node IDs are star
// IDs. Neighbours come back in load order, so searches over it are
// reproducible.
type Lanes struct {
	g *Graph
}

var _ graph.Undirected = Lanes{}

func (g *Graph) Lanes() Lanes {
	return Lanes{g: g}
}

func (l Lanes) has(id int64) bool {
	return id >= 0 && id < int64(len(l.g.stars))
}

func (l Lanes) Node(id int64) graph.Node {
	if !l.has(id) {
		return nil
	}
	return simple.Node(id)
}

func (l Lanes) Nodes() graph.Nodes {
	nodes := make([]graph.Node, len(l.g.stars))
	for i := range nodes {
		nodes[i] = simple.Node(i)
	}
	return iterator.NewOrderedNodes(nodes)
}

func (l Lanes) From(id int64) graph.Nodes {
	if !l.has(id) {
		return iterator.NewOrderedNodes(nil)
	}
	ids := l.g.lanes[id]
	nodes := make([]graph.Node, len(ids))
	for i, n := range ids {
		nodes[i] = simple.Node(n)
	}
	return iterator.NewOrderedNodes(nodes)
}

func (l Lanes) HasEdgeBetween(xid, yid int64) bool {
	return l.EdgeBetween(xid, yid) != nil
}

func (l Lanes) Edge(uid, vid int64) graph.Edge {
	return l.EdgeBetween(uid, vid)
}

// EdgeBetween returns the lane oriented from xid to yid, or nil.
func (l Lanes) EdgeBetween(xid, yid int64) graph.Edge {
	if !l.has(xid) || !l.has(yid) {
		return nil
	}
	for _, n := range l.g.lanes[xid] {
		if n == yid {
			return simple.Edge{F: simple.Node(xid), T: simple.Node(yid)}
		}
	}
	return nil
}
