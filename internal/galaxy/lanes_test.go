package galaxy

import (
	"reflect"
	"testing"

	"gonum.org/v1/gonum/graph"
)

func nodeIDs(nodes graph.Nodes) []int64 {
	var ids []int64
	for nodes.Next() {
		ids = append(ids, nodes.Node().ID())
	}
	return ids
}

func TestLanes(t *testing.T) {
	lanes := mustGraph(t, lineDoc).Lanes()

	if got := nodeIDs(lanes.Nodes()); !reflect.DeepEqual(got, []int64{0, 1, 2, 3}) {
		t.Errorf("Nodes() = %v", got)
	}
	if got := nodeIDs(lanes.From(1)); !reflect.DeepEqual(got, []int64{0, 2}) {
		t.Errorf("From(1) = %v, want [0 2] in load order", got)
	}
	if got := nodeIDs(lanes.From(3)); len(got) != 0 {
		t.Errorf("From(3) = %v, want none", got)
	}
	if got := nodeIDs(lanes.From(42)); len(got) != 0 {
		t.Errorf("From(42) = %v, want none", got)
	}
	if lanes.Node(42) != nil {
		t.Error("Node(42) should be nil")
	}

	tests := []struct {
		x, y int64
		want bool
	}{
		{0, 1, true},
		{1, 0, true},
		{1, 2, true},
		{0, 2, false},
		{2, 3, false},
		{0, 0, false},
		{0, 42, false},
	}
	for _, tt := range tests {
		if got := lanes.HasEdgeBetween(tt.x, tt.y); got != tt.want {
			t.Errorf("HasEdgeBetween(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}

	e := lanes.Edge(2, 1)
	if e == nil || e.From().ID() != 2 || e.To().ID() != 1 {
		t.Errorf("Edge(2, 1) = %v, want oriented 2->1", e)
	}
}
