package galaxy

import (
	"encoding/json"
	"strings"
	"testing"

	"starconquest-server/internal/shared/errors"
)

const lineDoc = `{
	"points": [[0,0],[10,0],[20,0],[50,50]],
	"types": ["small","medium","large","gigantic"],
	"star_names": ["A","B","C"],
	"connections": [[[0,0],[10,0]], [[10,0],[20,0]], [[20,0],[10,0]], [[0,0],[0,0]], [[20,0],[99,99]]],
	"lane_details": [{"start_star":0,"end_star":1,"distance":10}]
}`

func mustGraph(t *testing.T, raw string) *Graph {
	t.Helper()
	doc, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	g, err := NewGraph(doc)
	if err != nil {
		t.Fatalf("NewGraph() error = %v", err)
	}
	return g
}

func TestNewGraph(t *testing.T) {
	g := mustGraph(t, lineDoc)

	if g.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", g.Len())
	}

	// duplicate, self-loop and dangling lanes are dropped
	if n := len(g.Connections()); n != 2 {
		t.Errorf("len(Connections()) = %d, want 2", n)
	}

	b := Point{10, 0}
	if n := g.Neighbors(b); len(n) != 2 {
		t.Errorf("Neighbors(B) = %v, want 2 entries", n)
	}
	if n := g.Neighbors(Point{50, 50}); len(n) != 0 {
		t.Errorf("Neighbors(D) = %v, want none", n)
	}

	def, ok := g.StarAt(Point{20, 0})
	if !ok || def.Name != "C" || def.Class != Large || def.ID != 2 {
		t.Errorf("StarAt(C) = %+v, %v", def, ok)
	}

	if def, _ := g.Star(3); def.Name != "Star 3" {
		t.Errorf("missing name = %q, want %q", def.Name, "Star 3")
	}

	if p, ok := g.PositionOf(1); !ok || p != b {
		t.Errorf("PositionOf(1) = %v, %v", p, ok)
	}
	if _, ok := g.PositionOf(9); ok {
		t.Error("PositionOf(9) should not exist")
	}
	if _, ok := g.StarAt(Point{10, 0.0000001}); ok {
		t.Error("StarAt must use exact equality")
	}
}

func TestNewGraphRejectsMalformedDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  *Document
	}{
		{"nil document", nil},
		{"no points", &Document{}},
		{"types not parallel", &Document{Points: []Point{{0, 0}}, Types: []string{}}},
		{"unknown class", &Document{Points: []Point{{0, 0}}, Types: []string{"huge"}}},
		{"duplicate point", &Document{Points: []Point{{1, 1}, {1, 1}}, Types: []string{"small", "small"}}},
		{"too many names", &Document{Points: []Point{{0, 0}}, Types: []string{"small"}, StarNames: []string{"a", "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph(tt.doc)
			if err == nil {
				t.Fatal("NewGraph() should fail")
			}
			if errors.GetType(err) != errors.ErrorTypeValidation {
				t.Errorf("error type = %s, want validation", errors.GetType(err))
			}
		})
	}
}

func TestParseRejectsBadPoint(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"points": [[1,2,3]], "types": ["small"]}`))
	if err == nil {
		t.Fatal("Parse() should reject a three-coordinate point")
	}
}

func TestPointJSON(t *testing.T) {
	data, err := json.Marshal(Point{1.5, -2})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[1.5,-2]" {
		t.Errorf("Marshal = %s", data)
	}
}

func TestPointKey(t *testing.T) {
	if k := (Point{0.1, 200}).Key(); k != "0.1,200" {
		t.Errorf("Key() = %q", k)
	}
	if (Point{1, 2}).Key() == (Point{12, 0}).Key() {
		t.Error("keys must be unambiguous")
	}
}

func TestGraphDocumentRoundTrip(t *testing.T) {
	g := mustGraph(t, lineDoc)
	again, err := NewGraph(g.Document())
	if err != nil {
		t.Fatalf("NewGraph(Document()) error = %v", err)
	}
	if again.Len() != g.Len() || len(again.Connections()) != len(g.Connections()) {
		t.Errorf("round trip changed the graph: %d/%d stars, %d/%d lanes",
			again.Len(), g.Len(), len(again.Connections()), len(g.Connections()))
	}
}
