package star

import (
	"math"
	"testing"

	"starconquest-server/internal/galaxy"
)

func newStar(class galaxy.SizeClass) *Star {
	return New(galaxy.StarDef{ID: 1, Name: "S", Class: class})
}

func TestCapacityTable(t *testing.T) {
	want := map[galaxy.SizeClass]float64{
		galaxy.Small:    30,
		galaxy.Medium:   50,
		galaxy.Large:    80,
		galaxy.Gigantic: 100,
	}
	for class, c := range want {
		if got := Capacity(class); got != c {
			t.Errorf("Capacity(%s) = %v, want %v", class, got, c)
		}
	}
}

func TestNewStartsUnownedAtCapacity(t *testing.T) {
	s := newStar(galaxy.Medium)
	if s.Owned || s.Resource != 50 {
		t.Errorf("New() = %+v", s)
	}
}

func TestMarkOwnedSeedsHalfCapacity(t *testing.T) {
	for _, prior := range []float64{0, 13.7, 80} {
		s := newStar(galaxy.Large)
		s.Resource = prior
		if !s.MarkOwned() {
			t.Fatal("MarkOwned() on an unowned star should report a change")
		}
		if s.Resource != 40 {
			t.Errorf("prior %v: Resource = %v, want 40", prior, s.Resource)
		}
	}

	s := newStar(galaxy.Small)
	s.MarkOwned()
	s.Resource = 22
	if s.MarkOwned() {
		t.Error("MarkOwned() on an owned star should be a no-op")
	}
	if s.Resource != 22 {
		t.Errorf("Resource = %v, want unchanged 22", s.Resource)
	}
}

func TestRegenerate(t *testing.T) {
	owned := newStar(galaxy.Small)
	owned.MarkOwned() // 15
	owned.Regenerate(2)
	if owned.Resource != 16 {
		t.Errorf("owned Resource = %v, want 16", owned.Resource)
	}

	unowned := newStar(galaxy.Small)
	unowned.Resource = 0
	unowned.Regenerate(10)
	if math.Abs(unowned.Resource-1) > 1e-9 {
		t.Errorf("unowned Resource = %v, want 1", unowned.Resource)
	}

	unowned.Regenerate(-5)
	unowned.Regenerate(math.NaN())
	if math.Abs(unowned.Resource-1) > 1e-9 {
		t.Errorf("negative or NaN elapsed changed Resource to %v", unowned.Resource)
	}
}

func TestRegenerateBoundsAndMonotonicity(t *testing.T) {
	for _, class := range galaxy.SizeClasses {
		for _, owned := range []bool{true, false} {
			s := newStar(class)
			s.Owned = owned
			s.Resource = 0
			prev := s.Resource
			for tick := 0; tick < 5000; tick++ {
				s.Regenerate(1.0 / 60)
				if s.Resource < prev {
					t.Fatalf("%s owned=%v: resource decreased %v -> %v", class, owned, prev, s.Resource)
				}
				if s.Resource < 0 || s.Resource > s.Capacity() {
					t.Fatalf("%s owned=%v: resource %v out of [0,%v]", class, owned, s.Resource, s.Capacity())
				}
				prev = s.Resource
			}
		}
	}

	s := newStar(galaxy.Small)
	s.Owned = true
	s.Resource = 29.9
	s.Regenerate(100)
	if s.Resource != 30 {
		t.Errorf("Resource = %v, want clamp at 30", s.Resource)
	}
}

func TestMutatorsClamp(t *testing.T) {
	s := newStar(galaxy.Small)
	s.Reinforce(100)
	if s.Resource != 30 {
		t.Errorf("Reinforce overflow = %v, want 30", s.Resource)
	}
	s.Withdraw(40)
	if s.Resource != 0 {
		t.Errorf("Withdraw underflow = %v, want 0", s.Resource)
	}
	s.Capture(12)
	if !s.Owned || s.Resource != 12 {
		t.Errorf("Capture(12) = %+v", s)
	}
	s.Capture(math.NaN())
	if s.Resource != 0 {
		t.Errorf("Capture(NaN) = %v, want 0", s.Resource)
	}
}

func TestLabel(t *testing.T) {
	s := newStar(galaxy.Small)
	s.Resource = 14.99
	if s.Label() != 14 {
		t.Errorf("Label() = %d, want 14", s.Label())
	}
}

func TestVisualOf(t *testing.T) {
	if v := VisualOf(galaxy.Gigantic); v.Color != 0xff5500 || v.Size != 6 || v.Emissive != 1.5 {
		t.Errorf("VisualOf(gigantic) = %+v", v)
	}
}
