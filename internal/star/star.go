// Package star holds the mutable per-star state: ownership and the resource
// garrison, bounded by a capacity fixed by size class.
package star

import (
	"log/slog"
	"math"

	"starconquest-server/internal/galaxy"
)

const (
	// GrowthRate is resource per second at an owned star.
	GrowthRate = 0.5

	// UnownedGrowthFactor scales GrowthRate for unowned stars.
	UnownedGrowthFactor = 0.2
)

var capacities = map[galaxy.SizeClass]float64{
	galaxy.Small:    30,
	galaxy.Medium:   50,
	galaxy.Large:    80,
	galaxy.Gigantic: 100,
}

// Visual is handed to the renderer untouched.
type Visual struct {
	Color    uint32  `json:"color"`
	Size     float64 `json:"size"`
	Emissive float64 `json:"emissive"`
}

var visuals = map[galaxy.SizeClass]Visual{
	galaxy.Gigantic: {Color: 0xff5500, Size: 6, Emissive: 1.5},
	galaxy.Large:    {Color: 0x229933, Size: 5, Emissive: 1.3},
	galaxy.Medium:   {Color: 0xff2222, Size: 4, Emissive: 1.6},
	galaxy.Small:    {Color: 0x00aaff, Size: 3, Emissive: 2.0},
}

func Capacity(class galaxy.SizeClass) float64 {
	return capacities[class]
}

func VisualOf(class galaxy.SizeClass) Visual {
	return visuals[class]
}

type Star struct {
	ID       int              `json:"id"`
	Name     string           `json:"name"`
	Position galaxy.Point     `json:"position"`
	Class    galaxy.SizeClass `json:"class"`
	Resource float64          `json:"resource"`
	Owned    bool             `json:"owned"`
	Selected bool             `json:"selected"`
}

// New creates an unowned star garrisoned to capacity.
func New(def galaxy.StarDef) *Star {
	return &Star{
		ID:       def.ID,
		Name:     def.Name,
		Position: def.Position,
		Class:    def.Class,
		Resource: Capacity(def.Class),
	}
}

func (s *Star) Capacity() float64 {
	return Capacity(s.Class)
}

// Label is the integer the renderer shows next to the star.
func (s *Star) Label() int {
	return int(math.Floor(s.Resource))
}

// Regenerate grows the garrison for elapsed seconds. Unowned stars grow at a
// fifth of the owned rate.
func (s *Star) Regenerate(elapsed float64) {
	if !(elapsed > 0) || math.IsInf(elapsed, 0) {
		return
	}
	rate := GrowthRate
	if !s.Owned {
		rate *= UnownedGrowthFactor
	}
	s.Resource = math.Min(s.Resource+rate*elapsed, s.Capacity())
}

// MarkOwned takes ownership and resets the garrison to half capacity. It
// reports false, and changes nothing, when the star is already owned.
func (s *Star) MarkOwned() bool {
	if s.Owned {
		return false
	}
	s.Owned = true
	s.Resource = math.Floor(s.Capacity() / 2)
	return true
}

// Capture flips ownership and installs garrison as the new resource.
func (s *Star) Capture(garrison float64) {
	s.Owned = true
	s.set(garrison, "capture")
}

func (s *Star) Reinforce(amount float64) {
	s.set(math.Min(s.Resource+amount, s.Capacity()), "reinforce")
}

// Absorb removes an attacking force from an unowned star's defence.
func (s *Star) Absorb(amount float64) {
	s.set(s.Resource-amount, "absorb")
}

func (s *Star) Withdraw(amount float64) {
	s.set(s.Resource-amount, "withdraw")
}

func (s *Star) set(v float64, op string) {
	s.Resource = Clamp(v, s.Capacity(), s.ID, op)
}

// Clamp bounds v to [0, capacity]. Any value that needed clamping is a
// broken invariant and is logged as such.
func Clamp(v, capacity float64, id int, op string) float64 {
	switch {
	case math.IsNaN(v):
		slog.Error("Star resource is not a number", "component", "star", "operation", op, "star_id", id)
		return 0
	case v < 0:
		slog.Error("Star resource below zero", "component", "star", "operation", op, "star_id", id, "value", v)
		return 0
	case v > capacity:
		slog.Error("Star resource above capacity", "component", "star", "operation", op, "star_id", id, "value", v, "capacity", capacity)
		return capacity
	}
	return v
}
