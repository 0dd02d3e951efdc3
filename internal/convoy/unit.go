package convoy

import (
	"fmt"

	"starconquest-server/internal/galaxy"
	"starconquest-server/internal/vecmath"
)

const (
	MinSpeed    = 0.002
	MaxSpeed    = 0.004
	SpawnSpread = 2.0
)

type CarryModel string

const (
	// Batch sends one unit carrying the whole dispatched amount.
	Batch CarryModel = "batch"
	// PerUnit sends one unit per resource point, each carrying 1.
	PerUnit CarryModel = "per_unit"
)

func ParseCarryModel(s string) (CarryModel, error) {
	switch m := CarryModel(s); m {
	case Batch, PerUnit:
		return m, nil
	case "":
		return Batch, nil
	}
	return "", fmt.Errorf("unknown carry model %q", s)
}

// Unit is one convoy in flight. Path is shared between units of the same
// dispatch and must not be modified.
type Unit struct {
	ID       string         `json:"id"`
	Source   int            `json:"source"`
	Target   int            `json:"target"`
	Amount   float64        `json:"amount"`
	Path     []galaxy.Point `json:"path"`
	Segment  int            `json:"segment"`
	Progress float64        `json:"progress"`
	Speed    float64        `json:"speed"`
	Position vecmath.Vec2   `json:"position"`
	Velocity vecmath.Vec2   `json:"velocity"`
	Heading  float64        `json:"heading"`
}

// NextWaypoint is the end of the segment the unit is flying.
func (u *Unit) NextWaypoint() galaxy.Point {
	if u.Segment+1 < len(u.Path) {
		return u.Path[u.Segment+1]
	}
	return u.Path[len(u.Path)-1]
}

// pathPoint is where the unit would be without any flocking drift.
func (u *Unit) pathPoint() vecmath.Vec2 {
	return vecmath.Lerp(toVec(u.Path[u.Segment]), toVec(u.NextWaypoint()), u.Progress)
}

func (u *Unit) segmentHeading() float64 {
	return toVec(u.NextWaypoint()).Sub(toVec(u.Path[u.Segment])).Normalize().Angle()
}

func toVec(p galaxy.Point) vecmath.Vec2 {
	return vecmath.Vec2{X: p.X, Y: p.Y}
}
