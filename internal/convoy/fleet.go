// Package convoy moves dispatched resource along its path. Units drift with a
// small amount of flocking around the exact route but never leave it.
package convoy

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"starconquest-server/internal/galaxy"
	"starconquest-server/internal/vecmath"
)

const (
	NeighborRadius   = 5.0
	CohesionWeight   = 0.005
	SeparationWeight = 0.05
	AlignmentWeight  = 0.01
	MaxSteer         = 0.1
	PathPull         = 0.9

	// neighbours at least this far in front of a unit are ignored
	aheadCutoff = 0.5
)

var defaultHeading = vecmath.Vec2{X: 0, Y: 1}

// Resolver applies the game rules when a unit reaches a star.
type Resolver interface {
	// PassThrough settles a unit crossing an intermediate star and returns the
	// force that keeps flying. Zero or less destroys the unit.
	PassThrough(u *Unit, waypoint galaxy.Point) float64
	// Arrive settles a unit at its destination. The unit is removed afterwards.
	Arrive(u *Unit)
}

// Report lists what happened to units during one Advance.
type Report struct {
	Moved    []Unit
	Arrived  []Unit
	Absorbed []Unit
}

type Fleet struct {
	units []*Unit
	model CarryModel
	rng   *rand.Rand
}

func NewFleet(model CarryModel, rng *rand.Rand) *Fleet {
	if model == "" {
		model = Batch
	}
	return &Fleet{model: model, rng: rng}
}

func (f *Fleet) Model() CarryModel { return f.model }

func (f *Fleet) Len() int { return len(f.units) }

// Units returns copies of the live units.
func (f *Fleet) Units() []Unit {
	out := make([]Unit, len(f.units))
	for i, u := range f.units {
		out[i] = *u
	}
	return out
}

// Spawn launches amount along path. Nothing is spawned for a zero amount or
// a path without a single lane.
func (f *Fleet) Spawn(source, target int, path []galaxy.Point, amount float64) []Unit {
	if amount <= 0 || len(path) < 2 {
		return nil
	}

	count, each := 1, amount
	if f.model == PerUnit {
		count, each = int(amount), 1
	}

	spawned := make([]Unit, 0, count)
	for i := 0; i < count; i++ {
		jitter := vecmath.Vec2{
			X: (f.rng.Float64() - 0.5) * SpawnSpread,
			Y: (f.rng.Float64() - 0.5) * SpawnSpread,
		}
		u := &Unit{
			ID:       uuid.NewString(),
			Source:   source,
			Target:   target,
			Amount:   each,
			Path:     path,
			Speed:    MinSpeed + f.rng.Float64()*(MaxSpeed-MinSpeed),
			Position: toVec(path[0]).Add(jitter),
		}
		u.Heading = u.segmentHeading()
		f.units = append(f.units, u)
		spawned = append(spawned, *u)
	}
	return spawned
}

// Advance moves every unit one tick. Flocking reads the positions all units
// had when the tick started, so the result does not depend on unit order.
func (f *Fleet) Advance(resolver Resolver) Report {
	var report Report
	if len(f.units) == 0 {
		return report
	}

	snapshot := make([]Unit, len(f.units))
	for i, u := range f.units {
		snapshot[i] = *u
	}

	live := f.units[:0]
	for i, u := range f.units {
		steer := flock(snapshot, i)
		u.Velocity = u.Velocity.Add(steer.Sub(u.Velocity).ClampLen(MaxSteer)).ClampLen(MaxSteer)

		u.Progress += u.Speed
		if u.Progress >= 1 {
			u.Segment++
			u.Progress = 0

			if u.Segment >= len(u.Path)-1 {
				resolver.Arrive(u)
				report.Arrived = append(report.Arrived, *u)
				continue
			}

			remaining := resolver.PassThrough(u, u.Path[u.Segment])
			if remaining <= 0 {
				report.Absorbed = append(report.Absorbed, *u)
				continue
			}
			u.Amount = remaining
		}

		flocked := u.Position.Add(u.Velocity)
		u.Position = u.pathPoint().Scale(PathPull).Add(flocked.Scale(1 - PathPull))
		u.Heading = u.segmentHeading()

		live = append(live, u)
		report.Moved = append(report.Moved, *u)
	}

	for i := len(live); i < len(f.units); i++ {
		f.units[i] = nil
	}
	f.units = live

	return report
}

// flock computes the desired steering for units[i] from its neighbours.
func flock(units []Unit, i int) vecmath.Vec2 {
	self := units[i]

	heading := self.Velocity.Normalize()
	if heading == (vecmath.Vec2{}) {
		heading = defaultHeading
	}

	var centroid, separation, alignment vecmath.Vec2
	neighbours := 0

	for j := range units {
		if j == i {
			continue
		}
		other := units[j]
		offset := other.Position.Sub(self.Position)
		d := offset.Len()
		if d >= NeighborRadius || offset.Normalize().Dot(heading) >= aheadCutoff {
			continue
		}
		neighbours++

		centroid = centroid.Add(other.Position)
		if d > 0 {
			separation = separation.Add(offset.Scale(-1).Normalize().Scale(1 / d))
		}
		alignment = alignment.Add(toVec(other.NextWaypoint()).Sub(other.Position).Normalize())
	}

	if neighbours == 0 {
		return vecmath.Vec2{}
	}

	n := float64(neighbours)
	cohesion := centroid.Scale(1 / n).Sub(self.Position).Normalize().Scale(CohesionWeight)
	separation = separation.Normalize().Scale(SeparationWeight)
	alignment = alignment.Scale(1 / n).Normalize().Scale(AlignmentWeight)

	return cohesion.Add(separation).Add(alignment).ClampLen(MaxSteer)
}
