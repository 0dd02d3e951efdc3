// Package spatial names the region of the map a position falls in. The map
// is split into a 2x2 grid of quadrants, each made of 5x5 segments.
package spatial

import (
	"fmt"
	"math"

	"starconquest-server/internal/galaxy"
)

const (
	SegmentSize         = 100
	SegmentsPerQuadrant = 5
)

var Quadrants = []string{"Alpha", "Beta", "Gamma", "Delta"}

type Location struct {
	Quadrant string `json:"quadrant"`
	SegmentX int    `json:"segment_x"`
	SegmentY int    `json:"segment_y"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s Quadrant, Segment (%d, %d)", l.Quadrant, l.SegmentX, l.SegmentY)
}

// Locate maps a position to its quadrant and segment. Positions outside the
// 2x2 quadrant grid are attributed to the nearest quadrant.
func Locate(p galaxy.Point) Location {
	gridX := int(math.Floor(p.X / SegmentSize))
	gridY := int(math.Floor(p.Y / SegmentSize))

	qx := clamp(floorDiv(gridX, SegmentsPerQuadrant), 0, 1)
	qy := clamp(floorDiv(gridY, SegmentsPerQuadrant), 0, 1)

	return Location{
		Quadrant: Quadrants[qy*2+qx],
		SegmentX: floorMod(gridX, SegmentsPerQuadrant),
		SegmentY: floorMod(gridY, SegmentsPerQuadrant),
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
