package galaxy

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
)

var connectionCaps = map[SizeClass]int{
	Gigantic: 7,
	Large:    5,
	Medium:   3,
	Small:    3,
}

const maxConnectionCap = 7

var (
	namePrefixes = []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta", "Eta", "Theta", "Iota", "Kappa"}
	nameSuffixes = []string{"Prime", "Major", "Minor", "Secundus", "Tertius", "Quartus", "Quintus", "Sextus", "Septimus", "Octavus"}
)

type generator struct {
	profile Profile
	rng     *rand.Rand

	points  []Point
	classes []SizeClass
	counts  []int
	edges   [][2]int
	grid    map[[2]int][]int
	cell    float64
}

// Generate builds a connected galaxy document from profile. The same seed
// always yields the same document.
func Generate(profile Profile, rng *rand.Rand) (*Document, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	logger := slog.With("component", "galaxy_generator", "operation", "generate", "profile", profile.Name)

	g := &generator{
		profile: profile,
		rng:     rng,
		grid:    make(map[[2]int][]int),
		cell:    profile.MaxConnectionDistance,
	}

	segW := profile.Width / float64(profile.Columns)
	segH := profile.Height / float64(len(profile.RowSegments))

	for row, segments := range profile.RowSegments {
		startX := float64(profile.Columns-segments) * segW / 2
		for col := 0; col < segments; col++ {
			g.fillSegment(startX+float64(col)*segW, float64(row)*segH, segW, segH)
		}
	}

	bridged := g.repair()
	doc := g.largestComponent()

	logger.Info("Galaxy generated",
		"stars", len(doc.Points),
		"connections", len(doc.Connections),
		"placed", len(g.points),
		"bridges", bridged,
	)

	return doc, nil
}

func (g *generator) drawClass() SizeClass {
	r := g.rng.Float64()
	switch {
	case r < 0.0667:
		return Gigantic
	case r < 0.2:
		return Large
	case r < 0.4667:
		return Medium
	default:
		return Small
	}
}

func (g *generator) cellOf(p Point) [2]int {
	return [2]int{int(math.Floor(p.X / g.cell)), int(math.Floor(p.Y / g.cell))}
}

// nearby returns indexes of placed points within radius of p.
func (g *generator) nearby(p Point, radius float64) []int {
	c := g.cellOf(p)
	var out []int
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for _, i := range g.grid[[2]int{c[0] + dx, c[1] + dy}] {
				if dist(p, g.points[i]) <= radius {
					out = append(out, i)
				}
			}
		}
	}
	return out
}

func (g *generator) fillSegment(x, y, w, h float64) {
	placed := 0
	for attempts := 0; placed < g.profile.StarsPerSegment && attempts < g.profile.StarsPerSegment*10; attempts++ {
		p := Point{X: x + g.rng.Float64()*w, Y: y + g.rng.Float64()*h}

		tooClose := false
		for _, i := range g.nearby(p, g.profile.MinDistance) {
			if dist(p, g.points[i]) < g.profile.MinDistance || p == g.points[i] {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}

		g.add(p, g.drawClass())
		placed++
	}
}

func (g *generator) add(p Point, class SizeClass) {
	idx := len(g.points)

	candidates := g.nearby(p, g.profile.MaxConnectionDistance)
	sort.Slice(candidates, func(a, b int) bool {
		return dist(p, g.points[candidates[a]]) < dist(p, g.points[candidates[b]])
	})
	if len(candidates) > g.profile.NeighborCandidates {
		candidates = candidates[:g.profile.NeighborCandidates]
	}

	g.points = append(g.points, p)
	g.classes = append(g.classes, class)
	g.counts = append(g.counts, 0)
	c := g.cellOf(p)
	g.grid[c] = append(g.grid[c], idx)

	for _, other := range candidates {
		capA, capB := connectionCaps[class], connectionCaps[g.classes[other]]
		if g.counts[idx] >= capA || g.counts[other] >= capB {
			continue
		}
		keep := float64(min(capA, capB)) / maxConnectionCap
		if g.rng.Float64() < keep {
			g.link(idx, other)
		}
	}
}

func (g *generator) link(a, b int) {
	g.edges = append(g.edges, [2]int{a, b})
	g.counts[a]++
	g.counts[b]++
}

func (g *generator) components() [][]int {
	parent := make([]int, len(g.points))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for _, e := range g.edges {
		ra, rb := find(e[0]), find(e[1])
		if ra != rb {
			parent[ra] = rb
		}
	}

	byRoot := make(map[int][]int)
	var roots []int
	for i := range g.points {
		r := find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], i)
	}

	out := make([][]int, 0, len(roots))
	for _, r := range roots {
		out = append(out, byRoot[r])
	}
	sort.SliceStable(out, func(a, b int) bool { return len(out[a]) > len(out[b]) })
	return out
}

// repair bridges stray components into the largest one through their closest
// pair of stars, as long as that pair is within lane range. Components that
// cannot be reached are left for largestComponent to discard.
func (g *generator) repair() int {
	bridges := 0
	for {
		comps := g.components()
		if len(comps) <= 1 {
			return bridges
		}

		added := 0
		main := make(map[int]bool, len(comps[0]))
		for _, i := range comps[0] {
			main[i] = true
		}
		for _, comp := range comps[1:] {
			bestA, bestB, best := -1, -1, math.Inf(1)
			for _, b := range comp {
				for _, a := range g.nearby(g.points[b], g.profile.MaxConnectionDistance) {
					if !main[a] {
						continue
					}
					if d := dist(g.points[a], g.points[b]); d < best {
						bestA, bestB, best = a, b, d
					}
				}
			}
			if bestA >= 0 {
				g.link(bestA, bestB)
				added++
			}
		}

		bridges += added
		if added == 0 {
			return bridges
		}
	}
}

func (g *generator) largestComponent() *Document {
	comps := g.components()
	keep := comps[0]
	sort.Ints(keep)

	remap := make(map[int]int, len(keep))
	doc := &Document{
		Points:    make([]Point, 0, len(keep)),
		Types:     make([]string, 0, len(keep)),
		StarNames: make([]string, 0, len(keep)),
	}
	for _, old := range keep {
		remap[old] = len(doc.Points)
		doc.Points = append(doc.Points, g.points[old])
		doc.Types = append(doc.Types, string(g.classes[old]))
		doc.StarNames = append(doc.StarNames, g.starName())
	}

	for _, e := range g.edges {
		a, okA := remap[e[0]]
		b, okB := remap[e[1]]
		if !okA || !okB {
			continue
		}
		pa, pb := doc.Points[a], doc.Points[b]
		doc.Connections = append(doc.Connections, [2]Point{pa, pb})
		doc.LaneDetails = append(doc.LaneDetails, LaneDetail{StartStar: a, EndStar: b, Distance: dist(pa, pb)})
	}

	return doc
}

func (g *generator) starName() string {
	return fmt.Sprintf("%s %s-%d",
		namePrefixes[g.rng.IntN(len(namePrefixes))],
		nameSuffixes[g.rng.IntN(len(nameSuffixes))],
		1+g.rng.IntN(1000),
	)
}

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
