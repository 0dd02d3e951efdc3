package galaxy

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"starconquest-server/internal/shared/errors"
)

// Point is an exact star position. Two points are the same star only when
// both coordinates are bit-for-bit equal.
type Point struct {
	X float64
	Y float64
}

// Key is the canonical string form used wherever a point needs a map key
// outside of Go (visited sets, JSON object keys, logs).
func (p Point) Key() string {
	return strconv.FormatFloat(p.X, 'g', -1, 64) + "," + strconv.FormatFloat(p.Y, 'g', -1, 64)
}

func (p Point) String() string {
	return "(" + p.Key() + ")"
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("point must be an [x, y] pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("point must have exactly 2 coordinates, got %d", len(pair))
	}
	p.X, p.Y = pair[0], pair[1]
	return nil
}

type SizeClass string

const (
	Gigantic SizeClass = "gigantic"
	Large    SizeClass = "large"
	Medium   SizeClass = "medium"
	Small    SizeClass = "small"
)

// SizeClasses lists the tiers from biggest to smallest.
var SizeClasses = []SizeClass{Gigantic, Large, Medium, Small}

func ParseSizeClass(s string) (SizeClass, error) {
	switch c := SizeClass(s); c {
	case Gigantic, Large, Medium, Small:
		return c, nil
	}
	return "", errors.Validationf("unknown size class %q", s)
}

// StarDef is the immutable part of a star, fixed when the graph loads.
type StarDef struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Position Point     `json:"position"`
	Class    SizeClass `json:"class"`
}

// Connection is an undirected lane between two star positions.
type Connection struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// LaneDetail is written by the generator next to the raw connections.
type LaneDetail struct {
	StartStar int     `json:"start_star"`
	EndStar   int     `json:"end_star"`
	Distance  float64 `json:"distance"`
}

// Document is the input data object a galaxy is loaded from.
type Document struct {
	Points      []Point      `json:"points"`
	Types       []string     `json:"types"`
	StarNames   []string     `json:"star_names,omitempty"`
	Connections [][2]Point   `json:"connections"`
	LaneDetails []LaneDetail `json:"lane_details,omitempty"`
}

// CatalogEntry is a stored galaxy map without its document body.
type CatalogEntry struct {
	Name            string    `json:"name"`
	StarCount       int       `json:"star_count"`
	ConnectionCount int       `json:"connection_count"`
	CreatedAt       time.Time `json:"created_at"`
}
