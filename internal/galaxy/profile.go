package galaxy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"starconquest-server/internal/shared/errors"
)

// Profile shapes a generated galaxy. Each entry of RowSegments is the number
// of segments in that row, centred within Columns.
type Profile struct {
	Name                  string  `yaml:"name" json:"name"`
	Width                 float64 `yaml:"width" json:"width"`
	Height                float64 `yaml:"height" json:"height"`
	Columns               int     `yaml:"columns" json:"columns"`
	RowSegments           []int   `yaml:"row_segments" json:"row_segments"`
	StarsPerSegment       int     `yaml:"stars_per_segment" json:"stars_per_segment"`
	MinDistance           float64 `yaml:"min_distance" json:"min_distance"`
	MaxConnectionDistance float64 `yaml:"max_connection_distance" json:"max_connection_distance"`
	NeighborCandidates    int     `yaml:"neighbor_candidates" json:"neighbor_candidates"`
}

// DefaultProfile is a lens shaped galaxy of a few hundred stars.
func DefaultProfile() Profile {
	return Profile{
		Name:                  "lens",
		Width:                 1200,
		Height:                900,
		Columns:               12,
		RowSegments:           []int{2, 4, 6, 8, 10, 12, 12, 10, 8, 6, 4, 2},
		StarsPerSegment:       3,
		MinDistance:           5,
		MaxConnectionDistance: 110,
		NeighborCandidates:    6,
	}
}

// LoadProfile reads a YAML profile. Fields left out keep their default.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read generator profile: %w", err)
	}
	return ParseProfile(data)
}

func ParseProfile(data []byte) (Profile, error) {
	profile := DefaultProfile()
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return Profile{}, errors.WrapValidation("malformed generator profile", err)
	}
	if err := profile.Validate(); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

func (p Profile) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return errors.Validation("profile width and height must be positive")
	}
	if p.Columns <= 0 {
		return errors.Validation("profile columns must be positive")
	}
	if len(p.RowSegments) == 0 {
		return errors.Validation("profile needs at least one row")
	}
	for i, n := range p.RowSegments {
		if n < 0 || n > p.Columns {
			return errors.Validationf("row %d has %d segments, want 0..%d", i, n, p.Columns)
		}
	}
	if p.StarsPerSegment <= 0 {
		return errors.Validation("profile stars_per_segment must be positive")
	}
	if p.MinDistance < 0 {
		return errors.Validation("profile min_distance must not be negative")
	}
	if p.MaxConnectionDistance <= 0 {
		return errors.Validation("profile max_connection_distance must be positive")
	}
	if p.NeighborCandidates <= 0 {
		return errors.Validation("profile neighbor_candidates must be positive")
	}
	return nil
}
