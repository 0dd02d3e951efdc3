package galaxy

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"starconquest-server/internal/shared/errors"
)

func Parse(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.WrapValidation("malformed galaxy document", err)
	}
	return &doc, nil
}

func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open galaxy file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Validate checks the star tables. Connections are not checked here since a
// dangling lane is dropped rather than rejected.
func (d *Document) Validate() error {
	if d == nil || len(d.Points) == 0 {
		return errors.Validation("galaxy document has no points")
	}

	if len(d.Types) != len(d.Points) {
		return errors.Validationf("galaxy document has %d points but %d types", len(d.Points), len(d.Types))
	}

	if len(d.StarNames) > len(d.Points) {
		return errors.Validationf("galaxy document has %d points but %d star names", len(d.Points), len(d.StarNames))
	}

	seen := make(map[Point]int, len(d.Points))
	for i, p := range d.Points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return errors.Validationf("point %d has a non-finite coordinate", i)
		}
		if j, ok := seen[p]; ok {
			return errors.Validationf("points %d and %d share position %s", j, i, p)
		}
		seen[p] = i

		if _, err := ParseSizeClass(d.Types[i]); err != nil {
			return errors.WrapValidation(fmt.Sprintf("star %d", i), err)
		}
	}

	return nil
}

func (d *Document) nameOf(i int) string {
	if i < len(d.StarNames) && d.StarNames[i] != "" {
		return d.StarNames[i]
	}
	return fmt.Sprintf("Star %d", i)
}

func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	return enc.Encode(d)
}
