// Package capture decides what happens when a force arrives at a star. It
// never mutates anything; callers apply the Outcome.
package capture

import "math"

type Kind string

// PassedThrough marks an owned waypoint a convoy flies over untouched.
const (
	Reinforced    Kind = "reinforced"
	Captured      Kind = "captured"
	Repelled      Kind = "repelled"
	PassedThrough Kind = "passed_through"
)

type Target struct {
	Owned    bool
	Resource float64
	Capacity float64
}

// Outcome is the result of a fight. Remainder is the attacking force left
// over and Resource is the star's garrison afterwards.
type Outcome struct {
	Kind      Kind    `json:"kind"`
	Captured  bool    `json:"captured"`
	Remainder float64 `json:"remainder"`
	Resource  float64 `json:"resource"`
}

// Resolve settles a force arriving at its destination. An unowned star falls
// only to a strictly larger force; the survivors become its garrison.
func Resolve(target Target, incoming float64) Outcome {
	if target.Owned {
		return Outcome{
			Kind:     Reinforced,
			Resource: math.Min(target.Resource+incoming, target.Capacity),
		}
	}

	if incoming > target.Resource {
		remainder := incoming - target.Resource
		return Outcome{
			Kind:      Captured,
			Captured:  true,
			Remainder: remainder,
			Resource:  math.Min(remainder, target.Capacity),
		}
	}

	return Outcome{
		Kind:     Repelled,
		Resource: target.Resource - incoming,
	}
}

// ResolvePassThrough settles a force crossing an intermediate star. Owned
// stars are crossed without effect. A star captured on the way starts at half
// capacity like any newly owned star, and the remainder keeps flying.
func ResolvePassThrough(target Target, incoming float64) Outcome {
	if target.Owned {
		return Outcome{
			Kind:      PassedThrough,
			Remainder: incoming,
			Resource:  target.Resource,
		}
	}

	out := Resolve(target, incoming)
	if out.Captured {
		out.Resource = math.Floor(target.Capacity / 2)
	}
	return out
}
