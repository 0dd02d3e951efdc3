package game

import (
	"starconquest-server/internal/convoy"
	"starconquest-server/internal/galaxy"
	"starconquest-server/internal/star"
	"starconquest-server/internal/vecmath"
)

type Options struct {
	HomeStar           int
	CarryModel         convoy.CarryModel
	PassThroughCapture bool
	Seed               uint64
}

func DefaultOptions() Options {
	return Options{
		CarryModel:         convoy.Batch,
		PassThroughCapture: true,
		Seed:               1,
	}
}

type DispatchStatus string

const (
	DispatchSent     DispatchStatus = "sent"
	DispatchRejected DispatchStatus = "rejected"
	DispatchNoPath   DispatchStatus = "no_path"
	DispatchEmpty    DispatchStatus = "empty"
)

// DispatchResult describes one send. Anything but DispatchSent left the game
// untouched.
type DispatchResult struct {
	From      int            `json:"from"`
	To        int            `json:"to"`
	Status    DispatchStatus `json:"status"`
	Reason    string         `json:"reason,omitempty"`
	Sent      float64        `json:"sent"`
	Remaining float64        `json:"remaining"`
	Hops      int            `json:"hops"`
	Convoys   []string       `json:"convoys,omitempty"`
}

type StarView struct {
	star.Star
	Capacity float64 `json:"capacity"`
	Label    int     `json:"label"`
	Location string  `json:"location"`
}

type ConvoyView struct {
	ID       string         `json:"id"`
	Source   int            `json:"source"`
	Target   int            `json:"target"`
	Amount   float64        `json:"amount"`
	Position vecmath.Vec2   `json:"position"`
	Heading  float64        `json:"heading"`
	Segment  int            `json:"segment"`
	Progress float64        `json:"progress"`
	Path     []galaxy.Point `json:"path"`
}

type Snapshot struct {
	SessionID  string       `json:"session_id"`
	Tick       uint64       `json:"tick"`
	CarryModel string       `json:"carry_model"`
	TotalStars int          `json:"total_stars"`
	OwnedStars int          `json:"owned_stars"`
	Selection  []int        `json:"selection"`
	Stars      []StarView   `json:"stars"`
	Convoys    []ConvoyView `json:"convoys"`
}

// GalaxyStar is the static part of a star the renderer draws once.
type GalaxyStar struct {
	ID       int              `json:"id"`
	Name     string           `json:"name"`
	Position galaxy.Point     `json:"position"`
	Class    galaxy.SizeClass `json:"class"`
	Capacity float64          `json:"capacity"`
	Visual   star.Visual      `json:"visual"`
}

type GalaxyView struct {
	Stars       []GalaxyStar        `json:"stars"`
	Connections []galaxy.Connection `json:"connections"`
}

func newConvoyView(u convoy.Unit) ConvoyView {
	return ConvoyView{
		ID:       u.ID,
		Source:   u.Source,
		Target:   u.Target,
		Amount:   u.Amount,
		Position: u.Position,
		Heading:  u.Heading,
		Segment:  u.Segment,
		Progress: u.Progress,
		Path:     u.Path,
	}
}
