// Package events carries what the simulation reports to the outside world:
// the renderer, the redis channel and the journal.
package events

import (
	"sync"

	"starconquest-server/internal/capture"
	"starconquest-server/internal/vecmath"
)

type Type string

const (
	StarOwned           Type = "star_owned"
	StarResourceChanged Type = "star_resource_changed"
	StarCountChanged    Type = "star_count_changed"
	ConvoySpawned       Type = "convoy_spawned"
	ConvoyMoved         Type = "convoy_moved"
	ConvoyRemoved       Type = "convoy_removed"
	CaptureResolved     Type = "capture_resolved"
	TickCompleted       Type = "tick_completed"
)

// Lifecycle reports whether t changes the shape of the game rather than
// following from it every tick.
func (t Type) Lifecycle() bool {
	switch t {
	case ConvoyMoved, StarResourceChanged, TickCompleted:
		return false
	}
	return true
}

type Event struct {
	Type      Type   `json:"type"`
	Tick      uint64 `json:"tick"`
	SessionID string `json:"session_id"`
	Data      any    `json:"data,omitempty"`
}

type StarData struct {
	StarID   int     `json:"star_id"`
	Owned    bool    `json:"owned"`
	Resource float64 `json:"resource"`
	Label    int     `json:"label"`
}

type StarCountData struct {
	Total int `json:"total"`
	Owned int `json:"owned"`
}

type ConvoyData struct {
	ConvoyID string       `json:"convoy_id"`
	Source   int          `json:"source"`
	Target   int          `json:"target"`
	Amount   float64      `json:"amount"`
	Position vecmath.Vec2 `json:"position"`
	Heading  float64      `json:"heading"`
	Segment  int          `json:"segment"`
	Progress float64      `json:"progress"`
}

type RemovalReason string

const (
	Arrived  RemovalReason = "arrived"
	Absorbed RemovalReason = "absorbed"
)

type ConvoyRemovedData struct {
	ConvoyID string        `json:"convoy_id"`
	Reason   RemovalReason `json:"reason"`
	StarID   int           `json:"star_id"`
}

type CaptureData struct {
	StarID   int             `json:"star_id"`
	ConvoyID string          `json:"convoy_id"`
	Incoming float64         `json:"incoming"`
	Waypoint bool            `json:"waypoint"`
	Outcome  capture.Outcome `json:"outcome"`
}

type TickData struct {
	Elapsed float64 `json:"elapsed"`
	Convoys int     `json:"convoys"`
}

type Emitter interface {
	Emit(Event)
}

type EmitterFunc func(Event)

func (f EmitterFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Emitter = EmitterFunc(func(Event) {})

// Bus fans events out to every subscribed sink in subscription order.
type Bus struct {
	mu    sync.RWMutex
	sinks []Emitter
}

func NewBus(sinks ...Emitter) *Bus {
	return &Bus{sinks: sinks}
}

func (b *Bus) Subscribe(sink Emitter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, sink)
}

func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sink := range b.sinks {
		sink.Emit(e)
	}
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) OfType(t Type) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Counts tallies recorded events by type.
func (r *Recorder) Counts() map[Type]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[Type]int)
	for _, e := range r.events {
		counts[e.Type]++
	}
	return counts
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
