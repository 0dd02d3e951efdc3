// Package game hosts one running simulation: the star garrisons, the convoys
// in flight and the rules that tie them together.
package game

import (
	"log/slog"
	"math"
	"sort"

	"github.com/google/uuid"

	"starconquest-server/internal/capture"
	"starconquest-server/internal/convoy"
	"starconquest-server/internal/events"
	"starconquest-server/internal/galaxy"
	"starconquest-server/internal/pathfinder"
	"starconquest-server/internal/shared/errors"
	"starconquest-server/internal/spatial"
	"starconquest-server/internal/star"
)

// Session is not safe for concurrent use. Runner serialises access to it.
type Session struct {
	id       string
	graph    *galaxy.Graph
	stars    []*star.Star
	fleet    *convoy.Fleet
	emitter  events.Emitter
	opts     Options
	tick     uint64
	selected map[int]bool
	logger   *slog.Logger
}

func NewSession(graph *galaxy.Graph, opts Options, emitter events.Emitter, logger *slog.Logger) (*Session, error) {
	if graph == nil || graph.Len() == 0 {
		return nil, errors.Validation("galaxy has no stars")
	}
	if opts.HomeStar < 0 || opts.HomeStar >= graph.Len() {
		return nil, errors.Validationf("home star %d is not in the galaxy (%d stars)", opts.HomeStar, graph.Len())
	}
	if opts.CarryModel == "" {
		opts.CarryModel = convoy.Batch
	}
	if emitter == nil {
		emitter = events.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	s := &Session{
		id:       id,
		graph:    graph,
		fleet:    convoy.NewFleet(opts.CarryModel, galaxy.NewRand(opts.Seed)),
		emitter:  emitter,
		opts:     opts,
		selected: make(map[int]bool),
		logger:   logger.With("component", "session", "session_id", id),
	}

	for _, def := range graph.Stars() {
		s.stars = append(s.stars, star.New(def))
	}

	home := s.stars[opts.HomeStar]
	home.MarkOwned()
	s.emitStar(events.StarOwned, home)
	s.emitCount()

	s.logger.Info("Session started",
		"stars", len(s.stars),
		"connections", len(graph.Connections()),
		"home_star", home.ID,
		"carry_model", opts.CarryModel,
		"pass_through_capture", opts.PassThroughCapture)

	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) TickCount() uint64 { return s.tick }

func (s *Session) Graph() *galaxy.Graph { return s.graph }

func (s *Session) Options() Options { return s.opts }

func (s *Session) OwnedCount() int {
	n := 0
	for _, st := range s.stars {
		if st.Owned {
			n++
		}
	}
	return n
}

// Tick runs one simulation step: every star regenerates first, then every
// convoy moves. elapsed is in seconds.
func (s *Session) Tick(elapsed float64) convoy.Report {
	s.tick++

	for _, st := range s.stars {
		before := st.Label()
		st.Regenerate(elapsed)
		if st.Label() != before {
			s.emitStar(events.StarResourceChanged, st)
		}
	}

	report := s.fleet.Advance(s)
	for _, u := range report.Moved {
		s.emit(events.ConvoyMoved, convoyData(u))
	}

	s.emit(events.TickCompleted, events.TickData{Elapsed: elapsed, Convoys: s.fleet.Len()})
	return report
}

// Dispatch sends half of from's garrison, rounded down, towards to along the
// shortest path. Invalid or impossible sends change nothing.
func (s *Session) Dispatch(from, to int) DispatchResult {
	logger := s.logger.With("operation", "dispatch", "from", from, "to", to)
	result := DispatchResult{From: from, To: to}

	reject := func(reason string) DispatchResult {
		logger.Debug("Dispatch rejected", "reason", reason)
		result.Status = DispatchRejected
		result.Reason = reason
		return result
	}

	if from == to {
		return reject("source and target are the same star")
	}
	if !s.valid(from) {
		return reject("unknown source star")
	}
	if !s.valid(to) {
		return reject("unknown target star")
	}

	src, dst := s.stars[from], s.stars[to]
	result.Remaining = src.Resource
	if !src.Owned {
		return reject("source star is not owned")
	}

	path, ok := pathfinder.FindPath(s.graph, src.Position, dst.Position)
	if !ok {
		logger.Info("No path between stars")
		result.Status = DispatchNoPath
		result.Reason = "no path between stars"
		return result
	}
	result.Hops = pathfinder.Hops(path)

	amount := math.Floor(src.Resource / 2)
	if amount <= 0 {
		logger.Debug("Nothing to send", "resource", src.Resource)
		result.Status = DispatchEmpty
		return result
	}

	before := src.Label()
	src.Withdraw(amount)
	spawned := s.fleet.Spawn(from, to, path, amount)
	for _, u := range spawned {
		result.Convoys = append(result.Convoys, u.ID)
		s.emit(events.ConvoySpawned, convoyData(u))
	}
	if src.Label() != before {
		s.emitStar(events.StarResourceChanged, src)
	}

	result.Status = DispatchSent
	result.Sent = amount
	result.Remaining = src.Resource

	logger.Debug("Convoy dispatched", "amount", amount, "units", len(spawned), "hops", result.Hops)
	return result
}

// DispatchMany sends from every source independently, in the order given.
func (s *Session) DispatchMany(froms []int, to int) []DispatchResult {
	results := make([]DispatchResult, 0, len(froms))
	for _, from := range froms {
		results = append(results, s.Dispatch(from, to))
	}
	return results
}

// Select replaces the selection with the owned stars among ids and returns
// them in ascending order.
func (s *Session) Select(ids []int) []int {
	s.ClearSelection()
	for _, id := range ids {
		if s.valid(id) && s.stars[id].Owned {
			s.selected[id] = true
			s.stars[id].Selected = true
		}
	}
	return s.Selection()
}

func (s *Session) ClearSelection() {
	for id := range s.selected {
		s.stars[id].Selected = false
	}
	clear(s.selected)
}

func (s *Session) Selection() []int {
	ids := make([]int, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// DispatchSelected sends from every selected star to to, then clears the
// selection.
func (s *Session) DispatchSelected(to int) []DispatchResult {
	results := s.DispatchMany(s.Selection(), to)
	s.ClearSelection()
	return results
}

func (s *Session) Star(id int) (StarView, bool) {
	if !s.valid(id) {
		return StarView{}, false
	}
	return s.view(s.stars[id]), true
}

func (s *Session) Stars() []StarView {
	out := make([]StarView, len(s.stars))
	for i, st := range s.stars {
		out[i] = s.view(st)
	}
	return out
}

func (s *Session) Convoys() []ConvoyView {
	units := s.fleet.Units()
	out := make([]ConvoyView, len(units))
	for i, u := range units {
		out[i] = newConvoyView(u)
	}
	return out
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		SessionID:  s.id,
		Tick:       s.tick,
		CarryModel: string(s.fleet.Model()),
		TotalStars: len(s.stars),
		OwnedStars: s.OwnedCount(),
		Selection:  s.Selection(),
		Stars:      s.Stars(),
		Convoys:    s.Convoys(),
	}
}

// Galaxy is the static map. It never changes during a session.
func (s *Session) Galaxy() GalaxyView {
	view := GalaxyView{Connections: s.graph.Connections()}
	for _, def := range s.graph.Stars() {
		view.Stars = append(view.Stars, GalaxyStar{
			ID:       def.ID,
			Name:     def.Name,
			Position: def.Position,
			Class:    def.Class,
			Capacity: star.Capacity(def.Class),
			Visual:   star.VisualOf(def.Class),
		})
	}
	return view
}

// PassThrough settles a convoy crossing an intermediate star. With
// pass-through capture off, or over an owned star, the convoy is untouched.
func (s *Session) PassThrough(u *convoy.Unit, waypoint galaxy.Point) float64 {
	if !s.opts.PassThroughCapture {
		return u.Amount
	}
	def, ok := s.graph.StarAt(waypoint)
	if !ok {
		return u.Amount
	}
	st := s.stars[def.ID]
	if st.Owned {
		return u.Amount
	}

	out := capture.ResolvePassThrough(target(st), u.Amount)
	s.apply(st, u, out, true)

	if out.Remainder <= 0 {
		s.emit(events.ConvoyRemoved, events.ConvoyRemovedData{
			ConvoyID: u.ID,
			Reason:   events.Absorbed,
			StarID:   st.ID,
		})
	}
	return out.Remainder
}

// Arrive settles a convoy at its destination.
func (s *Session) Arrive(u *convoy.Unit) {
	st := s.stars[u.Target]
	out := capture.Resolve(target(st), u.Amount)
	s.apply(st, u, out, false)

	s.emit(events.ConvoyRemoved, events.ConvoyRemovedData{
		ConvoyID: u.ID,
		Reason:   events.Arrived,
		StarID:   st.ID,
	})
}

func (s *Session) apply(st *star.Star, u *convoy.Unit, out capture.Outcome, waypoint bool) {
	before := st.Label()

	switch out.Kind {
	case capture.Captured:
		if waypoint {
			st.MarkOwned()
		} else {
			st.Capture(out.Resource)
		}
	case capture.Reinforced:
		st.Reinforce(u.Amount)
	case capture.Repelled:
		st.Absorb(u.Amount)
	}

	s.emit(events.CaptureResolved, events.CaptureData{
		StarID:   st.ID,
		ConvoyID: u.ID,
		Incoming: u.Amount,
		Waypoint: waypoint,
		Outcome:  out,
	})

	if out.Captured {
		s.logger.Info("Star captured",
			"operation", "capture",
			"star_id", st.ID,
			"convoy_id", u.ID,
			"incoming", u.Amount,
			"garrison", st.Resource,
			"waypoint", waypoint)
		s.emitStar(events.StarOwned, st)
		s.emitCount()
		return
	}

	if st.Label() != before {
		s.emitStar(events.StarResourceChanged, st)
	}
}

func (s *Session) valid(id int) bool {
	return id >= 0 && id < len(s.stars)
}

func (s *Session) view(st *star.Star) StarView {
	return StarView{
		Star:     *st,
		Capacity: st.Capacity(),
		Label:    st.Label(),
		Location: spatial.Locate(st.Position).String(),
	}
}

func (s *Session) emit(t events.Type, data any) {
	s.emitter.Emit(events.Event{Type: t, Tick: s.tick, SessionID: s.id, Data: data})
}

func (s *Session) emitStar(t events.Type, st *star.Star) {
	s.emit(t, events.StarData{
		StarID:   st.ID,
		Owned:    st.Owned,
		Resource: st.Resource,
		Label:    st.Label(),
	})
}

func (s *Session) emitCount() {
	s.emit(events.StarCountChanged, events.StarCountData{Total: len(s.stars), Owned: s.OwnedCount()})
}

func target(st *star.Star) capture.Target {
	return capture.Target{Owned: st.Owned, Resource: st.Resource, Capacity: st.Capacity()}
}

func convoyData(u convoy.Unit) events.ConvoyData {
	return events.ConvoyData{
		ConvoyID: u.ID,
		Source:   u.Source,
		Target:   u.Target,
		Amount:   u.Amount,
		Position: u.Position,
		Heading:  u.Heading,
		Segment:  u.Segment,
		Progress: u.Progress,
	}
}
