package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"starconquest-server/internal/galaxy"
	"starconquest-server/internal/shared/errors"
)

// Runner owns a Session and drives it from a single goroutine. Everything
// else reaches the session through Do.
type Runner struct {
	session   *Session
	sessionID atomic.Value
	interval  time.Duration
	commands  chan func()
	stopped   chan struct{}
	base      *slog.Logger
	logger    *slog.Logger
}

func NewRunner(session *Session, interval time.Duration, logger *slog.Logger) *Runner {
	r := &Runner{
		session:  session,
		interval: interval,
		commands: make(chan func()),
		stopped:  make(chan struct{}),
		base:     logger,
		logger:   logger.With("component", "runner"),
	}
	r.sessionID.Store(session.ID())
	return r
}

// SessionID is safe to call from any goroutine.
func (r *Runner) SessionID() string {
	return r.sessionID.Load().(string)
}

// Run ticks the session until ctx is cancelled. Each tick is given the wall
// time elapsed since the previous one.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.stopped)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Simulation loop started", "interval", r.interval, "session_id", r.SessionID())

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Simulation loop stopped", "ticks", r.session.TickCount())
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds()
			last = now
			r.session.Tick(elapsed)
		case cmd := <-r.commands:
			cmd()
		}
	}
}

// Do runs fn on the loop goroutine between two ticks and waits for it.
func (r *Runner) Do(ctx context.Context, fn func(*Session) error) error {
	return r.exec(ctx, func() error { return fn(r.session) })
}

// Reset replaces the running session with a fresh one over graph, keeping
// the current options and event sinks.
func (r *Runner) Reset(ctx context.Context, graph *galaxy.Graph) (string, error) {
	var id string
	err := r.exec(ctx, func() error {
		next, err := NewSession(graph, r.session.opts, r.session.emitter, r.base)
		if err != nil {
			return err
		}
		r.logger.Info("Session reset", "previous_session_id", r.session.ID(), "session_id", next.ID())
		r.session = next
		r.sessionID.Store(next.ID())
		id = next.ID()
		return nil
	})
	return id, err
}

// Done is closed once Run returns.
func (r *Runner) Done() <-chan struct{} {
	return r.stopped
}

func (r *Runner) exec(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	cmd := func() {
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("Command panicked", "panic", p)
				done <- errors.Internalf("command panicked: %v", p)
			}
		}()
		done <- fn()
	}

	select {
	case r.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-r.stopped:
		return errors.External("simulation is not running")
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("waiting for simulation: %w", ctx.Err())
	}
}
