package game

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"starconquest-server/internal/events"
	"starconquest-server/internal/shared/errors"
)

func startRunner(t *testing.T, interval time.Duration) (*Runner, *events.Recorder, context.CancelFunc) {
	t.Helper()
	s, rec := newTestSession(t, DefaultOptions())
	r := NewRunner(s, interval, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-r.Done()
	})
	return r, rec, cancel
}

func TestRunnerTicks(t *testing.T) {
	r, _, _ := startRunner(t, time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for {
		var ticks uint64
		if err := r.Do(context.Background(), func(s *Session) error {
			ticks = s.TickCount()
			return nil
		}); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if ticks >= 3 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("only %d ticks after 2s", ticks)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRunnerDoReturnsCommandError(t *testing.T) {
	r, _, _ := startRunner(t, time.Hour)

	err := r.Do(context.Background(), func(s *Session) error {
		return errors.NotFound("star not found")
	})
	if !errors.Is(err, errors.ErrorTypeNotFound) {
		t.Errorf("Do() error = %v, want not found", err)
	}
}

func TestRunnerRecoversPanickingCommand(t *testing.T) {
	r, _, _ := startRunner(t, time.Hour)

	err := r.Do(context.Background(), func(s *Session) error {
		panic("boom")
	})
	if !errors.Is(err, errors.ErrorTypeInternal) {
		t.Errorf("Do() error = %v, want internal", err)
	}

	if err := r.Do(context.Background(), func(s *Session) error { return nil }); err != nil {
		t.Errorf("runner unusable after panic: %v", err)
	}
}

func TestRunnerReset(t *testing.T) {
	r, rec, _ := startRunner(t, time.Hour)
	first := r.SessionID()

	if err := r.Do(context.Background(), func(s *Session) error {
		s.Dispatch(0, 1)
		return nil
	}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	id, err := r.Reset(context.Background(), lineGraph(t))
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if id == first || r.SessionID() != id {
		t.Errorf("session IDs: first %s, reset %s, current %s", first, id, r.SessionID())
	}

	if err := r.Do(context.Background(), func(s *Session) error {
		if s.ID() != id {
			t.Errorf("running session = %s, want %s", s.ID(), id)
		}
		if len(s.Convoys()) != 0 || s.stars[0].Resource != 15 {
			t.Errorf("reset session carried state over")
		}
		return nil
	}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	// the new session keeps the sinks of the old one
	owned := rec.OfType(events.StarOwned)
	if len(owned) != 2 || owned[1].SessionID != id {
		t.Errorf("star_owned events after reset = %+v", owned)
	}
}

func TestRunnerResetRejectsBadGraph(t *testing.T) {
	r, _, _ := startRunner(t, time.Hour)
	first := r.SessionID()

	if _, err := r.Reset(context.Background(), nil); err == nil {
		t.Fatal("Reset(nil) succeeded")
	}
	if r.SessionID() != first {
		t.Error("failed reset replaced the session")
	}
}

func TestRunnerDoAfterStop(t *testing.T) {
	r, _, cancel := startRunner(t, time.Hour)
	cancel()
	<-r.Done()

	err := r.Do(context.Background(), func(s *Session) error { return nil })
	if !errors.Is(err, errors.ErrorTypeExternal) {
		t.Errorf("Do() after stop = %v, want external error", err)
	}
}

func TestRunnerDoHonoursContext(t *testing.T) {
	s, _ := newTestSession(t, DefaultOptions())
	r := NewRunner(s, time.Hour, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := r.Do(ctx, func(s *Session) error { return nil }); err == nil {
		t.Error("Do() on a runner that is not running succeeded")
	}
}
