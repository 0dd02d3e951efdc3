package journal

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pierrec/lz4/v4"

	"starconquest-server/internal/events"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTicks(w *Writer) {
	// tick 1: one lifecycle event, tick 2: movement only, tick 3: two lifecycle events
	w.Emit(events.Event{Type: events.ConvoySpawned, Tick: 1, SessionID: "s"})
	w.Emit(events.Event{Type: events.ConvoyMoved, Tick: 1, SessionID: "s"})
	w.Emit(events.Event{Type: events.TickCompleted, Tick: 1, SessionID: "s"})

	w.Emit(events.Event{Type: events.ConvoyMoved, Tick: 2, SessionID: "s"})
	w.Emit(events.Event{Type: events.TickCompleted, Tick: 2, SessionID: "s"})

	w.Emit(events.Event{Type: events.CaptureResolved, Tick: 3, SessionID: "s"})
	w.Emit(events.Event{Type: events.StarOwned, Tick: 3, SessionID: "s"})
	w.Emit(events.Event{Type: events.TickCompleted, Tick: 3, SessionID: "s"})
}

func TestWriteAndVerify(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, quietLogger())
	writeTicks(w)
	head := w.Head()
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if w.Err() != nil {
		t.Fatalf("Err() = %v", w.Err())
	}

	res, err := Verify(&buf)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if res.Records != 2 || res.Events != 3 {
		t.Errorf("Verify() = %+v, want 2 records and 3 events", res)
	}
	if res.Head != head || head == Genesis {
		t.Errorf("head = %s, writer head = %s", res.Head, head)
	}
}

func TestVerifyEmptyJournal(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, quietLogger())
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	res, err := Verify(&buf)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if res.Records != 0 || res.Head != Genesis {
		t.Errorf("Verify() = %+v", res)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, quietLogger())
	writeTicks(w)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	plain, err := io.ReadAll(lz4.NewReader(&buf))
	if err != nil {
		t.Fatal(err)
	}
	tampered := strings.Replace(string(plain), `"tick":3`, `"tick":4`, 1)
	if tampered == string(plain) {
		t.Fatal("test fixture did not change")
	}

	var out bytes.Buffer
	zw := lz4.NewWriter(&out)
	if _, err := zw.Write([]byte(tampered)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := Verify(&out); err == nil {
		t.Error("Verify() accepted a tampered journal")
	}
}

func TestCreateAndVerifyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.lz4")
	w, err := Create(path, quietLogger())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	writeTicks(w)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	res, err := VerifyFile(path)
	if err != nil {
		t.Fatalf("VerifyFile() error = %v", err)
	}
	if res.Records != 2 {
		t.Errorf("Records = %d, want 2", res.Records)
	}

	if _, err := VerifyFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("VerifyFile() on a missing file should fail")
	}
}
