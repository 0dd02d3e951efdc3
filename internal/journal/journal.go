// Package journal writes an append-only, hash-chained audit trail of the
// lifecycle events of a session. It is never read back into a game.
package journal

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"

	"starconquest-server/internal/events"
)

const maxLineBytes = 16 << 20

// Genesis is the previous hash of the first record.
var Genesis = hex.EncodeToString(make([]byte, 32))

type Record struct {
	Seq       uint64         `json:"seq"`
	Tick      uint64         `json:"tick"`
	SessionID string         `json:"session_id"`
	Prev      string         `json:"prev"`
	Events    []events.Event `json:"events"`
}

type line struct {
	Hash   string          `json:"hash"`
	Record json.RawMessage `json:"record"`
}

// Writer collects lifecycle events and writes one record per tick that had
// any. It implements events.Emitter.
type Writer struct {
	mu      sync.Mutex
	zw      *lz4.Writer
	closer  io.Closer
	pending []events.Event
	seq     uint64
	last    string
	err     error
	logger  *slog.Logger
}

// Create truncates path and starts a new journal in it.
func Create(path string, logger *slog.Logger) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal: %w", err)
	}
	w := NewWriter(f, logger)
	w.closer = f
	return w, nil
}

// NewWriter compresses the journal into out. Closing the writer does not
// close out.
func NewWriter(out io.Writer, logger *slog.Logger) *Writer {
	return &Writer{
		zw:     lz4.NewWriter(out),
		last:   Genesis,
		logger: logger.With("component", "journal"),
	}
}

func (w *Writer) Emit(e events.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if e.Type.Lifecycle() {
		w.pending = append(w.pending, e)
		return
	}
	if e.Type == events.TickCompleted && len(w.pending) > 0 {
		w.commit(e.Tick, e.SessionID)
	}
}

func (w *Writer) commit(tick uint64, sessionID string) {
	if w.err != nil {
		w.pending = w.pending[:0]
		return
	}

	w.seq++
	rec := Record{
		Seq:       w.seq,
		Tick:      tick,
		SessionID: sessionID,
		Prev:      w.last,
		Events:    w.pending,
	}
	w.pending = nil

	body, err := json.Marshal(rec)
	if err != nil {
		w.fail(fmt.Errorf("failed to encode journal record: %w", err))
		return
	}

	hash, err := chain(w.last, body)
	if err != nil {
		w.fail(err)
		return
	}

	out, err := json.Marshal(line{Hash: hash, Record: body})
	if err != nil {
		w.fail(fmt.Errorf("failed to encode journal line: %w", err))
		return
	}
	out = append(out, '\n')

	if _, err := w.zw.Write(out); err != nil {
		w.fail(fmt.Errorf("failed to write journal: %w", err))
		return
	}
	if err := w.zw.Flush(); err != nil {
		w.fail(fmt.Errorf("failed to flush journal: %w", err))
		return
	}

	w.last = hash
}

func (w *Writer) fail(err error) {
	w.err = err
	w.logger.Error("Journal disabled after write failure", "error", err)
}

// Err is the first write failure, after which the journal stops recording.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Head is the hash of the last record written.
func (w *Writer) Head() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.zw.Close()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func chain(prev string, body []byte) (string, error) {
	prevBytes, err := hex.DecodeString(prev)
	if err != nil {
		return "", fmt.Errorf("invalid previous hash %q: %w", prev, err)
	}
	sum := blake3.Sum256(append(prevBytes, body...))
	return hex.EncodeToString(sum[:]), nil
}

// Result summarises a verified journal.
type Result struct {
	Records int    `json:"records" yaml:"records"`
	Events  int    `json:"events" yaml:"events"`
	Head    string `json:"head" yaml:"head"`
}

// Verify decompresses a journal and checks every link of the hash chain.
func Verify(r io.Reader) (Result, error) {
	res := Result{Head: Genesis}

	scanner := bufio.NewScanner(lz4.NewReader(r))
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		var l line
		if err := json.Unmarshal(scanner.Bytes(), &l); err != nil {
			return res, fmt.Errorf("record %d: malformed line: %w", res.Records+1, err)
		}

		var rec Record
		if err := json.Unmarshal(l.Record, &rec); err != nil {
			return res, fmt.Errorf("record %d: malformed body: %w", res.Records+1, err)
		}
		if rec.Prev != res.Head {
			return res, fmt.Errorf("record %d: previous hash %s does not match %s", res.Records+1, rec.Prev, res.Head)
		}
		if rec.Seq != uint64(res.Records+1) {
			return res, fmt.Errorf("record %d: sequence number %d out of order", res.Records+1, rec.Seq)
		}

		want, err := chain(res.Head, l.Record)
		if err != nil {
			return res, fmt.Errorf("record %d: %w", res.Records+1, err)
		}
		if want != l.Hash {
			return res, fmt.Errorf("record %d: hash mismatch", res.Records+1)
		}

		res.Records++
		res.Events += len(rec.Events)
		res.Head = l.Hash
	}

	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("failed to read journal: %w", err)
	}
	return res, nil
}

// VerifyFile opens path and runs Verify on it.
func VerifyFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()
	return Verify(f)
}
