package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"starconquest-server/internal/auth"
	"starconquest-server/internal/galaxy"
	"starconquest-server/internal/game"
)

const testGalaxy = `{
	"points": [[0,0],[10,0],[20,0]],
	"types": ["small","small","medium"],
	"connections": [[[0,0],[10,0]], [[10,0],[20,0]]]
}`

type stubLoader struct {
	sources []string
}

func (l *stubLoader) Load(ctx context.Context, source string) (*galaxy.Graph, error) {
	l.sources = append(l.sources, source)
	doc, err := galaxy.Parse(strings.NewReader(testGalaxy))
	if err != nil {
		return nil, err
	}
	return galaxy.NewGraph(doc)
}

type countingFlusher struct {
	mu    sync.Mutex
	calls int
}

func (f *countingFlusher) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
}

func (f *countingFlusher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fixture struct {
	handler *GameHandler
	runner  *game.Runner
	loader  *stubLoader
	stream  *countingFlusher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	loader := &stubLoader{}
	graph, err := loader.Load(context.Background(), "test")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	session, err := game.NewSession(graph, game.DefaultOptions(), nil, slog.Default())
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	runner := game.NewRunner(session, time.Hour, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	go runner.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-runner.Done()
	})

	tokens, err := auth.NewService("0123456789abcdef0123456789abcdef", time.Hour, slog.Default())
	if err != nil {
		t.Fatalf("auth.NewService() error = %v", err)
	}

	stream := &countingFlusher{}
	return &fixture{
		handler: NewGameHandler(runner, loader, "generate:7", tokens, stream),
		runner:  runner,
		loader:  loader,
		stream:  stream,
	}
}

func serve(h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestGetGalaxy(t *testing.T) {
	f := newFixture(t)

	rec := serve(f.handler.GetGalaxy, http.MethodGet, "/api/galaxy", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	view := decodeBody[game.GalaxyView](t, rec)
	if len(view.Stars) != 3 || len(view.Connections) != 2 {
		t.Errorf("galaxy = %d stars %d connections", len(view.Stars), len(view.Connections))
	}
	if view.Stars[2].Capacity != 50 || view.Stars[2].Visual.Size == 0 {
		t.Errorf("medium star = %+v", view.Stars[2])
	}

	if rec := serve(f.handler.GetGalaxy, http.MethodPost, "/api/galaxy", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}

func TestGetStar(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		id   string
		want int
	}{
		{"home star", "0", http.StatusOK},
		{"unowned star", "2", http.StatusOK},
		{"missing star", "9", http.StatusNotFound},
		{"bad id", "abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/stars/"+tt.id, nil)
			req.SetPathValue("id", tt.id)
			rec := httptest.NewRecorder()
			f.handler.GetStar(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
			if tt.want != http.StatusOK {
				return
			}
			view := decodeBody[game.StarView](t, rec)
			if view.Location == "" || view.Capacity == 0 {
				t.Errorf("star view = %+v", view)
			}
		})
	}
}

func TestGetStarsAndConvoys(t *testing.T) {
	f := newFixture(t)

	rec := serve(f.handler.GetStars, http.MethodGet, "/api/stars", "")
	stars := decodeBody[[]game.StarView](t, rec)
	if len(stars) != 3 || !stars[0].Owned || stars[0].Label != 15 {
		t.Errorf("stars = %+v", stars)
	}

	serve(f.handler.Dispatch, http.MethodPost, "/api/dispatch", `{"from":0,"to":2}`)

	rec = serve(f.handler.GetConvoys, http.MethodGet, "/api/convoys", "")
	convoys := decodeBody[[]game.ConvoyView](t, rec)
	if len(convoys) != 1 || convoys[0].Amount != 7 || len(convoys[0].Path) != 3 {
		t.Errorf("convoys = %+v", convoys)
	}

	rec = serve(f.handler.GetSnapshot, http.MethodGet, "/api/snapshot", "")
	snap := decodeBody[game.Snapshot](t, rec)
	if snap.SessionID != f.runner.SessionID() || len(snap.Convoys) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestDispatch(t *testing.T) {
	f := newFixture(t)

	rec := serve(f.handler.Dispatch, http.MethodPost, "/api/dispatch", `{"from":0,"to":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	result := decodeBody[game.DispatchResult](t, rec)
	if result.Status != game.DispatchSent || result.Sent != 7 || result.Remaining != 8 {
		t.Errorf("result = %+v", result)
	}

	rec = serve(f.handler.Dispatch, http.MethodPost, "/api/dispatch", `{"from":1,"to":0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("rejected dispatch status = %d", rec.Code)
	}
	if result := decodeBody[game.DispatchResult](t, rec); result.Status != game.DispatchRejected {
		t.Errorf("dispatch from unowned star = %s", result.Status)
	}

	if rec := serve(f.handler.Dispatch, http.MethodPost, "/api/dispatch", `{"from":`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d, want 400", rec.Code)
	}
	if got := f.stream.count(); got != 2 {
		t.Errorf("stream flushed %d times, want 2", got)
	}
	if rec := serve(f.handler.Dispatch, http.MethodGet, "/api/dispatch", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestDispatchRequiresStars(t *testing.T) {
	tests := []struct {
		name    string
		handler func(*GameHandler) http.HandlerFunc
		body    string
	}{
		{"missing from", func(h *GameHandler) http.HandlerFunc { return h.Dispatch }, `{"to":1}`},
		{"missing to", func(h *GameHandler) http.HandlerFunc { return h.Dispatch }, `{"from":0}`},
		{"empty body", func(h *GameHandler) http.HandlerFunc { return h.Dispatch }, `{}`},
		{"many without to", func(h *GameHandler) http.HandlerFunc { return h.DispatchMany }, `{"from":[0]}`},
		{"selection without to", func(h *GameHandler) http.HandlerFunc { return h.DispatchSelection }, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec := serve(tt.handler(f.handler), http.MethodPost, "/api/dispatch", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body)
			}

			rec = serve(f.handler.GetConvoys, http.MethodGet, "/api/convoys", "")
			if convoys := decodeBody[[]game.ConvoyView](t, rec); len(convoys) != 0 {
				t.Errorf("convoys = %+v, want none", convoys)
			}
			if got := f.stream.count(); got != 0 {
				t.Errorf("stream flushed %d times on a rejected request", got)
			}
		})
	}
}

func TestDispatchMany(t *testing.T) {
	f := newFixture(t)

	rec := serve(f.handler.DispatchMany, http.MethodPost, "/api/dispatch/many", `{"from":[0,1],"to":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	results := decodeBody[[]game.DispatchResult](t, rec)
	if len(results) != 2 || results[0].Status != game.DispatchSent || results[1].Status != game.DispatchRejected {
		t.Errorf("results = %+v", results)
	}

	if rec := serve(f.handler.DispatchMany, http.MethodPost, "/api/dispatch/many", `{"from":[],"to":2}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty sources status = %d, want 400", rec.Code)
	}
}

func TestSelection(t *testing.T) {
	f := newFixture(t)

	rec := serve(f.handler.Select, http.MethodPost, "/api/selection", `{"ids":[0,1,2]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if sel := decodeBody[SelectionResponse](t, rec); len(sel.Selected) != 1 || sel.Selected[0] != 0 {
		t.Errorf("selected = %v, want [0]", sel.Selected)
	}

	rec = serve(f.handler.DispatchSelection, http.MethodPost, "/api/selection/dispatch", `{"to":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	results := decodeBody[[]game.DispatchResult](t, rec)
	if len(results) != 1 || results[0].Status != game.DispatchSent {
		t.Errorf("results = %+v", results)
	}

	rec = serve(f.handler.DispatchSelection, http.MethodPost, "/api/selection/dispatch", `{"to":2}`)
	if results := decodeBody[[]game.DispatchResult](t, rec); len(results) != 0 {
		t.Errorf("second dispatch of cleared selection = %+v", results)
	}
}

func TestStartSessionAndReset(t *testing.T) {
	f := newFixture(t)
	first := f.runner.SessionID()

	rec := serve(f.handler.StartSession, http.MethodPost, "/api/session", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if resp := decodeBody[SessionResponse](t, rec); resp.SessionID != first {
		t.Errorf("session ID = %s, want %s", resp.SessionID, first)
	}
	if !hasSessionCookie(rec) {
		t.Error("no session cookie set")
	}

	rec = serve(f.handler.ResetSession, http.MethodPost, "/api/session/reset", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("reset status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decodeBody[SessionResponse](t, rec)
	if resp.SessionID == first || resp.SessionID != f.runner.SessionID() {
		t.Errorf("reset session = %s, first %s, running %s", resp.SessionID, first, f.runner.SessionID())
	}
	if !hasSessionCookie(rec) {
		t.Error("no session cookie set on reset")
	}
	if len(f.loader.sources) != 2 || f.loader.sources[1] != "generate:7" {
		t.Errorf("loader sources = %v", f.loader.sources)
	}
}

func TestGameStatus(t *testing.T) {
	f := newFixture(t)
	h := NewGameStatusHandler(f.runner, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	status := decodeBody[GameStatusResponse](t, rec)
	if status.SessionID != f.runner.SessionID() || status.TotalStars != 3 || status.OwnedStars != 1 {
		t.Errorf("status = %+v", status)
	}
}

func hasSessionCookie(rec *httptest.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName && c.Value != "" {
			return true
		}
	}
	return false
}
