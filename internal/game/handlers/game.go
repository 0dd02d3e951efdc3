package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"starconquest-server/internal/auth"
	"starconquest-server/internal/galaxy"
	"starconquest-server/internal/game"
	"starconquest-server/internal/shared/errors"
	"starconquest-server/internal/shared/response"
)

const maxBodyBytes = 1 << 20

// DispatchRequest fields are pointers so that an omitted star is told apart
// from star 0.
type DispatchRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

func (r DispatchRequest) Validate() error {
	if r.From == nil {
		return errors.Validation("from is required")
	}
	if r.To == nil {
		return errors.Validation("to is required")
	}
	return nil
}

type DispatchManyRequest struct {
	From []int `json:"from"`
	To   *int  `json:"to"`
}

type SelectRequest struct {
	IDs []int `json:"ids"`
}

type SelectionDispatchRequest struct {
	To *int `json:"to"`
}

type SessionResponse struct {
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SelectionResponse struct {
	Selected []int `json:"selected"`
}

// Loader produces the galaxy a reset session is played on.
type Loader interface {
	Load(ctx context.Context, source string) (*galaxy.Graph, error)
}

// Flusher pushes buffered events to stream clients. Dispatch events are
// emitted between ticks and would otherwise wait for the next tick frame.
type Flusher interface {
	Flush()
}

type GameHandler struct {
	runner *game.Runner
	loader Loader
	source string
	tokens *auth.Service
	stream Flusher
}

// NewGameHandler builds the game API. stream may be nil when no event stream
// is served.
func NewGameHandler(runner *game.Runner, loader Loader, source string, tokens *auth.Service, stream Flusher) *GameHandler {
	return &GameHandler{runner: runner, loader: loader, source: source, tokens: tokens, stream: stream}
}

func (h *GameHandler) GetGalaxy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_galaxy")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var view game.GalaxyView
	if err := h.runner.Do(ctx, func(s *game.Session) error {
		view = s.Galaxy()
		return nil
	}); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, view)
}

func (h *GameHandler) GetStars(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_stars")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var stars []game.StarView
	if err := h.runner.Do(ctx, func(s *game.Session) error {
		stars = s.Stars()
		return nil
	}); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, stars)
}

func (h *GameHandler) GetStar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_star")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	starIDStr := r.PathValue("id")
	if starIDStr == "" {
		response.Error(w, r, logger, errors.Validation("star ID is required"))
		return
	}

	starID, err := strconv.Atoi(starIDStr)
	if err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid star ID format", err))
		return
	}

	var view game.StarView
	err = h.runner.Do(ctx, func(s *game.Session) error {
		v, ok := s.Star(starID)
		if !ok {
			return errors.NotFoundf("star %d not found", starID)
		}
		view = v
		return nil
	})
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, view)
}

func (h *GameHandler) GetConvoys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_convoys")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var convoys []game.ConvoyView
	if err := h.runner.Do(ctx, func(s *game.Session) error {
		convoys = s.Convoys()
		return nil
	}); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, convoys)
}

func (h *GameHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_snapshot")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var snapshot game.Snapshot
	if err := h.runner.Do(ctx, func(s *game.Session) error {
		snapshot = s.Snapshot()
		return nil
	}); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, snapshot)
}

// StartSession hands the caller a token for the session that is running.
func (h *GameHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "start_session")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	resp, err := h.issueToken(w, h.runner.SessionID())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	logger.Info("Session token issued", "session_id", resp.SessionID, "remote_addr", r.RemoteAddr)
	response.Success(w, http.StatusCreated, resp)
}

// ResetSession reloads the galaxy and starts over. Tokens for the old session
// stop working.
func (h *GameHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "reset_session")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	graph, err := h.loader.Load(ctx, h.source)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	sessionID, err := h.runner.Reset(ctx, graph)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	resp, err := h.issueToken(w, sessionID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated, resp)
}

func (h *GameHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "dispatch")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req DispatchRequest
	if err := decode(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var result game.DispatchResult
	if err := h.runner.Do(ctx, func(s *game.Session) error {
		result = s.Dispatch(*req.From, *req.To)
		return nil
	}); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	h.flush()

	response.Success(w, http.StatusOK, result)
}

func (h *GameHandler) DispatchMany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "dispatch_many")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req DispatchManyRequest
	if err := decode(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if len(req.From) == 0 {
		response.Error(w, r, logger, errors.Validation("at least one source star is required"))
		return
	}
	if req.To == nil {
		response.Error(w, r, logger, errors.Validation("to is required"))
		return
	}

	var results []game.DispatchResult
	if err := h.runner.Do(ctx, func(s *game.Session) error {
		results = s.DispatchMany(req.From, *req.To)
		return nil
	}); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	h.flush()

	response.Success(w, http.StatusOK, results)
}

func (h *GameHandler) Select(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "select")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req SelectRequest
	if err := decode(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var selected []int
	if err := h.runner.Do(ctx, func(s *game.Session) error {
		selected = s.Select(req.IDs)
		return nil
	}); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, SelectionResponse{Selected: selected})
}

func (h *GameHandler) DispatchSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "dispatch_selection")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req SelectionDispatchRequest
	if err := decode(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if req.To == nil {
		response.Error(w, r, logger, errors.Validation("to is required"))
		return
	}

	var results []game.DispatchResult
	if err := h.runner.Do(ctx, func(s *game.Session) error {
		results = s.DispatchSelected(*req.To)
		return nil
	}); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	h.flush()

	response.Success(w, http.StatusOK, results)
}

func (h *GameHandler) flush() {
	if h.stream != nil {
		h.stream.Flush()
	}
}

func (h *GameHandler) issueToken(w http.ResponseWriter, sessionID string) (SessionResponse, error) {
	token, err := h.tokens.Issue(sessionID)
	if err != nil {
		return SessionResponse{}, err
	}
	h.tokens.SetCookie(w, token)
	return SessionResponse{
		SessionID: token.SessionID,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.WrapValidation("invalid JSON in request body", err)
	}
	return nil
}
