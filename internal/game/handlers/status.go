package handlers

import (
	"log/slog"
	"net/http"

	"starconquest-server/internal/game"
	"starconquest-server/internal/shared/response"
)

type GameStatusResponse struct {
	Game          string `json:"game"`
	SessionID     string `json:"session_id"`
	Tick          uint64 `json:"tick"`
	TotalStars    int    `json:"total_stars"`
	OwnedStars    int    `json:"owned_stars"`
	Convoys       int    `json:"convoys"`
	StreamClients int    `json:"stream_clients"`
}

// ClientCounter reports how many renderers are listening.
type ClientCounter interface {
	ClientCount() int
}

type GameStatusHandler struct {
	runner  *game.Runner
	clients ClientCounter
}

func NewGameStatusHandler(runner *game.Runner, clients ClientCounter) *GameStatusHandler {
	return &GameStatusHandler{runner: runner, clients: clients}
}

func (h *GameStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "game_status")

	resp := GameStatusResponse{Game: "Star Conquest"}
	err := h.runner.Do(ctx, func(s *game.Session) error {
		resp.SessionID = s.ID()
		resp.Tick = s.TickCount()
		resp.TotalStars = s.Graph().Len()
		resp.OwnedStars = s.OwnedCount()
		resp.Convoys = len(s.Convoys())
		return nil
	})
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	if h.clients != nil {
		resp.StreamClients = h.clients.ClientCount()
	}

	response.Success(w, http.StatusOK, resp)
}
