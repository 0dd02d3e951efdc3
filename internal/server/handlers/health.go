package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"starconquest-server/internal/shared/response"
)

const (
	statusConnected    = "connected"
	statusDisconnected = "disconnected"
	statusDisabled     = "disabled"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
	Redis     string `json:"redis"`
	SessionID string `json:"session_id"`
}

// PingFunc checks an optional backing service. A nil PingFunc means the
// service is disabled.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	pingDB    PingFunc
	pingRedis PingFunc
	sessionID func() string
}

func NewHealthHandler(pingDB, pingRedis PingFunc, sessionID func() string) *HealthHandler {
	return &HealthHandler{pingDB: pingDB, pingRedis: pingRedis, sessionID: sessionID}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Database:  check(ctx, logger, "database", h.pingDB),
		Redis:     check(ctx, logger, "redis", h.pingRedis),
	}
	if h.sessionID != nil {
		resp.SessionID = h.sessionID()
	}

	response.Success(w, http.StatusOK, resp)
}

func check(ctx context.Context, logger *slog.Logger, name string, ping PingFunc) string {
	if ping == nil {
		return statusDisabled
	}
	if err := ping(ctx); err != nil {
		logger.Warn("Ping failed", "service", name, "error", err)
		return statusDisconnected
	}
	return statusConnected
}
