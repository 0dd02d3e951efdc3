package server

import (
	"log/slog"
	"net/http"

	"starconquest-server/internal/auth"
	"starconquest-server/internal/events"
	"starconquest-server/internal/galaxy"
	galaxyHandlers "starconquest-server/internal/galaxy/handlers"
	"starconquest-server/internal/game"
	gameHandlers "starconquest-server/internal/game/handlers"
	"starconquest-server/internal/middleware"
	serverHandlers "starconquest-server/internal/server/handlers"
	"starconquest-server/internal/shared/database"
)

type Routes struct {
	db            *database.DB
	publisher     *events.RedisPublisher
	runner        *game.Runner
	galaxyService *galaxy.Service
	galaxySource  string
	tokens        *auth.Service
	hub           *events.Hub
	limiter       *middleware.RateLimiter
	logger        *slog.Logger
}

type Deps struct {
	DB            *database.DB
	Publisher     *events.RedisPublisher
	Runner        *game.Runner
	GalaxyService *galaxy.Service
	GalaxySource  string
	Tokens        *auth.Service
	Hub           *events.Hub
	Limiter       *middleware.RateLimiter
}

func NewRoutes(deps Deps, logger *slog.Logger) *Routes {
	return &Routes{
		db:            deps.DB,
		publisher:     deps.Publisher,
		runner:        deps.Runner,
		galaxyService: deps.GalaxyService,
		galaxySource:  deps.GalaxySource,
		tokens:        deps.Tokens,
		hub:           deps.Hub,
		limiter:       deps.Limiter,
		logger:        logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := slog.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	healthHandler := serverHandlers.NewHealthHandler(r.pingDB(), r.pingRedis(), r.runner.SessionID)
	gameStatusHandler := gameHandlers.NewGameStatusHandler(r.runner, r.hub)
	var stream gameHandlers.Flusher
	if r.hub != nil {
		stream = r.hub
	}
	gameHandler := gameHandlers.NewGameHandler(r.runner, r.galaxyService, r.galaxySource, r.tokens, stream)
	catalogHandler := galaxyHandlers.NewCatalogHandler(r.galaxyService)

	session := middleware.NewSessionMiddleware(r.tokens, r.runner.SessionID)
	protected := func(h http.HandlerFunc) http.Handler {
		return r.limiter.Middleware(session.Middleware(h))
	}

	// Public endpoints
	mux.Handle("/api/server/health", healthHandler)
	mux.Handle("/api/game/status", gameStatusHandler)
	mux.HandleFunc("/api/galaxy", gameHandler.GetGalaxy)
	mux.HandleFunc("/api/stars", gameHandler.GetStars)
	mux.HandleFunc("/api/stars/{id}", gameHandler.GetStar)
	mux.HandleFunc("/api/convoys", gameHandler.GetConvoys)
	mux.HandleFunc("/api/snapshot", gameHandler.GetSnapshot)
	mux.HandleFunc("/api/galaxies", catalogHandler.List)
	mux.HandleFunc("GET /api/galaxies/{name}", catalogHandler.Get)
	mux.Handle("/api/stream", r.hub)

	// Issuing a token is rate limited but needs no token itself
	mux.Handle("/api/session", r.limiter.Middleware(http.HandlerFunc(gameHandler.StartSession)))

	// Protected endpoints (current session token)
	mux.Handle("/api/session/reset", protected(gameHandler.ResetSession))
	mux.Handle("/api/dispatch", protected(gameHandler.Dispatch))
	mux.Handle("/api/dispatch/many", protected(gameHandler.DispatchMany))
	mux.Handle("/api/selection", protected(gameHandler.Select))
	mux.Handle("/api/selection/dispatch", protected(gameHandler.DispatchSelection))
	mux.Handle("POST /api/galaxies/{name}", protected(catalogHandler.Import))

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health", "/api/game/status", "/api/galaxy", "/api/stars", "/api/convoys", "/api/snapshot", "/api/galaxies", "/api/stream"},
		"session_endpoints", []string{"/api/session"},
		"protected_endpoints", []string{"/api/session/reset", "/api/dispatch", "/api/dispatch/many", "/api/selection", "/api/selection/dispatch", "/api/galaxies/{name}"},
	)

	return mux
}

func (r *Routes) pingDB() serverHandlers.PingFunc {
	if r.db == nil {
		return nil
	}
	return r.db.PingContext
}

func (r *Routes) pingRedis() serverHandlers.PingFunc {
	if r.publisher == nil {
		return nil
	}
	return r.publisher.Ping
}
