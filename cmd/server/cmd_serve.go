package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"starconquest-server/internal/auth"
	"starconquest-server/internal/convoy"
	"starconquest-server/internal/events"
	"starconquest-server/internal/galaxy"
	"starconquest-server/internal/game"
	"starconquest-server/internal/journal"
	"starconquest-server/internal/middleware"
	"starconquest-server/internal/server"
	"starconquest-server/internal/shared/config"
	"starconquest-server/internal/shared/database"
	"starconquest-server/internal/shared/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation and its HTTP API",
		Long: `Load the configured galaxy, start the simulation loop and serve the HTTP
API and event stream until interrupted.

Configuration comes from the environment and an optional .env file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if err := config.Init(); err != nil {
		return err
	}
	logger.Init()

	cfg := config.GlobalConfig
	log := slog.With("component", "server", "operation", "startup")
	log.Info("Starting starconquest server",
		"version", version,
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
	)

	var db *database.DB
	if cfg.Database.Enabled {
		var err error
		db, err = database.Connect()
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := db.RunMigrations(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	galaxies, err := newGalaxyService(db, cfg.Simulation.GeneratorProfile)
	if err != nil {
		return err
	}

	graph, err := galaxies.Load(ctx, cfg.Simulation.GalaxySource)
	if err != nil {
		return fmt.Errorf("failed to load galaxy %q: %w", cfg.Simulation.GalaxySource, err)
	}

	bus := events.NewBus()
	hub := events.NewHub(cfg.Frontend.URL, slog.Default())
	bus.Subscribe(hub)

	publisher, err := events.DialRedis(ctx, cfg.Redis, slog.Default())
	if err != nil {
		return err
	}
	defer publisher.Close()
	if publisher != nil {
		bus.Subscribe(publisher)
	}

	if cfg.Journal.Enabled {
		jw, err := journal.Create(cfg.Journal.Path, slog.Default())
		if err != nil {
			return err
		}
		defer jw.Close()
		bus.Subscribe(jw)
	}

	opts, err := sessionOptions(cfg.Simulation)
	if err != nil {
		return err
	}
	session, err := game.NewSession(graph, opts, bus, slog.Default())
	if err != nil {
		return err
	}

	tokens, err := auth.NewService(cfg.Auth.SessionSecret, cfg.Auth.TokenExpiration, slog.Default(),
		auth.WithCookiePolicy(auth.NewCookiePolicy(cfg.Auth, cfg.Frontend.URL)))
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	runner := game.NewRunner(session, cfg.Simulation.TickInterval, slog.Default())
	go runner.Run(runCtx)
	if publisher != nil {
		go publisher.Run(runCtx)
	}

	routes := server.NewRoutes(server.Deps{
		DB:            db,
		Publisher:     publisher,
		Runner:        runner,
		GalaxyService: galaxies,
		GalaxySource:  cfg.Simulation.GalaxySource,
		Tokens:        tokens,
		Hub:           hub,
		Limiter:       middleware.NewRateLimiter(runCtx, cfg.RateLimit),
	}, slog.Default())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      middleware.NewCORS(cfg.Frontend).Middleware(routes.Setup()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening", "addr", srv.Addr, "url", cfg.Server.URL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown requested")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}

	cancel()
	<-runner.Done()
	if publisher != nil {
		<-publisher.Done()
		if n := publisher.Dropped(); n > 0 {
			log.Warn("Redis publisher dropped events", "dropped", n)
		}
	}

	log.Info("Server stopped")
	return nil
}

func newGalaxyService(db *database.DB, profilePath string) (*galaxy.Service, error) {
	profile := galaxy.DefaultProfile()
	if profilePath != "" {
		var err error
		profile, err = galaxy.LoadProfile(profilePath)
		if err != nil {
			return nil, err
		}
	}

	var repo *galaxy.Repository
	if db != nil {
		repo = galaxy.NewRepository(db, slog.Default())
	}
	return galaxy.NewService(repo, profile, slog.Default()), nil
}

func sessionOptions(sim config.SimulationConfig) (game.Options, error) {
	carry, err := convoy.ParseCarryModel(sim.CarryModel)
	if err != nil {
		return game.Options{}, err
	}
	return game.Options{
		HomeStar:           sim.HomeStar,
		CarryModel:         carry,
		PassThroughCapture: sim.PassThroughCapture,
		Seed:               uint64(sim.Seed),
	}, nil
}
