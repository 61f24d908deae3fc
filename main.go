package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/crickarena/auction-api/internal/config"
	"github.com/crickarena/auction-api/internal/container"
	"github.com/crickarena/auction-api/internal/handler"
	"github.com/crickarena/auction-api/internal/middleware"
	"github.com/crickarena/auction-api/pkg/logger"
)

// Resources holds everything that needs an orderly shutdown
type Resources struct {
	container *container.Container
	server    *http.Server
	hubCancel context.CancelFunc
	log       *logger.Logger
	mu        sync.Mutex
	closed    bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	r.log.Info("starting graceful shutdown")

	var errs []error

	if r.server != nil {
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("failed to shutdown HTTP server")
			errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	// Stop the websocket hub once no new requests can arrive.
	if r.hubCancel != nil {
		r.hubCancel()
	}

	if r.container != nil {
		r.container.Cleanup()
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errs), errs)
	}

	r.log.Info("graceful shutdown complete")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"port":        cfg.Server.Port,
		"log_level":   cfg.LogLevel,
		"environment": cfg.Server.Env,
	}).Info("starting auction-api")

	ctx := context.Background()
	c, err := container.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to create container")
	}

	hubCtx, hubCancel := context.WithCancel(ctx)
	go c.Hub.Start(hubCtx)

	router := setupRouter(c)

	server := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	resources := &Resources{
		container: c,
		server:    server,
		hubCancel: hubCancel,
		log:       log,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.WithError(err).Error("cleanup completed with errors")
		}
	}()

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("server listening on port " + cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("server failed, initiating shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown completed with errors")
		os.Exit(1)
	}
}

// setupRouter configures and returns the HTTP router
func setupRouter(c *container.Container) *chi.Mux {
	cfg := c.GetConfig()
	log := c.GetLogger()
	auctionService := c.GetAuctionService()
	tokenService := c.GetTokenService()

	r := chi.NewRouter()

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	r.Use(middleware.CORS(corsConfig, log))
	r.Use(middleware.RequestID())
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	healthHandler := handler.NewHealthHandler(c.DB, c.RedisClient, log)
	auctionHandler := handler.NewAuctionHandler(auctionService, log)

	r.Get("/health", healthHandler.Check)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1/leagues/{leagueID}/auction", func(r chi.Router) {
		// Spectator surface: read-only, no token needed.
		r.Get("/state", auctionHandler.GetState)
		r.Get("/players", auctionHandler.ListPlayers)
		r.Get("/logs", auctionHandler.ListLogs)
		r.Get("/unsold", auctionHandler.ListUnsold)
		r.Get("/ws", c.Hub.Serve)

		// Bidding: any league member with a valid token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenService, log))
			r.Use(middleware.LeagueScope(log))

			r.Post("/bid", auctionHandler.Bid)
		})

		// Control surface: auctioneer only.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenService, log))
			r.Use(middleware.LeagueScope(log))
			r.Use(middleware.RequireAdmin(log))

			r.Post("/setup", auctionHandler.Setup)
			r.Post("/rounds", auctionHandler.CreateRound)
			r.Delete("/rounds/{roundID}", auctionHandler.DeleteRound)
			r.Post("/rounds/{roundID}/players", auctionHandler.ImportPlayers)
			r.Post("/control", auctionHandler.Control)
			r.Delete("/", auctionHandler.Reset)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"error":{"type":"not_found","message":"endpoint not found"}}`))
	})

	log.Info("router configured")
	return r
}
