package container

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/crickarena/auction-api/internal/config"
	"github.com/crickarena/auction-api/internal/repository"
	"github.com/crickarena/auction-api/internal/service"
	"github.com/crickarena/auction-api/internal/ws"
	"github.com/crickarena/auction-api/pkg/database"
	"github.com/crickarena/auction-api/pkg/logger"
	"github.com/crickarena/auction-api/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *database.PostgresDB
	RedisClient *redis.Client
	Hub         *ws.Hub
	Services    *service.Services
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	db, err := database.NewPostgresDB(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		// The engine stays correct without redis: the state cache and the
		// cross-instance lease are both advisory.
		log.WithError(err).Warn("failed to initialize redis, proceeding without cache")
		redisClient = nil
	} else {
		log.Info("redis client initialized")
	}

	keys := redis.NewKeyBuilder("auction")
	clock := clockwork.NewRealClock()
	hub := ws.NewHub(ws.DefaultConfig(), log)

	auctionRepo := repository.NewAuctionRepository(log)
	roundRepo := repository.NewRoundRepository(log)
	playerRepo := repository.NewPlayerRepository(log)
	franchiseRepo := repository.NewFranchiseRepository(log)
	logRepo := repository.NewLogRepository(log)

	bidGate := service.NewSerializer("bid", cfg.Auction.BidWait, clock, redisClient, keys, log)
	controlGate := service.NewSerializer("control", cfg.Auction.ControlWait, clock, redisClient, keys, log)

	auctionService := service.NewAuctionService(service.AuctionServiceDeps{
		DB:            db,
		Cache:         redisClient,
		Keys:          keys,
		AuctionRepo:   auctionRepo,
		RoundRepo:     roundRepo,
		PlayerRepo:    playerRepo,
		FranchiseRepo: franchiseRepo,
		LogRepo:       logRepo,
		BidGate:       bidGate,
		ControlGate:   controlGate,
		Pricing:       service.NewPricingEngine(cfg.Auction.IncrementTiers),
		Clock:         clock,
		Config:        cfg.Auction,
		Logger:        log,
		Notifier:      hub,
	})

	tokenService := service.NewTokenService(cfg.Auth)

	return &Container{
		Config:      cfg,
		Logger:      log,
		DB:          db,
		RedisClient: redisClient,
		Hub:         hub,
		Services: &service.Services{
			Auction: auctionService,
			Token:   tokenService,
		},
	}, nil
}

// GetAuctionService returns the auction service
func (c *Container) GetAuctionService() service.AuctionService {
	return c.Services.Auction
}

// GetTokenService returns the token service
func (c *Container) GetTokenService() service.TokenService {
	return c.Services.Token
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// Cleanup releases held resources in reverse dependency order
func (c *Container) Cleanup() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.WithError(err).Error("failed to close redis client")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
