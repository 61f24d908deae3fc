package service

import (
	"context"

	"github.com/crickarena/auction-api/internal/domain"
)

// AuctionService defines the auction engine operations
type AuctionService interface {
	// Setup initializes a league's auction, or resets an existing one to
	// the inactive shape, and sets every franchise purse to the budget
	Setup(ctx context.Context, leagueID string, req *domain.SetupRequest) (*domain.StateResponse, error)

	// CreateRound creates a numbered round with its player queue, fully
	// replacing the round if the number already exists
	CreateRound(ctx context.Context, leagueID string, req *domain.CreateRoundRequest) (*domain.RoundResponse, error)

	// ImportPlayers adds players to a round's queue
	ImportPlayers(ctx context.Context, leagueID, roundID string, req *domain.ImportPlayersRequest) (*domain.ImportResponse, error)

	// DeleteRound removes a round and its players
	DeleteRound(ctx context.Context, leagueID, roundID string) error

	// Control applies an administrative state machine action
	Control(ctx context.Context, leagueID string, req *domain.ControlRequest) (*domain.StateResponse, error)

	// Bid places a bid for a franchise on the player on the block
	Bid(ctx context.Context, leagueID string, req *domain.BidRequest) (*domain.BidResponse, error)

	// GetState assembles the full auction state for display
	GetState(ctx context.Context, leagueID string) (*domain.StateResponse, error)

	// ListPlayers returns players filtered by round and status
	ListPlayers(ctx context.Context, leagueID, roundID string, status domain.PlayerStatus, limit int) ([]domain.AuctionPlayer, error)

	// ListLogs returns the league's activity log, newest first
	ListLogs(ctx context.Context, leagueID, roundID string, limit int) ([]domain.AuctionLogEntry, error)

	// ListUnsold returns the league's unsold pool
	ListUnsold(ctx context.Context, leagueID string) ([]domain.UnsoldPlayer, error)

	// Reset tears the auction down to a fresh pre-start state
	Reset(ctx context.Context, leagueID string) error
}

// TokenService defines signing and verification of request tokens
type TokenService interface {
	// Mint issues a signed token carrying the given claims
	Mint(claims *domain.AuthClaims) (string, error)

	// Verify validates a token string and returns its claims
	Verify(tokenString string) (*domain.AuthClaims, error)
}

// StateNotifier pushes assembled auction state to connected spectators.
// Mutations invoke it best effort after commit.
type StateNotifier interface {
	NotifyState(leagueID string, state *domain.StateResponse)
}

// Services aggregates all service interfaces
type Services struct {
	Auction AuctionService
	Token   TokenService
}
