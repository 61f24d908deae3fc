package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/crickarena/auction-api/internal/domain"
	"github.com/crickarena/auction-api/pkg/database"
	"github.com/crickarena/auction-api/pkg/logger"
)

const auctionStateColumns = `id, league_id, status, budget, current_round_id, current_player_id,
	current_bid, current_bidder_id, bid_deadline, paused_remaining_ms, version, created_at, updated_at`

// AuctionRepository persists the singleton per-league auction state.
// Mutating methods take a database.Querier so they run inside the
// caller's transaction.
type AuctionRepository struct {
	logger *logger.Logger
}

// NewAuctionRepository creates a new auction repository
func NewAuctionRepository(logger *logger.Logger) *AuctionRepository {
	return &AuctionRepository{logger: logger}
}

// Create inserts a fresh auction state for a league
func (r *AuctionRepository) Create(ctx context.Context, q database.Querier, state *domain.AuctionState) error {
	if state.ID == "" {
		state.ID = uuid.NewString()
	}

	query := `
		INSERT INTO auction_state (id, league_id, status, budget)
		VALUES ($1, $2, $3, $4)
		RETURNING version, created_at, updated_at`

	err := q.QueryRow(ctx, query, state.ID, state.LeagueID, state.Status, state.Budget).
		Scan(&state.Version, &state.CreatedAt, &state.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("failed to create auction state: %w", err)
	}
	return nil
}

// GetByLeague fetches a league's auction state, nil when none exists
func (r *AuctionRepository) GetByLeague(ctx context.Context, q database.Querier, leagueID string) (*domain.AuctionState, error) {
	query := `SELECT ` + auctionStateColumns + ` FROM auction_state WHERE league_id = $1`
	return r.scanState(q.QueryRow(ctx, query, leagueID))
}

// GetByLeagueForUpdate fetches a league's auction state with a row lock,
// serializing concurrent mutations at the database.
func (r *AuctionRepository) GetByLeagueForUpdate(ctx context.Context, q database.Querier, leagueID string) (*domain.AuctionState, error) {
	query := `SELECT ` + auctionStateColumns + ` FROM auction_state WHERE league_id = $1 FOR UPDATE`
	return r.scanState(q.QueryRow(ctx, query, leagueID))
}

// Update writes the mutable state columns guarded by the version the
// caller read. Returns domain.ErrVersionConflict when a concurrent
// mutation won the race.
func (r *AuctionRepository) Update(ctx context.Context, q database.Querier, state *domain.AuctionState) error {
	query := `
		UPDATE auction_state
		SET status = $1,
			budget = $2,
			current_round_id = $3,
			current_player_id = $4,
			current_bid = $5,
			current_bidder_id = $6,
			bid_deadline = $7,
			paused_remaining_ms = $8,
			version = version + 1,
			updated_at = now()
		WHERE id = $9 AND version = $10
		RETURNING version, updated_at`

	err := q.QueryRow(ctx, query,
		state.Status,
		state.Budget,
		state.CurrentRoundID,
		state.CurrentPlayerID,
		state.CurrentBid,
		state.CurrentBidderID,
		state.BidDeadline,
		state.PausedRemainingMs,
		state.ID,
		state.Version,
	).Scan(&state.Version, &state.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("failed to update auction state: %w", err)
	}
	return nil
}

func (r *AuctionRepository) scanState(row pgx.Row) (*domain.AuctionState, error) {
	var state domain.AuctionState
	err := row.Scan(
		&state.ID,
		&state.LeagueID,
		&state.Status,
		&state.Budget,
		&state.CurrentRoundID,
		&state.CurrentPlayerID,
		&state.CurrentBid,
		&state.CurrentBidderID,
		&state.BidDeadline,
		&state.PausedRemainingMs,
		&state.Version,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan auction state: %w", err)
	}
	return &state, nil
}
