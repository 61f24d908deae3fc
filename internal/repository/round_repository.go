package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/crickarena/auction-api/internal/domain"
	"github.com/crickarena/auction-api/pkg/database"
	apperrors "github.com/crickarena/auction-api/pkg/errors"
	"github.com/crickarena/auction-api/pkg/logger"
)

const roundColumns = `id, league_id, round_number, name, status, created_at`

// RoundRepository persists auction rounds
type RoundRepository struct {
	logger *logger.Logger
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(logger *logger.Logger) *RoundRepository {
	return &RoundRepository{logger: logger}
}

// Create inserts a round. Round numbers are unique per league.
func (r *RoundRepository) Create(ctx context.Context, q database.Querier, round *domain.AuctionRound) error {
	if round.ID == "" {
		round.ID = uuid.NewString()
	}

	query := `
		INSERT INTO auction_rounds (id, league_id, round_number, name, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := q.QueryRow(ctx, query, round.ID, round.LeagueID, round.RoundNumber, round.Name, round.Status).
		Scan(&round.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewPreconditionError(
				fmt.Sprintf("round %d already exists in this league", round.RoundNumber))
		}
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

// GetByID fetches a round, nil when not found
func (r *RoundRepository) GetByID(ctx context.Context, q database.Querier, roundID string) (*domain.AuctionRound, error) {
	query := `SELECT ` + roundColumns + ` FROM auction_rounds WHERE id = $1`
	return r.scanRound(q.QueryRow(ctx, query, roundID))
}

// GetByNumber fetches a league's round by its round number, nil when not
// found
func (r *RoundRepository) GetByNumber(ctx context.Context, q database.Querier, leagueID string, roundNumber int) (*domain.AuctionRound, error) {
	query := `SELECT ` + roundColumns + ` FROM auction_rounds WHERE league_id = $1 AND round_number = $2`
	return r.scanRound(q.QueryRow(ctx, query, leagueID, roundNumber))
}

// ListByLeague returns a league's rounds ordered by round number
func (r *RoundRepository) ListByLeague(ctx context.Context, q database.Querier, leagueID string) ([]domain.AuctionRound, error) {
	query := `SELECT ` + roundColumns + ` FROM auction_rounds WHERE league_id = $1 ORDER BY round_number`

	rows, err := q.Query(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	defer rows.Close()

	rounds := make([]domain.AuctionRound, 0)
	for rows.Next() {
		var round domain.AuctionRound
		if err := rows.Scan(&round.ID, &round.LeagueID, &round.RoundNumber, &round.Name, &round.Status, &round.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rounds: %w", err)
	}
	return rounds, nil
}

// UpdateName renames a round, used by the full replace path
func (r *RoundRepository) UpdateName(ctx context.Context, q database.Querier, roundID, name string) error {
	tag, err := q.Exec(ctx, `UPDATE auction_rounds SET name = $1 WHERE id = $2`, name, roundID)
	if err != nil {
		return fmt.Errorf("failed to rename round: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("round not found")
	}
	return nil
}

// UpdateStatus moves a round through its lifecycle
func (r *RoundRepository) UpdateStatus(ctx context.Context, q database.Querier, roundID string, status domain.RoundStatus) error {
	tag, err := q.Exec(ctx, `UPDATE auction_rounds SET status = $1 WHERE id = $2`, status, roundID)
	if err != nil {
		return fmt.Errorf("failed to update round status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("round not found")
	}
	return nil
}

// DeactivateExcept sets every active round in the league except the given
// one back to pending, keeping a single active round per league.
func (r *RoundRepository) DeactivateExcept(ctx context.Context, q database.Querier, leagueID, roundID string) error {
	query := `UPDATE auction_rounds SET status = $1 WHERE league_id = $2 AND status = $3 AND id != $4`
	if _, err := q.Exec(ctx, query, domain.RoundStatusPending, leagueID, domain.RoundStatusActive, roundID); err != nil {
		return fmt.Errorf("failed to deactivate rounds: %w", err)
	}
	return nil
}

// ResetByLeague reverts every round in the league to pending
func (r *RoundRepository) ResetByLeague(ctx context.Context, q database.Querier, leagueID string) error {
	query := `UPDATE auction_rounds SET status = $1 WHERE league_id = $2`
	if _, err := q.Exec(ctx, query, domain.RoundStatusPending, leagueID); err != nil {
		return fmt.Errorf("failed to reset rounds: %w", err)
	}
	return nil
}

// Delete removes a round and, through cascade, its players
func (r *RoundRepository) Delete(ctx context.Context, q database.Querier, roundID string) error {
	tag, err := q.Exec(ctx, `DELETE FROM auction_rounds WHERE id = $1`, roundID)
	if err != nil {
		return fmt.Errorf("failed to delete round: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("round not found")
	}
	return nil
}

func (r *RoundRepository) scanRound(row pgx.Row) (*domain.AuctionRound, error) {
	var round domain.AuctionRound
	err := row.Scan(&round.ID, &round.LeagueID, &round.RoundNumber, &round.Name, &round.Status, &round.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan round: %w", err)
	}
	return &round, nil
}
