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

// FranchiseRepository persists franchises and their rosters
type FranchiseRepository struct {
	logger *logger.Logger
}

// NewFranchiseRepository creates a new franchise repository
func NewFranchiseRepository(logger *logger.Logger) *FranchiseRepository {
	return &FranchiseRepository{logger: logger}
}

// GetByID fetches a franchise, nil when not found
func (r *FranchiseRepository) GetByID(ctx context.Context, q database.Querier, franchiseID string) (*domain.Franchise, error) {
	query := `
		SELECT id, league_id, name, short_name, purse, created_at, updated_at
		FROM franchises
		WHERE id = $1`

	var f domain.Franchise
	err := q.QueryRow(ctx, query, franchiseID).
		Scan(&f.ID, &f.LeagueID, &f.Name, &f.ShortName, &f.Purse, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get franchise: %w", err)
	}
	return &f, nil
}

// ListByLeague returns a league's franchises ordered by name
func (r *FranchiseRepository) ListByLeague(ctx context.Context, q database.Querier, leagueID string) ([]domain.Franchise, error) {
	query := `
		SELECT id, league_id, name, short_name, purse, created_at, updated_at
		FROM franchises
		WHERE league_id = $1
		ORDER BY name`

	rows, err := q.Query(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list franchises: %w", err)
	}
	defer rows.Close()

	franchises := make([]domain.Franchise, 0)
	for rows.Next() {
		var f domain.Franchise
		if err := rows.Scan(&f.ID, &f.LeagueID, &f.Name, &f.ShortName, &f.Purse, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan franchise: %w", err)
		}
		franchises = append(franchises, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read franchises: %w", err)
	}
	return franchises, nil
}

// SetPurses resets every franchise purse in a league to the given budget
func (r *FranchiseRepository) SetPurses(ctx context.Context, q database.Querier, leagueID string, budget int64) error {
	if _, err := q.Exec(ctx,
		`UPDATE franchises SET purse = $1, updated_at = now() WHERE league_id = $2`,
		budget, leagueID); err != nil {
		return fmt.Errorf("failed to set purses: %w", err)
	}
	return nil
}

// DeductPurse subtracts a sale price from a franchise purse. The purse
// guard keeps the balance from going negative even if an earlier check
// raced.
func (r *FranchiseRepository) DeductPurse(ctx context.Context, q database.Querier, franchiseID string, amount int64) error {
	query := `
		UPDATE franchises
		SET purse = purse - $1, updated_at = now()
		WHERE id = $2 AND purse >= $1`

	tag, err := q.Exec(ctx, query, amount, franchiseID)
	if err != nil {
		return fmt.Errorf("failed to deduct purse: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewInsufficientFundsError("franchise purse cannot cover the sale price")
	}
	return nil
}

// AddRosterEntry records a purchased player on a franchise roster
func (r *FranchiseRepository) AddRosterEntry(ctx context.Context, q database.Querier, entry *domain.RosterEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	query := `
		INSERT INTO roster_entries (id, league_id, franchise_id, player_id, player_name, price, acquisition)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := q.QueryRow(ctx, query,
		entry.ID, entry.LeagueID, entry.FranchiseID, entry.PlayerID,
		entry.PlayerName, entry.Price, entry.Acquisition,
	).Scan(&entry.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyProcessed
		}
		return fmt.Errorf("failed to add roster entry: %w", err)
	}
	return nil
}

// CountRoster returns a franchise's current squad size
func (r *FranchiseRepository) CountRoster(ctx context.Context, q database.Querier, franchiseID string) (int, error) {
	var count int
	err := q.QueryRow(ctx,
		`SELECT count(*) FROM roster_entries WHERE franchise_id = $1`,
		franchiseID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count roster: %w", err)
	}
	return count, nil
}

// RosterSizes returns squad sizes for every franchise in a league
func (r *FranchiseRepository) RosterSizes(ctx context.Context, q database.Querier, leagueID string) (map[string]int, error) {
	query := `
		SELECT franchise_id, count(*)
		FROM roster_entries
		WHERE league_id = $1
		GROUP BY franchise_id`

	rows, err := q.Query(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster sizes: %w", err)
	}
	defer rows.Close()

	sizes := make(map[string]int)
	for rows.Next() {
		var franchiseID string
		var count int
		if err := rows.Scan(&franchiseID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan roster size: %w", err)
		}
		sizes[franchiseID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read roster sizes: %w", err)
	}
	return sizes, nil
}

// DeleteAuctionRoster removes the league's roster entries that were
// acquired through the auction, leaving externally managed entries alone
func (r *FranchiseRepository) DeleteAuctionRoster(ctx context.Context, q database.Querier, leagueID string) error {
	if _, err := q.Exec(ctx,
		`DELETE FROM roster_entries WHERE league_id = $1 AND acquisition = $2`,
		leagueID, domain.AcquisitionAuction); err != nil {
		return fmt.Errorf("failed to delete auction roster entries: %w", err)
	}
	return nil
}
