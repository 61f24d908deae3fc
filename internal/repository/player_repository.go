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

const playerColumns = `id, league_id, round_id, name, team, role, base_price, order_index,
	status, sold_to_franchise_id, sold_for_amount, sold_at, created_at, updated_at`

// PlayerRepository persists auction players and the unsold pool
type PlayerRepository struct {
	logger *logger.Logger
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(logger *logger.Logger) *PlayerRepository {
	return &PlayerRepository{logger: logger}
}

// InsertBatch inserts players preserving their order indexes
func (r *PlayerRepository) InsertBatch(ctx context.Context, q database.Querier, players []domain.AuctionPlayer) error {
	if len(players) == 0 {
		return nil
	}

	query := `
		INSERT INTO auction_players (id, league_id, round_id, name, team, role, base_price, order_index, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	batch := &pgx.Batch{}
	for i := range players {
		p := &players[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		batch.Queue(query, p.ID, p.LeagueID, p.RoundID, p.Name, p.Team, p.Role, p.BasePrice, p.OrderIndex, p.Status)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for range players {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert players: %w", err)
		}
	}
	return nil
}

// GetByID fetches a player, nil when not found
func (r *PlayerRepository) GetByID(ctx context.Context, q database.Querier, playerID string) (*domain.AuctionPlayer, error) {
	query := `SELECT ` + playerColumns + ` FROM auction_players WHERE id = $1`
	return r.scanPlayer(q.QueryRow(ctx, query, playerID))
}

// NextPending returns the lowest order index pending player of a round,
// nil when the queue is exhausted
func (r *PlayerRepository) NextPending(ctx context.Context, q database.Querier, roundID string) (*domain.AuctionPlayer, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM auction_players
		WHERE round_id = $1 AND status = $2
		ORDER BY order_index, id
		LIMIT 1`
	return r.scanPlayer(q.QueryRow(ctx, query, roundID, domain.PlayerStatusPending))
}

// MarkCurrent puts a pending player on the block. Returns
// domain.ErrAlreadyProcessed when the player is no longer pending.
func (r *PlayerRepository) MarkCurrent(ctx context.Context, q database.Querier, playerID string) error {
	return r.transition(ctx, q,
		`UPDATE auction_players SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		domain.PlayerStatusCurrent, playerID, domain.PlayerStatusPending)
}

// MarkSold resolves the player on the block as sold. The status guard makes
// a concurrent double resolve report domain.ErrAlreadyProcessed instead of
// selling twice.
func (r *PlayerRepository) MarkSold(ctx context.Context, q database.Querier, playerID string, amount int64, franchiseID string) error {
	query := `
		UPDATE auction_players
		SET status = $1, sold_to_franchise_id = $2, sold_for_amount = $3, sold_at = now(), updated_at = now()
		WHERE id = $4 AND status = $5`

	tag, err := q.Exec(ctx, query, domain.PlayerStatusSold, franchiseID, amount, playerID, domain.PlayerStatusCurrent)
	if err != nil {
		return fmt.Errorf("failed to mark player sold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyProcessed
	}
	return nil
}

// MarkUnsold resolves the player on the block as unsold
func (r *PlayerRepository) MarkUnsold(ctx context.Context, q database.Querier, playerID string) error {
	return r.transition(ctx, q,
		`UPDATE auction_players SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		domain.PlayerStatusUnsold, playerID, domain.PlayerStatusCurrent)
}

// ReturnToPending puts the player on the block back into the queue, used
// when the session is stopped or another round is selected mid-player
func (r *PlayerRepository) ReturnToPending(ctx context.Context, q database.Querier, playerID string) error {
	return r.transition(ctx, q,
		`UPDATE auction_players SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		domain.PlayerStatusPending, playerID, domain.PlayerStatusCurrent)
}

func (r *PlayerRepository) transition(ctx context.Context, q database.Querier, query string, args ...any) error {
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to transition player: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyProcessed
	}
	return nil
}

// DeleteByRound removes every player in a round, used when a round is
// rebuilt with full replace semantics
func (r *PlayerRepository) DeleteByRound(ctx context.Context, q database.Querier, roundID string) (int64, error) {
	tag, err := q.Exec(ctx, `DELETE FROM auction_players WHERE round_id = $1`, roundID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete round players: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeletePending removes a round's queued players, used when an import
// replaces the queue while preserving already resolved players
func (r *PlayerRepository) DeletePending(ctx context.Context, q database.Querier, roundID string) (int64, error) {
	tag, err := q.Exec(ctx,
		`DELETE FROM auction_players WHERE round_id = $1 AND status = $2`,
		roundID, domain.PlayerStatusPending)
	if err != nil {
		return 0, fmt.Errorf("failed to delete pending players: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ResetByLeague reverts every player to pending and clears sale fields
func (r *PlayerRepository) ResetByLeague(ctx context.Context, q database.Querier, leagueID string) error {
	query := `
		UPDATE auction_players
		SET status = $1, sold_to_franchise_id = NULL, sold_for_amount = NULL, sold_at = NULL, updated_at = now()
		WHERE league_id = $2`

	if _, err := q.Exec(ctx, query, domain.PlayerStatusPending, leagueID); err != nil {
		return fmt.Errorf("failed to reset players: %w", err)
	}
	return nil
}

// MaxOrderIndex returns the highest order index in a round, -1 for an
// empty round
func (r *PlayerRepository) MaxOrderIndex(ctx context.Context, q database.Querier, roundID string) (int, error) {
	var maxIndex int
	err := q.QueryRow(ctx,
		`SELECT COALESCE(MAX(order_index), -1) FROM auction_players WHERE round_id = $1`,
		roundID).Scan(&maxIndex)
	if err != nil {
		return 0, fmt.Errorf("failed to get max order index: %w", err)
	}
	return maxIndex, nil
}

// CountByRound returns the queue breakdown of a round
func (r *PlayerRepository) CountByRound(ctx context.Context, q database.Querier, roundID string) (*domain.RoundProgress, error) {
	query := `
		SELECT count(*),
			count(*) FILTER (WHERE status = 'pending'),
			count(*) FILTER (WHERE status = 'sold'),
			count(*) FILTER (WHERE status = 'unsold')
		FROM auction_players
		WHERE round_id = $1`

	var progress domain.RoundProgress
	err := q.QueryRow(ctx, query, roundID).
		Scan(&progress.Total, &progress.Pending, &progress.Sold, &progress.Unsold)
	if err != nil {
		return nil, fmt.Errorf("failed to count players: %w", err)
	}
	return &progress, nil
}

// List returns players filtered by round and status, ordered by queue
// position. A zero limit means no limit.
func (r *PlayerRepository) List(ctx context.Context, q database.Querier, leagueID, roundID string, status domain.PlayerStatus, limit int) ([]domain.AuctionPlayer, error) {
	query := `SELECT ` + playerColumns + ` FROM auction_players WHERE league_id = $1`
	args := []any{leagueID}

	if roundID != "" {
		args = append(args, roundID)
		query += fmt.Sprintf(" AND round_id = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY order_index, id"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := make([]domain.AuctionPlayer, 0)
	for rows.Next() {
		player, err := scanPlayerFields(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, *player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read players: %w", err)
	}
	return players, nil
}

// InsertUnsold mirrors an unsold player into the league pool
func (r *PlayerRepository) InsertUnsold(ctx context.Context, q database.Querier, entry *domain.UnsoldPlayer) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	query := `
		INSERT INTO unsold_pool (id, league_id, player_id, round_id, name, team, role, base_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (league_id, player_id) DO NOTHING
		RETURNING marked_at`

	err := q.QueryRow(ctx, query,
		entry.ID, entry.LeagueID, entry.PlayerID, entry.RoundID,
		entry.Name, entry.Team, entry.Role, entry.BasePrice,
	).Scan(&entry.MarkedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already pooled, keep the earlier entry.
			return nil
		}
		return fmt.Errorf("failed to insert unsold player: %w", err)
	}
	return nil
}

// ListUnsold returns the league's unsold pool in marked order
func (r *PlayerRepository) ListUnsold(ctx context.Context, q database.Querier, leagueID string) ([]domain.UnsoldPlayer, error) {
	query := `
		SELECT id, league_id, player_id, round_id, name, team, role, base_price, marked_at
		FROM unsold_pool
		WHERE league_id = $1
		ORDER BY marked_at, id`

	rows, err := q.Query(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsold pool: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.UnsoldPlayer, 0)
	for rows.Next() {
		var entry domain.UnsoldPlayer
		if err := rows.Scan(
			&entry.ID, &entry.LeagueID, &entry.PlayerID, &entry.RoundID,
			&entry.Name, &entry.Team, &entry.Role, &entry.BasePrice, &entry.MarkedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan unsold player: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read unsold pool: %w", err)
	}
	return entries, nil
}

// ClearUnsold empties the league's unsold pool
func (r *PlayerRepository) ClearUnsold(ctx context.Context, q database.Querier, leagueID string) error {
	if _, err := q.Exec(ctx, `DELETE FROM unsold_pool WHERE league_id = $1`, leagueID); err != nil {
		return fmt.Errorf("failed to clear unsold pool: %w", err)
	}
	return nil
}

func (r *PlayerRepository) scanPlayer(row pgx.Row) (*domain.AuctionPlayer, error) {
	player, err := scanPlayerFields(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan player: %w", err)
	}
	return player, nil
}

func scanPlayerFields(row pgx.Row) (*domain.AuctionPlayer, error) {
	var player domain.AuctionPlayer
	err := row.Scan(
		&player.ID,
		&player.LeagueID,
		&player.RoundID,
		&player.Name,
		&player.Team,
		&player.Role,
		&player.BasePrice,
		&player.OrderIndex,
		&player.Status,
		&player.SoldToFranchiseID,
		&player.SoldForAmount,
		&player.SoldAt,
		&player.CreatedAt,
		&player.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &player, nil
}
