package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/crickarena/auction-api/internal/domain"
	"github.com/crickarena/auction-api/pkg/database"
	"github.com/crickarena/auction-api/pkg/logger"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 200
)

// LogRepository persists the append-only auction activity log
type LogRepository struct {
	logger *logger.Logger
}

// NewLogRepository creates a new log repository
func NewLogRepository(logger *logger.Logger) *LogRepository {
	return &LogRepository{logger: logger}
}

// Insert appends a log entry
func (r *LogRepository) Insert(ctx context.Context, q database.Querier, entry *domain.AuctionLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	query := `
		INSERT INTO auction_logs (id, league_id, round_id, player_id, franchise_id, log_type, message, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := q.QueryRow(ctx, query,
		entry.ID, entry.LeagueID, entry.RoundID, entry.PlayerID,
		entry.FranchiseID, entry.LogType, entry.Message, entry.Amount,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}
	return nil
}

// List returns a league's log entries, newest first
func (r *LogRepository) List(ctx context.Context, q database.Querier, leagueID, roundID string, limit int) ([]domain.AuctionLogEntry, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}

	query := `
		SELECT id, league_id, round_id, player_id, franchise_id, log_type, message, amount, created_at
		FROM auction_logs
		WHERE league_id = $1`
	args := []any{leagueID}

	if roundID != "" {
		args = append(args, roundID)
		query += fmt.Sprintf(" AND round_id = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuctionLogEntry, 0)
	for rows.Next() {
		var entry domain.AuctionLogEntry
		if err := rows.Scan(
			&entry.ID, &entry.LeagueID, &entry.RoundID, &entry.PlayerID,
			&entry.FranchiseID, &entry.LogType, &entry.Message, &entry.Amount, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read logs: %w", err)
	}
	return entries, nil
}

// DeleteByLeague removes every log entry in a league
func (r *LogRepository) DeleteByLeague(ctx context.Context, q database.Querier, leagueID string) error {
	if _, err := q.Exec(ctx, `DELETE FROM auction_logs WHERE league_id = $1`, leagueID); err != nil {
		return fmt.Errorf("failed to delete logs: %w", err)
	}
	return nil
}
