package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/crickarena/auction-api/internal/domain"
	apperrors "github.com/crickarena/auction-api/pkg/errors"
	"github.com/crickarena/auction-api/pkg/redis"
)

const queuePreviewSize = 5

// GetState returns the assembled state, cache-aside with a short TTL. The
// countdown is recomputed on every read so cached snapshots stay honest.
func (s *auctionService) GetState(ctx context.Context, leagueID string) (*domain.StateResponse, error) {
	if s.cache != nil {
		var cached domain.StateResponse
		err := s.cache.Get(ctx, s.keys.AuctionStateKey(leagueID), &cached)
		if err == nil {
			cached.RemainingMs = s.remainingMs(cached.Auction)
			return &cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.WithError(err).WithField("league_id", leagueID).Warn("state cache read failed")
		}
	}

	state, err := s.assembleState(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.keys.AuctionStateKey(leagueID), state, redis.TTLAuctionState); err != nil {
			s.logger.WithError(err).WithField("league_id", leagueID).Warn("state cache write failed")
		}
	}
	return state, nil
}

// ListPlayers returns players filtered by round and status
func (s *auctionService) ListPlayers(ctx context.Context, leagueID, roundID string, status domain.PlayerStatus, limit int) ([]domain.AuctionPlayer, error) {
	if status != "" && !status.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid player status %q", status))
	}
	return s.playerRepo.List(ctx, s.db.Pool, leagueID, roundID, status, limit)
}

// ListLogs returns the league's activity log, newest first
func (s *auctionService) ListLogs(ctx context.Context, leagueID, roundID string, limit int) ([]domain.AuctionLogEntry, error) {
	return s.logRepo.List(ctx, s.db.Pool, leagueID, roundID, limit)
}

// ListUnsold returns the league's unsold pool
func (s *auctionService) ListUnsold(ctx context.Context, leagueID string) ([]domain.UnsoldPlayer, error) {
	return s.playerRepo.ListUnsold(ctx, s.db.Pool, leagueID)
}

// assembleState reads everything a spectator needs in one response: the
// raw state, the player on the block, a preview of the queue, round
// progress and every franchise's purse and squad size.
func (s *auctionService) assembleState(ctx context.Context, leagueID string) (*domain.StateResponse, error) {
	pool := s.db.Pool

	auction, err := s.auctionRepo.GetByLeague(ctx, pool, leagueID)
	if err != nil {
		return nil, err
	}
	if auction == nil {
		return nil, apperrors.NewNotFoundError("auction not set up for this league")
	}

	rounds, err := s.roundRepo.ListByLeague(ctx, pool, leagueID)
	if err != nil {
		return nil, err
	}

	franchises, err := s.franchiseRepo.ListByLeague(ctx, pool, leagueID)
	if err != nil {
		return nil, err
	}
	sizes, err := s.franchiseRepo.RosterSizes(ctx, pool, leagueID)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.FranchiseSummary, 0, len(franchises))
	for _, f := range franchises {
		summaries = append(summaries, domain.FranchiseSummary{
			ID:         f.ID,
			Name:       f.Name,
			ShortName:  f.ShortName,
			Purse:      f.Purse,
			RosterSize: sizes[f.ID],
		})
	}

	resp := &domain.StateResponse{
		Auction:      auction,
		QueuePreview: []domain.AuctionPlayer{},
		Rounds:       rounds,
		Franchises:   summaries,
	}

	if auction.CurrentRoundID != nil {
		for i := range rounds {
			if rounds[i].ID == *auction.CurrentRoundID {
				resp.CurrentRound = &rounds[i]
				break
			}
		}

		progress, err := s.playerRepo.CountByRound(ctx, pool, *auction.CurrentRoundID)
		if err != nil {
			return nil, err
		}
		resp.Progress = progress

		preview, err := s.playerRepo.List(ctx, pool, leagueID, *auction.CurrentRoundID, domain.PlayerStatusPending, queuePreviewSize)
		if err != nil {
			return nil, err
		}
		resp.QueuePreview = preview
	}

	if auction.CurrentPlayerID != nil {
		player, err := s.playerRepo.GetByID(ctx, pool, *auction.CurrentPlayerID)
		if err != nil {
			return nil, err
		}
		resp.CurrentPlayer = player
	}

	if auction.CurrentBidderID != nil {
		for i := range summaries {
			if summaries[i].ID == *auction.CurrentBidderID {
				resp.CurrentBidder = &summaries[i]
				break
			}
		}
	}

	resp.RemainingMs = s.remainingMs(auction)
	return resp, nil
}

// remainingMs derives the countdown clients display. While paused it is
// the frozen snapshot, otherwise the distance to the absolute deadline.
func (s *auctionService) remainingMs(state *domain.AuctionState) *int64 {
	if state == nil {
		return nil
	}
	if state.Status == domain.AuctionStatusPaused {
		return state.PausedRemainingMs
	}
	if state.BidDeadline == nil {
		return nil
	}

	ms := state.BidDeadline.Sub(s.clock.Now()).Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return &ms
}
