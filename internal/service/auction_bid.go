package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/crickarena/auction-api/internal/domain"
	apperrors "github.com/crickarena/auction-api/pkg/errors"
)

// Bid places a bid for a franchise on the player on the block. Validation
// runs strictly before the first write, so a rejected bid mutates nothing.
func (s *auctionService) Bid(ctx context.Context, leagueID string, req *domain.BidRequest) (*domain.BidResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp *domain.BidResponse
	var player *domain.AuctionPlayer
	var franchise *domain.Franchise
	var roundID *string

	err := s.bidGate.Run(ctx, leagueID, func() error {
		return s.db.WithTx(ctx, func(tx pgx.Tx) error {
			state, err := s.auctionRepo.GetByLeagueForUpdate(ctx, tx, leagueID)
			if err != nil {
				return err
			}

			if state != nil && state.OnBlock() {
				player, err = s.playerRepo.GetByID(ctx, tx, *state.CurrentPlayerID)
				if err != nil {
					return err
				}
			}
			franchise, err = s.franchiseRepo.GetByID(ctx, tx, req.FranchiseID)
			if err != nil {
				return err
			}
			rosterSize := 0
			if franchise != nil {
				rosterSize, err = s.franchiseRepo.CountRoster(ctx, tx, franchise.ID)
				if err != nil {
					return err
				}
			}

			now := s.clock.Now()
			required, err := s.evaluateBid(leagueID, state, player, franchise, rosterSize, now)
			if err != nil {
				return err
			}

			deadline := now.Add(s.cfg.BidTimer)
			state.CurrentBid = required
			state.CurrentBidderID = &franchise.ID
			state.BidDeadline = &deadline
			if err := s.auctionRepo.Update(ctx, tx, state); err != nil {
				return err
			}

			roundID = state.CurrentRoundID
			resp = &domain.BidResponse{
				NewBid:          required,
				BidderID:        franchise.ID,
				RemainingTimeMs: s.cfg.BidTimer.Milliseconds(),
			}
			return nil
		})
	})
	if err != nil {
		return nil, s.mapConflict(err)
	}

	s.appendLog(ctx, &domain.AuctionLogEntry{
		LeagueID:    leagueID,
		RoundID:     roundID,
		PlayerID:    &player.ID,
		FranchiseID: &franchise.ID,
		LogType:     domain.LogTypeBid,
		Message:     fmt.Sprintf("%s bid %d on %s", franchise.Name, resp.NewBid, player.Name),
		Amount:      &resp.NewBid,
	})
	s.invalidateState(ctx, leagueID)
	s.notifyState(ctx, leagueID)
	return resp, nil
}

// evaluateBid runs the bid precondition chain in order and returns the
// amount the bid lands on. It reads fetched rows only, so every rejection
// happens before any write.
func (s *auctionService) evaluateBid(leagueID string, state *domain.AuctionState, player *domain.AuctionPlayer, franchise *domain.Franchise, rosterSize int, now time.Time) (int64, error) {
	if state == nil {
		return 0, apperrors.NewPreconditionError("auction not set up")
	}
	if state.Status == domain.AuctionStatusPaused {
		return 0, apperrors.NewPreconditionError("auction is paused")
	}
	if state.Status != domain.AuctionStatusLive {
		return 0, apperrors.NewPreconditionError("auction is not live")
	}
	if !state.OnBlock() || player == nil {
		return 0, apperrors.NewPreconditionError("no player up for bidding")
	}
	if state.BidDeadline == nil || now.After(*state.BidDeadline) {
		return 0, apperrors.NewTimerExpiredError("bidding window has closed")
	}
	if franchise == nil || franchise.LeagueID != leagueID {
		return 0, apperrors.NewNotFoundError("franchise not found in this league")
	}
	if rosterSize >= s.cfg.RosterCap {
		return 0, apperrors.NewRosterFullError(
			fmt.Sprintf("roster is full at %d of %d players", rosterSize, s.cfg.RosterCap)).
			WithDetails(map[string]interface{}{
				"roster_size": rosterSize,
				"roster_cap":  s.cfg.RosterCap,
			})
	}

	required := s.pricing.RequiredBid(player.BasePrice, state.CurrentBid)
	if franchise.Purse < required {
		return 0, apperrors.NewInsufficientFundsError(
			fmt.Sprintf("purse %d cannot cover the required bid %d", franchise.Purse, required)).
			WithDetails(map[string]interface{}{
				"required_bid": required,
				"purse":        franchise.Purse,
			})
	}
	return required, nil
}
