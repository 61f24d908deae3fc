package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/crickarena/auction-api/internal/domain"
	apperrors "github.com/crickarena/auction-api/pkg/errors"
)

const noticeAlreadyProcessed = "player already processed by a concurrent action"

// Control applies an administrative state machine action and returns the
// resulting state
func (s *auctionService) Control(ctx context.Context, leagueID string, req *domain.ControlRequest) (*domain.StateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var notice string

	err := s.controlGate.Run(ctx, leagueID, func() error {
		var err error
		switch req.Action {
		case domain.ControlSelectRound:
			err = s.selectRound(ctx, leagueID, req.RoundID)
		case domain.ControlStart:
			err = s.start(ctx, leagueID)
		case domain.ControlNext:
			notice, err = s.next(ctx, leagueID)
		case domain.ControlPause:
			err = s.pause(ctx, leagueID)
		case domain.ControlResume:
			err = s.resume(ctx, leagueID)
		case domain.ControlSkip:
			notice, err = s.skip(ctx, leagueID)
		case domain.ControlSell:
			notice, err = s.resolve(ctx, leagueID, false)
		case domain.ControlTimerExpired:
			notice, err = s.resolve(ctx, leagueID, true)
		case domain.ControlStop:
			err = s.stop(ctx, leagueID)
		case domain.ControlEndRound:
			err = s.endRound(ctx, leagueID)
		default:
			err = apperrors.NewValidationError(fmt.Sprintf("invalid action %q", req.Action))
		}
		return err
	})
	if err != nil {
		return nil, s.mapConflict(err)
	}

	s.invalidateState(ctx, leagueID)
	return s.refreshState(ctx, leagueID, notice)
}

// selectRound picks the queue for the next session. It clears any
// in-progress bidding state but does not start the clock.
func (s *auctionService) selectRound(ctx context.Context, leagueID, roundID string) error {
	var round *domain.AuctionRound

	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		state, err := s.ensureState(ctx, tx, leagueID)
		if err != nil {
			return err
		}

		round, err = s.roundRepo.GetByID(ctx, tx, roundID)
		if err != nil {
			return err
		}
		if round == nil || round.LeagueID != leagueID {
			return apperrors.NewNotFoundError("round not found in this league")
		}

		if state.OnBlock() {
			if err := s.playerRepo.ReturnToPending(ctx, tx, *state.CurrentPlayerID); err != nil &&
				!errors.Is(err, domain.ErrAlreadyProcessed) {
				return err
			}
		}

		if err := s.roundRepo.UpdateStatus(ctx, tx, round.ID, domain.RoundStatusActive); err != nil {
			return err
		}
		if err := s.roundRepo.DeactivateExcept(ctx, tx, leagueID, round.ID); err != nil {
			return err
		}

		state.CurrentRoundID = &round.ID
		state.Status = domain.AuctionStatusIdle
		state.ClearBlock()
		return s.auctionRepo.Update(ctx, tx, state)
	})
	if err != nil {
		return err
	}

	s.appendLog(ctx, &domain.AuctionLogEntry{
		LeagueID: leagueID,
		RoundID:  &round.ID,
		LogType:  domain.LogTypeSelectRound,
		Message:  fmt.Sprintf("round %d (%s) selected", round.RoundNumber, round.Name),
	})
	return nil
}

// start puts the first queued player on the block and opens the clock
func (s *auctionService) start(ctx context.Context, leagueID string) error {
	var player *domain.AuctionPlayer
	var roundID string

	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		state, err := s.ensureState(ctx, tx, leagueID)
		if err != nil {
			return err
		}
		if state.CurrentRoundID == nil {
			return apperrors.NewPreconditionError("no round selected")
		}
		if state.OnBlock() {
			return apperrors.NewPreconditionError("a player is already on the block")
		}
		roundID = *state.CurrentRoundID

		player, err = s.playerRepo.NextPending(ctx, tx, roundID)
		if err != nil {
			return err
		}
		if player == nil {
			return apperrors.NewPreconditionError("no pending players in the selected round")
		}

		if err := s.playerRepo.MarkCurrent(ctx, tx, player.ID); err != nil {
			return err
		}

		deadline := s.clock.Now().Add(s.cfg.InitialTimer)
		state.Status = domain.AuctionStatusLive
		state.CurrentPlayerID = &player.ID
		state.CurrentBid = 0
		state.CurrentBidderID = nil
		state.BidDeadline = &deadline
		state.PausedRemainingMs = nil
		return s.auctionRepo.Update(ctx, tx, state)
	})
	if err != nil {
		return err
	}

	s.appendLog(ctx, &domain.AuctionLogEntry{
		LeagueID: leagueID,
		RoundID:  &roundID,
		PlayerID: &player.ID,
		LogType:  domain.LogTypeStart,
		Message:  fmt.Sprintf("auction started, %s on the block", player.Name),
	})
	return nil
}

// next advances the queue: either the following pending player goes on the
// block, or the exhausted round is completed. It never advances to another
// round on its own.
func (s *auctionService) next(ctx context.Context, leagueID string) (string, error) {
	var player *domain.AuctionPlayer
	var roundID string
	var roundComplete bool

	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		state, err := s.auctionRepo.GetByLeagueForUpdate(ctx, tx, leagueID)
		if err != nil {
			return err
		}
		if state == nil {
			return apperrors.NewPreconditionError("auction not set up")
		}
		if state.CurrentRoundID == nil {
			return apperrors.NewPreconditionError("no round selected")
		}
		if state.Status == domain.AuctionStatusPaused {
			return apperrors.NewPreconditionError("auction is paused")
		}
		if state.Status != domain.AuctionStatusLive {
			return apperrors.NewPreconditionError("auction is not live")
		}
		if state.OnBlock() {
			return apperrors.NewPreconditionError("resolve the current player before advancing")
		}
		roundID = *state.CurrentRoundID

		player, err = s.playerRepo.NextPending(ctx, tx, roundID)
		if err != nil {
			return err
		}

		if player == nil {
			roundComplete = true
			if err := s.roundRepo.UpdateStatus(ctx, tx, roundID, domain.RoundStatusCompleted); err != nil {
				return err
			}
			state.Status = domain.AuctionStatusIdle
			state.ClearBlock()
			return s.auctionRepo.Update(ctx, tx, state)
		}

		if err := s.playerRepo.MarkCurrent(ctx, tx, player.ID); err != nil {
			return err
		}

		deadline := s.clock.Now().Add(s.cfg.InitialTimer)
		state.CurrentPlayerID = &player.ID
		state.CurrentBid = 0
		state.CurrentBidderID = nil
		state.BidDeadline = &deadline
		state.PausedRemainingMs = nil
		return s.auctionRepo.Update(ctx, tx, state)
	})
	if err != nil {
		return "", err
	}

	if roundComplete {
		s.appendLog(ctx, &domain.AuctionLogEntry{
			LeagueID: leagueID,
			RoundID:  &roundID,
			LogType:  domain.LogTypeRoundComplete,
			Message:  "round complete, all players resolved",
		})
		return "round complete", nil
	}

	s.appendLog(ctx, &domain.AuctionLogEntry{
		LeagueID: leagueID,
		RoundID:  &roundID,
		PlayerID: &player.ID,
		LogType:  domain.LogTypeNext,
		Message:  fmt.Sprintf("%s on the block", player.Name),
	})
	return "", nil
}

// pause freezes the clock, snapshotting the remaining window for display
func (s *auctionService) pause(ctx context.Context, leagueID string) error {
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		state, err := s.auctionRepo.GetByLeagueForUpdate(ctx, tx, leagueID)
		if err != nil {
			return err
		}
		if state == nil {
			return apperrors.NewPreconditionError("auction not set up")
		}
		if state.Status == domain.AuctionStatusPaused {
			return apperrors.NewPreconditionError("auction is already paused")
		}
		if state.Status != domain.AuctionStatusLive {
			return apperrors.NewPreconditionError("auction is not live")
		}

		if state.BidDeadline != nil {
			remaining := state.BidDeadline.Sub(s.clock.Now()).Milliseconds()
			if remaining < 0 {
				remaining = 0
			}
			state.PausedRemainingMs = &remaining
		}
		state.Status = domain.AuctionStatusPaused
		return s.auctionRepo.Update(ctx, tx, state)
	})
	if err != nil {
		return err
	}

	s.appendLog(ctx, &domain.AuctionLogEntry{
		LeagueID: leagueID,
		LogType:  domain.LogTypePause,
		Message:  "auction paused",
	})
	return nil
}

// resume unfreezes the clock. The timer is re-armed to a full initial
// window rather than the paused remainder, a deliberate rule that keeps
// pause timing unexploitable.
func (s *auctionService) resume(ctx context.Context, leagueID string) error {
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		state, err := s.auctionRepo.GetByLeagueForUpdate(ctx, tx, leagueID)
		if err != nil {
			return err
		}
		if state == nil {
			return apperrors.NewPreconditionError("auction not set up")
		}
		if state.Status != domain.AuctionStatusPaused {
			return apperrors.NewPreconditionError("auction is not paused")
		}

		state.Status = domain.AuctionStatusLive
		state.PausedRemainingMs = nil
		if state.OnBlock() {
			deadline := s.clock.Now().Add(s.cfg.InitialTimer)
			state.BidDeadline = &deadline
		} else {
			state.BidDeadline = nil
		}
		return s.auctionRepo.Update(ctx, tx, state)
	})
	if err != nil {
		return err
	}

	s.appendLog(ctx, &domain.AuctionLogEntry{
		LeagueID: leagueID,
		LogType:  domain.LogTypeResume,
		Message:  "auction resumed",
	})
	return nil
}

// skip forces the player on the block to unsold regardless of bid state
func (s *auctionService) skip(ctx context.Context, leagueID string) (string, error) {
	var player *domain.AuctionPlayer

	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		state, err := s.auctionRepo.GetByLeagueForUpdate(ctx, tx, leagueID)
		if err != nil {
			return err
		}
		if state == nil {
			return apperrors.NewPreconditionError("auction not set up")
		}
		if !state.OnBlock() {
			return apperrors.NewPreconditionError("no player on the block")
		}

		player, err = s.playerRepo.GetByID(ctx, tx, *state.CurrentPlayerID)
		if err != nil {
			return err
		}
		if player == nil {
			return apperrors.NewNotFoundError("current player not found")
		}

		if err := s.markUnsold(ctx, tx, state.LeagueID, player); err != nil {
			return err
		}

		state.ClearBlock()
		return s.auctionRepo.Update(ctx, tx, state)
	})
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		return noticeAlreadyProcessed, nil
	}
	if err != nil {
		return "", err
	}

	s.appendLog(ctx, &domain.AuctionLogEntry{
		LeagueID: leagueID,
		RoundID:  &player.RoundID,
		PlayerID: &player.ID,
		LogType:  domain.LogTypeUnsold,
		Message:  fmt.Sprintf("%s skipped and went unsold", player.Name),
	})
	return "", nil
}

// resolve finalizes the player on the block: a sale when a highest bidder
// stands, unsold otherwise. With fromTimer the elapsed deadline is
// re-validated server side instead of trusting the caller. Neither branch
// advances the queue.
func (s *auctionService) resolve(ctx context.Context, leagueID string, fromTimer bool) (string, error) {
	var player *domain.AuctionPlayer
	var sold bool
	var amount int64
	var winnerID string

	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		state, err := s.auctionRepo.GetByLeagueForUpdate(ctx, tx, leagueID)
		if err != nil {
			return err
		}
		if state == nil {
			return apperrors.NewPreconditionError("auction not set up")
		}
		if !state.OnBlock() {
			return apperrors.NewPreconditionError("no player on the block")
		}

		if fromTimer {
			if state.Status == domain.AuctionStatusPaused {
				return apperrors.NewPreconditionError("auction is paused")
			}
			if state.BidDeadline == nil || s.clock.Now().Before(*state.BidDeadline) {
				return apperrors.NewPreconditionError("timer has not expired")
			}
		}

		player, err = s.playerRepo.GetByID(ctx, tx, *state.CurrentPlayerID)
		if err != nil {
			return err
		}
		if player == nil {
			return apperrors.NewNotFoundError("current player not found")
		}

		if state.HasBid() {
			sold = true
			amount = state.CurrentBid
			winnerID = *state.CurrentBidderID

			if err := s.playerRepo.MarkSold(ctx, tx, player.ID, amount, winnerID); err != nil {
				return err
			}
			if err := s.franchiseRepo.DeductPurse(ctx, tx, winnerID, amount); err != nil {
				return err
			}
			if err := s.franchiseRepo.AddRosterEntry(ctx, tx, &domain.RosterEntry{
				LeagueID:    leagueID,
				FranchiseID: winnerID,
				PlayerID:    player.ID,
				PlayerName:  player.Name,
				Price:       amount,
				Acquisition: domain.AcquisitionAuction,
			}); err != nil {
				return err
			}
		} else {
			if err := s.markUnsold(ctx, tx, leagueID, player); err != nil {
				return err
			}
		}

		state.ClearBlock()
		return s.auctionRepo.Update(ctx, tx, state)
	})
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		// The other caller completed the transition, success with notice.
		return noticeAlreadyProcessed, nil
	}
	if err != nil {
		return "", err
	}

	if sold {
		s.appendLog(ctx, &domain.AuctionLogEntry{
			LeagueID:    leagueID,
			RoundID:     &player.RoundID,
			PlayerID:    &player.ID,
			FranchiseID: &winnerID,
			LogType:     domain.LogTypeSale,
			Message:     fmt.Sprintf("%s sold for %d", player.Name, amount),
			Amount:      &amount,
		})
	} else {
		s.appendLog(ctx, &domain.AuctionLogEntry{
			LeagueID: leagueID,
			RoundID:  &player.RoundID,
			PlayerID: &player.ID,
			LogType:  domain.LogTypeUnsold,
			Message:  fmt.Sprintf("%s went unsold", player.Name),
		})
	}
	return "", nil
}

// markUnsold transitions the player and mirrors it into the unsold pool
func (s *auctionService) markUnsold(ctx context.Context, tx pgx.Tx, leagueID string, player *domain.AuctionPlayer) error {
	if err := s.playerRepo.MarkUnsold(ctx, tx, player.ID); err != nil {
		return err
	}
	return s.playerRepo.InsertUnsold(ctx, tx, &domain.UnsoldPlayer{
		LeagueID:  leagueID,
		PlayerID:  player.ID,
		RoundID:   player.RoundID,
		Name:      player.Name,
		Team:      player.Team,
		Role:      player.Role,
		BasePrice: player.BasePrice,
	})
}

// stop abandons the session. A player mid-bid returns to the queue and
// the round selection is kept so the session can be restarted.
func (s *auctionService) stop(ctx context.Context, leagueID string) error {
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		state, err := s.auctionRepo.GetByLeagueForUpdate(ctx, tx, leagueID)
		if err != nil {
			return err
		}
		if state == nil {
			return apperrors.NewPreconditionError("auction not set up")
		}
		if state.Status == domain.AuctionStatusIdle {
			return apperrors.NewPreconditionError("auction is not running")
		}

		if state.OnBlock() {
			if err := s.playerRepo.ReturnToPending(ctx, tx, *state.CurrentPlayerID); err != nil &&
				!errors.Is(err, domain.ErrAlreadyProcessed) {
				return err
			}
		}

		state.Status = domain.AuctionStatusIdle
		state.ClearBlock()
		return s.auctionRepo.Update(ctx, tx, state)
	})
	if err != nil {
		return err
	}

	s.appendLog(ctx, &domain.AuctionLogEntry{
		LeagueID: leagueID,
		LogType:  domain.LogTypeStop,
		Message:  "auction stopped",
	})
	return nil
}

// endRound is stop plus deactivating the round and clearing its selection
func (s *auctionService) endRound(ctx context.Context, leagueID string) error {
	var roundID string

	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		state, err := s.auctionRepo.GetByLeagueForUpdate(ctx, tx, leagueID)
		if err != nil {
			return err
		}
		if state == nil {
			return apperrors.NewPreconditionError("auction not set up")
		}
		if state.CurrentRoundID == nil {
			return apperrors.NewPreconditionError("no round selected")
		}
		roundID = *state.CurrentRoundID

		if state.OnBlock() {
			if err := s.playerRepo.ReturnToPending(ctx, tx, *state.CurrentPlayerID); err != nil &&
				!errors.Is(err, domain.ErrAlreadyProcessed) {
				return err
			}
		}

		if err := s.roundRepo.UpdateStatus(ctx, tx, roundID, domain.RoundStatusPending); err != nil {
			return err
		}

		state.CurrentRoundID = nil
		state.Status = domain.AuctionStatusIdle
		state.ClearBlock()
		return s.auctionRepo.Update(ctx, tx, state)
	})
	if err != nil {
		return err
	}

	s.appendLog(ctx, &domain.AuctionLogEntry{
		LeagueID: leagueID,
		RoundID:  &roundID,
		LogType:  domain.LogTypeEndRound,
		Message:  "round ended",
	})
	return nil
}
