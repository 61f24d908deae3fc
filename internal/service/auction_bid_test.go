package service

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crickarena/auction-api/internal/config"
	"github.com/crickarena/auction-api/internal/domain"
	apperrors "github.com/crickarena/auction-api/pkg/errors"
)

func bidTestService() *auctionService {
	return &auctionService{
		pricing: NewPricingEngine(defaultTiers()),
		cfg: config.AuctionConfig{
			InitialTimer: 15 * time.Second,
			BidTimer:     10 * time.Second,
			RosterCap:    18,
		},
	}
}

func liveState(now time.Time, mods ...func(*domain.AuctionState)) *domain.AuctionState {
	playerID := "player-1"
	deadline := now.Add(5 * time.Second)
	state := &domain.AuctionState{
		ID:              "state-1",
		LeagueID:        "league-1",
		Status:          domain.AuctionStatusLive,
		Budget:          120_000_000,
		CurrentPlayerID: &playerID,
		BidDeadline:     &deadline,
	}
	for _, mod := range mods {
		mod(state)
	}
	return state
}

func blockPlayer() *domain.AuctionPlayer {
	return &domain.AuctionPlayer{
		ID:        "player-1",
		LeagueID:  "league-1",
		Name:      "R. Sharma",
		Role:      domain.PlayerRoleBatsman,
		BasePrice: 2_000_000,
		Status:    domain.PlayerStatusCurrent,
	}
}

func bidder(purse int64) *domain.Franchise {
	return &domain.Franchise{
		ID:       "franchise-1",
		LeagueID: "league-1",
		Name:     "Chennai Kings",
		Purse:    purse,
	}
}

func TestEvaluateBid_Preconditions(t *testing.T) {
	svc := bidTestService()
	now := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		state     *domain.AuctionState
		player    *domain.AuctionPlayer
		franchise *domain.Franchise
		roster    int
		wantType  apperrors.ErrorType
	}{
		{
			name:      "auction never set up",
			state:     nil,
			player:    blockPlayer(),
			franchise: bidder(120_000_000),
			wantType:  apperrors.ErrorTypePreconditionFailed,
		},
		{
			name: "auction paused",
			state: liveState(now, func(s *domain.AuctionState) {
				s.Status = domain.AuctionStatusPaused
			}),
			player:    blockPlayer(),
			franchise: bidder(120_000_000),
			wantType:  apperrors.ErrorTypePreconditionFailed,
		},
		{
			name: "auction idle",
			state: liveState(now, func(s *domain.AuctionState) {
				s.Status = domain.AuctionStatusIdle
			}),
			player:    blockPlayer(),
			franchise: bidder(120_000_000),
			wantType:  apperrors.ErrorTypePreconditionFailed,
		},
		{
			name: "no player on the block",
			state: liveState(now, func(s *domain.AuctionState) {
				s.CurrentPlayerID = nil
			}),
			player:    nil,
			franchise: bidder(120_000_000),
			wantType:  apperrors.ErrorTypePreconditionFailed,
		},
		{
			name: "timer already expired",
			state: liveState(now, func(s *domain.AuctionState) {
				past := now.Add(-time.Second)
				s.BidDeadline = &past
			}),
			player:    blockPlayer(),
			franchise: bidder(120_000_000),
			wantType:  apperrors.ErrorTypeTimerExpired,
		},
		{
			name:      "unknown franchise",
			state:     liveState(now),
			player:    blockPlayer(),
			franchise: nil,
			wantType:  apperrors.ErrorTypeNotFound,
		},
		{
			name:   "franchise from another league",
			state:  liveState(now),
			player: blockPlayer(),
			franchise: &domain.Franchise{
				ID:       "franchise-9",
				LeagueID: "league-2",
				Purse:    120_000_000,
			},
			wantType: apperrors.ErrorTypeNotFound,
		},
		{
			name:      "roster at cap",
			state:     liveState(now),
			player:    blockPlayer(),
			franchise: bidder(120_000_000),
			roster:    18,
			wantType:  apperrors.ErrorTypeRosterFull,
		},
		{
			name:      "purse below opening bid",
			state:     liveState(now),
			player:    blockPlayer(),
			franchise: bidder(1_999_999),
			wantType:  apperrors.ErrorTypeInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.evaluateBid("league-1", tt.state, tt.player, tt.franchise, tt.roster, now)
			require.Error(t, err)
			appErr, ok := apperrors.IsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, appErr.Type)
		})
	}
}

// Pause wins over later checks so a stale client sees the real reason.
func TestEvaluateBid_PauseBeatsMissingFranchise(t *testing.T) {
	svc := bidTestService()
	now := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	state := liveState(now, func(s *domain.AuctionState) {
		s.Status = domain.AuctionStatusPaused
	})

	_, err := svc.evaluateBid("league-1", state, blockPlayer(), nil, 0, now)
	require.Error(t, err)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypePreconditionFailed, appErr.Type)
	assert.Contains(t, appErr.Message, "paused")
}

func TestEvaluateBid_DeadlineBoundaryInclusive(t *testing.T) {
	svc := bidTestService()
	now := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	state := liveState(now, func(s *domain.AuctionState) {
		s.BidDeadline = &now
	})

	got, err := svc.evaluateBid("league-1", state, blockPlayer(), bidder(120_000_000), 0, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2_000_000), got)
}

func TestEvaluateBid_OpeningBidIsBasePrice(t *testing.T) {
	svc := bidTestService()
	now := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

	got, err := svc.evaluateBid("league-1", liveState(now), blockPlayer(), bidder(120_000_000), 0, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2_000_000), got)
}

func TestEvaluateBid_RaiseAddsIncrement(t *testing.T) {
	svc := bidTestService()
	now := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	state := liveState(now, func(s *domain.AuctionState) {
		franchiseID := "franchise-2"
		s.CurrentBid = 2_000_000
		s.CurrentBidderID = &franchiseID
	})

	got, err := svc.evaluateBid("league-1", state, blockPlayer(), bidder(120_000_000), 0, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2_500_000), got)
}

func TestEvaluateBid_PurseExactlyCoversBid(t *testing.T) {
	svc := bidTestService()
	now := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

	got, err := svc.evaluateBid("league-1", liveState(now), blockPlayer(), bidder(2_000_000), 0, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2_000_000), got)
}

func TestEvaluateBid_InsufficientFundsDetails(t *testing.T) {
	svc := bidTestService()
	now := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	state := liveState(now, func(s *domain.AuctionState) {
		franchiseID := "franchise-2"
		s.CurrentBid = 4_000_000
		s.CurrentBidderID = &franchiseID
	})

	_, err := svc.evaluateBid("league-1", state, blockPlayer(), bidder(4_200_000), 0, now)
	require.Error(t, err)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeInsufficientFunds, appErr.Type)
	assert.Equal(t, int64(4_500_000), appErr.Details["required_bid"])
	assert.Equal(t, int64(4_200_000), appErr.Details["purse"])
}

func TestEvaluateBid_RosterFullDetails(t *testing.T) {
	svc := bidTestService()
	now := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

	_, err := svc.evaluateBid("league-1", liveState(now), blockPlayer(), bidder(120_000_000), 18, now)
	require.Error(t, err)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeRosterFull, appErr.Type)
	assert.Equal(t, 18, appErr.Details["roster_size"])
	assert.Equal(t, 18, appErr.Details["roster_cap"])
}

// Walks a contested lot the way two franchises would: open at base,
// counter with the tier increment, drop out when the purse runs dry.
func TestEvaluateBid_ContestedLot(t *testing.T) {
	svc := bidTestService()
	now := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	player := blockPlayer()
	state := liveState(now)

	kings := bidder(5_000_000)
	royals := &domain.Franchise{ID: "franchise-2", LeagueID: "league-1", Name: "Rajkot Royals", Purse: 3_000_000}

	// Kings open at the base price.
	got, err := svc.evaluateBid("league-1", state, player, kings, 0, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2_000_000), got)
	state.CurrentBid = got
	state.CurrentBidderID = &kings.ID

	// Royals counter with the increment.
	got, err = svc.evaluateBid("league-1", state, player, royals, 0, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2_500_000), got)
	state.CurrentBid = got
	state.CurrentBidderID = &royals.ID

	// Kings raise once more.
	got, err = svc.evaluateBid("league-1", state, player, kings, 0, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3_000_000), got)
	state.CurrentBid = got
	state.CurrentBidderID = &kings.ID

	// Royals cannot cover 3,500,000 and drop out.
	_, err = svc.evaluateBid("league-1", state, player, royals, 0, now)
	require.Error(t, err)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeInsufficientFunds, appErr.Type)
}

func TestRemainingMs(t *testing.T) {
	now := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	svc := bidTestService()
	svc.clock = clockwork.NewFakeClockAt(now)

	t.Run("live counts down to the deadline", func(t *testing.T) {
		deadline := now.Add(7 * time.Second)
		state := &domain.AuctionState{Status: domain.AuctionStatusLive, BidDeadline: &deadline}
		got := svc.remainingMs(state)
		require.NotNil(t, got)
		assert.Equal(t, int64(7000), *got)
	})

	t.Run("past deadline clamps to zero", func(t *testing.T) {
		deadline := now.Add(-3 * time.Second)
		state := &domain.AuctionState{Status: domain.AuctionStatusLive, BidDeadline: &deadline}
		got := svc.remainingMs(state)
		require.NotNil(t, got)
		assert.Equal(t, int64(0), *got)
	})

	t.Run("paused reports the frozen snapshot", func(t *testing.T) {
		frozen := int64(4200)
		deadline := now.Add(-time.Minute)
		state := &domain.AuctionState{
			Status:            domain.AuctionStatusPaused,
			BidDeadline:       &deadline,
			PausedRemainingMs: &frozen,
		}
		got := svc.remainingMs(state)
		require.NotNil(t, got)
		assert.Equal(t, int64(4200), *got)
	})

	t.Run("no deadline means no countdown", func(t *testing.T) {
		state := &domain.AuctionState{Status: domain.AuctionStatusIdle}
		assert.Nil(t, svc.remainingMs(state))
	})
}
