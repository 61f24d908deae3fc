package domain

import (
	"time"
)

// AuctionStatus is the lifecycle state of a league's auction. Stopping an
// auction returns it to idle, there is no terminal state.
type AuctionStatus string

const (
	AuctionStatusIdle   AuctionStatus = "idle"
	AuctionStatusLive   AuctionStatus = "live"
	AuctionStatusPaused AuctionStatus = "paused"
)

// IsValid checks if the auction status is valid
func (s AuctionStatus) IsValid() bool {
	switch s {
	case AuctionStatusIdle, AuctionStatusLive, AuctionStatusPaused:
		return true
	}
	return false
}

// RoundStatus is the lifecycle state of an auction round
type RoundStatus string

const (
	RoundStatusPending   RoundStatus = "pending"
	RoundStatusActive    RoundStatus = "active"
	RoundStatusCompleted RoundStatus = "completed"
)

// PlayerStatus is the auction state of a player
type PlayerStatus string

const (
	PlayerStatusPending PlayerStatus = "pending"
	PlayerStatusCurrent PlayerStatus = "current"
	PlayerStatusSold    PlayerStatus = "sold"
	PlayerStatusUnsold  PlayerStatus = "unsold"
)

// IsValid checks if the player status is valid
func (s PlayerStatus) IsValid() bool {
	switch s {
	case PlayerStatusPending, PlayerStatusCurrent, PlayerStatusSold, PlayerStatusUnsold:
		return true
	}
	return false
}

// PlayerRole is the playing role of a cricketer
type PlayerRole string

const (
	PlayerRoleBatsman      PlayerRole = "batsman"
	PlayerRoleBowler       PlayerRole = "bowler"
	PlayerRoleAllRounder   PlayerRole = "all_rounder"
	PlayerRoleWicketKeeper PlayerRole = "wicket_keeper"
)

// IsValid checks if the player role is valid
func (r PlayerRole) IsValid() bool {
	switch r {
	case PlayerRoleBatsman, PlayerRoleBowler, PlayerRoleAllRounder, PlayerRoleWicketKeeper:
		return true
	}
	return false
}

// AuctionState is the singleton per-league auction record. CurrentBid is
// zero while the player on the block has no bid, and CurrentBidderID is
// set exactly when CurrentBid is positive. Version is bumped on every
// mutation and used for optimistic concurrency control.
type AuctionState struct {
	ID                string        `json:"id"`
	LeagueID          string        `json:"league_id"`
	Status            AuctionStatus `json:"status"`
	Budget            int64         `json:"budget"`
	CurrentRoundID    *string       `json:"current_round_id,omitempty"`
	CurrentPlayerID   *string       `json:"current_player_id,omitempty"`
	CurrentBid        int64         `json:"current_bid"`
	CurrentBidderID   *string       `json:"current_bidder_id,omitempty"`
	BidDeadline       *time.Time    `json:"bid_deadline,omitempty"`
	PausedRemainingMs *int64        `json:"paused_remaining_ms,omitempty"`
	Version           int64         `json:"version"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// OnBlock reports whether a player is currently up for bidding.
func (s *AuctionState) OnBlock() bool {
	return s.CurrentPlayerID != nil
}

// HasBid reports whether the player on the block has received a bid.
func (s *AuctionState) HasBid() bool {
	return s.CurrentBid > 0 && s.CurrentBidderID != nil
}

// ClearBlock empties the bidding fields after a player is resolved or the
// session is torn down.
func (s *AuctionState) ClearBlock() {
	s.CurrentPlayerID = nil
	s.CurrentBid = 0
	s.CurrentBidderID = nil
	s.BidDeadline = nil
	s.PausedRemainingMs = nil
}

// AuctionRound groups players auctioned together
type AuctionRound struct {
	ID          string      `json:"id"`
	LeagueID    string      `json:"league_id"`
	RoundNumber int         `json:"round_number"`
	Name        string      `json:"name"`
	Status      RoundStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// AuctionPlayer is a player entry in a round's queue. Name, Team and Role
// are snapshot data copied at queue creation so historical auction records
// stay stable.
type AuctionPlayer struct {
	ID                string       `json:"id"`
	LeagueID          string       `json:"league_id"`
	RoundID           string       `json:"round_id"`
	Name              string       `json:"name"`
	Team              string       `json:"team"`
	Role              PlayerRole   `json:"role"`
	BasePrice         int64        `json:"base_price"`
	OrderIndex        int          `json:"order_index"`
	Status            PlayerStatus `json:"status"`
	SoldToFranchiseID *string      `json:"sold_to_franchise_id,omitempty"`
	SoldForAmount     *int64       `json:"sold_for_amount,omitempty"`
	SoldAt            *time.Time   `json:"sold_at,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// UnsoldPlayer is a pool entry for players who went unsold, held for
// re-auction in a later round
type UnsoldPlayer struct {
	ID        string     `json:"id"`
	LeagueID  string     `json:"league_id"`
	PlayerID  string     `json:"player_id"`
	RoundID   string     `json:"round_id"`
	Name      string     `json:"name"`
	Team      string     `json:"team"`
	Role      PlayerRole `json:"role"`
	BasePrice int64      `json:"base_price"`
	MarkedAt  time.Time  `json:"marked_at"`
}

// LogType categorizes auction log entries
type LogType string

const (
	LogTypeSetup         LogType = "setup"
	LogTypeSelectRound   LogType = "select_round"
	LogTypeStart         LogType = "start"
	LogTypeBid           LogType = "bid"
	LogTypeNext          LogType = "next"
	LogTypePause         LogType = "pause"
	LogTypeResume        LogType = "resume"
	LogTypeSale          LogType = "sale"
	LogTypeUnsold        LogType = "unsold"
	LogTypeStop          LogType = "stop"
	LogTypeEndRound      LogType = "end_round"
	LogTypeRoundComplete LogType = "round_complete"
)

// AuctionLogEntry is an append-only record of auction activity
type AuctionLogEntry struct {
	ID          string    `json:"id"`
	LeagueID    string    `json:"league_id"`
	RoundID     *string   `json:"round_id,omitempty"`
	PlayerID    *string   `json:"player_id,omitempty"`
	FranchiseID *string   `json:"franchise_id,omitempty"`
	LogType     LogType   `json:"log_type"`
	Message     string    `json:"message"`
	Amount      *int64    `json:"amount,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
