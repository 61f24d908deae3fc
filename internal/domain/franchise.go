package domain

import (
	"time"
)

// AcquisitionType records how a roster entry was acquired
type AcquisitionType string

const (
	AcquisitionAuction AcquisitionType = "auction"
)

// Franchise is a bidding team in a league. Purse is held in the smallest
// currency unit and never goes negative.
type Franchise struct {
	ID        string    `json:"id"`
	LeagueID  string    `json:"league_id"`
	Name      string    `json:"name"`
	ShortName string    `json:"short_name"`
	Purse     int64     `json:"purse"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RosterEntry records a player bought by a franchise
type RosterEntry struct {
	ID          string          `json:"id"`
	LeagueID    string          `json:"league_id"`
	FranchiseID string          `json:"franchise_id"`
	PlayerID    string          `json:"player_id"`
	PlayerName  string          `json:"player_name"`
	Price       int64           `json:"price"`
	Acquisition AcquisitionType `json:"acquisition"`
	CreatedAt   time.Time       `json:"created_at"`
}

// FranchiseSummary is a franchise with derived roster information, as
// shown in the assembled auction state
type FranchiseSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ShortName  string `json:"short_name"`
	Purse      int64  `json:"purse"`
	RosterSize int    `json:"roster_size"`
}
