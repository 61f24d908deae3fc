package domain

import (
	"fmt"

	"github.com/crickarena/auction-api/pkg/errors"
)

const (
	maxPlayersPerImport = 1000
	maxNameLength       = 100
)

// ControlAction is an admin state-machine action
type ControlAction string

const (
	ControlSelectRound  ControlAction = "select_round"
	ControlStart        ControlAction = "start"
	ControlNext         ControlAction = "next"
	ControlPause        ControlAction = "pause"
	ControlResume       ControlAction = "resume"
	ControlSkip         ControlAction = "skip"
	ControlSell         ControlAction = "sell"
	ControlTimerExpired ControlAction = "timer_expired"
	ControlStop         ControlAction = "stop"
	ControlEndRound     ControlAction = "end_round"
)

// IsValid checks if the control action is valid
func (a ControlAction) IsValid() bool {
	switch a {
	case ControlSelectRound, ControlStart, ControlNext, ControlPause, ControlResume,
		ControlSkip, ControlSell, ControlTimerExpired, ControlStop, ControlEndRound:
		return true
	}
	return false
}

// SetupRequest initializes a league's auction. A zero budget means the
// configured default.
type SetupRequest struct {
	Budget int64 `json:"budget,omitempty"`
}

// Validate validates the setup request
func (r *SetupRequest) Validate() error {
	if r.Budget < 0 {
		return errors.NewValidationError("budget must not be negative")
	}
	return nil
}

// PlayerImport is a single player in a round import
type PlayerImport struct {
	Name      string     `json:"name"`
	Team      string     `json:"team"`
	Role      PlayerRole `json:"role"`
	BasePrice int64      `json:"base_price"`
}

// Validate validates a player import entry
func (p *PlayerImport) Validate() error {
	if p.Name == "" {
		return errors.NewValidationError("player name is required")
	}
	if len(p.Name) > maxNameLength {
		return errors.NewValidationError(fmt.Sprintf("player name exceeds %d characters", maxNameLength))
	}
	if !p.Role.IsValid() {
		return errors.NewValidationError(fmt.Sprintf("invalid player role %q", p.Role))
	}
	if p.BasePrice <= 0 {
		return errors.NewValidationError("base price must be positive")
	}
	return nil
}

// CreateRoundRequest creates a round, optionally seeded with players or
// with the league's unsold pool
type CreateRoundRequest struct {
	RoundNumber int            `json:"round_number"`
	Name        string         `json:"name"`
	Players     []PlayerImport `json:"players,omitempty"`
	FromUnsold  bool           `json:"from_unsold,omitempty"`
}

// Validate validates the create round request
func (r *CreateRoundRequest) Validate() error {
	if r.RoundNumber <= 0 {
		return errors.NewValidationError("round_number must be positive")
	}
	if r.Name == "" {
		return errors.NewValidationError("round name is required")
	}
	if len(r.Name) > maxNameLength {
		return errors.NewValidationError(fmt.Sprintf("round name exceeds %d characters", maxNameLength))
	}
	if r.FromUnsold && len(r.Players) > 0 {
		return errors.NewValidationError("players and from_unsold are mutually exclusive")
	}
	if len(r.Players) > maxPlayersPerImport {
		return errors.NewValidationError(fmt.Sprintf("at most %d players per import", maxPlayersPerImport))
	}
	for i := range r.Players {
		if err := r.Players[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ImportPlayersRequest adds players to an existing round. Append keeps the
// round's existing queue, otherwise pending players are replaced.
type ImportPlayersRequest struct {
	Players []PlayerImport `json:"players"`
	Append  bool           `json:"append,omitempty"`
}

// Validate validates the import players request
func (r *ImportPlayersRequest) Validate() error {
	if len(r.Players) == 0 {
		return errors.NewValidationError("at least one player is required")
	}
	if len(r.Players) > maxPlayersPerImport {
		return errors.NewValidationError(fmt.Sprintf("at most %d players per import", maxPlayersPerImport))
	}
	for i := range r.Players {
		if err := r.Players[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ControlRequest is an admin action against the auction state machine
type ControlRequest struct {
	Action  ControlAction `json:"action"`
	RoundID string        `json:"round_id,omitempty"`
}

// Validate validates the control request
func (r *ControlRequest) Validate() error {
	if !r.Action.IsValid() {
		return errors.NewValidationError(fmt.Sprintf("invalid action %q", r.Action))
	}
	if r.Action == ControlSelectRound && r.RoundID == "" {
		return errors.NewValidationError("round_id is required for select_round")
	}
	return nil
}

// BidRequest places a bid for a franchise on the current player
type BidRequest struct {
	FranchiseID string `json:"franchise_id"`
}

// Validate validates the bid request
func (r *BidRequest) Validate() error {
	if r.FranchiseID == "" {
		return errors.NewValidationError("franchise_id is required")
	}
	return nil
}
