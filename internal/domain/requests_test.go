package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPlayer() PlayerImport {
	return PlayerImport{
		Name:      "R. Sharma",
		Team:      "Mumbai",
		Role:      PlayerRoleBatsman,
		BasePrice: 2_000_000,
	}
}

func TestCreateRoundRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRoundRequest
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid with players",
			req: CreateRoundRequest{
				RoundNumber: 1,
				Name:        "Marquee Players",
				Players:     []PlayerImport{validPlayer()},
			},
			wantErr: false,
		},
		{
			name: "valid empty round",
			req: CreateRoundRequest{
				RoundNumber: 2,
				Name:        "Uncapped",
			},
			wantErr: false,
		},
		{
			name: "valid from unsold pool",
			req: CreateRoundRequest{
				RoundNumber: 3,
				Name:        "Second Chance",
				FromUnsold:  true,
			},
			wantErr: false,
		},
		{
			name:    "zero round number",
			req:     CreateRoundRequest{RoundNumber: 0, Name: "Round"},
			wantErr: true,
			errMsg:  "round_number must be positive",
		},
		{
			name:    "negative round number",
			req:     CreateRoundRequest{RoundNumber: -1, Name: "Round"},
			wantErr: true,
			errMsg:  "round_number must be positive",
		},
		{
			name:    "missing name",
			req:     CreateRoundRequest{RoundNumber: 1},
			wantErr: true,
			errMsg:  "round name is required",
		},
		{
			name: "name too long",
			req: CreateRoundRequest{
				RoundNumber: 1,
				Name:        strings.Repeat("x", 101),
			},
			wantErr: true,
			errMsg:  "round name exceeds 100 characters",
		},
		{
			name: "players and from_unsold together",
			req: CreateRoundRequest{
				RoundNumber: 1,
				Name:        "Round",
				Players:     []PlayerImport{validPlayer()},
				FromUnsold:  true,
			},
			wantErr: true,
			errMsg:  "mutually exclusive",
		},
		{
			name: "invalid player inside",
			req: CreateRoundRequest{
				RoundNumber: 1,
				Name:        "Round",
				Players:     []PlayerImport{{Name: "X", Role: "coach", BasePrice: 100}},
			},
			wantErr: true,
			errMsg:  "invalid player role",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestPlayerImport_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PlayerImport)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(p *PlayerImport) {},
		},
		{
			name:   "team is optional",
			mutate: func(p *PlayerImport) { p.Team = "" },
		},
		{
			name:    "missing name",
			mutate:  func(p *PlayerImport) { p.Name = "" },
			wantErr: "player name is required",
		},
		{
			name:    "name too long",
			mutate:  func(p *PlayerImport) { p.Name = strings.Repeat("x", 101) },
			wantErr: "player name exceeds 100 characters",
		},
		{
			name:    "bad role",
			mutate:  func(p *PlayerImport) { p.Role = "umpire" },
			wantErr: "invalid player role",
		},
		{
			name:    "zero base price",
			mutate:  func(p *PlayerImport) { p.BasePrice = 0 },
			wantErr: "base price must be positive",
		},
		{
			name:    "negative base price",
			mutate:  func(p *PlayerImport) { p.BasePrice = -1 },
			wantErr: "base price must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPlayer()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestImportPlayersRequest_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := ImportPlayersRequest{Players: []PlayerImport{validPlayer()}, Append: true}
		assert.NoError(t, req.Validate())
	})

	t.Run("empty", func(t *testing.T) {
		req := ImportPlayersRequest{}
		err := req.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one player is required")
	})

	t.Run("over the import cap", func(t *testing.T) {
		players := make([]PlayerImport, 1001)
		for i := range players {
			players[i] = validPlayer()
		}
		err := (&ImportPlayersRequest{Players: players}).Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at most 1000 players per import")
	})
}

func TestControlRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     ControlRequest
		wantErr string
	}{
		{name: "start", req: ControlRequest{Action: ControlStart}},
		{name: "sell", req: ControlRequest{Action: ControlSell}},
		{name: "select round with id", req: ControlRequest{Action: ControlSelectRound, RoundID: "round-1"}},
		{name: "unknown action", req: ControlRequest{Action: "explode"}, wantErr: "invalid action"},
		{name: "empty action", req: ControlRequest{}, wantErr: "invalid action"},
		{name: "select round without id", req: ControlRequest{Action: ControlSelectRound}, wantErr: "round_id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBidRequest_Validate(t *testing.T) {
	assert.NoError(t, (&BidRequest{FranchiseID: "franchise-1"}).Validate())

	err := (&BidRequest{}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "franchise_id is required")
}

func TestSetupRequest_Validate(t *testing.T) {
	assert.NoError(t, (&SetupRequest{}).Validate())
	assert.NoError(t, (&SetupRequest{Budget: 120_000_000}).Validate())

	err := (&SetupRequest{Budget: -1}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "budget must not be negative")
}
