package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"

	"github.com/crickarena/auction-api/internal/config"
	"github.com/crickarena/auction-api/internal/domain"
	"github.com/crickarena/auction-api/internal/repository"
	"github.com/crickarena/auction-api/pkg/database"
	apperrors "github.com/crickarena/auction-api/pkg/errors"
	"github.com/crickarena/auction-api/pkg/logger"
	"github.com/crickarena/auction-api/pkg/redis"
)

// AuctionServiceDeps wires the auction engine's collaborators
type AuctionServiceDeps struct {
	DB            *database.PostgresDB
	Cache         *redis.Client
	Keys          *redis.KeyBuilder
	AuctionRepo   *repository.AuctionRepository
	RoundRepo     *repository.RoundRepository
	PlayerRepo    *repository.PlayerRepository
	FranchiseRepo *repository.FranchiseRepository
	LogRepo       *repository.LogRepository
	BidGate       *Serializer
	ControlGate   *Serializer
	Pricing       *PricingEngine
	Clock         clockwork.Clock
	Config        config.AuctionConfig
	Logger        *logger.Logger
	Notifier      StateNotifier
}

type auctionService struct {
	db            *database.PostgresDB
	cache         *redis.Client
	keys          *redis.KeyBuilder
	auctionRepo   *repository.AuctionRepository
	roundRepo     *repository.RoundRepository
	playerRepo    *repository.PlayerRepository
	franchiseRepo *repository.FranchiseRepository
	logRepo       *repository.LogRepository
	bidGate       *Serializer
	controlGate   *Serializer
	pricing       *PricingEngine
	clock         clockwork.Clock
	cfg           config.AuctionConfig
	logger        *logger.Logger
	notifier      StateNotifier
}

// NewAuctionService creates the auction engine
func NewAuctionService(deps AuctionServiceDeps) AuctionService {
	return &auctionService{
		db:            deps.DB,
		cache:         deps.Cache,
		keys:          deps.Keys,
		auctionRepo:   deps.AuctionRepo,
		roundRepo:     deps.RoundRepo,
		playerRepo:    deps.PlayerRepo,
		franchiseRepo: deps.FranchiseRepo,
		logRepo:       deps.LogRepo,
		bidGate:       deps.BidGate,
		controlGate:   deps.ControlGate,
		pricing:       deps.Pricing,
		clock:         deps.Clock,
		cfg:           deps.Config,
		logger:        deps.Logger,
		notifier:      deps.Notifier,
	}
}

// Setup initializes a league's auction, or resets an existing one to the
// inactive shape, and sets every franchise purse to the budget
func (s *auctionService) Setup(ctx context.Context, leagueID string, req *domain.SetupRequest) (*domain.StateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	budget := req.Budget
	if budget == 0 {
		budget = s.cfg.DefaultBudget
	}

	err := s.controlGate.Run(ctx, leagueID, func() error {
		return s.db.WithTx(ctx, func(tx pgx.Tx) error {
			state, err := s.auctionRepo.GetByLeagueForUpdate(ctx, tx, leagueID)
			if err != nil {
				return err
			}

			if state == nil {
				state = &domain.AuctionState{
					LeagueID: leagueID,
					Status:   domain.AuctionStatusIdle,
					Budget:   budget,
				}
				if err := s.auctionRepo.Create(ctx, tx, state); err != nil {
					return err
				}
			} else {
				if state.OnBlock() {
					if err := s.playerRepo.ReturnToPending(ctx, tx, *state.CurrentPlayerID); err != nil &&
						!errors.Is(err, domain.ErrAlreadyProcessed) {
						return err
					}
				}
				state.Status = domain.AuctionStatusIdle
				state.Budget = budget
				state.CurrentRoundID = nil
				state.ClearBlock()
				if err := s.auctionRepo.Update(ctx, tx, state); err != nil {
					return err
				}
			}

			return s.franchiseRepo.SetPurses(ctx, tx, leagueID, budget)
		})
	})
	if err != nil {
		return nil, s.mapConflict(err)
	}

	s.appendLog(ctx, &domain.AuctionLogEntry{
		LeagueID: leagueID,
		LogType:  domain.LogTypeSetup,
		Message:  fmt.Sprintf("auction configured with a purse of %d per franchise", budget),
		Amount:   &budget,
	})
	return s.refreshState(ctx, leagueID, "")
}

// CreateRound creates a numbered round with its player queue, fully
// replacing the round if the number already exists
func (s *auctionService) CreateRound(ctx context.Context, leagueID string, req *domain.CreateRoundRequest) (*domain.RoundResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp *domain.RoundResponse

	err := s.controlGate.Run(ctx, leagueID, func() error {
		return s.db.WithTx(ctx, func(tx pgx.Tx) error {
			state, err := s.ensureState(ctx, tx, leagueID)
			if err != nil {
				return err
			}

			round, err := s.roundRepo.GetByNumber(ctx, tx, leagueID, req.RoundNumber)
			if err != nil {
				return err
			}

			if round != nil {
				if state.CurrentRoundID != nil && *state.CurrentRoundID == round.ID && state.OnBlock() {
					return apperrors.NewPreconditionError("cannot rebuild a round while a player is on the block")
				}
				if err := s.roundRepo.UpdateName(ctx, tx, round.ID, req.Name); err != nil {
					return err
				}
				if _, err := s.playerRepo.DeleteByRound(ctx, tx, round.ID); err != nil {
					return err
				}
				round.Name = req.Name
			} else {
				round = &domain.AuctionRound{
					LeagueID:    leagueID,
					RoundNumber: req.RoundNumber,
					Name:        req.Name,
					Status:      domain.RoundStatusPending,
				}
				if err := s.roundRepo.Create(ctx, tx, round); err != nil {
					return err
				}
			}

			imports := req.Players
			if req.FromUnsold {
				pool, err := s.playerRepo.ListUnsold(ctx, tx, leagueID)
				if err != nil {
					return err
				}
				if len(pool) == 0 {
					return apperrors.NewPreconditionError("unsold pool is empty")
				}
				imports = make([]domain.PlayerImport, 0, len(pool))
				for _, entry := range pool {
					imports = append(imports, domain.PlayerImport{
						Name:      entry.Name,
						Team:      entry.Team,
						Role:      entry.Role,
						BasePrice: entry.BasePrice,
					})
				}
				if err := s.playerRepo.ClearUnsold(ctx, tx, leagueID); err != nil {
					return err
				}
			}

			players := buildQueue(leagueID, round.ID, imports, 0)
			if err := s.playerRepo.InsertBatch(ctx, tx, players); err != nil {
				return err
			}

			resp = &domain.RoundResponse{Round: round, PlayerCount: len(players)}
			return nil
		})
	})
	if err != nil {
		return nil, s.mapConflict(err)
	}

	s.invalidateState(ctx, leagueID)
	s.notifyState(ctx, leagueID)
	return resp, nil
}

// ImportPlayers adds players to a round's queue. Without append the
// round's still pending players are replaced, resolved players are kept.
func (s *auctionService) ImportPlayers(ctx context.Context, leagueID, roundID string, req *domain.ImportPlayersRequest) (*domain.ImportResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp *domain.ImportResponse

	err := s.controlGate.Run(ctx, leagueID, func() error {
		return s.db.WithTx(ctx, func(tx pgx.Tx) error {
			round, err := s.roundRepo.GetByID(ctx, tx, roundID)
			if err != nil {
				return err
			}
			if round == nil || round.LeagueID != leagueID {
				return apperrors.NewNotFoundError("round not found in this league")
			}

			if !req.Append {
				if _, err := s.playerRepo.DeletePending(ctx, tx, roundID); err != nil {
					return err
				}
			}

			maxIndex, err := s.playerRepo.MaxOrderIndex(ctx, tx, roundID)
			if err != nil {
				return err
			}

			players := buildQueue(leagueID, roundID, req.Players, maxIndex+1)
			if err := s.playerRepo.InsertBatch(ctx, tx, players); err != nil {
				return err
			}

			resp = &domain.ImportResponse{RoundID: roundID, Count: len(players)}
			return nil
		})
	})
	if err != nil {
		return nil, s.mapConflict(err)
	}

	s.invalidateState(ctx, leagueID)
	s.notifyState(ctx, leagueID)
	return resp, nil
}

// DeleteRound removes a round and, through cascade, its players
func (s *auctionService) DeleteRound(ctx context.Context, leagueID, roundID string) error {
	err := s.controlGate.Run(ctx, leagueID, func() error {
		return s.db.WithTx(ctx, func(tx pgx.Tx) error {
			round, err := s.roundRepo.GetByID(ctx, tx, roundID)
			if err != nil {
				return err
			}
			if round == nil || round.LeagueID != leagueID {
				return apperrors.NewNotFoundError("round not found in this league")
			}

			state, err := s.auctionRepo.GetByLeagueForUpdate(ctx, tx, leagueID)
			if err != nil {
				return err
			}
			if state != nil && state.CurrentRoundID != nil && *state.CurrentRoundID == round.ID {
				if state.OnBlock() {
					return apperrors.NewPreconditionError("cannot delete the round in play")
				}
				state.CurrentRoundID = nil
				state.Status = domain.AuctionStatusIdle
				state.ClearBlock()
				if err := s.auctionRepo.Update(ctx, tx, state); err != nil {
					return err
				}
			}

			return s.roundRepo.Delete(ctx, tx, roundID)
		})
	})
	if err != nil {
		return s.mapConflict(err)
	}

	s.invalidateState(ctx, leagueID)
	s.notifyState(ctx, leagueID)
	return nil
}

// Reset tears the auction down to a fresh pre-start state: logs and the
// unsold pool wiped, players back to pending, rounds deactivated, auction
// roster entries removed, purses restored to the configured budget.
func (s *auctionService) Reset(ctx context.Context, leagueID string) error {
	err := s.controlGate.Run(ctx, leagueID, func() error {
		return s.db.WithTx(ctx, func(tx pgx.Tx) error {
			state, err := s.auctionRepo.GetByLeagueForUpdate(ctx, tx, leagueID)
			if err != nil {
				return err
			}

			budget := s.cfg.DefaultBudget
			if state != nil {
				budget = state.Budget
			}

			if err := s.logRepo.DeleteByLeague(ctx, tx, leagueID); err != nil {
				return err
			}
			if err := s.playerRepo.ClearUnsold(ctx, tx, leagueID); err != nil {
				return err
			}
			if err := s.playerRepo.ResetByLeague(ctx, tx, leagueID); err != nil {
				return err
			}
			if err := s.roundRepo.ResetByLeague(ctx, tx, leagueID); err != nil {
				return err
			}
			if err := s.franchiseRepo.DeleteAuctionRoster(ctx, tx, leagueID); err != nil {
				return err
			}
			if err := s.franchiseRepo.SetPurses(ctx, tx, leagueID, budget); err != nil {
				return err
			}

			if state != nil {
				state.Status = domain.AuctionStatusIdle
				state.CurrentRoundID = nil
				state.ClearBlock()
				if err := s.auctionRepo.Update(ctx, tx, state); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return s.mapConflict(err)
	}

	s.invalidateState(ctx, leagueID)
	s.notifyState(ctx, leagueID)
	return nil
}

// ensureState loads the league's auction state under a row lock, creating
// it lazily on the first control call.
func (s *auctionService) ensureState(ctx context.Context, q database.Querier, leagueID string) (*domain.AuctionState, error) {
	state, err := s.auctionRepo.GetByLeagueForUpdate(ctx, q, leagueID)
	if err != nil {
		return nil, err
	}
	if state != nil {
		return state, nil
	}

	state = &domain.AuctionState{
		LeagueID: leagueID,
		Status:   domain.AuctionStatusIdle,
		Budget:   s.cfg.DefaultBudget,
	}
	if err := s.auctionRepo.Create(ctx, q, state); err != nil {
		return nil, err
	}
	return state, nil
}

func buildQueue(leagueID, roundID string, imports []domain.PlayerImport, baseIndex int) []domain.AuctionPlayer {
	players := make([]domain.AuctionPlayer, 0, len(imports))
	for i, imp := range imports {
		players = append(players, domain.AuctionPlayer{
			LeagueID:   leagueID,
			RoundID:    roundID,
			Name:       imp.Name,
			Team:       imp.Team,
			Role:       imp.Role,
			BasePrice:  imp.BasePrice,
			OrderIndex: baseIndex + i,
			Status:     domain.PlayerStatusPending,
		})
	}
	return players
}

// mapConflict turns an optimistic concurrency miss into a retryable busy
// response.
func (s *auctionService) mapConflict(err error) error {
	if errors.Is(err, domain.ErrVersionConflict) {
		return apperrors.NewBusyError("auction state changed concurrently, retry shortly")
	}
	return err
}

// appendLog writes an audit entry outside the primary transaction. A
// failure is reported operationally and never aborts the operation.
func (s *auctionService) appendLog(ctx context.Context, entry *domain.AuctionLogEntry) {
	if err := s.logRepo.Insert(ctx, s.db.Pool, entry); err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"league_id": entry.LeagueID,
			"log_type":  entry.LogType,
		}).Warn("failed to append auction log")
	}
}

func (s *auctionService) invalidateState(ctx context.Context, leagueID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.keys.AuctionStateKey(leagueID)); err != nil {
		s.logger.WithError(err).WithField("league_id", leagueID).Warn("failed to invalidate state cache")
	}
}

// refreshState assembles the post-mutation state, pushes it to spectators
// and returns it to the caller, tagged with an optional notice.
func (s *auctionService) refreshState(ctx context.Context, leagueID, notice string) (*domain.StateResponse, error) {
	state, err := s.assembleState(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.NotifyState(leagueID, state)
	}
	if notice == "" {
		return state, nil
	}

	tagged := *state
	tagged.Notice = notice
	return &tagged, nil
}

// notifyState pushes fresh state to spectators without returning it
func (s *auctionService) notifyState(ctx context.Context, leagueID string) {
	if s.notifier == nil {
		return
	}
	state, err := s.assembleState(ctx, leagueID)
	if err != nil {
		s.logger.WithError(err).WithField("league_id", leagueID).Warn("failed to assemble state for broadcast")
		return
	}
	s.notifier.NotifyState(leagueID, state)
}
