package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crickarena/auction-api/internal/domain"
	"github.com/crickarena/auction-api/internal/middleware"
	"github.com/crickarena/auction-api/internal/service"
	apperrors "github.com/crickarena/auction-api/pkg/errors"
	"github.com/crickarena/auction-api/pkg/logger"
)

// AuctionHandler handles auction API requests
type AuctionHandler struct {
	auction service.AuctionService
	logger  *logger.Logger
}

// NewAuctionHandler creates a new auction handler
func NewAuctionHandler(auction service.AuctionService, logger *logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		auction: auction,
		logger:  logger,
	}
}

// Setup handles POST /api/v1/leagues/{leagueID}/auction/setup
func (h *AuctionHandler) Setup(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")

	// An empty body means "use the default budget".
	var req domain.SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, h.logger, apperrors.NewValidationError("invalid request body"))
		return
	}

	state, err := h.auction.Setup(r.Context(), leagueID, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, state)
}

// CreateRound handles POST /api/v1/leagues/{leagueID}/auction/rounds
func (h *AuctionHandler) CreateRound(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")

	var req domain.CreateRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, apperrors.NewValidationError("invalid request body"))
		return
	}

	round, err := h.auction.CreateRound(r.Context(), leagueID, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, round)
}

// ImportPlayers handles POST /api/v1/leagues/{leagueID}/auction/rounds/{roundID}/players
func (h *AuctionHandler) ImportPlayers(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")
	roundID := chi.URLParam(r, "roundID")

	var req domain.ImportPlayersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, apperrors.NewValidationError("invalid request body"))
		return
	}

	result, err := h.auction.ImportPlayers(r.Context(), leagueID, roundID, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// DeleteRound handles DELETE /api/v1/leagues/{leagueID}/auction/rounds/{roundID}
func (h *AuctionHandler) DeleteRound(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")
	roundID := chi.URLParam(r, "roundID")

	if err := h.auction.DeleteRound(r.Context(), leagueID, roundID); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]string{"round_id": roundID})
}

// Control handles POST /api/v1/leagues/{leagueID}/auction/control
func (h *AuctionHandler) Control(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")

	var req domain.ControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, apperrors.NewValidationError("invalid request body"))
		return
	}

	state, err := h.auction.Control(r.Context(), leagueID, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, state)
}

// Bid handles POST /api/v1/leagues/{leagueID}/auction/bid
func (h *AuctionHandler) Bid(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")

	var req domain.BidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, apperrors.NewValidationError("invalid request body"))
		return
	}

	// Franchise tokens bid as themselves; admins may bid on behalf of any
	// franchise during in-room auctions.
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok && claims.Role == domain.RoleFranchise {
		if req.FranchiseID == "" {
			req.FranchiseID = claims.FranchiseID
		} else if req.FranchiseID != claims.FranchiseID {
			respondError(w, h.logger, apperrors.NewForbiddenError("cannot bid for another franchise"))
			return
		}
	}

	result, err := h.auction.Bid(r.Context(), leagueID, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// GetState handles GET /api/v1/leagues/{leagueID}/auction/state
func (h *AuctionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")

	state, err := h.auction.GetState(r.Context(), leagueID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, state)
}

// ListPlayers handles GET /api/v1/leagues/{leagueID}/auction/players
func (h *AuctionHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")
	roundID := r.URL.Query().Get("roundId")
	status := domain.PlayerStatus(r.URL.Query().Get("status"))

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	players, err := h.auction.ListPlayers(r.Context(), leagueID, roundID, status, limit)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"players": players,
		"count":   len(players),
	})
}

// ListLogs handles GET /api/v1/leagues/{leagueID}/auction/logs
func (h *AuctionHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")
	roundID := r.URL.Query().Get("roundId")

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	logs, err := h.auction.ListLogs(r.Context(), leagueID, roundID, limit)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}

// ListUnsold handles GET /api/v1/leagues/{leagueID}/auction/unsold
func (h *AuctionHandler) ListUnsold(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")

	players, err := h.auction.ListUnsold(r.Context(), leagueID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"players": players,
		"count":   len(players),
	})
}

// Reset handles DELETE /api/v1/leagues/{leagueID}/auction
func (h *AuctionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")

	if err := h.auction.Reset(r.Context(), leagueID); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]string{"league_id": leagueID})
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, apperrors.NewValidationError("limit must be a non-negative integer")
	}
	return limit, nil
}
