package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/bolaenmano/tournament-api/models"
	"github.com/bolaenmano/tournament-api/repositories"
	"github.com/bolaenmano/tournament-api/services"
	"github.com/google/uuid"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// ListHandler returns matches, optionally filtered by tournament and by
// scope (all, upcoming, completed).
func (h *MatchHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	filter := repositories.MatchListFilter{Scope: repositories.MatchScopeAll}

	if raw := r.URL.Query().Get("tournamentId"); raw != "" {
		tournamentID, err := uuid.Parse(raw)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid tournamentId parameter"))
			return
		}
		filter.TournamentID = &tournamentID
	}

	switch scope := r.URL.Query().Get("scope"); scope {
	case "", "all":
	case "upcoming":
		filter.Scope = repositories.MatchScopeUpcoming
	case "completed":
		filter.Scope = repositories.MatchScopeCompleted
	default:
		badRequestResponse(w, r, errors.New("scope must be one of: all, upcoming, completed"))
		return
	}

	matches, err := h.matchService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, matches, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getUUIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetByID(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, match, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TournamentID uuid.UUID  `json:"tournamentId"`
		PlayerAID    uuid.UUID  `json:"playerAId"`
		PlayerBID    uuid.UUID  `json:"playerBId"`
		RoundNumber  int        `json:"roundNumber"`
		TableNumber  *int       `json:"tableNumber"`
		ScheduledAt  *time.Time `json:"scheduledAt"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TournamentID == uuid.Nil || input.PlayerAID == uuid.Nil || input.PlayerBID == uuid.Nil {
		badRequestResponse(w, r, errors.New("tournamentId, playerAId and playerBId are required"))
		return
	}

	match, err := h.matchService.Create(r.Context(), &models.Match{
		TournamentID: input.TournamentID,
		PlayerAID:    input.PlayerAID,
		PlayerBID:    input.PlayerBID,
		RoundNumber:  input.RoundNumber,
		TableNumber:  input.TableNumber,
		ScheduledAt:  input.ScheduledAt,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, match, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler applies a partial update. Absent fields are left untouched;
// explicit nulls clear nullable fields. Reporting a winner triggers the
// stats and advancement pipeline in the service layer.
func (h *MatchHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getUUIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		PlayerAID   *uuid.UUID            `json:"playerAId"`
		PlayerBID   *uuid.UUID            `json:"playerBId"`
		TableNumber models.Opt[int]       `json:"tableNumber"`
		ScheduledAt models.Opt[time.Time] `json:"scheduledAt"`
		CompletedAt models.Opt[time.Time] `json:"completedAt"`
		WinnerID    models.Opt[uuid.UUID] `json:"winnerId"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// An omitted winnerId re-sends the stored winner, so patching a decided
	// match reruns the stats and advancement pipeline. The mobile client
	// relies on this to re-trigger advancement after a partial failure.
	if !input.WinnerID.Set {
		existing, err := h.matchService.GetByID(r.Context(), matchID)
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		if existing.WinnerID != nil {
			input.WinnerID = models.OptOf(*existing.WinnerID)
		}
	}

	match, err := h.matchService.Update(r.Context(), matchID, repositories.MatchUpdateParams{
		PlayerAID:   input.PlayerAID,
		PlayerBID:   input.PlayerBID,
		TableNumber: input.TableNumber,
		ScheduledAt: input.ScheduledAt,
		CompletedAt: input.CompletedAt,
		WinnerID:    input.WinnerID,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, match, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getUUIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.Delete(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
