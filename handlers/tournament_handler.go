package handlers

import (
	"net/http"

	"github.com/bolaenmano/tournament-api/middleware"
	"github.com/bolaenmano/tournament-api/services"
)

type TournamentHandler struct {
	tournamentService  services.TournamentService
	bracketService     services.BracketService
	participantService services.ParticipantService
}

func NewTournamentHandler(
	tournamentService services.TournamentService,
	bracketService services.BracketService,
	participantService services.ParticipantService,
) *TournamentHandler {
	return &TournamentHandler{
		tournamentService:  tournamentService,
		bracketService:     bracketService,
		participantService: participantService,
	}
}

// GetCurrentHandler returns the tournament shown on the app home screen.
func (h *TournamentHandler) GetCurrentHandler(w http.ResponseWriter, r *http.Request) {
	tournament, err := h.tournamentService.GetCurrent(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, tournament, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.tournamentService.ListHistory(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, tournaments, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetByID(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, tournament, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetBracketHandler returns the bracket grouped by round.
func (h *TournamentHandler) GetBracketHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.GetBracketData(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, bracket, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// JoinHandler registers the caller for an upcoming tournament.
func (h *TournamentHandler) JoinHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "Unauthorized")
		return
	}

	participation, err := h.participantService.Join(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, participation, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
