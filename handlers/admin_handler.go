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

// AdminHandler groups the management operations behind the admin allowlist:
// tournament CRUD, roster edits, bracket generation and teardown.
type AdminHandler struct {
	tournamentService  services.TournamentService
	bracketService     services.BracketService
	matchService       services.MatchService
	participantService services.ParticipantService
	userService        services.UserService
}

func NewAdminHandler(
	tournamentService services.TournamentService,
	bracketService services.BracketService,
	matchService services.MatchService,
	participantService services.ParticipantService,
	userService services.UserService,
) *AdminHandler {
	return &AdminHandler{
		tournamentService:  tournamentService,
		bracketService:     bracketService,
		matchService:       matchService,
		participantService: participantService,
		userService:        userService,
	}
}

func (h *AdminHandler) CreateTournamentHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name        string                  `json:"name"`
		Location    *string                 `json:"location"`
		Description *string                 `json:"description"`
		Status      models.TournamentStatus `json:"status"`
		StartDate   time.Time               `json:"startDate"`
		EndDate     *time.Time              `json:"endDate"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Name == "" {
		badRequestResponse(w, r, errors.New("name is required"))
		return
	}
	if input.StartDate.IsZero() {
		badRequestResponse(w, r, errors.New("startDate is required"))
		return
	}

	tournament := &models.Tournament{
		Name:        input.Name,
		Location:    input.Location,
		Description: input.Description,
		Status:      input.Status,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	}
	if err := h.tournamentService.Create(r.Context(), tournament); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, tournament, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) UpdateTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Name        *string                  `json:"name"`
		Location    *string                  `json:"location"`
		Description *string                  `json:"description"`
		Status      *models.TournamentStatus `json:"status"`
		StartDate   *time.Time               `json:"startDate"`
		EndDate     models.Opt[time.Time]    `json:"endDate"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Update(r.Context(), tournamentID, repositories.TournamentUpdateParams{
		Name:        input.Name,
		Location:    input.Location,
		Description: input.Description,
		Status:      input.Status,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, tournament, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListTournamentsHandler returns every tournament for the admin dashboard.
func (h *AdminHandler) ListTournamentsHandler(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.tournamentService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, tournaments, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadLogoHandler accepts a multipart form with a "logo" file part.
func (h *AdminHandler) UploadLogoHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		badRequestResponse(w, r, errors.New("invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		badRequestResponse(w, r, errors.New("logo file is required"))
		return
	}
	defer file.Close()

	tournament, err := h.tournamentService.UploadLogo(
		r.Context(), tournamentID,
		header.Filename, header.Header.Get("Content-Type"), file,
	)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, tournament, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateBracketHandler seeds round one from the current roster.
func (h *AdminHandler) GenerateBracketHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.bracketService.GenerateBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteBracketHandler removes every match so the bracket can be reseeded.
func (h *AdminHandler) DeleteBracketHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	deleted, err := h.matchService.DeleteByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"deleted": deleted}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) AddParticipantHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		UserID uuid.UUID `json:"userId"`
		Seed   *int      `json:"seed"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.UserID == uuid.Nil {
		badRequestResponse(w, r, errors.New("userId is required"))
		return
	}

	participation, err := h.participantService.Add(r.Context(), tournamentID, input.UserID, input.Seed)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, participation, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) RemoveParticipantHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getUUIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := getUUIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.participantService.Remove(r.Context(), tournamentID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, users, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
